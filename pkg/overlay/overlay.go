package overlay

import (
	"sort"

	"github.com/msikit/msikit/internal/diag"
	"github.com/msikit/msikit/pkg/msi"
)

// Overlay is the fully linked relational view over a Package's tables,
// per spec.md §4.7. Construction is fatal on a dangling required
// foreign key, a non-single-rooted or cyclic directory graph, or an
// underlying row-decode failure — unless built with Tolerant, which
// downgrades dangling-FK and media-overrun failures to diagnostics and
// keeps the affected entity's pointer nil instead of aborting.
type Overlay struct {
	Root        *Directory
	Directories map[string]*Directory
	Components  map[string]*Component
	Files       map[string]*File
	Media       map[int64]*Media
	Registry    map[string]*Registry
	RemoveFiles map[string]*RemoveFile
	Shortcuts   map[string]*Shortcut
	Icons       map[string]*Icon
}

// Build constructs an Overlay from pkg's tables. tolerant mirrors
// msi.OpenOptions.Tolerant: when true, dangling-FK and media-overrun
// conditions become diagnostics instead of returning an error.
func Build(pkg *msi.Package, tolerant bool) (*Overlay, []diag.Diagnostic, error) {
	var diags []diag.Diagnostic

	directories := newArena[string, *Directory](0)
	components := newArena[string, *Component](0)
	files := newArena[string, *File](0)
	media := newArena[int64, *Media](0)
	registry := newArena[string, *Registry](0)
	removeFiles := newArena[string, *RemoveFile](0)
	shortcuts := newArena[string, *Shortcut](0)
	icons := newArena[string, *Icon](0)

	// Phase 1: build all entity maps independently from their rows.
	if err := loadDirectories(pkg, directories); err != nil {
		return nil, diags, err
	}
	if err := loadComponents(pkg, components); err != nil {
		return nil, diags, err
	}
	if err := loadFiles(pkg, files); err != nil {
		return nil, diags, err
	}
	if err := loadMedia(pkg, media); err != nil {
		return nil, diags, err
	}
	if err := loadRegistry(pkg, registry); err != nil {
		return nil, diags, err
	}
	if err := loadRemoveFiles(pkg, removeFiles); err != nil {
		return nil, diags, err
	}
	if err := loadShortcuts(pkg, shortcuts); err != nil {
		return nil, diags, err
	}
	if err := loadIcons(pkg, icons); err != nil {
		return nil, diags, err
	}

	// Phase 2: resolve foreign keys in dependency order (Directories
	// first, Components next, then Files/Registry/RemoveFile/Shortcut).
	root, err := linkDirectories(directories)
	if err != nil {
		return nil, diags, err
	}

	if err := linkComponents(components, directories, tolerant, &diags); err != nil {
		return nil, diags, err
	}
	if err := linkFiles(files, components, media, tolerant, &diags); err != nil {
		return nil, diags, err
	}
	linkRegistry(registry, components, &diags)
	linkRemoveFiles(removeFiles, components, directories, &diags)
	linkShortcuts(shortcuts, directories, components, icons, &diags)

	return &Overlay{
		Root:        root,
		Directories: directories.byKey,
		Components:  components.byKey,
		Files:       files.byKey,
		Media:       media.byKey,
		Registry:    registry.byKey,
		RemoveFiles: removeFiles.byKey,
		Shortcuts:   shortcuts.byKey,
		Icons:       icons.byKey,
	}, diags, nil
}

func rowsOf(pkg *msi.Package, tableName string) ([]msi.Row, error) {
	tbl, err := pkg.Get(tableName)
	if err != nil {
		return nil, err
	}
	if tbl == nil {
		return nil, nil
	}
	return tbl.Rows(), nil
}

func loadDirectories(pkg *msi.Package, out arena[string, *Directory]) error {
	rows, err := rowsOf(pkg, "Directory")
	if err != nil {
		return err
	}
	for _, r := range rows {
		id := r.String("Directory")
		out.put(id, &Directory{
			ID:         id,
			ParentID:   r.String("Directory_Parent"),
			DefaultDir: r.String("DefaultDir"),
		})
	}
	return nil
}

func loadComponents(pkg *msi.Package, out arena[string, *Component]) error {
	rows, err := rowsOf(pkg, "Component")
	if err != nil {
		return err
	}
	for _, r := range rows {
		id := r.String("Component")
		out.put(id, &Component{
			ID:          id,
			ComponentID: r.String("ComponentId"),
			DirectoryID: r.String("Directory_"),
			Attributes:  r.Int("Attributes"),
			Condition:   r.String("Condition"),
			KeyPath:     r.String("KeyPath"),
		})
	}
	return nil
}

func loadFiles(pkg *msi.Package, out arena[string, *File]) error {
	rows, err := rowsOf(pkg, "File")
	if err != nil {
		return err
	}
	for _, r := range rows {
		id := r.String("File")
		out.put(id, &File{
			ID:          id,
			ComponentID: r.String("Component_"),
			Name:        r.String("FileName"),
			Size:        r.Int("FileSize"),
			Version:     r.String("Version"),
			Language:    splitList(r.String("Language")),
			Attributes:  r.Int("Attributes"),
			Sequence:    r.Int("Sequence"),
		})
	}
	return nil
}

func loadMedia(pkg *msi.Package, out arena[int64, *Media]) error {
	rows, err := rowsOf(pkg, "Media")
	if err != nil {
		return err
	}
	for _, r := range rows {
		id := r.Int("DiskId")
		out.put(id, &Media{
			DiskID:       id,
			LastSequence: r.Int("LastSequence"),
			DiskPrompt:   r.String("DiskPrompt"),
			Cabinet:      r.String("Cabinet"),
			VolumeLabel:  r.String("VolumeLabel"),
			Source:       r.String("Source"),
		})
	}
	return nil
}

func loadRegistry(pkg *msi.Package, out arena[string, *Registry]) error {
	rows, err := rowsOf(pkg, "Registry")
	if err != nil {
		return err
	}
	for _, r := range rows {
		id := r.String("Registry")
		out.put(id, &Registry{
			ID:          id,
			Root:        r.Int("Root"),
			Key:         r.String("Key"),
			Name:        r.String("Name"),
			Value:       r.String("Value"),
			ComponentID: r.String("Component_"),
		})
	}
	return nil
}

func loadRemoveFiles(pkg *msi.Package, out arena[string, *RemoveFile]) error {
	rows, err := rowsOf(pkg, "RemoveFile")
	if err != nil {
		return err
	}
	for _, r := range rows {
		id := r.String("FileKey")
		out.put(id, &RemoveFile{
			ID:          id,
			ComponentID: r.String("Component_"),
			FileName:    r.String("FileName"),
			DirProperty: r.String("DirProperty"),
			InstallMode: r.Int("InstallMode"),
		})
	}
	return nil
}

func loadShortcuts(pkg *msi.Package, out arena[string, *Shortcut]) error {
	rows, err := rowsOf(pkg, "Shortcut")
	if err != nil {
		return err
	}
	for _, r := range rows {
		id := r.String("Shortcut")
		out.put(id, &Shortcut{
			ID:          id,
			DirectoryID: r.String("Directory_"),
			Name:        r.String("Name"),
			ComponentID: r.String("Component_"),
			Target:      r.String("Target"),
			IconID:      r.String("Icon_"),
		})
	}
	return nil
}

func loadIcons(pkg *msi.Package, out arena[string, *Icon]) error {
	rows, err := rowsOf(pkg, "Icon")
	if err != nil {
		return err
	}
	for _, r := range rows {
		name := r.String("Name")
		out.put(name, &Icon{Name: name, StreamName: name})
	}
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func linkDirectories(dirs arena[string, *Directory]) (*Directory, error) {
	var root *Directory
	rootCount := 0
	for _, d := range dirs.byKey {
		if d.ParentID == "" || d.ParentID == d.ID {
			rootCount++
			root = d
			continue
		}
		if parent, ok := dirs.get(d.ParentID); ok {
			d.Parent = parent
			parent.Children = append(parent.Children, d)
		}
	}
	// Cycle detection runs before the root-count check: a pure cycle
	// (every directory has a non-empty, non-self parent) leaves
	// rootCount at 0, and that case must surface as
	// ErrCyclicDirectoryGraph, not ErrMultipleRoots.
	limit := dirs.len() + 1
	for _, d := range dirs.byKey {
		steps := 0
		for cur := d; cur.Parent != nil; cur = cur.Parent {
			steps++
			if steps > limit {
				return nil, ErrCyclicDirectoryGraph
			}
		}
	}

	if rootCount != 1 {
		return nil, ErrMultipleRoots
	}

	for _, d := range dirs.byKey {
		sort.Slice(d.Children, func(i, j int) bool { return d.Children[i].ID < d.Children[j].ID })
	}
	return root, nil
}

func linkComponents(components arena[string, *Component], directories arena[string, *Directory], tolerant bool, diags *[]diag.Diagnostic) error {
	for _, c := range components.byKey {
		dir, ok := directories.get(c.DirectoryID)
		if !ok {
			if !tolerant {
				return ErrComponentWithoutDirectory
			}
			*diags = append(*diags, diag.Diagnostic{
				Severity: diag.SevError,
				Category: diag.CategoryOverlay,
				Message:  "component references unknown directory",
				Context:  c.ID,
			})
			continue
		}
		c.Directory = dir
	}
	return nil
}

func linkFiles(files arena[string, *File], components arena[string, *Component], media arena[int64, *Media], tolerant bool, diags *[]diag.Diagnostic) error {
	sortedMedia := make([]*Media, 0, media.len())
	for _, m := range media.byKey {
		sortedMedia = append(sortedMedia, m)
	}
	sort.Slice(sortedMedia, func(i, j int) bool { return sortedMedia[i].LastSequence < sortedMedia[j].LastSequence })

	for _, f := range files.byKey {
		comp, ok := components.get(f.ComponentID)
		if !ok {
			if !tolerant {
				return ErrFileWithoutComponent
			}
			*diags = append(*diags, diag.Diagnostic{
				Severity: diag.SevError,
				Category: diag.CategoryOverlay,
				Message:  "file references unknown component",
				Context:  f.ID,
			})
			continue
		}
		f.Component = comp
		comp.Files = append(comp.Files, f)

		if len(sortedMedia) == 0 {
			continue // no Media table at all: valid for unpacked files
		}
		idx := sort.Search(len(sortedMedia), func(i int) bool { return sortedMedia[i].LastSequence >= f.Sequence })
		if idx == len(sortedMedia) {
			if !tolerant {
				return ErrFileExceedsMedia
			}
			*diags = append(*diags, diag.Diagnostic{
				Severity: diag.SevWarning,
				Category: diag.CategoryOverlay,
				Message:  "file sequence exceeds every media's last sequence",
				Context:  f.ID,
			})
			continue
		}
		f.Media = sortedMedia[idx]
	}
	return nil
}

func linkRegistry(registry arena[string, *Registry], components arena[string, *Component], diags *[]diag.Diagnostic) {
	for _, r := range registry.byKey {
		comp, ok := components.get(r.ComponentID)
		if !ok {
			*diags = append(*diags, diag.Diagnostic{
				Severity: diag.SevWarning,
				Category: diag.CategoryOverlay,
				Message:  "registry entry references unknown component",
				Context:  r.ID,
			})
			continue
		}
		r.Component = comp
		comp.Registry = append(comp.Registry, r)
	}
}

func linkRemoveFiles(removeFiles arena[string, *RemoveFile], components arena[string, *Component], directories arena[string, *Directory], diags *[]diag.Diagnostic) {
	for _, rf := range removeFiles.byKey {
		if comp, ok := components.get(rf.ComponentID); ok {
			rf.Component = comp
			comp.RemoveFiles = append(comp.RemoveFiles, rf)
		} else {
			*diags = append(*diags, diag.Diagnostic{
				Severity: diag.SevWarning,
				Category: diag.CategoryOverlay,
				Message:  "removefile entry references unknown component",
				Context:  rf.ID,
			})
		}
		if dir, ok := directories.get(rf.DirProperty); ok {
			rf.Directory = dir
		}
	}
}

func linkShortcuts(shortcuts arena[string, *Shortcut], directories arena[string, *Directory], components arena[string, *Component], icons arena[string, *Icon], diags *[]diag.Diagnostic) {
	for _, s := range shortcuts.byKey {
		if dir, ok := directories.get(s.DirectoryID); ok {
			s.Directory = dir
		} else {
			*diags = append(*diags, diag.Diagnostic{
				Severity: diag.SevWarning,
				Category: diag.CategoryOverlay,
				Message:  "shortcut references unknown directory",
				Context:  s.ID,
			})
		}
		if comp, ok := components.get(s.ComponentID); ok {
			s.Component = comp
		} else {
			*diags = append(*diags, diag.Diagnostic{
				Severity: diag.SevWarning,
				Category: diag.CategoryOverlay,
				Message:  "shortcut references unknown component",
				Context:  s.ID,
			})
		}
		if s.IconID != "" {
			if icon, ok := icons.get(s.IconID); ok {
				s.Icon = icon
			}
		}
	}
}
