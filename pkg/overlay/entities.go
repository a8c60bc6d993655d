// Package overlay cross-links rows of the Directory, Component, File,
// Media, Registry, RemoveFile, Shortcut, and Icon tables into a
// navigable installation tree, per spec.md §4.7. Entities hold direct
// pointers to each other once linked, the same Parent/Children
// pointer-tree idiom hivekit's pkg/ast.Tree/Node use for registry keys
// — built in two phases (all nodes first, then edges) rather than
// pymsi's repeated-until-stable `_populate_map` loop, since iterating
// in a fixed dependency order makes a single pass sufficient.
package overlay

// Directory is one row of the Directory table, linked into a tree by
// parent-id. Exactly one Directory has no parent (the root).
type Directory struct {
	ID         string
	ParentID   string // "" for the root
	DefaultDir string

	Parent   *Directory
	Children []*Directory
}

// Component is one row of the Component table, belonging to exactly
// one Directory.
type Component struct {
	ID          string
	ComponentID string // the component's GUID, distinct from its key
	DirectoryID string
	Attributes  int64
	Condition   string
	KeyPath     string

	Directory   *Directory
	Files       []*File
	Registry    []*Registry
	RemoveFiles []*RemoveFile
}

// File is one row of the File table, belonging to exactly one
// Component and resolved to exactly one Media (or none, for an
// unpacked file).
type File struct {
	ID         string
	ComponentID string
	Name       string
	Size       int64
	Version    string
	Language   []string
	Attributes int64
	Sequence   int64

	Component *Component
	Media     *Media // nil if no Media has LastSequence >= Sequence
}

// Media is one row of the Media table: a disk in the ordered sequence
// keyed by DiskID.
type Media struct {
	DiskID       int64
	LastSequence int64
	DiskPrompt   string
	Cabinet      string
	VolumeLabel  string
	Source       string
}

// Registry is one row of the Registry table, owned by a Component.
type Registry struct {
	ID          string
	Root        int64
	Key         string
	Name        string
	Value       string
	ComponentID string

	Component *Component
}

// RemoveFile is one row of the RemoveFile table, owned by a Component
// and optionally scoped to a Directory (by DirProperty, when it names
// a known Directory ID — MSI also allows DirProperty to name an
// arbitrary installer property, which the overlay cannot resolve and
// leaves as nil Directory without error).
type RemoveFile struct {
	ID          string
	ComponentID string
	FileName    string
	DirProperty string
	InstallMode int64

	Component *Component
	Directory *Directory // nil if DirProperty isn't a known Directory ID
}

// Shortcut is one row of the Shortcut table, owned by a Directory and a
// Component, optionally referencing an Icon.
type Shortcut struct {
	ID          string
	DirectoryID string
	Name        string
	ComponentID string
	Target      string
	IconID      string

	Directory *Directory
	Component *Component
	Icon      *Icon // nil if IconID is empty or unresolved
}

// Icon is one row of the Icon table: a named reference to a binary
// icon stream. Reading the stream itself is outside the overlay's
// scope (the stream name is available via internal/codec.Encode(Name,
// false) against the owning Package's StreamSource).
type Icon struct {
	Name       string
	StreamName string
}
