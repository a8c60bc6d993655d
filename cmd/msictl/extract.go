package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/msikit/msikit/internal/codec"
	"github.com/msikit/msikit/pkg/overlay"
)

func init() {
	cmd := &cobra.Command{
		Use:   "extract <file> [dir]",
		Short: "Extract every Icon table entry's stream to disk",
		Long: `The extract command resolves the relational overlay and, for
every Icon table entry, writes the raw bytes of the stream it names
under the destination directory, which defaults to the current
directory. File table payloads (held in cabinets) and Binary table
streams are not extracted.

Example:
  msictl extract sample.msi ./out`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 2 {
				dir = args[1]
			}
			return runExtract(args[0], dir)
		},
	}
	rootCmd.AddCommand(cmd)
}

func runExtract(path, dir string) error {
	pkg, closeFn, err := openPackage(path, true)
	if err != nil {
		return err
	}
	defer closeFn()

	ov, _, err := overlay.Build(pkg, true)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	var extracted, skipped int
	for _, icon := range ov.Icons {
		streamName, err := codec.Encode(icon.StreamName, false)
		if err != nil {
			skipped++
			continue
		}
		raw, err := pkg.RawStream(streamName)
		if err != nil {
			skipped++
			printVerbose("skipping icon %s: %v\n", icon.Name, err)
			continue
		}
		dest := filepath.Join(dir, sanitizeName(icon.Name))
		if err := os.WriteFile(dest, raw, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", dest, err)
		}
		extracted++
	}

	printInfo("extracted %d streams to %s (%d skipped)\n", extracted, dir, skipped)
	return nil
}

// sanitizeName strips path separators from a table-provided name before
// it's joined onto the destination directory, since MSI identifiers
// are not guaranteed to be filesystem-safe.
func sanitizeName(name string) string {
	return filepath.Base(filepath.FromSlash(name))
}
