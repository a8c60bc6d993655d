package main

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "tables <file>",
		Short: "List every table in a package",
		Long: `The tables command lists the name of every table the package's
_Tables meta-table names, including the bootstrap meta-tables
themselves (_Tables, _Columns, and _Validation when present).

Example:
  msictl tables sample.msi
  msictl tables sample.msi --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables(args[0])
		},
	}
	rootCmd.AddCommand(cmd)
}

func runTables(path string) error {
	pkg, closeFn, err := openPackage(path, false)
	if err != nil {
		return err
	}
	defer closeFn()

	names := pkg.Tables()

	if jsonOut {
		return printJSON(map[string]interface{}{
			"file":   path,
			"tables": names,
		})
	}

	printInfo("%d tables in %s:\n", len(names), path)
	for _, name := range names {
		tbl, err := pkg.Get(name)
		if err != nil {
			printVerbose("  %s (error: %v)\n", name, err)
			continue
		}
		printInfo("  %-24s %d columns, %d rows\n", name, len(tbl.Columns()), len(tbl.Rows()))
	}
	return nil
}
