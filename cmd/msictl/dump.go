package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msikit/msikit/internal/coltype"
	"github.com/msikit/msikit/internal/table"
	"github.com/msikit/msikit/pkg/msi"
)

var dumpTable string

func init() {
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Dump the rows of one or every table",
		Long: `The dump command prints every row of a named table, or every
table in the package when --table is omitted.

Example:
  msictl dump sample.msi --table Component
  msictl dump sample.msi --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args[0])
		},
	}
	cmd.Flags().StringVar(&dumpTable, "table", "", "Dump only this table")
	rootCmd.AddCommand(cmd)
}

func runDump(path string) error {
	pkg, closeFn, err := openPackage(path, false)
	if err != nil {
		return err
	}
	defer closeFn()

	names := pkg.Tables()
	if dumpTable != "" {
		names = []string{dumpTable}
	}

	if jsonOut {
		result := map[string]interface{}{"file": path}
		tablesOut := map[string]interface{}{}
		for _, name := range names {
			tbl, err := pkg.Get(name)
			if err != nil || tbl == nil {
				continue
			}
			tablesOut[name] = rowsToJSON(tbl)
		}
		result["tables"] = tablesOut
		return printJSON(result)
	}

	for _, name := range names {
		tbl, err := pkg.Get(name)
		if err != nil {
			printError("dumping %s: %v\n", name, err)
			continue
		}
		if tbl == nil {
			printError("no such table: %s\n", name)
			continue
		}
		printInfo("[%s]\n", name)
		cols := tbl.Columns()
		for _, row := range tbl.Rows() {
			parts := make([]string, 0, len(cols))
			for _, c := range cols {
				parts = append(parts, formatCell(row, c))
			}
			printInfo("  %v\n", parts)
		}
		printInfo("\n")
	}
	return nil
}

func formatCell(row msi.Row, c table.Column) string {
	cell, ok := row.Get(c.Name)
	if !ok || cell.IsNull() {
		return fmt.Sprintf("%s=NULL", c.Name)
	}
	if c.Type.Kind() == coltype.KindString {
		return fmt.Sprintf("%s=%q", c.Name, cell.String())
	}
	return fmt.Sprintf("%s=%d", c.Name, cell.Int())
}

func rowsToJSON(tbl *msi.Table) []map[string]interface{} {
	cols := tbl.Columns()
	out := make([]map[string]interface{}, 0, len(tbl.Rows()))
	for _, row := range tbl.Rows() {
		m := map[string]interface{}{}
		for _, c := range cols {
			cell, ok := row.Get(c.Name)
			if !ok || cell.IsNull() {
				m[c.Name] = nil
				continue
			}
			if c.Type.Kind() == coltype.KindString {
				m[c.Name] = cell.String()
			} else {
				m[c.Name] = cell.Int()
			}
		}
		out = append(out, m)
	}
	return out
}
