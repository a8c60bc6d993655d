package main

import (
	"github.com/spf13/cobra"

	"github.com/msikit/msikit/pkg/overlay"
)

var testTolerant bool

func init() {
	cmd := &cobra.Command{
		Use:   "test <file>",
		Short: "Validate a package's tables and relational overlay",
		Long: `The test command decodes every table and builds the full
relational overlay (directories, components, files, media, registry,
removefile, and shortcut entries), reporting every structural
diagnostic and any fatal relationship error it encounters.

Example:
  msictl test sample.msi
  msictl test sample.msi --tolerant`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(args[0])
		},
	}
	cmd.Flags().BoolVar(&testTolerant, "tolerant", false, "Downgrade fatal relationship errors to diagnostics")
	rootCmd.AddCommand(cmd)
}

func runTest(path string) error {
	pkg, closeFn, err := openPackage(path, testTolerant)
	if err != nil {
		return err
	}
	defer closeFn()

	var tableErrs []string
	for _, name := range pkg.Tables() {
		if _, err := pkg.Get(name); err != nil {
			tableErrs = append(tableErrs, name+": "+err.Error())
		}
	}

	ov, diags, err := overlay.Build(pkg, testTolerant)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(map[string]interface{}{
			"file":        path,
			"tableErrors": tableErrs,
			"diagnostics": diags,
			"directories": len(ov.Directories),
			"components":  len(ov.Components),
			"files":       len(ov.Files),
		})
	}

	printInfo("%s: %d tables, %d directories, %d components, %d files\n",
		path, len(pkg.Tables()), len(ov.Directories), len(ov.Components), len(ov.Files))
	for _, e := range tableErrs {
		printError("table %s\n", e)
	}
	for _, d := range diags {
		printInfo("[%s/%s] %s (%s)\n", d.Severity, d.Category, d.Message, d.Context)
	}
	if len(tableErrs) == 0 && len(diags) == 0 {
		printInfo("no structural issues found\n")
	}
	return nil
}
