package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ofirbed/DataTaggingLibrary/pkg/cli"
	"github.com/ofirbed/DataTaggingLibrary/pkg/localization"
)

var locFlags struct {
	format string
	out    string
	dir    string
}

var locExportCmd = &cobra.Command{
	Use:   "loc-export",
	Short: "Export the localizable texts of a model",
	Long: `Export every localizable text of a model: question texts and terms,
section titles, rejection reasons, todo notes, answer texts and the notes of
the policy space.

Examples:
  # YAML to stdout
  policymodels loc-export --model model.yaml

  # CSV file for translators
  policymodels loc-export --model model.yaml --format csv --out texts.csv

  # A localization directory with one markdown file per node
  policymodels loc-export --model model.yaml --dir loc/en`,
	RunE: exportLocalization,
}

func init() {
	rootCmd.AddCommand(locExportCmd)

	locExportCmd.Flags().StringVar(&locFlags.format, "format", "yaml", "export format: yaml, json, csv")
	locExportCmd.Flags().StringVarP(&locFlags.out, "out", "o", "", "output file (stdout when empty)")
	locExportCmd.Flags().StringVar(&locFlags.dir, "dir", "", "write a localization directory instead of a single file")
}

func exportLocalization(cmd *cobra.Command, args []string) error {
	if locFlags.dir != "" && locFlags.out != "" {
		return cli.NewConfigError("--dir", "--dir and --out are mutually exclusive")
	}
	ctx := cmd.Context()

	m, _, err := app.loadModel(ctx)
	if err != nil {
		return cli.NewCommandError("loc-export", err)
	}
	bundle := localization.Export(m)

	if locFlags.dir != "" {
		if err := localization.WriteDir(locFlags.dir, bundle); err != nil {
			return cli.NewCommandError("loc-export", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d entries to %s\n", len(bundle.Entries()), locFlags.dir)
		return nil
	}

	exporter, err := localization.NewExporter(locFlags.format)
	if err != nil {
		return cli.NewConfigError("--format", err.Error())
	}

	var w io.Writer = cmd.OutOrStdout()
	if locFlags.out != "" {
		f, err := os.Create(locFlags.out)
		if err != nil {
			return cli.NewCommandError("loc-export", err)
		}
		defer f.Close()
		w = f
	}
	if err := exporter.Export(ctx, bundle, w); err != nil {
		return cli.NewCommandError("loc-export", err)
	}
	app.logger.DebugContext(ctx, "localization exported",
		"entries", len(bundle.Entries()),
		"format", locFlags.format,
	)
	return nil
}
