package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ofirbed/DataTaggingLibrary/pkg/cli"
	pmlErrors "github.com/ofirbed/DataTaggingLibrary/pkg/pml/errors"
)

var compileFlags struct {
	strict bool
	format string
}

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile and validate a model",
	Long: `Compile a model file and report its diagnostics.

The compile command decodes the model, builds the policy space and the
decision graph, and validates the result:
  - YAML syntax and reference structure
  - Slot declarations and inferrers
  - Set and consider assignments against the policy space
  - Unresolved calls and unreachable nodes

Examples:
  # Compile the model named in the configuration
  policymodels compile

  # Compile a specific file, failing on warnings
  policymodels compile --model model.yaml --strict

  # JSON output for CI/CD
  policymodels compile --model model.yaml --format json`,
	RunE: compileModel,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().BoolVar(&compileFlags.strict, "strict", false, "treat warnings as errors")
	compileCmd.Flags().StringVar(&compileFlags.format, "format", "text", "output format: text, json, yaml")
}

// CompileResult is the outcome of compiling one model file.
type CompileResult struct {
	File     string       `json:"file" yaml:"file"`
	Valid    bool         `json:"valid" yaml:"valid"`
	Title    string       `json:"title,omitempty" yaml:"title,omitempty"`
	Version  string       `json:"version,omitempty" yaml:"version,omitempty"`
	Nodes    int          `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Slots    int          `json:"slots,omitempty" yaml:"slots,omitempty"`
	Errors   []Diagnostic `json:"errors,omitempty" yaml:"errors,omitempty"`
	Warnings []Diagnostic `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Diagnostic is a single compile error or warning.
type Diagnostic struct {
	Line       int    `json:"line,omitempty" yaml:"line,omitempty"`
	Column     int    `json:"column,omitempty" yaml:"column,omitempty"`
	NodeID     string `json:"node,omitempty" yaml:"node,omitempty"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty"`
	Message    string `json:"message" yaml:"message"`
	Suggestion string `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

func newDiagnostic(e *pmlErrors.Error) Diagnostic {
	return Diagnostic{
		Line:       e.Location.Line,
		Column:     e.Location.Column,
		NodeID:     e.NodeID,
		Type:       string(e.Type),
		Message:    e.Message,
		Suggestion: e.Suggestion,
	}
}

func compileModel(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(compileFlags.format)
	if err != nil {
		return err
	}

	src, err := app.modelSource()
	if err != nil {
		return err
	}
	result := CompileResult{File: src.Name(), Valid: true}
	m, warnings, err := app.loadModel(cmd.Context())
	if err != nil {
		result.Valid = false
		var list *pmlErrors.ErrorList
		var single *pmlErrors.Error
		switch {
		case errors.As(err, &list):
			for _, e := range list.Errors {
				if e.IsWarning() {
					result.Warnings = append(result.Warnings, newDiagnostic(e))
				} else {
					result.Errors = append(result.Errors, newDiagnostic(e))
				}
			}
		case errors.As(err, &single):
			result.Errors = append(result.Errors, newDiagnostic(single))
		default:
			result.Errors = append(result.Errors, Diagnostic{Message: err.Error()})
		}
	} else {
		result.Title = m.Metadata().Title
		result.Version = m.Version()
		result.Nodes = m.Graph().Len()
		result.Slots = len(m.Space().Slots())
		for _, w := range warnings {
			result.Warnings = append(result.Warnings, newDiagnostic(w))
		}
	}

	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result); err != nil {
		return err
	}

	if !result.Valid {
		return cli.NewCommandError("compile", fmt.Errorf("%d error(s) in %s", len(result.Errors), result.File))
	}
	if compileFlags.strict && len(result.Warnings) > 0 {
		return cli.NewCommandError("compile", fmt.Errorf("strict mode: %d warning(s) in %s", len(result.Warnings), result.File))
	}
	return nil
}

// Text renders the result for a terminal.
func (r CompileResult) Text(w io.Writer) error {
	fmt.Fprintf(w, "Compiling %s...\n", r.File)
	if r.Valid {
		fmt.Fprintf(w, "✓ %q version %s: %d nodes, %d slots\n", r.Title, r.Version, r.Nodes, r.Slots)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "✗ Error: %s\n", e.describe())
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "⚠  Warning: %s\n", warn.describe())
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	_, err := fmt.Fprintf(w, "  %d error(s), %d warning(s)\n", len(r.Errors), len(r.Warnings))
	return err
}

func (d Diagnostic) describe() string {
	s := d.Message
	if d.Line > 0 {
		s += fmt.Sprintf(" (line %d", d.Line)
		if d.Column > 0 {
			s += fmt.Sprintf(", col %d", d.Column)
		}
		s += ")"
	}
	if d.NodeID != "" {
		s += fmt.Sprintf(" at node %q", d.NodeID)
	}
	if d.Type != "" {
		s += fmt.Sprintf(" [%s]", d.Type)
	}
	if d.Suggestion != "" {
		s += "\n    suggestion: " + d.Suggestion
	}
	return s
}
