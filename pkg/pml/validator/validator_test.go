package validator

import (
	"testing"

	"github.com/ofirbed/DataTaggingLibrary/pkg/decisiongraph"
	"github.com/ofirbed/DataTaggingLibrary/pkg/pml/ast"
	pmlErrors "github.com/ofirbed/DataTaggingLibrary/pkg/pml/errors"
)

func build(t *testing.T, start string, nodes ...decisiongraph.Node) *decisiongraph.Graph {
	t.Helper()
	b := decisiongraph.NewBuilder("test")
	for _, n := range nodes {
		if err := b.Add(n); err != nil {
			t.Fatal(err)
		}
	}
	b.SetStart(start)
	g, err := b.Seal()
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestValidator_Validate(t *testing.T) {
	tests := []struct {
		name         string
		graph        func(t *testing.T) *decisiongraph.Graph
		wantErrors   int
		wantWarnings int
	}{
		{
			name: "clean",
			graph: func(t *testing.T) *decisiongraph.Graph {
				return build(t, "q",
					decisiongraph.NewAsk("q", "?", nil, []decisiongraph.Answer{{Text: "yes", Next: decisiongraph.EndID}, {Text: "no", Next: "r"}}),
					decisiongraph.NewReject("r", "no"),
				)
			},
		},
		{
			name: "duplicate answer",
			graph: func(t *testing.T) *decisiongraph.Graph {
				return build(t, "q",
					decisiongraph.NewAsk("q", "?", nil, []decisiongraph.Answer{{Text: "yes", Next: decisiongraph.EndID}, {Text: " yes", Next: decisiongraph.EndID}}),
				)
			},
			wantErrors: 1,
		},
		{
			name: "unreachable",
			graph: func(t *testing.T) *decisiongraph.Graph {
				return build(t, decisiongraph.EndID,
					decisiongraph.NewToDo("t", "", decisiongraph.EndID),
					decisiongraph.NewPart("p", "", "$9"),
					decisiongraph.NewContinue("$9"),
				)
			},
			wantWarnings: 2,
		},
		{
			name: "call cycle",
			graph: func(t *testing.T) *decisiongraph.Graph {
				return build(t, "c1",
					decisiongraph.NewCall("c1", "p", decisiongraph.EndID),
					decisiongraph.NewPart("p", "", "s"),
					decisiongraph.NewSet("s", nil, "c2"),
					decisiongraph.NewCall("c2", "p", "$1"),
					decisiongraph.NewContinue("$1"),
				)
			},
			wantErrors: 1,
		},
		{
			name: "cycle through a consider",
			graph: func(t *testing.T) *decisiongraph.Graph {
				return build(t, "c1",
					decisiongraph.NewCall("c1", "p", decisiongraph.EndID),
					decisiongraph.NewPart("p", "", "k"),
					decisiongraph.NewConsider("k", nil, "c2", "$1"),
					decisiongraph.NewCall("c2", "p", "$1"),
					decisiongraph.NewContinue("$1"),
				)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := New(map[string]ast.Location{}).Validate(tt.graph(t))
			nErrors := 0
			for _, e := range errs.Errors {
				if !e.IsWarning() {
					nErrors++
				}
			}
			if nErrors != tt.wantErrors {
				t.Errorf("errors = %d, want %d:\n%v", nErrors, tt.wantErrors, errs)
			}
			if got := len(errs.Warnings()); got != tt.wantWarnings {
				t.Errorf("warnings = %d, want %d:\n%v", got, tt.wantWarnings, errs)
			}
			if tt.wantErrors > 0 && !errs.HasErrorType(pmlErrors.ErrorTypeValidation) {
				t.Error("errors are not of the validation type")
			}
		})
	}
}
