package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ofirbed/DataTaggingLibrary/pkg/decisiongraph"
	"github.com/ofirbed/DataTaggingLibrary/pkg/pml/ast"
	pmlErrors "github.com/ofirbed/DataTaggingLibrary/pkg/pml/errors"
)

// Validator runs the graph-level checks on a compiled decision graph.
type Validator struct {
	locations map[string]ast.Location
}

// New creates a validator. locations maps node ids to the source location
// of the reference that produced them and may be nil.
func New(locations map[string]ast.Location) *Validator {
	return &Validator{locations: locations}
}

// Validate runs all checks and returns the accumulated diagnostics.
// Unreachable nodes are warnings; everything else is an error.
func (v *Validator) Validate(g *decisiongraph.Graph) *pmlErrors.ErrorList {
	errs := pmlErrors.NewErrorList()
	errs.Merge(v.ValidateAnswers(g))
	errs.Merge(v.ValidateCalls(g))
	errs.Merge(v.ValidateReachability(g))
	return errs
}

// ValidateAnswers reports questions that offer the same answer twice.
func (v *Validator) ValidateAnswers(g *decisiongraph.Graph) *pmlErrors.ErrorList {
	errs := pmlErrors.NewErrorList()
	for _, n := range g.Nodes() {
		ask, ok := n.(*decisiongraph.AskNode)
		if !ok {
			continue
		}
		seen := make(map[string]bool)
		for _, a := range ask.Answers() {
			key := strings.TrimSpace(a.Text)
			if seen[key] {
				errs.Add(&pmlErrors.Error{
					Type:     pmlErrors.ErrorTypeValidation,
					Message:  fmt.Sprintf("question offers answer %q more than once", key),
					Location: v.locations[ask.ID()],
					NodeID:   ask.ID(),
				})
			}
			seen[key] = true
		}
	}
	return errs
}

// ValidateReachability warns about nodes no run can reach. The shared end
// node and the generated continuations of unreachable bodies are not
// reported on their own.
func (v *Validator) ValidateReachability(g *decisiongraph.Graph) *pmlErrors.ErrorList {
	errs := pmlErrors.NewErrorList()
	reach := decisiongraph.Reachable(g)
	for _, n := range g.Nodes() {
		id := n.ID()
		if reach[id] || id == decisiongraph.EndID {
			continue
		}
		if _, ok := n.(*decisiongraph.ContinueNode); ok && decisiongraph.IsSynthetic(id) {
			continue
		}
		errs.AddWarning(pmlErrors.ErrorTypeValidation,
			fmt.Sprintf("%s node is unreachable", n.Kind()), v.locations[id], id)
	}
	return errs
}

// ValidateCalls reports cycles through Call nodes along which no question
// or consider can stop or redirect the run. Such a cycle loops forever.
func (v *Validator) ValidateCalls(g *decisiongraph.Graph) *pmlErrors.ErrorList {
	errs := pmlErrors.NewErrorList()

	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, g.Len())
	var path []string
	reported := make(map[string]bool)

	var visit func(id string)
	visit = func(id string) {
		n, ok := g.Node(id)
		if !ok {
			return
		}
		switch n.(type) {
		case *decisiongraph.AskNode, *decisiongraph.ConsiderNode:
			// These break any cycle through them.
			return
		}
		color[id] = grey
		path = append(path, id)
		for _, next := range decisiongraph.Successors(n) {
			switch color[next] {
			case white:
				visit(next)
			case grey:
				cycle := cycleFrom(path, next)
				if hasCall(g, cycle) && !reported[next] {
					reported[next] = true
					errs.Add(&pmlErrors.Error{
						Type:       pmlErrors.ErrorTypeValidation,
						Message:    fmt.Sprintf("call cycle without a question: %s", strings.Join(append(cycle, next), " -> ")),
						Location:   v.locations[next],
						NodeID:     next,
						Suggestion: "Add a question or consider on the cycle, or remove one of the calls",
					})
				}
			}
		}
		path = path[:len(path)-1]
		color[id] = black
	}

	ids := g.NodeIDs()
	sort.Strings(ids)
	for _, id := range ids {
		if color[id] == white {
			visit(id)
		}
	}
	return errs
}

func cycleFrom(path []string, id string) []string {
	for i, p := range path {
		if p == id {
			return append([]string(nil), path[i:]...)
		}
	}
	return nil
}

func hasCall(g *decisiongraph.Graph, ids []string) bool {
	for _, id := range ids {
		if n, ok := g.Node(id); ok {
			if _, isCall := n.(*decisiongraph.CallNode); isCall {
				return true
			}
		}
	}
	return false
}
