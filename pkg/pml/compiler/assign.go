package compiler

import (
	"fmt"
	"strings"

	"github.com/ofirbed/DataTaggingLibrary/pkg/pml/ast"
	pmlErrors "github.com/ofirbed/DataTaggingLibrary/pkg/pml/errors"
	"github.com/ofirbed/DataTaggingLibrary/pkg/policyspace"
)

// BadSetInstructionError reports an assignment whose slot or value does not
// resolve against the policy space.
type BadSetInstructionError struct {
	NodeID     string
	Assignment ast.Assignment
	Result     policyspace.LookupResult
}

func (e *BadSetInstructionError) Error() string {
	return fmt.Sprintf("bad assignment in node %q: %v", e.NodeID, e.Result.Err())
}

// Unwrap returns the underlying *policyspace.LookupError.
func (e *BadSetInstructionError) Unwrap() error {
	return e.Result.Err()
}

// resolveAssignments resolves each assignment and composes the results into
// one root value. Failures are recorded and skipped, so the value returned
// for a partly bad list is only meaningful when no error was recorded.
func (c *Compiler) resolveAssignments(nodeID string, as []ast.Assignment) *policyspace.CompoundValue {
	acc, _ := resolve(c.space, as, func(a ast.Assignment, res policyspace.LookupResult) {
		c.badSet(nodeID, a, res)
	})
	return acc
}

// resolve composes the values named by as. onError is called for every
// assignment that does not resolve; it reports whether all resolved.
func resolve(space *policyspace.Space, as []ast.Assignment, onError func(ast.Assignment, policyspace.LookupResult)) (*policyspace.CompoundValue, bool) {
	acc := space.Empty()
	ok := true
	for _, a := range as {
		res := space.LookupValues(a.Slot, a.Values)
		if res.Kind != policyspace.Success {
			onError(a, res)
			ok = false
			continue
		}
		layered, err := space.Layer(res.Value)
		if err == nil {
			acc, err = acc.Compose(layered)
		}
		if err != nil {
			// Layer and Compose only fail across spaces.
			res.Kind = policyspace.TypeMismatch
			onError(a, res)
			ok = false
		}
	}
	return acc, ok
}

func (c *Compiler) badSet(nodeID string, a ast.Assignment, res policyspace.LookupResult) {
	cause := &BadSetInstructionError{NodeID: nodeID, Assignment: a, Result: res}
	c.errs.Add(&pmlErrors.Error{
		Type:       pmlErrors.ErrorTypeBadSet,
		Message:    res.Err().Error(),
		Location:   a.Location,
		NodeID:     nodeID,
		Suggestion: suggestFix(c.space, res),
		Cause:      cause,
	})
}

func suggestFix(space *policyspace.Space, res policyspace.LookupResult) string {
	switch res.Kind {
	case policyspace.NoSuchSlot:
		if res.Ambiguous {
			return "Qualify the slot name with its parent: " + strings.Join(qualifiedNames(space, res.Path), ", ")
		}
		return pmlErrors.SuggestName(strings.Join(res.Path, "/"), space.Names())
	case policyspace.NoSuchValue:
		return pmlErrors.SuggestName(res.Literal, space.Candidates(res.Slot))
	case policyspace.TypeMismatch:
		if cs, ok := res.Slot.(*policyspace.CompoundSlot); ok {
			names := make([]string, 0)
			for _, f := range cs.Fields() {
				names = append(names, f.Name())
			}
			return fmt.Sprintf("Assign to one of the fields of %s: %s", cs.Name(), strings.Join(names, ", "))
		}
	}
	return ""
}

// qualifiedNames lists the full paths that end with suffix.
func qualifiedNames(space *policyspace.Space, suffix []string) []string {
	var out []string
	for _, s := range space.Slots() {
		p := s.Path()
		if len(p) < len(suffix) {
			continue
		}
		if strings.Join(p[len(p)-len(suffix):], "/") == strings.Join(suffix, "/") {
			out = append(out, strings.Join(p, "/"))
		}
	}
	return out
}
