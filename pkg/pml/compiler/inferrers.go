package compiler

import (
	"fmt"
	"strings"

	"github.com/ofirbed/DataTaggingLibrary/pkg/model"
	"github.com/ofirbed/DataTaggingLibrary/pkg/pml/ast"
	pmlErrors "github.com/ofirbed/DataTaggingLibrary/pkg/pml/errors"
	"github.com/ofirbed/DataTaggingLibrary/pkg/policyspace"
)

// CompileInferrers resolves inferrer declarations against space. Antecedents
// are assignment lists; consequents are literals of the target slot.
func CompileInferrers(space *policyspace.Space, decls []*ast.InferrerDecl) (model.Inferrers, error) {
	errs := pmlErrors.NewErrorList()
	var out model.Inferrers

	for _, d := range decls {
		target, ok := space.Resolve(d.Slot)
		if !ok {
			res := policyspace.LookupResult{Kind: policyspace.NoSuchSlot, Path: d.Slot, Ambiguous: space.IsAmbiguous(d.Slot)}
			errs.AddErrorWithSuggestion(pmlErrors.ErrorTypeSemantic,
				fmt.Sprintf("inferrer target: %v", res.Err()), d.Location, suggestFix(space, res))
			continue
		}
		switch target.(type) {
		case *policyspace.AtomicSlot, *policyspace.AggregateSlot:
		default:
			errs.AddError(pmlErrors.ErrorTypeSemantic,
				fmt.Sprintf("inferrer target %q must be an atomic or aggregate slot", strings.Join(d.Slot, "/")), d.Location)
			continue
		}

		inf := &model.Inferrer{Slot: target}
		for _, p := range d.Pairs {
			antecedent, ok := resolve(space, p.Antecedent, func(a ast.Assignment, res policyspace.LookupResult) {
				errs.AddErrorWithSuggestion(pmlErrors.ErrorTypeBadSet,
					fmt.Sprintf("inferrer antecedent: %v", res.Err()), a.Location, suggestFix(space, res))
			})
			consequent, cok := resolve(space, []ast.Assignment{{Slot: target.Path(), Values: p.Consequent, Location: p.Location}},
				func(a ast.Assignment, res policyspace.LookupResult) {
					errs.AddErrorWithSuggestion(pmlErrors.ErrorTypeBadSet,
						fmt.Sprintf("inferrer consequent: %v", res.Err()), a.Location, suggestFix(space, res))
				})
			if ok && cok {
				inf.Pairs = append(inf.Pairs, model.InferencePair{Antecedent: antecedent, Consequent: consequent})
			}
		}
		out = append(out, inf)
	}

	if err := errs.ToError(); err != nil {
		return nil, err
	}
	return out, nil
}
