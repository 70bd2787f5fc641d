package compiler

import (
	"fmt"

	"github.com/ofirbed/DataTaggingLibrary/pkg/pml/ast"
	pmlErrors "github.com/ofirbed/DataTaggingLibrary/pkg/pml/errors"
	"github.com/ofirbed/DataTaggingLibrary/pkg/policyspace"
)

// BuildSpace assembles the slot declarations into a sealed policy space.
// Compound declarations refer to their fields by name. Declared slots that
// are not reachable from the root are returned as warnings.
func BuildSpace(decl *ast.SpaceDecl) (*policyspace.Space, []*pmlErrors.Error, error) {
	errs := pmlErrors.NewErrorList()
	if decl == nil {
		errs.AddError(pmlErrors.ErrorTypeStructural, "model declares no policy space", ast.Location{})
		return nil, nil, errs
	}

	byName := make(map[string]*ast.SlotDecl, len(decl.Slots))
	var names []string
	for _, d := range decl.Slots {
		if _, dup := byName[d.Name]; dup {
			errs.AddError(pmlErrors.ErrorTypeSemantic, fmt.Sprintf("slot %q is declared more than once", d.Name), d.Location)
			continue
		}
		byName[d.Name] = d
		names = append(names, d.Name)
	}

	rootDecl, ok := byName[decl.Root]
	switch {
	case !ok:
		errs.AddErrorWithSuggestion(pmlErrors.ErrorTypeSemantic,
			fmt.Sprintf("root slot %q is not declared", decl.Root), decl.Location,
			pmlErrors.SuggestName(decl.Root, names))
	case rootDecl.Kind != ast.SlotCompound:
		errs.AddError(pmlErrors.ErrorTypeSemantic,
			fmt.Sprintf("root slot %q must be a compound slot", decl.Root), rootDecl.Location)
	}
	if errs.HasErrors() {
		return nil, nil, errs
	}

	b := &spaceBuilder{decls: byName, names: names, errs: errs, used: make(map[string]bool)}
	root := b.build(rootDecl, nil)
	for _, d := range decl.Slots {
		if !b.used[d.Name] {
			errs.AddWarning(pmlErrors.ErrorTypeSemantic, fmt.Sprintf("slot %q is not part of the policy space", d.Name), d.Location, "")
		}
	}
	if errs.HasErrors() {
		return nil, errs.Warnings(), errs
	}

	space, err := policyspace.Seal(root.(*policyspace.CompoundSlot))
	if err != nil {
		errs.Add(&pmlErrors.Error{
			Type:     pmlErrors.ErrorTypeSemantic,
			Message:  err.Error(),
			Location: rootDecl.Location,
			Cause:    err,
		})
		return nil, errs.Warnings(), errs
	}
	return space, errs.Warnings(), nil
}

type spaceBuilder struct {
	decls map[string]*ast.SlotDecl
	names []string
	errs  *pmlErrors.ErrorList
	used  map[string]bool
}

func (b *spaceBuilder) build(d *ast.SlotDecl, stack []string) policyspace.Slot {
	for _, s := range stack {
		if s == d.Name {
			b.errs.AddError(pmlErrors.ErrorTypeSemantic,
				fmt.Sprintf("slot %q contains itself", d.Name), d.Location)
			return nil
		}
	}
	if b.used[d.Name] {
		b.errs.AddError(pmlErrors.ErrorTypeSemantic,
			fmt.Sprintf("slot %q is used by more than one compound slot", d.Name), d.Location)
		return nil
	}
	b.used[d.Name] = true

	items := make([]policyspace.Item, len(d.Items))
	for i, it := range d.Items {
		items[i] = policyspace.Item{Name: it.Name, Note: it.Note}
	}

	switch d.Kind {
	case ast.SlotAtomic:
		if len(items) == 0 {
			b.errs.AddError(pmlErrors.ErrorTypeSemantic, fmt.Sprintf("atomic slot %q has no values", d.Name), d.Location)
			return nil
		}
		return policyspace.NewAtomic(d.Name, d.Note, items...)
	case ast.SlotAggregate:
		if len(items) == 0 {
			b.errs.AddError(pmlErrors.ErrorTypeSemantic, fmt.Sprintf("aggregate slot %q has no values", d.Name), d.Location)
			return nil
		}
		return policyspace.NewAggregate(d.Name, d.Note, items...)
	case ast.SlotTodo:
		return policyspace.NewTodo(d.Name, d.Note)
	case ast.SlotCompound:
		fields := make([]policyspace.Slot, 0, len(d.Fields))
		for _, name := range d.Fields {
			fd, ok := b.decls[name]
			if !ok {
				b.errs.AddErrorWithSuggestion(pmlErrors.ErrorTypeSemantic,
					fmt.Sprintf("slot %q refers to undeclared slot %q", d.Name, name), d.Location,
					pmlErrors.SuggestName(name, b.names))
				continue
			}
			if f := b.build(fd, append(stack, d.Name)); f != nil {
				fields = append(fields, f)
			}
		}
		return policyspace.NewCompound(d.Name, d.Note, fields...)
	}
	b.errs.AddError(pmlErrors.ErrorTypeStructural, fmt.Sprintf("slot %q has unknown kind %q", d.Name, d.Kind), d.Location)
	return nil
}
