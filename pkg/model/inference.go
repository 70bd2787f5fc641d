package model

import (
	"errors"
	"fmt"

	"github.com/ofirbed/DataTaggingLibrary/pkg/policyspace"
)

// ErrInferenceDiverged is returned when inference does not settle within
// its round limit.
var ErrInferenceDiverged = errors.New("value inference did not reach a fixpoint")

// InferencePair is one rule of an inferrer.
type InferencePair struct {
	Antecedent *policyspace.CompoundValue
	Consequent *policyspace.CompoundValue
}

// Inferrer derives the value of one slot from other parts of the value.
type Inferrer struct {
	Slot  policyspace.Slot
	Pairs []InferencePair
}

// Apply composes the consequent of every pair whose antecedent is met by v.
// A pair is met when v, restricted to the slots the antecedent sets, is at
// least the antecedent.
func (inf *Inferrer) Apply(v *policyspace.CompoundValue) (*policyspace.CompoundValue, error) {
	out := v
	for _, p := range inf.Pairs {
		if !out.Restrict(p.Antecedent).IsSupersetOf(p.Antecedent) {
			continue
		}
		next, err := out.Compose(p.Consequent)
		if err != nil {
			return nil, fmt.Errorf("inferring %v: %w", inf.Slot.Path(), err)
		}
		out = next
	}
	return out, nil
}

// Inferrers is an ordered set of inferrers applied together.
type Inferrers []*Inferrer

// Apply runs every inferrer, in order, repeatedly until a full round leaves
// the value unchanged. More than limit productive rounds is an error.
func (is Inferrers) Apply(v *policyspace.CompoundValue, limit int) (*policyspace.CompoundValue, int, error) {
	if len(is) == 0 {
		return v, 0, nil
	}
	rounds := 0
	for {
		next := v
		for _, inf := range is {
			var err error
			if next, err = inf.Apply(next); err != nil {
				return nil, rounds, err
			}
		}
		if policyspace.Equal(next, v) {
			return v, rounds, nil
		}
		rounds++
		if rounds > limit {
			return nil, rounds, fmt.Errorf("%w after %d rounds", ErrInferenceDiverged, limit)
		}
		v = next
	}
}
