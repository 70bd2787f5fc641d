package policyspace

import (
	"fmt"
	"strings"
)

// LookupKind classifies the result of a value lookup.
type LookupKind int

const (
	Success LookupKind = iota
	NoSuchSlot
	NoSuchValue
	TypeMismatch
)

func (k LookupKind) String() string {
	switch k {
	case Success:
		return "success"
	case NoSuchSlot:
		return "no such slot"
	case NoSuchValue:
		return "no such value"
	case TypeMismatch:
		return "type mismatch"
	}
	return fmt.Sprintf("LookupKind(%d)", int(k))
}

// LookupResult is the outcome of Space.LookupValue. Callers switch on Kind.
type LookupResult struct {
	Kind LookupKind

	// Path and Literal echo the query.
	Path    []string
	Literal string

	// Slot is the resolved slot. It is nil for NoSuchSlot.
	Slot Slot

	// Value is set on Success. Aggregate lookups yield a one-member
	// *AggregateValue.
	Value Value

	// Ambiguous is set for NoSuchSlot when Path is a shared suffix.
	Ambiguous bool
}

// Err returns a *LookupError for unsuccessful results and nil otherwise.
func (r LookupResult) Err() error {
	if r.Kind == Success {
		return nil
	}
	return &LookupError{Result: r}
}

// LookupError reports a failed lookup.
type LookupError struct {
	Result LookupResult
}

func (e *LookupError) Error() string {
	r := e.Result
	path := strings.Join(r.Path, "/")
	switch r.Kind {
	case NoSuchSlot:
		if r.Ambiguous {
			return fmt.Sprintf("slot name %q is ambiguous", path)
		}
		return fmt.Sprintf("no slot named %q", path)
	case NoSuchValue:
		return fmt.Sprintf("slot %q has no value %q", path, r.Literal)
	case TypeMismatch:
		return fmt.Sprintf("slot %q is a %s slot and cannot hold %q", path, r.Slot.Kind(), r.Literal)
	}
	return r.Kind.String()
}

// LookupValue resolves path through the name index and finds literal among
// the values of the resulting slot.
func (s *Space) LookupValue(path []string, literal string) LookupResult {
	res := LookupResult{Path: append([]string(nil), path...), Literal: literal}
	slot, ok := s.Resolve(path)
	if !ok {
		res.Kind = NoSuchSlot
		res.Ambiguous = s.IsAmbiguous(path)
		return res
	}
	res.Slot = slot

	switch t := slot.(type) {
	case *AtomicSlot:
		v, ok := t.Value(literal)
		if !ok {
			res.Kind = NoSuchValue
			return res
		}
		res.Value = v
	case *AggregateSlot:
		m, ok := t.item.Value(literal)
		if !ok {
			res.Kind = NoSuchValue
			return res
		}
		res.Value = t.Empty().with(m)
	case *TodoSlot:
		res.Value = t.value
	default:
		res.Kind = TypeMismatch
		return res
	}
	res.Kind = Success
	return res
}

// LookupValues resolves several literals against the same slot and composes
// them. It stops at the first unsuccessful lookup.
func (s *Space) LookupValues(path []string, literals []string) LookupResult {
	if len(literals) == 0 {
		res := LookupResult{Path: append([]string(nil), path...)}
		slot, ok := s.Resolve(path)
		if !ok {
			res.Kind = NoSuchSlot
			res.Ambiguous = s.IsAmbiguous(path)
			return res
		}
		res.Slot = slot
		if agg, ok := slot.(*AggregateSlot); ok {
			res.Kind = Success
			res.Value = agg.Empty()
			return res
		}
		res.Kind = NoSuchValue
		return res
	}

	var acc LookupResult
	for i, lit := range literals {
		r := s.LookupValue(path, lit)
		if r.Kind != Success {
			return r
		}
		if i == 0 {
			acc = r
			continue
		}
		if _, ok := r.Slot.(*AtomicSlot); ok {
			// An atomic slot holds exactly one value.
			r.Kind = TypeMismatch
			r.Value = nil
			return r
		}
		v, err := Compose(acc.Value, r.Value)
		if err != nil {
			r.Kind = TypeMismatch
			r.Value = nil
			return r
		}
		acc.Value = v
	}
	acc.Literal = strings.Join(literals, ",")
	return acc
}

// Candidates returns the indexed names and the value literals of slot that
// are suitable for "did you mean" suggestions.
func (s *Space) Candidates(slot Slot) []string {
	switch t := slot.(type) {
	case *AtomicSlot:
		return valueNames(t)
	case *AggregateSlot:
		return valueNames(t.item)
	case nil:
		return s.Names()
	}
	return nil
}

func valueNames(s *AtomicSlot) []string {
	names := make([]string, len(s.values))
	for i, v := range s.values {
		names[i] = v.name
	}
	return names
}
