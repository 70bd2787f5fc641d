package policyspace

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrSlotMismatch is returned when two values of different slots are combined.
var ErrSlotMismatch = errors.New("values belong to different slots")

func slotMismatch(a, b Slot) error {
	return fmt.Errorf("%w: %s and %s", ErrSlotMismatch, describe(a), describe(b))
}

func describe(s Slot) string {
	if s == nil {
		return "<nil>"
	}
	return strings.Join(s.Path(), "/")
}

// Value is an element of a slot's value lattice.
//
// The concrete types are *AtomicValue, *AggregateValue, *CompoundValue and
// *TodoValue. Values are immutable.
type Value interface {
	Slot() Slot
	String() string
	isValue()
}

// AtomicValue is one item of an atomic slot's enumeration.
type AtomicValue struct {
	slot    *AtomicSlot
	ordinal int
	name    string
	note    string
}

func (v *AtomicValue) Slot() Slot              { return v.slot }
func (v *AtomicValue) AtomicSlot() *AtomicSlot { return v.slot }
func (v *AtomicValue) Name() string            { return v.name }
func (v *AtomicValue) Note() string            { return v.note }
func (v *AtomicValue) Ordinal() int            { return v.ordinal }
func (v *AtomicValue) String() string          { return v.name }
func (*AtomicValue) isValue()                  {}

// AggregateValue is a set of items of an aggregate slot, kept sorted by
// ordinal.
type AggregateValue struct {
	slot    *AggregateSlot
	members []*AtomicValue
}

func (v *AggregateValue) Slot() Slot                    { return v.slot }
func (v *AggregateValue) AggregateSlot() *AggregateSlot { return v.slot }
func (*AggregateValue) isValue()                        {}

// Members returns the items of v in ordinal order.
func (v *AggregateValue) Members() []*AtomicValue {
	out := make([]*AtomicValue, len(v.members))
	copy(out, v.members)
	return out
}

// Contains reports whether m is a member of v.
func (v *AggregateValue) Contains(m *AtomicValue) bool {
	i := sort.Search(len(v.members), func(i int) bool { return v.members[i].ordinal >= m.ordinal })
	return i < len(v.members) && v.members[i] == m
}

func (v *AggregateValue) with(m *AtomicValue) *AggregateValue {
	if v.Contains(m) {
		return v
	}
	members := make([]*AtomicValue, 0, len(v.members)+1)
	members = append(members, v.members...)
	members = append(members, m)
	sort.Slice(members, func(i, j int) bool { return members[i].ordinal < members[j].ordinal })
	return &AggregateValue{slot: v.slot, members: members}
}

func (v *AggregateValue) String() string {
	names := make([]string, len(v.members))
	for i, m := range v.members {
		names[i] = m.name
	}
	return "{" + strings.Join(names, ",") + "}"
}

// CompoundValue is a partial record over a compound slot. Unset fields are
// simply absent.
type CompoundValue struct {
	slot   *CompoundSlot
	fields map[string]Value
}

func (v *CompoundValue) Slot() Slot                  { return v.slot }
func (v *CompoundValue) CompoundSlot() *CompoundSlot { return v.slot }
func (*CompoundValue) isValue()                      {}

// Get returns the value of the named field, if set.
func (v *CompoundValue) Get(field string) (Value, bool) {
	f, ok := v.fields[field]
	return f, ok
}

// Len returns the number of fields set in v.
func (v *CompoundValue) Len() int { return len(v.fields) }

// IsEmpty reports whether no field is set.
func (v *CompoundValue) IsEmpty() bool { return len(v.fields) == 0 }

// Set returns a copy of v with the field of x's slot replaced by x.
func (v *CompoundValue) Set(x Value) (*CompoundValue, error) {
	field, ok := v.slot.byName[x.Slot().Name()]
	if !ok || field != x.Slot() {
		return nil, fmt.Errorf("%w: %s is not a field of %s", ErrSlotMismatch, describe(x.Slot()), describe(v.slot))
	}
	out := &CompoundValue{slot: v.slot, fields: make(map[string]Value, len(v.fields)+1)}
	for k, f := range v.fields {
		out.fields[k] = f
	}
	out.fields[field.Name()] = x
	return out, nil
}

// Compose returns v ⊕ o.
func (v *CompoundValue) Compose(o *CompoundValue) (*CompoundValue, error) {
	c, err := Compose(v, o)
	if err != nil {
		return nil, err
	}
	return c.(*CompoundValue), nil
}

// IsSupersetOf reports whether o ⊑ v.
func (v *CompoundValue) IsSupersetOf(o *CompoundValue) bool {
	return LessOrEqual(o, v)
}

// Contains reports whether every assignment made by pattern is present in
// v: atomic and todo fields must be equal, aggregate fields must include the
// pattern's members, and compound fields must contain the pattern's
// sub-record. Unlike IsSupersetOf, a more severe atomic value does not
// satisfy a less severe one.
func (v *CompoundValue) Contains(pattern *CompoundValue) bool {
	if v.slot != pattern.slot {
		return false
	}
	for name, pf := range pattern.fields {
		vf, ok := v.fields[name]
		if !ok {
			return false
		}
		switch p := pf.(type) {
		case *AtomicValue:
			if vf != Value(p) {
				return false
			}
		case *AggregateValue:
			if !LessOrEqual(p, vf) {
				return false
			}
		case *CompoundValue:
			if !vf.(*CompoundValue).Contains(p) {
				return false
			}
		case *TodoValue:
			if vf != Value(p) {
				return false
			}
		}
	}
	return true
}

// IsComplete reports whether every descendant field of v is set.
func (v *CompoundValue) IsComplete() bool {
	for _, f := range v.slot.fields {
		x, ok := v.fields[f.Name()]
		if !ok {
			return false
		}
		if c, ok := x.(*CompoundValue); ok && !c.IsComplete() {
			return false
		}
	}
	return true
}

// Restrict returns the part of v that lies within the footprint of o: the
// fields set in o, recursively.
func (v *CompoundValue) Restrict(o *CompoundValue) *CompoundValue {
	out := &CompoundValue{slot: v.slot}
	for name, of := range o.fields {
		vf, ok := v.fields[name]
		if !ok {
			continue
		}
		if out.fields == nil {
			out.fields = make(map[string]Value)
		}
		vc, vok := vf.(*CompoundValue)
		oc, ook := of.(*CompoundValue)
		if vok && ook {
			out.fields[name] = vc.Restrict(oc)
		} else {
			out.fields[name] = vf
		}
	}
	return out
}

// Project returns the part of v at the given path relative to v's slot, as
// a value of v's slot. The result is empty when nothing is set there.
func (v *CompoundValue) Project(path []string) *CompoundValue {
	if len(path) == 0 {
		return v
	}
	out := &CompoundValue{slot: v.slot}
	f, ok := v.fields[path[0]]
	if !ok {
		return out
	}
	if len(path) > 1 {
		c, ok := f.(*CompoundValue)
		if !ok {
			return out
		}
		f = c.Project(path[1:])
		if f.(*CompoundValue).IsEmpty() {
			return out
		}
	}
	out.fields = map[string]Value{path[0]: f}
	return out
}

func (v *CompoundValue) String() string {
	var parts []string
	for _, f := range v.slot.fields {
		if x, ok := v.fields[f.Name()]; ok {
			parts = append(parts, f.Name()+"="+x.String())
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// TodoValue is the sentinel value of a todo slot.
type TodoValue struct {
	slot *TodoSlot
}

func (v *TodoValue) Slot() Slot     { return v.slot }
func (v *TodoValue) String() string { return "TODO" }
func (*TodoValue) isValue()         {}

// LessOrEqual reports whether a ⊑ b. Values of different slots are never
// related.
func LessOrEqual(a, b Value) bool {
	if a.Slot() != b.Slot() {
		return false
	}
	switch x := a.(type) {
	case *AtomicValue:
		return x.ordinal <= b.(*AtomicValue).ordinal
	case *AggregateValue:
		y := b.(*AggregateValue)
		for _, m := range x.members {
			if !y.Contains(m) {
				return false
			}
		}
		return true
	case *CompoundValue:
		y := b.(*CompoundValue)
		for name, xf := range x.fields {
			yf, ok := y.fields[name]
			if !ok || !LessOrEqual(xf, yf) {
				return false
			}
		}
		return true
	case *TodoValue:
		return true
	}
	return false
}

// Equal reports whether a and b are the same value.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return LessOrEqual(a, b) && LessOrEqual(b, a)
}

// Compose returns a ⊕ b, the least value above both.
func Compose(a, b Value) (Value, error) {
	if a.Slot() != b.Slot() {
		return nil, slotMismatch(a.Slot(), b.Slot())
	}
	switch x := a.(type) {
	case *AtomicValue:
		y := b.(*AtomicValue)
		if y.ordinal > x.ordinal {
			return y, nil
		}
		return x, nil
	case *AggregateValue:
		out := x
		for _, m := range b.(*AggregateValue).members {
			out = out.with(m)
		}
		return out, nil
	case *CompoundValue:
		y := b.(*CompoundValue)
		if len(y.fields) == 0 {
			return x, nil
		}
		if len(x.fields) == 0 {
			return y, nil
		}
		out := &CompoundValue{slot: x.slot, fields: make(map[string]Value, len(x.fields)+len(y.fields))}
		for name, xf := range x.fields {
			out.fields[name] = xf
		}
		for name, yf := range y.fields {
			xf, ok := out.fields[name]
			if !ok {
				out.fields[name] = yf
				continue
			}
			c, err := Compose(xf, yf)
			if err != nil {
				return nil, err
			}
			out.fields[name] = c
		}
		return out, nil
	case *TodoValue:
		return x, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", a)
}
