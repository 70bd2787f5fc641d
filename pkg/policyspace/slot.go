package policyspace

import "strings"

// Kind identifies the variant of a slot.
type Kind string

const (
	KindAtomic    Kind = "atomic"
	KindAggregate Kind = "aggregate"
	KindCompound  Kind = "compound"
	KindTodo      Kind = "todo"
)

// Slot is a named, typed coordinate of the policy space.
//
// The concrete types are *AtomicSlot, *AggregateSlot, *CompoundSlot and
// *TodoSlot. Callers dispatch with a type switch.
type Slot interface {
	Name() string
	Note() string
	Kind() Kind

	// Parent returns the compound slot containing this slot, or nil for the
	// root and for slots that have not been sealed into a Space.
	Parent() *CompoundSlot

	// Path returns the names from the root down to this slot, inclusive.
	Path() []string

	setParent(p *CompoundSlot)
}

// Item declares one value of an atomic or aggregate slot.
type Item struct {
	Name string
	Note string
}

// Items is a shorthand for declaring note-less items.
func Items(names ...string) []Item {
	items := make([]Item, len(names))
	for i, n := range names {
		items[i] = Item{Name: n}
	}
	return items
}

type slotBase struct {
	name   string
	note   string
	parent *CompoundSlot
}

func (b *slotBase) Name() string              { return b.name }
func (b *slotBase) Note() string              { return b.note }
func (b *slotBase) Parent() *CompoundSlot     { return b.parent }
func (b *slotBase) setParent(p *CompoundSlot) { b.parent = p }

func pathOf(s Slot) []string {
	var rev []string
	for cur := s; cur != nil; {
		rev = append(rev, cur.Name())
		p := cur.Parent()
		if p == nil {
			break
		}
		cur = p
	}
	path := make([]string, len(rev))
	for i, n := range rev {
		path[len(rev)-1-i] = n
	}
	return path
}

// AtomicSlot holds a single value out of an ordered enumeration.
type AtomicSlot struct {
	slotBase
	values []*AtomicValue
	byName map[string]*AtomicValue
}

// NewAtomic declares an atomic slot. Items are listed from least to most
// severe.
func NewAtomic(name, note string, items ...Item) *AtomicSlot {
	s := &AtomicSlot{
		slotBase: slotBase{name: name, note: note},
		byName:   make(map[string]*AtomicValue, len(items)),
	}
	for _, it := range items {
		v := &AtomicValue{slot: s, ordinal: len(s.values), name: it.Name, note: it.Note}
		s.values = append(s.values, v)
		if _, dup := s.byName[it.Name]; !dup {
			s.byName[it.Name] = v
		}
	}
	return s
}

func (s *AtomicSlot) Kind() Kind     { return KindAtomic }
func (s *AtomicSlot) Path() []string { return pathOf(s) }
func (s *AtomicSlot) String() string { return strings.Join(s.Path(), "/") }
func (s *AtomicSlot) Len() int       { return len(s.values) }
func (s *AtomicSlot) Values() []*AtomicValue {
	out := make([]*AtomicValue, len(s.values))
	copy(out, s.values)
	return out
}

// Value returns the item with the given name.
func (s *AtomicSlot) Value(name string) (*AtomicValue, bool) {
	v, ok := s.byName[name]
	return v, ok
}

// ValueAt returns the item at the given ordinal.
func (s *AtomicSlot) ValueAt(i int) *AtomicValue {
	return s.values[i]
}

// AggregateSlot holds a subset of the values of its item slot.
type AggregateSlot struct {
	slotBase
	item *AtomicSlot
}

// NewAggregate declares an aggregate slot whose possible members are items.
// The item slot shares the aggregate's name and is not part of the tree.
func NewAggregate(name, note string, items ...Item) *AggregateSlot {
	return &AggregateSlot{
		slotBase: slotBase{name: name, note: note},
		item:     NewAtomic(name, note, items...),
	}
}

func (s *AggregateSlot) Kind() Kind        { return KindAggregate }
func (s *AggregateSlot) Path() []string    { return pathOf(s) }
func (s *AggregateSlot) String() string    { return strings.Join(s.Path(), "/") }
func (s *AggregateSlot) Item() *AtomicSlot { return s.item }

// Empty returns the empty set value of s.
func (s *AggregateSlot) Empty() *AggregateValue {
	return &AggregateValue{slot: s}
}

// Of returns the aggregate value containing the given members. Members must
// belong to the item slot.
func (s *AggregateSlot) Of(members ...*AtomicValue) (*AggregateValue, error) {
	agg := &AggregateValue{slot: s}
	for _, m := range members {
		if m.slot != s.item {
			return nil, slotMismatch(s, m.slot)
		}
		agg = agg.with(m)
	}
	return agg, nil
}

// CompoundSlot is a record whose fields are slots.
type CompoundSlot struct {
	slotBase
	fields []Slot
	byName map[string]Slot
}

// NewCompound declares a compound slot with the given fields, in order.
func NewCompound(name, note string, fields ...Slot) *CompoundSlot {
	s := &CompoundSlot{
		slotBase: slotBase{name: name, note: note},
		byName:   make(map[string]Slot, len(fields)),
	}
	for _, f := range fields {
		s.fields = append(s.fields, f)
		if _, dup := s.byName[f.Name()]; !dup {
			s.byName[f.Name()] = f
		}
	}
	return s
}

func (s *CompoundSlot) Kind() Kind     { return KindCompound }
func (s *CompoundSlot) Path() []string { return pathOf(s) }
func (s *CompoundSlot) String() string { return strings.Join(s.Path(), "/") }

// Fields returns the field slots in declaration order.
func (s *CompoundSlot) Fields() []Slot {
	out := make([]Slot, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field returns the field slot with the given name.
func (s *CompoundSlot) Field(name string) (Slot, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// Empty returns the compound value of s with no field set.
func (s *CompoundSlot) Empty() *CompoundValue {
	return &CompoundValue{slot: s}
}

// TodoSlot is an opaque placeholder for a part of the space not yet modelled.
type TodoSlot struct {
	slotBase
	value *TodoValue
}

// NewTodo declares a todo slot.
func NewTodo(name, note string) *TodoSlot {
	s := &TodoSlot{slotBase: slotBase{name: name, note: note}}
	s.value = &TodoValue{slot: s}
	return s
}

func (s *TodoSlot) Kind() Kind        { return KindTodo }
func (s *TodoSlot) Path() []string    { return pathOf(s) }
func (s *TodoSlot) String() string    { return strings.Join(s.Path(), "/") }
func (s *TodoSlot) Value() *TodoValue { return s.value }

// Height returns the number of strict increases a value of s can undergo
// before reaching the top of its lattice.
func Height(s Slot) int {
	switch t := s.(type) {
	case *AtomicSlot:
		if len(t.values) == 0 {
			return 0
		}
		return len(t.values) - 1
	case *AggregateSlot:
		return len(t.item.values)
	case *CompoundSlot:
		h := 0
		for _, f := range t.fields {
			// A field going from unset to set is a strict increase too.
			h += Height(f) + 1
		}
		return h
	default:
		return 0
	}
}
