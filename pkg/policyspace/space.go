package policyspace

import (
	"fmt"
	"sort"
	"strings"
)

// Space is a sealed slot tree together with its name index. A Space is
// immutable and safe for concurrent use.
type Space struct {
	root      *CompoundSlot
	index     map[string]Slot
	ambiguous [][]string
	slots     []Slot
}

// SealError describes a structural problem found while sealing a slot tree.
type SealError struct {
	Path    []string
	Message string
}

func (e *SealError) Error() string {
	if len(e.Path) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", strings.Join(e.Path, "/"), e.Message)
}

// Seal assigns parents to the slots of the tree under root, checks its
// structure, and builds the name index.
//
// Seal fails when a slot appears in more than one place, when sibling names
// repeat, when a name repeats along a root-to-leaf path, or when an atomic or
// aggregate slot declares no items.
func Seal(root *CompoundSlot) (*Space, error) {
	if root == nil {
		return nil, &SealError{Message: "root slot is nil"}
	}
	if root.parent != nil {
		return nil, &SealError{Path: []string{root.name}, Message: "root slot already belongs to a compound"}
	}

	s := &Space{root: root, index: make(map[string]Slot)}
	seen := make(map[Slot]bool)
	if err := s.seal(root, nil, seen, nil); err != nil {
		return nil, err
	}
	s.buildIndex()
	return s, nil
}

func (s *Space) seal(slot Slot, parent *CompoundSlot, seen map[Slot]bool, ancestors []string) error {
	path := append(append([]string(nil), ancestors...), slot.Name())
	if seen[slot] {
		return &SealError{Path: path, Message: "slot is used by more than one compound"}
	}
	if slot.Parent() != nil && slot.Parent() != parent {
		return &SealError{Path: path, Message: "slot already belongs to another compound"}
	}
	if slot.Name() == "" {
		return &SealError{Path: path, Message: "slot has no name"}
	}
	for _, a := range ancestors {
		if a == slot.Name() {
			return &SealError{Path: path, Message: "name repeats along its path"}
		}
	}
	seen[slot] = true
	slot.setParent(parent)
	s.slots = append(s.slots, slot)

	switch t := slot.(type) {
	case *AtomicSlot:
		if len(t.values) == 0 {
			return &SealError{Path: path, Message: "atomic slot has no values"}
		}
		if len(t.byName) != len(t.values) {
			return &SealError{Path: path, Message: "atomic slot repeats a value name"}
		}
	case *AggregateSlot:
		if len(t.item.values) == 0 {
			return &SealError{Path: path, Message: "aggregate slot has no items"}
		}
		if len(t.item.byName) != len(t.item.values) {
			return &SealError{Path: path, Message: "aggregate slot repeats an item name"}
		}
	case *CompoundSlot:
		if len(t.byName) != len(t.fields) {
			return &SealError{Path: path, Message: "compound slot repeats a field name"}
		}
		for _, f := range t.fields {
			if err := s.seal(f, t, seen, path); err != nil {
				return err
			}
		}
	}
	return nil
}

func key(path []string) string { return strings.Join(path, "/") }

// buildIndex registers every full path, then every suffix obtained by
// repeatedly dropping the head of a full path. Suffixes reached from more
// than one slot are ambiguous and left out.
func (s *Space) buildIndex() {
	full := make(map[string]Slot, len(s.slots))
	for _, slot := range s.slots {
		full[key(slot.Path())] = slot
	}

	suffixes := make(map[string]Slot)
	ambiguous := make(map[string][]string)
	for _, slot := range s.slots {
		path := slot.Path()
		for i := 1; i < len(path); i++ {
			tail := path[i:]
			k := key(tail)
			if _, isFull := full[k]; isFull {
				continue
			}
			if _, amb := ambiguous[k]; amb {
				continue
			}
			if prev, ok := suffixes[k]; ok && prev != slot {
				delete(suffixes, k)
				ambiguous[k] = append([]string(nil), tail...)
				continue
			}
			suffixes[k] = slot
		}
	}

	for k, slot := range full {
		s.index[k] = slot
	}
	for k, slot := range suffixes {
		s.index[k] = slot
	}
	for _, p := range ambiguous {
		s.ambiguous = append(s.ambiguous, p)
	}
	sort.Slice(s.ambiguous, func(i, j int) bool {
		return key(s.ambiguous[i]) < key(s.ambiguous[j])
	})
}

// Root returns the top-level compound slot.
func (s *Space) Root() *CompoundSlot { return s.root }

// Slots returns every slot of the tree in depth-first declaration order,
// starting with the root.
func (s *Space) Slots() []Slot {
	out := make([]Slot, len(s.slots))
	copy(out, s.slots)
	return out
}

// Ambiguous returns the suffixes that name more than one slot.
func (s *Space) Ambiguous() [][]string {
	out := make([][]string, len(s.ambiguous))
	for i, p := range s.ambiguous {
		out[i] = append([]string(nil), p...)
	}
	return out
}

// IsAmbiguous reports whether path is a suffix shared by several slots.
func (s *Space) IsAmbiguous(path []string) bool {
	k := key(path)
	for _, p := range s.ambiguous {
		if key(p) == k {
			return true
		}
	}
	return false
}

// Resolve returns the slot named by path, which may be a full path or an
// unambiguous suffix.
func (s *Space) Resolve(path []string) (Slot, bool) {
	slot, ok := s.index[key(path)]
	return slot, ok
}

// Names returns every indexed name, sorted.
func (s *Space) Names() []string {
	names := make([]string, 0, len(s.index))
	for k := range s.index {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Height returns the sum of the heights of all slots.
func (s *Space) Height() int { return Height(s.root) }

// Empty returns the root compound value with nothing set.
func (s *Space) Empty() *CompoundValue { return s.root.Empty() }

// TypePath returns the slots from the root down to slot, inclusive.
func TypePath(slot Slot) []Slot {
	var rev []Slot
	for cur := slot; cur != nil; {
		rev = append(rev, cur)
		p := cur.Parent()
		if p == nil {
			break
		}
		cur = p
	}
	out := make([]Slot, len(rev))
	for i, x := range rev {
		out[len(rev)-1-i] = x
	}
	return out
}

// Layer wraps v in freshly created compound values up to the root, so the
// result is a root value whose only set path leads to v.
func (s *Space) Layer(v Value) (*CompoundValue, error) {
	path := TypePath(v.Slot())
	if path[0] != Slot(s.root) {
		return nil, fmt.Errorf("%w: %s is not in this space", ErrSlotMismatch, describe(v.Slot()))
	}
	if len(path) == 1 {
		return v.(*CompoundValue), nil
	}
	cur := v
	for i := len(path) - 2; i >= 0; i-- {
		parent := path[i].(*CompoundSlot)
		cur = &CompoundValue{slot: parent, fields: map[string]Value{cur.Slot().Name(): cur}}
	}
	return cur.(*CompoundValue), nil
}
