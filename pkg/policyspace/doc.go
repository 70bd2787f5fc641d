// Package policyspace implements the typed coordinate system of a policy
// model and the value algebra defined over it.
//
// A policy space is a tree of slots rooted at a compound slot. Four slot
// variants exist:
//
//   - Atomic slots hold one value out of an ordered enumeration. The declared
//     order is the severity order; the first value is the least.
//   - Aggregate slots hold a subset of the values of an atomic item slot.
//   - Compound slots are records whose fields are slots.
//   - Todo slots are placeholders with a single sentinel value.
//
// # Values
//
// Every value belongs to exactly one slot. Values form a join semi-lattice:
//
//	LessOrEqual(a, b)  a ⊑ b
//	Compose(a, b)      a ⊕ b, the least upper bound of a and b
//
// Atomic values are ordered by index and compose to the maximum. Aggregate
// values are ordered by inclusion and compose to the union. Compound values
// are partial records; they are ordered field-wise and compose field-wise.
// All value operations are pure, so values may be shared freely between
// goroutines.
//
// # Names
//
// A sealed Space indexes every slot by its full path (root name first) and by
// every suffix of that path that identifies a single slot. Suffixes shared by
// more than one slot are ambiguous and are reported by Space.Ambiguous rather
// than resolved.
//
// # Usage
//
//	root := policyspace.NewCompound("Top", "",
//		policyspace.NewAtomic("Color", "", policyspace.Items("Blue", "Red")...),
//		policyspace.NewAtomic("A", "", policyspace.Items("a0", "a1")...),
//	)
//	space, err := policyspace.Seal(root)
//	if err != nil {
//		return err
//	}
//	res := space.LookupValue([]string{"Color"}, "Red")
//	if res.Kind != policyspace.Success {
//		return res.Err()
//	}
//	v := space.Layer(res.Value)
package policyspace
