// Package parser reads policy models written in the YAML interchange format.
//
// A model file has four top-level blocks:
//
//	metadata:   title, version, authors and similar descriptive fields
//	space:      the root slot name and the slot declarations
//	inferrers:  value inference rules, one entry per target slot
//	graph:      the decision-graph instructions, as a list
//
// Each graph instruction is a mapping with exactly one kind key (ask,
// consider, set, section, part, call, todo, reject, end, continue) and an
// optional id. The bare scalars "end" and "continue" are accepted as
// shorthand.
//
// The parser only checks structure. Names are resolved against the space by
// the compiler.
package parser
