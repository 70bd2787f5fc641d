// Package ast defines the parser-output contract consumed by the graph
// compiler: instruction references, slot declarations, and value inferrer
// declarations.
//
// # Instruction References
//
// A decision graph is described as an ordered list of Instruction values.
// Each reference carries an optional author-supplied id and its payload:
//
//	AskRef       question text, terms, answers with nested bodies
//	ConsiderRef  options (slot assignments) with nested bodies, optional else
//	SetRef       slot assignments composed into the current value
//	SectionRef   titled nested body
//	PartRef      callable titled nested body
//	CallRef      reference to a part (or any node) by id
//	ToDoRef      placeholder text
//	RejectRef    rejection reason
//	EndRef       end of a strand
//	ContinueRef  leave the innermost section or part
//
// Bodies are themselves instruction lists, so references form a tree.
// References are read-only input: the compiler never mutates them.
//
// # Slot Declarations
//
// The policy space is declared as a flat list of SlotDecl values that refer
// to each other by name, plus the name of the root compound slot. The
// compiler assembles them into a policyspace tree.
//
// # Source Locations
//
// All references include a Location for error reporting:
//
//	fmt.Errorf("%s: unknown slot %q", ref.Location, name)
package ast
