package ast

// SlotKind is the declared variant of a slot.
type SlotKind string

const (
	SlotAtomic    SlotKind = "atomic"    // one of an ordered list
	SlotAggregate SlotKind = "aggregate" // some of a list
	SlotCompound  SlotKind = "compound"  // consists of other slots
	SlotTodo      SlotKind = "todo"      // placeholder
)

// ItemDecl is one value of an atomic or aggregate slot.
type ItemDecl struct {
	Name     string
	Note     string
	Location Location
}

// SlotDecl declares one slot. Compound slots name their fields; the fields
// are declared separately.
type SlotDecl struct {
	Name     string
	Note     string
	Kind     SlotKind
	Items    []ItemDecl // atomic and aggregate slots
	Fields   []string   // compound slots
	Location Location
}

// SpaceDecl is the complete policy-space declaration.
type SpaceDecl struct {
	Root     string // Name of the top-level compound slot
	Slots    []*SlotDecl
	Location Location
}

// Slot returns the declaration with the given name, or nil.
func (s *SpaceDecl) Slot(name string) *SlotDecl {
	for _, d := range s.Slots {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// InferencePair is one rule of a value inferrer: when the current value is
// at least Antecedent, the target slot receives Consequent.
type InferencePair struct {
	Antecedent []Assignment
	Consequent []string
	Location   Location
}

// InferrerDecl declares the inference rules for one target slot.
type InferrerDecl struct {
	Slot     []string
	Pairs    []InferencePair
	Location Location
}

// Metadata describes a model.
type Metadata struct {
	Title     string
	Subtitle  string
	Version   string
	Source    string // URI the model was loaded from
	Authors   []string
	Keywords  []string
	Languages []string
}

// Model bundles the complete parser output for one policy model.
type Model struct {
	Metadata   Metadata
	Space      *SpaceDecl
	Inferrers  []*InferrerDecl
	Graph      []Instruction
	SourceFile string
}
