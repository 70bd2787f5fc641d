package ast

// Head holds the attributes shared by every reference.
type Head struct {
	ID       string   // Author-supplied id, empty if none
	Location Location // Source location
}

// Ref returns h itself. It lets code reach the head of any reference
// through the Instruction interface.
func (h *Head) Ref() *Head { return h }

// Instruction is a reference to one decision-graph instruction.
type Instruction interface {
	Ref() *Head
	Type() string
}

// TextRef is the body text of a question.
type TextRef struct {
	Head
	Text string
}

// TermRef is a glossary entry shown alongside a question.
type TermRef struct {
	Head
	Term        string
	Explanation string
}

// AnswerRef is one answer of a question together with the instructions run
// when it is chosen.
type AnswerRef struct {
	Head
	Text string
	Body []Instruction
}

// AskRef asks the user a question.
type AskRef struct {
	Head
	Text    *TextRef
	Terms   []*TermRef
	Answers []*AnswerRef
}

// Assignment names a slot by path (full or an unambiguous suffix) and the
// literals assigned to it. Atomic slots take one literal, aggregate slots
// any number.
type Assignment struct {
	Slot     []string
	Values   []string
	Location Location
}

// ConsiderOptionRef is one branch of a consider instruction.
type ConsiderOptionRef struct {
	Head
	Assignments []Assignment
	Body        []Instruction
}

// ElseRef is the fallback branch of a consider instruction.
type ElseRef struct {
	Head
	Body []Instruction
}

// ConsiderRef branches on the current value.
type ConsiderRef struct {
	Head
	Options []*ConsiderOptionRef
	Else    *ElseRef // nil when no else branch was written
}

// SetRef composes the given assignments into the current value.
type SetRef struct {
	Head
	Assignments []Assignment
}

// SectionRef groups a titled body.
type SectionRef struct {
	Head
	Title string
	Body  []Instruction
}

// PartRef declares a callable body. Parts are usually given an id so they
// can be called.
type PartRef struct {
	Head
	Title string
	Body  []Instruction
}

// CallRef transfers control to the node with the given id.
type CallRef struct {
	Head
	CalleeID string
}

// ToDoRef marks an unfinished part of the interview.
type ToDoRef struct {
	Head
	Text string
}

// RejectRef ends the run as rejected.
type RejectRef struct {
	Head
	Reason string
}

// EndRef ends the current strand.
type EndRef struct {
	Head
}

// ContinueRef leaves the innermost section or part.
type ContinueRef struct {
	Head
}

func (*AskRef) Type() string      { return "ask" }
func (*ConsiderRef) Type() string { return "consider" }
func (*SetRef) Type() string      { return "set" }
func (*SectionRef) Type() string  { return "section" }
func (*PartRef) Type() string     { return "part" }
func (*CallRef) Type() string     { return "call" }
func (*ToDoRef) Type() string     { return "todo" }
func (*RejectRef) Type() string   { return "reject" }
func (*EndRef) Type() string      { return "end" }
func (*ContinueRef) Type() string { return "continue" }

// Answer returns the answer with the given text, or nil.
func (a *AskRef) Answer(text string) *AnswerRef {
	for _, ans := range a.Answers {
		if ans.Text == text {
			return ans
		}
	}
	return nil
}

// HasAnswer returns true if the question offers an answer with the given
// text.
func (a *AskRef) HasAnswer(text string) bool {
	return a.Answer(text) != nil
}
