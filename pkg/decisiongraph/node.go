package decisiongraph

import (
	"strings"

	"github.com/ofirbed/DataTaggingLibrary/pkg/policyspace"
)

// EndID is the id of the end node shared by all strands of a graph.
const EndID = "$end"

// IsSynthetic reports whether id was generated rather than written by an
// author.
func IsSynthetic(id string) bool { return strings.HasPrefix(id, "$") }

// Node is a vertex of a decision graph.
type Node interface {
	ID() string
	Kind() string
	isNode()
}

type nodeBase struct {
	id string
}

func (b nodeBase) ID() string { return b.id }
func (nodeBase) isNode()      {}

// Term is a glossary entry attached to a question.
type Term struct {
	Term        string
	Explanation string
}

// Answer is one branch of a question.
type Answer struct {
	Text string
	Next string
}

// AskNode suspends a run until the user picks one of its answers.
type AskNode struct {
	nodeBase
	text    string
	terms   []Term
	answers []Answer
}

// NewAsk returns an Ask node. Answer order is preserved.
func NewAsk(id, text string, terms []Term, answers []Answer) *AskNode {
	return &AskNode{
		nodeBase: nodeBase{id},
		text:     text,
		terms:    append([]Term(nil), terms...),
		answers:  append([]Answer(nil), answers...),
	}
}

func (n *AskNode) Kind() string      { return "ask" }
func (n *AskNode) Text() string      { return n.text }
func (n *AskNode) Terms() []Term     { return append([]Term(nil), n.terms...) }
func (n *AskNode) Answers() []Answer { return append([]Answer(nil), n.answers...) }

// Next returns the successor for the answer with the given text.
func (n *AskNode) Next(answer string) (string, bool) {
	for _, a := range n.answers {
		if a.Text == answer {
			return a.Next, true
		}
	}
	return "", false
}

// ConsiderOption is a branch of a Consider node, taken when the current
// value contains every assignment of Pattern.
type ConsiderOption struct {
	Pattern *policyspace.CompoundValue
	Next    string
}

// ConsiderNode branches on the current value without asking.
type ConsiderNode struct {
	nodeBase
	options []ConsiderOption
	elseID  string
	next    string
}

// NewConsider returns a Consider node. elseID may be empty when no else
// branch was written; next is the structural successor.
func NewConsider(id string, options []ConsiderOption, elseID, next string) *ConsiderNode {
	return &ConsiderNode{
		nodeBase: nodeBase{id},
		options:  append([]ConsiderOption(nil), options...),
		elseID:   elseID,
		next:     next,
	}
}

func (n *ConsiderNode) Kind() string              { return "consider" }
func (n *ConsiderNode) Options() []ConsiderOption { return append([]ConsiderOption(nil), n.options...) }
func (n *ConsiderNode) Else() (string, bool)      { return n.elseID, n.elseID != "" }
func (n *ConsiderNode) Next() string              { return n.next }

// Fallback returns the successor used when no option matches.
func (n *ConsiderNode) Fallback() string {
	if n.elseID != "" {
		return n.elseID
	}
	return n.next
}

// SetNode composes its payload into the current value.
type SetNode struct {
	nodeBase
	payload *policyspace.CompoundValue
	next    string
}

func NewSet(id string, payload *policyspace.CompoundValue, next string) *SetNode {
	return &SetNode{nodeBase: nodeBase{id}, payload: payload, next: next}
}

func (n *SetNode) Kind() string                        { return "set" }
func (n *SetNode) Payload() *policyspace.CompoundValue { return n.payload }
func (n *SetNode) Next() string                        { return n.next }

// SectionNode groups a body that returns to Next when done.
type SectionNode struct {
	nodeBase
	title string
	start string
	next  string
}

func NewSection(id, title, start, next string) *SectionNode {
	return &SectionNode{nodeBase: nodeBase{id}, title: title, start: start, next: next}
}

func (n *SectionNode) Kind() string  { return "section" }
func (n *SectionNode) Title() string { return n.title }
func (n *SectionNode) Start() string { return n.start }
func (n *SectionNode) Next() string  { return n.next }

// PartNode is a callable sub-procedure. Its return address is supplied by
// the Call that reached it.
type PartNode struct {
	nodeBase
	title string
	start string
}

func NewPart(id, title, start string) *PartNode {
	return &PartNode{nodeBase: nodeBase{id}, title: title, start: start}
}

func (n *PartNode) Kind() string  { return "part" }
func (n *PartNode) Title() string { return n.title }
func (n *PartNode) Start() string { return n.start }

// CallNode transfers control to Callee and resumes at Next afterwards.
type CallNode struct {
	nodeBase
	callee string
	next   string
}

func NewCall(id, callee, next string) *CallNode {
	return &CallNode{nodeBase: nodeBase{id}, callee: callee, next: next}
}

func (n *CallNode) Kind() string   { return "call" }
func (n *CallNode) Callee() string { return n.callee }
func (n *CallNode) Next() string   { return n.next }

// ToDoNode marks an unfinished part of the interview and passes through.
type ToDoNode struct {
	nodeBase
	text string
	next string
}

func NewToDo(id, text, next string) *ToDoNode {
	return &ToDoNode{nodeBase: nodeBase{id}, text: text, next: next}
}

func (n *ToDoNode) Kind() string { return "todo" }
func (n *ToDoNode) Text() string { return n.text }
func (n *ToDoNode) Next() string { return n.next }

// RejectNode terminates a run as rejected.
type RejectNode struct {
	nodeBase
	reason string
}

func NewReject(id, reason string) *RejectNode {
	return &RejectNode{nodeBase: nodeBase{id}, reason: reason}
}

func (n *RejectNode) Kind() string   { return "reject" }
func (n *RejectNode) Reason() string { return n.reason }

// EndNode accepts the run, or returns to the innermost caller when the call
// stack is not empty.
type EndNode struct {
	nodeBase
}

func NewEnd(id string) *EndNode { return &EndNode{nodeBase{id}} }

func (n *EndNode) Kind() string { return "end" }

// ContinueNode leaves the innermost section or part.
type ContinueNode struct {
	nodeBase
}

func NewContinue(id string) *ContinueNode { return &ContinueNode{nodeBase{id}} }

func (n *ContinueNode) Kind() string { return "continue" }

// Successors returns the ids n may transfer control to directly, in
// declaration order. Call nodes list the callee before the return address.
func Successors(n Node) []string {
	switch t := n.(type) {
	case *AskNode:
		out := make([]string, len(t.answers))
		for i, a := range t.answers {
			out[i] = a.Next
		}
		return out
	case *ConsiderNode:
		out := make([]string, 0, len(t.options)+2)
		for _, o := range t.options {
			out = append(out, o.Next)
		}
		if t.elseID != "" {
			out = append(out, t.elseID)
		}
		return append(out, t.next)
	case *SetNode:
		return []string{t.next}
	case *SectionNode:
		return []string{t.start, t.next}
	case *PartNode:
		return []string{t.start}
	case *CallNode:
		return []string{t.callee, t.next}
	case *ToDoNode:
		return []string{t.next}
	}
	return nil
}
