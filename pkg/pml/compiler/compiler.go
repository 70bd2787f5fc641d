package compiler

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/ofirbed/DataTaggingLibrary/pkg/decisiongraph"
	"github.com/ofirbed/DataTaggingLibrary/pkg/pml/ast"
	pmlErrors "github.com/ofirbed/DataTaggingLibrary/pkg/pml/errors"
	"github.com/ofirbed/DataTaggingLibrary/pkg/pml/validator"
	"github.com/ofirbed/DataTaggingLibrary/pkg/policyspace"
)

// Compiler turns a list of instruction references into a decision graph.
// A Compiler may be reused; Compile is not safe for concurrent use.
type Compiler struct {
	space  *policyspace.Space
	logger *slog.Logger

	// per-compilation state
	errs      *pmlErrors.ErrorList
	ids       map[*ast.Head]string
	index     map[string]*ast.Head
	locations map[string]ast.Location
	counter   int
	builder   *decisiongraph.Builder
	calls     []*ast.CallRef
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for compilation diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a compiler that resolves slot assignments against space.
func New(space *policyspace.Space, opts ...Option) *Compiler {
	c := &Compiler{
		space:  space,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile builds the decision graph for insts.
//
// All bad assignments are collected before failing. On failure the returned
// error is a *errors.ErrorList. Warnings, such as unreachable nodes, are
// returned even when compilation succeeds.
func (c *Compiler) Compile(graphID string, insts []ast.Instruction) (*decisiongraph.Graph, []*pmlErrors.Error, error) {
	c.reset(graphID)

	c.assignIDs(insts)
	if c.errs.HasErrors() {
		return nil, nil, c.errs
	}

	strands := segment(insts)
	start := ""
	for _, s := range strands {
		head := c.compileList(s, decisiongraph.EndID)
		if start == "" && !onlyParts(s) {
			start = head
		}
	}
	if start == "" {
		start = decisiongraph.EndID
	}
	c.builder.SetStart(start)

	c.linkCalls()
	if c.errs.HasErrors() {
		return nil, c.errs.Warnings(), c.errs
	}

	graph, err := c.builder.Seal()
	if err != nil {
		c.errs.Add(&pmlErrors.Error{
			Type:    pmlErrors.ErrorTypeSemantic,
			Message: err.Error(),
			Cause:   err,
		})
		return nil, c.errs.Warnings(), c.errs
	}

	c.errs.Merge(validator.New(c.locations).Validate(graph))
	warnings := c.errs.Warnings()
	if err := c.errs.ToError(); err != nil {
		return nil, warnings, err
	}

	c.logger.Debug("compiled decision graph",
		"graph", graphID,
		"nodes", graph.Len(),
		"start", graph.StartID(),
		"warnings", len(warnings),
	)
	return graph, warnings, nil
}

func (c *Compiler) reset(graphID string) {
	c.errs = pmlErrors.NewErrorList()
	c.ids = make(map[*ast.Head]string)
	c.index = make(map[string]*ast.Head)
	c.locations = make(map[string]ast.Location)
	c.counter = 0
	c.builder = decisiongraph.NewBuilder(graphID)
	c.calls = nil
}

func (c *Compiler) nextID() string {
	c.counter++
	return "$" + strconv.Itoa(c.counter)
}

// assignIDs gives every reference (including question texts, terms, answers
// and consider branches) an id, and indexes user-supplied ones.
func (c *Compiler) assignIDs(insts []ast.Instruction) {
	_ = ast.Walk(insts, func(inst ast.Instruction, _ int) error {
		c.assignID(inst.Ref())
		switch t := inst.(type) {
		case *ast.AskRef:
			if t.Text != nil {
				c.assignID(&t.Text.Head)
			}
			for _, term := range t.Terms {
				c.assignID(&term.Head)
			}
			for _, a := range t.Answers {
				c.assignID(&a.Head)
			}
		case *ast.ConsiderRef:
			for _, o := range t.Options {
				c.assignID(&o.Head)
			}
			if t.Else != nil {
				c.assignID(&t.Else.Head)
			}
		}
		return nil
	})
}

func (c *Compiler) assignID(h *ast.Head) {
	if h.ID == "" {
		c.ids[h] = c.nextID()
		return
	}
	if decisiongraph.IsSynthetic(h.ID) {
		c.errs.AddError(pmlErrors.ErrorTypeSemantic,
			fmt.Sprintf("id %q is reserved: ids starting with '$' are generated", h.ID), h.Location)
		return
	}
	if prev, dup := c.index[h.ID]; dup {
		c.errs.Add(&pmlErrors.Error{
			Type:       pmlErrors.ErrorTypeSemantic,
			Message:    fmt.Sprintf("duplicate id %q", h.ID),
			Location:   h.Location,
			NodeID:     h.ID,
			Suggestion: fmt.Sprintf("The id is already used at %s", prev.Location),
		})
		return
	}
	c.index[h.ID] = h
	c.ids[h] = h.ID
}

func (c *Compiler) idOf(inst ast.Instruction) string {
	return c.ids[inst.Ref()]
}

// onlyParts reports whether a strand holds nothing but Parts and its End.
func onlyParts(strand []ast.Instruction) bool {
	for _, inst := range strand {
		switch inst.(type) {
		case *ast.PartRef, *ast.EndRef:
		default:
			return false
		}
	}
	return true
}

// segment splits the top-level list into strands, each ending after an End
// reference.
func segment(insts []ast.Instruction) [][]ast.Instruction {
	var strands [][]ast.Instruction
	var cur []ast.Instruction
	for _, inst := range insts {
		cur = append(cur, inst)
		if _, ok := inst.(*ast.EndRef); ok {
			strands = append(strands, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		strands = append(strands, cur)
	}
	return strands
}

// compileList compiles insts back to front and returns the id of the first
// node. An empty list compiles to dflt.
func (c *Compiler) compileList(insts []ast.Instruction, dflt string) string {
	next := dflt
	for i := len(insts) - 1; i >= 0; i-- {
		next = c.compile(insts[i], next)
	}
	return next
}

func (c *Compiler) add(n decisiongraph.Node, loc ast.Location) {
	c.locations[n.ID()] = loc
	if err := c.builder.Add(n); err != nil {
		c.errs.Add(&pmlErrors.Error{
			Type:     pmlErrors.ErrorTypeSemantic,
			Message:  err.Error(),
			Location: loc,
			NodeID:   n.ID(),
			Cause:    err,
		})
	}
}

// compile adds the node for inst, whose structural successor is next, and
// returns the id control enters inst at.
func (c *Compiler) compile(inst ast.Instruction, next string) string {
	id := c.idOf(inst)
	loc := inst.Ref().Location

	switch t := inst.(type) {
	case *ast.AskRef:
		c.add(c.compileAsk(id, t, next), loc)

	case *ast.ConsiderRef:
		options := make([]decisiongraph.ConsiderOption, 0, len(t.Options))
		for _, o := range t.Options {
			pattern := c.resolveAssignments(id, o.Assignments)
			options = append(options, decisiongraph.ConsiderOption{
				Pattern: pattern,
				Next:    c.compileList(o.Body, next),
			})
		}
		elseID := ""
		if t.Else != nil {
			elseID = c.compileList(t.Else.Body, next)
		}
		if len(t.Options) == 0 {
			c.errs.AddError(pmlErrors.ErrorTypeStructural, "consider has no options", loc)
		}
		c.add(decisiongraph.NewConsider(id, options, elseID, next), loc)

	case *ast.SetRef:
		payload := c.resolveAssignments(id, t.Assignments)
		c.add(decisiongraph.NewSet(id, payload, next), loc)

	case *ast.SectionRef:
		start := c.compileList(t.Body, c.continuation(loc))
		c.add(decisiongraph.NewSection(id, t.Title, start, next), loc)

	case *ast.PartRef:
		// Parts are entered only through a Call. The part is compiled out of
		// line and the flow around it goes straight to next.
		start := c.compileList(t.Body, c.continuation(loc))
		c.add(decisiongraph.NewPart(id, t.Title, start), loc)
		return next

	case *ast.CallRef:
		c.calls = append(c.calls, t)
		c.add(decisiongraph.NewCall(id, t.CalleeID, next), loc)

	case *ast.ToDoRef:
		c.add(decisiongraph.NewToDo(id, t.Text, next), loc)

	case *ast.RejectRef:
		c.add(decisiongraph.NewReject(id, t.Reason), loc)

	case *ast.EndRef:
		if decisiongraph.IsSynthetic(id) {
			return decisiongraph.EndID
		}
		c.add(decisiongraph.NewEnd(id), loc)

	case *ast.ContinueRef:
		c.add(decisiongraph.NewContinue(id), loc)

	default:
		c.errs.AddError(pmlErrors.ErrorTypeStructural, fmt.Sprintf("unsupported instruction %T", inst), loc)
		return next
	}
	return id
}

// continuation creates the Continue node that ends a section or part body
// when the body does not end itself.
func (c *Compiler) continuation(loc ast.Location) string {
	id := c.nextID()
	c.add(decisiongraph.NewContinue(id), loc)
	return id
}

func (c *Compiler) compileAsk(id string, ref *ast.AskRef, next string) *decisiongraph.AskNode {
	text := ""
	if ref.Text != nil {
		text = ref.Text.Text
	}
	terms := make([]decisiongraph.Term, len(ref.Terms))
	for i, t := range ref.Terms {
		terms[i] = decisiongraph.Term{Term: t.Term, Explanation: t.Explanation}
	}

	answers := make([]decisiongraph.Answer, 0, len(ref.Answers)+2)
	for _, a := range ref.Answers {
		answers = append(answers, decisiongraph.Answer{
			Text: a.Text,
			Next: c.compileList(a.Body, next),
		})
	}
	for _, implied := range impliedAnswers(ref) {
		answers = append(answers, decisiongraph.Answer{Text: implied, Next: next})
	}
	return decisiongraph.NewAsk(id, text, terms, answers)
}

// impliedAnswers returns the answers a yes/no question leaves out. A
// question with no answers gets both; one that declares only "yes" or only
// "no" gets the other. Implied answers continue with the question's
// successor.
func impliedAnswers(ref *ast.AskRef) []string {
	switch len(ref.Answers) {
	case 0:
		return []string{"yes", "no"}
	case 1:
		switch strings.ToLower(strings.TrimSpace(ref.Answers[0].Text)) {
		case "yes":
			return []string{"no"}
		case "no":
			return []string{"yes"}
		}
	}
	return nil
}

// linkCalls checks that every call names a node of the graph.
func (c *Compiler) linkCalls() {
	for _, call := range c.calls {
		if c.builder.Has(call.CalleeID) {
			continue
		}
		msg := fmt.Sprintf("call to unknown node %q", call.CalleeID)
		if _, ok := c.index[call.CalleeID]; ok {
			msg = fmt.Sprintf("call target %q is not an instruction", call.CalleeID)
		}
		c.errs.Add(&pmlErrors.Error{
			Type:       pmlErrors.ErrorTypeSemantic,
			Message:    msg,
			Location:   call.Location,
			NodeID:     c.idOf(call),
			Suggestion: pmlErrors.SuggestName(call.CalleeID, c.userNodeIDs()),
		})
	}
}

func (c *Compiler) userNodeIDs() []string {
	var out []string
	for id := range c.locations {
		if !decisiongraph.IsSynthetic(id) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
