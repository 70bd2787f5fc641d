package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/ofirbed/DataTaggingLibrary/pkg/decisiongraph"
	"github.com/ofirbed/DataTaggingLibrary/pkg/pml/ast"
	pmlErrors "github.com/ofirbed/DataTaggingLibrary/pkg/pml/errors"
	"github.com/ofirbed/DataTaggingLibrary/pkg/policyspace"
)

func testSpace(t *testing.T) *policyspace.Space {
	t.Helper()
	s, err := policyspace.Seal(policyspace.NewCompound("Top", "",
		policyspace.NewAtomic("Color", "", policyspace.Items("Blue", "Red")...),
		policyspace.NewAtomic("Test", "", policyspace.Items("Works", "Not")...),
		policyspace.NewAtomic("TestI", "", policyspace.Items("yes", "no")...),
		policyspace.NewAtomic("A", "", policyspace.Items("a0", "a1")...),
	))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func assign(slot, value string) ast.Assignment {
	return ast.Assignment{Slot: strings.Split(slot, "/"), Values: []string{value}}
}

func ask(id, text string, answers ...*ast.AnswerRef) *ast.AskRef {
	return &ast.AskRef{Head: ast.Head{ID: id}, Text: &ast.TextRef{Text: text}, Answers: answers}
}

func answer(text string, body ...ast.Instruction) *ast.AnswerRef {
	return &ast.AnswerRef{Text: text, Body: body}
}

func set(as ...ast.Assignment) *ast.SetRef { return &ast.SetRef{Assignments: as} }

func end() *ast.EndRef { return &ast.EndRef{} }

func compile(t *testing.T, insts ...ast.Instruction) (*decisiongraph.Graph, []*pmlErrors.Error, error) {
	t.Helper()
	return New(testSpace(t)).Compile("test", insts)
}

func mustCompile(t *testing.T, insts ...ast.Instruction) *decisiongraph.Graph {
	t.Helper()
	g, _, err := compile(t, insts...)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return g
}

func TestCompile_ImpliedAnswer(t *testing.T) {
	g := mustCompile(t,
		ask("q1", "proceed?", answer("yes", set(assign("A", "a1")))),
		end(),
	)

	q, ok := g.Start().(*decisiongraph.AskNode)
	if !ok || q.ID() != "q1" {
		t.Fatalf("Start() = %v, want ask q1", g.Start())
	}
	answers := q.Answers()
	if len(answers) != 2 || answers[0].Text != "yes" || answers[1].Text != "no" {
		t.Fatalf("Answers() = %+v, want yes, no", answers)
	}
	if answers[1].Next != decisiongraph.EndID {
		t.Errorf("implied no -> %s, want %s", answers[1].Next, decisiongraph.EndID)
	}
	yes, _ := g.Node(answers[0].Next)
	setNode, ok := yes.(*decisiongraph.SetNode)
	if !ok {
		t.Fatalf("yes -> %T, want *SetNode", yes)
	}
	if setNode.Next() != decisiongraph.EndID {
		t.Errorf("set.Next() = %s", setNode.Next())
	}
	if !decisiongraph.IsSynthetic(setNode.ID()) {
		t.Errorf("set id %q not generated", setNode.ID())
	}

	// No answers at all: both halves are implied.
	g = mustCompile(t, ask("bare", "proceed?"), end())
	bare, _ := g.Node("bare")
	var got []string
	for _, a := range bare.(*decisiongraph.AskNode).Answers() {
		got = append(got, a.Text)
		if a.Next != decisiongraph.EndID {
			t.Errorf("implied %s -> %s, want %s", a.Text, a.Next, decisiongraph.EndID)
		}
	}
	if strings.Join(got, ",") != "yes,no" {
		t.Errorf("bare answers = %v, want [yes no]", got)
	}
}

func TestCompile_ImpliedAnswerOnlyForBinary(t *testing.T) {
	g := mustCompile(t,
		ask("q", "pick", answer("maybe")),
		ask("r", "again", answer("yes"), answer("no")),
	)
	q, _ := g.Node("q")
	if n := len(q.(*decisiongraph.AskNode).Answers()); n != 1 {
		t.Errorf("q answers = %d, want 1", n)
	}
	r, _ := g.Node("r")
	if n := len(r.(*decisiongraph.AskNode).Answers()); n != 2 {
		t.Errorf("r answers = %d, want 2", n)
	}
}

func TestCompile_DuplicateID(t *testing.T) {
	_, _, err := compile(t,
		ask("q1", "first", answer("yes")),
		ask("q1", "second", answer("no")),
		end(),
	)
	var el *pmlErrors.ErrorList
	if !errors.As(err, &el) {
		t.Fatalf("Compile() error = %v, want *ErrorList", err)
	}
	sem := el.ByType(pmlErrors.ErrorTypeSemantic)
	if len(sem) != 1 || !strings.Contains(sem[0].Message, `duplicate id "q1"`) {
		t.Errorf("semantic errors = %v", sem)
	}
}

func TestCompile_ReservedID(t *testing.T) {
	_, _, err := compile(t, &ast.ToDoRef{Head: ast.Head{ID: "$1"}, Text: "x"})
	if err == nil || !strings.Contains(err.Error(), "reserved") {
		t.Errorf("Compile() error = %v, want reserved id error", err)
	}
}

func TestCompile_BadSetCollectsAll(t *testing.T) {
	_, _, err := compile(t,
		set(assign("Colour", "Red")),
		set(assign("Color", "Green")),
		ask("q", "?", answer("yes", set(assign("Top", "a0")))),
		end(),
	)
	var el *pmlErrors.ErrorList
	if !errors.As(err, &el) {
		t.Fatalf("Compile() error = %v", err)
	}
	bad := el.ByType(pmlErrors.ErrorTypeBadSet)
	if len(bad) != 3 {
		t.Fatalf("bad-set errors = %d, want 3:\n%v", len(bad), el)
	}

	wantKinds := []policyspace.LookupKind{policyspace.NoSuchSlot, policyspace.NoSuchValue, policyspace.TypeMismatch}
	kinds := map[policyspace.LookupKind]bool{}
	for _, e := range bad {
		var bse *BadSetInstructionError
		if !errors.As(e, &bse) {
			t.Fatalf("cause = %v, want *BadSetInstructionError", e.Cause)
		}
		kinds[bse.Result.Kind] = true
		var le *policyspace.LookupError
		if !errors.As(e, &le) {
			t.Errorf("lookup error not reachable through %v", e)
		}
	}
	for _, k := range wantKinds {
		if !kinds[k] {
			t.Errorf("missing %v diagnostic", k)
		}
	}
	for _, e := range bad {
		if strings.Contains(e.Message, "Colour") && !strings.Contains(e.Suggestion, "'Color'") {
			t.Errorf("suggestion = %q, want a hint at Color", e.Suggestion)
		}
	}
}

func TestCompile_CallResolution(t *testing.T) {
	part := &ast.PartRef{Head: ast.Head{ID: "P"}, Body: []ast.Instruction{set(assign("Color", "Blue")), end()}}
	call := &ast.CallRef{CalleeID: "P"}

	g := mustCompile(t, part, call, set(assign("Test", "Works")), end())

	start, ok := g.Start().(*decisiongraph.CallNode)
	if !ok {
		t.Fatalf("Start() = %T, want *CallNode", g.Start())
	}
	if start.Callee() != "P" {
		t.Errorf("Callee() = %s", start.Callee())
	}
	if _, ok := g.Node("P"); !ok {
		t.Error("part P missing")
	}

	_, _, err := compile(t, &ast.CallRef{CalleeID: "Q"}, end())
	var el *pmlErrors.ErrorList
	if !errors.As(err, &el) || !el.HasErrorType(pmlErrors.ErrorTypeSemantic) {
		t.Errorf("unresolved call: error = %v", err)
	}
}

func TestCompile_PartBetweenInstructions(t *testing.T) {
	part := &ast.PartRef{Head: ast.Head{ID: "P"}, Body: []ast.Instruction{set(assign("Color", "Blue")), end()}}
	before := set(assign("A", "a1"))
	before.ID = "before"
	after := set(assign("Test", "Works"))
	after.ID = "after"

	g, warnings, err := compile(t, before, part, after, end())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if g.StartID() != "before" {
		t.Fatalf("StartID() = %s, want before", g.StartID())
	}
	first, _ := g.Node("before")
	if next := first.(*decisiongraph.SetNode).Next(); next != "after" {
		t.Errorf("before.Next() = %s, want after", next)
	}
	if _, ok := g.Node("P"); !ok {
		t.Error("part P missing")
	}
	for _, w := range warnings {
		if w.NodeID == "after" {
			t.Errorf("after reported unreachable: %v", w)
		}
	}
}

func TestCompile_SectionContinuation(t *testing.T) {
	g := mustCompile(t,
		&ast.SectionRef{Head: ast.Head{ID: "s"}, Title: "intro", Body: []ast.Instruction{set(assign("A", "a0"))}},
		&ast.ToDoRef{Head: ast.Head{ID: "after"}, Text: "more"},
		end(),
	)
	sec := g.Start().(*decisiongraph.SectionNode)
	if sec.Next() != "after" {
		t.Errorf("section next = %s, want after", sec.Next())
	}
	body, _ := g.Node(sec.Start())
	cont, _ := g.Node(body.(*decisiongraph.SetNode).Next())
	if _, ok := cont.(*decisiongraph.ContinueNode); !ok {
		t.Errorf("section body ends in %T, want *ContinueNode", cont)
	}
}

func TestCompile_ConsiderFallthrough(t *testing.T) {
	consider := &ast.ConsiderRef{
		Head: ast.Head{ID: "c"},
		Options: []*ast.ConsiderOptionRef{
			{Assignments: []ast.Assignment{assign("A", "a0")}, Body: []ast.Instruction{&ast.RejectRef{Reason: "no"}}},
		},
	}
	g := mustCompile(t, consider, &ast.ToDoRef{Head: ast.Head{ID: "t"}}, end())

	c := g.Start().(*decisiongraph.ConsiderNode)
	if _, ok := c.Else(); ok {
		t.Error("Else() present without an else branch")
	}
	if c.Fallback() != "t" {
		t.Errorf("Fallback() = %s, want t", c.Fallback())
	}
}

func TestCompile_UnreachableWarning(t *testing.T) {
	g, warnings, err := compile(t,
		end(),
		&ast.ToDoRef{Head: ast.Head{ID: "orphan"}, Text: "never"},
		end(),
	)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if g.StartID() != decisiongraph.EndID {
		t.Errorf("StartID() = %s", g.StartID())
	}
	if len(warnings) != 1 || warnings[0].NodeID != "orphan" {
		t.Errorf("warnings = %v, want one for orphan", warnings)
	}
}

func TestCompile_CallCycle(t *testing.T) {
	_, _, err := compile(t,
		&ast.CallRef{Head: ast.Head{ID: "main"}, CalleeID: "P"},
		end(),
		&ast.PartRef{Head: ast.Head{ID: "P"}, Body: []ast.Instruction{&ast.CallRef{CalleeID: "P"}}},
	)
	var el *pmlErrors.ErrorList
	if !errors.As(err, &el) || !el.HasErrorType(pmlErrors.ErrorTypeValidation) {
		t.Fatalf("Compile() error = %v, want call cycle", err)
	}

	// A question on the cycle makes it legal.
	_, _, err = compile(t,
		&ast.CallRef{CalleeID: "P"},
		end(),
		&ast.PartRef{Head: ast.Head{ID: "P"}, Body: []ast.Instruction{
			ask("again", "again?", answer("yes", &ast.CallRef{CalleeID: "P"})),
		}},
	)
	if err != nil {
		t.Errorf("Compile() error = %v for a cycle through a question", err)
	}
}

// Every call resolves and every successor exists on well-formed input.
func TestCompile_Total(t *testing.T) {
	g := mustCompile(t,
		ask("q1", "one?",
			answer("yes", &ast.CallRef{CalleeID: "P"}),
			answer("no", &ast.SectionRef{Title: "s", Body: []ast.Instruction{&ast.ToDoRef{Text: "x"}}})),
		&ast.ConsiderRef{
			Options: []*ast.ConsiderOptionRef{{Assignments: []ast.Assignment{assign("A", "a0")}}},
			Else:    &ast.ElseRef{Body: []ast.Instruction{set(assign("A", "a1"))}},
		},
		end(),
		&ast.PartRef{Head: ast.Head{ID: "P"}, Body: []ast.Instruction{set(assign("Color", "Red")), &ast.ContinueRef{}}},
	)
	for _, n := range g.Nodes() {
		for _, next := range decisiongraph.Successors(n) {
			if _, ok := g.Node(next); !ok {
				t.Errorf("%s -> %s does not resolve", n.ID(), next)
			}
		}
	}
}
