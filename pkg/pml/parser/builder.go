package parser

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ofirbed/DataTaggingLibrary/pkg/pml/ast"
	pmlErrors "github.com/ofirbed/DataTaggingLibrary/pkg/pml/errors"
)

// instructionKinds lists the keys that introduce an instruction.
var instructionKinds = []string{
	"ask", "consider", "set", "section", "part", "call", "todo", "reject", "end", "continue",
}

// builder constructs references from a YAML node tree.
// It records structural problems and keeps going so that one load reports
// as many of them as possible.
type builder struct {
	sourcePath string
	maxDepth   int
	errors     *pmlErrors.ErrorList
}

func newBuilder(sourcePath string, maxDepth int) *builder {
	return &builder{
		sourcePath: sourcePath,
		maxDepth:   maxDepth,
		errors:     pmlErrors.NewErrorList(),
	}
}

// loc returns the source location of a YAML node.
func (b *builder) loc(n *yaml.Node) ast.Location {
	if n == nil {
		return ast.Location{File: b.sourcePath}
	}
	return ast.Location{File: b.sourcePath, Line: n.Line, Column: n.Column}
}

func (b *builder) fail(n *yaml.Node, format string, args ...any) {
	b.errors.AddError(pmlErrors.ErrorTypeStructural, fmt.Sprintf(format, args...), b.loc(n))
}

func (b *builder) failWithSuggestion(n *yaml.Node, suggestion, format string, args ...any) {
	b.errors.AddErrorWithSuggestion(pmlErrors.ErrorTypeStructural, fmt.Sprintf(format, args...), b.loc(n), suggestion)
}

// expect reports an error unless n has the given kind.
func (b *builder) expect(n *yaml.Node, kind yaml.Kind, what string) bool {
	if n != nil && n.Kind == kind {
		return true
	}
	b.fail(n, "%s must be a %s", what, kindName(kind))
	return false
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "list"
	case yaml.ScalarNode:
		return "scalar"
	}
	return "node"
}

// checkKeys reports keys of a mapping that are not in allowed.
func (b *builder) checkKeys(n *yaml.Node, what string, allowed ...string) {
	for _, p := range pairs(n) {
		if contains(allowed, p.key.Value) {
			continue
		}
		b.failWithSuggestion(p.key, pmlErrors.SuggestName(p.key.Value, allowed),
			"Unknown field %q in %s", p.key.Value, what)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// scalar returns the string value of n, reporting an error for non-scalars.
func (b *builder) scalar(n *yaml.Node, what string) string {
	if isNull(n) {
		return ""
	}
	if !b.expect(n, yaml.ScalarNode, what) {
		return ""
	}
	return n.Value
}

func (b *builder) buildModel(root *yaml.Node) *ast.Model {
	m := &ast.Model{SourceFile: b.sourcePath}
	if !b.expect(root, yaml.MappingNode, "model") {
		return m
	}
	b.checkKeys(root, "model", "metadata", "space", "inferrers", "graph")

	if n := lookup(root, "metadata"); n != nil {
		m.Metadata = b.buildMetadata(n)
	}
	m.Metadata.Source = b.sourcePath

	if n := lookup(root, "space"); n != nil {
		m.Space = b.buildSpace(n)
	} else {
		b.fail(root, "Model has no space declaration")
	}

	if n := lookup(root, "inferrers"); !isNull(n) && b.expect(n, yaml.SequenceNode, "inferrers") {
		for _, c := range n.Content {
			if inf := b.buildInferrer(resolveAlias(c)); inf != nil {
				m.Inferrers = append(m.Inferrers, inf)
			}
		}
	}

	if n := lookup(root, "graph"); !isNull(n) {
		m.Graph = b.buildInstructions(n, "graph", 0)
	}
	return m
}

// yamlMetadata is the decoding target of the metadata block.
type yamlMetadata struct {
	Title     string   `yaml:"title"`
	Subtitle  string   `yaml:"subtitle"`
	Version   string   `yaml:"version"`
	Source    string   `yaml:"source"`
	Authors   []string `yaml:"authors"`
	Keywords  []string `yaml:"keywords"`
	Languages []string `yaml:"languages"`
}

func (b *builder) buildMetadata(n *yaml.Node) ast.Metadata {
	if !b.expect(n, yaml.MappingNode, "metadata") {
		return ast.Metadata{}
	}
	b.checkKeys(n, "metadata", "title", "subtitle", "version", "source", "authors", "keywords", "languages")

	var ym yamlMetadata
	if err := n.Decode(&ym); err != nil {
		b.fail(n, "Invalid metadata: %v", err)
		return ast.Metadata{}
	}
	return ast.Metadata{
		Title:     ym.Title,
		Subtitle:  ym.Subtitle,
		Version:   ym.Version,
		Source:    ym.Source,
		Authors:   ym.Authors,
		Keywords:  ym.Keywords,
		Languages: ym.Languages,
	}
}

func (b *builder) buildSpace(n *yaml.Node) *ast.SpaceDecl {
	decl := &ast.SpaceDecl{Location: b.loc(n)}
	if !b.expect(n, yaml.MappingNode, "space") {
		return decl
	}
	b.checkKeys(n, "space", "root", "slots")

	decl.Root = b.scalar(lookup(n, "root"), "space root")
	if decl.Root == "" {
		b.fail(n, "Space has no root slot")
	}

	slots := lookup(n, "slots")
	if isNull(slots) || !b.expect(slots, yaml.SequenceNode, "slots") {
		return decl
	}
	for _, c := range slots.Content {
		if s := b.buildSlot(resolveAlias(c)); s != nil {
			decl.Slots = append(decl.Slots, s)
		}
	}
	return decl
}

func (b *builder) buildSlot(n *yaml.Node) *ast.SlotDecl {
	if !b.expect(n, yaml.MappingNode, "slot declaration") {
		return nil
	}
	b.checkKeys(n, "slot declaration", "name", "note", "consists_of", "one_of", "some_of", "todo")

	decl := &ast.SlotDecl{
		Name:     b.scalar(lookup(n, "name"), "slot name"),
		Note:     b.scalar(lookup(n, "note"), "slot note"),
		Location: b.loc(n),
	}
	if decl.Name == "" {
		b.fail(n, "Slot declaration has no name")
		return nil
	}

	var kinds []string
	for _, key := range []string{"consists_of", "one_of", "some_of", "todo"} {
		if lookup(n, key) != nil {
			kinds = append(kinds, key)
		}
	}
	if len(kinds) != 1 {
		b.failWithSuggestion(n, "Use exactly one of consists_of, one_of, some_of or todo",
			"Slot %q must declare exactly one kind, found %d", decl.Name, len(kinds))
		return nil
	}

	body := lookup(n, kinds[0])
	switch kinds[0] {
	case "consists_of":
		decl.Kind = ast.SlotCompound
		fields, ok := scalars(body)
		if !ok {
			b.fail(body, "Fields of slot %q must be a list of slot names", decl.Name)
			return nil
		}
		decl.Fields = fields
	case "one_of", "some_of":
		decl.Kind = ast.SlotAtomic
		if kinds[0] == "some_of" {
			decl.Kind = ast.SlotAggregate
		}
		decl.Items = b.buildItems(body, decl.Name)
	case "todo":
		decl.Kind = ast.SlotTodo
	}
	return decl
}

func (b *builder) buildItems(n *yaml.Node, slot string) []ast.ItemDecl {
	if isNull(n) || !b.expect(n, yaml.SequenceNode, fmt.Sprintf("values of slot %q", slot)) {
		return nil
	}
	out := make([]ast.ItemDecl, 0, len(n.Content))
	for _, c := range n.Content {
		c = resolveAlias(c)
		switch c.Kind {
		case yaml.ScalarNode:
			out = append(out, ast.ItemDecl{Name: c.Value, Location: b.loc(c)})
		case yaml.MappingNode:
			b.checkKeys(c, "slot value", "name", "note")
			item := ast.ItemDecl{
				Name:     b.scalar(lookup(c, "name"), "value name"),
				Note:     b.scalar(lookup(c, "note"), "value note"),
				Location: b.loc(c),
			}
			if item.Name == "" {
				b.fail(c, "Value of slot %q has no name", slot)
				continue
			}
			out = append(out, item)
		default:
			b.fail(c, "Value of slot %q must be a name or a mapping", slot)
		}
	}
	return out
}

func (b *builder) buildInferrer(n *yaml.Node) *ast.InferrerDecl {
	if !b.expect(n, yaml.MappingNode, "inferrer") {
		return nil
	}
	b.checkKeys(n, "inferrer", "slot", "rules")

	decl := &ast.InferrerDecl{
		Slot:     slotPath(b.scalar(lookup(n, "slot"), "inferrer slot")),
		Location: b.loc(n),
	}
	if len(decl.Slot) == 0 {
		b.fail(n, "Inferrer has no target slot")
		return nil
	}

	rules := lookup(n, "rules")
	if isNull(rules) || !b.expect(rules, yaml.SequenceNode, "inferrer rules") {
		return decl
	}
	for _, c := range rules.Content {
		c = resolveAlias(c)
		if !b.expect(c, yaml.MappingNode, "inference rule") {
			continue
		}
		b.checkKeys(c, "inference rule", "when", "then")
		then, ok := scalars(lookup(c, "then"))
		if !ok {
			b.fail(c, "Rule consequent must be a value or a list of values")
			continue
		}
		decl.Pairs = append(decl.Pairs, ast.InferencePair{
			Antecedent: b.buildAssignments(lookup(c, "when"), "rule antecedent"),
			Consequent: then,
			Location:   b.loc(c),
		})
	}
	return decl
}

// buildAssignments decodes a mapping of slot references to literals.
func (b *builder) buildAssignments(n *yaml.Node, what string) []ast.Assignment {
	if isNull(n) || !b.expect(n, yaml.MappingNode, what) {
		return nil
	}
	out := make([]ast.Assignment, 0, len(n.Content)/2)
	for _, p := range pairs(n) {
		values, ok := scalars(p.value)
		if !ok {
			b.fail(p.value, "Value of %q must be a literal or a list of literals", p.key.Value)
			continue
		}
		path := slotPath(p.key.Value)
		if len(path) == 0 {
			b.fail(p.key, "Empty slot reference in %s", what)
			continue
		}
		out = append(out, ast.Assignment{Slot: path, Values: values, Location: b.loc(p.key)})
	}
	return out
}

// buildInstructions decodes a list of instructions.
func (b *builder) buildInstructions(n *yaml.Node, what string, depth int) []ast.Instruction {
	if isNull(n) {
		return nil
	}
	if depth > b.maxDepth {
		b.fail(n, "Instructions nested deeper than %d levels", b.maxDepth)
		return nil
	}
	if !b.expect(n, yaml.SequenceNode, what) {
		return nil
	}
	out := make([]ast.Instruction, 0, len(n.Content))
	for _, c := range n.Content {
		if inst := b.buildInstruction(resolveAlias(c), depth); inst != nil {
			out = append(out, inst)
		}
	}
	return out
}

func (b *builder) buildInstruction(n *yaml.Node, depth int) ast.Instruction {
	// Bare scalars are shorthand for instructions without arguments.
	if isScalar(n) {
		head := ast.Head{Location: b.loc(n)}
		switch strings.ToLower(n.Value) {
		case "end":
			return &ast.EndRef{Head: head}
		case "continue":
			return &ast.ContinueRef{Head: head}
		}
		b.unknownInstruction(n, n.Value)
		return nil
	}
	if !b.expect(n, yaml.MappingNode, "instruction") {
		return nil
	}

	head := ast.Head{Location: b.loc(n)}
	var kind *mappingPair
	for _, p := range pairs(n) {
		switch {
		case p.key.Value == "id":
			head.ID = b.scalar(p.value, "instruction id")
		case contains(instructionKinds, p.key.Value):
			if kind != nil {
				b.fail(p.key, "Instruction has both %q and %q", kind.key.Value, p.key.Value)
				return nil
			}
			pp := p
			kind = &pp
		default:
			b.unknownInstruction(p.key, p.key.Value)
			return nil
		}
	}
	if kind == nil {
		b.fail(n, "Instruction has no kind; expected one of %s", strings.Join(instructionKinds, ", "))
		return nil
	}

	body := kind.value
	switch kind.key.Value {
	case "ask":
		return b.buildAsk(head, body, depth)
	case "consider":
		return b.buildConsider(head, body, depth)
	case "set":
		set := &ast.SetRef{Head: head, Assignments: b.buildAssignments(body, "set")}
		if len(set.Assignments) == 0 {
			b.fail(n, "Set instruction assigns nothing")
		}
		return set
	case "section":
		title, insts := b.buildBlock(body, "section", depth)
		return &ast.SectionRef{Head: head, Title: title, Body: insts}
	case "part":
		title, insts := b.buildBlock(body, "part", depth)
		return &ast.PartRef{Head: head, Title: title, Body: insts}
	case "call":
		callee := b.scalar(body, "call target")
		if callee == "" {
			b.fail(n, "Call instruction has no target")
			return nil
		}
		return &ast.CallRef{Head: head, CalleeID: callee}
	case "todo":
		return &ast.ToDoRef{Head: head, Text: b.scalar(body, "todo text")}
	case "reject":
		return &ast.RejectRef{Head: head, Reason: b.scalar(body, "reject reason")}
	case "end":
		if !isNull(body) {
			b.fail(body, "End takes no arguments")
		}
		return &ast.EndRef{Head: head}
	case "continue":
		if !isNull(body) {
			b.fail(body, "Continue takes no arguments")
		}
		return &ast.ContinueRef{Head: head}
	}
	return nil
}

func (b *builder) unknownInstruction(n *yaml.Node, name string) {
	b.failWithSuggestion(n, pmlErrors.SuggestName(name, instructionKinds), "Unknown instruction %q", name)
}

// buildBlock decodes the {title, do} body shared by sections and parts.
func (b *builder) buildBlock(n *yaml.Node, what string, depth int) (string, []ast.Instruction) {
	if n != nil && n.Kind == yaml.SequenceNode {
		return "", b.buildInstructions(n, what, depth+1)
	}
	if isNull(n) || !b.expect(n, yaml.MappingNode, what) {
		return "", nil
	}
	b.checkKeys(n, what, "title", "do")
	return b.scalar(lookup(n, "title"), what+" title"), b.buildInstructions(lookup(n, "do"), what+" body", depth+1)
}

func (b *builder) buildAsk(head ast.Head, n *yaml.Node, depth int) ast.Instruction {
	if !b.expect(n, yaml.MappingNode, "ask") {
		return nil
	}
	b.checkKeys(n, "ask", "text", "terms", "answers")

	ask := &ast.AskRef{Head: head}
	if t := lookup(n, "text"); t != nil {
		ask.Text = &ast.TextRef{Head: ast.Head{Location: b.loc(t)}, Text: b.scalar(t, "question text")}
	} else {
		b.fail(n, "Question has no text")
	}

	if terms := lookup(n, "terms"); !isNull(terms) && b.expect(terms, yaml.SequenceNode, "terms") {
		for _, c := range terms.Content {
			c = resolveAlias(c)
			if !b.expect(c, yaml.MappingNode, "term") {
				continue
			}
			b.checkKeys(c, "term", "term", "explanation")
			ask.Terms = append(ask.Terms, &ast.TermRef{
				Head:        ast.Head{Location: b.loc(c)},
				Term:        b.scalar(lookup(c, "term"), "term"),
				Explanation: b.scalar(lookup(c, "explanation"), "term explanation"),
			})
		}
	}

	// A question without answers is a yes/no question; the compiler adds both.
	answers := lookup(n, "answers")
	if isNull(answers) || !b.expect(answers, yaml.SequenceNode, "answers") {
		return ask
	}
	for _, c := range answers.Content {
		c = resolveAlias(c)
		if !b.expect(c, yaml.MappingNode, "answer") {
			continue
		}
		b.checkKeys(c, "answer", "answer", "id", "do")
		ans := &ast.AnswerRef{
			Head: ast.Head{ID: b.scalar(lookup(c, "id"), "answer id"), Location: b.loc(c)},
			Text: b.scalar(lookup(c, "answer"), "answer text"),
			Body: b.buildInstructions(lookup(c, "do"), "answer body", depth+1),
		}
		if ans.Text == "" {
			b.fail(c, "Answer has no text")
			continue
		}
		ask.Answers = append(ask.Answers, ans)
	}
	return ask
}

func (b *builder) buildConsider(head ast.Head, n *yaml.Node, depth int) ast.Instruction {
	if !b.expect(n, yaml.MappingNode, "consider") {
		return nil
	}
	b.checkKeys(n, "consider", "options", "else")

	consider := &ast.ConsiderRef{Head: head}
	options := lookup(n, "options")
	if !isNull(options) && b.expect(options, yaml.SequenceNode, "consider options") {
		for _, c := range options.Content {
			c = resolveAlias(c)
			if !b.expect(c, yaml.MappingNode, "consider option") {
				continue
			}
			b.checkKeys(c, "consider option", "when", "id", "do")
			opt := &ast.ConsiderOptionRef{
				Head:        ast.Head{ID: b.scalar(lookup(c, "id"), "option id"), Location: b.loc(c)},
				Assignments: b.buildAssignments(lookup(c, "when"), "consider option"),
				Body:        b.buildInstructions(lookup(c, "do"), "option body", depth+1),
			}
			if len(opt.Assignments) == 0 {
				b.fail(c, "Consider option has no condition")
				continue
			}
			consider.Options = append(consider.Options, opt)
		}
	}
	if len(consider.Options) == 0 {
		b.fail(n, "Consider has no options")
	}

	if e := lookup(n, "else"); e != nil {
		consider.Else = &ast.ElseRef{
			Head: ast.Head{Location: b.loc(e)},
			Body: b.buildInstructions(e, "else body", depth+1),
		}
	}
	return consider
}
