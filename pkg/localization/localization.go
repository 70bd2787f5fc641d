package localization

import (
	"sort"
	"strings"

	"github.com/ofirbed/DataTaggingLibrary/pkg/decisiongraph"
	"github.com/ofirbed/DataTaggingLibrary/pkg/model"
	"github.com/ofirbed/DataTaggingLibrary/pkg/policyspace"
)

// Kind identifies what an entry localizes.
type Kind string

const (
	KindAsk     Kind = "ask"
	KindSection Kind = "section"
	KindReject  Kind = "reject"
	KindToDo    Kind = "todo"
	KindAnswer  Kind = "answer"
	KindSlot    Kind = "slot"
	KindValue   Kind = "value"
)

// Entry is one localizable text. ID is a node id, an answer text, or a
// slash-separated slot or value path, depending on Kind.
type Entry struct {
	ID   string `json:"id" yaml:"id"`
	Kind Kind   `json:"kind" yaml:"kind"`
	Text string `json:"text" yaml:"text"`
}

// Bundle is the localizable content of one model.
type Bundle struct {
	Title    string  `json:"title" yaml:"title"`
	Subtitle string  `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Version  string  `json:"version" yaml:"version"`
	Nodes    []Entry `json:"nodes" yaml:"nodes"`
	Answers  []Entry `json:"answers" yaml:"answers"`
	Space    []Entry `json:"space" yaml:"space"`
}

// Entries returns every entry of the bundle: nodes, then answers, then the
// policy space.
func (b *Bundle) Entries() []Entry {
	out := make([]Entry, 0, len(b.Nodes)+len(b.Answers)+len(b.Space))
	out = append(out, b.Nodes...)
	out = append(out, b.Answers...)
	return append(out, b.Space...)
}

// Readme returns the markdown header of a localization directory.
func (b *Bundle) Readme() string {
	var sb strings.Builder
	sb.WriteString("# " + b.Title + "\n")
	if strings.TrimSpace(b.Subtitle) != "" {
		sb.WriteString("### " + b.Subtitle + "\n")
	}
	sb.WriteString("\n__Version " + b.Version + "__\n")
	return sb.String()
}

// Export collects the localizable content of m.
func Export(m *model.Model) *Bundle {
	meta := m.Metadata()
	return &Bundle{
		Title:    meta.Title,
		Subtitle: meta.Subtitle,
		Version:  meta.Version,
		Nodes:    nodeEntries(m.Graph()),
		Answers:  answerEntries(m.Graph()),
		Space:    spaceEntries(m.Space().Root()),
	}
}

func nodeEntries(g *decisiongraph.Graph) []Entry {
	var out []Entry
	for _, n := range g.Nodes() {
		if decisiongraph.IsSynthetic(n.ID()) {
			continue
		}
		switch t := n.(type) {
		case *decisiongraph.AskNode:
			out = append(out, Entry{ID: t.ID(), Kind: KindAsk, Text: askText(t)})
		case *decisiongraph.SectionNode:
			out = append(out, Entry{ID: t.ID(), Kind: KindSection, Text: t.Title()})
		case *decisiongraph.RejectNode:
			out = append(out, Entry{ID: t.ID(), Kind: KindReject, Text: t.Reason()})
		case *decisiongraph.ToDoNode:
			out = append(out, Entry{ID: t.ID(), Kind: KindToDo, Text: t.Text()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// askText renders a question and its terms as markdown.
func askText(n *decisiongraph.AskNode) string {
	terms := n.Terms()
	if len(terms) == 0 {
		return n.Text()
	}
	var sb strings.Builder
	sb.WriteString(n.Text())
	sb.WriteString("\n\n### Terms\n")
	for _, t := range terms {
		sb.WriteString("* *" + t.Term + "*: " + t.Explanation + "\n")
	}
	return sb.String()
}

func answerEntries(g *decisiongraph.Graph) []Entry {
	seen := make(map[string]bool)
	for _, n := range g.Nodes() {
		if ask, ok := n.(*decisiongraph.AskNode); ok {
			for _, a := range ask.Answers() {
				seen[a.Text] = true
			}
		}
	}
	texts := make([]string, 0, len(seen))
	for t := range seen {
		texts = append(texts, t)
	}
	sort.Strings(texts)

	out := make([]Entry, len(texts))
	for i, t := range texts {
		out[i] = Entry{ID: t, Kind: KindAnswer, Text: t}
	}
	return out
}

// spaceEntries lists slots depth first in declaration order, each followed
// by its values. Todo slots have nothing to translate.
func spaceEntries(root *policyspace.CompoundSlot) []Entry {
	var out []Entry
	var visit func(s policyspace.Slot)
	visit = func(s policyspace.Slot) {
		path := strings.Join(s.Path(), "/")
		switch t := s.(type) {
		case *policyspace.CompoundSlot:
			out = append(out, Entry{ID: path, Kind: KindSlot, Text: t.Note()})
			for _, f := range t.Fields() {
				visit(f)
			}
		case *policyspace.AtomicSlot:
			out = append(out, Entry{ID: path, Kind: KindSlot, Text: t.Note()})
			out = append(out, valueEntries(path, t)...)
		case *policyspace.AggregateSlot:
			out = append(out, Entry{ID: path, Kind: KindSlot, Text: t.Note()})
			out = append(out, valueEntries(path, t.Item())...)
		}
	}
	visit(root)
	return out
}

func valueEntries(path string, s *policyspace.AtomicSlot) []Entry {
	values := s.Values()
	out := make([]Entry, len(values))
	for i, v := range values {
		out[i] = Entry{ID: path + "/" + v.Name(), Kind: KindValue, Text: v.Note()}
	}
	return out
}
