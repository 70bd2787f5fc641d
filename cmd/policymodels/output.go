package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ofirbed/DataTaggingLibrary/pkg/policyspace"
	"github.com/ofirbed/DataTaggingLibrary/pkg/runtime"
)

// RunResult is the state of a run after the scripted answers were applied.
type RunResult struct {
	RunID    string         `json:"run_id" yaml:"run_id"`
	Model    string         `json:"model" yaml:"model"`
	Version  string         `json:"version" yaml:"version"`
	Status   runtime.Status `json:"status" yaml:"status"`
	Question *QuestionView  `json:"question,omitempty" yaml:"question,omitempty"`
	Reason   string         `json:"reason,omitempty" yaml:"reason,omitempty"`
	Value    map[string]any `json:"value" yaml:"value"`
	Steps    int            `json:"steps" yaml:"steps"`
	Saved    bool           `json:"saved,omitempty" yaml:"saved,omitempty"`
}

// QuestionView is the question a suspended run waits on.
type QuestionView struct {
	ID      string   `json:"id" yaml:"id"`
	Text    string   `json:"text" yaml:"text"`
	Answers []string `json:"answers" yaml:"answers"`
}

func newRunResult(ev *runtime.Evaluator) RunResult {
	r := RunResult{
		RunID:   ev.RunID(),
		Model:   ev.Model().Source(),
		Version: ev.Model().Version(),
		Status:  ev.Status(),
		Value:   policyspace.Serialize(ev.Value()),
		Steps:   ev.Steps(),
	}
	if ask, ok := ev.Question(); ok {
		q := &QuestionView{ID: ask.ID(), Text: ask.Text()}
		for _, a := range ask.Answers() {
			q.Answers = append(q.Answers, a.Text)
		}
		r.Question = q
	}
	if out, ok := ev.Outcome(); ok {
		r.Reason = out.Reason
	}
	return r
}

func (r RunResult) Text(w io.Writer) error {
	fmt.Fprintf(w, "Run %s (%s version %s)\n", r.RunID, r.Model, r.Version)
	fmt.Fprintf(w, "Status: %s\n", r.Status)
	if r.Question != nil {
		fmt.Fprintf(w, "\n[%s] %s\n", r.Question.ID, r.Question.Text)
		for _, a := range r.Question.Answers {
			fmt.Fprintf(w, "  - %s\n", a)
		}
	}
	if r.Reason != "" {
		fmt.Fprintf(w, "Reason: %s\n", r.Reason)
	}
	fmt.Fprintln(w, "\nValue:")
	writeValue(w, r.Value, "  ")
	if r.Saved {
		fmt.Fprintf(w, "\n✓ Snapshot saved as %s\n", r.RunID)
	}
	return nil
}

// writeValue prints a serialized value one slot per line, sorted by path.
func writeValue(w io.Writer, value map[string]any, indent string) {
	if len(value) == 0 {
		fmt.Fprintf(w, "%s(empty)\n", indent)
		return
	}
	keys := make([]string, 0, len(value))
	for k := range value {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s%s = %s\n", indent, k, literal(value[k]))
	}
}

func literal(v any) string {
	switch t := v.(type) {
	case []string:
		return "[" + strings.Join(t, ", ") + "]"
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = fmt.Sprint(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprint(v)
}
