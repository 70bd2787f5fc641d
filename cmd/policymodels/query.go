package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/ofirbed/DataTaggingLibrary/pkg/cli"
	"github.com/ofirbed/DataTaggingLibrary/pkg/policyspace"
	"github.com/ofirbed/DataTaggingLibrary/pkg/query"
	"github.com/ofirbed/DataTaggingLibrary/pkg/telemetry/logging"
	"github.com/ofirbed/DataTaggingLibrary/pkg/telemetry/tracing"
)

var queryFlags struct {
	targets    []string
	match      string
	maxDepth   int
	nonMatches bool
	rejections bool
	format     string
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Find every answer path that leads to a value",
	Long: `Explore every path of the decision graph and report the accepted paths
whose final value matches the target.

A target is built from Path=value pairs. Path is a slot name or a
slash-separated slot path; aggregate slots take comma-separated values.
Without a target every accepted path matches.

Match modes:
  contains  the final value holds at least the target's assignments
  at-least  every target slot is assigned a value at least as high

Examples:
  # Paths that end with encrypted storage
  policymodels query --model model.yaml --target Storage=Encrypted

  # Several slots, aggregate values, ordinal matching
  policymodels query --target Handling/Storage=Encrypted --target Tags=audit,hipaa --match at-least

  # Include non-matching and rejected paths, as JSON
  policymodels query --non-matches --rejections --format json`,
	RunE: queryModel,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringArrayVarP(&queryFlags.targets, "target", "t", nil, "target assignment Path=value (repeatable)")
	queryCmd.Flags().StringVar(&queryFlags.match, "match", "", "match mode: contains, at-least (defaults to query.match_mode)")
	queryCmd.Flags().IntVar(&queryFlags.maxDepth, "max-depth", 0, "maximum nodes on a path (defaults to query.max_depth)")
	queryCmd.Flags().BoolVar(&queryFlags.nonMatches, "non-matches", false, "list accepted paths that do not match")
	queryCmd.Flags().BoolVar(&queryFlags.rejections, "rejections", false, "list rejected paths")
	queryCmd.Flags().StringVar(&queryFlags.format, "format", "text", "output format: text, json, yaml")
}

// QueryResult lists the explored paths of a query.
type QueryResult struct {
	Model      string         `json:"model" yaml:"model"`
	Mode       string         `json:"mode" yaml:"mode"`
	Target     map[string]any `json:"target" yaml:"target"`
	Matches    []PathView     `json:"matches" yaml:"matches"`
	NonMatches []PathView     `json:"non_matches,omitempty" yaml:"non_matches,omitempty"`
	Rejections []PathView     `json:"rejections,omitempty" yaml:"rejections,omitempty"`
	Stats      StatsView      `json:"stats" yaml:"stats"`
}

// PathView is one explored path.
type PathView struct {
	Answers []string       `json:"answers" yaml:"answers"`
	Nodes   []string       `json:"nodes" yaml:"nodes"`
	Value   map[string]any `json:"value" yaml:"value"`
	Reason  string         `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// StatsView summarizes a query.
type StatsView struct {
	Visits     int     `json:"visits" yaml:"visits"`
	Matches    int     `json:"matches" yaml:"matches"`
	NonMatches int     `json:"non_matches" yaml:"non_matches"`
	Rejections int     `json:"rejections" yaml:"rejections"`
	MaxDepth   int     `json:"max_depth" yaml:"max_depth"`
	Seconds    float64 `json:"seconds" yaml:"seconds"`
}

func newPathView(t query.Trace) PathView {
	v := PathView{Nodes: t.Nodes, Reason: t.Reason, Answers: make([]string, len(t.Answers))}
	for i, a := range t.Answers {
		v.Answers[i] = a.String()
	}
	if t.Value != nil {
		v.Value = policyspace.Serialize(t.Value)
	}
	return v
}

func queryModel(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(queryFlags.format)
	if err != nil {
		return err
	}
	matchMode := queryFlags.match
	if matchMode == "" {
		matchMode = app.cfg.Query.MatchMode
	}
	mode, err := query.ParseMatchMode(matchMode)
	if err != nil {
		return cli.NewConfigError("--match", err.Error())
	}
	maxDepth := queryFlags.maxDepth
	if maxDepth <= 0 {
		maxDepth = app.cfg.Query.MaxDepth
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()
	if app.cfg.Query.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.cfg.Query.Timeout)
		defer cancel()
	}

	m, _, err := app.loadModel(ctx)
	if err != nil {
		return cli.NewCommandError("query", err)
	}
	target, err := parseTarget(m.Space(), queryFlags.targets)
	if err != nil {
		return cli.NewConfigError("--target", err.Error())
	}

	result := QueryResult{
		Model:   m.Source(),
		Mode:    mode.String(),
		Target:  policyspace.Serialize(target),
		Matches: []PathView{},
	}
	collect := query.ListenerFuncs{
		OnMatchFound: func(_ context.Context, t query.Trace) {
			result.Matches = append(result.Matches, newPathView(t))
		},
		OnNonMatchFound: func(_ context.Context, t query.Trace) {
			if queryFlags.nonMatches {
				result.NonMatches = append(result.NonMatches, newPathView(t))
			}
		},
		OnRejected: func(_ context.Context, t query.Trace) {
			if queryFlags.rejections {
				result.Rejections = append(result.Rejections, newPathView(t))
			}
		},
	}
	listener := app.metrics.QueryListener(m.Source(), mode, tracing.QueryListener(collect))

	engine := query.New(m,
		query.WithLogger(app.logger.Slog()),
		query.WithMaxDepth(maxDepth),
		query.WithMatchMode(mode),
	)

	ctx = logging.WithModel(ctx, m.Source())
	ctx, span := app.tracer.Start(ctx, tracing.SpanQuery, trace.WithAttributes(
		tracing.AttrModelSource.String(m.Source()),
		tracing.AttrModelVersion.String(m.Version()),
		tracing.AttrQueryMode.String(mode.String()),
	))
	ctx = logging.WithTraceID(ctx, tracing.TraceID(ctx))
	stats, err := engine.Run(ctx, target, listener)
	tracing.End(span, err)
	if err != nil {
		app.metrics.RecordQueryError(m.Source())
		return cli.NewCommandError("query", err)
	}

	result.Stats = StatsView{
		Visits:     stats.Visits,
		Matches:    stats.Matches,
		NonMatches: stats.NonMatches,
		Rejections: stats.Rejections,
		MaxDepth:   stats.MaxDepth,
		Seconds:    stats.Duration.Seconds(),
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result)
}

func (r QueryResult) Text(w io.Writer) error {
	fmt.Fprintf(w, "Query %s (%s)\n", r.Model, r.Mode)
	fmt.Fprintln(w, "Target:")
	writeValue(w, r.Target, "  ")

	writePaths(w, "Matches", r.Matches, r.Stats.Matches)
	if r.NonMatches != nil {
		writePaths(w, "Non-matches", r.NonMatches, r.Stats.NonMatches)
	}
	if r.Rejections != nil {
		writePaths(w, "Rejections", r.Rejections, r.Stats.Rejections)
	}

	fmt.Fprintln(w, "\nSummary:")
	_, err := fmt.Fprintf(w, "  %d match(es), %d non-match(es), %d rejection(s), %d visits, max depth %d\n",
		r.Stats.Matches, r.Stats.NonMatches, r.Stats.Rejections, r.Stats.Visits, r.Stats.MaxDepth)
	return err
}

func writePaths(w io.Writer, title string, paths []PathView, total int) {
	fmt.Fprintf(w, "\n%s (%d):\n", title, total)
	for i, p := range paths {
		answers := strings.Join(p.Answers, " > ")
		if answers == "" {
			answers = "(no questions)"
		}
		fmt.Fprintf(w, "  %d. %s\n", i+1, answers)
		if p.Reason != "" {
			fmt.Fprintf(w, "     reason: %s\n", p.Reason)
			continue
		}
		writeValue(w, p.Value, "     ")
	}
}
