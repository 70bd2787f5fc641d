// Package pml loads policy models: it parses a model file, builds its
// policy space, compiles its inferrers and decision graph, and assembles
// the result into a model.Model.
package pml

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ofirbed/DataTaggingLibrary/pkg/model"
	"github.com/ofirbed/DataTaggingLibrary/pkg/pml/ast"
	"github.com/ofirbed/DataTaggingLibrary/pkg/pml/compiler"
	pmlErrors "github.com/ofirbed/DataTaggingLibrary/pkg/pml/errors"
	"github.com/ofirbed/DataTaggingLibrary/pkg/pml/parser"
)

// Option configures a load.
type Option func(*loader)

type loader struct {
	logger *slog.Logger
	parser *parser.Parser
}

// WithLogger sets the logger passed to the compiler.
func WithLogger(logger *slog.Logger) Option {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithParser replaces the default parser, e.g. to change its size limits.
func WithParser(p *parser.Parser) Option {
	return func(l *loader) {
		if p != nil {
			l.parser = p
		}
	}
}

func newLoader(opts []Option) *loader {
	l := &loader{logger: slog.Default(), parser: parser.NewParser()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load parses and compiles the model file at path.
// Warnings are returned alongside a successfully loaded model.
func Load(path string, opts ...Option) (*model.Model, []*pmlErrors.Error, error) {
	l := newLoader(opts)
	m, err := l.parser.Parse(path)
	if err != nil {
		return nil, nil, err
	}
	src, _ := os.ReadFile(path)
	return l.compile(m, src)
}

// LoadBytes parses and compiles a model held in memory. sourcePath is used
// for error locations and as the model's source.
func LoadBytes(data []byte, sourcePath string, opts ...Option) (*model.Model, []*pmlErrors.Error, error) {
	l := newLoader(opts)
	m, err := l.parser.ParseBytes(data, sourcePath)
	if err != nil {
		return nil, nil, err
	}
	return l.compile(m, data)
}

// Compile turns parser output into a model.
func Compile(m *ast.Model, opts ...Option) (*model.Model, []*pmlErrors.Error, error) {
	return newLoader(opts).compile(m, nil)
}

// Parse parses a model file without compiling it.
// Use this if you want to inspect the references before compilation.
func Parse(path string) (*ast.Model, error) {
	return parser.NewParser().Parse(path)
}

func (l *loader) compile(m *ast.Model, src []byte) (*model.Model, []*pmlErrors.Error, error) {
	if m.Space == nil {
		return nil, nil, &pmlErrors.Error{
			Type:     pmlErrors.ErrorTypeStructural,
			Message:  "Model has no space declaration",
			Location: ast.Location{File: m.SourceFile},
		}
	}

	space, warnings, err := compiler.BuildSpace(m.Space)
	if err != nil {
		return nil, nil, withContext(err, src)
	}

	inferrers, err := compiler.CompileInferrers(space, m.Inferrers)
	if err != nil {
		return nil, nil, withContext(err, src)
	}

	graph, graphWarnings, err := compiler.New(space, compiler.WithLogger(l.logger)).Compile(graphID(m), m.Graph)
	if err != nil {
		return nil, nil, withContext(err, src)
	}
	warnings = append(warnings, graphWarnings...)

	compiled, err := model.New(model.Metadata{
		Title:     m.Metadata.Title,
		Subtitle:  m.Metadata.Subtitle,
		Version:   m.Metadata.Version,
		Source:    m.Metadata.Source,
		Authors:   m.Metadata.Authors,
		Keywords:  m.Metadata.Keywords,
		Languages: m.Metadata.Languages,
	}, space, graph, inferrers)
	if err != nil {
		return nil, nil, err
	}

	l.logger.Debug("loaded policy model",
		"source", m.SourceFile,
		"slots", len(space.Slots()),
		"nodes", graph.Len(),
		"inferrers", len(inferrers),
		"warnings", len(warnings),
	)
	return compiled, warnings, nil
}

// graphID names the graph after the model file, or its title for models
// loaded from memory.
func graphID(m *ast.Model) string {
	if m.SourceFile != "" && !strings.Contains(m.SourceFile, "://") {
		base := filepath.Base(m.SourceFile)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	if m.Metadata.Title != "" {
		return m.Metadata.Title
	}
	return "main"
}

func withContext(err error, src []byte) error {
	var el *pmlErrors.ErrorList
	if len(src) > 0 && errors.As(err, &el) {
		pmlErrors.AddContextToList(el, src)
	}
	return err
}
