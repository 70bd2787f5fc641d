// Package model bundles a compiled policy model: its policy space, decision
// graph, value inferrers, and metadata. A Model is immutable once built and
// may be shared by any number of evaluators and queries.
package model

import (
	"errors"
	"fmt"

	"github.com/ofirbed/DataTaggingLibrary/pkg/decisiongraph"
	"github.com/ofirbed/DataTaggingLibrary/pkg/policyspace"
)

// Metadata describes a model.
type Metadata struct {
	Title     string   `json:"title" yaml:"title"`
	Subtitle  string   `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Version   string   `json:"version" yaml:"version"`
	Source    string   `json:"source" yaml:"source"`
	Authors   []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Keywords  []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Languages []string `json:"languages,omitempty" yaml:"languages,omitempty"`
}

// Model is a compiled policy model.
type Model struct {
	meta      Metadata
	space     *policyspace.Space
	graph     *decisiongraph.Graph
	inferrers Inferrers
}

// New assembles a model. Every inferrer must target a slot of space.
func New(meta Metadata, space *policyspace.Space, graph *decisiongraph.Graph, inferrers Inferrers) (*Model, error) {
	if space == nil {
		return nil, errors.New("model has no policy space")
	}
	if graph == nil {
		return nil, errors.New("model has no decision graph")
	}
	for _, inf := range inferrers {
		if inf == nil || inf.Slot == nil {
			return nil, errors.New("inferrer has no target slot")
		}
		if policyspace.TypePath(inf.Slot)[0] != policyspace.Slot(space.Root()) {
			return nil, fmt.Errorf("inferrer targets %v, which is outside the model's space", inf.Slot.Path())
		}
	}
	return &Model{
		meta:      meta,
		space:     space,
		graph:     graph,
		inferrers: append(Inferrers(nil), inferrers...),
	}, nil
}

func (m *Model) Metadata() Metadata          { return m.meta }
func (m *Model) Version() string             { return m.meta.Version }
func (m *Model) Source() string              { return m.meta.Source }
func (m *Model) Space() *policyspace.Space   { return m.space }
func (m *Model) Graph() *decisiongraph.Graph { return m.graph }
func (m *Model) Inferrers() Inferrers        { return append(Inferrers(nil), m.inferrers...) }

// Infer runs the model's inferrers on v until nothing changes. It returns
// the inferred value and the number of rounds that changed it.
func (m *Model) Infer(v *policyspace.CompoundValue) (*policyspace.CompoundValue, int, error) {
	return m.inferrers.Apply(v, m.RoundLimit())
}

// RoundLimit is the maximum number of productive inference rounds. Every
// productive round raises the value strictly, so the space's height bounds
// it.
func (m *Model) RoundLimit() int { return m.space.Height() + 1 }
