package parser

import (
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// parseYAMLBytes parses a single YAML document and returns its root node.
// Node positions are kept for error reporting.
func parseYAMLBytes(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("document is empty")
	}
	return resolveAlias(doc.Content[0]), nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// mappingPair is one key/value entry of a mapping node.
type mappingPair struct {
	key   *yaml.Node
	value *yaml.Node
}

// pairs returns the entries of a mapping node in document order.
func pairs(n *yaml.Node) []mappingPair {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]mappingPair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, mappingPair{key: n.Content[i], value: resolveAlias(n.Content[i+1])})
	}
	return out
}

// lookup returns the value stored under key in a mapping node.
func lookup(n *yaml.Node, key string) *yaml.Node {
	for _, p := range pairs(n) {
		if p.key.Value == key {
			return p.value
		}
	}
	return nil
}

func isScalar(n *yaml.Node) bool { return n != nil && n.Kind == yaml.ScalarNode }

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

// scalars returns the scalar values of a scalar or a sequence of scalars.
func scalars(n *yaml.Node) ([]string, bool) {
	switch {
	case isNull(n):
		return nil, true
	case isScalar(n):
		return []string{n.Value}, true
	case n.Kind == yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			c = resolveAlias(c)
			if !isScalar(c) {
				return nil, false
			}
			out = append(out, c.Value)
		}
		return out, true
	}
	return nil, false
}

// slotPath splits a slot reference such as "Top/Sub/A" into its segments.
func slotPath(s string) []string {
	parts := strings.Split(s, "/")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
