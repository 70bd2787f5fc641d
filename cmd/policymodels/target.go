package main

import (
	"fmt"
	"strings"

	"github.com/ofirbed/DataTaggingLibrary/pkg/policyspace"
)

// parseTarget builds a query target from Path=value specs. Path may be a
// short slot name or a slash-separated path; aggregate slots take a
// comma-separated list of values.
func parseTarget(space *policyspace.Space, specs []string) (*policyspace.CompoundValue, error) {
	target := space.Empty()
	for _, spec := range specs {
		path, values, ok := strings.Cut(spec, "=")
		path = strings.TrimSpace(path)
		if !ok || path == "" {
			return nil, fmt.Errorf("target %q: expected Path=value", spec)
		}
		var literals []string
		for _, v := range strings.Split(values, ",") {
			if v = strings.TrimSpace(v); v != "" {
				literals = append(literals, v)
			}
		}

		res := space.LookupValues(strings.Split(path, "/"), literals)
		if err := res.Err(); err != nil {
			return nil, fmt.Errorf("target %q: %w", spec, err)
		}
		layered, err := space.Layer(res.Value)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", spec, err)
		}
		if target, err = target.Compose(layered); err != nil {
			return nil, fmt.Errorf("target %q: %w", spec, err)
		}
	}
	return target, nil
}
