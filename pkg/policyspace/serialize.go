package policyspace

import (
	"fmt"
	"sort"
	"strings"
)

// TodoLiteral is the serialized form of a todo value.
const TodoLiteral = "TODO"

// Serialize flattens v into a map from slot path (relative to v's slot,
// joined with "/") to a literal. Atomic and todo values map to a string,
// aggregate values to a []string in item order. Compound values contribute
// their set leaves.
func Serialize(v *CompoundValue) map[string]any {
	out := make(map[string]any)
	serializeInto(out, "", v)
	return out
}

func serializeInto(out map[string]any, prefix string, v *CompoundValue) {
	for name, f := range v.fields {
		k := name
		if prefix != "" {
			k = prefix + "/" + name
		}
		switch x := f.(type) {
		case *AtomicValue:
			out[k] = x.name
		case *AggregateValue:
			names := make([]string, len(x.members))
			for i, m := range x.members {
				names[i] = m.name
			}
			out[k] = names
		case *TodoValue:
			out[k] = TodoLiteral
		case *CompoundValue:
			serializeInto(out, k, x)
		}
	}
}

// Deserialize rebuilds a root value from the output of Serialize. List
// elements may be strings or values decoded from JSON as []any.
func (s *Space) Deserialize(m map[string]any) (*CompoundValue, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	acc := s.Empty()
	for _, k := range keys {
		path := append([]string{s.root.name}, strings.Split(k, "/")...)
		literals, err := literalsOf(m[k])
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", k, err)
		}

		slot, ok := s.index[key(path)]
		if !ok {
			return nil, fmt.Errorf("value %q: no such slot", k)
		}
		var res LookupResult
		switch slot.(type) {
		case *AggregateSlot:
			res = s.LookupValues(path, literals)
		case *AtomicSlot, *TodoSlot:
			if len(literals) != 1 {
				return nil, fmt.Errorf("value %q: expected a single literal", k)
			}
			res = s.LookupValue(path, literals[0])
		default:
			return nil, fmt.Errorf("value %q: %s slot cannot hold a literal", k, slot.Kind())
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		layered, err := s.Layer(res.Value)
		if err != nil {
			return nil, err
		}
		if acc, err = acc.Compose(layered); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func literalsOf(raw any) ([]string, error) {
	switch t := raw.(type) {
	case string:
		return []string{t}, nil
	case []string:
		return t, nil
	case []any:
		out := make([]string, len(t))
		for i, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("list element %v is not a string", e)
			}
			out[i] = s
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported literal %T", raw)
}
