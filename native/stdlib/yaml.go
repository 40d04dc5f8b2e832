package stdlib

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v2"
)

// parseYaml decodes a YAML document. A stream holding several documents becomes an array.
func parseYaml(str string) (any, error) {
	dec := yaml.NewDecoder(strings.NewReader(str))
	var docs []any
	for {
		var doc any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		docs = append(docs, normalizeYAML(doc))
	}

	switch len(docs) {
	case 0:
		return nil, nil
	case 1:
		return docs[0], nil
	default:
		return docs, nil
	}
}

// normalizeYAML turns the map[interface{}]interface{} values yaml.v2 produces into
// string-keyed maps.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[fmt.Sprint(k)] = normalizeYAML(elem)
		}
		return out
	case []any:
		for i, elem := range val {
			val[i] = normalizeYAML(elem)
		}
		return val
	default:
		return val
	}
}
