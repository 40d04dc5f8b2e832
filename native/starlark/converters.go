package starlark

import (
	"fmt"
	"math"

	starlarkLib "go.starlark.net/starlark"
)

// maxExactInt is the largest integer a float64 holds exactly.
const maxExactInt = 1 << 53

// toStarlark converts a native function argument. Jsonnet has a single number type, so
// integral numbers become Starlark ints, which range() and indexing require.
func toStarlark(v any) (starlarkLib.Value, error) {
	switch val := v.(type) {
	case nil:
		return starlarkLib.None, nil
	case bool:
		return starlarkLib.Bool(val), nil
	case string:
		return starlarkLib.String(val), nil
	case float64:
		if val == math.Trunc(val) && math.Abs(val) <= maxExactInt {
			return starlarkLib.MakeInt64(int64(val)), nil
		}
		return starlarkLib.Float(val), nil
	default:
		return nil, fmt.Errorf("unsupported argument type %T", v)
	}
}

// fromStarlark converts a function result into a value the session can hand to the engine.
func fromStarlark(v starlarkLib.Value) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch v := v.(type) {
	case starlarkLib.NoneType:
		return nil, nil
	case starlarkLib.Bool:
		return bool(v), nil
	case starlarkLib.Int:
		if i, ok := v.Int64(); ok {
			return i, nil
		}
		return float64(v.Float()), nil
	case starlarkLib.Float:
		return float64(v), nil
	case starlarkLib.String:
		return string(v), nil
	case *starlarkLib.List:
		return fromIterable(v, v.Len())
	case starlarkLib.Tuple:
		return fromIterable(v, v.Len())
	case *starlarkLib.Dict:
		dict := make(map[string]any, v.Len())
		for _, item := range v.Items() {
			k, val := item[0], item[1]
			key, ok := k.(starlarkLib.String)
			if !ok {
				key = starlarkLib.String(k.String())
			}
			converted, err := fromStarlark(val)
			if err != nil {
				return nil, fmt.Errorf("failed to convert dict value for key %s: %w", key, err)
			}
			dict[string(key)] = converted
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported Starlark type %s", v.Type())
	}
}

func fromIterable(v starlarkLib.Indexable, n int) ([]any, error) {
	list := make([]any, 0, n)
	for i := 0; i < n; i++ {
		elem, err := fromStarlark(v.Index(i))
		if err != nil {
			return nil, fmt.Errorf("failed to convert element %d: %w", i, err)
		}
		list = append(list, elem)
	}
	return list, nil
}
