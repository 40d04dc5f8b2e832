package value

// Reader inspects engine values passed as native function arguments. Each accessor reports
// whether the value has that kind.
type Reader[H any] interface {
	IsNull(v H) bool
	String(v H) (string, bool)
	Number(v H) (float64, bool)
	Bool(v H) (bool, bool)
}

// Read converts a scalar engine value to its Go form: nil, string, float64 or bool.
// The engine only passes scalars to native functions, so aggregates are not handled.
func Read[H any](r Reader[H], v H) (any, error) {
	return readAt(r, v, -1)
}

// ReadArgs converts an argument vector, stopping at the first value that cannot be read.
func ReadArgs[H any](r Reader[H], argv []H) ([]any, error) {
	args := make([]any, len(argv))
	for i, v := range argv {
		arg, err := readAt(r, v, i)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return args, nil
}

func readAt[H any](r Reader[H], v H, index int) (any, error) {
	if r.IsNull(v) {
		return nil, nil
	}
	if s, ok := r.String(v); ok {
		return s, nil
	}
	if f, ok := r.Number(v); ok {
		return f, nil
	}
	if b, ok := r.Bool(v); ok {
		return b, nil
	}
	return nil, &UnknownNativeValueError{Index: index}
}
