package native

import (
	"context"
	"fmt"
	"math"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

// FromFunc turns an ordinary Go function into a Func. The function may take a leading
// context.Context, followed by any number of parameters, and must return either one value
// or a value and an error. Each argument coming from Jsonnet is decoded into the declared
// parameter type with mapstructure, so a whole number passed where an int is expected is
// converted, while a string, a fraction or an out-of-range number fails with ErrArgumentType.
//
// When params is non-empty its length must match the number of non-context parameters.
func FromFunc(fn any, params ...string) (Func, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: function is nil", ErrInvalidFunction)
	}
	if f, ok := fn.(Func); ok {
		return f, nil
	}
	if f, ok := fn.(func(context.Context, []any) (any, error)); ok {
		return f, nil
	}

	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: expected a function, got %T", ErrInvalidFunction, fn)
	}
	if ft.IsVariadic() {
		return nil, fmt.Errorf("%w: variadic functions are not supported", ErrInvalidFunction)
	}

	withCtx := ft.NumIn() > 0 && ft.In(0) == contextType
	first := 0
	if withCtx {
		first = 1
	}
	argTypes := make([]reflect.Type, 0, ft.NumIn()-first)
	for i := first; i < ft.NumIn(); i++ {
		argTypes = append(argTypes, ft.In(i))
	}
	if len(params) > 0 && len(params) != len(argTypes) {
		return nil, fmt.Errorf("%w: %d parameter names for a function taking %d arguments",
			ErrInvalidFunction, len(params), len(argTypes))
	}

	switch {
	case ft.NumOut() == 1 && ft.Out(0) != errorType:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
	default:
		return nil, fmt.Errorf("%w: must return (T) or (T, error), got %s", ErrInvalidFunction, ft)
	}

	return func(ctx context.Context, args []any) (any, error) {
		if len(args) != len(argTypes) {
			return nil, fmt.Errorf("%w: expected %d, got %d", ErrArgumentCount, len(argTypes), len(args))
		}

		in := make([]reflect.Value, 0, ft.NumIn())
		if withCtx {
			in = append(in, reflect.ValueOf(&ctx).Elem())
		}
		for i, arg := range args {
			target, err := decodeArg(arg, argTypes[i])
			if err != nil {
				return nil, fmt.Errorf("%w: argument %d (%s): %w", ErrArgumentType, i, argName(params, i), err)
			}
			in = append(in, target)
		}

		out := fv.Call(in)
		if len(out) == 2 && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		return out[0].Interface(), nil
	}, nil
}

func decodeArg(arg any, t reflect.Type) (reflect.Value, error) {
	ptr := reflect.New(t)
	if arg == nil {
		return ptr.Elem(), nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: exactIntegerHook,
		Result:     ptr.Interface(),
	})
	if err != nil {
		return reflect.Value{}, err
	}
	if err := dec.Decode(arg); err != nil {
		return reflect.Value{}, err
	}
	return ptr.Elem(), nil
}

// exactIntegerHook stops mapstructure from truncating or wrapping a Jsonnet number that an
// integer parameter cannot hold exactly.
func exactIntegerHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.Float32 && from.Kind() != reflect.Float64 {
		return data, nil
	}
	f := reflect.ValueOf(data).Float()

	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("%v is not an integer", f)
		}
		if f < math.MinInt64 || f >= math.MaxInt64 || reflect.Zero(to).OverflowInt(int64(f)) {
			return nil, fmt.Errorf("%v overflows %s", f, to)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("%v is not an integer", f)
		}
		if f < 0 || f >= math.MaxUint64 || reflect.Zero(to).OverflowUint(uint64(f)) {
			return nil, fmt.Errorf("%v overflows %s", f, to)
		}
	}
	return data, nil
}

func argName(params []string, i int) string {
	if i < len(params) {
		return params[i]
	}
	return fmt.Sprintf("#%d", i)
}
