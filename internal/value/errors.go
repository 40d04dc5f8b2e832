package value

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrUnsupportedType    = errors.New("unsupported value type")
	ErrUnknownNativeValue = errors.New("unknown native value")
)

// UnsupportedTypeError is returned when a Go value has no JSON representation.
type UnsupportedTypeError struct {
	Type reflect.Type
	// Path locates the offending value inside the converted tree, e.g. "[2].name".
	Path string
}

func (e *UnsupportedTypeError) Error() string {
	typeName := "<nil>"
	if e.Type != nil {
		typeName = e.Type.String()
	}
	if e.Path != "" {
		return fmt.Sprintf("%s %s at %s", ErrUnsupportedType, typeName, e.Path)
	}
	return fmt.Sprintf("%s %s", ErrUnsupportedType, typeName)
}

func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// CycleError is returned when a map, slice or pointer contains itself. It matches
// ErrUnsupportedType because a cyclic value has no JSON representation.
type CycleError struct {
	Type reflect.Type
	// Path locates the repeated reference, e.g. ".self".
	Path string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: cycle through %s at %s", ErrUnsupportedType, e.Type, pathOrRoot(e.Path))
}

func (e *CycleError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// InvalidStringError is returned when the builder cannot hold a string value or object key.
type InvalidStringError struct {
	Path string
	Err  error
}

func (e *InvalidStringError) Error() string {
	return fmt.Sprintf("%s: string at %s: %s", ErrUnsupportedType, pathOrRoot(e.Path), e.Err)
}

func (e *InvalidStringError) Is(target error) bool {
	return target == ErrUnsupportedType
}

func (e *InvalidStringError) Unwrap() error {
	return e.Err
}

// UnknownNativeValueError is returned when an engine value is not one of the scalar kinds
// the engine passes to native functions.
type UnknownNativeValueError struct {
	Index int
}

func (e *UnknownNativeValueError) Error() string {
	if e.Index < 0 {
		return ErrUnknownNativeValue.Error()
	}
	return fmt.Sprintf("%s for argument %d", ErrUnknownNativeValue, e.Index)
}

func (e *UnknownNativeValueError) Is(target error) bool {
	return target == ErrUnknownNativeValue
}
