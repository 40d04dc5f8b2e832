// Package value converts between Go values and the engine's JSON value model.
//
// The dispatch is written once against the Builder and Reader interfaces so the same
// priority rules serve the native engine (vm package) and the text encoder used for
// external variable bindings.
//
// Host-to-engine priority, first match wins:
//
//  1. absent: nil, nil pointer, nil interface, nil map, nil slice
//  2. textual: string kinds
//  3. boolean
//  4. numeric: integer, unsigned and float kinds, json.Number
//  5. ordered mapping: yaml.MapSlice (insertion order), maps keyed by strings (sorted keys)
//  6. sequence: slices and arrays
//  7. record: structs, exported fields in declaration order
//
// Anything else fails with an *UnsupportedTypeError. The mapping case is checked before the
// sequence case because yaml.MapSlice is itself a slice. A map, slice or pointer that contains
// itself fails with a *CycleError.
package value

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// Builder creates engine values. Appending transfers ownership of the child to the parent;
// Destroy releases a value and everything appended to it.
type Builder[H any] interface {
	MakeNull() H
	MakeString(s string) H
	MakeNumber(f float64) H
	MakeBool(b bool) H
	MakeArray() H
	ArrayAppend(arr H, v H)
	MakeObject() H
	ObjectAppend(obj H, key string, v H)
	Destroy(v H)
}

// StringValidator is implemented by builders that cannot hold every Go string. Build calls
// ValidateString for each string value and object key before handing it to the builder.
type StringValidator interface {
	ValidateString(s string) error
}

var (
	jsonNumberType = reflect.TypeFor[json.Number]()
	mapSliceType   = reflect.TypeFor[yaml.MapSlice]()
)

// Build converts v into an engine value. On error nothing built along the way is left alive.
func Build[H any](b Builder[H], v any) (H, error) {
	return build(b, reflect.ValueOf(v), "", ancestors{})
}

// visit identifies a reference on the current conversion path. Slices also key on length so
// a sub-slice sharing its parent's backing array is not mistaken for the parent.
type visit struct {
	ptr uintptr
	typ reflect.Type
	n   int
}

// ancestors holds the references between the root and the value being converted.
type ancestors map[visit]struct{}

func (a ancestors) enter(rv reflect.Value, path string) (func(), error) {
	k := visit{ptr: rv.Pointer(), typ: rv.Type()}
	if rv.Kind() == reflect.Slice {
		k.n = rv.Len()
	}
	if _, ok := a[k]; ok {
		return nil, &CycleError{Type: rv.Type(), Path: path}
	}
	a[k] = struct{}{}
	return func() { delete(a, k) }, nil
}

func build[H any](b Builder[H], rv reflect.Value, path string, seen ancestors) (H, error) {
	var zero H

	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return b.MakeNull(), nil
		}
		if rv.Kind() == reflect.Pointer {
			leave, err := seen.enter(rv, path)
			if err != nil {
				return zero, err
			}
			defer leave()
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return b.MakeNull(), nil
	}

	if rv.Type() == jsonNumberType {
		f, err := strconv.ParseFloat(rv.String(), 64)
		if err != nil {
			return zero, fmt.Errorf("invalid json.Number %q at %s: %w", rv.String(), pathOrRoot(path), err)
		}
		return b.MakeNumber(f), nil
	}

	switch rv.Kind() {
	case reflect.String:
		if err := validateString(b, rv.String(), path); err != nil {
			return zero, err
		}
		return b.MakeString(rv.String()), nil
	case reflect.Bool:
		return b.MakeBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return b.MakeNumber(float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return b.MakeNumber(float64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return b.MakeNumber(rv.Float()), nil
	}

	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return b.MakeNull(), nil
		}
		if rv.Len() > 0 {
			leave, err := seen.enter(rv, path)
			if err != nil {
				return zero, err
			}
			defer leave()
		}
	}

	if rv.Type() == mapSliceType {
		return buildMapSlice(b, rv, path, seen)
	}

	switch rv.Kind() {
	case reflect.Map:
		return buildMap(b, rv, path, seen)
	case reflect.Slice, reflect.Array:
		return buildSequence(b, rv, path, seen)
	case reflect.Struct:
		return buildStruct(b, rv, path, seen)
	}

	return zero, &UnsupportedTypeError{Type: rv.Type(), Path: path}
}

func buildSequence[H any](b Builder[H], rv reflect.Value, path string, seen ancestors) (H, error) {
	arr := b.MakeArray()
	for i := 0; i < rv.Len(); i++ {
		elem, err := build(b, rv.Index(i), fmt.Sprintf("%s[%d]", path, i), seen)
		if err != nil {
			b.Destroy(arr)
			var zero H
			return zero, err
		}
		b.ArrayAppend(arr, elem)
	}
	return arr, nil
}

func buildMapSlice[H any](b Builder[H], rv reflect.Value, path string, seen ancestors) (H, error) {
	var zero H
	obj := b.MakeObject()
	for i := 0; i < rv.Len(); i++ {
		// yaml.MapItem{Key, Value}
		item := rv.Index(i)
		key, ok := mapKey(item.Field(0))
		if !ok {
			b.Destroy(obj)
			return zero, &UnsupportedTypeError{Type: item.Field(0).Type(), Path: fmt.Sprintf("%s{%d}", path, i)}
		}
		if err := appendField(b, obj, key, item.Field(1), path, seen); err != nil {
			b.Destroy(obj)
			return zero, err
		}
	}
	return obj, nil
}

func buildMap[H any](b Builder[H], rv reflect.Value, path string, seen ancestors) (H, error) {
	var zero H

	keys := make([]string, 0, rv.Len())
	values := make(map[string]reflect.Value, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key, ok := mapKey(iter.Key())
		if !ok {
			return zero, &UnsupportedTypeError{Type: rv.Type(), Path: path}
		}
		keys = append(keys, key)
		values[key] = iter.Value()
	}
	sort.Strings(keys)

	obj := b.MakeObject()
	for _, key := range keys {
		if err := appendField(b, obj, key, values[key], path, seen); err != nil {
			b.Destroy(obj)
			return zero, err
		}
	}
	return obj, nil
}

func mapKey(k reflect.Value) (string, bool) {
	if k.Kind() == reflect.Interface {
		if k.IsNil() {
			return "", false
		}
		k = k.Elem()
	}
	if k.Kind() != reflect.String {
		return "", false
	}
	return k.String(), true
}

func buildStruct[H any](b Builder[H], rv reflect.Value, path string, seen ancestors) (H, error) {
	obj := b.MakeObject()
	if err := appendStructFields(b, obj, rv, path, seen); err != nil {
		b.Destroy(obj)
		var zero H
		return zero, err
	}
	return obj, nil
}

func appendStructFields[H any](b Builder[H], obj H, rv reflect.Value, path string, seen ancestors) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		name, omitEmpty, skip := fieldName(field)
		if skip {
			continue
		}
		fv := rv.Field(i)

		if field.Anonymous && name == "" {
			if err := appendEmbedded(b, obj, fv, path, seen); !errors.Is(err, errNotEmbeddedStruct) {
				if err != nil {
					return err
				}
				continue
			}
		}
		if !field.IsExported() {
			continue
		}
		if name == "" {
			name = field.Name
		}
		if omitEmpty && fv.IsZero() {
			continue
		}
		if err := appendField(b, obj, name, fv, path, seen); err != nil {
			return err
		}
	}
	return nil
}

// fieldName reads the json struct tag. An empty name means "use the Go field name".
func fieldName(field reflect.StructField) (name string, omitEmpty bool, skip bool) {
	tag, ok := field.Tag.Lookup("json")
	if !ok {
		return "", false, false
	}
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	for _, opt := range strings.Split(opts, ",") {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

func appendField[H any](b Builder[H], obj H, key string, rv reflect.Value, path string, seen ancestors) error {
	if err := validateString(b, key, path+"."+key); err != nil {
		return err
	}
	child, err := build(b, rv, path+"."+key, seen)
	if err != nil {
		return err
	}
	b.ObjectAppend(obj, key, child)
	return nil
}

// errNotEmbeddedStruct tells appendStructFields to treat an anonymous field as a named one.
var errNotEmbeddedStruct = errors.New("not an embedded struct")

// appendEmbedded flattens an embedded struct, or pointer to one, into obj.
func appendEmbedded[H any](b Builder[H], obj H, fv reflect.Value, path string, seen ancestors) error {
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return nil
		}
		leave, err := seen.enter(fv, path)
		if err != nil {
			return err
		}
		defer leave()
		fv = fv.Elem()
	}
	if fv.Kind() != reflect.Struct {
		return errNotEmbeddedStruct
	}
	return appendStructFields(b, obj, fv, path, seen)
}

func validateString[H any](b Builder[H], s, path string) error {
	v, ok := b.(StringValidator)
	if !ok {
		return nil
	}
	if err := v.ValidateString(s); err != nil {
		return &InvalidStringError{Path: path, Err: err}
	}
	return nil
}

func pathOrRoot(path string) string {
	if path == "" {
		return "<root>"
	}
	return path
}
