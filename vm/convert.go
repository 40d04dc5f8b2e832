package vm

/*
#include <stdlib.h>
#include <libjsonnet.h>
*/
import "C"

import (
	"strings"
	"unsafe"
)

// jsonBuilder creates engine JSON values for value.Build.
type jsonBuilder struct {
	vm *cVM
}

// ValidateString rejects strings that C.CString would truncate.
func (b jsonBuilder) ValidateString(s string) error {
	if strings.IndexByte(s, 0) >= 0 {
		return errNULByte
	}
	return nil
}

func (b jsonBuilder) MakeNull() *cJSONValue {
	return C.jsonnet_json_make_null(b.vm)
}

func (b jsonBuilder) MakeString(s string) *cJSONValue {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	return C.jsonnet_json_make_string(b.vm, cs)
}

func (b jsonBuilder) MakeNumber(f float64) *cJSONValue {
	return C.jsonnet_json_make_number(b.vm, C.double(f))
}

func (b jsonBuilder) MakeBool(v bool) *cJSONValue {
	return C.jsonnet_json_make_bool(b.vm, cBool(v))
}

func (b jsonBuilder) MakeArray() *cJSONValue {
	return C.jsonnet_json_make_array(b.vm)
}

func (b jsonBuilder) ArrayAppend(arr, v *cJSONValue) {
	C.jsonnet_json_array_append(b.vm, arr, v)
}

func (b jsonBuilder) MakeObject() *cJSONValue {
	return C.jsonnet_json_make_object(b.vm)
}

func (b jsonBuilder) ObjectAppend(obj *cJSONValue, key string, v *cJSONValue) {
	ck := C.CString(key)
	defer C.free(unsafe.Pointer(ck))
	C.jsonnet_json_object_append(b.vm, obj, ck, v)
}

func (b jsonBuilder) Destroy(v *cJSONValue) {
	C.jsonnet_json_destroy(b.vm, v)
}

// jsonReader inspects the arguments the engine passes to native functions.
type jsonReader struct {
	vm *cVM
}

func (r jsonReader) IsNull(v *cJSONValue) bool {
	return C.jsonnet_json_extract_null(r.vm, v) != 0
}

func (r jsonReader) String(v *cJSONValue) (string, bool) {
	s := C.jsonnet_json_extract_string(r.vm, v)
	if s == nil {
		return "", false
	}
	return C.GoString(s), true
}

func (r jsonReader) Number(v *cJSONValue) (float64, bool) {
	var out C.double
	if C.jsonnet_json_extract_number(r.vm, v, &out) == 0 {
		return 0, false
	}
	return float64(out), true
}

// Bool relies on the engine returning 2 for non-boolean values.
func (r jsonReader) Bool(v *cJSONValue) (bool, bool) {
	switch C.jsonnet_json_extract_bool(r.vm, v) {
	case 0:
		return false, true
	case 1:
		return true, true
	default:
		return false, false
	}
}
