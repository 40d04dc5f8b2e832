// Package vm binds the native Jsonnet engine (libjsonnet) through cgo.
//
// A Session owns one engine instance. It forwards configuration to the engine, installs Go
// import resolvers and native functions as engine callbacks, and copies every buffer the
// engine hands back into Go memory before releasing it. Sessions are not safe for concurrent
// use; separate Sessions are independent.
package vm

/*
#cgo LDFLAGS: -ljsonnet
#include <stdint.h>
#include <stdlib.h>
#include <libjsonnet.h>

// Implemented in bridge.c.
void jsonnet_go_install_import(struct JsonnetVm *vm, uintptr_t ctx);
void jsonnet_go_install_native(struct JsonnetVm *vm, char *name, uintptr_t ctx, char **params);
*/
import "C"

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"
)

type (
	cVM        = C.struct_JsonnetVm
	cJSONValue = C.struct_JsonnetJsonValue
)

// Version returns the version string of the linked engine, e.g. "v0.19.1".
func Version() string {
	return C.GoString(C.jsonnet_version())
}

func cBool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

// errNULByte marks a string C would see only up to its first NUL.
var errNULByte = errors.New("contains a NUL byte")

// checkCString rejects a caller-supplied string that cannot cross into C intact.
func checkCString(what, s string) error {
	if strings.IndexByte(s, 0) >= 0 {
		return fmt.Errorf("%w: %s %w", ErrInvalidArgument, what, errNULByte)
	}
	return nil
}

// cMessage escapes NUL bytes in a diagnostic so the engine reports the whole text.
func cMessage(s string) string {
	return strings.ReplaceAll(s, "\x00", `\x00`)
}

// withCString passes s to fn as a temporary C string.
func withCString(s string, fn func(*C.char)) {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	fn(cs)
}
