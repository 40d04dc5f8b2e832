package vm

/*
#include <stdint.h>
#include <libjsonnet.h>
*/
import "C"

import (
	"fmt"
	"runtime/cgo"
	"strings"
	"unsafe"

	"github.com/robbyt/go-jsonnetvm/internal/value"
)

// The exported functions below run on the engine's call stack. A panic must not unwind
// through C frames, so each one recovers and reports the panic as an ordinary callback
// failure. The handle is resolved before the recover is installed: it was created by the
// owning Session and stays valid until Close, which cannot run during an evaluation.

//export jsonnetGoImport
func jsonnetGoImport(
	handle C.uintptr_t,
	base, rel *C.char,
	foundHere **C.char,
	success *C.int,
) (result *C.char) {
	reg := cgo.Handle(handle).Value().(*importRegistration)
	s := reg.session
	ctx := s.callbackContext()
	baseDir, relPath := C.GoString(base), C.GoString(rel)
	logger := s.logger.WithGroup("importCallback").With("baseDir", baseDir, "rel", relPath)

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "recovered panic in import resolver", "panic", r)
			*success = 0
			result = allocString(s.vm, fmt.Sprintf("import resolver panicked: %v", r))
		}
	}()

	logger.DebugContext(ctx, "resolving import")
	content, here, err := reg.resolver.Import(ctx, baseDir, relPath)
	if err == nil {
		err = checkImport(content, here)
	}
	if err != nil {
		logger.WarnContext(ctx, "import failed", "error", err)
		*success = 0
		return allocString(s.vm, cMessage(err.Error()))
	}

	*foundHere = allocString(s.vm, here)
	*success = 1
	return allocString(s.vm, content)
}

// checkImport rejects resolver output the engine would read only up to a NUL byte.
func checkImport(content, here string) error {
	if strings.IndexByte(content, 0) >= 0 {
		return fmt.Errorf("imported content %w", errNULByte)
	}
	if strings.IndexByte(here, 0) >= 0 {
		return fmt.Errorf("resolved path %w", errNULByte)
	}
	return nil
}

//export jsonnetGoNative
func jsonnetGoNative(
	handle C.uintptr_t,
	argv **C.struct_JsonnetJsonValue,
	success *C.int,
) (result *C.struct_JsonnetJsonValue) {
	reg := cgo.Handle(handle).Value().(*nativeRegistration)
	s := reg.session
	ctx := s.callbackContext()
	logger := s.logger.WithGroup("nativeCallback").With("name", reg.name)
	b := jsonBuilder{vm: s.vm}

	// The engine reads a failed call's result as the error message.
	fail := func(err error) *C.struct_JsonnetJsonValue {
		*success = 0
		return b.MakeString(cMessage(err.Error()))
	}

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "recovered panic in native function", "panic", r)
			result = fail(fmt.Errorf("native function %q panicked: %v", reg.name, r))
		}
	}()

	args, err := readArgs(s.vm, argv, len(reg.params))
	if err != nil {
		logger.WarnContext(ctx, "failed to read arguments", "error", err)
		return fail(err)
	}
	logger.DebugContext(ctx, "calling native function", "args", args)

	out, err := reg.fn(ctx, args)
	if err != nil {
		logger.WarnContext(ctx, "native function failed", "error", err)
		return fail(err)
	}

	v, err := value.Build[*C.struct_JsonnetJsonValue](b, out)
	if err != nil {
		logger.WarnContext(ctx, "failed to convert result", "error", err)
		return fail(fmt.Errorf("native function %q returned an %w", reg.name, err))
	}
	*success = 1
	return v
}

// readArgs reads exactly n arguments. The engine guarantees argv holds one value per declared
// parameter, so a NULL entry inside that range is reported instead of dereferenced.
func readArgs(vm *cVM, argv **C.struct_JsonnetJsonValue, n int) ([]any, error) {
	if n == 0 {
		return []any{}, nil
	}
	if argv == nil {
		return nil, fmt.Errorf("%w: argument vector is NULL", ErrProtocolViolation)
	}
	handles := unsafe.Slice(argv, n)
	for i, h := range handles {
		if h == nil {
			return nil, fmt.Errorf("%w: argument %d is NULL", ErrProtocolViolation, i)
		}
	}
	return value.ReadArgs[*C.struct_JsonnetJsonValue](jsonReader{vm: vm}, handles)
}
