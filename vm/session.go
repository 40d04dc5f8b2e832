package vm

/*
#include <stdlib.h>
#include <libjsonnet.h>
*/
import "C"

import (
	"context"
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/robbyt/go-jsonnetvm/importer"
	"github.com/robbyt/go-jsonnetvm/internal/value"
	"github.com/robbyt/go-jsonnetvm/native"
)

// Session owns one engine instance and everything registered with it.
type Session struct {
	vm       *cVM
	registry *registry

	closed     bool
	evaluating bool
	// evalCtx is the context of the running evaluation, handed to callbacks.
	evalCtx context.Context

	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates an engine instance with default settings. Release it with Close.
func New(opts ...Option) (*Session, error) {
	s := &Session{registry: newRegistry()}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("error applying option: %w", err)
		}
	}
	s.setupLogger()

	s.vm = C.jsonnet_make()
	if s.vm == nil {
		return nil, fmt.Errorf("failed to create engine instance")
	}
	s.logger.Debug("session created", "engineVersion", Version())
	return s, nil
}

func (s *Session) String() string {
	return "vm.Session"
}

// checkConfigurable guards every operation except evaluation and Close.
func (s *Session) checkConfigurable() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.evaluating {
		return ErrSessionBusy
	}
	return nil
}

func (s *Session) callbackContext() context.Context {
	if s.evalCtx == nil {
		return context.Background()
	}
	return s.evalCtx
}

// SetMaxStack sets the maximum stack depth.
func (s *Session) SetMaxStack(frames uint) error {
	if err := s.checkConfigurable(); err != nil {
		return err
	}
	C.jsonnet_max_stack(s.vm, C.uint(frames))
	return nil
}

// SetGCMinObjects sets the number of objects required before a garbage collection cycle.
func (s *Session) SetGCMinObjects(objects uint) error {
	if err := s.checkConfigurable(); err != nil {
		return err
	}
	C.jsonnet_gc_min_objects(s.vm, C.uint(objects))
	return nil
}

// SetGCGrowthTrigger runs the garbage collector when the heap grows by this factor.
func (s *Session) SetGCGrowthTrigger(growth float64) error {
	if err := s.checkConfigurable(); err != nil {
		return err
	}
	C.jsonnet_gc_growth_trigger(s.vm, C.double(growth))
	return nil
}

// SetMaxTrace sets the number of lines of stack trace in error messages, 0 for all.
func (s *Session) SetMaxTrace(lines uint) error {
	if err := s.checkConfigurable(); err != nil {
		return err
	}
	C.jsonnet_max_trace(s.vm, C.uint(lines))
	return nil
}

// SetLimits applies every non-nil field of l.
func (s *Session) SetLimits(l Limits) error {
	if err := s.checkConfigurable(); err != nil {
		return err
	}
	if l.MaxStack != nil {
		C.jsonnet_max_stack(s.vm, C.uint(*l.MaxStack))
	}
	if l.GCMinObjects != nil {
		C.jsonnet_gc_min_objects(s.vm, C.uint(*l.GCMinObjects))
	}
	if l.GCGrowthTrigger != nil {
		C.jsonnet_gc_growth_trigger(s.vm, C.double(*l.GCGrowthTrigger))
	}
	if l.MaxTrace != nil {
		C.jsonnet_max_trace(s.vm, C.uint(*l.MaxTrace))
	}
	return nil
}

// SetStringOutput makes a top-level string render as raw text instead of JSON.
func (s *Session) SetStringOutput(enabled bool) error {
	if err := s.checkConfigurable(); err != nil {
		return err
	}
	C.jsonnet_string_output(s.vm, cBool(enabled))
	return nil
}

type bindFunc func(vm *cVM, key, val *C.char)

func (s *Session) bind(kind, name, val string, fn bindFunc) error {
	if err := s.checkConfigurable(); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: %s name is empty", ErrInvalidArgument, kind)
	}
	if err := checkCString(kind+" name", name); err != nil {
		return err
	}
	if err := checkCString(kind+" value", val); err != nil {
		return err
	}
	withCString(name, func(cname *C.char) {
		withCString(val, func(cval *C.char) {
			fn(s.vm, cname, cval)
		})
	})
	s.logger.Debug("bound variable", "kind", kind, "name", name)
	return nil
}

// BindExtVar binds std.extVar(name) to a string.
func (s *Session) BindExtVar(name, val string) error {
	return s.bind("ext var", name, val, func(vm *cVM, k, v *C.char) { C.jsonnet_ext_var(vm, k, v) })
}

// BindExtCode binds std.extVar(name) to the result of evaluating code.
func (s *Session) BindExtCode(name, code string) error {
	return s.bind("ext code", name, code, func(vm *cVM, k, v *C.char) { C.jsonnet_ext_code(vm, k, v) })
}

// BindTLAVar binds the top-level function argument name to a string.
func (s *Session) BindTLAVar(name, val string) error {
	return s.bind("tla var", name, val, func(vm *cVM, k, v *C.char) { C.jsonnet_tla_var(vm, k, v) })
}

// BindTLACode binds the top-level function argument name to the result of evaluating code.
func (s *Session) BindTLACode(name, code string) error {
	return s.bind("tla code", name, code, func(vm *cVM, k, v *C.char) { C.jsonnet_tla_code(vm, k, v) })
}

// BindExtValue binds std.extVar(name) to a Go value, converted like a native function result.
func (s *Session) BindExtValue(name string, v any) error {
	code, err := value.Encode(v)
	if err != nil {
		return fmt.Errorf("ext var %q: %w", name, err)
	}
	return s.BindExtCode(name, code)
}

// BindTLAValue binds the top-level argument name to a Go value.
func (s *Session) BindTLAValue(name string, v any) error {
	code, err := value.Encode(v)
	if err != nil {
		return fmt.Errorf("tla %q: %w", name, err)
	}
	return s.BindTLACode(name, code)
}

// AddJPath adds a library search directory for the engine's built-in importer. It has no
// effect once an import resolver is installed.
func (s *Session) AddJPath(dir string) error {
	if err := s.checkConfigurable(); err != nil {
		return err
	}
	if dir == "" {
		return fmt.Errorf("%w: library path is empty", ErrInvalidArgument)
	}
	if err := checkCString("library path", dir); err != nil {
		return err
	}
	withCString(dir, func(cdir *C.char) { C.jsonnet_jpath_add(s.vm, cdir) })
	return nil
}

// SetImportResolver routes every import through r, replacing any previous resolver.
func (s *Session) SetImportResolver(r importer.Resolver) error {
	if err := s.checkConfigurable(); err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("%w: import resolver is nil", ErrInvalidArgument)
	}

	h := s.registry.setImport(&importRegistration{session: s, resolver: r})
	C.jsonnet_go_install_import(s.vm, C.uintptr_t(h))
	s.logger.Debug("import resolver installed", "resolver", fmt.Sprintf("%T", r))
	return nil
}

// RegisterNativeFunction exposes fn to Jsonnet as std.native(name). params names the
// arguments and fixes the arity. Registering a name again replaces the earlier function.
func (s *Session) RegisterNativeFunction(name string, params []string, fn native.Func) error {
	if err := s.checkConfigurable(); err != nil {
		return err
	}
	if err := (native.Function{Name: name, Params: params, Func: fn}).Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	for _, v := range append([]string{name}, params...) {
		if err := checkCString("native function name or parameter", v); err != nil {
			return err
		}
	}

	reg := &nativeRegistration{
		session: s,
		name:    name,
		params:  append([]string(nil), params...),
		fn:      fn,
	}

	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	cparams := make([]*C.char, len(params)+1)
	for i, p := range params {
		cparams[i] = C.CString(p)
	}
	defer func() {
		for _, p := range cparams[:len(params)] {
			C.free(unsafe.Pointer(p))
		}
	}()

	// The engine copies name and params before returning.
	h := s.registry.setNative(reg)
	C.jsonnet_go_install_native(s.vm, cname, C.uintptr_t(h), &cparams[0])
	s.logger.Debug("native function registered", "name", name, "params", params)
	return nil
}

// RegisterNative registers f.
func (s *Session) RegisterNative(f native.Function) error {
	return s.RegisterNativeFunction(f.Name, f.Params, f.Func)
}

// Close destroys the engine and releases every callback registration. It is safe to call
// more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	if s.evaluating {
		return ErrSessionBusy
	}
	C.jsonnet_destroy(s.vm)
	s.vm = nil
	s.closed = true
	s.registry.release()
	s.logger.Debug("session closed")
	return nil
}
