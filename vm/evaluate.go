package vm

/*
#include <stdlib.h>
#include <libjsonnet.h>
*/
import "C"

import (
	"context"
	"log/slog"
	"unsafe"
)

// begin marks the session as evaluating and publishes ctx to callbacks. The returned function
// restores the idle state.
func (s *Session) begin(ctx context.Context) (func(), error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.evaluating {
		return nil, ErrSessionBusy
	}
	if ctx == nil {
		ctx = context.Background()
	}
	s.evaluating = true
	s.evalCtx = ctx
	return func() {
		s.evaluating = false
		s.evalCtx = nil
	}, nil
}

// entryPoint is one of the engine's evaluate functions with its inputs already bound.
type entryPoint func(vm *cVM, failed *C.int) *C.char

// run invokes fn and splits the result into output buffer or *EvaluationError.
func (s *Session) run(
	ctx context.Context,
	logger *slog.Logger,
	filename string,
	fn entryPoint,
) (*C.char, error) {
	var failed C.int
	logger.DebugContext(ctx, "evaluating")
	out := fn(s.vm, &failed)
	if failed != 0 {
		msg := takeString(s.vm, out)
		logger.ErrorContext(ctx, "evaluation failed", "error", msg)
		return nil, &EvaluationError{Filename: filename, Message: msg}
	}
	return out, nil
}

func fileEntry(
	filename string,
	call func(vm *cVM, name *C.char, failed *C.int) *C.char,
) entryPoint {
	return func(vm *cVM, failed *C.int) *C.char {
		cname := C.CString(filename)
		defer C.free(unsafe.Pointer(cname))
		return call(vm, cname, failed)
	}
}

func snippetEntry(
	filename, snippet string,
	call func(vm *cVM, name, code *C.char, failed *C.int) *C.char,
) entryPoint {
	return func(vm *cVM, failed *C.int) *C.char {
		cname := C.CString(filename)
		defer C.free(unsafe.Pointer(cname))
		ccode := C.CString(snippet)
		defer C.free(unsafe.Pointer(ccode))
		return call(vm, cname, ccode, failed)
	}
}

// checkInputs validates the filename and, for snippets, the code before they reach the engine.
func checkInputs(filename string, snippet ...string) error {
	if err := checkCString("filename", filename); err != nil {
		return err
	}
	for _, code := range snippet {
		if err := checkCString("snippet", code); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) evaluate(ctx context.Context, op, filename string, fn entryPoint) (string, error) {
	done, err := s.begin(ctx)
	if err != nil {
		return "", err
	}
	defer done()

	logger := s.logger.WithGroup(op).With("filename", filename)
	out, err := s.run(ctx, logger, filename, fn)
	if err != nil {
		return "", err
	}
	return takeString(s.vm, out), nil
}

func (s *Session) evaluateMulti(ctx context.Context, op, filename string, fn entryPoint) (map[string]string, error) {
	done, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	logger := s.logger.WithGroup(op).With("filename", filename)
	out, err := s.run(ctx, logger, filename, fn)
	if err != nil {
		return nil, err
	}
	return takeMulti(s.vm, out), nil
}

func (s *Session) evaluateStream(ctx context.Context, op, filename string, fn entryPoint) ([]string, error) {
	done, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	logger := s.logger.WithGroup(op).With("filename", filename)
	out, err := s.run(ctx, logger, filename, fn)
	if err != nil {
		return nil, err
	}
	return takeStream(s.vm, out), nil
}

// EvaluateFile evaluates the file and returns its JSON rendering. ctx is passed to import
// resolvers and native functions; the engine itself cannot be interrupted.
func (s *Session) EvaluateFile(ctx context.Context, filename string) (string, error) {
	if err := checkInputs(filename); err != nil {
		return "", err
	}
	return s.evaluate(ctx, "EvaluateFile", filename, fileEntry(filename,
		func(vm *cVM, name *C.char, failed *C.int) *C.char {
			return C.jsonnet_evaluate_file(vm, name, failed)
		}))
}

// EvaluateSnippet evaluates code. filename is used in diagnostics and as the base for
// relative imports.
func (s *Session) EvaluateSnippet(ctx context.Context, filename, snippet string) (string, error) {
	if err := checkInputs(filename, snippet); err != nil {
		return "", err
	}
	return s.evaluate(ctx, "EvaluateSnippet", filename, snippetEntry(filename, snippet,
		func(vm *cVM, name, code *C.char, failed *C.int) *C.char {
			return C.jsonnet_evaluate_snippet(vm, name, code, failed)
		}))
}

// EvaluateFileMulti evaluates a file whose top-level object maps output file names to
// documents.
func (s *Session) EvaluateFileMulti(ctx context.Context, filename string) (map[string]string, error) {
	if err := checkInputs(filename); err != nil {
		return nil, err
	}
	return s.evaluateMulti(ctx, "EvaluateFileMulti", filename, fileEntry(filename,
		func(vm *cVM, name *C.char, failed *C.int) *C.char {
			return C.jsonnet_evaluate_file_multi(vm, name, failed)
		}))
}

// EvaluateSnippetMulti is EvaluateFileMulti for inline code.
func (s *Session) EvaluateSnippetMulti(ctx context.Context, filename, snippet string) (map[string]string, error) {
	if err := checkInputs(filename, snippet); err != nil {
		return nil, err
	}
	return s.evaluateMulti(ctx, "EvaluateSnippetMulti", filename, snippetEntry(filename, snippet,
		func(vm *cVM, name, code *C.char, failed *C.int) *C.char {
			return C.jsonnet_evaluate_snippet_multi(vm, name, code, failed)
		}))
}

// EvaluateFileStream evaluates a file whose top-level array holds a stream of documents.
func (s *Session) EvaluateFileStream(ctx context.Context, filename string) ([]string, error) {
	if err := checkInputs(filename); err != nil {
		return nil, err
	}
	return s.evaluateStream(ctx, "EvaluateFileStream", filename, fileEntry(filename,
		func(vm *cVM, name *C.char, failed *C.int) *C.char {
			return C.jsonnet_evaluate_file_stream(vm, name, failed)
		}))
}

// EvaluateSnippetStream is EvaluateFileStream for inline code.
func (s *Session) EvaluateSnippetStream(ctx context.Context, filename, snippet string) ([]string, error) {
	if err := checkInputs(filename, snippet); err != nil {
		return nil, err
	}
	return s.evaluateStream(ctx, "EvaluateSnippetStream", filename, snippetEntry(filename, snippet,
		func(vm *cVM, name, code *C.char, failed *C.int) *C.char {
			return C.jsonnet_evaluate_snippet_stream(vm, name, code, failed)
		}))
}
