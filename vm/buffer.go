package vm

/*
#include <stdlib.h>
#include <libjsonnet.h>
*/
import "C"

import "unsafe"

// Buffers crossing the boundary are always allocated and released with jsonnet_realloc so
// the engine's allocator owns them on both sides.

// allocString copies s into a NUL-terminated engine buffer.
func allocString(vm *cVM, s string) *C.char {
	n := len(s)
	buf := C.jsonnet_realloc(vm, nil, C.size_t(n+1))
	dst := unsafe.Slice((*byte)(unsafe.Pointer(buf)), n+1)
	copy(dst, s)
	dst[n] = 0
	return buf
}

func freeBuffer(vm *cVM, buf *C.char) {
	if buf != nil {
		C.jsonnet_realloc(vm, buf, 0)
	}
}

// takeString copies an engine-owned string and releases the buffer.
func takeString(vm *cVM, buf *C.char) string {
	if buf == nil {
		return ""
	}
	defer freeBuffer(vm, buf)
	return C.GoString(buf)
}

// takeMulti copies the "name\0content\0...\0" layout of the _multi entry points.
func takeMulti(vm *cVM, buf *C.char) map[string]string {
	out := make(map[string]string)
	if buf == nil {
		return out
	}
	defer freeBuffer(vm, buf)

	p := buf
	for *p != 0 {
		name := C.GoString(p)
		p = advance(p, len(name)+1)
		content := C.GoString(p)
		p = advance(p, len(content)+1)
		out[name] = content
	}
	return out
}

// takeStream copies the "doc\0doc\0...\0" layout of the _stream entry points.
func takeStream(vm *cVM, buf *C.char) []string {
	out := []string{}
	if buf == nil {
		return out
	}
	defer freeBuffer(vm, buf)

	p := buf
	for *p != 0 {
		doc := C.GoString(p)
		p = advance(p, len(doc)+1)
		out = append(out, doc)
	}
	return out
}

func advance(p *C.char, n int) *C.char {
	return (*C.char)(unsafe.Add(unsafe.Pointer(p), n))
}
