package vm

import (
	"runtime/cgo"

	"github.com/robbyt/go-jsonnetvm/importer"
	"github.com/robbyt/go-jsonnetvm/native"
)

// importRegistration is the callback context of an installed import resolver.
type importRegistration struct {
	session  *Session
	resolver importer.Resolver
}

// nativeRegistration is the callback context of one native function.
type nativeRegistration struct {
	session *Session
	name    string
	params  []string
	fn      native.Func
}

// registry keeps every callback context reachable until the engine is destroyed. The engine
// stores only the integer handle, so a replaced registration stays alive as long as the
// engine might still call it.
type registry struct {
	handles []cgo.Handle
	imports *importRegistration
	natives map[string]*nativeRegistration
}

func newRegistry() *registry {
	return &registry{natives: make(map[string]*nativeRegistration)}
}

func (r *registry) track(v any) cgo.Handle {
	h := cgo.NewHandle(v)
	r.handles = append(r.handles, h)
	return h
}

func (r *registry) setImport(reg *importRegistration) cgo.Handle {
	r.imports = reg
	return r.track(reg)
}

func (r *registry) setNative(reg *nativeRegistration) cgo.Handle {
	r.natives[reg.name] = reg
	return r.track(reg)
}

// retired counts registrations that were replaced but are still kept alive.
func (r *registry) retired() int {
	active := len(r.natives)
	if r.imports != nil {
		active++
	}
	return len(r.handles) - active
}

// release deletes every handle. Only call after the engine is gone.
func (r *registry) release() {
	for _, h := range r.handles {
		h.Delete()
	}
	r.handles = nil
	r.imports = nil
	clear(r.natives)
}
