package isolate

import (
	"github.com/dop251/goja"
)

// DefaultMaxDepth bounds recursive wrapping when Options.MaxDepth is zero.
const DefaultMaxDepth = 8

// blockedProperties is the fixed set of capability-escalating property
// names hidden on every wrapped value.
var blockedProperties = map[string]bool{
	"constructor":      true,
	"__proto__":        true,
	"prototype":        true,
	"__defineGetter__": true,
	"__defineSetter__": true,
	"__lookupGetter__": true,
	"__lookupSetter__": true,
}

// BlockedProperties returns the property names hidden on wrapped values.
func BlockedProperties() []string {
	out := make([]string, 0, len(blockedProperties))
	for name := range blockedProperties {
		out = append(out, name)
	}
	return out
}

// IsBlockedProperty reports whether name is in the blocked set.
func IsBlockedProperty(name string) bool {
	return blockedProperties[name]
}

// Options configures a Wrapper.
type Options struct {
	// MaxDepth bounds recursive wrapping. Beyond it the raw value is
	// returned un-isolated. Default: DefaultMaxDepth.
	MaxDepth int

	// OnBlocked, when non-nil, is invoked for every blocked property
	// read with a description of the target and the property name.
	OnBlocked func(target, property string)
}

// Wrapper wraps values for one goja runtime.
//
// Contract:
// - Concurrency: a Wrapper is bound to a single runtime and, like the
//   runtime itself, must not be used from multiple goroutines at once.
// - Ownership: wrapping does not copy; property writes pass through to
//   the underlying value.
type Wrapper struct {
	vm   *goja.Runtime
	opts Options
}

// NewWrapper creates a Wrapper for vm.
func NewWrapper(vm *goja.Runtime, opts Options) *Wrapper {
	if opts.MaxDepth == 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Wrapper{vm: vm, opts: opts}
}

// Wrap converts v to a goja value with isolation applied. Primitives pass
// through unmodified; objects and functions are wrapped.
func (w *Wrapper) Wrap(v any) goja.Value {
	return w.wrapValue(w.vm.ToValue(v), 0)
}

// WrapAll wraps every object or function member of mapping, passing
// primitives through, and returns the wrapped namespace.
func (w *Wrapper) WrapAll(mapping map[string]any) map[string]goja.Value {
	out := make(map[string]goja.Value, len(mapping))
	for name, v := range mapping {
		out[name] = w.Wrap(v)
	}
	return out
}

func (w *Wrapper) wrapValue(v goja.Value, depth int) goja.Value {
	if v == nil {
		return goja.Undefined()
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return v
	}
	if depth > w.opts.MaxDepth {
		// Past the depth budget the raw object is returned un-isolated.
		return v
	}
	if fn, ok := goja.AssertFunction(v); ok {
		return w.wrapFunction(obj, fn, depth)
	}
	proxy := w.vm.NewDynamicObject(&objectProxy{wrapper: w, target: obj, depth: depth})
	_ = proxy.SetPrototype(nil)
	return proxy
}

// wrapFunction returns a callable that forwards to fn and wraps the return
// value, with a null prototype so the function itself leaks no
// constructor chain.
func (w *Wrapper) wrapFunction(obj *goja.Object, fn goja.Callable, depth int) goja.Value {
	wrapped := w.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		res, err := fn(goja.Undefined(), call.Arguments...)
		if err != nil {
			panic(w.vm.NewGoError(err))
		}
		return w.wrapValue(res, depth+1)
	})
	if fnObj, ok := wrapped.(*goja.Object); ok {
		_ = fnObj.SetPrototype(nil)
	}
	return wrapped
}

func (w *Wrapper) blocked(target *goja.Object, property string) bool {
	if !blockedProperties[property] {
		return false
	}
	if w.opts.OnBlocked != nil {
		w.opts.OnBlocked(target.ClassName(), property)
	}
	return true
}

// Unwrapper reveals the underlying Go value of an isolation proxy. The
// orchestrator uses it to export script arguments that happen to contain
// wrapped host values.
type Unwrapper interface {
	Unwrap() any
}

// objectProxy is the goja dynamic object backing a wrapped value. The
// apparent prototype is null (set at construction); reads of blocked
// names yield absent, writes to them throw, and everything else passes
// through to the target with recursive wrapping on the way out.
type objectProxy struct {
	wrapper *Wrapper
	target  *goja.Object
	depth   int
}

// Unwrap implements Unwrapper.
func (p *objectProxy) Unwrap() any {
	return p.target.Export()
}

// Get implements goja.DynamicObject.
func (p *objectProxy) Get(key string) goja.Value {
	if p.wrapper.blocked(p.target, key) {
		return nil
	}
	return p.wrapper.wrapValue(p.target.Get(key), p.depth+1)
}

// Set implements goja.DynamicObject.
func (p *objectProxy) Set(key string, val goja.Value) bool {
	if blockedProperties[key] {
		panic(p.wrapper.vm.NewTypeError("cannot set blocked property %q", key))
	}
	if err := p.target.Set(key, val); err != nil {
		panic(p.wrapper.vm.NewGoError(err))
	}
	return true
}

// Has implements goja.DynamicObject.
func (p *objectProxy) Has(key string) bool {
	if blockedProperties[key] {
		return false
	}
	return p.target.Get(key) != nil
}

// Delete implements goja.DynamicObject.
func (p *objectProxy) Delete(key string) bool {
	if blockedProperties[key] {
		return false
	}
	return p.target.Delete(key) == nil
}

// Keys implements goja.DynamicObject.
func (p *objectProxy) Keys() []string {
	keys := p.target.Keys()
	out := keys[:0:0]
	for _, k := range keys {
		if !blockedProperties[k] {
			out = append(out, k)
		}
	}
	return out
}
