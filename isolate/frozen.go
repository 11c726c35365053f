package isolate

import "github.com/dop251/goja"

// WrapFrozen wraps v like Wrap but rejects every mutation: property writes
// and deletes throw regardless of name, recursively. It is used for
// request-scoped context objects that scripts may read but never change.
func (w *Wrapper) WrapFrozen(v any) goja.Value {
	return w.wrapFrozen(w.vm.ToValue(v), 0)
}

func (w *Wrapper) wrapFrozen(v goja.Value, depth int) goja.Value {
	if v == nil {
		return goja.Undefined()
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return v
	}
	if depth > w.opts.MaxDepth {
		return v
	}
	if _, ok := goja.AssertFunction(v); ok {
		// Functions have no place in a frozen context object.
		return goja.Undefined()
	}
	proxy := w.vm.NewDynamicObject(&frozenProxy{wrapper: w, target: obj, depth: depth})
	_ = proxy.SetPrototype(nil)
	return proxy
}

// frozenProxy is an objectProxy that additionally refuses all writes.
type frozenProxy struct {
	wrapper *Wrapper
	target  *goja.Object
	depth   int
}

// Unwrap implements Unwrapper.
func (p *frozenProxy) Unwrap() any {
	return p.target.Export()
}

// Get implements goja.DynamicObject.
func (p *frozenProxy) Get(key string) goja.Value {
	if p.wrapper.blocked(p.target, key) {
		return nil
	}
	return p.wrapper.wrapFrozen(p.target.Get(key), p.depth+1)
}

// Set implements goja.DynamicObject.
func (p *frozenProxy) Set(key string, _ goja.Value) bool {
	panic(p.wrapper.vm.NewTypeError("cannot set property %q on a frozen object", key))
}

// Has implements goja.DynamicObject.
func (p *frozenProxy) Has(key string) bool {
	if blockedProperties[key] {
		return false
	}
	return p.target.Get(key) != nil
}

// Delete implements goja.DynamicObject.
func (p *frozenProxy) Delete(string) bool {
	return false
}

// Keys implements goja.DynamicObject.
func (p *frozenProxy) Keys() []string {
	keys := p.target.Keys()
	out := keys[:0:0]
	for _, k := range keys {
		if !blockedProperties[k] {
			out = append(out, k)
		}
	}
	return out
}
