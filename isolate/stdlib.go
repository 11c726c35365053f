package isolate

import (
	"encoding/json"
	"math"

	"github.com/dop251/goja"
)

// SecureStandardLibrary returns a restricted global namespace of numeric,
// string, array and JSON utilities. Pass it through [Wrapper.WrapAll] so
// every member is independently wrapped; a script can then use the
// utilities without ever touching a real constructor.
func SecureStandardLibrary() map[string]any {
	return map[string]any{
		"Math": map[string]any{
			"abs":    math.Abs,
			"ceil":   math.Ceil,
			"floor":  math.Floor,
			"round":  math.Round,
			"trunc":  math.Trunc,
			"sqrt":   math.Sqrt,
			"pow":    math.Pow,
			"log":    math.Log,
			"exp":    math.Exp,
			"sign": func(x float64) float64 {
				switch {
				case x > 0:
					return 1
				case x < 0:
					return -1
				default:
					return x
				}
			},
			"max": func(args ...float64) float64 {
				if len(args) == 0 {
					return math.Inf(-1)
				}
				m := args[0]
				for _, v := range args[1:] {
					m = math.Max(m, v)
				}
				return m
			},
			"min": func(args ...float64) float64 {
				if len(args) == 0 {
					return math.Inf(1)
				}
				m := args[0]
				for _, v := range args[1:] {
					m = math.Min(m, v)
				}
				return m
			},
			"PI": math.Pi,
			"E":  math.E,
		},
		"JSON": map[string]any{
			"parse": func(s string) (any, error) {
				var v any
				err := json.Unmarshal([]byte(s), &v)
				return v, err
			},
			"stringify": func(v any) (string, error) {
				b, err := json.Marshal(v)
				return string(b), err
			},
		},
		"String": map[string]any{
			"fromCharCode": func(codes ...int) string {
				runes := make([]rune, len(codes))
				for i, c := range codes {
					runes[i] = rune(c)
				}
				return string(runes)
			},
		},
		"Array": map[string]any{
			"isArray": func(v any) bool {
				_, ok := v.([]any)
				return ok
			},
			"of": func(elems ...any) []any {
				return append([]any(nil), elems...)
			},
		},
		"Number": map[string]any{
			"isFinite": func(x float64) bool {
				return !math.IsInf(x, 0) && !math.IsNaN(x)
			},
			"isInteger": func(x float64) bool {
				return x == math.Trunc(x) && !math.IsInf(x, 0) && !math.IsNaN(x)
			},
			"MAX_SAFE_INTEGER": float64(1<<53 - 1),
		},
	}
}

// hardenScript neuters the escape hatches a fresh goja runtime ships with:
// the Function constructor reached through any function's prototype chain,
// prototype mutation primitives that could restore a wrapped value's null
// prototype, and mutation of the shared builtin prototypes. Errors are
// ignored on purpose; hardening is best-effort on top of the proxy layer.
const hardenScript = `(function() {
	try {
		var ctorTrap = function() { throw new TypeError("Function constructor is disabled"); };
		Object.defineProperty(Function.prototype, "constructor", {
			value: ctorTrap, writable: false, configurable: false
		});
	} catch (e) {}
	try {
		Object.defineProperty(Object, "setPrototypeOf", {
			value: function() { throw new TypeError("setPrototypeOf is disabled"); },
			writable: false, configurable: false
		});
	} catch (e) {}
	try {
		Object.defineProperty(Object.prototype, "__proto__", {
			get: function() { return null; },
			set: function() { throw new TypeError("__proto__ is disabled"); },
			configurable: false
		});
	} catch (e) {}
	try {
		Object.freeze(Object.prototype);
		Object.freeze(Array.prototype);
		Object.freeze(String.prototype);
		Object.freeze(Number.prototype);
		Object.freeze(Boolean.prototype);
		Object.freeze(Function.prototype);
	} catch (e) {}
})();`

// HardenRuntime removes or disables dangerous globals on a fresh runtime
// and freezes the builtin prototypes against pollution. Call it once per
// runtime, before any sandbox globals are installed.
func HardenRuntime(vm *goja.Runtime) {
	for _, name := range []string{
		"eval",
		"Function",
		"globalThis",
		"Reflect",
		"Proxy",
	} {
		_ = vm.Set(name, goja.Undefined())
	}
	_, _ = vm.RunString(hardenScript)
}
