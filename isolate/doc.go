// Package isolate wraps values reachable from sandboxed script code so
// that capability-escalating properties are unobservable.
//
// Every host-provided object or function crosses into the script through a
// [Wrapper]. Wrapped objects are goja dynamic objects with a null prototype:
// reading constructor, __proto__, prototype, or the four legacy accessor
// names yields absent (indistinguishable from a property that does not
// exist), writing any of them throws, and prototype-chain walking is denied
// because there is no prototype to walk. Values read through a wrapped
// object are themselves wrapped recursively and lazily, and a wrapped
// function's return value is wrapped on the way out, so an object returned
// by a tool call hides its constructor too.
//
// # Depth Budget
//
// Recursion is bounded by Options.MaxDepth; past the budget the raw value
// is returned un-isolated. Deeply nested structures are rare in legitimate
// tool arguments, so this is an explicit, accepted boundary rather than a
// silent gap. Wrapped functions carry a null prototype but are not full
// dynamic objects, so property writes on a function are not intercepted;
// blocked reads still yield absent.
//
// Isolation here is one defense layer among several (static validation,
// runtime hardening, reference admission control), not a complete security
// boundary by itself.
package isolate
