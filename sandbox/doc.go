// Package sandbox executes untrusted scripts against a gated set of host
// tools. It composes the static checks from package validate, the runtime
// isolation from package isolate, and the reference resolution from package
// refs into a single Execute call with a wall-clock budget and a closed
// result taxonomy.
//
// Every execution runs in a fresh engine instance. The only shared structure
// between concurrent executions is the reference sidecar, which is safe for
// concurrent use. Script and tool failures never surface as Go errors;
// Execute reports them through Result.Status. Only host-side bugs, such as a
// panicking custom rule, propagate as panics.
package sandbox
