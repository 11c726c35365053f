// Package refs provides out-of-band reference handling for large values
// passed into sandboxed script executions.
//
// Large payloads are staged in a [Sidecar] before execution and passed to the
// script by opaque reference id instead of by value. The [Resolver] replaces
// reference ids with their sidecar contents just before a tool invocation,
// after a predictive size check has bounded the cost of doing so.
//
// # Expansion Bombs
//
// A script could otherwise concatenate many references to multi-megabyte
// sidecar entries, then nest the results, producing gigabytes of materialized
// data from a few bytes of script. The resolver defends against this by
// computing the expanded size of a value before allocating anything:
//
//   - [Resolver.PredictExpandedSize] walks a value without materializing it
//   - [Resolver.WouldExceedLimit] is the fail-closed admission check
//   - [Resolver.CreateComposite] sizes a deferred concatenation and rejects
//     it before any byte is copied
//
// # Depth Limits
//
// All traversal entry points enforce the same MaxResolutionDepth so that a
// deeply nested value cannot bypass the size check by exhausting the stack
// first.
package refs
