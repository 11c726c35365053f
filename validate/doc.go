// Package validate provides static validation and transformation of script
// source before sandboxed execution.
//
// [Validate] parses the source with the goja parser, runs every enabled
// [Rule] over the syntax tree to accumulate [Issue] values, and then,
// independently of the validation outcome, rewrites usage references of
// configured identifiers to inert aliases. The caller decides whether to
// fail closed on Error-severity issues; the transformed source is always
// available for diagnostics.
//
// # Binding Preservation
//
// The transform never renames binding positions: function and class names,
// parameters, catch parameters, destructuring targets, property keys and
// method names are byte-identical before and after. Only usage references
// matching the configured identifier set are rewritten, and a reference
// that is shadowed by a local binding is left alone, so the rewritten
// program keeps the host language's shadowing semantics exactly.
//
// Rewriting splices replacements into the original source text by AST
// offset rather than regenerating code, so every untouched byte survives
// verbatim.
package validate
