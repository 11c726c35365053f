package validate

import "fmt"

// Rule names for configuration.
const (
	RuleDisallowedIdentifiers   = "disallowed-identifiers"
	RuleNoCallTargetAssignment  = "no-call-target-assignment"
	DefaultCallTargetIdentifier = "callTool"
)

// DefaultDisallowedIdentifiers is the default blacklist of global names a
// script must not reference. The runtime layer independently withholds
// these; the rule surfaces the attempt before execution.
func DefaultDisallowedIdentifiers() []string {
	return []string{
		"eval",
		"Function",
		"require",
		"globalThis",
		"process",
		"Reflect",
		"Proxy",
	}
}

// DisallowedIdentifiersRule flags usage references to blacklisted global
// identifiers. Locally bound names of the same spelling are legal and pass.
type DisallowedIdentifiersRule struct {
	disallowed map[string]bool
}

// NewDisallowedIdentifiersRule creates the rule with the given blacklist,
// or the default blacklist when names is nil.
func NewDisallowedIdentifiersRule(names []string) *DisallowedIdentifiersRule {
	if names == nil {
		names = DefaultDisallowedIdentifiers()
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return &DisallowedIdentifiersRule{disallowed: set}
}

// Name implements Rule.
func (r *DisallowedIdentifiersRule) Name() string { return RuleDisallowedIdentifiers }

// DefaultSeverity implements Rule.
func (r *DisallowedIdentifiersRule) DefaultSeverity() Severity { return SeverityError }

// EnabledByDefault implements Rule.
func (r *DisallowedIdentifiersRule) EnabledByDefault() bool { return true }

// Check implements Rule.
func (r *DisallowedIdentifiersRule) Check(rctx *RuleContext) {
	for _, ref := range rctx.Analysis.References {
		name := string(ref.Identifier.Name)
		if !r.disallowed[name] || ref.Shadowed() {
			continue
		}
		rctx.ReportAt(CodeDisallowedIdentifier,
			fmt.Sprintf("use of disallowed identifier %q", name),
			name, ref.Identifier.Idx,
			map[string]any{"identifier": name})
	}
}

// NoCallTargetAssignmentRule protects a set of call targets (by default the
// tool-invocation binding) from every syntactic form that could reassign or
// shadow them: plain assignment, variable declarations, nested destructuring
// including rest elements and defaults, function and arrow parameters,
// function and class declarations and expressions, catch parameters, and
// update expressions.
type NoCallTargetAssignmentRule struct {
	protected map[string]bool
}

// NewNoCallTargetAssignmentRule creates the rule protecting the given
// identifiers, or the default call target when names is nil.
func NewNoCallTargetAssignmentRule(names []string) *NoCallTargetAssignmentRule {
	if names == nil {
		names = []string{DefaultCallTargetIdentifier}
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return &NoCallTargetAssignmentRule{protected: set}
}

// Name implements Rule.
func (r *NoCallTargetAssignmentRule) Name() string { return RuleNoCallTargetAssignment }

// DefaultSeverity implements Rule.
func (r *NoCallTargetAssignmentRule) DefaultSeverity() Severity { return SeverityError }

// EnabledByDefault implements Rule.
func (r *NoCallTargetAssignmentRule) EnabledByDefault() bool { return true }

// Check implements Rule.
func (r *NoCallTargetAssignmentRule) Check(rctx *RuleContext) {
	for _, b := range rctx.Analysis.Bindings {
		if !r.protected[b.Name] {
			continue
		}
		rctx.ReportAt(CodeNoCallTargetAssignment,
			fmt.Sprintf("%s of protected call target %q", b.Kind, b.Name),
			b.Name, b.Idx,
			map[string]any{"identifier": b.Name, "kind": string(b.Kind)})
	}
	for _, wt := range rctx.Analysis.WriteTargets {
		if !r.protected[wt.Name] {
			continue
		}
		rctx.ReportAt(CodeNoCallTargetAssignment,
			fmt.Sprintf("%s to protected call target %q", wt.Kind, wt.Name),
			wt.Name, wt.Idx,
			map[string]any{"identifier": wt.Name, "kind": string(wt.Kind)})
	}
}
