package validate

import (
	"errors"
	"fmt"

	"github.com/dop251/goja/file"
)

// Sentinel errors for error classification.
var (
	// ErrConfiguration indicates malformed validator or rule
	// configuration, rejected eagerly before any script is examined.
	ErrConfiguration = errors.New("validate: configuration error")

	// ErrRuleFailure indicates a rule panicked during validation. This is
	// a programming bug in the rule, not a property of the script, and it
	// propagates as an error distinct from any reported issue.
	ErrRuleFailure = errors.New("validate: rule failure")
)

// Rule inspects a parsed script and reports issues.
//
// Contract:
// - Concurrency: rules must be stateless and safe for concurrent use.
// - Errors: rules accumulate issues via RuleContext.Report and never abort
//   validation; a panic is treated as a bug and propagates as ErrRuleFailure.
// - Ownership: the RuleContext and its Analysis are read-only.
type Rule interface {
	// Name returns the stable rule name used for configuration.
	Name() string

	// DefaultSeverity returns the severity applied to this rule's issues
	// unless overridden by configuration.
	DefaultSeverity() Severity

	// EnabledByDefault reports whether the rule runs without explicit
	// configuration.
	EnabledByDefault() bool

	// Check examines the analyzed program and reports issues.
	Check(rctx *RuleContext)
}

// RuleConfig overrides a rule's enablement and severity.
type RuleConfig struct {
	// Enabled overrides EnabledByDefault when non-nil.
	Enabled *bool

	// Severity overrides DefaultSeverity when non-nil.
	Severity *Severity
}

// RuleContext is handed to each rule during validation.
type RuleContext struct {
	// Source is the original script source.
	Source string

	// Analysis is the scope-aware walk result for the parsed program.
	Analysis *Analysis

	severity Severity
	issues   *[]Issue
}

// Severity returns the effective severity for the running rule.
func (c *RuleContext) Severity() Severity {
	return c.severity
}

// Report records an issue as given.
func (c *RuleContext) Report(issue Issue) {
	*c.issues = append(*c.issues, issue)
}

// ReportAt records an issue at the rule's effective severity, located at
// the identifier starting at idx with the given name.
func (c *RuleContext) ReportAt(code, message, name string, idx file.Idx, data map[string]any) {
	pos := c.Analysis.Position(idx)
	end := c.Analysis.Position(idx + file.Idx(len(name)))
	c.Report(Issue{
		Code:     code,
		Message:  message,
		Severity: c.severity,
		Location: &Location{
			Line:      pos.Line,
			Column:    pos.Column,
			EndLine:   end.Line,
			EndColumn: end.Column,
		},
		Data: data,
	})
}

// builtinRules returns fresh instances of every built-in rule with its
// default configuration.
func builtinRules() []Rule {
	return []Rule{
		NewDisallowedIdentifiersRule(nil),
		NewNoCallTargetAssignmentRule(nil),
	}
}

// resolveRules merges the built-in rules, extra rules, and per-rule
// configuration into the effective ordered rule list. Unknown rule names
// in cfg are a configuration error.
func resolveRules(extra []Rule, cfg map[string]RuleConfig) ([]Rule, map[string]Severity, error) {
	rules := append(builtinRules(), extra...)

	byName := make(map[string]Rule, len(rules))
	for _, r := range rules {
		if _, dup := byName[r.Name()]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate rule %q", ErrConfiguration, r.Name())
		}
		byName[r.Name()] = r
	}
	for name := range cfg {
		if _, ok := byName[name]; !ok {
			return nil, nil, fmt.Errorf("%w: unknown rule %q", ErrConfiguration, name)
		}
	}

	enabled := make([]Rule, 0, len(rules))
	severities := make(map[string]Severity, len(rules))
	for _, r := range rules {
		rc, configured := cfg[r.Name()]

		on := r.EnabledByDefault()
		if configured && rc.Enabled != nil {
			on = *rc.Enabled
		}
		if !on {
			continue
		}

		sev := r.DefaultSeverity()
		if configured && rc.Severity != nil {
			sev = *rc.Severity
		}
		enabled = append(enabled, r)
		severities[r.Name()] = sev
	}
	return enabled, severities, nil
}
