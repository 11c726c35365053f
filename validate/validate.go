package validate

import (
	"fmt"

	"github.com/dop251/goja/parser"
)

// Options configures one Validate call.
type Options struct {
	// Rules overrides enablement and severity per rule name. Unknown
	// names are a configuration error.
	Rules map[string]RuleConfig

	// ExtraRules are run in addition to the built-in rules.
	ExtraRules []Rule

	// Transform, when non-nil and enabled, rewrites matched identifier
	// usages. The transform runs regardless of the validation outcome so
	// a rewritten artifact is always available for diagnostics.
	Transform *TransformConfig
}

// Result is the outcome of one Validate call.
type Result struct {
	// Valid is false iff any issue has Error severity.
	Valid bool

	// Issues are the accumulated findings, in rule order.
	Issues []Issue

	// TransformedCode is the rewritten source when the transform ran,
	// otherwise empty.
	TransformedCode string
}

// Validate parses source, runs every enabled rule and, independently,
// applies the configured transform.
//
// Syntax errors short-circuit with a single PARSE_ERROR issue and no
// transform. Malformed configuration is rejected eagerly with
// ErrConfiguration before the source is examined. A panicking rule
// propagates as ErrRuleFailure; expected script problems never surface as
// a Go error.
func Validate(source string, opts Options) (Result, error) {
	rules, severities, err := resolveRules(opts.ExtraRules, opts.Rules)
	if err != nil {
		return Result{}, err
	}
	if opts.Transform != nil {
		if err := opts.Transform.validate(); err != nil {
			return Result{}, err
		}
	}

	prog, parseErr := parser.ParseFile(nil, "script.js", source, 0)
	if parseErr != nil {
		return Result{
			Valid:  false,
			Issues: []Issue{parseIssue(parseErr)},
		}, nil
	}

	analysis := Analyze(prog)

	var issues []Issue
	for _, rule := range rules {
		rctx := &RuleContext{
			Source:   source,
			Analysis: analysis,
			severity: severities[rule.Name()],
			issues:   &issues,
		}
		if err := runRule(rule, rctx); err != nil {
			return Result{}, err
		}
	}

	valid := true
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			valid = false
			break
		}
	}

	result := Result{Valid: valid, Issues: issues}
	if opts.Transform != nil && opts.Transform.Enabled {
		result.TransformedCode = applyTransform(source, analysis, *opts.Transform)
	}
	return result, nil
}

// runRule executes one rule, converting a panic into ErrRuleFailure.
func runRule(rule Rule, rctx *RuleContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: rule %q panicked: %v", ErrRuleFailure, rule.Name(), r)
		}
	}()
	rule.Check(rctx)
	return nil
}

// parseIssue converts a parser error into the single issue reported for a
// syntactically invalid script.
func parseIssue(err error) Issue {
	issue := Issue{
		Code:     CodeParseError,
		Message:  err.Error(),
		Severity: SeverityError,
	}
	if list, ok := err.(parser.ErrorList); ok && len(list) > 0 {
		first := list[0]
		issue.Message = first.Message
		issue.Location = &Location{
			Line:   first.Position.Line,
			Column: first.Position.Column,
		}
	}
	return issue
}
