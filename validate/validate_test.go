package validate

import (
	"errors"
	"strings"
	"testing"
)

func findIssues(issues []Issue, code string) []Issue {
	var out []Issue
	for _, issue := range issues {
		if issue.Code == code {
			out = append(out, issue)
		}
	}
	return out
}

func TestValidate_CleanScript(t *testing.T) {
	res, err := Validate(`const x = 1; callTool('deploy', {env: 'staging'});`, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Valid {
		t.Errorf("expected valid, got issues: %v", res.Issues)
	}
	if len(res.Issues) != 0 {
		t.Errorf("expected no issues, got %v", res.Issues)
	}
}

func TestValidate_SyntaxError(t *testing.T) {
	res, err := Validate(`const = ;;`, Options{
		Transform: &TransformConfig{Enabled: true, Identifiers: []string{"eval"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Valid {
		t.Error("expected invalid result for syntax error")
	}
	if len(res.Issues) != 1 || res.Issues[0].Code != CodeParseError {
		t.Fatalf("expected single PARSE_ERROR issue, got %v", res.Issues)
	}
	if res.TransformedCode != "" {
		t.Error("no transform should run after a parse failure")
	}
}

func TestValidate_DisallowedIdentifier(t *testing.T) {
	res, err := Validate(`eval("1+1");`, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Valid {
		t.Error("expected invalid result")
	}
	found := findIssues(res.Issues, CodeDisallowedIdentifier)
	if len(found) != 1 {
		t.Fatalf("expected one DISALLOWED_IDENTIFIER issue, got %v", res.Issues)
	}
	if found[0].Data["identifier"] != "eval" {
		t.Errorf("identifier = %v, want eval", found[0].Data["identifier"])
	}
	if found[0].Location == nil || found[0].Location.Line != 1 {
		t.Errorf("expected location on line 1, got %+v", found[0].Location)
	}
}

func TestValidate_DisallowedIdentifierHiddenForms(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"optional call argument", `obj?.f(eval);`},
		{"optional chain callee base", `eval?.call(null, "1");`},
		{"tagged template", "eval`1+1`;"},
		{"yield argument", `function* g() { yield eval; }`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Validate(tc.src, Options{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Valid {
				t.Fatal("expected invalid result")
			}
			found := findIssues(res.Issues, CodeDisallowedIdentifier)
			if len(found) == 0 {
				t.Fatalf("expected DISALLOWED_IDENTIFIER issue, got %v", res.Issues)
			}
			if found[0].Data["identifier"] != "eval" {
				t.Errorf("identifier = %v, want eval", found[0].Data["identifier"])
			}
		})
	}
}

func TestValidate_DisallowedIdentifierShadowedIsLegal(t *testing.T) {
	src := `function f(eval) { return eval(1); } f(x => x);`
	res, err := Validate(src, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if issues := findIssues(res.Issues, CodeDisallowedIdentifier); len(issues) != 0 {
		t.Errorf("shadowed identifier should pass, got %v", issues)
	}
}

func TestValidate_NoCallTargetAssignmentForms(t *testing.T) {
	cases := []struct {
		name string
		src  string
		kind string
	}{
		{"const declaration", `const callTool = () => {};`, "declaration"},
		{"let declaration", `let callTool;`, "declaration"},
		{"var declaration", `var callTool = 1;`, "declaration"},
		{"assignment", `callTool = null;`, "assignment"},
		{"compound assignment", `callTool += 1;`, "assignment"},
		{"object destructuring", `const {callTool} = obj;`, "declaration"},
		{"nested destructuring", `const {a: {b: [callTool = 3]}} = obj;`, "declaration"},
		{"rest element", `const [...callTool] = arr;`, "declaration"},
		{"function parameter", `function f(callTool) {}`, "parameter"},
		{"destructured parameter", `function f({callTool}) {}`, "parameter"},
		{"rest parameter", `function f(...callTool) {}`, "parameter"},
		{"arrow parameter", `const f = (callTool) => callTool;`, "parameter"},
		{"function declaration", `function callTool() {}`, "function-declaration"},
		{"function expression", `const f = function callTool() {};`, "function-expression"},
		{"class declaration", `class callTool {}`, "class-declaration"},
		{"catch parameter", `try {} catch (callTool) {}`, "catch-parameter"},
		{"update expression", `callTool++;`, "update"},
		{"optional call argument", `obj?.f(callTool = 1);`, "assignment"},
		{"optional chain member call", `obj?.m.f(callTool = 1);`, "assignment"},
		{"yield argument", `function* g() { yield callTool = 1; }`, "assignment"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Validate(tc.src, Options{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Valid {
				t.Fatal("expected invalid result")
			}
			found := findIssues(res.Issues, CodeNoCallTargetAssignment)
			if len(found) == 0 {
				t.Fatalf("expected NO_CALL_TARGET_ASSIGNMENT issue, got %v", res.Issues)
			}
			gotKind := false
			for _, issue := range found {
				if issue.Data["kind"] == tc.kind {
					gotKind = true
				}
				if issue.Data["identifier"] != "callTool" {
					t.Errorf("identifier = %v, want callTool", issue.Data["identifier"])
				}
			}
			if !gotKind {
				t.Errorf("expected violation kind %q, got %v", tc.kind, found)
			}
		})
	}
}

func TestValidate_CallingCallToolIsLegal(t *testing.T) {
	res, err := Validate(`callTool('deploy', {});`, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Valid {
		t.Errorf("plain invocation must pass, got %v", res.Issues)
	}
}

func TestValidate_UnknownRuleNameIsConfigurationError(t *testing.T) {
	_, err := Validate(`1;`, Options{
		Rules: map[string]RuleConfig{"no-such-rule": {}},
	})
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestValidate_UnknownTransformModeIsConfigurationError(t *testing.T) {
	_, err := Validate(`1;`, Options{
		Transform: &TransformConfig{Enabled: true, Mode: "greylist"},
	})
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestValidate_SeverityOverrideKeepsValid(t *testing.T) {
	warn := SeverityWarning
	res, err := Validate(`eval("1");`, Options{
		Rules: map[string]RuleConfig{
			RuleDisallowedIdentifiers: {Severity: &warn},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Valid {
		t.Error("warning-severity issues must not invalidate the result")
	}
	if len(findIssues(res.Issues, CodeDisallowedIdentifier)) != 1 {
		t.Errorf("issue should still be reported, got %v", res.Issues)
	}
}

func TestValidate_DisabledRule(t *testing.T) {
	off := false
	res, err := Validate(`const callTool = 1;`, Options{
		Rules: map[string]RuleConfig{
			RuleNoCallTargetAssignment: {Enabled: &off},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Valid {
		t.Errorf("disabled rule must not fire, got %v", res.Issues)
	}
}

type panickingRule struct{}

func (panickingRule) Name() string              { return "panicking" }
func (panickingRule) DefaultSeverity() Severity { return SeverityError }
func (panickingRule) EnabledByDefault() bool    { return true }
func (panickingRule) Check(*RuleContext)        { panic("boom") }

func TestValidate_PanickingRulePropagates(t *testing.T) {
	_, err := Validate(`1;`, Options{ExtraRules: []Rule{panickingRule{}}})
	if !errors.Is(err, ErrRuleFailure) {
		t.Errorf("expected ErrRuleFailure, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "panicking") {
		t.Errorf("error should name the rule, got %v", err)
	}
}
