package validate

import (
	"strings"
	"testing"
)

func transform(t *testing.T, src string, cfg TransformConfig) string {
	t.Helper()
	cfg.Enabled = true
	res, err := Validate(src, Options{Transform: &cfg})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return res.TransformedCode
}

func TestTransform_RenamesUsageReferences(t *testing.T) {
	got := transform(t, `eval("1+1");`, TransformConfig{Identifiers: []string{"eval"}})
	if got != `__safe_eval("1+1");` {
		t.Errorf("got %q", got)
	}
}

func TestTransform_CustomPrefix(t *testing.T) {
	got := transform(t, `eval(1)`, TransformConfig{Identifiers: []string{"eval"}, Prefix: "blocked_"})
	if got != `blocked_eval(1)` {
		t.Errorf("got %q", got)
	}
}

func TestTransform_PreservesBindingPositions(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"function parameter", `function f(eval) { return eval; }`},
		{"variable declaration", `let eval = 1; eval + 2;`},
		{"catch parameter", `try {} catch (eval) { eval; }`},
		{"destructured target", `const {eval} = obj;`},
		{"function name", `function eval() { eval(); }`},
		{"class name", `class eval {}`},
		{"method name", `const o = {eval() { return 1; }};`},
		{"property key", `const o = {eval: 1};`},
		{"dot member", `obj.eval();`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := transform(t, tc.src, TransformConfig{Identifiers: []string{"eval"}})
			if got != tc.src {
				t.Errorf("binding position rewritten:\n in:  %s\n out: %s", tc.src, got)
			}
		})
	}
}

func TestTransform_RenamesHiddenUsageForms(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"tagged template", "eval`1+1`;", "__safe_eval`1+1`;"},
		{"optional call argument", `obj?.f(eval);`, `obj?.f(__safe_eval);`},
		{"yield argument", `function* g() { yield eval; }`, `function* g() { yield __safe_eval; }`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := transform(t, tc.src, TransformConfig{Identifiers: []string{"eval"}})
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTransform_ShadowingPreserved(t *testing.T) {
	src := `eval(1); function f(eval) { eval(2); } eval(3);`
	got := transform(t, src, TransformConfig{Identifiers: []string{"eval"}})
	want := `__safe_eval(1); function f(eval) { eval(2); } __safe_eval(3);`
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestTransform_ComputedStringKey(t *testing.T) {
	got := transform(t, `obj['eval']();`, TransformConfig{
		Identifiers:       []string{"eval"},
		TransformComputed: true,
	})
	if got != `obj['__safe_eval']();` {
		t.Errorf("got %q", got)
	}
}

func TestTransform_ComputedTemplateKey(t *testing.T) {
	got := transform(t, "obj[`eval`]();", TransformConfig{
		Identifiers:       []string{"eval"},
		TransformComputed: true,
	})
	if got != "obj[`__safe_eval`]();" {
		t.Errorf("got %q", got)
	}
}

func TestTransform_ComputedKeyUntouchedWithoutFlag(t *testing.T) {
	src := `obj['eval']();`
	got := transform(t, src, TransformConfig{Identifiers: []string{"eval"}})
	if got != src {
		t.Errorf("computed key rewritten without TransformComputed: %q", got)
	}
}

func TestTransform_WhitelistMode(t *testing.T) {
	got := transform(t, `alpha(1); beta(2);`, TransformConfig{
		Mode:                   ModeWhitelist,
		WhitelistedIdentifiers: []string{"alpha"},
	})
	if got != `__safe_alpha(1); beta(2);` {
		t.Errorf("got %q", got)
	}
}

func TestTransform_RunsDespiteValidationErrors(t *testing.T) {
	res, err := Validate(`eval(1);`, Options{
		Transform: &TransformConfig{Enabled: true, Identifiers: []string{"eval"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Valid {
		t.Error("expected invalid (disallowed identifier)")
	}
	if res.TransformedCode != `__safe_eval(1);` {
		t.Errorf("transform should still run, got %q", res.TransformedCode)
	}
}

func TestTransform_MultipleOccurrences(t *testing.T) {
	got := transform(t, "eval(1);\neval(2);\nother(eval);",
		TransformConfig{Identifiers: []string{"eval"}})
	if strings.Count(got, "__safe_eval") != 3 {
		t.Errorf("expected three renames, got %q", got)
	}
	if strings.Contains(strings.ReplaceAll(got, "__safe_eval", ""), "eval") {
		t.Errorf("an occurrence was missed: %q", got)
	}
}

func TestTransform_ShorthandPropertyUntouched(t *testing.T) {
	src := `const o = {eval};`
	got := transform(t, src, TransformConfig{Identifiers: []string{"eval"}})
	if got != src {
		t.Errorf("shorthand property must not be renamed, got %q", got)
	}
}
