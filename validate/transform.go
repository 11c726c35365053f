package validate

import (
	"fmt"
	"sort"
)

// TransformMode selects how the identifier set is interpreted.
type TransformMode string

// Transform modes.
const (
	ModeBlacklist TransformMode = "blacklist"
	ModeWhitelist TransformMode = "whitelist"
)

// DefaultTransformPrefix is the alias prefix applied to matched identifiers.
const DefaultTransformPrefix = "__safe_"

// TransformConfig controls identifier rewriting. The transform renames only
// usage references; binding positions are never touched in either mode.
type TransformConfig struct {
	// Enabled turns the transform on. When false, TransformedCode is the
	// original source.
	Enabled bool

	// Prefix is prepended to matched identifiers.
	// Default: DefaultTransformPrefix.
	Prefix string

	// Mode selects which identifier list applies.
	// Default: ModeBlacklist.
	Mode TransformMode

	// Identifiers is the blacklist used in ModeBlacklist.
	Identifiers []string

	// WhitelistedIdentifiers is the identifier set rewritten in
	// ModeWhitelist; anything else passes through.
	WhitelistedIdentifiers []string

	// TransformComputed also rewrites computed member accesses whose key
	// is a matching string or substitution-free template literal, e.g.
	// obj['eval'] becomes obj['__safe_eval'].
	TransformComputed bool
}

func (c *TransformConfig) validate() error {
	switch c.Mode {
	case "", ModeBlacklist, ModeWhitelist:
		return nil
	default:
		return fmt.Errorf("%w: unknown transform mode %q", ErrConfiguration, c.Mode)
	}
}

func (c *TransformConfig) matchSet() map[string]bool {
	var names []string
	if c.Mode == ModeWhitelist {
		names = c.WhitelistedIdentifiers
	} else {
		names = c.Identifiers
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// edit is a single source splice, replacing [start,end) with text.
type edit struct {
	start, end int
	text       string
}

// applyTransform rewrites matched usage references (and, optionally,
// computed keys) by splicing replacements into the source text at AST
// offsets. Everything outside an edit survives byte-identical.
func applyTransform(source string, a *Analysis, cfg TransformConfig) string {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultTransformPrefix
	}
	match := cfg.matchSet()

	var edits []edit
	for _, ref := range a.References {
		name := string(ref.Identifier.Name)
		if ref.Shorthand || !match[name] || ref.Shadowed() {
			continue
		}
		start, end := a.Span(ref.Identifier)
		edits = append(edits, edit{start: start, end: end, text: prefix + name})
	}

	if cfg.TransformComputed {
		for _, ck := range a.ComputedKeys {
			if !match[ck.Key] {
				continue
			}
			start, end := a.Span(ck.Node)
			if start < 0 || end > len(source) || end-start < 2 {
				continue
			}
			opening := source[start]
			closing := source[end-1]
			edits = append(edits, edit{
				start: start,
				end:   end,
				text:  string(opening) + prefix + ck.Key + string(closing),
			})
		}
	}

	if len(edits) == 0 {
		return source
	}

	// Apply back to front so earlier offsets stay valid.
	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })

	out := source
	for _, e := range edits {
		if e.start < 0 || e.end > len(out) || e.start > e.end {
			continue
		}
		out = out[:e.start] + e.text + out[e.end:]
	}
	return out
}
