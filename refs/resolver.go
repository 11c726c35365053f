package refs

import (
	"fmt"
	"strings"
)

// Composite represents a deferred concatenation of literal strings and
// reference ids. It is materialized only after a size check has passed;
// EstimatedSize is always computed before the handle is constructed.
type Composite struct {
	// Op is the composite operation. Only "concat" is defined.
	Op string `json:"operation"`

	// Parts are the pieces to concatenate, each either a literal string
	// or a reference id.
	Parts []string `json:"parts"`

	// EstimatedSize is the predicted byte length of the materialized
	// value, computed before construction.
	EstimatedSize int `json:"estimatedSize"`
}

// OpConcat is the only composite operation.
const OpConcat = "concat"

// Default configuration values.
const (
	DefaultMaxResolutionDepth = 10
	DefaultMaxResolvedSize    = 10 << 20 // 10 MiB
)

// Fixed byte costs charged for scalar values during size prediction.
// They approximate the serialized footprint of each scalar kind.
const (
	numberCost = 8
	boolCost   = 4
	nullCost   = 4
)

// Config bounds reference resolution. The zero value is usable; zero limits
// fall back to the package defaults.
type Config struct {
	// MaxResolutionDepth bounds recursive traversal of nested values.
	// Default: DefaultMaxResolutionDepth.
	MaxResolutionDepth int

	// MaxResolvedSize bounds the total byte size a resolved value may
	// reach. Default: DefaultMaxResolvedSize.
	MaxResolvedSize int

	// AllowComposites permits composite handles. When false,
	// CreateComposite rejects any part that is a reference id.
	AllowComposites bool
}

func (c *Config) applyDefaults() {
	if c.MaxResolutionDepth == 0 {
		c.MaxResolutionDepth = DefaultMaxResolutionDepth
	}
	if c.MaxResolvedSize == 0 {
		c.MaxResolvedSize = DefaultMaxResolvedSize
	}
}

// Resolver predicts and materializes the expansion of values containing
// reference ids and composite handles. It is stateless apart from its
// sidecar and configuration; construct one per execution.
//
// Contract:
// - Concurrency: safe for concurrent use when the Sidecar is.
// - Errors: limit violations are LimitError matching ErrLimitExceeded;
//   missing sidecar entries match ErrUnknownReference.
// - Ownership: Resolve returns a freshly built value; the input is never
//   mutated.
type Resolver struct {
	sidecar Sidecar
	cfg     Config
}

// NewResolver creates a Resolver reading from sidecar under cfg limits.
func NewResolver(sidecar Sidecar, cfg Config) *Resolver {
	cfg.applyDefaults()
	return &Resolver{sidecar: sidecar, cfg: cfg}
}

// PredictExpandedSize computes the byte size Resolve would produce for v
// without allocating any of it. Reference ids are sized via the sidecar,
// falling back to the id's own length when unknown -- a conservative
// underestimate, never an overestimate that would wrongly reject.
func (r *Resolver) PredictExpandedSize(v any) (int, error) {
	return r.predictSize(v, 0)
}

func (r *Resolver) predictSize(v any, depth int) (int, error) {
	if depth > r.cfg.MaxResolutionDepth {
		return 0, &LimitError{
			Code:    CodeMaxResolutionDepth,
			Message: fmt.Sprintf("value nesting exceeds max resolution depth %d", r.cfg.MaxResolutionDepth),
		}
	}

	switch val := v.(type) {
	case nil:
		return nullCost, nil
	case bool:
		return boolCost, nil
	case int:
		return numberCost, nil
	case int64:
		return numberCost, nil
	case float64:
		return numberCost, nil
	case string:
		if IsReferenceID(val) {
			if n, ok := r.sidecar.GetSize(val); ok {
				return n, nil
			}
			return len(val), nil
		}
		return len(val), nil
	case *Composite:
		total := 0
		for _, part := range val.Parts {
			n, err := r.predictSize(part, depth+1)
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	case []any:
		total := 0
		for _, elem := range val {
			n, err := r.predictSize(elem, depth+1)
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	case map[string]any:
		total := 0
		for _, elem := range val {
			n, err := r.predictSize(elem, depth+1)
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	default:
		return 0, fmt.Errorf("cannot predict size of %T", v)
	}
}

// WouldExceedLimit reports whether resolving v would exceed MaxResolvedSize.
// Any prediction failure counts as exceeding the limit (fail closed).
func (r *Resolver) WouldExceedLimit(v any) bool {
	n, err := r.PredictExpandedSize(v)
	if err != nil {
		return true
	}
	return n > r.cfg.MaxResolvedSize
}

// Resolve materializes v: reference ids are replaced by their sidecar
// contents, composite handles are concatenated, and containers are rebuilt
// recursively. Primitives pass through unchanged.
func (r *Resolver) Resolve(v any) (any, error) {
	return r.resolve(v, 0)
}

func (r *Resolver) resolve(v any, depth int) (any, error) {
	if depth > r.cfg.MaxResolutionDepth {
		return nil, &LimitError{
			Code:    CodeMaxResolutionDepth,
			Message: fmt.Sprintf("value nesting exceeds max resolution depth %d", r.cfg.MaxResolutionDepth),
		}
	}

	switch val := v.(type) {
	case nil, bool, int, int64, float64:
		return val, nil
	case string:
		if IsReferenceID(val) {
			s, ok := r.sidecar.RetrieveString(val)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownReference, val)
			}
			return s, nil
		}
		return val, nil
	case *Composite:
		var b strings.Builder
		b.Grow(val.EstimatedSize)
		for i, part := range val.Parts {
			resolved, err := r.resolve(part, depth+1)
			if err != nil {
				return nil, err
			}
			s, ok := resolved.(string)
			if !ok {
				return nil, fmt.Errorf("composite part %d resolved to %T, want string", i, resolved)
			}
			b.WriteString(s)
		}
		return b.String(), nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			resolved, err := r.resolve(elem, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			resolved, err := r.resolve(elem, depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot resolve value of type %T", v)
	}
}

// ContainsReferences reports whether v contains any reference id or
// composite handle, short-circuiting on the first hit. Traversal beyond
// the configured depth reports true so that the caller falls through to
// Resolve, which enforces the limit properly.
func (r *Resolver) ContainsReferences(v any) bool {
	return r.containsReferences(v, 0)
}

func (r *Resolver) containsReferences(v any, depth int) bool {
	if depth > r.cfg.MaxResolutionDepth {
		return true
	}

	switch val := v.(type) {
	case string:
		return IsReferenceID(val)
	case *Composite:
		return true
	case []any:
		for _, elem := range val {
			if r.containsReferences(elem, depth+1) {
				return true
			}
		}
		return false
	case map[string]any:
		for _, elem := range val {
			if r.containsReferences(elem, depth+1) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// CreateComposite builds a deferred concatenation of parts. When no part is
// a reference id the concatenation is cheap and returned directly as a
// string. When any part is a reference id, composites must be enabled, and
// the combined size is computed from sidecar accounting and checked against
// MaxResolvedSize before any string is concatenated.
func (r *Resolver) CreateComposite(parts []string) (any, error) {
	hasRef := false
	for _, part := range parts {
		if IsReferenceID(part) {
			hasRef = true
			break
		}
	}

	if !hasRef {
		var b strings.Builder
		for _, part := range parts {
			b.WriteString(part)
		}
		return b.String(), nil
	}

	if !r.cfg.AllowComposites {
		return nil, fmt.Errorf(
			"%w: cannot concatenate reference ids; pass references directly instead of combining them",
			ErrCompositesDisabled)
	}

	total := 0
	for _, part := range parts {
		if IsReferenceID(part) {
			if n, ok := r.sidecar.GetSize(part); ok {
				total += n
			} else {
				total += len(part)
			}
			continue
		}
		total += len(part)
	}
	if total > r.cfg.MaxResolvedSize {
		return nil, &LimitError{
			Code: CodeMaxResolvedSize,
			Message: fmt.Sprintf("composite would resolve to %d bytes, exceeding max resolved size %d",
				total, r.cfg.MaxResolvedSize),
		}
	}

	return &Composite{
		Op:            OpConcat,
		Parts:         append([]string(nil), parts...),
		EstimatedSize: total,
	}, nil
}
