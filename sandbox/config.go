package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/tooldoc"

	"github.com/jonwraymond/codecall/isolate"
	"github.com/jonwraymond/codecall/refs"
	"github.com/jonwraymond/codecall/validate"
)

// ErrConfiguration indicates an invalid or incomplete configuration.
var ErrConfiguration = errors.New("configuration error")

// DefaultTimeout is the execution wall-clock budget applied when neither
// the configuration nor the call options specify one.
const DefaultTimeout = 30 * time.Second

// defaultMaxCallStack bounds script recursion depth per execution.
const defaultMaxCallStack = 1024

// ToolInvoker is the host's mapping from tool names to real tool
// invocations, exposed to scripts through the gated callTool binding.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Invoke must honor cancellation/deadlines and return ctx.Err()
//   when canceled.
// - Errors: a returned error surfaces to the script as a thrown tool error.
// - Ownership: args are read-only; the returned value is caller-owned.
type ToolInvoker interface {
	// Invoke runs the named tool with the given arguments.
	Invoke(ctx context.Context, name string, args map[string]any) (any, error)
}

// Logger is an optional interface for observability during execution.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging must be best-effort; Logf should not panic.
// - Ownership: format/args are read-only.
type Logger interface {
	// Logf logs a formatted message.
	Logf(format string, args ...any)
}

// Config holds the configuration for an Executor.
type Config struct {
	// Invoker executes real tool calls on behalf of scripts.
	// Required.
	Invoker ToolInvoker

	// Sidecar stores large payloads addressed by reference id.
	// Defaults to a fresh in-memory sidecar.
	Sidecar refs.Sidecar

	// Refs configures reference resolution limits.
	Refs refs.Config

	// Isolation configures the runtime isolation wrapper.
	Isolation isolate.Options

	// Validation overrides the static checks run before execution. The
	// zero value runs the built-in rules with no transform.
	Validation validate.Options

	// Globals are host values exposed to scripts through the isolation
	// wrapper, in addition to the secure standard library.
	Globals map[string]any

	// Index, when set, exposes a searchTools binding to scripts.
	Index index.Index

	// Docs, when set, exposes a describeTool binding to scripts.
	Docs tooldoc.Store

	// DefaultTimeout is the execution budget when ExecuteOptions.Timeout
	// is zero. Defaults to DefaultTimeout.
	DefaultTimeout time.Duration

	// MaxCallStack bounds script recursion depth. Defaults to
	// defaultMaxCallStack.
	MaxCallStack int

	// Logger is an optional logger for observability.
	Logger Logger
}

// Validate checks that all required fields are set.
// Returns ErrConfiguration if any required field is missing.
func (c *Config) Validate() error {
	var missing []string

	if c.Invoker == nil {
		missing = append(missing, "Invoker")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s",
			ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

// applyDefaults sets default values for optional fields.
func (c *Config) applyDefaults() {
	if c.Sidecar == nil {
		c.Sidecar = refs.NewMemorySidecar()
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = DefaultTimeout
	}
	if c.MaxCallStack <= 0 {
		c.MaxCallStack = defaultMaxCallStack
	}
}
