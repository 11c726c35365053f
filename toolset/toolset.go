// Package toolset provides an in-process registry of tool handlers that
// sandboxed executions invoke through the orchestrator's gated callTool
// binding. Tool metadata follows MCP shapes so a registry can be listed
// alongside tools from remote backends.
package toolset

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jonwraymond/toolfoundation/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ErrToolNotFound indicates an invocation of a tool this registry does not
// hold.
var ErrToolNotFound = errors.New("tool not found")

// HandlerFunc is the function signature for tool handlers.
type HandlerFunc func(ctx context.Context, args map[string]any) (any, error)

// ToolDef defines a registered tool with its handler.
type ToolDef struct {
	Name         string
	Title        string
	Description  string
	InputSchema  map[string]any
	OutputSchema map[string]any
	Annotations  *mcp.ToolAnnotations
	Tags         []string
	Handler      HandlerFunc
}

// Registry holds tool handlers and implements the orchestrator's
// ToolInvoker contract.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Context: Invoke passes ctx through to the handler; handlers must
//   honor cancellation.
// - Errors: unknown tools return ErrToolNotFound; handler errors
//   propagate unchanged.
// - Ownership: args are read-only for handlers; results are caller-owned.
type Registry struct {
	name     string
	mu       sync.RWMutex
	handlers map[string]ToolDef
}

// New creates an empty registry with the given namespace name.
func New(name string) *Registry {
	return &Registry{
		name:     name,
		handlers: make(map[string]ToolDef),
	}
}

// Name returns the registry namespace.
func (r *Registry) Name() string {
	return r.name
}

// Register adds or replaces a tool handler.
func (r *Registry) Register(name string, def ToolDef) {
	if def.Name == "" {
		def.Name = name
	}
	r.mu.Lock()
	r.handlers[name] = def
	r.mu.Unlock()
}

// Unregister removes a tool handler.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	delete(r.handlers, name)
	r.mu.Unlock()
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ListTools returns the registered tools with MCP metadata.
func (r *Registry) ListTools(_ context.Context) ([]model.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Tool, 0, len(r.handlers))
	for _, def := range r.handlers {
		out = append(out, model.Tool{
			Tool: mcp.Tool{
				Name:         def.Name,
				Title:        def.Title,
				Description:  def.Description,
				InputSchema:  def.InputSchema,
				OutputSchema: def.OutputSchema,
				Annotations:  def.Annotations,
			},
			Namespace: r.name,
			Tags:      model.NormalizeTags(def.Tags),
		})
	}
	return out, nil
}

// Invoke runs the named tool handler. It implements the orchestrator's
// ToolInvoker contract.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (any, error) {
	r.mu.RLock()
	def, ok := r.handlers[name]
	r.mu.RUnlock()

	if !ok || def.Handler == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return def.Handler(ctx, args)
}
