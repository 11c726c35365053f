package sandbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/tooldoc"
	"github.com/jonwraymond/toolfoundation/model"
)

// mockInvoker implements ToolInvoker for testing.
type mockInvoker struct {
	mu sync.Mutex

	// Configurable returns, keyed by tool name. A nil handlers map makes
	// every invocation succeed with the result field.
	handlers map[string]func(args map[string]any) (any, error)
	result   any
	err      error

	// Call tracking
	calls []invokeCall
}

type invokeCall struct {
	name string
	args map[string]any
}

func (m *mockInvoker) Invoke(ctx context.Context, name string, args map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.calls = append(m.calls, invokeCall{name, args})
	handler := m.handlers[name]
	m.mu.Unlock()

	if handler != nil {
		return handler(args)
	}
	return m.result, m.err
}

func (m *mockInvoker) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockLogger implements Logger for testing.
type mockLogger struct {
	mu    sync.Mutex
	lines []string
}

func (m *mockLogger) Logf(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, fmt.Sprintf(format, args...))
}

// mockIndex implements index.Index for testing.
type mockIndex struct {
	mu sync.Mutex

	// Configurable returns
	searchResult []index.Summary
	searchErr    error

	// Call tracking
	searchCalls []searchCall
}

type searchCall struct {
	query string
	limit int
}

func (m *mockIndex) Search(query string, limit int) ([]index.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls = append(m.searchCalls, searchCall{query, limit})
	return m.searchResult, m.searchErr
}

func (m *mockIndex) SearchPage(query string, limit int, _ string) ([]index.Summary, string, error) {
	results, err := m.Search(query, limit)
	return results, "", err
}

func (m *mockIndex) ListNamespaces() ([]string, error) {
	return nil, nil
}

func (m *mockIndex) ListNamespacesPage(int, string) ([]string, string, error) {
	return nil, "", nil
}

func (m *mockIndex) GetTool(string) (model.Tool, model.ToolBackend, error) {
	return model.Tool{}, model.ToolBackend{}, nil
}

func (m *mockIndex) GetAllBackends(string) ([]model.ToolBackend, error) {
	return nil, nil
}

func (m *mockIndex) RegisterTool(model.Tool, model.ToolBackend) error {
	return nil
}

func (m *mockIndex) RegisterTools([]index.ToolRegistration) error {
	return nil
}

func (m *mockIndex) RegisterToolsFromMCP(string, []model.Tool) error {
	return nil
}

func (m *mockIndex) UnregisterBackend(string, model.BackendKind, string) error {
	return nil
}

// mockStore implements tooldoc.Store for testing.
type mockStore struct {
	mu sync.Mutex

	// Configurable returns
	describeResult tooldoc.ToolDoc
	describeErr    error

	// Call tracking
	describeCalls []describeCall
}

type describeCall struct {
	id    string
	level tooldoc.DetailLevel
}

func (m *mockStore) DescribeTool(id string, level tooldoc.DetailLevel) (tooldoc.ToolDoc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.describeCalls = append(m.describeCalls, describeCall{id, level})
	return m.describeResult, m.describeErr
}

func (m *mockStore) ListExamples(string, int) ([]tooldoc.ToolExample, error) {
	return nil, nil
}
