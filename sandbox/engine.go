package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/jonwraymond/tooldiscovery/tooldoc"

	"github.com/jonwraymond/codecall/isolate"
	"github.com/jonwraymond/codecall/refs"
)

// defaultSearchLimit caps searchTools results when the script passes no
// limit.
const defaultSearchLimit = 10

// errDeadline is the interrupt value installed by the watchdog.
var errDeadline = errors.New("execution deadline reached")

// toolFault records the most recent error thrown out of callTool so the
// outcome mapping can distinguish tool failures from ordinary script
// throws. Identity of the thrown value is compared, so a fault the script
// caught and recovered from never misclassifies a later throw.
type toolFault struct {
	tool    string
	message string
	thrown  goja.Value
}

// session holds the per-execution state: one engine instance, its
// isolation wrapper, the reference resolver, and the captured logs and
// tool call trace. Sessions are single-use and never shared.
type session struct {
	exec      *Executor
	vm        *goja.Runtime
	wrapper   *isolate.Wrapper
	resolver  *refs.Resolver
	runCtx    context.Context
	allowed   map[string]bool
	logs      []string
	toolCalls []ToolCallRecord
	fault     *toolFault
}

func (e *Executor) newSession(runCtx context.Context, opts ExecuteOptions) *session {
	vm := goja.New()
	vm.SetMaxCallStackSize(e.cfg.MaxCallStack)
	isolate.HardenRuntime(vm)

	s := &session{
		exec:     e,
		vm:       vm,
		wrapper:  isolate.NewWrapper(vm, e.cfg.Isolation),
		resolver: refs.NewResolver(e.cfg.Sidecar, e.cfg.Refs),
		runCtx:   runCtx,
	}
	if opts.AllowedTools != nil {
		s.allowed = make(map[string]bool, len(opts.AllowedTools))
		for _, name := range opts.AllowedTools {
			s.allowed[name] = true
		}
	}

	for name, v := range s.wrapper.WrapAll(isolate.SecureStandardLibrary()) {
		_ = vm.Set(name, v)
	}
	for name, v := range s.wrapper.WrapAll(e.cfg.Globals) {
		_ = vm.Set(name, v)
	}

	scriptCtx := opts.Context
	if scriptCtx == nil {
		scriptCtx = map[string]any{}
	}
	_ = vm.Set("codecallContext", s.wrapper.WrapFrozen(scriptCtx))

	s.installConsole()
	_ = vm.Set("callTool", s.callTool)
	_ = vm.Set("createComposite", s.createComposite)
	if e.cfg.Index != nil {
		_ = vm.Set("searchTools", s.searchTools)
	}
	if e.cfg.Docs != nil {
		_ = vm.Set("describeTool", s.describeTool)
	}
	return s
}

// run compiles and executes code under the session's deadline, then maps
// the engine outcome onto the closed status set.
func (s *session) run(code string, timeout time.Duration) Result {
	prog, err := goja.Compile("script.js", code, false)
	if err != nil {
		// Validation already parsed the source, so this only fires when a
		// transform or custom rule produced broken output.
		return s.failure(StatusRuntimeError, SourceScript, err.Error())
	}

	// The watchdog fires on deadline or caller cancellation. Interrupt is
	// checked by the engine between instructions, so a script stuck in a
	// native tool call is abandoned when that call returns.
	done := make(chan struct{})
	go func() {
		select {
		case <-s.runCtx.Done():
			s.vm.Interrupt(errDeadline)
		case <-done:
		}
	}()

	value, runErr := s.vm.RunProgram(prog)
	close(done)

	return s.mapOutcome(value, runErr, timeout)
}

func (s *session) mapOutcome(value goja.Value, runErr error, timeout time.Duration) Result {
	// The deadline wins the race against completion even when the engine
	// finished before noticing the interrupt, which happens when the
	// budget expires inside a blocking tool call.
	deadlineHit := errors.Is(s.runCtx.Err(), context.DeadlineExceeded)

	if runErr == nil && !deadlineHit {
		result := s.failure(StatusOK, "", "")
		result.Value = normalizeExport(exportValue(value))
		return result
	}

	var interrupted *goja.InterruptedError
	if runErr == nil || errors.As(runErr, &interrupted) || deadlineHit {
		message := fmt.Sprintf("execution timed out after %v", timeout)
		if !deadlineHit {
			message = "execution canceled"
		}
		return s.failure(StatusTimeout, "", message)
	}

	var ex *goja.Exception
	if errors.As(runErr, &ex) {
		if s.fault != nil && ex.Value() == s.fault.thrown {
			result := s.failure(StatusToolError, SourceTool, s.fault.message)
			result.ToolName = s.fault.tool
			return result
		}
		return s.failure(StatusRuntimeError, SourceScript, exceptionMessage(ex))
	}

	return s.failure(StatusRuntimeError, SourceScript, runErr.Error())
}

// failure assembles a Result carrying the session's captured logs and tool
// call trace. Status ok reuses it with empty source and message.
func (s *session) failure(status Status, source, message string) Result {
	return Result{
		Status:    status,
		Source:    source,
		Message:   message,
		Logs:      s.logs,
		ToolCalls: s.toolCalls,
	}
}

// callTool is the gated tool binding. Policy checks run in order: the
// allowlist first, then the predictive size check, then resolution; only
// arguments that pass all three reach the real invoker.
func (s *session) callTool(call goja.FunctionCall) goja.Value {
	nameVal := call.Argument(0)
	if goja.IsUndefined(nameVal) || goja.IsNull(nameVal) {
		panic(s.vm.NewTypeError("callTool requires a tool name"))
	}
	name := nameVal.String()
	args := s.exportArgs(call.Argument(1))

	if s.allowed != nil && !s.allowed[name] {
		s.rejectTool(name, nil, fmt.Sprintf("tool %q is not in allowedTools", name))
	}

	if s.resolver.WouldExceedLimit(args) {
		s.rejectTool(name, nil, "arguments exceed the resolved size limit")
	}
	resolved := args
	if s.resolver.ContainsReferences(args) {
		expanded, err := s.resolver.Resolve(args)
		if err != nil {
			s.rejectTool(name, nil, err.Error())
		}
		resolved = expanded.(map[string]any)
	}

	record := ToolCallRecord{ToolName: name, Args: resolved}
	start := time.Now()
	out, err := s.exec.cfg.Invoker.Invoke(s.runCtx, name, resolved)
	record.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		record.Error = err.Error()
		s.toolCalls = append(s.toolCalls, record)
		s.throwTool(name, err.Error())
	}
	s.toolCalls = append(s.toolCalls, record)

	return s.wrapper.Wrap(out)
}

// rejectTool records a policy rejection in the trace and throws. The real
// tool is never reached.
func (s *session) rejectTool(name string, args map[string]any, message string) {
	s.toolCalls = append(s.toolCalls, ToolCallRecord{
		ToolName: name,
		Args:     args,
		Error:    message,
	})
	s.throwTool(name, message)
}

// throwTool throws a tagged error out of callTool so the outcome mapping
// yields tool_error instead of runtime_error.
func (s *session) throwTool(name, message string) {
	thrown := s.vm.NewGoError(errors.New(message))
	s.fault = &toolFault{tool: name, message: message, thrown: thrown}
	panic(thrown)
}

// createComposite lets a script combine reference handles without pulling
// their payloads into the sandbox. The combined size is checked against
// the resolver's limits before anything is concatenated; a violation
// surfaces through the tool_error mapping, the same as a callTool policy
// failure.
func (s *session) createComposite(call goja.FunctionCall) goja.Value {
	exported := normalizeExport(exportValue(call.Argument(0)))
	arr, ok := exported.([]any)
	if !ok {
		panic(s.vm.NewTypeError("createComposite requires an array of strings"))
	}
	parts := make([]string, len(arr))
	for i, part := range arr {
		str, ok := part.(string)
		if !ok {
			panic(s.vm.NewTypeError("createComposite parts must be strings"))
		}
		parts[i] = str
	}

	out, err := s.resolver.CreateComposite(parts)
	if err != nil {
		s.throwTool("createComposite", err.Error())
	}
	return s.wrapper.Wrap(out)
}

// searchTools exposes tool discovery to scripts when an index is
// configured.
func (s *session) searchTools(call goja.FunctionCall) goja.Value {
	query := call.Argument(0).String()
	limit := int(call.Argument(1).ToInteger())
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	results, err := s.exec.cfg.Index.Search(query, limit)
	if err != nil {
		panic(s.vm.NewGoError(err))
	}
	return s.wrapper.Wrap(results)
}

// describeTool exposes full tool documentation to scripts when a doc
// store is configured.
func (s *session) describeTool(call goja.FunctionCall) goja.Value {
	id := call.Argument(0).String()
	doc, err := s.exec.cfg.Docs.DescribeTool(id, tooldoc.DetailFull)
	if err != nil {
		panic(s.vm.NewGoError(err))
	}
	return s.wrapper.Wrap(doc)
}

// installConsole captures console output into the session's log buffer.
func (s *session) installConsole() {
	console := s.vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error"} {
		_ = console.Set(level, func(call goja.FunctionCall) goja.Value {
			s.logs = append(s.logs, formatLogLine(call.Arguments))
			return goja.Undefined()
		})
	}
	_ = s.vm.Set("console", console)
}

// exceptionMessage extracts the thrown value's message without engine
// stack internals.
func exceptionMessage(ex *goja.Exception) string {
	if v := ex.Value(); v != nil {
		return v.String()
	}
	return ex.Error()
}

func formatLogLine(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	return strings.Join(parts, " ")
}

// exportArgs converts the script-side arguments value to a plain Go map,
// unwrapping any isolation proxies that crossed back over the boundary.
func (s *session) exportArgs(v goja.Value) map[string]any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return map[string]any{}
	}
	exported := normalizeExport(v.Export())
	m, ok := exported.(map[string]any)
	if !ok {
		panic(s.vm.NewTypeError("callTool arguments must be an object"))
	}
	return m
}

func exportValue(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}

// normalizeExport strips isolation proxies from an exported value tree so
// callers see plain Go values rather than engine-bound wrappers.
func normalizeExport(v any) any {
	switch t := v.(type) {
	case isolate.Unwrapper:
		return normalizeExport(t.Unwrap())
	case map[string]any:
		for k, vv := range t {
			t[k] = normalizeExport(vv)
		}
		return t
	case []any:
		for i, vv := range t {
			t[i] = normalizeExport(vv)
		}
		return t
	default:
		return v
	}
}
