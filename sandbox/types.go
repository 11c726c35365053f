package sandbox

import (
	"time"

	"github.com/jonwraymond/codecall/validate"
)

// Status classifies the outcome of one execution. The set is closed:
// exactly one status applies per Execute call.
type Status string

// Execution outcomes.
const (
	// StatusOK means the script ran to completion; Result.Value holds the
	// exported completion value.
	StatusOK Status = "ok"

	// StatusRuntimeError means the script itself threw during execution,
	// not via callTool.
	StatusRuntimeError Status = "runtime_error"

	// StatusToolError means a real tool invocation rejected or a callTool
	// policy check failed (allowlist miss, reference limit, resolution).
	StatusToolError Status = "tool_error"

	// StatusIllegalAccess means validation found an Error-severity issue
	// and the script was never run.
	StatusIllegalAccess Status = "illegal_access"

	// StatusTimeout means execution exceeded the wall-clock budget.
	// Cancellation of the caller's context maps here too, with an
	// "execution canceled" message instead of the elapsed budget.
	StatusTimeout Status = "timeout"
)

// Failure origins reported in Result.Source.
const (
	SourceScript = "script"
	SourceTool   = "tool"
)

// KindIllegalBuiltinAccess is the kind reported for illegal_access results.
const KindIllegalBuiltinAccess = "IllegalBuiltinAccess"

// ExecuteOptions specifies the per-call parameters for Execute.
type ExecuteOptions struct {
	// AllowedTools restricts which tool names callTool may invoke.
	// Nil permits all tools; an empty non-nil slice permits none.
	AllowedTools []string `json:"allowedTools,omitempty"`

	// Context is exposed to the script as the read-only codecallContext
	// global. Attempted mutation from script code throws.
	Context map[string]any `json:"context,omitempty"`

	// Timeout overrides the executor's DefaultTimeout when positive.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// ToolCallRecord captures one callTool attempt, including attempts the
// policy gate rejected before the real tool was reached.
type ToolCallRecord struct {
	// ToolName is the name the script passed to callTool.
	ToolName string `json:"toolName"`

	// Args contains the resolved arguments forwarded to the tool. Empty
	// for attempts rejected before resolution.
	Args map[string]any `json:"args,omitempty"`

	// Error contains the failure message if the attempt did not succeed.
	Error string `json:"error,omitempty"`

	// DurationMs is the tool invocation time in milliseconds. Zero for
	// attempts that never reached the tool.
	DurationMs int64 `json:"durationMs"`
}

// Result is the outcome of one Execute call. Exactly one status branch
// fires per call; the zero value is not a valid result.
type Result struct {
	// Status classifies the outcome.
	Status Status `json:"status"`

	// Value is the exported completion value for ok results.
	Value any `json:"value,omitempty"`

	// Logs are the console lines captured during execution, in order.
	Logs []string `json:"logs,omitempty"`

	// Message is a human-readable description for failure results.
	Message string `json:"message,omitempty"`

	// ToolName identifies the failing tool for tool_error results.
	ToolName string `json:"toolName,omitempty"`

	// Source is "script" or "tool" for error results.
	Source string `json:"source,omitempty"`

	// Kind refines illegal_access results.
	Kind string `json:"kind,omitempty"`

	// Issues holds the validation findings, including warnings on
	// otherwise successful executions.
	Issues []validate.Issue `json:"issues,omitempty"`

	// ToolCalls records every callTool attempt in order.
	ToolCalls []ToolCallRecord `json:"toolCalls,omitempty"`

	// DurationMs is the total execution time in milliseconds.
	DurationMs int64 `json:"durationMs"`
}
