package sandbox

import (
	"context"
	"time"

	"github.com/jonwraymond/codecall/validate"
)

// Executor runs untrusted scripts in isolated engine instances.
//
// Contract:
// - Concurrency: safe for concurrent use; every call builds its own engine
//   and wrapper, and only the Sidecar is shared across calls.
// - Context: Execute honors cancellation/deadlines; expiry maps to a
//   timeout result, never a Go error.
// - Errors: script and tool failures are reported through Result.Status;
//   a panicking custom rule is a host bug and propagates as a panic.
// - Ownership: the returned Result is a caller-owned snapshot.
type Executor struct {
	cfg Config
}

// NewExecutor creates an Executor with the given configuration.
// Returns ErrConfiguration if any required field is missing or the
// validation options are malformed.
func NewExecutor(cfg Config) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	// Reject malformed rule or transform configuration now rather than on
	// the first Execute call.
	if _, err := validate.Validate("", cfg.Validation); err != nil {
		return nil, err
	}
	return &Executor{cfg: cfg}, nil
}

// Execute runs script with the given options and maps the outcome onto the
// closed Status set. It never returns a Go error: validation failures,
// script throws, tool rejections, and timeouts all arrive as Results.
func (e *Executor) Execute(ctx context.Context, script string, opts ExecuteOptions) Result {
	start := time.Now()
	result := e.execute(ctx, script, opts)
	result.DurationMs = time.Since(start).Milliseconds()

	if e.cfg.Logger != nil {
		e.cfg.Logger.Logf("execution finished: status=%s toolCalls=%d durationMs=%d",
			result.Status, len(result.ToolCalls), result.DurationMs)
	}
	return result
}

func (e *Executor) execute(ctx context.Context, script string, opts ExecuteOptions) Result {
	vr, err := validate.Validate(script, e.cfg.Validation)
	if err != nil {
		// NewExecutor vetted the options, so this is a panicking rule: a
		// host bug, not a script failure.
		panic(err)
	}
	if !vr.Valid {
		return Result{
			Status:  StatusIllegalAccess,
			Kind:    KindIllegalBuiltinAccess,
			Message: firstErrorMessage(vr.Issues),
			Source:  SourceScript,
			Issues:  vr.Issues,
		}
	}

	code := script
	if vr.TransformedCode != "" {
		code = vr.TransformedCode
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = e.cfg.DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s := e.newSession(runCtx, opts)
	result := s.run(code, timeout)
	result.Issues = vr.Issues
	return result
}

// firstErrorMessage returns the message of the first Error-severity issue.
func firstErrorMessage(issues []validate.Issue) string {
	for _, issue := range issues {
		if issue.Severity == validate.SeverityError {
			return issue.Message
		}
	}
	return "validation failed"
}
