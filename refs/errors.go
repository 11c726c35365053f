package refs

import (
	"errors"
	"fmt"
)

// Sentinel errors for error classification.
var (
	// ErrUnknownReference indicates a reference id with no sidecar entry.
	ErrUnknownReference = errors.New("unknown reference")

	// ErrCompositesDisabled indicates a composite was requested while
	// composites are disabled by configuration.
	ErrCompositesDisabled = errors.New("composites disabled")

	// ErrLimitExceeded indicates a resolution limit was reached, either
	// the maximum traversal depth or the maximum resolved size.
	ErrLimitExceeded = errors.New("resolution limit exceeded")
)

// LimitCode identifies which resolution limit was exceeded.
type LimitCode string

// Limit codes carried by LimitError.
const (
	CodeMaxResolutionDepth LimitCode = "MAX_RESOLUTION_DEPTH"
	CodeMaxResolvedSize    LimitCode = "MAX_RESOLVED_SIZE"
)

// LimitError reports an exceeded resolution limit with its code.
type LimitError struct {
	// Code identifies the limit that was exceeded.
	Code LimitCode

	// Message describes the failure.
	Message string
}

// Error returns the error message.
func (e *LimitError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether this error matches the target.
// LimitError matches ErrLimitExceeded for sentinel-style checking.
func (e *LimitError) Is(target error) bool {
	return target == ErrLimitExceeded
}
