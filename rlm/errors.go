package rlm

import "fmt"

// DepthError is returned by Delegate when a child agent would exceed
// Config.MaxDepth. Scripts can catch it.
type DepthError struct {
	Depth    int
	MaxDepth int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("maximum recursion depth (%d) reached", e.MaxDepth)
}

// Recoverable marks the error as catchable inside the sandbox.
func (e *DepthError) Recoverable() bool { return true }
