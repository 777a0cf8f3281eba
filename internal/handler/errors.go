package handler

import "fmt"

// UnauthorizedError is returned whenever a request is rejected. Every rejection produces the same
// response, the reason is only surfaced to the operator logs.
type UnauthorizedError struct {
	Reason string
	Err    error
}

func (e *UnauthorizedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unauthorized: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("unauthorized: %s", e.Reason)
}

func (e *UnauthorizedError) Unwrap() error {
	return e.Err
}
