package protocol

import (
	"errors"
	"fmt"
)

// StatusError is a request failure that maps to an HTTP status
type StatusError struct {
	Code   int
	Reason string // what was wrong, for the local log only
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Code, ReasonPhrase(e.Code), e.Reason)
}

// errors for parsing
var (
	// peer closed before the request was complete; counts as 400 but there is nobody to answer
	ErrPrematureEOF = &StatusError{Code: 400, Reason: "connection closed before end of request"}

	errLineTooLong = &StatusError{Code: 400, Reason: "request line too long"}
)

func badRequest(reason string) error {
	return &StatusError{Code: 400, Reason: reason}
}

func notImplemented(reason string) error {
	return &StatusError{Code: 501, Reason: reason}
}

// StatusOf is the status code err stands for, 500 when it is not a StatusError
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 500
}
