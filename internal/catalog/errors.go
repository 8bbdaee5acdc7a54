// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ManuGH/vodplay/internal/resilience"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrNotFound    = errors.New("catalog: resource not found")
	ErrNetwork     = errors.New("catalog: backend unreachable or failing")
	ErrBadResponse = errors.New("catalog: invalid response format or malformed data")
	ErrCircuitOpen = errors.New("catalog: backend circuit open")
)

// RequestError wraps a sentinel with the context of the failed backend call.
type RequestError struct {
	Sentinel  error
	Operation string
	Status    int
	Body      string
	Err       error
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("catalog: %s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RequestError) Unwrap() error {
	return e.Sentinel
}

const maxErrorBody = 256

// wrapError classifies a transport error or HTTP status into a RequestError.
// Caller cancellation is returned wrapped but unclassified.
func wrapError(op string, err error, status int, body []byte) error {
	if err != nil && errors.Is(err, context.Canceled) {
		return fmt.Errorf("catalog: %s: %w", op, err)
	}

	re := &RequestError{Operation: op, Status: status, Err: err}
	if len(body) > 0 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		re.Body = string(body)
	}

	switch {
	case err != nil && errors.Is(err, resilience.ErrCircuitOpen):
		re.Sentinel = ErrCircuitOpen
	case err != nil && status == 0:
		// Transport failures, timeouts included.
		re.Sentinel = ErrNetwork
	case status == http.StatusNotFound:
		re.Sentinel = ErrNotFound
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		re.Sentinel = ErrNetwork
	default:
		re.Sentinel = ErrBadResponse
	}
	return re
}

// IsTransient reports whether err is a backend failure a user may retry
// by navigating again, as opposed to a missing resource.
func IsTransient(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrBadResponse) || errors.Is(err, ErrCircuitOpen)
}

// countsAsFailure decides which errors trip the backend circuit breaker.
func countsAsFailure(err error) bool {
	return errors.Is(err, ErrNetwork)
}
