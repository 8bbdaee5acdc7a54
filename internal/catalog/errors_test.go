// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package catalog

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/vodplay/internal/resilience"
)

func TestWrapError_Sentinels(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		status   int
		sentinel error
	}{
		{name: "HTTP 404", status: http.StatusNotFound, sentinel: ErrNotFound},
		{name: "HTTP 500", status: http.StatusInternalServerError, sentinel: ErrNetwork},
		{name: "HTTP 503", status: http.StatusServiceUnavailable, sentinel: ErrNetwork},
		{name: "HTTP 429", status: http.StatusTooManyRequests, sentinel: ErrNetwork},
		{name: "HTTP 400", status: http.StatusBadRequest, sentinel: ErrBadResponse},
		{name: "Network Timeout", err: &net.DNSError{IsTimeout: true}, sentinel: ErrNetwork},
		{name: "Context Timeout", err: context.DeadlineExceeded, sentinel: ErrNetwork},
		{name: "Malformed JSON", err: errors.New("unexpected EOF"), status: http.StatusOK, sentinel: ErrBadResponse},
		{name: "Circuit open", err: resilience.ErrCircuitOpen, sentinel: ErrCircuitOpen},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := wrapError("test", tc.err, tc.status, nil)
			require.ErrorIs(t, wrapped, tc.sentinel)

			var reqErr *RequestError
			require.ErrorAs(t, wrapped, &reqErr)
			assert.Equal(t, "test", reqErr.Operation)
			assert.Equal(t, tc.status, reqErr.Status)
		})
	}
}

func TestWrapError_CanceledPassesThrough(t *testing.T) {
	err := wrapError("detail", context.Canceled, 0, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrNetwork)
	assert.False(t, countsAsFailure(err))
}

func TestWrapError_BodyTruncated(t *testing.T) {
	body := []byte(strings.Repeat("x", 1000))
	err := wrapError("detail", nil, http.StatusBadGateway, body)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Len(t, reqErr.Body, maxErrorBody)
	assert.Contains(t, err.Error(), "(HTTP 502)")
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(wrapError("x", nil, 500, nil)))
	assert.True(t, IsTransient(wrapError("x", resilience.ErrCircuitOpen, 0, nil)))
	assert.False(t, IsTransient(wrapError("x", nil, 404, nil)))
	assert.False(t, IsTransient(nil))
}
