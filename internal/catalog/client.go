// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package catalog talks to the video backend and owns the current video detail.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/ManuGH/vodplay/internal/metrics"
	"github.com/ManuGH/vodplay/internal/model"
	"github.com/ManuGH/vodplay/internal/resilience"
	"github.com/ManuGH/vodplay/internal/telemetry"
)

// Options configures a backend Client.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	Retries           int
	RetryDelay        time.Duration
	RequestsPerSecond float64
	Burst             int
	BreakerThreshold  int
	BreakerReset      time.Duration
	UserAgent         string
	// HTTPClient overrides the instrumented default client.
	HTTPClient *http.Client
}

const (
	defaultTimeout    = 10 * time.Second
	defaultRetryDelay = 200 * time.Millisecond
	defaultMaxDelay   = 2 * time.Second
	defaultRPS        = 20
	defaultBurst      = 40
	maxResponseBody   = 8 << 20
)

func normalizeOptions(opts Options) Options {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaultRPS
	}
	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = "vodplay"
	}
	return opts
}

// Client is the HTTP client of the video backend. Paths are relative to BaseURL.
type Client struct {
	base       string
	http       *http.Client
	limiter    *rate.Limiter
	breaker    *resilience.CircuitBreaker
	retries    int
	retryDelay time.Duration
	userAgent  string
	tracer     trace.Tracer
}

// NewClient creates a backend client.
func NewClient(opts Options) *Client {
	nopts := normalizeOptions(opts)

	hc := nopts.HTTPClient
	if hc == nil {
		transport := &http.Transport{
			MaxIdleConns:          50,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			ResponseHeaderTimeout: nopts.Timeout,
			TLSHandshakeTimeout:   5 * time.Second,
		}
		hc = &http.Client{
			Timeout:   nopts.Timeout,
			Transport: otelhttp.NewTransport(transport),
		}
	}

	return &Client{
		base:       strings.TrimRight(strings.TrimSpace(nopts.BaseURL), "/"),
		http:       hc,
		limiter:    rate.NewLimiter(rate.Limit(nopts.RequestsPerSecond), nopts.Burst),
		breaker:    resilience.NewCircuitBreaker("backend", nopts.BreakerThreshold, nopts.BreakerReset, resilience.WithFailurePredicate(countsAsFailure)),
		retries:    nopts.Retries,
		retryDelay: nopts.RetryDelay,
		userAgent:  nopts.UserAgent,
		tracer:     telemetry.Tracer("vodplay.catalog"),
	}
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string { return c.base }

// BreakerState exposes the backend circuit state.
func (c *Client) BreakerState() resilience.State { return c.breaker.State() }

// VideoDetail fetches a raw, unnormalized video detail.
func (c *Client) VideoDetail(ctx context.Context, id int64) (*model.VideoDetail, error) {
	var out model.VideoDetail
	err := c.do(ctx, request{
		op:     "video_detail",
		method: http.MethodGet,
		path:   "video/" + strconv.FormatInt(id, 10),
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Recommend fetches the home recommendation page.
func (c *Client) Recommend(ctx context.Context, page int) (model.Page[model.Video], error) {
	var out model.Page[model.Video]
	err := c.do(ctx, request{
		op:     "recommend",
		method: http.MethodGet,
		path:   "video/recommend",
		query:  url.Values{"page": {pageParam(page)}},
		out:    &out,
	})
	return out, err
}

// RecommendFor fetches videos recommended next to videoID.
func (c *Client) RecommendFor(ctx context.Context, videoID int64) ([]model.Video, error) {
	var out listOrPage[model.Video]
	err := c.do(ctx, request{
		op:     "recommend_for",
		method: http.MethodGet,
		path:   "video/" + strconv.FormatInt(videoID, 10) + "/recommend",
		out:    &out,
	})
	return out, err
}

// CategoryVideos fetches one page of a named category.
func (c *Client) CategoryVideos(ctx context.Context, category string, page int) (model.Page[model.Video], error) {
	var out model.Page[model.Video]
	err := c.do(ctx, request{
		op:     "category_videos",
		method: http.MethodGet,
		path:   "video/category",
		query:  url.Values{"category": {category}, "page": {pageParam(page)}},
		out:    &out,
	})
	return out, err
}

// Search fetches one page of search results.
func (c *Client) Search(ctx context.Context, keywords string, page int) (model.Page[model.Video], error) {
	var out model.Page[model.Video]
	err := c.do(ctx, request{
		op:     "search",
		method: http.MethodGet,
		path:   "video/search",
		query:  url.Values{"keywords": {keywords}, "page": {pageParam(page)}},
		out:    &out,
	})
	return out, err
}

// Categories fetches the category list used to resolve category ids.
func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	var out listOrPage[model.Category]
	err := c.do(ctx, request{
		op:     "categories",
		method: http.MethodGet,
		path:   "category",
		out:    &out,
	})
	return out, err
}

// PostReport submits a playback error report. Text is sent as given.
func (c *Client) PostReport(ctx context.Context, r model.Report) (model.Ack, error) {
	var body ackBody
	err := c.do(ctx, request{
		op:          "report",
		method:      http.MethodPost,
		path:        "video/report",
		body:        r,
		out:         &body,
		emptyBodyOK: true,
	})
	if err != nil {
		return model.Ack{}, err
	}
	return model.Ack{OK: true, Message: body.Message}, nil
}

// PostPlayLog records a play with the backend history.
func (c *Client) PostPlayLog(ctx context.Context, videoID, entryID int64) error {
	return c.do(ctx, request{
		op:     "play_log",
		method: http.MethodPost,
		path:   "history",
		body: struct {
			VideoID int64 `json:"videoId"`
			PlayID  int64 `json:"playId"`
		}{videoID, entryID},
		emptyBodyOK: true,
	})
}

type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        any
	out         any
	emptyBodyOK bool
}

func (c *Client) do(ctx context.Context, req request) error {
	ctx, span := c.tracer.Start(ctx, "vodplay.catalog."+req.op, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String(telemetry.OperationKey, req.op),
		attribute.String(telemetry.HTTPMethodKey, req.method),
		attribute.String(telemetry.HTTPRouteKey, req.path),
	)
	defer span.End()

	var payload []byte
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("catalog: %s: encode body: %w", req.op, err)
		}
		payload = raw
	}

	start := time.Now()
	attempt := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return wrapError(req.op, err, 0, nil)
		}
		err := c.breaker.Execute(func() error {
			return c.send(ctx, req, payload)
		})
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return wrapError(req.op, err, 0, nil)
		}
		return err
	}

	var err error
	if req.method == http.MethodGet && c.retries > 0 {
		err = retry.Do(attempt,
			retry.Context(ctx),
			retry.Attempts(uint(c.retries+1)),
			retry.Delay(c.retryDelay),
			retry.MaxDelay(defaultMaxDelay),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
			retry.RetryIf(func(err error) bool { return errors.Is(err, ErrNetwork) }),
			retry.OnRetry(func(_ uint, _ error) { metrics.RecordBackendRetry(req.op) }),
		)
	} else {
		err = attempt()
	}

	metrics.ObserveBackendRequest(req.op, outcome(err), time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(telemetry.ErrorAttributes(outcome(err))...)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (c *Client) send(ctx context.Context, req request, payload []byte) error {
	target := c.base + "/" + strings.TrimLeft(req.path, "/")
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return fmt.Errorf("catalog: %s: build request: %w", req.op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return wrapError(req.op, err, 0, nil)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return wrapError(req.op, err, 0, nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return wrapError(req.op, nil, resp.StatusCode, raw)
	}
	if req.out == nil {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		if req.emptyBodyOK {
			return nil
		}
		return wrapError(req.op, errors.New("empty response body"), resp.StatusCode, nil)
	}
	if err := json.Unmarshal(raw, req.out); err != nil {
		if req.emptyBodyOK {
			return nil
		}
		return wrapError(req.op, err, resp.StatusCode, nil)
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrBadResponse):
		return "bad_response"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

func pageParam(page int) string {
	if page < 1 {
		page = 1
	}
	return strconv.Itoa(page)
}

type ackBody struct {
	Message string `json:"message"`
}

// listOrPage decodes either a bare JSON array or a page envelope.
type listOrPage[T any] []T

func (l *listOrPage[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var page model.Page[T]
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return err
	}
	*l = page.Data
	return nil
}
