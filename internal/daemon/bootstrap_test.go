// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/vodplay/internal/cache"
	"github.com/ManuGH/vodplay/internal/config"
	"github.com/ManuGH/vodplay/internal/health"
	"github.com/ManuGH/vodplay/internal/player"
	"github.com/ManuGH/vodplay/internal/session"
)

// blockingProcess plays until stopped.
type blockingProcess struct {
	once sync.Once
	done chan struct{}
}

func (p *blockingProcess) Wait() error {
	<-p.done
	return nil
}

func (p *blockingProcess) Stop(time.Duration) error {
	p.once.Do(func() { close(p.done) })
	return nil
}

type fakeRunner struct {
	started atomic.Int32
	last    atomic.Pointer[[]string]
}

func (r *fakeRunner) Start(_ context.Context, name string, args ...string) (player.Process, error) {
	r.started.Add(1)
	full := append([]string{name}, args...)
	r.last.Store(&full)
	return &blockingProcess{done: make(chan struct{})}, nil
}

type testBackend struct {
	plays atomic.Int32
}

func (b *testBackend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/video/5", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"id":5,"title":"Show","cover":"/c.jpg","category":"Drama","category_id":3,`+
			`"playlist":[{"id":2,"title":"2","src":"b.mp4"},{"id":1,"title":"1","src":"a.mp4"}]}`)
	})
	mux.HandleFunc("GET /api/video/5/recommend", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"id":6,"title":"Other"}]`)
	})
	mux.HandleFunc("GET /api/category", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"id":3,"name":"Drama"}]`)
	})
	mux.HandleFunc("GET /api/video/category", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data":[{"id":7,"title":"Same"}],"total":1}`)
	})
	mux.HandleFunc("POST /api/history", func(w http.ResponseWriter, _ *http.Request) {
		b.plays.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func newTestApp(t *testing.T, mutate func(*config.AppConfig)) (*App, *fakeRunner, *testBackend) {
	t.Helper()
	backend := &testBackend{}
	srv := httptest.NewServer(backend.handler(t))
	t.Cleanup(srv.Close)

	cfg := config.Defaults()
	cfg.Backend.BaseURL = srv.URL + "/api/"
	cfg.Backend.Retries = 0
	cfg.History.DSN = filepath.Join(t.TempDir(), "history.sqlite")
	cfg.Player.IPCDir = t.TempDir()
	cfg.Playback.AttachSettleDelay = 0
	if mutate != nil {
		mutate(&cfg)
	}
	holder := config.NewConfigHolder(cfg, config.NewLoader("", "test"), "")

	runner := &fakeRunner{}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	app, err := Build(ctx, holder, Options{Version: "test", HTTPClient: srv.Client(), Runner: runner, SkipTelemetry: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = app.Controller.Exit(context.Background())
		_ = app.Close(context.Background())
	})
	return app, runner, backend
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, rd)
	req.RemoteAddr = "127.0.0.1:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBuild_DetailPage(t *testing.T) {
	app, _, _ := newTestApp(t, nil)

	rec := do(t, app.Server.Handler(), http.MethodGet, "/api/videos/5", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var page struct {
		Video struct {
			Title    string `json:"title"`
			Playlist []struct {
				ID  int64  `json:"id"`
				Src string `json:"src"`
			} `json:"playlist"`
		} `json:"video"`
		Recommended []json.RawMessage `json:"recommended"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, "Show", page.Video.Title)
	require.Len(t, page.Video.Playlist, 2)
	assert.Equal(t, int64(1), page.Video.Playlist[0].ID, "playlist is sorted")
	assert.Contains(t, page.Video.Playlist[0].Src, "/api/a.mp4", "sources are absolute")
	assert.Len(t, page.Recommended, 1)
}

func TestBuild_SessionLifecycle(t *testing.T) {
	app, runner, _ := newTestApp(t, nil)
	h := app.Server.Handler()

	rec := do(t, h, http.MethodPut, "/api/session", map[string]int64{"videoId": 5, "playId": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, session.StatePlaying, app.Controller.State())
	assert.EqualValues(t, 1, runner.started.Load())
	assert.Equal(t, "Show - 1", app.Shell.Title())
	args := *runner.last.Load()
	assert.Contains(t, args[len(args)-1], "/api/a.mp4")

	rec = do(t, h, http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var snap struct {
		State string `json:"state"`
		Route struct {
			VideoID int64 `json:"videoId"`
			PlayID  int64 `json:"playId"`
		} `json:"route"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "playing", snap.State)
	assert.EqualValues(t, 5, snap.Route.VideoID)
	assert.EqualValues(t, 1, snap.Route.PlayID)

	rec = do(t, h, http.MethodDelete, "/api/session", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, session.StateTornDown, app.Controller.State())
}

func TestBuild_HealthCheckers(t *testing.T) {
	app, _, _ := newTestApp(t, nil)
	resp := app.Health.Ready(context.Background())
	assert.True(t, resp.Ready)
	assert.Equal(t, health.StatusHealthy, resp.Checks["backend"].Status)
	assert.Contains(t, resp.Checks, "history")
	assert.NotContains(t, resp.Checks, "cache", "memory cache has no checker")
	_, isMemory := app.Cache.(*cache.MemoryCache)
	assert.True(t, isMemory)
}

func TestBuild_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	app, _, _ := newTestApp(t, func(cfg *config.AppConfig) {
		cfg.Cache.RedisAddr = mr.Addr()
		cfg.History.DSN = ""
		cfg.History.Remote = false
	})
	resp := app.Health.Ready(context.Background())
	assert.Equal(t, health.StatusHealthy, resp.Checks["cache"].Status)
	assert.NotContains(t, resp.Checks, "history")
	assert.Nil(t, app.History)

	rec := do(t, app.Server.Handler(), http.MethodGet, "/api/history", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestBuild_ManagerServes(t *testing.T) {
	app, _, _ := newTestApp(t, nil)
	m, err := app.Manager("127.0.0.1:0", time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()
	<-m.Ready()

	resp, err := http.Get("http://" + m.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	require.NoError(t, <-done)
}

func TestHistorySink(t *testing.T) {
	assert.Nil(t, historySink(nil, nil, false))
	sink := historySink(nil, nil, true)
	require.NotNil(t, sink)
	assert.Len(t, sink, 1)
}
