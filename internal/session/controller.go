// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/vodplay/internal/catalog"
	xglog "github.com/ManuGH/vodplay/internal/log"
	"github.com/ManuGH/vodplay/internal/metrics"
	"github.com/ManuGH/vodplay/internal/model"
	"github.com/ManuGH/vodplay/internal/player"
	"github.com/ManuGH/vodplay/internal/telemetry"
)

// DetailSource resolves video details, reusing the current one when ids match.
type DetailSource interface {
	Detail(ctx context.Context, id int64) (*model.VideoDetail, error)
}

// AdapterFactory builds an uninitialized adapter for a source.
type AdapterFactory interface {
	For(src string, cfg model.PlaybackEnvironmentConfig) (player.Adapter, error)
}

// HistorySink records completed plays.
type HistorySink interface {
	RecordPlay(ctx context.Context, videoID, entryID int64) error
}

// RateSink persists a user-chosen playback rate as the new default.
type RateSink interface {
	SetPlaybackRate(rate float64) error
}

// Deps are the collaborators of a Controller. Store, Players and Config are
// required.
type Deps struct {
	Store    DetailSource
	Players  AdapterFactory
	Config   func() model.PlaybackEnvironmentConfig
	Router   Router
	Shell    Shell
	History  HistorySink
	Rates    RateSink
	Location *time.Location
}

// Snapshot is the read-only projection of the current session.
type Snapshot struct {
	SessionID    string               `json:"sessionId,omitempty"`
	Epoch        uint64               `json:"epoch"`
	State        State                `json:"state"`
	VideoID      int64                `json:"videoId,omitempty"`
	PlayID       int64                `json:"playId,omitempty"`
	Detail       *model.VideoDetail   `json:"video,omitempty"`
	Entry        *model.PlaylistEntry `json:"entry,omitempty"`
	Info         []model.InfoItem     `json:"info,omitempty"`
	Title        string               `json:"title,omitempty"`
	Variant      player.Variant       `json:"variant,omitempty"`
	Notice       string               `json:"notice,omitempty"`
	DownloadLink string               `json:"downloadLink,omitempty"`
	Presentation *Presentation        `json:"presentation,omitempty"`
	Entered      bool                 `json:"entered"`
}

// Controller owns the single playback session of the process.
//
// Every async result and adapter callback carries the epoch it was started
// under and is discarded once a newer session exists.
type Controller struct {
	deps   Deps
	logger zerolog.Logger
	tracer trace.Tracer

	mu        sync.Mutex
	state     State
	epoch     uint64
	sessionID string
	videoID   int64
	playID    int64
	detail    *model.VideoDetail
	entry     *model.PlaylistEntry
	adapter   player.Adapter
	cfg       model.PlaybackEnvironmentConfig
	title     string
	notice    string
	recorded  bool

	entered bool
	saved   Presentation
}

// NewController returns an idle controller.
func NewController(deps Deps) *Controller {
	if deps.Location == nil {
		deps.Location = time.Local
	}
	return &Controller{
		deps:   deps,
		logger: xglog.WithComponent("session"),
		tracer: otel.Tracer("vodplay/session"),
		state:  StateIdle,
	}
}

// Enter activates the play route: it captures the presentation, switches it
// to playback mode and starts a session for videoID/playID.
func (c *Controller) Enter(ctx context.Context, videoID, playID int64) error {
	return c.start(ctx, videoID, playID)
}

// Navigate changes the play parameters. On a route that is not entered yet
// it behaves like Enter.
func (c *Controller) Navigate(ctx context.Context, videoID, playID int64) error {
	return c.start(ctx, videoID, playID)
}

func (c *Controller) start(ctx context.Context, videoID, playID int64) error {
	c.mu.Lock()
	cfg := c.deps.Config().Clone()
	if !c.entered {
		c.enterPresentationLocked(cfg)
	}
	if _, err := c.dispatchLocked(EvLoad); err != nil {
		c.mu.Unlock()
		return err
	}
	prev := c.adapter
	c.adapter = nil
	c.epoch++
	epoch := c.epoch
	c.sessionID = uuid.NewString()
	if c.videoID != videoID {
		c.detail = nil
	}
	c.videoID, c.playID = videoID, playID
	c.entry = nil
	c.title = ""
	c.notice = ""
	c.recorded = false
	c.cfg = cfg
	sessionID := c.sessionID
	c.mu.Unlock()

	ctx = xglog.ContextWithSessionID(ctx, sessionID)
	logger := c.sessionLogger(ctx, epoch)
	ctx, span := c.tracer.Start(ctx, "session.start", trace.WithAttributes(
		telemetry.SessionAttributes(sessionID, epoch, string(StateLoading))...,
	))
	defer span.End()
	span.SetAttributes(telemetry.VideoAttributes(videoID, playID)...)

	// The previous instance must be gone before anything new attaches.
	c.destroy(prev, logger)

	detail, err := c.deps.Store.Detail(ctx, videoID)
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		metrics.RecordStaleDiscard("fetch")
		logger.Debug().Str(xglog.FieldEvent, "session.stale_fetch").Msg("discarding superseded detail")
		return ErrStale
	}
	if err != nil {
		c.detail = nil
		c.notice = noticeFor(err)
		_, _ = c.dispatchLocked(EvFetchFailed)
		c.mu.Unlock()
		span.RecordError(err)
		span.SetStatus(codes.Error, "detail unavailable")
		logger.Warn().Err(err).Str(xglog.FieldEvent, "session.fetch_failed").Msg("video detail unavailable")
		return err
	}
	c.detail = detail

	entry, _, ok := detail.Entry(playID)
	if !ok {
		c.title = detail.Title
		c.notice = "episode not found"
		_, _ = c.dispatchLocked(EvEntryMissing)
		c.setTitleLocked(detail.Title)
		c.mu.Unlock()
		logger.Warn().Str(xglog.FieldEvent, "session.entry_missing").Msg("play id not in playlist")
		return fmt.Errorf("video %d entry %d: %w", videoID, playID, ErrEntryNotFound)
	}
	c.entry = &entry
	_, _ = c.dispatchLocked(EvResolved)

	adapter, err := c.deps.Players.For(entry.Src, cfg)
	if err != nil {
		c.notice = "playback unavailable"
		_, _ = c.dispatchLocked(EvStartFailed)
		c.mu.Unlock()
		span.RecordError(err)
		logger.Warn().Err(err).Str(xglog.FieldSource, entry.Src).Msg("no player for source")
		return err
	}
	// Registered before Initialize so a successor can destroy it mid-attach.
	c.adapter = adapter
	// Events may fire before Initialize returns; they apply once start is done.
	started := make(chan struct{})
	defer close(started)
	adapter.OnComplete(func() { <-started; c.handleComplete(epoch) })
	adapter.OnEnded(func() { <-started; c.handleEnded(epoch) })
	adapter.OnFailed(func(err error) { <-started; c.handleFailed(epoch, err) })

	title := PlayTitle(detail.Title, entry.Title)
	c.title = title
	c.setTitleLocked(title)
	opts := player.OptionsFrom(cfg, detail.Cover, title)
	c.mu.Unlock()

	span.SetAttributes(attribute.String(telemetry.PlayerVariantKey, string(adapter.Variant())))
	err = adapter.Initialize(ctx, entry.Src, opts)

	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		metrics.RecordStaleDiscard("init")
		if err == nil {
			// The successor already took ownership; make sure it is gone.
			c.destroy(adapter, logger)
		}
		return ErrStale
	}
	if err != nil {
		c.adapter = nil
		c.notice = "playback unavailable"
		_, _ = c.dispatchLocked(EvStartFailed)
		c.mu.Unlock()
		c.destroy(adapter, logger)
		span.RecordError(err)
		span.SetStatus(codes.Error, "adapter initialize failed")
		logger.Warn().Err(err).Str(xglog.FieldVariant, string(adapter.Variant())).Msg("player initialize failed")
		return err
	}
	_, _ = c.dispatchLocked(EvStarted)
	c.mu.Unlock()

	logger.Info().
		Str(xglog.FieldEvent, "session.playing").
		Str(xglog.FieldVariant, string(adapter.Variant())).
		Msg("playback started")
	return nil
}

func (c *Controller) handleComplete(epoch uint64) {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		metrics.RecordStaleDiscard("complete")
		return
	}
	if _, err := c.dispatchLocked(EvComplete); err != nil {
		c.mu.Unlock()
		return
	}
	record := !c.recorded && c.deps.History != nil
	c.recorded = true
	videoID, playID, sessionID := c.videoID, c.playID, c.sessionID
	c.mu.Unlock()

	if !record {
		return
	}
	ctx := xglog.ContextWithSessionID(context.Background(), sessionID)
	if err := c.deps.History.RecordPlay(ctx, videoID, playID); err != nil {
		logger := c.sessionLogger(ctx, epoch)
		logger.Warn().Err(err).Str(xglog.FieldEvent, "session.history_failed").Msg("failed to record play")
	}
}

func (c *Controller) handleEnded(epoch uint64) {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		metrics.RecordStaleDiscard("ended")
		return
	}
	if _, err := c.dispatchLocked(EvEnded); err != nil {
		c.mu.Unlock()
		return
	}

	outcome := "disabled"
	var next model.PlaylistEntry
	switch {
	case !c.cfg.AutoNext:
	case c.entry == nil || !c.entry.HasCircuit():
		outcome = "no_circuit"
	default:
		var ok bool
		next, ok = NextInCircuit(c.detail.Playlist, *c.entry)
		outcome = "last_in_group"
		if ok {
			outcome = "advanced"
		}
	}
	videoID, sessionID := c.videoID, c.sessionID
	router := c.deps.Router
	c.mu.Unlock()

	metrics.RecordAutoAdvance(outcome)
	if outcome != "advanced" || router == nil {
		return
	}
	ctx := xglog.ContextWithSessionID(context.Background(), sessionID)
	logger := c.sessionLogger(ctx, epoch)
	logger.Info().
		Str(xglog.FieldEvent, "session.auto_advance").
		Int64("next_play_id", next.ID).
		Msg("advancing to next entry in circuit")
	router.Replace(ctx, videoID, next.ID)
}

func (c *Controller) handleFailed(epoch uint64, cause error) {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		metrics.RecordStaleDiscard("failed")
		return
	}
	if _, err := c.dispatchLocked(EvFailed); err != nil {
		c.mu.Unlock()
		return
	}
	c.notice = "playback failed"
	sessionID := c.sessionID
	c.mu.Unlock()

	ctx := xglog.ContextWithSessionID(context.Background(), sessionID)
	logger := c.sessionLogger(ctx, epoch)
	logger.Warn().Err(cause).Str(xglog.FieldEvent, "session.playback_failed").Msg("playback failed")
}

// Exit leaves the play route: the adapter is destroyed and the presentation
// captured on entry is restored. Exit on a torn-down session is a no-op.
func (c *Controller) Exit(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateTornDown && !c.entered {
		c.mu.Unlock()
		return nil
	}
	if c.state != StateTornDown {
		_, _ = c.dispatchLocked(EvTeardown)
	}
	prev := c.adapter
	c.adapter = nil
	c.epoch++
	epoch := c.epoch
	restore, saved := c.entered, c.saved
	c.entered = false
	c.entry = nil
	c.notice = ""
	c.mu.Unlock()

	logger := c.sessionLogger(ctx, epoch)
	c.destroy(prev, logger)
	if restore && c.deps.Shell != nil {
		c.deps.Shell.SetPresentation(saved)
	}
	logger.Debug().Str(xglog.FieldEvent, "session.exit").Msg("play route exited")
	return nil
}

// SetPlaybackRate changes the rate of the live adapter and persists it.
func (c *Controller) SetPlaybackRate(ctx context.Context, rate float64) error {
	if rate <= 0 {
		return player.ErrInvalidRate
	}
	c.mu.Lock()
	adapter := c.adapter
	if adapter == nil || !c.state.HasAdapter() {
		c.mu.Unlock()
		return ErrNoSession
	}
	c.cfg.PlaybackRate = rate
	c.mu.Unlock()

	if err := adapter.SetPlaybackRate(rate); err != nil {
		return err
	}
	if c.deps.Rates != nil {
		if err := c.deps.Rates.SetPlaybackRate(rate); err != nil {
			logger := xglog.WithContext(ctx, c.logger)
			logger.Warn().Err(err).Float64(xglog.FieldRate, rate).Msg("failed to persist playback rate")
		}
	}
	return nil
}

// Snapshot returns a copy of the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		SessionID: c.sessionID,
		Epoch:     c.epoch,
		State:     c.state,
		VideoID:   c.videoID,
		PlayID:    c.playID,
		Title:     c.title,
		Notice:    c.notice,
		Entered:   c.entered,
	}
	if c.detail != nil {
		s.Detail = c.detail.Clone()
		s.Info = catalog.InfoSummary(&c.detail.Video, c.deps.Location)
	}
	if c.entry != nil {
		e := *c.entry
		s.Entry = &e
		s.DownloadLink = DownloadLink(c.cfg, e.Src, c.detail.Title+"-"+e.Title)
	}
	if c.adapter != nil {
		s.Variant = c.adapter.Variant()
	}
	if c.deps.Shell != nil {
		p := c.deps.Shell.Presentation()
		s.Presentation = &p
	}
	return s
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) enterPresentationLocked(cfg model.PlaybackEnvironmentConfig) {
	c.entered = true
	if c.deps.Shell == nil {
		return
	}
	c.saved = c.deps.Shell.Presentation()
	p := c.saved
	p.Theme = ThemeDark
	p.MenuCollapsed = true
	if cfg.Environment == model.EnvDesktop && cfg.FullscreenPlay {
		p.Fullscreen = true
	}
	c.deps.Shell.SetPresentation(p)
}

func (c *Controller) setTitleLocked(title string) {
	if c.deps.Shell != nil {
		c.deps.Shell.SetTitle(title)
	}
}

// dispatchLocked applies ev to the current state. Illegal events are
// reported and leave the state unchanged.
func (c *Controller) dispatchLocked(ev EventKind) (Transition, error) {
	tr, err := Next(c.state, ev)
	if err != nil {
		metrics.RecordIllegalTransition(string(c.state), ev.String())
		c.logger.Warn().
			Err(err).
			Str(xglog.FieldSessionID, c.sessionID).
			Str(xglog.FieldOldState, string(c.state)).
			Str(xglog.FieldEvent, "session.illegal_transition").
			Msg("rejected session event")
		return tr, err
	}
	c.state = tr.To
	metrics.RecordSessionTransition(string(tr.From), string(tr.To))
	c.logger.Debug().
		Str(xglog.FieldSessionID, c.sessionID).
		Str(xglog.FieldEvent, "session.transition").
		Str(xglog.FieldOldState, string(tr.From)).
		Str(xglog.FieldNewState, string(tr.To)).
		Msg("session transition")
	return tr, nil
}

func (c *Controller) destroy(a player.Adapter, logger zerolog.Logger) {
	if a == nil {
		return
	}
	if err := a.Destroy(); err != nil {
		logger.Warn().Err(err).Str(xglog.FieldVariant, string(a.Variant())).Msg("adapter destroy failed")
	}
}

func (c *Controller) sessionLogger(ctx context.Context, epoch uint64) zerolog.Logger {
	return xglog.WithContext(ctx, c.logger).With().Uint64(xglog.FieldEpoch, epoch).Logger()
}

func noticeFor(err error) string {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return "video not found"
	case errors.Is(err, catalog.ErrCircuitOpen):
		return "service temporarily unavailable"
	default:
		return "failed to load video, please try again"
	}
}
