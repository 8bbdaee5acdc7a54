// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package player

import (
	"sync/atomic"
	"time"

	"github.com/ManuGH/vodplay/internal/metrics"
	"github.com/ManuGH/vodplay/internal/model"
)

// FactoryConfig wires the backends a Factory may hand out.
type FactoryConfig struct {
	Surface       Surface // native
	HLS           Engine
	Standard      Engine
	DetachTimeout time.Duration
}

// Factory builds adapters for a source and shares one page Slot between
// every in-page adapter it creates.
type Factory struct {
	cfg  FactoryConfig
	slot *Slot
	live liveCounter
}

func NewFactory(cfg FactoryConfig) *Factory {
	return &Factory{cfg: cfg, slot: NewSlot()}
}

// For returns an uninitialized adapter for src in the configured environment.
func (f *Factory) For(src string, cfg model.PlaybackEnvironmentConfig) (Adapter, error) {
	return f.New(Select(src, cfg.Environment), cfg)
}

// New returns an uninitialized adapter of variant v.
func (f *Factory) New(v Variant, cfg model.PlaybackEnvironmentConfig) (Adapter, error) {
	switch v {
	case VariantNative:
		if f.cfg.Surface == nil {
			return nil, ErrUnsupported
		}
		return newNativeAdapter(f.cfg.Surface, cfg.RateSettleDelay, &f.live), nil
	case VariantHLS:
		if f.cfg.HLS == nil {
			return nil, ErrUnsupported
		}
		return newInPageAdapter(v, f.cfg.HLS, f.slot, cfg.AttachSettleDelay, f.cfg.DetachTimeout, &f.live), nil
	case VariantStandard:
		if f.cfg.Standard == nil {
			return nil, ErrUnsupported
		}
		return newInPageAdapter(v, f.cfg.Standard, f.slot, cfg.AttachSettleDelay, f.cfg.DetachTimeout, &f.live), nil
	default:
		return nil, ErrUnsupported
	}
}

// Live returns the number of initialized, not yet destroyed adapters.
func (f *Factory) Live() int { return int(f.live.n.Load()) }

// Peak returns the highest value Live has reached.
func (f *Factory) Peak() int { return int(f.live.peak.Load()) }

type liveCounter struct {
	n    atomic.Int64
	peak atomic.Int64
}

func (c *liveCounter) inc() {
	if c == nil {
		return
	}
	n := c.n.Add(1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	metrics.IncAdapterLive()
}

func (c *liveCounter) dec() {
	if c == nil {
		return
	}
	c.n.Add(-1)
	metrics.DecAdapterLive()
}
