// Package preload warms the registry from catalog sources flagged for
// preloading. It only ever loads; eviction is not its business — models stay
// until removed explicitly.
package preload

import (
	"context"
	"log/slog"
	"time"

	"github.com/fluxgate/fluxgate/internal/activity"
	"github.com/fluxgate/fluxgate/internal/catalog"
	"github.com/fluxgate/fluxgate/internal/engine"
	"github.com/fluxgate/fluxgate/internal/registry"
)

type Preloader struct {
	Registry *registry.Registry
	Catalog  *catalog.Store
	Engine   engine.Engine
	Activity *activity.Log

	// Interval between catalog re-scans. Zero or negative means a single
	// warmup pass at startup.
	Interval time.Duration
}

func (p *Preloader) Run(ctx context.Context) {
	p.tick(ctx)
	if p.Interval <= 0 {
		return
	}

	t := time.NewTicker(p.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.tick(ctx)
		}
	}
}

func (p *Preloader) tick(ctx context.Context) {
	sources, err := p.Catalog.ListSources(ctx)
	if err != nil {
		slog.Error("preload: list sources", "err", err)
		return
	}

	for _, src := range sources {
		if !src.Preload {
			continue
		}
		if _, err := p.Registry.Get(src.ModelID); err == nil {
			continue
		}

		m, err := p.Engine.Load(ctx, engine.Source{ModelID: src.ModelID, Path: src.Path})
		if err != nil {
			slog.Warn("preload: load failed", "model", src.ModelID, "err", err)
			continue
		}
		p.Registry.Put(src.ModelID, m)
		slog.Info("preload: model loaded", "model", src.ModelID)

		if p.Activity != nil {
			p.Activity.Add(activity.Event{
				At:    time.Now(),
				Type:  activity.EventPreload,
				Model: src.ModelID,
			})
		}
	}
}
