package viewer

import (
	"context"
	"log/slog"
	"time"
)

// Player drives Advance on a fixed interval.
type Player struct {
	viewer   *Viewer
	interval time.Duration
	logger   *slog.Logger
}

// NewPlayer creates a playback loop. A non-positive interval disables it.
func NewPlayer(v *Viewer, interval time.Duration, logger *slog.Logger) *Player {
	return &Player{viewer: v, interval: interval, logger: logger}
}

// Enabled reports whether Run will tick.
func (p *Player) Enabled() bool {
	return p.interval > 0
}

// Run advances the viewer on every tick until ctx is cancelled. Ticks that
// arrive while the slider is held or animation is paused are skipped.
func (p *Player) Run(ctx context.Context) {
	if !p.Enabled() {
		p.logger.Info("playback disabled")
		return
	}

	ticker := clock.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("playback started", "interval", p.interval)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("playback stopping", "reason", ctx.Err())
			return
		case <-ticker.Chan():
			if p.viewer.Advance() {
				p.logger.Debug("frame advanced", "index", p.viewer.Snapshot().Index)
			}
		}
	}
}
