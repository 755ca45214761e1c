package presence

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dreyes/charla/internal/api"
	"github.com/dreyes/charla/internal/bus"
)

// Heartbeat keeps the server's online marker fresh. It posts a status update
// on a fixed interval, immediately when the terminal regains focus, and on
// user activity debounced to at most one update per second. On shutdown it
// fires one final best-effort logout so the server can mark the user offline
// without waiting for the presence timeout.
type Heartbeat struct {
	client   *api.Client
	bus      *bus.Bus
	logger   *zap.Logger
	interval time.Duration
	debounce time.Duration

	kick   chan struct{} // debounced activity
	wake   chan struct{} // immediate, bypasses the debounce
	cancel context.CancelFunc
}

// NewHeartbeat creates a heartbeat with the given base interval.
func NewHeartbeat(client *api.Client, b *bus.Bus, logger *zap.Logger, interval time.Duration) *Heartbeat {
	return &Heartbeat{
		client:   client,
		bus:      b,
		logger:   logger,
		interval: interval,
		debounce: time.Second,
		kick:     make(chan struct{}, 1),
		wake:     make(chan struct{}, 1),
	}
}

// Start begins the heartbeat loop.
func (h *Heartbeat) Start(ctx context.Context) {
	ctx, h.cancel = context.WithCancel(ctx)
	go h.loop(ctx)
}

// Stop halts the loop and fires the final logout. Safe to call once after
// Start; the logout is fire-and-forget with its own short timeout.
func (h *Heartbeat) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
	h.client.Logout()
}

// Activity records user input. Updates triggered this way are coalesced to
// at most one per debounce window; excess calls are dropped.
func (h *Heartbeat) Activity() {
	select {
	case h.kick <- struct{}{}:
	default:
	}
}

// Wake forces an immediate update, bypassing the debounce. Used when the
// terminal regains focus after the process was suspended or backgrounded.
// Wake rides its own channel so a pending activity kick cannot swallow it.
func (h *Heartbeat) Wake() {
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *Heartbeat) loop(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.beat(ctx)
	lastBeat := time.Now()

	for {
		select {
		case <-ticker.C:
			h.beat(ctx)
			lastBeat = time.Now()
		case <-h.kick:
			if time.Since(lastBeat) < h.debounce {
				continue
			}
			h.beat(ctx)
			lastBeat = time.Now()
		case <-h.wake:
			h.beat(ctx)
			lastBeat = time.Now()
		case <-ctx.Done():
			return
		}
	}
}

func (h *Heartbeat) beat(ctx context.Context) {
	if err := h.client.UpdateStatus(ctx); err != nil {
		// Presence is advisory; a missed beat is retried on the next tick.
		h.logger.Warn("presence update failed", zap.Error(err))
		return
	}
	h.bus.Publish(bus.Event{Kind: "presence.updated"})
}
