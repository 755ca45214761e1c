// Package notify delivers desktop notifications for incoming messages.
// It uses the beeep library, which picks the native mechanism per platform
// (notify-send/D-Bus on Linux, AppleScript on macOS, WinRT on Windows).
package notify

import (
	"context"

	"github.com/gen2brain/beeep"
	"go.uber.org/zap"

	"github.com/dreyes/charla/internal/bus"
)

// Sink consumes notify.* events from the bus and raises desktop
// notifications. When disabled it consumes and drops them silently, which
// mirrors a user who never granted notification permission.
type Sink struct {
	bus     *bus.Bus
	logger  *zap.Logger
	enabled bool
	send    func(title, message string) error
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a notification sink.
func New(b *bus.Bus, logger *zap.Logger, enabled bool) *Sink {
	return &Sink{
		bus:     b,
		logger:  logger,
		enabled: enabled,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// Start subscribes to message notification events.
func (s *Sink) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	ch, unsub := s.bus.Subscribe("notify.", 16)
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		defer unsub()
		for {
			select {
			case evt := <-ch:
				s.handle(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop unsubscribes and waits for the consumer goroutine to exit.
func (s *Sink) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

func (s *Sink) handle(evt bus.Event) {
	n, ok := evt.Payload.(bus.Notification)
	if !ok {
		return
	}
	if !s.enabled {
		return
	}
	preview := n.Preview
	if n.IsImage {
		preview = "Nueva imagen"
	}
	if err := s.send(n.ChatName, preview); err != nil {
		// Missing notify-send or a headless session; not worth surfacing.
		s.logger.Warn("desktop notification failed", zap.Error(err))
	}
}
