package sync

import (
	"context"
	stdsync "sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dreyes/charla/internal/api"
	"github.com/dreyes/charla/internal/bus"
)

// startPollingLocked launches the poll loop for a chat under the given
// generation. Callers hold c.mu and have already stopped any previous loop,
// so at most one loop exists at any instant.
func (c *Controller) startPollingLocked(gen uint64, chatID int) {
	ctx, cancel := context.WithCancel(context.Background())
	c.pollCancel = cancel
	go c.pollLoop(ctx, gen, chatID)
}

// stopPollingLocked cancels the running poll loop, if any. Callers hold c.mu.
func (c *Controller) stopPollingLocked() {
	if c.pollCancel != nil {
		c.pollCancel()
		c.pollCancel = nil
	}
}

// pollLoop re-fetches the active chat on a fixed interval. Ticks are
// single-flight: if a tick is still in flight when the next would fire, the
// new tick is skipped rather than overlapped, so results are applied in
// issue order.
func (c *Controller) pollLoop(ctx context.Context, gen uint64, chatID int) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	var inFlight atomic.Bool
	for {
		select {
		case <-ticker.C:
			if !inFlight.CompareAndSwap(false, true) {
				continue
			}
			go func() {
				defer inFlight.Store(false)
				c.tick(ctx, gen, chatID)
			}()
		case <-ctx.Done():
			return
		}
	}
}

// tick fetches messages and chat info concurrently and applies them. A
// failed tick is logged and skipped; the next tick is the retry. Results
// from a superseded generation are discarded.
func (c *Controller) tick(ctx context.Context, gen uint64, chatID int) {
	var (
		wg      stdsync.WaitGroup
		msgs    []api.Message
		info    *api.ChatInfo
		msgsErr error
		infoErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		msgs, msgsErr = c.client.ChatMessages(ctx, chatID)
	}()
	go func() {
		defer wg.Done()
		info, infoErr = c.client.ChatInfo(ctx, chatID)
	}()
	wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return
	}

	// Chat info is applied unconditionally, independent of the delta.
	if infoErr != nil {
		c.logger.Warn("poll tick info fetch failed", zap.Int("chat_id", chatID), zap.Error(infoErr))
	} else {
		c.applyInfoLocked(info)
	}

	if msgsErr != nil {
		c.logger.Warn("poll tick message fetch failed", zap.Int("chat_id", chatID), zap.Error(msgsErr))
		return
	}

	if len(msgs) == 0 {
		return
	}
	newest := msgs[len(msgs)-1]
	if !newest.Timestamp.After(c.active.LastSeen) {
		return
	}

	c.replaceLogLocked(msgs, false)

	if newest.UserID != c.localUser.ID {
		preview := newest.Content
		if newest.IsImage() {
			preview = "Nueva imagen"
		}
		c.bus.Publish(bus.Event{Kind: "notify.message", Payload: bus.Notification{
			ChatName: c.active.ChatName,
			Preview:  preview,
			IsImage:  newest.IsImage(),
		}})
	}
}
