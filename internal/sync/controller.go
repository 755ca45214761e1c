// Package sync owns the active-conversation session: the selection state
// machine, the polling loop that keeps it fresh, and the serialization of
// the operations that mutate it.
package sync

import (
	"context"
	"io"
	stdsync "sync"
	"time"

	"go.uber.org/zap"

	"github.com/dreyes/charla/internal/api"
	"github.com/dreyes/charla/internal/bus"
	"github.com/dreyes/charla/internal/directory"
	"github.com/dreyes/charla/internal/session"
	"github.com/dreyes/charla/internal/store"
)

// Delta is the sync.delta payload: a full-replacement message set for a
// chat, tagged with what the renderer needs. Deltas may be published while
// the selection is still in flight (the warm-start cached log), so consumers
// must not assume an Active session.
type Delta struct {
	ChatID   int
	IsGroup  bool
	Messages []api.Message
}

// ActiveChat is the singleton active-session value. ChatID and ChatName are
// durably persisted; IsGroup and LastSeen are ephemeral and rebuilt on each
// (re)selection.
type ActiveChat struct {
	ChatID   int
	ChatName string
	IsGroup  bool
	LastSeen time.Time
}

// Controller owns all shared mutable session state: the active chat, the
// running poll loop, and the generation counter that tags async work.
// Every response that arrives from a fetch issued under an older generation
// is discarded, so a late reply can never be applied to a different chat.
type Controller struct {
	client   *api.Client
	sessions *session.Store
	dir      *directory.Directory
	db       *store.DB
	bus      *bus.Bus
	logger   *zap.Logger
	interval time.Duration

	mu         stdsync.Mutex
	state      State
	active     ActiveChat
	generation uint64
	pollCancel context.CancelFunc
	localUser  api.User
}

// NewController creates a controller in the Idle state.
func NewController(client *api.Client, sessions *session.Store, dir *directory.Directory, db *store.DB, b *bus.Bus, logger *zap.Logger, pollInterval time.Duration) *Controller {
	return &Controller{
		client:   client,
		sessions: sessions,
		dir:      dir,
		db:       db,
		bus:      b,
		logger:   logger,
		interval: pollInterval,
		state:    Idle,
	}
}

// SetLocalUser records the logged-in identity used for alignment and
// notification suppression.
func (c *Controller) SetLocalUser(u api.User) {
	c.mu.Lock()
	c.localUser = u
	c.mu.Unlock()
}

// LocalUser returns the logged-in identity.
func (c *Controller) LocalUser() api.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.localUser
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Active returns the active chat value and whether a chat is active.
func (c *Controller) Active() (ActiveChat, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.state == Active
}

func (c *Controller) currentGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Select makes a chat active. Any in-flight selection or running poll loop
// for a previous chat is superseded: its generation is invalidated before
// the new fetches are issued, so at most one poll loop survives and stale
// responses are dropped on arrival. The initial info fetch, message fetch,
// and server set-active call run concurrently; set-active failure is logged
// but does not block the transition.
func (c *Controller) Select(ctx context.Context, chatID int, chatName string) error {
	c.mu.Lock()
	c.stopPollingLocked()
	c.generation++
	gen := c.generation
	if err := c.transitionLocked(Transitioning); err != nil {
		c.mu.Unlock()
		return err
	}
	c.active = ActiveChat{ChatID: chatID, ChatName: chatName}
	// The directory summary already knows whether this is a group chat, so
	// the warm-start render groups names correctly before the info fetch.
	if s := c.dir.Find(chatID); s != nil {
		c.active.IsGroup = s.IsGroup
	}
	isGroup := c.active.IsGroup
	c.mu.Unlock()

	// Warm start: show the cached log immediately while the fetch is in
	// flight. LastSeen is untouched so the fresh result still applies.
	if cached, err := c.db.ListMessages(chatID); err == nil && len(cached) > 0 {
		if c.currentGeneration() == gen {
			c.bus.Publish(bus.Event{Kind: "sync.delta", Payload: Delta{
				ChatID:   chatID,
				IsGroup:  isGroup,
				Messages: cached,
			}})
		}
	}

	var (
		wg      stdsync.WaitGroup
		info    *api.ChatInfo
		msgs    []api.Message
		infoErr error
		msgsErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		info, infoErr = c.client.ChatInfo(ctx, chatID)
	}()
	go func() {
		defer wg.Done()
		msgs, msgsErr = c.client.ChatMessages(ctx, chatID)
	}()
	go func() {
		defer wg.Done()
		// Persist is skipped when a newer selection has already superseded
		// this one, so the durable slot cannot be rewound.
		if c.currentGeneration() != gen {
			return
		}
		if err := c.sessions.Persist(ctx, chatID, chatName); err != nil {
			c.logger.Error("failed to persist session", zap.Int("chat_id", chatID), zap.Error(err))
		}
	}()
	wg.Wait()

	c.mu.Lock()
	if c.generation != gen {
		// Superseded by a newer selection; discard everything.
		c.mu.Unlock()
		return nil
	}

	if infoErr != nil || msgsErr != nil {
		err := infoErr
		if err == nil {
			err = msgsErr
		}
		_ = c.transitionLocked(Idle)
		c.active = ActiveChat{}
		c.mu.Unlock()
		// The slot was persisted concurrently with the fetches; drop it so
		// the durable identity never points at a chat that did not activate.
		if clearErr := c.sessions.Clear(ctx); clearErr != nil {
			c.logger.Warn("failed to clear session after selection failure", zap.Int("chat_id", chatID), zap.Error(clearErr))
		}
		return err
	}

	c.active.IsGroup = info.IsGroup
	c.applyInfoLocked(info)
	c.replaceLogLocked(msgs, false)
	if err := c.transitionLocked(Active); err != nil {
		c.mu.Unlock()
		return err
	}
	c.bus.Publish(bus.Event{Kind: "session.selected", Payload: c.active})
	c.startPollingLocked(gen, chatID)
	c.mu.Unlock()
	return nil
}

// Restore runs the startup sequence: clear any persisted session (locally
// and server-side), then re-select the previously cached chat if it still
// appears in the directory. A cached identifier pointing at a deleted chat
// falls back to Idle without error.
func (c *Controller) Restore(ctx context.Context) error {
	chatID, chatName, ok := c.sessions.Startup(ctx)
	if !ok {
		return nil
	}
	if c.dir.Find(chatID) == nil {
		c.logger.Info("cached session no longer in directory", zap.Int("chat_id", chatID))
		return nil
	}
	return c.Select(ctx, chatID, chatName)
}

// Send posts a text message to the active chat, then forces an immediate
// re-fetch rather than inserting optimistically: the rendered log always
// reflects server-confirmed state, so the message can never appear twice
// when the next poll tick also returns it.
func (c *Controller) Send(ctx context.Context, content string) error {
	chatID, gen, ok := c.activeTarget()
	if !ok {
		return ErrNoActiveChat
	}
	if err := c.client.SendMessage(ctx, chatID, content); err != nil {
		return err
	}
	return c.refresh(ctx, gen, chatID)
}

// SendImage uploads an image message to the active chat and re-fetches.
func (c *Controller) SendImage(ctx context.Context, filename string, r io.Reader) error {
	chatID, gen, ok := c.activeTarget()
	if !ok {
		return ErrNoActiveChat
	}
	if err := c.client.SendImageMessage(ctx, chatID, filename, r); err != nil {
		return err
	}
	return c.refresh(ctx, gen, chatID)
}

// Delete removes the active chat server-side. On success the session is
// cleared and the directory signalled to reload; on failure the session
// stays active and the error is surfaced.
func (c *Controller) Delete(ctx context.Context) error {
	chatID, _, ok := c.activeTarget()
	if !ok {
		return ErrNoActiveChat
	}
	if err := c.client.DeleteChat(ctx, chatID); err != nil {
		return err
	}
	if err := c.Clear(ctx); err != nil {
		return err
	}
	c.bus.Publish(bus.Event{Kind: "directory.reload"})
	return nil
}

// Clear stops polling and returns to Idle from any state. Used at startup,
// after deletion, and on teardown.
func (c *Controller) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.stopPollingLocked()
	c.generation++
	_ = c.transitionLocked(Idle)
	c.active = ActiveChat{}
	c.mu.Unlock()

	if err := c.sessions.Clear(ctx); err != nil {
		return err
	}
	c.bus.Publish(bus.Event{Kind: "session.cleared"})
	return nil
}

// activeTarget snapshots the active chat id and generation for an operation
// that must be discarded if the session changes underneath it.
func (c *Controller) activeTarget() (chatID int, gen uint64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Active {
		return 0, 0, false
	}
	return c.active.ChatID, c.generation, true
}

// refresh re-fetches the active chat's messages and applies them as a full
// replacement, regardless of the delta check. Stale results are discarded.
func (c *Controller) refresh(ctx context.Context, gen uint64, chatID int) error {
	msgs, err := c.client.ChatMessages(ctx, chatID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return nil
	}
	c.replaceLogLocked(msgs, true)
	return nil
}

// replaceLogLocked applies a fetched message set as the new rendered log.
// forced skips the newer-than check (used after a send, where the set may
// contain no message newer than LastSeen from this client's perspective but
// must still be shown). LastSeen only ever advances.
func (c *Controller) replaceLogLocked(msgs []api.Message, forced bool) {
	var newest time.Time
	if len(msgs) > 0 {
		newest = msgs[len(msgs)-1].Timestamp.Time
	}

	if !forced && !newest.After(c.active.LastSeen) {
		return
	}

	if newest.After(c.active.LastSeen) {
		c.active.LastSeen = newest
	}

	if err := c.db.ReplaceMessages(c.active.ChatID, msgs); err != nil {
		c.logger.Warn("failed to cache messages", zap.Int("chat_id", c.active.ChatID), zap.Error(err))
	}
	c.bus.Publish(bus.Event{Kind: "sync.delta", Payload: Delta{
		ChatID:   c.active.ChatID,
		IsGroup:  c.active.IsGroup,
		Messages: msgs,
	}})
}

// applyInfoLocked publishes chat metadata. Info is applied unconditionally
// on every tick, independent of the message delta.
func (c *Controller) applyInfoLocked(info *api.ChatInfo) {
	c.active.IsGroup = info.IsGroup
	c.bus.Publish(bus.Event{Kind: "sync.info", Payload: info})
}
