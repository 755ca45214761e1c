// Package directory maintains the sidebar's chat summaries and their live
// filtering against the server.
package directory

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/dreyes/charla/internal/api"
	"github.com/dreyes/charla/internal/bus"
	"github.com/dreyes/charla/internal/store"
)

// Directory holds the current chat-summary snapshot. Snapshots are replaced
// wholesale on every refresh; summaries are never mutated field by field.
type Directory struct {
	mu     sync.RWMutex
	chats  []api.ChatSummary
	client *api.Client
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
}

// New creates a directory over the API client and cache database.
func New(client *api.Client, db *store.DB, b *bus.Bus, logger *zap.Logger) *Directory {
	return &Directory{client: client, db: db, bus: b, logger: logger}
}

// WarmStart loads the cached snapshot so the sidebar renders before the
// first network refresh lands. Missing cache is not an error.
func (d *Directory) WarmStart() {
	chats, err := d.db.ListDirectory()
	if err != nil {
		d.logger.Warn("failed to load cached directory", zap.Error(err))
		return
	}
	if len(chats) == 0 {
		return
	}
	d.replace(chats)
}

// Refresh fetches a fresh snapshot. An empty query fetches the unfiltered
// directory; a non-empty query fetches the server-side filtered one. Only
// unfiltered snapshots are written to the cache.
func (d *Directory) Refresh(ctx context.Context, query string) error {
	var chats []api.ChatSummary
	var err error
	if query == "" {
		chats, err = d.client.Chats(ctx)
	} else {
		chats, err = d.client.SearchChats(ctx, query)
	}
	if err != nil {
		return err
	}

	if query == "" {
		if err := d.db.ReplaceDirectory(chats); err != nil {
			d.logger.Warn("failed to cache directory", zap.Error(err))
		}
	}

	d.replace(chats)
	return nil
}

func (d *Directory) replace(chats []api.ChatSummary) {
	d.mu.Lock()
	d.chats = chats
	d.mu.Unlock()
	d.bus.Publish(bus.Event{Kind: "directory.updated", Payload: chats})
}

// Chats returns the current snapshot.
func (d *Directory) Chats() []api.ChatSummary {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.chats
}

// Find returns the summary for a chat id, or nil if it is not in the
// current snapshot.
func (d *Directory) Find(chatID int) *api.ChatSummary {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for i := range d.chats {
		if d.chats[i].ID == chatID {
			return &d.chats[i]
		}
	}
	return nil
}

// Preview formats the single-line last-message preview for a summary:
// author-prefixed for group chats, bare content otherwise, image content
// shown as a camera marker.
func Preview(c *api.ChatSummary) string {
	lm := c.LastMessage()
	if lm == nil {
		return ""
	}
	content := lm.Content
	if len(content) >= len(api.ImagePathPrefix) && content[:len(api.ImagePathPrefix)] == api.ImagePathPrefix {
		content = "[imagen]"
	}
	if c.IsGroup && lm.UserName != "" {
		return lm.UserName + ": " + content
	}
	return content
}
