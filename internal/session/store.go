// Package session persists which chat is active across restarts and keeps
// the server's notion of the active chat in agreement with it.
package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/dreyes/charla/internal/api"
	"github.com/dreyes/charla/internal/store"
)

// Store is the durable active-chat slot. The slot is advisory: server-side
// coordination is best-effort and only affects presence, never correctness,
// so server failures are logged rather than returned.
type Store struct {
	db     *store.DB
	client *api.Client
	logger *zap.Logger
}

// NewStore creates a session store over the cache database and API client.
func NewStore(db *store.DB, client *api.Client, logger *zap.Logger) *Store {
	return &Store{db: db, client: client, logger: logger}
}

// Restore reads the durable slot. It performs no fetches; the caller decides
// whether the identifier still maps to a live chat.
func (s *Store) Restore() (chatID int, chatName string, ok bool) {
	chatID, chatName, ok, err := s.db.LoadSession()
	if err != nil {
		s.logger.Error("failed to read session slot", zap.Error(err))
		return 0, "", false
	}
	return chatID, chatName, ok
}

// Persist writes the durable slot and informs the server which chat is
// active. The server call is best-effort.
func (s *Store) Persist(ctx context.Context, chatID int, chatName string) error {
	if err := s.db.SaveSession(chatID, chatName); err != nil {
		return err
	}
	if err := s.client.UpdateActiveChat(ctx, chatID); err != nil {
		s.logger.Warn("failed to update server active chat", zap.Int("chat_id", chatID), zap.Error(err))
	}
	return nil
}

// Clear wipes the durable slot and clears the server-side marker.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.db.ClearSession(); err != nil {
		return err
	}
	if err := s.client.ClearActiveChat(ctx); err != nil {
		s.logger.Warn("failed to clear server active chat", zap.Error(err))
	}
	return nil
}

// Startup runs the construction-time sequence: read the previously cached
// identifier, then unconditionally clear both local and server state so a
// stale session is never resumed silently (ghost sessions after a server
// restart or a second running instance). The cached identifier is handed
// back so the controller can re-select it if it still appears in the
// directory.
func (s *Store) Startup(ctx context.Context) (chatID int, chatName string, ok bool) {
	chatID, chatName, ok = s.Restore()
	if err := s.Clear(ctx); err != nil {
		s.logger.Error("failed to clear session at startup", zap.Error(err))
	}
	return chatID, chatName, ok
}
