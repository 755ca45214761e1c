package store

import (
	"fmt"
	"time"

	"github.com/dreyes/charla/internal/api"
)

// ReplaceMessages swaps the cached history of one chat for a fresh snapshot,
// preserving server order. Other chats' caches are untouched.
func (db *DB) ReplaceMessages(chatID int, msgs []api.Message) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM messages WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}

	for i, m := range msgs {
		var ts string
		if !m.Timestamp.IsZero() {
			ts = m.Timestamp.Format(time.RFC3339)
		}
		if _, err := tx.Exec(`
			INSERT INTO messages (chat_id, position, id, user_id, user_name, user_avatar, content, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			chatID, i, m.ID, m.UserID, m.UserName, m.UserAvatar, m.Content, ts); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}

	return tx.Commit()
}

// ListMessages returns the cached history for a chat in server order.
func (db *DB) ListMessages(chatID int) ([]api.Message, error) {
	rows, err := db.Query(`
		SELECT id, user_id, user_name, user_avatar, content, timestamp
		FROM messages
		WHERE chat_id = ?
		ORDER BY position`, chatID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []api.Message
	for rows.Next() {
		var m api.Message
		var ts string
		if err := rows.Scan(&m.ID, &m.UserID, &m.UserName, &m.UserAvatar, &m.Content, &ts); err != nil {
			return nil, err
		}
		if ts != "" {
			parsed, err := time.Parse(time.RFC3339, ts)
			if err != nil {
				return nil, fmt.Errorf("parse cached timestamp: %w", err)
			}
			m.Timestamp = api.Timestamp{Time: parsed}
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
