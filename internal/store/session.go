package store

import (
	"database/sql"
	"time"
)

// SaveSession writes the single durable session slot.
func (db *DB) SaveSession(chatID int, chatName string) error {
	_, err := db.Exec(`
		INSERT INTO session (slot, chat_id, chat_name, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			chat_id = excluded.chat_id,
			chat_name = excluded.chat_name,
			updated_at = excluded.updated_at`,
		chatID, chatName, time.Now().UnixMilli())
	return err
}

// LoadSession reads the durable session slot. ok is false when no session
// has been persisted.
func (db *DB) LoadSession() (chatID int, chatName string, ok bool, err error) {
	err = db.QueryRow(`SELECT chat_id, chat_name FROM session WHERE slot = 1`).
		Scan(&chatID, &chatName)
	if err == sql.ErrNoRows {
		return 0, "", false, nil
	}
	if err != nil {
		return 0, "", false, err
	}
	return chatID, chatName, true, nil
}

// ClearSession wipes the durable session slot.
func (db *DB) ClearSession() error {
	_, err := db.Exec(`DELETE FROM session WHERE slot = 1`)
	return err
}
