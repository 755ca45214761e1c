package store

import (
	"encoding/json"
	"fmt"

	"github.com/dreyes/charla/internal/api"
)

// ReplaceDirectory swaps the cached chat directory for a fresh snapshot,
// preserving server order.
func (db *DB) ReplaceDirectory(chats []api.ChatSummary) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM chats`); err != nil {
		return fmt.Errorf("clear chats: %w", err)
	}

	for i, c := range chats {
		otherUser, err := marshalNullable(c.OtherUser)
		if err != nil {
			return fmt.Errorf("encode other_user: %w", err)
		}
		groupInfo, err := marshalNullable(c.GroupInfo)
		if err != nil {
			return fmt.Errorf("encode group_info: %w", err)
		}

		var previewContent, previewAuthor, previewTime string
		if lm := c.LastMessage(); lm != nil {
			previewContent = lm.Content
			previewAuthor = lm.UserName
			previewTime = lm.Timestamp
		}

		if _, err := tx.Exec(`
			INSERT INTO chats (id, position, name, is_group, other_user, group_info, preview_content, preview_author, preview_time)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, i, c.Name, c.IsGroup, otherUser, groupInfo,
			previewContent, previewAuthor, previewTime); err != nil {
			return fmt.Errorf("insert chat: %w", err)
		}
	}

	return tx.Commit()
}

// ListDirectory returns the cached chat directory in server order.
func (db *DB) ListDirectory() ([]api.ChatSummary, error) {
	rows, err := db.Query(`
		SELECT id, name, is_group, other_user, group_info, preview_content, preview_author, preview_time
		FROM chats
		ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var chats []api.ChatSummary
	for rows.Next() {
		var c api.ChatSummary
		var otherUser, groupInfo []byte
		var previewContent, previewAuthor, previewTime string
		if err := rows.Scan(&c.ID, &c.Name, &c.IsGroup, &otherUser, &groupInfo,
			&previewContent, &previewAuthor, &previewTime); err != nil {
			return nil, err
		}
		if err := unmarshalNullable(otherUser, &c.OtherUser); err != nil {
			return nil, fmt.Errorf("decode other_user: %w", err)
		}
		if err := unmarshalNullable(groupInfo, &c.GroupInfo); err != nil {
			return nil, fmt.Errorf("decode group_info: %w", err)
		}
		if previewContent != "" || previewAuthor != "" {
			c.Messages = []api.MessagePreview{{
				Content:   previewContent,
				UserName:  previewAuthor,
				Timestamp: previewTime,
			}}
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

func marshalNullable(v any) ([]byte, error) {
	switch x := v.(type) {
	case *api.UserRef:
		if x == nil {
			return nil, nil
		}
	case *api.GroupInfo:
		if x == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func unmarshalNullable(data []byte, out any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
