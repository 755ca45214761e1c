// Package render projects a chat's ordered message history into the grouped
// presentation units the views draw. It is pure: no I/O, no shared state.
package render

import (
	"time"

	"github.com/dreyes/charla/internal/api"
)

// Kind discriminates presentation units.
type Kind int

const (
	// KindDateSeparator is a centered date label between calendar days.
	KindDateSeparator Kind = iota
	// KindMessage is a single message bubble.
	KindMessage
)

// Unit is one element of the rendered log.
type Unit struct {
	Kind Kind

	// DateLabel is set for separator units.
	DateLabel string

	// Message fields, set for message units.
	Message    api.Message
	Mine       bool
	ShowName   bool
	ShowAvatar bool
	IsImage    bool
	TimeLabel  string
}

// Build turns an ordered message sequence into presentation units.
//
// A date separator is inserted whenever the calendar date (in loc) changes
// from the previous message, including before the first message. Author
// name labels appear only in group chats, only on messages from non-local
// authors, and only at the start of a same-author run; a run is broken by
// any other author and by a date boundary. The local user's messages are
// right-aligned and never carry a name or avatar.
func Build(msgs []api.Message, localUserID int, isGroup bool, loc *time.Location) []Unit {
	if loc == nil {
		loc = time.Local
	}

	units := make([]Unit, 0, len(msgs)+1)
	var lastDate string
	prevAuthor := 0
	hasPrev := false

	for _, m := range msgs {
		local := m.Timestamp.In(loc)
		date := local.Format("02 Jan 2006")
		if date != lastDate {
			units = append(units, Unit{Kind: KindDateSeparator, DateLabel: date})
			lastDate = date
			hasPrev = false
		}

		mine := m.UserID == localUserID
		showName := isGroup && !mine && (!hasPrev || m.UserID != prevAuthor)

		units = append(units, Unit{
			Kind:       KindMessage,
			Message:    m,
			Mine:       mine,
			ShowName:   showName,
			ShowAvatar: !mine,
			IsImage:    m.IsImage(),
			TimeLabel:  local.Format("15:04"),
		})

		prevAuthor = m.UserID
		hasPrev = true
	}

	return units
}
