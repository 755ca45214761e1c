package render

import (
	"testing"
	"time"

	"github.com/dreyes/charla/internal/api"
)

const localUser = 7

func msg(id, userID int, content string, ts time.Time) api.Message {
	return api.Message{
		ID:        id,
		UserID:    userID,
		UserName:  map[int]string{7: "Ana", 2: "Maria", 3: "Luis"}[userID],
		Content:   content,
		Timestamp: api.Timestamp{Time: ts},
	}
}

func messageUnits(units []Unit) []Unit {
	var out []Unit
	for _, u := range units {
		if u.Kind == KindMessage {
			out = append(out, u)
		}
	}
	return out
}

func separators(units []Unit) []Unit {
	var out []Unit
	for _, u := range units {
		if u.Kind == KindDateSeparator {
			out = append(out, u)
		}
	}
	return out
}

func TestSeparatorBeforeFirstMessage(t *testing.T) {
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	units := Build([]api.Message{msg(1, 2, "hola", day)}, localUser, false, time.UTC)

	if len(units) != 2 {
		t.Fatalf("got %d units, want 2", len(units))
	}
	if units[0].Kind != KindDateSeparator {
		t.Error("first unit is not a date separator")
	}
	if units[1].Kind != KindMessage {
		t.Error("second unit is not a message")
	}
}

func TestSeparatorAtDayBoundaryOnly(t *testing.T) {
	day1 := time.Date(2026, 3, 10, 23, 50, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 11, 0, 10, 0, 0, time.UTC)

	units := Build([]api.Message{
		msg(1, 2, "a", day1),
		msg(2, 2, "b", day1.Add(time.Minute)),
		msg(3, 2, "c", day2),
		msg(4, 2, "d", day2.Add(time.Minute)),
	}, localUser, false, time.UTC)

	seps := separators(units)
	if len(seps) != 2 {
		t.Fatalf("got %d separators, want 2 (leading + one boundary)", len(seps))
	}
	if seps[0].DateLabel == seps[1].DateLabel {
		t.Errorf("separator labels identical: %q", seps[0].DateLabel)
	}

	// All on one day: only the leading separator.
	units = Build([]api.Message{
		msg(1, 2, "a", day1),
		msg(2, 2, "b", day1.Add(time.Minute)),
	}, localUser, false, time.UTC)
	if got := len(separators(units)); got != 1 {
		t.Errorf("single-day log has %d separators, want 1", got)
	}
}

func TestSeparatorUsesLocalCalendarDate(t *testing.T) {
	// 23:30 UTC is already the next day at UTC+2.
	ts := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	loc := time.FixedZone("UTC+2", 2*3600)

	units := Build([]api.Message{msg(1, 2, "a", ts)}, localUser, false, loc)
	if want := "11 Mar 2026"; units[0].DateLabel != want {
		t.Errorf("DateLabel = %q, want %q", units[0].DateLabel, want)
	}
}

func TestNameSuppressionRuns(t *testing.T) {
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	// [A, A, B, A] from non-local authors in a group chat.
	units := messageUnits(Build([]api.Message{
		msg(1, 2, "a1", day),
		msg(2, 2, "a2", day.Add(time.Minute)),
		msg(3, 3, "b1", day.Add(2*time.Minute)),
		msg(4, 2, "a3", day.Add(3*time.Minute)),
	}, localUser, true, time.UTC))

	want := []bool{true, false, true, true}
	for i, u := range units {
		if u.ShowName != want[i] {
			t.Errorf("unit %d ShowName = %v, want %v", i, u.ShowName, want[i])
		}
	}
}

func TestNameNeverShownForLocalUserOrOneToOne(t *testing.T) {
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	units := messageUnits(Build([]api.Message{
		msg(1, localUser, "mine", day),
		msg(2, 2, "theirs", day.Add(time.Minute)),
	}, localUser, true, time.UTC))
	if units[0].ShowName {
		t.Error("local user's message carries a name label")
	}
	if !units[1].ShowName {
		t.Error("non-local first-of-run message missing name label in group chat")
	}

	// One-to-one: never any labels.
	units = messageUnits(Build([]api.Message{
		msg(1, 2, "a", day),
		msg(2, 3, "b", day.Add(time.Minute)),
	}, localUser, false, time.UTC))
	for i, u := range units {
		if u.ShowName {
			t.Errorf("unit %d ShowName = true in one-to-one chat", i)
		}
	}
}

func TestLocalUserBreaksRun(t *testing.T) {
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	units := messageUnits(Build([]api.Message{
		msg(1, 2, "a1", day),
		msg(2, localUser, "mine", day.Add(time.Minute)),
		msg(3, 2, "a2", day.Add(2*time.Minute)),
	}, localUser, true, time.UTC))

	if !units[2].ShowName {
		t.Error("run not broken by intervening local-user message")
	}
}

func TestAlignmentAvatarAndContentKind(t *testing.T) {
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	units := messageUnits(Build([]api.Message{
		msg(1, localUser, "mine", day),
		msg(2, 2, "/static/uploads/17000_cat.png", day.Add(time.Minute)),
	}, localUser, false, time.UTC))

	if !units[0].Mine || units[0].ShowAvatar {
		t.Errorf("local unit = %+v, want right-aligned without avatar", units[0])
	}
	if units[1].Mine || !units[1].ShowAvatar {
		t.Errorf("remote unit = %+v, want left-aligned with avatar", units[1])
	}
	if units[0].IsImage {
		t.Error("text content classified as image")
	}
	if !units[1].IsImage {
		t.Error("upload path not classified as image")
	}
	if units[0].TimeLabel != "09:00" {
		t.Errorf("TimeLabel = %q, want 09:00", units[0].TimeLabel)
	}
}

func TestEmptyLog(t *testing.T) {
	units := Build(nil, localUser, false, time.UTC)
	if len(units) != 0 {
		t.Errorf("empty history produced %d units, want 0", len(units))
	}
}
