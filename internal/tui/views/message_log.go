package views

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/dreyes/charla/internal/render"
	"github.com/dreyes/charla/internal/tui/ui"
)

// MessageLog displays the rendered log of the active chat. Every update is
// a full replacement followed by a scroll to the newest message.
type MessageLog struct {
	*tview.TextView
	theme *ui.Theme
}

// NewMessageLog creates the message pane.
func NewMessageLog(theme *ui.Theme) *MessageLog {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Mensajes ")
	tv.SetBorderColor(theme.BorderColor)
	tv.SetTitleColor(theme.TitleColor)

	return &MessageLog{TextView: tv, theme: theme}
}

// Update replaces the pane contents with the given log projection.
func (v *MessageLog) Update(units []render.Unit) {
	v.Clear()

	for _, u := range units {
		switch u.Kind {
		case render.KindDateSeparator:
			fmt.Fprintf(v, "\n[gray]        ── %s ──[-]\n", u.DateLabel)
		case render.KindMessage:
			v.writeMessage(u)
		}
	}

	v.ScrollToEnd()
}

func (v *MessageLog) writeMessage(u render.Unit) {
	indent := ""
	if u.Mine {
		// Own messages are pushed right; everyone else hugs the left edge.
		indent = "        "
	}

	if u.ShowName {
		fmt.Fprintf(v, "%s[::b]%s[-:-:-]\n", indent, tview.Escape(sanitizeForTerminal(u.Message.UserName)))
	}

	body := tview.Escape(sanitizeForTerminal(u.Message.Content))
	if u.IsImage {
		body = "[fuchsia][imagen][-] " + body
	}

	bullet := ""
	if u.ShowAvatar {
		bullet = "○ "
	}

	color := "-"
	if u.Mine {
		color = "palegreen"
	}
	fmt.Fprintf(v, "%s%s[%s]%s[-] [gray]%s[-]\n", indent, bullet, color, body, u.TimeLabel)
}
