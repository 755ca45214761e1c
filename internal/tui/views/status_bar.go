package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/dreyes/charla/internal/tui/ui"
)

// StatusBar is the bottom line: profile name, connection state, key hints
// and the current flash message.
type StatusBar struct {
	*tview.TextView
	theme   *ui.Theme
	profile string
	status  string
	hints   []string
	flash   string
	isError bool
}

// NewStatusBar creates the status bar.
func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)
	return &StatusBar{TextView: tv, theme: theme}
}

// SetProfile sets the profile name segment.
func (sb *StatusBar) SetProfile(name string) {
	sb.profile = name
	sb.render()
}

// SetStatus sets the connection state segment.
func (sb *StatusBar) SetStatus(status string) {
	sb.status = status
	sb.render()
}

// SetHints sets the keybinding hint segment.
func (sb *StatusBar) SetHints(hints []string) {
	sb.hints = hints
	sb.render()
}

// SetFlash sets the transient message segment.
func (sb *StatusBar) SetFlash(msg string, isError bool) {
	sb.flash = msg
	sb.isError = isError
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s", sb.profile, sb.status)
	if len(sb.hints) > 0 {
		line += " | " + strings.Join(sb.hints, "  ")
	}
	if sb.flash != "" {
		color := "yellow"
		if sb.isError {
			color = "orangered"
		}
		line += fmt.Sprintf(" | [%s]%s[-]", color, tview.Escape(sb.flash))
	}

	fmt.Fprint(sb, line)
}
