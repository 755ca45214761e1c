package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/dreyes/charla/internal/api"
	"github.com/dreyes/charla/internal/tui/ui"
)

// Header shows the active chat's name and a presence subtitle: the member
// list for groups, the online/last-seen state for one-to-one chats. It is
// re-rendered on every poll tick, so presence changes show up live.
type Header struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHeader creates the chat header line.
func NewHeader(theme *ui.Theme) *Header {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	return &Header{TextView: tv, theme: theme}
}

// Update re-renders the header from fresh chat info.
func (h *Header) Update(info *api.ChatInfo) {
	h.Clear()
	if info == nil {
		return
	}

	name := tview.Escape(sanitizeForTerminal(info.Name))
	subtitle := h.subtitle(info)
	fmt.Fprintf(h, " [::b]%s[-:-:-]  [gray]%s[-]", name, subtitle)
}

func (h *Header) subtitle(info *api.ChatInfo) string {
	if info.IsGroup {
		names := make([]string, 0, len(info.Participants))
		for _, p := range info.Participants {
			names = append(names, p.Name)
		}
		members := tview.Escape(sanitizeForTerminal(strings.Join(names, ", ")))
		return fmt.Sprintf("%d miembros · %s", info.ParticipantCount, members)
	}
	if info.OtherUser == nil {
		return ""
	}
	if info.OtherUser.IsOnline {
		return "[green]en línea[-]"
	}
	if info.OtherUser.LastSeen != "" {
		return "últ. vez " + tview.Escape(info.OtherUser.LastSeen)
	}
	return "desconectado"
}
