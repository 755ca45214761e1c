package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/dreyes/charla/internal/api"
	"github.com/dreyes/charla/internal/directory"
	"github.com/dreyes/charla/internal/tui/ui"
)

// Sidebar is the chat directory pane: a live-filter search input above the
// chat table. Every keystroke in the input triggers a directory refresh.
type Sidebar struct {
	*tview.Flex
	theme    *ui.Theme
	input    *tview.InputField
	table    *tview.Table
	chats    []api.ChatSummary
	onQuery  func(query string)
	onSelect func(chat api.ChatSummary)
}

// NewSidebar creates the sidebar pane.
func NewSidebar(theme *ui.Theme) *Sidebar {
	input := tview.NewInputField().
		SetLabel(" / ").
		SetFieldWidth(0)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.TitleColor)

	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Chats ")
	table.SetBorderColor(theme.BorderColor)
	table.SetTitleColor(theme.TitleColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, false).
		AddItem(table, 0, 1, true)

	s := &Sidebar{Flex: flex, theme: theme, input: input, table: table}

	input.SetChangedFunc(func(text string) {
		if s.onQuery != nil {
			s.onQuery(text)
		}
	})
	table.SetSelectedFunc(func(row, col int) {
		if chat, ok := s.chatAt(row); ok && s.onSelect != nil {
			s.onSelect(chat)
		}
	})

	return s
}

// SetOnQuery sets the per-keystroke filter callback.
func (s *Sidebar) SetOnQuery(fn func(query string)) {
	s.onQuery = fn
}

// SetOnSelect sets the chat activation callback.
func (s *Sidebar) SetOnSelect(fn func(chat api.ChatSummary)) {
	s.onSelect = fn
}

// Update replaces the table contents with a new directory snapshot.
func (s *Sidebar) Update(chats []api.ChatSummary) {
	s.chats = chats
	s.table.Clear()

	for i, chat := range chats {
		marker := " "
		if chat.IsGroup {
			count := 0
			if chat.GroupInfo != nil {
				count = chat.GroupInfo.ParticipantCount
			}
			marker = fmt.Sprintf("[%d]", count)
		} else if chat.OtherUser != nil && chat.OtherUser.IsOnline {
			marker = "●"
		}

		name := tview.Escape(sanitizeForTerminal(chat.Name))
		preview := tview.Escape(sanitizeForTerminal(directory.Preview(&chat)))
		clock := ""
		if lm := chat.LastMessage(); lm != nil {
			clock = lm.Timestamp
		}

		s.table.SetCell(i, 0, tview.NewTableCell(" "+marker).SetMaxWidth(4).SetTextColor(s.theme.OnlineColor))
		s.table.SetCell(i, 1, tview.NewTableCell(" "+name).SetMaxWidth(22).SetExpansion(1).SetTextColor(s.theme.FgColor))
		s.table.SetCell(i, 2, tview.NewTableCell(" "+preview).SetMaxWidth(30).SetExpansion(2).SetTextColor(s.theme.FgColor))
		s.table.SetCell(i, 3, tview.NewTableCell(" "+clock).SetMaxWidth(7).SetTextColor(s.theme.SeparatorColor))
	}
}

// Selected returns the highlighted chat summary.
func (s *Sidebar) Selected() (api.ChatSummary, bool) {
	row, _ := s.table.GetSelection()
	return s.chatAt(row)
}

func (s *Sidebar) chatAt(row int) (api.ChatSummary, bool) {
	if row >= 0 && row < len(s.chats) {
		return s.chats[row], true
	}
	return api.ChatSummary{}, false
}

// Input returns the search input field.
func (s *Sidebar) Input() *tview.InputField {
	return s.input
}

// Table returns the chat table.
func (s *Sidebar) Table() *tview.Table {
	return s.table
}
