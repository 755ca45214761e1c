package views

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/dreyes/charla/internal/api"
	"github.com/dreyes/charla/internal/tui/ui"
)

// NewChatForm creates a chat from the server's user roster. Selecting one
// user starts an individual chat; selecting several requires a group name.
type NewChatForm struct {
	*tview.Form
	users    []api.User
	checked  map[int]bool
	onCreate func(name string, participants []int, isGroup bool)
	onCancel func()
}

// NewNewChatForm builds the form around a fetched user list.
func NewNewChatForm(theme *ui.Theme) *NewChatForm {
	f := &NewChatForm{Form: tview.NewForm(), checked: make(map[int]bool)}
	f.SetBorder(true)
	f.SetTitle(" Nuevo chat ")
	f.SetBorderColor(theme.BorderColor)
	f.SetTitleColor(theme.TitleColor)
	f.SetFieldBackgroundColor(theme.BgColor)
	f.SetFieldTextColor(theme.FgColor)
	f.SetButtonBackgroundColor(theme.BorderColor)
	return f
}

// SetOnCreate sets the submit callback.
func (f *NewChatForm) SetOnCreate(fn func(name string, participants []int, isGroup bool)) {
	f.onCreate = fn
}

// SetOnCancel sets the dismiss callback.
func (f *NewChatForm) SetOnCancel(fn func()) {
	f.onCancel = fn
}

// Populate rebuilds the form for the given roster.
func (f *NewChatForm) Populate(users []api.User) {
	f.users = users
	f.checked = make(map[int]bool)
	f.Clear(true)

	f.AddInputField("Nombre del grupo", "", 40, nil, nil)
	for _, u := range users {
		id := u.ID
		label := fmt.Sprintf("%s <%s>", u.Name, u.Email)
		f.AddCheckbox(label, false, func(checked bool) {
			f.checked[id] = checked
		})
	}

	f.AddButton("Crear", func() {
		if f.onCreate == nil {
			return
		}
		var participants []int
		for id, on := range f.checked {
			if on {
				participants = append(participants, id)
			}
		}
		if len(participants) == 0 {
			return
		}
		name := f.GetFormItemByLabel("Nombre del grupo").(*tview.InputField).GetText()
		f.onCreate(name, participants, len(participants) > 1)
	})
	f.AddButton("Cancelar", func() {
		if f.onCancel != nil {
			f.onCancel()
		}
	})
}
