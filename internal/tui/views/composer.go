package views

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/dreyes/charla/internal/tui/ui"
)

// Composer is the message input line. Plain text is sent as a message; the
// "/img <path>" command sends a local file as an image message.
type Composer struct {
	*tview.InputField
	onSend  func(text string)
	onImage func(path string)
}

// NewComposer creates the composer input.
func NewComposer(theme *ui.Theme) *Composer {
	input := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.TitleColor)

	c := &Composer{InputField: input}

	input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := strings.TrimSpace(c.GetText())
		if text == "" {
			return
		}
		c.SetText("")

		if path, ok := strings.CutPrefix(text, "/img "); ok {
			if c.onImage != nil {
				c.onImage(strings.TrimSpace(path))
			}
			return
		}
		if c.onSend != nil {
			c.onSend(text)
		}
	})

	return c
}

// SetOnSend sets the text message callback.
func (c *Composer) SetOnSend(fn func(text string)) {
	c.onSend = fn
}

// SetOnImage sets the image command callback.
func (c *Composer) SetOnImage(fn func(path string)) {
	c.onImage = fn
}
