package views

import (
	"github.com/rivo/tview"

	"github.com/dreyes/charla/internal/tui/ui"
)

// LoginForm collects credentials when no stored password works. Tab between
// the login and register modes with the bottom buttons.
type LoginForm struct {
	*tview.Form
	onLogin    func(email, password string)
	onRegister func(name, email, password string)
	registerIn bool
}

// NewLoginForm creates the login form, starting in login mode.
func NewLoginForm(theme *ui.Theme) *LoginForm {
	f := &LoginForm{Form: tview.NewForm()}
	f.SetBorder(true)
	f.SetBorderColor(theme.BorderColor)
	f.SetTitleColor(theme.TitleColor)
	f.SetFieldBackgroundColor(theme.BgColor)
	f.SetFieldTextColor(theme.FgColor)
	f.SetButtonBackgroundColor(theme.BorderColor)
	f.buildLogin()
	return f
}

// SetOnLogin sets the submit callback for login mode.
func (f *LoginForm) SetOnLogin(fn func(email, password string)) {
	f.onLogin = fn
}

// SetOnRegister sets the submit callback for register mode.
func (f *LoginForm) SetOnRegister(fn func(name, email, password string)) {
	f.onRegister = fn
}

// Prefill seeds the login fields from config.
func (f *LoginForm) Prefill(email, password string) {
	if f.registerIn {
		return
	}
	if item := f.GetFormItemByLabel("Email"); item != nil {
		item.(*tview.InputField).SetText(email)
	}
	if item := f.GetFormItemByLabel("Contraseña"); item != nil {
		item.(*tview.InputField).SetText(password)
	}
}

func (f *LoginForm) buildLogin() {
	f.registerIn = false
	f.Clear(true)
	f.SetTitle(" Iniciar sesión ")
	f.AddInputField("Email", "", 40, nil, nil)
	f.AddPasswordField("Contraseña", "", 40, '*', nil)
	f.AddButton("Entrar", func() {
		if f.onLogin == nil {
			return
		}
		email := f.GetFormItemByLabel("Email").(*tview.InputField).GetText()
		password := f.GetFormItemByLabel("Contraseña").(*tview.InputField).GetText()
		f.onLogin(email, password)
	})
	f.AddButton("Registrarse", func() { f.buildRegister() })
}

func (f *LoginForm) buildRegister() {
	f.registerIn = true
	f.Clear(true)
	f.SetTitle(" Crear cuenta ")
	f.AddInputField("Nombre", "", 40, nil, nil)
	f.AddInputField("Email", "", 40, nil, nil)
	f.AddPasswordField("Contraseña", "", 40, '*', nil)
	f.AddButton("Crear", func() {
		if f.onRegister == nil {
			return
		}
		name := f.GetFormItemByLabel("Nombre").(*tview.InputField).GetText()
		email := f.GetFormItemByLabel("Email").(*tview.InputField).GetText()
		password := f.GetFormItemByLabel("Contraseña").(*tview.InputField).GetText()
		f.onRegister(name, email, password)
	})
	f.AddButton("Volver", func() { f.buildLogin() })
}
