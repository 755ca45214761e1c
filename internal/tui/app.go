package tui

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/dreyes/charla/internal/api"
	"github.com/dreyes/charla/internal/bus"
	"github.com/dreyes/charla/internal/config"
	"github.com/dreyes/charla/internal/directory"
	"github.com/dreyes/charla/internal/presence"
	"github.com/dreyes/charla/internal/render"
	"github.com/dreyes/charla/internal/sync"
	"github.com/dreyes/charla/internal/tui/keys"
	"github.com/dreyes/charla/internal/tui/model"
	"github.com/dreyes/charla/internal/tui/ui"
	"github.com/dreyes/charla/internal/tui/views"
)

const flashTTL = 5 * time.Second

// App is the TUI shell. It owns the tview application and translates bus
// events into view updates; all state changes flow through the controller
// and directory, never through the views directly.
type App struct {
	app       *tview.Application
	pages     *tview.Pages
	theme     *ui.Theme
	registry  *keys.Registry
	flash     *model.Flash
	logger    *zap.Logger

	cfg       *config.Config
	client    *api.Client
	ctrl      *sync.Controller
	dir       *directory.Directory
	heartbeat *presence.Heartbeat
	bus       *bus.Bus

	sidebar   *views.Sidebar
	header    *views.Header
	msgLog    *views.MessageLog
	composer  *views.Composer
	statusBar *views.StatusBar
	loginForm *views.LoginForm
	newChat   *views.NewChatForm

	profile string
	ctx     context.Context
	cancel  context.CancelFunc
}

// Params bundles the app's dependencies.
type Params struct {
	Profile   string
	Config    *config.Config
	Client    *api.Client
	Ctrl      *sync.Controller
	Dir       *directory.Directory
	Heartbeat *presence.Heartbeat
	Bus       *bus.Bus
	Logger    *zap.Logger
}

// NewApp creates the TUI application shell.
func NewApp(p Params) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		theme:     theme,
		registry:  keys.NewRegistry(),
		flash:     &model.Flash{},
		logger:    p.Logger,
		cfg:       p.Config,
		client:    p.Client,
		ctrl:      p.Ctrl,
		dir:       p.Dir,
		heartbeat: p.Heartbeat,
		bus:       p.Bus,
		sidebar:   views.NewSidebar(theme),
		header:    views.NewHeader(theme),
		msgLog:    views.NewMessageLog(theme),
		composer:  views.NewComposer(theme),
		statusBar: views.NewStatusBar(theme),
		loginForm: views.NewLoginForm(theme),
		newChat:   views.NewNewChatForm(theme),
		profile:   p.Profile,
		ctx:       ctx,
		cancel:    cancel,
	}

	a.statusBar.SetProfile(p.Profile)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal("quit", &keys.Action{
		Rune: 'q', Key: tcell.KeyRune,
		Description: "q:salir", Visible: true,
		Handler: func() { a.app.Stop() },
	})
	a.registry.AddGlobal("search", &keys.Action{
		Rune: '/', Key: tcell.KeyRune,
		Description: "/:buscar", Visible: true,
		Handler: func() { a.app.SetFocus(a.sidebar.Input()) },
	})
	a.registry.AddGlobal("new", &keys.Action{
		Rune: 'n', Key: tcell.KeyRune,
		Description: "n:nuevo", Visible: true,
		Handler: func() { a.showNewChat() },
	})
	a.registry.AddGlobal("refresh", &keys.Action{
		Key:         tcell.KeyCtrlR,
		Description: "^R:refrescar", Visible: true,
		Handler: func() {
			// Manual refresh doubles as the wake signal after the terminal
			// was backgrounded.
			a.heartbeat.Wake()
			go a.refreshDirectory("")
		},
	})
	a.registry.AddPage("main", "delete", &keys.Action{
		Rune: 'd', Key: tcell.KeyRune,
		Description: "d:eliminar", Visible: true,
		Handler: func() { a.confirmDelete() },
	})
	a.registry.AddPage("main", "compose", &keys.Action{
		Rune: 'i', Key: tcell.KeyRune,
		Description: "i:escribir", Visible: true,
		Handler: func() { a.app.SetFocus(a.composer.InputField) },
	})
	a.statusBar.SetHints(a.registry.Hints("main"))
}

func (a *App) setupCallbacks() {
	a.sidebar.SetOnQuery(func(query string) {
		go a.refreshDirectory(query)
	})

	a.sidebar.SetOnSelect(func(chat api.ChatSummary) {
		go func() {
			if err := a.ctrl.Select(a.ctx, chat.ID, chat.Name); err != nil {
				a.flashError("No se pudo abrir el chat: " + err.Error())
			}
		}()
	})

	a.composer.SetOnSend(func(text string) {
		go func() {
			if err := a.ctrl.Send(a.ctx, text); err != nil {
				a.flashError("Error al enviar: " + err.Error())
			}
		}()
	})

	a.composer.SetOnImage(func(path string) {
		go a.sendImage(path)
	})

	a.loginForm.SetOnLogin(func(email, password string) {
		go a.login(email, password)
	})
	a.loginForm.SetOnRegister(func(name, email, password string) {
		go a.register(name, email, password)
	})

	a.newChat.SetOnCreate(func(name string, participants []int, isGroup bool) {
		go a.createChat(name, participants, isGroup)
	})
	a.newChat.SetOnCancel(func() {
		a.pages.SwitchToPage("main")
		a.app.SetFocus(a.sidebar.Table())
	})
}

func (a *App) setupLayout() {
	chatPane := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.header, 1, 0, false).
		AddItem(a.msgLog, 0, 1, false).
		AddItem(a.composer, 1, 0, false)

	main := tview.NewFlex().
		AddItem(a.sidebar, 34, 0, true).
		AddItem(chatPane, 0, 1, false)

	a.pages.AddPage("main", main, true, true)
	a.pages.AddPage("login", center(a.loginForm, 50, 11), true, false)
	a.pages.AddPage("newchat", center(a.newChat, 60, 20), true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		a.heartbeat.Activity()

		currentPage, _ := a.pages.GetFrontPage()

		if event.Key() == tcell.KeyEscape && currentPage == "main" {
			a.app.SetFocus(a.sidebar.Table())
			return nil
		}

		// Text inputs consume their own keys.
		switch a.app.GetFocus().(type) {
		case *tview.InputField:
			return event
		}

		if a.registry.HandleEvent(currentPage, event) {
			return nil
		}
		return event
	})
}

// center wraps a primitive in a fixed-size centered frame.
func center(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 0, true).
			AddItem(nil, 0, 1, false), width, 0, true).
		AddItem(nil, 0, 1, false)
}

// Run starts the shell: consume bus events, run the startup sequence, and
// hand the terminal to tview.
func (a *App) Run() error {
	go a.consumeEvents()
	go a.startup()
	go a.flashLoop()
	return a.app.Run()
}

// Stop tears the shell down.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

// startup mirrors the page-load sequence: warm-start from cache, log in,
// refresh the directory, then try to restore the previous session.
func (a *App) startup() {
	a.dir.WarmStart()
	a.draw(func() {
		a.sidebar.Update(a.dir.Chats())
		a.statusBar.SetStatus("conectando")
	})

	if a.cfg.Email != "" && a.cfg.Password != "" {
		a.login(a.cfg.Email, a.cfg.Password)
		return
	}
	a.showLogin()
}

func (a *App) login(email, password string) {
	user, err := a.client.Login(a.ctx, email, password)
	if err != nil {
		a.logger.Warn("login failed", zap.String("email", email), zap.Error(err))
		a.flashError("Credenciales inválidas")
		a.showLogin()
		return
	}
	a.ctrl.SetLocalUser(*user)
	a.afterAuth()
}

func (a *App) register(name, email, password string) {
	user, err := a.client.Register(a.ctx, name, email, password)
	if err != nil {
		a.flashError("Registro fallido: " + err.Error())
		return
	}
	a.ctrl.SetLocalUser(*user)
	a.afterAuth()
}

func (a *App) afterAuth() {
	a.heartbeat.Start(a.ctx)

	if err := a.dir.Refresh(a.ctx, ""); err != nil {
		a.logger.Warn("initial directory refresh failed", zap.Error(err))
	}
	if err := a.ctrl.Restore(a.ctx); err != nil {
		a.logger.Warn("session restore failed", zap.Error(err))
	}

	a.draw(func() {
		a.statusBar.SetStatus("[green]en línea[-]")
		a.pages.SwitchToPage("main")
		a.app.SetFocus(a.sidebar.Table())
	})
}

func (a *App) showLogin() {
	a.draw(func() {
		a.loginForm.Prefill(a.cfg.Email, a.cfg.Password)
		a.pages.SwitchToPage("login")
		a.app.SetFocus(a.loginForm)
	})
}

func (a *App) showNewChat() {
	go func() {
		users, err := a.client.Users(a.ctx)
		if err != nil {
			a.flashError("No se pudo cargar usuarios: " + err.Error())
			return
		}
		local := a.ctrl.LocalUser()
		roster := users[:0:0]
		for _, u := range users {
			if u.ID != local.ID {
				roster = append(roster, u)
			}
		}
		a.draw(func() {
			a.newChat.Populate(roster)
			a.pages.SwitchToPage("newchat")
			a.app.SetFocus(a.newChat)
		})
	}()
}

func (a *App) createChat(name string, participants []int, isGroup bool) {
	created, err := a.client.CreateChat(a.ctx, name, participants, isGroup)
	if err != nil {
		a.flashError("No se pudo crear el chat: " + err.Error())
		return
	}
	a.refreshDirectory("")
	if err := a.ctrl.Select(a.ctx, created.ID, created.Name); err != nil {
		a.flashError("No se pudo abrir el chat: " + err.Error())
	}
	a.draw(func() {
		a.pages.SwitchToPage("main")
		a.app.SetFocus(a.composer.InputField)
	})
}

func (a *App) confirmDelete() {
	active, ok := a.ctrl.Active()
	if !ok {
		return
	}
	modal := tview.NewModal().
		SetText("¿Eliminar el chat \"" + active.ChatName + "\"?").
		AddButtons([]string{"Eliminar", "Cancelar"}).
		SetDoneFunc(func(idx int, label string) {
			a.pages.RemovePage("confirm")
			a.app.SetFocus(a.sidebar.Table())
			if label != "Eliminar" {
				return
			}
			go func() {
				if err := a.ctrl.Delete(a.ctx); err != nil {
					a.flashError("No se pudo eliminar: " + err.Error())
				}
			}()
		})
	a.pages.AddPage("confirm", modal, true, true)
	a.app.SetFocus(modal)
}

func (a *App) sendImage(path string) {
	f, err := os.Open(path)
	if err != nil {
		a.flashError("No se pudo abrir la imagen: " + err.Error())
		return
	}
	defer f.Close()
	if err := a.ctrl.SendImage(a.ctx, filepath.Base(path), f); err != nil {
		a.flashError("Error al enviar imagen: " + err.Error())
	}
}

func (a *App) refreshDirectory(query string) {
	if err := a.dir.Refresh(a.ctx, query); err != nil {
		a.logger.Warn("directory refresh failed", zap.String("query", query), zap.Error(err))
		a.flashError("Sin conexión con el servidor")
	}
}

// consumeEvents translates bus events into view updates.
func (a *App) consumeEvents() {
	ch, unsub := a.bus.Subscribe("", 64)
	defer unsub()

	for {
		select {
		case evt := <-ch:
			a.handleEvent(evt)
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case "directory.updated":
		chats, _ := evt.Payload.([]api.ChatSummary)
		a.draw(func() { a.sidebar.Update(chats) })
	case "directory.reload":
		go a.refreshDirectory("")
	case "sync.delta":
		// Deltas render in Transitioning too: the warm-start cached log is
		// published before the selection's fetches settle.
		delta, ok := evt.Payload.(sync.Delta)
		if !ok {
			return
		}
		local := a.ctrl.LocalUser()
		units := render.Build(delta.Messages, local.ID, delta.IsGroup, time.Local)
		a.draw(func() { a.msgLog.Update(units) })
	case "sync.info":
		info, _ := evt.Payload.(*api.ChatInfo)
		a.draw(func() { a.header.Update(info) })
	case "session.selected":
		active, _ := evt.Payload.(sync.ActiveChat)
		a.draw(func() {
			a.msgLog.SetTitle(" " + tview.Escape(active.ChatName) + " ")
			a.app.SetFocus(a.composer.InputField)
		})
	case "session.cleared":
		a.draw(func() {
			a.msgLog.Clear()
			a.msgLog.SetTitle(" Mensajes ")
			a.header.Update(nil)
			a.app.SetFocus(a.sidebar.Table())
		})
	}
}

// flashLoop keeps the status bar's transient message fresh.
func (a *App) flashLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			msg, isErr := a.flash.Get()
			a.draw(func() { a.statusBar.SetFlash(msg, isErr) })
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) flashError(msg string) {
	a.flash.SetError(msg, flashTTL)
	a.draw(func() { a.statusBar.SetFlash(msg, true) })
}

// draw schedules a UI mutation on the tview event loop.
func (a *App) draw(fn func()) {
	go a.app.QueueUpdateDraw(fn)
}
