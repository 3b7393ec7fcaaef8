package tui

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/matheus3301/chatrise/internal/presence"
	"github.com/matheus3301/chatrise/internal/rpc"
	"github.com/matheus3301/chatrise/internal/tui/client"
	"github.com/matheus3301/chatrise/internal/tui/keys"
	"github.com/matheus3301/chatrise/internal/tui/model"
	"github.com/matheus3301/chatrise/internal/tui/ui"
	"github.com/matheus3301/chatrise/internal/tui/views"
)

// Page names.
const (
	pageAuth     = "auth"
	pageChats    = "chats"
	pageThread   = "thread"
	pageDetails  = "details"
	pageSearch   = "search"
	pageContacts = "contacts"
	pageProfile  = "profile"
	pageHelp     = "help"
)

const (
	refreshInterval = 5 * time.Second
	watchRetry      = 2 * time.Second
	callTimeout     = 10 * time.Second
	promptHeight    = 3

	// resyncKind is sent by the server when this client missed events.
	resyncKind = "sync.resync"
)

// Options configures the TUI.
type Options struct {
	Client  *client.Client
	Profile string
	Server  string
	// HeartbeatInterval is the presence heartbeat period.
	HeartbeatInterval time.Duration
	// SaveToken persists the session token; an empty token clears it.
	SaveToken func(token string) error
	Logger    *zap.Logger
}

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	theme    *ui.Theme
	opts     Options
	client   *client.Client
	vm       *model.ViewModel
	registry *keys.Registry
	tracker  *presence.Tracker
	logger   *zap.Logger

	root     *tview.Flex
	pages    *ui.Pages
	account  *ui.AccountInfo
	menu     *ui.Menu
	logo     *ui.Logo
	crumbs   *ui.Crumbs
	prompt   *ui.Prompt
	flash    *ui.FlashModel
	flashBar *ui.FlashBar

	authView *views.AuthView
	chatList *views.ConversationList
	thread   *views.MessageThread
	details  *views.ConversationInfo
	search   *views.SearchView
	contacts *views.ContactsView
	profile  *views.ProfileView
	help     *views.HelpView

	components map[string]ui.Component

	ctx    context.Context
	cancel context.CancelFunc

	sessMu     sync.Mutex
	sessCancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(opts Options) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		app:      tview.NewApplication(),
		theme:    theme,
		opts:     opts,
		client:   opts.Client,
		vm:       model.NewViewModel(opts.Client),
		registry: keys.NewRegistry(),
		tracker:  presence.NewTracker(opts.Client, opts.HeartbeatInterval, logger),
		logger:   logger,
		pages:    ui.NewPages(),
		account:  ui.NewAccountInfo(theme),
		menu:     ui.NewMenu(theme),
		logo:     ui.NewLogo(theme),
		crumbs:   ui.NewCrumbs(theme),
		prompt:   ui.NewPrompt(theme),
		flash:    ui.NewFlashModel(),
		flashBar: ui.NewFlashBar(theme),
		authView: views.NewAuthView(theme),
		chatList: views.NewConversationList(theme),
		thread:   views.NewMessageThread(theme),
		details:  views.NewConversationInfo(theme),
		search:   views.NewSearchView(theme),
		contacts: views.NewContactsView(theme),
		profile:  views.NewProfileView(theme),
		help:     views.NewHelpView(theme),
		ctx:      ctx,
		cancel:   cancel,
	}

	a.components = map[string]ui.Component{
		pageAuth:     a.authView,
		pageChats:    a.chatList,
		pageThread:   a.thread,
		pageDetails:  a.details,
		pageSearch:   a.search,
		pageContacts: a.contacts,
		pageProfile:  a.profile,
		pageHelp:     a.help,
	}

	a.setupLayout()
	a.setupBindings()
	a.setupCallbacks()
	return a
}

func (a *App) setupLayout() {
	a.pages.AddPage(pageAuth, a.authView, true, false)
	a.pages.AddPage(pageChats, a.chatList, true, false)
	a.pages.AddPage(pageThread, a.thread, true, false)
	a.pages.AddPage(pageDetails, a.details, true, false)
	a.pages.AddPage(pageSearch, a.search, true, false)
	a.pages.AddPage(pageContacts, a.contacts, true, false)
	a.pages.AddPage(pageProfile, a.profile, true, false)
	a.pages.AddPage(pageHelp, a.help, true, false)

	header := tview.NewFlex().
		AddItem(a.account, 0, 2, false).
		AddItem(a.menu, 0, 2, false).
		AddItem(a.logo, 16, 0, false)

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 7, 0, false).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.flashBar, 1, 0, false)
	a.root.SetBackgroundColor(a.theme.BgColor)

	a.pages.SetOnChange(func(stack []string) {
		names := make([]string, 0, len(stack))
		for _, s := range stack {
			if c, ok := a.components[s]; ok {
				names = append(names, c.Name())
			}
		}
		a.crumbs.Update(names)
		if c, ok := a.components[a.pages.Current()]; ok {
			a.menu.Update(c.Hints())
		}
	})

	a.app.SetRoot(a.root, true)
	a.app.SetInputCapture(a.handleKey)
}

func (a *App) setupBindings() {
	a.registry.AddGlobal("help", &keys.Action{
		Key: tcell.KeyRune, Rune: '?', Description: "?:help", Visible: true,
		Handler: func() { a.push(pageHelp, a.help) },
	})
	a.registry.AddGlobal("command", &keys.Action{
		Key: tcell.KeyRune, Rune: ':', Description: "::command", Visible: true,
		Handler: func() { a.showPrompt(ui.PromptCommand) },
	})
	a.registry.AddGlobal("back", &keys.Action{
		Key: tcell.KeyRune, Rune: 'q', Description: "q:back",
		Handler: a.back,
	})

	a.registry.AddView(pageChats, "filter", &keys.Action{
		Key: tcell.KeyRune, Rune: '/', Description: "/:filter", Visible: true,
		Handler: func() { a.showPrompt(ui.PromptFilter) },
	})
	a.registry.AddView(pageChats, "clear", &keys.Action{
		Key: tcell.KeyRune, Rune: '0', Description: "0:all",
		Handler: a.chatList.ClearFilter,
	})
	a.registry.AddView(pageChats, "global", &keys.Action{
		Key: tcell.KeyRune, Rune: 'g', Description: "g:global", Visible: true,
		Handler: func() { a.openThread(model.GlobalRoom, "Global room") },
	})
	a.registry.AddView(pageChats, "contacts", &keys.Action{
		Key: tcell.KeyRune, Rune: 'c', Description: "c:contacts", Visible: true,
		Handler: a.showContacts,
	})
	a.registry.AddView(pageChats, "profile", &keys.Action{
		Key: tcell.KeyRune, Rune: 'p', Description: "p:profile", Visible: true,
		Handler: a.showProfile,
	})
	for r := '1'; r <= '9'; r++ {
		n := int(r - '0')
		a.registry.AddView(pageChats, "jump"+string(r), &keys.Action{
			Key: tcell.KeyRune, Rune: r,
			Handler: func() {
				if c := a.chatList.ChatByIndex(n); c != nil {
					a.openThread(c.PartnerID, c.PartnerName)
				}
			},
		})
	}

	a.registry.AddView(pageThread, "compose", &keys.Action{
		Key: tcell.KeyRune, Rune: 'i', Description: "i:compose", Visible: true,
		Handler: func() { a.app.SetFocus(a.thread.Composer()) },
	})
	a.registry.AddView(pageThread, "details", &keys.Action{
		Key: tcell.KeyRune, Rune: 'd', Description: "d:details", Visible: true,
		Handler: a.showDetails,
	})

	a.registry.AddView(pageContacts, "remove", &keys.Action{
		Key: tcell.KeyRune, Rune: 'x', Description: "x:remove", Visible: true,
		Handler: a.removeSelectedContact,
	})
}

func (a *App) setupCallbacks() {
	a.authView.SetOnSubmit(a.submitAuth)
	a.authView.SetOnQuit(a.Stop)

	a.chatList.SetSelectedFunc(func(row, _ int) {
		if c := a.chatList.ChatByIndex(row); c != nil {
			a.openThread(c.PartnerID, c.PartnerName)
		}
	})

	a.thread.SetOnSend(func(text string) {
		partner := a.thread.Partner()
		if partner == "" {
			return
		}
		a.async(func(ctx context.Context) error {
			if err := a.vm.SendText(ctx, partner, text); err != nil {
				return fmt.Errorf("send failed: %w", err)
			}
			if err := a.vm.LoadMessages(ctx, partner); err != nil {
				return err
			}
			a.app.QueueUpdateDraw(func() { a.thread.Update(a.vm.GetMessages()) })
			return nil
		})
	})

	a.search.SetOnQuery(func(query string) {
		a.async(func(ctx context.Context) error {
			results, err := a.vm.SearchMessages(ctx, query)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			a.app.QueueUpdateDraw(func() {
				a.search.Update(results)
				a.app.SetFocus(a.search.Results())
			})
			return nil
		})
	})
	a.search.Results().SetSelectedFunc(func(_, _ int) {
		partner := a.search.SelectedPartner()
		if partner == "" {
			return
		}
		name := a.partnerName(partner)
		a.openThread(partner, name)
	})

	a.contacts.SetSelectedFunc(func(_, _ int) {
		e := a.contacts.Selected()
		if e == nil {
			return
		}
		if !e.Pending {
			a.openThread(e.UserID, e.Username)
			return
		}
		a.async(func(ctx context.Context) error {
			if err := a.vm.Accept(ctx, e.RequestID); err != nil {
				return fmt.Errorf("accept failed: %w", err)
			}
			a.flash.Info("You are now contacts with " + e.Username)
			a.redrawContacts()
			return nil
		})
	})

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		if mode == ui.PromptFilter {
			a.chatList.SetFilter(text)
			return
		}
		cmd, err := ParseCommand(text)
		if err != nil {
			a.flash.Warn(err.Error())
			return
		}
		a.runCommand(cmd)
	})
	a.prompt.SetOnCancel(a.hidePrompt)
}

func (a *App) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyCtrlZ {
		a.suspend()
		return nil
	}

	current := a.pages.Current()
	if current == pageAuth {
		return event
	}

	// Text inputs own their keys; Esc leaves the composer.
	focused := a.app.GetFocus()
	if focused == a.thread.Composer() && event.Key() == tcell.KeyEscape {
		a.app.SetFocus(a.thread.Messages())
		return nil
	}
	if _, ok := focused.(*tview.InputField); ok {
		return event
	}

	if event.Key() == tcell.KeyEscape {
		a.back()
		return nil
	}
	if a.registry.HandleEvent(current, event) {
		return nil
	}
	return event
}

// push shows page and focuses p. Pushing a page that is already on the
// stack unwinds to it, which may drop the open thread.
func (a *App) push(page string, p tview.Primitive) {
	a.pages.Push(page)
	if !slices.Contains(a.pages.Stack(), pageThread) {
		a.vm.CloseThread()
	}
	a.app.SetFocus(p)
}

// back pops one page. Quitting from the chat list stops the app.
func (a *App) back() {
	if a.pages.Depth() <= 1 {
		a.Stop()
		return
	}
	if a.pages.Pop() == pageThread {
		a.vm.CloseThread()
	}
	if a.pages.Current() == pageChats {
		a.chatList.Update(a.vm.GetChats())
	}
	a.focusCurrent()
}

func (a *App) showPrompt(mode ui.PromptMode) {
	a.prompt.Activate(mode)
	a.root.ResizeItem(a.prompt, promptHeight, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.root.ResizeItem(a.prompt, 0, 0)
	a.focusCurrent()
}

// focusCurrent gives keyboard focus to the page on top of the stack.
func (a *App) focusCurrent() {
	if c, ok := a.components[a.pages.Current()]; ok {
		a.app.SetFocus(c.FocusTarget())
		return
	}
	a.app.SetFocus(a.pages)
}

func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case "quit":
		a.Stop()
	case "help":
		a.push(pageHelp, a.help)
	case "search":
		a.push(pageSearch, a.search.Input())
		if cmd.Args != "" {
			a.search.Input().SetText(cmd.Args)
			a.search.Submit()
		}
	case "chat":
		a.openChatByName(cmd.Args)
	case "global":
		a.openThread(model.GlobalRoom, "Global room")
	case "contacts":
		a.showContacts()
	case "profile":
		a.showProfile()
	case "add":
		email := cmd.Args
		a.async(func(ctx context.Context) error {
			if err := a.vm.AddContact(ctx, email); err != nil {
				return fmt.Errorf("add failed: %w", err)
			}
			a.flash.Info("Contact request sent to " + email)
			return nil
		})
	case "bio":
		bio := cmd.Args
		a.async(func(ctx context.Context) error {
			if err := a.vm.UpdateBio(ctx, bio); err != nil {
				return fmt.Errorf("update failed: %w", err)
			}
			a.flash.Info("Bio updated")
			a.app.QueueUpdateDraw(func() { a.profile.Update(a.vm.GetMe()) })
			return nil
		})
	case "logout":
		a.logout()
	}
}

func (a *App) openChatByName(name string) {
	for _, c := range a.vm.GetChats() {
		if strings.EqualFold(c.PartnerName, name) {
			a.openThread(c.PartnerID, c.PartnerName)
			return
		}
	}
	friends, _ := a.vm.GetContacts()
	for _, f := range friends {
		if strings.EqualFold(f.Username, name) {
			a.openThread(f.UserID, f.Username)
			return
		}
	}
	a.flash.Warn("no chat named " + name)
}

func (a *App) partnerName(id string) string {
	if id == model.GlobalRoom {
		return "Global room"
	}
	for _, c := range a.vm.GetChats() {
		if c.PartnerID == id {
			return c.PartnerName
		}
	}
	return id
}

func (a *App) openThread(partnerID, name string) {
	a.async(func(ctx context.Context) error {
		if err := a.vm.LoadMessages(ctx, partnerID); err != nil {
			return fmt.Errorf("load failed: %w", err)
		}
		a.app.QueueUpdateDraw(func() {
			a.thread.SetPartner(partnerID)
			a.thread.SetChatName(name)
			a.thread.Update(a.vm.GetMessages())
			a.push(pageThread, a.thread.Messages())
		})
		return nil
	})
}

func (a *App) showDetails() {
	partner := a.thread.Partner()
	if partner == "" || partner == model.GlobalRoom {
		return
	}
	a.async(func(ctx context.Context) error {
		p, err := a.vm.PartnerProfile(ctx, partner)
		if err != nil {
			return err
		}
		var summary *rpc.ChatSummary
		for _, c := range a.vm.GetChats() {
			if c.PartnerID == partner {
				summary = &c
				break
			}
		}
		a.app.QueueUpdateDraw(func() {
			a.details.Update(p, summary)
			a.push(pageDetails, a.details)
		})
		return nil
	})
}

func (a *App) showContacts() {
	a.async(func(ctx context.Context) error {
		if err := a.vm.LoadContacts(ctx); err != nil {
			return err
		}
		a.app.QueueUpdateDraw(func() {
			a.contacts.Update(a.vm.GetContacts())
			a.push(pageContacts, a.contacts)
		})
		return nil
	})
}

func (a *App) redrawContacts() {
	a.app.QueueUpdateDraw(func() {
		a.contacts.Update(a.vm.GetContacts())
		a.updateAccount()
	})
}

func (a *App) removeSelectedContact() {
	e := a.contacts.Selected()
	if e == nil {
		return
	}
	a.async(func(ctx context.Context) error {
		if err := a.vm.Remove(ctx, e.RequestID); err != nil {
			return fmt.Errorf("remove failed: %w", err)
		}
		a.flash.Info("Removed " + e.Username)
		a.redrawContacts()
		return nil
	})
}

func (a *App) showProfile() {
	a.profile.Update(a.vm.GetMe())
	a.push(pageProfile, a.profile)
}

func (a *App) updateAccount() {
	data := &ui.AccountData{
		Profile:  a.opts.Profile,
		Server:   a.opts.Server,
		Presence: strings.ToLower(string(a.tracker.State())),
		Online:   a.vm.GetOnlineCount(),
	}
	if me := a.vm.GetMe(); me != nil {
		data.Username = me.Username
	}
	friends, incoming := a.vm.GetContacts()
	data.Friends = len(friends)
	data.Pending = len(incoming)
	a.account.Update(data)
}

// async runs fn off the UI goroutine and flashes its error.
func (a *App) async(fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, callTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			a.logger.Warn("tui call failed", zap.Error(err))
			a.flash.Err(err)
		}
	}()
}

// suspend hides the UI and stops the process until it is resumed. Heartbeats
// pause while suspended without reporting the user offline.
func (a *App) suspend() {
	a.app.Suspend(func() {
		a.tracker.SetVisible(false)
		_ = syscall.Kill(os.Getpid(), syscall.SIGTSTP)
		a.tracker.SetVisible(true)
	})
}

// Run starts the TUI application. It restores the session when the client
// already holds a valid token and shows the sign-in form otherwise.
func (a *App) Run() error {
	a.pages.Reset(pageAuth)
	a.app.SetFocus(a.authView.Form())
	a.updateAccount()

	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, callTimeout)
		err := a.vm.LoadMe(ctx)
		cancel()
		if err != nil {
			if a.client.Token() != "" {
				a.logger.Info("stored session rejected", zap.Error(err))
				a.app.QueueUpdateDraw(func() { a.authView.ShowMessage("Session expired, please sign in") })
			}
			return
		}
		a.enterSession()
	}()
	a.startRefreshLoop()

	err := a.app.Run()
	a.shutdown()
	return err
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	a.tracker.Close(ctx)
	a.cancel()
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.app.Stop()
}
