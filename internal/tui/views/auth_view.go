package views

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/chatrise/internal/tui/ui"
)

// AuthMode selects between signing in and creating an account.
type AuthMode int

const (
	AuthLogin AuthMode = iota
	AuthRegister
)

// AuthRequest is the data submitted from the auth form.
type AuthRequest struct {
	Mode     AuthMode
	Username string
	Email    string
	Password string
}

// AuthView is the sign-in and registration form.
type AuthView struct {
	*tview.Flex
	theme    *ui.Theme
	form     *tview.Form
	status   *tview.TextView
	mode     AuthMode
	onSubmit func(AuthRequest)
	onQuit   func()
}

// NewAuthView creates a new auth view.
func NewAuthView(theme *ui.Theme) *AuthView {
	form := tview.NewForm()
	form.SetBorder(true)
	form.SetBorderColor(theme.BorderColor)
	form.SetBackgroundColor(theme.BgColor)
	form.SetTitleColor(theme.TitleColor)
	form.SetFieldBackgroundColor(theme.PromptBorderColor)
	form.SetFieldTextColor(theme.FgColor)
	form.SetLabelColor(theme.MenuKeyColor)
	form.SetButtonBackgroundColor(theme.CrumbActiveBg)
	form.SetButtonTextColor(theme.CrumbActiveFg)

	status := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	status.SetBackgroundColor(theme.BgColor)
	status.SetTextColor(theme.FgColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(status, 2, 0, false)

	av := &AuthView{
		Flex:   flex,
		theme:  theme,
		form:   form,
		status: status,
	}
	av.SetMode(AuthLogin)
	return av
}

// Name implements Component.
func (av *AuthView) Name() string { return "Sign in" }

// FocusTarget implements Component.
func (av *AuthView) FocusTarget() tview.Primitive { return av.form }

// Hints implements Component.
func (av *AuthView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Submit"},
		{Key: "Ctrl-C", Description: "Quit"},
	}
}

// SetOnSubmit sets the callback for a submitted form.
func (av *AuthView) SetOnSubmit(fn func(AuthRequest)) {
	av.onSubmit = fn
}

// SetOnQuit sets the callback for the Quit button.
func (av *AuthView) SetOnQuit(fn func()) {
	av.onQuit = fn
}

// Form returns the form primitive (for focus management).
func (av *AuthView) Form() *tview.Form {
	return av.form
}

// Mode returns the current form mode.
func (av *AuthView) Mode() AuthMode {
	return av.mode
}

// SetMode rebuilds the form for mode.
func (av *AuthView) SetMode(mode AuthMode) {
	av.mode = mode
	av.form.Clear(true)

	if mode == AuthRegister {
		av.form.SetTitle(" Create account ")
		av.form.AddInputField("Username", "", 32, nil, nil)
		av.form.AddInputField("Email", "", 40, nil, nil)
		av.form.AddPasswordField("Password", "", 32, '*', nil)
		av.form.AddButton("Register", av.submit)
		av.form.AddButton("Have an account", func() { av.SetMode(AuthLogin) })
	} else {
		av.form.SetTitle(" Sign in ")
		av.form.AddInputField("Username or email", "", 40, nil, nil)
		av.form.AddPasswordField("Password", "", 32, '*', nil)
		av.form.AddButton("Login", av.submit)
		av.form.AddButton("Create account", func() { av.SetMode(AuthRegister) })
	}
	av.form.AddButton("Quit", func() {
		if av.onQuit != nil {
			av.onQuit()
		}
	})
	av.form.SetCancelFunc(func() {
		if av.onQuit != nil {
			av.onQuit()
		}
	})
	av.form.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEnter {
			if idx, _ := av.form.GetFocusedItemIndex(); idx >= 0 {
				av.submit()
				return nil
			}
		}
		return event
	})
}

func (av *AuthView) text(label string) string {
	item := av.form.GetFormItemByLabel(label)
	if f, ok := item.(*tview.InputField); ok {
		return f.GetText()
	}
	return ""
}

func (av *AuthView) submit() {
	if av.onSubmit == nil {
		return
	}
	req := AuthRequest{Mode: av.mode, Password: av.text("Password")}
	if av.mode == AuthRegister {
		req.Username = av.text("Username")
		req.Email = av.text("Email")
	} else {
		req.Username = av.text("Username or email")
	}
	av.onSubmit(req)
}

// ShowMessage displays a status line under the form.
func (av *AuthView) ShowMessage(msg string) {
	av.status.Clear()
	av.status.SetText(tview.Escape(msg))
}
