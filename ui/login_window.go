package ui

import (
	"context"
	"errors"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/portal-login/v2/assets"
	"github.com/portal-login/v2/core"
	"github.com/portal-login/v2/internal/auth"
	"github.com/portal-login/v2/internal/config"
	"github.com/portal-login/v2/internal/pkg/logger"
)

// LoginOptions tune the login window
type LoginOptions struct {
	// ShowRoleNotice shows a dialog announcing the role before navigating.
	ShowRoleNotice bool
	RequestTimeout time.Duration
}

// LoginWindowUI holds the login form, the scene behind it and the controller
// that runs submissions.
type LoginWindowUI struct {
	App fyne.App
	Win fyne.Window

	usernameEntry *widget.Entry
	passwordEntry *widget.Entry
	errorLabel    *widget.Label
	statusLabel   *widget.Label
	loginButton   *widget.Button
	scene         *SceneView

	ctx        context.Context
	controller *core.LoginController
	timeout    time.Duration
	submitting bool
}

// NewLoginWindow creates the login window. On success the session is saved to
// store and nav is sent to the route of the user's role.
func NewLoginWindow(ctx context.Context, a fyne.App, service auth.Service, store core.SessionStore, nav core.Navigator, opts LoginOptions) *LoginWindowUI {
	if service == nil {
		logger.FromContext(ctx).Fatal("Auth service not provided to NewLoginWindow")
	}

	ui := &LoginWindowUI{
		App:     a,
		ctx:     ctx,
		timeout: opts.RequestTimeout,
	}
	if ui.timeout <= 0 {
		ui.timeout = config.DefaultRequestTimeout
	}

	var notifier core.Notifier
	if opts.ShowRoleNotice {
		notifier = ui
	}
	ui.controller = core.NewLoginController(service, store, nav, notifier)

	ui.Win = a.NewWindow("Login")
	ui.Win.SetIcon(assets.LogoResource())
	ui.setupUI()

	ui.Win.SetOnClosed(ui.scene.Stop)
	ui.Win.Resize(fyne.NewSize(800, 600))
	ui.Win.CenterOnScreen()
	ui.scene.Start()

	return ui
}

// setupUI lays the form over the scene
func (ui *LoginWindowUI) setupUI() {
	ui.usernameEntry = widget.NewEntry()
	ui.usernameEntry.SetPlaceHolder("Username")
	ui.usernameEntry.OnChanged = func(string) { ui.updateLoginButton() }

	ui.passwordEntry = widget.NewPasswordEntry()
	ui.passwordEntry.SetPlaceHolder("Password")
	ui.passwordEntry.OnChanged = func(string) { ui.updateLoginButton() }
	ui.passwordEntry.OnSubmitted = func(string) {
		if !ui.loginButton.Disabled() {
			ui.submit()
		}
	}

	ui.errorLabel = widget.NewLabel("")
	ui.errorLabel.Importance = widget.DangerImportance
	ui.errorLabel.Wrapping = fyne.TextWrapWord
	ui.errorLabel.Hide()

	ui.statusLabel = widget.NewLabel("")
	ui.statusLabel.Alignment = fyne.TextAlignCenter

	ui.loginButton = widget.NewButton("Login", ui.submit)
	ui.loginButton.Importance = widget.HighImportance
	ui.loginButton.Disable()

	// Fixes the form width; the labels and entries would shrink to fit otherwise.
	width := canvas.NewRectangle(color.Transparent)
	width.SetMinSize(fyne.NewSize(280, 0))

	form := container.NewVBox(
		width,
		widget.NewLabelWithStyle("Please Log In", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		ui.errorLabel,
		widget.NewLabel("Username"),
		ui.usernameEntry,
		widget.NewLabel("Password"),
		ui.passwordEntry,
		ui.loginButton,
		ui.statusLabel,
	)

	ui.scene = NewSceneView(core.NewDefaultScene())
	ui.Win.SetContent(container.NewStack(
		ui.scene,
		container.NewCenter(widget.NewCard("", "", form)),
	))
	ui.Win.Canvas().Focus(ui.usernameEntry)
}

func (ui *LoginWindowUI) credentials() auth.Credentials {
	return auth.Credentials{
		Username: ui.usernameEntry.Text,
		Password: ui.passwordEntry.Text,
	}
}

// updateLoginButton enables Login only when both fields are filled in and no
// attempt is running.
func (ui *LoginWindowUI) updateLoginButton() {
	if !ui.submitting && ui.credentials().Complete() {
		ui.loginButton.Enable()
	} else {
		ui.loginButton.Disable()
	}
}

func (ui *LoginWindowUI) setSubmitting(submitting bool) {
	ui.submitting = submitting
	if submitting {
		ui.statusLabel.SetText("Logging in...")
	}
	ui.updateLoginButton()
}

func (ui *LoginWindowUI) setError(msg string) {
	ui.errorLabel.SetText(msg)
	if msg == "" {
		ui.errorLabel.Hide()
	} else {
		ui.errorLabel.Show()
	}
}

// submit starts a login attempt in the background
func (ui *LoginWindowUI) submit() {
	if ui.submitting {
		return
	}
	creds := ui.credentials()
	ui.setError("")
	ui.setSubmitting(true)

	go func() {
		ctx, cancel := context.WithTimeout(ui.ctx, ui.timeout)
		defer cancel()

		outcome, err := ui.controller.Submit(ctx, creds)
		fyne.Do(func() {
			ui.apply(outcome, err)
		})
	}()
}

// apply shows the result of a login attempt
func (ui *LoginWindowUI) apply(outcome core.Outcome, err error) {
	switch {
	case errors.Is(err, core.ErrSubmitInProgress):
		return
	case errors.Is(err, core.ErrMissingCredentials):
		ui.statusLabel.SetText("")
		ui.setSubmitting(false)
		ui.setError("Username and password are required.")
		return
	case err != nil:
		ui.statusLabel.SetText("")
		ui.setSubmitting(false)
		ui.setError(err.Error())
		return
	}

	if outcome.State == core.StateSucceeded {
		// The router closes this window; keep the form locked until it does.
		ui.statusLabel.SetText("Login successful!")
		return
	}

	ui.statusLabel.SetText("")
	ui.setSubmitting(false)
	ui.setError(outcome.Message)
}

// NotifyRole shows the role announcement and continues once it is dismissed.
func (ui *LoginWindowUI) NotifyRole(role string, done func()) {
	fyne.Do(func() {
		d := dialog.NewInformation("Login", core.RoleNotice(role), ui.Win)
		d.SetOnClosed(done)
		d.Show()
	})
}
