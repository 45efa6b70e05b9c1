package ui

import (
	"context"
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/portal-login/v2/assets"
	"github.com/portal-login/v2/core"
	"github.com/portal-login/v2/internal/pkg/logger"
)

// RoleScreen describes the landing screen of a role.
type RoleScreen struct {
	Route core.Route
	Title string
	Role  string
}

// RoleScreens lists the screens a successful login can land on.
func RoleScreens() []RoleScreen {
	return []RoleScreen{
		{Route: core.RouteHome, Title: "Sourcing Screen", Role: core.RoleSourcing},
		{Route: core.RouteLead, Title: "Lead Screen", Role: core.RoleLead},
		{Route: core.RouteSales, Title: "Sales Screen", Role: core.RoleSales},
	}
}

// RoleWindowUI holds the Fyne UI elements of a role's landing screen
type RoleWindowUI struct {
	App fyne.App
	Win fyne.Window

	userLabel    *widget.Label
	roleLabel    *widget.Label
	logoutButton *widget.Button

	ctx    context.Context
	screen RoleScreen
	store  core.SessionStore
	nav    core.Navigator

	// loaded is closed once the stored session has been shown.
	loaded chan struct{}
}

// NewRoleWindow creates the screen and starts loading the stored session
func NewRoleWindow(ctx context.Context, a fyne.App, screen RoleScreen, store core.SessionStore, nav core.Navigator) *RoleWindowUI {
	ui := &RoleWindowUI{
		App:    a,
		ctx:    ctx,
		screen: screen,
		store:  store,
		nav:    nav,
		loaded: make(chan struct{}),
	}
	ui.Win = a.NewWindow(screen.Title)
	ui.Win.Resize(fyne.NewSize(400, 300))
	ui.Win.SetIcon(assets.LogoResource())

	ui.setupUI()
	ui.loadSession()

	// With a tray to come back from, closing only hides the screen.
	if _, ok := a.(desktop.App); ok {
		ui.Win.SetCloseIntercept(func() {
			ui.Win.Hide()
		})
	}

	return ui
}

// setupUI creates the main layout and widgets
func (ui *RoleWindowUI) setupUI() {
	ui.userLabel = widget.NewLabel("Loading session...")
	ui.userLabel.Alignment = fyne.TextAlignCenter
	ui.userLabel.TextStyle = fyne.TextStyle{Bold: true}

	ui.roleLabel = widget.NewLabel("")
	ui.roleLabel.Alignment = fyne.TextAlignCenter

	sessionCard := widget.NewCard("Signed In", "", container.NewVBox(ui.userLabel, ui.roleLabel))

	ui.logoutButton = widget.NewButton("Log Out", ui.logout)

	content := container.NewVBox(
		widget.NewLabelWithStyle(ui.screen.Title, fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		sessionCard,
		layout.NewSpacer(),
		ui.logoutButton,
	)
	ui.Win.SetContent(content)
}

// loadSession reads the stored session off the UI goroutine
func (ui *RoleWindowUI) loadSession() {
	go func() {
		sess, err := ui.store.Load(ui.ctx)
		fyne.Do(func() {
			ui.showSession(sess, err)
			close(ui.loaded)
		})
	}()
}

func (ui *RoleWindowUI) showSession(sess core.Session, err error) {
	switch {
	case errors.Is(err, core.ErrNoSession):
		ui.userLabel.SetText("Not signed in")
		ui.roleLabel.SetText("")
	case err != nil:
		logger.Errorf(ui.ctx, "Error loading session: %v", err)
		ui.userLabel.SetText("Error loading session")
		ui.roleLabel.SetText("")
	default:
		ui.userLabel.SetText(sess.User.DisplayName())
		ui.roleLabel.SetText(fmt.Sprintf("Role: %s", sess.User.Role))
		if sess.User.Role != ui.screen.Role {
			logger.Warnf(ui.ctx, "Session role %q opened on the %s", sess.User.Role, ui.screen.Title)
		}
	}
}

// logout clears the stored session and goes back to the login screen
func (ui *RoleWindowUI) logout() {
	ui.logoutButton.Disable()

	go func() {
		if err := ui.store.Clear(ui.ctx); err != nil {
			logger.Errorf(ui.ctx, "Error clearing session: %v", err)
			fyne.Do(func() {
				dialog.ShowError(fmt.Errorf("failed to log out: %w", err), ui.Win)
				ui.logoutButton.Enable()
			})
			return
		}
		logger.Infof(ui.ctx, "Logged out from the %s", ui.screen.Title)
		ui.nav.Navigate(core.RouteLogin)
	}()
}
