package ui

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/portal-login/v2/assets"
	"github.com/portal-login/v2/core"
	"github.com/portal-login/v2/internal/pkg/logger"
)

// currentScreen reports the route and window that are showing.
type currentScreen func() (core.Route, fyne.Window)

// setupSystemTray installs one tray menu for the whole app. Its items act on
// whatever window the router shows when they are picked.
func setupSystemTray(ctx context.Context, a fyne.App, r *Router, store core.SessionStore) {
	desk, ok := a.(desktop.App)
	if !ok {
		logger.Debugf(ctx, "System tray not supported on this platform.")
		return
	}

	desk.SetSystemTrayMenu(newTrayMenu(ctx, r.Current, store, r))
	desk.SetSystemTrayIcon(assets.LogoResource())
}

func newTrayMenu(ctx context.Context, current currentScreen, store core.SessionStore, nav core.Navigator) *fyne.Menu {
	showMenuItem := fyne.NewMenuItem("Show", func() {
		_, win := current()
		if win == nil {
			return
		}
		win.Show()
		win.RequestFocus()
	})

	logoutMenuItem := fyne.NewMenuItem("Log Out", func() {
		route, win := current()
		if route == core.RouteLogin {
			logger.Debugf(ctx, "Already on the login screen, nothing to log out from.")
			return
		}
		go func() {
			if err := store.Clear(ctx); err != nil {
				logger.Errorf(ctx, "Error clearing session: %v", err)
				if win != nil {
					fyne.Do(func() {
						dialog.ShowError(fmt.Errorf("failed to log out: %w", err), win)
					})
				}
				return
			}
			logger.Infof(ctx, "Logged out from the tray")
			nav.Navigate(core.RouteLogin)
		}()
	})

	return fyne.NewMenu("Portal", showMenuItem, logoutMenuItem)
}
