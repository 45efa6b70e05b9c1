package ui

import (
	"context"

	"fyne.io/fyne/v2"
	"github.com/portal-login/v2/core"
	"github.com/portal-login/v2/internal/auth"
	"github.com/portal-login/v2/internal/pkg/logger"
)

// ScreenFactory builds the window shown for a route.
type ScreenFactory func() fyne.Window

// Router is the window level Navigator. Only one routed window is open at a time.
type Router struct {
	ctx          context.Context
	screens      map[core.Route]ScreenFactory
	current      fyne.Window
	currentRoute core.Route
}

func NewRouter(ctx context.Context) *Router {
	return &Router{
		ctx:     ctx,
		screens: make(map[core.Route]ScreenFactory),
	}
}

func (r *Router) Register(route core.Route, factory ScreenFactory) {
	r.screens[route] = factory
}

// Navigate may be called from any goroutine.
func (r *Router) Navigate(route core.Route) {
	fyne.Do(func() {
		r.Open(route)
	})
}

// Open shows the window for route and closes the previous one. It must run on
// the UI goroutine. Unregistered routes fall back to the login screen.
func (r *Router) Open(route core.Route) {
	factory, ok := r.screens[route]
	if !ok {
		logger.Warnf(r.ctx, "No screen registered for %s, falling back to %s", route, core.FallbackRoute)
		route = core.FallbackRoute
		if factory, ok = r.screens[route]; !ok {
			logger.Errorf(r.ctx, "No screen registered for %s", route)
			return
		}
	}

	logger.Debugf(r.ctx, "Navigating to %s", route)
	win := factory()
	// Show before closing so the app always has a window open.
	win.Show()
	if prev := r.current; prev != nil && prev != win {
		prev.Close()
	}
	r.current = win
	r.currentRoute = route
}

// Current returns the route and window that are showing.
func (r *Router) Current() (core.Route, fyne.Window) {
	return r.currentRoute, r.current
}

// RegisterScreens wires the login screen and every role screen into r, and
// gives the app a tray menu that follows r's current window.
func RegisterScreens(ctx context.Context, r *Router, a fyne.App, service auth.Service, store core.SessionStore, opts LoginOptions) {
	r.Register(core.RouteLogin, func() fyne.Window {
		return NewLoginWindow(ctx, a, service, store, r, opts).Win
	})
	for _, screen := range RoleScreens() {
		screen := screen
		r.Register(screen.Route, func() fyne.Window {
			return NewRoleWindow(ctx, a, screen, store, r).Win
		})
	}
	setupSystemTray(ctx, a, r, store)
}
