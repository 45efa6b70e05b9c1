package ui

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portal-login/v2/core"
	"github.com/portal-login/v2/internal/auth"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

type stubAuth struct {
	mu     sync.Mutex
	calls  []auth.Credentials
	result *auth.Result
	err    error
}

func (s *stubAuth) Login(_ context.Context, creds auth.Credentials) (*auth.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, creds)
	return s.result, s.err
}

func (s *stubAuth) Calls() []auth.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]auth.Credentials(nil), s.calls...)
}

type navRecorder struct {
	mu     sync.Mutex
	routes []core.Route
}

func (n *navRecorder) Navigate(route core.Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *navRecorder) Routes() []core.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]core.Route(nil), n.routes...)
}

func userWithRole(t *testing.T, body string) auth.User {
	t.Helper()
	var u auth.User
	require.NoError(t, json.Unmarshal([]byte(body), &u))
	return u
}

func waitLoaded(t *testing.T, ui *RoleWindowUI) {
	t.Helper()
	select {
	case <-ui.loaded:
	case <-time.After(waitFor):
		t.Fatal("stored session was not shown in time")
	}
}

func newTestLogin(t *testing.T, svc auth.Service, store core.SessionStore, nav core.Navigator) *LoginWindowUI {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)

	ui := NewLoginWindow(context.Background(), a, svc, store, nav, LoginOptions{RequestTimeout: time.Second})
	t.Cleanup(ui.Win.Close)
	return ui
}

func TestLoginButtonRequiresBothFields(t *testing.T) {
	ui := newTestLogin(t, &stubAuth{}, core.NewMemoryStore(), &navRecorder{})

	assert.True(t, ui.loginButton.Disabled())

	test.Type(ui.usernameEntry, "alice")
	assert.True(t, ui.loginButton.Disabled())

	test.Type(ui.passwordEntry, "secret")
	assert.False(t, ui.loginButton.Disabled())

	ui.usernameEntry.SetText("")
	assert.True(t, ui.loginButton.Disabled())
}

func TestLoginSubmitSuccess(t *testing.T) {
	svc := &stubAuth{result: &auth.Result{
		Status: auth.StatusSuccess,
		Token:  "abc123",
		User:   userWithRole(t, `{"role":"Lead"}`),
	}}
	store := core.NewMemoryStore()
	nav := &navRecorder{}
	ui := newTestLogin(t, svc, store, nav)

	test.Type(ui.usernameEntry, "alice")
	test.Type(ui.passwordEntry, "secret")
	test.Tap(ui.loginButton)

	require.Eventually(t, func() bool { return len(nav.Routes()) == 1 }, waitFor, tick)
	assert.Equal(t, []core.Route{core.RouteLead}, nav.Routes())
	assert.Equal(t, []auth.Credentials{{Username: "alice", Password: "secret"}}, svc.Calls())

	sess, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", sess.Token)
	assert.Equal(t, "Lead", sess.User.Role)
}

func TestLoginApplyFailure(t *testing.T) {
	ui := newTestLogin(t, &stubAuth{}, core.NewMemoryStore(), &navRecorder{})
	ui.usernameEntry.SetText("alice")
	ui.passwordEntry.SetText("wrong")

	ui.setSubmitting(true)
	assert.True(t, ui.loginButton.Disabled())
	assert.Equal(t, "Logging in...", ui.statusLabel.Text)

	ui.apply(core.Outcome{State: core.StateFailed, Message: "Invalid credentials"}, nil)

	assert.Equal(t, "Invalid credentials", ui.errorLabel.Text)
	assert.True(t, ui.errorLabel.Visible())
	assert.False(t, ui.loginButton.Disabled())
	assert.Equal(t, "alice", ui.usernameEntry.Text)
	assert.Equal(t, "wrong", ui.passwordEntry.Text)
}

func TestLoginApplyMissingCredentials(t *testing.T) {
	ui := newTestLogin(t, &stubAuth{}, core.NewMemoryStore(), &navRecorder{})

	ui.apply(core.Outcome{}, core.ErrMissingCredentials)
	assert.Equal(t, "Username and password are required.", ui.errorLabel.Text)

	ui.apply(core.Outcome{}, errors.New("boom"))
	assert.Equal(t, "boom", ui.errorLabel.Text)
}

func TestLoginApplySuccessKeepsFormLocked(t *testing.T) {
	ui := newTestLogin(t, &stubAuth{}, core.NewMemoryStore(), &navRecorder{})
	ui.usernameEntry.SetText("alice")
	ui.passwordEntry.SetText("secret")
	ui.setSubmitting(true)

	ui.apply(core.Outcome{State: core.StateSucceeded, Route: core.RouteSales}, nil)
	assert.Equal(t, "Login successful!", ui.statusLabel.Text)
	assert.True(t, ui.loginButton.Disabled())
	assert.False(t, ui.errorLabel.Visible())
}

func TestLoginWindowStopsSceneOnClose(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	ui := NewLoginWindow(context.Background(), a, &stubAuth{}, core.NewMemoryStore(), &navRecorder{}, LoginOptions{})
	assert.True(t, ui.scene.Running())

	ui.Win.Close()
	assert.False(t, ui.scene.Running())
}

func TestSceneViewRendersEveryEdge(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	scene := core.NewDefaultScene()
	view := NewSceneView(scene)
	w := test.NewWindow(view)
	defer w.Close()
	w.Resize(fyne.NewSize(800, 600))

	r := test.WidgetRenderer(view).(*sceneRenderer)
	assert.Len(t, r.Objects(), 1+scene.EdgeCount())

	before := r.lines[0][0].Position1
	scene.Step()
	view.Refresh()
	assert.NotEqual(t, before, r.lines[0][0].Position1)
}

func TestSceneViewStartStop(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	view := NewSceneView(core.NewDefaultScene())
	assert.False(t, view.Running())
	view.Start()
	view.Start()
	assert.True(t, view.Running())
	view.Stop()
	assert.False(t, view.Running())
}

func TestRouterOpen(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	var closed []string
	factory := func(title string) ScreenFactory {
		return func() fyne.Window {
			w := a.NewWindow(title)
			w.SetOnClosed(func() { closed = append(closed, title) })
			return w
		}
	}

	r := NewRouter(context.Background())
	r.Register(core.RouteLogin, factory("login"))
	r.Register(core.RouteLead, factory("lead"))

	r.Open(core.RouteLogin)
	route, win := r.Current()
	assert.Equal(t, core.RouteLogin, route)
	assert.Equal(t, "login", win.Title())

	r.Open(core.RouteLead)
	route, win = r.Current()
	assert.Equal(t, core.RouteLead, route)
	assert.Equal(t, "lead", win.Title())
	assert.Equal(t, []string{"login"}, closed)

	// No screen for sales: fall back to login.
	r.Open(core.RouteSales)
	route, _ = r.Current()
	assert.Equal(t, core.RouteLogin, route)
	assert.Equal(t, []string{"login", "lead"}, closed)
}

func TestRegisterScreens(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	r := NewRouter(context.Background())
	RegisterScreens(context.Background(), r, a, &stubAuth{}, core.NewMemoryStore(), LoginOptions{})

	for _, route := range []core.Route{core.RouteLogin, core.RouteHome, core.RouteLead, core.RouteSales} {
		assert.Contains(t, r.screens, route)
	}

	r.Open(core.RouteSales)
	_, win := r.Current()
	assert.Equal(t, "Sales Screen", win.Title())
}

func TestRoleWindowShowSession(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	ui := NewRoleWindow(context.Background(), a, RoleScreens()[1], core.NewMemoryStore(), &navRecorder{})
	defer ui.Win.Close()

	waitLoaded(t, ui)
	assert.Equal(t, "Not signed in", ui.userLabel.Text)

	ui.showSession(core.Session{Token: "t", User: userWithRole(t, `{"role":"Lead","username":"alice"}`)}, nil)
	assert.Equal(t, "alice", ui.userLabel.Text)
	assert.Equal(t, "Role: Lead", ui.roleLabel.Text)

	ui.showSession(core.Session{}, core.ErrNoSession)
	assert.Equal(t, "Not signed in", ui.userLabel.Text)

	ui.showSession(core.Session{}, errors.New("corrupt"))
	assert.Equal(t, "Error loading session", ui.userLabel.Text)
}

func TestRoleWindowLogout(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	ctx := context.Background()
	store := core.NewMemoryStore()
	require.NoError(t, store.Save(ctx, core.Session{Token: "t", User: userWithRole(t, `{"role":"Sales"}`)}))
	nav := &navRecorder{}

	ui := NewRoleWindow(ctx, a, RoleScreens()[2], store, nav)
	defer ui.Win.Close()

	waitLoaded(t, ui)
	assert.Equal(t, "Role: Sales", ui.roleLabel.Text)

	test.Tap(ui.logoutButton)

	require.Eventually(t, func() bool { return len(nav.Routes()) == 1 }, waitFor, tick)
	assert.Equal(t, []core.Route{core.RouteLogin}, nav.Routes())
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, core.ErrNoSession)
}

func TestTrayMenuFollowsCurrentScreen(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	ctx := context.Background()
	store := core.NewMemoryStore()
	require.NoError(t, store.Save(ctx, core.Session{Token: "t", User: userWithRole(t, `{"role":"Lead"}`)}))
	nav := &navRecorder{}

	route := core.RouteLead
	win := a.NewWindow("lead")
	defer win.Close()
	menu := newTrayMenu(ctx, func() (core.Route, fyne.Window) { return route, win }, store, nav)
	require.Len(t, menu.Items, 2)
	assert.Equal(t, "Show", menu.Items[0].Label)
	assert.Equal(t, "Log Out", menu.Items[1].Label)

	menu.Items[1].Action()
	require.Eventually(t, func() bool { return len(nav.Routes()) == 1 }, waitFor, tick)
	assert.Equal(t, []core.Route{core.RouteLogin}, nav.Routes())
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, core.ErrNoSession)

	// The router has moved on to the login window; the menu acts on it now.
	route = core.RouteLogin
	win = a.NewWindow("login")
	defer win.Close()
	menu.Items[1].Action()
	assert.Len(t, nav.Routes(), 1)
	menu.Items[0].Action()
}
