package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"fyne.io/fyne/v2/app"
	"github.com/portal-login/v2/assets"
	"github.com/portal-login/v2/core"
	"github.com/portal-login/v2/internal/config"
	"github.com/portal-login/v2/internal/pkg/logger"
	"github.com/portal-login/v2/services"
	"github.com/portal-login/v2/ui"
)

const appID = "com.portal-login.client"

// openSessionStore opens the sqlite session store, falling back to an
// in-memory one so the user can still log in for this run.
func openSessionStore(ctx context.Context, cfg *config.Config) (core.SessionStore, func()) {
	path, err := cfg.SessionDBPath()
	if err != nil {
		logger.Errorf(ctx, "Error resolving session database path: %v", err)
		return core.NewMemoryStore(), func() {}
	}

	db := core.NewDatabase(path)
	if err := db.Connect(ctx); err != nil {
		logger.Errorf(ctx, "Error opening session database, sessions will not survive a restart: %v", err)
		return core.NewMemoryStore(), func() {}
	}
	logger.Infof(ctx, "Session database opened at %s", path)

	return core.NewSQLiteStore(db), func() {
		if err := db.Close(); err != nil {
			logger.Errorf(ctx, "Error closing session database: %v", err)
		}
	}
}

// initialRoute picks the first screen: the role's screen when a session is
// stored, the login screen otherwise.
func initialRoute(ctx context.Context, store core.SessionStore, apiClient *services.ApiClient) core.Route {
	sess, err := store.Load(ctx)
	switch {
	case errors.Is(err, core.ErrNoSession):
		logger.Infof(ctx, "No stored session, launching login window.")
		return core.RouteLogin
	case err != nil:
		logger.Warnf(ctx, "Ignoring unreadable stored session: %v", err)
		return core.RouteLogin
	}

	apiClient.Token = sess.Token
	route := core.RouteForRole(sess.User.Role)
	logger.Infof(ctx, "Stored session found for role %q, launching %s.", sess.User.Role, route)
	return route
}

func main() {
	configPath := flag.String("config", config.DefaultConfigPath(), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)
	ctx := logger.ToContext(context.Background(), log)

	store, closeStore := openSessionStore(ctx, cfg)
	defer closeStore()

	myApp := app.NewWithID(appID)
	myApp.SetIcon(assets.LogoResource())

	apiClient := services.NewApiClient(cfg.APIURL, nil)
	authSvc := services.NewAuthService(apiClient)

	router := ui.NewRouter(ctx)
	ui.RegisterScreens(ctx, router, myApp, authSvc, store, ui.LoginOptions{
		ShowRoleNotice: cfg.ShowRoleNotice,
		RequestTimeout: cfg.RequestTimeout,
	})
	router.Open(initialRoute(ctx, store, apiClient))

	// Blocks until the last window is closed or the app quits from the tray.
	myApp.Run()
	logger.Infof(ctx, "Application has exited.")
}
