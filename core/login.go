package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/portal-login/v2/internal/auth"
	"github.com/portal-login/v2/internal/pkg/logger"
)

// FallbackErrorMessage is shown when a failure carries no server message.
const FallbackErrorMessage = "Login failed. Please try again."

var (
	// ErrMissingCredentials is returned when username or password is empty.
	ErrMissingCredentials = errors.New("username and password are required")
	// ErrSubmitInProgress is returned when a login attempt is already in flight.
	ErrSubmitInProgress = errors.New("login already in progress")
)

// State of the login workflow.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Notifier is run after the session is saved and before navigation. It must
// call done exactly once; navigation happens when it does.
type Notifier interface {
	NotifyRole(role string, done func())
}

// RoleNotice is the text announcing a successful login.
func RoleNotice(role string) string {
	return "Login successful! Your role is: " + role
}

// Outcome describes how a submitted login attempt ended.
type Outcome struct {
	State   State
	Message string
	Session Session
	Route   Route
}

// LoginController drives a login attempt: one request to the auth service,
// then either a saved session and a navigation, or an error message.
type LoginController struct {
	auth     auth.Service
	store    SessionStore
	nav      Navigator
	notifier Notifier

	mu       sync.Mutex
	state    State
	errorMsg string
}

// NewLoginController wires the collaborators. notifier may be nil, in which
// case navigation follows the save directly.
func NewLoginController(svc auth.Service, store SessionStore, nav Navigator, notifier Notifier) *LoginController {
	return &LoginController{
		auth:     svc,
		store:    store,
		nav:      nav,
		notifier: notifier,
	}
}

func (c *LoginController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ErrorMessage is the message of the last failed attempt, cleared when a new
// attempt starts.
func (c *LoginController) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errorMsg
}

// Submit runs one login attempt. Failures of the attempt itself are reported
// in the Outcome; the returned error is only set when no attempt was made.
// A rejection without a message reports FallbackErrorMessage, never a blank error.
func (c *LoginController) Submit(ctx context.Context, creds auth.Credentials) (Outcome, error) {
	if !creds.Complete() {
		return Outcome{State: c.State()}, ErrMissingCredentials
	}

	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return Outcome{State: StateSubmitting}, ErrSubmitInProgress
	}
	c.state = StateSubmitting
	c.errorMsg = ""
	c.mu.Unlock()

	result, err := c.auth.Login(ctx, creds)
	if err != nil {
		logger.Errorf(ctx, "Login error: %v", err)
		return c.fail(failureMessage(err)), nil
	}

	if result == nil {
		logger.Errorf(ctx, "Login error: empty response")
		return c.fail(FallbackErrorMessage), nil
	}

	if !result.Succeeded() {
		msg := result.Message
		if msg == "" {
			msg = FallbackErrorMessage
		}
		logger.Warnf(ctx, "Login rejected for %q: status=%q message=%q", creds.Username, result.Status, result.Message)
		return c.fail(msg), nil
	}

	sess := Session{Token: result.Token, User: result.User}
	if err := c.store.Save(ctx, sess); err != nil {
		logger.Errorf(ctx, "Login error: %v", err)
		return c.fail(FallbackErrorMessage), nil
	}

	route := RouteForRole(sess.User.Role)
	logger.Infof(ctx, "Login successful for %q, role %q, navigating to %s", creds.Username, sess.User.Role, route)

	c.mu.Lock()
	c.state = StateSucceeded
	c.mu.Unlock()

	navigate := func() { c.nav.Navigate(route) }
	if c.notifier != nil {
		c.notifier.NotifyRole(sess.User.Role, navigate)
	} else {
		navigate()
	}

	return Outcome{State: StateSucceeded, Session: sess, Route: route}, nil
}

func (c *LoginController) fail(msg string) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateIdle
	c.errorMsg = msg
	return Outcome{State: StateFailed, Message: msg}
}

func failureMessage(err error) string {
	var serverErr *auth.ServerError
	if errors.As(err, &serverErr) && serverErr.Message != "" {
		return serverErr.Message
	}
	return FallbackErrorMessage
}
