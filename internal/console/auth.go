package console

import (
	"context"
	"fmt"

	"github.com/camuig/trader-console/internal/logger"
)

// Credentials is where a successful sign-in puts the bearer token.
type Credentials interface {
	Set(token string) error
	Clear()
	SignedIn() bool
}

type Auth struct {
	api      AuthBackend
	creds    Credentials
	username string
	observer Observer
	logger   *logger.Logger
}

func NewAuth(api AuthBackend, creds Credentials, username string, obs Observer, log *logger.Logger) *Auth {
	return &Auth{api: api, creds: creds, username: username, observer: obs, logger: log}
}

func (a *Auth) SignIn(ctx context.Context, password string) error {
	if password == "" {
		return invalid("Password required")
	}
	resp, err := a.api.Login(ctx, a.username, password)
	report(a.observer, ActionSignIn, a.username, "", err)
	if err != nil {
		return err
	}
	if err := a.creds.Set(resp.AccessToken); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	a.logger.Info("signed in", "username", a.username)
	return nil
}

func (a *Auth) SignOut() {
	a.creds.Clear()
	report(a.observer, ActionSignOut, a.username, "", nil)
	a.logger.Info("signed out", "username", a.username)
}

func (a *Auth) SignedIn() bool {
	return a.creds.SignedIn()
}

func (a *Auth) ChangePassword(ctx context.Context, current, next, confirm string) error {
	if current == "" || next == "" {
		return invalid("Current and new password required")
	}
	if next != confirm {
		return invalid("New password and confirmation must match.")
	}
	err := a.api.ChangePassword(ctx, current, next)
	report(a.observer, ActionChangePassword, a.username, "", err)
	return err
}
