package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/afterlight/internal/client/client"
	"github.com/dmitrijs2005/afterlight/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a username and password and creates an account.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, stop := startSpinner(a.out, "Creating account...")
	defer stop()

	if err := a.authService.Register(ctx, userName, password); err != nil {
		s.FinalMSG = describeError(err)
		return err
	}
	s.FinalMSG = successMsg("Account created") + hintMsg("Use login to sign in")
	return nil
}

// Login tries the server first and falls back to the cached credentials
// when the server is unavailable.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, stop := startSpinner(a.out, "Signing in...")
	defer stop()

	err = a.authService.OnlineLogin(ctx, userName, password)
	if errors.Is(err, client.ErrUnavailable) {
		a.logger.Info(ctx, "server unavailable, trying offline login")
		if err = a.authService.OfflineLogin(ctx, userName, password); err != nil {
			s.FinalMSG = describeError(err)
			a.setMode(ModeDisabled)
			return err
		}
		a.setMode(ModeOffline)
		a.setUser(userName)
		s.FinalMSG = successMsg("Logged in offline") + hintMsg("Cached vaults are read-only until the server is back")
		return nil
	}
	if err != nil {
		s.FinalMSG = describeError(err)
		return err
	}

	a.setMode(ModeOnline)
	a.setUser(userName)
	s.FinalMSG = successMsg("Logged in as " + userName)
	return nil
}

// Logout locks every vault and removes all locally cached data.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		a.printf("%s", describeError(err))
		return err
	}
	a.setUser("")
	a.mu.Lock()
	a.vaults, a.artifacts, a.current = nil, nil, nil
	a.mu.Unlock()

	a.printf("%s", successMsg("Logged out"))
	return nil
}
