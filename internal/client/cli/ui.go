package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/dmitrijs2005/afterlight/internal/client/client"
	"github.com/dmitrijs2005/afterlight/internal/client/services"
	"github.com/dmitrijs2005/afterlight/internal/client/session"
	"github.com/dmitrijs2005/afterlight/internal/common"
	"github.com/dmitrijs2005/afterlight/internal/filex"
	"github.com/dmitrijs2005/afterlight/internal/models"
	"github.com/fatih/color"
)

func successMsg(msg string) string {
	return color.GreenString("✓") + " " + msg + "\n"
}

func failureMsg(msg string) string {
	return color.RedString("✗") + " " + msg + "\n"
}

func hintMsg(msg string) string {
	return color.CyanString("→") + " " + msg + "\n"
}

// describeError turns an error into the message shown to the user. Crypto
// failures are reported without any detail.
func describeError(err error) string {
	switch {
	case errors.Is(err, common.ErrAuthenticationFailed):
		return failureMsg("cannot decrypt, check passphrase")
	case errors.Is(err, common.ErrMalformedEncoding), errors.Is(err, models.ErrMalformedPayload), errors.Is(err, models.ErrUnknownPayload):
		return failureMsg("corrupt data")
	case errors.Is(err, common.ErrEntropyUnavailable):
		return failureMsg("secure random source unavailable")
	case errors.Is(err, common.ErrDerivationParamsInvalid):
		return failureMsg("invalid key derivation settings") + hintMsg("Check the kdf settings in your config")
	case errors.Is(err, common.ErrEmptyPassphrase):
		return failureMsg("passphrase must not be empty")
	case errors.Is(err, session.ErrLocked):
		return failureMsg("vault is locked") + hintMsg("Use "+color.YellowString("unlock")+" first")
	case errors.Is(err, session.ErrAlreadyUnlocked):
		return failureMsg("vault is already unlocked")
	case errors.Is(err, client.ErrUnavailable):
		return failureMsg("server unavailable") + hintMsg("Try again when the prompt shows online")
	case errors.Is(err, client.ErrLocalDataNotAvailable):
		return failureMsg("no offline data for this account") + hintMsg("Log in once while online")
	case errors.Is(err, common.ErrTokenExpired), errors.Is(err, common.ErrRefreshTokenExpired):
		return failureMsg("session expired") + hintMsg("Use "+color.YellowString("login")+" again")
	case errors.Is(err, common.ErrorUnauthorized):
		return failureMsg("invalid credentials")
	case errors.Is(err, common.ErrConflict):
		return failureMsg("already exists")
	case errors.Is(err, common.ErrorNotFound):
		return failureMsg("not found")
	case errors.Is(err, services.ErrHintRevealsPassphrase):
		return failureMsg("the hint must not contain the passphrase")
	case errors.Is(err, services.ErrNotAFile):
		return failureMsg("this artifact is not a file") + hintMsg("Use "+color.YellowString("reveal")+" instead")
	case errors.Is(err, services.ErrFileTooLarge):
		return failureMsg("file too large")
	case errors.Is(err, filex.ErrInvalidFileName):
		return failureMsg("unsafe file name in artifact")
	case errors.Is(err, common.ErrorValidation):
		return failureMsg(strings.TrimPrefix(err.Error(), common.ErrorValidation.Error()+": "))
	default:
		return failureMsg(err.Error())
	}
}

// startSpinner shows a spinner on w while a slow step runs. The returned
// function stops it and prints s.FinalMSG. The spinner only animates on a
// terminal; elsewhere just the final message is written.
func startSpinner(w io.Writer, message string) (*spinner.Spinner, func()) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	_ = s.Color("cyan")
	s.Start()

	return s, func() {
		if s.FinalMSG != "" && !strings.HasSuffix(s.FinalMSG, "\n") {
			s.FinalMSG += "\n"
		}
		if s.Active() {
			s.Stop()
			return
		}
		fmt.Fprint(w, s.FinalMSG)
	}
}
