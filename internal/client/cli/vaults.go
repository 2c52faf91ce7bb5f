package cli

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/afterlight/internal/common"
	"github.com/dmitrijs2005/afterlight/internal/models"
	"github.com/fatih/color"
	"github.com/nbutton23/zxcvbn-go"
)

// minPassphraseScore is the zxcvbn score below which the user has to
// confirm a weak vault passphrase.
const minPassphraseScore = 3

var getConfirmation = GetConfirmation

// Vaults lists the account's vaults and remembers the listing for
// commands that take a vault number.
func (a *App) Vaults(ctx context.Context) error {
	list, cached, err := a.vaultService.List(ctx)
	if err != nil {
		a.printf("%s", describeError(err))
		return err
	}

	a.mu.Lock()
	a.vaults = list
	a.mu.Unlock()

	if len(list) == 0 {
		a.printf("%s", hintMsg("No vaults yet. Use "+color.YellowString("newvault")+" to create one"))
		return nil
	}
	if cached {
		a.printf("%s", hintMsg("Offline: showing cached vaults"))
	}
	for i, v := range list {
		state := color.RedString("locked")
		if a.vaultService.IsUnlocked(v.ID) {
			state = color.GreenString("unlocked")
		}
		a.printf("%3d. %-24s %-8s %s\n", i+1, v.Name, state, v.CreatedAt.Local().Format("2006-01-02 15:04"))
		if v.Hint != "" {
			a.printf("     hint: %s\n", v.Hint)
		}
	}
	return nil
}

// NewVault creates a vault protected by a new passphrase and unlocks it.
func (a *App) NewVault(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Vault name", a.out)
	if err != nil {
		return err
	}
	hint, err := getSimpleText(a.reader, "Passphrase hint (optional, stored unencrypted)", a.out)
	if err != nil {
		return err
	}

	pass, err := getPassword(a.out, "Enter vault passphrase")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)

	confirm, err := getPassword(a.out, "Repeat vault passphrase")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(pass, confirm) {
		a.printf("%s", failureMsg("passphrases do not match"))
		return nil
	}

	if len(pass) > 0 {
		strength := zxcvbn.PasswordStrength(string(pass), []string{name, hint})
		if strength.Score < minPassphraseScore {
			a.printf("%s", color.YellowString("!")+" Weak passphrase (estimated crack time: "+strength.CrackTimeDisplay+")\n")
			a.printf("%s", hintMsg("There is no way to recover a vault whose passphrase is lost or guessed"))
			ok, err := getConfirmation(a.reader, "Use it anyway?", a.out)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		}
	}

	s, stop := startSpinner(a.out, "Deriving vault key...")
	defer stop()

	v, err := a.vaultService.Create(ctx, name, pass, hint)
	if err != nil {
		s.FinalMSG = describeError(err)
		return err
	}

	a.mu.Lock()
	a.current = v
	a.artifacts = nil
	a.mu.Unlock()

	s.FinalMSG = successMsg("Vault "+color.CyanString(v.Name)+" created and unlocked") +
		hintMsg("Use "+color.YellowString("addtext")+" or "+color.YellowString("addfile")+" to store secrets")
	return nil
}

// resolveVault finds a vault by listing number, id or name.
func (a *App) resolveVault(ctx context.Context, ref string) (*models.Vault, error) {
	a.mu.Lock()
	list := a.vaults
	a.mu.Unlock()

	if len(list) == 0 {
		l, _, err := a.vaultService.List(ctx)
		if err != nil {
			return nil, err
		}
		list = l
		a.mu.Lock()
		a.vaults = l
		a.mu.Unlock()
	}

	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(list) {
		return list[n-1], nil
	}
	for _, v := range list {
		if v.ID == ref || strings.EqualFold(v.Name, ref) {
			return v, nil
		}
	}
	return nil, fmt.Errorf("vault %q: %w", ref, common.ErrorNotFound)
}

// Unlock derives the key of the referenced vault and makes it current.
func (a *App) Unlock(ctx context.Context, ref string) error {
	v, err := a.resolveVault(ctx, ref)
	if err != nil {
		a.printf("%s", describeError(err))
		return err
	}

	if a.vaultService.IsUnlocked(v.ID) {
		a.selectVault(v)
		a.printf("%s", successMsg("Switched to vault "+color.CyanString(v.Name)))
		return nil
	}

	if v.Hint != "" {
		a.printf("%s", hintMsg("Hint: "+v.Hint))
	}
	pass, err := getPassword(a.out, "Enter vault passphrase")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)

	s, stop := startSpinner(a.out, "Deriving vault key...")
	defer stop()

	if err := a.vaultService.Unlock(ctx, v.ID, pass); err != nil {
		s.FinalMSG = describeError(err)
		return err
	}
	a.selectVault(v)
	s.FinalMSG = successMsg("Vault " + color.CyanString(v.Name) + " unlocked")
	return nil
}

func (a *App) selectVault(v *models.Vault) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil || a.current.ID != v.ID {
		a.artifacts = nil
	}
	a.current = v
}

func (a *App) currentVault() *models.Vault {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Lock wipes the key of the current vault.
func (a *App) Lock(ctx context.Context) error {
	v := a.currentVault()
	if v == nil {
		a.printf("%s", failureMsg("no vault selected"))
		return nil
	}
	a.vaultService.Lock(v.ID)
	a.printf("%s", successMsg("Vault "+color.CyanString(v.Name)+" locked"))
	return nil
}
