// Package models defines the vault data model shared by the server and the
// CLI: vaults, artifacts, the decrypted payload variants and the JSON shapes
// exchanged over the REST API.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/afterlight/internal/common"
	"github.com/dmitrijs2005/afterlight/internal/cryptox"
)

const (
	MaxVaultNameLen = 128
	MaxHintLen      = 256
	// MaxBlobSize bounds a single artifact ciphertext, tag included.
	MaxBlobSize = 1 << 20
)

// Vault is a named container of artifacts. Salt is generated once on the
// client when the vault is created and never changes afterwards.
type Vault struct {
	ID        string
	UserID    string
	Name      string
	Salt      cryptox.Salt
	Hint      string
	CreatedAt time.Time
}

// Artifact is one encrypted secret. The server never sees anything but the
// ciphertext and the nonce it was sealed with.
type Artifact struct {
	ID          string
	VaultID     string
	MessageType MessageType
	Blob        []byte
	IV          []byte
	CreatedAt   time.Time
}

// NormalizeVaultName trims name and checks it is non-empty and short enough.
func NormalizeVaultName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: vault name is required", common.ErrorValidation)
	}
	if utf8.RuneCountInString(name) > MaxVaultNameLen {
		return "", fmt.Errorf("%w: vault name longer than %d characters", common.ErrorValidation, MaxVaultNameLen)
	}
	return name, nil
}

// ValidateHint checks the optional recovery hint. The hint is stored in
// plaintext, so it must never be derived from the passphrase by the caller.
func ValidateHint(hint string) error {
	if utf8.RuneCountInString(hint) > MaxHintLen {
		return fmt.Errorf("%w: hint longer than %d characters", common.ErrorValidation, MaxHintLen)
	}
	return nil
}

// ValidateSealed performs the structural checks the server can make on an
// artifact without any key material.
func ValidateSealed(blob, iv []byte) error {
	if len(iv) != cryptox.NonceSize {
		return fmt.Errorf("%w: iv must be %d bytes", common.ErrorValidation, cryptox.NonceSize)
	}
	if len(blob) < cryptox.TagSize {
		return fmt.Errorf("%w: encrypted blob shorter than the authentication tag", common.ErrorValidation)
	}
	if len(blob) > MaxBlobSize {
		return fmt.Errorf("%w: encrypted blob larger than %d bytes", common.ErrorValidation, MaxBlobSize)
	}
	return nil
}
