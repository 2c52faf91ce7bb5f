// Package models defines the server-side account rows. Vault and artifact
// rows use the shared internal/models types.
package models

import "time"

// User is a registered account. Salt is the account KDF salt handed back to
// the client at login; VerifierHash is an Argon2id PHC string of the
// client's login verifier.
type User struct {
	ID           string
	UserName     string
	Salt         []byte
	VerifierHash string
	CreatedAt    time.Time
}
