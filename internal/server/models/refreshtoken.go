package models

import "time"

// RefreshToken is a stored refresh token. Only a digest of the token is
// persisted, never the token itself.
type RefreshToken struct {
	UserID    string
	TokenHash string
	Expires   time.Time
}
