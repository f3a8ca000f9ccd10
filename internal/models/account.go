package models

import (
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID        uuid.UUID
	CreatedAt time.Time

	Username string
	Email    string
	FullName string

	AvatarURL string
	CoverURL  string

	HashedPassword string

	// Single outstanding refresh token, nil when logged out
	RefreshToken *string
}

// Sanitized returns a copy safe to hand to anything outside the auth core:
// credential hash and refresh token are stripped
func (a Account) Sanitized() Account {
	a.HashedPassword = ""
	a.RefreshToken = nil
	return a
}
