package models

import (
	"time"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by the token signer on login, register and refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
