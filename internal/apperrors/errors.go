package apperrors

import (
	"errors"
)

var (
	ErrAccountExists   = errors.New("account with this username or email already exists")
	ErrAccountNotFound = errors.New("account not found")

	ErrInvalidCredential = errors.New("invalid credential")

	// Single generic authentication failure
	// Every token problem is collapsed into this one before it leaves the service layer
	ErrUnauthorized = errors.New("unauthorized")

	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token is expired")
	ErrTokenInvalid   = errors.New("token signature or class is invalid")

	// Refresh token verifies cryptographically but does not match the persisted one
	ErrRefreshTokenStale = errors.New("refresh token is stale or already used")

	ErrSubscriptionExists = errors.New("subscription already exists")
	ErrSelfSubscription   = errors.New("can't subscribe to own channel")
)
