package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dsmelov/clipshare/internal/apperrors"
	"github.com/dsmelov/clipshare/internal/models"
	"github.com/dsmelov/clipshare/internal/repository"
	"github.com/dsmelov/clipshare/internal/service/auth/tokensigner"
)

const (
	defaultAccessCookieName  = "accessToken"
	defaultRefreshCookieName = "refreshToken"
	defaultAuthScheme        = "Bearer"
)

type Config struct {
	// Hasher to use during registration, login and password change
	// BcryptHasher is used if not set
	Hasher PasswordHasher

	// Cookie names for the two tokens
	// Defaults are used if not set
	AccessCookieName  string
	RefreshCookieName string
}

type AuthService struct {
	signer   *tokensigner.Signer
	hasher   PasswordHasher
	accounts repository.AccountRepo

	accessCookieName  string
	refreshCookieName string

	// Hash compared against when the account does not exist, so login
	// timing does not reveal whether the username is taken
	decoyHash string
}

func NewService(cfg Config, signer *tokensigner.Signer, accounts repository.AccountRepo) (*AuthService, error) {
	if signer == nil {
		return nil, errors.New("token signer must not be nil")
	}
	if accounts == nil {
		return nil, errors.New("account repo must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	setDefaultString := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	setDefaultString(&cfg.AccessCookieName, defaultAccessCookieName)
	setDefaultString(&cfg.RefreshCookieName, defaultRefreshCookieName)

	decoyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("error while preparing decoy hash. Err: %w", err)
	}

	return &AuthService{
		signer:            signer,
		hasher:            hasher,
		accounts:          accounts,
		accessCookieName:  cfg.AccessCookieName,
		refreshCookieName: cfg.RefreshCookieName,
		decoyHash:         decoyHash,
	}, nil
}

type RegisterParams struct {
	Username  string
	Email     string
	FullName  string
	Password  string
	AvatarURL string
	CoverURL  string
}

// Register creates an account and logs it in
// Returns apperrors.ErrAccountExists when username or email is taken
func (s *AuthService) Register(ctx context.Context, arg RegisterParams) (models.Account, models.TokenPair, error) {
	hash, err := s.hasher.Hash(arg.Password)
	if err != nil {
		return models.Account{}, models.TokenPair{}, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	account, err := s.accounts.Create(ctx, repository.CreateAccountParams{
		Username:       arg.Username,
		Email:          arg.Email,
		FullName:       arg.FullName,
		AvatarURL:      arg.AvatarURL,
		CoverURL:       arg.CoverURL,
		HashedPassword: hash,
	})
	if err != nil {
		return models.Account{}, models.TokenPair{}, err
	}

	pair, err := s.issueAndPersist(ctx, account.ID)
	if err != nil {
		return models.Account{}, models.TokenPair{}, err
	}

	return account.Sanitized(), pair, nil
}

// Login verifies the credential and issues a fresh token pair
// The hasher is ALWAYS invoked: against the stored hash when the account
// exists, against a decoy otherwise, so both failures take the same time
func (s *AuthService) Login(ctx context.Context, login string, password string) (models.Account, models.TokenPair, error) {
	account, err := s.accounts.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, apperrors.ErrAccountNotFound) {
			_ = s.hasher.Compare(s.decoyHash, password)
			return models.Account{}, models.TokenPair{}, apperrors.ErrAccountNotFound
		}
		return models.Account{}, models.TokenPair{}, err
	}

	if err := s.hasher.Compare(account.HashedPassword, password); err != nil {
		return models.Account{}, models.TokenPair{}, apperrors.ErrInvalidCredential
	}

	pair, err := s.issueAndPersist(ctx, account.ID)
	if err != nil {
		return models.Account{}, models.TokenPair{}, err
	}

	return account.Sanitized(), pair, nil
}

// Refresh exchanges a valid refresh token for a new pair and rotates the
// persisted value. A token that verifies cryptographically but does not
// match the stored one is treated as reused and rejected
// Every failure collapses into apperrors.ErrUnauthorized
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.Account, models.TokenPair, error) {
	unauthorized := func(err error) (models.Account, models.TokenPair, error) {
		return models.Account{}, models.TokenPair{}, fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	}

	accountID, err := s.signer.Verify(refresh, tokensigner.ClassRefresh)
	if err != nil {
		return unauthorized(err)
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return unauthorized(err)
	}

	if account.RefreshToken == nil ||
		subtle.ConstantTimeCompare([]byte(*account.RefreshToken), []byte(refresh)) != 1 {
		return unauthorized(apperrors.ErrRefreshTokenStale)
	}

	pair, err := s.signer.IssuePair(account.ID)
	if err != nil {
		return unauthorized(err)
	}

	// Compare-and-swap against the incoming token: a concurrent refresh
	// carrying the same token loses here and gets no pair
	err = s.accounts.RotateRefreshToken(ctx, account.ID, refresh, pair.Refresh.Value)
	if err != nil {
		return unauthorized(err)
	}

	return account.Sanitized(), pair, nil
}

// Logout clears the persisted refresh token
// Idempotent: logging out twice is not an error
func (s *AuthService) Logout(ctx context.Context, accountID uuid.UUID) error {
	return s.accounts.SetRefreshToken(ctx, accountID, nil)
}

// ChangePassword verifies the current plaintext and re-hashes
// The outstanding refresh token is deliberately left as is: changing the
// password does not force re-login on other devices
func (s *AuthService) ChangePassword(ctx context.Context, accountID uuid.UUID, current string, next string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(account.HashedPassword, current); err != nil {
		return apperrors.ErrInvalidCredential
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("can't use this as password. Err: %w", err)
	}

	return s.accounts.UpdatePasswordHash(ctx, accountID, hash)
}

// Authenticate resolves the account behind a request's access token
// Read-and-verify only, no state mutation. Loads the account with the
// credential hash and refresh token excluded from the projection
func (s *AuthService) Authenticate(ctx context.Context, r *http.Request) (models.Account, error) {
	unauthorized := func(err error) (models.Account, error) {
		return models.Account{}, fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	}

	access, err := s.readAccessToken(r)
	if err != nil {
		return unauthorized(err)
	}

	accountID, err := s.signer.Verify(access, tokensigner.ClassAccess)
	if err != nil {
		return unauthorized(err)
	}

	account, err := s.accounts.GetPublicByID(ctx, accountID)
	if err != nil {
		return unauthorized(err)
	}

	return account, nil
}

// Issue a token pair and persist the refresh token as one logical step:
// if persistence fails no tokens are returned
func (s *AuthService) issueAndPersist(ctx context.Context, accountID uuid.UUID) (models.TokenPair, error) {
	pair, err := s.signer.IssuePair(accountID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	if err := s.accounts.SetRefreshToken(ctx, accountID, &pair.Refresh.Value); err != nil {
		return models.TokenPair{}, fmt.Errorf("error while persisting refresh token. Err: %w", err)
	}

	return pair, nil
}

// SetTokenPairToResponse transports both tokens as secure http-only cookies
// and mirrors the access token in the Authorization header for clients
// that don't keep a cookie jar
func (s *AuthService) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	http.SetCookie(w, s.tokenCookie(s.accessCookieName, pair.Access))
	http.SetCookie(w, s.tokenCookie(s.refreshCookieName, pair.Refresh))
	w.Header().Set("Authorization", defaultAuthScheme+" "+pair.Access.Value)
}

// SetTokenPairToRequest attaches the pair to an outgoing request the same
// way a browser would resend it. Mostly useful in tests
func (s *AuthService) SetTokenPairToRequest(r *http.Request, pair models.TokenPair) {
	r.AddCookie(s.tokenCookie(s.accessCookieName, pair.Access))
	r.AddCookie(s.tokenCookie(s.refreshCookieName, pair.Refresh))
	r.Header.Set("Authorization", defaultAuthScheme+" "+pair.Access.Value)
}

// ClearTokensFromResponse instructs the client to drop both cookies
func (s *AuthService) ClearTokensFromResponse(w http.ResponseWriter) {
	for _, name := range []string{s.accessCookieName, s.refreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// ReadRefreshToken extracts the refresh token from the request:
// cookie first, JSON body fallback for non-cookie clients
func (s *AuthService) ReadRefreshToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.refreshCookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.RefreshToken != "" {
		return body.RefreshToken, nil
	}

	return "", apperrors.ErrUnauthorized
}

// Access token: cookie first, then 'Authorization: Bearer <token>' header
func (s *AuthService) readAccessToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.accessCookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, defaultAuthScheme+" "); ok && token != "" {
		return token, nil
	}

	return "", errors.New("no access token in cookie or header")
}

func (s *AuthService) tokenCookie(name string, token models.IssuedToken) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    token.Value,
		Path:     "/",
		MaxAge:   int(time.Until(token.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}
