package tokensigner

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dsmelov/clipshare/internal/apperrors"
	"github.com/dsmelov/clipshare/internal/models"
)

const (
	defaultSigningMethod = "HS256"
	defaultAccessTTL     = 15 * time.Minute
	defaultRefreshTTL    = 7 * 24 * time.Hour
)

// Token classes
// Each class is signed with its own secret and carries its class name in the
// payload, so a token of one class never verifies as the other
type Class string

const (
	ClassAccess  Class = "access"
	ClassRefresh Class = "refresh"
)

type Claims struct {
	jwt.RegisteredClaims
	AccountID uuid.UUID `json:"uid"`
	Class     Class     `json:"cls"`
}

// Signer config with sensible defaults
type Config struct {
	// Secrets to sign token payloads, one per class
	// Both required, must differ
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set then default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set then default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Signer struct {
	accessSecret  []byte
	refreshSecret []byte

	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(cfg Config) (*Signer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("both token secrets must not be empty")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTTL)

	return &Signer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		alg:           jwt.GetSigningMethod(cfg.Alg),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}, nil
}

func (s *Signer) AccessTTL() time.Duration  { return s.accessTTL }
func (s *Signer) RefreshTTL() time.Duration { return s.refreshTTL }

// Issue a signed token of the given class bound to the account id
func (s *Signer) Issue(accountID uuid.UUID, class Class) (models.IssuedToken, error) {
	secret, ttl, err := s.classParams(class)
	if err != nil {
		return models.IssuedToken{}, err
	}

	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(
		s.alg,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			AccountID: accountID,
			Class:     class,
		},
	)

	signed, err := token.SignedString(secret)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing %s token. Err: %w", class, err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// IssuePair issues one access and one refresh token for the account
func (s *Signer) IssuePair(accountID uuid.UUID) (models.TokenPair, error) {
	access, err := s.Issue(accountID, ClassAccess)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, err := s.Issue(accountID, ClassRefresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// Verify checks the signature against the class-bound secret, the expiry
// and that the payload class matches the requested one
// Fails with apperrors.ErrTokenMalformed, ErrTokenExpired or ErrTokenInvalid
func (s *Signer) Verify(tokenString string, class Class) (uuid.UUID, error) {
	secret, _, err := s.classParams(class)
	if err != nil {
		return uuid.Nil, err
	}

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{s.alg.Alg()}),
		jwt.WithExpirationRequired(),
	)

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenMalformed):
		return uuid.Nil, fmt.Errorf("%w: %w", apperrors.ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return uuid.Nil, fmt.Errorf("%w: %w", apperrors.ErrTokenExpired, err)
	default:
		return uuid.Nil, fmt.Errorf("%w: %w", apperrors.ErrTokenInvalid, err)
	}

	// Reject on class mismatch even when the raw signature verified
	if claims.Class != class {
		return uuid.Nil, fmt.Errorf("%w: expected class %q", apperrors.ErrTokenInvalid, class)
	}

	return claims.AccountID, nil
}

func (s *Signer) classParams(class Class) ([]byte, time.Duration, error) {
	switch class {
	case ClassAccess:
		return s.accessSecret, s.accessTTL, nil
	case ClassRefresh:
		return s.refreshSecret, s.refreshTTL, nil
	default:
		return nil, 0, fmt.Errorf("unknown token class: %q", class)
	}
}
