package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/dsmelov/clipshare/internal/handlers/middleware"
	"github.com/dsmelov/clipshare/internal/logger"
	"github.com/dsmelov/clipshare/internal/models"
	"github.com/dsmelov/clipshare/internal/service/auth"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	channelService channelService,
	logger logger.Logger,
) http.Handler {
	withAuth := middleware.Auth(authService)

	apiuser := http.NewServeMux()

	apiuser.Handle("POST /register", handleRegister(authService, logger))
	apiuser.Handle("POST /login", handleLogin(authService, logger))
	apiuser.Handle("POST /refresh", handleTokenRefresh(authService, logger))

	apiuser.Handle("POST /logout", withAuth(handleLogout(authService, logger)))
	apiuser.Handle("POST /password", withAuth(handleChangePassword(authService, logger)))
	apiuser.Handle("GET /me", withAuth(handleMe()))

	apiuser.Handle("GET /channels/{username}", withAuth(handleChannelProfile(channelService, logger)))
	apiuser.Handle("POST /channels/{username}/subscription", withAuth(handleSubscribe(channelService, logger)))
	apiuser.Handle("DELETE /channels/{username}/subscription", withAuth(handleUnsubscribe(channelService, logger)))

	apiuser.Handle("GET /history", withAuth(handleWatchHistory(channelService, logger)))
	apiuser.Handle("POST /history", withAuth(handleRecordWatch(channelService, logger)))

	root := http.NewServeMux()
	root.Handle("/api/user/", http.StripPrefix("/api/user", apiuser))

	handler := chain(root,
		middleware.Logger(logger),
	)

	return handler
}

type authService interface {
	// Register account and log it in
	// Has to return apperrors.ErrAccountExists if username or email is taken
	Register(ctx context.Context, arg auth.RegisterParams) (models.Account, models.TokenPair, error)

	// Login by username-or-email and password
	// Has to return apperrors.ErrAccountNotFound or apperrors.ErrInvalidCredential;
	// handlers must answer both with the same response
	Login(ctx context.Context, login string, password string) (models.Account, models.TokenPair, error)

	// Exchange a refresh token for a new pair, rotating the stored one
	// Every failure has to collapse into apperrors.ErrUnauthorized
	Refresh(ctx context.Context, refresh string) (models.Account, models.TokenPair, error)

	// Clear the stored refresh token, idempotent
	Logout(ctx context.Context, accountID uuid.UUID) error

	// Re-hash after verifying the current password
	ChangePassword(ctx context.Context, accountID uuid.UUID, current string, next string) error

	// Resolve the account behind the request's access token
	Authenticate(ctx context.Context, r *http.Request) (models.Account, error)

	// Transport helpers for the cookie pair
	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair)
	ClearTokensFromResponse(w http.ResponseWriter)
	ReadRefreshToken(r *http.Request) (string, error)
}

type channelService interface {
	GetProfile(ctx context.Context, login string, viewerID uuid.UUID) (models.ChannelProfile, error)
	Subscribe(ctx context.Context, subscriberID uuid.UUID, channelLogin string) error
	Unsubscribe(ctx context.Context, subscriberID uuid.UUID, channelLogin string) error
	RecordWatch(ctx context.Context, accountID uuid.UUID, videoRef string) error
	WatchHistory(ctx context.Context, accountID uuid.UUID) ([]models.HistoryEntry, error)
}
