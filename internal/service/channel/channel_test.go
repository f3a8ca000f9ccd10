package channel

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/dsmelov/clipshare/internal/apperrors"
	"github.com/dsmelov/clipshare/internal/models"
	"github.com/dsmelov/clipshare/internal/repository"
	"github.com/dsmelov/clipshare/internal/repository/postgres"
	"github.com/dsmelov/clipshare/internal/testutil"
)

func Test_ChannelService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Begin new db transaction, build the service on top of it and
	// rollback when the subtest stops
	withService := func(t *testing.T, fn func(s *ChannelService, accounts *postgres.AccountRepo)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			accounts := &postgres.AccountRepo{DB: tx}
			subscriptions := &postgres.SubscriptionRepo{DB: tx}
			history := &postgres.HistoryRepo{DB: tx}

			s, err := NewService(accounts, subscriptions, history)
			require.NoError(t, err, "channel service couldn't be started")

			fn(s, accounts)
		})
	}

	createAccount := func(t *testing.T, accounts *postgres.AccountRepo, username string) models.Account {
		t.Helper()

		account, err := accounts.Create(t.Context(), repository.CreateAccountParams{
			Username:       username,
			Email:          username + "@example.com",
			FullName:       "Test " + username,
			HashedPassword: "fake-bcrypt-hash",
		})
		require.NoError(t, err)
		return account
	}

	t.Run("new service requires all repos", func(t *testing.T) {
		_, err := NewService(nil, nil, nil)
		require.Error(t, err)
	})

	t.Run("GetProfile", func(t *testing.T) {
		t.Run("counters and subscription flag", func(t *testing.T) {
			withService(t, func(s *ChannelService, accounts *postgres.AccountRepo) {
				channel := createAccount(t, accounts, "channel")
				viewer := createAccount(t, accounts, "viewer")
				other := createAccount(t, accounts, "other")

				require.NoError(t, s.Subscribe(t.Context(), viewer.ID, "channel"))
				require.NoError(t, s.Subscribe(t.Context(), other.ID, "channel"))
				require.NoError(t, s.Subscribe(t.Context(), channel.ID, "other"))

				profile, err := s.GetProfile(t.Context(), "channel", viewer.ID)

				require.NoError(t, err)
				require.Equal(t, channel.ID, profile.Account.ID)
				require.EqualValues(t, 2, profile.SubscriberCount)
				require.EqualValues(t, 1, profile.SubscribedToCount)
				require.True(t, profile.Subscribed, "viewer is subscribed to this channel")
			})
		})

		t.Run("profile is sanitized", func(t *testing.T) {
			withService(t, func(s *ChannelService, accounts *postgres.AccountRepo) {
				createAccount(t, accounts, "channel")

				profile, err := s.GetProfile(t.Context(), "channel", uuid.Nil)

				require.NoError(t, err)
				require.Empty(t, profile.Account.HashedPassword, "profile must not leak the credential hash")
				require.Nil(t, profile.Account.RefreshToken, "profile must not leak the refresh token")
			})
		})

		t.Run("anonymous viewer sees subscribed=false", func(t *testing.T) {
			withService(t, func(s *ChannelService, accounts *postgres.AccountRepo) {
				viewer := createAccount(t, accounts, "viewer")
				createAccount(t, accounts, "channel")

				require.NoError(t, s.Subscribe(t.Context(), viewer.ID, "channel"))

				profile, err := s.GetProfile(t.Context(), "channel", uuid.Nil)

				require.NoError(t, err)
				require.EqualValues(t, 1, profile.SubscriberCount)
				require.False(t, profile.Subscribed)
			})
		})

		t.Run("unknown channel", func(t *testing.T) {
			withService(t, func(s *ChannelService, _ *postgres.AccountRepo) {
				_, err := s.GetProfile(t.Context(), "nobody", uuid.Nil)
				require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
			})
		})
	})

	t.Run("Subscribe", func(t *testing.T) {
		t.Run("resolves channel by username", func(t *testing.T) {
			withService(t, func(s *ChannelService, accounts *postgres.AccountRepo) {
				viewer := createAccount(t, accounts, "viewer")
				createAccount(t, accounts, "channel")

				require.NoError(t, s.Subscribe(t.Context(), viewer.ID, "channel"))

				profile, err := s.GetProfile(t.Context(), "channel", viewer.ID)
				require.NoError(t, err)
				require.True(t, profile.Subscribed)
			})
		})

		t.Run("unknown channel", func(t *testing.T) {
			withService(t, func(s *ChannelService, accounts *postgres.AccountRepo) {
				viewer := createAccount(t, accounts, "viewer")

				err := s.Subscribe(t.Context(), viewer.ID, "nobody")
				require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
			})
		})

		t.Run("self subscription", func(t *testing.T) {
			withService(t, func(s *ChannelService, accounts *postgres.AccountRepo) {
				viewer := createAccount(t, accounts, "viewer")

				err := s.Subscribe(t.Context(), viewer.ID, "viewer")
				require.ErrorIs(t, err, apperrors.ErrSelfSubscription)
			})
		})

		t.Run("duplicate", func(t *testing.T) {
			withService(t, func(s *ChannelService, accounts *postgres.AccountRepo) {
				viewer := createAccount(t, accounts, "viewer")
				createAccount(t, accounts, "channel")

				require.NoError(t, s.Subscribe(t.Context(), viewer.ID, "channel"))

				err := s.Subscribe(t.Context(), viewer.ID, "channel")
				require.ErrorIs(t, err, apperrors.ErrSubscriptionExists)
			})
		})
	})

	t.Run("Unsubscribe", func(t *testing.T) {
		t.Run("removes the subscription", func(t *testing.T) {
			withService(t, func(s *ChannelService, accounts *postgres.AccountRepo) {
				viewer := createAccount(t, accounts, "viewer")
				createAccount(t, accounts, "channel")

				require.NoError(t, s.Subscribe(t.Context(), viewer.ID, "channel"))
				require.NoError(t, s.Unsubscribe(t.Context(), viewer.ID, "channel"))

				profile, err := s.GetProfile(t.Context(), "channel", viewer.ID)
				require.NoError(t, err)
				require.False(t, profile.Subscribed)
				require.EqualValues(t, 0, profile.SubscriberCount)
			})
		})

		t.Run("not subscribed is a no-op", func(t *testing.T) {
			withService(t, func(s *ChannelService, accounts *postgres.AccountRepo) {
				viewer := createAccount(t, accounts, "viewer")
				createAccount(t, accounts, "channel")

				require.NoError(t, s.Unsubscribe(t.Context(), viewer.ID, "channel"))
			})
		})

		t.Run("unknown channel", func(t *testing.T) {
			withService(t, func(s *ChannelService, accounts *postgres.AccountRepo) {
				viewer := createAccount(t, accounts, "viewer")

				err := s.Unsubscribe(t.Context(), viewer.ID, "nobody")
				require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
			})
		})
	})

	t.Run("watch history", func(t *testing.T) {
		t.Run("record and list", func(t *testing.T) {
			withService(t, func(s *ChannelService, accounts *postgres.AccountRepo) {
				viewer := createAccount(t, accounts, "viewer")

				require.NoError(t, s.RecordWatch(t.Context(), viewer.ID, "video-1"))
				require.NoError(t, s.RecordWatch(t.Context(), viewer.ID, "video-2"))

				entries, err := s.WatchHistory(t.Context(), viewer.ID)
				require.NoError(t, err)
				require.Len(t, entries, 2)
			})
		})

		t.Run("history is per account", func(t *testing.T) {
			withService(t, func(s *ChannelService, accounts *postgres.AccountRepo) {
				viewer := createAccount(t, accounts, "viewer")
				other := createAccount(t, accounts, "other")

				require.NoError(t, s.RecordWatch(t.Context(), viewer.ID, "video-1"))

				entries, err := s.WatchHistory(t.Context(), other.ID)
				require.NoError(t, err)
				require.Empty(t, entries)
			})
		})

		t.Run("record for unknown account", func(t *testing.T) {
			withService(t, func(s *ChannelService, _ *postgres.AccountRepo) {
				err := s.RecordWatch(t.Context(), uuid.New(), "video-1")
				require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
			})
		})
	})
}
