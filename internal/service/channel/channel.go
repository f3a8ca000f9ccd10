package channel

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dsmelov/clipshare/internal/models"
	"github.com/dsmelov/clipshare/internal/repository"
)

const defaultHistoryLimit = 100

// Read-mostly social graph around an authenticated identity:
// channel profiles, subscriptions and watch history
type ChannelService struct {
	accounts      repository.AccountRepo
	subscriptions repository.SubscriptionRepo
	history       repository.HistoryRepo
}

func NewService(accounts repository.AccountRepo, subscriptions repository.SubscriptionRepo, history repository.HistoryRepo) (*ChannelService, error) {
	if accounts == nil || subscriptions == nil || history == nil {
		return nil, errors.New("repos must not be nil")
	}

	return &ChannelService{
		accounts:      accounts,
		subscriptions: subscriptions,
		history:       history,
	}, nil
}

// GetProfile returns the channel view of the account behind login
// (username or email) together with subscription counters and whether
// the viewer is subscribed to it
func (s *ChannelService) GetProfile(ctx context.Context, login string, viewerID uuid.UUID) (models.ChannelProfile, error) {
	account, err := s.accounts.GetByLogin(ctx, login)
	if err != nil {
		return models.ChannelProfile{}, err
	}

	subscribers, err := s.subscriptions.CountSubscribers(ctx, account.ID)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("error while counting subscribers. Err: %w", err)
	}

	subscribedTo, err := s.subscriptions.CountSubscribedTo(ctx, account.ID)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("error while counting subscriptions. Err: %w", err)
	}

	subscribed, err := s.subscriptions.IsSubscribed(ctx, viewerID, account.ID)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("error while checking subscription. Err: %w", err)
	}

	return models.ChannelProfile{
		Account:           account.Sanitized(),
		SubscriberCount:   subscribers,
		SubscribedToCount: subscribedTo,
		Subscribed:        subscribed,
	}, nil
}

// Subscribe the viewer to the channel behind the username
func (s *ChannelService) Subscribe(ctx context.Context, subscriberID uuid.UUID, channelLogin string) error {
	channel, err := s.accounts.GetByLogin(ctx, channelLogin)
	if err != nil {
		return err
	}

	return s.subscriptions.Subscribe(ctx, subscriberID, channel.ID)
}

func (s *ChannelService) Unsubscribe(ctx context.Context, subscriberID uuid.UUID, channelLogin string) error {
	channel, err := s.accounts.GetByLogin(ctx, channelLogin)
	if err != nil {
		return err
	}

	return s.subscriptions.Unsubscribe(ctx, subscriberID, channel.ID)
}

func (s *ChannelService) RecordWatch(ctx context.Context, accountID uuid.UUID, videoRef string) error {
	return s.history.Append(ctx, accountID, videoRef)
}

func (s *ChannelService) WatchHistory(ctx context.Context, accountID uuid.UUID) ([]models.HistoryEntry, error) {
	return s.history.List(ctx, accountID, defaultHistoryLimit)
}
