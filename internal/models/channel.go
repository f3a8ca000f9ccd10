package models

import (
	"time"
)

// ChannelProfile is the public view of an account as a channel
type ChannelProfile struct {
	Account Account

	SubscriberCount   int64
	SubscribedToCount int64

	// True if the viewer requesting the profile is subscribed to it
	Subscribed bool
}

type HistoryEntry struct {
	VideoRef  string
	WatchedAt time.Time
}
