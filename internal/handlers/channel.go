package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/dsmelov/clipshare/internal/apperrors"
	"github.com/dsmelov/clipshare/internal/handlers/render"
	"github.com/dsmelov/clipshare/internal/handlers/userctx"
	"github.com/dsmelov/clipshare/internal/logger"
)

func handleChannelProfile(s channelService, l logger.Logger) http.Handler {
	type response struct {
		Account           accountResponse `json:"account"`
		SubscriberCount   int64           `json:"subscriberCount"`
		SubscribedToCount int64           `json:"subscribedToCount"`
		Subscribed        bool            `json:"subscribed"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := userctx.FromContext(r.Context())

		profile, err := s.GetProfile(r.Context(), r.PathValue("username"), viewer.ID)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrAccountNotFound):
				render.ServiceError(w, "Channel not found", http.StatusNotFound)
			default:
				l.Error("channel profile failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{
			Account:           toAccountResponse(profile.Account),
			SubscriberCount:   profile.SubscriberCount,
			SubscribedToCount: profile.SubscribedToCount,
			Subscribed:        profile.Subscribed,
		})
	})
}

func handleSubscribe(s channelService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := userctx.FromContext(r.Context())

		err := s.Subscribe(r.Context(), viewer.ID, r.PathValue("username"))
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrAccountNotFound):
				render.ServiceError(w, "Channel not found", http.StatusNotFound)
			case errors.Is(err, apperrors.ErrSelfSubscription):
				render.ServiceError(w, "Can't subscribe to own channel", http.StatusBadRequest)
			case errors.Is(err, apperrors.ErrSubscriptionExists):
				render.ServiceError(w, "Already subscribed", http.StatusConflict)
			default:
				l.Error("subscribe failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{Message: "Subscribed successfully"})
	})
}

func handleUnsubscribe(s channelService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := userctx.FromContext(r.Context())

		err := s.Unsubscribe(r.Context(), viewer.ID, r.PathValue("username"))
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrAccountNotFound):
				render.ServiceError(w, "Channel not found", http.StatusNotFound)
			default:
				l.Error("unsubscribe failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{Message: "Unsubscribed successfully"})
	})
}

func handleWatchHistory(s channelService, l logger.Logger) http.Handler {
	type entry struct {
		VideoRef  string    `json:"videoRef"`
		WatchedAt time.Time `json:"watchedAt"`
	}
	type response struct {
		History []entry `json:"history"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := userctx.FromContext(r.Context())

		entries, err := s.WatchHistory(r.Context(), viewer.ID)
		if err != nil {
			l.Error("watch history failed", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		resp := response{History: make([]entry, 0, len(entries))}
		for _, e := range entries {
			resp.History = append(resp.History, entry{VideoRef: e.VideoRef, WatchedAt: e.WatchedAt})
		}

		render.JSON(w, resp)
	})
}

func handleRecordWatch(s channelService, l logger.Logger) http.Handler {
	type request struct {
		VideoRef string `json:"videoRef" validate:"required,max=200"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		viewer, _ := userctx.FromContext(r.Context())

		if err := s.RecordWatch(r.Context(), viewer.ID, data.VideoRef); err != nil {
			l.Error("record watch failed", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{Message: "Watch recorded"})
	})
}
