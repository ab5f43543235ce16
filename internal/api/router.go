// Package api serves the social service as JSON over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/UkralStul/pulse-social/internal/dataloader"
	"github.com/UkralStul/pulse-social/internal/logger"
	"github.com/UkralStul/pulse-social/internal/notify"
	"github.com/UkralStul/pulse-social/internal/social"
	"github.com/UkralStul/pulse-social/internal/storage"
)

// UserHeader carries the id of the acting user.
const UserHeader = "X-User-ID"

type contextKey string

const viewerKey = contextKey("viewer")

// Handler holds everything the routes need.
type Handler struct {
	Service  *social.Service
	Storage  storage.Storage
	Inbox    *notify.Inbox
	Hub      *notify.Hub
	Gatherer prometheus.Gatherer
	Log      *zap.Logger
}

// NewRouter wires the routes and middleware.
func NewRouter(h *Handler) http.Handler {
	if h.Log == nil {
		h.Log = zap.NewNop()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(h.Log))
	router.Use(identify)

	if h.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{}))
	}

	router.Group(func(r chi.Router) {
		r.Use(dataloader.Middleware(h.Storage))

		r.Post("/users", h.createUser)
		r.Get("/users/search", h.searchUsers)
		r.Get("/users/trending", h.trendingUsers)
		r.Get("/users/{id}", h.getUser)
		r.Get("/users/{id}/posts", h.userPosts)
		r.Get("/users/{id}/followers", h.followers)
		r.Get("/users/{id}/following", h.following)

		r.Get("/posts/search", h.searchPosts)
		r.Get("/posts/trending", h.trendingPosts)
		r.Get("/posts/{id}", h.getPost)
		r.Get("/posts/{id}/comments", h.listComments)

		r.Group(func(r chi.Router) {
			r.Use(requireViewer)

			r.Post("/users/{id}/follow", h.follow)
			r.Delete("/users/{id}/follow", h.unfollow)
			r.Post("/users/{id}/block", h.block)
			r.Delete("/users/{id}/block", h.unblock)

			r.Get("/feed", h.feed)

			r.Post("/posts", h.createPost)
			r.Delete("/posts/{id}", h.deletePost)
			r.Post("/posts/{id}/like", h.like)
			r.Delete("/posts/{id}/like", h.unlike)
			r.Post("/posts/{id}/comments", h.createComment)
			r.Delete("/comments/{id}", h.deleteComment)

			r.Get("/settings/privacy", h.getPrivacy)
			r.Put("/settings/privacy", h.putPrivacy)
			r.Get("/settings/notifications", h.getNotificationPrefs)
			r.Put("/settings/notifications", h.putNotificationPrefs)
			r.Get("/settings/blocked", h.blockedUsers)

			r.Get("/conversations", h.conversations)
			// {id} is the other participant for messages, the conversation for read
			r.Get("/conversations/{id}/messages", h.messages)
			r.Post("/conversations/{id}/messages", h.sendMessage)
			r.Post("/conversations/{id}/read", h.markRead)

			r.Get("/notifications", h.notifications)
			r.Post("/notifications/read", h.markNotificationsRead)
			r.Get("/notifications/ws", h.notificationStream)
		})
	})

	return router
}

// requestLogger logs one line per request once it has been served.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				logger.WithStatus(ww.Status()),
				logger.WithRequestID(middleware.GetReqID(r.Context())),
				logger.WithUserID(r.Header.Get(UserHeader)),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// identify stores the acting user, possibly anonymous, in the context.
func identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), viewerKey, r.Header.Get(UserHeader))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if viewer(r) == "" {
			writeMessage(w, http.StatusUnauthorized, UserHeader+" header is required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func viewer(r *http.Request) string {
	id, _ := r.Context().Value(viewerKey).(string)
	return id
}
