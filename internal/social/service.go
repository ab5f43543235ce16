// Package social is the aggregation core: relationship index, visibility
// filter, feed composer, trending ranker and the mutators that change the
// dataset.
package social

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/UkralStul/pulse-social/internal/domain"
	apperrors "github.com/UkralStul/pulse-social/internal/errors"
	"github.com/UkralStul/pulse-social/internal/metrics"
	"github.com/UkralStul/pulse-social/internal/storage"
)

// PreferenceStore holds per-user privacy and notification blobs.
type PreferenceStore interface {
	Privacy(ctx context.Context, userID string) (domain.PrivacySettings, error)
	SetPrivacy(ctx context.Context, userID string, settings domain.PrivacySettings) error
	Notifications(ctx context.Context, userID string) (domain.NotificationPreferences, error)
	SetNotifications(ctx context.Context, userID string, p domain.NotificationPreferences) error
}

// Notifier receives the events emitted by mutators.
type Notifier interface {
	Notify(ctx context.Context, targetID string, n domain.Notification) bool
}

// Service is the narrow interface the UI talks to. Mutators are serialised so
// a mutation is fully applied before the next one starts; reads go straight to
// the store.
type Service struct {
	mu sync.Mutex

	store    storage.Storage
	prefs    PreferenceStore
	notifier Notifier
	log      *zap.Logger
	metrics  *metrics.Metrics
}

func NewService(store storage.Storage, prefs PreferenceStore, notifier Notifier, log *zap.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:    store,
		prefs:    prefs,
		notifier: notifier,
		log:      log.Named("social"),
		metrics:  m,
	}
}

// fromStore maps a store failure onto the error taxonomy.
func fromStore(op, resource string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.NotFound(resource)
	}
	return apperrors.Transient(op, err)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if code := apperrors.CodeOf(err); code != "" {
		return strings.ToLower(string(code))
	}
	return "error"
}

func (s *Service) record(op string, err error) {
	s.metrics.Mutation(op, outcome(err))
	if err != nil && apperrors.IsTransient(err) {
		s.log.Error("mutation failed", zap.String("op", op), zap.Error(err))
	}
}

// emit is the explicit event step of a mutator; delivery outcome does not
// affect the mutation.
func (s *Service) emit(ctx context.Context, targetID string, n domain.Notification) {
	s.Notify(ctx, targetID, n)
}

// displayName is used in notification text; it falls back to the id.
func (s *Service) displayName(ctx context.Context, userID string) string {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil || u.DisplayName == "" {
		return userID
	}
	return u.DisplayName
}

func (s *Service) requireUser(ctx context.Context, op, userID string) (*domain.User, error) {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fromStore(op, "user", err)
	}
	return u, nil
}

// Notify hands an event for userID to the dispatcher and reports whether it
// passed the preference gate.
func (s *Service) Notify(ctx context.Context, userID string, n domain.Notification) bool {
	if s.notifier == nil {
		return false
	}
	return s.notifier.Notify(ctx, userID, n)
}
