package prefs

import (
	"context"
	"errors"
	"fmt"

	json "github.com/json-iterator/go"

	"github.com/UkralStul/pulse-social/internal/domain"
)

const (
	NamespacePrivacy       = "privacy_settings"
	NamespaceNotifications = "notification_prefs"
)

// Store reads and writes typed preference blobs. A user that never saved a
// blob gets the defaults.
type Store struct {
	kv KV
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// load decodes the blob over into, leaving into untouched when the key is missing.
func (s *Store) load(ctx context.Context, namespace, userID string, into any) error {
	raw, err := s.kv.Get(ctx, Key(namespace, userID))
	if errors.Is(err, ErrMissing) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", Key(namespace, userID), err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("decode %s: %w", Key(namespace, userID), err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, namespace, userID string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", Key(namespace, userID), err)
	}
	if err := s.kv.Set(ctx, Key(namespace, userID), raw); err != nil {
		return fmt.Errorf("write %s: %w", Key(namespace, userID), err)
	}
	return nil
}

// Privacy returns the user's privacy settings.
func (s *Store) Privacy(ctx context.Context, userID string) (domain.PrivacySettings, error) {
	settings := domain.DefaultPrivacySettings()
	if err := s.load(ctx, NamespacePrivacy, userID, &settings); err != nil {
		return domain.DefaultPrivacySettings(), err
	}
	settings.Normalize()
	return settings, nil
}

// SetPrivacy stores settings after checking the audiences.
func (s *Store) SetPrivacy(ctx context.Context, userID string, settings domain.PrivacySettings) error {
	settings.Normalize()
	for _, a := range []domain.Audience{settings.PostVisibility, settings.CommentPermission, settings.MessagePermission} {
		if !a.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidAudience, a)
		}
	}
	return s.save(ctx, NamespacePrivacy, userID, settings)
}

// ErrInvalidAudience is returned by SetPrivacy.
var ErrInvalidAudience = errors.New("invalid audience")

// Notifications returns the user's notification preferences.
func (s *Store) Notifications(ctx context.Context, userID string) (domain.NotificationPreferences, error) {
	p := domain.DefaultNotificationPreferences()
	if err := s.load(ctx, NamespaceNotifications, userID, &p); err != nil {
		return domain.DefaultNotificationPreferences(), err
	}
	return p, nil
}

func (s *Store) SetNotifications(ctx context.Context, userID string, p domain.NotificationPreferences) error {
	return s.save(ctx, NamespaceNotifications, userID, p)
}
