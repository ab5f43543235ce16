package social

import (
	"context"

	"github.com/UkralStul/pulse-social/internal/domain"
	apperrors "github.com/UkralStul/pulse-social/internal/errors"
)

func (s *Service) GetPrivacySettings(ctx context.Context, userID string) (domain.PrivacySettings, error) {
	settings, err := s.prefs.Privacy(ctx, userID)
	if err != nil {
		return domain.PrivacySettings{}, apperrors.Transient("get privacy settings", err)
	}
	return settings, nil
}

// UpdatePrivacySettings replaces the user's privacy settings. Empty audiences
// become "everyone".
func (s *Service) UpdatePrivacySettings(ctx context.Context, userID string, settings domain.PrivacySettings) (updated domain.PrivacySettings, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.record("update_privacy", err) }()

	settings.Normalize()
	fields := map[string]domain.Audience{
		"allowPostVisibility": settings.PostVisibility,
		"allowComments":       settings.CommentPermission,
		"allowMessages":       settings.MessagePermission,
	}
	for field, a := range fields {
		if !a.Valid() {
			return domain.PrivacySettings{}, apperrors.Validation(field, "must be one of everyone, followers, nobody")
		}
	}
	if err := s.prefs.SetPrivacy(ctx, userID, settings); err != nil {
		return domain.PrivacySettings{}, apperrors.Transient("update privacy settings", err)
	}
	return settings, nil
}

func (s *Service) GetNotificationPreferences(ctx context.Context, userID string) (domain.NotificationPreferences, error) {
	p, err := s.prefs.Notifications(ctx, userID)
	if err != nil {
		return domain.NotificationPreferences{}, apperrors.Transient("get notification preferences", err)
	}
	return p, nil
}

func (s *Service) UpdateNotificationPreferences(ctx context.Context, userID string, p domain.NotificationPreferences) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.record("update_notifications", err) }()

	if err := s.prefs.SetNotifications(ctx, userID, p); err != nil {
		return apperrors.Transient("update notification preferences", err)
	}
	return nil
}
