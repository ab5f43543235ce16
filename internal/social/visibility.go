package social

import (
	"context"

	"go.uber.org/zap"

	"github.com/UkralStul/pulse-social/internal/domain"
)

// === Visibility Filter ===
//
// Checks never fail. When privacy settings cannot be read the owner is treated
// as having the defaults, so content stays visible.

// CanView decides whether viewerID may see post.
func (s *Service) CanView(ctx context.Context, viewerID string, post *domain.Post) bool {
	return s.allowed(ctx, viewerID, post.AuthorID, func(p domain.PrivacySettings) domain.Audience {
		return p.PostVisibility
	})
}

// CanComment decides whether viewerID may comment on post.
func (s *Service) CanComment(ctx context.Context, viewerID string, post *domain.Post) bool {
	return s.allowed(ctx, viewerID, post.AuthorID, func(p domain.PrivacySettings) domain.Audience {
		return p.CommentPermission
	})
}

// CanMessage decides whether senderID may message recipientID.
func (s *Service) CanMessage(ctx context.Context, senderID, recipientID string) bool {
	return s.allowed(ctx, senderID, recipientID, func(p domain.PrivacySettings) domain.Audience {
		return p.MessagePermission
	})
}

// CanViewProfile hides private profiles from non-followers.
func (s *Service) CanViewProfile(ctx context.Context, viewerID string, user *domain.User) bool {
	if viewerID == user.ID {
		return true
	}
	if s.IsBlocked(ctx, viewerID, user.ID) {
		return false
	}
	settings := s.privacyOrDefault(ctx, user.ID)
	if settings.IsPrivateProfile {
		return s.IsFollowing(ctx, viewerID, user.ID)
	}
	return true
}

// searchable reports whether user may show up in viewerID's search results.
func (s *Service) searchable(ctx context.Context, viewerID string, user *domain.User) bool {
	if viewerID == user.ID {
		return true
	}
	if s.IsBlocked(ctx, viewerID, user.ID) {
		return false
	}
	return s.privacyOrDefault(ctx, user.ID).ShowInSearch
}

func (s *Service) allowed(ctx context.Context, actorID, ownerID string, audience func(domain.PrivacySettings) domain.Audience) bool {
	if actorID == ownerID {
		return true
	}
	if s.IsBlocked(ctx, actorID, ownerID) {
		return false
	}
	switch audience(s.privacyOrDefault(ctx, ownerID)) {
	case domain.AudienceNobody:
		return false
	case domain.AudienceFollowers:
		return s.IsFollowing(ctx, actorID, ownerID)
	default:
		return true
	}
}

func (s *Service) privacyOrDefault(ctx context.Context, userID string) domain.PrivacySettings {
	settings, err := s.prefs.Privacy(ctx, userID)
	if err != nil {
		s.log.Warn("privacy settings unavailable, using defaults", zap.String("user_id", userID), zap.Error(err))
		return domain.DefaultPrivacySettings()
	}
	return settings
}
