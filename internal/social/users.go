package social

import (
	"context"
	"strings"

	"github.com/UkralStul/pulse-social/internal/domain"
	apperrors "github.com/UkralStul/pulse-social/internal/errors"
)

const MaxUserSearchResults = 10

// CreateUser registers a user. Usernames are unique.
func (s *Service) CreateUser(ctx context.Context, user domain.User) (created *domain.User, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.record("create_user", err) }()

	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" {
		return nil, apperrors.Validation("username", "username is required")
	}
	if strings.TrimSpace(user.DisplayName) == "" {
		user.DisplayName = user.Username
	}

	existing, err := s.store.GetUsers(ctx)
	if err != nil {
		return nil, fromStore("create user", "user", err)
	}
	for _, u := range existing {
		if strings.EqualFold(u.Username, user.Username) {
			return nil, apperrors.Validation("username", "username is already taken")
		}
	}

	user.ID = ""
	user.Privacy = nil
	created, err = s.store.CreateUser(ctx, &user)
	if err != nil {
		return nil, fromStore("create user", "user", err)
	}
	return s.hydrate(ctx, created), nil
}

// GetUser returns userID with derived counters. A user's own privacy settings
// are attached only when they look at themselves.
func (s *Service) GetUser(ctx context.Context, viewerID, userID string) (*domain.User, error) {
	user, err := s.requireUser(ctx, "get user", userID)
	if err != nil {
		return nil, err
	}
	if viewerID != userID && s.IsBlocked(ctx, viewerID, userID) {
		return nil, apperrors.PermissionDenied("a block exists between these users")
	}
	s.hydrate(ctx, user)
	if viewerID == userID {
		settings := s.privacyOrDefault(ctx, userID)
		user.Privacy = &settings
	}
	return user, nil
}

// SearchUsers matches username or display name, case-insensitive. Users that
// opted out of search or share a block with the viewer are left out.
func (s *Service) SearchUsers(ctx context.Context, viewerID, query string) ([]*domain.User, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []*domain.User{}, nil
	}

	users, err := s.store.GetUsers(ctx)
	if err != nil {
		return nil, fromStore("search users", "user", err)
	}

	out := make([]*domain.User, 0)
	for _, u := range users {
		if len(out) == MaxUserSearchResults {
			break
		}
		if !strings.Contains(strings.ToLower(u.Username), q) && !strings.Contains(strings.ToLower(u.DisplayName), q) {
			continue
		}
		if !s.searchable(ctx, viewerID, u) {
			continue
		}
		out = append(out, s.hydrate(ctx, u))
	}
	return out, nil
}
