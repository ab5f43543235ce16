package social

import (
	"context"

	"go.uber.org/zap"

	"github.com/UkralStul/pulse-social/internal/domain"
)

// === Relationship Index ===
//
// These reads never fail: a store error is logged and the zero value is
// returned. Counts are recomputed from the edge sets on every call.

func (s *Service) FollowersCount(ctx context.Context, userID string) int {
	n, err := s.store.CountFollowers(ctx, userID)
	if err != nil {
		s.log.Warn("followers count unavailable", zap.String("user_id", userID), zap.Error(err))
		return 0
	}
	return n
}

func (s *Service) FollowingCount(ctx context.Context, userID string) int {
	n, err := s.store.CountFollowing(ctx, userID)
	if err != nil {
		s.log.Warn("following count unavailable", zap.String("user_id", userID), zap.Error(err))
		return 0
	}
	return n
}

// IsFollowing reports whether edge (a, b) exists.
func (s *Service) IsFollowing(ctx context.Context, a, b string) bool {
	ok, err := s.store.HasFollow(ctx, a, b)
	if err != nil {
		s.log.Warn("follow lookup failed", zap.String("follower_id", a), zap.String("following_id", b), zap.Error(err))
		return false
	}
	return ok
}

// IsBlocked is symmetric: a block stored in either direction counts.
func (s *Service) IsBlocked(ctx context.Context, a, b string) bool {
	blocked, err := s.isBlocked(ctx, a, b)
	if err != nil {
		s.log.Warn("block lookup failed", zap.String("a", a), zap.String("b", b), zap.Error(err))
		return false
	}
	return blocked
}

func (s *Service) isBlocked(ctx context.Context, a, b string) (bool, error) {
	ab, err := s.store.HasBlock(ctx, a, b)
	if err != nil || ab {
		return ab, err
	}
	return s.store.HasBlock(ctx, b, a)
}

// followingSet is the feed audience of viewerID: everyone they follow plus
// themselves.
func (s *Service) followingSet(ctx context.Context, viewerID string) map[string]struct{} {
	set := map[string]struct{}{viewerID: {}}
	ids, err := s.store.GetFollowingIDs(ctx, viewerID)
	if err != nil {
		s.log.Warn("following list unavailable", zap.String("user_id", viewerID), zap.Error(err))
		return set
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Followers lists the users following userID, oldest edge first.
func (s *Service) Followers(ctx context.Context, userID string) ([]*domain.User, error) {
	ids, err := s.store.GetFollowerIDs(ctx, userID)
	if err != nil {
		return nil, fromStore("list followers", "user", err)
	}
	return s.usersInOrder(ctx, "list followers", ids)
}

// Following lists the users userID follows, oldest edge first.
func (s *Service) Following(ctx context.Context, userID string) ([]*domain.User, error) {
	ids, err := s.store.GetFollowingIDs(ctx, userID)
	if err != nil {
		return nil, fromStore("list following", "user", err)
	}
	return s.usersInOrder(ctx, "list following", ids)
}

// BlockedUsers lists the users userID has blocked.
func (s *Service) BlockedUsers(ctx context.Context, userID string) ([]*domain.User, error) {
	ids, err := s.store.GetBlockedIDs(ctx, userID)
	if err != nil {
		return nil, fromStore("list blocked", "user", err)
	}
	return s.usersInOrder(ctx, "list blocked", ids)
}

func (s *Service) usersInOrder(ctx context.Context, op string, ids []string) ([]*domain.User, error) {
	byID, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fromStore(op, "user", err)
	}
	out := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, s.hydrate(ctx, u))
		}
	}
	return out, nil
}

// hydrate fills the derived counters.
func (s *Service) hydrate(ctx context.Context, u *domain.User) *domain.User {
	u.FollowersCount = s.FollowersCount(ctx, u.ID)
	u.FollowingCount = s.FollowingCount(ctx, u.ID)
	n, err := s.store.CountPostsByAuthor(ctx, u.ID)
	if err != nil {
		s.log.Warn("posts count unavailable", zap.String("user_id", u.ID), zap.Error(err))
	}
	u.PostsCount = n
	return u
}
