package social

import (
	"context"
	"sort"

	"github.com/UkralStul/pulse-social/internal/domain"
)

// DefaultTrendingLimit applies when a caller passes a non-positive limit.
const DefaultTrendingLimit = 10

// TrendingPosts ranks by likes+comments, highest first. Ties keep input order.
// The input slice is not modified.
func TrendingPosts(posts []*domain.Post, limit int) []*domain.Post {
	ranked := append([]*domain.Post(nil), posts...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score() > ranked[j].Score()
	})
	return truncate(ranked, limit)
}

// TrendingUsers ranks by FollowersCount, highest first. Ties keep input order.
func TrendingUsers(users []*domain.User, limit int) []*domain.User {
	ranked := append([]*domain.User(nil), users...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FollowersCount > ranked[j].FollowersCount
	})
	return truncate(ranked, limit)
}

func truncate[T any](items []T, limit int) []T {
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

// GetTrendingPosts ranks every stored post except those whose author shows
// posts to nobody. The ranking does not depend on the viewer.
func (s *Service) GetTrendingPosts(ctx context.Context, limit int) ([]*domain.Post, error) {
	posts, err := s.store.GetPosts(ctx)
	if err != nil {
		return nil, fromStore("get trending posts", "post", err)
	}

	hidden := make(map[string]bool)
	public := posts[:0:0]
	for _, p := range posts {
		nobody, seen := hidden[p.AuthorID]
		if !seen {
			nobody = s.privacyOrDefault(ctx, p.AuthorID).PostVisibility == domain.AudienceNobody
			hidden[p.AuthorID] = nobody
		}
		if !nobody {
			public = append(public, p)
		}
	}
	return TrendingPosts(public, limit), nil
}

// TrendingPostsFor is GetTrendingPosts narrowed to what viewerID can see,
// applied before truncation so the list stays full.
func (s *Service) TrendingPostsFor(ctx context.Context, viewerID string, limit int) ([]*domain.Post, error) {
	posts, err := s.store.GetPosts(ctx)
	if err != nil {
		return nil, fromStore("get trending posts", "post", err)
	}

	visible := posts[:0:0]
	for _, p := range posts {
		if s.CanView(ctx, viewerID, p) {
			visible = append(visible, p)
		}
	}
	return TrendingPosts(visible, limit), nil
}

// GetTrendingUsers ranks every stored user by follower count.
func (s *Service) GetTrendingUsers(ctx context.Context, limit int) ([]*domain.User, error) {
	users, err := s.store.GetUsers(ctx)
	if err != nil {
		return nil, fromStore("get trending users", "user", err)
	}
	for _, u := range users {
		s.hydrate(ctx, u)
	}
	return TrendingUsers(users, limit), nil
}
