package social

import (
	"context"
	"sort"

	"github.com/UkralStul/pulse-social/internal/domain"
)

// ComposeFeed picks the posts of viewerID's own timeline out of posts: authored
// by the viewer or someone they follow, visible to them, newest first. Equal
// timestamps keep their input order. There is no limit.
func (s *Service) ComposeFeed(ctx context.Context, viewerID string, posts []*domain.Post) []*domain.Post {
	audience := s.followingSet(ctx, viewerID)

	feed := make([]*domain.Post, 0, len(posts))
	for _, p := range posts {
		if _, ok := audience[p.AuthorID]; !ok {
			continue
		}
		// a followed author may have narrowed visibility or blocked the viewer
		if !s.CanView(ctx, viewerID, p) {
			continue
		}
		feed = append(feed, p)
	}
	sortNewestFirst(feed)
	return feed
}

// GetFeed composes the feed over every stored post.
func (s *Service) GetFeed(ctx context.Context, viewerID string) ([]*domain.Post, error) {
	posts, err := s.store.GetPosts(ctx)
	if err != nil {
		return nil, fromStore("get feed", "post", err)
	}
	feed := s.ComposeFeed(ctx, viewerID, posts)
	s.metrics.Feed(len(feed))
	return feed, nil
}

func sortNewestFirst(posts []*domain.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
