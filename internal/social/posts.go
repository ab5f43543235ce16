package social

import (
	"context"
	"regexp"
	"strings"

	"github.com/UkralStul/pulse-social/internal/domain"
	apperrors "github.com/UkralStul/pulse-social/internal/errors"
)

const MaxPostSearchResults = 20

var hashtagPattern = regexp.MustCompile(`#(\w+)`)

// NormalizeHashtags merges explicit tags with the ones written in content:
// lowercase, no leading '#', first occurrence wins.
func NormalizeHashtags(content string, tags []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(tags))
	add := func(tag string) {
		tag = strings.ToLower(strings.TrimLeft(strings.TrimSpace(tag), "#"))
		if tag == "" {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	for _, t := range tags {
		add(t)
	}
	for _, m := range hashtagPattern.FindAllStringSubmatch(content, -1) {
		add(m[1])
	}
	return out
}

// CreatePost publishes a post for authorID.
func (s *Service) CreatePost(ctx context.Context, authorID, content string, media, hashtags []string) (post *domain.Post, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.record("create_post", err) }()

	content = strings.TrimSpace(content)
	if content == "" && len(media) == 0 {
		return nil, apperrors.Validation("content", "post needs content or media")
	}
	if _, err := s.requireUser(ctx, "create post", authorID); err != nil {
		return nil, err
	}

	post, err = s.store.CreatePost(ctx, &domain.Post{
		AuthorID:  authorID,
		Content:   content,
		MediaURLs: append([]string(nil), media...),
		Hashtags:  NormalizeHashtags(content, hashtags),
	})
	if err != nil {
		return nil, fromStore("create post", "post", err)
	}
	return post, nil
}

// DeletePost removes a post. Only its author may do so; its comments are left
// in place.
func (s *Service) DeletePost(ctx context.Context, actorID, postID string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.record("delete_post", err) }()

	post, err := s.store.GetPostByID(ctx, postID)
	if err != nil {
		return fromStore("delete post", "post", err)
	}
	if post.AuthorID != actorID {
		return apperrors.PermissionDenied("only the author can delete this post")
	}
	if err := s.store.DeletePost(ctx, postID); err != nil {
		return fromStore("delete post", "post", err)
	}
	return nil
}

// GetPost returns a post the viewer is allowed to see.
func (s *Service) GetPost(ctx context.Context, viewerID, postID string) (*domain.Post, error) {
	post, err := s.store.GetPostByID(ctx, postID)
	if err != nil {
		return nil, fromStore("get post", "post", err)
	}
	if !s.CanView(ctx, viewerID, post) {
		return nil, apperrors.PermissionDenied("post is not visible to this user")
	}
	return post, nil
}

// GetUserPosts lists userID's posts visible to viewerID, newest first. A
// private profile hides all of them from non-followers.
func (s *Service) GetUserPosts(ctx context.Context, viewerID, userID string) ([]*domain.Post, error) {
	user, err := s.requireUser(ctx, "get user posts", userID)
	if err != nil {
		return nil, err
	}
	if !s.CanViewProfile(ctx, viewerID, user) {
		return nil, apperrors.PermissionDenied("profile is private")
	}

	posts, err := s.store.GetPostsByAuthor(ctx, userID)
	if err != nil {
		return nil, fromStore("get user posts", "post", err)
	}
	out := make([]*domain.Post, 0, len(posts))
	for _, p := range posts {
		if s.CanView(ctx, viewerID, p) {
			out = append(out, p)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// SearchPosts matches query against content and hashtags, case-insensitive.
// Results are visible to viewerID, newest first, at most
// MaxPostSearchResults.
func (s *Service) SearchPosts(ctx context.Context, viewerID, query string) ([]*domain.Post, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []*domain.Post{}, nil
	}
	tagQuery := strings.TrimLeft(q, "#")

	posts, err := s.store.GetPosts(ctx)
	if err != nil {
		return nil, fromStore("search posts", "post", err)
	}

	out := make([]*domain.Post, 0)
	for _, p := range posts {
		if !matchesPost(p, q, tagQuery) || !s.CanView(ctx, viewerID, p) {
			continue
		}
		out = append(out, p)
	}
	sortNewestFirst(out)
	if len(out) > MaxPostSearchResults {
		out = out[:MaxPostSearchResults]
	}
	return out, nil
}

func matchesPost(p *domain.Post, q, tagQuery string) bool {
	if strings.Contains(strings.ToLower(p.Content), q) {
		return true
	}
	if tagQuery == "" {
		return false
	}
	for _, tag := range p.Hashtags {
		if strings.Contains(strings.ToLower(tag), tagQuery) {
			return true
		}
	}
	return false
}
