package social

import (
	"context"
	"fmt"

	"github.com/UkralStul/pulse-social/internal/domain"
	apperrors "github.com/UkralStul/pulse-social/internal/errors"
)

// === Likes ===

// Like records userID's like on postID and returns the post's like count.
// Liking twice is a no-op.
func (s *Service) Like(ctx context.Context, postID, userID string) (likes int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.record("like", err) }()

	if _, err := s.requireUser(ctx, "like", userID); err != nil {
		return 0, err
	}
	post, err := s.store.GetPostByID(ctx, postID)
	if err != nil {
		return 0, fromStore("like", "post", err)
	}
	if !s.CanView(ctx, userID, post) {
		return 0, apperrors.PermissionDenied("post is not visible to this user")
	}

	added, err := s.store.AddLike(ctx, postID, userID)
	if err != nil {
		return 0, fromStore("like", "post", err)
	}
	if !added {
		return post.Likes, nil
	}

	post, err = s.store.AdjustPostCounters(ctx, postID, 1, 0)
	if err != nil {
		return 0, fromStore("like", "post", err)
	}

	if userID != post.AuthorID {
		s.emit(ctx, post.AuthorID, domain.Notification{
			Type:    domain.NotificationLike,
			ActorID: userID,
			PostID:  postID,
			Message: fmt.Sprintf("%s liked your post", s.displayName(ctx, userID)),
		})
	}
	return post.Likes, nil
}

// Unlike removes userID's like and returns the post's like count. Unliking a
// post the user never liked changes nothing.
func (s *Service) Unlike(ctx context.Context, postID, userID string) (likes int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.record("unlike", err) }()

	post, err := s.store.GetPostByID(ctx, postID)
	if err != nil {
		return 0, fromStore("unlike", "post", err)
	}

	removed, err := s.store.RemoveLike(ctx, postID, userID)
	if err != nil {
		return 0, fromStore("unlike", "post", err)
	}
	if !removed {
		return post.Likes, nil
	}

	post, err = s.store.AdjustPostCounters(ctx, postID, -1, 0)
	if err != nil {
		return 0, fromStore("unlike", "post", err)
	}
	return post.Likes, nil
}

// === Follows ===

// Follow makes followerID follow followingID and returns the resulting follow
// state. Following twice is a success without a second edge.
func (s *Service) Follow(ctx context.Context, followerID, followingID string) (following bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.record("follow", err) }()

	if followerID == followingID {
		return false, apperrors.Validation("userId", "users cannot follow themselves")
	}
	if _, err := s.requireUser(ctx, "follow", followerID); err != nil {
		return false, err
	}
	if _, err := s.requireUser(ctx, "follow", followingID); err != nil {
		return false, err
	}

	blocked, err := s.isBlocked(ctx, followerID, followingID)
	if err != nil {
		return false, fromStore("follow", "user", err)
	}
	if blocked {
		return false, apperrors.PermissionDenied("a block exists between these users")
	}

	added, err := s.store.AddFollow(ctx, followerID, followingID)
	if err != nil {
		return false, fromStore("follow", "user", err)
	}
	if added {
		s.emit(ctx, followingID, domain.Notification{
			Type:    domain.NotificationFollow,
			ActorID: followerID,
			Message: fmt.Sprintf("%s started following you", s.displayName(ctx, followerID)),
		})
	}
	return true, nil
}

// Unfollow removes the edge if present and returns the resulting follow state.
func (s *Service) Unfollow(ctx context.Context, followerID, followingID string) (following bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.record("unfollow", err) }()

	if followerID == followingID {
		return false, apperrors.Validation("userId", "users cannot unfollow themselves")
	}
	if _, err := s.store.RemoveFollow(ctx, followerID, followingID); err != nil {
		return false, fromStore("unfollow", "user", err)
	}
	return false, nil
}

// === Blocks ===

// Block adds the block edge and drops follow edges in both directions in the
// same store operation. Blocking twice is a success.
func (s *Service) Block(ctx context.Context, blockerID, blockedID string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.record("block", err) }()

	if blockerID == blockedID {
		return apperrors.Validation("userId", "users cannot block themselves")
	}
	if _, err := s.requireUser(ctx, "block", blockerID); err != nil {
		return err
	}
	if _, err := s.requireUser(ctx, "block", blockedID); err != nil {
		return err
	}
	if _, err := s.store.AddBlock(ctx, blockerID, blockedID); err != nil {
		return fromStore("block", "user", err)
	}
	return nil
}

// Unblock removes the block edge. Follow edges removed by Block stay removed.
func (s *Service) Unblock(ctx context.Context, blockerID, blockedID string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.record("unblock", err) }()

	if _, err := s.store.RemoveBlock(ctx, blockerID, blockedID); err != nil {
		return fromStore("unblock", "user", err)
	}
	return nil
}
