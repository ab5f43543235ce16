package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/UkralStul/pulse-social/internal/domain"
	apperrors "github.com/UkralStul/pulse-social/internal/errors"
	"github.com/UkralStul/pulse-social/internal/storage"
)

const MaxCommentLength = 2000

// CreateComment adds a comment to postID. A reply to a reply is attached to
// the top-level comment, so threads are one level deep.
func (s *Service) CreateComment(ctx context.Context, postID, authorID, content string, parentID *string) (comment *domain.Comment, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.record("create_comment", err) }()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.Validation("content", "comment content cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return nil, apperrors.Validation("content", "comment content is too long")
	}

	if _, err := s.requireUser(ctx, "create comment", authorID); err != nil {
		return nil, err
	}
	post, err := s.store.GetPostByID(ctx, postID)
	if err != nil {
		return nil, fromStore("create comment", "post", err)
	}

	if parentID != nil {
		parent, err := s.store.GetCommentByID(ctx, *parentID)
		if err != nil {
			return nil, fromStore("create comment", "comment", err)
		}
		if parent.PostID != postID {
			return nil, apperrors.Validation("parentId", "parent comment belongs to another post")
		}
		if parent.ParentID != nil {
			parentID = parent.ParentID
		}
	}

	if !s.CanComment(ctx, authorID, post) {
		return nil, apperrors.PermissionDenied("comments on this post are restricted")
	}

	comment, err = s.store.CreateComment(ctx, &domain.Comment{
		PostID:   postID,
		ParentID: parentID,
		AuthorID: authorID,
		Content:  content,
	})
	if err != nil {
		return nil, fromStore("create comment", "post", err)
	}
	if _, err := s.store.AdjustPostCounters(ctx, postID, 0, 1); err != nil {
		return nil, fromStore("create comment", "post", err)
	}

	if authorID != post.AuthorID {
		s.emit(ctx, post.AuthorID, domain.Notification{
			Type:    domain.NotificationComment,
			ActorID: authorID,
			PostID:  postID,
			Message: fmt.Sprintf("%s commented on your post", s.displayName(ctx, authorID)),
		})
	}
	return comment, nil
}

// DeleteComment removes a comment and its replies. The comment's author and
// the post's author may delete it.
func (s *Service) DeleteComment(ctx context.Context, actorID, commentID string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.record("delete_comment", err) }()

	comment, err := s.store.GetCommentByID(ctx, commentID)
	if err != nil {
		return fromStore("delete comment", "comment", err)
	}

	post, err := s.store.GetPostByID(ctx, comment.PostID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fromStore("delete comment", "post", err)
	}
	postAuthor := ""
	if post != nil {
		postAuthor = post.AuthorID
	}
	if actorID != comment.AuthorID && actorID != postAuthor {
		return apperrors.PermissionDenied("only the comment author or the post author can delete this comment")
	}

	removed, err := s.store.DeleteComment(ctx, commentID)
	if err != nil {
		return fromStore("delete comment", "comment", err)
	}
	// orphaned comments have no counter to fix
	if post != nil {
		if _, err := s.store.AdjustPostCounters(ctx, comment.PostID, 0, -removed); err != nil {
			return fromStore("delete comment", "post", err)
		}
	}
	return nil
}

// ListComments returns top-level comments of a post the viewer can see,
// oldest first.
func (s *Service) ListComments(ctx context.Context, viewerID, postID string, args storage.PaginationArgs) ([]*domain.Comment, error) {
	post, err := s.store.GetPostByID(ctx, postID)
	if err != nil {
		return nil, fromStore("list comments", "post", err)
	}
	if !s.CanView(ctx, viewerID, post) {
		return nil, apperrors.PermissionDenied("post is not visible to this user")
	}
	comments, err := s.store.GetCommentsByPostID(ctx, postID, args)
	if err != nil {
		return nil, fromStore("list comments", "comment", err)
	}
	return comments, nil
}
