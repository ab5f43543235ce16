package api

import (
	"context"

	"github.com/UkralStul/pulse-social/internal/dataloader"
	"github.com/UkralStul/pulse-social/internal/domain"
	"github.com/UkralStul/pulse-social/internal/storage"
)

const (
	defaultCommentLimit = 10
	defaultReplyLimit   = 5
)

// PostView - пост вместе с автором.
type PostView struct {
	*domain.Post
	Author *domain.User `json:"author,omitempty"`
}

// CommentView - комментарий с автором и, для корневых, первыми ответами.
type CommentView struct {
	*domain.Comment
	Author  *domain.User   `json:"author,omitempty"`
	Replies []*CommentView `json:"replies,omitempty"`
}

type CommentEdge struct {
	Node   *CommentView `json:"node"`
	Cursor string       `json:"cursor"`
}

type PageInfo struct {
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   *string `json:"endCursor"`
}

type CommentConnection struct {
	Edges    []*CommentEdge `json:"edges"`
	PageInfo *PageInfo      `json:"pageInfo"`
}

func (h *Handler) loaders(ctx context.Context) *dataloader.Loaders {
	if l := dataloader.For(ctx); l != nil {
		return l
	}
	return dataloader.NewLoaders(h.Storage)
}

func (h *Handler) postViews(ctx context.Context, posts []*domain.Post) ([]*PostView, error) {
	authorIDs := make([]string, 0, len(posts))
	seen := make(map[string]bool, len(posts))
	for _, p := range posts {
		if !seen[p.AuthorID] {
			seen[p.AuthorID] = true
			authorIDs = append(authorIDs, p.AuthorID)
		}
	}

	authors, err := h.loaders(ctx).Users(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]*PostView, len(posts))
	for i, p := range posts {
		views[i] = &PostView{Post: p, Author: authors[p.AuthorID]}
	}
	return views, nil
}

// commentConnection отдает страницу корневых комментариев. Запрашиваем на один
// элемент больше, чтобы определить hasNextPage.
func (h *Handler) commentConnection(ctx context.Context, comments []*domain.Comment, limit int) (*CommentConnection, error) {
	hasNextPage := len(comments) > limit
	if hasNextPage {
		comments = comments[:limit]
	}

	loaders := h.loaders(ctx)
	commentIDs := make([]string, len(comments))
	for i, c := range comments {
		commentIDs[i] = c.ID
	}
	replies, err := loaders.Replies(ctx, commentIDs)
	if err != nil {
		return nil, err
	}

	authorIDs := make([]string, 0, len(comments))
	for _, c := range comments {
		authorIDs = append(authorIDs, c.AuthorID)
		rs := replies[c.ID]
		if len(rs) > defaultReplyLimit {
			rs = rs[:defaultReplyLimit]
			replies[c.ID] = rs
		}
		for _, r := range rs {
			authorIDs = append(authorIDs, r.AuthorID)
		}
	}
	authors, err := loaders.Users(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	edges := make([]*CommentEdge, len(comments))
	for i, c := range comments {
		view := &CommentView{Comment: c, Author: authors[c.AuthorID]}
		for _, r := range replies[c.ID] {
			view.Replies = append(view.Replies, &CommentView{Comment: r, Author: authors[r.AuthorID]})
		}
		edges[i] = &CommentEdge{Node: view, Cursor: c.ID}
	}

	var endCursor *string
	if len(edges) > 0 {
		endCursor = &edges[len(edges)-1].Cursor
	}

	return &CommentConnection{
		Edges: edges,
		PageInfo: &PageInfo{
			HasNextPage: hasNextPage,
			EndCursor:   endCursor,
		},
	}, nil
}

func pageArgs(limit int, cursor string) storage.PaginationArgs {
	args := storage.PaginationArgs{Limit: limit + 1}
	if cursor != "" {
		args.Cursor = &cursor
	}
	return args
}
