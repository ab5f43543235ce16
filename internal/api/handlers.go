package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/UkralStul/pulse-social/internal/domain"
	apperrors "github.com/UkralStul/pulse-social/internal/errors"
	"github.com/UkralStul/pulse-social/internal/social"
)

// === User Handlers ===

type newUser struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatar"`
	Bio         string `json:"bio"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var in newUser
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	user, err := h.Service.CreateUser(r.Context(), domain.User{
		Username:    in.Username,
		DisplayName: in.DisplayName,
		AvatarURL:   in.AvatarURL,
		Bio:         in.Bio,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.GetUser(r.Context(), viewer(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) searchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.SearchUsers(r.Context(), viewer(r), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) trendingUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.GetTrendingUsers(r.Context(), queryInt(r, "limit", social.DefaultTrendingLimit))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) followers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.Followers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) following(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.Following(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type followState struct {
	Following bool `json:"following"`
}

func (h *Handler) follow(w http.ResponseWriter, r *http.Request) {
	following, err := h.Service.Follow(r.Context(), viewer(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, followState{Following: following})
}

func (h *Handler) unfollow(w http.ResponseWriter, r *http.Request) {
	following, err := h.Service.Unfollow(r.Context(), viewer(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, followState{Following: following})
}

func (h *Handler) block(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Block(r.Context(), viewer(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unblock(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Unblock(r.Context(), viewer(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) blockedUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.BlockedUsers(r.Context(), viewer(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// === Post Handlers ===

type newPost struct {
	Content  string   `json:"content"`
	Media    []string `json:"media"`
	Hashtags []string `json:"hashtags"`
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	var in newPost
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	post, err := h.Service.CreatePost(r.Context(), viewer(r), in.Content, in.Media, in.Hashtags)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writePosts(w, r, http.StatusCreated, post)
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.Service.GetPost(r.Context(), viewer(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.writePosts(w, r, http.StatusOK, post)
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeletePost(r.Context(), viewer(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) userPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Service.GetUserPosts(r.Context(), viewer(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.writePostList(w, r, posts)
}

func (h *Handler) searchPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Service.SearchPosts(r.Context(), viewer(r), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.writePostList(w, r, posts)
}

func (h *Handler) trendingPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Service.TrendingPostsFor(r.Context(), viewer(r), queryInt(r, "limit", social.DefaultTrendingLimit))
	if err != nil {
		writeError(w, err)
		return
	}
	h.writePostList(w, r, posts)
}

func (h *Handler) feed(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Service.GetFeed(r.Context(), viewer(r))
	if err != nil {
		writeError(w, err)
		return
	}
	h.writePostList(w, r, posts)
}

type likeState struct {
	Likes int `json:"likes"`
}

func (h *Handler) like(w http.ResponseWriter, r *http.Request) {
	likes, err := h.Service.Like(r.Context(), chi.URLParam(r, "id"), viewer(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, likeState{Likes: likes})
}

func (h *Handler) unlike(w http.ResponseWriter, r *http.Request) {
	likes, err := h.Service.Unlike(r.Context(), chi.URLParam(r, "id"), viewer(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, likeState{Likes: likes})
}

func (h *Handler) writePosts(w http.ResponseWriter, r *http.Request, status int, post *domain.Post) {
	views, err := h.postViews(r.Context(), []*domain.Post{post})
	if err != nil {
		writeError(w, apperrors.Transient("load authors", err))
		return
	}
	writeJSON(w, status, views[0])
}

func (h *Handler) writePostList(w http.ResponseWriter, r *http.Request, posts []*domain.Post) {
	views, err := h.postViews(r.Context(), posts)
	if err != nil {
		writeError(w, apperrors.Transient("load authors", err))
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// === Comment Handlers ===

type newComment struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parentId"`
}

func (h *Handler) createComment(w http.ResponseWriter, r *http.Request) {
	var in newComment
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	comment, err := h.Service.CreateComment(r.Context(), chi.URLParam(r, "id"), viewer(r), in.Content, in.ParentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultCommentLimit)
	args := pageArgs(limit, r.URL.Query().Get("cursor"))

	comments, err := h.Service.ListComments(r.Context(), viewer(r), chi.URLParam(r, "id"), args)
	if err != nil {
		writeError(w, err)
		return
	}
	conn, err := h.commentConnection(r.Context(), comments, limit)
	if err != nil {
		writeError(w, apperrors.Transient("load comment replies", err))
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

func (h *Handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteComment(r.Context(), viewer(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// === Settings Handlers ===

func (h *Handler) getPrivacy(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.GetPrivacySettings(r.Context(), viewer(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// putPrivacy overlays the body on the stored settings, so omitted fields keep
// their value.
func (h *Handler) putPrivacy(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.GetPrivacySettings(r.Context(), viewer(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := decode(r, &settings); err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.Service.UpdatePrivacySettings(r.Context(), viewer(r), settings)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) getNotificationPrefs(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetNotificationPreferences(r.Context(), viewer(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) putNotificationPrefs(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetNotificationPreferences(r.Context(), viewer(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := decode(r, &p); err != nil {
		writeError(w, err)
		return
	}
	if err := h.Service.UpdateNotificationPreferences(r.Context(), viewer(r), p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// === Conversation Handlers ===

type newMessage struct {
	Content string `json:"content"`
}

func (h *Handler) conversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.Service.GetConversations(r.Context(), viewer(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

func (h *Handler) messages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.Service.GetMessages(r.Context(), viewer(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var in newMessage
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	msg, err := h.Service.SendMessage(r.Context(), viewer(r), chi.URLParam(r, "id"), in.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	conv, err := h.Service.MarkConversationRead(r.Context(), viewer(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// === Notification Handlers ===

type notificationList struct {
	Unread        int                   `json:"unread"`
	Notifications []domain.Notification `json:"notifications"`
}

type markNotifications struct {
	ID string `json:"id"`
}

func (h *Handler) notifications(w http.ResponseWriter, r *http.Request) {
	id := viewer(r)
	writeJSON(w, http.StatusOK, notificationList{
		Unread:        h.Inbox.Unread(id),
		Notifications: h.Inbox.List(id),
	})
}

// markNotificationsRead marks one notification, or all of them when the body
// has no id. Marking is idempotent.
func (h *Handler) markNotificationsRead(w http.ResponseWriter, r *http.Request) {
	var in markNotifications
	if r.ContentLength != 0 {
		if err := decode(r, &in); err != nil {
			writeError(w, err)
			return
		}
	}
	changed := h.Inbox.MarkRead(viewer(r), in.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"changed": changed,
		"unread":  h.Inbox.Unread(viewer(r)),
	})
}
