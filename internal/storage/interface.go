package storage

import (
	"context"
	"errors"

	"github.com/UkralStul/pulse-social/internal/domain"
)

// ErrNotFound оборачивается всеми хранилищами, когда сущность не найдена.
var ErrNotFound = errors.New("not found")

// PaginationArgs - курсорная пагинация по спискам комментариев.
type PaginationArgs struct {
	Limit  int
	Cursor *string
}

// Storage определяет контракт для коллекций сущностей, которые читает и меняет
// социальное ядро. Реализации должны быть безопасны для конкурентного доступа.
type Storage interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUsers(ctx context.Context) ([]*domain.User, error)
	// GetUsersByIDs для dataloader авторов; отсутствующие id пропускаются.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	CountPostsByAuthor(ctx context.Context, authorID string) (int, error)

	CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error)
	GetPostByID(ctx context.Context, id string) (*domain.Post, error)
	// GetPosts возвращает все посты в порядке добавления.
	GetPosts(ctx context.Context) ([]*domain.Post, error)
	GetPostsByAuthor(ctx context.Context, authorID string) ([]*domain.Post, error)
	DeletePost(ctx context.Context, id string) error
	// AdjustPostCounters прибавляет дельты к счетчикам поста (не ниже нуля)
	// и возвращает обновленный пост.
	AdjustPostCounters(ctx context.Context, postID string, likes, comments int) (*domain.Post, error)

	// AddLike возвращает false, если лайк уже был.
	AddLike(ctx context.Context, postID, userID string) (bool, error)
	// RemoveLike возвращает false, если удалять было нечего.
	RemoveLike(ctx context.Context, postID, userID string) (bool, error)

	CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	GetCommentByID(ctx context.Context, id string) (*domain.Comment, error)
	// DeleteComment удаляет комментарий вместе с ответами и возвращает
	// количество удаленных комментариев.
	DeleteComment(ctx context.Context, id string) (int, error)
	GetCommentsByPostID(ctx context.Context, postID string, args PaginationArgs) ([]*domain.Comment, error)
	GetCommentsByParentID(ctx context.Context, parentID string, args PaginationArgs) ([]*domain.Comment, error)
	GetCommentsByParentIDs(ctx context.Context, parentIDs []string) (map[string][]*domain.Comment, error)

	AddFollow(ctx context.Context, followerID, followingID string) (bool, error)
	RemoveFollow(ctx context.Context, followerID, followingID string) (bool, error)
	HasFollow(ctx context.Context, followerID, followingID string) (bool, error)
	CountFollowers(ctx context.Context, userID string) (int, error)
	CountFollowing(ctx context.Context, userID string) (int, error)
	GetFollowerIDs(ctx context.Context, userID string) ([]string, error)
	GetFollowingIDs(ctx context.Context, userID string) ([]string, error)

	// AddBlock добавляет блокировку и в том же атомарном шаге удаляет
	// подписки между пользователями в обе стороны.
	AddBlock(ctx context.Context, blockerID, blockedID string) (bool, error)
	RemoveBlock(ctx context.Context, blockerID, blockedID string) (bool, error)
	HasBlock(ctx context.Context, blockerID, blockedID string) (bool, error)
	GetBlockedIDs(ctx context.Context, blockerID string) ([]string, error)

	// GetOrCreateConversation возвращает единственный диалог для пары
	// (порядок не важен) и создает его при отсутствии.
	GetOrCreateConversation(ctx context.Context, a, b string) (*domain.Conversation, error)
	FindConversation(ctx context.Context, a, b string) (*domain.Conversation, error)
	GetConversationByID(ctx context.Context, id string) (*domain.Conversation, error)
	GetConversationsByUser(ctx context.Context, userID string) ([]*domain.Conversation, error)
	// AppendMessage сохраняет сообщение и обновляет снимок диалога.
	AppendMessage(ctx context.Context, msg *domain.Message) (*domain.Conversation, error)
	GetMessages(ctx context.Context, conversationID string) ([]*domain.Message, error)
	// MarkConversationRead сбрасывает счетчик непрочитанных, если readerID
	// не отправитель последнего сообщения.
	MarkConversationRead(ctx context.Context, conversationID, readerID string) (*domain.Conversation, error)
}
