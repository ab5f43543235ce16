package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/UkralStul/pulse-social/internal/domain"
	"github.com/UkralStul/pulse-social/internal/storage"
)

// Store реализует интерфейс Storage поверх gorm. В проде это PostgreSQL,
// в тестах sqlite.
type Store struct {
	db *gorm.DB
}

var _ storage.Storage = (*Store)(nil)

// New подключается к PostgreSQL и мигрирует схему.
func New(dsn string) (*Store, error) {
	return Open(postgres.Open(dsn))
}

// Open создает хранилище поверх любого диалектора gorm.
func Open(dialector gorm.Dialector) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Post{},
		&domain.Like{},
		&domain.Comment{},
		&domain.Follow{},
		&domain.Block{},
		&domain.Conversation{},
		&domain.Message{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

func notFound(err error, kind, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s with id %s: %w", kind, id, storage.ErrNotFound)
	}
	return err
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// Close закрывает пул соединений.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// === User Methods ===

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	u := *user
	ensureID(&u.ID)
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

func (s *Store) GetUsers(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&users).Error
	return users, err
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	var users []*domain.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	result := make(map[string]*domain.User, len(users))
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (s *Store) CountPostsByAuthor(ctx context.Context, authorID string) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&domain.Post{}).Where("author_id = ?", authorID).Count(&n).Error
	return int(n), err
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	p := *post
	ensureID(&p.ID)
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "post", id)
	}
	return &post, nil
}

func (s *Store) GetPosts(ctx context.Context) ([]*domain.Post, error) {
	var posts []*domain.Post
	err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&posts).Error
	return posts, err
}

func (s *Store) GetPostsByAuthor(ctx context.Context, authorID string) ([]*domain.Post, error) {
	var posts []*domain.Post
	err := s.db.WithContext(ctx).Where("author_id = ?", authorID).Order("created_at ASC, id ASC").Find(&posts).Error
	return posts, err
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&domain.Post{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "post", id)
		}
		return tx.Delete(&domain.Like{}, "post_id = ?", id).Error
	})
}

func (s *Store) AdjustPostCounters(ctx context.Context, postID string, likes, comments int) (*domain.Post, error) {
	var post domain.Post
	// чтение и запись в одной транзакции, иначе нижняя граница не держится
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, "id = ?", postID).Error; err != nil {
			return notFound(err, "post", postID)
		}
		post.Likes = max(post.Likes+likes, 0)
		post.Comments = max(post.Comments+comments, 0)
		return tx.Model(&post).Updates(map[string]any{
			"likes":    post.Likes,
			"comments": post.Comments,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *Store) AddLike(ctx context.Context, postID, userID string) (bool, error) {
	var added bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.Post{}).Where("id = ?", postID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return notFound(gorm.ErrRecordNotFound, "post", postID)
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&domain.Like{PostID: postID, UserID: userID})
		added = res.RowsAffected > 0
		return res.Error
	})
	return added, err
}

func (s *Store) RemoveLike(ctx context.Context, postID, userID string) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&domain.Like{}, "post_id = ? AND user_id = ?", postID, userID)
	return res.RowsAffected > 0, res.Error
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	c := *comment
	ensureID(&c.ID)

	// пост и родитель должны существовать в момент записи
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.Post{}).Where("id = ?", c.PostID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return notFound(gorm.ErrRecordNotFound, "post", c.PostID)
		}

		if c.ParentID != nil {
			if err := tx.Model(&domain.Comment{}).Where("id = ?", *c.ParentID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return notFound(gorm.ErrRecordNotFound, "comment", *c.ParentID)
			}
		}

		return tx.Create(&c).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	var comment domain.Comment
	if err := s.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "comment", id)
	}
	return &comment, nil
}

func (s *Store) DeleteComment(ctx context.Context, id string) (int, error) {
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&domain.Comment{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "comment", id)
		}
		removed = res.RowsAffected

		res = tx.Delete(&domain.Comment{}, "parent_id = ?", id)
		removed += res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, err
	}
	return int(removed), nil
}

// === Pagination Methods ===

func (s *Store) GetCommentsByPostID(ctx context.Context, postID string, args storage.PaginationArgs) ([]*domain.Comment, error) {
	// только корневые комментарии
	query := s.db.WithContext(ctx).Where("post_id = ? AND parent_id IS NULL", postID)
	return s.paginate(ctx, query, args)
}

func (s *Store) GetCommentsByParentID(ctx context.Context, parentID string, args storage.PaginationArgs) ([]*domain.Comment, error) {
	query := s.db.WithContext(ctx).Where("parent_id = ?", parentID)
	return s.paginate(ctx, query, args)
}

func (s *Store) paginate(ctx context.Context, query *gorm.DB, args storage.PaginationArgs) ([]*domain.Comment, error) {
	query = query.Order("created_at ASC, id ASC")
	if args.Limit > 0 {
		query = query.Limit(args.Limit)
	}

	if args.Cursor != nil {
		var cursorComment domain.Comment
		err := s.db.WithContext(ctx).First(&cursorComment, "id = ?", *args.Cursor).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []*domain.Comment{}, nil
		}
		if err != nil {
			return nil, err
		}
		// строки после курсора в порядке (created_at, id)
		query = query.Where(s.db.
			Where("created_at > ?", cursorComment.CreatedAt).
			Or("created_at = ? AND id > ?", cursorComment.CreatedAt, cursorComment.ID))
	}

	comments := make([]*domain.Comment, 0)
	err := query.Find(&comments).Error
	return comments, err
}

// === Dataloader Methods ===

func (s *Store) GetCommentsByParentIDs(ctx context.Context, parentIDs []string) (map[string][]*domain.Comment, error) {
	var comments []*domain.Comment
	err := s.db.WithContext(ctx).
		Where("parent_id IN ?", parentIDs).
		Order("parent_id, created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string][]*domain.Comment, len(parentIDs))
	for _, c := range comments {
		if c.ParentID != nil {
			result[*c.ParentID] = append(result[*c.ParentID], c)
		}
	}
	return result, nil
}

// === Follow Methods ===

func (s *Store) AddFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.Follow{FollowerID: followerID, FollowingID: followingID})
	return res.RowsAffected > 0, res.Error
}

func (s *Store) RemoveFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&domain.Follow{}, "follower_id = ? AND following_id = ?", followerID, followingID)
	return res.RowsAffected > 0, res.Error
}

func (s *Store) HasFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&domain.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&n).Error
	return n > 0, err
}

func (s *Store) CountFollowers(ctx context.Context, userID string) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&domain.Follow{}).Where("following_id = ?", userID).Count(&n).Error
	return int(n), err
}

func (s *Store) CountFollowing(ctx context.Context, userID string) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&domain.Follow{}).Where("follower_id = ?", userID).Count(&n).Error
	return int(n), err
}

func (s *Store) GetFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	var follows []domain.Follow
	err := s.db.WithContext(ctx).Where("following_id = ?", userID).Order("created_at ASC").Find(&follows).Error
	if err != nil {
		return nil, err
	}
	return funk.Map(follows, func(f domain.Follow) string { return f.FollowerID }).([]string), nil
}

func (s *Store) GetFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	var follows []domain.Follow
	err := s.db.WithContext(ctx).Where("follower_id = ?", userID).Order("created_at ASC").Find(&follows).Error
	if err != nil {
		return nil, err
	}
	return funk.Map(follows, func(f domain.Follow) string { return f.FollowingID }).([]string), nil
}

// === Block Methods ===

func (s *Store) AddBlock(ctx context.Context, blockerID, blockedID string) (bool, error) {
	var added bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("(follower_id = ? AND following_id = ?) OR (follower_id = ? AND following_id = ?)",
			blockerID, blockedID, blockedID, blockerID).
			Delete(&domain.Follow{}).Error
		if err != nil {
			return err
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&domain.Block{BlockerID: blockerID, BlockedID: blockedID})
		added = res.RowsAffected > 0
		return res.Error
	})
	return added, err
}

func (s *Store) RemoveBlock(ctx context.Context, blockerID, blockedID string) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&domain.Block{}, "blocker_id = ? AND blocked_id = ?", blockerID, blockedID)
	return res.RowsAffected > 0, res.Error
}

func (s *Store) HasBlock(ctx context.Context, blockerID, blockedID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&domain.Block{}).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Count(&n).Error
	return n > 0, err
}

func (s *Store) GetBlockedIDs(ctx context.Context, blockerID string) ([]string, error) {
	var blocks []domain.Block
	err := s.db.WithContext(ctx).Where("blocker_id = ?", blockerID).Order("created_at ASC").Find(&blocks).Error
	if err != nil {
		return nil, err
	}
	return funk.Map(blocks, func(b domain.Block) string { return b.BlockedID }).([]string), nil
}

// === Conversation Methods ===

func (s *Store) GetOrCreateConversation(ctx context.Context, a, b string) (*domain.Conversation, error) {
	a, b = domain.OrderedPair(a, b)
	conv := domain.Conversation{ParticipantA: a, ParticipantB: b}
	err := s.db.WithContext(ctx).
		Where("participant_a = ? AND participant_b = ?", a, b).
		Attrs(domain.Conversation{ID: uuid.NewString()}).
		FirstOrCreate(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *Store) FindConversation(ctx context.Context, a, b string) (*domain.Conversation, error) {
	a, b = domain.OrderedPair(a, b)
	var conv domain.Conversation
	err := s.db.WithContext(ctx).First(&conv, "participant_a = ? AND participant_b = ?", a, b).Error
	if err != nil {
		return nil, notFound(err, "conversation", a+"/"+b)
	}
	return &conv, nil
}

func (s *Store) GetConversationByID(ctx context.Context, id string) (*domain.Conversation, error) {
	var conv domain.Conversation
	if err := s.db.WithContext(ctx).First(&conv, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "conversation", id)
	}
	return &conv, nil
}

func (s *Store) GetConversationsByUser(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	convs := make([]*domain.Conversation, 0)
	err := s.db.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("updated_at DESC").
		Find(&convs).Error
	return convs, err
}

func (s *Store) AppendMessage(ctx context.Context, msg *domain.Message) (*domain.Conversation, error) {
	m := *msg
	ensureID(&m.ID)

	var conv domain.Conversation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&conv, "id = ?", m.ConversationID).Error; err != nil {
			return notFound(err, "conversation", m.ConversationID)
		}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}

		if conv.LastMessage != nil && conv.LastMessage.SenderID == m.SenderID {
			conv.UnreadCount++
		} else {
			conv.UnreadCount = 1
		}
		conv.LastMessage = &domain.LastMessage{
			Content:   m.Content,
			SenderID:  m.SenderID,
			CreatedAt: m.CreatedAt,
		}
		return tx.Save(&conv).Error
	})
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *Store) GetMessages(ctx context.Context, conversationID string) ([]*domain.Message, error) {
	msgs := make([]*domain.Message, 0)
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}

func (s *Store) MarkConversationRead(ctx context.Context, conversationID, readerID string) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&conv, "id = ?", conversationID).Error; err != nil {
			return notFound(err, "conversation", conversationID)
		}
		if conv.LastMessage == nil || conv.LastMessage.SenderID == readerID {
			return nil
		}
		err := tx.Model(&domain.Message{}).
			Where("conversation_id = ? AND sender_id <> ?", conversationID, readerID).
			Update("is_read", true).Error
		if err != nil {
			return err
		}
		conv.LastMessage.IsRead = true
		conv.UnreadCount = 0
		// чтение не поднимает диалог в списке
		return tx.Model(&conv).Select("last_message", "unread_count").UpdateColumns(&conv).Error
	})
	if err != nil {
		return nil, err
	}
	return &conv, nil
}
