package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/UkralStul/pulse-social/internal/domain"
	"github.com/UkralStul/pulse-social/internal/storage"
)

type pair struct{ a, b string }

// Store реализует интерфейс Storage в памяти. Наружу отдаются копии,
// вызывающий код не делит состояние с хранилищем.
type Store struct {
	mu sync.RWMutex

	users     map[string]*domain.User
	userOrder []string
	usernames map[string]string

	posts     map[string]*domain.Post
	postOrder []string
	likes     map[pair]time.Time // {postID, userID}

	comments         map[string]*domain.Comment
	commentsByPost   map[string][]string // map[postID][]commentID (только корневые)
	commentsByParent map[string][]string // map[parentID][]commentID

	follows map[pair]time.Time // {follower, following}
	blocks  map[pair]time.Time // {blocker, blocked}

	conversations map[string]*domain.Conversation
	convByPair    map[pair]string
	messages      map[string][]*domain.Message
}

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		users:            make(map[string]*domain.User),
		usernames:        make(map[string]string),
		posts:            make(map[string]*domain.Post),
		likes:            make(map[pair]time.Time),
		comments:         make(map[string]*domain.Comment),
		commentsByPost:   make(map[string][]string),
		commentsByParent: make(map[string][]string),
		follows:          make(map[pair]time.Time),
		blocks:           make(map[pair]time.Time),
		conversations:    make(map[string]*domain.Conversation),
		convByPair:       make(map[pair]string),
		messages:         make(map[string][]*domain.Message),
	}
}

var _ storage.Storage = (*Store)(nil)

func clone[T any](src *T) *T {
	dst := new(T)
	if err := copier.CopyWithOption(dst, src, copier.Option{DeepCopy: true}); err != nil {
		// copier падает только на несовпадающих типах, для T -> T такого не бывает
		panic(fmt.Sprintf("inmemory: copy %T: %v", src, err))
	}
	return dst
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s with id %s: %w", kind, id, storage.ErrNotFound)
}

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now().UTC()
	}
}

// === User Methods ===

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.usernames[user.Username]; taken {
		return nil, fmt.Errorf("username %q is already taken", user.Username)
	}
	u := clone(user)
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	stamp(&u.CreatedAt)
	s.users[u.ID] = u
	s.userOrder = append(s.userOrder, u.ID)
	s.usernames[u.Username] = u.ID
	return clone(u), nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return clone(u), nil
}

func (s *Store) GetUsers(ctx context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		out = append(out, clone(s.users[id]))
	}
	return out, nil
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = clone(u)
		}
	}
	return out, nil
}

func (s *Store) CountPostsByAuthor(ctx context.Context, authorID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, p := range s.posts {
		if p.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := clone(post)
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	stamp(&p.CreatedAt)
	s.posts[p.ID] = p
	s.postOrder = append(s.postOrder, p.ID)
	return clone(p), nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, notFound("post", id)
	}
	return clone(post), nil
}

func (s *Store) GetPosts(ctx context.Context) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Post, 0, len(s.postOrder))
	for _, id := range s.postOrder {
		out = append(out, clone(s.posts[id]))
	}
	return out, nil
}

func (s *Store) GetPostsByAuthor(ctx context.Context, authorID string) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Post, 0)
	for _, id := range s.postOrder {
		if p := s.posts[id]; p.AuthorID == authorID {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return notFound("post", id)
	}
	delete(s.posts, id)
	for i, pid := range s.postOrder {
		if pid == id {
			s.postOrder = append(s.postOrder[:i], s.postOrder[i+1:]...)
			break
		}
	}
	for k := range s.likes {
		if k.a == id {
			delete(s.likes, k)
		}
	}
	return nil
}

func (s *Store) AdjustPostCounters(ctx context.Context, postID string, likes, comments int) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return nil, notFound("post", postID)
	}
	p.Likes = max(p.Likes+likes, 0)
	p.Comments = max(p.Comments+comments, 0)
	return clone(p), nil
}

func (s *Store) AddLike(ctx context.Context, postID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[postID]; !ok {
		return false, notFound("post", postID)
	}
	k := pair{postID, userID}
	if _, exists := s.likes[k]; exists {
		return false, nil
	}
	s.likes[k] = time.Now().UTC()
	return true, nil
}

func (s *Store) RemoveLike(ctx context.Context, postID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := pair{postID, userID}
	if _, exists := s.likes[k]; !exists {
		return false, nil
	}
	delete(s.likes, k)
	return true, nil
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[comment.PostID]; !ok {
		return nil, notFound("post", comment.PostID)
	}
	if comment.ParentID != nil {
		if _, ok := s.comments[*comment.ParentID]; !ok {
			return nil, notFound("comment", *comment.ParentID)
		}
	}

	c := clone(comment)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	stamp(&c.CreatedAt)
	s.comments[c.ID] = c

	if c.ParentID == nil {
		s.commentsByPost[c.PostID] = append(s.commentsByPost[c.PostID], c.ID)
	} else {
		s.commentsByParent[*c.ParentID] = append(s.commentsByParent[*c.ParentID], c.ID)
	}
	return clone(c), nil
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, ok := s.comments[id]
	if !ok {
		return nil, notFound("comment", id)
	}
	return clone(comment), nil
}

func (s *Store) DeleteComment(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return 0, notFound("comment", id)
	}

	removed := 1
	for _, childID := range s.commentsByParent[id] {
		if _, ok := s.comments[childID]; ok {
			delete(s.comments, childID)
			removed++
		}
	}
	delete(s.commentsByParent, id)
	delete(s.comments, id)

	if c.ParentID == nil {
		s.commentsByPost[c.PostID] = without(s.commentsByPost[c.PostID], id)
	} else {
		s.commentsByParent[*c.ParentID] = without(s.commentsByParent[*c.ParentID], id)
	}
	return removed, nil
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// === Pagination Methods ===

func (s *Store) GetCommentsByPostID(ctx context.Context, postID string, args storage.PaginationArgs) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	commentIDs, ok := s.commentsByPost[postID]
	if !ok {
		return []*domain.Comment{}, nil
	}
	return s.paginateComments(commentIDs, args), nil
}

func (s *Store) GetCommentsByParentID(ctx context.Context, parentID string, args storage.PaginationArgs) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	commentIDs, ok := s.commentsByParent[parentID]
	if !ok {
		return []*domain.Comment{}, nil
	}
	return s.paginateComments(commentIDs, args), nil
}

// paginateComments сортирует по времени создания, чтобы курсор был стабильным.
func (s *Store) paginateComments(ids []string, args storage.PaginationArgs) []*domain.Comment {
	all := s.collectComments(ids)

	start := 0
	if args.Cursor != nil {
		start = -1
		for i, c := range all {
			if c.ID == *args.Cursor {
				start = i + 1
				break
			}
		}
		// неизвестный курсор
		if start < 0 {
			return []*domain.Comment{}
		}
	}
	if start >= len(all) {
		return []*domain.Comment{}
	}
	end := len(all)
	if args.Limit > 0 && start+args.Limit < end {
		end = start + args.Limit
	}
	return all[start:end]
}

func (s *Store) collectComments(ids []string) []*domain.Comment {
	out := make([]*domain.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.comments[id]; ok {
			out = append(out, clone(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// === Dataloader Methods ===

func (s *Store) GetCommentsByParentIDs(ctx context.Context, parentIDs []string) (map[string][]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make(map[string][]*domain.Comment, len(parentIDs))
	for _, pID := range parentIDs {
		results[pID] = s.collectComments(s.commentsByParent[pID])
	}
	return results, nil
}

// === Follow Methods ===

func (s *Store) AddFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := pair{followerID, followingID}
	if _, exists := s.follows[k]; exists {
		return false, nil
	}
	s.follows[k] = time.Now().UTC()
	return true, nil
}

func (s *Store) RemoveFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := pair{followerID, followingID}
	if _, exists := s.follows[k]; !exists {
		return false, nil
	}
	delete(s.follows, k)
	return true, nil
}

func (s *Store) HasFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.follows[pair{followerID, followingID}]
	return ok, nil
}

func (s *Store) CountFollowers(ctx context.Context, userID string) (int, error) {
	ids, err := s.GetFollowerIDs(ctx, userID)
	return len(ids), err
}

func (s *Store) CountFollowing(ctx context.Context, userID string) (int, error) {
	ids, err := s.GetFollowingIDs(ctx, userID)
	return len(ids), err
}

func (s *Store) GetFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return edgeIDs(s.follows, func(k pair) (string, bool) { return k.a, k.b == userID }), nil
}

func (s *Store) GetFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return edgeIDs(s.follows, func(k pair) (string, bool) { return k.b, k.a == userID }), nil
}

// edgeIDs достает id из набора связей, старые первыми.
func edgeIDs(edges map[pair]time.Time, pick func(pair) (string, bool)) []string {
	type hit struct {
		id string
		at time.Time
	}
	hits := make([]hit, 0)
	for k, at := range edges {
		if id, ok := pick(k); ok {
			hits = append(hits, hit{id, at})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].at.Equal(hits[j].at) {
			return hits[i].id < hits[j].id
		}
		return hits[i].at.Before(hits[j].at)
	})
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.id
	}
	return out
}

// === Block Methods ===

func (s *Store) AddBlock(ctx context.Context, blockerID, blockedID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.follows, pair{blockerID, blockedID})
	delete(s.follows, pair{blockedID, blockerID})

	k := pair{blockerID, blockedID}
	if _, exists := s.blocks[k]; exists {
		return false, nil
	}
	s.blocks[k] = time.Now().UTC()
	return true, nil
}

func (s *Store) RemoveBlock(ctx context.Context, blockerID, blockedID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := pair{blockerID, blockedID}
	if _, exists := s.blocks[k]; !exists {
		return false, nil
	}
	delete(s.blocks, k)
	return true, nil
}

func (s *Store) HasBlock(ctx context.Context, blockerID, blockedID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.blocks[pair{blockerID, blockedID}]
	return ok, nil
}

func (s *Store) GetBlockedIDs(ctx context.Context, blockerID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return edgeIDs(s.blocks, func(k pair) (string, bool) { return k.b, k.a == blockerID }), nil
}

// === Conversation Methods ===

func (s *Store) GetOrCreateConversation(ctx context.Context, a, b string) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, b = domain.OrderedPair(a, b)
	if id, ok := s.convByPair[pair{a, b}]; ok {
		return clone(s.conversations[id]), nil
	}
	now := time.Now().UTC()
	c := &domain.Conversation{
		ID:           uuid.NewString(),
		ParticipantA: a,
		ParticipantB: b,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.conversations[c.ID] = c
	s.convByPair[pair{a, b}] = c.ID
	return clone(c), nil
}

func (s *Store) FindConversation(ctx context.Context, a, b string) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, b = domain.OrderedPair(a, b)
	id, ok := s.convByPair[pair{a, b}]
	if !ok {
		return nil, notFound("conversation", a+"/"+b)
	}
	return clone(s.conversations[id]), nil
}

func (s *Store) GetConversationByID(ctx context.Context, id string) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[id]
	if !ok {
		return nil, notFound("conversation", id)
	}
	return clone(c), nil
}

func (s *Store) GetConversationsByUser(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Conversation, 0)
	for _, c := range s.conversations {
		if c.Has(userID) {
			out = append(out, clone(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *Store) AppendMessage(ctx context.Context, msg *domain.Message) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[msg.ConversationID]
	if !ok {
		return nil, notFound("conversation", msg.ConversationID)
	}

	m := clone(msg)
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	stamp(&m.CreatedAt)
	s.messages[c.ID] = append(s.messages[c.ID], m)

	if c.LastMessage != nil && c.LastMessage.SenderID == m.SenderID {
		c.UnreadCount++
	} else {
		// непрочитанные всегда от одного отправителя, другая сторона ответила
		c.UnreadCount = 1
	}
	c.LastMessage = &domain.LastMessage{
		Content:   m.Content,
		SenderID:  m.SenderID,
		CreatedAt: m.CreatedAt,
	}
	c.UpdatedAt = m.CreatedAt
	return clone(c), nil
}

func (s *Store) GetMessages(ctx context.Context, conversationID string) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[conversationID]
	out := make([]*domain.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, clone(m))
	}
	return out, nil
}

func (s *Store) MarkConversationRead(ctx context.Context, conversationID, readerID string) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok {
		return nil, notFound("conversation", conversationID)
	}
	if c.LastMessage == nil || c.LastMessage.SenderID == readerID {
		return clone(c), nil
	}
	for _, m := range s.messages[conversationID] {
		if m.SenderID != readerID {
			m.IsRead = true
		}
	}
	c.LastMessage.IsRead = true
	c.UnreadCount = 0
	return clone(c), nil
}
