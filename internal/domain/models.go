package domain

import "time"

// User is a member of the network. The follower, following and post counts are
// derived from the edge collections on every read and are never persisted.
type User struct {
	ID          string    `json:"id" gorm:"type:varchar(64);primaryKey"`
	Username    string    `json:"username" gorm:"type:varchar(64);not null;uniqueIndex"`
	DisplayName string    `json:"displayName" gorm:"type:varchar(255);not null"`
	AvatarURL   string    `json:"avatar" gorm:"type:text"`
	Bio         string    `json:"bio" gorm:"type:text"`
	CreatedAt   time.Time `json:"createdAt" gorm:"not null"`

	FollowersCount int              `json:"followersCount" gorm:"-"`
	FollowingCount int              `json:"followingCount" gorm:"-"`
	PostsCount     int              `json:"postsCount" gorm:"-"`
	Privacy        *PrivacySettings `json:"privacy,omitempty" gorm:"-"`
}

// Post is a piece of content owned by AuthorID.
type Post struct {
	ID        string    `json:"id" gorm:"type:varchar(64);primaryKey"`
	AuthorID  string    `json:"authorId" gorm:"type:varchar(64);not null;index"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	MediaURLs []string  `json:"media" gorm:"serializer:json"`
	Hashtags  []string  `json:"hashtags" gorm:"serializer:json"`
	Likes     int       `json:"likes" gorm:"not null;default:0"`
	Comments  int       `json:"comments" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"timestamp" gorm:"not null;index"`
}

// Score is the engagement score used for trending.
func (p *Post) Score() int {
	return p.Likes + p.Comments
}

// Like records that UserID liked PostID. At most one per pair.
type Like struct {
	PostID    string    `json:"postId" gorm:"type:varchar(64);primaryKey"`
	UserID    string    `json:"userId" gorm:"type:varchar(64);primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
}

// Comment is attached to a post. ParentID points at a top-level comment of the
// same post when the comment is a reply.
type Comment struct {
	ID        string    `json:"id" gorm:"type:varchar(64);primaryKey"`
	PostID    string    `json:"postId" gorm:"type:varchar(64);not null;index"`
	ParentID  *string   `json:"parentId,omitempty" gorm:"type:varchar(64);index"`
	AuthorID  string    `json:"authorId" gorm:"type:varchar(64);not null"`
	Content   string    `json:"content" gorm:"type:varchar(2000);not null"`
	CreatedAt time.Time `json:"timestamp" gorm:"not null"`
}

// Follow is a directed edge: FollowerID follows FollowingID.
type Follow struct {
	FollowerID  string    `json:"followerId" gorm:"type:varchar(64);primaryKey"`
	FollowingID string    `json:"followingId" gorm:"type:varchar(64);primaryKey;index"`
	CreatedAt   time.Time `json:"timestamp" gorm:"not null"`
}

// Block is stored directionally but treated as mutual for visibility.
type Block struct {
	BlockerID string    `json:"blockerId" gorm:"type:varchar(64);primaryKey"`
	BlockedID string    `json:"blockedId" gorm:"type:varchar(64);primaryKey;index"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
}

// LastMessage is the denormalized snapshot kept on a conversation.
type LastMessage struct {
	Content   string    `json:"content"`
	SenderID  string    `json:"senderId"`
	CreatedAt time.Time `json:"timestamp"`
	IsRead    bool      `json:"isRead"`
}

// Conversation between exactly two users. ParticipantA < ParticipantB always,
// so the unordered pair maps to a single row.
type Conversation struct {
	ID           string       `json:"id" gorm:"type:varchar(64);primaryKey"`
	ParticipantA string       `json:"participantA" gorm:"type:varchar(64);not null;uniqueIndex:idx_conversation_pair"`
	ParticipantB string       `json:"participantB" gorm:"type:varchar(64);not null;uniqueIndex:idx_conversation_pair"`
	LastMessage  *LastMessage `json:"lastMessage,omitempty" gorm:"serializer:json"`
	UnreadCount  int          `json:"unreadCount" gorm:"not null;default:0"`
	CreatedAt    time.Time    `json:"createdAt" gorm:"not null"`
	UpdatedAt    time.Time    `json:"updatedAt" gorm:"not null;index"`
}

// Has reports whether userID takes part in the conversation.
func (c *Conversation) Has(userID string) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID string) string {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

// OrderedPair returns a and b in the canonical order used by Conversation.
func OrderedPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// Message is a single entry of a conversation.
type Message struct {
	ID             string    `json:"id" gorm:"type:varchar(64);primaryKey"`
	ConversationID string    `json:"conversationId" gorm:"type:varchar(64);not null;index"`
	SenderID       string    `json:"senderId" gorm:"type:varchar(64);not null"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	CreatedAt      time.Time `json:"timestamp" gorm:"not null"`
	IsRead         bool      `json:"isRead" gorm:"not null;default:false"`
}
