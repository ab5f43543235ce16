package domain

import "time"

// Audience controls who may perform an action against a user's content.
type Audience string

const (
	AudienceEveryone  Audience = "everyone"
	AudienceFollowers Audience = "followers"
	AudienceNobody    Audience = "nobody"
)

// Valid reports whether a is one of the known audiences.
func (a Audience) Valid() bool {
	switch a {
	case AudienceEveryone, AudienceFollowers, AudienceNobody:
		return true
	}
	return false
}

// PrivacySettings are stored per user in the preference store.
type PrivacySettings struct {
	IsPrivateProfile  bool     `json:"isPrivateProfile"`
	PostVisibility    Audience `json:"allowPostVisibility"`
	CommentPermission Audience `json:"allowComments"`
	MessagePermission Audience `json:"allowMessages"`
	ShowInSearch      bool     `json:"showInSearch"`
	ShowOnlineStatus  bool     `json:"showOnlineStatus"`
}

// DefaultPrivacySettings is what a user gets before saving anything.
func DefaultPrivacySettings() PrivacySettings {
	return PrivacySettings{
		IsPrivateProfile:  false,
		PostVisibility:    AudienceEveryone,
		CommentPermission: AudienceEveryone,
		MessagePermission: AudienceEveryone,
		ShowInSearch:      true,
		ShowOnlineStatus:  true,
	}
}

// Normalize fills audiences that were left empty with AudienceEveryone.
func (p *PrivacySettings) Normalize() {
	if p.PostVisibility == "" {
		p.PostVisibility = AudienceEveryone
	}
	if p.CommentPermission == "" {
		p.CommentPermission = AudienceEveryone
	}
	if p.MessagePermission == "" {
		p.MessagePermission = AudienceEveryone
	}
}

// NotificationType is the kind of event a notification describes.
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationFollow  NotificationType = "follow"
	NotificationMessage NotificationType = "message"
)

// NotificationPreferences gate delivery per event type. An event is delivered
// only when both its type flag and PushEnabled are set.
type NotificationPreferences struct {
	Likes       bool `json:"likes"`
	Comments    bool `json:"comments"`
	Follows     bool `json:"follows"`
	Messages    bool `json:"messages"`
	PushEnabled bool `json:"pushEnabled"`
}

// DefaultNotificationPreferences enables every type but leaves push off.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		Likes:       true,
		Comments:    true,
		Follows:     true,
		Messages:    true,
		PushEnabled: false,
	}
}

// Allows reports whether an event of type t passes the preference gate.
func (p NotificationPreferences) Allows(t NotificationType) bool {
	if !p.PushEnabled {
		return false
	}
	switch t {
	case NotificationLike:
		return p.Likes
	case NotificationComment:
		return p.Comments
	case NotificationFollow:
		return p.Follows
	case NotificationMessage:
		return p.Messages
	default:
		return false
	}
}

// Notification is the event shape handed to the delivery side-channels.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	TargetID  string           `json:"targetId"`
	ActorID   string           `json:"userId,omitempty"`
	PostID    string           `json:"postId,omitempty"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"timestamp"`
	Read      bool             `json:"read"`
}
