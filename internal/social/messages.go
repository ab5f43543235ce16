package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/UkralStul/pulse-social/internal/domain"
	apperrors "github.com/UkralStul/pulse-social/internal/errors"
	"github.com/UkralStul/pulse-social/internal/storage"
)

// SendMessage delivers content from senderID to recipientID, opening their
// conversation on first contact.
func (s *Service) SendMessage(ctx context.Context, senderID, recipientID, content string) (msg *domain.Message, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.record("send_message", err) }()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.Validation("content", "message content cannot be empty")
	}
	if senderID == recipientID {
		return nil, apperrors.Validation("userId", "users cannot message themselves")
	}
	if _, err := s.requireUser(ctx, "send message", senderID); err != nil {
		return nil, err
	}
	if _, err := s.requireUser(ctx, "send message", recipientID); err != nil {
		return nil, err
	}
	if !s.CanMessage(ctx, senderID, recipientID) {
		return nil, apperrors.PermissionDenied("recipient does not accept messages from this user")
	}

	conv, err := s.store.GetOrCreateConversation(ctx, senderID, recipientID)
	if err != nil {
		return nil, fromStore("send message", "conversation", err)
	}
	msg = &domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, fromStore("send message", "conversation", err)
	}

	s.emit(ctx, recipientID, domain.Notification{
		Type:    domain.NotificationMessage,
		ActorID: senderID,
		Message: fmt.Sprintf("%s sent you a message", s.displayName(ctx, senderID)),
	})
	return msg, nil
}

// GetConversations lists userID's conversations, most recently active first.
// UnreadCount is what userID has not read yet.
func (s *Service) GetConversations(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	convs, err := s.store.GetConversationsByUser(ctx, userID)
	if err != nil {
		return nil, fromStore("get conversations", "conversation", err)
	}
	for _, c := range convs {
		viewConversation(c, userID)
	}
	return convs, nil
}

// GetMessages returns the conversation between userID and otherID, oldest
// first. No conversation yet means no messages.
func (s *Service) GetMessages(ctx context.Context, userID, otherID string) ([]*domain.Message, error) {
	conv, err := s.store.FindConversation(ctx, userID, otherID)
	if errors.Is(err, storage.ErrNotFound) {
		return []*domain.Message{}, nil
	}
	if err != nil {
		return nil, fromStore("get messages", "conversation", err)
	}
	msgs, err := s.store.GetMessages(ctx, conv.ID)
	if err != nil {
		return nil, fromStore("get messages", "conversation", err)
	}
	return msgs, nil
}

// MarkConversationRead clears userID's unread counter.
func (s *Service) MarkConversationRead(ctx context.Context, userID, conversationID string) (conv *domain.Conversation, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.record("mark_read", err) }()

	conv, err = s.store.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, fromStore("mark conversation read", "conversation", err)
	}
	if !conv.Has(userID) {
		return nil, apperrors.PermissionDenied("not a participant of this conversation")
	}
	conv, err = s.store.MarkConversationRead(ctx, conversationID, userID)
	if err != nil {
		return nil, fromStore("mark conversation read", "conversation", err)
	}
	viewConversation(conv, userID)
	return conv, nil
}

// viewConversation adjusts the unread counter to userID's side: a user never
// has unread messages they sent themselves.
func viewConversation(c *domain.Conversation, userID string) {
	if c.LastMessage != nil && c.LastMessage.SenderID == userID {
		c.UnreadCount = 0
	}
}
