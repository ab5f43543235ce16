package social

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UkralStul/pulse-social/internal/domain"
	apperrors "github.com/UkralStul/pulse-social/internal/errors"
)

func TestSendMessage_OneConversationPerPair(t *testing.T) {
	f := newFixture(t)
	f.users(t, "a", "b")
	f.pushOn(t, "b", nil)
	ctx := context.Background()

	m1, err := f.svc.SendMessage(ctx, "a", "b", "hi")
	require.NoError(t, err)
	m2, err := f.svc.SendMessage(ctx, "b", "a", "hey")
	require.NoError(t, err)
	assert.Equal(t, m1.ConversationID, m2.ConversationID)

	convs, err := f.svc.GetConversations(ctx, "a")
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "hey", convs[0].LastMessage.Content)
	assert.Equal(t, 1, convs[0].UnreadCount)

	// b sent the last message, so b has nothing unread
	convs, err = f.svc.GetConversations(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 0, convs[0].UnreadCount)

	msgs, err := f.svc.GetMessages(ctx, "b", "a")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Content)

	list := f.inbox.List("b")
	require.Len(t, list, 1)
	assert.Equal(t, domain.NotificationMessage, list[0].Type)
}

func TestSendMessage_Rules(t *testing.T) {
	f := newFixture(t)
	f.users(t, "a", "b", "c")
	ctx := context.Background()
	f.setPrivacy(t, "c", func(p *domain.PrivacySettings) { p.MessagePermission = domain.AudienceFollowers })
	require.NoError(t, f.svc.Block(ctx, "b", "a"))

	_, err := f.svc.SendMessage(ctx, "a", "a", "me")
	assert.True(t, apperrors.IsValidation(err))
	_, err = f.svc.SendMessage(ctx, "a", "c", " ")
	assert.True(t, apperrors.IsValidation(err))
	_, err = f.svc.SendMessage(ctx, "a", "ghost", "hi")
	assert.True(t, apperrors.IsNotFound(err))
	_, err = f.svc.SendMessage(ctx, "a", "b", "hi")
	assert.True(t, apperrors.IsPermissionDenied(err))
	_, err = f.svc.SendMessage(ctx, "a", "c", "hi")
	assert.True(t, apperrors.IsPermissionDenied(err))

	f.follow(t, "a", "c")
	_, err = f.svc.SendMessage(ctx, "a", "c", "hi")
	assert.NoError(t, err)
}

func TestMarkConversationRead(t *testing.T) {
	f := newFixture(t)
	f.users(t, "a", "b", "c")
	ctx := context.Background()

	msg, err := f.svc.SendMessage(ctx, "a", "b", "hi")
	require.NoError(t, err)

	_, err = f.svc.MarkConversationRead(ctx, "c", msg.ConversationID)
	assert.True(t, apperrors.IsPermissionDenied(err))
	_, err = f.svc.MarkConversationRead(ctx, "b", "nope")
	assert.True(t, apperrors.IsNotFound(err))

	conv, err := f.svc.MarkConversationRead(ctx, "b", msg.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, 0, conv.UnreadCount)
	assert.True(t, conv.LastMessage.IsRead)
}

func TestGetMessages_NoConversation(t *testing.T) {
	f := newFixture(t)

	msgs, err := f.svc.GetMessages(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSendMessage_UnknownSender(t *testing.T) {
	f := newFixture(t)
	f.users(t, "b")
	f.pushOn(t, "b", nil)
	ctx := context.Background()

	_, err := f.svc.SendMessage(ctx, "ghost", "b", "hi")
	assert.True(t, apperrors.IsNotFound(err), "got %v", err)

	convs, err := f.store.GetConversationsByUser(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, convs)
	assert.Empty(t, f.inbox.List("b"))
}
