package social

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/UkralStul/pulse-social/internal/errors"
)

func TestFollow_IncrementsFollowersByOne(t *testing.T) {
	f := newFixture(t)
	f.users(t, "a", "b")
	ctx := context.Background()

	before := f.svc.FollowersCount(ctx, "b")
	following, err := f.svc.Follow(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, following)
	assert.Equal(t, before+1, f.svc.FollowersCount(ctx, "b"))
	assert.Equal(t, 1, f.svc.FollowingCount(ctx, "a"))
	assert.True(t, f.svc.IsFollowing(ctx, "a", "b"))
	assert.False(t, f.svc.IsFollowing(ctx, "b", "a"))
}

func TestFollow_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.users(t, "a", "b")
	ctx := context.Background()

	f.follow(t, "a", "b")
	f.follow(t, "a", "b")

	assert.True(t, f.svc.IsFollowing(ctx, "a", "b"))
	assert.Equal(t, 1, f.svc.FollowersCount(ctx, "b"))
}

func TestFollow_BlockedEitherDirection(t *testing.T) {
	for _, blocker := range []string{"a", "b"} {
		t.Run("blocked by "+blocker, func(t *testing.T) {
			f := newFixture(t)
			f.users(t, "a", "b")
			ctx := context.Background()

			blocked := "b"
			if blocker == "b" {
				blocked = "a"
			}
			require.NoError(t, f.svc.Block(ctx, blocker, blocked))

			_, err := f.svc.Follow(ctx, "a", "b")
			assert.True(t, apperrors.IsPermissionDenied(err))
			assert.Equal(t, 0, f.svc.FollowersCount(ctx, "b"))
			assert.True(t, f.svc.IsBlocked(ctx, "a", "b"))
			assert.True(t, f.svc.IsBlocked(ctx, "b", "a"))
		})
	}
}

func TestFollow_Validation(t *testing.T) {
	f := newFixture(t)
	f.users(t, "a")
	ctx := context.Background()

	_, err := f.svc.Follow(ctx, "a", "a")
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.svc.Follow(ctx, "a", "ghost")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUnfollow_NoopWhenNotFollowing(t *testing.T) {
	f := newFixture(t)
	f.users(t, "a", "b")
	ctx := context.Background()

	following, err := f.svc.Unfollow(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, following)

	f.follow(t, "a", "b")
	_, err = f.svc.Unfollow(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, 0, f.svc.FollowersCount(ctx, "b"))
}

func TestBlock_RemovesFollowsBothWays(t *testing.T) {
	f := newFixture(t)
	f.users(t, "a", "b")
	ctx := context.Background()

	f.follow(t, "a", "b")
	f.follow(t, "b", "a")

	require.NoError(t, f.svc.Block(ctx, "a", "b"))
	assert.False(t, f.svc.IsFollowing(ctx, "a", "b"))
	assert.False(t, f.svc.IsFollowing(ctx, "b", "a"))

	// idempotent
	require.NoError(t, f.svc.Block(ctx, "a", "b"))

	blocked, err := f.svc.BlockedUsers(ctx, "a")
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, "b", blocked[0].ID)
}

func TestUnblock_DoesNotRestoreFollows(t *testing.T) {
	f := newFixture(t)
	f.users(t, "a", "b")
	ctx := context.Background()

	f.follow(t, "a", "b")
	require.NoError(t, f.svc.Block(ctx, "b", "a"))
	require.NoError(t, f.svc.Unblock(ctx, "b", "a"))

	assert.False(t, f.svc.IsBlocked(ctx, "a", "b"))
	assert.False(t, f.svc.IsFollowing(ctx, "a", "b"))

	f.follow(t, "a", "b")
	assert.True(t, f.svc.IsFollowing(ctx, "a", "b"))
}

func TestBlock_Validation(t *testing.T) {
	f := newFixture(t)
	f.users(t, "a")
	ctx := context.Background()

	assert.True(t, apperrors.IsValidation(f.svc.Block(ctx, "a", "a")))
	assert.True(t, apperrors.IsNotFound(f.svc.Block(ctx, "a", "ghost")))
}

func TestCountersMatchEdgeLists(t *testing.T) {
	f := newFixture(t)
	f.users(t, "a", "b", "c", "d")
	ctx := context.Background()

	f.follow(t, "a", "d")
	f.follow(t, "b", "d")
	f.follow(t, "c", "d")
	f.follow(t, "d", "a")
	require.NoError(t, f.svc.Block(ctx, "d", "b"))

	for _, id := range []string{"a", "b", "c", "d"} {
		followers, err := f.svc.Followers(ctx, id)
		require.NoError(t, err)
		following, err := f.svc.Following(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, len(followers), f.svc.FollowersCount(ctx, id), id)
		assert.Equal(t, len(following), f.svc.FollowingCount(ctx, id), id)
	}

	followers, err := f.svc.Followers(ctx, "d")
	require.NoError(t, err)
	require.Len(t, followers, 2)
	assert.Equal(t, "a", followers[0].ID)
	assert.Equal(t, 1, followers[0].FollowersCount)
}

func TestFollow_EmitsNotification(t *testing.T) {
	f := newFixture(t)
	f.users(t, "a", "b")
	f.pushOn(t, "b", nil)

	f.follow(t, "a", "b")
	f.follow(t, "a", "b")

	list := f.inbox.List("b")
	require.Len(t, list, 1)
	assert.Equal(t, "follow", string(list[0].Type))
	assert.Equal(t, "a", list[0].ActorID)
	assert.Equal(t, "User a started following you", list[0].Message)
}
