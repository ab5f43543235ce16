package social

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UkralStul/pulse-social/internal/domain"
	apperrors "github.com/UkralStul/pulse-social/internal/errors"
	"github.com/UkralStul/pulse-social/internal/metrics"
)

func TestLike_ThenUnlikeRestoresCount(t *testing.T) {
	f := newFixture(t)
	f.users(t, "a", "b")
	ctx := context.Background()
	post := f.post(t, "a", at(0))

	likes, err := f.svc.Like(ctx, post.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, 1, likes)

	likes, err = f.svc.Unlike(ctx, post.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, 0, likes)
}

func TestLike_IdempotentPerUser(t *testing.T) {
	f := newFixture(t)
	f.users(t, "a", "b", "c")
	ctx := context.Background()
	post := f.post(t, "a", at(0))

	for i := 0; i < 3; i++ {
		likes, err := f.svc.Like(ctx, post.ID, "b")
		require.NoError(t, err)
		assert.Equal(t, 1, likes)
	}
	likes, err := f.svc.Like(ctx, post.ID, "c")
	require.NoError(t, err)
	assert.Equal(t, 2, likes)
}

func TestUnlike_NeverNegative(t *testing.T) {
	f := newFixture(t)
	f.users(t, "a", "b")
	ctx := context.Background()
	post := f.post(t, "a", at(0))

	for i := 0; i < 3; i++ {
		likes, err := f.svc.Unlike(ctx, post.ID, "b")
		require.NoError(t, err)
		assert.Equal(t, 0, likes)
	}
}

func TestLike_MissingPost(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Like(context.Background(), "nope", "b")
	assert.True(t, apperrors.IsNotFound(err))
	_, err = f.svc.Unlike(context.Background(), "nope", "b")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestLike_HiddenPostDenied(t *testing.T) {
	f := newFixture(t)
	f.users(t, "a", "b")
	ctx := context.Background()
	f.setPrivacy(t, "a", func(p *domain.PrivacySettings) { p.PostVisibility = domain.AudienceNobody })
	post := f.post(t, "a", at(0))

	_, err := f.svc.Like(ctx, post.ID, "b")
	assert.True(t, apperrors.IsPermissionDenied(err))

	got, err := f.store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Likes)
}

func TestLike_NotifiesAuthorOnce(t *testing.T) {
	f := newFixture(t)
	f.users(t, "a", "b")
	f.pushOn(t, "a", nil)
	ctx := context.Background()
	post := f.post(t, "a", at(0))

	_, err := f.svc.Like(ctx, post.ID, "b")
	require.NoError(t, err)
	_, err = f.svc.Like(ctx, post.ID, "b")
	require.NoError(t, err)
	// self-like never notifies
	_, err = f.svc.Like(ctx, post.ID, "a")
	require.NoError(t, err)

	list := f.inbox.List("a")
	require.Len(t, list, 1)
	assert.Equal(t, domain.NotificationLike, list[0].Type)
	assert.Equal(t, post.ID, list[0].PostID)
}

func TestMutations_AreCounted(t *testing.T) {
	f := newFixture(t)
	f.users(t, "a")
	m := metrics.New(prometheus.NewRegistry())
	f.svc.metrics = m

	_, _ = f.svc.Follow(context.Background(), "a", "a")
	_, _ = f.svc.Like(context.Background(), "nope", "a")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.MutationsTotal.WithLabelValues("follow", "validation_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MutationsTotal.WithLabelValues("like", "not_found")))
}

func TestLike_UnknownUserChangesNothing(t *testing.T) {
	f := newFixture(t)
	f.users(t, "a")
	f.pushOn(t, "a", nil)
	ctx := context.Background()
	post := f.post(t, "a", at(0))

	for _, id := range []string{"ghost1", "ghost2"} {
		_, err := f.svc.Like(ctx, post.ID, id)
		assert.True(t, apperrors.IsNotFound(err), "got %v", err)
	}

	got, err := f.store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Likes)
	removed, err := f.store.RemoveLike(ctx, post.ID, "ghost1")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Empty(t, f.inbox.List("a"))
}

func TestBlock_UnknownBlocker(t *testing.T) {
	f := newFixture(t)
	f.users(t, "a")
	ctx := context.Background()

	assert.True(t, apperrors.IsNotFound(f.svc.Block(ctx, "ghost", "a")))

	blocked, err := f.store.HasBlock(ctx, "ghost", "a")
	require.NoError(t, err)
	assert.False(t, blocked)
}
