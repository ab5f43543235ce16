package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/UkralStul/pulse-social/internal/notify"
	"github.com/UkralStul/pulse-social/internal/prefs"
	"github.com/UkralStul/pulse-social/internal/social"
	"github.com/UkralStul/pulse-social/internal/storage/inmemory"
)

func newService(t *testing.T) *social.Service {
	t.Helper()
	log := zaptest.NewLogger(t)
	p := prefs.NewStore(prefs.NewMemoryKV())
	return social.NewService(inmemory.New(), p, notify.NewDispatcher(p, log, nil), log, nil)
}

func TestSeeder_CountersAgree(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	res, err := NewSeeder(svc, 42, zaptest.NewLogger(t)).Run(ctx, 6, 12)
	require.NoError(t, err)
	require.Len(t, res.Users, 6)
	require.Len(t, res.Posts, 12)

	followers := 0
	for _, u := range res.Users {
		followers += svc.FollowersCount(ctx, u.ID)
	}
	assert.Equal(t, res.Follows, followers)

	likes, comments := 0, 0
	for _, p := range res.Posts {
		got, err := svc.GetPost(ctx, p.AuthorID, p.ID)
		require.NoError(t, err)
		likes += got.Likes
		comments += got.Comments
		assert.NotEmpty(t, got.Hashtags)
	}
	assert.Equal(t, res.Likes, likes)
	assert.Equal(t, res.Comments, comments)
}

func TestSeeder_Deterministic(t *testing.T) {
	ctx := context.Background()

	a, err := NewSeeder(newService(t), 7, nil).Run(ctx, 4, 3)
	require.NoError(t, err)
	b, err := NewSeeder(newService(t), 7, nil).Run(ctx, 4, 3)
	require.NoError(t, err)

	for i := range a.Users {
		assert.Equal(t, a.Users[i].Username, b.Users[i].Username)
	}
	for i := range a.Posts {
		assert.Equal(t, a.Posts[i].Content, b.Posts[i].Content)
	}
	assert.Equal(t, a.Follows, b.Follows)
}

func TestSeeder_NoUsers(t *testing.T) {
	res, err := NewSeeder(newService(t), 1, nil).Run(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Empty(t, res.Users)
	assert.Empty(t, res.Posts)
}
