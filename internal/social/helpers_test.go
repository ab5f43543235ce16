package social

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/UkralStul/pulse-social/internal/domain"
	"github.com/UkralStul/pulse-social/internal/notify"
	"github.com/UkralStul/pulse-social/internal/prefs"
	"github.com/UkralStul/pulse-social/internal/storage/inmemory"
)

type fixture struct {
	svc   *Service
	store *inmemory.Store
	prefs *prefs.Store
	inbox *notify.Inbox
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := inmemory.New()
	p := prefs.NewStore(prefs.NewMemoryKV())
	inbox := notify.NewInbox(50)
	log := zaptest.NewLogger(t)
	dispatcher := notify.NewDispatcher(p, log, nil, inbox)
	return &fixture{
		svc:   NewService(store, p, dispatcher, log, nil),
		store: store,
		prefs: p,
		inbox: inbox,
	}
}

// users creates users whose id equals their username.
func (f *fixture) users(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := f.store.CreateUser(context.Background(), &domain.User{ID: id, Username: id, DisplayName: "User " + id})
		require.NoError(t, err)
	}
}

func (f *fixture) post(t *testing.T, author string, at time.Time) *domain.Post {
	t.Helper()
	p, err := f.store.CreatePost(context.Background(), &domain.Post{AuthorID: author, Content: "post by " + author, CreatedAt: at})
	require.NoError(t, err)
	return p
}

func (f *fixture) follow(t *testing.T, follower, following string) {
	t.Helper()
	_, err := f.svc.Follow(context.Background(), follower, following)
	require.NoError(t, err)
}

func (f *fixture) setPrivacy(t *testing.T, userID string, edit func(*domain.PrivacySettings)) {
	t.Helper()
	settings := domain.DefaultPrivacySettings()
	edit(&settings)
	require.NoError(t, f.prefs.SetPrivacy(context.Background(), userID, settings))
}

func (f *fixture) pushOn(t *testing.T, userID string, edit func(*domain.NotificationPreferences)) {
	t.Helper()
	p := domain.DefaultNotificationPreferences()
	p.PushEnabled = true
	if edit != nil {
		edit(&p)
	}
	require.NoError(t, f.prefs.SetNotifications(context.Background(), userID, p))
}

// brokenPrefs fails every read.
type brokenPrefs struct{}

var errPrefsDown = errors.New("preference store unreachable")

func (brokenPrefs) Privacy(context.Context, string) (domain.PrivacySettings, error) {
	return domain.PrivacySettings{}, errPrefsDown
}
func (brokenPrefs) SetPrivacy(context.Context, string, domain.PrivacySettings) error {
	return errPrefsDown
}
func (brokenPrefs) Notifications(context.Context, string) (domain.NotificationPreferences, error) {
	return domain.NotificationPreferences{}, errPrefsDown
}
func (brokenPrefs) SetNotifications(context.Context, string, domain.NotificationPreferences) error {
	return errPrefsDown
}

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return t0.Add(time.Duration(minutes) * time.Minute)
}

func ids(posts []*domain.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}
