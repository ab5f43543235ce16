package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/UkralStul/pulse-social/internal/domain"
	"github.com/UkralStul/pulse-social/internal/metrics"
	"github.com/UkralStul/pulse-social/internal/notify"
	"github.com/UkralStul/pulse-social/internal/prefs"
	"github.com/UkralStul/pulse-social/internal/social"
	"github.com/UkralStul/pulse-social/internal/storage/inmemory"
)

// postBody and commentBody mirror the views with value embedding for decoding.
type postBody struct {
	domain.Post
	Author *domain.User `json:"author"`
}

type commentBody struct {
	domain.Comment
	Author  *domain.User   `json:"author"`
	Replies []*commentBody `json:"replies"`
}

type connectionBody struct {
	Edges []struct {
		Node   *commentBody `json:"node"`
		Cursor string       `json:"cursor"`
	} `json:"edges"`
	PageInfo PageInfo `json:"pageInfo"`
}

type testServer struct {
	*httptest.Server
	hub   *notify.Hub
	store *inmemory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	// request lines of hijacked websocket connections can outlive the test
	log := zaptest.NewLogger(t, zaptest.Level(zapcore.WarnLevel))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	store := inmemory.New()
	p := prefs.NewStore(prefs.NewMemoryKV())
	inbox := notify.NewInbox(20)
	hub := notify.NewHub()
	dispatcher := notify.NewDispatcher(p, log, m, inbox, hub)

	router := NewRouter(&Handler{
		Service:  social.NewService(store, p, dispatcher, log, m),
		Storage:  store,
		Inbox:    inbox,
		Hub:      hub,
		Gatherer: reg,
		Log:      log,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, hub: hub, store: store}
}

// call sends body as JSON and decodes the response into out when given.
func (s *testServer) call(t *testing.T, method, path, user string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := codec.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, codec.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *testServer) user(t *testing.T, username string) string {
	t.Helper()
	var u domain.User
	status := s.call(t, http.MethodPost, "/users", "", newUser{Username: username}, &u)
	require.Equal(t, http.StatusCreated, status)
	return u.ID
}

func (s *testServer) pushOn(t *testing.T, userID string) {
	t.Helper()
	status := s.call(t, http.MethodPut, "/settings/notifications", userID, map[string]bool{"pushEnabled": true}, nil)
	require.Equal(t, http.StatusOK, status)
}

func TestAPI_PostWithAuthor(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.user(t, "alice")

	var created postBody
	status := srv.call(t, http.MethodPost, "/posts", alice, newPost{Content: "hello #Go"}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, []string{"go"}, created.Hashtags)

	var got postBody
	status = srv.call(t, http.MethodGet, "/posts/"+created.ID, "", nil, &got)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, got.Author)
	assert.Equal(t, "alice", got.Author.Username)
	assert.Equal(t, "hello #Go", got.Content)
}

func TestAPI_RequiresActingUser(t *testing.T) {
	srv := newTestServer(t)

	status := srv.call(t, http.MethodPost, "/posts", "", newPost{Content: "x"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status = srv.call(t, http.MethodGet, "/feed", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAPI_ErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.user(t, "alice")
	bob := srv.user(t, "bob")

	var body struct {
		Error struct {
			Code  string `json:"code"`
			Field string `json:"field"`
		} `json:"error"`
	}
	status := srv.call(t, http.MethodGet, "/posts/missing", alice, nil, &body)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)

	status = srv.call(t, http.MethodPost, "/users/"+alice+"/follow", alice, nil, &body)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)

	status = srv.call(t, http.MethodPost, "/users/"+bob+"/block", alice, nil, nil)
	require.Equal(t, http.StatusNoContent, status)
	status = srv.call(t, http.MethodPost, "/users/"+alice+"/follow", bob, nil, &body)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "PERMISSION_DENIED", body.Error.Code)

	status = srv.call(t, http.MethodPut, "/settings/privacy", alice, map[string]string{"allowMessages": "friends"}, &body)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "allowMessages", body.Error.Field)
}

func TestAPI_UnknownActingUser(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.user(t, "alice")

	var post postBody
	srv.call(t, http.MethodPost, "/posts", alice, newPost{Content: "like me"}, &post)

	for _, ghost := range []string{"ghost1", "ghost2"} {
		status := srv.call(t, http.MethodPost, "/posts/"+post.ID+"/like", ghost, nil, nil)
		assert.Equal(t, http.StatusNotFound, status)
		status = srv.call(t, http.MethodPost, "/posts/"+post.ID+"/comments", ghost, newComment{Content: "hi"}, nil)
		assert.Equal(t, http.StatusNotFound, status)
	}

	var got postBody
	srv.call(t, http.MethodGet, "/posts/"+post.ID, "", nil, &got)
	assert.Equal(t, 0, got.Likes)
	assert.Equal(t, 0, got.Comments)
}

func TestAPI_Feed(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.user(t, "alice")
	bob := srv.user(t, "bob")
	carol := srv.user(t, "carol")

	var state followState
	status := srv.call(t, http.MethodPost, "/users/"+bob+"/follow", alice, nil, &state)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, state.Following)

	for _, p := range []struct{ author, content string }{
		{bob, "from bob"},
		{carol, "from carol"},
		{alice, "from alice"},
	} {
		srv.call(t, http.MethodPost, "/posts", p.author, newPost{Content: p.content}, nil)
		time.Sleep(2 * time.Millisecond)
	}

	var feed []*postBody
	status = srv.call(t, http.MethodGet, "/feed", alice, nil, &feed)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, feed, 2)
	assert.Equal(t, "from alice", feed[0].Content)
	assert.Equal(t, "from bob", feed[1].Content)
	require.NotNil(t, feed[1].Author)
	assert.Equal(t, "bob", feed[1].Author.Username)

	var followers []*domain.User
	srv.call(t, http.MethodGet, "/users/"+bob+"/followers", "", nil, &followers)
	require.Len(t, followers, 1)
	assert.Equal(t, alice, followers[0].ID)
}

func TestAPI_CommentConnection(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.user(t, "alice")
	bob := srv.user(t, "bob")

	var post postBody
	srv.call(t, http.MethodPost, "/posts", alice, newPost{Content: "discuss"}, &post)

	var roots []*domain.Comment
	for _, text := range []string{"first", "second", "third"} {
		var c domain.Comment
		status := srv.call(t, http.MethodPost, "/posts/"+post.ID+"/comments", bob, newComment{Content: text}, &c)
		require.Equal(t, http.StatusCreated, status)
		roots = append(roots, &c)
		// keeps creation times strictly ordered
		time.Sleep(2 * time.Millisecond)
	}
	var reply domain.Comment
	srv.call(t, http.MethodPost, "/posts/"+post.ID+"/comments", alice, newComment{Content: "thanks", ParentID: &roots[0].ID}, &reply)

	var page connectionBody
	status := srv.call(t, http.MethodGet, "/posts/"+post.ID+"/comments?limit=2", "", nil, &page)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, page.Edges, 2)
	assert.True(t, page.PageInfo.HasNextPage)
	require.NotNil(t, page.PageInfo.EndCursor)
	assert.Equal(t, roots[1].ID, *page.PageInfo.EndCursor)

	first := page.Edges[0].Node
	assert.Equal(t, "first", first.Content)
	require.NotNil(t, first.Author)
	assert.Equal(t, "bob", first.Author.Username)
	require.Len(t, first.Replies, 1)
	assert.Equal(t, "thanks", first.Replies[0].Content)
	assert.Equal(t, "alice", first.Replies[0].Author.Username)

	status = srv.call(t, http.MethodGet, "/posts/"+post.ID+"/comments?limit=2&cursor="+*page.PageInfo.EndCursor, "", nil, &page)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, page.Edges, 1)
	assert.False(t, page.PageInfo.HasNextPage)

	var got postBody
	srv.call(t, http.MethodGet, "/posts/"+post.ID, "", nil, &got)
	assert.Equal(t, 4, got.Comments)
}

func TestAPI_NotificationInbox(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.user(t, "alice")
	bob := srv.user(t, "bob")
	srv.pushOn(t, bob)

	var post postBody
	srv.call(t, http.MethodPost, "/posts", bob, newPost{Content: "like me"}, &post)

	var likes likeState
	status := srv.call(t, http.MethodPost, "/posts/"+post.ID+"/like", alice, nil, &likes)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, likes.Likes)

	var list notificationList
	srv.call(t, http.MethodGet, "/notifications", bob, nil, &list)
	assert.Equal(t, 1, list.Unread)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, domain.NotificationLike, list.Notifications[0].Type)
	assert.Equal(t, alice, list.Notifications[0].ActorID)

	status = srv.call(t, http.MethodPost, "/notifications/read", bob, nil, nil)
	require.Equal(t, http.StatusOK, status)
	srv.call(t, http.MethodGet, "/notifications", bob, nil, &list)
	assert.Equal(t, 0, list.Unread)
}

func TestAPI_Messages(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.user(t, "alice")
	bob := srv.user(t, "bob")

	var msg domain.Message
	status := srv.call(t, http.MethodPost, "/conversations/"+bob+"/messages", alice, newMessage{Content: "hey"}, &msg)
	require.Equal(t, http.StatusCreated, status)

	var convs []*domain.Conversation
	srv.call(t, http.MethodGet, "/conversations", bob, nil, &convs)
	require.Len(t, convs, 1)
	assert.Equal(t, 1, convs[0].UnreadCount)

	var conv domain.Conversation
	status = srv.call(t, http.MethodPost, "/conversations/"+convs[0].ID+"/read", bob, nil, &conv)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, conv.UnreadCount)

	var msgs []*domain.Message
	srv.call(t, http.MethodGet, "/conversations/"+alice+"/messages", bob, nil, &msgs)
	require.Len(t, msgs, 1)
	assert.Equal(t, msg.ID, msgs[0].ID)
	assert.True(t, msgs[0].IsRead)
}

func TestAPI_NotificationStream(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.user(t, "alice")
	bob := srv.user(t, "bob")
	srv.pushOn(t, bob)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/notifications/ws"
	header := http.Header{}
	header.Set(UserHeader, bob)
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return srv.hub.Subscribers(bob) == 1 }, time.Second, 5*time.Millisecond)

	srv.call(t, http.MethodPost, "/users/"+bob+"/follow", alice, nil, nil)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var n domain.Notification
	require.NoError(t, conn.ReadJSON(&n))
	assert.Equal(t, domain.NotificationFollow, n.Type)
	assert.Equal(t, bob, n.TargetID)
	assert.Equal(t, alice, n.ActorID)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return srv.hub.Subscribers(bob) == 0 }, time.Second, 5*time.Millisecond)
}

func TestAPI_Metrics(t *testing.T) {
	srv := newTestServer(t)
	srv.user(t, "alice")

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `social_mutations_total{op="create_user",result="ok"} 1`)
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=3&bad=x&neg=-1", nil)
	assert.Equal(t, 3, queryInt(req, "limit", 10))
	assert.Equal(t, 10, queryInt(req, "bad", 10))
	assert.Equal(t, 10, queryInt(req, "neg", 10))
	assert.Equal(t, 10, queryInt(req, "missing", 10))
}

func TestLoadersFallbackOutsideMiddleware(t *testing.T) {
	h := &Handler{Storage: inmemory.New()}
	assert.NotNil(t, h.loaders(context.Background()))
}
