package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/social-feed/internal/api/handler"
	"github.com/d60-Lab/social-feed/internal/api/middleware"
	"github.com/d60-Lab/social-feed/internal/api/socket"
	"github.com/d60-Lab/social-feed/internal/cache"
	"github.com/d60-Lab/social-feed/internal/pagination"
	"github.com/d60-Lab/social-feed/internal/repository"
	"github.com/d60-Lab/social-feed/internal/service"
	"github.com/d60-Lab/social-feed/internal/testutil"
	"github.com/d60-Lab/social-feed/pkg/auth"
	"github.com/d60-Lab/social-feed/pkg/response"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	follows := repository.NewFollowRepository(db)
	fans := repository.NewFanRepository(db)
	authors := cache.NewAuthorCache(nil, 0)
	authSvc := service.NewAuthService(users, auth.NewManager("test-secret", time.Hour))
	hub := socket.NewHub()
	chat := service.NewChatService(db, hub, pagination.DefaultPolicy)

	h := handler.New(handler.Services{
		Auth:         authSvc,
		User:         service.NewUserService(db, authors, nil, 100),
		Relationship: service.NewRelationshipService(users, follows, fans, nil),
		Feed:         service.NewFeedService(db, authors, pagination.DefaultPolicy),
		Publisher:    service.NewPublisher(db),
		Reaction:     service.NewReactionService(db),
		Chat:         chat,
	})
	engine := New(Options{
		Mode:          gin.TestMode,
		Authenticator: authSvc,
		Handler:       h,
		Socket:        socket.NewHandler(hub, chat),
	})
	return &testServer{t: t, engine: engine}
}

func (s *testServer) do(method, path, token string, body any) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

type session struct {
	Token string `json:"token"`
	User  struct {
		ID string `json:"id"`
	} `json:"user"`
}

func (s *testServer) signup(username string) session {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/api/v1/auth/signup", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "password1",
	})
	require.Equal(s.t, http.StatusCreated, code, env.Message)
	var sess session
	require.NoError(s.t, json.Unmarshal(env.Data, &sess))
	return sess
}

func TestHealthAndAuthRequired(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, response.CodeSuccess, env.Code)

	code, env = s.do(http.MethodGet, "/api/v1/posts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, response.CodeUnauthorized, env.Code)

	code, _ = s.do(http.MethodGet, "/api/v1/posts", "bogus", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestSignupLogin(t *testing.T) {
	s := newTestServer(t)
	s.signup("alice")

	code, _ := s.do(http.MethodPost, "/api/v1/auth/signup", "", gin.H{
		"username": "alice", "email": "other@example.com", "password": "password1",
	})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"login": "alice", "password": "password1"})
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"login": "alice", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestFeedFlow(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup("alice")
	bob := s.signup("bob")
	carol := s.signup("carol")

	code, _ := s.do(http.MethodPut, "/api/v1/users/me/privacy", bob.Token, gin.H{"isPrivate": true})
	require.Equal(t, http.StatusOK, code)

	code, env := s.do(http.MethodPost, "/api/v1/posts", alice.Token, gin.H{"content": "from alice"})
	require.Equal(t, http.StatusCreated, code)
	var alicePost struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &alicePost))

	code, env = s.do(http.MethodPost, "/api/v1/posts", bob.Token, gin.H{"content": "from bob"})
	require.Equal(t, http.StatusCreated, code)
	var bobPost struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &bobPost))

	var feed []struct {
		ID       string `json:"id"`
		QtyLikes int    `json:"qtyLikes"`
		Author   struct {
			Username string `json:"username"`
		} `json:"author"`
	}
	code, env = s.do(http.MethodGet, "/api/v1/posts?limit=10", carol.Token, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, "alice", feed[0].Author.Username)

	code, _ = s.do(http.MethodGet, "/api/v1/posts/"+bobPost.ID, carol.Token, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodPost, "/api/v1/relations/follow/"+bob.User.ID, carol.Token, nil)
	require.Equal(t, http.StatusOK, code)
	code, env = s.do(http.MethodGet, "/api/v1/posts", carol.Token, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &feed))
	assert.Len(t, feed, 2)

	code, _ = s.do(http.MethodPost, "/api/v1/reactions/"+alicePost.ID, carol.Token, gin.H{"reactionType": "Like"})
	assert.Equal(t, http.StatusCreated, code)
	code, _ = s.do(http.MethodPost, "/api/v1/reactions/"+alicePost.ID, carol.Token, gin.H{"reactionType": "Like"})
	assert.Equal(t, http.StatusConflict, code)
	code, _ = s.do(http.MethodPost, "/api/v1/reactions/"+alicePost.ID, carol.Token, gin.H{"reactionType": "Love"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(http.MethodGet, "/api/v1/posts/"+alicePost.ID, bob.Token, nil)
	require.Equal(t, http.StatusOK, code)
	var one struct {
		QtyLikes int `json:"qtyLikes"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &one))
	assert.Equal(t, 1, one.QtyLikes)

	code, _ = s.do(http.MethodGet, "/api/v1/posts?before=a&after=b", carol.Token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(http.MethodGet, "/api/v1/posts?limit=-1", carol.Token, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodDelete, "/api/v1/posts/"+alicePost.ID, carol.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = s.do(http.MethodDelete, "/api/v1/posts/"+alicePost.ID, alice.Token, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestChatFlow(t *testing.T) {
	s := newTestServer(t)
	a := s.signup("alice")
	b := s.signup("bob")

	code, _ := s.do(http.MethodPost, "/api/v1/chat/conversations", a.Token, gin.H{"users": []string{b.User.ID}})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(http.MethodPost, "/api/v1/relations/follow/"+b.User.ID, a.Token, nil)
	require.Equal(t, http.StatusOK, code)
	code, env := s.do(http.MethodPost, "/api/v1/chat/conversations", a.Token, gin.H{"users": []string{b.User.ID}})
	require.Equal(t, http.StatusCreated, code)
	var conv struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &conv))

	path := "/api/v1/chat/conversations/" + conv.ID + "/messages"
	code, _ = s.do(http.MethodPost, path, b.Token, gin.H{"message": "hi"})
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = s.do(http.MethodPost, path, a.Token, gin.H{"message": "hello"})
	assert.Equal(t, http.StatusCreated, code)

	code, env = s.do(http.MethodGet, path, b.Token, nil)
	require.Equal(t, http.StatusOK, code)
	var msgs []struct {
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Content)

	code, _ = s.do(http.MethodGet, "/api/v1/chat/conversations/missing/messages", a.Token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(middleware.NewRateLimiter(1, 2).Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 3)
	for i := range codes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes[i] = w.Code
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestChatSocket(t *testing.T) {
	s := newTestServer(t)
	a := s.signup("alice")
	b := s.signup("bob")
	code, _ := s.do(http.MethodPost, "/api/v1/relations/follow/"+b.User.ID, a.Token, nil)
	require.Equal(t, http.StatusOK, code)

	srv := httptest.NewServer(s.engine)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/chat/ws?token=" + b.Token

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() socket.Envelope {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		var env socket.Envelope
		require.NoError(t, conn.ReadJSON(&env))
		return env
	}
	assert.Equal(t, socket.EventConversations, read().Event)

	code, env := s.do(http.MethodPost, "/api/v1/chat/conversations", a.Token, gin.H{"users": []string{b.User.ID}})
	require.Equal(t, http.StatusCreated, code)
	var conv struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &conv))
	assert.Equal(t, service.EventConversationCreated, read().Event)

	code, _ = s.do(http.MethodPost, "/api/v1/chat/conversations/"+conv.ID+"/messages", a.Token, gin.H{"message": "hello"})
	require.Equal(t, http.StatusCreated, code)
	got := read()
	assert.Equal(t, service.EventReceiveMessage, got.Event)
	assert.Contains(t, string(got.Data), "hello")

	// bob 未回关 alice，不能发送
	payload, err := json.Marshal(gin.H{"conversationId": conv.ID, "message": "hi"})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(socket.Envelope{Event: "sendMessage", Data: payload}))
	denied := read()
	assert.Equal(t, socket.EventError, denied.Event)
	assert.Contains(t, string(denied.Data), "unauthorized")

	require.NoError(t, conn.WriteJSON(socket.Envelope{Event: "typing", Data: payload}))
	unknown := read()
	assert.Equal(t, socket.EventError, unknown.Event)
	assert.Contains(t, string(unknown.Data), "unknown event typing")

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/chat/ws", nil)
	assert.Error(t, err)
}
