package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohanraja088/simple-chat-app-demo/config"
	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/message"
	"github.com/mohanraja088/simple-chat-app-demo/internal/handler"
	"github.com/mohanraja088/simple-chat-app-demo/internal/repository"
	"github.com/mohanraja088/simple-chat-app-demo/internal/repository/memory"
	"github.com/mohanraja088/simple-chat-app-demo/internal/services"
	"github.com/mohanraja088/simple-chat-app-demo/internal/storage"
	"github.com/mohanraja088/simple-chat-app-demo/internal/websocket"
	"github.com/mohanraja088/simple-chat-app-demo/pkg/logger"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

type testApp struct {
	engine *gin.Engine
	store  repository.Store
	auth   *services.AuthService
}

func newTestApp(t *testing.T, store repository.Store) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		AppMode:          TestMode,
		JWTSecret:        "test-secret",
		JWTExpiryHours:   1,
		UploadMaxBytes:   1024,
		PublicUploadPath: "/uploads",
	}
	log := logger.NewNop()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	wsLogger := websocket.NewWebSocketLogger(log.Logger)
	hub := websocket.NewHub(wsLogger)
	go hub.Run(ctx)

	blobs, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	authService := services.NewAuthService(store.Users, cfg)
	userService := services.NewUserService(store.Users)
	uploadService := services.NewUploadService(store.Files, blobs, cfg.UploadMaxBytes, cfg.PublicUploadPath, log)
	enricher := services.NewEnricher(store.Files, store.Users, uploadService.FileURL)
	groupService := services.NewGroupService(store, enricher, hub, log)
	messageService := services.NewMessageService(store, groupService, enricher, hub, log)
	presence := services.NewPresenceService(hub, nil, log)

	router := websocket.NewRouter(hub, websocket.RouterConfig{Presence: presence}, wsLogger)

	srv := New(cfg, log)
	srv.SetupRoutes(&Handlers{
		Auth:    handler.NewAuthHandler(authService, userService),
		User:    handler.NewUserHandler(userService, presence),
		Message: handler.NewMessageHandler(messageService),
		Group:   handler.NewGroupHandler(groupService),
		Upload:  handler.NewUploadHandler(uploadService, cfg.UploadMaxBytes),
		Live:    websocket.NewHandler(ctx, hub, router, authService, websocket.HandlerConfig{}),
	}, Dependencies{
		Tokens: authService,
		Health: map[string]HealthCheck{"store": store.Ping},
	})

	return &testApp{engine: srv.Engine(), store: store, auth: authService}
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestPingAndHealth(t *testing.T) {
	app := newTestApp(t, memory.New().Gateway())

	w, env := app.do(t, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	w, _ = app.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t, memory.New().Gateway())

	w, env := app.do(t, http.MethodPost, "/api/auth/signup", gin.H{"name": "Alice", "email": "alice@example.com", "password": "pw"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, env.Success)
	assert.NotContains(t, string(env.Data), "pw")

	w, env = app.do(t, http.MethodPost, "/api/auth/signup", gin.H{"email": "alice@example.com", "password": "pw"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", env.Code)

	w, env = app.do(t, http.MethodPost, "/api/auth/signup", gin.H{"email": "x@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", env.Code)

	w, env = app.do(t, http.MethodPost, "/api/auth/login", gin.H{"email": "alice@example.com", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)

	w, env = app.do(t, http.MethodPost, "/api/auth/login", gin.H{"email": "alice@example.com", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
		User  struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.Token)
	assert.Equal(t, "Alice", login.User.Name)

	w, _ = app.do(t, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = app.do(t, http.MethodGet, "/api/auth/me", nil, "Authorization", "Bearer "+login.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), login.User.ID)

	w, env = app.do(t, http.MethodGet, "/api/auth/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "alice@example.com")
	assert.NotContains(t, string(env.Data), "password")
}

func TestContactsExcludeCaller(t *testing.T) {
	app := newTestApp(t, memory.New().Gateway())
	for _, email := range []string{"a@example.com", "b@example.com"} {
		w, _ := app.do(t, http.MethodPost, "/api/auth/signup", gin.H{"email": email, "password": "pw"})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	a, err := app.store.Users.GetUserByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)

	w, env := app.do(t, http.MethodGet, "/api/contacts?except="+a.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, string(env.Data), "a@example.com")
	assert.Contains(t, string(env.Data), "b@example.com")
}

func TestMessagesSendAndHistory(t *testing.T) {
	app := newTestApp(t, memory.New().Gateway())

	for _, text := range []string{"one", "two"} {
		w, env := app.do(t, http.MethodPost, "/api/messages/send", gin.H{"senderId": "u1", "receiverId": "u2", "text": text})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var msg message.EnrichedDirect
		require.NoError(t, json.Unmarshal(env.Data, &msg))
		assert.NotEmpty(t, msg.ID)
		assert.Equal(t, text, msg.Text)
	}
	w, _ := app.do(t, http.MethodPost, "/api/messages/send", gin.H{"senderId": "u2", "receiverId": "u1", "text": "three"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := app.do(t, http.MethodGet, "/api/messages/u2/u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []message.EnrichedDirect
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 3)
	assert.Equal(t, "one", history[0].Text)
	assert.Equal(t, "three", history[2].Text)

	w, env = app.do(t, http.MethodPost, "/api/messages/send", gin.H{"receiverId": "u2", "text": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "senderId required", env.Error)

	w, env = app.do(t, http.MethodPost, "/api/messages/send", gin.H{"senderId": "u1", "receiverId": "u2", "fileId": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

type failingMessages struct {
	repository.MessageRepository
}

func (failingMessages) GetDirectMessagesBetween(context.Context, string, string) ([]message.DirectMessage, error) {
	return nil, assert.AnError
}

func (failingMessages) GetGroupMessages(context.Context, string) ([]message.GroupMessage, error) {
	return nil, assert.AnError
}

func TestHistoryUnavailableIsExplicit(t *testing.T) {
	store := memory.New().Gateway()
	store.Messages = failingMessages{store.Messages}
	app := newTestApp(t, store)

	w, env := app.do(t, http.MethodGet, "/api/messages/u1/u2", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "HISTORY_UNAVAILABLE", env.Code)
	assert.Equal(t, "history unavailable", env.Error)
	assert.Empty(t, env.Data)

	w, env = app.do(t, http.MethodGet, "/api/groups/g1/messages", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "HISTORY_UNAVAILABLE", env.Code)
}

func TestGroupsLifecycle(t *testing.T) {
	app := newTestApp(t, memory.New().Gateway())

	w, env := app.do(t, http.MethodPost, "/api/groups", gin.H{"name": "team", "members": []string{"u1", "u2", "u1"}, "createdBy": "u1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Group struct {
			ID      string   `json:"id"`
			Members []string `json:"members"`
		} `json:"group"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, []string{"u1", "u2"}, created.Group.Members)
	groupID := created.Group.ID

	w, env = app.do(t, http.MethodPost, "/api/groups", gin.H{"name": "bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "name and members[] required", env.Error)

	w, env = app.do(t, http.MethodGet, "/api/groups?member=u2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), groupID)

	w, _ = app.do(t, http.MethodPost, "/api/groups/"+groupID+"/message", gin.H{"from": "u2", "text": "hello"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env = app.do(t, http.MethodPost, "/api/groups/"+groupID+"/message", gin.H{"from": "u2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "text or fileId required", env.Error)

	w, env = app.do(t, http.MethodGet, "/api/groups/"+groupID+"/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var msgs []message.EnrichedGroup
	require.NoError(t, json.Unmarshal(env.Data, &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Text)

	w, _ = app.do(t, http.MethodDelete, "/api/groups/"+groupID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, env = app.do(t, http.MethodDelete, "/api/groups/"+groupID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Code)

	w, _ = app.do(t, http.MethodPost, "/api/groups/"+groupID+"/message", gin.H{"from": "u2", "text": "late"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func multipartUpload(t *testing.T, fields map[string]string, fileName, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		part, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadAndServe(t *testing.T) {
	app := newTestApp(t, memory.New().Gateway())

	w := httptest.NewRecorder()
	app.engine.ServeHTTP(w, multipartUpload(t, map[string]string{"uploadedBy": "u1"}, "notes.txt", "hello file"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var up struct {
		FileID   string `json:"fileId"`
		FileName string `json:"fileName"`
		FileURL  string `json:"fileUrl"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &up))
	assert.Equal(t, "notes.txt", up.FileName)
	require.True(t, strings.HasPrefix(up.FileURL, "/uploads/"))

	w = httptest.NewRecorder()
	app.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, up.FileURL, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello file", w.Body.String())

	// the upload can be attached to a message and shows up enriched
	_, sent := app.do(t, http.MethodPost, "/api/messages/send", gin.H{"senderId": "u1", "receiverId": "u2", "fileId": up.FileID})
	var msg message.EnrichedDirect
	require.NoError(t, json.Unmarshal(sent.Data, &msg))
	assert.Equal(t, up.FileURL, msg.FileURL)
	assert.Equal(t, "notes.txt", msg.FileName)

	w = httptest.NewRecorder()
	app.engine.ServeHTTP(w, multipartUpload(t, map[string]string{"uploadedBy": "u1"}, "", ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	app.engine.ServeHTTP(w, multipartUpload(t, nil, "a.txt", "x"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	app.engine.ServeHTTP(w, multipartUpload(t, map[string]string{"uploadedBy": "u1"}, "big.bin", strings.Repeat("x", 2048)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	app.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/missing.txt", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func readFrame(t *testing.T, conn *gorillaws.Conn) websocket.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f websocket.Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestLiveDeliveryAfterRestSend(t *testing.T) {
	app := newTestApp(t, memory.New().Gateway())
	ts := httptest.NewServer(app.engine)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(gin.H{"event": websocket.EventJoinRoom, "data": gin.H{"selfId": "u2", "peerId": "u1"}}))
	joined := readFrame(t, conn)
	require.Equal(t, websocket.EventJoined, joined.Event)
	assert.Contains(t, string(joined.Data), "u1_u2")

	w, _ := app.do(t, http.MethodPost, "/api/messages/send", gin.H{"senderId": "u1", "receiverId": "u2", "text": "live"})
	require.Equal(t, http.StatusCreated, w.Code)

	got := readFrame(t, conn)
	assert.Equal(t, websocket.EventReceiveMessage, got.Event)
	var msg message.EnrichedDirect
	require.NoError(t, json.Unmarshal(got.Data, &msg))
	assert.Equal(t, "live", msg.Text)
	assert.NotEmpty(t, msg.ID)
}

func TestPresenceEndpointTracksAuthenticatedConnections(t *testing.T) {
	app := newTestApp(t, memory.New().Gateway())
	ts := httptest.NewServer(app.engine)
	defer ts.Close()

	w, _ := app.do(t, http.MethodPost, "/api/auth/signup", gin.H{"email": "p@example.com", "password": "pw"})
	require.Equal(t, http.StatusCreated, w.Code)
	res, err := app.auth.Login(context.Background(), "p@example.com", "pw")
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=" + res.Token
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, env := app.do(t, http.MethodGet, "/api/presence", nil)
		return strings.Contains(string(env.Data), res.User.ID)
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		_, env := app.do(t, http.MethodGet, "/api/presence", nil)
		return !strings.Contains(string(env.Data), res.User.ID)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRestSendThenClientRelayDeliversOnce(t *testing.T) {
	app := newTestApp(t, memory.New().Gateway())
	ts := httptest.NewServer(app.engine)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	sender, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer sender.Close()
	peer, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer peer.Close()

	for _, conn := range []*gorillaws.Conn{sender, peer} {
		require.NoError(t, conn.WriteJSON(gin.H{"event": websocket.EventJoinRoom, "data": gin.H{"room": "u1_u2"}}))
		require.Equal(t, websocket.EventJoined, readFrame(t, conn).Event)
	}

	w, env := app.do(t, http.MethodPost, "/api/messages/send", gin.H{"senderId": "u1", "receiverId": "u2", "text": "once"})
	require.Equal(t, http.StatusCreated, w.Code)
	var saved message.EnrichedDirect
	require.NoError(t, json.Unmarshal(env.Data, &saved))

	// the client relays the saved copy the way the browser client does
	require.NoError(t, sender.WriteJSON(gin.H{"event": websocket.EventSendMessage, "data": json.RawMessage(env.Data)}))
	require.NoError(t, sender.WriteJSON(gin.H{"event": websocket.EventPing}))
	var senderEvents []string
	for {
		f := readFrame(t, sender)
		if f.Event == websocket.EventPong {
			break
		}
		senderEvents = append(senderEvents, f.Event)
	}
	assert.Equal(t, []string{websocket.EventReceiveMessage}, senderEvents)

	w, env = app.do(t, http.MethodPost, "/api/messages/send", gin.H{"senderId": "u1", "receiverId": "u2", "text": "next"})
	require.Equal(t, http.StatusCreated, w.Code)
	var next message.EnrichedDirect
	require.NoError(t, json.Unmarshal(env.Data, &next))

	var got []string
	for i := 0; i < 2; i++ {
		f := readFrame(t, peer)
		require.Equal(t, websocket.EventReceiveMessage, f.Event)
		var m message.EnrichedDirect
		require.NoError(t, json.Unmarshal(f.Data, &m))
		got = append(got, m.ID)
	}
	assert.Equal(t, []string{saved.ID, next.ID}, got)
}
