package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatline/authz"
	"chatline/chat"
	"chatline/cmd/api/auth"
	"chatline/cmd/api/router"
	"chatline/config"
	"chatline/eventbus"
	"chatline/events"
	"chatline/ledger"
	"chatline/llm"
	"chatline/models"
	"chatline/notifications"
	"chatline/repositories"
	"chatline/testutil"
)

type apiFixture struct {
	t      *testing.T
	engine *gin.Engine
	store  repositories.Store
	tokens *auth.JWTManager
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	store := testutil.NewStore(t)
	tokens, err := auth.NewJWTManager("test-secret", "chatline", time.Hour)
	require.NoError(t, err)
	gate, err := authz.NewGate(ctx, store.Sessions, "")
	require.NoError(t, err)

	bus := eventbus.NewLocalEventBus(time.Millisecond)
	t.Cleanup(bus.Close)
	dispatcher := events.NewDispatcher(bus)

	gen := llm.GeneratorFunc(func(ctx context.Context, prompt string) (llm.Result, error) {
		if prompt == "fail" {
			return llm.Result{}, errors.New("backend unavailable")
		}
		return llm.Result{Text: "echo: " + prompt, PromptTokens: 3, CompletionTokens: 4, ModelName: "test-model"}, nil
	})

	cfg := config.Default()
	credits := ledger.New(store.Ledger)
	sessions := chat.NewSessionStore(store.Sessions, store.Messages, cfg.Chat)
	pipeline := chat.NewPipeline(sessions, gate, credits, gen, dispatcher, chat.PipelineConfig{
		MessageCost:       10,
		GenerationTimeout: time.Second,
		MaxContentLength:  cfg.Chat.MaxContentLength,
		Source:            "test",
	})

	engine := router.New(router.Deps{
		Store:         store,
		Tokens:        tokens,
		Gate:          gate,
		Ledger:        credits,
		Sessions:      sessions,
		Pipeline:      pipeline,
		Notifications: notifications.NewService(store.Notifications, store.Users, gate, dispatcher, "test"),
	})
	return &apiFixture{t: t, engine: engine, store: store, tokens: tokens}
}

func (f *apiFixture) token(u *models.User) string {
	f.t.Helper()
	tok, err := f.tokens.Sign(u.ID, u.Role)
	require.NoError(f.t, err)
	return tok
}

func (f *apiFixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, rec)["error"].(string)
}

func (f *apiFixture) createSession(token string) models.ChatSession {
	f.t.Helper()
	rec := f.do(http.MethodPost, "/api/v1/chat/sessions", token, nil)
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.ChatSession](f.t, rec)
}

func TestHealth(t *testing.T) {
	f := newAPI(t)
	rec := f.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRequiresToken(t *testing.T) {
	f := newAPI(t)

	rec := f.do(http.MethodGet, "/api/v1/chat/sessions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", errorCode(t, rec))

	rec = f.do(http.MethodGet, "/api/v1/chat/sessions", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitMessageChargesAndTitles(t *testing.T) {
	f := newAPI(t)
	user := testutil.GrantUser(t, f.store, 15)
	tok := f.token(user)

	session := f.createSession(tok)
	assert.Equal(t, "New Chat", session.Title)

	rec := f.do(http.MethodPost, "/api/v1/chat/sessions/"+session.ID+"/messages", tok, map[string]string{"content": "Hello"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "echo: Hello", body["content"])
	assert.Equal(t, float64(5), body["credits"])
	assert.Equal(t, float64(10), body["charged"])
	assert.Equal(t, "Hello", body["title"])

	rec = f.do(http.MethodGet, "/api/v1/chat/sessions/"+session.ID+"/messages", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	msgs := decode[struct {
		Items []models.ChatMessage `json:"items"`
	}](t, rec).Items
	require.Len(t, msgs, 2)
	assert.Equal(t, models.MessageRoleUser, msgs[0].Role)
	assert.Equal(t, models.MessageRoleAssistant, msgs[1].Role)
	assert.Equal(t, int64(1), msgs[0].Seq)
	assert.Equal(t, int64(2), msgs[1].Seq)

	rec = f.do(http.MethodPost, "/api/v1/chat/sessions/"+session.ID+"/messages", tok, map[string]string{"content": "again"})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "insufficient_credits", errorCode(t, rec))

	rec = f.do(http.MethodGet, "/api/v1/credits", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	credits := decode[map[string]any](t, rec)
	assert.Equal(t, float64(5), credits["balance"])
	assert.Len(t, credits["entries"], 2)

	rec = f.do(http.MethodGet, "/api/v1/me", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	assert.Equal(t, user.ID, me["id"])
	assert.Equal(t, float64(5), me["credits"])
	assert.NotContains(t, me, "credential_ref")
}

func TestSubmitMessageErrors(t *testing.T) {
	f := newAPI(t)
	owner := testutil.GrantUser(t, f.store, 100)
	other := testutil.GrantUser(t, f.store, 100)
	ownerTok, otherTok := f.token(owner), f.token(other)
	session := f.createSession(ownerTok)
	path := "/api/v1/chat/sessions/" + session.ID + "/messages"

	rec := f.do(http.MethodPost, "/api/v1/chat/sessions/not-a-uuid/messages", ownerTok, map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_session_id", errorCode(t, rec))

	rec = f.do(http.MethodPost, path, ownerTok, map[string]string{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", errorCode(t, rec))

	rec = f.do(http.MethodPost, path, otherTok, map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))

	rec = f.do(http.MethodGet, "/api/v1/chat/sessions/"+session.ID, otherTok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, path, ownerTok, map[string]string{"content": "fail"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "generation_failed", errorCode(t, rec))

	balance, err := f.store.Ledger.Balance(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance, "failed generation is not charged")

	msgs, err := f.store.Messages.ListBySession(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1, "user message is kept")
	assert.Equal(t, "fail", msgs[0].Content)
}

func TestSessionListIsScopedToCaller(t *testing.T) {
	f := newAPI(t)
	alice := testutil.SeedUser(t, f.store, models.RoleUser, 0)
	bob := testutil.SeedUser(t, f.store, models.RoleUser, 0)
	a1 := f.createSession(f.token(alice))
	f.createSession(f.token(bob))

	rec := f.do(http.MethodGet, "/api/v1/chat/sessions", f.token(alice), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[struct {
		Items []models.ChatSession `json:"items"`
	}](t, rec).Items
	require.Len(t, items, 1)
	assert.Equal(t, a1.ID, items[0].ID)

	rec = f.do(http.MethodGet, "/api/v1/chat/sessions/"+a1.ID, f.token(alice), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminEndpoints(t *testing.T) {
	f := newAPI(t)
	admin := testutil.SeedUser(t, f.store, models.RoleAdmin, 0)
	user := testutil.GrantUser(t, f.store, 5)
	adminTok, userTok := f.token(admin), f.token(user)

	rec := f.do(http.MethodPost, "/api/v1/admin/users/"+user.ID+"/credits", userTok, map[string]any{"amount": 100})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", errorCode(t, rec))

	rec = f.do(http.MethodPost, "/api/v1/admin/users/"+user.ID+"/credits", adminTok, map[string]any{"amount": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/admin/users/"+user.ID+"/credits", adminTok, map[string]any{"amount": 100})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	grant := decode[map[string]any](t, rec)
	assert.Equal(t, float64(105), grant["balance"])

	rec = f.do(http.MethodPost, "/api/v1/admin/users/00000000-0000-0000-0000-000000000000/credits", adminTok, map[string]any{"amount": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(http.MethodGet, "/api/v1/admin/users/00000000-0000-0000-0000-000000000000/ledger/verify", adminTok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))

	rec = f.do(http.MethodGet, "/api/v1/admin/users/"+user.ID+"/ledger/verify", adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	verify := decode[map[string]any](t, rec)
	assert.Equal(t, true, verify["consistent"])
	assert.Equal(t, float64(105), verify["entry_sum"])
}

func TestNotificationEndpoints(t *testing.T) {
	f := newAPI(t)
	admin := testutil.SeedUser(t, f.store, models.RoleAdmin, 0)
	user := testutil.SeedUser(t, f.store, models.RoleUser, 0)
	adminTok, userTok := f.token(admin), f.token(user)

	rec := f.do(http.MethodPost, "/api/v1/admin/notifications", userTok, map[string]any{"title": "t", "body": "b"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/admin/notifications", adminTok, map[string]any{"title": "t"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/admin/notifications", adminTok, map[string]any{"user_id": user.ID, "title": "hi", "body": "for you"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	targeted := decode[models.Notification](t, rec)

	rec = f.do(http.MethodGet, "/api/v1/notifications", userTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[struct {
		Items []models.Notification `json:"items"`
	}](t, rec).Items
	require.Len(t, items, 1)
	assert.Equal(t, targeted.ID, items[0].ID)
	assert.False(t, items[0].Seen)

	rec = f.do(http.MethodPost, "/api/v1/notifications/"+targeted.ID+"/read", f.token(admin), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/notifications/"+targeted.ID+"/read", userTok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/notifications/read-all", userTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode[map[string]any](t, rec)["updated"])
}

func TestTokenForMissingUserIsConsistencyError(t *testing.T) {
	f := newAPI(t)
	ghost := &models.User{ID: "7f9c2b4e-0000-4000-8000-000000000001", Role: models.RoleUser}
	tok := f.token(ghost)

	session := f.createSession(tok)

	rec := f.do(http.MethodPost, "/api/v1/chat/sessions/"+session.ID+"/messages", tok, map[string]any{"content": "Hello"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", errorCode(t, rec))

	rec = f.do(http.MethodGet, "/api/v1/credits", tok, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestIDEchoedOrReplaced(t *testing.T) {
	f := newAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "client-req-42")
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	assert.Equal(t, "client-req-42", rec.Header().Get("X-Request-Id"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "forged value with spaces")
	rec = httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	got := rec.Header().Get("X-Request-Id")
	assert.NotEmpty(t, got)
	assert.NotEqual(t, "forged value with spaces", got)
}
