package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyai/assistant-platform/internal/llm"
	"github.com/pyai/assistant-platform/internal/middleware"
	"github.com/pyai/assistant-platform/internal/model"
	natsclient "github.com/pyai/assistant-platform/internal/nats"
	"github.com/pyai/assistant-platform/internal/service"
	"github.com/pyai/assistant-platform/internal/store"
	"github.com/pyai/assistant-platform/pkg/logger"
)

const testJWTSecret = "test-secret"

// fakeClient is a canned llm.Client for handler tests.
type fakeClient struct {
	reply string
	err   error
}

func (f *fakeClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply, Model: req.Model}, nil
}

func (f *fakeClient) Name() string     { return "fake" }
func (f *fakeClient) Models() []string { return []string{"fake-model"} }

func newTestRouter(t *testing.T, client llm.Client, apiKey string) http.Handler {
	t.Helper()
	log, err := logger.New("error")
	require.NoError(t, err)

	convSvc := service.NewConversationService(store.NewSessionManager(), natsclient.Disabled{}, log)
	msgSvc := service.NewMessageService(convSvc, client, service.CompletionParams{
		Provider:     llm.ProviderGroq,
		APIKey:       apiKey,
		Model:        "llama-3.3-70b-versatile",
		Temperature:  0.5,
		MaxTokens:    1024,
		TopP:         1.0,
		SystemPrompt: "you are a helpful assistant.",
	}, log)

	conversationHandler := NewConversationHandler(convSvc, log)
	messageHandler := NewMessageHandler(msgSvc, convSvc, log)
	exportHandler := NewExportHandler(convSvc, log)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(testJWTSecret))

		r.Delete("/session", conversationHandler.ResetSession)
		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", conversationHandler.Create)
			r.Get("/", conversationHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversationHandler.Get)
				r.Post("/activate", conversationHandler.Activate)
				r.Get("/messages", messageHandler.List)
				r.Post("/messages", messageHandler.Send)
				r.Get("/export", exportHandler.Export)
			})
		})
	})
	return r
}

func signToken(t *testing.T, sessionID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sessionID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func doRequest(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createConversation(t *testing.T, router http.Handler, token string) string {
	t.Helper()
	rec := doRequest(t, router, http.MethodPost, "/api/v1/conversations", token, nil)
	require.Contains(t, []int{http.StatusCreated, http.StatusOK}, rec.Code)

	var resp model.CreateConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Conversation.ID
}

func TestAuth_Required(t *testing.T) {
	router := newTestRouter(t, &fakeClient{}, "gsk_test")

	rec := doRequest(t, router, http.MethodPost, "/api/v1/conversations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/v1/conversations", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestConversations_CreateAndReuse(t *testing.T) {
	router := newTestRouter(t, &fakeClient{}, "gsk_test")
	token := signToken(t, "session-1")

	rec := doRequest(t, router, http.MethodPost, "/api/v1/conversations", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var first model.CreateConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, model.DefaultTitle, first.Conversation.Title)
	assert.False(t, first.Reused)

	// A second create without a message reuses the blank conversation.
	rec = doRequest(t, router, http.MethodPost, "/api/v1/conversations", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var second model.CreateConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.True(t, second.Reused)
	assert.Equal(t, first.Conversation.ID, second.Conversation.ID)
}

func TestConversations_Activate(t *testing.T) {
	router := newTestRouter(t, &fakeClient{reply: "hello"}, "gsk_test")
	token := signToken(t, "session-1")
	id := createConversation(t, router, token)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/conversations/"+id+"/activate", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// An unknown id is a loud failure: it means client and store have
	// desynchronized.
	rec = doRequest(t, router, http.MethodPost, "/api/v1/conversations/20990101_000000/activate", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/v1/conversations/not-an-id/activate", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMessages_SendAndList(t *testing.T) {
	router := newTestRouter(t, &fakeClient{reply: "hello"}, "gsk_test")
	token := signToken(t, "session-1")
	id := createConversation(t, router, token)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/conversations/"+id+"/messages", token,
		model.SendMessageRequest{Content: "hi"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var sendResp model.SendMessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sendResp))
	assert.Equal(t, "hi", sendResp.UserMessage.Content)
	require.NotNil(t, sendResp.AssistantMessage)
	assert.Equal(t, "hello", sendResp.AssistantMessage.Content)
	assert.Equal(t, "hi", sendResp.Title)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/conversations/"+id+"/messages", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listResp model.ListMessagesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	assert.Equal(t, 2, listResp.Total)
}

func TestMessages_Send_BadCredentialWarns(t *testing.T) {
	router := newTestRouter(t, &fakeClient{reply: "never"}, "bad-key")
	token := signToken(t, "session-1")
	id := createConversation(t, router, token)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/conversations/"+id+"/messages", token,
		model.SendMessageRequest{Content: "hi"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "warning")

	// The store is left entirely unchanged.
	rec = doRequest(t, router, http.MethodGet, "/api/v1/conversations/"+id+"/messages", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listResp model.ListMessagesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	assert.Equal(t, 0, listResp.Total)
}

func TestMessages_Send_CompletionFailure(t *testing.T) {
	router := newTestRouter(t, &fakeClient{err: assert.AnError}, "gsk_test")
	token := signToken(t, "session-1")
	id := createConversation(t, router, token)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/conversations/"+id+"/messages", token,
		model.SendMessageRequest{Content: "hi"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	// The user message dangles without an assistant reply.
	rec = doRequest(t, router, http.MethodGet, "/api/v1/conversations/"+id+"/messages", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listResp model.ListMessagesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	require.Equal(t, 1, listResp.Total)
	assert.Equal(t, model.RoleUser, listResp.Messages[0].Role)
}

func TestConversations_ListAndSearch(t *testing.T) {
	router := newTestRouter(t, &fakeClient{reply: "a dry one"}, "gsk_test")
	token := signToken(t, "session-1")
	id := createConversation(t, router, token)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/conversations/"+id+"/messages", token,
		model.SendMessageRequest{Content: "Tell me a joke"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/conversations", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listResp model.ListConversationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	require.Len(t, listResp.Categories, 1)
	assert.Equal(t, model.CategoryToday, listResp.Categories[0].Label)
	assert.Equal(t, id, listResp.ActiveID)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/conversations?q=joke", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var searchResp model.SearchConversationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &searchResp))
	require.Len(t, searchResp.Results, 1)
	assert.Equal(t, id, searchResp.Results[0].ID)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/conversations?q=xyz-not-present", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &searchResp))
	assert.Empty(t, searchResp.Results)
}

func TestExport_Download(t *testing.T) {
	router := newTestRouter(t, &fakeClient{reply: "hello"}, "gsk_test")
	token := signToken(t, "session-1")
	id := createConversation(t, router, token)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/conversations/"+id+"/messages", token,
		model.SendMessageRequest{Content: "hi"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/conversations/"+id+"/export", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="chat_`+id+`.txt"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "You: hi\n\nAssistant: hello\n\n", rec.Body.String())

	rec = doRequest(t, router, http.MethodGet, "/api/v1/conversations/"+id+"/export?format=json", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var records []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "user", records[0]["role"])
	assert.Equal(t, "assistant", records[1]["role"])

	rec = doRequest(t, router, http.MethodGet, "/api/v1/conversations/"+id+"/export?format=xml", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSession_Reset(t *testing.T) {
	router := newTestRouter(t, &fakeClient{reply: "hello"}, "gsk_test")
	token := signToken(t, "session-1")
	id := createConversation(t, router, token)

	rec := doRequest(t, router, http.MethodDelete, "/api/v1/session", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/conversations/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessions_Isolated(t *testing.T) {
	router := newTestRouter(t, &fakeClient{reply: "hello"}, "gsk_test")
	tokenA := signToken(t, "session-a")
	tokenB := signToken(t, "session-b")

	id := createConversation(t, router, tokenA)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/conversations/"+id, tokenB, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
