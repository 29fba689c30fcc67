package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/rest/httpx"
	"github.com/zeromicro/go-zero/rest/pathvar"

	"copycat-api/internal/config"
	"copycat-api/internal/svc"
	"copycat-api/internal/types"
	"copycat-api/pkg/llm"
	"copycat-api/pkg/session"
)

const quizReply = "<think>France, so Paris</think>\n```json\n" +
	`{"actions":[{"elementId":"q1","action":"click","value":"Paris"},{"elementId":"submit-btn","action":"click","value":"Submit"}]}` +
	"\n```"

const pageBody = `{
	"url":"https://quiz.example.com/geo",
	"title":"Geography quiz",
	"domain":"quiz.example.com",
	"pageContent":"What is the capital of France?",
	"interactiveElements":[
		{"id":"q1","type":"clickable","tagName":"label","text":"Paris"},
		{"id":"country","type":"select","tagName":"select","options":[{"value":"fr","text":"France"}]}
	],
	"timestamp":1730366400000
}`

type stubLLM struct {
	mu        sync.Mutex
	reply     string
	chatErr   error
	verifyErr error
	models    []string
	calls     int
}

func (s *stubLLM) Chat(context.Context, *llm.ChatRequest) (*llm.ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.chatErr != nil {
		return nil, s.chatErr
	}
	return &llm.ChatResponse{
		ID:      "chatcmpl-handler",
		Model:   "llama-3.1-70b-versatile",
		Choices: []llm.Choice{{Message: llm.Message{Role: llm.RoleAssistant, Content: s.reply}}},
		Usage:   llm.Usage{PromptTokens: 50, CompletionTokens: 10, TotalTokens: 60},
	}, nil
}

func (s *stubLLM) ListModels(context.Context) ([]string, error) {
	if s.chatErr != nil {
		return nil, s.chatErr
	}
	return s.models, nil
}

func (s *stubLLM) VerifyKey(context.Context, string) error { return s.verifyErr }
func (s *stubLLM) GetConfig() *llm.Config {
	return &llm.Config{DefaultModel: "llama-3.1-70b-versatile"}
}
func (s *stubLLM) Close() error { return nil }

func TestMain(m *testing.M) {
	httpx.SetErrorHandlerCtx(ErrorHandler)
	os.Exit(m.Run())
}

func newTestServiceContext(t *testing.T, client *stubLLM) *svc.ServiceContext {
	t.Helper()
	c := config.Config{Env: "dev"}
	c.Session = config.SessionConf{TTL: 60, Store: "memory"}
	c.TTL = config.CacheTTL{Short: 10, Medium: 60, Long: 300}
	svcCtx, err := svc.NewServiceContext(c, svc.WithLLMClient(client))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svcCtx.Close() })
	return svcCtx
}

func newRequest(method, target, body, id string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	if id != "" {
		r = pathvar.WithVars(r, map[string]string{"id": id})
	}
	return r
}

func serve(h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestPlanHandler(t *testing.T) {
	client := &stubLLM{reply: quizReply}
	svcCtx := newTestServiceContext(t, client)

	w := serve(PlanHandler(svcCtx), newRequest(http.MethodPost, "/api/v1/sessions/tab-1/plan", pageBody, "tab-1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[types.PlanResponse](t, w)
	assert.Equal(t, "tab-1", resp.SessionID)
	assert.Equal(t, "model", resp.Source)
	assert.Equal(t, "fenced_block", resp.Method)
	assert.NotEmpty(t, resp.RunID)
	require.Len(t, resp.Actions, 1)
	assert.Equal(t, types.ActionItem{ElementID: "q1", Action: "click", Value: "Paris"}, resp.Actions[0])
	require.Len(t, resp.Dropped, 1)
	assert.Equal(t, "submit-btn", resp.Dropped[0].ElementID)
	assert.Equal(t, 60, resp.Usage.TotalTokens)

	w = serve(GetSessionHandler(svcCtx), newRequest(http.MethodGet, "/api/v1/sessions/tab-1", "", "tab-1"))
	require.Equal(t, http.StatusOK, w.Code)
	sess := decode[types.SessionResponse](t, w)
	assert.Equal(t, "tab-1", sess.ID)
	assert.Len(t, sess.Pending, 1)
	assert.False(t, sess.Done)
}

func TestPlanHandler_Throttled(t *testing.T) {
	client := &stubLLM{reply: quizReply}
	svcCtx := newTestServiceContext(t, client)
	h := PlanHandler(svcCtx)

	w := serve(h, newRequest(http.MethodPost, "/api/v1/sessions/tab-1/plan", pageBody, "tab-1"))
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(h, newRequest(http.MethodPost, "/api/v1/sessions/tab-1/plan", pageBody, "tab-1"))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "throttled", decode[types.ErrorResponse](t, w).Code)
	assert.Equal(t, 1, client.calls)

	w = serve(h, newRequest(http.MethodPost, "/api/v1/sessions/tab-2/plan", pageBody, "tab-2"))
	assert.Equal(t, http.StatusOK, w.Code, "other sessions are not throttled")
}

func TestPlanHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		client *stubLLM
		body   string
		status int
		code   string
	}{
		{
			name:   "missing url",
			client: &stubLLM{reply: quizReply},
			body:   `{"interactiveElements":[{"id":"q1"}]}`,
			status: http.StatusBadRequest,
			code:   "invalid_request",
		},
		{
			name:   "no elements",
			client: &stubLLM{reply: quizReply},
			body:   `{"url":"https://quiz.example.com"}`,
			status: http.StatusBadRequest,
			code:   "invalid_request",
		},
		{
			name:   "reply without a plan",
			client: &stubLLM{reply: "I cannot help with that."},
			body:   pageBody,
			status: http.StatusUnprocessableEntity,
			code:   "no_plan",
		},
		{
			name:   "every action filtered",
			client: &stubLLM{reply: `{"actions":[{"elementId":"submit","action":"click","value":"Submit"}]}`},
			body:   pageBody,
			status: http.StatusUnprocessableEntity,
			code:   "empty_plan",
		},
		{
			name:   "provider failure",
			client: &stubLLM{chatErr: errors.New("connection reset")},
			body:   pageBody,
			status: http.StatusBadGateway,
			code:   "upstream",
		},
		{
			name:   "provider timeout",
			client: &stubLLM{chatErr: context.DeadlineExceeded},
			body:   pageBody,
			status: http.StatusGatewayTimeout,
			code:   "timeout",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svcCtx := newTestServiceContext(t, tt.client)
			w := serve(PlanHandler(svcCtx), newRequest(http.MethodPost, "/api/v1/sessions/tab-1/plan", tt.body, "tab-1"))
			require.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decode[types.ErrorResponse](t, w).Code)
		})
	}
}

func TestPlanHandler_EmptyPlanReportsDropped(t *testing.T) {
	client := &stubLLM{reply: `{"actions":[{"elementId":"submit","action":"click","value":"Submit"}]}`}
	svcCtx := newTestServiceContext(t, client)

	w := serve(PlanHandler(svcCtx), newRequest(http.MethodPost, "/api/v1/sessions/tab-1/plan", pageBody, "tab-1"))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode[types.ErrorResponse](t, w)
	assert.NotEmpty(t, body.RunID)
	assert.Equal(t, "object_pattern", body.Method)
	require.Len(t, body.Dropped, 1)
	assert.Equal(t, "submit", body.Dropped[0].ElementID)
}

func TestIngestAndSessionLifecycle(t *testing.T) {
	svcCtx := newTestServiceContext(t, &stubLLM{})
	id := "tab-9"
	reply, err := json.Marshal(map[string]string{"response": `{"actions":[` +
		`{"elementId":"q1","action":"click","value":"Paris"},` +
		`{"elementId":"name","action":"type","value":"Ada"}]}`})
	require.NoError(t, err)

	w := serve(IngestHandler(svcCtx), newRequest(http.MethodPost, "/api/v1/sessions/tab-9/ingest", string(reply), id))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	plan := decode[types.PlanResponse](t, w)
	assert.Equal(t, "ingest", plan.Source)
	assert.Len(t, plan.Actions, 2)

	w = serve(PauseSessionHandler(svcCtx), newRequest(http.MethodPost, "/api/v1/sessions/tab-9/pause", "", id))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[types.SessionResponse](t, w).Paused)

	w = serve(ResumeSessionHandler(svcCtx), newRequest(http.MethodPost, "/api/v1/sessions/tab-9/resume", "", id))
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[types.SessionResponse](t, w).Paused)

	w = serve(AdvanceSessionHandler(svcCtx), newRequest(http.MethodPost, "/api/v1/sessions/tab-9/advance", "", id))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sess := decode[types.SessionResponse](t, w)
	assert.Equal(t, 1, sess.Cursor, "count defaults to one")
	require.Len(t, sess.Pending, 1)
	assert.Equal(t, "name", sess.Pending[0].ElementID)

	w = serve(AdvanceSessionHandler(svcCtx), newRequest(http.MethodPost, "/api/v1/sessions/tab-9/advance", `{"count":5}`, id))
	require.Equal(t, http.StatusOK, w.Code)
	sess = decode[types.SessionResponse](t, w)
	assert.Equal(t, 2, sess.Cursor)
	assert.True(t, sess.Done)

	w = serve(ClearSessionHandler(svcCtx), newRequest(http.MethodDelete, "/api/v1/sessions/tab-9", "", id))
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(GetSessionHandler(svcCtx), newRequest(http.MethodGet, "/api/v1/sessions/tab-9", "", id))
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[types.ErrorResponse](t, w).Code)
}

func TestIngestHandler_RequiresResponse(t *testing.T) {
	svcCtx := newTestServiceContext(t, &stubLLM{})
	w := serve(IngestHandler(svcCtx), newRequest(http.MethodPost, "/api/v1/sessions/tab-1/ingest", `{"response":"  "}`, "tab-1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(IngestHandler(svcCtx), newRequest(http.MethodPost, "/api/v1/sessions/tab-1/ingest", `{}`, "tab-1"))
	assert.Equal(t, http.StatusBadRequest, w.Code, "response field is required")
}

func TestParseHandler(t *testing.T) {
	svcCtx := newTestServiceContext(t, &stubLLM{})
	body, err := json.Marshal(map[string]string{"response": quizReply})
	require.NoError(t, err)

	w := serve(ParseHandler(svcCtx), newRequest(http.MethodPost, "/api/v1/parse", string(body), ""))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[types.ParseResponse](t, w)
	assert.Equal(t, "fenced_block", resp.Method)
	assert.Len(t, resp.Actions, 1)
	assert.Len(t, resp.Dropped, 1)

	w = serve(ParseHandler(svcCtx), newRequest(http.MethodPost, "/api/v1/parse", `{"response":"nothing here"}`, ""))
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[types.ParseResponse](t, w)
	assert.Equal(t, "none", resp.Method)
	assert.Empty(t, resp.Actions)
}

func TestListRunsHandler_WithoutPersistence(t *testing.T) {
	svcCtx := newTestServiceContext(t, &stubLLM{})
	w := serve(ListRunsHandler(svcCtx), newRequest(http.MethodGet, "/api/v1/sessions/tab-1/runs", "", "tab-1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[types.RunsResponse](t, w).Runs)
}

func TestModelHandlers(t *testing.T) {
	client := &stubLLM{models: []string{"gemma2-9b-it", "llama-3.1-70b-versatile"}}
	svcCtx := newTestServiceContext(t, client)

	w := serve(ListModelsHandler(svcCtx), newRequest(http.MethodGet, "/api/v1/models", "", ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, client.models, decode[types.ModelsResponse](t, w).Models)

	w = serve(VerifyKeyHandler(svcCtx), newRequest(http.MethodPost, "/api/v1/models/verify", `{}`, ""))
	require.Equal(t, http.StatusOK, w.Code)
	verify := decode[types.VerifyResponse](t, w)
	assert.True(t, verify.Valid)
	assert.Equal(t, "llama-3.1-70b-versatile", verify.Model)

	client.verifyErr = fmt.Errorf("llm: verify key: %w: 401 Invalid API Key", llm.ErrInvalidKey)
	w = serve(VerifyKeyHandler(svcCtx), newRequest(http.MethodPost, "/api/v1/models/verify", `{"model":"gemma2-9b-it"}`, ""))
	require.Equal(t, http.StatusOK, w.Code)
	verify = decode[types.VerifyResponse](t, w)
	assert.False(t, verify.Valid)
	assert.Equal(t, "gemma2-9b-it", verify.Model)
	assert.Contains(t, verify.Error, "Invalid API Key")

	client.verifyErr = errors.New("dial tcp: connection refused")
	w = serve(VerifyKeyHandler(svcCtx), newRequest(http.MethodPost, "/api/v1/models/verify", `{}`, ""))
	assert.Equal(t, http.StatusBadGateway, w.Code)

	client.chatErr = errors.New("dial tcp: connection refused")
	w = serve(ListModelsHandler(svcCtx), newRequest(http.MethodGet, "/api/v1/models", "", ""))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestErrorHandler_Internal(t *testing.T) {
	status, body := ErrorHandler(context.Background(), errors.New("disk on fire"))
	assert.Equal(t, http.StatusInternalServerError, status)
	resp, ok := body.(*types.ErrorResponse)
	require.True(t, ok)
	assert.Equal(t, "internal error", resp.Message)

	status, _ = ErrorHandler(context.Background(), badRequest(errors.New(`field "url" is not set`)))
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = ErrorHandler(context.Background(), fmt.Errorf("%w: tab-1", session.ErrConflict))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", body.(*types.ErrorResponse).Code)
}
