package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondbrain/agent/internal/adapter/gateway/llm"
	"secondbrain/agent/internal/app/state"
	"secondbrain/agent/internal/application/agent"
	"secondbrain/agent/internal/application/pipeline"
	noterepo "secondbrain/agent/internal/infra/repository/note"
)

// recordingSender captures outbound sends and can be scripted to fail.
type recordingSender struct {
	sent []string
	errs int
}

func (s *recordingSender) Send(ctx context.Context, chatID int64, text, parseMode string) error {
	if s.errs > 0 {
		s.errs--
		return errors.New("send failed")
	}
	s.sent = append(s.sent, text)
	return nil
}

type fixture struct {
	handler *Handler
	gateway *llm.MockGateway
	sender  *recordingSender
	repo    *noterepo.FileRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := noterepo.NewFileRepository(afero.NewMemMapFs(), "data/notes")
	require.NoError(t, err)

	gw := llm.NewMockGateway()
	st := state.New()
	p := pipeline.New(
		st,
		agent.NewClassifier(gw, "m"),
		agent.NewExtractor(gw, "m"),
		agent.NewSmallTalk(gw, "m"),
		pipeline.NewDispatcher(repo, st),
	)
	sender := &recordingSender{}
	return &fixture{
		handler: NewHandler(p, sender, repo),
		gateway: gw,
		sender:  sender,
		repo:    repo,
	}
}

func postUpdate(t *testing.T, mux http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_SaveMessage(t *testing.T) {
	f := newFixture(t)
	f.gateway.Queue(
		`{"relevant": true, "reason": "save"}`,
		`{"intent": "save", "title": "Buy milk", "tags": ["shopping"], "confirmation_needed": false}`,
	)

	rec := postUpdate(t, f.handler.Routes(), `{
		"update_id": 1,
		"message": {"message_id": 10, "chat": {"id": 42, "type": "private"}, "text": "Save this note: Buy milk"}
	}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, f.sender.sent, 1)
	assert.Contains(t, f.sender.sent[0], "Note saved successfully")

	notes, err := f.repo.Search(context.Background(), "", nil)
	require.NoError(t, err)
	require.Len(t, notes, 1)
}

func TestWebhook_NoMessage(t *testing.T) {
	f := newFixture(t)

	rec := postUpdate(t, f.handler.Routes(), `{"update_id": 1}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.sender.sent)
}

func TestWebhook_NoText(t *testing.T) {
	f := newFixture(t)

	rec := postUpdate(t, f.handler.Routes(), `{
		"update_id": 1,
		"message": {"message_id": 10, "chat": {"id": 42, "type": "private"}}
	}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, helpReply, f.sender.sent[0])
}

func TestWebhook_BadBody(t *testing.T) {
	f := newFixture(t)

	rec := postUpdate(t, f.handler.Routes(), `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook_SendFailureFallsBackToApology(t *testing.T) {
	f := newFixture(t)
	f.gateway.Queue(
		`{"relevant": false, "reason": "small talk"}`,
		`Hello!`,
	)
	f.sender.errs = 1 // first send fails, apology succeeds

	rec := postUpdate(t, f.handler.Routes(), `{
		"update_id": 1,
		"message": {"message_id": 10, "chat": {"id": 42, "type": "private"}, "text": "hi"}
	}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, f.sender.sent, 1)
	assert.Contains(t, f.sender.sent[0], "I apologize")
}

func TestWebhook_TotalDeliveryFailureIs500(t *testing.T) {
	f := newFixture(t)
	f.gateway.Queue(
		`{"relevant": false, "reason": "small talk"}`,
		`Hello!`,
	)
	f.sender.errs = 2 // reply and apology both fail

	rec := postUpdate(t, f.handler.Routes(), `{
		"update_id": 1,
		"message": {"message_id": 10, "chat": {"id": 42, "type": "private"}, "text": "hi"}
	}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListNotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.repo.Save(ctx, fmt.Sprintf("note-%d", i), "content", []string{"work"}, nil)
		require.NoError(t, err)
	}
	_, err := f.repo.Save(ctx, "other", "content", []string{"home"}, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/notes?tags=work", nil)
	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status string `json:"status"`
		Notes  []struct {
			Title string `json:"title"`
		} `json:"notes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Len(t, body.Notes, 3)
}

func TestGetNote(t *testing.T) {
	f := newFixture(t)
	saved, err := f.repo.Save(context.Background(), "t", "c", nil, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/notes/"+saved.ID, nil)
	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), saved.ID)

	req = httptest.NewRequest(http.MethodGet, "/notes/01MISSING", nil)
	rec = httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
