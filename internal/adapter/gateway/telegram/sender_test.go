package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Send(t *testing.T) {
	var gotPath string
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	c := NewClient("TOKEN", WithAPIBase(srv.URL))
	require.NoError(t, c.Send(context.Background(), 42, "hello", ""))

	assert.Equal(t, "/botTOKEN/sendMessage", gotPath)
	assert.Equal(t, float64(42), gotPayload["chat_id"])
	assert.Equal(t, "hello", gotPayload["text"])
	_, hasParseMode := gotPayload["parse_mode"]
	assert.False(t, hasParseMode, "plain sends must omit parse_mode")
}

func TestClient_SendMarkdownEscapes(t *testing.T) {
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	c := NewClient("TOKEN", WithAPIBase(srv.URL))
	require.NoError(t, c.Send(context.Background(), 1, "note #3 (updated)", ParseModeMarkdownV2))

	assert.Equal(t, `note \#3 \(updated\)`, gotPayload["text"])
	assert.Equal(t, ParseModeMarkdownV2, gotPayload["parse_mode"])
}

func TestClient_SendRetriesPlainOnRejection(t *testing.T) {
	var payloads []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		payloads = append(payloads, p)
		if _, formatted := p["parse_mode"]; formatted {
			w.Write([]byte(`{"ok": false, "description": "can't parse entities"}`))
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	c := NewClient("TOKEN", WithAPIBase(srv.URL))
	require.NoError(t, c.Send(context.Background(), 1, "hi", ParseModeMarkdownV2))

	require.Len(t, payloads, 2)
	_, hasParseMode := payloads[1]["parse_mode"]
	assert.False(t, hasParseMode, "retry must drop formatting")
}

func TestClient_SendExhaustion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": false, "description": "chat not found"}`))
	}))
	defer srv.Close()

	c := NewClient("TOKEN", WithAPIBase(srv.URL))
	err := c.Send(context.Background(), 1, "hi", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestClient_Webhook(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	c := NewClient("TOKEN", WithAPIBase(srv.URL))
	require.NoError(t, c.SetWebhook(context.Background(), "https://example.com/webhook"))
	require.NoError(t, c.DeleteWebhook(context.Background()))

	assert.Equal(t, []string{"/botTOKEN/setWebhook", "/botTOKEN/deleteWebhook"}, paths)
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"No specials", "hello world", "hello world"},
		{"Specials", "a_b*c[d", `a\_b\*c\[d`},
		{"Dots and bangs", "done. really!", `done\. really\!`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeMarkdown(tt.in))
		})
	}
}

func TestWebhookURL(t *testing.T) {
	u, err := WebhookURL("https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/webhook", u)

	u, err = WebhookURL("https://example.com/base/")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/base/webhook", u)
}
