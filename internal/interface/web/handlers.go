// Package web exposes the HTTP surface: the Telegram webhook and a
// small read-only REST view over the note store.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"secondbrain/agent/internal/adapter/gateway/telegram"
	"secondbrain/agent/internal/app"
	"secondbrain/agent/internal/application/pipeline"
	"secondbrain/agent/internal/domain/note"
)

const helpReply = "I can help you manage your notes and information. Please send me a text message!"

// update mirrors the slice of the Telegram update payload the agent
// consumes.
type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		MessageID int64 `json:"message_id"`
		Chat      struct {
			ID   int64  `json:"id"`
			Type string `json:"type"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

// Handler owns the HTTP endpoints.
type Handler struct {
	pipeline *pipeline.Pipeline
	sender   telegram.Sender
	notes    note.Repository
	logger   app.Logger
}

// NewHandler wires the endpoints to their collaborators.
func NewHandler(p *pipeline.Pipeline, sender telegram.Sender, notes note.Repository) *Handler {
	return &Handler{
		pipeline: p,
		sender:   sender,
		notes:    notes,
		logger:   app.GetLogger(),
	}
}

// Routes builds the mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", h.handleWebhook)
	mux.HandleFunc("GET /notes", h.handleListNotes)
	mux.HandleFunc("GET /notes/{id}", h.handleGetNote)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	return mux
}

// handleWebhook processes one inbound Telegram update. The contract
// with the transport is: given (chat ID, text), produce zero or more
// outbound replies. The user always receives some reply for a text
// message; delivery failure of even the apology surfaces as a 500 so
// Telegram retries the update.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var u update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		h.logger.Warn("webhook: undecodable update: %v", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if u.Message == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	ctx := r.Context()
	chatID := u.Message.Chat.ID

	if u.Message.Text == "" {
		if err := h.sender.Send(ctx, chatID, helpReply, ""); err != nil {
			h.logger.Error("webhook: help reply to chat %d failed: %v", chatID, err)
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	reply := h.pipeline.HandleMessage(ctx, chatID, u.Message.Text)
	if err := h.sender.Send(ctx, chatID, reply, ""); err != nil {
		h.logger.Error("webhook: reply to chat %d failed: %v", chatID, err)
		if err := h.sendApology(ctx, chatID); err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) sendApology(ctx context.Context, chatID int64) error {
	err := h.sender.Send(ctx, chatID,
		"I apologize, but I'm having trouble processing your message right now. Please try again later.", "")
	if err != nil {
		h.logger.Error("webhook: apology to chat %d failed: %v", chatID, err)
	}
	return err
}

func (h *Handler) handleListNotes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	var tags []string
	if raw := r.URL.Query().Get("tags"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	notes, err := h.notes.Search(r.Context(), query, tags)
	if err != nil {
		h.logger.Error("list notes: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "detail": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "notes": notes})
}

func (h *Handler) handleGetNote(w http.ResponseWriter, r *http.Request) {
	n, err := h.notes.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logger.Error("get note: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "detail": "internal error"})
		return
	}
	if n == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "error", "detail": "Note not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "note": n})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
