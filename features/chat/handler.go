package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"scholaria/backend/internal/middleware"
	"scholaria/backend/internal/retrieval"
	"scholaria/backend/internal/thread"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Ask streams the answer as plain text. Deltas are flushed as they arrive;
// on a mid-stream failure the client keeps whatever partial text was already
// written and the error is only visible in the logs and the truncated body.
// An optional history array lets stateless clients supply the conversation
// context for this turn instead of relying on the stored thread.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query   string           `json:"query"`
		History []thread.Message `json:"history"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "query is required", http.StatusBadRequest)
		return
	}

	tenant := middleware.GetTenant(r.Context())

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	answer, err := h.service.Ask(r.Context(), tenant, req.Query, req.History, w)
	if err != nil {
		// Nothing streamed yet, a JSON error is still possible.
		slog.ErrorContext(r.Context(), "chat turn failed", "error", err, "tenant", tenant)
		h.writeError(r.Context(), w, "GENERATION_ERROR", "Failed to generate answer", http.StatusBadGateway)
		return
	}
	if answer.Err != nil {
		slog.WarnContext(r.Context(), "answer stream interrupted",
			"error", answer.Err, "tenant", tenant, "partial_len", len(answer.Text))
	}
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	threadID, msgs, err := h.service.History(r.Context(), middleware.GetTenant(r.Context()))
	if err != nil {
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}
	if msgs == nil {
		msgs = []thread.Message{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"data": map[string]interface{}{"thread_id": threadID, "messages": msgs},
		"meta": map[string]int{"count": len(msgs)},
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	threadID, err := h.service.Clear(r.Context(), middleware.GetTenant(r.Context()))
	if err != nil {
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"data": map[string]string{"thread_id": threadID},
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Search exposes bare retrieval. Unlike Ask it does not degrade; an embedding
// or index failure surfaces as an error so callers can tell "no matches"
// apart from "retrieval broken".
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string   `json:"query"`
		TopK      *int     `json:"top_k"`
		Threshold *float32 `json:"threshold"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "query is required", http.StatusBadRequest)
		return
	}

	tenant := middleware.GetTenant(r.Context())
	results, err := h.service.retriever.Search(r.Context(), tenant, req.Query, &retrieval.SearchOptions{
		TopK:      req.TopK,
		Threshold: req.Threshold,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "search failed", "error", err, "tenant", tenant)
		h.writeError(r.Context(), w, "RETRIEVAL_ERROR", "Search failed", http.StatusBadGateway)
		return
	}
	if results == nil {
		results = []retrieval.Result{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"data": results,
		"meta": map[string]int{"count": len(results)},
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
