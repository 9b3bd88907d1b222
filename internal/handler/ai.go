package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/zingerhq/zinger/internal/ai"
	"github.com/zingerhq/zinger/internal/model"
)

type AIHandler struct {
	client *ai.Client
	logger *slog.Logger
}

func NewAIHandler(client *ai.Client, logger *slog.Logger) *AIHandler {
	return &AIHandler{client: client, logger: logger}
}

func (h *AIHandler) available(w http.ResponseWriter) bool {
	if h.client == nil || !h.client.Configured() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "AI features are not configured"})
		return false
	}
	return true
}

type curateRequest struct {
	Subtopic string `json:"subtopic"`
}

// CurateResources handles POST /api/resources/curate.
func (h *AIHandler) CurateResources(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	var req curateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Subtopic = strings.TrimSpace(req.Subtopic)
	if req.Subtopic == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "subtopic is required"})
		return
	}

	resources, err := h.client.CurateResources(r.Context(), req.Subtopic)
	if err != nil {
		h.logger.Error("curate resources", "subtopic", req.Subtopic, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "resource curation failed"})
		return
	}
	if resources == nil {
		resources = []model.Resource{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"resources": resources})
}

type tipsRequest struct {
	Topic    string `json:"topic"`
	Struggle string `json:"struggle"`
}

// StudyTips handles POST /api/tips.
func (h *AIHandler) StudyTips(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	var req tipsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "topic is required"})
		return
	}

	tips, err := h.client.StudyTips(r.Context(), req.Topic, req.Struggle)
	if err != nil {
		h.logger.Error("study tips", "topic", req.Topic, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "tip generation failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"tips": tips})
}

type chatRequest struct {
	Question string `json:"question"`
}

// Chat handles POST /api/chat.
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	answer, err := h.client.Chat(r.Context(), req.Question)
	if err != nil {
		h.logger.Error("chat", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "chat failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

// Quote handles GET /api/quote.
func (h *AIHandler) Quote(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	quote, err := h.client.MotivationalQuote(r.Context())
	if err != nil {
		h.logger.Error("motivational quote", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "quote generation failed"})
		return
	}
	writeJSON(w, http.StatusOK, quote)
}
