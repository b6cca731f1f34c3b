package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// maxQuestionBytes caps the request body; questions are short.
const maxQuestionBytes = 16 << 10

// chatRequest is the POST /chat body.
type chatRequest struct {
	Query string `json:"query"`
}

// handleChat answers one natural-language question about the float data.
// Response: {"insights": ..., "plotly_json": ..., "sql_query": ...}.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxQuestionBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	question := strings.TrimSpace(req.Query)
	if question == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "query must not be empty")
		return
	}

	answer, err := s.chat.Handle(r.Context(), question)
	if err != nil {
		slog.Error("chat failed", "question", question, "error", err)
		writeError(w, http.StatusInternalServerError, "chat_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, answer)
}
