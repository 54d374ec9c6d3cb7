package api

import (
	"net/http"

	"github.com/CrimsonX77/RedVerse/internal/ledger"
)

// memoryRequest is the shared request shape of the /api/memory endpoints.
// Tier arrives with the request because the caller's session layer already
// resolved it; thread_id selects the ledger partition.
type memoryRequest struct {
	ThreadID string `json:"thread_id"`
	Tier     int    `json:"access_tier"`
	Limit    int    `json:"limit,omitempty"`

	// store-only fields
	Role     string               `json:"role,omitempty"`
	Content  string               `json:"content,omitempty"`
	Source   string               `json:"source,omitempty"`
	Emotion  *ledger.EmotionState `json:"emotion_state,omitempty"`
	Metadata map[string]any       `json:"metadata,omitempty"`
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	var req memoryRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	if req.ThreadID == "" {
		badRequest(w, "thread_id is required")
		return
	}
	if req.Role == "" {
		badRequest(w, "role is required")
		return
	}
	if req.Content == "" {
		badRequest(w, "content is required")
		return
	}
	source := req.Source
	if source == "" {
		source = string(ledger.SourceEDrive)
	}

	ev := ledger.Event{
		Role:     ledger.Role(req.Role),
		Source:   ledger.Source(source),
		Content:  req.Content,
		Emotion:  req.Emotion,
		Metadata: req.Metadata,
	}
	stored, err := s.engine.StoreEvent(r.Context(), req.ThreadID, req.Tier, ev)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"event_id": stored.ID,
	})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req memoryRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	if req.ThreadID == "" {
		badRequest(w, "thread_id is required")
		return
	}
	res, err := s.engine.LoadContext(r.Context(), req.ThreadID, req.Tier, req.Limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleConversationHistory(w http.ResponseWriter, r *http.Request) {
	var req memoryRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	if req.ThreadID == "" {
		badRequest(w, "thread_id is required")
		return
	}
	turns, err := s.engine.ConversationHistory(r.Context(), req.ThreadID, req.Tier, req.Limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"history": turns,
		"count":   len(turns),
	})
}

func (s *Server) handleCrossSourceSummary(w http.ResponseWriter, r *http.Request) {
	var req memoryRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	if req.ThreadID == "" {
		badRequest(w, "thread_id is required")
		return
	}
	sum, err := s.engine.CrossSourceSummary(r.Context(), req.ThreadID, req.Tier, req.Limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleEmotions(w http.ResponseWriter, r *http.Request) {
	var req memoryRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	if req.ThreadID == "" {
		badRequest(w, "thread_id is required")
		return
	}
	traj, err := s.engine.EmotionTrajectory(r.Context(), req.ThreadID, req.Tier, req.Limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, traj)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var req memoryRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	if req.ThreadID == "" {
		badRequest(w, "thread_id is required")
		return
	}
	st, err := s.engine.Stats(r.Context(), req.ThreadID, req.Tier)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
