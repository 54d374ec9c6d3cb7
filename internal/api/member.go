package api

import (
	"net/http"

	"github.com/CrimsonX77/RedVerse/internal/session"
)

type validateRequest struct {
	MemberID string `json:"member_id"`
	ThreadID string `json:"thread_id,omitempty"`
}

type validateResponse struct {
	Valid    bool   `json:"valid"`
	MemberID string `json:"member_id,omitempty"`
	ThreadID string `json:"thread_id,omitempty"`
	Tier     int    `json:"access_tier,omitempty"`
	TierName string `json:"tier_name,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) handleValidateMember(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}
	if req.MemberID == "" && req.ThreadID == "" {
		badRequest(w, "member_id or thread_id is required")
		return
	}

	sc, err := s.resolver.Resolve(r.Context(), session.Claims{MemberID: req.MemberID, ThreadID: req.ThreadID})
	if session.IsUnresolvedIdentity(err) {
		writeJSON(w, http.StatusNotFound, validateResponse{Valid: false, Error: "member not found"})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, validateResponse{
		Valid:    true,
		MemberID: sc.MemberID,
		ThreadID: sc.ThreadID,
		Tier:     sc.Tier,
		TierName: sc.TierName,
	})
}
