package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
	"github.com/vncsmyrnk/marathonqa/internal/core/ports"
)

type VoteHandler struct {
	service ports.VoteService
	log     logrus.FieldLogger
}

func NewVoteHandler(service ports.VoteService, log logrus.FieldLogger) *VoteHandler {
	return &VoteHandler{
		service: service,
		log:     log,
	}
}

// castVoteRequest takes the vote either as a signed value or as a vote type.
type castVoteRequest struct {
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	Value      *int   `json:"value"`
	VoteType   string `json:"vote_type"`
}

func (req castVoteRequest) voteValue() (domain.VoteValue, error) {
	if req.VoteType != "" {
		return domain.ParseVoteType(req.VoteType)
	}
	if req.Value == nil {
		return domain.NoVote, domain.ErrInvalidVoteValue
	}
	v := domain.VoteValue(*req.Value)
	if int(v) != *req.Value || !v.Valid() {
		return domain.NoVote, domain.ErrInvalidVoteValue
	}
	return v, nil
}

type voteResponse struct {
	domain.TargetRef
	ports.VoteState
}

func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	var req castVoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	target, err := parseTarget(req.TargetType, req.TargetID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	value, err := req.voteValue()
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	state, err := h.service.CastVote(r.Context(), ports.CastVoteInput{
		UserID:     userID,
		TargetType: target.Type,
		TargetID:   target.ID,
		Value:      value,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, voteResponse{TargetRef: target, VoteState: *state})
}

func (h *VoteHandler) GetVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	target, err := parseTarget(chi.URLParam(r, "targetType"), chi.URLParam(r, "targetID"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	state, err := h.service.GetVote(r.Context(), userID, target)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, voteResponse{TargetRef: target, VoteState: *state})
}

func parseTarget(targetType, targetID string) (domain.TargetRef, error) {
	t, err := domain.ParseTargetType(targetType)
	if err != nil {
		return domain.TargetRef{}, err
	}
	id, err := parseID(targetID)
	if err != nil {
		return domain.TargetRef{}, err
	}
	return domain.TargetRef{Type: t, ID: id}, nil
}

var errInvalidID = fmt.Errorf("%w: malformed id", domain.ErrInvalidInput)

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errInvalidID
	}
	return id, nil
}
