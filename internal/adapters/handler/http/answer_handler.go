package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
	"github.com/vncsmyrnk/marathonqa/internal/core/ports"
)

type AnswerHandler struct {
	service ports.AnswerService
	log     logrus.FieldLogger
}

func NewAnswerHandler(service ports.AnswerService, log logrus.FieldLogger) *AnswerHandler {
	return &AnswerHandler{
		service: service,
		log:     log,
	}
}

type createAnswerRequest struct {
	Content     string `json:"content"`
	AIGenerated bool   `json:"is_ai_generated"`
}

func (h *AnswerHandler) CreateAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	questionID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	var req createAnswerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	answer, err := h.service.Create(r.Context(), ports.CreateAnswerInput{
		QuestionID:  questionID,
		AuthorID:    userID,
		Content:     req.Content,
		AIGenerated: req.AIGenerated,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, answer)
}

func (h *AnswerHandler) ListAnswers(w http.ResponseWriter, r *http.Request) {
	questionID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	answers, err := h.service.ListByQuestion(r.Context(), questionID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if answers == nil {
		answers = []*domain.Answer{}
	}

	writeJSON(w, http.StatusOK, answers)
}

type updateAnswerRequest struct {
	Content string `json:"content"`
}

func (h *AnswerHandler) UpdateAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	var req updateAnswerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	answer, err := h.service.Update(r.Context(), ports.UpdateAnswerInput{
		ID:          id,
		RequesterID: userID,
		Content:     req.Content,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

func (h *AnswerHandler) AcceptAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	answer, err := h.service.Accept(r.Context(), id, userID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

func (h *AnswerHandler) DeleteAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	if err := h.service.Delete(r.Context(), id, userID); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
