package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/marathonqa/internal/core/domain"
	"github.com/vncsmyrnk/marathonqa/internal/core/ports"
)

type QuestionHandler struct {
	service ports.QuestionService
	log     logrus.FieldLogger
}

func NewQuestionHandler(service ports.QuestionService, log logrus.FieldLogger) *QuestionHandler {
	return &QuestionHandler{
		service: service,
		log:     log,
	}
}

type createQuestionRequest struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags"`
	AIGenerated bool     `json:"is_ai_generated"`
}

func (h *QuestionHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	var req createQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	question, err := h.service.Create(r.Context(), ports.CreateQuestionInput{
		AuthorID:    userID,
		Title:       req.Title,
		Content:     req.Content,
		Tags:        req.Tags,
		AIGenerated: req.AIGenerated,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, question)
}

func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			http.Error(w, "invalid page", http.StatusBadRequest)
			return
		}
		page = n
	}

	questions, err := h.service.ListQuestions(r.Context(), ports.ListQuestionsInput{
		Page: page,
		Tag:  r.URL.Query().Get("tag"),
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if questions == nil {
		questions = []*domain.Question{}
	}

	writeJSON(w, http.StatusOK, questions)
}

func (h *QuestionHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	question, err := h.service.GetQuestion(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, question)
}

// updateQuestionRequest leaves out the fields the client does not send.
type updateQuestionRequest struct {
	Title   *string  `json:"title"`
	Content *string  `json:"content"`
	Tags    []string `json:"tags"`
}

func (h *QuestionHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
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

	var req updateQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	question, err := h.service.Update(r.Context(), ports.UpdateQuestionInput{
		ID:          id,
		RequesterID: userID,
		Title:       req.Title,
		Content:     req.Content,
		Tags:        req.Tags,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, question)
}

func (h *QuestionHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
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
