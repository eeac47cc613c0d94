package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/samarth-labs/samarth-engine/pkg/apperrors"
	"github.com/samarth-labs/samarth-engine/pkg/models"
)

// QuestionAnswerer is the service dependency of the query handler.
type QuestionAnswerer interface {
	AnswerQuestion(ctx context.Context, question string) (*models.Answer, error)
}

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Question string `json:"question"`
}

// QueryResult is the success payload of the envelope.
type QueryResult struct {
	AnswerText string                   `json:"answer_text"`
	Chart      *models.ResultTable      `json:"chart,omitempty"` // chart-ready summary; image rendering is the front end's job
	Table      *models.ResultTable      `json:"table,omitempty"`
	Provenance *models.ProvenanceRecord `json:"provenance,omitempty"`
}

// QueryEnvelope is the wire contract of the question endpoint.
type QueryEnvelope struct {
	OK     bool         `json:"ok"`
	Result *QueryResult `json:"result,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// QueryHandler serves the single question-answering endpoint.
type QueryHandler struct {
	service QuestionAnswerer
	logger  *zap.Logger
}

// NewQueryHandler creates a QueryHandler. Pass nil logger to disable logging.
func NewQueryHandler(service QuestionAnswerer, logger *zap.Logger) *QueryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryHandler{service: service, logger: logger}
}

// RegisterRoutes registers the query endpoint on the router.
func (h *QueryHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/query", h.Query)
}

// Query handles POST /api/query. Interpretation failures (unknown subject,
// unresolvable schema role, missing entities) come back as ok:false
// envelopes with the user-facing message from the engine's error taxonomy,
// never as bare 500s.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		_ = WriteJSON(w, http.StatusBadRequest, QueryEnvelope{
			OK:    false,
			Error: "please provide a question, e.g. {\"question\": \"list states\"}",
		})
		return
	}

	answer, err := h.service.AnswerQuestion(r.Context(), req.Question)
	if err != nil {
		status := http.StatusInternalServerError
		msg := "internal error while answering the question"
		switch {
		case errors.Is(err, apperrors.ErrDatasetNotFound),
			errors.Is(err, apperrors.ErrSchemaRoleUnresolved),
			errors.Is(err, apperrors.ErrPlanning):
			status = http.StatusOK
			msg = err.Error()
		default:
			h.logger.Error("Question answering failed", zap.Error(err))
		}
		_ = WriteJSON(w, status, QueryEnvelope{OK: false, Error: msg})
		return
	}

	_ = WriteJSON(w, http.StatusOK, QueryEnvelope{
		OK: true,
		Result: &QueryResult{
			AnswerText: answer.Text,
			Chart:      answer.Chart,
			Table:      answer.Result,
			Provenance: &answer.Provenance,
		},
	})
}
