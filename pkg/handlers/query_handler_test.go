package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samarth-labs/samarth-engine/pkg/apperrors"
	"github.com/samarth-labs/samarth-engine/pkg/models"
)

type stubAnswerer struct {
	answer *models.Answer
	err    error
}

func (s *stubAnswerer) AnswerQuestion(_ context.Context, _ string) (*models.Answer, error) {
	return s.answer, s.err
}

func postQuery(t *testing.T, service QuestionAnswerer, body string) (*httptest.ResponseRecorder, QueryEnvelope) {
	t.Helper()
	r := chi.NewRouter()
	NewQueryHandler(service, nil).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var envelope QueryEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

func TestQuery_Success(t *testing.T) {
	result := &models.ResultTable{
		KeyColumn:   "state",
		ValueColumn: "mean",
		Rows:        []models.ResultRow{{Key: "Punjab", Value: 1162.5, Count: 4}},
	}
	service := &stubAnswerer{answer: &models.Answer{
		ID:         uuid.New(),
		Text:       "Average by state:\n - Punjab: 1162.50",
		Result:     result,
		Chart:      result,
		Provenance: models.ProvenanceRecord{ID: uuid.New()},
	}}

	rec, envelope := postQuery(t, service, `{"question": "compare punjab and kerala"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.True(t, envelope.OK)
	assert.Empty(t, envelope.Error)
	require.NotNil(t, envelope.Result)
	assert.Contains(t, envelope.Result.AnswerText, "Punjab")
	require.NotNil(t, envelope.Result.Table)
	assert.Equal(t, "Punjab", envelope.Result.Table.Rows[0].Key)
	require.NotNil(t, envelope.Result.Provenance)
}

func TestQuery_InterpretationErrorsAreOKFalse(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"dataset not found", &apperrors.DatasetNotFoundError{Subject: "gold"}},
		{"role unresolved", &apperrors.RoleUnresolvedError{Role: "district", Dataset: "temp_series", Tried: []string{"district"}}},
		{"planning", apperrors.ErrPlanning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, envelope := postQuery(t, &stubAnswerer{err: tt.err}, `{"question": "anything"}`)

			assert.Equal(t, http.StatusOK, rec.Code, "interpretation failures are not server errors")
			assert.False(t, envelope.OK)
			assert.Equal(t, tt.err.Error(), envelope.Error)
			assert.Nil(t, envelope.Result)
		})
	}
}

func TestQuery_InternalErrorIs500(t *testing.T) {
	rec, envelope := postQuery(t, &stubAnswerer{err: assert.AnError}, `{"question": "anything"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, envelope.OK)
	assert.NotContains(t, envelope.Error, assert.AnError.Error(), "internal detail stays out of the envelope")
}

func TestQuery_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"invalid json", "{not json"},
		{"missing question", `{}`},
		{"blank question", `{"question": ""}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, envelope := postQuery(t, &stubAnswerer{}, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, envelope.OK)
			assert.Contains(t, envelope.Error, "question")
		})
	}
}
