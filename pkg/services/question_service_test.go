package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samarth-labs/samarth-engine/pkg/apperrors"
	"github.com/samarth-labs/samarth-engine/pkg/config"
	"github.com/samarth-labs/samarth-engine/pkg/dataset"
	"github.com/samarth-labs/samarth-engine/pkg/executor"
	"github.com/samarth-labs/samarth-engine/pkg/models"
	"github.com/samarth-labs/samarth-engine/pkg/planner"
	"github.com/samarth-labs/samarth-engine/pkg/question"
	"github.com/samarth-labs/samarth-engine/pkg/schema"
	"github.com/samarth-labs/samarth-engine/pkg/testhelpers"
)

func newServiceWith(t *testing.T, reg *dataset.Registry, subjects map[string]string) *QuestionService {
	t.Helper()
	policy := config.QueryConfig{
		DefaultTopN:        3,
		DefaultLastYears:   5,
		DefaultDataset:     "crop_production",
		SumMetricKeywords:  []string{"production", "tonnes", "quantity"},
		RateMetricKeywords: []string{"temp", "temperature", "rainfall", "yield"},
	}
	return NewQuestionService(
		question.NewClassifier(reg, nil),
		planner.NewPlanner(reg, subjects, policy, nil),
		executor.NewExecutor(reg, nil),
		nil,
	)
}

func newService(t *testing.T) *QuestionService {
	t.Helper()
	return newServiceWith(t, testhelpers.NewRegistry(), testhelpers.Subjects())
}

func TestAnswerQuestion_Compare(t *testing.T) {
	s := newService(t)

	answer, err := s.AnswerQuestion(context.Background(), "Compare production in Punjab and Kerala from 2019 to 2020")
	require.NoError(t, err)

	assert.Contains(t, answer.Text, "by state over 2019-2020")
	assert.Contains(t, answer.Text, " - Punjab: 1162.50")
	assert.Contains(t, answer.Text, " - Kerala: 600")
	require.NotNil(t, answer.Result)
	assert.Len(t, answer.Result.Rows, 2)
	assert.NotNil(t, answer.Chart)
	assert.NotEmpty(t, answer.Provenance.Entries)
}

func TestAnswerQuestion_TopN(t *testing.T) {
	s := newService(t)

	answer, err := s.AnswerQuestion(context.Background(), "Top 2 crops by production")
	require.NoError(t, err)

	lines := strings.Split(answer.Text, "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Top 2 crops by total")
	assert.Equal(t, " - Wheat: 4000", lines[1])
	assert.Equal(t, " - Rice: 3350", lines[2])
}

func TestAnswerQuestion_TrendWithSlope(t *testing.T) {
	s := newService(t)

	answer, err := s.AnswerQuestion(context.Background(), "Temperature trend in Punjab over the last 5 years")
	require.NoError(t, err)

	assert.Contains(t, answer.Text, "by year")
	assert.Contains(t, answer.Text, " - 2016: 24.10")
	assert.Contains(t, answer.Text, " - 2020: 24.90")
	assert.Contains(t, answer.Text, "Trend: +0.")
	require.NotNil(t, answer.Chart)
	assert.Equal(t, "2016", answer.Chart.Rows[0].Key)
}

func TestAnswerQuestion_Extreme(t *testing.T) {
	s := newService(t)

	answer, err := s.AnswerQuestion(context.Background(), "Which district has the highest production?")
	require.NoError(t, err)

	assert.Contains(t, answer.Text, "Highest district")
	assert.Contains(t, answer.Text, "Amritsar")
}

func TestAnswerQuestion_List(t *testing.T) {
	s := newService(t)

	answer, err := s.AnswerQuestion(context.Background(), "List all crops")
	require.NoError(t, err)

	assert.Contains(t, answer.Text, "Distinct crops")
	assert.Contains(t, answer.Text, "Wheat, Rice, Maize")
	assert.Nil(t, answer.Chart, "lists are not charted")
}

func TestAnswerQuestion_UnrecognizedGetsClarification(t *testing.T) {
	s := newService(t)

	answer, err := s.AnswerQuestion(context.Background(), "What is the capital of France?")
	require.NoError(t, err)

	assert.Equal(t, ClarificationPrompt, answer.Text)
	assert.Nil(t, answer.Result)
	assert.Nil(t, answer.Chart)
	assert.Empty(t, answer.Provenance.Entries)
}

func TestAnswerQuestion_PlanningErrorsPropagate(t *testing.T) {
	s := newService(t)

	_, err := s.AnswerQuestion(context.Background(), "Compare production in Punjab")
	assert.ErrorIs(t, err, apperrors.ErrPlanning)

	// temp_series has no district column.
	_, err = s.AnswerQuestion(context.Background(), "Which district has the lowest temperature?")
	assert.ErrorIs(t, err, apperrors.ErrSchemaRoleUnresolved)
}

func TestAnswerQuestion_EmptyResultPhrasing(t *testing.T) {
	s := newService(t)

	answer, err := s.AnswerQuestion(context.Background(), "Compare production in Punjab and Kerala in 1950")
	require.NoError(t, err)

	assert.Contains(t, answer.Text, `No matching data in dataset "crop_production"`)
	assert.Contains(t, answer.Text, "in 1950")
	assert.Nil(t, answer.Chart)
}

func TestAnswerQuestion_LocationFromAnotherDataset(t *testing.T) {
	// Goa and Nagaland appear only in the rainfall dataset's vocabulary, so a
	// production question naming them matches zero rows. That is a valid
	// empty answer, and the provenance trail says why.
	reg := dataset.NewRegistry(schema.NewDetector(), nil)
	reg.Register("crop_production", testhelpers.CropTable())
	reg.Register("rain_series", testhelpers.NewTable("rain_series",
		[]string{"State", "Year", "Annual Rainfall (mm)"},
		[][]string{
			{"Goa", "2019", "2900"},
			{"Nagaland", "2019", "1800"},
		}))
	s := newServiceWith(t, reg, map[string]string{
		"production": "crop_production",
		"rainfall":   "rain_series",
	})

	answer, err := s.AnswerQuestion(context.Background(), "Compare production in Goa and Nagaland")
	require.NoError(t, err)

	assert.Contains(t, answer.Text, "No matching data")
	assert.Nil(t, answer.Chart)

	require.NotEmpty(t, answer.Provenance.Entries)
	entry := answer.Provenance.Entries[0]
	assert.Equal(t, 0, entry.RowsMatched)
	joined := strings.Join(entry.Notes, "\n")
	assert.Contains(t, joined, `"Goa" not found`)
	assert.Contains(t, joined, `"Nagaland" not found`)
}

func TestExplain(t *testing.T) {
	s := newService(t)

	intent, slots, plan, err := s.Explain("Top 2 crops by production in Punjab")
	require.NoError(t, err)
	assert.Equal(t, models.IntentTopN, intent)
	assert.Equal(t, []string{"Punjab"}, slots.Locations)
	require.NotNil(t, plan)
	assert.Equal(t, 2, plan.Limit)

	intent, _, plan, err = s.Explain("What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, models.IntentUnrecognized, intent)
	assert.Nil(t, plan)
}

func TestTrendSlope(t *testing.T) {
	rows := []models.ResultRow{
		{Key: "2016", Value: 10},
		{Key: "2017", Value: 20},
		{Key: "2018", Value: 30},
	}
	slope, ok := trendSlope(rows)
	require.True(t, ok)
	assert.InDelta(t, 10.0, slope, 1e-9)

	_, ok = trendSlope(rows[:1])
	assert.False(t, ok, "a single point has no slope")

	_, ok = trendSlope([]models.ResultRow{{Key: "Punjab", Value: 1}, {Key: "Kerala", Value: 2}})
	assert.False(t, ok, "non-year keys cannot fit a line")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "4000", formatValue(4000))
	assert.Equal(t, "1162.50", formatValue(1162.5))
}
