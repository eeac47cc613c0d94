// Package services contains the question-answering orchestration layer.
package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/samarth-labs/samarth-engine/pkg/executor"
	"github.com/samarth-labs/samarth-engine/pkg/logging"
	"github.com/samarth-labs/samarth-engine/pkg/models"
	"github.com/samarth-labs/samarth-engine/pkg/planner"
	"github.com/samarth-labs/samarth-engine/pkg/question"
)

// ClarificationPrompt is the answer text for questions the engine cannot
// map to any supported operation.
const ClarificationPrompt = "I can answer questions about the loaded agriculture and climate datasets - " +
	"try something like 'list states', 'compare Punjab and Kerala rainfall for the last 5 years', " +
	"or 'top 3 crops in All India since 2015'."

// QuestionService runs the full pipeline for one question:
// classify → plan → execute → build answer.
type QuestionService struct {
	classifier *question.Classifier
	planner    *planner.Planner
	executor   *executor.Executor
	logger     *zap.Logger
}

// NewQuestionService creates a QuestionService. Pass nil logger to disable
// logging.
func NewQuestionService(classifier *question.Classifier, planner *planner.Planner, executor *executor.Executor, logger *zap.Logger) *QuestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionService{
		classifier: classifier,
		planner:    planner,
		executor:   executor,
		logger:     logger,
	}
}

// AnswerQuestion processes a question to completion. Unrecognized questions
// return a clarification answer with no plan executed. Planning failures
// (unknown subject, unresolvable schema role, missing entities) are returned
// as errors for the caller to surface.
func (s *QuestionService) AnswerQuestion(ctx context.Context, text string) (*models.Answer, error) {
	_ = ctx // no blocking work once tables are loaded; kept for interface symmetry

	intent, slots := s.classifier.Classify(text)
	s.logger.Info("Answering question",
		zap.String("question", logging.TruncateQuestion(text)),
		zap.String("intent", intent.String()))

	if intent == models.IntentUnrecognized {
		return &models.Answer{ID: uuid.New(), Text: ClarificationPrompt}, nil
	}

	plan, err := s.planner.Plan(intent, slots)
	if err != nil {
		return nil, err
	}

	result, prov, err := s.executor.Execute(plan)
	if err != nil {
		return nil, err
	}

	answer := &models.Answer{
		ID:         uuid.New(),
		Text:       buildAnswerText(plan, slots, result),
		Result:     result,
		Provenance: prov,
	}
	if len(result.Rows) > 0 && intent != models.IntentListEntities {
		answer.Chart = result
	}
	return answer, nil
}

// Explain classifies and plans a question without executing it. Used by the
// CLI --explain flag to show how a question would be interpreted.
func (s *QuestionService) Explain(text string) (models.Intent, models.EntitySlots, *models.QueryPlan, error) {
	intent, slots := s.classifier.Classify(text)
	if intent == models.IntentUnrecognized {
		return intent, slots, nil, nil
	}
	plan, err := s.planner.Plan(intent, slots)
	if err != nil {
		return intent, slots, nil, err
	}
	return intent, slots, plan, nil
}

// buildAnswerText phrases the result the way the original reports read: one
// headline line plus one " - name: value" line per row.
func buildAnswerText(plan *models.QueryPlan, slots models.EntitySlots, result *models.ResultTable) string {
	if len(result.Rows) == 0 {
		return fmt.Sprintf("No matching data in dataset %q for this question%s.", plan.Dataset, yearSuffix(plan))
	}

	var b strings.Builder
	switch plan.Intent {
	case models.IntentListEntities:
		names := make([]string, len(result.Rows))
		for i, r := range result.Rows {
			names[i] = r.Key
		}
		fmt.Fprintf(&b, "Distinct %ss in %s: %s", plan.GroupBy, plan.Dataset, strings.Join(names, ", "))

	case models.IntentCompare:
		fmt.Fprintf(&b, "%s by %s%s:", titleCase(aggLabel(plan.Agg)), plan.GroupBy, yearSuffix(plan))
		writeRows(&b, result.Rows)

	case models.IntentTopN:
		fmt.Fprintf(&b, "Top %d %ss by %s%s:", len(result.Rows), plan.GroupBy, aggLabel(plan.Agg), yearSuffix(plan))
		writeRows(&b, result.Rows)

	case models.IntentTrend:
		subject := "values"
		if len(slots.Subjects) > 0 {
			subject = slots.Subjects[0]
		}
		fmt.Fprintf(&b, "%s by year (%s)%s:", titleCase(subject), aggLabel(plan.Agg), yearSuffix(plan))
		writeRows(&b, result.Rows)
		if slope, ok := trendSlope(result.Rows); ok {
			fmt.Fprintf(&b, "\nTrend: %+.2f per year", slope)
		}

	case models.IntentLookupExtreme:
		direction := "highest"
		if plan.Sort == models.SortValueAsc {
			direction = "lowest"
		}
		r := result.Rows[0]
		fmt.Fprintf(&b, "%s %s%s: %s (%s)", titleCase(direction), plan.GroupBy, yearSuffix(plan), r.Key, formatValue(r.Value))

	default:
		writeRows(&b, result.Rows)
	}
	return b.String()
}

func writeRows(b *strings.Builder, rows []models.ResultRow) {
	for _, r := range rows {
		fmt.Fprintf(b, "\n - %s: %s", r.Key, formatValue(r.Value))
	}
}

func aggLabel(agg models.AggFunc) string {
	switch agg {
	case models.AggSum:
		return "total"
	case models.AggMean:
		return "average"
	default:
		return "count"
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// yearSuffix renders the plan's year bounds, when it has any, as
// " over 2016-2020".
func yearSuffix(plan *models.QueryPlan) string {
	for _, f := range plan.Filters {
		if f.Op == models.FilterYearRange {
			if f.Start == f.End {
				return fmt.Sprintf(" in %d", f.Start)
			}
			return fmt.Sprintf(" over %d-%d", f.Start, f.End)
		}
	}
	return ""
}

// trendSlope fits a least-squares line through (year, value) and returns the
// per-year slope. Needs at least two numeric year keys.
func trendSlope(rows []models.ResultRow) (float64, bool) {
	var xs, ys []float64
	for _, r := range rows {
		y, err := strconv.Atoi(r.Key)
		if err != nil {
			continue
		}
		xs = append(xs, float64(y))
		ys = append(ys, r.Value)
	}
	n := float64(len(xs))
	if n < 2 {
		return 0, false
	}
	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, false
	}
	return (n*sumXY - sumX*sumY) / denom, true
}
