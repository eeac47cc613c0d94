// Package executor runs query plans against the dataset registry.
package executor

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/samarth-labs/samarth-engine/pkg/dataset"
	"github.com/samarth-labs/samarth-engine/pkg/models"
	"github.com/samarth-labs/samarth-engine/pkg/provenance"
)

// Executor applies a plan's filters, grouping, aggregation, sort and limit
// to the plan's dataset. It never mutates a table or a plan.
type Executor struct {
	registry *dataset.Registry
	logger   *zap.Logger
}

// NewExecutor creates an Executor. Pass nil logger to disable logging.
func NewExecutor(registry *dataset.Registry, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{registry: registry, logger: logger}
}

// Execute runs the plan and returns the result table plus its provenance.
// An empty result after filtering is a valid zero-row outcome, not an error.
func (e *Executor) Execute(plan *models.QueryPlan) (*models.ResultTable, models.ProvenanceRecord, error) {
	table, err := e.registry.Get(plan.Dataset)
	if err != nil {
		return nil, models.ProvenanceRecord{}, err
	}
	binding, err := e.registry.Bindings(plan.Dataset)
	if err != nil {
		return nil, models.ProvenanceRecord{}, err
	}

	rec := provenance.NewRecorder()

	groupCol, ok := binding.Column(plan.GroupBy)
	if !ok {
		// The planner validates required roles, so a missing group-by column
		// here is a programmer error.
		return nil, models.ProvenanceRecord{}, fmt.Errorf("plan group-by role %q has no binding for dataset %q", plan.GroupBy, plan.Dataset)
	}
	agg := plan.Agg
	metricCol, hasMetric := binding.Column(models.RoleMetricValue)
	if !hasMetric && agg != models.AggCount {
		rec.Note("role %q unresolved: aggregating by count instead", models.RoleMetricValue)
		agg = models.AggCount
	}
	e.noteUnobservedFilterValues(rec, plan)

	// Filter.
	matched := 0
	groups := make(map[string]*groupAcc)
	var order []string
	ignored := 0
	for _, row := range table.Rows {
		if !rowMatches(row, plan.Filters, binding) {
			continue
		}
		matched++

		key := groupKey(row[groupCol])
		acc, exists := groups[key]
		if !exists {
			acc = &groupAcc{}
			groups[key] = acc
			order = append(order, key)
		}

		if agg == models.AggCount {
			acc.count++
			continue
		}
		v := row[metricCol]
		if v.Missing || !v.IsNum {
			// Missing or unparseable metric values never enter a mean or sum;
			// their count is surfaced in provenance.
			ignored++
			continue
		}
		acc.sum += v.Num
		acc.count++
	}

	// Aggregate.
	rows := make([]models.ResultRow, 0, len(order))
	for _, key := range order {
		acc := groups[key]
		var value float64
		switch agg {
		case models.AggSum:
			value = acc.sum
		case models.AggMean:
			if acc.count > 0 {
				value = acc.sum / float64(acc.count)
			}
		case models.AggCount:
			value = float64(acc.count)
		}
		rows = append(rows, models.ResultRow{Key: key, Value: value, Count: acc.count})
	}

	sortRows(rows, plan.Sort)
	if plan.Limit > 0 && len(rows) > plan.Limit {
		rows = rows[:plan.Limit]
	}

	rec.Stage(plan.Dataset, binding, plan.Filters, matched, ignored)

	result := &models.ResultTable{
		KeyColumn:   plan.GroupBy.String(),
		ValueColumn: string(agg),
		Rows:        rows,
	}
	e.logger.Debug("Executed plan",
		zap.String("dataset", plan.Dataset),
		zap.Int("rows_matched", matched),
		zap.Int("rows_ignored", ignored),
		zap.Int("groups", len(rows)))
	return result, rec.Record(), nil
}

type groupAcc struct {
	sum   float64
	count int
}

// noteUnobservedFilterValues surfaces filter values that never occur in the
// dataset, e.g. a location name observed only in a different dataset. Those
// filters cannot match anything, so the zero-row outcome needs an
// explanation in the provenance trail.
func (e *Executor) noteUnobservedFilterValues(rec *provenance.Recorder, plan *models.QueryPlan) {
	for _, f := range plan.Filters {
		if f.Op != models.FilterIn {
			continue
		}
		observed, err := e.registry.DistinctValues(plan.Dataset, f.Role)
		if err != nil {
			continue
		}
		for _, want := range f.Values {
			if !containsFold(observed, want) {
				rec.Note("%s %q not found in the observed values of dataset %q", f.Role, want, plan.Dataset)
			}
		}
	}
}

func containsFold(vals []string, want string) bool {
	want = strings.TrimSpace(want)
	for _, v := range vals {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}

// rowMatches reports whether the row survives every filter predicate.
// Predicates whose role has no binding are skipped; the planner only emits
// them for bound roles.
func rowMatches(row models.Row, filters []models.FilterPredicate, binding models.SchemaBinding) bool {
	for _, f := range filters {
		col, ok := binding.Column(f.Role)
		if !ok {
			continue
		}
		v := row[col]
		switch f.Op {
		case models.FilterIn:
			if !valueIn(v, f.Values) {
				return false
			}
		case models.FilterYearRange:
			y, ok := cellYear(v)
			if !ok || y < f.Start || y > f.End {
				return false
			}
		}
	}
	return true
}

func valueIn(v models.Value, values []string) bool {
	if v.Missing {
		return false
	}
	cell := strings.TrimSpace(v.Raw)
	for _, want := range values {
		if strings.EqualFold(cell, strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

func cellYear(v models.Value) (int, bool) {
	if v.Missing {
		return 0, false
	}
	if v.IsNum {
		return int(v.Num), true
	}
	y, err := strconv.Atoi(strings.TrimSpace(v.Raw))
	if err != nil {
		return 0, false
	}
	return y, true
}

// groupKey normalizes a grouping cell to trimmed raw text; numeric keys
// (years) keep their integer spelling.
func groupKey(v models.Value) string {
	if v.Missing {
		return ""
	}
	if v.IsNum && v.Num == float64(int(v.Num)) {
		return strconv.Itoa(int(v.Num))
	}
	return strings.TrimSpace(v.Raw)
}

func sortRows(rows []models.ResultRow, order models.SortOrder) {
	switch order {
	case models.SortValueDesc:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Value > rows[j].Value })
	case models.SortValueAsc:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Value < rows[j].Value })
	case models.SortKeyAsc:
		sort.SliceStable(rows, func(i, j int) bool {
			yi, ierr := strconv.Atoi(rows[i].Key)
			yj, jerr := strconv.Atoi(rows[j].Key)
			if ierr == nil && jerr == nil {
				return yi < yj
			}
			return rows[i].Key < rows[j].Key
		})
	}
}
