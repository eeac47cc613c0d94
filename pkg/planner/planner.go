// Package planner turns a classified question into an executable query plan.
package planner

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/samarth-labs/samarth-engine/pkg/apperrors"
	"github.com/samarth-labs/samarth-engine/pkg/config"
	"github.com/samarth-labs/samarth-engine/pkg/dataset"
	"github.com/samarth-labs/samarth-engine/pkg/models"
	"github.com/samarth-labs/samarth-engine/pkg/schema"
)

// Planner combines intent, entity slots and the detected schema into an
// immutable QueryPlan. Dataset selection is the first planning step: the
// question's subject is resolved through a fixed subject→dataset association
// (built from the dataset manifest) or through the observed crop vocabulary.
type Planner struct {
	registry *dataset.Registry
	subjects map[string]string // lowercase subject keyword → dataset name
	policy   config.QueryConfig
	logger   *zap.Logger
}

// NewPlanner creates a Planner. The subjects map associates subject keywords
// ("crop", "temperature") with registered dataset names. Pass nil logger to
// disable logging.
func NewPlanner(registry *dataset.Registry, subjects map[string]string, policy config.QueryConfig, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	norm := make(map[string]string, len(subjects))
	for k, v := range subjects {
		norm[strings.ToLower(k)] = v
	}
	return &Planner{registry: registry, subjects: norm, policy: policy, logger: logger}
}

// Plan builds the aggregation plan for one classified question.
// Fails with ErrUnrecognizedIntent, ErrDatasetNotFound, ErrSchemaRoleUnresolved
// or ErrPlanning; callers translate these into user-facing messages.
func (p *Planner) Plan(intent models.Intent, slots models.EntitySlots) (*models.QueryPlan, error) {
	if intent == models.IntentUnrecognized {
		return nil, apperrors.ErrUnrecognizedIntent
	}

	ds, err := p.selectDataset(intent, slots)
	if err != nil {
		return nil, err
	}
	binding, err := p.registry.Bindings(ds)
	if err != nil {
		return nil, err
	}

	plan := &models.QueryPlan{Dataset: ds, Intent: intent}

	switch intent {
	case models.IntentListEntities:
		if err := p.requireRoles(ds, binding, slots.ListRole); err != nil {
			return nil, err
		}
		plan.GroupBy = slots.ListRole
		plan.Agg = models.AggCount

	case models.IntentCompare:
		if len(slots.Locations) < 2 {
			return nil, fmt.Errorf("%w: compare needs at least two known locations, got %d", apperrors.ErrPlanning, len(slots.Locations))
		}
		if err := p.requireRoles(ds, binding, models.RoleState, models.RoleMetricValue); err != nil {
			return nil, err
		}
		plan.GroupBy = models.RoleState
		plan.Agg = models.AggMean
		plan.Filters = append(plan.Filters, models.FilterPredicate{
			Role: models.RoleState, Op: models.FilterIn, Values: slots.Locations,
		})
		plan.Filters = p.appendYearFilter(plan.Filters, ds, binding, slots)

	case models.IntentTopN:
		if err := p.requireRoles(ds, binding, models.RoleCrop, models.RoleMetricValue); err != nil {
			return nil, err
		}
		plan.GroupBy = models.RoleCrop
		plan.Agg = models.AggSum
		plan.Sort = models.SortValueDesc
		plan.Limit = slots.TopN
		if plan.Limit <= 0 {
			plan.Limit = p.policy.DefaultTopN
		}
		plan.Filters = p.appendScopeFilter(plan.Filters, binding, slots)
		plan.Filters = p.appendYearFilter(plan.Filters, ds, binding, slots)

	case models.IntentTrend:
		if err := p.requireRoles(ds, binding, models.RoleYear, models.RoleMetricValue); err != nil {
			return nil, err
		}
		plan.GroupBy = models.RoleYear
		plan.Agg = p.trendAggregation(binding)
		plan.Sort = models.SortKeyAsc
		plan.Filters = p.appendCropFilter(plan.Filters, ds, binding, slots)
		plan.Filters = p.appendScopeFilter(plan.Filters, binding, slots)
		plan.Filters = p.appendYearFilter(plan.Filters, ds, binding, slots)

	case models.IntentLookupExtreme:
		if err := p.requireRoles(ds, binding, models.RoleDistrict, models.RoleMetricValue); err != nil {
			return nil, err
		}
		plan.GroupBy = models.RoleDistrict
		plan.Agg = models.AggSum
		plan.Sort = models.SortValueDesc
		if slots.Extreme == models.ExtremeMin {
			plan.Sort = models.SortValueAsc
		}
		plan.Limit = 1
		plan.Filters = p.appendScopeFilter(plan.Filters, binding, slots)
		// Most-recent available year only.
		if maxYear, ok := p.registry.MaxYear(ds); ok {
			if _, bound := binding.Column(models.RoleYear); bound {
				plan.Filters = append(plan.Filters, models.FilterPredicate{
					Role: models.RoleYear, Op: models.FilterYearRange, Start: maxYear, End: maxYear,
				})
			}
		}

	default:
		return nil, fmt.Errorf("%w: no plan shape for intent %q", apperrors.ErrPlanning, intent)
	}

	p.logger.Debug("Built query plan",
		zap.String("dataset", plan.Dataset),
		zap.String("intent", plan.Intent.String()),
		zap.String("group_by", plan.GroupBy.String()),
		zap.Int("filters", len(plan.Filters)))
	return plan, nil
}

// selectDataset resolves the question's subject to a registered dataset:
// fixed keyword association first, then the observed crop vocabulary, then
// the configured default for subject-less questions.
func (p *Planner) selectDataset(intent models.Intent, slots models.EntitySlots) (string, error) {
	for _, s := range slots.Subjects {
		if ds, ok := p.subjects[strings.ToLower(s)]; ok {
			if _, err := p.registry.Get(ds); err != nil {
				return "", &apperrors.DatasetNotFoundError{Dataset: ds}
			}
			return ds, nil
		}
	}
	for _, s := range slots.Subjects {
		for _, name := range p.registry.Names() {
			vals, err := p.registry.DistinctValues(name, models.RoleCrop)
			if err != nil {
				continue
			}
			for _, v := range vals {
				if strings.EqualFold(v, s) {
					return name, nil
				}
			}
		}
	}
	if len(slots.Subjects) > 0 {
		return "", &apperrors.DatasetNotFoundError{Subject: slots.Subjects[0]}
	}

	// No subject at all: list-entities picks any dataset that binds the
	// requested role, everything else falls back to the configured default.
	if intent == models.IntentListEntities {
		for _, name := range p.registry.Names() {
			binding, err := p.registry.Bindings(name)
			if err != nil {
				continue
			}
			if _, ok := binding.Column(slots.ListRole); ok {
				return name, nil
			}
		}
		return "", &apperrors.DatasetNotFoundError{Subject: slots.ListRole.String()}
	}
	if _, err := p.registry.Get(p.policy.DefaultDataset); err != nil {
		return "", &apperrors.DatasetNotFoundError{Dataset: p.policy.DefaultDataset}
	}
	return p.policy.DefaultDataset, nil
}

// requireRoles fails with a RoleUnresolvedError naming the first missing
// role and the attempted normalized column names.
func (p *Planner) requireRoles(ds string, binding models.SchemaBinding, roles ...models.SemanticRole) error {
	for _, role := range roles {
		if _, ok := binding.Column(role); !ok {
			return &apperrors.RoleUnresolvedError{
				Role:    role.String(),
				Dataset: ds,
				Tried:   schema.CanonicalNames(role),
			}
		}
	}
	return nil
}

// appendYearFilter adds the question's year bounds: explicit ranges as-is,
// relative "last N years" resolved against the dataset's maximum observed
// year. No expression means the full available range, so no filter.
func (p *Planner) appendYearFilter(filters []models.FilterPredicate, ds string, binding models.SchemaBinding, slots models.EntitySlots) []models.FilterPredicate {
	if _, bound := binding.Column(models.RoleYear); !bound {
		return filters
	}
	if !slots.Years.IsZero() {
		return append(filters, models.FilterPredicate{
			Role: models.RoleYear, Op: models.FilterYearRange,
			Start: slots.Years.Start, End: slots.Years.End,
		})
	}
	if slots.LastN != 0 {
		n := slots.LastN
		if n == models.LastNDefault {
			n = p.policy.DefaultLastYears
		}
		if maxYear, ok := p.registry.MaxYear(ds); ok {
			return append(filters, models.FilterPredicate{
				Role: models.RoleYear, Op: models.FilterYearRange,
				Start: maxYear - n + 1, End: maxYear,
			})
		}
	}
	return filters
}

// appendScopeFilter restricts to the named locations when the question gave
// any; no locations means the All-India (all rows) scope.
func (p *Planner) appendScopeFilter(filters []models.FilterPredicate, binding models.SchemaBinding, slots models.EntitySlots) []models.FilterPredicate {
	if len(slots.Locations) == 0 {
		return filters
	}
	if _, bound := binding.Column(models.RoleState); !bound {
		return filters
	}
	return append(filters, models.FilterPredicate{
		Role: models.RoleState, Op: models.FilterIn, Values: slots.Locations,
	})
}

// appendCropFilter restricts a trend to the subject crops that actually
// occur in the dataset's crop vocabulary. Topical subjects ("temperature")
// are dataset selectors, not filter values.
func (p *Planner) appendCropFilter(filters []models.FilterPredicate, ds string, binding models.SchemaBinding, slots models.EntitySlots) []models.FilterPredicate {
	if _, bound := binding.Column(models.RoleCrop); !bound {
		return filters
	}
	vals, err := p.registry.DistinctValues(ds, models.RoleCrop)
	if err != nil {
		return filters
	}
	var crops []string
	for _, s := range slots.Subjects {
		for _, v := range vals {
			if strings.EqualFold(v, s) {
				crops = append(crops, v)
			}
		}
	}
	if len(crops) == 0 {
		return filters
	}
	return append(filters, models.FilterPredicate{
		Role: models.RoleCrop, Op: models.FilterIn, Values: crops,
	})
}

// trendAggregation picks sum for volume-like metrics and mean for rate-like
// ones, by matching the bound metric column's normalized name against the
// configured keyword lists. Metrics matching neither list aggregate by mean,
// the safer choice for unknown units.
func (p *Planner) trendAggregation(binding models.SchemaBinding) models.AggFunc {
	col, ok := binding.Column(models.RoleMetricValue)
	if !ok {
		return models.AggMean
	}
	name := schema.Normalize(col)
	for _, kw := range p.policy.SumMetricKeywords {
		if strings.Contains(name, strings.ToLower(kw)) {
			return models.AggSum
		}
	}
	for _, kw := range p.policy.RateMetricKeywords {
		if strings.Contains(name, strings.ToLower(kw)) {
			return models.AggMean
		}
	}
	return models.AggMean
}
