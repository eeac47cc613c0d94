package models

// AggFunc is the aggregation applied to the metric column per group.
type AggFunc string

// Aggregation function constants.
const (
	AggMean  AggFunc = "mean"
	AggSum   AggFunc = "sum"
	AggCount AggFunc = "count"
)

// FilterOp is the comparison a filter predicate applies.
type FilterOp string

// Filter operator constants.
const (
	// FilterIn keeps rows whose cell matches any of Values,
	// case/whitespace-insensitively.
	FilterIn FilterOp = "in"
	// FilterYearRange keeps rows whose year parses into [Start, End].
	FilterYearRange FilterOp = "year_range"
)

// FilterPredicate restricts the rows a plan step operates on. A row survives
// only if every predicate of the plan holds.
type FilterPredicate struct {
	Role   SemanticRole `json:"role"`
	Op     FilterOp     `json:"op"`
	Values []string     `json:"values,omitempty"`
	Start  int          `json:"start,omitempty"`
	End    int          `json:"end,omitempty"`
}

// SortOrder is the direction of a result sort.
type SortOrder string

// Sort order constants.
const (
	SortNone      SortOrder = ""
	SortValueDesc SortOrder = "value_desc"
	SortValueAsc  SortOrder = "value_asc"
	SortKeyAsc    SortOrder = "key_asc" // numeric-aware, used for year keys
)

// QueryPlan is a fully specified aggregation over one registered dataset.
// Plans are immutable once built and consumed exactly once by the executor.
type QueryPlan struct {
	Dataset string            `json:"dataset"`
	GroupBy SemanticRole      `json:"group_by"`
	Filters []FilterPredicate `json:"filters,omitempty"`
	Agg     AggFunc           `json:"agg"`
	Sort    SortOrder         `json:"sort,omitempty"`
	Limit   int               `json:"limit,omitempty"` // 0 = no limit

	// Intent records which plan shape this is; the answer builder uses it to
	// phrase the headline.
	Intent Intent `json:"intent"`
}
