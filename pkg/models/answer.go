package models

import "github.com/google/uuid"

// ResultRow is one aggregated group: a group key, the aggregated value and
// the number of rows that contributed to it.
type ResultRow struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// ResultTable is the small, render-ready table produced by executing a plan.
// Zero rows is a valid outcome, not an error.
type ResultTable struct {
	KeyColumn   string      `json:"key_column"`
	ValueColumn string      `json:"value_column"`
	Rows        []ResultRow `json:"rows"`
}

// ProvenanceEntry records one execution stage: which dataset and bindings
// were used, which filters were applied, and how many rows matched or were
// ignored for missing metric values.
type ProvenanceEntry struct {
	Dataset     string            `json:"dataset"`
	Binding     SchemaBinding     `json:"binding"`
	Filters     []FilterPredicate `json:"filters,omitempty"`
	RowsMatched int               `json:"rows_matched"`
	RowsIgnored int               `json:"rows_ignored"`
	Notes       []string          `json:"notes,omitempty"`
}

// ProvenanceRecord is the auditable trail attached to an answer. It is built
// once during execution and never mutated afterwards; everything in it is
// reconstructable from the plan plus execution counts.
type ProvenanceRecord struct {
	ID      uuid.UUID         `json:"id"`
	Entries []ProvenanceEntry `json:"entries"`
}

// Answer is the engine's final output for one question.
type Answer struct {
	ID         uuid.UUID        `json:"id"`
	Text       string           `json:"answer_text"`
	Result     *ResultTable     `json:"result,omitempty"`
	Chart      *ResultTable     `json:"chart,omitempty"` // chart-ready summary, rendering is the caller's job
	Provenance ProvenanceRecord `json:"provenance"`
}
