// Package provenance builds the auditable trail attached to every answer.
package provenance

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/samarth-labs/samarth-engine/pkg/models"
)

// Recorder accumulates one entry per execution stage. It carries no hidden
// state: every field of the final record comes from the plan or from
// execution counts, so a record is fully reconstructable from those inputs.
type Recorder struct {
	entries []models.ProvenanceEntry
	notes   []string
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Stage records one executor stage: the dataset and binding it consulted,
// the filters it applied, and how many rows matched or were ignored for
// missing metric values.
func (r *Recorder) Stage(dataset string, binding models.SchemaBinding, filters []models.FilterPredicate, matched, ignored int) {
	r.entries = append(r.entries, models.ProvenanceEntry{
		Dataset:     dataset,
		Binding:     binding,
		Filters:     filters,
		RowsMatched: matched,
		RowsIgnored: ignored,
		Notes:       r.notes,
	})
	r.notes = nil
}

// Note attaches an explanatory note to the next stage, e.g. a semantic role
// that could not be resolved and was omitted from the plan. Gaps are surfaced
// here rather than silently dropped.
func (r *Recorder) Note(format string, args ...any) {
	r.notes = append(r.notes, fmt.Sprintf(format, args...))
}

// Record finalizes the trail. The returned record is never mutated again.
func (r *Recorder) Record() models.ProvenanceRecord {
	entries := r.entries
	if len(r.notes) > 0 {
		// Notes with no stage still belong in the record.
		entries = append(entries, models.ProvenanceEntry{Notes: r.notes})
	}
	return models.ProvenanceRecord{
		ID:      uuid.New(),
		Entries: entries,
	}
}
