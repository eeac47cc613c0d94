package provenance

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samarth-labs/samarth-engine/pkg/models"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Note("role %q unresolved", "district")
	r.Stage("crop_production", models.SchemaBinding{}, nil, 8, 1)
	r.Stage("temp_series", models.SchemaBinding{}, nil, 5, 0)

	record := r.Record()

	assert.NotEqual(t, uuid.Nil, record.ID)
	require.Len(t, record.Entries, 2)

	first := record.Entries[0]
	assert.Equal(t, "crop_production", first.Dataset)
	assert.Equal(t, 8, first.RowsMatched)
	assert.Equal(t, 1, first.RowsIgnored)
	assert.Equal(t, []string{`role "district" unresolved`}, first.Notes)

	// Notes are consumed by the stage they precede.
	assert.Empty(t, record.Entries[1].Notes)
}

func TestRecorder_DanglingNotesGetOwnEntry(t *testing.T) {
	r := NewRecorder()
	r.Stage("crop_production", models.SchemaBinding{}, nil, 3, 0)
	r.Note("post-stage note")

	record := r.Record()
	require.Len(t, record.Entries, 2)
	assert.Equal(t, []string{"post-stage note"}, record.Entries[1].Notes)
}

func TestRecorder_EmptyRecord(t *testing.T) {
	record := NewRecorder().Record()
	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.Empty(t, record.Entries)
}
