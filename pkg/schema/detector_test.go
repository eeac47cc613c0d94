package schema

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samarth-labs/samarth-engine/pkg/apperrors"
	"github.com/samarth-labs/samarth-engine/pkg/models"
)

func makeTable(name string, columns []string, rows [][]string) *models.Table {
	t := &models.Table{Name: name, Columns: columns}
	for _, cells := range rows {
		row := make(models.Row, len(columns))
		for i, col := range columns {
			row[col] = cell(cells[i])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func cell(s string) models.Value {
	if s == "" {
		return models.MissingValue()
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return models.NumberValue(s, n)
	}
	return models.StringValue(s)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{"lowercases and trims", "  State ", "state"},
		{"punctuation to spaces", "Production (Tonnes)", "production tonnes"},
		{"underscores to spaces", "state_name", "state"},
		{"collapses whitespace", "Annual   Mean\tTemp", "annual mean temp c"},
		{"synonym folding", "Crops", "crop"},
		{"unknown header unchanged", "Remarks", "remarks"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.header))
		})
	}
}

func TestDetect_MatchStrategies(t *testing.T) {
	table := makeTable("crops",
		[]string{"State", "Crop_Name", "Yearof Report", "Production (Tonnes)"},
		[][]string{
			{"Punjab", "Wheat", "2018", "100"},
			{"Kerala", "Rice", "2019", "200"},
		})
	d := NewDetector()

	tests := []struct {
		role       models.SemanticRole
		column     string
		confidence models.MatchConfidence
	}{
		{models.RoleState, "State", models.MatchExact},
		{models.RoleCrop, "Crop_Name", models.MatchExact}, // synonym folds to canonical
		{models.RoleYear, "Yearof Report", models.MatchNormalized},
		{models.RoleMetricValue, "Production (Tonnes)", models.MatchExact},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			entry, err := d.Detect(table, tt.role)
			require.NoError(t, err)
			assert.Equal(t, tt.column, entry.Column)
			assert.Equal(t, tt.confidence, entry.Confidence)
		})
	}
}

func TestDetect_ValueShapeFallback(t *testing.T) {
	table := makeTable("climate",
		[]string{"Region", "Period", "Reading"},
		[][]string{
			{"North", "1901", "24.3"},
			{"North", "1950", "24.3"},
			{"South", "2016", "24.3"},
		})
	d := NewDetector()

	year, err := d.Detect(table, models.RoleYear)
	require.NoError(t, err)
	assert.Equal(t, "Period", year.Column)
	assert.Equal(t, models.MatchFallback, year.Confidence)

	// DetectAll must not let the metric fallback claim the year column.
	binding := d.DetectAll(table)
	metric, ok := binding[models.RoleMetricValue]
	require.True(t, ok)
	assert.Equal(t, "Reading", metric.Column)
	assert.Equal(t, models.MatchFallback, metric.Confidence)
}

func TestDetect_LeftmostWinsOnTie(t *testing.T) {
	table := makeTable("dup",
		[]string{"Reading A", "Reading B"},
		[][]string{
			{"100", "200"},
			{"200", "300"},
		})
	d := NewDetector()

	entry, err := d.Detect(table, models.RoleMetricValue)
	require.NoError(t, err)
	assert.Equal(t, "Reading A", entry.Column)
}

func TestDetect_Deterministic(t *testing.T) {
	table := makeTable("crops",
		[]string{"State", "Crops", "Year", "Production"},
		[][]string{{"Punjab", "Wheat", "2018", "100"}})
	d := NewDetector()

	first := d.DetectAll(table)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, d.DetectAll(table))
	}
}

func TestDetect_NotFound(t *testing.T) {
	table := makeTable("opaque",
		[]string{"Remarks"},
		[][]string{{"free text"}})
	d := NewDetector()

	_, err := d.Detect(table, models.RoleDistrict)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrSchemaRoleUnresolved)

	var roleErr *apperrors.RoleUnresolvedError
	require.ErrorAs(t, err, &roleErr)
	assert.Equal(t, "district", roleErr.Role)
	assert.Equal(t, "opaque", roleErr.Dataset)
	assert.Contains(t, roleErr.Tried, "district")
}
