package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samarth-labs/samarth-engine/pkg/dataset"
	"github.com/samarth-labs/samarth-engine/pkg/models"
	"github.com/samarth-labs/samarth-engine/pkg/schema"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "crops.csv",
		"State,District,Crop,Year,Production (Tonnes)\n"+
			"Punjab,Amritsar,Wheat,2018,\"1,200\"\n"+
			"Kerala,Idukki,Rice,2019,NA\n")

	l := NewLoader(nil)
	table, err := l.LoadCSV("crop_production", path)
	require.NoError(t, err)

	assert.Equal(t, "crop_production", table.Name)
	assert.Equal(t, "crops.csv", table.Source)
	require.Len(t, table.Rows, 2)

	v := table.Rows[0]["Production (Tonnes)"]
	assert.True(t, v.IsNum, "thousands separator is stripped before parsing")
	assert.Equal(t, 1200.0, v.Num)

	assert.True(t, table.Rows[1]["Production (Tonnes)"].Missing)
}

func TestLoadCSV_ShortRowsArePadded(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ragged.csv",
		"State,Year,Production\n"+
			"Punjab,2019,100\n"+
			"Kerala,2019\n")

	l := NewLoader(nil)
	table, err := l.LoadCSV("ragged", path)
	require.NoError(t, err)

	require.Len(t, table.Rows, 2)
	assert.True(t, table.Rows[1]["Production"].Missing)
	assert.NoError(t, table.Validate())
}

func TestLoadCSV_Latin1Fallback(t *testing.T) {
	dir := t.TempDir()
	// 0xE9 is é in Latin-1 and invalid UTF-8 on its own.
	content := append([]byte("State,Year,Production\nPondich"), 0xE9)
	content = append(content, []byte("rry,2019,100\n")...)
	path := filepath.Join(dir, "latin1.csv")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	l := NewLoader(nil)
	table, err := l.LoadCSV("legacy", path)
	require.NoError(t, err)

	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Pondichérry", table.Rows[0]["State"].Raw)
}

func TestLoadCSV_MeltsWideProduction(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "wide.csv",
		"Crop,2016-17 - Production,2017-18 - Production\n"+
			"Wheat,1000,1100\n"+
			"Rice,800,850\n")

	l := NewLoader(nil)
	table, err := l.LoadCSV("crop_production", path)
	require.NoError(t, err)

	assert.Equal(t, []string{"crop", "year", "production_tonnes"}, table.Columns)
	require.Len(t, table.Rows, 4)

	first := table.Rows[0]
	assert.Equal(t, "Wheat", first["crop"].Raw)
	assert.Equal(t, 2016.0, first["year"].Num, "split financial year keeps its start year")
	assert.Equal(t, 1000.0, first["production_tonnes"].Num)

	// The melted shape must still bind all the roles the planner needs.
	binding := schema.NewDetector().DetectAll(table)
	_, ok := binding.Column(models.RoleCrop)
	assert.True(t, ok)
	_, ok = binding.Column(models.RoleYear)
	assert.True(t, ok)
	_, ok = binding.Column(models.RoleMetricValue)
	assert.True(t, ok)
}

func TestLoadCSV_SynthesizesAnnualMean(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "temps.csv",
		"YEAR,ANNUAL - MIN,ANNUAL - MAX\n"+
			"2019,18.0,30.0\n"+
			"2020,19.0,NA\n")

	l := NewLoader(nil)
	table, err := l.LoadCSV("temp_series", path)
	require.NoError(t, err)

	require.Contains(t, table.Columns, "annual_mean_temp_c")
	assert.Equal(t, 24.0, table.Rows[0]["annual_mean_temp_c"].Num)
	assert.True(t, table.Rows[1]["annual_mean_temp_c"].Missing, "missing max leaves the mean missing")
}

func TestParseCell(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		missing bool
		isNum   bool
		num     float64
	}{
		{"plain number", "42", false, true, 42},
		{"thousands separators", "1,234,567", false, true, 1234567},
		{"decimal", "24.3", false, true, 24.3},
		{"string", "Punjab", false, false, 0},
		{"empty", "", true, false, 0},
		{"na token", "NA", true, false, 0},
		{"dash token", "-", true, false, 0},
		{"nan token", "NaN", true, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ParseCell(tt.raw)
			assert.Equal(t, tt.missing, v.Missing)
			assert.Equal(t, tt.isNum, v.IsNum)
			if tt.isNum {
				assert.Equal(t, tt.num, v.Num)
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "datasets.yaml", `
datasets:
  - name: crop_production
    match: crop-wise
    subjects: [crop, production]
  - name: temp_series
    match: minmax temp
    subjects: [temperature]
  - name: rainfall
    match: rainfall
    subjects: [rain]
`)
	writeFile(t, dir, "Crop-Wise Details of Production 2020 v3.csv",
		"State,Crop,Year,Production\nPunjab,Wheat,2019,100\n")
	writeFile(t, dir, "Minmax Temp Series 1901-2019.csv",
		"YEAR,ANNUAL - MIN,ANNUAL - MAX\n2019,18.0,30.0\n")
	// No rainfall file: the entry is skipped, not fatal.

	l := NewLoader(nil)
	reg := dataset.NewRegistry(schema.NewDetector(), nil)
	subjects, err := l.LoadDir(dir, reg)
	require.NoError(t, err)

	assert.Equal(t, []string{"crop_production", "temp_series"}, reg.Names())
	assert.Equal(t, map[string]string{
		"crop":        "crop_production",
		"production":  "crop_production",
		"temperature": "temp_series",
	}, subjects)
}

func TestLoadDir_NoManifest(t *testing.T) {
	l := NewLoader(nil)
	reg := dataset.NewRegistry(schema.NewDetector(), nil)
	_, err := l.LoadDir(t.TempDir(), reg)
	assert.Error(t, err)
}

func TestLoadDir_NothingLoadable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "datasets.yaml", `
datasets:
  - name: rainfall
    match: rainfall
    subjects: [rain]
`)

	l := NewLoader(nil)
	reg := dataset.NewRegistry(schema.NewDetector(), nil)
	_, err := l.LoadDir(dir, reg)
	assert.Error(t, err)
}
