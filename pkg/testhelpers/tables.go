// Package testhelpers builds in-memory tables and registries for tests.
package testhelpers

import (
	"github.com/samarth-labs/samarth-engine/pkg/dataset"
	"github.com/samarth-labs/samarth-engine/pkg/loader"
	"github.com/samarth-labs/samarth-engine/pkg/models"
	"github.com/samarth-labs/samarth-engine/pkg/schema"
)

// NewTable builds a table from string cells, coercing each cell the same way
// the loader does.
func NewTable(name string, columns []string, rows [][]string) *models.Table {
	t := &models.Table{Name: name, Columns: columns}
	for _, cells := range rows {
		row := make(models.Row, len(columns))
		for i, col := range columns {
			if i < len(cells) {
				row[col] = loader.ParseCell(cells[i])
			} else {
				row[col] = models.MissingValue()
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// CropTable is a small long-form production dataset covering two states,
// two districts each, three crops and the years 2018–2020.
func CropTable() *models.Table {
	return NewTable("crop_production",
		[]string{"State", "District", "Crop", "Year", "Production (Tonnes)"},
		[][]string{
			{"Punjab", "Amritsar", "Wheat", "2018", "1200"},
			{"Punjab", "Amritsar", "Wheat", "2019", "1300"},
			{"Punjab", "Amritsar", "Wheat", "2020", "1500"},
			{"Punjab", "Ludhiana", "Rice", "2019", "900"},
			{"Punjab", "Ludhiana", "Rice", "2020", "950"},
			{"Kerala", "Idukki", "Rice", "2019", "700"},
			{"Kerala", "Idukki", "Rice", "2020", "800"},
			{"Kerala", "Wayanad", "Maize", "2020", "300"},
			{"Kerala", "Wayanad", "Maize", "2019", ""},
		})
}

// ClimateTable is a small per-state annual temperature series for 2016–2020.
func ClimateTable() *models.Table {
	return NewTable("temp_series",
		[]string{"state_name", "YEAR", "Annual Mean Temp (C)"},
		[][]string{
			{"Punjab", "2016", "24.1"},
			{"Punjab", "2017", "24.3"},
			{"Punjab", "2018", "24.6"},
			{"Punjab", "2019", "24.4"},
			{"Punjab", "2020", "24.9"},
			{"Kerala", "2016", "27.0"},
			{"Kerala", "2017", "27.2"},
			{"Kerala", "2018", "27.1"},
			{"Kerala", "2019", "27.4"},
			{"Kerala", "2020", "27.5"},
		})
}

// NewRegistry builds a registry preloaded with CropTable and ClimateTable.
func NewRegistry() *dataset.Registry {
	r := dataset.NewRegistry(schema.NewDetector(), nil)
	r.Register("crop_production", CropTable())
	r.Register("temp_series", ClimateTable())
	return r
}

// Subjects is the subject→dataset association matching NewRegistry.
func Subjects() map[string]string {
	return map[string]string{
		"crop":        "crop_production",
		"production":  "crop_production",
		"yield":       "crop_production",
		"temperature": "temp_series",
		"temp":        "temp_series",
		"climate":     "temp_series",
		"rainfall":    "temp_series",
	}
}
