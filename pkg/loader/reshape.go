package loader

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/samarth-labs/samarth-engine/pkg/models"
	"github.com/samarth-labs/samarth-engine/pkg/schema"
)

// Government production sheets often come wide: one row per crop, one column
// per financial year ("2016-17 - Production"). The core expects long form,
// so the loader melts those columns into (crop, year, production) rows. The
// year is the start year of the split financial year.
var wideYearProdRe = regexp.MustCompile(`(?i)((?:19|20)\d{2})\s*[-–]\s*\d{2}.*production`)

func meltWideProduction(table *models.Table) *models.Table {
	var cropCol string
	for _, col := range table.Columns {
		if schema.Normalize(col) == "crop" {
			cropCol = col
			break
		}
	}
	if cropCol == "" {
		return table
	}

	type yearCol struct {
		col  string
		year int
	}
	var prodCols []yearCol
	for _, col := range table.Columns {
		if m := wideYearProdRe.FindStringSubmatch(col); m != nil {
			y, _ := strconv.Atoi(m[1])
			prodCols = append(prodCols, yearCol{col: col, year: y})
		}
	}
	if len(prodCols) == 0 {
		return table
	}

	melted := &models.Table{
		Name:    table.Name,
		Source:  table.Source,
		Columns: []string{"crop", "year", "production_tonnes"},
	}
	for _, row := range table.Rows {
		crop := row[cropCol]
		if crop.Missing {
			continue
		}
		for _, pc := range prodCols {
			yearRaw := strconv.Itoa(pc.year)
			melted.Rows = append(melted.Rows, models.Row{
				"crop":              models.StringValue(strings.TrimSpace(crop.Raw)),
				"year":              models.NumberValue(yearRaw, float64(pc.year)),
				"production_tonnes": row[pc.col],
			})
		}
	}
	return melted
}

// Climate temperature series publish separate annual minimum and maximum
// columns. When both are present the loader synthesizes their midpoint as
// "annual_mean_temp_c" so the schema detector can bind a single metric.
func synthesizeAnnualMean(table *models.Table) {
	minCol, maxCol := findAnnualMinMax(table.Columns)
	if minCol == "" || maxCol == "" {
		return
	}
	const meanCol = "annual_mean_temp_c"
	for _, col := range table.Columns {
		if col == meanCol {
			return
		}
	}

	table.Columns = append(table.Columns, meanCol)
	for _, row := range table.Rows {
		lo, hi := row[minCol], row[maxCol]
		if lo.Missing || hi.Missing || !lo.IsNum || !hi.IsNum {
			row[meanCol] = models.MissingValue()
			continue
		}
		mean := (lo.Num + hi.Num) / 2
		row[meanCol] = models.NumberValue(strconv.FormatFloat(mean, 'f', -1, 64), mean)
	}
}

// findAnnualMinMax locates the annual min/max temperature columns by header
// tokens: "annual"+"min" / "annual"+"max" first, then any min/max column in
// a temperature context.
func findAnnualMinMax(columns []string) (minCol, maxCol string) {
	for _, col := range columns {
		norm := schema.Normalize(col)
		if strings.Contains(norm, "annual") && strings.Contains(norm, "min") && minCol == "" {
			minCol = col
		}
		if strings.Contains(norm, "annual") && strings.Contains(norm, "max") && maxCol == "" {
			maxCol = col
		}
	}
	if minCol == "" {
		minCol = findTempColumn(columns, "min")
	}
	if maxCol == "" {
		maxCol = findTempColumn(columns, "max")
	}
	return minCol, maxCol
}

func findTempColumn(columns []string, token string) string {
	for _, col := range columns {
		norm := schema.Normalize(col)
		if !strings.Contains(norm, token) {
			continue
		}
		if strings.Contains(norm, "temp") || strings.Contains(norm, "temperature") || strings.Contains(norm, "deg") {
			return col
		}
	}
	return ""
}
