// Package loader reads dataset CSV files into the core's table shape.
//
// The engine itself only requires a models.Table; everything here (file
// discovery, encoding fallbacks, type coercion, reshaping government
// wide-format exports) is boundary work kept out of the core packages.
package loader

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/samarth-labs/samarth-engine/pkg/models"
)

// missingTokens are cell spellings treated as absent values.
var missingTokens = map[string]bool{
	"": true, "na": true, "n/a": true, "nan": true, "-": true, "null": true,
}

// Loader reads CSV files into tables.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a Loader. Pass nil logger to disable logging.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// LoadCSV reads one CSV file into a table named after the file. Files that
// are not valid UTF-8 are re-decoded as Latin-1, which covers the older
// ministry exports. Wide year-per-column production sheets are melted to
// long form and climate min/max series get a synthesized annual mean column.
func (l *Loader) LoadCSV(name, path string) (*models.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		decoded, derr := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if derr != nil {
			return nil, fmt.Errorf("decode %s as latin-1: %w", path, derr)
		}
		l.logger.Debug("Re-decoded CSV as latin-1", zap.String("path", path))
		data = decoded
	}

	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1 // ragged rows are padded below

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("parse %s: no header row", path)
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	table := &models.Table{
		Name:    name,
		Source:  filepath.Base(path),
		Columns: headers,
	}
	for _, record := range records[1:] {
		row := make(models.Row, len(headers))
		for i, col := range headers {
			if i < len(record) {
				row[col] = ParseCell(record[i])
			} else {
				row[col] = models.MissingValue()
			}
		}
		table.Rows = append(table.Rows, row)
	}

	table = meltWideProduction(table)
	synthesizeAnnualMean(table)

	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	l.logger.Info("Loaded CSV",
		zap.String("dataset", name),
		zap.String("file", table.Source),
		zap.Int("rows", len(table.Rows)))
	return table, nil
}

// ParseCell coerces a raw CSV cell: missing tokens become missing values,
// numbers (with thousands separators) become numeric cells, everything else
// stays a string.
func ParseCell(raw string) models.Value {
	s := strings.TrimSpace(raw)
	if missingTokens[strings.ToLower(s)] {
		return models.MissingValue()
	}
	numeric := strings.ReplaceAll(s, ",", "")
	if n, err := strconv.ParseFloat(numeric, 64); err == nil {
		return models.NumberValue(s, n)
	}
	return models.StringValue(s)
}
