// Package schema detects the semantic roles of columns in loaded tables.
//
// Agriculture and climate CSVs published by different ministries rarely agree
// on header spelling ("State", "state_name", "St"; "Crops", "Commodity").
// The detector maps headers to semantic roles through an ordered chain of
// matcher strategies: exact canonical name, synonym, substring containment,
// and finally value-shape inference. Earlier strategies win; within a
// strategy the left-most column wins, which keeps detection deterministic.
package schema

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/samarth-labs/samarth-engine/pkg/apperrors"
	"github.com/samarth-labs/samarth-engine/pkg/models"
)

// Plausible year bounds for value-shape inference.
const (
	minPlausibleYear = 1900
	maxPlausibleYear = 2100
)

// canonicalNames are the normalized header names that exactly identify a role.
var canonicalNames = map[models.SemanticRole][]string{
	models.RoleState:       {"state", "region", "subdivision"},
	models.RoleDistrict:    {"district"},
	models.RoleCrop:        {"crop", "commodity"},
	models.RoleYear:        {"year", "yr"},
	models.RoleMetricValue: {"production", "production tonnes", "yield", "quantity", "value", "annual mean temp c", "annual rainfall mm", "rainfall mm", "cost"},
	models.RoleAllIndia:    {"all india", "india"},
}

// synonyms map normalized header spellings to their canonical name.
var synonyms = map[string]string{
	"state name":           "state",
	"st":                   "state",
	"state ut":             "state",
	"district name":        "district",
	"crops":                "crop",
	"crop name":            "crop",
	"crops name":           "crop",
	"financial year":       "year",
	"reporting year":       "year",
	"production in tonnes": "production",
	"annual temp":          "annual mean temp c",
	"annual mean temp":     "annual mean temp c",
	"mean temp c":          "annual mean temp c",
}

var punctRe = regexp.MustCompile(`[-_/\\(),.]+`)
var spaceRe = regexp.MustCompile(`\s+`)

// Normalize lower-cases a header, replaces punctuation with spaces and
// collapses whitespace, then folds known synonym spellings onto their
// canonical name.
func Normalize(header string) string {
	s := strings.TrimSpace(strings.ToLower(header))
	s = punctRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
	if canon, ok := synonyms[s]; ok {
		return canon
	}
	return s
}

// CanonicalNames returns the normalized header names that identify a role.
// The planner uses them to report what was attempted when a binding is
// missing.
func CanonicalNames(role models.SemanticRole) []string {
	names := canonicalNames[role]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Detector resolves semantic roles against table columns.
type Detector struct{}

// NewDetector creates a Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect finds the best-matching column of the table for one role.
// Returns a RoleUnresolvedError (matching apperrors.ErrSchemaRoleUnresolved)
// when no heuristic applies; callers degrade by omitting the role and
// surfacing the gap in provenance.
func (d *Detector) Detect(table *models.Table, role models.SemanticRole) (models.BindingEntry, error) {
	return d.detect(table, role, nil)
}

// DetectAll resolves every semantic role the table supports. Roles that
// cannot be resolved are absent from the returned binding. The metric-value
// fallback never claims a column already bound to another role.
func (d *Detector) DetectAll(table *models.Table) models.SchemaBinding {
	binding := make(models.SchemaBinding)
	taken := make(map[string]bool)

	// Name-based roles first so the value-shape fallbacks below cannot steal
	// their columns.
	order := []models.SemanticRole{
		models.RoleState,
		models.RoleDistrict,
		models.RoleCrop,
		models.RoleAllIndia,
		models.RoleYear,
		models.RoleMetricValue,
	}
	for _, role := range order {
		entry, err := d.detect(table, role, taken)
		if err != nil {
			continue
		}
		binding[role] = entry
		taken[entry.Column] = true
	}
	return binding
}

func (d *Detector) detect(table *models.Table, role models.SemanticRole, taken map[string]bool) (models.BindingEntry, error) {
	canon := canonicalNames[role]

	normalized := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		normalized[i] = Normalize(col)
	}

	// 1. Exact normalized match.
	for i, norm := range normalized {
		if taken[table.Columns[i]] {
			continue
		}
		for _, name := range canon {
			if norm == name {
				return models.BindingEntry{Role: role, Column: table.Columns[i], Confidence: models.MatchExact}, nil
			}
		}
	}

	// 2. Substring containment on the normalized header.
	for i, norm := range normalized {
		if taken[table.Columns[i]] {
			continue
		}
		for _, name := range canon {
			if strings.Contains(norm, name) {
				return models.BindingEntry{Role: role, Column: table.Columns[i], Confidence: models.MatchNormalized}, nil
			}
		}
	}

	// 3. Value-shape fallback for year and metric roles.
	switch role {
	case models.RoleYear:
		for _, col := range table.Columns {
			if taken[col] {
				continue
			}
			if columnLooksLikeYears(table, col) {
				return models.BindingEntry{Role: role, Column: col, Confidence: models.MatchFallback}, nil
			}
		}
	case models.RoleMetricValue:
		for _, col := range table.Columns {
			if taken[col] {
				continue
			}
			if columnMostlyNumeric(table, col) && !columnLooksLikeYears(table, col) {
				return models.BindingEntry{Role: role, Column: col, Confidence: models.MatchFallback}, nil
			}
		}
	}

	return models.BindingEntry{}, &apperrors.RoleUnresolvedError{
		Role:    role.String(),
		Dataset: table.Name,
		Tried:   canon,
	}
}

// columnLooksLikeYears reports whether a majority of the column's non-missing
// values parse as 4-digit integers in a plausible year range.
func columnLooksLikeYears(table *models.Table, col string) bool {
	total, years := 0, 0
	for _, row := range table.Rows {
		v, ok := row[col]
		if !ok || v.Missing {
			continue
		}
		total++
		if y, ok := parseYear(v); ok && y >= minPlausibleYear && y <= maxPlausibleYear {
			years++
		}
	}
	return total > 0 && years*2 > total
}

// columnMostlyNumeric reports whether a majority of the column's non-missing
// values are numeric.
func columnMostlyNumeric(table *models.Table, col string) bool {
	total, nums := 0, 0
	for _, row := range table.Rows {
		v, ok := row[col]
		if !ok || v.Missing {
			continue
		}
		total++
		if v.IsNum {
			nums++
		}
	}
	return total > 0 && nums*2 > total
}

func parseYear(v models.Value) (int, bool) {
	if v.IsNum {
		y := int(v.Num)
		if float64(y) == v.Num {
			return y, true
		}
		return 0, false
	}
	s := strings.TrimSpace(v.Raw)
	if len(s) != 4 {
		return 0, false
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return y, true
}
