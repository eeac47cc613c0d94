package models

import "fmt"

// Intent is the high-level operation category of a question. It determines
// which plan shape the planner builds.
type Intent string

// Intent constants. When several keyword rules match one question, the
// classifier resolves them in this priority order: compare > top_n > trend >
// lookup_extreme > list_entities.
const (
	IntentListEntities  Intent = "list_entities"
	IntentCompare       Intent = "compare"
	IntentTopN          Intent = "top_n"
	IntentTrend         Intent = "trend"
	IntentLookupExtreme Intent = "lookup_extreme"
	IntentUnrecognized  Intent = "unrecognized"
)

// String returns the string representation of an Intent.
func (i Intent) String() string {
	return string(i)
}

// ExtremeDirection is the superlative direction of a lookup-extreme question.
type ExtremeDirection string

// Extreme direction constants.
const (
	ExtremeNone ExtremeDirection = ""
	ExtremeMax  ExtremeDirection = "max"
	ExtremeMin  ExtremeDirection = "min"
)

// LastNDefault marks a relative year range with no explicit count ("recent
// years"); the planner substitutes its configured default span.
const LastNDefault = -1

// YearRange is an inclusive span of years. The zero value means "no explicit
// range" and planners expand it to the full available range.
type YearRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// IsZero returns true when no explicit range was extracted.
func (r YearRange) IsZero() bool {
	return r.Start == 0 && r.End == 0
}

// String formats the range as "start-end".
func (r YearRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// EntitySlots holds the structured values extracted from a question.
// Extraction is best-effort: empty locations mean an All-India scope, a zero
// year range means the full available range.
type EntitySlots struct {
	// Locations are state/district names matched against observed dataset
	// values, in question order.
	Locations []string `json:"locations,omitempty"`

	// Subjects are crop names or topical keywords ("temperature", "rainfall"),
	// in question order.
	Subjects []string `json:"subjects,omitempty"`

	// Years is an explicit year range ("between 2001 and 2010", "in 2019").
	Years YearRange `json:"years"`

	// LastN is set for relative ranges ("last 5 years", "last decade") and is
	// resolved against the selected dataset's maximum observed year during
	// planning.
	LastN int `json:"last_n,omitempty"`

	// TopN is the requested ranking size, 0 when unspecified.
	TopN int `json:"top_n,omitempty"`

	// Extreme is the superlative direction for lookup-extreme questions.
	Extreme ExtremeDirection `json:"extreme,omitempty"`

	// ListRole is the role whose distinct values a list-entities question
	// asks for (state or crop).
	ListRole SemanticRole `json:"list_role,omitempty"`
}
