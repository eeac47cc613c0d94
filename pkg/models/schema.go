package models

// SemanticRole is the meaning a column plays in a table, independent of its
// literal header text. Heterogeneous CSV schemas spell the same role many
// ways ("State", "state_name", "St"); the schema detector maps them here.
type SemanticRole string

// Semantic role constants.
const (
	RoleState       SemanticRole = "state"
	RoleDistrict    SemanticRole = "district"
	RoleCrop        SemanticRole = "crop"
	RoleYear        SemanticRole = "year"
	RoleMetricValue SemanticRole = "metric_value"
	RoleAllIndia    SemanticRole = "all_india_flag"
)

// String returns the string representation of a SemanticRole.
func (r SemanticRole) String() string {
	return string(r)
}

// IsValid returns true if the role is one of the known semantic roles.
func (r SemanticRole) IsValid() bool {
	switch r {
	case RoleState, RoleDistrict, RoleCrop, RoleYear, RoleMetricValue, RoleAllIndia:
		return true
	default:
		return false
	}
}

// MatchConfidence indicates how a column was bound to a role.
type MatchConfidence string

// Match confidence constants, strongest first.
const (
	MatchExact      MatchConfidence = "exact"      // normalized header equals a canonical name
	MatchNormalized MatchConfidence = "normalized" // synonym or substring match on the normalized header
	MatchFallback   MatchConfidence = "fallback"   // inferred from value shape (4-digit years, numeric majority)
)

// BindingEntry binds one semantic role to a concrete column of one table.
type BindingEntry struct {
	Role       SemanticRole    `json:"role"`
	Column     string          `json:"column"`
	Confidence MatchConfidence `json:"confidence"`
}

// SchemaBinding is the full role→column mapping detected for one table.
// Roles the detector could not resolve are simply absent; callers degrade
// by omitting them from the plan and surfacing the gap in provenance.
type SchemaBinding map[SemanticRole]BindingEntry

// Column returns the bound column name for a role, or false when the role
// was not resolved for this table.
func (b SchemaBinding) Column(role SemanticRole) (string, bool) {
	e, ok := b[role]
	if !ok {
		return "", false
	}
	return e.Column, true
}
