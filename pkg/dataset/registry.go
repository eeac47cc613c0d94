// Package dataset holds the process-wide registry of loaded tables.
package dataset

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/samarth-labs/samarth-engine/pkg/apperrors"
	"github.com/samarth-labs/samarth-engine/pkg/models"
	"github.com/samarth-labs/samarth-engine/pkg/schema"
)

// Registry owns the loaded tables, keyed by logical dataset name, and caches
// the detected schema binding and observed vocabularies per dataset.
//
// Tables are registered once at process start and read-only afterwards.
// Binding and vocabulary caches are populated lazily on first access; the
// RWMutex guard only avoids duplicate detection work; recomputing the same
// deterministic binding twice would be harmless.
type Registry struct {
	detector *schema.Detector
	logger   *zap.Logger

	mu       sync.RWMutex
	tables   map[string]*models.Table
	bindings map[string]models.SchemaBinding
	vocab    map[string]map[models.SemanticRole][]string
}

// NewRegistry creates an empty registry. Pass nil logger to disable logging.
func NewRegistry(detector *schema.Detector, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		detector: detector,
		logger:   logger,
		tables:   make(map[string]*models.Table),
		bindings: make(map[string]models.SchemaBinding),
		vocab:    make(map[string]map[models.SemanticRole][]string),
	}
}

// Register adds a table under a logical dataset name. Re-registering a name
// replaces the table and invalidates its cached binding and vocabularies.
func (r *Registry) Register(name string, table *models.Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[name] = table
	delete(r.bindings, name)
	delete(r.vocab, name)
	r.logger.Info("Registered dataset",
		zap.String("dataset", name),
		zap.Int("rows", len(table.Rows)),
		zap.Int("columns", len(table.Columns)))
}

// Get returns the table registered under name.
func (r *Registry) Get(name string) (*models.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[name]
	if !ok {
		return nil, &apperrors.DatasetNotFoundError{Dataset: name}
	}
	return t, nil
}

// Names returns the registered dataset names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bindings returns the detected schema binding for a dataset, computing and
// memoizing it on first access.
func (r *Registry) Bindings(name string) (models.SchemaBinding, error) {
	r.mu.RLock()
	if b, ok := r.bindings[name]; ok {
		r.mu.RUnlock()
		return b, nil
	}
	table, ok := r.tables[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &apperrors.DatasetNotFoundError{Dataset: name}
	}

	binding := r.detector.DetectAll(table)

	r.mu.Lock()
	r.bindings[name] = binding
	r.mu.Unlock()

	r.logger.Debug("Detected schema binding",
		zap.String("dataset", name),
		zap.Int("roles_bound", len(binding)))
	return binding, nil
}

// DistinctValues returns the distinct values of the column bound to role, in
// first-appearance order with surrounding whitespace trimmed. An unresolved
// role yields an empty slice, not an error; the classifier treats it as an
// empty vocabulary.
func (r *Registry) DistinctValues(name string, role models.SemanticRole) ([]string, error) {
	r.mu.RLock()
	cached, ok := r.vocab[name]
	r.mu.RUnlock()
	if ok {
		if vals, ok := cached[role]; ok {
			return vals, nil
		}
	}

	table, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	binding, err := r.Bindings(name)
	if err != nil {
		return nil, err
	}

	var vals []string
	if col, bound := binding.Column(role); bound {
		seen := make(map[string]bool)
		for _, row := range table.Rows {
			v := row[col]
			if v.Missing {
				continue
			}
			s := strings.TrimSpace(v.Raw)
			key := strings.ToLower(s)
			if s == "" || seen[key] {
				continue
			}
			seen[key] = true
			vals = append(vals, s)
		}
	}

	r.mu.Lock()
	if r.vocab[name] == nil {
		r.vocab[name] = make(map[models.SemanticRole][]string)
	}
	r.vocab[name][role] = vals
	r.mu.Unlock()
	return vals, nil
}

// MaxYear returns the maximum observed year in the dataset's year column.
// The second return is false when the dataset has no resolvable year column
// or no parseable year values.
func (r *Registry) MaxYear(name string) (int, bool) {
	table, err := r.Get(name)
	if err != nil {
		return 0, false
	}
	binding, err := r.Bindings(name)
	if err != nil {
		return 0, false
	}
	col, ok := binding.Column(models.RoleYear)
	if !ok {
		return 0, false
	}

	max, found := 0, false
	for _, row := range table.Rows {
		v := row[col]
		if v.Missing || !v.IsNum {
			continue
		}
		y := int(v.Num)
		if y > max {
			max, found = y, true
		}
	}
	return max, found
}
