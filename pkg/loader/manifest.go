package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/samarth-labs/samarth-engine/pkg/dataset"
)

// ManifestFile is the file name the loader looks for in the data directory.
const ManifestFile = "datasets.yaml"

// Manifest describes which CSV files to load and which question subjects
// each dataset answers.
type Manifest struct {
	Datasets []ManifestEntry `yaml:"datasets"`
}

// ManifestEntry binds one logical dataset to a file and its subjects.
type ManifestEntry struct {
	// Name is the logical dataset name used by the planner and provenance.
	Name string `yaml:"name"`
	// Match is a case-insensitive substring of the CSV file name. The
	// published file names are long and versioned, so substring discovery
	// beats exact paths.
	Match string `yaml:"match"`
	// Subjects are the question keywords that select this dataset.
	Subjects []string `yaml:"subjects"`
}

// LoadDir reads the manifest in dir, discovers and loads each dataset CSV,
// registers the tables, and returns the subject→dataset association for the
// planner. A manifest entry whose file is missing is logged and skipped: the
// dataset is simply absent and questions about it fail with DatasetNotFound.
func (l *Loader) LoadDir(dir string, registry *dataset.Registry) (map[string]string, error) {
	raw, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(manifest.Datasets) == 0 {
		return nil, fmt.Errorf("manifest %s lists no datasets", ManifestFile)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	subjects := make(map[string]string)
	loaded := 0
	for _, entry := range manifest.Datasets {
		path := findFile(dir, entries, entry.Match)
		if path == "" {
			l.logger.Warn("No file matches manifest entry, skipping dataset",
				zap.String("dataset", entry.Name),
				zap.String("match", entry.Match))
			continue
		}
		table, err := l.LoadCSV(entry.Name, path)
		if err != nil {
			l.logger.Warn("Failed to load dataset, skipping",
				zap.String("dataset", entry.Name),
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		registry.Register(entry.Name, table)
		for _, s := range entry.Subjects {
			subjects[strings.ToLower(s)] = entry.Name
		}
		loaded++
	}
	if loaded == 0 {
		return nil, fmt.Errorf("no datasets could be loaded from %s", dir)
	}
	return subjects, nil
}

// findFile returns the first file in dir whose name contains match,
// case-insensitively.
func findFile(dir string, entries []os.DirEntry, match string) string {
	needle := strings.ToLower(match)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.Contains(strings.ToLower(e.Name()), needle) {
			return filepath.Join(dir, e.Name())
		}
	}
	return ""
}
