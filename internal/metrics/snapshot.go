package metrics

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/at-ishikawa/lingochat/internal/pattern"
)

// Snapshot is the persisted form of an Aggregator.
type Snapshot struct {
	Metrics  LearningMetrics   `yaml:"metrics"`
	Patterns []LearningPattern `yaml:"patterns"`
}

// Snapshot returns a consistent copy of the metrics and pattern table.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	s := Snapshot{
		Metrics:  a.metrics,
		Patterns: make([]LearningPattern, 0, len(a.patterns)),
	}
	for _, p := range a.patterns {
		s.Patterns = append(s.Patterns, *p)
	}
	a.mu.Unlock()

	sortPatterns(s.Patterns)
	return s
}

// Restore replaces the aggregator state with s.
// Pattern texts are cut to the same prefix UpsertPattern keys on, and entries
// sharing a (prefix, category) key collapse into the later one.
func (a *Aggregator) Restore(s Snapshot) {
	patterns := make(map[patternKey]*LearningPattern, len(s.Patterns))
	var maxID int64
	for _, p := range s.Patterns {
		p.Pattern = pattern.Prefix(p.Pattern)
		p.Accuracy = clamp(p.Accuracy, 0, maxScore)
		if p.Frequency < 1 {
			p.Frequency = 1
		}
		patterns[patternKey{prefix: p.Pattern, category: p.Category}] = &p
		if p.ID > maxID {
			maxID = p.ID
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.metrics = sanitize(s.Metrics)
	a.patterns = patterns
	a.nextPatternID = maxID + 1
}

// SaveSnapshot writes the current state to path as YAML.
func (a *Aggregator) SaveSnapshot(path string) error {
	data, err := yaml.Marshal(a.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal metrics snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write metrics snapshot %s: %w", path, err)
	}
	return nil
}

// LoadSnapshot restores state from a YAML file written by SaveSnapshot.
// It reports false without error when the file does not exist.
func (a *Aggregator) LoadSnapshot(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Default().Debug("metrics snapshot not found", "path", path)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read metrics snapshot %s: %w", path, err)
	}

	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return false, fmt.Errorf("unmarshal metrics snapshot %s: %w", path, err)
	}
	a.Restore(s)
	slog.Default().Info("restored metrics snapshot",
		"path", path,
		"totalTranslations", s.Metrics.TotalTranslations,
		"patterns", len(s.Patterns))
	return true, nil
}
