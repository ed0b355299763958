// Package metrics aggregates process-wide learning statistics.
package metrics

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/at-ishikawa/lingochat/internal/conversation"
	"github.com/at-ishikawa/lingochat/internal/pattern"
)

const (
	maxScore = 100.0
	// maxAccuracyStep is the exclusive upper bound of one accuracy nudge.
	maxAccuracyStep = 0.5
)

// LearningMetrics is the single process-wide rollup of learning statistics.
type LearningMetrics struct {
	TotalTranslations      int64   `yaml:"total_translations"`
	AccuracyScore          float64 `yaml:"accuracy_score"`
	ContextAccuracy        float64 `yaml:"context_accuracy"`
	LearningRate           float64 `yaml:"learning_rate"`
	PositiveFeedback       int64   `yaml:"positive_feedback"`
	NegativeFeedback       int64   `yaml:"negative_feedback"`
	ImprovementSuggestions int64   `yaml:"improvement_suggestions"`
}

// LearningPattern tracks how often and how confidently a class of input was seen.
// It is keyed by (Pattern, Category), not by ID.
type LearningPattern struct {
	ID        int64            `yaml:"id"`
	Pattern   string           `yaml:"pattern"`
	Frequency int              `yaml:"frequency"`
	Accuracy  float64          `yaml:"accuracy"`
	LastSeen  time.Time        `yaml:"last_seen"`
	Category  pattern.Category `yaml:"category"`
}

type patternKey struct {
	prefix   string
	category pattern.Category
}

// StepFunc returns the next accuracy nudge. Results are clamped to [0, 0.5).
type StepFunc func() float64

// RandomStep draws a nudge uniformly from [0, 0.5).
func RandomStep() float64 {
	return rand.Float64() * maxAccuracyStep
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithStep replaces the accuracy nudge heuristic.
func WithStep(step StepFunc) Option {
	return func(a *Aggregator) {
		a.step = step
	}
}

// WithClock replaces the time source used for LastSeen.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// Aggregator owns the learning metrics and the pattern table.
// Every method is safe for concurrent use; readers get copies.
type Aggregator struct {
	step StepFunc
	now  func() time.Time

	mu            sync.Mutex
	metrics       LearningMetrics
	patterns      map[patternKey]*LearningPattern
	nextPatternID int64
}

// NewAggregator creates an Aggregator starting from seed.
func NewAggregator(seed LearningMetrics, opts ...Option) *Aggregator {
	a := &Aggregator{
		step:          RandomStep,
		now:           time.Now,
		metrics:       sanitize(seed),
		patterns:      make(map[patternKey]*LearningPattern),
		nextPatternID: 1,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RecordTranslationEvent counts one created message and nudges the accuracy
// score upward. It returns the nudge actually applied.
func (a *Aggregator) RecordTranslationEvent() float64 {
	step := clampStep(a.step())

	a.mu.Lock()
	defer a.mu.Unlock()

	a.metrics.TotalTranslations++
	before := a.metrics.AccuracyScore
	a.metrics.AccuracyScore = math.Min(maxScore, before+step)
	return a.metrics.AccuracyScore - before
}

// RecordContextScore blends a message context score in [0,1] into ContextAccuracy.
func (a *Aggregator) RecordContextScore(score float64) {
	observed := clamp(score*maxScore, 0, maxScore)

	a.mu.Lock()
	defer a.mu.Unlock()

	a.metrics.ContextAccuracy = clamp((a.metrics.ContextAccuracy+observed)/2, 0, maxScore)
}

// RecordFeedback increments the counter for feedbackType and nothing else.
func (a *Aggregator) RecordFeedback(feedbackType conversation.FeedbackType) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch feedbackType {
	case conversation.FeedbackPositive:
		a.metrics.PositiveFeedback++
	case conversation.FeedbackNegative:
		a.metrics.NegativeFeedback++
	case conversation.FeedbackSuggestion:
		a.metrics.ImprovementSuggestions++
	default:
		return fmt.Errorf("unknown feedback type %q", feedbackType)
	}
	return nil
}

// UpsertPattern records one observation of (prefix of text, category).
//
// An existing pattern's accuracy becomes the mean of its previous accuracy and
// the new observation. This weights recent observations far more than a
// running mean would; displayed accuracy trends depend on this recurrence.
func (a *Aggregator) UpsertPattern(text string, category pattern.Category, observedAccuracy float64) LearningPattern {
	key := patternKey{prefix: pattern.Prefix(text), category: category}
	observed := clamp(observedAccuracy, 0, maxScore)
	now := a.now()

	a.mu.Lock()
	defer a.mu.Unlock()

	p, ok := a.patterns[key]
	if !ok {
		p = &LearningPattern{
			ID:        a.nextPatternID,
			Pattern:   key.prefix,
			Frequency: 1,
			Accuracy:  observed,
			LastSeen:  now,
			Category:  category,
		}
		a.patterns[key] = p
		a.nextPatternID++
		return *p
	}

	p.Frequency++
	p.Accuracy = clamp((p.Accuracy+observed)/2, 0, maxScore)
	p.LastSeen = now
	return *p
}

// Metrics returns a copy of the current metrics.
func (a *Aggregator) Metrics() LearningMetrics {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.metrics
}

// Patterns returns the pattern table, most frequent first.
func (a *Aggregator) Patterns() []LearningPattern {
	a.mu.Lock()
	result := make([]LearningPattern, 0, len(a.patterns))
	for _, p := range a.patterns {
		result = append(result, *p)
	}
	a.mu.Unlock()

	sortPatterns(result)
	return result
}

func sortPatterns(patterns []LearningPattern) {
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Frequency != patterns[j].Frequency {
			return patterns[i].Frequency > patterns[j].Frequency
		}
		if !patterns[i].LastSeen.Equal(patterns[j].LastSeen) {
			return patterns[i].LastSeen.After(patterns[j].LastSeen)
		}
		return patterns[i].ID < patterns[j].ID
	})
}

func clampStep(step float64) float64 {
	if math.IsNaN(step) || step < 0 {
		return 0
	}
	if step >= maxAccuracyStep {
		return math.Nextafter(maxAccuracyStep, 0)
	}
	return step
}

// clamp bounds v to [lo, hi]; NaN becomes lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func sanitize(m LearningMetrics) LearningMetrics {
	m.AccuracyScore = clamp(m.AccuracyScore, 0, maxScore)
	m.ContextAccuracy = clamp(m.ContextAccuracy, 0, maxScore)
	m.LearningRate = clamp(m.LearningRate, 0, maxScore)
	for _, counter := range []*int64{&m.TotalTranslations, &m.PositiveFeedback, &m.NegativeFeedback, &m.ImprovementSuggestions} {
		if *counter < 0 {
			*counter = 0
		}
	}
	return m
}
