package metrics

import (
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/lingochat/internal/conversation"
	"github.com/at-ishikawa/lingochat/internal/pattern"
)

var defaultSeed = LearningMetrics{
	AccuracyScore:   85,
	ContextAccuracy: 80,
	LearningRate:    10,
}

func fixedStep(v float64) StepFunc {
	return func() float64 { return v }
}

func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Minute)
		return current
	}
}

func TestAggregator_RecordTranslationEvent(t *testing.T) {
	tests := []struct {
		name         string
		seed         float64
		step         float64
		wantAccuracy float64
		wantDelta    float64
	}{
		{name: "regular nudge", seed: 85, step: 0.25, wantAccuracy: 85.25, wantDelta: 0.25},
		{name: "zero nudge", seed: 85, step: 0, wantAccuracy: 85, wantDelta: 0},
		{name: "capped at 100", seed: 99.9, step: 0.4, wantAccuracy: 100, wantDelta: 0.1},
		{name: "already at 100", seed: 100, step: 0.3, wantAccuracy: 100, wantDelta: 0},
		{name: "negative heuristic is ignored", seed: 50, step: -3, wantAccuracy: 50, wantDelta: 0},
		{name: "NaN heuristic is ignored", seed: 50, step: math.NaN(), wantAccuracy: 50, wantDelta: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAggregator(LearningMetrics{AccuracyScore: tt.seed}, WithStep(fixedStep(tt.step)))

			delta := a.RecordTranslationEvent()

			got := a.Metrics()
			assert.Equal(t, int64(1), got.TotalTranslations)
			assert.InDelta(t, tt.wantAccuracy, got.AccuracyScore, 1e-9)
			assert.InDelta(t, tt.wantDelta, delta, 1e-9)
		})
	}

	t.Run("oversized heuristic stays below the step bound", func(t *testing.T) {
		a := NewAggregator(LearningMetrics{AccuracyScore: 10}, WithStep(fixedStep(7)))
		delta := a.RecordTranslationEvent()
		assert.Less(t, delta, 0.5)
		assert.Greater(t, delta, 0.49)
	})
}

func TestAggregator_AccuracyIsMonotonicAndBounded(t *testing.T) {
	a := NewAggregator(defaultSeed)

	previous := a.Metrics().AccuracyScore
	for i := 0; i < 1000; i++ {
		a.RecordTranslationEvent()
		current := a.Metrics().AccuracyScore
		require.GreaterOrEqual(t, current, previous)
		require.LessOrEqual(t, current, 100.0)
		previous = current
	}
	assert.Equal(t, 100.0, previous)
	assert.Equal(t, int64(1000), a.Metrics().TotalTranslations)
}

func TestAggregator_RecordContextScore(t *testing.T) {
	a := NewAggregator(defaultSeed)

	a.RecordContextScore(1.0)
	assert.InDelta(t, 90, a.Metrics().ContextAccuracy, 1e-9)

	a.RecordContextScore(0.6)
	assert.InDelta(t, 75, a.Metrics().ContextAccuracy, 1e-9)

	a.RecordContextScore(math.NaN())
	assert.InDelta(t, 37.5, a.Metrics().ContextAccuracy, 1e-9)
}

func TestAggregator_RecordFeedback(t *testing.T) {
	a := NewAggregator(defaultSeed)

	require.NoError(t, a.RecordFeedback(conversation.FeedbackPositive))
	require.NoError(t, a.RecordFeedback(conversation.FeedbackPositive))
	require.NoError(t, a.RecordFeedback(conversation.FeedbackNegative))
	require.NoError(t, a.RecordFeedback(conversation.FeedbackSuggestion))
	assert.Error(t, a.RecordFeedback(conversation.FeedbackType("neutral")))

	got := a.Metrics()
	assert.Equal(t, int64(2), got.PositiveFeedback)
	assert.Equal(t, int64(1), got.NegativeFeedback)
	assert.Equal(t, int64(1), got.ImprovementSuggestions)
	assert.Equal(t, defaultSeed.AccuracyScore, got.AccuracyScore)
	assert.Zero(t, got.TotalTranslations)
}

func TestAggregator_UpsertPattern(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := NewAggregator(defaultSeed, WithClock(stepClock(start)))

	first := a.UpsertPattern("회의 일정 변경해야 할 것 같아요", pattern.CategoryBusiness, 80)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, 1, first.Frequency)
	assert.Equal(t, 80.0, first.Accuracy)
	assert.Equal(t, "회의 일정 변경해야 할 것 같아요", first.Pattern)

	second := a.UpsertPattern("회의 일정 변경해야 할 것 같아요", pattern.CategoryBusiness, 90)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Frequency)
	assert.InDelta(t, 85, second.Accuracy, 1e-9)
	assert.True(t, second.LastSeen.After(first.LastSeen))

	third := a.UpsertPattern("회의 일정 변경해야 할 것 같아요", pattern.CategoryBusiness, 100)
	assert.Equal(t, 3, third.Frequency)
	// ((80+90)/2 + 100)/2
	assert.InDelta(t, 92.5, third.Accuracy, 1e-9)

	other := a.UpsertPattern("회의 일정 변경해야 할 것 같아요", pattern.CategoryQuestion, 70)
	assert.Equal(t, int64(2), other.ID)
	assert.Equal(t, 1, other.Frequency)

	assert.Len(t, a.Patterns(), 2)
}

func TestAggregator_UpsertPattern_KeysOnPrefix(t *testing.T) {
	a := NewAggregator(defaultSeed)

	base := "The quarterly project report covers every milestone we planned"
	a.UpsertPattern(base, pattern.CategoryBusiness, 90)
	got := a.UpsertPattern(base+" and then some more words", pattern.CategoryBusiness, 90)

	assert.Equal(t, 2, got.Frequency)
	assert.Equal(t, pattern.Prefix(base), got.Pattern)
	assert.Len(t, []rune(got.Pattern), pattern.PrefixLength)
}

func TestAggregator_Patterns_Order(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := NewAggregator(defaultSeed, WithClock(stepClock(start)))

	a.UpsertPattern("hello", pattern.CategoryCasual, 100)
	a.UpsertPattern("deploy the server", pattern.CategoryTechnical, 100)
	a.UpsertPattern("deploy the server", pattern.CategoryTechnical, 100)
	a.UpsertPattern("what time", pattern.CategoryQuestion, 100)

	got := a.Patterns()
	require.Len(t, got, 3)
	assert.Equal(t, "deploy the server", got[0].Pattern)
	// equal frequency: most recently seen first
	assert.Equal(t, "what time", got[1].Pattern)
	assert.Equal(t, "hello", got[2].Pattern)
}

func TestAggregator_Concurrent(t *testing.T) {
	a := NewAggregator(defaultSeed, WithStep(fixedStep(0.01)))

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a.RecordTranslationEvent()
			a.RecordContextScore(0.9)
			a.UpsertPattern("same text", pattern.CategoryGeneral, 90)
			if i%2 == 0 {
				assert.NoError(t, a.RecordFeedback(conversation.FeedbackPositive))
			}
			_ = a.Metrics()
			_ = a.Patterns()
		}(i)
	}
	wg.Wait()

	got := a.Metrics()
	assert.Equal(t, int64(n), got.TotalTranslations)
	assert.Equal(t, int64(n/2), got.PositiveFeedback)
	assert.InDelta(t, 85+n*0.01, got.AccuracyScore, 1e-6)

	patterns := a.Patterns()
	require.Len(t, patterns, 1)
	assert.Equal(t, n, patterns[0].Frequency)
	assert.InDelta(t, 90, patterns[0].Accuracy, 1e-9)
}

func TestNewAggregator_SanitizesSeed(t *testing.T) {
	a := NewAggregator(LearningMetrics{AccuracyScore: 140, ContextAccuracy: -5, TotalTranslations: -1})

	got := a.Metrics()
	assert.Equal(t, 100.0, got.AccuracyScore)
	assert.Equal(t, 0.0, got.ContextAccuracy)
	assert.Zero(t, got.TotalTranslations)
}

func TestAggregator_SnapshotRoundTrip(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := NewAggregator(defaultSeed, WithStep(fixedStep(0.25)), WithClock(stepClock(start)))
	a.RecordTranslationEvent()
	require.NoError(t, a.RecordFeedback(conversation.FeedbackNegative))
	a.UpsertPattern("hello", pattern.CategoryCasual, 90)
	a.UpsertPattern("hello", pattern.CategoryCasual, 70)
	a.UpsertPattern("deploy", pattern.CategoryTechnical, 100)

	path := filepath.Join(t.TempDir(), "metrics.yml")
	require.NoError(t, a.SaveSnapshot(path))

	restored := NewAggregator(LearningMetrics{}, WithClock(stepClock(start.Add(time.Hour))))
	ok, err := restored.LoadSnapshot(path)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, a.Metrics(), restored.Metrics())
	assert.Equal(t, a.Patterns(), restored.Patterns())

	// New patterns continue after the highest restored ID.
	next := restored.UpsertPattern("brand new", pattern.CategoryGeneral, 50)
	assert.Equal(t, int64(3), next.ID)
	// Existing keys keep accumulating.
	hello := restored.UpsertPattern("hello", pattern.CategoryCasual, 100)
	assert.Equal(t, 3, hello.Frequency)
}

func TestAggregator_Restore_MergesLongPatterns(t *testing.T) {
	long := "The quarterly project report covers every milestone we planned for this year"
	a := NewAggregator(defaultSeed)
	a.Restore(Snapshot{
		Metrics: defaultSeed,
		Patterns: []LearningPattern{
			{ID: 7, Pattern: long, Frequency: 4, Accuracy: 80, Category: pattern.CategoryBusiness},
		},
	})

	restored := a.Patterns()
	require.Len(t, restored, 1)
	assert.Equal(t, pattern.Prefix(long), restored[0].Pattern)

	got := a.UpsertPattern(long, pattern.CategoryBusiness, 100)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, 5, got.Frequency)
	assert.InDelta(t, 90, got.Accuracy, 1e-9)
	assert.Len(t, a.Patterns(), 1)
}

func TestAggregator_LoadSnapshot(t *testing.T) {
	t.Run("missing file is not an error", func(t *testing.T) {
		a := NewAggregator(defaultSeed)
		ok, err := a.LoadSnapshot(filepath.Join(t.TempDir(), "missing.yml"))
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, defaultSeed, a.Metrics())
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "metrics.yml")
		require.NoError(t, os.WriteFile(path, []byte("metrics: [oops"), 0644))

		a := NewAggregator(defaultSeed)
		_, err := a.LoadSnapshot(path)
		assert.Error(t, err)
		assert.Equal(t, defaultSeed, a.Metrics())
	})
}
