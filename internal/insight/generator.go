// Package insight derives context scores and learning insights for new messages.
package insight

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/at-ishikawa/lingochat/internal/conversation"
	"github.com/at-ishikawa/lingochat/internal/pattern"
)

const (
	// UserScore is the score of user-authored messages, which are treated as ground truth.
	UserScore = 1.0
	// MinGeneratedScore and MaxGeneratedScore bound the score of generated messages.
	MinGeneratedScore = 0.6
	MaxGeneratedScore = 0.99

	// WindowSize is how many recent history messages the insights look at.
	WindowSize = 3
	// LongContextThreshold is the history length above which a conversation counts as long.
	LongContextThreshold = 5

	InsightLongContext    = "long conversation context"
	InsightLanguageSwitch = "language switch detected"
	InsightBasic          = "basic pattern learning"
)

// DominantCategoryInsight is the insight reported when category recurs in the window.
func DominantCategoryInsight(category pattern.Category) string {
	return fmt.Sprintf("recurring %s topic", category)
}

// ScoreFunc scores a generated message. Results are clamped to the generated range.
type ScoreFunc func(text string) float64

// RandomScore draws a score uniformly from the generated range.
func RandomScore(string) float64 {
	return MinGeneratedScore + rand.Float64()*(MaxGeneratedScore-MinGeneratedScore)
}

// Result is the outcome of Derive.
type Result struct {
	Score    float64
	Insights []string
}

// Generator derives a Result from a new message and its conversation history.
type Generator struct {
	score ScoreFunc
}

// NewGenerator creates a Generator. A nil score uses RandomScore.
func NewGenerator(score ScoreFunc) *Generator {
	if score == nil {
		score = RandomScore
	}
	return &Generator{score: score}
}

// Derive scores text and reports insights over history, which must be ordered
// oldest first. Insights is never empty.
func (g *Generator) Derive(text string, isUser bool, history []conversation.Message) Result {
	score := UserScore
	if !isUser {
		score = clampGenerated(g.score(text))
	}
	return Result{
		Score:    score,
		Insights: insights(history),
	}
}

func insights(history []conversation.Message) []string {
	start := max(0, len(history)-WindowSize)
	window := history[start:]

	var result []string
	if len(history) > LongContextThreshold {
		result = append(result, InsightLongContext)
	}
	if category, ok := recurringCategory(window); ok {
		result = append(result, DominantCategoryInsight(category))
	}
	for i := start; i < len(history); i++ {
		if i > 0 && history[i].Language != history[i-1].Language {
			result = append(result, InsightLanguageSwitch)
			break
		}
	}

	if len(result) == 0 {
		return []string{InsightBasic}
	}
	return result
}

// recurringCategory returns the first dominant category that occurs more than once in window.
func recurringCategory(window []conversation.Message) (pattern.Category, bool) {
	counts := make(map[pattern.Category]int, len(window))
	var order []pattern.Category
	for _, m := range window {
		c := pattern.Classify(m.Content).Dominant
		if counts[c] == 0 {
			order = append(order, c)
		}
		counts[c]++
	}
	for _, c := range order {
		if counts[c] > 1 {
			return c, true
		}
	}
	return "", false
}

func clampGenerated(score float64) float64 {
	if math.IsNaN(score) {
		return MinGeneratedScore
	}
	return math.Max(MinGeneratedScore, math.Min(MaxGeneratedScore, score))
}
