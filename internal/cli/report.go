package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"

	apiv1 "github.com/at-ishikawa/lingochat/internal/api/v1"
)

const timeLayout = "2006-01-02 15:04"

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// accuracyColor picks green for strong scores and red for weak ones.
func accuracyColor(score float64) *color.Color {
	switch {
	case score >= 90:
		return color.New(color.FgGreen)
	case score >= 70:
		return color.New(color.FgYellow)
	}
	return color.New(color.FgRed)
}

// RenderMetrics prints the learning metrics as a two-column table followed by
// a one-line verdict.
func RenderMetrics(w io.Writer, m apiv1.LearningMetrics) error {
	t := newTable("Metric", "Value").Rows(
		[]string{"Total translations", strconv.FormatInt(m.TotalTranslations, 10)},
		[]string{"Accuracy score", formatPercent(m.AccuracyScore)},
		[]string{"Context accuracy", formatPercent(m.ContextAccuracy)},
		[]string{"Learning rate", formatPercent(m.LearningRate)},
		[]string{"Positive feedback", strconv.FormatInt(m.PositiveFeedback, 10)},
		[]string{"Negative feedback", strconv.FormatInt(m.NegativeFeedback, 10)},
		[]string{"Improvement suggestions", strconv.FormatInt(m.ImprovementSuggestions, 10)},
	)
	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	if _, err := accuracyColor(m.AccuracyScore).Fprintf(w, "Accuracy is %s\n", formatPercent(m.AccuracyScore)); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

// RenderPatterns prints learned patterns in the order they were given.
func RenderPatterns(w io.Writer, patterns []apiv1.LearningPattern) error {
	if len(patterns) == 0 {
		_, err := fmt.Fprintln(w, "No patterns learned yet.")
		return err
	}
	t := newTable("ID", "Pattern", "Category", "Frequency", "Accuracy", "Last seen")
	for _, p := range patterns {
		t.Row(
			strconv.FormatInt(p.ID, 10),
			p.Pattern,
			p.Category,
			strconv.Itoa(p.Frequency),
			formatPercent(p.Accuracy),
			formatTime(p.LastSeen),
		)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func RenderConversations(w io.Writer, conversations []apiv1.Conversation) error {
	if len(conversations) == 0 {
		_, err := fmt.Fprintln(w, "No conversations yet.")
		return err
	}
	t := newTable("ID", "Title", "Status", "Exchanges", "Improvement", "Updated")
	for _, c := range conversations {
		t.Row(
			strconv.FormatInt(c.ID, 10),
			c.Title,
			c.Status,
			strconv.Itoa(c.TotalExchanges),
			fmt.Sprintf("%+.2f", c.AccuracyImprovement),
			formatTime(c.UpdatedAt),
		)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}
