package cli

import (
	"fmt"
	"io"
	"text/template"

	apiv1 "github.com/at-ishikawa/lingochat/internal/api/v1"
	"github.com/at-ishikawa/lingochat/internal/assets"
)

// RenderTranscript executes tmpl (see assets.ParseTranscriptTemplate) for a
// conversation and its messages, oldest message first.
func RenderTranscript(w io.Writer, tmpl *template.Template, c apiv1.Conversation, messages []apiv1.Message) error {
	data := assets.Transcript{
		Title:               c.Title,
		Status:              c.Status,
		TotalExchanges:      c.TotalExchanges,
		AccuracyImprovement: c.AccuracyImprovement,
		Messages:            make([]assets.TranscriptMessage, 0, len(messages)),
	}
	for _, m := range messages {
		data.Messages = append(data.Messages, toTranscriptMessage(m))
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("tmpl.Execute() > %w", err)
	}
	return nil
}

func toTranscriptMessage(m apiv1.Message) assets.TranscriptMessage {
	result := assets.TranscriptMessage{
		IsUser:   m.IsUser,
		Language: m.Language,
		Time:     formatTime(m.Timestamp),
		Content:  m.Content,
	}
	if m.IsUser {
		return result
	}

	result.TargetLanguage = "ko"
	if m.Language == "ko" {
		result.TargetLanguage = "en"
	}
	if m.TranslatedContent != nil {
		result.Translation = *m.TranslatedContent
	}
	if fallback, _ := m.Metadata["fallback"].(bool); fallback {
		result.Notes = append(result.Notes, "fallback reply")
	}
	if confidence, ok := m.Metadata["confidence"].(float64); ok {
		result.Notes = append(result.Notes, fmt.Sprintf("confidence %.0f%%", confidence*100))
	}
	if m.FeedbackScore != nil {
		result.Notes = append(result.Notes, fmt.Sprintf("feedback %d/5", *m.FeedbackScore))
	}
	result.Notes = append(result.Notes, metadataStrings(m.Metadata["insights"])...)
	return result
}
