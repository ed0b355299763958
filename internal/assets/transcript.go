package assets

// Transcript is the data passed to the transcript template.
type Transcript struct {
	Title               string
	Status              string
	TotalExchanges      int
	AccuracyImprovement float64
	Messages            []TranscriptMessage
}

type TranscriptMessage struct {
	IsUser         bool
	Language       string
	TargetLanguage string // empty for user messages
	Time           string
	Content        string
	Translation    string
	Notes          []string
}
