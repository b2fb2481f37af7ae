package report

import "time"

// Submission asks for one text to be analyzed. It is the POST body of the
// HTTP API and the message value on the submissions topic.
type Submission struct {
	Title           string `json:"title"`
	Text            string `json:"text"`
	TopWords        *int   `json:"top_words,omitempty"`
	SectionTopWords *int   `json:"section_top_words,omitempty"`
	StripHTML       *bool  `json:"strip_html,omitempty"`
}

// Source names where a submission came from in logs, events and metrics.
type Source string

const (
	SourceHTTP  Source = "http"
	SourceKafka Source = "kafka"
	SourceCLI   Source = "cli"
)

// CompletedEvent is published after a report has been produced.
type CompletedEvent struct {
	ReportID    string    `json:"report_id"`
	Title       string    `json:"title"`
	Source      Source    `json:"source"`
	Words       int       `json:"words"`
	UniqueWords int       `json:"unique_words"`
	Sentences   int       `json:"sentences"`
	Sections    int       `json:"sections"`
	Cached      bool      `json:"cached"`
	DurationMs  float64   `json:"duration_ms"`
	RequestID   string    `json:"request_id,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}
