package report

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	apperrors "github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/errors"
)

const (
	maxTitleLength = 1024
	maxTopWords    = 1000
)

// ValidationError maps each rejected field to the reason.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidInput
}

// Validate checks a submission against the size limits. maxTextBytes <= 0
// disables the text length check.
func Validate(sub *Submission, maxTextBytes int) error {
	errs := make(map[string]string)

	if utf8.RuneCountInString(sub.Title) > maxTitleLength {
		errs["title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	}
	switch {
	case strings.TrimSpace(sub.Text) == "":
		errs["text"] = "text is required and must not be blank"
	case maxTextBytes > 0 && len(sub.Text) > maxTextBytes:
		errs["text"] = fmt.Sprintf("text must be at most %d bytes", maxTextBytes)
	case !utf8.ValidString(sub.Text):
		errs["text"] = "text must be valid UTF-8"
	}
	checkTopN(errs, "top_words", sub.TopWords)
	checkTopN(errs, "section_top_words", sub.SectionTopWords)

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func checkTopN(errs map[string]string, field string, n *int) {
	if n != nil && (*n < 0 || *n > maxTopWords) {
		errs[field] = fmt.Sprintf("%s must be between 0 and %d", field, maxTopWords)
	}
}
