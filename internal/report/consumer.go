package report

import (
	"context"
	"errors"

	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/logger"
)

// HandleSubmission analyzes Submission messages from the submissions topic.
// Undecodable and invalid submissions are skipped; any other failure leaves
// the message uncommitted for redelivery. The message key, when present,
// becomes the request ID of the analysis.
func HandleSubmission(s *Service) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		sub, err := kafka.DecodeJSON[Submission](value)
		if err != nil {
			return err
		}
		if len(key) > 0 {
			ctx = logger.WithRequestID(ctx, string(key))
		}
		_, _, err = s.Analyze(ctx, &sub, SourceKafka)
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			return errors.Join(kafka.ErrSkip, err)
		}
		return err
	}
}
