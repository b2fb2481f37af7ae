package report

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/kafka"
)

func TestHandleSubmission(t *testing.T) {
	f := newFixture(t)
	handle := HandleSubmission(f.service)
	ctx := context.Background()

	value, err := json.Marshal(Submission{Title: "Light in August", Text: faulkner})
	require.NoError(t, err)
	require.NoError(t, handle(ctx, []byte("req-7"), value))
	require.Equal(t, 1, f.repo.saves)
	require.Len(t, f.writer.events, 1)

	event := f.writer.events[0].Value.(CompletedEvent)
	require.Equal(t, SourceKafka, event.Source)
	require.Equal(t, "req-7", event.RequestID)
	require.Equal(t, "Light in August", event.Title)
}

func TestHandleSubmissionSkipsUnprocessableMessages(t *testing.T) {
	f := newFixture(t)
	handle := HandleSubmission(f.service)
	ctx := context.Background()

	require.ErrorIs(t, handle(ctx, nil, []byte("{not json")), kafka.ErrSkip)

	value, err := json.Marshal(Submission{Title: "blank"})
	require.NoError(t, err)
	err = handle(ctx, nil, value)
	require.ErrorIs(t, err, kafka.ErrSkip)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Zero(t, f.repo.saves)
}
