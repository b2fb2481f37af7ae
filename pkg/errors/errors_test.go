package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"section", SectionNotFound("Intro"), http.StatusNotFound},
		{"wrapped report", fmt.Errorf("loading: %w", ErrReportNotFound), http.StatusNotFound},
		{"invalid", ErrInvalidInput, http.StatusBadRequest},
		{"timeout", ErrTimeout, http.StatusServiceUnavailable},
		{"unavailable", fmt.Errorf("listing: %w", ErrUnavailable), http.StatusServiceUnavailable},
		{"app error status wins", New(ErrInternal, http.StatusTeapot, "odd"), http.StatusTeapot},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, HTTPStatusCode(tc.err))
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := SectionNotFound("Body")
	require.ErrorIs(t, err, ErrSectionNotFound)
	require.Equal(t, `section not found: no section named "Body"`, err.Error())
}
