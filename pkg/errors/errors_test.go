package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("job 7: %w", ErrNotFound), http.StatusNotFound},
		{ErrInvalidInput, http.StatusBadRequest},
		{fmt.Errorf("reload: %w", ErrCorpusNotReady), http.StatusServiceUnavailable},
		{ErrTimeout, http.StatusServiceUnavailable},
		{ErrRateLimited, http.StatusTooManyRequests},
		{ErrTooLarge, http.StatusRequestEntityTooLarge},
		{New(ErrNotFound, http.StatusGone, "gone"), http.StatusGone},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, HTTPStatusCode(tc.err), tc.err.Error())
	}
}

func TestAppErrorWrapsSentinel(t *testing.T) {
	err := fmt.Errorf("handler: %w", Invalid("top_n must be at most %d", 50))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "handler: invalid input: top_n must be at most 50", err.Error())
	assert.Equal(t, "top_n must be at most 50", Message(err))
}

func TestMessageHidesInternalErrors(t *testing.T) {
	assert.Equal(t, "internal error", Message(errors.New("pq: password authentication failed")))
	assert.Equal(t, "not found", Message(fmt.Errorf("company 3: %w", ErrNotFound)))
}
