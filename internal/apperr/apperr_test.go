package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWalksWrappedErrors(t *testing.T) {
	base := NotFound("question %s not found", "q1")
	wrapped := fmt.Errorf("recording feedback: %w", base)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(wrapped, KindIntegrity))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindInternal))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{Integrity("mismatch"), http.StatusConflict},
		{Conflict("reused key"), http.StatusConflict},
		{PolicyResolution(nil, "no model"), http.StatusUnprocessableEntity},
		{Provider(errors.New("timeout"), "provider openai failed"), http.StatusBadGateway},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}

func TestDetailHidesInternalCause(t *testing.T) {
	err := Internal(errors.New("mongo: connection refused"), "persisting ask record")
	assert.Equal(t, "persisting ask record", Detail(err))
	assert.Equal(t, "internal error", Detail(errors.New("raw")))

	perr := Provider(errors.New(`Post "https://upstream/v1?key=s3cr3t": context deadline exceeded`), "provider gemini failed")
	assert.Equal(t, "provider gemini failed", Detail(perr))
	assert.NotContains(t, Detail(perr), "s3cr3t")
	assert.Equal(t, "candidate source failed", Detail(&Error{Kind: KindProvider, Err: errors.New("dial tcp")}))
	assert.Contains(t, perr.Error(), "context deadline exceeded")
}
