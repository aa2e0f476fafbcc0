package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorIsInvalidParameter(t *testing.T) {
	err := NewValidationError("page", "page number must be >= 1")
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.Contains(t, err.Error(), "page")

	bare := &ValidationError{Message: "bad input"}
	assert.Equal(t, "bad input", bare.Error())
}

func TestQueryErrorUnwraps(t *testing.T) {
	err := &QueryError{Op: "search songs", Err: fmt.Errorf("boom: %w", ErrConnectionLost)}
	assert.ErrorIs(t, err, ErrConnectionLost)
	assert.Contains(t, err.Error(), "search songs")
}

func TestIsClientError(t *testing.T) {
	cases := []struct {
		err    error
		client bool
	}{
		{ErrNotFound, true},
		{ErrAmbiguousTarget, true},
		{ErrInvalidParameter, true},
		{ErrInvalidRating, true},
		{NewValidationError("limit", "too big"), true},
		{ErrPoolExhausted, false},
		{ErrConnectFailed, false},
		{ErrConnectionLost, false},
		{ErrQueryFailed, false},
		{errors.New("something else"), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.client, IsClientError(tc.err), "%v", tc.err)
	}
}
