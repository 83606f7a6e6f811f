package server

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapErrorf(t *testing.T) {
	orig := errors.New("no node near the coordinate")
	err := WrapErrorf(orig, ErrNotFound, "location %d is not covered by the map", 2)

	assert.EqualError(t, err, "location 2 is not covered by the map: no node near the coordinate")
	assert.ErrorIs(t, err, orig)
	assert.Equal(t, ErrNotFound, CodeOf(err))

	var serverErr *Error
	assert.ErrorAs(t, err, &serverErr)
	assert.Equal(t, "location 2 is not covered by the map", serverErr.Message())
}

func TestNewErrorf(t *testing.T) {
	err := NewErrorf(ErrBadParamInput, "unknown filter %q", "bicycle")

	assert.EqualError(t, err, `unknown filter "bicycle"`)
	assert.Nil(t, errors.Unwrap(err))
	assert.Equal(t, ErrBadParamInput, CodeOf(err))
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewErrorf(ErrInternalServerError, "boom"))

	assert.Equal(t, ErrInternalServerError, CodeOf(wrapped))
	assert.Equal(t, ErrUnknown, CodeOf(errors.New("plain")))
	assert.Equal(t, "not found", ErrNotFound.String())
	assert.Equal(t, "unknown", ErrorCode(42).String())
}
