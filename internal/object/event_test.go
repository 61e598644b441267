package object

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decof-project/decofd/internal/access"
)

func TestEventSignalInvokesHandler(t *testing.T) {
	calls := 0
	e := NewEvent("x", access.Normal, func() error {
		calls++
		return nil
	})

	require.NoError(t, e.Signal())
	require.NoError(t, e.Signal())
	assert.Equal(t, 2, calls)
}

func TestEventSignalPropagatesHandlerError(t *testing.T) {
	handlerErr := errors.New("boom")
	e := NewEvent("x", access.Normal, func() error { return handlerErr })

	assert.ErrorIs(t, e.Signal(), handlerErr)
}

func TestEventSignalWithNilHandlerIsNoOp(t *testing.T) {
	e := NewEvent("x", access.Normal, nil)
	assert.NoError(t, e.Signal())
}

func TestEventReadLevelIsForbidden(t *testing.T) {
	e := NewEvent("x", access.Normal, nil)
	assert.Equal(t, access.Forbidden, e.ReadLevel())
}
