package coalesce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decof-project/decofd/pkg/value"
)

func TestPushMovesToTail(t *testing.T) {
	b := New()
	now := time.Unix(0, 0)

	b.Push("a", value.Integer(1), now)
	b.Push("b", value.Integer(1), now)
	b.Push("a", value.Integer(2), now.Add(time.Second))

	first, ok := b.PopFront()
	require.True(t, ok)
	assert.Equal(t, "b", first.URI)

	second, ok := b.PopFront()
	require.True(t, ok)
	assert.Equal(t, "a", second.URI)
	assert.Equal(t, int64(2), second.Value.Integer())

	assert.True(t, b.Empty())
}

func TestCoalescingScenario(t *testing.T) {
	// spec scenario 4: three writes to the same URI before drain yields
	// exactly one notification carrying the last value.
	b := New()
	t0 := time.Unix(100, 0)
	b.Push("p", value.Integer(1), t0)
	b.Push("p", value.Integer(2), t0.Add(time.Millisecond))
	b.Push("p", value.Integer(3), t0.Add(2*time.Millisecond))

	assert.Equal(t, 1, b.Len())
	u, ok := b.PopFront()
	require.True(t, ok)
	assert.Equal(t, int64(3), u.Value.Integer())
	assert.True(t, b.Empty())
}

func TestPopFrontEmpty(t *testing.T) {
	b := New()
	_, ok := b.PopFront()
	assert.False(t, ok)
}
