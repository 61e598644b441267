package clipubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decof-project/decofd/internal/access"
	"github.com/decof-project/decofd/internal/clientcontext"
	"github.com/decof-project/decofd/internal/dictionary"
	"github.com/decof-project/decofd/internal/object"
	"github.com/decof-project/decofd/internal/strand"
	"github.com/decof-project/decofd/pkg/value"
)

func newTestPubsub(t *testing.T) (*Context, *clientcontext.Context) {
	t.Helper()
	sd := strand.New(0)
	t.Cleanup(sd.Close)
	dict := dictionary.New("p", sd.Post)

	rw := object.NewManagedReadWrite("value", access.Normal, access.Normal, value.Integer(0), nil)
	require.NoError(t, dict.Root().AddChild(rw))

	cc := clientcontext.New(dict, sd, "tcp-pubsub", "local", access.Normal)
	return New(cc), cc
}

func TestSubscribeUnsubscribe(t *testing.T) {
	pc, _ := newTestPubsub(t)

	resp := pc.Handle("subscribe p:value\n")
	assert.Equal(t, "0\n", resp)

	resp = pc.Handle("unsubscribe p:value\n")
	assert.Equal(t, "0\n", resp)

	resp = pc.Handle("unsubscribe p:value\n")
	assert.Contains(t, resp, "ERROR 9:")
}

func TestCoalescedDrainYieldsLastValue(t *testing.T) {
	pc, cc := newTestPubsub(t)
	require.Equal(t, "0\n", pc.Handle("add p:value\n"))

	require.NoError(t, cc.Set("p:value", value.Integer(1)))
	require.NoError(t, cc.Set("p:value", value.Integer(2)))
	require.NoError(t, cc.Set("p:value", value.Integer(3)))

	line, ok := pc.DrainLine()
	require.True(t, ok)
	assert.Contains(t, line, "'p:value 3)")

	_, ok = pc.DrainLine()
	assert.False(t, ok)
}

func TestUnknownPubsubOperation(t *testing.T) {
	pc, _ := newTestPubsub(t)
	resp := pc.Handle("frob p:value\n")
	assert.Contains(t, resp, "ERROR 7:")
}
