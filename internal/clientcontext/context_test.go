package clientcontext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decof-project/decofd/internal/access"
	"github.com/decof-project/decofd/internal/decoferr"
	"github.com/decof-project/decofd/internal/dictionary"
	"github.com/decof-project/decofd/internal/object"
	"github.com/decof-project/decofd/internal/strand"
	"github.com/decof-project/decofd/pkg/value"
)

func newTestContext(t *testing.T, ul access.Userlevel) (*Context, *dictionary.Dictionary) {
	t.Helper()
	sd := strand.New(0)
	t.Cleanup(sd.Close)
	dict := dictionary.New("root", sd.Post)

	rw := object.NewManagedReadWrite("value", access.Normal, access.Normal, value.Integer(1), nil)
	require.NoError(t, dict.Root().AddChild(rw))

	ev := object.NewEvent("fire", access.Normal, func() error { return nil })
	require.NoError(t, dict.Root().AddChild(ev))

	ctx := New(dict, sd, "test", "local", ul)
	return ctx, dict
}

func TestGetSetRoundTrip(t *testing.T) {
	ctx, _ := newTestContext(t, access.Normal)

	require.NoError(t, ctx.Set("root:value", value.Integer(7)))
	v, err := ctx.Get("root:value")
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.Integer())
}

func TestReadonlyContextCannotWrite(t *testing.T) {
	ctx, _ := newTestContext(t, access.Readonly)

	err := ctx.Set("root:value", value.Integer(7))
	require.Error(t, err)
	assert.Equal(t, decoferr.AccessDenied, decoferr.CodeOf(err))
}

func TestGetUnknownURI(t *testing.T) {
	ctx, _ := newTestContext(t, access.Normal)

	_, err := ctx.Get("root:nope")
	require.Error(t, err)
	assert.Equal(t, decoferr.InvalidParameter, decoferr.CodeOf(err))
}

func TestSignalEvent(t *testing.T) {
	ctx, _ := newTestContext(t, access.Normal)
	require.NoError(t, ctx.Signal("root:fire"))
}

func TestObserveDeliversChanges(t *testing.T) {
	ctx, _ := newTestContext(t, access.Normal)

	received := make(chan value.Value, 4)
	_, err := ctx.Observe("root:value", func(v value.Value) { received <- v })
	require.NoError(t, err)

	require.NoError(t, ctx.Set("root:value", value.Integer(99)))
	got := <-received
	assert.Equal(t, int64(99), got.Integer())

	require.NoError(t, ctx.Unobserve("root:value"))
	err = ctx.Unobserve("root:value")
	require.Error(t, err)
	assert.Equal(t, decoferr.NotSubscribed, decoferr.CodeOf(err))
}

func TestChangeUserlevelRejectsInvalid(t *testing.T) {
	ctx, _ := newTestContext(t, access.Normal)
	err := ctx.ChangeUserlevel(access.Userlevel(99))
	require.Error(t, err)
	assert.Equal(t, decoferr.InvalidUserlevel, decoferr.CodeOf(err))
}

func TestBrowseVisitsTreeInPreOrder(t *testing.T) {
	ctx, _ := newTestContext(t, access.Normal)

	var names []string
	err := ctx.Browse("", func(e BrowseEntry) { names = append(names, e.Object.Name()) })
	require.NoError(t, err)
	assert.Equal(t, "root", names[0])
	assert.Contains(t, names, "value")
	assert.Contains(t, names, "fire")
}
