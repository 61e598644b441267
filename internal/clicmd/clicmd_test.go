package clicmd

import (
	"strings"
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

func newTestHandler(t *testing.T, auth access.Authenticator) (*Handler, *clientcontext.Context) {
	t.Helper()
	sd := strand.New(0)
	t.Cleanup(sd.Close)
	dict := dictionary.New("test", sd.Post)

	scalars := object.NewNode("scalars", access.Readonly)
	require.NoError(t, dict.Root().AddChild(scalars))
	rw := object.NewManagedReadWrite("integer_rw", access.Normal, access.Normal, value.Integer(0), nil)
	require.NoError(t, scalars.AddChild(rw))

	ro := object.NewManagedReadOnly("binary_ro", access.Normal, value.Binary([]byte("decof")))
	require.NoError(t, dict.Root().AddChild(ro))

	ctx := clientcontext.New(dict, sd, "tcp", "local", access.Normal)
	return NewHandler(ctx, "test", auth), ctx
}

func TestManagedReadWriteRoundTrip(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	resp := h.Handle("set test:scalars:integer_rw -42\n")
	assert.True(t, strings.HasPrefix(resp, "0\n"))

	resp = h.Handle("get test:scalars:integer_rw\n")
	assert.True(t, strings.HasPrefix(resp, "-42\n"))
}

func TestBinaryBase64ReadOnlyDeniesWrite(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	resp := h.Handle("get test:binary_ro\n")
	assert.True(t, strings.HasPrefix(resp, "&ZGVjb2Y=\n"))

	resp = h.Handle("set test:binary_ro &bm9wZQ==\n")
	assert.True(t, strings.HasPrefix(resp, "ERROR 3:"))
}

func TestChangeUserlevelScenario(t *testing.T) {
	auth := func(ctx access.AuthContext, requested access.Userlevel, password string) bool {
		return requested == access.Internal && password == "internal"
	}
	h, _ := newTestHandler(t, auth)

	resp := h.Handle("param-ref 'ul\n")
	assert.True(t, strings.HasPrefix(resp, "1\n"))

	resp = h.Handle(`exec 'change-ul 0 "internal"` + "\n")
	assert.True(t, strings.HasPrefix(resp, "0\n"))

	resp = h.Handle("param-ref 'ul\n")
	assert.True(t, strings.HasPrefix(resp, "0\n"))
}

func TestSetMalformedValueIsParseError(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	resp := h.Handle("set test:scalars:integer_rw not-a-number\n")
	assert.True(t, strings.HasPrefix(resp, "ERROR 2:"))
}

func TestUnknownOperation(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	resp := h.Handle("frobnicate test:scalars:integer_rw\n")
	assert.True(t, strings.HasPrefix(resp, "ERROR 7:"))
}

func TestTreeListing(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	resp := h.Handle("tree\n")
	assert.Contains(t, resp, "test:scalars:integer_rw PARAM RW INTEGER\n")
	assert.Contains(t, resp, "test:binary_ro PARAM RO BINARY\n")
}

func TestBrowseListing(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	resp := h.Handle("browse\n")
	assert.Contains(t, resp, "test\n")
	assert.Contains(t, resp, ":binary_ro = &ZGVjb2Y=\n")
}
