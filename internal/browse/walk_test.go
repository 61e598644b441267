package browse

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

func newTestContext(t *testing.T) *clientcontext.Context {
	t.Helper()
	sd := strand.New(0)
	t.Cleanup(sd.Close)
	dict := dictionary.New("test", sd.Post)

	scalars := object.NewNode("scalars", access.Readonly)
	require.NoError(t, dict.Root().AddChild(scalars))
	rw := object.NewManagedReadWrite("integer_rw", access.Normal, access.Normal, value.Integer(7), nil)
	require.NoError(t, scalars.AddChild(rw))
	ro := object.NewManagedReadOnly("binary_ro", access.Normal, value.Binary([]byte("decof")))
	require.NoError(t, dict.Root().AddChild(ro))
	ev := object.NewEvent("reset", access.Normal, func() error { return nil })
	require.NoError(t, dict.Root().AddChild(ev))

	return clientcontext.New(dict, sd, "tcp", "local", access.Normal)
}

func browseEntries(t *testing.T, ctx *clientcontext.Context) []clientcontext.BrowseEntry {
	t.Helper()
	var entries []clientcontext.BrowseEntry
	require.NoError(t, ctx.Browse("", func(e clientcontext.BrowseEntry) { entries = append(entries, e) }))
	return entries
}

func TestWriteTreeLineMarksReadOnlyAndReadWrite(t *testing.T) {
	ctx := newTestContext(t)
	var b strings.Builder
	for _, e := range browseEntries(t, ctx) {
		WriteTreeLine(&b, e)
	}
	out := b.String()
	assert.Contains(t, out, "test:scalars:integer_rw PARAM RW INTEGER\n")
	assert.Contains(t, out, "test:binary_ro PARAM RO BINARY\n")
	assert.Contains(t, out, "test:reset EVENT\n")
}

func TestWriteBrowseLineIndentsAndSkipsNodeValue(t *testing.T) {
	ctx := newTestContext(t)
	var b strings.Builder
	for _, e := range browseEntries(t, ctx) {
		WriteBrowseLine(&b, e)
	}
	out := b.String()
	assert.Contains(t, out, "  :integer_rw = 7\n")
	assert.Contains(t, out, ":binary_ro = &ZGVjb2Y=\n")
	assert.NotContains(t, out, "scalars =")
}

func TestXMLRendersModuleParamsAndCmds(t *testing.T) {
	ctx := newTestContext(t)
	doc := string(XML(browseEntries(t, ctx)))

	assert.True(t, strings.HasPrefix(doc, `<?xml version="1.0"`))
	assert.Contains(t, doc, `<system name="DeCoF server" version="1.0">`)
	assert.Contains(t, doc, `<module name="test">`)
	assert.Contains(t, doc, `<param name="ul" type="INTEGER" mode="readonly">`)
	assert.Contains(t, doc, `<cmd name="change-ul">`)
	assert.Contains(t, doc, `<xtypedef name="scalars">`)
	assert.Contains(t, doc, `name="integer_rw" type="INTEGER" mode="readwrite"`)
	assert.Contains(t, doc, `name="binary_ro" type="BINARY" mode="readonly"`)
	assert.Contains(t, doc, `<cmd name="reset"`)
}

func TestXMLEmptyEntriesStillEmitsDocument(t *testing.T) {
	doc := string(XML(nil))
	assert.Contains(t, doc, `<system name="DeCoF server" version="1.0">`)
}
