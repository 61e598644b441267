package chunked

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHappyPath(t *testing.T) {
	raw := "5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n"
	out, err := Decode(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(out))
}

func TestDecodeIgnoresChunkExtension(t *testing.T) {
	raw := "3;foo=bar\r\nabc\r\n0\r\n\r\n"
	out, err := Decode(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))
}

func TestDecodeDrainsTrailerHeaders(t *testing.T) {
	raw := "3\r\nabc\r\n0\r\nX-Trailer: value\r\n\r\n"
	out, err := Decode(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))
}

func TestDecodeEmptyBody(t *testing.T) {
	raw := "0\r\n\r\n"
	out, err := Decode(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDecodeInvalidChunkSize(t *testing.T) {
	raw := "zz\r\nabc\r\n0\r\n\r\n"
	_, err := Decode(bufio.NewReader(strings.NewReader(raw)))
	assert.Error(t, err)
}

func TestDecodeMissingTerminator(t *testing.T) {
	raw := "3\r\nabcXX0\r\n\r\n"
	_, err := Decode(bufio.NewReader(strings.NewReader(raw)))
	assert.Error(t, err)
}

func TestDecodeTruncatedChunkBody(t *testing.T) {
	raw := "10\r\nabc\r\n"
	_, err := Decode(bufio.NewReader(strings.NewReader(raw)))
	assert.Error(t, err)
}
