package grammar

import (
	"testing"

	"github.com/decof-project/decofd/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, v value.Value) {
	t.Helper()
	enc := Encode(v)
	got, err := Decode(enc)
	require.NoError(t, err, "decode(%q)", enc)
	assert.True(t, value.Equal(v, got), "decode(encode(v)) != v for %q", enc)
}

func TestScalarRoundTrip(t *testing.T) {
	roundTrip(t, value.Boolean(true))
	roundTrip(t, value.Boolean(false))
	roundTrip(t, value.Integer(-42))
	roundTrip(t, value.Integer(0))
	roundTrip(t, value.Real(-1.23))
	roundTrip(t, value.Real(3.14159265358979))
	roundTrip(t, value.String("Hello"))
	roundTrip(t, value.Binary([]byte("World")))
}

func TestStringArbitraryBytes(t *testing.T) {
	for i := 0; i < 256; i++ {
		roundTrip(t, value.String(string([]byte{byte(i), 'x'})))
	}
}

func TestBinaryArbitraryBytes(t *testing.T) {
	roundTrip(t, value.Binary([]byte{0, 1, 2, 255, 254, 10, 13}))
}

func TestSequenceRoundTrip(t *testing.T) {
	roundTrip(t, value.IntegerSeq([]int64{1, 2, 3}))
	roundTrip(t, value.RealSeq([]float64{1.5, -2.25}))
	roundTrip(t, value.StringSeq([]string{"a", "b\"c"}))
	roundTrip(t, value.BooleanSeq([]bool{true, false, true}))
}

func TestTupleRoundTrip(t *testing.T) {
	v := value.Tuple(value.Boolean(true), value.Integer(-1), value.Real(-1.23), value.String("Hello"), value.Binary([]byte("World")))
	roundTrip(t, v)
}

// Scenario 2 from spec §8: binary base64 encoding of the string "decof".
func TestBinaryBase64Scenario(t *testing.T) {
	v := value.Binary([]byte("decof"))
	assert.Equal(t, "&ZGVjb2Y=", Encode(v))

	got, err := Decode("&bm9wZQ==")
	require.NoError(t, err)
	assert.Equal(t, []byte("nope"), got.Binary())
}

// Scenario 5 from spec §8: tuple parse/encode.
func TestTupleScenario(t *testing.T) {
	const lit = `{#t,-1,-1.23,"Hello",&V29ybGQ=}`
	v, err := Decode(lit)
	require.NoError(t, err)
	elems := v.Tuple()
	require.Len(t, elems, 5)
	assert.True(t, elems[0].Boolean())
	assert.Equal(t, int64(-1), elems[1].Integer())
	assert.Equal(t, -1.23, elems[2].Real())
	assert.Equal(t, "Hello", elems[3].String())
	assert.Equal(t, []byte("World"), elems[4].Binary())
}

func TestHeterogeneousSequenceRejected(t *testing.T) {
	_, err := Decode(`[1,"a"]`)
	require.Error(t, err)
}

func TestEscapeSequences(t *testing.T) {
	v, err := Decode(`"a\tb\x41c"`)
	require.NoError(t, err)
	assert.Equal(t, "a\tbAc", v.String())
}

func TestMalformedInputs(t *testing.T) {
	_, err := Decode("#x")
	require.Error(t, err)
	_, err = Decode(`"unterminated`)
	require.Error(t, err)
	_, err = Decode("[1,2")
	require.Error(t, err)
	_, err = Decode("&not base64!!")
	require.Error(t, err)
}
