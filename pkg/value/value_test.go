package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Integer(42), Integer(42)))
	assert.False(t, Equal(Integer(42), Integer(43)))
	assert.False(t, Equal(Integer(42), Real(42)))
	assert.True(t, Equal(StringSeq([]string{"a", "b"}), StringSeq([]string{"a", "b"})))
	assert.False(t, Equal(StringSeq([]string{"a"}), StringSeq([]string{"a", "b"})))
	assert.True(t, Equal(Tuple(Boolean(true), Integer(1)), Tuple(Boolean(true), Integer(1))))
	assert.False(t, Equal(Tuple(Boolean(true)), Tuple(Boolean(false))))
}

func TestToInt64FromReal(t *testing.T) {
	i, err := ToInt64(Real(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), i)

	_, err = ToInt64(Real(3.5))
	require.Error(t, err)

	_, err = ToInt64(Real(math.MaxFloat64))
	require.Error(t, err)
}

func TestToFloat64FromInteger(t *testing.T) {
	r, err := ToFloat64(Integer(1 << 40))
	require.NoError(t, err)
	assert.Equal(t, float64(1<<40), r)

	_, err = ToFloat64(Integer(1 << 62))
	require.Error(t, err, "integer beyond exact float64 mantissa must fail")
}

func TestCrossCategoryFails(t *testing.T) {
	_, err := ToBool(String("true"))
	require.Error(t, err)
	ce, ok := err.(*ConversionError)
	require.True(t, ok)
	assert.True(t, ce.WrongCategory)
}

func TestTupleElementCheck(t *testing.T) {
	tup := Tuple(Boolean(true), Integer(-1), Real(-1.23), String("Hello"), Binary([]byte("World")))
	elems, err := ToTuple(tup, []Kind{KindBoolean, KindInteger, KindReal, KindString, KindBinary})
	require.NoError(t, err)
	require.Len(t, elems, 5)

	_, err = ToTuple(tup, []Kind{KindBoolean})
	require.Error(t, err)
}

func TestValueAccessorPanicsOnMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic accessing wrong kind")
		}
	}()
	_ = Integer(1).Boolean()
}

func TestBinaryIsCopied(t *testing.T) {
	b := []byte{1, 2, 3}
	v := Binary(b)
	b[0] = 99
	assert.Equal(t, byte(1), v.Binary()[0], "Binary must copy, not alias")
}
