package object

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decof-project/decofd/internal/access"
	"github.com/decof-project/decofd/internal/decoferr"
	"github.com/decof-project/decofd/pkg/value"
)

func TestManagedReadOnlySetValueNoOpOnEqualValue(t *testing.T) {
	p := NewManagedReadOnly("x", access.Normal, value.Integer(1))

	var got value.Value
	calls := 0
	cur, cancel, err := p.Observe(func(v value.Value) {
		calls++
		got = v
	})
	require.NoError(t, err)
	defer cancel()
	assert.Equal(t, value.Integer(1), cur)

	p.SetValue(value.Integer(1))
	assert.Equal(t, 0, calls, "no notification on an equal value")

	p.SetValue(value.Integer(2))
	assert.Equal(t, 1, calls)
	assert.Equal(t, value.Integer(2), got)
}

func TestManagedReadWriteVerifyHookRejects(t *testing.T) {
	verifyErr := errors.New("out of range")
	p := NewManagedReadWrite("x", access.Normal, access.Normal, value.Integer(0), func(v value.Value) error {
		if v.Integer() < 0 {
			return verifyErr
		}
		return nil
	})

	err := p.Write(value.Integer(-1))
	assert.ErrorIs(t, err, verifyErr)

	got, err := p.Read()
	require.NoError(t, err)
	assert.Equal(t, value.Integer(0), got, "rejected write leaves the stored value unchanged")
}

func TestManagedReadWriteNoOpOnEqualValueSkipsVerifyAndNotify(t *testing.T) {
	verifyCalls := 0
	p := NewManagedReadWrite("x", access.Normal, access.Normal, value.Integer(1), func(v value.Value) error {
		verifyCalls++
		return nil
	})

	notifyCalls := 0
	_, cancel, err := p.Observe(func(value.Value) { notifyCalls++ })
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, p.Write(value.Integer(1)))
	assert.Equal(t, 0, verifyCalls, "verify must not run for a write equal to the stored value")
	assert.Equal(t, 0, notifyCalls)
}

func TestManagedReadWriteWrongTypeRejected(t *testing.T) {
	p := NewManagedReadWrite("x", access.Normal, access.Normal, value.Integer(0), nil)

	err := p.Write(value.String("nope"))
	var de *decoferr.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, decoferr.WrongType, de.Code)

	got, err := p.Read()
	require.NoError(t, err)
	assert.Equal(t, value.Integer(0), got)
}

func TestWriteOnlyWrongTypeRejectedBeforeSink(t *testing.T) {
	sinkCalls := 0
	p := NewWriteOnly("x", access.Normal, value.KindReal, func(v value.Value) error {
		sinkCalls++
		return nil
	})

	err := p.Write(value.Boolean(true))
	var de *decoferr.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, decoferr.WrongType, de.Code)
	assert.Equal(t, 0, sinkCalls, "the host callback must not run on a Kind mismatch")
}

func TestWriteOnlyInvokesSinkUnconditionally(t *testing.T) {
	var got []value.Value
	p := NewWriteOnly("x", access.Normal, value.KindInteger, func(v value.Value) error {
		got = append(got, v)
		return nil
	})

	require.NoError(t, p.Write(value.Integer(1)))
	require.NoError(t, p.Write(value.Integer(1)))
	assert.Equal(t, []value.Value{value.Integer(1), value.Integer(1)}, got, "every write reaches the sink, even a repeat value")
}
