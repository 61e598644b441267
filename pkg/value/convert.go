package value

import (
	"fmt"
	"math"
)

// This file implements the lossless dynamic<->static conversion boundary
// required by spec §3 invariant I2:
//
//   - integer -> real succeeds only if representable exactly
//     (magnitude <= 2^53, the float64 53-bit significand);
//   - real -> integer succeeds only when the value is integral and in
//     range for the target width;
//   - integer <-> integer narrows only within range;
//   - every other cross-category conversion fails with WrongType.
//
// Grounded on original_source/include/decof/conversion.h, which performs
// the same boundary with boost::any + boost::any_cast; Go's tagged Value
// plays the role of boost::any here.

// ConversionError reports a failed dynamic<->static conversion.
// WrongCategory distinguishes a category mismatch (WrongType) from an in-category
// range/precision loss (InvalidValue) per spec §7.
type ConversionError struct {
	WrongCategory bool
	Msg           string
}

func (e *ConversionError) Error() string { return e.Msg }

func errCategory(format string, args ...interface{}) error {
	return &ConversionError{WrongCategory: true, Msg: fmt.Sprintf(format, args...)}
}

func errRange(format string, args ...interface{}) error {
	return &ConversionError{WrongCategory: false, Msg: fmt.Sprintf(format, args...)}
}

const maxExactFloatMantissa = 1 << 53 // float64 has 52 explicit mantissa bits + implicit 1

// ToInt64 narrows v to an int64, used by managed/external integer
// parameters when they receive a dynamic Value.
func ToInt64(v Value) (int64, error) {
	switch v.Kind() {
	case KindInteger:
		return v.Integer(), nil
	case KindReal:
		r := v.Real()
		if math.Trunc(r) != r {
			return 0, errRange("real %g is not integral", r)
		}
		// float64(math.MaxInt64) rounds up to 2^63, which is itself out of range.
		if r >= math.MaxInt64 || r < math.MinInt64 {
			return 0, errRange("real %g out of int64 range", r)
		}
		return int64(r), nil
	default:
		return 0, errCategory("cannot convert %s to integer", v.Kind())
	}
}

// ToInt32 narrows v to an int32, range-checked against int32 bounds
// (the wire integer type in the original C++ source is a 32-bit int;
// decof's own value universe widens that to 64 bits per spec §3, but
// parameters that model the original 32-bit range use this helper).
func ToInt32(v Value) (int32, error) {
	i, err := ToInt64(v)
	if err != nil {
		return 0, err
	}
	if i > math.MaxInt32 || i < math.MinInt32 {
		return 0, errRange("integer %d out of int32 range", i)
	}
	return int32(i), nil
}

// ToFloat64 widens/narrows v to a float64. An integer converts only if
// representable exactly; a real converts as-is.
func ToFloat64(v Value) (float64, error) {
	switch v.Kind() {
	case KindReal:
		return v.Real(), nil
	case KindInteger:
		i := v.Integer()
		if i > maxExactFloatMantissa || i < -maxExactFloatMantissa {
			return 0, errRange("integer %d not exactly representable as real", i)
		}
		return float64(i), nil
	default:
		return 0, errCategory("cannot convert %s to real", v.Kind())
	}
}

// ToBool requires an exact boolean; booleans never cross into any other
// category.
func ToBool(v Value) (bool, error) {
	if v.Kind() != KindBoolean {
		return false, errCategory("cannot convert %s to boolean", v.Kind())
	}
	return v.Boolean(), nil
}

// ToString requires an exact string.
func ToString(v Value) (string, error) {
	if v.Kind() != KindString {
		return "", errCategory("cannot convert %s to string", v.Kind())
	}
	return v.String(), nil
}

// ToBinary requires an exact binary.
func ToBinary(v Value) ([]byte, error) {
	if v.Kind() != KindBinary {
		return nil, errCategory("cannot convert %s to binary", v.Kind())
	}
	return v.Binary(), nil
}

// ToBooleanSeq, ToIntegerSeq, ToRealSeq, ToStringSeq require an exact
// sequence kind; homogeneous sequences never widen/narrow element-wise
// on their own (a caller wanting integer_seq from a real_seq must
// convert element by element explicitly).

func ToBooleanSeq(v Value) ([]bool, error) {
	if v.Kind() != KindBooleanSeq {
		return nil, errCategory("cannot convert %s to boolean_seq", v.Kind())
	}
	return v.BooleanSeq(), nil
}

func ToIntegerSeq(v Value) ([]int64, error) {
	if v.Kind() != KindIntegerSeq {
		return nil, errCategory("cannot convert %s to integer_seq", v.Kind())
	}
	return v.IntegerSeq(), nil
}

func ToRealSeq(v Value) ([]float64, error) {
	if v.Kind() != KindRealSeq {
		return nil, errCategory("cannot convert %s to real_seq", v.Kind())
	}
	return v.RealSeq(), nil
}

func ToStringSeq(v Value) ([]string, error) {
	if v.Kind() != KindStringSeq {
		return nil, errCategory("cannot convert %s to string_seq", v.Kind())
	}
	return v.StringSeq(), nil
}

// ToTuple requires an exact tuple and, if want is non-empty, checks the
// element kinds position by position (the static tuple type a managed
// tuple-parameter was declared with).
func ToTuple(v Value, want []Kind) ([]Value, error) {
	if v.Kind() != KindTuple {
		return nil, errCategory("cannot convert %s to tuple", v.Kind())
	}
	elems := v.Tuple()
	if want != nil {
		if len(elems) != len(want) {
			return nil, errRange("tuple has %d elements, want %d", len(elems), len(want))
		}
		for i, k := range want {
			if elems[i].Kind() != k {
				return nil, errCategory("tuple element %d is %s, want %s", i, elems[i].Kind(), k)
			}
		}
	}
	return elems, nil
}

// FromInt64, FromFloat64, etc. are the inverse direction: constructing a
// dynamic Value from a statically typed Go value. These never fail -
// narrowing loss only happens parameter-side (ToXxx), not when exposing
// a stored value outward.

func FromInt64(i int64) Value     { return Integer(i) }
func FromFloat64(r float64) Value { return Real(r) }
func FromBool(b bool) Value       { return Boolean(b) }
func FromString(s string) Value   { return String(s) }
func FromBinary(b []byte) Value   { return Binary(b) }
