// Package wire holds the small set of scalar encoding rules that the
// CLI grammar (pkg/value/grammar) and the SCGI façade
// (internal/scgi) must agree on byte-for-byte even though each owns an
// otherwise independent wire format: grammar.Encode produces a
// parenthesized textual grammar, encodeGetValue in internal/scgi
// produces either raw text or a packed/bencode body keyed by
// Content-Type. Both render a real's digits the same way, so that rule lives
// here once instead of as two copies of the same strconv call.
//
// Grounded on original_source's js_value_encoder.cpp and
// encoder.cpp both calling the same std::setprecision(17) formatting
// for IEEE 754 doubles; this package is the Go equivalent shared
// helper the two translations should have had from the start.
package wire

import "strconv"

// RealPrecision is the number of significant digits used when
// formatting a float64 for the wire: enough to round-trip every
// float64 value exactly (DBL_DECIMAL_DIG).
const RealPrecision = 17

// EncodeReal renders r with RealPrecision significant digits, the
// canonical real-number encoding shared by every DeCoF wire format.
func EncodeReal(r float64) string {
	return strconv.FormatFloat(r, 'g', RealPrecision, 64)
}
