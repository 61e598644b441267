package grammar

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/decof-project/decofd/pkg/value"
	"github.com/decof-project/decofd/pkg/value/wire"
)

// Encode renders v in the CLI grammar, the inverse of Decode:
// booleans as #t/#f, integers in minimal decimal form, reals with
// 17-significant-digit precision (round-trips every finite float64
// exactly; an integral real gets a trailing ".0" so it reads back as a
// real), strings with backslash/hex escaping, binaries as "&" + base64,
// sequences in [...], tuples in {...}. An empty sequence of any kind
// encodes as "[]", which Decode reads back as an empty string sequence.
func Encode(v value.Value) string {
	switch v.Kind() {
	case value.KindBoolean:
		if v.Boolean() {
			return "#t"
		}
		return "#f"
	case value.KindInteger:
		return strconv.FormatInt(v.Integer(), 10)
	case value.KindReal:
		return encodeReal(v.Real())
	case value.KindString:
		return encodeString(v.String())
	case value.KindBinary:
		return "&" + base64.StdEncoding.EncodeToString(v.Binary())
	case value.KindBooleanSeq:
		seq := v.BooleanSeq()
		parts := make([]string, len(seq))
		for i, b := range seq {
			parts[i] = Encode(value.Boolean(b))
		}
		return "[" + strings.Join(parts, ",") + "]"
	case value.KindIntegerSeq:
		seq := v.IntegerSeq()
		parts := make([]string, len(seq))
		for i, n := range seq {
			parts[i] = Encode(value.Integer(n))
		}
		return "[" + strings.Join(parts, ",") + "]"
	case value.KindRealSeq:
		seq := v.RealSeq()
		parts := make([]string, len(seq))
		for i, r := range seq {
			parts[i] = Encode(value.Real(r))
		}
		return "[" + strings.Join(parts, ",") + "]"
	case value.KindStringSeq:
		seq := v.StringSeq()
		parts := make([]string, len(seq))
		for i, s := range seq {
			parts[i] = Encode(value.String(s))
		}
		return "[" + strings.Join(parts, ",") + "]"
	case value.KindTuple:
		elems := v.Tuple()
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = Encode(e)
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		return fmt.Sprintf("<unencodable %s>", v.Kind())
	}
}

func encodeReal(r float64) string {
	s := wire.EncodeReal(r)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func encodeString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\a':
			sb.WriteString(`\a`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\v':
			sb.WriteString(`\v`)
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		default:
			if c >= 0x20 && c <= 0x7f {
				sb.WriteByte(c)
			} else {
				fmt.Fprintf(&sb, `\x%02X`, c)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
