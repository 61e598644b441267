// Package grammar implements the CLI textual value grammar of spec §4.10:
// the scalar literal forms (#t/#f booleans, signed decimal integers,
// decimal/exponent reals, backslash/hex-escaped strings, base64
// binaries), homogeneous sequences in [...], and heterogeneous tuples in
// {...}.
//
// Grounded on original_source/scheme_protocol.cpp's tokenizer (quote and
// whitespace handling) and spec §4.10's literal grammar, which is
// self-contained enough that no parser-combinator dependency is
// warranted — see DESIGN.md.
package grammar

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/decof-project/decofd/pkg/value"
)

// Decode parses a single value literal. The entire string must be
// consumed by exactly one value (surrounding whitespace is trimmed).
func Decode(s string) (value.Value, error) {
	p := &parser{src: s}
	p.skipSpace()
	v, err := p.parseValue()
	if err != nil {
		return value.Value{}, err
	}
	p.skipSpace()
	if !p.atEnd() {
		return value.Value{}, fmt.Errorf("grammar: trailing input %q", p.src[p.pos:])
	}
	return v, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) atEnd() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.atEnd() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for !p.atEnd() {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) parseValue() (value.Value, error) {
	if p.atEnd() {
		return value.Value{}, fmt.Errorf("grammar: unexpected end of input")
	}

	switch p.peek() {
	case '#':
		return p.parseBoolean()
	case '"':
		return p.parseString()
	case '&':
		return p.parseBinary()
	case '[':
		return p.parseSequence()
	case '{':
		return p.parseTuple()
	default:
		return p.parseNumber()
	}
}

func (p *parser) parseBoolean() (value.Value, error) {
	if strings.HasPrefix(p.src[p.pos:], "#t") {
		p.pos += 2
		return value.Boolean(true), nil
	}
	if strings.HasPrefix(p.src[p.pos:], "#f") {
		p.pos += 2
		return value.Boolean(false), nil
	}
	return value.Value{}, fmt.Errorf("grammar: malformed boolean literal at %d", p.pos)
}

func (p *parser) parseNumber() (value.Value, error) {
	start := p.pos
	if p.peek() == '+' || p.peek() == '-' {
		p.pos++
	}
	sawDigit := false
	for !p.atEnd() && isDigit(p.src[p.pos]) {
		p.pos++
		sawDigit = true
	}

	isReal := false
	if !p.atEnd() && p.src[p.pos] == '.' {
		isReal = true
		p.pos++
		for !p.atEnd() && isDigit(p.src[p.pos]) {
			p.pos++
			sawDigit = true
		}
	}
	if !p.atEnd() && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		save := p.pos
		p.pos++
		if !p.atEnd() && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
			p.pos++
		}
		expDigits := false
		for !p.atEnd() && isDigit(p.src[p.pos]) {
			p.pos++
			expDigits = true
		}
		if expDigits {
			isReal = true
		} else {
			p.pos = save
		}
	}

	if !sawDigit {
		return value.Value{}, fmt.Errorf("grammar: malformed number at %d", start)
	}

	lit := p.src[start:p.pos]
	if isReal {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("grammar: malformed real %q: %w", lit, err)
		}
		return value.Real(f), nil
	}
	i, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return value.Value{}, fmt.Errorf("grammar: malformed integer %q: %w", lit, err)
	}
	return value.Integer(i), nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func (p *parser) parseString() (value.Value, error) {
	if p.peek() != '"' {
		return value.Value{}, fmt.Errorf("grammar: expected '\"' at %d", p.pos)
	}
	p.pos++

	var sb strings.Builder
	for {
		if p.atEnd() {
			return value.Value{}, fmt.Errorf("grammar: unterminated string")
		}
		c := p.src[p.pos]
		if c == '"' {
			p.pos++
			return value.String(sb.String()), nil
		}
		if c == '\\' {
			p.pos++
			if p.atEnd() {
				return value.Value{}, fmt.Errorf("grammar: unterminated escape")
			}
			esc := p.src[p.pos]
			switch esc {
			case 'a':
				sb.WriteByte('\a')
				p.pos++
			case 'b':
				sb.WriteByte('\b')
				p.pos++
			case 'f':
				sb.WriteByte('\f')
				p.pos++
			case 'n':
				sb.WriteByte('\n')
				p.pos++
			case 'r':
				sb.WriteByte('\r')
				p.pos++
			case 't':
				sb.WriteByte('\t')
				p.pos++
			case 'v':
				sb.WriteByte('\v')
				p.pos++
			case '\\':
				sb.WriteByte('\\')
				p.pos++
			case '\'':
				sb.WriteByte('\'')
				p.pos++
			case '"':
				sb.WriteByte('"')
				p.pos++
			case '?':
				sb.WriteByte('?')
				p.pos++
			case 'x':
				p.pos++
				if p.pos+2 > len(p.src) {
					return value.Value{}, fmt.Errorf("grammar: truncated \\x escape")
				}
				hex := p.src[p.pos : p.pos+2]
				n, err := strconv.ParseUint(hex, 16, 8)
				if err != nil {
					return value.Value{}, fmt.Errorf("grammar: malformed \\x escape %q: %w", hex, err)
				}
				sb.WriteByte(byte(n))
				p.pos += 2
			default:
				return value.Value{}, fmt.Errorf("grammar: unknown escape sequence \\%c", esc)
			}
			continue
		}
		if c < 0x20 || c > 0x7f {
			return value.Value{}, fmt.Errorf("grammar: unescaped byte 0x%02x in string", c)
		}
		sb.WriteByte(c)
		p.pos++
	}
}

func (p *parser) parseBinary() (value.Value, error) {
	if p.peek() != '&' {
		return value.Value{}, fmt.Errorf("grammar: expected '&' at %d", p.pos)
	}
	p.pos++
	start := p.pos
	for !p.atEnd() && isBase64Char(p.src[p.pos]) {
		p.pos++
	}
	lit := p.src[start:p.pos]
	data, err := base64.StdEncoding.DecodeString(lit)
	if err != nil {
		return value.Value{}, fmt.Errorf("grammar: malformed base64 binary %q: %w", lit, err)
	}
	return value.Binary(data), nil
}

func isBase64Char(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '+' || c == '/' || c == '=':
		return true
	default:
		return false
	}
}

func (p *parser) parseDelimited(open, close byte) ([]value.Value, error) {
	if p.peek() != open {
		return nil, fmt.Errorf("grammar: expected %q at %d", open, p.pos)
	}
	p.pos++
	p.skipSpace()

	var elems []value.Value
	if p.peek() == close {
		p.pos++
		return elems, nil
	}

	for {
		p.skipSpace()
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
		p.skipSpace()
		if p.atEnd() {
			return nil, fmt.Errorf("grammar: unterminated %q", open)
		}
		switch p.peek() {
		case ',':
			p.pos++
			continue
		case close:
			p.pos++
			return elems, nil
		default:
			return nil, fmt.Errorf("grammar: expected ',' or %q at %d", close, p.pos)
		}
	}
}

func (p *parser) parseSequence() (value.Value, error) {
	elems, err := p.parseDelimited('[', ']')
	if err != nil {
		return value.Value{}, err
	}
	if len(elems) == 0 {
		// An empty sequence has no element to infer a kind from; treat
		// it as an empty string sequence, the original's default for
		// an untyped empty homogeneous container.
		return value.StringSeq(nil), nil
	}

	kind := elems[0].Kind()
	for _, e := range elems[1:] {
		if e.Kind() != kind {
			return value.Value{}, fmt.Errorf("grammar: heterogeneous sequence element of kind %s, want %s", e.Kind(), kind)
		}
	}

	switch kind {
	case value.KindBoolean:
		out := make([]bool, len(elems))
		for i, e := range elems {
			out[i] = e.Boolean()
		}
		return value.BooleanSeq(out), nil
	case value.KindInteger:
		out := make([]int64, len(elems))
		for i, e := range elems {
			out[i] = e.Integer()
		}
		return value.IntegerSeq(out), nil
	case value.KindReal:
		out := make([]float64, len(elems))
		for i, e := range elems {
			out[i] = e.Real()
		}
		return value.RealSeq(out), nil
	case value.KindString:
		out := make([]string, len(elems))
		for i, e := range elems {
			out[i] = e.String()
		}
		return value.StringSeq(out), nil
	default:
		return value.Value{}, fmt.Errorf("grammar: sequences of %s are not implemented", kind)
	}
}

func (p *parser) parseTuple() (value.Value, error) {
	elems, err := p.parseDelimited('{', '}')
	if err != nil {
		return value.Value{}, err
	}
	return value.Tuple(elems...), nil
}
