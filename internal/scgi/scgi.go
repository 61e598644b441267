// Package scgi implements the SCGI façade of spec §4.9: netstring framed
// requests over a TCP listener, GET/PUT/POST method dispatch against a
// client context, and the typed wire encodings shared with the CLI's
// value grammar.
//
// Framing is grounded directly on original_source
// src/scgi/request_parser.cpp's character-state-machine (netstring
// length prefix, NUL-separated CONTENT_LENGTH-first/SCGI-second header
// block, raw Content-Length body) and on the general netstring/record
// framing style of other_examples' FastCGI client
// (encoding/binary + bufio for a length-prefixed wire protocol). Method
// dispatch, the vnd/com.toptica.decof.* content-type table, and the
// response status line are grounded on src/scgi/context.cpp and
// src/scgi/response.h.
package scgi

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/decof-project/decofd/internal/access"
	"github.com/decof-project/decofd/internal/browse"
	"github.com/decof-project/decofd/internal/clientcontext"
	"github.com/decof-project/decofd/internal/decoferr"
	"github.com/decof-project/decofd/internal/dictionary"
	"github.com/decof-project/decofd/internal/scgi/chunked"
	"github.com/decof-project/decofd/internal/strand"
	"github.com/decof-project/decofd/pkg/log"
	"github.com/decof-project/decofd/pkg/value"
	"github.com/decof-project/decofd/pkg/value/wire"
)

// pathSeparator is the SCGI façade's URI path delimiter, '/' instead of the
// CLI's ':' (spec §4.9). The shared dictionary is configured with ':';
// a request URI is translated at the door rather than carrying a
// separator argument through clientcontext.Context, since that type's
// API (grounded on client_context's uniform Get/Set/Signal) has no
// per-call separator parameter.
const pathSeparator = '/'

func translateURI(uri string) string {
	return strings.ReplaceAll(uri, string(pathSeparator), ":")
}

// Request is one fully framed SCGI request.
type Request struct {
	Method      string
	URI         string
	ContentType string
	Headers     map[string]string
	Body        []byte
}

// ReadRequest reads and validates exactly one netstring-framed SCGI
// request from r, per request_parser.cpp: a decimal length prefix, a
// ':', a NUL-separated header block whose first pair must be
// CONTENT_LENGTH and second must be SCGI=1, a terminating ',', and
// finally Content-Length raw body bytes.
func ReadRequest(r *bufio.Reader) (*Request, error) {
	length, err := readNetstringLength(r)
	if err != nil {
		return nil, err
	}

	headerBlock := make([]byte, length)
	if _, err := io.ReadFull(r, headerBlock); err != nil {
		return nil, decoferr.ErrParse("short header block")
	}
	comma, err := r.ReadByte()
	if err != nil || comma != ',' {
		return nil, decoferr.ErrParse("missing netstring terminator")
	}

	headers, order, err := parseHeaderBlock(headerBlock)
	if err != nil {
		return nil, err
	}
	if len(order) == 0 || order[0] != "CONTENT_LENGTH" {
		return nil, decoferr.ErrParse("CONTENT_LENGTH must be the first header")
	}
	if len(order) < 2 || order[1] != "SCGI" || headers["SCGI"] != "1" {
		return nil, decoferr.ErrParse("SCGI=1 must be the second header")
	}

	contentLength, err := strconv.Atoi(headers["CONTENT_LENGTH"])
	if err != nil || contentLength < 0 {
		return nil, decoferr.ErrParse("invalid CONTENT_LENGTH")
	}
	body := make([]byte, contentLength)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, decoferr.ErrParse("short body")
	}

	// Transfer-Encoding: chunked (spec §4.9) is recognized on top of the
	// netstring's own Content-Length framing: CONTENT_LENGTH describes
	// the chunk-encoded byte count, and the chunked reader unwraps the
	// literal body from it.
	if strings.EqualFold(headers["HTTP_TRANSFER_ENCODING"], "chunked") {
		decoded, err := chunked.Decode(bufio.NewReader(bytes.NewReader(body)))
		if err != nil {
			return nil, err
		}
		body = decoded
	}

	return &Request{
		Method:      headers["REQUEST_METHOD"],
		URI:         headers["REQUEST_URI"],
		ContentType: headers["CONTENT_TYPE"],
		Headers:     headers,
		Body:        body,
	}, nil
}

func readNetstringLength(r *bufio.Reader) (int, error) {
	var digits []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, decoferr.ErrParse("truncated netstring length")
		}
		if b == ':' {
			break
		}
		if b < '0' || b > '9' {
			return 0, decoferr.ErrParse("invalid netstring length digit")
		}
		digits = append(digits, b)
		if len(digits) > 9 {
			return 0, decoferr.ErrParse("netstring length too long")
		}
	}
	if len(digits) == 0 {
		return 0, decoferr.ErrParse("empty netstring length")
	}
	n, err := strconv.Atoi(string(digits))
	if err != nil {
		return 0, decoferr.ErrParse("invalid netstring length")
	}
	return n, nil
}

// parseHeaderBlock splits a NUL-separated key\0value\0... block into a
// map plus the order headers were encountered in (order matters only
// for the CONTENT_LENGTH-first/SCGI-second validation above).
func parseHeaderBlock(block []byte) (map[string]string, []string, error) {
	headers := make(map[string]string)
	var order []string
	parts := strings.Split(string(block), "\x00")
	// A well-formed block is "k\0v\0k\0v\0...\0" -- splitting on NUL
	// leaves one trailing empty element.
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	if len(parts)%2 != 0 {
		return nil, nil, decoferr.ErrParse("odd number of header fields")
	}
	for i := 0; i < len(parts); i += 2 {
		key := parts[i]
		if key == "" {
			return nil, nil, decoferr.ErrParse("empty header name")
		}
		headers[key] = parts[i+1]
		order = append(order, key)
	}
	return headers, order, nil
}

// Response is one HTTP-over-SCGI response.
type Response struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

var statusText = map[int]string{
	200: "OK",
	400: "Bad Request",
	401: "Unauthorized",
	404: "Not Found",
	500: "Internal Server Error",
	501: "Not Implemented",
}

func stockResponse(status int) *Response {
	return &Response{Status: status, Headers: map[string]string{}}
}

// WriteResponse writes resp as an HTTP/1.1 status line plus headers,
// matching original_source src/scgi/response.h's stream-insertion
// operator: a default "Content-Type: text/plain" when none was set, and
// a body/Content-Length pair present whenever the status isn't
// informational/204/304.
func WriteResponse(w io.Writer, resp *Response) error {
	text, ok := statusText[resp.Status]
	if !ok {
		text = "Error"
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", resp.Status, text)

	keys := make([]string, 0, len(resp.Headers))
	for k := range resp.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(bw, "%s: %s\r\n", k, resp.Headers[k])
	}
	if _, ok := resp.Headers["Content-Type"]; !ok {
		fmt.Fprintf(bw, "Content-Type: text/plain\r\n")
	}

	noBody := resp.Status < 200 || resp.Status == 204 || resp.Status == 304
	if noBody {
		fmt.Fprintf(bw, "\r\n")
	} else {
		fmt.Fprintf(bw, "Content-Length: %d\r\n\r\n", len(resp.Body))
		bw.Write(resp.Body)
	}
	return bw.Flush()
}

// Handler dispatches one SCGI request to a client context. One Handler
// serves one connection (SCGI is one-request-per-connection, per
// request_parser.cpp's single-shot parse/disconnect cycle in
// scgi_context::read_handler). Unlike the CLI's Handler, it never
// auto-qualifies a URI with the root name: context.cpp's
// get_parameter(parser_.uri, '/') is called with the request URI
// exactly as received, so an SCGI client is expected to address
// parameters by their full root-qualified path already (e.g.
// "/test/scalars/integer_rw"), not a CLI-style shorthand.
type Handler struct {
	cc *clientcontext.Context
}

func NewHandler(cc *clientcontext.Context) *Handler {
	return &Handler{cc: cc}
}

// Handle dispatches req and always returns a Response -- errors are
// folded into an HTTP status per decoferr.Code.HTTPStatus, mirroring
// scgi_context::read_handler's catch-and-respond structure.
func (h *Handler) Handle(req *Request) *Response {
	if req.Method == "GET" && req.URI == "/browse" {
		return h.handleBrowse()
	}

	uri := translateURI(req.URI)

	switch req.Method {
	case "GET":
		return h.handleGet(uri)
	case "PUT":
		return h.handlePut(uri, req.ContentType, req.Body)
	case "POST":
		return h.handlePost(uri)
	default:
		return stockResponse(400)
	}
}

// handleBrowse renders the whole tree as the XML document of spec §6/§9
// (internal/browse.XML), grounded on src/scgi/xml_visitor.cpp.
func (h *Handler) handleBrowse() *Response {
	var entries []clientcontext.BrowseEntry
	err := h.cc.Browse("", func(e clientcontext.BrowseEntry) { entries = append(entries, e) })
	if err != nil {
		return errorResponse(err)
	}
	resp := stockResponse(200)
	resp.Headers = map[string]string{"Content-Type": "application/xml"}
	resp.Body = browse.XML(entries)
	return resp
}

func (h *Handler) handleGet(uri string) *Response {
	v, err := h.cc.Get(uri)
	if err != nil {
		return errorResponse(err)
	}
	resp := stockResponse(200)
	resp.Body = encodeGetValue(v)
	return resp
}

func (h *Handler) handlePut(uri, contentType string, body []byte) *Response {
	v, err := decodePutValue(contentType, body)
	if err != nil {
		return errorResponse(err)
	}
	if err := h.cc.Set(uri, v); err != nil {
		return errorResponse(err)
	}
	return stockResponse(200)
}

func (h *Handler) handlePost(uri string) *Response {
	if err := h.cc.Signal(uri); err != nil {
		return errorResponse(err)
	}
	return stockResponse(200)
}

func errorResponse(err error) *Response {
	return stockResponse(decoferr.CodeOf(err).HTTPStatus())
}

// contentType maps a GET/PUT vnd/com.toptica.decof.* media type to the
// value.Kind it names (spec §4.9's type table).
const (
	ctBoolean    = "vnd/com.toptica.decof.boolean"
	ctInteger    = "vnd/com.toptica.decof.integer"
	ctReal       = "vnd/com.toptica.decof.real"
	ctString     = "vnd/com.toptica.decof.string"
	ctBinary     = "vnd/com.toptica.decof.binary"
	ctBooleanSeq = "vnd/com.toptica.decof.boolean_seq"
	ctIntegerSeq = "vnd/com.toptica.decof.integer_seq"
	ctRealSeq    = "vnd/com.toptica.decof.real_seq"
	ctStringSeq  = "vnd/com.toptica.decof.string_seq"
	ctBinarySeq  = "vnd/com.toptica.decof.binary_seq"
	ctTuple      = "vnd/com.toptica.decof.tuple"
)

// decodePutValue decodes a PUT request body per its Content-Type,
// grounded one-for-one on scgi_context::handle_put_request: the whole
// body is whitespace-trimmed before any type-specific parsing (even for
// string/binary payloads, a quirk of the original kept here for wire
// compatibility), scalar sequences are little-endian packed
// fixed-width elements (int32 for integer_seq, float64 for real_seq,
// matching typed_array_value_encoder's exact widths), and string_seq is
// a leading packed int32 array of element lengths up to the first
// "\r\n", then the concatenated string data. A string_seq body of
// bencode strings each followed by "\r\n" (the form encodeGetValue
// emits) is not accepted.
func decodePutValue(contentType string, body []byte) (value.Value, error) {
	trimmed := strings.TrimSpace(string(body))

	switch contentType {
	case ctBoolean:
		switch trimmed {
		case "true":
			return value.Boolean(true), nil
		case "false":
			return value.Boolean(false), nil
		default:
			return value.Value{}, decoferr.ErrInvalidValue("expected true or false")
		}
	case ctInteger:
		field := strings.Fields(trimmed)
		if len(field) != 1 {
			return value.Value{}, decoferr.ErrInvalidValue("expected one integer")
		}
		n, err := strconv.ParseInt(field[0], 10, 64)
		if err != nil {
			return value.Value{}, decoferr.ErrInvalidValue("malformed integer")
		}
		return value.Integer(n), nil
	case ctReal:
		field := strings.Fields(trimmed)
		if len(field) != 1 {
			return value.Value{}, decoferr.ErrInvalidValue("expected one real")
		}
		r, err := strconv.ParseFloat(field[0], 64)
		if err != nil {
			return value.Value{}, decoferr.ErrInvalidValue("malformed real")
		}
		return value.Real(r), nil
	case ctString:
		return value.String(trimmed), nil
	case ctBinary:
		return value.Binary([]byte(trimmed)), nil
	case ctBooleanSeq:
		raw := []byte(trimmed)
		seq := make([]bool, len(raw))
		for i, b := range raw {
			seq[i] = b > 0
		}
		return value.BooleanSeq(seq), nil
	case ctIntegerSeq:
		raw := []byte(trimmed)
		if len(raw)%4 != 0 {
			return value.Value{}, decoferr.ErrInvalidValue("integer_seq body not a multiple of 4 bytes")
		}
		seq := make([]int64, len(raw)/4)
		for i := range seq {
			seq[i] = int64(int32(binary.LittleEndian.Uint32(raw[i*4:])))
		}
		return value.IntegerSeq(seq), nil
	case ctRealSeq:
		raw := []byte(trimmed)
		if len(raw)%8 != 0 {
			return value.Value{}, decoferr.ErrInvalidValue("real_seq body not a multiple of 8 bytes")
		}
		seq := make([]float64, len(raw)/8)
		for i := range seq {
			seq[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
		}
		return value.RealSeq(seq), nil
	case ctStringSeq:
		return decodeStringSeq(trimmed)
	case ctBinarySeq, ctTuple:
		return value.Value{}, decoferr.ErrNotImplemented()
	default:
		return value.Value{}, decoferr.ErrWrongType(contentType)
	}
}

// decodeStringSeq implements scgi_context::handle_put_request's
// string_seq branch: a leading packed int32-per-element length table
// terminated by the first literal "\r\n", followed by the concatenated
// string data sized by that table.
func decodeStringSeq(body string) (value.Value, error) {
	pos := strings.Index(body, "\r\n")
	if pos < 0 {
		return value.Value{}, decoferr.ErrInvalidValue("string_seq missing length-table terminator")
	}
	if pos%4 != 0 {
		return value.Value{}, decoferr.ErrInvalidValue("string_seq length table not a multiple of 4 bytes")
	}
	lengths := make([]int32, pos/4)
	table := []byte(body[:pos])
	for i := range lengths {
		lengths[i] = int32(binary.LittleEndian.Uint32(table[i*4:]))
	}

	cursor := pos + 2
	elems := make([]string, 0, len(lengths))
	for _, n := range lengths {
		if n < 0 || cursor+int(n) > len(body) {
			return value.Value{}, decoferr.ErrInvalidValue("string_seq element overruns body")
		}
		elems = append(elems, body[cursor:cursor+int(n)])
		cursor += int(n)
	}
	return value.StringSeq(elems), nil
}

// encodeGetValue renders a GET response body: scalars as human-readable
// text (booleans "true"/"false", reals via pkg/value/wire's shared
// 17-significant-digit formatting, the same rule grammar.Encode uses
// for the CLI), boolean/integer/real sequences as the same packed forms
// PUT accepts, string sequences as bencode strings each followed by
// "\r\n" (a form decodePutValue does not accept), and tuples as each
// element's encoding followed by "\r\n" --
// all grounded directly on js_value_encoder.cpp/typed_array_value_encoder.cpp.
// The response Content-Type is always "text/plain" regardless of kind,
// matching the original's unconditional header assignment in
// handle_get_request.
func encodeGetValue(v value.Value) []byte {
	switch v.Kind() {
	case value.KindBoolean:
		if v.Boolean() {
			return []byte("true")
		}
		return []byte("false")
	case value.KindInteger:
		return []byte(strconv.FormatInt(v.Integer(), 10))
	case value.KindReal:
		return []byte(wire.EncodeReal(v.Real()))
	case value.KindString:
		return []byte(v.String())
	case value.KindBinary:
		return v.Binary()
	case value.KindBooleanSeq:
		seq := v.BooleanSeq()
		out := make([]byte, len(seq))
		for i, b := range seq {
			if b {
				out[i] = 1
			}
		}
		return out
	case value.KindIntegerSeq:
		seq := v.IntegerSeq()
		out := make([]byte, len(seq)*4)
		for i, n := range seq {
			binary.LittleEndian.PutUint32(out[i*4:], uint32(int32(n)))
		}
		return out
	case value.KindRealSeq:
		seq := v.RealSeq()
		out := make([]byte, len(seq)*8)
		for i, r := range seq {
			binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(r))
		}
		return out
	case value.KindStringSeq:
		var b strings.Builder
		for _, s := range v.StringSeq() {
			fmt.Fprintf(&b, "%d:%s\r\n", len(s), s)
		}
		return []byte(b.String())
	case value.KindTuple:
		var b strings.Builder
		for _, elem := range v.Tuple() {
			b.Write(encodeGetValue(elem))
			b.WriteString("\r\n")
		}
		return []byte(b.String())
	default:
		return nil
	}
}

// limiterSet holds one malformed-request limiter per remote endpoint;
// forAddr creates an endpoint's limiter on first use. A per-endpoint rather than
// global limiter keeps one noisy peer from penalizing every other
// connection; SCGI is the one surface in scope that parses untrusted
// framed input straight off the wire (spec §4.9's netstring parser),
// so it is the one surface that needs this guard.
type limiterSet struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newLimiterSet() *limiterSet {
	return &limiterSet{limiters: make(map[string]*rate.Limiter)}
}

func (s *limiterSet) forAddr(addr string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[addr]
	if !ok {
		l = rate.NewLimiter(rate.Every(time.Second), 5)
		s.limiters[addr] = l
	}
	return l
}

// Serve accepts connections on ln and runs one SCGI request per
// connection, matching scgi_context::read_handler's parse-dispatch-
// disconnect cycle.
func Serve(ln net.Listener, dict *dictionary.Dictionary, sd *strand.Strand) error {
	limiters := newLimiterSet()
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go serveConn(conn, dict, sd, limiters)
	}
}

func serveConn(conn net.Conn, dict *dictionary.Dictionary, sd *strand.Strand, limiters *limiterSet) {
	defer conn.Close()

	addr, _, _ := net.SplitHostPort(conn.RemoteAddr().String())
	limiter := limiters.forAddr(addr)

	req, err := ReadRequest(bufio.NewReader(conn))
	if err != nil {
		if !limiter.Allow() {
			log.Warn("scgi: remote ", conn.RemoteAddr(), " throttled after repeated malformed requests")
			return
		}
		WriteResponse(conn, stockResponse(decoferr.CodeOf(err).HTTPStatus()))
		return
	}

	cc := clientcontext.New(dict, sd, "scgi", conn.RemoteAddr().String(), access.Normal)
	defer cc.UnobserveAll()

	h := NewHandler(cc)
	WriteResponse(conn, h.Handle(req))
}
