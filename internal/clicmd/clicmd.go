// Package clicmd implements the line-oriented CLI request/response
// protocol of spec §4.7: one command per line, synchronous response,
// prompt after every turn.
//
// Grounded directly on original_source's src/cli/clisrv_context.cpp
// (process_request's trim/tokenize/dispatch/prepend-root-name logic and
// its inline 'change-ul handling), src/cli/tree_visitor.cpp and
// src/cli/browse_visitor.cpp (rendering), and src/cli/encoder.cpp
// (value encoding, already generalized into pkg/value/grammar).
package clicmd

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/decof-project/decofd/internal/access"
	"github.com/decof-project/decofd/internal/browse"
	"github.com/decof-project/decofd/internal/clientcontext"
	"github.com/decof-project/decofd/internal/decoferr"
	"github.com/decof-project/decofd/internal/dictionary"
	"github.com/decof-project/decofd/internal/strand"
	"github.com/decof-project/decofd/pkg/log"
	"github.com/decof-project/decofd/pkg/value/grammar"
)

const prompt = "> "

// trimCutset mirrors original_source's boost::is_any_of(" \f\n\r\t\v()")
// used to strip whitespace and a single outer pair of parentheses.
const trimCutset = " \f\n\r\t\v()"

const fieldCutset = " \f\n\r\t\v"

// Handler processes one CLI request/response connection's lines. It
// holds no I/O state of its own; a caller (serveConn, started per
// connection by Serve) owns the socket and feeds it lines via Handle.
type Handler struct {
	ctx      *clientcontext.Context
	rootName string
	auth     access.Authenticator
}

// NewHandler creates a request/response handler bound to ctx. auth may
// be nil, in which case 'change-ul always fails with AccessDenied.
func NewHandler(ctx *clientcontext.Context, rootName string, auth access.Authenticator) *Handler {
	return &Handler{ctx: ctx, rootName: rootName, auth: auth}
}

// Banner is written once, before the first prompt, on connect (spec
// §6: "On connect the server writes \"DeCoF command line\\n> \"").
func (h *Handler) Banner() string {
	return "DeCoF command line\n" + prompt
}

// splitField splits s on the first run of whitespace, returning the
// leading field and the left-trimmed remainder.
func splitField(s string) (field, rest string) {
	idx := strings.IndexAny(s, fieldCutset)
	if idx < 0 {
		return s, ""
	}
	return s[:idx], strings.TrimLeft(s[idx:], fieldCutset)
}

// qualify prepends the root name and separator unless uri already is,
// or starts with, the root name (spec §4.7's backward-compatibility
// rule).
func (h *Handler) qualify(uri string) string {
	if uri == h.rootName || strings.HasPrefix(uri, h.rootName+":") {
		return uri
	}
	return h.rootName + ":" + uri
}

// Handle processes a single request line and returns the full response
// to write back, including the trailing prompt.
func (h *Handler) Handle(line string) string {
	trimmed := strings.Trim(line, trimCutset)
	if trimmed == "" {
		return prompt
	}

	op, rest := splitField(trimmed)
	op = strings.ToLower(op)

	uriTok, rest := splitField(rest)
	uriTok = strings.TrimPrefix(uriTok, "'")

	changeULURI := h.rootName + ":change-ul"
	ulURI := h.rootName + ":ul"

	var uri string
	switch op {
	case "browse", "param-disp", "tree":
		if uriTok == "" {
			uri = h.rootName
		} else {
			uri = h.qualify(uriTok)
		}
	default:
		uri = h.qualify(uriTok)
	}

	switch {
	case op == "exec" && uri == changeULURI:
		return h.handleChangeUL(rest)

	case (op == "get" || op == "param-ref") && uri == ulURI && rest == "":
		return fmt.Sprintf("%d\n%s", int(h.ctx.Userlevel()), prompt)

	case op == "get" || op == "param-ref":
		if rest != "" {
			return h.errorLine(decoferr.ErrParse("unexpected value argument"))
		}
		v, err := h.ctx.Get(uri)
		if err != nil {
			return h.errorLine(err)
		}
		return grammar.Encode(v) + "\n" + prompt

	case op == "set" || op == "param-set!":
		if rest == "" {
			return h.errorLine(decoferr.ErrParse("missing value"))
		}
		v, err := grammar.Decode(rest)
		if err != nil {
			return h.errorLine(decoferr.ErrParse(err.Error()))
		}
		if err := h.ctx.Set(uri, v); err != nil {
			return h.errorLine(err)
		}
		return "0\n" + prompt

	case op == "exec" || op == "signal":
		if rest != "" {
			return h.errorLine(decoferr.ErrParse("unexpected value argument"))
		}
		if err := h.ctx.Signal(uri); err != nil {
			return h.errorLine(err)
		}
		return "()\n" + prompt

	case (op == "browse" || op == "param-disp") && rest == "":
		var b strings.Builder
		err := h.ctx.Browse(uri, func(e clientcontext.BrowseEntry) { browse.WriteBrowseLine(&b, e) })
		if err != nil {
			return h.errorLine(err)
		}
		return b.String() + prompt

	case op == "tree" && rest == "":
		var b strings.Builder
		err := h.ctx.Browse(uri, func(e clientcontext.BrowseEntry) { browse.WriteTreeLine(&b, e) })
		if err != nil {
			return h.errorLine(err)
		}
		return b.String() + prompt

	default:
		return h.errorLine(decoferr.ErrUnknownOperation(op))
	}
}

// handleChangeUL implements the 'change-ul meta-operation: "exec
// 'change-ul <int> \"<password>\"" (spec §4.7/§4.6), grounded on
// clisrv_context::process_request's inline special case.
func (h *Handler) handleChangeUL(rest string) string {
	ulTok, passwordTok := splitField(rest)
	ul64, err := strconv.Atoi(ulTok)
	if err != nil {
		return h.errorLine(decoferr.ErrParse("invalid userlevel"))
	}
	level, ok := access.ParseUserlevel(ul64)
	if !ok {
		return h.errorLine(decoferr.ErrInvalidUserlevel())
	}

	passwordVal, err := grammar.Decode(strings.TrimSpace(passwordTok))
	if err != nil {
		return h.errorLine(decoferr.ErrParse("invalid password literal"))
	}
	password := passwordVal.GoString()

	if h.auth == nil || !h.auth(h.ctx, level, password) {
		return h.errorLine(decoferr.ErrAccessDenied())
	}
	if err := h.ctx.ChangeUserlevel(level); err != nil {
		return h.errorLine(err)
	}
	return fmt.Sprintf("%d\n%s", int(level), prompt)
}

func (h *Handler) errorLine(err error) string {
	code := decoferr.CodeOf(err)
	msg := code.Text()
	if de, ok := decoferr.As(err); ok {
		msg = de.Msg
	}
	return fmt.Sprintf("ERROR %d: %s\n%s", int(code), msg, prompt)
}

// Serve accepts connections on ln and runs the request/response
// protocol over each until the client disconnects or ln closes.
// Grounded on clisrv_context's one-goroutine-per-connection model
// (each scgi/cli/pubsub context owns its own socket in the original);
// Go's net.Listener Accept loop + a line scanner per connection is the
// idiomatic equivalent of that per-connection state machine.
func Serve(ln net.Listener, dict *dictionary.Dictionary, sd *strand.Strand, rootName string, auth access.Authenticator) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go serveConn(conn, dict, sd, rootName, auth)
	}
}

func serveConn(conn net.Conn, dict *dictionary.Dictionary, sd *strand.Strand, rootName string, auth access.Authenticator) {
	defer conn.Close()

	ctx := clientcontext.New(dict, sd, "cli", conn.RemoteAddr().String(), access.Normal)
	defer ctx.UnobserveAll()

	h := NewHandler(ctx, rootName, auth)
	if _, err := conn.Write([]byte(h.Banner())); err != nil {
		return
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		if _, err := conn.Write([]byte(h.Handle(scanner.Text()))); err != nil {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		log.Debug("clicmd: connection ", conn.RemoteAddr(), " read error: ", err)
	}
}

