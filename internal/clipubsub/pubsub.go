// Package clipubsub implements the CLI publish/subscribe protocol of
// spec §4.8: a separate listener from the request/response CLI,
// commands "subscribe|add <URI>" / "unsubscribe|remove <URI>", and
// unsolicited notification lines drained from a per-context coalescing
// buffer.
//
// Grounded on original_source include/decof/cli/pubsub_context.h (one
// socket, one update_container, a writing_active_ latch so only one
// write is ever in flight) and include/decof/cli/update_container.h
// (generalized into clipubsub/coalesce).
package clipubsub

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/decof-project/decofd/internal/access"
	"github.com/decof-project/decofd/internal/clientcontext"
	"github.com/decof-project/decofd/internal/clipubsub/coalesce"
	"github.com/decof-project/decofd/internal/decoferr"
	"github.com/decof-project/decofd/internal/dictionary"
	"github.com/decof-project/decofd/internal/strand"
	"github.com/decof-project/decofd/pkg/log"
	"github.com/decof-project/decofd/pkg/value"
	"github.com/decof-project/decofd/pkg/value/grammar"
)

// NotificationsDelivered counts unsolicited notification lines actually
// written to a subscriber's socket. cmd/decofd registers it on the
// /debug mux's own Prometheus registry (internal/debugmux) rather than
// the global DefaultRegisterer, so it stays one of DeCoF's own
// telemetry signals instead of leaking into whatever else links
// against this process.
var NotificationsDelivered = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "decof_pubsub_notifications_delivered_total",
	Help: "Unsolicited pub/sub notification lines written to subscriber connections.",
})

const (
	ack         = "0\n"
	fieldCutset = " \f\n\r\t\v"
	trimCutset  = " \f\n\r\t\v()"

	// isoTimestamp renders ISO-8601 with millisecond resolution (spec
	// §4.8's notification line format).
	isoTimestamp = "2006-01-02T15:04:05.000Z07:00"
)

// Context holds one pub/sub connection's subscriptions and its
// coalescing buffer. Value-change notifications are pushed into
// Pending by Subscribe's callback; a caller (the connection's write
// loop) drains Pending with DrainLine and writes the result to the
// socket.
type Context struct {
	cc      *clientcontext.Context
	Pending *coalesce.Buffer
}

func New(cc *clientcontext.Context) *Context {
	return &Context{cc: cc, Pending: coalesce.New()}
}

func splitField(s string) (field, rest string) {
	idx := strings.IndexAny(s, fieldCutset)
	if idx < 0 {
		return s, ""
	}
	return s[:idx], strings.TrimLeft(s[idx:], fieldCutset)
}

// Handle processes one subscribe/unsubscribe request line and returns
// the line to write back: "0\n" on success, "ERROR <code>: <text>\n" on
// failure. Unlike the request/response CLI (spec §4.7) this protocol
// carries no prompt.
func (c *Context) Handle(line string) string {
	trimmed := strings.Trim(line, trimCutset)
	if trimmed == "" {
		return ""
	}
	op, rest := splitField(trimmed)
	op = strings.ToLower(op)
	uri := strings.TrimPrefix(strings.TrimSpace(rest), "'")

	switch op {
	case "subscribe", "add":
		if uri == "" {
			return errorLine(decoferr.ErrParse("missing uri"))
		}
		return c.Subscribe(uri)
	case "unsubscribe", "remove":
		if uri == "" {
			return errorLine(decoferr.ErrParse("missing uri"))
		}
		if err := c.cc.Unobserve(uri); err != nil {
			return errorLine(err)
		}
		return ack
	default:
		return errorLine(decoferr.ErrUnknownOperation(op))
	}
}

// Subscribe attaches uri's notifications to c.Pending, coalescing
// repeated updates per spec §4.8.
func (c *Context) Subscribe(uri string) string {
	_, err := c.cc.Observe(uri, func(v value.Value) {
		c.Pending.Push(uri, v, time.Now())
	})
	if err != nil {
		return errorLine(err)
	}
	return ack
}

// DrainLine pops the oldest pending update, if any, and formats it as
// an unsolicited notification line: "(<timestamp> '<uri>
// <encoded-value>)\n" (spec §4.8).
func (c *Context) DrainLine() (line string, ok bool) {
	u, ok := c.Pending.PopFront()
	if !ok {
		return "", false
	}
	NotificationsDelivered.Inc()
	return fmt.Sprintf("(%s '%s %s)\n", u.Timestamp.UTC().Format(isoTimestamp), u.URI, grammar.Encode(u.Value)), true
}

func errorLine(err error) string {
	code := decoferr.CodeOf(err)
	msg := code.Text()
	if de, ok := decoferr.As(err); ok {
		msg = de.Msg
	}
	return fmt.Sprintf("ERROR %d: %s\n", int(code), msg)
}

// Serve accepts connections on ln and runs the pub/sub protocol over
// each: requests are read from the socket on one goroutine while a
// second goroutine drains Pending and writes unsolicited notification
// lines, matching pubsub_context's single writing_active_ latch
// structure with two concurrent directions instead of one.
func Serve(ln net.Listener, dict *dictionary.Dictionary, sd *strand.Strand) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go serveConn(conn, dict, sd)
	}
}

func serveConn(conn net.Conn, dict *dictionary.Dictionary, sd *strand.Strand) {
	defer conn.Close()

	cc := clientcontext.New(dict, sd, "cli-pubsub", conn.RemoteAddr().String(), access.Normal)
	defer cc.UnobserveAll()
	pc := New(cc)

	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			if _, err := conn.Write([]byte(pc.Handle(scanner.Text()))); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			for {
				line, ok := pc.DrainLine()
				if !ok {
					break
				}
				if _, err := conn.Write([]byte(line)); err != nil {
					log.Debug("clipubsub: connection ", conn.RemoteAddr(), " write error: ", err)
					return
				}
			}
		}
	}
}
