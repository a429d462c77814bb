package shardhttp

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shardserve/shardhttp/pkg/queryparam"
)

// websocketGUID is the fixed RFC 6455 §1.3 handshake constant.
const websocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// doneState is the connection's tri-state lifecycle flag (§4.3).
type doneState int32

const (
	keepOpen doneState = iota
	closeConn
	detach
)

var tracer = otel.Tracer("shardhttp")

// wsConnFactory wraps an already-upgraded socket as a WSConn, reusing the
// connection's existing buffered reader/writer. internal/wsframe.NewConn
// satisfies this signature; it is injected rather than imported so this
// package never depends on a concrete frame codec.
type wsConnFactory func(conn net.Conn, br *bufio.Reader, bw *bufio.Writer) WSConn

// Connection owns one accepted socket end to end: HTTP request/response
// cycling until either the socket closes or it is handed off to a
// WebSocket message loop. It must not be reused across sockets.
type Connection struct {
	id        uint64
	conn      net.Conn
	br        *bufio.Reader
	bw        *bufio.Writer
	parser    RequestParser
	queue     *replyQueue
	done      atomic.Int32
	server    *Server
	newWSConn wsConnFactory

	// curReq holds the request under dispatch, kept across the
	// read/respond join so the handoff can pass it to routes.HandleWS.
	curReq *Request
}

func newConnection(id uint64, conn net.Conn, queueCap int, srv *Server, wsFactory wsConnFactory) *Connection {
	br := bufio.NewReader(conn)
	bw := bufio.NewWriter(conn)
	return &Connection{
		id:        id,
		conn:      conn,
		br:        br,
		bw:        bw,
		parser:    newParserAdapter(br),
		queue:     newReplyQueue(queueCap),
		server:    srv,
		newWSConn: wsFactory,
	}
}

// process runs the connection to completion: the read/respond duet, the
// join, and — on detach — the WebSocket handoff. It returns once the
// connection (including any handed-off WebSocket loop) has finished.
func (c *Connection) process() {
	defer c.server.removeConnection(c)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); c.readLoop() }()
	go func() { defer wg.Done(); c.respondLoop() }()
	wg.Wait()

	if doneState(c.done.Load()) == detach {
		c.handoff()
		return
	}
	_ = c.conn.Close()
}

// readLoop implements spec.md §4.3.1.
func (c *Connection) readLoop() {
	for {
		c.parser.Reset()
		result, err := c.parser.ParseOne()
		if err != nil {
			c.server.metrics.readErrors.Inc()
			c.server.logger.Warn("read error", "conn", c.id, "error", err)
			c.done.Store(int32(closeConn))
			c.queue.pushEventually(nil)
			return
		}
		if result == EOFBeforeComplete {
			c.done.Store(int32(closeConn))
			c.queue.pushEventually(nil)
			return
		}

		c.server.metrics.requestsServed.Inc()
		req := c.parser.Request()
		// generateReply/upgradeWebsocket store c.done themselves, before
		// pushing the corresponding reply: the channel send's
		// happens-before edge is then what makes the store visible to
		// respondLoop's load, not goroutine-local program order alone.
		next := c.generateReply(req)
		if next != keepOpen {
			if next == closeConn {
				c.queue.pushEventually(nil)
			}
			// On detach, the reader pushes no EOF and the read buffer
			// stays open for the WebSocket loop to reuse.
			return
		}
	}
}

// respondLoop implements spec.md §4.3.2.
func (c *Connection) respondLoop() {
	for {
		reply, _ := c.queue.popEventually()
		if reply == nil {
			return
		}
		if err := c.writeReply(reply); err != nil {
			c.server.metrics.respondErrors.Inc()
			c.server.logger.Warn("respond error", "conn", c.id, "error", err)
			return
		}
		if doneState(c.done.Load()) != keepOpen {
			return
		}
	}
}

func (c *Connection) writeReply(reply *Reply) error {
	reply.Set("Server", c.server.name)
	reply.Set("Date", c.server.dateHeader())
	reply.Set("Content-Length", strconv.Itoa(len(reply.Body)))

	version := reply.Version
	if version == "" {
		version = "1.1"
	}
	if _, err := fmt.Fprintf(c.bw, "HTTP/%s %d %s\r\n", version, reply.Status, reply.ReasonPhrase()); err != nil {
		return err
	}
	for _, h := range reply.Headers() {
		if _, err := fmt.Fprintf(c.bw, "%s: %s\r\n", h.Key, h.Value); err != nil {
			return err
		}
	}
	if _, err := c.bw.WriteString("\r\n"); err != nil {
		return err
	}
	if len(reply.Body) > 0 {
		if _, err := c.bw.Write(reply.Body); err != nil {
			return err
		}
	}
	return c.bw.Flush()
}

// generateReply implements spec.md §4.3.4 and dispatches through routes,
// swallowing handler panics by converting them into a 500 reply.
func (c *Connection) generateReply(req *Request) doneState {
	path, query := queryparam.SplitQuery(req.URL)
	_, span := tracer.Start(context.Background(), "shardhttp."+req.Method+" "+path,
		trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()
	span.SetAttributes(
		attribute.Int64("shardhttp.conn_id", int64(c.id)),
	)

	connHeader := req.Header.Get("Connection")
	upgradeHeader := req.Header.Get("Upgrade")

	keepAliveRequested := tokenContains(connHeader, "Keep-Alive")
	closeRequested := tokenContains(connHeader, "Close")
	wantsUpgrade := tokenContains(connHeader, "Upgrade") && strings.EqualFold(upgradeHeader, "websocket")

	if wantsUpgrade {
		span.SetAttributes(attribute.Bool("shardhttp.upgrade", true))
		return c.upgradeWebsocket(req)
	}

	req.Path = path
	req.Query = query

	reply := c.dispatch(req, span)
	if reply.Version == "" && (req.Version == "1.0" || req.Version == "1.1") {
		reply.Version = req.Version
	}

	var shouldClose bool
	switch req.Version {
	case "1.0":
		shouldClose = !keepAliveRequested
		if keepAliveRequested {
			reply.Set("Connection", "Keep-Alive")
		}
	case "1.1":
		shouldClose = closeRequested
	default:
		shouldClose = true
	}

	span.SetAttributes(attribute.Int("shardhttp.status", reply.Status))

	next := keepOpen
	if shouldClose {
		next = closeConn
	}
	// Store done before the push: the channel send happens-before the
	// matching receive completes, which is what actually carries this
	// store's visibility to respondLoop — storing it after the push (or
	// relying on readLoop to store it once generateReply returns) would
	// let respondLoop observe the reply before the done transition and
	// loop back into popEventually forever on a detach.
	c.done.Store(int32(next))
	c.queue.pushEventually(reply)
	return next
}

func (c *Connection) dispatch(req *Request, span trace.Span) (reply *Reply) {
	defer func() {
		if r := recover(); r != nil {
			c.server.logger.Error("handler panic", "conn", c.id, "panic", r, "stack", string(debug.Stack()))
			span.RecordError(fmt.Errorf("handler panic: %v", r))
			span.SetStatus(codes.Error, "handler panic")
			reply = NewReply(500, nil)
		}
	}()
	return c.server.routes.Handle(req.Path, req)
}

// upgradeWebsocket implements spec.md §4.3.5.
func (c *Connection) upgradeWebsocket(req *Request) doneState {
	path, query := queryparam.SplitQuery(req.URL)
	req.Path = path
	req.Query = query

	key := req.Header.Get("Sec-WebSocket-Key")
	_, hasHandler := c.server.routes.GetWSHandler(path)

	if key == "" || !hasHandler {
		c.done.Store(int32(closeConn))
		c.queue.pushEventually(NewReply(400, nil))
		return closeConn
	}

	accept := acceptKey(key)
	reply := NewReply(101, nil)
	reply.Set("Upgrade", "websocket")
	reply.Set("Connection", "Upgrade")
	reply.Set("Sec-WebSocket-Accept", accept)

	c.curReq = req
	// Store detach before pushing the 101 reply (see generateReply):
	// respondLoop must never observe this reply while done still reads
	// keepOpen, or it loops back into popEventually and blocks forever
	// since the detach path pushes no EOF sentinel.
	c.done.Store(int32(detach))
	c.queue.pushEventually(reply)
	return detach
}

func acceptKey(key string) string {
	h := sha1.New()
	h.Write([]byte(key))
	h.Write([]byte(websocketGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// handoff re-wraps the still-open socket as a WebSocket transport and
// hands control to routes.HandleWS. Any panic from the handler is
// swallowed, matching the spec's "any exception from the handoff is
// swallowed" rule.
func (c *Connection) handoff() {
	defer func() {
		if r := recover(); r != nil {
			c.server.logger.Error("ws handler panic", "conn", c.id, "panic", r, "stack", string(debug.Stack()))
		}
		_ = c.conn.Close()
	}()

	wsConn := c.newWSConn(c.conn, c.br, c.bw)
	c.server.routes.HandleWS(c.curReq.Path, wsConn, c.curReq)
}

// tokenContains reports whether header contains token as one of its
// comma-separated, case-insensitively compared tokens (resolving the
// Connection/Upgrade detection open question in favor of tokenization
// rather than substring search).
func tokenContains(header, token string) bool {
	for _, part := range strings.Split(header, ",") {
		if strings.EqualFold(strings.TrimSpace(part), token) {
			return true
		}
	}
	return false
}
