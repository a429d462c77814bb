package shardhttp

// ParseResult is the outcome of one parser attempt.
type ParseResult int

const (
	// NeedMore means the parser wants another read from the transport.
	NeedMore ParseResult = iota
	// Complete means Request() now returns a fully parsed request.
	Complete
	// EOFBeforeComplete means the stream ended before a request completed.
	EOFBeforeComplete
)

// RequestParser is the HTTP request byte-level parser the connection
// consumes. parserAdapter (adapter.go) implements it on top of
// internal/httpparse.Parser.
type RequestParser interface {
	// Reset discards any partially parsed request, readying the parser
	// for the next one on the same connection.
	Reset()
	// ParseOne blocks on the underlying reader until it has parsed a
	// complete request, hit EOF before completing one, or hit an error.
	ParseOne() (ParseResult, error)
	// Request returns the most recently completed request.
	Request() *Request
}

// WSHandler handles one upgraded WebSocket connection to completion.
type WSHandler func(conn WSConn, req *Request)

// Routes is the routing contract the connection dispatches through.
// pkg/chirouter.Router implements it.
type Routes interface {
	// Handle dispatches an HTTP request and returns the completed reply.
	// Routing failures (no match, method not allowed) are themselves
	// surfaced as an error Reply, never as a Go error.
	Handle(path string, req *Request) *Reply
	// HandleWS runs the WebSocket handler registered at path to
	// completion. Called only after GetWSHandler confirmed a match.
	HandleWS(path string, conn WSConn, req *Request)
	// GetWSHandler looks up the WebSocket handler registered at path
	// without invoking it.
	GetWSHandler(path string) (WSHandler, bool)
}

// WSConn is the WebSocket message transport a connection hands control to
// on upgrade. internal/wsframe.Conn implements it.
type WSConn interface {
	ReadMessage() (opcode int, payload []byte, err error)
	WriteMessage(opcode int, payload []byte) error
	Close() error
}
