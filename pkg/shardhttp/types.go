// Package shardhttp is the per-connection HTTP/1.x core: a cooperatively
// scheduled read/respond duet connected by a bounded reply queue, with
// in-place handoff to a WebSocket message loop on upgrade.
//
// The connection reaches its HTTP parser through the RequestParser
// interface declared here, backed by internal/httpparse through
// parserAdapter (adapter.go); the parser is not injectable. The Routes and
// WSConn implementations (a chi-backed router, a WebSocket frame
// transport) are wired in by callers, never imported directly.
package shardhttp

import (
	"net/textproto"
)

// Request is one parsed HTTP request, handed from a RequestParser to the
// connection and from the connection to Routes.
type Request struct {
	Method  string
	URL     string // raw, with query string
	Path    string // URL with query string stripped
	Version string // "0.9", "1.0", or "1.1"

	// Header is case-preserving on the wire but must be looked up
	// case-insensitively; textproto.MIMEHeader canonicalizes keys on
	// Add/Set, giving that for free.
	Header textproto.MIMEHeader

	// Query holds the percent-decoded query parameters split out of URL.
	// Populated by the connection before dispatch, not by the parser.
	Query map[string]string

	Body []byte
}

// HeaderField is one outbound response header, kept in insertion order so
// serialization is deterministic even though the spec does not require a
// particular order.
type HeaderField struct {
	Key   string
	Value string
}

// Reply is one outbound HTTP response. Handlers build these; the
// connection fills in the mandatory Server/Date/Content-Length headers
// before serializing.
type Reply struct {
	Status  int
	Reason  string // if empty, a standard reason phrase is used
	Version string // echoed from the request unless set explicitly

	headers    []HeaderField
	headerSeen map[string]int // canonical key -> index into headers, for Set

	Body []byte
}

// NewReply constructs a Reply with the given status and body.
func NewReply(status int, body []byte) *Reply {
	return &Reply{Status: status, Body: body}
}

// Set adds or overwrites a header, preserving first-insertion order on
// overwrite.
func (r *Reply) Set(key, value string) {
	canon := textproto.CanonicalMIMEHeaderKey(key)
	if r.headerSeen == nil {
		r.headerSeen = make(map[string]int)
	}
	if idx, ok := r.headerSeen[canon]; ok {
		r.headers[idx].Value = value
		return
	}
	r.headerSeen[canon] = len(r.headers)
	r.headers = append(r.headers, HeaderField{Key: canon, Value: value})
}

// Get returns the value most recently set for key, or "" if unset.
func (r *Reply) Get(key string) string {
	canon := textproto.CanonicalMIMEHeaderKey(key)
	if idx, ok := r.headerSeen[canon]; ok {
		return r.headers[idx].Value
	}
	return ""
}

// Headers returns the header fields in insertion order. Callers must not
// mutate the returned slice.
func (r *Reply) Headers() []HeaderField {
	return r.headers
}

var statusText = map[int]string{
	101: "Switching Protocols",
	200: "OK",
	204: "No Content",
	400: "Bad Request",
	404: "Not Found",
	405: "Method Not Allowed",
	500: "Internal Server Error",
}

// ReasonPhrase returns r.Reason if set, else a standard phrase for
// r.Status, else "Unknown".
func (r *Reply) ReasonPhrase() string {
	if r.Reason != "" {
		return r.Reason
	}
	if phrase, ok := statusText[r.Status]; ok {
		return phrase
	}
	return "Unknown"
}
