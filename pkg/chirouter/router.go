// Package chirouter is a concrete Routes implementation built on
// go-chi/chi/v5's radix matcher. It adapts the core's Request/Reply types
// to and from net/http's Handler surface so chi's own matching and
// middleware machinery can be reused unmodified.
package chirouter

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shardserve/shardhttp/pkg/shardhttp"
)

// HTTPHandlerFunc produces a completed reply for a dispatched request.
type HTTPHandlerFunc func(req *shardhttp.Request) *shardhttp.Reply

// Router implements shardhttp.Routes. HTTP method routes are matched and
// dispatched through one chi.Mux; WebSocket routes are registered into a
// second chi.Mux used purely for "is there a route" lookups via
// Mux.Match, with the actual handler held in a parallel map keyed by the
// resolved route pattern.
type Router struct {
	mux   *chi.Mux
	wsMux *chi.Mux

	wsHandlers map[string]shardhttp.WSHandler
}

// New constructs an empty Router. 404/405 are answered by the NotFound and
// MethodNotAllowed handlers set below and turned into Reply form by
// Handle's capture.
func New() *Router {
	mux := chi.NewRouter()
	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("not found"))
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte("method not allowed"))
	})

	return &Router{
		mux:        mux,
		wsMux:      chi.NewRouter(),
		wsHandlers: make(map[string]shardhttp.WSHandler),
	}
}

// Method registers fn at pattern for the given HTTP method.
func (r *Router) Method(method, pattern string, fn HTTPHandlerFunc) {
	r.mux.Method(method, pattern, adaptHandler(fn))
}

// Get registers fn at pattern for GET requests.
func (r *Router) Get(pattern string, fn HTTPHandlerFunc) { r.Method(http.MethodGet, pattern, fn) }

// Post registers fn at pattern for POST requests.
func (r *Router) Post(pattern string, fn HTTPHandlerFunc) { r.Method(http.MethodPost, pattern, fn) }

// WS registers a WebSocket handler at pattern, matched against GET
// requests carrying the upgrade headers (the connection core has already
// validated those before calling GetWSHandler).
func (r *Router) WS(pattern string, handler shardhttp.WSHandler) {
	r.wsMux.Get(pattern, func(w http.ResponseWriter, req *http.Request) {})
	r.wsHandlers[pattern] = handler
}

// Handle implements shardhttp.Routes.
func (r *Router) Handle(path string, req *shardhttp.Request) *shardhttp.Reply {
	httpReq, err := toHTTPRequest(req, path)
	if err != nil {
		return shardhttp.NewReply(http.StatusBadRequest, nil)
	}
	rec := newCapture()
	r.mux.ServeHTTP(rec, httpReq)
	return rec.reply()
}

// HandleWS implements shardhttp.Routes.
func (r *Router) HandleWS(path string, conn shardhttp.WSConn, req *shardhttp.Request) {
	handler, ok := r.GetWSHandler(path)
	if !ok {
		_ = conn.Close()
		return
	}
	handler(conn, req)
}

// GetWSHandler implements shardhttp.Routes using chi's documented
// "match without invoking a handler" idiom: Mux.Match populates the route
// context as a side effect, and RouteContext.RoutePattern() reports which
// registered pattern matched.
func (r *Router) GetWSHandler(path string) (shardhttp.WSHandler, bool) {
	rctx := chi.NewRouteContext()
	if !r.wsMux.Match(rctx, http.MethodGet, path) {
		return nil, false
	}
	handler, ok := r.wsHandlers[rctx.RoutePattern()]
	return handler, ok
}
