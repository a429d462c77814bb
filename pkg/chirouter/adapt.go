package chirouter

import (
	"bytes"
	"io"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/shardserve/shardhttp/pkg/shardhttp"
)

// toHTTPRequest builds a net/http.Request from the core's Request so it
// can be dispatched through a chi.Mux. Only what chi's matcher and a
// typical handler read is populated: method, URL, header, body.
func toHTTPRequest(req *shardhttp.Request, path string) (*http.Request, error) {
	u := &url.URL{Path: path}
	if len(req.Query) > 0 {
		q := url.Values{}
		for k, v := range req.Query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	httpReq, err := http.NewRequest(req.Method, u.String(), bytes.NewReader(req.Body))
	if err != nil {
		return nil, err
	}
	httpReq.Header = http.Header(req.Header)
	return httpReq, nil
}

// adaptHandler wraps an HTTPHandlerFunc as an http.Handler, translating
// the net/http request back into the core's Request type before dispatch.
func adaptHandler(fn HTTPHandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, httpReq *http.Request) {
		body, _ := io.ReadAll(httpReq.Body)
		query := make(map[string]string)
		for k, v := range httpReq.URL.Query() {
			if len(v) > 0 {
				query[k] = v[len(v)-1]
			}
		}
		req := &shardhttp.Request{
			Method: httpReq.Method,
			URL:    httpReq.URL.RequestURI(),
			Path:   httpReq.URL.Path,
			Header: textproto.MIMEHeader(httpReq.Header),
			Query:  query,
			Body:   body,
		}
		reply := fn(req)
		writeReply(w, reply)
	})
}

func writeReply(w http.ResponseWriter, reply *shardhttp.Reply) {
	if reply == nil {
		reply = shardhttp.NewReply(http.StatusInternalServerError, nil)
	}
	for _, h := range reply.Headers() {
		w.Header().Set(h.Key, h.Value)
	}
	w.WriteHeader(reply.Status)
	if len(reply.Body) > 0 {
		_, _ = w.Write(reply.Body)
	}
}

// capture is a minimal http.ResponseWriter that records what a chi
// handler wrote so Router.Handle can turn it back into a *Reply.
type capture struct {
	header     http.Header
	statusCode int
	body       bytes.Buffer
	wroteHead  bool
}

func newCapture() *capture {
	return &capture{header: make(http.Header)}
}

func (c *capture) Header() http.Header { return c.header }

func (c *capture) Write(p []byte) (int, error) {
	if !c.wroteHead {
		c.WriteHeader(http.StatusOK)
	}
	return c.body.Write(p)
}

func (c *capture) WriteHeader(status int) {
	if c.wroteHead {
		return
	}
	c.wroteHead = true
	c.statusCode = status
}

func (c *capture) reply() *shardhttp.Reply {
	if !c.wroteHead {
		c.statusCode = http.StatusOK
	}
	reply := shardhttp.NewReply(c.statusCode, c.body.Bytes())
	for key, values := range c.header {
		for _, v := range values {
			reply.Set(key, v)
		}
	}
	return reply
}
