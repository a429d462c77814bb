package shardhttp

import (
	"bufio"

	"github.com/shardserve/shardhttp/internal/httpparse"
)

// parserAdapter adapts internal/httpparse.Parser to the RequestParser
// interface, translating its Request type into this package's Request.
type parserAdapter struct {
	p   *httpparse.Parser
	req *Request
}

func newParserAdapter(br *bufio.Reader) *parserAdapter {
	return &parserAdapter{p: httpparse.New(br)}
}

func (a *parserAdapter) Reset() {
	a.p.Reset()
	a.req = nil
}

func (a *parserAdapter) ParseOne() (ParseResult, error) {
	res, err := a.p.ParseOne()
	if err != nil {
		return NeedMore, err
	}
	switch res {
	case httpparse.Complete:
		src := a.p.Request()
		a.req = &Request{
			Method:  src.Method,
			URL:     src.URL,
			Version: src.Version,
			Header:  src.Header,
			Body:    src.Body,
		}
		return Complete, nil
	case httpparse.EOFBeforeComplete:
		return EOFBeforeComplete, nil
	default:
		return NeedMore, nil
	}
}

func (a *parserAdapter) Request() *Request {
	return a.req
}
