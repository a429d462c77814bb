package httpparse

import (
	"bufio"
	"strings"
	"testing"
)

func parse(t *testing.T, raw string) (*Request, Result) {
	t.Helper()
	p := New(bufio.NewReader(strings.NewReader(raw)))
	res, err := p.ParseOne()
	if err != nil {
		t.Fatalf("ParseOne() error = %v", err)
	}
	return p.Request(), res
}

func TestParseSimpleGET(t *testing.T) {
	req, res := parse(t, "GET / HTTP/1.1\r\nHost: x\r\n\r\n")
	if res != Complete {
		t.Fatalf("result = %v, want Complete", res)
	}
	if req.Method != "GET" || req.URL != "/" || req.Version != "1.1" {
		t.Fatalf("req = %+v", req)
	}
	if req.Header.Get("Host") != "x" {
		t.Fatalf("Host header = %q", req.Header.Get("Host"))
	}
}

func TestHeaderLookupCaseInsensitive(t *testing.T) {
	req, _ := parse(t, "GET / HTTP/1.1\r\nConnection: Upgrade\r\n\r\n")
	if req.Header.Get("connection") != "Upgrade" {
		t.Fatalf("case-insensitive lookup failed: %q", req.Header.Get("connection"))
	}
}

func TestParseWithBody(t *testing.T) {
	req, res := parse(t, "POST /submit HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello")
	if res != Complete {
		t.Fatalf("result = %v, want Complete", res)
	}
	if string(req.Body) != "hello" {
		t.Fatalf("body = %q, want hello", req.Body)
	}
}

func TestParseHTTP10(t *testing.T) {
	req, res := parse(t, "GET / HTTP/1.0\r\n\r\n")
	if res != Complete || req.Version != "1.0" {
		t.Fatalf("req=%+v res=%v", req, res)
	}
}

func TestParseHTTP09(t *testing.T) {
	req, res := parse(t, "GET /\r\n")
	if res != Complete {
		t.Fatalf("result = %v, want Complete", res)
	}
	if req.Version != "0.9" {
		t.Fatalf("version = %q, want 0.9", req.Version)
	}
}

func TestParseEOFBeforeComplete(t *testing.T) {
	_, res := parse(t, "")
	if res != EOFBeforeComplete {
		t.Fatalf("result = %v, want EOFBeforeComplete", res)
	}
}

func TestParseEOFMidHeaders(t *testing.T) {
	_, res := parse(t, "GET / HTTP/1.1\r\nHost: x\r\n")
	if res != EOFBeforeComplete {
		t.Fatalf("result = %v, want EOFBeforeComplete", res)
	}
}

func TestParseSecondRequestAfterReset(t *testing.T) {
	br := bufio.NewReader(strings.NewReader(
		"GET /a HTTP/1.1\r\n\r\nGET /b HTTP/1.1\r\n\r\n"))
	p := New(br)

	res, err := p.ParseOne()
	if err != nil || res != Complete || p.Request().URL != "/a" {
		t.Fatalf("first parse: res=%v err=%v req=%+v", res, err, p.Request())
	}

	p.Reset()
	res, err = p.ParseOne()
	if err != nil || res != Complete || p.Request().URL != "/b" {
		t.Fatalf("second parse: res=%v err=%v req=%+v", res, err, p.Request())
	}
}

func TestParseMalformedRequestLine(t *testing.T) {
	// A syntax failure reports as EOFBeforeComplete with no error, not as
	// an error result — spec.md §7 treats a parse error as equivalent to
	// EOF-before-complete, distinct from a genuine transport read error.
	p := New(bufio.NewReader(strings.NewReader("garbage\r\n\r\n")))
	res, err := p.ParseOne()
	if err != nil {
		t.Fatalf("ParseOne() error = %v, want nil", err)
	}
	if res != EOFBeforeComplete {
		t.Fatalf("result = %v, want EOFBeforeComplete", res)
	}
}
