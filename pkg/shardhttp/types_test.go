package shardhttp

import "testing"

func TestReplySetOverwritesInPlace(t *testing.T) {
	r := NewReply(200, nil)
	r.Set("Content-Type", "text/plain")
	r.Set("X-Foo", "bar")
	r.Set("Content-Type", "application/json")

	headers := r.Headers()
	if len(headers) != 2 {
		t.Fatalf("len(headers) = %d, want 2", len(headers))
	}
	if headers[0].Key != "Content-Type" || headers[0].Value != "application/json" {
		t.Fatalf("headers[0] = %+v", headers[0])
	}
	if headers[1].Key != "X-Foo" || headers[1].Value != "bar" {
		t.Fatalf("headers[1] = %+v", headers[1])
	}
}

func TestReplyGetUnsetReturnsEmpty(t *testing.T) {
	r := NewReply(200, nil)
	if got := r.Get("Missing"); got != "" {
		t.Fatalf("Get(unset) = %q, want empty", got)
	}
}

func TestReplyReasonPhraseFallback(t *testing.T) {
	r := NewReply(200, nil)
	if got := r.ReasonPhrase(); got != "OK" {
		t.Fatalf("ReasonPhrase() = %q, want OK", got)
	}
	r2 := &Reply{Status: 999}
	if got := r2.ReasonPhrase(); got != "Unknown" {
		t.Fatalf("ReasonPhrase() = %q, want Unknown", got)
	}
	r3 := &Reply{Status: 200, Reason: "Great"}
	if got := r3.ReasonPhrase(); got != "Great" {
		t.Fatalf("ReasonPhrase() = %q, want Great", got)
	}
}
