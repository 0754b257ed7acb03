package sandbox

import (
	"bytes"
	"testing"
)

func TestCappedBufferUnderLimit(t *testing.T) {
	b := newCappedBuffer(16)
	n, err := b.Write([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("write: n=%d err=%v", n, err)
	}
	if !bytes.Equal(b.Bytes(), []byte("hello")) {
		t.Errorf("got %q", b.Bytes())
	}
	if b.Truncated() {
		t.Error("should not be truncated")
	}
}

func TestCappedBufferTruncates(t *testing.T) {
	b := newCappedBuffer(4)
	n, err := b.Write([]byte("abcdef"))
	if err != nil || n != 6 {
		t.Fatalf("write must report full length: n=%d err=%v", n, err)
	}
	if got := string(b.Bytes()); got != "abcd" {
		t.Errorf("want abcd, got %q", got)
	}
	if !b.Truncated() {
		t.Error("should be truncated")
	}

	// Further writes are swallowed entirely.
	if n, _ := b.Write([]byte("xyz")); n != 3 {
		t.Errorf("overflow write must still report full length, got %d", n)
	}
	if got := string(b.Bytes()); got != "abcd" {
		t.Errorf("buffer grew past its limit: %q", got)
	}
}

func TestCappedBufferExactLimit(t *testing.T) {
	b := newCappedBuffer(3)
	b.Write([]byte("abc"))
	if b.Truncated() {
		t.Error("writing exactly the limit is not truncation")
	}
}
