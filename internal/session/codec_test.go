package session

import (
	"bytes"
	"testing"
)

func TestCodecRoundTrip(t *testing.T) {
	c, err := NewCodec("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	plain := []byte(`{"token":"secret"}`)
	sealed, err := c.Seal(plain)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Contains(sealed, []byte("secret")) {
		t.Fatal("sealed record leaks plaintext")
	}

	opened, err := c.Open(sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(opened, plain) {
		t.Fatalf("round trip mismatch: got %q", opened)
	}
}

func TestCodecRejectsTamper(t *testing.T) {
	c, _ := NewCodec("0123456789abcdef0123456789abcdef")
	sealed, err := c.Seal([]byte("payload"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	sealed[len(sealed)-1] ^= 0x01
	if _, err := c.Open(sealed); err == nil {
		t.Fatal("tampered record opened")
	}

	if _, err := c.Open([]byte("short")); err == nil {
		t.Fatal("truncated record opened")
	}
}

func TestCodecRejectsWrongKey(t *testing.T) {
	a, _ := NewCodec("0123456789abcdef0123456789abcdef")
	b, _ := NewCodec("fedcba9876543210fedcba9876543210")

	sealed, _ := a.Seal([]byte("payload"))
	if _, err := b.Open(sealed); err == nil {
		t.Fatal("record opened under wrong key")
	}
}

func TestNewCodecKeyLength(t *testing.T) {
	if _, err := NewCodec("too-short"); err == nil {
		t.Fatal("short key accepted")
	}
}
