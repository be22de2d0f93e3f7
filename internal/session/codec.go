package session

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

// Codec seals session records before they reach the backing store. Records
// carry the bearer token, so they are never written in the clear.
type Codec struct {
	key [32]byte
}

func NewCodec(key string) (*Codec, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("session: seal key must be 32 bytes, got %d", len(key))
	}
	c := &Codec{}
	copy(c.key[:], key)
	return c, nil
}

func (c *Codec) Seal(plain []byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("session: read nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, &c.key), nil
}

func (c *Codec) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < 24 {
		return nil, fmt.Errorf("session: sealed record too short")
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	plain, ok := secretbox.Open(nil, sealed[24:], &nonce, &c.key)
	if !ok {
		return nil, fmt.Errorf("session: record failed to open")
	}
	return plain, nil
}
