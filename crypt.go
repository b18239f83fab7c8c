// At-rest encryption for persisted cache documents.
//
// The stored form is a 24 byte random nonce followed by the
// XChaCha20-Poly1305 ciphertext. The extended nonce is large enough to be
// drawn at random on every save without tracking counters.
package credcache

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"time"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the length of a key accepted by NewEncryptedPersistence.
const KeySize = chacha20poly1305.KeySize

var additionalData = []byte("credcache/v1")

// KeyFromPassphrase derives a KeySize key with Argon2id. The same
// passphrase and salt always give the same key.
func KeyFromPassphrase(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, KeySize)
}

// EncryptedPersistence encrypts on Save and authenticates and decrypts on
// Load.
type EncryptedPersistence struct {
	inner Persistence
	aead  cipher.AEAD
}

// NewEncryptedPersistence wraps inner with a KeySize key.
func NewEncryptedPersistence(inner Persistence, key []byte) (*EncryptedPersistence, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return &EncryptedPersistence{inner: inner, aead: aead}, nil
}

func (p *EncryptedPersistence) Save(data []byte) error {
	nonce := make([]byte, p.aead.NonceSize(), p.aead.NonceSize()+len(data)+p.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	return p.inner.Save(p.aead.Seal(nonce, nonce, data, additionalData))
}

func (p *EncryptedPersistence) Load() ([]byte, error) {
	data, err := p.inner.Load()
	if err != nil {
		return nil, err
	}
	ns := p.aead.NonceSize()
	if len(data) < ns+p.aead.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}
	out, err := p.aead.Open(nil, data[:ns], data[ns:], additionalData)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	return out, nil
}

func (p *EncryptedPersistence) Modified() (time.Time, error) {
	return p.inner.Modified()
}

func (p *EncryptedPersistence) Location() string {
	return p.inner.Location()
}
