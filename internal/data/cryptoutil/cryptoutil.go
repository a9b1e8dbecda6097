package cryptoutil

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Sealer defines an interface for sealing/opening small opaque payloads such as cookie values.
type Sealer interface {
	Seal(plaintext []byte) (string, error)
	Open(sealed string) ([]byte, error)
}

// ErrInvalidCiphertext is returned for any payload that cannot be opened: wrong version,
// bad encoding, truncated data or failed authentication.
var ErrInvalidCiphertext = errors.New("invalid ciphertext")

const (
	// Versioned prefix to allow future key/algorithm rotations. Cookie-safe.
	sealedPrefixV1 = "v1."
	keySize        = chacha20poly1305.KeySize
)

// DeriveKey stretches secret into a 32-byte key with HKDF-SHA256, bound to the given purpose.
func DeriveKey(secret, purpose string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("secret is required")
	}
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	key := make([]byte, keySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// XChaChaSealer implements Sealer using XChaCha20-Poly1305 with random 24-byte nonces.
type XChaChaSealer struct {
	key []byte // 32 bytes
	ad  []byte
}

// NewXChaChaSealer constructs a sealer. Key must be 32 bytes. Additional data, when set,
// binds sealed values to a context (e.g. the cookie name) so they cannot be swapped.
func NewXChaChaSealer(key, additionalData []byte) (*XChaChaSealer, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("xchacha20-poly1305 key must be 32 bytes, got %d", len(key))
	}
	return &XChaChaSealer{
		key: append([]byte(nil), key...),
		ad:  append([]byte(nil), additionalData...),
	}, nil
}

// Seal encrypts plaintext and returns a versioned, URL-safe base64 string.
func (s *XChaChaSealer) Seal(plaintext []byte) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, readErr := io.ReadFull(rand.Reader, nonce); readErr != nil {
		return "", readErr
	}
	// nonce||ciphertext
	buf := aead.Seal(nonce, nonce, plaintext, s.ad)
	return sealedPrefixV1 + base64.RawURLEncoding.EncodeToString(buf), nil
}

// Open authenticates and decrypts a value created by Seal.
func (s *XChaChaSealer) Open(sealed string) ([]byte, error) {
	payload, ok := strings.CutPrefix(sealed, sealedPrefixV1)
	if !ok {
		return nil, fmt.Errorf("%w: unknown version", ErrInvalidCiphertext)
	}
	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCiphertext, err)
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	if len(data) < aead.NonceSize()+aead.Overhead() {
		return nil, fmt.Errorf("%w: too short", ErrInvalidCiphertext)
	}
	nonce, ct := data[:aead.NonceSize()], data[aead.NonceSize():]
	pt, err := aead.Open(nil, nonce, ct, s.ad)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCiphertext, err)
	}
	return pt, nil
}

// NoopSealer is useful for tests; it stores plaintext with a prefix marker.
type NoopSealer struct{}

const noopPrefix = "noop."

func (NoopSealer) Seal(plaintext []byte) (string, error) {
	return noopPrefix + base64.RawURLEncoding.EncodeToString(plaintext), nil
}

func (NoopSealer) Open(sealed string) ([]byte, error) {
	payload, ok := strings.CutPrefix(sealed, noopPrefix)
	if !ok {
		return nil, ErrInvalidCiphertext
	}
	b, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCiphertext, err)
	}
	return b, nil
}
