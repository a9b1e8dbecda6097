package ports

// Package ports defines interfaces (hexagonal ports) for SSO-related behavior.
// Implementations live in internal/adapters and internal/data; orchestration in internal/service.

import (
	"context"
	"time"
)

// ReplayGuard records handshake signatures so each one can be redeemed once.
type ReplayGuard interface {
	// Claim marks signature as used for ttl. It returns false when the signature was already claimed.
	Claim(ctx context.Context, signature string, ttl time.Duration) (bool, error)
}

// Sealer seals and opens small opaque payloads such as session cookie values.
// Open must fail for any value it did not produce.
type Sealer interface {
	Seal(plaintext []byte) (string, error)
	Open(sealed string) ([]byte, error)
}
