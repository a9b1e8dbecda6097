package redis

// Package redis provides Redis-based adapters for the training portal.

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sbx-training/portal/internal/ports"
)

var _ ports.ReplayGuard = (*ReplayGuard)(nil)

// ReplayGuard remembers redeemed handshake signatures in Redis so a captured
// handshake URL cannot be replayed inside its validity window.
type ReplayGuard struct {
	client redis.UniversalClient
	prefix string
}

// NewReplayGuard creates a Redis-backed replay guard.
func NewReplayGuard(client redis.UniversalClient) *ReplayGuard {
	return &ReplayGuard{
		client: client,
		prefix: "sso:handshake:",
	}
}

// Claim atomically records the signature with SET NX. The key holds a digest of the
// signature, never the signature itself.
func (g *ReplayGuard) Claim(ctx context.Context, signature string, ttl time.Duration) (bool, error) {
	if signature == "" {
		return false, errors.New("signature cannot be empty")
	}
	if ttl <= 0 {
		return false, errors.New("ttl must be positive")
	}

	ok, err := g.client.SetNX(ctx, g.key(signature), time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (g *ReplayGuard) key(signature string) string {
	sum := sha256.Sum256([]byte(signature))
	return g.prefix + hex.EncodeToString(sum[:])
}
