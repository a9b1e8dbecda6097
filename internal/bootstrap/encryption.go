package bootstrap

import (
	"errors"
	"fmt"

	"github.com/sbx-training/portal/internal/data/cryptoutil"
)

// sessionKeyPurpose separates the cookie key from any other key derived from the same secret.
const sessionKeyPurpose = "sbx-training-portal/session-cookie/v1"

// NewSessionSealer derives the cookie sealing key from secret. The cookie name is bound
// as additional data so a sealed value cannot be replayed under another cookie.
func NewSessionSealer(secret, cookieName string) (*cryptoutil.XChaChaSealer, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	key, err := cryptoutil.DeriveKey(secret, sessionKeyPurpose)
	if err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	sealer, err := cryptoutil.NewXChaChaSealer(key, []byte(cookieName))
	if err != nil {
		return nil, fmt.Errorf("create session sealer: %w", err)
	}
	return sealer, nil
}
