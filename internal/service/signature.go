package service

import (
	"context"
	"crypto/sha1" //nolint:gosec // the host platform signs handshakes with SHA1; we only verify.
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"strconv"
	"strings"
	"time"

	domainauth "github.com/sbx-training/portal/internal/domain/auth"
)

// DefaultSignatureTolerance is the accepted clock skew between the host and this service.
const DefaultSignatureTolerance = 300 * time.Second

// ExpectedSignature returns hex(SHA1(secret + issuedAt + externalID)) in lowercase.
func ExpectedSignature(secret, issuedAt, externalID string) string {
	sum := sha1.Sum([]byte(secret + issuedAt + externalID)) //nolint:gosec // host-defined scheme
	return hex.EncodeToString(sum[:])
}

// VerifySignature reports whether signature is the host's signature for (issuedAt, externalID)
// and issuedAt lies within tolerance of now. The boundary is inclusive. It fails closed on an
// empty secret, a non-numeric timestamp or any mismatch; comparison is exact and constant-time.
func VerifySignature(secret, signature, issuedAt, externalID string, now time.Time, tolerance time.Duration) bool {
	ok, _ := checkSignature(signatureInput{
		secret:     secret,
		signature:  signature,
		issuedAt:   issuedAt,
		externalID: externalID,
		now:        now,
		tolerance:  tolerance,
	})
	return ok
}

type signatureInput struct {
	secret     string
	signature  string
	issuedAt   string
	externalID string
	now        time.Time
	tolerance  time.Duration
}

// checkSignature returns the verdict plus a reason suitable for logs.
func checkSignature(in signatureInput) (bool, string) {
	if in.secret == "" {
		return false, "no shared secret configured"
	}
	if in.signature == "" {
		return false, "empty signature"
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(in.issuedAt), 10, 64)
	if err != nil {
		return false, "non-numeric timestamp"
	}
	skew := in.now.Unix() - ts
	if skew < 0 {
		skew = -skew
	}
	if skew > int64(in.tolerance/time.Second) {
		return false, "timestamp outside tolerance"
	}

	expected := ExpectedSignature(in.secret, in.issuedAt, in.externalID)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(in.signature)) != 1 {
		return false, "signature mismatch"
	}
	return true, ""
}

// HandshakeVerifierOptions groups dependencies for HandshakeVerifier.
type HandshakeVerifierOptions struct {
	Secret string
	Logger *slog.Logger
}

// HandshakeVerifier checks host handshakes against the configured shared secret.
type HandshakeVerifier struct {
	secret    string
	tolerance time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewHandshakeVerifier constructs a HandshakeVerifier with the fixed 300s timestamp window.
func NewHandshakeVerifier(opts HandshakeVerifierOptions) *HandshakeVerifier {
	return &HandshakeVerifier{
		secret:    opts.Secret,
		tolerance: DefaultSignatureTolerance,
		now:       time.Now,
		logger:    opts.Logger,
	}
}

// WithClock overrides the time source (tests).
func (v *HandshakeVerifier) WithClock(now func() time.Time) *HandshakeVerifier {
	v.now = now
	return v
}

// Tolerance returns the accepted timestamp window.
func (v *HandshakeVerifier) Tolerance() time.Duration { return v.tolerance }

// Verify reports whether the handshake carries a valid, fresh signature.
// Only the verdict is returned; the failure reason goes to the log.
func (v *HandshakeVerifier) Verify(ctx context.Context, h domainauth.Handshake) bool {
	ok, reason := checkSignature(signatureInput{
		secret:     v.secret,
		signature:  h.Signature,
		issuedAt:   h.IssuedAt,
		externalID: h.ExternalID,
		now:        v.now(),
		tolerance:  v.tolerance,
	})
	if !ok {
		v.log().WarnContext(ctx, "handshake rejected",
			"reason", reason,
			"username", h.Username,
			"external_id", h.ExternalID,
			"issued_at", h.IssuedAt,
		)
	}
	return ok
}

func (v *HandshakeVerifier) log() *slog.Logger {
	if v.logger != nil {
		return v.logger
	}
	return slog.Default()
}
