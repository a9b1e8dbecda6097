package service

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	domainauth "github.com/sbx-training/portal/internal/domain/auth"
	"github.com/stretchr/testify/assert"
)

const testSecret = "s3cret"

func TestExpectedSignature_KnownVector(t *testing.T) {
	// sha1("abc") = a9993e364706816aba3e25717850c26c9cd0d89d
	assert.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", ExpectedSignature("a", "b", "c"))
	assert.Equal(t, ExpectedSignature("a", "b", "c"), ExpectedSignature("ab", "", "c"), "raw concatenation")
}

func TestVerifySignature_TruthTable(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ts := strconv.FormatInt(now.Unix(), 10)
	good := ExpectedSignature(testSecret, ts, "42")

	tests := []struct {
		name       string
		secret     string
		signature  string
		issuedAt   string
		externalID string
		want       bool
	}{
		{name: "valid", secret: testSecret, signature: good, issuedAt: ts, externalID: "42", want: true},
		{name: "wrong secret", secret: "other", signature: good, issuedAt: ts, externalID: "42"},
		{name: "wrong id", secret: testSecret, signature: good, issuedAt: ts, externalID: "43"},
		{name: "uppercase signature", secret: testSecret, signature: strings.ToUpper(good), issuedAt: ts, externalID: "42"},
		{name: "truncated signature", secret: testSecret, signature: good[:39], issuedAt: ts, externalID: "42"},
		{name: "empty signature", secret: testSecret, signature: "", issuedAt: ts, externalID: "42"},
		{name: "empty secret", secret: "", signature: ExpectedSignature("", ts, "42"), issuedAt: ts, externalID: "42"},
		{name: "non-numeric time", secret: testSecret, signature: ExpectedSignature(testSecret, "soon", "42"), issuedAt: "soon", externalID: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VerifySignature(tt.secret, tt.signature, tt.issuedAt, tt.externalID, now, DefaultSignatureTolerance)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVerifySignature_ToleranceBoundary(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	check := func(offset int64) bool {
		ts := strconv.FormatInt(now.Unix()+offset, 10)
		return VerifySignature(testSecret, ExpectedSignature(testSecret, ts, "42"), ts, "42", now, DefaultSignatureTolerance)
	}

	assert.True(t, check(-300), "exactly 300s old passes")
	assert.False(t, check(-301), "301s old fails")
	assert.True(t, check(300), "300s in the future passes")
	assert.False(t, check(301), "301s in the future fails")
}

func TestHandshakeVerifier_Verify(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := NewHandshakeVerifier(HandshakeVerifierOptions{Secret: testSecret}).
		WithClock(func() time.Time { return now })
	assert.Equal(t, DefaultSignatureTolerance, v.Tolerance())

	ts := strconv.FormatInt(now.Unix(), 10)
	h := domainauth.Handshake{
		Signature:  ExpectedSignature(testSecret, ts, "T042"),
		IssuedAt:   ts,
		ExternalID: "T042",
		Username:   "jsmith",
	}
	assert.True(t, v.Verify(context.Background(), h))

	h.Signature = "0000000000000000000000000000000000000000"
	assert.False(t, v.Verify(context.Background(), h))
}
