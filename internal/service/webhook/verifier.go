// Package webhook handles the inbound boundary with the banking
// provider: signature verification of raw deliveries and normalization
// of the loosely shaped payloads into reconciliation events.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// Verifier checks the HMAC-SHA256 signature the provider attaches to
// every delivery.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify recomputes the body signature and compares it in constant
// time. The provider prefixes the hex digest with "sha256="; a bare
// digest is accepted too.
func (v *Verifier) Verify(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	signature = strings.TrimPrefix(signature, signaturePrefix)

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// Sign produces the signature header value for body, for outbound
// replays and tests.
func (v *Verifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
