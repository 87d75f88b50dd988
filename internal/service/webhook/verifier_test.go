package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerify(t *testing.T) {
	v := NewVerifier("topsecret")
	body := []byte(`{"externalId":"ext-1","status":"RECEBIDO"}`)

	t.Run("valid signature with prefix", func(t *testing.T) {
		assert.True(t, v.Verify(body, v.Sign(body)))
	})

	t.Run("valid signature without prefix", func(t *testing.T) {
		bare := v.Sign(body)[len("sha256="):]
		assert.True(t, v.Verify(body, bare))
	})

	t.Run("uppercase hex digest accepted", func(t *testing.T) {
		sig := v.Sign(body)
		upper := "sha256=" + toUpperHex(sig[len("sha256="):])
		assert.True(t, v.Verify(body, upper))
	})

	t.Run("tampered body rejected", func(t *testing.T) {
		sig := v.Sign(body)
		tampered := []byte(`{"externalId":"ext-1","status":"CANCELADO"}`)
		assert.False(t, v.Verify(tampered, sig))
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		other := NewVerifier("different")
		assert.False(t, v.Verify(body, other.Sign(body)))
	})

	t.Run("empty signature rejected", func(t *testing.T) {
		assert.False(t, v.Verify(body, ""))
	})
}

func toUpperHex(s string) string {
	out := []byte(s)
	for i, c := range out {
		if c >= 'a' && c <= 'f' {
			out[i] = c - 'a' + 'A'
		}
	}
	return string(out)
}
