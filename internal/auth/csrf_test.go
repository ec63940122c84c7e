package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var csrfSecret = []byte("csrf-secret")

func TestCSRFTokenRoundTrip(t *testing.T) {
	token := GenerateCSRFToken(csrfSecret, 5)
	assert.True(t, VerifyCSRFToken(csrfSecret, 5, token))
}

func TestCSRFTokenBoundToUser(t *testing.T) {
	token := GenerateCSRFToken(csrfSecret, 5)
	assert.False(t, VerifyCSRFToken(csrfSecret, 6, token), "token for user 5 must not verify for user 6")
}

func TestCSRFTokenWrongSecret(t *testing.T) {
	token := GenerateCSRFToken(csrfSecret, 5)
	assert.False(t, VerifyCSRFToken([]byte("other"), 5, token))
}

func TestCSRFTokenMalformed(t *testing.T) {
	for _, tok := range []string{"", "no-dot", ".", "nonce.", ".mac"} {
		assert.False(t, VerifyCSRFToken(csrfSecret, 1, tok), "token %q should be rejected", tok)
	}
}
