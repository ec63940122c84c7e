package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CSRF tokens are stateless: a random nonce plus an HMAC binding the nonce
// to the user id. The frontend sends the token back in X-CSRF-Token on every
// state-changing request.

func GenerateCSRFToken(secret []byte, userID int) string {
	nonce := uuid.NewString()
	return nonce + "." + csrfMAC(secret, nonce, userID)
}

func VerifyCSRFToken(secret []byte, userID int, token string) bool {
	nonce, mac, ok := strings.Cut(token, ".")
	if !ok || nonce == "" {
		return false
	}
	expected := csrfMAC(secret, nonce, userID)
	return hmac.Equal([]byte(mac), []byte(expected))
}

func csrfMAC(secret []byte, nonce string, userID int) string {
	h := hmac.New(sha256.New, secret)
	fmt.Fprintf(h, "%s|%d", nonce, userID)
	return hex.EncodeToString(h.Sum(nil))
}
