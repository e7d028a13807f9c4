package chat

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
)

const (
	// TokenHeader carries the shared gateway token
	TokenHeader = "X-Agentchat-Token"
	// SignatureHeader carries the hex HMAC-SHA256 of the request body
	SignatureHeader = "X-Agentchat-Signature"
)

// Validator authenticates inbound gateway requests
type Validator struct {
	token      string
	hmacSecret string
}

// NewValidator creates a validator that checks the shared token header
func NewValidator(token string) *Validator {
	return &Validator{token: token}
}

// NewValidatorWithHMAC creates a validator that additionally verifies an
// HMAC-SHA256 body signature
func NewValidatorWithHMAC(token, secret string) *Validator {
	return &Validator{token: token, hmacSecret: secret}
}

// ValidateToken checks the shared token header in constant time. When no
// token is configured (HMAC-only deployments) the check passes.
func (v *Validator) ValidateToken(r *http.Request) bool {
	if v.token == "" {
		return true
	}

	provided := strings.TrimSpace(r.Header.Get(TokenHeader))
	if provided == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(provided), []byte(v.token)) == 1
}

// ValidateSignature verifies the body signature header. When no HMAC secret
// is configured the check passes.
func (v *Validator) ValidateSignature(r *http.Request, body []byte) bool {
	if v.hmacSecret == "" {
		return true
	}

	provided := strings.TrimSpace(r.Header.Get(SignatureHeader))
	if provided == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(v.hmacSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(provided), []byte(expected))
}
