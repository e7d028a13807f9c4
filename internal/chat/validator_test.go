package chat

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http/httptest"
	"testing"
)

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		header     string
		want       bool
	}{
		{"matching token", "secret-token", "secret-token", true},
		{"wrong token", "secret-token", "other-token", false},
		{"missing header", "secret-token", "", false},
		{"surrounding whitespace trimmed", "secret-token", "  secret-token  ", true},
		{"no token configured", "", "anything", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(tt.configured)

			req := httptest.NewRequest("POST", "/events", nil)
			if tt.header != "" {
				req.Header.Set(TokenHeader, tt.header)
			}

			if got := v.ValidateToken(req); got != tt.want {
				t.Errorf("ValidateToken() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateSignature(t *testing.T) {
	secret := "hmac-secret"
	body := []byte(`{"event":"message.completed"}`)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	goodSig := hex.EncodeToString(mac.Sum(nil))

	tests := []struct {
		name      string
		secret    string
		signature string
		want      bool
	}{
		{"valid signature", secret, goodSig, true},
		{"tampered signature", secret, "deadbeef", false},
		{"missing header", secret, "", false},
		{"no secret configured", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidatorWithHMAC("token", tt.secret)

			req := httptest.NewRequest("POST", "/events", nil)
			if tt.signature != "" {
				req.Header.Set(SignatureHeader, tt.signature)
			}

			if got := v.ValidateSignature(req, body); got != tt.want {
				t.Errorf("ValidateSignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateSignatureDifferentBody(t *testing.T) {
	secret := "hmac-secret"
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("original body"))
	sig := hex.EncodeToString(mac.Sum(nil))

	v := NewValidatorWithHMAC("token", secret)
	req := httptest.NewRequest("POST", "/events", nil)
	req.Header.Set(SignatureHeader, sig)

	if v.ValidateSignature(req, []byte("modified body")) {
		t.Error("signature over a different body should not validate")
	}
}
