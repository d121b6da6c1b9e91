package auth

import (
	"errors"
	"testing"
	"time"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)

	token, err := m.Generate("merchant_1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.MerchantID != "merchant_1" || claims.Subject != "merchant_1" {
		t.Errorf("Unexpected claims: %+v", claims)
	}
	if claims.ExpiresAt == nil {
		t.Error("Expected an expiry")
	}
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("secret", 0)
	token, err := m.Generate("merchant_1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	tests := map[string]struct {
		manager *JWTManager
		token   string
	}{
		"wrong secret": {NewJWTManager("other", 0), token},
		"garbage":      {m, "not-a-token"},
		"empty":        {m, ""},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := tt.manager.Validate(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Expected ErrInvalidToken, got %v", err)
			}
		})
	}

	if _, err := m.Generate(""); err == nil {
		t.Error("Expected error for empty merchant id")
	}
}
