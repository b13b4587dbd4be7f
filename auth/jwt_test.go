package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssuer_RoundTrip(t *testing.T) {
	iss := NewIssuer("test-secret", time.Hour)
	tok, err := iss.Issue(42, "ana@example.com", "0")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := iss.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID() != 42 || claims.Email != "ana@example.com" || claims.Role != "0" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestIssuer_Rejects(t *testing.T) {
	iss := NewIssuer("test-secret", time.Hour)
	good, _ := iss.Issue(1, "ana@example.com", "0")

	expired := NewIssuer("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _ := expired.Issue(1, "ana@example.com", "0")

	other, _ := NewIssuer("other-secret", time.Hour).Issue(1, "ana@example.com", "0")

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Email: "ana@example.com"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name, token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"expired", old},
		{"wrong secret", other},
		{"alg none", none},
		{"tampered", good + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := iss.Parse(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Parse(%s) err = %v, want ErrInvalidToken", tt.name, err)
			}
		})
	}
}

func TestRandomSecret(t *testing.T) {
	a, err := RandomSecret()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := RandomSecret()
	if len(a) != 64 || a == b {
		t.Errorf("RandomSecret() = %q, %q", a, b)
	}
}
