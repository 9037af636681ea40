package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func signedTestToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func testAuth(secret []byte) *Auth {
	return &Auth{
		Audience:   "api://todos",
		Issuer:     "https://issuer/",
		TestMode:   true,
		TestSecret: secret,
		parser:     jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

func TestUserIDFromAuthHeaderHS256(t *testing.T) {
	secret := []byte("test-secret")
	signed := signedTestToken(t, secret, jwt.MapClaims{
		"sub": "user-123",
		"aud": "api://todos",
		"iss": "https://issuer/",
		"exp": time.Now().Add(5 * time.Minute).Unix(),
		"nbf": time.Now().Add(-time.Minute).Unix(),
	})

	userID, err := testAuth(secret).UserIDFromAuthHeader("Bearer " + signed)
	if err != nil {
		t.Fatalf("unexpected error verifying token: %v", err)
	}
	if userID != "user-123" {
		t.Fatalf("unexpected user id: %s", userID)
	}
}

func TestUserIDFromAuthHeaderExpiredToken(t *testing.T) {
	secret := []byte("test-secret")
	signed := signedTestToken(t, secret, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(-5 * time.Minute).Unix(),
	})

	if _, err := testAuth(secret).UserIDFromAuthHeader("Bearer " + signed); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestUserIDFromAuthHeaderWrongSecret(t *testing.T) {
	signed := signedTestToken(t, []byte("other-secret"), jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(5 * time.Minute).Unix(),
	})

	if _, err := testAuth([]byte("test-secret")).UserIDFromAuthHeader("Bearer " + signed); err == nil {
		t.Fatal("expected signature mismatch to be rejected")
	}
}

func TestUserIDFromAuthHeaderMissingSub(t *testing.T) {
	secret := []byte("test-secret")
	signed := signedTestToken(t, secret, jwt.MapClaims{
		"exp": time.Now().Add(5 * time.Minute).Unix(),
	})

	if _, err := testAuth(secret).UserIDFromAuthHeader("Bearer " + signed); err == nil {
		t.Fatal("expected token without sub to be rejected")
	}
}

func TestBearerToken(t *testing.T) {
	if _, err := bearerToken(""); err != errMissingAuthorization {
		t.Fatalf("expected missing header error, got %v", err)
	}
	if _, err := bearerToken("Basic abc"); err != errBadAuthorization {
		t.Fatalf("expected bad header error for non-bearer scheme, got %v", err)
	}
	if _, err := bearerToken("Bearer notthreeparts"); err != errBadAuthorization {
		t.Fatalf("expected bad header error for malformed token, got %v", err)
	}
	tok, err := bearerToken("  Bearer a.b.c  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "a.b.c" {
		t.Fatalf("unexpected token: %q", tok)
	}
}
