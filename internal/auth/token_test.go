package auth

import (
	"errors"
	"testing"
	"time"

	"budge/internal/core"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndVerify(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	u := core.User{ID: "user-1", Name: "Ada", Email: "ada@example.com"}

	tok, err := iss.Issue(u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := iss.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "ada@example.com" || claims.Name != "Ada" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestVerifyRejects(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	u := core.User{ID: "user-1"}
	good, _ := iss.Issue(u)

	expired := NewIssuer("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _ := expired.Issue(u)

	other, _ := NewIssuer("other-secret", time.Hour).Issue(u)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "user-1", Issuer: DefaultIssuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	noSubject := NewIssuer("secret", time.Hour)
	anon, _ := noSubject.Issue(core.User{})

	cases := map[string]string{
		"garbage":      "not-a-token",
		"expired":      old,
		"wrong secret": other,
		"alg none":     unsigned,
		"no subject":   anon,
		"tampered":     good + "x",
	}
	for name, tok := range cases {
		if _, err := iss.Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter22", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPasswordHash("hunter22", hash) {
		t.Fatalf("expected password to match")
	}
	if CheckPasswordHash("hunter23", hash) {
		t.Fatalf("expected mismatch")
	}
	long := make([]byte, 80)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := HashPassword(string(long), 4); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}
