package auth

import (
	"context"
	"testing"
	"time"
)

func TestGenerateAndParseToken(t *testing.T) {
	t.Setenv(secretEnvVariable, "unit-test-secret")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)

	token, err := GenerateToken("operator-1", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ParseAndValidate(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != "operator-1" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.ID == "" {
		t.Fatal("expected a token id")
	}
}

func TestGenerateTokenValidation(t *testing.T) {
	t.Setenv(secretEnvVariable, "unit-test-secret")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)

	if _, err := GenerateToken("  ", time.Minute); err == nil {
		t.Fatal("expected error for empty operator")
	}
	if _, err := GenerateToken("operator-1", 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	t.Setenv(secretEnvVariable, "unit-test-secret")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)

	token, err := GenerateToken("operator-1", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	mangled := token[:len(token)-2] + "xx"
	if _, err := ParseAndValidate(mangled); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	t.Setenv(secretEnvVariable, "unit-test-secret")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)

	token, err := GenerateToken("operator-1", time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := ParseAndValidate(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestMissingSecret(t *testing.T) {
	t.Setenv(secretEnvVariable, "")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)

	if _, err := GenerateToken("operator-1", time.Minute); err == nil {
		t.Fatal("expected error when secret is absent")
	}
}

func TestOperatorContextRoundTrip(t *testing.T) {
	ctx := ContextWithOperator(context.Background(), "operator-1")
	got, ok := OperatorFromContext(ctx)
	if !ok || got != "operator-1" {
		t.Fatalf("unexpected operator: %q ok=%v", got, ok)
	}
	if _, ok := OperatorFromContext(context.Background()); ok {
		t.Fatal("expected no operator in empty context")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("kiosk-admin-pw")
	if err != nil {
		t.Fatal(err)
	}
	if err := VerifyPassword(hash, "kiosk-admin-pw"); err != nil {
		t.Fatalf("expected match: %v", err)
	}
	if err := VerifyPassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch")
	}
}
