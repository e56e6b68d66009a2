package auth

import (
	"testing"

	"github.com/fenwick-labs/voicegate/pkg/models"
)

func TestDecodeIdentity_EmptyTokenIsGuest(t *testing.T) {
	user := DecodeIdentity("")
	if user.Name != "Guest" {
		t.Fatalf("expected Guest, got %q", user.Name)
	}
	if user.ID != "" {
		t.Fatalf("expected empty id for anonymous identity, got %q", user.ID)
	}
}

func TestDecodeIdentity_MalformedTokenIsGuest(t *testing.T) {
	user := DecodeIdentity("not-a-jwt")
	if user.Name != "Guest" {
		t.Fatalf("expected Guest for malformed token, got %q", user.Name)
	}
}

func TestDecodeIdentity_DecodesUnverifiedClaims(t *testing.T) {
	svc := NewService(Config{JWTSecret: "test-secret"})
	token, err := svc.GenerateJWT(&models.User{ID: "user-1", Name: "Ada Lovelace", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	user := DecodeIdentity(token)
	if user.ID != "user-1" {
		t.Fatalf("expected user-1, got %q", user.ID)
	}
	if user.Name != "Ada Lovelace" {
		t.Fatalf("expected decoded name, got %q", user.Name)
	}
}

func TestAuthenticated(t *testing.T) {
	if Authenticated("") {
		t.Fatal("empty token must not be authenticated")
	}
	if Authenticated("   ") {
		t.Fatal("whitespace-only token must not be authenticated")
	}
	if !Authenticated("abc") {
		t.Fatal("non-empty token must be authenticated")
	}
}
