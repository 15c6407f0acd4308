package crypto

import (
	"errors"
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		hash, err := HashPassword("admin-api-token-2024")
		if err != nil {
			t.Fatalf("HashPassword failed: %v", err)
		}
		if !strings.HasPrefix(hash, "$2a$") {
			t.Errorf("expected bcrypt hash, got %q", hash)
		}
	})

	t.Run("empty token", func(t *testing.T) {
		if _, err := HashPassword(""); !errors.Is(err, ErrEmptyPassword) {
			t.Errorf("expected ErrEmptyPassword, got %v", err)
		}
	})

	t.Run("token over 72 bytes", func(t *testing.T) {
		if _, err := HashPassword(strings.Repeat("a", 73)); !errors.Is(err, ErrPasswordTooLong) {
			t.Errorf("expected ErrPasswordTooLong, got %v", err)
		}
	})

	t.Run("salted", func(t *testing.T) {
		first, err := HashPassword("admin-api-token-2024")
		if err != nil {
			t.Fatalf("HashPassword failed: %v", err)
		}
		second, err := HashPassword("admin-api-token-2024")
		if err != nil {
			t.Fatalf("HashPassword failed: %v", err)
		}
		if first == second {
			t.Error("two hashes of the same token are identical, salt is missing")
		}
	})
}

func TestVerifyPassword(t *testing.T) {
	const token = "admin-api-token-2024"
	hash, err := HashPassword(token)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		wantErr  error
	}{
		{"correct token", token, hash, nil},
		{"wrong token", "wrong-token", hash, ErrPasswordMismatch},
		{"empty token", "", hash, ErrEmptyPassword},
		{"empty hash", token, "", ErrInvalidHash},
		{"garbage hash", token, "not-a-bcrypt-hash", ErrInvalidHash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyPassword(tt.password, tt.hash)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected success, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCheckPasswordMatch(t *testing.T) {
	hash, err := HashPassword("admin-api-token-2024")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if !CheckPasswordMatch("admin-api-token-2024", hash) {
		t.Error("expected match for correct token")
	}
	if CheckPasswordMatch("wrong", hash) {
		t.Error("expected mismatch for wrong token")
	}
}
