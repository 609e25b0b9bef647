package authutil

import (
	"strings"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("expected a bcrypt hash, got %q", hash)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash must not equal the password")
	}
	if !CheckPassword(hash, "s3cret-pass") {
		t.Error("expected password to match its hash")
	}
	if CheckPassword(hash, "wrong-pass1") {
		t.Error("expected wrong password to be rejected")
	}
	if CheckPassword("", "") {
		t.Error("empty hash must never match")
	}
}

func TestHashPassword_Salted(t *testing.T) {
	a, _ := HashPassword("same-password1")
	b, _ := HashPassword("same-password1")
	if a == b {
		t.Error("expected different hashes for the same password")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		pw   string
		want bool
	}{
		{"abc12345", true},
		{"short1", false},
		{"allletters", false},
		{"123456789", false},
		{"pässwört9", true},
	}
	for _, tt := range tests {
		t.Run(tt.pw, func(t *testing.T) {
			if got := ValidatePassword(tt.pw) == nil; got != tt.want {
				t.Errorf("ValidatePassword(%q) ok = %v, want %v", tt.pw, got, tt.want)
			}
		})
	}
}
