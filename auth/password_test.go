package auth_test

import (
	"errors"
	"testing"

	"scholarmate/auth"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := auth.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("password stored in plain text")
	}
	if !auth.CheckPassword(hash, "correct horse") {
		t.Error("correct password rejected")
	}
	if auth.CheckPassword(hash, "battery staple") {
		t.Error("wrong password accepted")
	}
}

func TestHashPasswordTooShort(t *testing.T) {
	if _, err := auth.HashPassword("short"); !errors.Is(err, auth.ErrPasswordTooShort) {
		t.Errorf("short password = %v, want ErrPasswordTooShort", err)
	}
}
