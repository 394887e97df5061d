package auth_test

import (
	"errors"
	"testing"

	"scholarmate/auth"
)

func TestIssueAndValidatePair(t *testing.T) {
	m := auth.NewManager("test-secret", 60, 10080)

	pair, err := m.IssuePair(42, "hong", true)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	access, err := m.Validate(pair.Access)
	if err != nil {
		t.Fatalf("Validate(access): %v", err)
	}
	if access.UserID != 42 || access.Username != "hong" || !access.IsStaff {
		t.Errorf("access claims = %+v", access)
	}
	if access.TokenType != "access" {
		t.Errorf("access token_type = %q", access.TokenType)
	}

	refresh, err := m.Validate(pair.Refresh)
	if err != nil {
		t.Fatalf("Validate(refresh): %v", err)
	}
	if refresh.TokenType != "refresh" {
		t.Errorf("refresh token_type = %q", refresh.TokenType)
	}
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	issuer := auth.NewManager("secret-a", 60, 60)
	verifier := auth.NewManager("secret-b", 60, 60)

	pair, err := issuer.IssuePair(1, "hong", false)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	if _, err := verifier.Validate(pair.Access); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("foreign secret = %v, want ErrInvalidCredentials", err)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	m := auth.NewManager("test-secret", -1, -1)

	pair, err := m.IssuePair(1, "hong", false)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	if _, err := m.Validate(pair.Access); !errors.Is(err, auth.ErrExpiredCredentials) {
		t.Errorf("expired token = %v, want ErrExpiredCredentials", err)
	}
}

func TestValidateGarbage(t *testing.T) {
	m := auth.NewManager("test-secret", 60, 60)
	if _, err := m.Validate("not-a-token"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("garbage token = %v, want ErrInvalidCredentials", err)
	}
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc", "abc"},
		{"Bearer  abc ", "abc"},
		{"Basic dXNlcg==", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := auth.ExtractBearer(tt.in); got != tt.want {
			t.Errorf("ExtractBearer(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
