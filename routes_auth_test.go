package main

import "testing"

func TestMaskUsername(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hongildong", "ho********"},
		{"ab", "ab"},
		{"a", "a"},
		{"", ""},
		{"김철수", "김철*"},
	}
	for _, tt := range tests {
		if got := maskUsername(tt.in); got != tt.want {
			t.Errorf("maskUsername(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
