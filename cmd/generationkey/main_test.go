package main

import "testing"

func TestMask(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "****"},
		{"abcd", "****"},
		{"sk-live-1234", "********1234"},
	}
	for _, tc := range tests {
		if got := mask(tc.in); got != tc.want {
			t.Fatalf("mask(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
