package main

import (
	"context"
	"strings"
	"testing"
)

func TestConfirmCleanup(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "confirmed with yes",
			input:   "yes\n",
			wantErr: false,
		},
		{
			name:    "declined with no",
			input:   "no\n",
			wantErr: true,
		},
		{
			name:    "anything but yes declines",
			input:   "y\n",
			wantErr: true,
		},
		{
			name:    "whitespace around yes is accepted",
			input:   "  yes  \n",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := confirmCleanup(context.Background(), strings.NewReader(tt.input), "home.example.com", "A", "cloudflare")
			if tt.wantErr && err == nil {
				t.Fatal("confirmCleanup() should have declined")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("confirmCleanup() failed: %v", err)
			}
		})
	}
}

func TestConfirmCleanupClosedInput(t *testing.T) {
	// No newline ever arrives (e.g. stdin closed)
	err := confirmCleanup(context.Background(), strings.NewReader(""), "home.example.com", "A", "cloudflare")
	if err == nil {
		t.Fatal("confirmCleanup() should fail when input ends before a newline")
	}
}
