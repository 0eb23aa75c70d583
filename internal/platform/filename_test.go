// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"testing"
)

func TestIsWindowsReservedName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{"CON", true},
		{"con", true},
		{"nul.txt", true},
		{"com1.tar.gz", true},
		{"LPT9", true},
		{"CONSOLE", false},
		{"index.html", false},
		{"COM10", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsWindowsReservedName(tt.name); got != tt.want {
				t.Errorf("IsWindowsReservedName(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestCheckFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		wantErr bool
	}{
		{"games.html", false},
		{"oxi8_bg.wasm", false},
		{"my games.html", false},
		{"aux.js", true},
		{"what?.html", true},
		{"a:b", true},
		{"tab\there", true},
		{"trailing.", true},
		{"trailing ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := CheckFileName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckFileName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrNonPortableName) {
				t.Errorf("CheckFileName(%q) error should wrap ErrNonPortableName", tt.name)
			}
		})
	}
}
