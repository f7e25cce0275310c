package config

import (
	"os"
	"testing"
)

func TestCleanFileName(t *testing.T) {
	sep := string(os.PathSeparator)
	list := string(os.PathListSeparator)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Chap01-Errors", "Chap01-Errors"},
		{"separators", "a" + sep + "b" + list + "c", "abc"},
		{"leading dots", "..hidden.rst", "hidden.rst"},
		{"inner dots kept", "Part1.2.rst", "Part1.2.rst"},
		{"empty", "", "_bad_file_name_"},
		{"nothing left", ".." + sep, "_bad_file_name_"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanFileName(tt.in); got != tt.want {
				t.Errorf("CleanFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
