//go:build !windows

package config

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// CleanFileName drops path and list separators from a file name along with
// leading dots. Empty result is replaced by a placeholder.
func CleanFileName(in string) string {
	out := strings.TrimLeft(strings.Map(func(sym rune) rune {
		if strings.ContainsRune(string(os.PathSeparator)+string(os.PathListSeparator), sym) {
			return -1
		}
		return sym
	}, in), ".")
	if len(out) == 0 {
		out = "_bad_file_name_"
	}
	return out
}

// EnableColorOutput checks if colorized output is possible.
func EnableColorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}
