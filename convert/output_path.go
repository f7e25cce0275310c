package convert

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/gosimple/slug"

	"pdfrst/config"
	"pdfrst/state"
)

// buildOutputPath returns output file path for single stream output or
// output directory for split output. Unless requested otherwise source
// directory structure is kept on the output.
func buildOutputPath(src, dst string, env *state.LocalEnv) string {
	outDir := determineOutputDir(src, dst, env)
	name := cleanPathSegment(strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)), env.Cfg.Output.Split.Transliterate)
	if env.SplitOutput() {
		return filepath.Join(outDir, name)
	}
	return filepath.Join(outDir, name+".rst")
}

func determineOutputDir(src, dst string, env *state.LocalEnv) string {
	if env.NoDirs {
		return dst
	}
	return filepath.Join(dst, filepath.Dir(src))
}

// headingSlug makes heading text usable as part of file name.
func headingSlug(title string, transliterate bool) string {
	if transliterate {
		return slug.Make(title)
	}
	title = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case unicode.IsSpace(r):
			return ' '
		}
		return -1
	}, title)
	return config.CleanFileName(strings.Join(strings.Fields(title), "-"))
}

// assembleSegmentPath cleans expanded segment name which may contain
// subdirectories and returns it relative to output directory.
func assembleSegmentPath(expandedName string, transliterate bool) string {
	segments := splitAndCleanPath(filepath.FromSlash(expandedName))
	for i, s := range segments {
		if i == len(segments)-1 && transliterate {
			// keep extension readable
			ext := filepath.Ext(s)
			segments[i] = slug.Make(strings.TrimSuffix(s, ext)) + ext
			segments[i] = config.CleanFileName(segments[i])
			continue
		}
		segments[i] = cleanPathSegment(s, transliterate)
	}
	return filepath.Join(segments...)
}

func splitAndCleanPath(path string) []string {
	path = strings.TrimSuffix(path, string(os.PathSeparator))
	segments := make([]string, 0, 8)

	for head, tail := filepath.Split(path); tail != ""; head, tail = filepath.Split(head) {
		segments = slices.Insert(segments, 0, tail)
		head = strings.TrimSuffix(head, string(os.PathSeparator))
		if head == "" {
			break
		}
	}
	return segments
}

func cleanPathSegment(segment string, transliterate bool) string {
	if transliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
