package convert

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"pdfrst/config"
	"pdfrst/state"
)

func setupTestEnvForOutputPath(t *testing.T, noDirs, split, transliterate bool) *state.LocalEnv {
	t.Helper()
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Output.Split.Transliterate = transliterate

	return &state.LocalEnv{
		Log:    logger,
		Cfg:    cfg,
		NoDirs: noDirs,
		Split:  split,
	}
}

func TestBuildOutputPath(t *testing.T) {
	tests := []struct {
		name          string
		src           string
		noDirs        bool
		split         bool
		transliterate bool
		expected      string
	}{
		{"no dirs", "books/tech/book.pdf", true, false, false, filepath.Join("/output", "book.rst")},
		{"with dirs", "books/tech/book.pdf", false, false, false, filepath.Join("/output", "books", "tech", "book.rst")},
		{"base name only", "book.pdf", false, false, false, filepath.Join("/output", "book.rst")},
		{"layout dump", "book.yaml", true, false, false, filepath.Join("/output", "book.rst")},
		{"split", "books/book.pdf", false, true, false, filepath.Join("/output", "books", "book")},
		{"split no dirs", "books/book.pdf", true, true, false, filepath.Join("/output", "book")},
		{"transliterate", "Книга.pdf", true, false, true, filepath.Join("/output", "kniga.rst")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnvForOutputPath(t, tt.noDirs, tt.split, tt.transliterate)

			result := buildOutputPath(tt.src, "/output", env)
			if result != tt.expected {
				t.Errorf("buildOutputPath() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestDetermineOutputDir(t *testing.T) {
	env := setupTestEnvForOutputPath(t, true, false, false)
	if result := determineOutputDir("books/book.pdf", "/output", env); result != "/output" {
		t.Errorf("determineOutputDir() = %q, want %q", result, "/output")
	}

	env.NoDirs = false
	expected := filepath.Join("/output", "books")
	if result := determineOutputDir("books/book.pdf", "/output", env); result != expected {
		t.Errorf("determineOutputDir() = %q, want %q", result, expected)
	}
}

func TestHeadingSlug(t *testing.T) {
	tests := []struct {
		title         string
		transliterate bool
		expected      string
	}{
		{"Errors: Why?", false, "Errors-Why"},
		{"Getting Started", false, "Getting-Started"},
		{"Input/Output", false, "InputOutput"},
		{"Errors, Warnings & You", false, "Errors-Warnings-You"},
		{"What's (Really) New!", false, "Whats-Really-New"},
		{"Self-Taught  Programmer", false, "SelfTaught-Programmer"},
		{"Глава 2", false, "Глава-2"},
		{"?!", false, "_bad_file_name_"},
		{"Errors: Why?", true, "errors-why"},
		{"Глава", true, "glava"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if result := headingSlug(tt.title, tt.transliterate); result != tt.expected {
				t.Errorf("headingSlug(%q) = %q, want %q", tt.title, result, tt.expected)
			}
		})
	}
}

func TestSplitAndCleanPath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected []string
	}{
		{"simple path", "part/chapter", []string{"part", "chapter"}},
		{"single segment", "chapter", []string{"chapter"}},
		{"with trailing slash", "part/chapter/", []string{"part", "chapter"}},
		{"three levels", "book/part/chapter", []string{"book", "part", "chapter"}},
		{"empty path", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitAndCleanPath(filepath.FromSlash(tt.path))
			if len(result) != len(tt.expected) {
				t.Errorf("splitAndCleanPath() length = %d, want %d", len(result), len(tt.expected))
				return
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("splitAndCleanPath()[%d] = %q, want %q", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestCleanPathSegment(t *testing.T) {
	tests := []struct {
		name          string
		segment       string
		transliterate bool
		expected      string
	}{
		{"simple segment", "part", false, "part"},
		{"with spaces", "My Part", false, "My Part"},
		{"transliterate cyrillic", "Часть", true, "chast"},
		{"leading dots", "..hidden", false, "hidden"},
		{"only dots", "..", false, "_bad_file_name_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := cleanPathSegment(tt.segment, tt.transliterate); result != tt.expected {
				t.Errorf("cleanPathSegment() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestAssembleSegmentPath(t *testing.T) {
	tests := []struct {
		name          string
		expanded      string
		transliterate bool
		expected      string
	}{
		{"single level", "Chap01-Errors-Why.rst", false, "Chap01-Errors-Why.rst"},
		{"subdirectory", "part1/chap.rst", false, filepath.Join("part1", "chap.rst")},
		{"transliterate", "Часть/Глава.rst", true, filepath.Join("chast", "glava.rst")},
		{"empty", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := assembleSegmentPath(tt.expanded, tt.transliterate); result != tt.expected {
				t.Errorf("assembleSegmentPath() = %q, want %q", result, tt.expected)
			}
		})
	}
}
