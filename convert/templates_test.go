package convert

import (
	"testing"

	"pdfrst/config"
)

func TestExpandTemplate(t *testing.T) {
	values := Values{
		Kind:    chapterSegment,
		Counter: 3,
		Title:   "Errors: Why?",
		Slug:    "Errors-Why",
		Source:  "book",
	}

	tests := []struct {
		name     string
		field    config.TemplateFieldName
		template string
		expected string
	}{
		{"simple text", config.ChapterTemplateFieldName, "chapter.rst", "chapter.rst"},
		{"default chapter", config.ChapterTemplateFieldName, `Chap{{ printf "%02d" .Counter }}-{{ .Slug }}.rst`, "Chap03-Errors-Why.rst"},
		{"default part", config.PartTemplateFieldName, "Part{{ .Counter }}.rst", "Part3.rst"},
		{"source and kind", config.ChapterTemplateFieldName, "{{ .Source }}/{{ .Kind }}-{{ .Counter }}.rst", "book/chapter-3.rst"},
		{"context", config.PartTemplateFieldName, "{{ .Context }}", "part_template"},
		{"sprig functions", config.ChapterTemplateFieldName, "{{ .Title | lower | replace \" \" \"_\" }}", "errors:_why?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := expandTemplate(tt.field, tt.template, values)
			if err != nil {
				t.Fatalf("expandTemplate() error = %v", err)
			}
			if result != tt.expected {
				t.Errorf("expandTemplate() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestExpandTemplate_InvalidTemplate(t *testing.T) {
	_, err := expandTemplate(config.PartTemplateFieldName, "{{ .Title", Values{})
	if err == nil {
		t.Error("expandTemplate() expected error for invalid template, got nil")
	}
}

func TestExpandTemplate_InvalidField(t *testing.T) {
	_, err := expandTemplate(config.PartTemplateFieldName, "{{ .NonExistentField }}", Values{})
	if err == nil {
		t.Error("expandTemplate() expected error for invalid field, got nil")
	}
}
