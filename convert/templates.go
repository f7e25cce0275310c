package convert

import (
	"bytes"
	"fmt"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"pdfrst/config"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context string
	// "part" or "chapter"
	Kind    string
	Counter int
	// rendered heading text
	Title string
	Slug  string
	// source document name without extension
	Source string
}

func expandTemplate(name config.TemplateFieldName, field string, values Values) (string, error) {
	tmpl, err := template.New(string(name)).Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values.Context = string(name)

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
