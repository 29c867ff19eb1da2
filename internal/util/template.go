package util

import (
	"bytes"
	"strings"
	"sync"
	"text/template"
)

var templateFuncs = template.FuncMap{
	"upper": strings.ToUpper,
	"join": func(sep string, items []string) string {
		return strings.Join(items, sep)
	},
}

// parsed caches compiled prompt templates keyed by their source text.
var parsed sync.Map

// RenderTemplate executes text as a text/template against data. Output is
// not HTML escaped; prompts routinely contain quotes and angle brackets.
// Compiled templates are cached, so callers may render constants freely.
func RenderTemplate(text string, data map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := compile(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func compile(text string) (*template.Template, error) {
	if t, ok := parsed.Load(text); ok {
		return t.(*template.Template), nil
	}

	t, err := template.New("prompt").Funcs(templateFuncs).Parse(text)
	if err != nil {
		return nil, err
	}

	actual, _ := parsed.LoadOrStore(text, t)

	return actual.(*template.Template), nil
}
