package usecase

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"
)

//go:embed templates/*.tmpl
var promptTemplates embed.FS

var prompts = template.Must(
	template.New("prompts").Funcs(templateFuncs()).ParseFS(promptTemplates, "templates/*.tmpl"),
)

func renderPrompt(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"add1":     func(i int) int { return i + 1 },
		"truncate": truncate,
		"firstLine": func(s string) string {
			line, _, _ := strings.Cut(s, "\n")
			return line
		},
		"shortSHA": func(sha string) string {
			if len(sha) > 7 {
				return sha[:7]
			}
			return sha
		},
	}
}

// truncate cuts s to at most max bytes on a rune boundary. max <= 0 keeps s whole.
func truncate(max int, s string) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n... (truncated)"
}
