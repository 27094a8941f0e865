// Package templates holds the embedded page templates.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed *.tmpl auth/*.tmpl learn/*.tmpl admin/*.tmpl
var files embed.FS

// Load parses every page. imageURL resolves backend image paths.
func Load(imageURL func(string) string) (*template.Template, error) {
	funcMap := template.FuncMap{
		"imageURL": imageURL,
		"add": func(a, b int) int {
			return a + b
		},
		"initial": func(s string) string {
			s = strings.TrimSpace(s)
			if s == "" {
				return "?"
			}
			return strings.ToUpper(string([]rune(s)[0]))
		},
		"fieldError": func(errs map[string]string, field string) string {
			return errs[field]
		},
		// dict builds the argument map for partials that need more than dot
		"dict": func(pairs ...any) (map[string]any, error) {
			if len(pairs)%2 != 0 {
				return nil, fmt.Errorf("dict: odd number of arguments")
			}
			m := make(map[string]any, len(pairs)/2)
			for i := 0; i < len(pairs); i += 2 {
				key, ok := pairs[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
				}
				m[key] = pairs[i+1]
			}
			return m, nil
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(files,
		"*.tmpl", "auth/*.tmpl", "learn/*.tmpl", "admin/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}
