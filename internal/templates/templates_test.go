package templates

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoadDefinesEveryPage(t *testing.T) {
	tmpl, err := Load(func(p string) string { return "/media/" + p })
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	pages := []string{
		"header", "footer", "alerts",
		"home.tmpl", "login.tmpl", "register.tmpl",
		"topics.tmpl", "topic_challenges.tmpl", "challenge.tmpl", "profile.tmpl",
		"admin_dashboard.tmpl",
		"admin_topics.tmpl", "admin_topic_form.tmpl",
		"admin_challenges.tmpl", "admin_challenge_form.tmpl",
		"admin_tips.tmpl", "admin_tip_form.tmpl",
		"admin_users.tmpl", "admin_user_form.tmpl",
	}
	for _, name := range pages {
		if tmpl.Lookup(name) == nil {
			t.Errorf("template %q not defined", name)
		}
	}
}

func TestHelpers(t *testing.T) {
	tmpl, err := Load(func(p string) string { return "/media/" + p })
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name string
		src  string
		data any
		want string
	}{
		{"initial", `{{initial .}}`, "ana", "A"},
		{"initial of blank", `{{initial .}}`, "  ", "?"},
		{"initial multibyte", `{{initial .}}`, "ñandú", "Ñ"},
		{"add", `{{add 1 2}}`, nil, "3"},
		{"fieldError", `{{fieldError . "nombre"}}`, map[string]string{"nombre": "requerido"}, "requerido"},
		{"fieldError nil map", `{{fieldError . "nombre"}}`, map[string]string(nil), ""},
		{"imageURL", `{{imageURL .}}`, "temas/a.png", "/media/temas/a.png"},
		{"dict", `{{with dict "A" 1 "B" "x"}}{{.A}}{{.B}}{{end}}`, nil, "1x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clone, err := tmpl.Clone()
			if err != nil {
				t.Fatal(err)
			}
			if _, err := clone.New("t").Parse(tt.src); err != nil {
				t.Fatalf("Parse: %v", err)
			}
			var buf bytes.Buffer
			if err := clone.ExecuteTemplate(&buf, "t", tt.data); err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if got := strings.TrimSpace(buf.String()); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDictRejectsOddArguments(t *testing.T) {
	tmpl, err := Load(func(p string) string { return p })
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	clone, _ := tmpl.Clone()
	if _, err := clone.New("t").Parse(`{{dict "A"}}`); err != nil {
		t.Fatal(err)
	}
	if err := clone.ExecuteTemplate(&bytes.Buffer{}, "t", nil); err == nil {
		t.Error("expected an error for an odd argument count")
	}
}
