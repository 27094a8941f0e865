package handlers

import (
	"bytes"
	"html/template"
	"net/http"

	"edufinanzas/internal/logger"
	"edufinanzas/internal/security"
)

// Renderer executes page templates with the shared layout data
type Renderer struct {
	templates *template.Template
	csrf      *security.CSRF
	log       *logger.Logger
}

func NewRenderer(templates *template.Template, csrf *security.CSRF, log *logger.Logger) *Renderer {
	return &Renderer{templates: templates, csrf: csrf, log: log}
}

// Layout fills the header data from the session of r
func (rd *Renderer) Layout(r *http.Request, title string) Layout {
	l := Layout{Title: title + " - EduFinanzas"}
	if sid := GetSessionIDFromContext(r.Context()); sid != "" {
		l.CSRFToken, _ = rd.csrf.Token(sid)
	}
	holder := GetHolderFromContext(r.Context())
	if holder == nil || !holder.IsAuthenticated() {
		return l
	}
	l.Authenticated = true
	l.IsAdmin = holder.IsAdmin()
	l.DisplayName = holder.ProfileDisplayName()
	l.Coins = holder.CoinBalance()
	return l
}

// Render writes the named template. The page is rendered into a buffer
// first so a template failure never leaves half a page behind.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := rd.templates.ExecuteTemplate(&buf, name, data); err != nil {
		respondWithError(w, rd.log, http.StatusInternalServerError, ErrInternalServerError, "Error rendering "+name, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
