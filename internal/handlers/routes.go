package handlers

import (
	"net/http"

	"edufinanzas/internal/access"
)

// Handlers groups the page handlers mounted by NewRouter
type Handlers struct {
	Auth    *AuthHandler
	Learn   *LearnHandler
	Profile *ProfileHandler
	Admin   *AdminHandler
	Health  http.Handler
}

// NewRouter registers every route with its permission and wraps the mux in
// the session and logging middleware
func NewRouter(m *Middleware, h Handlers, staticPath string) http.Handler {
	mux := http.NewServeMux()

	public := func(f http.HandlerFunc) http.HandlerFunc { return m.Require(access.ViewPublic, f) }
	learn := func(f http.HandlerFunc) http.HandlerFunc { return m.Require(access.Learn, f) }
	admin := func(f http.HandlerFunc) http.HandlerFunc { return m.Require(access.Administer, f) }

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticPath))))
	if h.Health != nil {
		mux.Handle("GET /healthz", h.Health)
	}

	// Public routes
	mux.HandleFunc("GET /{$}", public(h.Auth.Home))
	mux.HandleFunc("GET /login", public(h.Auth.ShowLogin))
	mux.HandleFunc("POST /login", m.RateLimit(m.CSRFProtect(h.Auth.Login)))
	mux.HandleFunc("GET /registro", public(h.Auth.ShowRegister))
	mux.HandleFunc("POST /registro", m.RateLimit(m.CSRFProtect(h.Auth.Register)))
	mux.HandleFunc("POST /logout", m.CSRFProtect(h.Auth.Logout))

	// Learner routes
	mux.HandleFunc("GET /temas", learn(h.Learn.ShowTopics))
	mux.HandleFunc("GET /temas/{id}/retos", learn(h.Learn.ShowTopicChallenges))
	mux.HandleFunc("POST /temas/{id}/retos/{retoId}/iniciar", learn(m.CSRFProtect(h.Learn.StartChallenge)))
	mux.HandleFunc("GET /retos/{id}", learn(h.Learn.ShowChallenge))
	mux.HandleFunc("POST /retos/{id}/responder", learn(m.CSRFProtect(h.Learn.Answer)))
	mux.HandleFunc("GET /perfil", learn(h.Profile.ShowProfile))
	mux.HandleFunc("POST /perfil", learn(m.CSRFProtect(h.Profile.UpdateProfile)))

	// Admin routes
	mux.Handle("GET /admin", http.RedirectHandler("/admin/", http.StatusMovedPermanently))
	mux.HandleFunc("GET /admin/{$}", admin(h.Admin.ShowDashboard))

	mux.HandleFunc("GET /admin/temas", admin(h.Admin.ShowTopics))
	mux.HandleFunc("GET /admin/temas/nuevo", admin(h.Admin.ShowTopicForm))
	mux.HandleFunc("POST /admin/temas", admin(m.CSRFProtect(h.Admin.SaveTopic)))
	mux.HandleFunc("GET /admin/temas/{id}", admin(h.Admin.ShowTopicForm))
	mux.HandleFunc("POST /admin/temas/{id}", admin(m.CSRFProtect(h.Admin.SaveTopic)))
	mux.HandleFunc("POST /admin/temas/{id}/eliminar", admin(m.CSRFProtect(h.Admin.DeleteTopic)))

	mux.HandleFunc("GET /admin/retos", admin(h.Admin.ShowChallenges))
	mux.HandleFunc("GET /admin/retos/nuevo", admin(h.Admin.ShowChallengeForm))
	mux.HandleFunc("POST /admin/retos", admin(m.CSRFProtect(h.Admin.SaveChallenge)))
	mux.HandleFunc("GET /admin/retos/{id}", admin(h.Admin.ShowChallengeForm))
	mux.HandleFunc("POST /admin/retos/{id}", admin(m.CSRFProtect(h.Admin.SaveChallenge)))
	mux.HandleFunc("POST /admin/retos/{id}/eliminar", admin(m.CSRFProtect(h.Admin.DeleteChallenge)))

	mux.HandleFunc("GET /admin/tips", admin(h.Admin.ShowTips))
	mux.HandleFunc("GET /admin/tips/nuevo", admin(h.Admin.ShowTipForm))
	mux.HandleFunc("POST /admin/tips", admin(m.CSRFProtect(h.Admin.SaveTip)))
	mux.HandleFunc("GET /admin/tips/{id}", admin(h.Admin.ShowTipForm))
	mux.HandleFunc("POST /admin/tips/{id}", admin(m.CSRFProtect(h.Admin.SaveTip)))
	mux.HandleFunc("POST /admin/tips/{id}/eliminar", admin(m.CSRFProtect(h.Admin.DeleteTip)))

	mux.HandleFunc("GET /admin/usuarios", admin(h.Admin.ShowUsers))
	mux.HandleFunc("GET /admin/usuarios/{id}", admin(h.Admin.ShowUserForm))
	mux.HandleFunc("POST /admin/usuarios/{id}", admin(m.CSRFProtect(h.Admin.SaveUser)))
	mux.HandleFunc("POST /admin/usuarios/{id}/eliminar", admin(m.CSRFProtect(h.Admin.DeleteUser)))

	// Anything else goes home
	mux.HandleFunc("/", h.Auth.NotFound)

	return m.Logging(m.Session(mux))
}
