package handlers

import (
	"net/http"
	"strings"

	"edufinanzas/internal/logger"
	"edufinanzas/internal/models"
	"edufinanzas/internal/security"
	"edufinanzas/internal/service"
	"edufinanzas/internal/validation"
)

// AuthHandler handles the public pages: home, login, registration and logout
type AuthHandler struct {
	catalog   *service.CatalogService
	accounts  *service.AccountService
	validator *validation.Validator
	render    *Renderer
	log       *logger.Logger
}

func NewAuthHandler(catalog *service.CatalogService, accounts *service.AccountService, v *validation.Validator, render *Renderer, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		catalog:   catalog,
		accounts:  accounts,
		validator: v,
		render:    render,
		log:       log.With("handler", "AuthHandler"),
	}
}

// Home renders the landing page with topics and tips
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	data := HomeViewData{Layout: h.render.Layout(r, "Inicio")}

	token := ""
	if holder := GetHolderFromContext(r.Context()); holder != nil {
		token = holder.Token()
	}
	home, err := h.catalog.Home(r.Context(), token)
	if err != nil {
		if ForceLogout(w, r, h.log, err) {
			return
		}
		h.log.Warn("loading home failed", "error", err)
		data.Error = MsgHomeLoadFailed
	} else {
		data.Topics = home.Topics
		data.Tips = home.Tips
	}

	h.render.Render(w, r, http.StatusOK, "home.tmpl", data)
}

// NotFound sends every unknown path back to the home page
func (h *AuthHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ShowLogin renders the login page
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if holder := GetHolderFromContext(r.Context()); holder != nil && holder.IsAuthenticated() {
		http.Redirect(w, r, landingFor(holder.IsAdmin()), http.StatusSeeOther)
		return
	}

	data := LoginViewData{Layout: h.render.Layout(r, "Iniciar sesión")}
	if r.URL.Query().Get("registrado") == "1" {
		data.Success = service.MsgRegistered
	}
	h.render.Render(w, r, http.StatusOK, "login.tmpl", data)
}

// Login handles login form submission
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	form := validation.LoginForm{
		Email:    r.PostFormValue("correo"),
		Password: r.PostFormValue("contrasena"),
	}
	fail := func(msg string) {
		data := LoginViewData{Layout: h.render.Layout(r, "Iniciar sesión"), Error: msg, Email: form.Email}
		h.render.Render(w, r, http.StatusOK, "login.tmpl", data)
	}

	if msg := h.validator.Login(form); msg != "" {
		fail(msg)
		return
	}
	form.Normalize()

	holder := GetHolderFromContext(r.Context())
	if holder == nil {
		fail(MsgLoginUnexpected)
		return
	}
	result := holder.Login(r.Context(), form.Email, form.Password)
	if !result.Success {
		fail(result.Error)
		return
	}
	if err := RotateSession(w, r); err != nil {
		h.log.Error("issuing session after login failed", "user_id", result.Account.ID, "error", err)
		_ = holder.Logout(r.Context())
		fail(MsgLoginUnexpected)
		return
	}

	http.Redirect(w, r, landingFor(result.Account.Role == models.RoleAdmin), http.StatusSeeOther)
}

func landingFor(admin bool) string {
	if admin {
		return "/admin/"
	}
	return "/temas"
}

// ShowRegister renders the registration page
func (h *AuthHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	if holder := GetHolderFromContext(r.Context()); holder != nil && holder.IsAuthenticated() {
		http.Redirect(w, r, landingFor(holder.IsAdmin()), http.StatusSeeOther)
		return
	}
	data := RegisterViewData{
		Layout:       h.render.Layout(r, "Crear cuenta"),
		Requirements: validation.PasswordRequirements(""),
	}
	h.render.Render(w, r, http.StatusOK, "register.tmpl", data)
}

// Register handles registration form submission
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	form := validation.RegisterForm{
		Email:    r.PostFormValue("correo"),
		Password: r.PostFormValue("contrasena"),
		Confirm:  r.PostFormValue("confirmar_contrasena"),
		Name:     r.PostFormValue("nombre_perfil"),
		Age:      r.PostFormValue("edad"),
	}

	if _, err := h.accounts.Register(r.Context(), form); err != nil {
		data := RegisterViewData{
			Layout:       h.render.Layout(r, "Crear cuenta"),
			Error:        service.FormMessage(err, service.MsgRegisterFailed),
			Email:        strings.TrimSpace(form.Email),
			Name:         strings.TrimSpace(form.Name),
			Age:          strings.TrimSpace(form.Age),
			Requirements: validation.PasswordRequirements(form.Password),
		}
		h.render.Render(w, r, http.StatusOK, "register.tmpl", data)
		return
	}

	http.Redirect(w, r, "/login?registrado=1", http.StatusSeeOther)
}

// Logout clears the session and goes to the login page
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if holder := GetHolderFromContext(r.Context()); holder != nil {
		if err := holder.Logout(r.Context()); err != nil {
			h.log.Warn("logout failed", "error", err)
		}
	}
	http.SetCookie(w, security.ExpiredSessionCookie(r))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
