package handlers

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gabriel-vasile/mimetype"

	"edufinanzas/internal/api"
	"edufinanzas/internal/logger"
	"edufinanzas/internal/service"
	"edufinanzas/internal/validation"
)

var allowedPhotoTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

var errPhotoType = errors.New("unsupported photo type")

// ProfileHandler shows and edits the learner profile
type ProfileHandler struct {
	accounts  *service.AccountService
	client    *api.Client
	maxUpload int64
	render    *Renderer
	log       *logger.Logger
}

func NewProfileHandler(accounts *service.AccountService, client *api.Client, maxUpload int64, render *Renderer, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		accounts:  accounts,
		client:    client,
		maxUpload: maxUpload,
		render:    render,
		log:       log.With("handler", "ProfileHandler"),
	}
}

func (h *ProfileHandler) page(r *http.Request) ProfileViewData {
	data := ProfileViewData{Layout: h.render.Layout(r, "Mi perfil")}
	holder := GetHolderFromContext(r.Context())
	if holder == nil {
		return data
	}
	data.Account = holder.Account()
	if data.Account != nil {
		data.Form.Email = data.Account.Email
		if p := data.Account.Profile; p != nil {
			data.Form.Name = p.Name
			data.Form.Age = strconv.Itoa(p.Age)
			data.PhotoURL = h.client.ImageURL(p.Photo)
		}
	}
	return data
}

// ShowProfile renders the profile form
func (h *ProfileHandler) ShowProfile(w http.ResponseWriter, r *http.Request) {
	data := h.page(r)
	if r.URL.Query().Get("actualizado") == "1" {
		data.Success = service.MsgProfileUpdated
	}
	h.render.Render(w, r, http.StatusOK, "profile.tmpl", data)
}

// UpdateProfile saves the profile form and optional photo
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.log.Info("profile form rejected", "error", err)
		data := h.page(r)
		data.Error = service.MsgProfileNotSaved
		h.render.Render(w, r, http.StatusBadRequest, "profile.tmpl", data)
		return
	}

	form := validation.ProfileForm{
		Email: r.FormValue("correo"),
		Name:  r.FormValue("nombre_perfil"),
		Age:   r.FormValue("edad"),
	}

	photo, err := h.readPhoto(r)
	if err != nil {
		data := h.page(r)
		data.Form = form
		data.Error = MsgPhotoInvalid
		if !errors.Is(err, errPhotoType) {
			data.Error = service.MsgProfileNotSaved
		}
		h.render.Render(w, r, http.StatusOK, "profile.tmpl", data)
		return
	}

	holder := GetHolderFromContext(r.Context())
	if err := h.accounts.UpdateProfile(r.Context(), holder, form, photo); err != nil {
		if ForceLogout(w, r, h.log, err) {
			return
		}
		data := h.page(r)
		data.Form = form
		data.Error = service.FormMessage(err, service.MsgProfileNotSaved)
		h.render.Render(w, r, http.StatusOK, "profile.tmpl", data)
		return
	}

	http.Redirect(w, r, "/perfil?actualizado=1", http.StatusSeeOther)
}

// readPhoto returns the uploaded photo, or nil when none was sent. The
// content is sniffed rather than trusting the client's content type.
func (h *ProfileHandler) readPhoto(r *http.Request) (*service.Photo, error) {
	file, header, err := r.FormFile("foto_perfil")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	raw, err := readAllLimited(file, h.maxUpload)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	detected := mimetype.Detect(raw)
	if !mimetype.EqualsAny(detected.String(), allowedPhotoTypes...) {
		h.log.Info("profile photo rejected", "filename", header.Filename, "detected", detected.String())
		return nil, errPhotoType
	}
	return &service.Photo{Reader: bytes.NewReader(raw), Filename: header.Filename}, nil
}

func readAllLimited(f multipart.File, max int64) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > max {
		return nil, errors.New("photo too large")
	}
	return raw, nil
}
