package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"edufinanzas/internal/api"
	"edufinanzas/internal/logger"
	"edufinanzas/internal/models"
	"edufinanzas/internal/service"
	"edufinanzas/internal/validation"
)

// AdminHandler handles the content management routes under /admin
type AdminHandler struct {
	admin  *service.AdminService
	render *Renderer
	log    *logger.Logger
}

func NewAdminHandler(admin *service.AdminService, render *Renderer, log *logger.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, render: render, log: log.With("handler", "AdminHandler")}
}

func sessionToken(r *http.Request) string {
	if holder := GetHolderFromContext(r.Context()); holder != nil {
		return holder.Token()
	}
	return ""
}

// flash maps the ?ok= query flag set after a redirect to its message
func flash(r *http.Request) string {
	switch r.URL.Query().Get("ok") {
	case "guardado":
		return MsgAdminSaved
	case "eliminado":
		return MsgAdminDeleted
	}
	return ""
}

// saveFailed maps a save error to the form message. Validation failures are
// returned as field errors instead.
func saveFailed(err error) (string, map[string]string) {
	var invalid *service.InvalidFormError
	if errors.As(err, &invalid) {
		return "", invalid.Fields
	}
	if apiErr, ok := api.AsError(err); ok && apiErr.StatusCode == http.StatusBadRequest && apiErr.Detail != "" {
		return apiErr.Detail, nil
	}
	return MsgAdminSaveFailed, nil
}

// savePathID reads the record id of a save route. A route without {id}
// creates (0, true); an id that does not parse reports false.
func savePathID(r *http.Request) (int64, bool) {
	if r.PathValue("id") == "" {
		return 0, true
	}
	return pathID(r, "id")
}

// parseCoins parses a non-negative coin amount. Empty means 0.
func parseCoins(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	return n, err == nil && n >= 0
}

// ShowDashboard shows counts for every collection
func (h *AdminHandler) ShowDashboard(w http.ResponseWriter, r *http.Request) {
	data := AdminDashboardViewData{Layout: h.render.Layout(r, "Administración")}
	d, err := h.admin.Dashboard(r.Context(), sessionToken(r))
	if err != nil {
		if ForceLogout(w, r, h.log, err) {
			return
		}
		h.log.Warn("loading dashboard failed", "error", err)
		data.Error = MsgAdminLoadFailed
	}
	data.Dashboard = d
	h.render.Render(w, r, http.StatusOK, "admin_dashboard.tmpl", data)
}

// Topics

func (h *AdminHandler) ShowTopics(w http.ResponseWriter, r *http.Request) {
	data := AdminTopicsViewData{Layout: h.render.Layout(r, "Temas"), Success: flash(r)}
	topics, err := h.admin.Topics(r.Context(), sessionToken(r))
	if err != nil {
		if ForceLogout(w, r, h.log, err) {
			return
		}
		h.log.Warn("loading topics failed", "error", err)
		data.Error = MsgAdminLoadFailed
	}
	data.Topics = topics
	h.render.Render(w, r, http.StatusOK, "admin_topics.tmpl", data)
}

func (h *AdminHandler) ShowTopicForm(w http.ResponseWriter, r *http.Request) {
	data := AdminTopicFormViewData{Layout: h.render.Layout(r, "Tema")}
	if id, ok := pathID(r, "id"); ok {
		topic, err := h.admin.Topic(r.Context(), sessionToken(r), id)
		if err != nil {
			h.loadFailed(w, r, "/admin/temas", err)
			return
		}
		data.ID = id
		data.Form = validation.TopicForm{
			Name:        topic.Name,
			Description: topic.Description,
			Image:       topic.Image,
			Information: topic.Information,
		}
	}
	h.render.Render(w, r, http.StatusOK, "admin_topic_form.tmpl", data)
}

func (h *AdminHandler) SaveTopic(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}
	id, ok := savePathID(r)
	if !ok {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}
	form := validation.TopicForm{
		Name:        r.PostFormValue("nombre"),
		Description: r.PostFormValue("descripcion"),
		Image:       r.PostFormValue("img_tema"),
		Information: r.PostFormValue("informacion_tema"),
	}
	if _, err := h.admin.SaveTopic(r.Context(), sessionToken(r), id, form); err != nil {
		if ForceLogout(w, r, h.log, err) {
			return
		}
		msg, fields := saveFailed(err)
		data := AdminTopicFormViewData{Layout: h.render.Layout(r, "Tema"), ID: id, Form: form, Errors: fields, Error: msg}
		h.render.Render(w, r, http.StatusOK, "admin_topic_form.tmpl", data)
		return
	}
	http.Redirect(w, r, "/admin/temas?ok=guardado", http.StatusSeeOther)
}

func (h *AdminHandler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, "/admin/temas", h.admin.DeleteTopic)
}

// Challenges

func (h *AdminHandler) ShowChallenges(w http.ResponseWriter, r *http.Request) {
	data := AdminChallengesViewData{Layout: h.render.Layout(r, "Retos"), Success: flash(r)}
	if tema := r.URL.Query().Get("tema"); tema != "" {
		data.TopicID, _ = strconv.ParseInt(tema, 10, 64)
	}
	challenges, err := h.admin.Challenges(r.Context(), sessionToken(r), data.TopicID)
	if err == nil {
		data.Topics, err = h.admin.Topics(r.Context(), sessionToken(r))
		data.TopicNames = make(map[int64]string, len(data.Topics))
		for _, t := range data.Topics {
			data.TopicNames[t.ID] = t.Name
		}
	}
	if err != nil {
		if ForceLogout(w, r, h.log, err) {
			return
		}
		h.log.Warn("loading challenges failed", "error", err)
		data.Error = MsgAdminLoadFailed
	}
	data.Challenges = challenges
	h.render.Render(w, r, http.StatusOK, "admin_challenges.tmpl", data)
}

func (h *AdminHandler) ShowChallengeForm(w http.ResponseWriter, r *http.Request) {
	data := AdminChallengeFormViewData{Layout: h.render.Layout(r, "Reto")}
	topics, err := h.admin.Topics(r.Context(), sessionToken(r))
	if err != nil {
		h.loadFailed(w, r, "/admin/retos", err)
		return
	}
	data.Topics = topics

	if id, ok := pathID(r, "id"); ok {
		ch, err := h.admin.Challenge(r.Context(), sessionToken(r), id)
		if err != nil {
			h.loadFailed(w, r, "/admin/retos", err)
			return
		}
		data.ID = id
		data.Form = validation.ChallengeForm{
			TopicID:       ch.TopicID,
			Name:          ch.Name,
			Description:   ch.Description,
			Theory:        ch.Theory,
			Question:      ch.Question,
			AnswerOne:     ch.AnswerOne,
			AnswerTwo:     ch.AnswerTwo,
			AnswerThree:   ch.AnswerThree,
			AnswerFour:    ch.AnswerFour,
			CorrectAnswer: ch.CorrectAnswer,
			Cost:          ch.Cost,
			Reward:        ch.Reward,
			Image:         ch.Image,
		}
	}
	h.render.Render(w, r, http.StatusOK, "admin_challenge_form.tmpl", data)
}

func (h *AdminHandler) SaveChallenge(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}
	id, ok := savePathID(r)
	if !ok {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}
	topicID, _ := strconv.ParseInt(r.PostFormValue("id_tema"), 10, 64)
	form := validation.ChallengeForm{
		TopicID:       topicID,
		Name:          r.PostFormValue("nombre_reto"),
		Description:   r.PostFormValue("descripcion"),
		Theory:        r.PostFormValue("teoria"),
		Question:      r.PostFormValue("pregunta"),
		AnswerOne:     r.PostFormValue("respuesta_uno"),
		AnswerTwo:     r.PostFormValue("respuesta_dos"),
		AnswerThree:   r.PostFormValue("respuesta_tres"),
		AnswerFour:    r.PostFormValue("respuesta_cuatro"),
		CorrectAnswer: r.PostFormValue("respuesta_correcta"),
		Image:         r.PostFormValue("img_reto"),
	}
	invalid := map[string]string{}
	var costOK, rewardOK bool
	if form.Cost, costOK = parseCoins(r.PostFormValue("costo_monedas")); !costOK {
		invalid["costo_monedas"] = MsgInvalidCoins
	}
	if form.Reward, rewardOK = parseCoins(r.PostFormValue("recompensa_monedas")); !rewardOK {
		invalid["recompensa_monedas"] = MsgInvalidCoins
	}

	var err error
	if len(invalid) > 0 {
		err = &service.InvalidFormError{Fields: invalid}
	} else {
		_, err = h.admin.SaveChallenge(r.Context(), sessionToken(r), id, form)
	}
	if err != nil {
		if ForceLogout(w, r, h.log, err) {
			return
		}
		msg, fields := saveFailed(err)
		topics, _ := h.admin.Topics(r.Context(), sessionToken(r))
		data := AdminChallengeFormViewData{
			Layout: h.render.Layout(r, "Reto"),
			ID:     id,
			Form:   form,
			Topics: topics,
			Errors: fields,
			Error:  msg,
		}
		h.render.Render(w, r, http.StatusOK, "admin_challenge_form.tmpl", data)
		return
	}
	http.Redirect(w, r, "/admin/retos?ok=guardado", http.StatusSeeOther)
}

func (h *AdminHandler) DeleteChallenge(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, "/admin/retos", h.admin.DeleteChallenge)
}

// Tips

func (h *AdminHandler) ShowTips(w http.ResponseWriter, r *http.Request) {
	data := AdminTipsViewData{Layout: h.render.Layout(r, "Tips"), Success: flash(r)}
	tips, err := h.admin.Tips(r.Context(), sessionToken(r))
	if err != nil {
		if ForceLogout(w, r, h.log, err) {
			return
		}
		h.log.Warn("loading tips failed", "error", err)
		data.Error = MsgAdminLoadFailed
	}
	data.Tips = tips
	h.render.Render(w, r, http.StatusOK, "admin_tips.tmpl", data)
}

func (h *AdminHandler) ShowTipForm(w http.ResponseWriter, r *http.Request) {
	data := AdminTipFormViewData{Layout: h.render.Layout(r, "Tip")}
	if id, ok := pathID(r, "id"); ok {
		tip, err := h.admin.Tip(r.Context(), sessionToken(r), id)
		if err != nil {
			h.loadFailed(w, r, "/admin/tips", err)
			return
		}
		data.ID = id
		data.Form = validation.TipForm{Name: tip.Name, Description: tip.Description}
	}
	h.render.Render(w, r, http.StatusOK, "admin_tip_form.tmpl", data)
}

func (h *AdminHandler) SaveTip(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}
	id, ok := savePathID(r)
	if !ok {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}
	form := validation.TipForm{Name: r.PostFormValue("nombre"), Description: r.PostFormValue("descripcion")}
	if _, err := h.admin.SaveTip(r.Context(), sessionToken(r), id, form); err != nil {
		if ForceLogout(w, r, h.log, err) {
			return
		}
		msg, fields := saveFailed(err)
		data := AdminTipFormViewData{Layout: h.render.Layout(r, "Tip"), ID: id, Form: form, Errors: fields, Error: msg}
		h.render.Render(w, r, http.StatusOK, "admin_tip_form.tmpl", data)
		return
	}
	http.Redirect(w, r, "/admin/tips?ok=guardado", http.StatusSeeOther)
}

func (h *AdminHandler) DeleteTip(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, "/admin/tips", h.admin.DeleteTip)
}

// Users

var roles = []string{models.RoleUser, models.RoleAdmin}

func (h *AdminHandler) ShowUsers(w http.ResponseWriter, r *http.Request) {
	data := AdminUsersViewData{Layout: h.render.Layout(r, "Usuarios"), Success: flash(r)}
	users, err := h.admin.Users(r.Context(), sessionToken(r))
	if err != nil {
		if ForceLogout(w, r, h.log, err) {
			return
		}
		h.log.Warn("loading users failed", "error", err)
		data.Error = MsgAdminLoadFailed
	}
	data.Users = users
	h.render.Render(w, r, http.StatusOK, "admin_users.tmpl", data)
}

func (h *AdminHandler) ShowUserForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Redirect(w, r, "/admin/usuarios", http.StatusSeeOther)
		return
	}
	user, err := h.admin.User(r.Context(), sessionToken(r), id)
	if err != nil {
		h.loadFailed(w, r, "/admin/usuarios", err)
		return
	}
	data := AdminUserFormViewData{
		Layout: h.render.Layout(r, "Usuario"),
		ID:     id,
		Form:   validation.UserForm{Email: user.Email, Role: user.Role},
		Roles:  roles,
	}
	h.render.Render(w, r, http.StatusOK, "admin_user_form.tmpl", data)
}

func (h *AdminHandler) SaveUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Redirect(w, r, "/admin/usuarios", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}
	form := validation.UserForm{Email: r.PostFormValue("correo"), Role: r.PostFormValue("rol")}
	if _, err := h.admin.SaveUser(r.Context(), sessionToken(r), id, form); err != nil {
		if ForceLogout(w, r, h.log, err) {
			return
		}
		msg, fields := saveFailed(err)
		data := AdminUserFormViewData{Layout: h.render.Layout(r, "Usuario"), ID: id, Form: form, Roles: roles, Errors: fields, Error: msg}
		h.render.Render(w, r, http.StatusOK, "admin_user_form.tmpl", data)
		return
	}
	http.Redirect(w, r, "/admin/usuarios?ok=guardado", http.StatusSeeOther)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, "/admin/usuarios", h.admin.DeleteUser)
}

func (h *AdminHandler) delete(w http.ResponseWriter, r *http.Request, back string, del func(context.Context, string, int64) error) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	if err := del(r.Context(), sessionToken(r), id); err != nil {
		if ForceLogout(w, r, h.log, err) {
			return
		}
		respondWithError(w, h.log, http.StatusBadGateway, MsgAdminDeleteFailed, "delete failed", err)
		return
	}
	http.Redirect(w, r, back+"?ok=eliminado", http.StatusSeeOther)
}

func (h *AdminHandler) loadFailed(w http.ResponseWriter, r *http.Request, back string, err error) {
	if ForceLogout(w, r, h.log, err) {
		return
	}
	if errors.Is(err, api.ErrNotFound) {
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	respondWithError(w, h.log, http.StatusBadGateway, MsgAdminLoadFailed, fmt.Sprintf("loading %s failed", back), err)
}
