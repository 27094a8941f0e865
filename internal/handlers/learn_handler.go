package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"edufinanzas/internal/logger"
	"edufinanzas/internal/progress"
	"edufinanzas/internal/service"
	"edufinanzas/internal/session"
)

// LearnHandler serves the learner pages: topics, challenge lists and play
type LearnHandler struct {
	catalog    *service.CatalogService
	challenges *service.ChallengeService
	render     *Renderer
	log        *logger.Logger
}

func NewLearnHandler(catalog *service.CatalogService, challenges *service.ChallengeService, render *Renderer, log *logger.Logger) *LearnHandler {
	return &LearnHandler{
		catalog:    catalog,
		challenges: challenges,
		render:     render,
		log:        log.With("handler", "LearnHandler"),
	}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

// ShowTopics renders every topic with its progress and lock state
func (h *LearnHandler) ShowTopics(w http.ResponseWriter, r *http.Request) {
	h.renderTopics(w, r, "")
}

func (h *LearnHandler) renderTopics(w http.ResponseWriter, r *http.Request, message string) {
	holder := GetHolderFromContext(r.Context())
	data := TopicsViewData{
		Layout:    h.render.Layout(r, "Temas"),
		Threshold: progress.UnlockThreshold,
		Error:     message,
	}

	views, err := h.catalog.Topics(r.Context(), holder)
	switch {
	case ForceLogout(w, r, h.log, err):
		return
	case errors.Is(err, service.ErrNoProfile):
		data.Error = MsgNoProfile
	case err != nil:
		h.log.Warn("loading topics failed", "user_id", holder.UserID(), "error", err)
		data.Error = MsgTopicsLoadFailed
	default:
		data.Topics = views
	}

	h.render.Render(w, r, http.StatusOK, "topics.tmpl", data)
}

// ShowTopicChallenges renders the challenges of one unlocked topic
func (h *LearnHandler) ShowTopicChallenges(w http.ResponseWriter, r *http.Request) {
	topicID, ok := pathID(r, "id")
	if !ok {
		http.Redirect(w, r, "/temas", http.StatusSeeOther)
		return
	}
	h.renderTopicChallenges(w, r, topicID, "")
}

func (h *LearnHandler) renderTopicChallenges(w http.ResponseWriter, r *http.Request, topicID int64, message string) {
	holder := GetHolderFromContext(r.Context())
	data := TopicChallengesViewData{Layout: h.render.Layout(r, "Retos"), Error: message}

	page, err := h.catalog.TopicChallenges(r.Context(), holder, topicID)
	switch {
	case ForceLogout(w, r, h.log, err):
		return
	case errors.Is(err, service.ErrTopicLocked):
		h.renderTopics(w, r, MsgTopicLocked)
		return
	case errors.Is(err, service.ErrTopicNotFound):
		data.Error = MsgTopicNotFound
		h.render.Render(w, r, http.StatusNotFound, "topic_challenges.tmpl", data)
		return
	case errors.Is(err, service.ErrNoProfile):
		data.Error = MsgNoProfile
	case err != nil:
		h.log.Warn("loading topic failed", "topic_id", topicID, "error", err)
		data.Error = MsgTopicLoadFailed
	default:
		data.Layout.Title = page.Topic.Name + " - EduFinanzas"
		data.Topic = page.Topic
		data.Progress = page.Progress
		data.Challenges = page.Challenges
	}

	h.render.Render(w, r, http.StatusOK, "topic_challenges.tmpl", data)
}

// StartChallenge pays the cost of a challenge and opens it
func (h *LearnHandler) StartChallenge(w http.ResponseWriter, r *http.Request) {
	topicID, ok := pathID(r, "id")
	challengeID, ok2 := pathID(r, "retoId")
	if !ok || !ok2 {
		http.Redirect(w, r, "/temas", http.StatusSeeOther)
		return
	}
	holder := GetHolderFromContext(r.Context())

	ch, err := h.challenges.Start(r.Context(), holder, topicID, challengeID)
	if err == nil {
		http.Redirect(w, r, fmt.Sprintf("/retos/%d", ch.ID), http.StatusSeeOther)
		return
	}
	if ForceLogout(w, r, h.log, err) {
		return
	}

	var coins *service.InsufficientCoinsError
	switch {
	case errors.Is(err, service.ErrTopicLocked):
		h.renderTopics(w, r, MsgTopicLocked)
		return
	case errors.As(err, &coins):
		h.renderTopicChallenges(w, r, topicID, fmt.Sprintf("Necesitas %d monedas para jugar este reto. Tienes %d.", coins.Needed, coins.Have))
	case errors.Is(err, progress.ErrChallengeLocked):
		h.renderTopicChallenges(w, r, topicID, MsgChallengeLocked)
	case errors.Is(err, progress.ErrChallengeCompleted):
		h.renderTopicChallenges(w, r, topicID, MsgChallengeCompleted)
	case errors.Is(err, service.ErrChallengeNotFound):
		h.renderTopicChallenges(w, r, topicID, MsgChallengeNotFound)
	case errors.Is(err, session.ErrPending):
		h.renderTopicChallenges(w, r, topicID, MsgStartPending)
	default:
		h.log.Warn("starting challenge failed", "challenge_id", challengeID, "error", err)
		h.renderTopicChallenges(w, r, topicID, MsgStartFailed)
	}
}

// ShowChallenge renders the question and its options
func (h *LearnHandler) ShowChallenge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Redirect(w, r, "/temas", http.StatusSeeOther)
		return
	}
	holder := GetHolderFromContext(r.Context())
	data := ChallengeViewData{Layout: h.render.Layout(r, "Reto")}

	ch, err := h.challenges.Challenge(r.Context(), holder, id)
	switch {
	case ForceLogout(w, r, h.log, err):
		return
	case errors.Is(err, service.ErrChallengeNotFound):
		data.Error = MsgChallengeNotFound
		h.render.Render(w, r, http.StatusNotFound, "challenge.tmpl", data)
		return
	case errors.Is(err, service.ErrChallengeNotStarted):
		h.renderTopics(w, r, MsgChallengeNotStarted)
		return
	case errors.Is(err, service.ErrNoProfile):
		data.Error = MsgNoProfile
	case err != nil:
		h.log.Warn("loading challenge failed", "challenge_id", id, "error", err)
		data.Error = MsgChallengeLoadFailed
	default:
		data.Challenge = ch
		data.Layout.Title = ch.Name + " - EduFinanzas"
	}

	h.render.Render(w, r, http.StatusOK, "challenge.tmpl", data)
}

// Answer submits the selected option and shows the verdict
func (h *LearnHandler) Answer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Redirect(w, r, "/temas", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}
	holder := GetHolderFromContext(r.Context())
	answer := r.PostFormValue("respuesta")

	out, err := h.challenges.Solve(r.Context(), holder, id, answer)
	if ForceLogout(w, r, h.log, err) {
		return
	}

	if errors.Is(err, service.ErrChallengeNotStarted) {
		h.renderTopics(w, r, MsgChallengeNotStarted)
		return
	}

	data := ChallengeViewData{Selected: answer}
	switch {
	case errors.Is(err, service.ErrNoAnswer):
		data.Error = MsgSelectAnswer
	case errors.Is(err, service.ErrChallengeNotFound):
		data.Layout = h.render.Layout(r, "Reto")
		data.Error = MsgChallengeNotFound
		h.render.Render(w, r, http.StatusNotFound, "challenge.tmpl", data)
		return
	case errors.Is(err, service.ErrNoProfile):
		data.Error = MsgNoProfile
	case err != nil:
		h.log.Warn("submitting answer failed", "challenge_id", id, "error", err)
		data.Error = MsgAnswerFailed
	default:
		data.Challenge = &out.Challenge
		data.Correct = out.Correct
		if out.Correct {
			data.Result = fmt.Sprintf("¡Correcto! Ganaste %d monedas.", out.Reward)
		} else {
			data.Result = MsgWrongAnswer
		}
	}

	if data.Challenge == nil {
		if ch, cerr := h.challenges.Challenge(r.Context(), holder, id); cerr == nil {
			data.Challenge = ch
		}
	}
	// layout last so the header shows the updated balance
	data.Layout = h.render.Layout(r, "Reto")
	h.render.Render(w, r, http.StatusOK, "challenge.tmpl", data)
}
