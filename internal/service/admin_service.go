package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"edufinanzas/internal/api"
	"edufinanzas/internal/logger"
	"edufinanzas/internal/models"
	"edufinanzas/internal/validation"
)

// InvalidFormError holds per-field messages from a rejected admin form
type InvalidFormError struct {
	Fields map[string]string
}

func (e *InvalidFormError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// AdminService is the content management behind /admin
type AdminService struct {
	client    *api.Client
	validator *validation.Validator
	log       *logger.Logger
}

func NewAdminService(client *api.Client, v *validation.Validator, log *logger.Logger) *AdminService {
	return &AdminService{client: client, validator: v, log: log.With("service", "AdminService")}
}

// Dashboard is the overview shown on /admin/
type Dashboard struct {
	Topics     []models.Topic
	Challenges []models.Challenge
	Tips       []models.Tip
	Users      []models.User
}

// Dashboard loads every collection concurrently
func (s *AdminService) Dashboard(ctx context.Context, token string) (*Dashboard, error) {
	c := s.client.WithToken(token)
	var d Dashboard

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Topics, err = c.ListTopics(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Challenges, err = c.ListChallenges(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Tips, err = c.ListTips(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Users, err = c.ListUsers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load dashboard: %w", err)
	}
	return &d, nil
}

func (s *AdminService) check(form interface{}) error {
	if fields := s.validator.Struct(form); fields != nil {
		return &InvalidFormError{Fields: fields}
	}
	return nil
}

func (s *AdminService) Topics(ctx context.Context, token string) ([]models.Topic, error) {
	return s.client.WithToken(token).ListTopics(ctx)
}

func (s *AdminService) Topic(ctx context.Context, token string, id int64) (*models.Topic, error) {
	return s.client.WithToken(token).GetTopic(ctx, id)
}

// SaveTopic creates the topic when id is 0, otherwise replaces it
func (s *AdminService) SaveTopic(ctx context.Context, token string, id int64, form validation.TopicForm) (*models.Topic, error) {
	if err := s.check(form); err != nil {
		return nil, err
	}
	topic := models.Topic{
		Name:        strings.TrimSpace(form.Name),
		Description: strings.TrimSpace(form.Description),
		Image:       strings.TrimSpace(form.Image),
		Information: form.Information,
	}
	c := s.client.WithToken(token)
	var (
		saved *models.Topic
		err   error
	)
	if id == 0 {
		saved, err = c.CreateTopic(ctx, topic)
	} else {
		saved, err = c.UpdateTopic(ctx, id, topic)
	}
	if err != nil {
		return nil, fmt.Errorf("save topic: %w", err)
	}
	s.log.Info("topic saved", "topic_id", saved.ID, "created", id == 0)
	return saved, nil
}

func (s *AdminService) DeleteTopic(ctx context.Context, token string, id int64) error {
	if err := s.client.WithToken(token).DeleteTopic(ctx, id); err != nil {
		return fmt.Errorf("delete topic %d: %w", id, err)
	}
	s.log.Info("topic deleted", "topic_id", id)
	return nil
}

// Challenges lists every challenge, or those of one topic when topicID > 0
func (s *AdminService) Challenges(ctx context.Context, token string, topicID int64) ([]models.Challenge, error) {
	c := s.client.WithToken(token)
	if topicID > 0 {
		return c.ListChallengesByTopic(ctx, topicID)
	}
	return c.ListChallenges(ctx)
}

func (s *AdminService) Challenge(ctx context.Context, token string, id int64) (*models.Challenge, error) {
	return s.client.WithToken(token).GetChallenge(ctx, id)
}

// SaveChallenge creates the challenge when id is 0, otherwise replaces it
func (s *AdminService) SaveChallenge(ctx context.Context, token string, id int64, form validation.ChallengeForm) (*models.Challenge, error) {
	if err := s.check(form); err != nil {
		return nil, err
	}
	ch := models.Challenge{
		TopicID:       form.TopicID,
		Name:          strings.TrimSpace(form.Name),
		Description:   strings.TrimSpace(form.Description),
		Theory:        form.Theory,
		Question:      strings.TrimSpace(form.Question),
		AnswerOne:     form.AnswerOne,
		AnswerTwo:     form.AnswerTwo,
		AnswerThree:   form.AnswerThree,
		AnswerFour:    form.AnswerFour,
		CorrectAnswer: form.CorrectAnswer,
		Cost:          form.Cost,
		Reward:        form.Reward,
		Image:         strings.TrimSpace(form.Image),
	}
	c := s.client.WithToken(token)
	var (
		saved *models.Challenge
		err   error
	)
	if id == 0 {
		saved, err = c.CreateChallenge(ctx, ch)
	} else {
		saved, err = c.UpdateChallenge(ctx, id, ch)
	}
	if err != nil {
		return nil, fmt.Errorf("save challenge: %w", err)
	}
	s.log.Info("challenge saved", "challenge_id", saved.ID, "topic_id", saved.TopicID, "created", id == 0)
	return saved, nil
}

func (s *AdminService) DeleteChallenge(ctx context.Context, token string, id int64) error {
	if err := s.client.WithToken(token).DeleteChallenge(ctx, id); err != nil {
		return fmt.Errorf("delete challenge %d: %w", id, err)
	}
	s.log.Info("challenge deleted", "challenge_id", id)
	return nil
}

func (s *AdminService) Tips(ctx context.Context, token string) ([]models.Tip, error) {
	return s.client.WithToken(token).ListTips(ctx)
}

func (s *AdminService) Tip(ctx context.Context, token string, id int64) (*models.Tip, error) {
	return s.client.WithToken(token).GetTip(ctx, id)
}

func (s *AdminService) SaveTip(ctx context.Context, token string, id int64, form validation.TipForm) (*models.Tip, error) {
	if err := s.check(form); err != nil {
		return nil, err
	}
	tip := models.Tip{Name: strings.TrimSpace(form.Name), Description: strings.TrimSpace(form.Description)}
	c := s.client.WithToken(token)
	var (
		saved *models.Tip
		err   error
	)
	if id == 0 {
		saved, err = c.CreateTip(ctx, tip)
	} else {
		saved, err = c.UpdateTip(ctx, id, tip)
	}
	if err != nil {
		return nil, fmt.Errorf("save tip: %w", err)
	}
	s.log.Info("tip saved", "tip_id", saved.ID, "created", id == 0)
	return saved, nil
}

func (s *AdminService) DeleteTip(ctx context.Context, token string, id int64) error {
	if err := s.client.WithToken(token).DeleteTip(ctx, id); err != nil {
		return fmt.Errorf("delete tip %d: %w", id, err)
	}
	s.log.Info("tip deleted", "tip_id", id)
	return nil
}

func (s *AdminService) Users(ctx context.Context, token string) ([]models.User, error) {
	return s.client.WithToken(token).ListUsers(ctx)
}

func (s *AdminService) User(ctx context.Context, token string, id int64) (*models.User, error) {
	return s.client.WithToken(token).GetUser(ctx, id)
}

// SaveUser changes email and role. The backend needs the full record, so the
// stored password is read back and sent unchanged.
func (s *AdminService) SaveUser(ctx context.Context, token string, id int64, form validation.UserForm) (*models.User, error) {
	if err := s.check(form); err != nil {
		return nil, err
	}
	c := s.client.WithToken(token)
	current, err := c.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	saved, err := c.UpdateUser(ctx, id, models.User{
		Email:    strings.TrimSpace(form.Email),
		Password: current.Password,
		Role:     form.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("save user %d: %w", id, err)
	}
	s.log.Info("user saved", "user_id", id, "role", form.Role)
	return saved, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, token string, id int64) error {
	if err := s.client.WithToken(token).DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	s.log.Info("user deleted", "user_id", id)
	return nil
}
