package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"edufinanzas/internal/api"
	"edufinanzas/internal/logger"
	"edufinanzas/internal/models"
	"edufinanzas/internal/progress"
	"edufinanzas/internal/session"
)

var (
	ErrNoProfile         = errors.New("account has no profile")
	ErrTopicNotFound     = errors.New("topic not found")
	ErrTopicLocked       = errors.New("topic is locked")
	ErrChallengeNotFound = errors.New("challenge not found")
)

// CatalogService loads the topic, challenge and tip pages
type CatalogService struct {
	client *api.Client
	log    *logger.Logger
}

func NewCatalogService(client *api.Client, log *logger.Logger) *CatalogService {
	return &CatalogService{client: client, log: log.With("service", "CatalogService")}
}

// HomeData is the landing page content
type HomeData struct {
	Topics []models.Topic
	Tips   []models.Tip
}

// Home loads topics and tips concurrently
func (s *CatalogService) Home(ctx context.Context, token string) (*HomeData, error) {
	c := s.client.WithToken(token)
	var out HomeData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		topics, err := c.ListTopics(gctx)
		out.Topics = topics
		return err
	})
	g.Go(func() error {
		tips, err := c.ListTips(gctx)
		out.Tips = tips
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load home: %w", err)
	}
	return &out, nil
}

// Topics returns the progress view of every topic for the session's profile
func (s *CatalogService) Topics(ctx context.Context, h *session.Holder) ([]progress.TopicView, error) {
	topics, challenges, records, err := s.loadAll(ctx, h)
	if err != nil {
		return nil, err
	}
	return progress.TopicProgress(topics, challenges, records), nil
}

// TopicPage is one topic with the gating state of its challenges
type TopicPage struct {
	Topic      models.Topic
	Progress   progress.TopicView
	Challenges []progress.ChallengeView
}

// TopicChallenges loads one topic and its challenges. A topic that is not
// unlocked for the profile yields ErrTopicLocked.
func (s *CatalogService) TopicChallenges(ctx context.Context, h *session.Holder, topicID int64) (*TopicPage, error) {
	topics, challenges, records, err := s.loadAll(ctx, h)
	if err != nil {
		return nil, err
	}

	views := progress.TopicProgressByID(progress.TopicProgress(topics, challenges, records))
	view, ok := views[topicID]
	if !ok {
		return nil, ErrTopicNotFound
	}
	if !view.Unlocked {
		return nil, ErrTopicLocked
	}

	ordered := progress.ChallengesOfTopic(topicID, challenges)
	return &TopicPage{
		Topic:      view.Topic,
		Progress:   view,
		Challenges: progress.ChallengeViews(ordered, records),
	}, nil
}

// loadAll fetches topics, challenges and the profile's progress concurrently.
// The first failure cancels the other calls.
func (s *CatalogService) loadAll(ctx context.Context, h *session.Holder) ([]models.Topic, []models.Challenge, []models.ProgressRecord, error) {
	profileID := h.ProfileID()
	if profileID == 0 {
		return nil, nil, nil, ErrNoProfile
	}
	c := s.client.WithToken(h.Token())

	var (
		topics     []models.Topic
		challenges []models.Challenge
		records    []models.ProgressRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		topics, err = c.ListTopics(gctx)
		return err
	})
	g.Go(func() (err error) {
		challenges, err = c.ListChallenges(gctx)
		return err
	})
	g.Go(func() (err error) {
		records, err = c.ListProgress(gctx, profileID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Warn("loading catalog failed", "profile_id", profileID, "error", err)
		return nil, nil, nil, err
	}
	return topics, challenges, records, nil
}
