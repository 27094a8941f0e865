package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"edufinanzas/internal/api"
	"edufinanzas/internal/logger"
	"edufinanzas/internal/models"
	"edufinanzas/internal/progress"
	"edufinanzas/internal/session"
)

const pendingStart = "iniciar_reto"

var (
	ErrNoAnswer            = errors.New("no answer selected")
	ErrChallengeNotStarted = errors.New("challenge was not started")
)

// InsufficientCoinsError carries the numbers for the "not enough coins" message
type InsufficientCoinsError struct {
	Needed int
	Have   int
}

func (e *InsufficientCoinsError) Error() string {
	return fmt.Sprintf("need %d coins, have %d", e.Needed, e.Have)
}

func (e *InsufficientCoinsError) Is(target error) bool {
	return target == progress.ErrInsufficientCoins
}

// ChallengeService starts and solves challenges. Coin changes are applied to
// the session only after the backend confirmed the write.
type ChallengeService struct {
	catalog *CatalogService
	client  *api.Client
	log     *logger.Logger
}

func NewChallengeService(catalog *CatalogService, client *api.Client, log *logger.Logger) *ChallengeService {
	return &ChallengeService{
		catalog: catalog,
		client:  client,
		log:     log.With("service", "ChallengeService"),
	}
}

// Start re-checks gating and balance against fresh data, records the start
// on the backend and then charges the cost locally
func (s *ChallengeService) Start(ctx context.Context, h *session.Holder, topicID, challengeID int64) (*models.Challenge, error) {
	page, err := s.catalog.TopicChallenges(ctx, h, topicID)
	if err != nil {
		return nil, err
	}

	var view *progress.ChallengeView
	for i := range page.Challenges {
		if page.Challenges[i].Challenge.ID == challengeID {
			view = &page.Challenges[i]
			break
		}
	}
	if view == nil {
		return nil, ErrChallengeNotFound
	}

	balance := h.CoinBalance()
	if err := progress.CheckStart(*view, balance); err != nil {
		if errors.Is(err, progress.ErrInsufficientCoins) {
			return nil, &InsufficientCoinsError{Needed: view.Challenge.Cost, Have: balance}
		}
		return nil, err
	}

	if err := h.BeginPending(ctx, pendingStart); err != nil {
		return nil, err
	}
	defer h.EndPending(ctx)

	_, err = s.client.WithToken(h.Token()).CreateProgress(ctx, models.ProgressRecord{
		ProfileID:   h.ProfileID(),
		ChallengeID: challengeID,
	})
	if err != nil {
		s.log.Warn("starting challenge failed", "challenge_id", challengeID, "error", err)
		return nil, fmt.Errorf("create progress: %w", err)
	}

	if view.Challenge.Cost != 0 {
		if err := h.UpdateCoins(ctx, -view.Challenge.Cost); err != nil {
			s.log.Error("charging coins failed", "challenge_id", challengeID, "error", err)
			return nil, err
		}
	}
	s.log.Info("challenge started", "challenge_id", challengeID, "profile_id", h.ProfileID(), "cost", view.Challenge.Cost)

	ch := view.Challenge
	return &ch, nil
}

// Challenge loads one challenge for play. The profile must hold a progress
// record for it, which Start creates after charging the cost.
func (s *ChallengeService) Challenge(ctx context.Context, h *session.Holder, id int64) (*models.Challenge, error) {
	if h.ProfileID() == 0 {
		return nil, ErrNoProfile
	}
	c := s.client.WithToken(h.Token())
	ch, err := c.GetChallenge(ctx, id)
	if errors.Is(err, api.ErrNotFound) {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, err
	}

	records, err := c.ChallengeProgress(ctx, h.ProfileID(), id)
	if err != nil {
		return nil, fmt.Errorf("challenge progress: %w", err)
	}
	for _, rec := range records {
		if rec.ProfileID == h.ProfileID() && rec.ChallengeID == id {
			return ch, nil
		}
	}
	s.log.Info("challenge opened without a start", "challenge_id", id, "profile_id", h.ProfileID())
	return nil, ErrChallengeNotStarted
}

// SolveOutcome is the verdict on one answer
type SolveOutcome struct {
	Challenge models.Challenge
	Correct   bool
	Reward    int
}

// Solve submits an answer. On a correct answer the reward is added to the
// session balance.
func (s *ChallengeService) Solve(ctx context.Context, h *session.Holder, challengeID int64, answer string) (*SolveOutcome, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, ErrNoAnswer
	}

	ch, err := s.Challenge(ctx, h, challengeID)
	if err != nil {
		return nil, err
	}

	result, err := s.client.WithToken(h.Token()).SolveChallenge(ctx, models.SolveRequest{
		ProfileID:      h.ProfileID(),
		ChallengeID:    challengeID,
		SelectedAnswer: answer,
	})
	if err != nil {
		return nil, fmt.Errorf("solve challenge: %w", err)
	}

	out := &SolveOutcome{Challenge: *ch, Correct: result.Completed}
	if result.Completed {
		out.Reward = ch.Reward
		if err := h.UpdateCoins(ctx, ch.Reward); err != nil {
			s.log.Error("crediting reward failed", "challenge_id", challengeID, "error", err)
			return nil, err
		}
	}
	s.log.Info("challenge answered", "challenge_id", challengeID, "correct", result.Completed)
	return out, nil
}
