package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"edufinanzas/internal/models"
)

// ListChallenges returns every challenge; Position restarts at zero per topic
func (c *Client) ListChallenges(ctx context.Context) ([]models.Challenge, error) {
	return c.listChallenges(ctx, nil)
}

// ListChallengesByTopic filters on the server with ?id_tema=
func (c *Client) ListChallengesByTopic(ctx context.Context, topicID int64) ([]models.Challenge, error) {
	return c.listChallenges(ctx, url.Values{"id_tema": {strconv.FormatInt(topicID, 10)}})
}

func (c *Client) listChallenges(ctx context.Context, query url.Values) ([]models.Challenge, error) {
	out, err := getJSON[[]models.Challenge](c, ctx, "/retos/", query)
	if err != nil {
		return nil, err
	}
	return models.SequenceChallenges(*out), nil
}

func (c *Client) GetChallenge(ctx context.Context, id int64) (*models.Challenge, error) {
	return getJSON[models.Challenge](c, ctx, idPath("retos", id), nil)
}

func (c *Client) CreateChallenge(ctx context.Context, ch models.Challenge) (*models.Challenge, error) {
	return sendJSON[models.Challenge](c, ctx, http.MethodPost, "/retos/", ch)
}

func (c *Client) UpdateChallenge(ctx context.Context, id int64, ch models.Challenge) (*models.Challenge, error) {
	return sendJSON[models.Challenge](c, ctx, http.MethodPut, idPath("retos", id), ch)
}

func (c *Client) DeleteChallenge(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, idPath("retos", id), nil, nil, nil)
}

// SolveChallenge submits an answer; the backend decides correctness
func (c *Client) SolveChallenge(ctx context.Context, req models.SolveRequest) (*models.SolveResult, error) {
	return sendJSON[models.SolveResult](c, ctx, http.MethodPost, "/solucionar_reto/", req)
}
