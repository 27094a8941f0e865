package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"edufinanzas/internal/models"
)

// ListProgress returns the progress records of one profile
func (c *Client) ListProgress(ctx context.Context, profileID int64) ([]models.ProgressRecord, error) {
	return c.listProgress(ctx, url.Values{"id_perfil": {strconv.FormatInt(profileID, 10)}})
}

// ChallengeProgress returns the records of one profile for one challenge
func (c *Client) ChallengeProgress(ctx context.Context, profileID, challengeID int64) ([]models.ProgressRecord, error) {
	return c.listProgress(ctx, url.Values{
		"id_perfil": {strconv.FormatInt(profileID, 10)},
		"id_reto":   {strconv.FormatInt(challengeID, 10)},
	})
}

func (c *Client) listProgress(ctx context.Context, query url.Values) ([]models.ProgressRecord, error) {
	out, err := getJSON[[]models.ProgressRecord](c, ctx, "/progresos/", query)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

func (c *Client) CreateProgress(ctx context.Context, rec models.ProgressRecord) (*models.ProgressRecord, error) {
	return sendJSON[models.ProgressRecord](c, ctx, http.MethodPost, "/progresos/", rec)
}
