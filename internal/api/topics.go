package api

import (
	"context"
	"net/http"

	"edufinanzas/internal/models"
)

// ListTopics returns every topic with Position stamped from response order
func (c *Client) ListTopics(ctx context.Context) ([]models.Topic, error) {
	out, err := getJSON[[]models.Topic](c, ctx, "/temas/", nil)
	if err != nil {
		return nil, err
	}
	return models.SequenceTopics(*out), nil
}

func (c *Client) GetTopic(ctx context.Context, id int64) (*models.Topic, error) {
	return getJSON[models.Topic](c, ctx, idPath("temas", id), nil)
}

func (c *Client) CreateTopic(ctx context.Context, topic models.Topic) (*models.Topic, error) {
	return sendJSON[models.Topic](c, ctx, http.MethodPost, "/temas/", topic)
}

func (c *Client) UpdateTopic(ctx context.Context, id int64, topic models.Topic) (*models.Topic, error) {
	return sendJSON[models.Topic](c, ctx, http.MethodPut, idPath("temas", id), topic)
}

func (c *Client) DeleteTopic(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, idPath("temas", id), nil, nil, nil)
}

func (c *Client) ListTips(ctx context.Context) ([]models.Tip, error) {
	out, err := getJSON[[]models.Tip](c, ctx, "/tips/", nil)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

func (c *Client) GetTip(ctx context.Context, id int64) (*models.Tip, error) {
	return getJSON[models.Tip](c, ctx, idPath("tips", id), nil)
}

func (c *Client) CreateTip(ctx context.Context, tip models.Tip) (*models.Tip, error) {
	return sendJSON[models.Tip](c, ctx, http.MethodPost, "/tips/", tip)
}

func (c *Client) UpdateTip(ctx context.Context, id int64, tip models.Tip) (*models.Tip, error) {
	return sendJSON[models.Tip](c, ctx, http.MethodPut, idPath("tips", id), tip)
}

func (c *Client) DeleteTip(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, idPath("tips", id), nil, nil, nil)
}
