package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"edufinanzas/internal/models"
)

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	out, err := getJSON[[]models.User](c, ctx, "/usuarios/", nil)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

func (c *Client) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return getJSON[models.User](c, ctx, idPath("usuarios", id), nil)
}

// UpdateUser replaces the user record (PUT)
func (c *Client) UpdateUser(ctx context.Context, id int64, user models.User) (*models.User, error) {
	return sendJSON[models.User](c, ctx, http.MethodPut, idPath("usuarios", id), user)
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, idPath("usuarios", id), nil, nil, nil)
}

// ProfilePatch is a partial profile update sent as multipart/form-data.
// Nil fields are omitted; Photo is streamed as the foto_perfil file part.
type ProfilePatch struct {
	Name      *string
	Age       *int
	Photo     io.Reader
	PhotoName string
}

// PatchProfile sends a multipart PATCH, the only way the backend accepts a
// new profile photo
func (c *Client) PatchProfile(ctx context.Context, id int64, patch ProfilePatch) (*models.Profile, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if patch.Name != nil {
		if err := w.WriteField("nombre_perfil", *patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.Age != nil {
		if err := w.WriteField("edad", strconv.Itoa(*patch.Age)); err != nil {
			return nil, err
		}
	}
	if patch.Photo != nil {
		name := patch.PhotoName
		if name == "" {
			name = "foto"
		}
		part, err := w.CreateFormFile("foto_perfil", name)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, patch.Photo); err != nil {
			return nil, fmt.Errorf("copy profile photo: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.endpoint(idPath("perfiles", id), nil), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var out models.Profile
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
