package api

import (
	"context"
	"net/http"

	"edufinanzas/internal/models"
)

type loginRequest struct {
	Email    string `json:"correo"`
	Password string `json:"contrasena"`
}

// Login exchanges credentials for a token plus the user and profile records
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	return sendJSON[models.LoginResponse](c, ctx, http.MethodPost, "/login_usuario/", loginRequest{
		Email:    email,
		Password: password,
	})
}

// Register creates a user together with its profile
func (c *Client) Register(ctx context.Context, req models.NewUserRequest) (*models.User, error) {
	return sendJSON[models.User](c, ctx, http.MethodPost, "/usuarios/", req)
}
