package repository

import (
	"context"

	"github.com/noah-isme/attendance-app/internal/dto"
	"github.com/noah-isme/attendance-app/internal/models"
)

// AuthRepository wraps the backend login endpoints.
type AuthRepository struct {
	api apiDoer
}

// NewAuthRepository constructs the repository.
func NewAuthRepository(api apiDoer) *AuthRepository {
	return &AuthRepository{api: api}
}

// Login exchanges credentials for a bearer token.
func (r *AuthRepository) Login(ctx context.Context, req models.LoginRequest) (*dto.LoginResponse, error) {
	var resp dto.LoginResponse
	if err := r.api.Post(ctx, "", pathLogin, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Check validates token and returns the user it belongs to.
func (r *AuthRepository) Check(ctx context.Context, token string) (*models.UserProfile, error) {
	var resp dto.SessionCheckResponse
	if err := r.api.Get(ctx, token, pathLogin, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// ResetPassword changes a password using the old one.
func (r *AuthRepository) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) (string, error) {
	var resp dto.MessageResponse
	if err := r.api.Post(ctx, "", pathResetPassword, req, &resp); err != nil {
		return "", err
	}
	return resp.Text(), nil
}
