package services

import (
	"context"
	"errors"
	"strings"

	"projectcrm/internal/apperr"
	"projectcrm/internal/authz"
	"projectcrm/internal/models"
	"projectcrm/internal/repositories"
)

type UserService interface {
	CreateUserWithPassword(ctx context.Context, user *models.User, plainPassword string) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	// Authenticate checks the credentials and returns the user with a signed access token.
	Authenticate(ctx context.Context, email, password string) (*models.User, string, error)
}

type userService struct {
	repo repositories.UserRepository
	auth AuthService
}

func NewUserService(repo repositories.UserRepository, auth AuthService) UserService {
	return &userService{repo: repo, auth: auth}
}

func (s *userService) CreateUserWithPassword(ctx context.Context, user *models.User, plainPassword string) error {
	if strings.TrimSpace(plainPassword) == "" {
		return apperr.InvalidInput("password is required")
	}
	if strings.TrimSpace(user.Email) == "" || strings.TrimSpace(user.FullName) == "" {
		return apperr.InvalidInput("full_name and email are required")
	}
	if user.RoleID == 0 {
		user.RoleID = authz.RoleMember
	}
	if !authz.IsKnownRole(user.RoleID) {
		return apperr.InvalidInput("unknown role_id")
	}
	hash, err := s.auth.HashPassword(plainPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.repo.Create(ctx, user)
}

func (s *userService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := s.auth.CheckPassword(strings.TrimSpace(user.PasswordHash), strings.TrimSpace(password)); err != nil {
		return nil, "", err
	}
	token, _, err := s.auth.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
