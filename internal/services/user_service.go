package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/campusexam/exam-portal/internal/auth"
	"github.com/campusexam/exam-portal/internal/models"
	"github.com/campusexam/exam-portal/internal/repositories"
	"github.com/campusexam/exam-portal/internal/utils"
)

type UserService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	CreateUser(ctx context.Context, creatorID uint, req *CreateUserRequest) (*models.User, error)

	GetByID(ctx context.Context, userID uint) (*models.User, error)
	Search(ctx context.Context, req *SearchUsersRequest) (*PagedResult[*models.User], error)
	UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*models.User, error)
	ChangePassword(ctx context.Context, userID uint, req *ChangePasswordRequest) error
}

// ===== DTOs =====

type RegisterRequest struct {
	Name           string  `json:"name" validate:"required,min=1,max=100"`
	Email          string  `json:"email" validate:"required,email"`
	Password       string  `json:"password" validate:"required,min=8,max=72"`
	UniversityName *string `json:"university_name" validate:"omitempty,max=200"`
	Major          *string `json:"major" validate:"omitempty,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateUserRequest struct {
	Name           string          `json:"name" validate:"required,min=1,max=100"`
	Email          string          `json:"email" validate:"required,email"`
	Password       string          `json:"password" validate:"required,min=8,max=72"`
	Role           models.UserRole `json:"role" validate:"required,user_role"`
	UniversityName *string         `json:"university_name" validate:"omitempty,max=200"`
	Major          *string         `json:"major" validate:"omitempty,max=100"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type SearchUsersRequest struct {
	Pagination
	Query      string          `form:"query"`
	Role       models.UserRole `form:"role" validate:"omitempty,user_role"`
	University string          `form:"university"`
	Major      string          `form:"major"`
}

type UpdateProfileRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=100"`
	UniversityName *string `json:"university_name" validate:"omitempty,max=200"`
	Major          *string `json:"major" validate:"omitempty,max=100"`
	Image          *string `json:"image" validate:"omitempty,max=500"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// ===== SERVICE =====

type userService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *utils.Validator
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewUserService(repo repositories.Repository, logger *slog.Logger, validator *utils.Validator, jwtSecret string, tokenTTLHours int) UserService {
	return &userService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  time.Duration(tokenTTLHours) * time.Hour,
	}
}

func (s *userService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, &CreateUserRequest{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		Role:           models.RoleParticipant,
		UniversityName: req.UniversityName,
		Major:          req.Major,
	})
	if err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

func (s *userService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.Users().GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !auth.VerifyPassword(user.Password, req.Password) {
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("User logged in", "user_id", user.ID, "role", user.Role)
	return s.issueToken(user)
}

func (s *userService) CreateUser(ctx context.Context, creatorID uint, req *CreateUserRequest) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	user, err := s.createUser(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User created by admin",
		"user_id", user.ID, "role", user.Role, "created_by", creatorID)
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repo.Users().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *userService) Search(ctx context.Context, req *SearchUsersRequest) (*PagedResult[*models.User], error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	limit, offset := req.Normalize()
	filters := repositories.UserFilters{Limit: limit, Offset: offset}
	if req.Query != "" {
		filters.Query = &req.Query
	}
	if req.Role != "" {
		filters.Role = &req.Role
	}
	if req.University != "" {
		filters.University = &req.University
	}
	if req.Major != "" {
		filters.Major = &req.Major
	}

	users, total, err := s.repo.Users().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	return newPagedResult(users, total, req.Pagination), nil
}

// UpdateProfile changes the caller's own display fields. Email and role
// are immutable through this path.
func (s *userService) UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.UniversityName != nil {
		user.UniversityName = req.UniversityName
	}
	if req.Major != nil {
		user.Major = req.Major
	}
	if req.Image != nil {
		user.Image = req.Image
	}

	if err := s.repo.Users().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("Profile updated", "user_id", userID)
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID uint, req *ChangePasswordRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}
	if req.NewPassword != req.ConfirmPassword {
		return ErrPasswordConfirm
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(user.Password, req.CurrentPassword) {
		return ErrPasswordMismatch
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.Users().UpdatePassword(ctx, userID, hashed); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info("Password changed", "user_id", userID)
	return nil
}

// ===== HELPERS =====

func (s *userService) createUser(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	taken, err := s.repo.Users().ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:           req.Name,
		Email:          email,
		Password:       hashed,
		Role:           req.Role,
		UniversityName: req.UniversityName,
		Major:          req.Major,
	}
	if err := s.repo.Users().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *userService) issueToken(user *models.User) (*AuthResponse, error) {
	token, err := auth.GenerateToken(s.jwtSecret, user, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
