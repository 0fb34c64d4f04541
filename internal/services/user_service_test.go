package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/campusexam/exam-portal/internal/auth"
	"github.com/campusexam/exam-portal/internal/models"
	"github.com/campusexam/exam-portal/internal/repositories"
	"github.com/campusexam/exam-portal/internal/utils"
)

func newUserService(repo *MockRepository) UserService {
	return NewUserService(repo, testLogger(), utils.NewValidator(), "test-secret", 24)
}

func hashedUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	assert.NoError(t, err)
	return &models.User{
		ID: 1, Name: "Dana", Email: "dana@example.edu",
		Password: hash, Role: models.RoleParticipant,
	}
}

func TestUserService_Register_IssuesToken(t *testing.T) {
	repo := newMockRepository()
	repo.users.On("ExistsByEmail", mock.Anything, "dana@example.edu").Return(false, nil)
	repo.users.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "dana@example.edu" &&
			u.Role == models.RoleParticipant &&
			u.Password != "hunter2secret" // stored hashed, never plaintext
	})).Return(nil)

	svc := newUserService(repo)
	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Name:     "Dana",
		Email:    "Dana@Example.EDU",
		Password: "hunter2secret",
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "dana@example.edu", resp.User.Email)

	claims, err := auth.ParseToken([]byte("test-secret"), resp.Token)
	assert.NoError(t, err)
	assert.Equal(t, models.RoleParticipant, claims.Role)
}

func TestUserService_Register_DuplicateEmail(t *testing.T) {
	repo := newMockRepository()
	repo.users.On("ExistsByEmail", mock.Anything, "dana@example.edu").Return(true, nil)

	svc := newUserService(repo)
	_, err := svc.Register(context.Background(), &RegisterRequest{
		Name:     "Dana",
		Email:    "dana@example.edu",
		Password: "hunter2secret",
	})

	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.True(t, IsConflict(err))
	repo.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserService_Login(t *testing.T) {
	user := hashedUser(t, "hunter2secret")

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "correct password", password: "hunter2secret"},
		{name: "wrong password", password: "letmein12345", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			repo.users.On("GetByEmail", mock.Anything, "dana@example.edu").Return(user, nil)

			svc := newUserService(repo)
			resp, err := svc.Login(context.Background(), &LoginRequest{
				Email:    "dana@example.edu",
				Password: tt.password,
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.NotEmpty(t, resp.Token)
		})
	}
}

func TestUserService_Login_UnknownEmail(t *testing.T) {
	repo := newMockRepository()
	repo.users.On("GetByEmail", mock.Anything, "ghost@example.edu").
		Return(nil, gormNotFound())

	svc := newUserService(repo)
	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "ghost@example.edu",
		Password: "irrelevant123",
	})

	// Indistinguishable from a wrong password on purpose.
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_ChangePassword(t *testing.T) {
	tests := []struct {
		name    string
		request ChangePasswordRequest
		wantErr error
	}{
		{
			name: "current password mismatch",
			request: ChangePasswordRequest{
				CurrentPassword: "not-the-password",
				NewPassword:     "newsecret123",
				ConfirmPassword: "newsecret123",
			},
			wantErr: ErrPasswordMismatch,
		},
		{
			name: "confirmation mismatch",
			request: ChangePasswordRequest{
				CurrentPassword: "hunter2secret",
				NewPassword:     "newsecret123",
				ConfirmPassword: "newsecret124",
			},
			wantErr: ErrPasswordConfirm,
		},
		{
			name: "successful change",
			request: ChangePasswordRequest{
				CurrentPassword: "hunter2secret",
				NewPassword:     "newsecret123",
				ConfirmPassword: "newsecret123",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			user := hashedUser(t, "hunter2secret")
			repo.users.On("GetByID", mock.Anything, uint(1)).Return(user, nil)
			if tt.wantErr == nil {
				repo.users.On("UpdatePassword", mock.Anything, uint(1), mock.MatchedBy(func(hash string) bool {
					return auth.VerifyPassword(hash, "newsecret123")
				})).Return(nil)
			}

			svc := newUserService(repo)
			err := svc.ChangePassword(context.Background(), 1, &tt.request)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				repo.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
				repo.users.AssertExpectations(t)
			}
		})
	}
}

func TestUserService_UpdateProfile_KeepsEmailAndRole(t *testing.T) {
	repo := newMockRepository()
	user := hashedUser(t, "hunter2secret")
	repo.users.On("GetByID", mock.Anything, uint(1)).Return(user, nil)
	repo.users.On("Update", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Name == "Dana Q." &&
			u.Email == "dana@example.edu" &&
			u.Role == models.RoleParticipant
	})).Return(nil)

	svc := newUserService(repo)
	updated, err := svc.UpdateProfile(context.Background(), 1, &UpdateProfileRequest{
		Name:           stringPtr("Dana Q."),
		UniversityName: stringPtr("State University"),
	})

	assert.NoError(t, err)
	assert.Equal(t, "Dana Q.", updated.Name)
	assert.Equal(t, "State University", *updated.UniversityName)
}

func TestUserService_Search_MapsFilters(t *testing.T) {
	repo := newMockRepository()
	repo.users.On("List", mock.Anything, mock.MatchedBy(func(f repositories.UserFilters) bool {
		return f.Query != nil && *f.Query == "dana" &&
			f.Role != nil && *f.Role == models.RoleParticipant &&
			f.Limit == 10 && f.Offset == 10
	})).Return([]*models.User{}, int64(0), nil)

	svc := newUserService(repo)
	result, err := svc.Search(context.Background(), &SearchUsersRequest{
		Pagination: Pagination{Page: 2, PageSize: 10},
		Query:      "dana",
		Role:       models.RoleParticipant,
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, result.Page)
	repo.users.AssertExpectations(t)
}
