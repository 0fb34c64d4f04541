package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"

	"github.com/campusexam/exam-portal/internal/models"
	"github.com/campusexam/exam-portal/internal/utils"
)

func newQuestionBankService(repo *MockRepository) QuestionBankService {
	return NewQuestionBankService(repo, testLogger(), utils.NewValidator())
}

func TestQuestionBankService_CreateQuestionSet(t *testing.T) {
	repo := newMockRepository()
	repo.questionSets.On("Create", mock.Anything, mock.MatchedBy(func(set *models.QuestionSet) bool {
		return set.Title == "Algebra I" && set.CreatedByID == 1
	})).Return(nil)

	svc := newQuestionBankService(repo)
	set, err := svc.CreateQuestionSet(context.Background(), 1, &CreateQuestionSetRequest{
		Title:       "Algebra I",
		Description: stringPtr("First-semester algebra"),
		Subject:     "Math",
	})

	assert.NoError(t, err)
	assert.Equal(t, uint(1), set.CreatedByID)
	repo.questionSets.AssertExpectations(t)
}

func TestQuestionBankService_CreateQuestionSet_Invalid(t *testing.T) {
	svc := newQuestionBankService(newMockRepository())

	_, err := svc.CreateQuestionSet(context.Background(), 1, &CreateQuestionSetRequest{
		Title: "", Subject: "Math",
	})

	assert.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestQuestionBankService_DeleteQuestionSet_InUseConflicts(t *testing.T) {
	repo := newMockRepository()
	repo.questionSets.On("IsOwner", mock.Anything, uint(10), uint(1)).Return(true, nil)
	repo.questionSets.On("InUseByTest", mock.Anything, uint(10)).Return(true, nil)

	svc := newQuestionBankService(repo)
	err := svc.DeleteQuestionSet(context.Background(), 10, 1)

	assert.ErrorIs(t, err, ErrQuestionSetInUse)
	assert.True(t, IsConflict(err))
	repo.questionSets.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestQuestionBankService_DeleteQuestionSet_OwnerOnly(t *testing.T) {
	repo := newMockRepository()
	repo.questionSets.On("IsOwner", mock.Anything, uint(10), uint(2)).Return(false, nil)
	repo.questionSets.On("GetByID", mock.Anything, uint(10)).
		Return(&models.QuestionSet{ID: 10, CreatedByID: 1}, nil)

	svc := newQuestionBankService(repo)
	err := svc.DeleteQuestionSet(context.Background(), 10, 2)

	assert.True(t, IsUnauthorized(err))
	repo.questionSets.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestQuestionBankService_DeleteQuestionSet_Unreferenced(t *testing.T) {
	repo := newMockRepository()
	repo.questionSets.On("IsOwner", mock.Anything, uint(10), uint(1)).Return(true, nil)
	repo.questionSets.On("InUseByTest", mock.Anything, uint(10)).Return(false, nil)
	repo.questionSets.On("Delete", mock.Anything, uint(10)).Return(nil)

	svc := newQuestionBankService(repo)
	err := svc.DeleteQuestionSet(context.Background(), 10, 1)

	assert.NoError(t, err)
	repo.questionSets.AssertExpectations(t)
}

func TestQuestionBankService_CreateQuestion_Validation(t *testing.T) {
	tests := []struct {
		name    string
		request CreateQuestionRequest
		wantErr bool
	}{
		{
			name: "valid multiple choice",
			request: CreateQuestionRequest{
				Text: "2+2?", Type: models.MultipleChoice, Subject: "Math",
				Difficulty: models.DifficultyEasy,
				Options:    map[string]interface{}{"A": "3", "B": "4"},
				CorrectAnswer: "B",
			},
			wantErr: false,
		},
		{
			name: "correct answer not an option key",
			request: CreateQuestionRequest{
				Text: "2+2?", Type: models.MultipleChoice, Subject: "Math",
				Difficulty: models.DifficultyEasy,
				Options:    map[string]interface{}{"A": "3", "B": "4"},
				CorrectAnswer: "C",
			},
			wantErr: true,
		},
		{
			name: "multiple choice with one option",
			request: CreateQuestionRequest{
				Text: "2+2?", Type: models.MultipleChoice, Subject: "Math",
				Difficulty: models.DifficultyEasy,
				Options:    map[string]interface{}{"A": "4"},
				CorrectAnswer: "A",
			},
			wantErr: true,
		},
		{
			name: "essay with options",
			request: CreateQuestionRequest{
				Text: "Discuss.", Type: models.Essay, Subject: "History",
				Difficulty: models.DifficultyHard,
				Options:    map[string]interface{}{"A": "no"},
			},
			wantErr: true,
		},
		{
			name: "valid essay",
			request: CreateQuestionRequest{
				Text: "Discuss.", Type: models.Essay, Subject: "History",
				Difficulty: models.DifficultyHard,
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			repo.questionSets.On("IsOwner", mock.Anything, uint(10), uint(1)).Return(true, nil)
			if !tt.wantErr {
				repo.questions.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
			}

			svc := newQuestionBankService(repo)
			_, err := svc.CreateQuestion(context.Background(), 10, 1, &tt.request)

			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, IsValidation(err))
				repo.questions.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuestionBankService_ListQuestions_ParticipantSanitized(t *testing.T) {
	repo := newMockRepository()
	questions := []*models.Question{
		{ID: 1, Text: "Q1", Type: models.MultipleChoice, CorrectAnswer: "A",
			Explanation: stringPtr("because"),
			Options:     datatypes.JSONMap{"A": "a", "B": "b"}},
	}
	repo.questions.On("ListAttemptedBy", mock.Anything, uint(3), mock.Anything).
		Return(questions, int64(1), nil)

	svc := newQuestionBankService(repo)
	result, err := svc.ListQuestions(context.Background(), 3, false, &ListQuestionsRequest{})

	assert.NoError(t, err)
	assert.Len(t, result.Rows, 1)
	assert.Empty(t, result.Rows[0].CorrectAnswer)
	assert.Nil(t, result.Rows[0].Explanation)
	repo.questions.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestQuestionBankService_ListQuestions_AdminSeesAnswers(t *testing.T) {
	repo := newMockRepository()
	questions := []*models.Question{
		{ID: 1, Text: "Q1", Type: models.MultipleChoice, CorrectAnswer: "A",
			Options: datatypes.JSONMap{"A": "a", "B": "b"}},
	}
	repo.questions.On("List", mock.Anything, mock.Anything).Return(questions, int64(1), nil)

	svc := newQuestionBankService(repo)
	result, err := svc.ListQuestions(context.Background(), 1, true, &ListQuestionsRequest{})

	assert.NoError(t, err)
	assert.Equal(t, "A", result.Rows[0].CorrectAnswer)
	assert.Equal(t, 1, result.TotalPages)
}

func TestQuestionBankService_GetQuestionSet_ParticipantVisibility(t *testing.T) {
	repo := newMockRepository()
	set := &models.QuestionSet{ID: 10, Title: "Algebra", CreatedByID: 1}
	repo.questionSets.On("GetByIDWithQuestions", mock.Anything, uint(10)).Return(set, nil)
	repo.questionSets.On("HasAttempted", mock.Anything, uint(10), uint(3)).Return(false, nil)

	svc := newQuestionBankService(repo)
	_, err := svc.GetQuestionSet(context.Background(), 10, 3, false)

	assert.True(t, IsUnauthorized(err))
}
