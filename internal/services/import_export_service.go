package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/campusexam/exam-portal/internal/models"
	"github.com/campusexam/exam-portal/internal/repositories"
)

// ImportExportService moves questions between a set and xlsx workbooks.
type ImportExportService interface {
	ImportQuestions(ctx context.Context, setID, userID uint, reader io.Reader) (*ImportResult, error)
	ExportQuestions(ctx context.Context, setID, userID uint) ([]byte, error)
}

// ===== DTOs =====

type ImportResult struct {
	TotalRows     int               `json:"total_rows"`
	ImportedCount int               `json:"imported_count"`
	ErrorCount    int               `json:"error_count"`
	Errors        []ImportRowError  `json:"errors,omitempty"`
	Questions     []*models.Question `json:"questions,omitempty"`
}

type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
}

var exportHeaders = []string{
	"Text", "Type", "Subject", "Difficulty",
	"Option A", "Option B", "Option C", "Option D",
	"Correct Answer", "Points", "Explanation",
}

var optionColumns = []string{"option a", "option b", "option c", "option d"}

// ===== SERVICE =====

type importExportService struct {
	repo   repositories.Repository
	logger *slog.Logger
	bank   QuestionBankService
}

func NewImportExportService(repo repositories.Repository, logger *slog.Logger, bank QuestionBankService) ImportExportService {
	return &importExportService{
		repo:   repo,
		logger: logger,
		bank:   bank,
	}
}

// ImportQuestions reads the first sheet of an xlsx workbook into the set.
// Rows that fail to parse are reported individually; the remaining rows are
// created in one batch through the question bank, which enforces ownership
// and per-question validation.
func (s *importExportService) ImportQuestions(ctx context.Context, setID, userID uint, reader io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "workbook has no sheets", nil)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, NewValidationError("file", "workbook needs a header row and at least one data row", len(rows))
	}

	headerMap := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range []string{"text", "type"} {
		if _, ok := headerMap[col]; !ok {
			return nil, NewValidationError("headers", fmt.Sprintf("missing required column: %s", col), col)
		}
	}

	result := &ImportResult{TotalRows: len(rows) - 1}
	requests := make([]CreateQuestionRequest, 0, result.TotalRows)
	for i, row := range rows[1:] {
		req, rowErrs := parseQuestionRow(row, headerMap, i+2)
		if len(rowErrs) > 0 {
			result.Errors = append(result.Errors, rowErrs...)
			result.ErrorCount++
			continue
		}
		requests = append(requests, *req)
	}

	if len(requests) > 0 {
		questions, err := s.bank.CreateQuestions(ctx, setID, userID, requests)
		if err != nil {
			return nil, err
		}
		result.Questions = questions
		result.ImportedCount = len(questions)
	}

	s.logger.Info("Question import completed",
		"set_id", setID,
		"total_rows", result.TotalRows,
		"imported", result.ImportedCount,
		"errors", result.ErrorCount)

	return result, nil
}

func (s *importExportService) ExportQuestions(ctx context.Context, setID, userID uint) ([]byte, error) {
	owner, err := s.repo.QuestionSets().IsOwner(ctx, setID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check set ownership: %w", err)
	}
	if !owner {
		if _, err := s.repo.QuestionSets().GetByID(ctx, setID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrQuestionSetNotFound
			}
			return nil, fmt.Errorf("failed to get question set: %w", err)
		}
		return nil, NewPermissionError(userID, setID, "question_set", "export", "not the set owner")
	}

	questions, err := s.repo.Questions().GetBySet(ctx, setID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	sheetName := "Questions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for i, header := range exportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}
	for rowIndex, q := range questions {
		for colIndex, value := range questionToRow(q) {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Question export completed", "set_id", setID, "count", len(questions))
	return buf.Bytes(), nil
}

// ===== HELPERS =====

func parseQuestionRow(row []string, headerMap map[string]int, rowNum int) (*CreateQuestionRequest, []ImportRowError) {
	var errs []ImportRowError

	getColumn := func(name string) string {
		if index, ok := headerMap[name]; ok && index < len(row) {
			return strings.TrimSpace(row[index])
		}
		return ""
	}

	text := getColumn("text")
	if text == "" {
		errs = append(errs, ImportRowError{Row: rowNum, Column: "text", Message: "required field"})
	}

	var qType models.QuestionType
	switch strings.ToUpper(getColumn("type")) {
	case string(models.MultipleChoice):
		qType = models.MultipleChoice
	case string(models.Essay):
		qType = models.Essay
	default:
		errs = append(errs, ImportRowError{Row: rowNum, Column: "type", Message: "must be MULTIPLE_CHOICE or ESSAY"})
	}
	if len(errs) > 0 {
		return nil, errs
	}

	difficulty := models.DifficultyMedium
	switch strings.ToUpper(getColumn("difficulty")) {
	case string(models.DifficultyEasy):
		difficulty = models.DifficultyEasy
	case string(models.DifficultyHard):
		difficulty = models.DifficultyHard
	}

	points := 1
	if p, err := strconv.Atoi(getColumn("points")); err == nil && p > 0 {
		points = p
	}

	req := &CreateQuestionRequest{
		Text:       text,
		Type:       qType,
		Subject:    getColumn("subject"),
		Difficulty: difficulty,
		Points:     points,
	}
	if explanation := getColumn("explanation"); explanation != "" {
		req.Explanation = &explanation
	}

	if qType == models.MultipleChoice {
		options := make(map[string]interface{})
		for i, col := range optionColumns {
			if optionText := getColumn(col); optionText != "" {
				options[string(rune('A'+i))] = optionText
			}
		}
		if len(options) < 2 {
			errs = append(errs, ImportRowError{Row: rowNum, Column: "options", Message: "must have at least 2 options"})
			return nil, errs
		}
		req.Options = options

		correct := strings.ToUpper(getColumn("correct answer"))
		if _, ok := options[correct]; !ok {
			errs = append(errs, ImportRowError{Row: rowNum, Column: "correct answer", Message: "must name a filled option (A-D)"})
			return nil, errs
		}
		req.CorrectAnswer = correct
	}

	return req, nil
}

func questionToRow(q *models.Question) []interface{} {
	row := make([]interface{}, len(exportHeaders))
	row[0] = q.Text
	row[1] = string(q.Type)
	row[2] = q.Subject
	row[3] = string(q.Difficulty)
	for i := 0; i < 4; i++ {
		key := string(rune('A' + i))
		if text, ok := q.Options[key]; ok {
			row[4+i] = text
		} else {
			row[4+i] = ""
		}
	}
	row[8] = q.CorrectAnswer
	row[9] = q.Points
	if q.Explanation != nil {
		row[10] = *q.Explanation
	} else {
		row[10] = ""
	}
	return row
}
