package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/quizhub-api/internal/dto"
	"github.com/noah-isme/quizhub-api/internal/models"
	"github.com/noah-isme/quizhub-api/internal/repository"
)

const (
	defaultQuestionPageSize = 10
	maxQuestionPageSize     = 100
)

// QuestionService manages the question bank and user favorites.
type QuestionService interface {
	Create(ctx context.Context, actor Actor, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error)
	CreateBatch(ctx context.Context, actor Actor, payload dto.QuestionBatchRequest) (dto.QuestionBatchResult, error)
	Import(ctx context.Context, actor Actor, filename string, content []byte) (dto.QuestionBatchResult, error)
	Update(ctx context.Context, id uint, payload dto.QuestionUpdateRequest) (dto.QuestionResponse, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, actor Actor, req dto.QuestionListRequest) (dto.QuestionListResult, error)
	Solve(ctx context.Context, payload dto.QuestionSolveRequest) (dto.QuestionSolveResponse, error)
	ToggleFavorite(ctx context.Context, userID, questionID uint) (dto.FavoriteToggleResponse, error)
	ListFavorites(ctx context.Context, userID uint) ([]dto.QuestionResponse, error)
}

type questionService struct {
	repo      repository.QuestionRepository
	pool      QuestionPool
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewQuestionService constructs the question bank service.
func NewQuestionService(repo repository.QuestionRepository, pool QuestionPool, validate *validator.Validate, logger zerolog.Logger) QuestionService {
	return &questionService{
		repo:      repo,
		pool:      pool,
		validator: validate,
		logger:    logger.With().Str("component", "question_service").Logger(),
		now:       time.Now,
	}
}

func (s *questionService) Create(ctx context.Context, actor Actor, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	question := models.Question{
		Question:      strings.TrimSpace(payload.Question),
		Options:       trimAll(payload.Options),
		CorrectOption: payload.CorrectOption,
		Explanation:   strings.TrimSpace(payload.Explanation),
		Tags:          payload.Tags,
		Course:        normalizeCourse(payload.Course),
		AddedBy:       actor.ID,
	}
	if err := s.repo.Create(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.pool.Invalidate(ctx, question.Course)
	s.logger.Info().Uint("question_id", question.ID).Str("course", question.Course).Msg("question created")

	return dto.NewQuestionResponse(question, true), nil
}

func (s *questionService) CreateBatch(ctx context.Context, actor Actor, payload dto.QuestionBatchRequest) (dto.QuestionBatchResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionBatchResult{}, err
	}

	questions := make([]models.Question, 0, len(payload.Questions))
	courses := make(map[string]struct{})
	for _, entry := range payload.Questions {
		course := normalizeCourse(entry.Course)
		courses[course] = struct{}{}
		questions = append(questions, models.Question{
			Question:      strings.TrimSpace(entry.Question),
			Options:       trimAll(entry.Options),
			CorrectOption: entry.CorrectOption,
			Explanation:   strings.TrimSpace(entry.Explanation),
			Tags:          entry.Tags,
			Course:        course,
			AddedBy:       actor.ID,
		})
	}

	if err := s.repo.CreateBatch(ctx, questions); err != nil {
		return dto.QuestionBatchResult{}, err
	}

	invalidated := make([]string, 0, len(courses))
	for course := range courses {
		invalidated = append(invalidated, course)
	}
	s.pool.Invalidate(ctx, invalidated...)
	s.logger.Info().Int("count", len(questions)).Uint("added_by", actor.ID).Msg("question batch created")

	return dto.QuestionBatchResult{
		Inserted:  len(questions),
		Questions: dto.NewQuestionResponseSlice(questions, true),
	}, nil
}

func (s *questionService) Update(ctx context.Context, id uint, payload dto.QuestionUpdateRequest) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	question, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionResponse{}, ErrQuestionNotFound
		}
		return dto.QuestionResponse{}, err
	}

	previousCourse := question.Course
	if payload.Question != nil {
		question.Question = strings.TrimSpace(*payload.Question)
	}
	if payload.Options != nil {
		question.Options = trimAll(*payload.Options)
	}
	if payload.CorrectOption != nil {
		question.CorrectOption = *payload.CorrectOption
	}
	if payload.Explanation != nil {
		question.Explanation = strings.TrimSpace(*payload.Explanation)
	}
	if payload.Tags != nil {
		question.Tags = *payload.Tags
	}
	if payload.Course != nil {
		question.Course = normalizeCourse(*payload.Course)
	}

	if err := validateQuestionRecord(question); err != nil {
		return dto.QuestionResponse{}, err
	}

	if err := s.repo.Update(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.pool.Invalidate(ctx, previousCourse, question.Course)
	return dto.NewQuestionResponse(question, true), nil
}

func (s *questionService) Delete(ctx context.Context, id uint) error {
	question, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuestionNotFound
		}
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuestionNotFound
		}
		return err
	}

	s.pool.Invalidate(ctx, question.Course)
	s.logger.Info().Uint("question_id", id).Msg("question deleted")
	return nil
}

func (s *questionService) List(ctx context.Context, actor Actor, req dto.QuestionListRequest) (dto.QuestionListResult, error) {
	page := req.Page
	if page <= 0 {
		page = 1
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultQuestionPageSize
	}
	if limit > maxQuestionPageSize {
		limit = maxQuestionPageSize
	}

	records, total, err := s.repo.List(ctx, repository.QuestionFilter{
		Search:   strings.TrimSpace(req.Search),
		Tags:     req.Tags,
		Course:   normalizeCourse(req.Course),
		Page:     page,
		PageSize: limit,
	})
	if err != nil {
		return dto.QuestionListResult{}, err
	}

	return dto.QuestionListResult{
		Questions:      dto.NewQuestionResponseSlice(records, actor.IsAdmin()),
		TotalQuestions: total,
		TotalPages:     calculateTotalPages(total, limit),
		CurrentPage:    page,
	}, nil
}

func (s *questionService) Solve(ctx context.Context, payload dto.QuestionSolveRequest) (dto.QuestionSolveResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionSolveResponse{}, err
	}

	question, err := s.repo.GetByID(ctx, payload.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionSolveResponse{}, ErrQuestionNotFound
		}
		return dto.QuestionSolveResponse{}, err
	}

	return dto.QuestionSolveResponse{
		QuestionID:    question.ID,
		IsCorrect:     question.IsCorrect(payload.Answer),
		CorrectOption: question.CorrectOption,
		Explanation:   question.Explanation,
	}, nil
}

func (s *questionService) ToggleFavorite(ctx context.Context, userID, questionID uint) (dto.FavoriteToggleResponse, error) {
	if _, err := s.repo.GetByID(ctx, questionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FavoriteToggleResponse{}, ErrQuestionNotFound
		}
		return dto.FavoriteToggleResponse{}, err
	}

	favorited, err := s.repo.IsFavorite(ctx, userID, questionID)
	if err != nil {
		return dto.FavoriteToggleResponse{}, err
	}

	if favorited {
		if err := s.repo.RemoveFavorite(ctx, userID, questionID); err != nil {
			return dto.FavoriteToggleResponse{}, err
		}
	} else {
		if err := s.repo.AddFavorite(ctx, userID, questionID); err != nil {
			return dto.FavoriteToggleResponse{}, err
		}
	}

	return dto.FavoriteToggleResponse{QuestionID: questionID, IsFavorited: !favorited}, nil
}

func (s *questionService) ListFavorites(ctx context.Context, userID uint) ([]dto.QuestionResponse, error) {
	questions, err := s.repo.ListFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewQuestionResponseSlice(questions, true), nil
}

func validateQuestionRecord(question models.Question) error {
	if strings.TrimSpace(question.Question) == "" {
		return validationErrorf("question is required")
	}
	if len(question.Options) != models.QuestionOptionCount {
		return validationErrorf("options must contain exactly %d items", models.QuestionOptionCount)
	}
	for _, option := range question.Options {
		if option == "" {
			return validationErrorf("options must not contain empty values")
		}
	}
	if question.CorrectOption < 1 || question.CorrectOption > models.QuestionOptionCount {
		return validationErrorf("correctOption must be between 1 and %d", models.QuestionOptionCount)
	}
	if question.Course == "" {
		return validationErrorf("course is required")
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, strings.TrimSpace(value))
	}
	return out
}

func calculateTotalPages(total int64, pageSize int) int {
	if pageSize <= 0 || total == 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
