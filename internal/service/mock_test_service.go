package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/quizhub-api/internal/config"
	"github.com/noah-isme/quizhub-api/internal/dto"
	"github.com/noah-isme/quizhub-api/internal/models"
	"github.com/noah-isme/quizhub-api/internal/observability"
	"github.com/noah-isme/quizhub-api/internal/repository"
)

// MockTestService manages the mock test lifecycle: sampling, scoring and review.
type MockTestService interface {
	Start(ctx context.Context, userID uint, course string) (dto.MockTestStartResponse, error)
	Submit(ctx context.Context, userID uint, payload dto.MockTestSubmitRequest) (dto.MockTestResult, error)
	History(ctx context.Context, userID uint) ([]dto.MockTestHistoryEntry, error)
	Detail(ctx context.Context, actor Actor, sessionID uint) (dto.MockTestDetail, error)
}

type mockTestService struct {
	sessions  repository.MockTestRepository
	questions repository.QuestionRepository
	pool      QuestionPool
	sizes     config.MockTestConfig
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewMockTestService constructs the mock test service.
func NewMockTestService(
	sessions repository.MockTestRepository,
	questions repository.QuestionRepository,
	pool QuestionPool,
	sizes config.MockTestConfig,
	validate *validator.Validate,
	logger zerolog.Logger,
) MockTestService {
	return &mockTestService{
		sessions:  sessions,
		questions: questions,
		pool:      pool,
		sizes:     sizes,
		validator: validate,
		logger:    logger.With().Str("component", "mock_test_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/quizhub-api/internal/service/mocktest"),
		now:       time.Now,
	}
}

func (s *mockTestService) Start(ctx context.Context, userID uint, course string) (dto.MockTestStartResponse, error) {
	course = normalizeCourse(course)
	if course == "" {
		return dto.MockTestStartResponse{}, ErrCourseRequired
	}

	size := s.sizes.SizeFor(course)
	ctx, span := s.tracer.Start(ctx, "mocktest.start", trace.WithAttributes(
		attribute.String("mocktest.course", course),
		attribute.Int("mocktest.size", size),
	))
	defer span.End()

	ids, err := s.pool.Sample(ctx, course, size)
	if err != nil {
		span.RecordError(err)
		return dto.MockTestStartResponse{}, err
	}

	questions, err := s.loadInOrder(ctx, ids)
	if err != nil {
		span.RecordError(err)
		return dto.MockTestStartResponse{}, err
	}
	if len(questions) == 0 {
		return dto.MockTestStartResponse{}, ErrNoQuestionsForCourse
	}

	questionIDs := make([]uint, 0, len(questions))
	presented := make([]dto.MockTestQuestion, 0, len(questions))
	for _, question := range questions {
		questionIDs = append(questionIDs, question.ID)
		presented = append(presented, dto.MockTestQuestion{
			ID:       question.ID,
			Question: question.Question,
			Options:  append([]string(nil), question.Options...),
			Tags:     append([]string{}, question.Tags...),
			Course:   question.Course,
		})
	}

	session := models.MockTestSession{
		UserID:      userID,
		Course:      course,
		QuestionIDs: questionIDs,
		StartTime:   s.now().UTC(),
	}
	if err := s.sessions.Create(ctx, &session); err != nil {
		span.RecordError(err)
		return dto.MockTestStartResponse{}, err
	}

	observability.MockTestsStarted().WithLabelValues(course).Inc()
	s.logger.Info().
		Uint("user_id", userID).
		Uint("session_id", session.ID).
		Str("course", course).
		Int("questions", len(questionIDs)).
		Msg("mock test started")

	return dto.MockTestStartResponse{
		SessionID: session.ID,
		Course:    course,
		StartTime: session.StartTime,
		Questions: presented,
	}, nil
}

func (s *mockTestService) Submit(ctx context.Context, userID uint, payload dto.MockTestSubmitRequest) (dto.MockTestResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.MockTestResult{}, err
	}

	ctx, span := s.tracer.Start(ctx, "mocktest.submit", trace.WithAttributes(
		attribute.String("mocktest.session_id", strconv.FormatUint(uint64(payload.SessionID), 10)),
	))
	defer span.End()

	session, err := s.ownedSession(ctx, userID, payload.SessionID)
	if err != nil {
		return dto.MockTestResult{}, err
	}

	byID, err := s.questionsByID(ctx, session.QuestionIDs)
	if err != nil {
		span.RecordError(err)
		return dto.MockTestResult{}, err
	}

	scored := ScoreSession(session.QuestionIDs, byID, payload.Answers)
	if err := s.sessions.SaveResult(ctx, session.ID, s.now().UTC(), scored.Score, payload.Answers); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MockTestResult{}, ErrSessionNotFound
		}
		span.RecordError(err)
		return dto.MockTestResult{}, err
	}

	percentage := FormatPercentage(scored.Score, scored.Total)
	observability.MockTestsSubmitted().WithLabelValues(session.Course).Inc()
	if scored.Total > 0 {
		observability.MockTestScorePercent().WithLabelValues(session.Course).Observe(float64(scored.Score) / float64(scored.Total) * 100)
	}
	span.SetAttributes(attribute.Int("mocktest.score", scored.Score), attribute.Int("mocktest.total", scored.Total))

	return dto.MockTestResult{
		SessionID:   session.ID,
		Score:       scored.Score,
		Total:       scored.Total,
		Percentage:  percentage,
		Corrections: scored.Corrections,
	}, nil
}

func (s *mockTestService) History(ctx context.Context, userID uint) ([]dto.MockTestHistoryEntry, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, ErrNoMockTestHistory
	}

	unique := make([]uint, 0)
	seen := make(map[uint]struct{})
	for _, session := range sessions {
		for _, id := range session.QuestionIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}

	byID, err := s.questionsByID(ctx, unique)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.MockTestHistoryEntry, 0, len(sessions))
	for _, session := range sessions {
		questions := make([]dto.MockTestHistoryQuestion, 0, len(session.QuestionIDs))
		for _, id := range session.QuestionIDs {
			question, ok := byID[id]
			if !ok {
				questions = append(questions, dto.MockTestHistoryQuestion{QuestionID: id, Options: []string{}, Missing: true})
				continue
			}
			questions = append(questions, dto.MockTestHistoryQuestion{
				QuestionID:  id,
				Question:    question.Question,
				Options:     append([]string(nil), question.Options...),
				Explanation: question.Explanation,
			})
		}

		entries = append(entries, dto.MockTestHistoryEntry{
			SessionID:      session.ID,
			Course:         session.Course,
			Score:          session.Score,
			TotalQuestions: session.Total(),
			Percentage:     FormatPercentage(session.Score, session.Total()),
			StartTime:      session.StartTime,
			EndTime:        session.EndTime,
			Submitted:      session.Submitted(),
			Questions:      questions,
		})
	}

	return entries, nil
}

func (s *mockTestService) Detail(ctx context.Context, actor Actor, sessionID uint) (dto.MockTestDetail, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MockTestDetail{}, ErrSessionNotFound
		}
		return dto.MockTestDetail{}, err
	}
	if session.UserID != actor.ID && !actor.IsAdmin() {
		return dto.MockTestDetail{}, ErrSessionNotFound
	}

	byID, err := s.questionsByID(ctx, session.QuestionIDs)
	if err != nil {
		return dto.MockTestDetail{}, err
	}

	scored := ScoreSession(session.QuestionIDs, byID, session.Answers)

	return dto.MockTestDetail{
		SessionID:   session.ID,
		UserID:      session.UserID,
		Course:      session.Course,
		Score:       session.Score,
		Total:       session.Total(),
		Percentage:  FormatPercentage(session.Score, session.Total()),
		StartTime:   session.StartTime,
		EndTime:     session.EndTime,
		Submitted:   session.Submitted(),
		Corrections: scored.Corrections,
	}, nil
}

// ownedSession hides sessions of other users behind the same not-found error.
func (s *mockTestService) ownedSession(ctx context.Context, userID, sessionID uint) (models.MockTestSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.MockTestSession{}, ErrSessionNotFound
		}
		return models.MockTestSession{}, err
	}
	if session.UserID != userID {
		return models.MockTestSession{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *mockTestService) questionsByID(ctx context.Context, ids []uint) (map[uint]models.Question, error) {
	questions, err := s.questions.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Question, len(questions))
	for _, question := range questions {
		byID[question.ID] = question
	}
	return byID, nil
}

// loadInOrder resolves ids while keeping the sampled order; ids deleted in between are dropped.
func (s *mockTestService) loadInOrder(ctx context.Context, ids []uint) ([]models.Question, error) {
	byID, err := s.questionsByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	ordered := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		if question, ok := byID[id]; ok {
			ordered = append(ordered, question)
		}
	}
	return ordered, nil
}
