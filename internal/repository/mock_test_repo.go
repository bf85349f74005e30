package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/quizhub-api/internal/models"
)

// MockTestRepository persists mock test sessions.
type MockTestRepository interface {
	Create(ctx context.Context, session *models.MockTestSession) error
	GetByID(ctx context.Context, id uint) (models.MockTestSession, error)
	SaveResult(ctx context.Context, id uint, endTime time.Time, score int, answers []*int) error
	ListByUser(ctx context.Context, userID uint) ([]models.MockTestSession, error)
}

type mockTestRepository struct {
	db *gorm.DB
}

// NewMockTestRepository constructs a mock test session repository.
func NewMockTestRepository(db *gorm.DB) MockTestRepository {
	return &mockTestRepository{db: db}
}

func (r *mockTestRepository) Create(ctx context.Context, session *models.MockTestSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *mockTestRepository) GetByID(ctx context.Context, id uint) (models.MockTestSession, error) {
	var session models.MockTestSession
	if err := r.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return models.MockTestSession{}, err
	}
	return session, nil
}

// SaveResult writes the scoring outcome in a single update; the question list is never touched.
func (r *mockTestRepository) SaveResult(ctx context.Context, id uint, endTime time.Time, score int, answers []*int) error {
	result := r.db.WithContext(ctx).Model(&models.MockTestSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"end_time": endTime,
			"score":    score,
			"answers":  datatypes.JSONSlice[*int](answers),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *mockTestRepository) ListByUser(ctx context.Context, userID uint) ([]models.MockTestSession, error) {
	var sessions []models.MockTestSession
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_time DESC").
		Order("id DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
