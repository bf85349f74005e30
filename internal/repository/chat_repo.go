package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/quizhub-api/internal/models"
)

// ChatRepository persists community chat messages.
type ChatRepository interface {
	Save(ctx context.Context, message *models.ChatMessage) error
	ListByCommunity(ctx context.Context, communityID uint, before time.Time, limit int) ([]models.ChatMessage, error)
	CountByCommunity(ctx context.Context, communityID uint) (int64, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository constructs a chat repository backed by GORM.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Save(ctx context.Context, message *models.ChatMessage) error {
	return r.db.WithContext(ctx).Omit("Sender").Create(message).Error
}

// ListByCommunity returns the latest page of messages before the cursor in ascending order.
func (r *chatRepository) ListByCommunity(ctx context.Context, communityID uint, before time.Time, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := r.db.WithContext(ctx).Preload("Sender").Where("community_id = ?", communityID)
	if !before.IsZero() {
		query = query.Where("created_at < ?", before)
	}

	var messages []models.ChatMessage
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *chatRepository) CountByCommunity(ctx context.Context, communityID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ChatMessage{}).Where("community_id = ?", communityID).Count(&count).Error
	return count, err
}
