package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/quizhub-api/internal/models"
)

// QuestionFilter narrows question bank queries.
type QuestionFilter struct {
	Search   string
	Tags     []string
	Course   string
	Page     int
	PageSize int
}

// QuestionRepository persists the question bank and per-user favorites.
type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	CreateBatch(ctx context.Context, questions []models.Question) error
	GetByID(ctx context.Context, id uint) (models.Question, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter QuestionFilter) ([]models.Question, int64, error)
	IDsByCourse(ctx context.Context, course string) ([]uint, error)
	SampleByCourse(ctx context.Context, course string, size int) ([]models.Question, error)
	IsFavorite(ctx context.Context, userID, questionID uint) (bool, error)
	AddFavorite(ctx context.Context, userID, questionID uint) error
	RemoveFavorite(ctx context.Context, userID, questionID uint) error
	ListFavorites(ctx context.Context, userID uint) ([]models.Question, error)
}

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository constructs a question repository.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

// CreateBatch inserts every question or none of them.
func (r *questionRepository) CreateBatch(ctx context.Context, questions []models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&questions, 100).Error
	})
}

func (r *questionRepository) GetByID(ctx context.Context, id uint) (models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return models.Question{}, err
	}
	return question, nil
}

func (r *questionRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Question, error) {
	if len(ids) == 0 {
		return []models.Question{}, nil
	}
	var questions []models.Question
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepository) Update(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Save(question).Error
}

func (r *questionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Question{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("question_id = ?", id).Delete(&models.FavoriteQuestion{}).Error
	})
}

func (r *questionRepository) List(ctx context.Context, filter QuestionFilter) ([]models.Question, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Question{})
	query = r.applyFilters(query, filter)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var questions []models.Question
	err := applyPagination(query, filter.Page, filter.PageSize).
		Order("created_at DESC").
		Order("id DESC").
		Find(&questions).Error
	if err != nil {
		return nil, 0, err
	}
	return questions, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching value literally; pair it with ESCAPE '\'.
func containsPattern(prefix, value, suffix string) string {
	return "%" + prefix + likeEscaper.Replace(value) + suffix + "%"
}

func (r *questionRepository) applyFilters(query *gorm.DB, filter QuestionFilter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where(`LOWER(question) LIKE ? ESCAPE '\'`, containsPattern("", strings.ToLower(search), ""))
	}

	if course := strings.TrimSpace(filter.Course); course != "" {
		query = query.Where("course = ?", course)
	}

	var anyTag *gorm.DB
	for _, tag := range filter.Tags {
		tag = models.NormalizeTag(tag)
		if tag == "" {
			continue
		}
		if anyTag == nil {
			anyTag = r.db.Where(`tags LIKE ? ESCAPE '\'`, containsPattern("|", tag, "|"))
			continue
		}
		anyTag = anyTag.Or(`tags LIKE ? ESCAPE '\'`, containsPattern("|", tag, "|"))
	}
	if anyTag != nil {
		query = query.Where(anyTag)
	}

	return query
}

func (r *questionRepository) IDsByCourse(ctx context.Context, course string) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Question{}).Where("course = ?", course).Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// SampleByCourse draws up to size distinct questions in random order.
func (r *questionRepository) SampleByCourse(ctx context.Context, course string, size int) ([]models.Question, error) {
	if size <= 0 {
		return []models.Question{}, nil
	}
	var questions []models.Question
	err := r.db.WithContext(ctx).
		Where("course = ?", course).
		Order(clause.Expr{SQL: "RANDOM()"}).
		Limit(size).
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepository) IsFavorite(ctx context.Context, userID, questionID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.FavoriteQuestion{}).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Count(&count).Error
	return count > 0, err
}

func (r *questionRepository) AddFavorite(ctx context.Context, userID, questionID uint) error {
	favorite := models.FavoriteQuestion{UserID: userID, QuestionID: questionID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&favorite).Error
}

func (r *questionRepository) RemoveFavorite(ctx context.Context, userID, questionID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Delete(&models.FavoriteQuestion{}).Error
}

func (r *questionRepository) ListFavorites(ctx context.Context, userID uint) ([]models.Question, error) {
	var questions []models.Question
	err := r.db.WithContext(ctx).
		Joins("JOIN favorite_questions ON favorite_questions.question_id = questions.id").
		Where("favorite_questions.user_id = ?", userID).
		Order("favorite_questions.created_at DESC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if pageSize <= 0 {
		return query
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize
	return query.Offset(offset).Limit(pageSize)
}
