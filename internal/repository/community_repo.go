package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/quizhub-api/internal/models"
)

// CommunitySummary is a community row enriched with its creator name and member count.
type CommunitySummary struct {
	ID          uint
	Name        string
	Description string
	CreatedBy   uint
	CreatorName string
	MemberCount int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CommunityMemberProfile describes a member together with the user fields shown to admins.
type CommunityMemberProfile struct {
	CommunityID uint
	UserID      uint
	Fullname    string
	Username    string
	JoinedAt    time.Time
}

// CommunityRepository persists communities and their member sets.
type CommunityRepository interface {
	Create(ctx context.Context, community *models.Community) error
	GetByID(ctx context.Context, id uint) (models.Community, error)
	NameTaken(ctx context.Context, name string, excludeID uint) (bool, error)
	ListSummaries(ctx context.Context) ([]CommunitySummary, error)
	MemberCommunityIDs(ctx context.Context, userID uint) ([]uint, error)
	ListMembers(ctx context.Context, communityIDs []uint) ([]CommunityMemberProfile, error)
	IsMember(ctx context.Context, communityID, userID uint) (bool, error)
	AddMember(ctx context.Context, member *models.CommunityMember) error
	RemoveMember(ctx context.Context, communityID, userID uint) error
	Update(ctx context.Context, community *models.Community) error
	Delete(ctx context.Context, id uint) error
}

type communityRepository struct {
	db *gorm.DB
}

// NewCommunityRepository constructs a community repository.
func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

func (r *communityRepository) Create(ctx context.Context, community *models.Community) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(community).Error
}

func (r *communityRepository) GetByID(ctx context.Context, id uint) (models.Community, error) {
	var community models.Community
	if err := r.db.WithContext(ctx).First(&community, id).Error; err != nil {
		return models.Community{}, err
	}
	return community, nil
}

func (r *communityRepository) NameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Community{}).
		Where("LOWER(name) = ? AND id <> ?", strings.ToLower(strings.TrimSpace(name)), excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *communityRepository) ListSummaries(ctx context.Context) ([]CommunitySummary, error) {
	var rows []CommunitySummary
	err := r.db.WithContext(ctx).
		Table("communities").
		Select(`communities.id, communities.name, communities.description, communities.created_by,
			communities.created_at, communities.updated_at,
			COALESCE(users.fullname, '') AS creator_name,
			(SELECT COUNT(*) FROM community_members WHERE community_members.community_id = communities.id) AS member_count`).
		Joins("LEFT JOIN users ON users.id = communities.created_by").
		Order("communities.created_at DESC").
		Order("communities.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *communityRepository) MemberCommunityIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.CommunityMember{}).
		Where("user_id = ?", userID).
		Pluck("community_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *communityRepository) ListMembers(ctx context.Context, communityIDs []uint) ([]CommunityMemberProfile, error) {
	if len(communityIDs) == 0 {
		return []CommunityMemberProfile{}, nil
	}
	var rows []CommunityMemberProfile
	err := r.db.WithContext(ctx).
		Table("community_members").
		Select("community_members.community_id, community_members.user_id, users.fullname, users.username, community_members.joined_at").
		Joins("JOIN users ON users.id = community_members.user_id").
		Where("community_members.community_id IN ?", communityIDs).
		Order("community_members.joined_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *communityRepository) IsMember(ctx context.Context, communityID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CommunityMember{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *communityRepository) AddMember(ctx context.Context, member *models.CommunityMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *communityRepository) RemoveMember(ctx context.Context, communityID, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&models.CommunityMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *communityRepository) Update(ctx context.Context, community *models.Community) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(community).Error
}

// Delete drops the community and its memberships; chat history stays in place.
func (r *communityRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("community_id = ?", id).Delete(&models.CommunityMember{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Community{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
