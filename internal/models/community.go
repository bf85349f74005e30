package models

import "time"

// Community groups users around a course or topic with a shared chat.
type Community struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	Name        string            `gorm:"size:128;uniqueIndex;not null" json:"name"`
	Description string            `gorm:"type:text;not null" json:"description"`
	CreatedBy   uint              `gorm:"index;not null" json:"createdBy"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	Creator     User              `gorm:"foreignKey:CreatedBy" json:"-"`
	Members     []CommunityMember `gorm:"foreignKey:CommunityID" json:"-"`
}

// CommunityMember records that a user joined a community.
type CommunityMember struct {
	CommunityID uint      `gorm:"primaryKey;autoIncrement:false" json:"communityId"`
	UserID      uint      `gorm:"primaryKey;autoIncrement:false;index" json:"userId"`
	JoinedAt    time.Time `gorm:"autoCreateTime" json:"joinedAt"`
}

// ChatMessage is a message posted into a community chat.
type ChatMessage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CommunityID uint      `gorm:"index;not null" json:"communityId"`
	UserID      uint      `gorm:"index;not null" json:"userId"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	Sender      User      `gorm:"foreignKey:UserID" json:"-"`
}

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Question{},
		&FavoriteQuestion{},
		&MockTestSession{},
		&Community{},
		&CommunityMember{},
		&ChatMessage{},
	}
}
