package dto

import (
	"time"

	"github.com/noah-isme/quizhub-api/internal/models"
)

// CommunityCreateRequest validates community creation.
type CommunityCreateRequest struct {
	Name        string `json:"name" validate:"required,min=3,max=128"`
	Description string `json:"description" validate:"required,max=2000"`
}

// CommunityUpdateRequest carries a partial community update.
type CommunityUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=3,max=128"`
	Description *string `json:"description" validate:"omitempty,min=1,max=2000"`
}

// ChatPostRequest is a message posted to a community.
type ChatPostRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// ChatHistoryQuery pages backwards through a community chat.
type ChatHistoryQuery struct {
	Before *time.Time
	Limit  int
}

// CommunityResponse serializes a community.
type CommunityResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   uint      `json:"createdBy"`
	CreatorName string    `json:"creatorName,omitempty"`
	MemberCount int64     `json:"memberCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CommunityMemberResponse describes a member of a community.
type CommunityMemberResponse struct {
	UserID   uint      `json:"userId"`
	Fullname string    `json:"fullname"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joinedAt"`
}

// CommunityWithMembers is the admin view of a community.
type CommunityWithMembers struct {
	CommunityResponse
	MessageCount int64                     `json:"messageCount"`
	Members      []CommunityMemberResponse `json:"members"`
}

// CommunityListResult splits communities by the caller's membership.
type CommunityListResult struct {
	JoinedCommunities []CommunityResponse `json:"joinedCommunities"`
	OtherCommunities  []CommunityResponse `json:"otherCommunities"`
}

// ChatMessageResponse is the serialized representation of a chat message.
type ChatMessageResponse struct {
	ID          uint      `json:"id"`
	CommunityID uint      `json:"communityId"`
	UserID      uint      `json:"userId"`
	Sender      string    `json:"sender"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewCommunityResponse converts model -> DTO.
func NewCommunityResponse(community models.Community) CommunityResponse {
	return CommunityResponse{
		ID:          community.ID,
		Name:        community.Name,
		Description: community.Description,
		CreatedBy:   community.CreatedBy,
		CreatorName: community.Creator.Fullname,
		CreatedAt:   community.CreatedAt,
		UpdatedAt:   community.UpdatedAt,
	}
}

// NewChatMessageResponse converts a model into a DTO.
func NewChatMessageResponse(message models.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:          message.ID,
		CommunityID: message.CommunityID,
		UserID:      message.UserID,
		Sender:      message.Sender.Username,
		Message:     message.Message,
		CreatedAt:   message.CreatedAt,
	}
}

// NewChatMessageResponseSlice converts a slice of models into DTOs.
func NewChatMessageResponseSlice(messages []models.ChatMessage) []ChatMessageResponse {
	out := make([]ChatMessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, NewChatMessageResponse(message))
	}
	return out
}
