package service

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/quizhub-api/internal/dto"
	"github.com/noah-isme/quizhub-api/internal/models"
	"github.com/noah-isme/quizhub-api/internal/repository"
)

// CommunityService manages communities, memberships and chat.
type CommunityService interface {
	Create(ctx context.Context, actor Actor, payload dto.CommunityCreateRequest) (dto.CommunityResponse, error)
	List(ctx context.Context, userID uint) (dto.CommunityListResult, error)
	ListAll(ctx context.Context) ([]dto.CommunityWithMembers, error)
	Join(ctx context.Context, userID, communityID uint) error
	Leave(ctx context.Context, userID, communityID uint) error
	PostMessage(ctx context.Context, userID, communityID uint, payload dto.ChatPostRequest) (dto.ChatMessageResponse, error)
	Messages(ctx context.Context, actor Actor, communityID uint, query dto.ChatHistoryQuery) ([]dto.ChatMessageResponse, error)
	Update(ctx context.Context, communityID uint, payload dto.CommunityUpdateRequest) (dto.CommunityResponse, error)
	Delete(ctx context.Context, communityID uint) error
	AuthorizeStream(ctx context.Context, actor Actor, communityID uint) error
	CommunityStreamer
}

type communityService struct {
	communities repository.CommunityRepository
	chats       repository.ChatRepository
	users       repository.UserRepository
	realtime    *CommunityRealtime
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewCommunityService constructs the community service. Posted messages are pushed through realtime when set.
func NewCommunityService(
	communities repository.CommunityRepository,
	chats repository.ChatRepository,
	users repository.UserRepository,
	realtime *CommunityRealtime,
	validate *validator.Validate,
	logger zerolog.Logger,
) CommunityService {
	return &communityService{
		communities: communities,
		chats:       chats,
		users:       users,
		realtime:    realtime,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "community_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/quizhub-api/internal/service/community"),
		now:         time.Now,
	}
}

func (s *communityService) Create(ctx context.Context, actor Actor, payload dto.CommunityCreateRequest) (dto.CommunityResponse, error) {
	payload.Name = s.clean(payload.Name)
	payload.Description = s.clean(payload.Description)
	if err := s.validator.Struct(payload); err != nil {
		return dto.CommunityResponse{}, err
	}

	taken, err := s.communities.NameTaken(ctx, payload.Name, 0)
	if err != nil {
		return dto.CommunityResponse{}, err
	}
	if taken {
		return dto.CommunityResponse{}, ErrCommunityNameTaken
	}

	community := models.Community{
		Name:        payload.Name,
		Description: payload.Description,
		CreatedBy:   actor.ID,
	}
	if err := s.communities.Create(ctx, &community); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.CommunityResponse{}, ErrCommunityNameTaken
		}
		return dto.CommunityResponse{}, err
	}

	s.logger.Info().Uint("community_id", community.ID).Uint("created_by", actor.ID).Msg("community created")
	return dto.NewCommunityResponse(community), nil
}

func (s *communityService) List(ctx context.Context, userID uint) (dto.CommunityListResult, error) {
	summaries, err := s.communities.ListSummaries(ctx)
	if err != nil {
		return dto.CommunityListResult{}, err
	}
	memberOf, err := s.communities.MemberCommunityIDs(ctx, userID)
	if err != nil {
		return dto.CommunityListResult{}, err
	}

	joined := make(map[uint]struct{}, len(memberOf))
	for _, id := range memberOf {
		joined[id] = struct{}{}
	}

	result := dto.CommunityListResult{
		JoinedCommunities: []dto.CommunityResponse{},
		OtherCommunities:  []dto.CommunityResponse{},
	}
	for _, summary := range summaries {
		item := summaryResponse(summary)
		if _, ok := joined[summary.ID]; ok {
			result.JoinedCommunities = append(result.JoinedCommunities, item)
			continue
		}
		result.OtherCommunities = append(result.OtherCommunities, item)
	}
	return result, nil
}

func (s *communityService) ListAll(ctx context.Context) ([]dto.CommunityWithMembers, error) {
	summaries, err := s.communities.ListSummaries(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(summaries))
	for _, summary := range summaries {
		ids = append(ids, summary.ID)
	}
	members, err := s.communities.ListMembers(ctx, ids)
	if err != nil {
		return nil, err
	}

	byCommunity := make(map[uint][]dto.CommunityMemberResponse, len(summaries))
	for _, member := range members {
		byCommunity[member.CommunityID] = append(byCommunity[member.CommunityID], dto.CommunityMemberResponse{
			UserID:   member.UserID,
			Fullname: member.Fullname,
			Username: member.Username,
			JoinedAt: member.JoinedAt,
		})
	}

	out := make([]dto.CommunityWithMembers, 0, len(summaries))
	for _, summary := range summaries {
		list := byCommunity[summary.ID]
		if list == nil {
			list = []dto.CommunityMemberResponse{}
		}
		messages, err := s.chats.CountByCommunity(ctx, summary.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, dto.CommunityWithMembers{
			CommunityResponse: summaryResponse(summary),
			MessageCount:      messages,
			Members:           list,
		})
	}
	return out, nil
}

func (s *communityService) Join(ctx context.Context, userID, communityID uint) error {
	if _, err := s.community(ctx, communityID); err != nil {
		return err
	}

	member, err := s.communities.IsMember(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if member {
		return ErrAlreadyMember
	}

	if err := s.communities.AddMember(ctx, &models.CommunityMember{CommunityID: communityID, UserID: userID}); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyMember
		}
		return err
	}
	return nil
}

func (s *communityService) Leave(ctx context.Context, userID, communityID uint) error {
	if _, err := s.community(ctx, communityID); err != nil {
		return err
	}
	if err := s.communities.RemoveMember(ctx, communityID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotCommunityMember
		}
		return err
	}
	return nil
}

func (s *communityService) PostMessage(ctx context.Context, userID, communityID uint, payload dto.ChatPostRequest) (dto.ChatMessageResponse, error) {
	text := s.clean(payload.Message)
	if text == "" {
		return dto.ChatMessageResponse{}, ErrMessageEmpty
	}
	payload.Message = text
	if err := s.validator.Struct(payload); err != nil {
		return dto.ChatMessageResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "community.post_message")
	defer span.End()

	if _, err := s.community(ctx, communityID); err != nil {
		return dto.ChatMessageResponse{}, err
	}
	member, err := s.communities.IsMember(ctx, communityID, userID)
	if err != nil {
		span.RecordError(err)
		return dto.ChatMessageResponse{}, err
	}
	if !member {
		return dto.ChatMessageResponse{}, ErrPostRequiresMember
	}

	sender, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ChatMessageResponse{}, ErrUserNotFound
		}
		return dto.ChatMessageResponse{}, err
	}

	message := models.ChatMessage{
		CommunityID: communityID,
		UserID:      userID,
		Message:     text,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.chats.Save(ctx, &message); err != nil {
		span.RecordError(err)
		return dto.ChatMessageResponse{}, err
	}
	message.Sender = sender

	response := dto.NewChatMessageResponse(message)
	if s.realtime != nil {
		s.realtime.Deliver(ctx, response)
	}
	return response, nil
}

func (s *communityService) Messages(ctx context.Context, actor Actor, communityID uint, query dto.ChatHistoryQuery) ([]dto.ChatMessageResponse, error) {
	if err := s.AuthorizeStream(ctx, actor, communityID); err != nil {
		return nil, err
	}

	before := time.Time{}
	if query.Before != nil {
		before = *query.Before
	}
	messages, err := s.chats.ListByCommunity(ctx, communityID, before, query.Limit)
	if err != nil {
		return nil, err
	}
	return dto.NewChatMessageResponseSlice(messages), nil
}

func (s *communityService) Update(ctx context.Context, communityID uint, payload dto.CommunityUpdateRequest) (dto.CommunityResponse, error) {
	if payload.Name != nil {
		cleaned := s.clean(*payload.Name)
		payload.Name = &cleaned
	}
	if payload.Description != nil {
		cleaned := s.clean(*payload.Description)
		payload.Description = &cleaned
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.CommunityResponse{}, err
	}

	community, err := s.community(ctx, communityID)
	if err != nil {
		return dto.CommunityResponse{}, err
	}

	if payload.Name != nil && *payload.Name != community.Name {
		taken, err := s.communities.NameTaken(ctx, *payload.Name, community.ID)
		if err != nil {
			return dto.CommunityResponse{}, err
		}
		if taken {
			return dto.CommunityResponse{}, ErrCommunityNameTaken
		}
		community.Name = *payload.Name
	}
	if payload.Description != nil {
		community.Description = *payload.Description
	}

	if err := s.communities.Update(ctx, &community); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.CommunityResponse{}, ErrCommunityNameTaken
		}
		return dto.CommunityResponse{}, err
	}
	return dto.NewCommunityResponse(community), nil
}

func (s *communityService) Delete(ctx context.Context, communityID uint) error {
	if err := s.communities.Delete(ctx, communityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommunityNotFound
		}
		return err
	}
	s.logger.Info().Uint("community_id", communityID).Msg("community deleted")
	return nil
}

// AuthorizeStream allows members and admins to read a community's chat.
func (s *communityService) AuthorizeStream(ctx context.Context, actor Actor, communityID uint) error {
	if _, err := s.community(ctx, communityID); err != nil {
		return err
	}
	if actor.IsAdmin() {
		return nil
	}
	member, err := s.communities.IsMember(ctx, communityID, actor.ID)
	if err != nil {
		return err
	}
	if !member {
		return ErrReadRequiresMember
	}
	return nil
}

func (s *communityService) community(ctx context.Context, id uint) (models.Community, error) {
	community, err := s.communities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Community{}, ErrCommunityNotFound
		}
		return models.Community{}, err
	}
	return community, nil
}

// clean strips markup and stores plain text; entities the sanitizer escaped are
// decoded again so "Q&A" round-trips unchanged. Clients escape on render.
func (s *communityService) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value)))
}

func summaryResponse(summary repository.CommunitySummary) dto.CommunityResponse {
	return dto.CommunityResponse{
		ID:          summary.ID,
		Name:        summary.Name,
		Description: summary.Description,
		CreatedBy:   summary.CreatedBy,
		CreatorName: summary.CreatorName,
		MemberCount: summary.MemberCount,
		CreatedAt:   summary.CreatedAt,
		UpdatedAt:   summary.UpdatedAt,
	}
}
