package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quizhub-api/internal/dto"
	"github.com/noah-isme/quizhub-api/internal/models"
	"github.com/noah-isme/quizhub-api/internal/repository"
	"github.com/noah-isme/quizhub-api/internal/utils"
)

func TestUserServiceUpdateProfileRules(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewUserService(repository.NewUserRepository(db), utils.NewValidator(), zerolog.Nop())
	ada := seedTestUser(t, db, "ada", models.RoleUser)
	bayo := seedTestUser(t, db, "bayo", models.RoleUser)
	admin := seedTestUser(t, db, "root", models.RoleAdmin)

	_, err := svc.UpdateProfile(context.Background(), Actor{ID: bayo.ID, Role: models.RoleUser}, ada.ID, dto.UpdateProfileRequest{Fullname: strPtr("Hijacked")})
	require.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.UpdateProfile(context.Background(), Actor{ID: ada.ID, Role: models.RoleUser}, ada.ID, dto.UpdateProfileRequest{
		Fullname: strPtr("Ada King"),
		Role:     strPtr(models.RoleAdmin),
	})
	require.NoError(t, err)
	require.Equal(t, "Ada King", updated.Fullname)
	require.Equal(t, models.RoleUser, updated.Role)

	_, err = svc.UpdateProfile(context.Background(), Actor{ID: ada.ID, Role: models.RoleUser}, ada.ID, dto.UpdateProfileRequest{Email: strPtr("BAYO@example.com")})
	require.ErrorIs(t, err, ErrEmailTaken)

	promoted, err := svc.UpdateProfile(context.Background(), Actor{ID: admin.ID, Role: models.RoleAdmin}, bayo.ID, dto.UpdateProfileRequest{Role: strPtr(models.RoleAdmin)})
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, promoted.Role)

	_, err = svc.UpdateProfile(context.Background(), Actor{ID: admin.ID, Role: models.RoleAdmin}, 9999, dto.UpdateProfileRequest{Fullname: strPtr("Nobody")})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserServiceMeListAndDelete(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewUserService(repository.NewUserRepository(db), utils.NewValidator(), zerolog.Nop())
	ada := seedTestUser(t, db, "ada", models.RoleUser)
	seedTestUser(t, db, "bayo", models.RoleUser)

	me, err := svc.Me(context.Background(), ada.ID)
	require.NoError(t, err)
	require.Equal(t, "ada", me.Username)

	users, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)

	require.NoError(t, svc.Delete(context.Background(), ada.ID))
	_, err = svc.Me(context.Background(), ada.ID)
	require.ErrorIs(t, err, ErrUserNotFound)
	require.ErrorIs(t, svc.Delete(context.Background(), ada.ID), ErrUserNotFound)
}
