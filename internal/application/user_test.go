package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"house-inspect/internal/domain/entity"
	"house-inspect/internal/infrastructure/storage"
)

func TestUserService_UpdateAndRestart(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.Update(ctx, 1, 10, func(u *entity.User) error {
		return u.StartCapture(entity.PropertyHouse, "r1")
	})
	require.NoError(t, err)
	require.Equal(t, entity.StageCapture, user.Stage)

	stored, err := svc.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, "r1", stored.ReportID)

	user, err = svc.Restart(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StageWelcome, user.Stage)
	require.Empty(t, user.ReportID)
}

func TestUserService_UpdateErrorIsNotSaved(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	boom := errors.New("boom")
	_, err := svc.Update(ctx, 2, 20, func(u *entity.User) error {
		u.Stage = entity.StageResults
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := svc.Get(ctx, 2, 20)
	require.NoError(t, err)
	require.Equal(t, entity.StageWelcome, stored.Stage)
}
