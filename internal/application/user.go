package app

import (
	"context"
	"sync"

	"house-inspect/internal/domain/entity"
	"house-inspect/internal/domain/port"
)

type UserService struct {
	repo port.UserRepository
	mu   sync.Mutex
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

// Update атомарно читает пользователя, применяет fn и сохраняет результат.
// Если fn вернула ошибку, состояние не сохраняется.
func (s *UserService) Update(ctx context.Context, userID, chatID int64, fn func(u *entity.User) error) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if err := fn(user); err != nil {
		return user, err
	}
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Restart возвращает пользователя на приветственный шаг
func (s *UserService) Restart(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.Update(ctx, userID, chatID, func(u *entity.User) error {
		u.Restart()
		return nil
	})
}
