package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"splitledger/internal/core"
	"splitledger/internal/storage"
)

var ErrEmailTaken = errors.New("email already registered")

type UserService struct {
	store UserStore
}

func NewUserService(store UserStore) *UserService {
	return &UserService{store: store}
}

func (s *UserService) Register(ctx context.Context, name, email string) (core.User, error) {
	u := core.User{
		Name:  strings.TrimSpace(name),
		Email: strings.ToLower(strings.TrimSpace(email)),
	}
	if err := u.Validate(); err != nil {
		return core.User{}, invalid(err)
	}
	created, err := s.store.CreateUser(ctx, u)
	if errors.Is(err, storage.ErrConflict) {
		return core.User{}, ErrEmailTaken
	}
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func (s *UserService) Get(ctx context.Context, id core.UserID) (core.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return core.User{}, storeErr("get user", err)
	}
	return u, nil
}
