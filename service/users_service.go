package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stocks-finance/errs"
	"stocks-finance/models"
	"stocks-finance/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const msgInvalidCredentials = "invalid username and/or password"

type AuthService interface {
	Register(ctx context.Context, username, password, confirmation string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.User, error)
}

type authService struct {
	usersRepo    repository.UsersRepository
	startingCash decimal.Decimal
	hashCost     int
}

func NewAuthService(usersRepo repository.UsersRepository, startingCash decimal.Decimal) AuthService {
	return &authService{
		usersRepo:    usersRepo,
		startingCash: startingCash,
		hashCost:     bcrypt.DefaultCost,
	}
}

func (s *authService) Register(ctx context.Context, username, password, confirmation string) (*models.User, error) {
	const op = "service.Register"

	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return nil, errs.Validation("must provide username")
	case password == "":
		return nil, errs.Validation("must provide password")
	case password != confirmation:
		return nil, errs.Validation("passwords do not match")
	}

	_, err := s.usersRepo.GetByUsername(ctx, username)
	if err == nil {
		return nil, errs.Validation("username already taken")
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("%s: error hashing password: %w", op, err)
	}

	user := &models.User{
		Username: username,
		Hash:     string(hash),
		Cash:     s.startingCash,
	}
	if err := s.usersRepo.Create(ctx, user); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return nil, errs.Validation("username already taken")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// Login checks credentials. Unknown users and wrong passwords fail identically.
func (s *authService) Login(ctx context.Context, username, password string) (*models.User, error) {
	const op = "service.Login"

	username = strings.TrimSpace(username)
	// Missing login fields are auth failures (403), not validation errors (400).
	switch {
	case username == "":
		return nil, errs.Auth("must provide username")
	case password == "":
		return nil, errs.Auth("must provide password")
	}

	user, err := s.usersRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.Auth(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Hash), []byte(password)); err != nil {
		return nil, errs.Auth(msgInvalidCredentials)
	}

	return user, nil
}
