// Package auth registers wallet owners and verifies their credentials.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/amirasaad/walletledger/pkg/repository"
	"github.com/amirasaad/walletledger/pkg/utils"
)

const (
	maxUsernameLength = 64
	// bcrypt ignores input beyond 72 bytes
	maxPasswordBytes = 72
	dummyHash        = "$2a$10$7zFqzDbD3RrlkMTczbXG9OWZ0FLOXjIxXzSZ.QZxkVXjXcx7QZQiC"
)

// Service registers and authenticates account holders.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// New creates an auth service.
func New(uow repository.UnitOfWork, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{uow: uow, logger: logger.With("service", "auth")}
}

// Register creates an account with a zero balance.
func (s *Service) Register(ctx context.Context, username, password string) (*domain.Account, error) {
	username = strings.TrimSpace(username)
	log := s.logger.With("username", username)
	if err := validateCredentials(username, password); err != nil {
		log.Warn("registration rejected", "error", err)
		return nil, err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", "error", err)
		return nil, domain.Wrap(domain.ErrStorageUnavailable, err)
	}

	account := domain.NewAccount(username, hash)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		return repo.Create(ctx, account)
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) {
			log.Warn("registration rejected", "error", err)
		} else {
			log.Error("registration failed", "error", err)
		}
		return nil, err
	}
	log.Info("account registered", "account_id", account.ID)
	return account, nil
}

// Authenticate returns the account whose credentials match, or
// domain.ErrUnauthorized.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*domain.Account, error) {
	username = strings.TrimSpace(username)
	var account *domain.Account
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		account, err = repo.GetByUsername(ctx, username)
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		// Always check password hash to avoid timing attacks
		_ = utils.CheckPasswordHash(password, dummyHash)
		s.logger.Debug("unknown username", "username", username)
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		s.logger.Error("authentication lookup failed", "username", username, "error", err)
		return nil, err
	}
	if !utils.CheckPasswordHash(password, account.PasswordHash) {
		s.logger.Debug("password mismatch", "username", username)
		return nil, domain.ErrUnauthorized
	}
	return account, nil
}

func validateCredentials(username, password string) error {
	switch {
	case username == "":
		return domain.WithMessage(domain.ErrValidation, "username is required")
	case utf8.RuneCountInString(username) > maxUsernameLength:
		return domain.WithMessage(domain.ErrValidation, "username is too long")
	case strings.ContainsRune(username, ':'):
		return domain.WithMessage(domain.ErrValidation, "username must not contain ':'")
	case password == "":
		return domain.WithMessage(domain.ErrValidation, "password is required")
	case len(password) > maxPasswordBytes:
		return domain.WithMessage(domain.ErrValidation, "password is too long")
	}
	return nil
}
