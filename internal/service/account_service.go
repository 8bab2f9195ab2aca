package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/pksim-api/internal/domain"
	"github.com/phrazzld/pksim-api/internal/redact"
	"github.com/phrazzld/pksim-api/internal/service/auth"
	"github.com/phrazzld/pksim-api/internal/store"
)

// AccountService registers, authenticates and deletes users.
type AccountService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)

	// Authenticate returns ErrInvalidCredentials for an unknown email or a
	// wrong password.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)

	// DeleteAccount removes the user and every blood test they recorded in
	// one transaction.
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

// TxRunner runs fn inside a transaction. store.RunInTransaction bound to a
// *sql.DB satisfies it.
type TxRunner func(ctx context.Context, fn store.TxFn) error

// DBTxRunner binds store.RunInTransaction to db.
func DBTxRunner(db *sql.DB) TxRunner {
	return func(ctx context.Context, fn store.TxFn) error {
		return store.RunInTransaction(ctx, db, fn)
	}
}

type accountService struct {
	users      store.UserStore
	bloodTests store.BloodTestStore
	verifier   auth.PasswordVerifier
	runTx      TxRunner
	logger     *slog.Logger
}

// NewAccountService creates an AccountService.
func NewAccountService(
	users store.UserStore,
	bloodTests store.BloodTestStore,
	verifier auth.PasswordVerifier,
	runTx TxRunner,
	logger *slog.Logger,
) AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &accountService{
		users:      users,
		bloodTests: bloodTests,
		verifier:   verifier,
		runTx:      runTx,
		logger:     logger.With("component", "account_service"),
	}
}

func (s *accountService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := domain.NewUser(email, password)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.logger.Debug("registration with existing email",
				"email", redact.Email(email))
		} else {
			s.logger.Error("failed to register user", "error", redact.Error(err))
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (s *accountService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		s.logger.Debug("password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *accountService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	return s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		n, err := s.bloodTests.WithTx(tx).DeleteAllForUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to delete blood tests: %w", err)
		}
		if err := s.users.WithTx(tx).Delete(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}

		s.logger.Info("account deleted",
			"user_id", userID,
			"blood_tests_deleted", n)
		return nil
	})
}
