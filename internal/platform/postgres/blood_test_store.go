package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/pksim-api/internal/domain"
	"github.com/phrazzld/pksim-api/internal/domain/pk"
	"github.com/phrazzld/pksim-api/internal/platform/logger"
	"github.com/phrazzld/pksim-api/internal/redact"
	"github.com/phrazzld/pksim-api/internal/store"
)

const bloodTestColumns = `id, user_id, hormone, test_time, ether, dose_mg,
		days_since_injection, value, units, notes, created_at`

// PostgresBloodTestStore implements store.BloodTestStore and serves as the
// observation source for personalization.
type PostgresBloodTestStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.BloodTestStore = (*PostgresBloodTestStore)(nil)

// NewPostgresBloodTestStore creates a blood test store.
func NewPostgresBloodTestStore(db store.DBTX, log *slog.Logger) *PostgresBloodTestStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresBloodTestStore{
		db:     db,
		logger: log.With(slog.String("component", "blood_test_store")),
	}
}

// WithTx returns a store that runs on tx.
func (s *PostgresBloodTestStore) WithTx(tx *sql.Tx) store.BloodTestStore {
	return &PostgresBloodTestStore{db: tx, logger: s.logger}
}

// Create validates and inserts test. An unknown owner maps to
// store.ErrInvalidEntity.
func (s *PostgresBloodTestStore) Create(ctx context.Context, test *domain.BloodTest) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := test.Validate(); err != nil {
		log.Warn("blood test validation failed during create",
			slog.String("error", err.Error()),
			slog.String("blood_test_id", test.ID.String()))
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blood_tests (`+bloodTestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		test.ID,
		test.UserID,
		string(test.Hormone),
		test.TestTime,
		test.Ether,
		test.DoseMg,
		test.DaysSinceInjection,
		test.Value,
		test.Units,
		test.Notes,
		test.CreatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("blood test for unknown user",
				slog.String("user_id", test.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found", store.ErrInvalidEntity, test.UserID)
		}
		log.Error("failed to create blood test",
			slog.String("error", redact.Error(err)),
			slog.String("blood_test_id", test.ID.String()))
		return MapError(err)
	}

	log.Info("blood test created",
		slog.String("blood_test_id", test.ID.String()),
		slog.String("user_id", test.UserID.String()),
		slog.String("hormone", string(test.Hormone)))
	return nil
}

// List returns userID's records, newest test time first.
func (s *PostgresBloodTestStore) List(
	ctx context.Context,
	userID uuid.UUID,
	filter store.BloodTestFilter,
) ([]*domain.BloodTest, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + bloodTestColumns + ` FROM blood_tests WHERE user_id = $1`
	args := []any{userID}
	if filter.Hormone != "" {
		query += ` AND hormone = $2`
		args = append(args, string(filter.Hormone))
	}
	query += ` ORDER BY test_time DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list blood tests",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tests := []*domain.BloodTest{}
	for rows.Next() {
		var (
			bt      domain.BloodTest
			hormone string
			notes   sql.NullString
		)
		if err := rows.Scan(
			&bt.ID,
			&bt.UserID,
			&hormone,
			&bt.TestTime,
			&bt.Ether,
			&bt.DoseMg,
			&bt.DaysSinceInjection,
			&bt.Value,
			&bt.Units,
			&notes,
			&bt.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan blood test: %w", err)
		}
		bt.Hormone = domain.CompoundClass(hormone)
		bt.Notes = notes.String
		tests = append(tests, &bt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blood tests: %w", err)
	}

	log.Debug("listed blood tests",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(tests)))
	return tests, nil
}

// Delete removes one record owned by userID.
func (s *PostgresBloodTestStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM blood_tests WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		log.Error("failed to delete blood test",
			slog.String("error", redact.Error(err)),
			slog.String("blood_test_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrBloodTestNotFound); err != nil {
		return err
	}

	log.Info("blood test deleted",
		slog.String("blood_test_id", id.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// DeleteAllForUser removes every record userID owns.
func (s *PostgresBloodTestStore) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM blood_tests WHERE user_id = $1`, userID)
	if err != nil {
		return 0, MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// Observations returns userID's records of class as estimator input.
func (s *PostgresBloodTestStore) Observations(
	ctx context.Context,
	userID uuid.UUID,
	class domain.CompoundClass,
) ([]pk.Observation, error) {
	tests, err := s.List(ctx, userID, store.BloodTestFilter{Hormone: class})
	if err != nil {
		return nil, err
	}
	obs := make([]pk.Observation, len(tests))
	for i, t := range tests {
		obs[i] = pk.ObservationFromBloodTest(t)
	}
	return obs, nil
}
