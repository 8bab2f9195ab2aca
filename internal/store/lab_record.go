package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/pksim-api/internal/domain"
)

// BloodTestFilter narrows a blood test listing. Zero values match everything.
type BloodTestFilter struct {
	Hormone domain.CompoundClass
}

// BloodTestStore persists lab records. Every method is scoped to one owner.
type BloodTestStore interface {
	Create(ctx context.Context, test *domain.BloodTest) error

	// List returns the owner's records, newest test time first.
	List(ctx context.Context, userID uuid.UUID, filter BloodTestFilter) ([]*domain.BloodTest, error)

	// Delete returns ErrBloodTestNotFound when the record does not exist or
	// belongs to someone else.
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// DeleteAllForUser removes every record the user owns and returns the count.
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)

	WithTx(tx *sql.Tx) BloodTestStore
}
