package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/pksim-api/internal/catalog"
	"github.com/phrazzld/pksim-api/internal/domain"
	"github.com/phrazzld/pksim-api/internal/store"
)

// EtherOther is recorded when the user's ester is not in the list.
const EtherOther = "other"

// commonEthers are offered on the entry form regardless of the catalog.
var commonEthers = []string{"enanthate", "cypionate", "valerate", "undecanoate", "propionate", EtherOther}

// BloodTestInput is a new lab record before it gets an ID.
type BloodTestInput struct {
	Hormone            domain.CompoundClass
	TestTime           time.Time
	Ether              string
	DoseMg             float64
	DaysSinceInjection float64
	Value              float64
	Units              string
	Notes              string
}

// BloodTestService records and lists a user's lab results.
type BloodTestService interface {
	Record(ctx context.Context, userID uuid.UUID, in BloodTestInput) (*domain.BloodTest, error)
	List(ctx context.Context, userID uuid.UUID, hormone domain.CompoundClass) ([]*domain.BloodTest, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type bloodTestService struct {
	store  store.BloodTestStore
	logger *slog.Logger
}

// NewBloodTestService creates a BloodTestService.
func NewBloodTestService(s store.BloodTestStore, logger *slog.Logger) BloodTestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &bloodTestService{store: s, logger: logger.With("component", "blood_test_service")}
}

// IsKnownEther reports whether ether is one of the common esters or a
// catalog variant, ignoring case.
func IsKnownEther(ether string) bool {
	ether = strings.ToLower(strings.TrimSpace(ether))
	for _, e := range commonEthers {
		if e == ether {
			return true
		}
	}
	for _, c := range catalog.All() {
		if strings.ToLower(c.Variant) == ether {
			return true
		}
	}
	return false
}

func (s *bloodTestService) Record(ctx context.Context, userID uuid.UUID, in BloodTestInput) (*domain.BloodTest, error) {
	if !IsKnownEther(in.Ether) {
		return nil, domain.NewValidationError("ether", "unknown ester", domain.ErrInvalidBloodTest)
	}

	bt, err := domain.NewBloodTest(
		userID,
		in.Hormone,
		in.TestTime,
		strings.ToLower(strings.TrimSpace(in.Ether)),
		in.DoseMg,
		in.DaysSinceInjection,
		in.Value,
		in.Units,
		in.Notes,
	)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, bt); err != nil {
		return nil, fmt.Errorf("failed to record blood test: %w", err)
	}
	return bt, nil
}

func (s *bloodTestService) List(ctx context.Context, userID uuid.UUID, hormone domain.CompoundClass) ([]*domain.BloodTest, error) {
	if hormone != "" {
		if _, err := domain.ParseCompoundClass(string(hormone)); err != nil {
			return nil, domain.NewValidationError("hormone", "must be estradiol or testosterone", err)
		}
	}
	tests, err := s.store.List(ctx, userID, store.BloodTestFilter{Hormone: hormone})
	if err != nil {
		return nil, fmt.Errorf("failed to list blood tests: %w", err)
	}
	return tests, nil
}

func (s *bloodTestService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to delete blood test: %w", err)
	}
	return nil
}
