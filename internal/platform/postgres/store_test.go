package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/pksim-api/internal/domain"
	"github.com/phrazzld/pksim-api/internal/platform/postgres"
	"github.com/phrazzld/pksim-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var bloodTestRowColumns = []string{
	"id", "user_id", "hormone", "test_time", "ether", "dose_mg",
	"days_since_injection", "value", "units", "notes", "created_at",
}

func newMock(t *testing.T) (sqlmock.Sqlmock, func() *postgres.PostgresUserStore, func() *postgres.PostgresBloodTestStore) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	users := func() *postgres.PostgresUserStore {
		return postgres.NewPostgresUserStore(db, bcrypt.MinCost, nil)
	}
	tests := func() *postgres.PostgresBloodTestStore {
		return postgres.NewPostgresBloodTestStore(db, nil)
	}
	return mock, users, tests
}

func TestUserStoreCreate(t *testing.T) {
	t.Parallel()

	mock, users, _ := newMock(t)

	user, err := domain.NewUser("Jane@Example.com", "correct-horse-battery")
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(user.ID, "jane@example.com", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, users().Create(context.Background(), user))
	assert.Empty(t, user.Password)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte("correct-horse-battery")))
}

func TestUserStoreCreateDuplicateEmail(t *testing.T) {
	t.Parallel()

	mock, users, _ := newMock(t)

	user, err := domain.NewUser("jane@example.com", "correct-horse-battery")
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnError(pgError("23505"))

	err = users().Create(context.Background(), user)
	assert.ErrorIs(t, err, store.ErrEmailExists)
}

func TestUserStoreCreateInvalid(t *testing.T) {
	t.Parallel()

	_, users, _ := newMock(t)

	err := users().Create(context.Background(), &domain.User{ID: uuid.New(), Email: "jane@example.com", Password: "short"})
	assert.ErrorIs(t, err, domain.ErrPasswordTooShort)
}

func TestUserStoreGetByEmail(t *testing.T) {
	t.Parallel()

	mock, users, _ := newMock(t)

	id := uuid.New()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "hashed_password", "created_at", "updated_at"}).
			AddRow(id.String(), "jane@example.com", "hash", now, now))

	u, err := users().GetByEmail(context.Background(), "JANE@example.com ")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "hash", u.HashedPassword)
	assert.Equal(t, now, u.CreatedAt)
}

func TestUserStoreGetByIDNotFound(t *testing.T) {
	t.Parallel()

	mock, users, _ := newMock(t)

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "hashed_password", "created_at", "updated_at"}))

	_, err := users().GetByID(context.Background(), id)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestUserStoreDelete(t *testing.T) {
	t.Parallel()

	mock, users, _ := newMock(t)

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users")).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users")).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, users().Delete(context.Background(), id))
	assert.ErrorIs(t, users().Delete(context.Background(), id), store.ErrUserNotFound)
}

func sampleBloodTest(t *testing.T, userID uuid.UUID) *domain.BloodTest {
	t.Helper()
	bt, err := domain.NewBloodTest(userID, domain.ClassEstradiol, time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
		"valerate", 5, 3, 150, domain.UnitPicogramsPerML, "fasted")
	require.NoError(t, err)
	return bt
}

func TestBloodTestStoreCreate(t *testing.T) {
	t.Parallel()

	mock, _, tests := newMock(t)
	bt := sampleBloodTest(t, uuid.New())

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO blood_tests")).
		WithArgs(bt.ID, bt.UserID, "estradiol", bt.TestTime, "valerate", 5.0, 3.0, 150.0, "pg/mL", "fasted", bt.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, tests().Create(context.Background(), bt))
}

func TestBloodTestStoreCreateUnknownUser(t *testing.T) {
	t.Parallel()

	mock, _, tests := newMock(t)
	bt := sampleBloodTest(t, uuid.New())

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO blood_tests")).WillReturnError(pgError("23503"))

	err := tests().Create(context.Background(), bt)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestBloodTestStoreCreateInvalid(t *testing.T) {
	t.Parallel()

	_, _, tests := newMock(t)
	bt := sampleBloodTest(t, uuid.New())
	bt.Value = 0

	assert.ErrorIs(t, tests().Create(context.Background(), bt), domain.ErrInvalidBloodTest)
}

func TestBloodTestStoreList(t *testing.T) {
	t.Parallel()

	mock, _, tests := newMock(t)
	userID := uuid.New()
	newer := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	older := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND hormone = $2 ORDER BY test_time DESC")).
		WithArgs(userID, "testosterone").
		WillReturnRows(sqlmock.NewRows(bloodTestRowColumns).
			AddRow(uuid.NewString(), userID.String(), "testosterone", newer, "cypionate", 100.0, 7.0, 600.0, "ng/dL", nil, newer).
			AddRow(uuid.NewString(), userID.String(), "testosterone", older, "enanthate", 100.0, 3.5, 900.0, "ng/dL", "trough", older))

	got, err := tests().List(context.Background(), userID, store.BloodTestFilter{Hormone: domain.ClassTestosterone})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer, got[0].TestTime)
	assert.Equal(t, domain.ClassTestosterone, got[0].Hormone)
	assert.Empty(t, got[0].Notes)
	assert.Equal(t, "trough", got[1].Notes)
}

func TestBloodTestStoreListEmpty(t *testing.T) {
	t.Parallel()

	mock, _, tests := newMock(t)
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 ORDER BY test_time DESC")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(bloodTestRowColumns))

	got, err := tests().List(context.Background(), userID, store.BloodTestFilter{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestBloodTestStoreDeleteScopedToOwner(t *testing.T) {
	t.Parallel()

	mock, _, tests := newMock(t)
	owner, id := uuid.New(), uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM blood_tests WHERE id = $1 AND user_id = $2")).
		WithArgs(id, owner).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, tests().Delete(context.Background(), owner, id), store.ErrBloodTestNotFound)
}

func TestBloodTestStoreDeleteAllForUser(t *testing.T) {
	t.Parallel()

	mock, _, tests := newMock(t)
	owner := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM blood_tests WHERE user_id = $1")).
		WithArgs(owner).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := tests().DeleteAllForUser(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestObservations(t *testing.T) {
	t.Parallel()

	mock, _, tests := newMock(t)
	userID := uuid.New()
	at := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM blood_tests")).
		WithArgs(userID, "estradiol").
		WillReturnRows(sqlmock.NewRows(bloodTestRowColumns).
			AddRow(uuid.NewString(), userID.String(), "estradiol", at, "Valerate", 5.0, 3.0, 150.0, "pg/mL", nil, at))

	obs, err := tests().Observations(context.Background(), userID, domain.ClassEstradiol)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, domain.ClassEstradiol, obs[0].Class)
	assert.Equal(t, "Valerate", obs[0].Variant)
	assert.Equal(t, 150.0, obs[0].Value)
	assert.Equal(t, "pg/mL", obs[0].Units)
}

func TestObservationsQueryError(t *testing.T) {
	t.Parallel()

	mock, _, tests := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM blood_tests")).WillReturnError(errors.New("connection refused"))

	_, err := tests().Observations(context.Background(), uuid.New(), domain.ClassEstradiol)
	assert.Error(t, err)
}

func TestMigrationFiles(t *testing.T) {
	t.Parallel()

	files, err := postgres.MigrationFiles()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.True(t, strings.HasSuffix(files[0], "_create_users.sql"))
	assert.True(t, strings.HasSuffix(files[1], "_create_blood_tests.sql"))

	err = postgres.Migrate(context.Background(), nil, "sideways", nil)
	assert.ErrorIs(t, err, postgres.ErrUnknownMigrationCommand)
}
