// internal/registration/store_test.go
package registration

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garage-backoffice/internal/common/database"
	"garage-backoffice/internal/common/errors"
	"garage-backoffice/internal/common/logger"
	"garage-backoffice/internal/lookup"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewPostgresStore(&database.PostgresClient{DB: db}, logger.NewTestLogger(t))
	return store, mock
}

func expectNotify(mock sqlmock.Sqlmock) {
	mock.ExpectExec(`SELECT pg_notify`).
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestCreate_ForcesPendingStatus(t *testing.T) {
	store, mock := newMockStore(t)

	var insertedStatus string
	mock.ExpectExec(`INSERT INTO registrations`).
		WithArgs(
			sqlmock.AnyArg(), // id
			"user-1",
			statusCapture(&insertedStatus),
			"CHANGEMENT DE TITULAIRE",
			sqlmock.AnyArg(), // vehicle json
			"204.76",
			"49.00",
			"client@example.com",
			"0612345678",
			sqlmock.AnyArg(), // documents json
			sqlmock.AnyArg(), // timestamps
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectNotify(mock)

	rec := &Record{
		Status:       StatusCompleted, // caller-supplied status must be ignored
		ServiceKey:   "CHANGEMENT DE TITULAIRE",
		Vehicle:      lookup.VehicleInfo{Make: "RENAULT", Plate: "AB-123-CD"},
		TaxAmount:    decimal.RequireFromString("204.76"),
		ServiceFee:   decimal.NewFromInt(49),
		ContactEmail: "client@example.com",
		ContactPhone: "0612345678",
		Documents:    map[string]string{"carte_grise": "https://bucket/cg.pdf"},
	}

	id, err := store.Create(context.Background(), "user-1", rec)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, string(StatusPending), insertedStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// statusCapture records the status argument the INSERT received.
func statusCapture(dest *string) sqlmock.Argument {
	return argFunc(func(v driver.Value) bool {
		s, ok := v.(string)
		if ok {
			*dest = s
		}
		return ok
	})
}

type argFunc func(driver.Value) bool

func (f argFunc) Match(v driver.Value) bool { return f(v) }

func TestAttachDocument_MergesSingleKey(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE registrations\s+SET documents = documents \|\| jsonb_build_object`).
		WithArgs("reg-1", "carte_grise", "https://bucket/cg.pdf", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectNotify(mock)

	err := store.AttachDocument(context.Background(), "reg-1", "carte_grise", "https://bucket/cg.pdf")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachDocument_UnknownRecord(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE registrations`).
		WithArgs("missing", "carte_grise", "https://bucket/cg.pdf", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.AttachDocument(context.Background(), "missing", "carte_grise", "https://bucket/cg.pdf")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRecordNotFound))
}

func recordRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "status", "service_key", "vehicle_info",
		"tax_amount", "service_fee", "contact_email", "contact_phone",
		"documents", "created_at", "updated_at",
	})
	now := time.Now().UTC()
	for i, id := range ids {
		rows.AddRow(
			id, "user-1", "pending", "CHANGEMENT DE TITULAIRE",
			[]byte(`{"make":"RENAULT","plate":"AB-123-CD"}`),
			"204.76", "49.00", "client@example.com", "0612345678",
			[]byte(`{"carte_grise":"https://bucket/cg.pdf"}`),
			now.Add(-time.Duration(i)*time.Hour), now,
		)
	}
	return rows
}

func TestListByUser_OrdersNewestFirst(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM registrations\s+WHERE user_id = \$1\s+ORDER BY created_at DESC`).
		WithArgs("user-1").
		WillReturnRows(recordRows("reg-2", "reg-1"))

	records, err := store.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "reg-2", records[0].ID)
	assert.Equal(t, "RENAULT", records[0].Vehicle.Make)
	assert.Equal(t, "204.76", records[0].TaxAmount.StringFixed(2))
	assert.Equal(t, "https://bucket/cg.pdf", records[0].Documents["carte_grise"])
}

func TestListAll_AppliesPagination(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM registrations\s+ORDER BY created_at DESC\s+LIMIT \$1 OFFSET \$2`).
		WithArgs(25, 50).
		WillReturnRows(recordRows("reg-9"))

	records, err := store.ListAll(context.Background(), 25, 50)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSetStatus_UnconditionalOverwrite(t *testing.T) {
	store, mock := newMockStore(t)

	// completed back to pending is allowed, there is no transition guard
	mock.ExpectExec(`UPDATE registrations\s+SET status = \$2`).
		WithArgs("reg-1", "pending", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectNotify(mock)

	err := store.SetStatus(context.Background(), "reg-1", StatusPending)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatus_RejectsUnknownStatus(t *testing.T) {
	store, _ := newMockStore(t)

	err := store.SetStatus(context.Background(), "reg-1", Status("archived"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
}
