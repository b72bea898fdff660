// internal/registration/store.go
package registration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"garage-backoffice/internal/common/database"
	"garage-backoffice/internal/common/errors"
	"garage-backoffice/internal/common/logger"
	"garage-backoffice/internal/common/metrics"
)

// Store is the persistence capability for registration records.
type Store interface {
	Create(ctx context.Context, userID string, rec *Record) (string, error)
	Get(ctx context.Context, id string) (*Record, error)
	AttachDocument(ctx context.Context, id, documentType, url string) error
	ListByUser(ctx context.Context, userID string) ([]Record, error)
	ListAll(ctx context.Context, limit, offset int) ([]Record, error)
	SetStatus(ctx context.Context, id string, status Status) error
}

const notifyChannel = "registration_changes"

// PostgresStore persists registration records in the registrations table.
// Every mutation also raises a pg_notify event so admin views can follow a
// live change feed instead of polling.
type PostgresStore struct {
	db     *database.PostgresClient
	logger logger.Logger
}

func NewPostgresStore(db *database.PostgresClient, log logger.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: log}
}

// Create inserts the record in a single statement so readers never observe a
// partial row. Status is forced to pending regardless of what the caller
// supplied; createdAt and updatedAt are assigned here.
func (s *PostgresStore) Create(ctx context.Context, userID string, rec *Record) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	vehicleJSON, err := json.Marshal(rec.Vehicle)
	if err != nil {
		return "", errors.NewStorageError("create", fmt.Errorf("failed to marshal vehicle info: %w", err))
	}

	documents := rec.Documents
	if documents == nil {
		documents = map[string]string{}
	}
	documentsJSON, err := json.Marshal(documents)
	if err != nil {
		return "", errors.NewStorageError("create", fmt.Errorf("failed to marshal documents: %w", err))
	}

	query := `
		INSERT INTO registrations (
			id, user_id, status, service_key, vehicle_info,
			tax_amount, service_fee, contact_email, contact_phone,
			documents, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`

	_, err = s.db.Exec(ctx, query,
		id,
		userID,
		string(StatusPending),
		rec.ServiceKey,
		vehicleJSON,
		rec.TaxAmount.StringFixed(2),
		rec.ServiceFee.StringFixed(2),
		rec.ContactEmail,
		rec.ContactPhone,
		documentsJSON,
		now,
	)
	if err != nil {
		return "", errors.NewStorageError("create", err)
	}

	metrics.RegistrationsCreated.Inc()
	s.notify(ctx, ChangeEvent{Kind: ChangeCreated, RecordID: id, Status: StatusPending})

	s.logger.Info("Registration record created", map[string]interface{}{
		"registration_id": id,
		"user_id":         userID,
		"service_key":     rec.ServiceKey,
	})

	return id, nil
}

// Get loads a single record by id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRow(ctx, selectColumns+` FROM registrations WHERE id = $1`, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewRecordNotFoundError("registrations", id)
	}
	if err != nil {
		return nil, errors.NewStorageError("get", err)
	}
	return rec, nil
}

// AttachDocument merges one documentType/url pair into the documents map.
// The jsonb concatenation is per-key last-write-wins, so concurrent attaches
// for distinct document types never clobber each other.
func (s *PostgresStore) AttachDocument(ctx context.Context, id, documentType, url string) error {
	query := `
		UPDATE registrations
		SET documents = documents || jsonb_build_object($2::text, $3::text),
		    updated_at = $4
		WHERE id = $1`

	result, err := s.db.Exec(ctx, query, id, documentType, url, time.Now().UTC())
	if err != nil {
		return errors.NewStorageError("attach_document", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewStorageError("attach_document", err)
	}
	if affected == 0 {
		return errors.NewRecordNotFoundError("registrations", id)
	}

	s.notify(ctx, ChangeEvent{Kind: ChangeDocumentsAdded, RecordID: id})
	return nil
}

// ListByUser returns the user's records, newest first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Record, error) {
	query := selectColumns + `
		FROM registrations
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, errors.NewStorageError("list_by_user", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListAll returns all records, newest first, with limit/offset pagination.
func (s *PostgresStore) ListAll(ctx context.Context, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := selectColumns + `
		FROM registrations
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := s.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, errors.NewStorageError("list_all", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// SetStatus overwrites the status unconditionally. Any status may follow any
// other; the back office owns the workflow, not the store.
func (s *PostgresStore) SetStatus(ctx context.Context, id string, status Status) error {
	if !ValidStatus(status) {
		return errors.NewValidationFailedError(fmt.Sprintf("unknown status: %s", status))
	}

	query := `
		UPDATE registrations
		SET status = $2, updated_at = $3
		WHERE id = $1`

	result, err := s.db.Exec(ctx, query, id, string(status), time.Now().UTC())
	if err != nil {
		return errors.NewStorageError("set_status", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewStorageError("set_status", err)
	}
	if affected == 0 {
		return errors.NewRecordNotFoundError("registrations", id)
	}

	metrics.RegistrationStatusChanges.WithLabelValues(string(status)).Inc()
	s.notify(ctx, ChangeEvent{Kind: ChangeStatusUpdated, RecordID: id, Status: status})

	s.logger.Info("Registration status updated", map[string]interface{}{
		"registration_id": id,
		"status":          string(status),
	})

	return nil
}

// Subscribe returns the current snapshot plus a channel of change events, fed
// by LISTEN on the registrations notify channel. The channel closes when ctx
// is cancelled.
func (s *PostgresStore) Subscribe(ctx context.Context) ([]Record, <-chan ChangeEvent, error) {
	snapshot, err := s.ListAll(ctx, 200, 0)
	if err != nil {
		return nil, nil, err
	}

	pqListener, err := s.db.Listen(notifyChannel)
	if err != nil {
		return nil, nil, errors.NewStorageError("subscribe", err)
	}

	events := make(chan ChangeEvent, 16)
	go func() {
		defer close(events)
		defer pqListener.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-pqListener.Notify:
				if !ok {
					return
				}
				if n == nil {
					// reconnect marker from pq, nothing to deliver
					continue
				}
				var event ChangeEvent
				if err := json.Unmarshal([]byte(n.Extra), &event); err != nil {
					s.logger.Warn("Dropping malformed change notification", map[string]interface{}{
						"payload": n.Extra,
						"error":   err.Error(),
					})
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return snapshot, events, nil
}

func (s *PostgresStore) notify(ctx context.Context, event ChangeEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if _, err := s.db.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, string(payload)); err != nil {
		s.logger.Warn("Failed to publish change notification", map[string]interface{}{
			"kind":  event.Kind,
			"error": err.Error(),
		})
	}
}

// ==========================
// Row scanning
// ==========================

const selectColumns = `
	SELECT id, user_id, status, service_key, vehicle_info,
	       tax_amount, service_fee, contact_email, contact_phone,
	       documents, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec           Record
		status        string
		vehicleJSON   []byte
		documentsJSON []byte
		taxAmount     string
		serviceFee    string
	)

	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&status,
		&rec.ServiceKey,
		&vehicleJSON,
		&taxAmount,
		&serviceFee,
		&rec.ContactEmail,
		&rec.ContactPhone,
		&documentsJSON,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Status = Status(status)

	if err := json.Unmarshal(vehicleJSON, &rec.Vehicle); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vehicle info: %w", err)
	}
	if err := json.Unmarshal(documentsJSON, &rec.Documents); err != nil {
		return nil, fmt.Errorf("failed to unmarshal documents: %w", err)
	}
	if rec.TaxAmount, err = parseMoney(taxAmount); err != nil {
		return nil, err
	}
	if rec.ServiceFee, err = parseMoney(serviceFee); err != nil {
		return nil, err
	}

	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.NewStorageError("scan", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("scan", err)
	}
	return records, nil
}

func parseMoney(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid money value %q: %w", raw, err)
	}
	return value, nil
}
