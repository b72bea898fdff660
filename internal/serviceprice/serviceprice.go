// internal/serviceprice/serviceprice.go
package serviceprice

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"garage-backoffice/internal/common/database"
	"garage-backoffice/internal/common/errors"
	"garage-backoffice/internal/common/logger"
	"garage-backoffice/internal/pricing"
)

// Entry is one line of the public price table. PriceHT is authoritative;
// PriceTTC is recomputed from it on every write, whatever the caller sent.
type Entry struct {
	ID          string          `json:"id"`
	ServiceName string          `json:"serviceName"`
	PriceHT     decimal.Decimal `json:"priceExcludingTax"`
	PriceTTC    decimal.Decimal `json:"priceIncludingTax"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory,omitempty"`
	DisplayOrder int            `json:"displayOrder"`
	Description string          `json:"description,omitempty"`
}

// Editor is the admin write surface over the price table. DisplayOrder stays
// a dense 0-based sequence inside each (category, subcategory) group.
type Editor struct {
	db     *database.PostgresClient
	logger logger.Logger
}

func NewEditor(db *database.PostgresClient, log logger.Logger) *Editor {
	return &Editor{db: db, logger: log}
}

// Create inserts a new entry at the end of its group.
func (e *Editor) Create(ctx context.Context, entry *Entry) (string, error) {
	ttc, err := pricing.ToTaxInclusive(entry.PriceHT)
	if err != nil {
		return "", err
	}
	entry.PriceTTC = ttc
	entry.ID = uuid.New().String()

	query := `
		INSERT INTO service_prices (
			id, service_name, price_ht, price_ttc, category, subcategory,
			display_order, description, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			(SELECT COALESCE(MAX(display_order) + 1, 0)
			 FROM service_prices WHERE category = $5 AND subcategory = $6),
			$7, $8
		)`

	_, err = e.db.Exec(ctx, query,
		entry.ID, entry.ServiceName,
		entry.PriceHT.StringFixed(2), entry.PriceTTC.StringFixed(2),
		entry.Category, entry.Subcategory, entry.Description, time.Now().UTC(),
	)
	if err != nil {
		return "", errors.NewStorageError("create_service_price", err)
	}
	return entry.ID, nil
}

// Update rewrites an entry. The TTC price is always derived from the HT
// price; display order and grouping are not changed here.
func (e *Editor) Update(ctx context.Context, entry *Entry) error {
	ttc, err := pricing.ToTaxInclusive(entry.PriceHT)
	if err != nil {
		return err
	}
	entry.PriceTTC = ttc

	query := `
		UPDATE service_prices
		SET service_name = $2, price_ht = $3, price_ttc = $4, description = $5,
		    updated_at = $6
		WHERE id = $1`

	result, err := e.db.Exec(ctx, query,
		entry.ID, entry.ServiceName,
		entry.PriceHT.StringFixed(2), entry.PriceTTC.StringFixed(2),
		entry.Description, time.Now().UTC(),
	)
	if err != nil {
		return errors.NewStorageError("update_service_price", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewStorageError("update_service_price", err)
	}
	if affected == 0 {
		return errors.NewRecordNotFoundError("service_prices", entry.ID)
	}
	return nil
}

// Delete removes an entry and renumbers the remaining entries of its group
// back to a dense 0-based sequence, in one transaction.
func (e *Editor) Delete(ctx context.Context, id string) error {
	tx, err := e.db.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("delete_service_price", err)
	}
	defer tx.Rollback()

	var category, subcategory string
	err = tx.QueryRowContext(ctx,
		`DELETE FROM service_prices WHERE id = $1 RETURNING category, subcategory`, id).
		Scan(&category, &subcategory)
	if err == sql.ErrNoRows {
		return errors.NewRecordNotFoundError("service_prices", id)
	}
	if err != nil {
		return errors.NewStorageError("delete_service_price", err)
	}

	// remaining entries keep their relative order and get order = index
	renumber := `
		UPDATE service_prices sp
		SET display_order = ranked.new_order
		FROM (
			SELECT id, ROW_NUMBER() OVER (ORDER BY display_order) - 1 AS new_order
			FROM service_prices
			WHERE category = $1 AND subcategory = $2
		) ranked
		WHERE sp.id = ranked.id`

	if _, err := tx.ExecContext(ctx, renumber, category, subcategory); err != nil {
		return errors.NewStorageError("renumber_service_prices", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorageError("delete_service_price", err)
	}

	e.logger.Info("Service price deleted and group renumbered", map[string]interface{}{
		"entry_id":    id,
		"category":    category,
		"subcategory": subcategory,
	})
	return nil
}

// List returns the whole table ordered for display.
func (e *Editor) List(ctx context.Context) ([]Entry, error) {
	query := `
		SELECT id, service_name, price_ht, price_ttc, category, subcategory,
		       display_order, description
		FROM service_prices
		ORDER BY category, subcategory, display_order`

	rows, err := e.db.Query(ctx, query)
	if err != nil {
		return nil, errors.NewStorageError("list_service_prices", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry    Entry
			priceHT  string
			priceTTC string
		)
		err := rows.Scan(&entry.ID, &entry.ServiceName, &priceHT, &priceTTC,
			&entry.Category, &entry.Subcategory, &entry.DisplayOrder, &entry.Description)
		if err != nil {
			return nil, errors.NewStorageError("list_service_prices", err)
		}
		if entry.PriceHT, err = decimal.NewFromString(priceHT); err != nil {
			return nil, errors.NewStorageError("list_service_prices", err)
		}
		if entry.PriceTTC, err = decimal.NewFromString(priceTTC); err != nil {
			return nil, errors.NewStorageError("list_service_prices", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("list_service_prices", err)
	}
	return entries, nil
}
