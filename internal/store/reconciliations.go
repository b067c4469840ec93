package store

import (
	"context"
	"database/sql"
	"fmt"

	"book-stock-service/internal/models"
)

// ReconcileSale applies a sale to the stock ledger exactly once.
//
// The reservation insert, the guarded stock decrement, and the terminal
// outcome all commit in one transaction, so a committed sale_reconciliations
// row is always terminal. Two concurrent attempts for the same sale id
// serialize on the primary key: the loser's insert affects zero rows and the
// winner's committed outcome is returned with replayed=true.
//
// A non-nil error means nothing was committed for this attempt (transient
// failure, safe to retry on redelivery or the next poll cycle). Business
// rejections such as an unknown book or insufficient stock are not errors;
// they commit as an ERROR outcome.
func (s *Store) ReconcileSale(ctx context.Context, saleID, isbn string, quantity int) (*models.SaleReconciliation, bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO sale_reconciliations (sale_id, status, message) VALUES ($1, $2, '') ON CONFLICT (sale_id) DO NOTHING",
		saleID, models.StatusPending)
	if err != nil {
		return nil, false, fmt.Errorf("failed to reserve sale %s: %w", saleID, err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	if inserted == 0 {
		var existing models.SaleReconciliation
		err := tx.GetContext(ctx, &existing,
			"SELECT * FROM sale_reconciliations WHERE sale_id = $1", saleID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to load outcome for sale %s: %w", saleID, err)
		}
		return &existing, true, nil
	}

	status := models.StatusCompleted
	message := "stock decremented"

	if quantity <= 0 {
		status = models.StatusError
		message = fmt.Sprintf("%v: %d", ErrInvalidQuantity, quantity)
	} else {
		var stock int
		err = tx.GetContext(ctx, &stock,
			"SELECT stock FROM books WHERE isbn = $1 FOR UPDATE", isbn)
		switch {
		case err == sql.ErrNoRows:
			status = models.StatusError
			message = fmt.Sprintf("%v: %s", ErrBookNotFound, isbn)
		case err != nil:
			return nil, false, fmt.Errorf("failed to lock book %s: %w", isbn, err)
		case stock < quantity:
			status = models.StatusError
			message = fmt.Sprintf("%v: available=%d, requested=%d", ErrInsufficientStock, stock, quantity)
		default:
			_, err = tx.ExecContext(ctx,
				"UPDATE books SET stock = stock - $1, updated_at = NOW() WHERE isbn = $2",
				quantity, isbn)
			if err != nil {
				return nil, false, fmt.Errorf("failed to decrement stock for book %s: %w", isbn, err)
			}
		}
	}

	var rec models.SaleReconciliation
	err = tx.GetContext(ctx, &rec,
		"UPDATE sale_reconciliations SET status = $1, message = $2, reconciled_at = NOW() WHERE sale_id = $3 RETURNING *",
		status, message, saleID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to record outcome for sale %s: %w", saleID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit reconciliation of sale %s: %w", saleID, err)
	}
	return &rec, false, nil
}

// GetReconciliation retrieves the recorded outcome for a sale, or nil if the
// sale has never been reconciled.
func (s *Store) GetReconciliation(ctx context.Context, saleID string) (*models.SaleReconciliation, error) {
	var rec models.SaleReconciliation
	err := s.db.GetContext(ctx, &rec,
		"SELECT * FROM sale_reconciliations WHERE sale_id = $1", saleID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
