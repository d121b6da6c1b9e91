package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/settlement-go/internal/models"
	"github.com/mmynk/settlement-go/internal/storage"
	"github.com/mmynk/settlement-go/pkg/settlement"
)

const settlementColumns = `id, merchant_id, settlement_account_id, amount, remarks, txn_id,
	status, created_at, updated_at`

// CreateSettlement debits the merchant and persists a pending settlement.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, stl *models.Settlement, limits storage.Limits) error {
	if stl.ID == "" {
		stl.ID = "stl_" + uuid.New().String()
	}
	if stl.CreatedAt == 0 {
		stl.CreatedAt = s.now().Unix()
	}
	stl.UpdatedAt = stl.CreatedAt
	stl.Status = settlement.StatusPending

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if stl.TxnID != "" {
		var exists int
		err := tx.QueryRowContext(ctx,
			"SELECT 1 FROM settlements WHERE merchant_id = ? AND txn_id = ?",
			stl.MerchantID, stl.TxnID,
		).Scan(&exists)
		if err == nil {
			return storage.ErrDuplicateTxn
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("failed to check txnId: %w", err)
		}
	}

	balance, err := balanceTx(ctx, tx, stl.MerchantID, limits.OpeningBalance)
	if err != nil {
		return err
	}
	if balance.LessThan(stl.Amount) {
		return storage.ErrInsufficientBalance
	}

	if limits.DailyLimit.IsPositive() {
		spent, err := s.spentOn(ctx, tx, stl.MerchantID, time.Unix(stl.CreatedAt, 0))
		if err != nil {
			return err
		}
		if spent.Add(stl.Amount).GreaterThan(limits.DailyLimit) {
			return storage.ErrDailyLimit
		}
	}

	if err := setBalanceTx(ctx, tx, stl.MerchantID, balance.Sub(stl.Amount)); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO settlements (`+settlementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stl.ID, stl.MerchantID, stl.SettlementAccountID, stl.Amount.String(),
		nullIfEmpty(stl.Remarks), nullIfEmpty(stl.TxnID),
		string(stl.Status), stl.CreatedAt, stl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// spentOn sums the merchant's non-failed settlements on the UTC day of at.
func (s *SQLiteStore) spentOn(ctx context.Context, tx *sql.Tx, merchantID string, at time.Time) (decimal.Decimal, error) {
	day := at.UTC().Truncate(24 * time.Hour)
	rows, err := tx.QueryContext(ctx,
		`SELECT amount FROM settlements
		 WHERE merchant_id = ? AND created_at >= ? AND created_at < ? AND status != ?`,
		merchantID, day.Unix(), day.Add(24*time.Hour).Unix(), string(settlement.StatusFailed),
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum daily settlements: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan amount: %w", err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("corrupt settlement amount %q: %w", raw, err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to iterate amounts: %w", err)
	}
	return total, nil
}

// GetSettlement retrieves a settlement by ID.
func (s *SQLiteStore) GetSettlement(ctx context.Context, merchantID, settlementID string) (*models.Settlement, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE merchant_id = ? AND id = ?`,
		merchantID, settlementID,
	)
	stl, err := scanSettlement(row)
	if err != nil {
		return nil, notFound(err, "settlement", settlementID)
	}
	return stl, nil
}

// GetSettlementByTxnID retrieves a settlement by the caller's idempotency key.
func (s *SQLiteStore) GetSettlementByTxnID(ctx context.Context, merchantID, txnID string) (*models.Settlement, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE merchant_id = ? AND txn_id = ?`,
		merchantID, txnID,
	)
	stl, err := scanSettlement(row)
	if err != nil {
		return nil, notFound(err, "settlement with txnId", txnID)
	}
	return stl, nil
}

// ListSettlements retrieves the merchant's settlements, newest first.
func (s *SQLiteStore) ListSettlements(ctx context.Context, merchantID string, filter storage.ListFilter) ([]*models.Settlement, error) {
	where := []string{"merchant_id = ?"}
	args := []any{merchantID}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.SettlementAccountID != "" {
		where = append(where, "settlement_account_id = ?")
		args = append(args, filter.SettlementAccountID)
	}

	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	settlements := []*models.Settlement{}
	for rows.Next() {
		stl, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, stl)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}

// AdvanceSettlement moves a settlement one step along its lifecycle. Reaching
// failed refunds the amount.
func (s *SQLiteStore) AdvanceSettlement(ctx context.Context, merchantID, settlementID string) (*models.Settlement, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stl, err := scanSettlement(tx.QueryRowContext(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE merchant_id = ? AND id = ?`,
		merchantID, settlementID,
	))
	if err != nil {
		return nil, notFound(err, "settlement", settlementID)
	}
	if stl.Status.IsTerminal() {
		return stl, nil
	}

	var deletedAt int64
	if err := tx.QueryRowContext(ctx,
		"SELECT deleted_at FROM accounts WHERE id = ?", stl.SettlementAccountID,
	).Scan(&deletedAt); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read settlement account: %w", err)
	}

	stl.Status = models.Next(stl.Status, deletedAt != 0)
	stl.UpdatedAt = s.now().Unix()

	if _, err := tx.ExecContext(ctx,
		"UPDATE settlements SET status = ?, updated_at = ? WHERE id = ?",
		string(stl.Status), stl.UpdatedAt, stl.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to update settlement status: %w", err)
	}

	if stl.Status == settlement.StatusFailed {
		balance, err := balanceTx(ctx, tx, merchantID, decimal.Zero)
		if err != nil {
			return nil, err
		}
		if err := setBalanceTx(ctx, tx, merchantID, balance.Add(stl.Amount)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return stl, nil
}

func scanSettlement(row interface{ Scan(...any) error }) (*models.Settlement, error) {
	stl := &models.Settlement{}
	var amount, status string
	var remarks, txnID sql.NullString
	if err := row.Scan(
		&stl.ID, &stl.MerchantID, &stl.SettlementAccountID, &amount, &remarks, &txnID,
		&status, &stl.CreatedAt, &stl.UpdatedAt,
	); err != nil {
		return nil, err
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("corrupt settlement amount %q: %w", amount, err)
	}
	stl.Amount = parsed
	stl.Status = settlement.Status(status)
	if remarks.Valid {
		stl.Remarks = remarks.String
	}
	if txnID.Valid {
		stl.TxnID = txnID.String
	}
	return stl, nil
}
