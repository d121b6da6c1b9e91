package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/settlement-go/internal/models"
	"github.com/mmynk/settlement-go/internal/storage"
	"github.com/mmynk/settlement-go/pkg/settlement"
)

const accountColumns = `id, merchant_id, nickname, type, account_number, ifsc_code,
	account_holder_name, virtual_address, approved, created_at, deleted_at`

// CreateAccount persists a new account after checking for a live duplicate.
func (s *SQLiteStore) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = "acc_" + uuid.New().String()
	}
	if account.CreatedAt == 0 {
		account.CreatedAt = s.now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var dupQuery string
	var dupArgs []any
	if account.Type == settlement.AccountTypeVPA {
		dupQuery = `SELECT 1 FROM accounts
			WHERE merchant_id = ? AND deleted_at = 0 AND type = 'vpa' AND virtual_address = ?`
		dupArgs = []any{account.MerchantID, account.VirtualAddress}
	} else {
		dupQuery = `SELECT 1 FROM accounts
			WHERE merchant_id = ? AND deleted_at = 0 AND type = 'bank_account'
			AND account_number = ? AND ifsc_code = ?`
		dupArgs = []any{account.MerchantID, account.AccountNumber, account.IfscCode}
	}

	var exists int
	err = tx.QueryRowContext(ctx, dupQuery, dupArgs...).Scan(&exists)
	if err == nil {
		return storage.ErrDuplicateAccount
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check duplicate account: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		account.ID, account.MerchantID, account.Nickname, string(account.Type),
		account.AccountNumber, account.IfscCode, account.AccountHolderName, account.VirtualAddress,
		account.Approved, account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetAccount retrieves an account by ID, removed or not.
func (s *SQLiteStore) GetAccount(ctx context.Context, merchantID, accountID string) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE merchant_id = ? AND id = ?`,
		merchantID, accountID,
	)
	account, err := scanAccount(row)
	if err != nil {
		return nil, notFound(err, "account", accountID)
	}
	return account, nil
}

// CountAccounts counts the merchant's live accounts.
func (s *SQLiteStore) CountAccounts(ctx context.Context, merchantID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM accounts WHERE merchant_id = ? AND deleted_at = 0",
		merchantID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return n, nil
}

// DeleteAccount marks a live account as removed.
func (s *SQLiteStore) DeleteAccount(ctx context.Context, merchantID, accountID string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE accounts SET deleted_at = ? WHERE merchant_id = ? AND id = ? AND deleted_at = 0",
		s.now().Unix(), merchantID, accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
	}
	return nil
}

func scanAccount(row interface{ Scan(...any) error }) (*models.Account, error) {
	account := &models.Account{}
	var accountType string
	if err := row.Scan(
		&account.ID, &account.MerchantID, &account.Nickname, &accountType,
		&account.AccountNumber, &account.IfscCode, &account.AccountHolderName, &account.VirtualAddress,
		&account.Approved, &account.CreatedAt, &account.DeletedAt,
	); err != nil {
		return nil, err
	}
	account.Type = settlement.AccountType(accountType)
	return account, nil
}
