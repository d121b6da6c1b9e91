package sqlite

import "database/sql"

// schema runs on startup to ensure tables exist. Amounts are TEXT so decimal
// values round-trip exactly.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    merchant_id TEXT NOT NULL,
    nickname TEXT NOT NULL,
    type TEXT NOT NULL CHECK (type IN ('vpa', 'bank_account')),
    account_number TEXT NOT NULL DEFAULT '',
    ifsc_code TEXT NOT NULL DEFAULT '',
    account_holder_name TEXT NOT NULL DEFAULT '',
    virtual_address TEXT NOT NULL DEFAULT '',
    approved INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL,
    deleted_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS settlements (
    id TEXT PRIMARY KEY,
    merchant_id TEXT NOT NULL,
    settlement_account_id TEXT NOT NULL,
    amount TEXT NOT NULL,
    remarks TEXT,
    txn_id TEXT,
    status TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (settlement_account_id) REFERENCES accounts(id)
);

CREATE TABLE IF NOT EXISTS balances (
    merchant_id TEXT PRIMARY KEY,
    balance TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounts_merchant ON accounts(merchant_id, deleted_at);
CREATE INDEX IF NOT EXISTS idx_settlements_merchant ON settlements(merchant_id, created_at);
CREATE INDEX IF NOT EXISTS idx_settlements_account ON settlements(settlement_account_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_settlements_txn ON settlements(merchant_id, txn_id) WHERE txn_id IS NOT NULL;
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
