package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"RahkaranSync/internal/model"
)

// loadUnsettledTransactions fetches every transaction without a posted
// voucher. rahkaran_doc_id is the sole settle marker, so this query is also
// what makes retries safe: an errored transaction keeps NULL and comes back
// in the next batch.
func loadUnsettledTransactions(ctx context.Context, db *pgxpool.Pool, limit int) ([]model.Transaction, error) {
	rows, err := db.Query(ctx, `
		SELECT id, txn_date, COALESCE(txn_time, ''), direction, amount,
		       COALESCE(raw_description, ''), COALESCE(counterparty_guess, ''),
		       COALESCE(tracking_code, ''), COALESCE(host_bank_code, '')
		FROM bank_transactions
		WHERE rahkaran_doc_id IS NULL
		ORDER BY txn_date ASC, id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsettled transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var dir string
		if err := rows.Scan(&t.ID, &t.Date, &t.Time, &dir, &t.Amount,
			&t.RawDescription, &t.CounterpartyGuess, &t.TrackingCode, &t.HostBankCode); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		t.Direction = model.Direction(dir)
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// settledDedupKeys returns tracking_code|amount keys of already posted
// transactions, the caller-side duplicate-prevention key.
func settledDedupKeys(ctx context.Context, db *pgxpool.Pool) (map[string]struct{}, error) {
	rows, err := db.Query(ctx, `
		SELECT COALESCE(tracking_code, ''), amount
		FROM bank_transactions
		WHERE rahkaran_doc_id IS NOT NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settled keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.TrackingCode, &t.Amount); err != nil {
			return nil, err
		}
		if t.TrackingCode != "" {
			keys[t.DedupKey()] = struct{}{}
		}
	}
	return keys, rows.Err()
}

// InsertTransactions stores an incoming batch and returns the assigned ids.
func InsertTransactions(ctx context.Context, db *pgxpool.Pool, batchID string, txns []model.Transaction) ([]int64, error) {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ids := make([]int64, 0, len(txns))
	for _, t := range txns {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO bank_transactions
				(txn_date, txn_time, direction, amount, raw_description,
				 counterparty_guess, tracking_code, host_bank_code, batch_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id
		`, t.Date, t.Time, string(t.Direction), t.Amount, t.RawDescription,
			t.CounterpartyGuess, t.TrackingCode, t.HostBankCode, batchID, time.Now()).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to insert transaction %s: %w", t.TrackingCode, err)
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return ids, nil
}

// markSettled writes the confirmed document id onto every source
// transaction in one bulk UPDATE. Only called after the proxy reported an
// explicit success with a document id.
func markSettled(ctx context.Context, db *sql.DB, txnIDs []int64, docID int64) error {
	if len(txnIDs) == 0 {
		return nil
	}
	query := `
		UPDATE bank_transactions AS t
		SET rahkaran_doc_id = $1
		FROM (SELECT unnest($2::bigint[]) AS txn_id) AS u
		WHERE t.id = u.txn_id
	`
	if _, err := db.ExecContext(ctx, query, docID, pq.Array(txnIDs)); err != nil {
		return fmt.Errorf("failed to mark %d transactions settled: %w", len(txnIDs), err)
	}
	return nil
}

// LoadUnresolved fetches classified-but-unknown transactions for the manual
// review export.
func LoadUnresolved(ctx context.Context, db *pgxpool.Pool) ([]model.Transaction, error) {
	rows, err := db.Query(ctx, `
		SELECT id, txn_date, COALESCE(txn_time, ''), direction, amount,
		       COALESCE(raw_description, ''), COALESCE(counterparty_guess, ''),
		       COALESCE(tracking_code, ''), COALESCE(host_bank_code, '')
		FROM bank_transactions
		WHERE rahkaran_doc_id IS NULL
		ORDER BY txn_date DESC, id DESC
		LIMIT 5000
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query unresolved transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var dir string
		if err := rows.Scan(&t.ID, &t.Date, &t.Time, &dir, &t.Amount,
			&t.RawDescription, &t.CounterpartyGuess, &t.TrackingCode, &t.HostBankCode); err != nil {
			return nil, err
		}
		t.Direction = model.Direction(dir)
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
