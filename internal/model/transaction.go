package model

import (
	"strconv"
	"time"
)

// Direction of money movement from the host account's point of view.
type Direction string

const (
	DirectionDeposit    Direction = "deposit"
	DirectionWithdrawal Direction = "withdrawal"
)

// Transaction is one raw bank-statement row handed over by the upstream
// extraction service. Immutable once it enters the pipeline.
type Transaction struct {
	ID                int64     `json:"id"`
	Date              time.Time `json:"date"`
	Time              string    `json:"time"`
	Direction         Direction `json:"direction"`
	Amount            int64     `json:"amount"`
	RawDescription    string    `json:"description"`
	CounterpartyGuess string    `json:"counterparty_name_guess"`
	TrackingCode      string    `json:"tracking_code"`
	HostBankCode      string    `json:"host_bank_code"`

	// RahkaranDocID is set only after the remote ledger confirmed the voucher.
	// It is the sole settle/idempotency marker for a transaction.
	RahkaranDocID *int64 `json:"rahkaran_doc_id,omitempty"`

	BatchID string `json:"batch_id,omitempty"`
}

// Settled reports whether this transaction already has a posted voucher.
func (t Transaction) Settled() bool {
	return t.RahkaranDocID != nil && *t.RahkaranDocID > 0
}

// DedupKey is the duplicate-prevention key used when the same statement is
// submitted twice: tracking code plus amount.
func (t Transaction) DedupKey() string {
	return t.TrackingCode + "|" + strconv.FormatInt(t.Amount, 10)
}
