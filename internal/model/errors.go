package model

import (
	"errors"
	"fmt"
)

// ValidationError marks a single malformed transaction. The item is skipped
// and the rest of the batch continues.
type ValidationError struct {
	TransactionID int64
	TrackingCode  string
	Field         string
	Message       string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("transaction %d (%s): %s: %s", e.TransactionID, e.TrackingCode, e.Field, e.Message)
}

// ErrClassificationAmbiguous means no tier produced a confident answer.
// The decision falls to Unknown; it never blocks the batch.
var ErrClassificationAmbiguous = errors.New("no classification tier produced a confident decision")

// ItemError is one isolated per-transaction failure reported alongside the
// batch result.
type ItemError struct {
	TransactionID int64  `json:"transaction_id"`
	TrackingCode  string `json:"tracking_code"`
	Error         string `json:"error"`
}

// BatchResult is what the caller gets back for one submission batch.
type BatchResult struct {
	Success                bool        `json:"success"`
	DocID                  *int64      `json:"doc_id,omitempty"`
	Error                  string      `json:"error,omitempty"`
	RetrySafe              bool        `json:"retry_safe,omitempty"`
	ProcessedTrackingCodes []string    `json:"processed_tracking_codes"`
	ItemErrors             []ItemError `json:"item_errors,omitempty"`
}
