package validation

import (
	"RahkaranSync/internal/model"
)

// Transaction runs the structural checks every statement row must pass
// before it may enter classification. Failures come back as
// *model.ValidationError so callers can skip the row and keep the batch.
func Transaction(t model.Transaction) error {
	if t.Amount <= 0 {
		return &model.ValidationError{TransactionID: t.ID, TrackingCode: t.TrackingCode,
			Field: "amount", Message: "must be positive"}
	}
	if !ValidDirection(string(t.Direction)) {
		return &model.ValidationError{TransactionID: t.ID, TrackingCode: t.TrackingCode,
			Field: "direction", Message: "must be deposit or withdrawal"}
	}
	if t.Date.IsZero() {
		return &model.ValidationError{TransactionID: t.ID, TrackingCode: t.TrackingCode,
			Field: "date", Message: "missing"}
	}
	return nil
}

// ValidDirection reports whether s is one of the two accepted directions.
func ValidDirection(s string) bool {
	return s == string(model.DirectionDeposit) || s == string(model.DirectionWithdrawal)
}

// Batch validates a whole slice, returning the indexes that passed and one
// ItemError per rejected row.
func Batch(txns []model.Transaction) (ok []model.Transaction, rejected []model.ItemError) {
	for _, t := range txns {
		if err := Transaction(t); err != nil {
			rejected = append(rejected, model.ItemError{
				TransactionID: t.ID,
				TrackingCode:  t.TrackingCode,
				Error:         err.Error(),
			})
			continue
		}
		ok = append(ok, t)
	}
	return ok, rejected
}
