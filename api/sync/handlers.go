package sync

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"RahkaranSync/api/constants"
	"RahkaranSync/internal/jobs"
	"RahkaranSync/internal/model"
	"RahkaranSync/internal/normalize"

	"github.com/google/uuid"
)

// inboundTransaction is the wire form of one extracted statement row. Dates
// arrive as raw strings (Jalali or Gregorian, possibly Persian digits) and
// are normalized before storage.
type inboundTransaction struct {
	Date              string `json:"date"`
	Time              string `json:"time"`
	Direction         string `json:"direction"`
	Amount            int64  `json:"amount"`
	Description       string `json:"description"`
	CounterpartyGuess string `json:"counterparty_name_guess"`
	TrackingCode      string `json:"tracking_code"`
	HostBankCode      string `json:"host_bank_code"`
}

func (in inboundTransaction) toModel(opts normalize.Options) (model.Transaction, bool) {
	t := model.Transaction{
		Time:              in.Time,
		Direction:         model.Direction(strings.ToLower(strings.TrimSpace(in.Direction))),
		Amount:            in.Amount,
		RawDescription:    in.Description,
		CounterpartyGuess: in.CounterpartyGuess,
		TrackingCode:      normalize.Digits(in.TrackingCode),
		HostBankCode:      normalize.Digits(in.HostBankCode),
	}
	if _, ok := normalize.Date(in.Date, opts); !ok && !opts.DefaultBadDatesToToday {
		return t, false
	}
	t.Date = normalize.DateOrToday(in.Date, opts)
	return t, true
}

// IngestTransactions handles POST /sync/transactions: store a JSON batch of
// extracted rows, then run the sync pipeline over everything unsettled.
func IngestTransactions(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req struct {
			Transactions []inboundTransaction `json:"transactions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, constants.ErrInvalidJSONShort, http.StatusBadRequest)
			return
		}
		if len(req.Transactions) == 0 {
			http.Error(w, constants.ErrEmptyBatch, http.StatusBadRequest)
			return
		}

		batchID := uuid.New().String()
		txns := make([]model.Transaction, 0, len(req.Transactions))
		var skipped []model.ItemError
		for _, in := range req.Transactions {
			t, ok := in.toModel(deps.Normalize)
			if !ok {
				skipped = append(skipped, model.ItemError{
					TrackingCode: t.TrackingCode,
					Error:        "unparseable transaction date: " + in.Date,
				})
				continue
			}
			txns = append(txns, t)
		}
		if len(txns) > 0 {
			if _, err := jobs.InsertTransactions(ctx, deps.Pool, batchID, txns); err != nil {
				http.Error(w, constants.ErrDB+": "+err.Error(), http.StatusInternalServerError)
				return
			}
		}

		summary, err := deps.Cron.Trigger(ctx)
		if err != nil {
			if errors.Is(err, jobs.ErrSyncBusy) {
				http.Error(w, constants.ErrSyncInProgress, http.StatusConflict)
				return
			}
			http.Error(w, constants.ErrSyncFailed+": "+err.Error(), http.StatusInternalServerError)
			return
		}
		summary.Skipped = append(summary.Skipped, skipped...)

		w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":  summary.Success,
			"batch_id": batchID,
			"stored":   len(txns),
			"vouchers": summary.Vouchers,
			"skipped":  summary.Skipped,
		})
	}
}

// RunSync handles POST /sync/run: trigger the nightly pipeline immediately.
// A second trigger while one is running gets a conflict, not a queue slot.
func RunSync(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := deps.Cron.Trigger(r.Context())
		if err != nil {
			if errors.Is(err, jobs.ErrSyncBusy) {
				http.Error(w, constants.ErrSyncInProgress, http.StatusConflict)
				return
			}
			http.Error(w, constants.ErrSyncFailed+": "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(summary)
	}
}
