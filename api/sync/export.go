package sync

import (
	"fmt"
	"net/http"
	"time"

	"RahkaranSync/api/constants"
	"RahkaranSync/internal/jobs"

	"github.com/xuri/excelize/v2"
)

// ExportUnresolved handles GET /sync/unresolved/export: an xlsx workbook of
// transactions still waiting for a posted voucher, for manual review.
func ExportUnresolved(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		txns, err := jobs.LoadUnresolved(r.Context(), deps.Pool)
		if err != nil {
			http.Error(w, constants.ErrFailedToQuery+": "+err.Error(), http.StatusInternalServerError)
			return
		}

		f := excelize.NewFile()
		defer f.Close()
		sheet := f.GetSheetName(0)

		header := []interface{}{
			"ID", "Date", "Time", "Direction", "Amount",
			"Description", "Counterparty", "Tracking Code", "Host Bank",
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			http.Error(w, constants.ErrExportFailed, http.StatusInternalServerError)
			return
		}
		for i, t := range txns {
			row := []interface{}{
				t.ID,
				t.Date.Format(constants.DateFormat),
				t.Time,
				string(t.Direction),
				t.Amount,
				t.RawDescription,
				t.CounterpartyGuess,
				t.TrackingCode,
				t.HostBankCode,
			}
			addr := fmt.Sprintf("A%d", i+2)
			if err := f.SetSheetRow(sheet, addr, &row); err != nil {
				http.Error(w, constants.ErrExportFailed, http.StatusInternalServerError)
				return
			}
		}

		fname := fmt.Sprintf("unresolved_transactions_%s.xlsx", time.Now().Format("20060102_150405"))
		w.Header().Set(constants.ContentTypeText, constants.ContentTypeXLSX)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", fname))
		if err := f.Write(w); err != nil {
			http.Error(w, constants.ErrExportFailed, http.StatusInternalServerError)
			return
		}
	}
}
