package sync

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"RahkaranSync/api/constants"
	"RahkaranSync/internal/jobs"
	"RahkaranSync/internal/model"
	"RahkaranSync/internal/normalize"

	"github.com/extrame/xls"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

func getFileExt(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// parseStatementFile reads an uploaded workbook into [][]string. Legacy .xls
// files come through extrame/xls, everything newer through excelize.
func parseStatementFile(file multipart.File, ext string) ([][]string, error) {
	switch ext {
	case ".xlsx":
		f, err := excelize.OpenReader(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		sheet := f.GetSheetName(0)
		return f.GetRows(sheet)
	case ".xls":
		wb, err := xls.OpenReader(file, "utf-8")
		if err != nil {
			return nil, err
		}
		sheet := wb.GetSheet(0)
		if sheet == nil {
			return nil, errors.New("workbook has no sheets")
		}
		rows := make([][]string, 0, int(sheet.MaxRow)+1)
		for i := 0; i <= int(sheet.MaxRow); i++ {
			row := sheet.Row(i)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, 0, row.LastCol()+1)
			for j := 0; j <= row.LastCol(); j++ {
				cells = append(cells, row.Col(j))
			}
			rows = append(rows, cells)
		}
		return rows, nil
	}
	return nil, errors.New("unsupported file type")
}

// statement column headers, Persian first, English fallback
var headerAliases = map[string]string{
	"تاریخ":        "date",
	"ساعت":         "time",
	"شرح":          "description",
	"شرح تراکنش":   "description",
	"بدهکار":       "withdrawal",
	"برداشت":       "withdrawal",
	"بستانکار":     "deposit",
	"واریز":        "deposit",
	"نام طرف":      "counterparty",
	"نام طرف حساب": "counterparty",
	"شماره پیگیری": "tracking",
	"کد رهگیری":    "tracking",
	"date":         "date",
	"time":         "time",
	"description":  "description",
	"debit":        "withdrawal",
	"withdrawal":   "withdrawal",
	"credit":       "deposit",
	"deposit":      "deposit",
	"counterparty": "counterparty",
	"tracking":     "tracking",
}

func mapHeader(cells []string) map[string]int {
	cols := make(map[string]int)
	for i, c := range cells {
		key := strings.ToLower(normalize.Text(c))
		if field, ok := headerAliases[key]; ok {
			if _, taken := cols[field]; !taken {
				cols[field] = i
			}
		}
	}
	return cols
}

func cell(row []string, cols map[string]int, field string) string {
	i, ok := cols[field]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// rowToTransaction converts one data row. Direction comes from whichever of
// the deposit/withdrawal amount columns is non-zero.
func rowToTransaction(row []string, cols map[string]int, hostBankCode string, opts normalize.Options) (model.Transaction, error) {
	amountOf := func(field string) int64 {
		digits := normalize.OnlyDigits(cell(row, cols, field))
		if digits == "" {
			return 0
		}
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return 0
		}
		return n
	}

	deposit := amountOf("deposit")
	withdrawal := amountOf("withdrawal")

	t := model.Transaction{
		Time:              normalize.Digits(cell(row, cols, "time")),
		RawDescription:    cell(row, cols, "description"),
		CounterpartyGuess: cell(row, cols, "counterparty"),
		TrackingCode:      normalize.OnlyDigits(cell(row, cols, "tracking")),
		HostBankCode:      hostBankCode,
	}
	switch {
	case deposit > 0 && withdrawal == 0:
		t.Direction = model.DirectionDeposit
		t.Amount = deposit
	case withdrawal > 0 && deposit == 0:
		t.Direction = model.DirectionWithdrawal
		t.Amount = withdrawal
	default:
		return t, errors.New("row has no usable deposit or withdrawal amount")
	}

	rawDate := cell(row, cols, "date")
	if _, ok := normalize.Date(rawDate, opts); !ok && !opts.DefaultBadDatesToToday {
		return t, errors.New("unparseable transaction date: " + rawDate)
	}
	t.Date = normalize.DateOrToday(rawDate, opts)
	return t, nil
}

// UploadStatement handles POST /sync/upload: a multipart .xlsx/.xls of
// already-extracted statement rows. Rows are staged for the next sync run.
func UploadStatement(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, "Failed to parse multipart form", http.StatusBadRequest)
			return
		}
		hostBankCode := normalize.Digits(r.FormValue("host_bank_code"))

		files := r.MultipartForm.File["file"]
		if len(files) == 0 {
			http.Error(w, constants.ErrMissingFile, http.StatusBadRequest)
			return
		}

		batchID := uuid.New().String()
		var txns []model.Transaction
		var skipped []model.ItemError
		for _, fileHeader := range files {
			ext := getFileExt(fileHeader.Filename)
			if ext != ".xlsx" && ext != ".xls" {
				http.Error(w, constants.ErrUnsupportedFile, http.StatusBadRequest)
				return
			}
			file, err := fileHeader.Open()
			if err != nil {
				http.Error(w, "Failed to open file: "+fileHeader.Filename, http.StatusBadRequest)
				return
			}
			records, err := parseStatementFile(file, ext)
			file.Close()
			if err != nil || len(records) < 2 {
				http.Error(w, "Invalid or empty file: "+fileHeader.Filename, http.StatusBadRequest)
				return
			}

			cols := mapHeader(records[0])
			if _, ok := cols["date"]; !ok {
				http.Error(w, "No recognizable date column in "+fileHeader.Filename, http.StatusBadRequest)
				return
			}
			for _, row := range records[1:] {
				if len(row) == 0 {
					continue
				}
				t, err := rowToTransaction(row, cols, hostBankCode, deps.Normalize)
				if err != nil {
					skipped = append(skipped, model.ItemError{
						TrackingCode: t.TrackingCode,
						Error:        err.Error(),
					})
					continue
				}
				txns = append(txns, t)
			}
		}

		if len(txns) > 0 {
			if _, err := jobs.InsertTransactions(ctx, deps.Pool, batchID, txns); err != nil {
				http.Error(w, constants.ErrDB+": "+err.Error(), http.StatusInternalServerError)
				return
			}
		}

		w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":  true,
			"batch_id": batchID,
			"staged":   len(txns),
			"skipped":  skipped,
			"message":  "Statement rows staged for the next sync run",
		})
	}
}
