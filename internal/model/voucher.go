package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// VoucherLine is one ledger line. Lines are always produced in pairs: one
// party line and one bank line with mirrored debit/credit sides.
type VoucherLine struct {
	SLCode      string          `json:"sl_code"`
	DLCode      string          `json:"dl_code,omitempty"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
	RowNumber   int             `json:"row_number"`
}

// Voucher is one balanced double-entry document destined for the remote
// ledger. Numbers are allocated at submission time, never earlier.
type Voucher struct {
	LedgerID     int           `json:"ledger_id"`
	FiscalYearID int           `json:"fiscal_year_id"`
	BranchID     int           `json:"branch_id"`
	VoucherType  int           `json:"voucher_type"`
	GlobalNumber int64         `json:"global_number"`
	DailyNumber  int64         `json:"daily_number"`
	Date         time.Time     `json:"date"`
	Description  string        `json:"description"`
	Lines        []VoucherLine `json:"lines"`
}

// TotalDebit sums the debit side of all lines.
func (v Voucher) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range v.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredit sums the credit side of all lines.
func (v Voucher) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range v.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// Balanced reports whether debits equal credits exactly.
func (v Voucher) Balanced() bool {
	return v.TotalDebit().Equal(v.TotalCredit())
}

// BalanceError is raised when a built voucher does not balance. It is fatal
// for that voucher and must be detected before any network call.
type BalanceError struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("voucher does not balance: debit %s != credit %s",
		e.Debit.StringFixed(0), e.Credit.StringFixed(0))
}
