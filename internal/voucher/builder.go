// Package voucher turns classified transactions into one balanced
// double-entry voucher document. Building is pure apart from the optional
// description-humanization oracle call; an unbalanced line set is rejected
// here, before anything touches the network.
package voucher

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"RahkaranSync/internal/model"
)

// Humanizer rewrites a line description. Implemented by the oracle; a
// deterministic template takes over on any failure.
type Humanizer interface {
	Humanize(ctx context.Context, party, original string) (string, error)
}

// Meta identifies the ledger coordinates of the voucher being built.
// Numbers stay zero here; the sync client allocates them at submission time.
type Meta struct {
	LedgerID     int
	FiscalYearID int
	BranchID     int
	VoucherType  int
	Date         time.Time
}

// Item pairs one transaction with its final, audited decision.
type Item struct {
	Txn      model.Transaction
	Decision model.ClassificationDecision
}

// Builder assembles vouchers. BankSL/BankDL are the host bank's own ledger
// coordinates, posted opposite every party line.
type Builder struct {
	humanizer Humanizer
	bankSL    string
	bankDL    string
}

func NewBuilder(humanizer Humanizer, bankSL, bankDL string) *Builder {
	return &Builder{humanizer: humanizer, bankSL: bankSL, bankDL: bankDL}
}

// Build emits one voucher for transactions sharing a date/ledger/branch.
// Lines alternate party/bank pairs: the bank side is credited for deposits
// and debited for withdrawals, the party side mirrors it.
func (b *Builder) Build(ctx context.Context, meta Meta, items []Item) (model.Voucher, error) {
	if len(items) == 0 {
		return model.Voucher{}, fmt.Errorf("voucher needs at least one transaction")
	}

	v := model.Voucher{
		LedgerID:     meta.LedgerID,
		FiscalYearID: meta.FiscalYearID,
		BranchID:     meta.BranchID,
		VoucherType:  meta.VoucherType,
		Date:         meta.Date,
		Description:  fmt.Sprintf("سند بانکی مورخ %s", meta.Date.Format("2006-01-02")),
	}

	row := 0
	for _, it := range items {
		if !sameDay(it.Txn.Date, meta.Date) {
			return model.Voucher{}, fmt.Errorf("transaction %d dated %s does not belong to voucher date %s",
				it.Txn.ID, it.Txn.Date.Format("2006-01-02"), meta.Date.Format("2006-01-02"))
		}
		if it.Txn.Amount <= 0 {
			return model.Voucher{}, &model.ValidationError{
				TransactionID: it.Txn.ID,
				TrackingCode:  it.Txn.TrackingCode,
				Field:         "amount",
				Message:       "must be positive",
			}
		}
		if it.Decision.IsFee && it.Decision.ResolvedDLCode != "" {
			return model.Voucher{}, fmt.Errorf("transaction %d: fee decision carries DL code %s",
				it.Txn.ID, it.Decision.ResolvedDLCode)
		}
		if it.Decision.ResolvedSLCode == "" {
			return model.Voucher{}, fmt.Errorf("transaction %d: decision has no SL code", it.Txn.ID)
		}

		amount := decimal.NewFromInt(it.Txn.Amount)
		desc := b.lineDescription(ctx, it)

		party := model.VoucherLine{
			SLCode:      it.Decision.ResolvedSLCode,
			DLCode:      it.Decision.ResolvedDLCode,
			Description: desc,
		}
		bank := model.VoucherLine{
			SLCode:      b.bankSL,
			DLCode:      b.bankDL,
			Description: desc,
		}
		if it.Txn.Direction == model.DirectionDeposit {
			bank.Credit = amount
			party.Debit = amount
		} else {
			bank.Debit = amount
			party.Credit = amount
		}

		row++
		party.RowNumber = row
		row++
		bank.RowNumber = row
		v.Lines = append(v.Lines, party, bank)
	}

	if !v.Balanced() {
		return model.Voucher{}, &model.BalanceError{Debit: v.TotalDebit(), Credit: v.TotalCredit()}
	}
	return v, nil
}

func (b *Builder) lineDescription(ctx context.Context, it Item) string {
	party := it.Decision.ResolvedName
	if party == "" {
		switch {
		case it.Decision.IsFee:
			party = "کارمزد بانکی"
		case it.Decision.Kind == model.DecisionUnknown:
			party = "نامشخص"
		default:
			party = it.Txn.CounterpartyGuess
		}
	}
	if b.humanizer != nil {
		if out, err := b.humanizer.Humanize(ctx, party, it.Txn.RawDescription); err == nil && out != "" {
			return out
		}
	}
	return fmt.Sprintf("بابت %s — %s", party, it.Txn.RawDescription)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
