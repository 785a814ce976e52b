package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RahkaranSync/internal/model"
	"RahkaranSync/internal/normalize"
)

func strictOpts() normalize.Options {
	return normalize.Options{Location: time.UTC}
}

func TestMapHeader(t *testing.T) {
	cols := mapHeader([]string{"تاریخ", "ساعت", "شرح تراکنش", "برداشت", "واریز", "نام طرف", "کد رهگیری"})
	assert.Equal(t, 0, cols["date"])
	assert.Equal(t, 1, cols["time"])
	assert.Equal(t, 2, cols["description"])
	assert.Equal(t, 3, cols["withdrawal"])
	assert.Equal(t, 4, cols["deposit"])
	assert.Equal(t, 5, cols["counterparty"])
	assert.Equal(t, 6, cols["tracking"])
}

func TestMapHeaderEnglishAndCase(t *testing.T) {
	cols := mapHeader([]string{"Date", "Debit", "Credit", "Description"})
	assert.Equal(t, 0, cols["date"])
	assert.Equal(t, 1, cols["withdrawal"])
	assert.Equal(t, 2, cols["deposit"])
	assert.Equal(t, 3, cols["description"])
}

func TestMapHeaderFirstMatchWins(t *testing.T) {
	cols := mapHeader([]string{"تاریخ", "date"})
	assert.Equal(t, 0, cols["date"])
}

func TestCellOutOfRange(t *testing.T) {
	cols := map[string]int{"tracking": 5}
	assert.Equal(t, "", cell([]string{"a", "b"}, cols, "tracking"))
	assert.Equal(t, "", cell([]string{"a", "b"}, cols, "missing"))
	assert.Equal(t, "b", cell([]string{"a", " b "}, map[string]int{"date": 1}, "date"))
}

func TestRowToTransactionDeposit(t *testing.T) {
	cols := mapHeader([]string{"تاریخ", "شرح", "برداشت", "واریز", "شماره پیگیری"})
	row := []string{"1403/05/12", "واریز از حسین کریمی", "0", "۲٬۵۰۰٬۰۰۰", "۱۲۳۴۵۶"}

	txn, err := rowToTransaction(row, cols, "20104", strictOpts())
	require.NoError(t, err)
	assert.Equal(t, model.DirectionDeposit, txn.Direction)
	assert.Equal(t, int64(2500000), txn.Amount, "persian digits and separators survive")
	assert.Equal(t, "123456", txn.TrackingCode)
	assert.Equal(t, "20104", txn.HostBankCode)
	assert.Equal(t, "واریز از حسین کریمی", txn.RawDescription)
	assert.False(t, txn.Date.IsZero())
}

func TestRowToTransactionWithdrawal(t *testing.T) {
	cols := mapHeader([]string{"تاریخ", "برداشت", "واریز"})
	row := []string{"1403/05/12", "150000", ""}

	txn, err := rowToTransaction(row, cols, "", strictOpts())
	require.NoError(t, err)
	assert.Equal(t, model.DirectionWithdrawal, txn.Direction)
	assert.Equal(t, int64(150000), txn.Amount)
}

func TestRowToTransactionAmountAmbiguity(t *testing.T) {
	cols := mapHeader([]string{"تاریخ", "برداشت", "واریز"})

	_, err := rowToTransaction([]string{"1403/05/12", "", ""}, cols, "", strictOpts())
	assert.Error(t, err, "neither column carries an amount")

	_, err = rowToTransaction([]string{"1403/05/12", "100", "200"}, cols, "", strictOpts())
	assert.Error(t, err, "both columns carry an amount")
}

func TestRowToTransactionBadDateStrict(t *testing.T) {
	cols := mapHeader([]string{"تاریخ", "واریز"})

	_, err := rowToTransaction([]string{"not a date", "1000"}, cols, "", strictOpts())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unparseable transaction date")
}

func TestRowToTransactionBadDateLenient(t *testing.T) {
	cols := mapHeader([]string{"تاریخ", "واریز"})
	opts := normalize.Options{Location: time.UTC, DefaultBadDatesToToday: true}

	txn, err := rowToTransaction([]string{"", "1000"}, cols, "", opts)
	require.NoError(t, err)
	assert.False(t, txn.Date.IsZero(), "lenient mode falls back to today")
}

func TestGetFileExt(t *testing.T) {
	assert.Equal(t, ".xlsx", getFileExt("Statement_Mordad.XLSX"))
	assert.Equal(t, ".xls", getFileExt("bank.xls"))
	assert.Equal(t, "", getFileExt("noext"))
}
