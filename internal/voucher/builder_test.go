package voucher

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RahkaranSync/internal/model"
)

type fakeHumanizer struct {
	out string
	err error
}

func (f fakeHumanizer) Humanize(_ context.Context, _, _ string) (string, error) {
	return f.out, f.err
}

var day = time.Date(2024, 8, 2, 0, 0, 0, 0, time.UTC)

func meta() Meta {
	return Meta{LedgerID: 1, FiscalYearID: 12, BranchID: 3, VoucherType: 1, Date: day}
}

func depositItem(id, amount int64) Item {
	return Item{
		Txn: model.Transaction{
			ID: id, Date: day, Direction: model.DirectionDeposit, Amount: amount,
			RawDescription: "واریز وجه", TrackingCode: "111222",
		},
		Decision: model.ClassificationDecision{
			Kind: model.DecisionParty, ResolvedSLCode: "131100",
			ResolvedDLCode: "50011", ResolvedName: "حسین کریمی",
		},
	}
}

func withdrawalItem(id, amount int64) Item {
	return Item{
		Txn: model.Transaction{
			ID: id, Date: day, Direction: model.DirectionWithdrawal, Amount: amount,
			RawDescription: "برداشت وجه", TrackingCode: "333444",
		},
		Decision: model.ClassificationDecision{
			Kind: model.DecisionParty, ResolvedSLCode: "231100",
			ResolvedDLCode: "50012", ResolvedName: "مریم احمدی",
		},
	}
}

func TestBuildDepositAndWithdrawal(t *testing.T) {
	b := NewBuilder(nil, "111100", "20104")

	v, err := b.Build(context.Background(), meta(), []Item{
		depositItem(1, 1000000),
		withdrawalItem(2, 400000),
	})
	require.NoError(t, err)
	require.Len(t, v.Lines, 4, "one party line plus one bank line per transaction")
	assert.True(t, v.Balanced())

	// deposit: party debited, bank credited
	party, bank := v.Lines[0], v.Lines[1]
	assert.Equal(t, "131100", party.SLCode)
	assert.True(t, party.Debit.Equal(decimal.NewFromInt(1000000)))
	assert.True(t, party.Credit.IsZero())
	assert.Equal(t, "111100", bank.SLCode)
	assert.Equal(t, "20104", bank.DLCode)
	assert.True(t, bank.Credit.Equal(decimal.NewFromInt(1000000)))
	assert.True(t, bank.Debit.IsZero())

	// withdrawal mirrors it
	party, bank = v.Lines[2], v.Lines[3]
	assert.True(t, party.Credit.Equal(decimal.NewFromInt(400000)))
	assert.True(t, bank.Debit.Equal(decimal.NewFromInt(400000)))

	// row numbers are sequential from 1
	for i, l := range v.Lines {
		assert.Equal(t, i+1, l.RowNumber)
	}

	assert.True(t, v.TotalDebit().Equal(decimal.NewFromInt(1400000)))
	assert.True(t, v.TotalCredit().Equal(decimal.NewFromInt(1400000)))
}

func TestBuildRejectsFeeWithDLCode(t *testing.T) {
	b := NewBuilder(nil, "111100", "20104")

	it := withdrawalItem(1, 12000)
	it.Decision.IsFee = true
	it.Decision.ResolvedDLCode = "50012"

	_, err := b.Build(context.Background(), meta(), []Item{it})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fee decision carries DL code")
}

func TestBuildRejectsMissingSL(t *testing.T) {
	b := NewBuilder(nil, "111100", "20104")

	it := depositItem(1, 1000)
	it.Decision.ResolvedSLCode = ""

	_, err := b.Build(context.Background(), meta(), []Item{it})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no SL code")
}

func TestBuildRejectsForeignDate(t *testing.T) {
	b := NewBuilder(nil, "111100", "20104")

	it := depositItem(1, 1000)
	it.Txn.Date = day.AddDate(0, 0, 1)

	_, err := b.Build(context.Background(), meta(), []Item{it})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not belong to voucher date")
}

func TestBuildRejectsNonPositiveAmount(t *testing.T) {
	b := NewBuilder(nil, "111100", "20104")

	it := depositItem(1, 0)
	_, err := b.Build(context.Background(), meta(), []Item{it})
	require.Error(t, err)

	var verr *model.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestBuildRejectsEmpty(t *testing.T) {
	b := NewBuilder(nil, "111100", "20104")
	_, err := b.Build(context.Background(), meta(), nil)
	require.Error(t, err)
}

func TestLineDescriptionFromHumanizer(t *testing.T) {
	b := NewBuilder(fakeHumanizer{out: "واریز از حسین کریمی"}, "111100", "20104")

	v, err := b.Build(context.Background(), meta(), []Item{depositItem(1, 1000)})
	require.NoError(t, err)
	assert.Equal(t, "واریز از حسین کریمی", v.Lines[0].Description)
}

func TestLineDescriptionFallsBackOnHumanizerFailure(t *testing.T) {
	b := NewBuilder(fakeHumanizer{err: errors.New("oracle down")}, "111100", "20104")

	v, err := b.Build(context.Background(), meta(), []Item{depositItem(1, 1000)})
	require.NoError(t, err)
	assert.True(t, strings.Contains(v.Lines[0].Description, "حسین کریمی"),
		"fallback description must name the resolved party")
	assert.True(t, strings.Contains(v.Lines[0].Description, "واریز وجه"),
		"fallback description must keep the original text")
}

func TestLineDescriptionForUnknownAndFee(t *testing.T) {
	b := NewBuilder(nil, "111100", "20104")

	unknown := depositItem(1, 1000)
	unknown.Decision = model.ClassificationDecision{
		Kind: model.DecisionUnknown, ResolvedSLCode: "391100",
	}
	fee := withdrawalItem(2, 1000)
	fee.Decision = model.ClassificationDecision{
		Kind: model.DecisionFee, IsFee: true, ResolvedSLCode: "720410",
	}

	v, err := b.Build(context.Background(), meta(), []Item{unknown, fee})
	require.NoError(t, err)
	assert.Contains(t, v.Lines[0].Description, "نامشخص")
	assert.Contains(t, v.Lines[2].Description, "کارمزد بانکی")
}

func TestVoucherBalancedHelpers(t *testing.T) {
	v := model.Voucher{Lines: []model.VoucherLine{
		{Debit: decimal.NewFromInt(10)},
		{Credit: decimal.NewFromInt(7)},
	}}
	assert.False(t, v.Balanced())

	be := &model.BalanceError{Debit: v.TotalDebit(), Credit: v.TotalCredit()}
	assert.Contains(t, be.Error(), "10")
	assert.Contains(t, be.Error(), "7")
}
