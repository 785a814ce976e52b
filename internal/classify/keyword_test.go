package classify

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RahkaranSync/internal/directory"
	"RahkaranSync/internal/model"
	"RahkaranSync/internal/normalize"
)

// keywordDir serves one keyword-tagged account on top of the real lookup
// surface, standing in for a chart of accounts loaded with match keywords.
type keywordDir struct {
	*directory.Directory
	keyword string
	entry   model.AccountEntry
}

func (d *keywordDir) FindByExactKeyword(text string) *model.AccountEntry {
	if d.keyword != "" && strings.Contains(normalize.Text(text), normalize.Text(d.keyword)) {
		e := d.entry
		return &e
	}
	return nil
}

func newKeywordClassifier(reg *directory.Registry) *Classifier {
	dir := &keywordDir{
		Directory: directory.New(nil, reg, nil),
		keyword:   "آریا تجارت",
		entry:     model.AccountEntry{Code: "50042", Title: "شرکت آریا تجارت", Kind: model.KindDL},
	}
	return New(dir, nil, DefaultOptions())
}

func TestAccountKeywordResolvesParty(t *testing.T) {
	reg := testRegistry()
	reg.Accounts.PartyDepositSL = "131100"
	cl := newKeywordClassifier(reg)

	dec, err := cl.Classify(context.Background(), model.Transaction{
		ID: 31, Direction: model.DirectionDeposit, Amount: 8000000,
		RawDescription: "واریز وجه از شرکت آریا تجارت فاکتور 110",
	})
	require.NoError(t, err)
	assert.Equal(t, model.DecisionParty, dec.Kind)
	assert.Equal(t, "131100", dec.ResolvedSLCode)
	assert.Equal(t, "50042", dec.ResolvedDLCode)
	assert.Equal(t, "شرکت آریا تجارت", dec.ResolvedName)
	assert.Equal(t, model.SourceAccountKeyword, dec.Source)
}

func TestFeeKeywordBeatsAccountKeyword(t *testing.T) {
	reg := testRegistry()
	reg.Accounts.PartyWithdrawSL = "231100"
	cl := newKeywordClassifier(reg)

	dec, err := cl.Classify(context.Background(), model.Transaction{
		ID: 32, Direction: model.DirectionWithdrawal, Amount: 12000,
		RawDescription: "کارمزد حواله آریا تجارت",
	})
	require.NoError(t, err)
	assert.Equal(t, model.DecisionFee, dec.Kind)
	assert.Equal(t, "720410", dec.ResolvedSLCode)
	assert.Equal(t, model.SourceFeeKeyword, dec.Source)
}

func TestAccountKeywordMissFallsThrough(t *testing.T) {
	reg := testRegistry()
	cl := newKeywordClassifier(reg)

	// digits-only description: no keyword, no extractable name
	dec, err := cl.Classify(context.Background(), model.Transaction{
		ID: 33, Direction: model.DirectionDeposit, Amount: 5000000,
		RawDescription: "987654321",
	})
	require.NoError(t, err)
	assert.Equal(t, model.DecisionUnknown, dec.Kind)
	assert.Equal(t, "391100", dec.ResolvedSLCode)
}
