package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RahkaranSync/internal/directory"
	"RahkaranSync/internal/model"
	"RahkaranSync/internal/oracle"
)

type fakeCompleter struct {
	reply string
	err   error
}

func (f fakeCompleter) Complete(_ context.Context, _ string) (string, error) {
	return f.reply, f.err
}

func testRegistry() *directory.Registry {
	reg := &directory.Registry{}
	reg.HostBank.DLCode = "20104"
	reg.InternalBanks = []model.InternalBankAccount{
		{DLCode: "20104", Title: "host"},
		{DLCode: "20105", Title: "second bank"},
	}
	reg.Accounts.FeeSL = "720410"
	reg.Accounts.DepositSuspSL = "391100"
	reg.Accounts.WithdrawSuspSL = "391200"
	reg.AuditRules = "rules text"
	return reg
}

func depositTxn() model.Transaction {
	return model.Transaction{ID: 1, Direction: model.DirectionDeposit, Amount: 1000}
}

func partyDecision() model.ClassificationDecision {
	return model.ClassificationDecision{
		TransactionID: 1, Kind: model.DecisionParty,
		ResolvedSLCode: "131100", ResolvedDLCode: "50011", ResolvedName: "حسین کریمی",
		Source: model.SourceNameMatch,
	}
}

func TestInternalBankAutoApproved(t *testing.T) {
	// the oracle would reject everything, but fixed rules cannot be vetoed
	a := New(oracle.New(fakeCompleter{reply: `{"approved": false, "reason": "no"}`}), testRegistry(), Policy{})

	dec := model.ClassificationDecision{
		Kind: model.DecisionInternal, ResolvedSLCode: "111200", ResolvedDLCode: "20105",
	}
	got, err := a.Review(context.Background(), depositTxn(), dec)
	require.NoError(t, err)
	assert.True(t, got.AuditApproved)
	assert.Equal(t, model.DecisionInternal, got.Kind)
}

func TestInternalWithoutBankCodeRejected(t *testing.T) {
	a := New(oracle.New(fakeCompleter{reply: `{"approved": true, "reason": "fine"}`}), testRegistry(), Policy{FailOpen: true})

	dec := model.ClassificationDecision{Kind: model.DecisionInternal, ResolvedSLCode: "111200"}
	got, err := a.Review(context.Background(), depositTxn(), dec)
	require.NoError(t, err)
	assert.False(t, got.AuditApproved)
	assert.Equal(t, model.DecisionUnknown, got.Kind)
	assert.Equal(t, "391100", got.ResolvedSLCode, "downgrade keeps the suspense account")
}

func TestFeeAutoApproved(t *testing.T) {
	a := New(nil, testRegistry(), Policy{})

	dec := model.ClassificationDecision{Kind: model.DecisionFee, IsFee: true, ResolvedSLCode: "720410"}
	got, err := a.Review(context.Background(), depositTxn(), dec)
	require.NoError(t, err)
	assert.True(t, got.AuditApproved)
}

func TestUnknownAutoApproved(t *testing.T) {
	a := New(nil, testRegistry(), Policy{})

	dec := model.ClassificationDecision{Kind: model.DecisionUnknown, ResolvedSLCode: "391100"}
	got, err := a.Review(context.Background(), depositTxn(), dec)
	require.NoError(t, err)
	assert.True(t, got.AuditApproved)
	assert.Equal(t, model.DecisionUnknown, got.Kind)
}

func TestOracleApprovesParty(t *testing.T) {
	a := New(oracle.New(fakeCompleter{reply: `{"approved": true, "reason": "plausible name"}`}), testRegistry(), Policy{})

	got, err := a.Review(context.Background(), depositTxn(), partyDecision())
	require.NoError(t, err)
	assert.True(t, got.AuditApproved)
	assert.Equal(t, model.DecisionParty, got.Kind)
	assert.Contains(t, got.Reason, "plausible name")
}

func TestOracleRejectionDowngrades(t *testing.T) {
	a := New(oracle.New(fakeCompleter{reply: `{"approved": false, "reason": "name mismatch"}`}), testRegistry(), Policy{FailOpen: true})

	got, err := a.Review(context.Background(), depositTxn(), partyDecision())
	require.NoError(t, err)
	assert.False(t, got.AuditApproved)
	assert.Equal(t, model.DecisionUnknown, got.Kind)
	assert.Empty(t, got.ResolvedDLCode)
	assert.Equal(t, "391100", got.ResolvedSLCode)
	assert.Contains(t, got.Reason, "name mismatch")
}

func TestUnreachableOracleFailOpen(t *testing.T) {
	a := New(oracle.New(fakeCompleter{err: errors.New("connection refused")}), testRegistry(), Policy{FailOpen: true})

	got, err := a.Review(context.Background(), depositTxn(), partyDecision())
	require.NoError(t, err)
	assert.True(t, got.AuditApproved, "fail-open keeps the batch moving")
	assert.Equal(t, model.DecisionParty, got.Kind)
}

func TestUnreachableOracleFailClosed(t *testing.T) {
	a := New(oracle.New(fakeCompleter{err: errors.New("connection refused")}), testRegistry(), Policy{FailOpen: false})

	got, err := a.Review(context.Background(), depositTxn(), partyDecision())
	require.NoError(t, err)
	assert.False(t, got.AuditApproved)
	assert.Equal(t, model.DecisionUnknown, got.Kind)
}

func TestNonAnswerFailOpen(t *testing.T) {
	a := New(oracle.New(fakeCompleter{reply: "cannot decide"}), testRegistry(), Policy{FailOpen: true})

	got, err := a.Review(context.Background(), depositTxn(), partyDecision())
	require.NoError(t, err)
	assert.True(t, got.AuditApproved)
}

func TestCancellationPropagates(t *testing.T) {
	a := New(oracle.New(fakeCompleter{err: context.Canceled}), testRegistry(), Policy{FailOpen: true})

	_, err := a.Review(context.Background(), depositTxn(), partyDecision())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
