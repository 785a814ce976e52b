package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	reply string
	err   error
}

func (f fakeCompleter) Complete(_ context.Context, _ string) (string, error) {
	return f.reply, f.err
}

func TestSelectAccount(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		wantNil  bool
		wantCode string
	}{
		{"plain json", `{"selected_code": "50011"}`, false, "50011"},
		{"fenced json", "```json\n{\"selected_code\": \"50011\"}\n```", false, "50011"},
		{"bare fence", "```\n{\"selected_code\": \"FEE\"}\n```", false, "FEE"},
		{"null selection", `{"selected_code": null}`, false, ""},
		{"unknown field violates schema", `{"selected_code": "50011", "confidence": 0.9}`, true, ""},
		{"prose instead of json", "I think account 50011 fits best.", true, ""},
		{"empty reply", "", true, ""},
		{"array not object", `[{"selected_code": "50011"}]`, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New(fakeCompleter{reply: tt.reply})
			sel, err := o.SelectAccount(context.Background(), "prompt")
			require.NoError(t, err, "schema violations are non-answers, never errors")
			if tt.wantNil {
				assert.Nil(t, sel)
				return
			}
			require.NotNil(t, sel)
			if tt.wantCode == "" {
				assert.Nil(t, sel.SelectedCode)
			} else {
				require.NotNil(t, sel.SelectedCode)
				assert.Equal(t, tt.wantCode, *sel.SelectedCode)
			}
		})
	}
}

func TestSelectAccountPropagatesTransportError(t *testing.T) {
	o := New(fakeCompleter{err: errors.New("rate limited")})
	_, err := o.SelectAccount(context.Background(), "prompt")
	require.Error(t, err)
}

func TestApproveDecision(t *testing.T) {
	o := New(fakeCompleter{reply: `{"approved": false, "reason": "name does not match"}`})
	ap, err := o.ApproveDecision(context.Background(), "prompt")
	require.NoError(t, err)
	require.NotNil(t, ap)
	assert.False(t, ap.Approved)
	assert.Equal(t, "name does not match", ap.Reason)

	o = New(fakeCompleter{reply: "sounds good to me"})
	ap, err = o.ApproveDecision(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Nil(t, ap)
}

func TestMatchNames(t *testing.T) {
	o := New(fakeCompleter{reply: `{"match": true}`})
	m, err := o.MatchNames(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.True(t, m)

	o = New(fakeCompleter{reply: "yes"})
	m, err = o.MatchNames(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.False(t, m, "a non-answer counts as no match")
}

func TestExtractAccountNumber(t *testing.T) {
	o := New(fakeCompleter{reply: `{"found_number": " 4477710233 "}`})
	num, err := o.ExtractAccountNumber(context.Background(), "desc", "host")
	require.NoError(t, err)
	assert.Equal(t, "4477710233", num)

	o = New(fakeCompleter{reply: `{"found_number": null}`})
	num, err = o.ExtractAccountNumber(context.Background(), "desc", "host")
	require.NoError(t, err)
	assert.Empty(t, num)
}

func TestHumanize(t *testing.T) {
	o := New(fakeCompleter{reply: "\"واریز از حسین کریمی\""})
	out, err := o.Humanize(context.Background(), "party", "original")
	require.NoError(t, err)
	assert.Equal(t, "واریز از حسین کریمی", out)

	o = New(fakeCompleter{reply: "first line\nsecond line"})
	out, err = o.Humanize(context.Background(), "party", "original")
	require.NoError(t, err)
	assert.Empty(t, out, "multi-line replies are discarded")
}
