package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RahkaranSync/internal/model"
)

func testRegistry() *Registry {
	reg := &Registry{}
	reg.HostBank.DLCode = "20104"
	reg.HostBank.AccountNumber = "0104813180001"
	reg.InternalBanks = []model.InternalBankAccount{
		{DLCode: "20104", Title: "host current account", Aliases: []string{"0104813180001", "4813180001"}},
		{DLCode: "20105", Title: "second bank", Aliases: []string{"4477710233"}},
		{DLCode: "20106", Title: "third bank", Aliases: []string{"0207354861009"}},
	}
	return reg
}

func TestFindInternalBank(t *testing.T) {
	d := New(nil, testRegistry(), nil)

	tests := []struct {
		name     string
		fragment string
		wantDL   string
	}{
		{"exact alias", "4477710233", "20105"},
		{"zero padded on statement", "04477710233", "20105"},
		{"truncated fragment of alias", "0104813180001", "20104"},
		{"persian digits", "۴۴۷۷۷۱۰۲۳۳", "20105"},
		{"too short to match", "1234", ""},
		{"unknown number", "999888777", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.FindInternalBank(tt.fragment)
			if tt.wantDL == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantDL, got.DLCode)
		})
	}
}

func TestFindInternalBankLongestRunWins(t *testing.T) {
	reg := testRegistry()
	// a short alias that is a substring of the longer one on another bank
	reg.InternalBanks = append(reg.InternalBanks, model.InternalBankAccount{
		DLCode: "20199", Title: "ambiguous short alias", Aliases: []string{"77102"},
	})
	d := New(nil, reg, nil)

	got := d.FindInternalBank("4477710233")
	require.NotNil(t, got)
	assert.Equal(t, "20105", got.DLCode, "the longer shared run must win")
}

func TestFindInternalBankExcluding(t *testing.T) {
	d := New(nil, testRegistry(), nil)

	// the host's own number must never resolve to the host when excluded
	got := d.FindInternalBankExcluding("0104813180001", "20104")
	assert.Nil(t, got)

	got = d.FindInternalBankExcluding("4477710233", "20104")
	require.NotNil(t, got)
	assert.Equal(t, "20105", got.DLCode)
}

func TestScanForInternalBank(t *testing.T) {
	d := New(nil, testRegistry(), nil)

	t.Run("recovers counterpart from description", func(t *testing.T) {
		got := d.ScanForInternalBank("انتقال از حساب 0104813180001 به حساب 4477710233", "20104")
		require.NotNil(t, got)
		assert.Equal(t, "20105", got.DLCode)
	})

	t.Run("only host number present", func(t *testing.T) {
		got := d.ScanForInternalBank("انتقال از حساب 0104813180001", "20104")
		assert.Nil(t, got)
	})

	t.Run("short digit runs ignored", func(t *testing.T) {
		got := d.ScanForInternalBank("چک 1234 مورخ 1403", "")
		assert.Nil(t, got)
	})
}
