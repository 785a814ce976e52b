package directory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"RahkaranSync/internal/model"
)

// Override maps a fixed description phrase straight to fixed account codes,
// bypassing every other classification tier.
type Override struct {
	Phrase string `yaml:"phrase"`
	SLCode string `yaml:"sl_code"`
	DLCode string `yaml:"dl_code"`
	Name   string `yaml:"name"`
}

// PettyCashHolder is a registered cash custodian.
type PettyCashHolder struct {
	Name   string `yaml:"name"`
	DLCode string `yaml:"dl_code"`
}

// Registry is the fixed reference data the engine needs beyond the chart of
// accounts: the organization's own bank accounts, fee lexicons, override
// phrases, petty-cash custodians and the default account codes. Loaded once
// at process start and never mutated.
type Registry struct {
	HostBank struct {
		DLCode        string `yaml:"dl_code"`
		AccountNumber string `yaml:"account_number"`
	} `yaml:"host_bank"`

	InternalBanks []model.InternalBankAccount `yaml:"internal_banks"`

	FeeKeywords       []string `yaml:"fee_keywords"`
	LegacyFeeKeywords []string `yaml:"legacy_fee_keywords"`
	TransferKeywords  []string `yaml:"transfer_keywords"`
	OrgAliases        []string `yaml:"org_aliases"`
	StopWords         []string `yaml:"stop_words"`

	Overrides []Override `yaml:"overrides"`

	PettyCash struct {
		SLCode  string            `yaml:"sl_code"`
		Holders []PettyCashHolder `yaml:"holders"`
	} `yaml:"petty_cash"`

	Accounts struct {
		FeeSL           string `yaml:"fee_sl"`
		BankClearingSL  string `yaml:"bank_clearing_sl"`
		BankSL          string `yaml:"bank_sl"`
		DepositSuspSL   string `yaml:"deposit_suspense_sl"`
		WithdrawSuspSL  string `yaml:"withdrawal_suspense_sl"`
		PartyDepositSL  string `yaml:"party_deposit_sl"`
		PartyWithdrawSL string `yaml:"party_withdrawal_sl"`
	} `yaml:"accounts"`

	AuditRules string `yaml:"audit_rules"`
}

// LoadRegistry reads the fixed registries from a YAML file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}
	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry file: %w", err)
	}
	if reg.Accounts.DepositSuspSL == "" || reg.Accounts.WithdrawSuspSL == "" {
		return nil, fmt.Errorf("registry is missing suspense account codes")
	}
	if reg.Accounts.FeeSL == "" {
		return nil, fmt.Errorf("registry is missing the fee SL code")
	}
	return &reg, nil
}

// SuspenseSL returns the default suspense account for a direction.
func (r *Registry) SuspenseSL(dir model.Direction) string {
	if dir == model.DirectionDeposit {
		return r.Accounts.DepositSuspSL
	}
	return r.Accounts.WithdrawSuspSL
}

// PartySL returns the receivable/payable SL code a resolved counterparty is
// posted under, by direction.
func (r *Registry) PartySL(dir model.Direction) string {
	if dir == model.DirectionDeposit {
		if r.Accounts.PartyDepositSL != "" {
			return r.Accounts.PartyDepositSL
		}
		return r.Accounts.DepositSuspSL
	}
	if r.Accounts.PartyWithdrawSL != "" {
		return r.Accounts.PartyWithdrawSL
	}
	return r.Accounts.WithdrawSuspSL
}
