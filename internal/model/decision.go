package model

// DecisionKind is the terminal state of the classification chain.
type DecisionKind string

const (
	DecisionFee      DecisionKind = "FEE"
	DecisionInternal DecisionKind = "INTERNAL_TRANSFER"
	DecisionParty    DecisionKind = "COUNTERPARTY"
	DecisionUnknown  DecisionKind = "UNKNOWN"
)

// ConfidenceSource records which tier produced the decision.
type ConfidenceSource string

const (
	SourceOverride         ConfidenceSource = "OVERRIDE_TABLE"
	SourceFeeKeyword       ConfidenceSource = "FEE_KEYWORD"
	SourcePettyCash        ConfidenceSource = "PETTY_CASH"
	SourceInternalTransfer ConfidenceSource = "INTERNAL_TRANSFER"
	SourceLegacyFee        ConfidenceSource = "LEGACY_FEE"
	SourceAccountKeyword   ConfidenceSource = "ACCOUNT_KEYWORD"
	SourceNameMatch        ConfidenceSource = "NAME_MATCH"
	SourceEmbedding        ConfidenceSource = "EMBEDDING_MATCH"
	SourceOracle           ConfidenceSource = "AI_ARBITRATION"
	SourceNone             ConfidenceSource = "NONE"
)

// ClassificationDecision is produced by the classifier and amended by the
// auditor. Invariants: IsFee implies ResolvedDLCode is empty; ResolvedSLCode
// is always set (suspense fallback by direction).
type ClassificationDecision struct {
	TransactionID  int64            `json:"transaction_id"`
	Kind           DecisionKind     `json:"kind"`
	ResolvedDLCode string           `json:"resolved_dl_code,omitempty"`
	ResolvedSLCode string           `json:"resolved_sl_code"`
	ResolvedName   string           `json:"resolved_name,omitempty"`
	IsFee          bool             `json:"is_fee"`
	Source         ConfidenceSource `json:"confidence_source"`
	AuditApproved  bool             `json:"audit_approved"`
	Reason         string           `json:"reason,omitempty"`
}

// Downgrade turns a rejected or ambiguous decision into Unknown while keeping
// the suspense SL code so the voucher can still be posted.
func (d *ClassificationDecision) Downgrade(suspenseSL, reason string) {
	d.Kind = DecisionUnknown
	d.ResolvedDLCode = ""
	d.ResolvedSLCode = suspenseSL
	d.ResolvedName = ""
	d.IsFee = false
	d.Source = SourceNone
	d.Reason = reason
}
