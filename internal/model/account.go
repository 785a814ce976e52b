package model

// AccountKind distinguishes subsidiary (SL) from detail (DL) ledger codes.
type AccountKind string

const (
	KindSL AccountKind = "SL"
	KindDL AccountKind = "DL"
)

// AccountEntry is one row of the external chart of accounts. Read-only
// reference data, refreshed out-of-band; the engine never writes it.
type AccountEntry struct {
	Code      string      `json:"code"`
	Title     string      `json:"title"`
	Kind      AccountKind `json:"kind"`
	Keywords  []string    `json:"keywords,omitempty"`
	Embedding []float32   `json:"-"`
}

// InternalBankAccount is one of the organization's own bank accounts.
// Aliases carry the account number in every spelling seen on scanned
// statements (reversed, truncated, zero-padded).
type InternalBankAccount struct {
	DLCode  string   `yaml:"dl_code" json:"dl_code"`
	Title   string   `yaml:"title" json:"title"`
	Aliases []string `yaml:"aliases" json:"aliases"`
}
