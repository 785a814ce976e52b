// Package classify turns a normalized bank transaction into a tentative
// account assignment: bank fee, internal self-transfer, or an identified
// counterparty. The decision chain is an ordered list of tiers; the first
// tier that produces a confident decision short-circuits the rest, so tier
// order is load-bearing and covered by tests.
package classify

import (
	"context"
	"fmt"
	"strings"

	"RahkaranSync/internal/directory"
	"RahkaranSync/internal/logger"
	"RahkaranSync/internal/model"
	"RahkaranSync/internal/normalize"
	"RahkaranSync/internal/oracle"
)

// Options tunes the non-deterministic tiers.
type Options struct {
	LegacyFeeMaxAmount  int64
	NameMatchThreshold  float64
	EmbeddingCandidates int
	FuzzyCandidates     int
}

func DefaultOptions() Options {
	return Options{
		LegacyFeeMaxAmount:  500000,
		NameMatchThreshold:  0.70,
		EmbeddingCandidates: 5,
		FuzzyCandidates:     10,
	}
}

// AccountDirectory is the lookup surface the tier chain draws on.
// *directory.Directory implements it.
type AccountDirectory interface {
	Registry() *directory.Registry
	FindByExactKeyword(text string) *model.AccountEntry
	FindByEmbedding(ctx context.Context, name string, limit int) ([]model.AccountEntry, error)
	FindByFuzzyName(ctx context.Context, name string, limit int) ([]directory.ScoredAccount, error)
	FindInternalBankExcluding(numberFragment, excludeDL string) *model.InternalBankAccount
	ScanForInternalBank(description, excludeDL string) *model.InternalBankAccount
}

// Classifier is the precedence-ordered decision pipeline.
type Classifier struct {
	dir    AccountDirectory
	oracle *oracle.Oracle
	opts   Options
	tiers  []tier
}

type tier struct {
	name string
	fn   func(ctx context.Context, st *state) (*model.ClassificationDecision, error)
}

// state is the per-transaction working set shared between tiers. Tier 6
// leaves surviving candidates here for tier 7's arbitration.
type state struct {
	txn        model.Transaction
	desc       string // normalized description
	candidates []oracle.Candidate
}

func New(dir AccountDirectory, orc *oracle.Oracle, opts Options) *Classifier {
	c := &Classifier{dir: dir, oracle: orc, opts: opts}
	c.tiers = []tier{
		{"override_table", c.tierOverride},
		{"fee_keywords", c.tierFeeKeywords},
		{"petty_cash", c.tierPettyCash},
		{"internal_transfer", c.tierInternalTransfer},
		{"legacy_fee", c.tierLegacyFee},
		{"name_resolution", c.tierNameResolution},
		{"arbitration", c.tierArbitration},
	}
	return c
}

// Classify runs the tier chain. A cancelled context propagates as an error,
// never as a silent Unknown.
func (c *Classifier) Classify(ctx context.Context, txn model.Transaction) (model.ClassificationDecision, error) {
	st := &state{txn: txn, desc: normalize.Text(txn.RawDescription)}

	for _, t := range c.tiers {
		if err := ctx.Err(); err != nil {
			return model.ClassificationDecision{}, fmt.Errorf("classification of %d cancelled: %w", txn.ID, err)
		}
		dec, err := t.fn(ctx, st)
		if err != nil {
			return model.ClassificationDecision{}, fmt.Errorf("tier %s: %w", t.name, err)
		}
		if dec != nil {
			dec.TransactionID = txn.ID
			logger.Audit(fmt.Sprintf("classified txn %d (%s) as %s via %s -> SL %s DL %s",
				txn.ID, txn.TrackingCode, dec.Kind, t.name, dec.ResolvedSLCode, dec.ResolvedDLCode))
			return *dec, nil
		}
	}

	return c.unknown(txn, model.ErrClassificationAmbiguous.Error()), nil
}

func (c *Classifier) unknown(txn model.Transaction, reason string) model.ClassificationDecision {
	return model.ClassificationDecision{
		TransactionID:  txn.ID,
		Kind:           model.DecisionUnknown,
		ResolvedSLCode: c.dir.Registry().SuspenseSL(txn.Direction),
		Source:         model.SourceNone,
		Reason:         reason,
	}
}

func containsAny(text string, phrases []string) string {
	for _, p := range phrases {
		p = normalize.Text(p)
		if p != "" && strings.Contains(text, p) {
			return p
		}
	}
	return ""
}
