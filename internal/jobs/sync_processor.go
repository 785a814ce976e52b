package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"RahkaranSync/internal/audit"
	"RahkaranSync/internal/classify"
	"RahkaranSync/internal/config"
	"RahkaranSync/internal/logger"
	"RahkaranSync/internal/model"
	"RahkaranSync/internal/normalize"
	"RahkaranSync/internal/rahkaran"
	"RahkaranSync/internal/validation"
	"RahkaranSync/internal/voucher"
)

// LedgerCoords pins which remote ledger/fiscal year/branch this process
// posts into.
type LedgerCoords struct {
	LedgerID     int
	FiscalYearID int
	BranchID     int
	VoucherType  int
}

// SyncProcessor runs the whole nightly pipeline: load unsettled
// transactions, classify, audit, build vouchers per day, submit, mark
// settled. Classification may fan out over a bounded worker pool; voucher
// submission per (ledger, branch, date) stays serialized in the sync
// client.
type SyncProcessor struct {
	Pool       *pgxpool.Pool
	SQLDB      *sql.DB
	Refresher  interface {
		Refresh(ctx context.Context) error
	}
	Classifier *classify.Classifier
	Auditor    *audit.Auditor
	Builder    *voucher.Builder
	Ledger     *rahkaran.Client
	Coords     LedgerCoords
	Normalize  normalize.Options
	Workers    int
	BatchSize  int
}

// RunSummary reports one pipeline run: one BatchResult per submitted
// voucher plus the per-transaction failures that were isolated along the
// way.
type RunSummary struct {
	Success  bool                `json:"success"`
	Error    string              `json:"error,omitempty"`
	Vouchers []model.BatchResult `json:"vouchers"`
	Skipped  []model.ItemError   `json:"skipped,omitempty"`
}

type classified struct {
	txn model.Transaction
	dec model.ClassificationDecision
}

// Run executes one full sync pass. A single bad transaction never aborts
// the batch; a failed voucher leaves its transactions unsettled for the
// next run.
func (p *SyncProcessor) Run(ctx context.Context) (RunSummary, error) {
	start := time.Now()
	summary := RunSummary{}

	if err := p.Refresher.Refresh(ctx); err != nil {
		summary.Error = err.Error()
		return summary, fmt.Errorf("refreshing account directory: %w", err)
	}

	batchSize := p.BatchSize
	if batchSize <= 0 {
		batchSize = config.BatchSize
	}
	txns, err := loadUnsettledTransactions(ctx, p.Pool, batchSize)
	if err != nil {
		summary.Error = err.Error()
		return summary, err
	}
	if len(txns) == 0 {
		logger.Sync("no unsettled transactions, nothing to do")
		summary.Success = true
		return summary, nil
	}

	settled, err := settledDedupKeys(ctx, p.Pool)
	if err != nil {
		summary.Error = err.Error()
		return summary, err
	}

	// normalize + validate + dedup; broken items are skipped, not fatal
	var work []model.Transaction
	seen := make(map[string]struct{})
	for _, t := range txns {
		t = normalize.Transaction(t, p.Normalize)
		if verr := validation.Transaction(t); verr != nil {
			summary.Skipped = append(summary.Skipped, model.ItemError{
				TransactionID: t.ID, TrackingCode: t.TrackingCode, Error: verr.Error(),
			})
			continue
		}
		key := t.DedupKey()
		if _, dup := settled[key]; dup && t.TrackingCode != "" {
			summary.Skipped = append(summary.Skipped, model.ItemError{
				TransactionID: t.ID, TrackingCode: t.TrackingCode, Error: "duplicate of an already settled transaction",
			})
			continue
		}
		if _, dup := seen[key]; dup && t.TrackingCode != "" {
			summary.Skipped = append(summary.Skipped, model.ItemError{
				TransactionID: t.ID, TrackingCode: t.TrackingCode, Error: "duplicate within batch",
			})
			continue
		}
		seen[key] = struct{}{}
		work = append(work, t)
	}

	decisions, skipped, err := p.classifyAll(ctx, work)
	if err != nil {
		// only cancellation aborts classification as a whole
		summary.Error = err.Error()
		return summary, err
	}
	summary.Skipped = append(summary.Skipped, skipped...)

	groups := groupByDay(decisions)
	allOK := len(groups) > 0 || len(work) == 0

	for _, g := range groups {
		res := p.submitGroup(ctx, g)
		summary.Vouchers = append(summary.Vouchers, res)
		if !res.Success {
			allOK = false
		}
	}

	summary.Success = allOK
	logger.Sync("run finished in %v: %d transactions, %d vouchers, %d skipped",
		time.Since(start).Round(time.Millisecond), len(txns), len(summary.Vouchers), len(summary.Skipped))
	return summary, nil
}


// classifyAll fans classification out over a bounded worker pool. Oracle
// failures on one transaction downgrade that transaction, they never stop
// the others; cancellation stops everything.
func (p *SyncProcessor) classifyAll(ctx context.Context, txns []model.Transaction) ([]classified, []model.ItemError, error) {
	workers := p.Workers
	if workers <= 0 {
		workers = config.ClassifyWorkers
	}

	type result struct {
		idx int
		cls classified
		err error
	}

	sem := make(chan struct{}, workers)
	results := make([]result, len(txns))
	var wg sync.WaitGroup

	for i, t := range txns {
		wg.Add(1)
		go func(i int, t model.Transaction) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			dec, err := p.Classifier.Classify(ctx, t)
			if err == nil {
				dec, err = p.Auditor.Review(ctx, t, dec)
			}
			results[i] = result{idx: i, cls: classified{txn: t, dec: dec}, err: err}
		}(i, t)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("classification cancelled: %w", err)
	}

	var out []classified
	var skipped []model.ItemError
	for _, r := range results {
		if r.err != nil {
			skipped = append(skipped, model.ItemError{
				TransactionID: r.cls.txn.ID, TrackingCode: r.cls.txn.TrackingCode, Error: r.err.Error(),
			})
			continue
		}
		out = append(out, r.cls)
	}
	return out, skipped, nil
}

func groupByDay(items []classified) [][]classified {
	byDay := make(map[string][]classified)
	var order []string
	for _, it := range items {
		key := it.txn.Date.Format("2006-01-02")
		if _, ok := byDay[key]; !ok {
			order = append(order, key)
		}
		byDay[key] = append(byDay[key], it)
	}
	sort.Strings(order)
	groups := make([][]classified, 0, len(order))
	for _, key := range order {
		groups = append(groups, byDay[key])
	}
	return groups
}

// submitGroup builds and posts one voucher for one day. Transactions are
// marked settled only after the proxy reported success with a document id.
func (p *SyncProcessor) submitGroup(ctx context.Context, group []classified) model.BatchResult {
	res := model.BatchResult{}

	items := make([]voucher.Item, len(group))
	ids := make([]int64, len(group))
	for i, g := range group {
		items[i] = voucher.Item{Txn: g.txn, Decision: g.dec}
		ids[i] = g.txn.ID
		res.ProcessedTrackingCodes = append(res.ProcessedTrackingCodes, g.txn.TrackingCode)
	}

	meta := voucher.Meta{
		LedgerID:     p.Coords.LedgerID,
		FiscalYearID: p.Coords.FiscalYearID,
		BranchID:     p.Coords.BranchID,
		VoucherType:  p.Coords.VoucherType,
		Date:         group[0].txn.Date,
	}
	v, err := p.Builder.Build(ctx, meta, items)
	if err != nil {
		res.Error = err.Error()
		// a structural failure names its transaction; surface it so the
		// operator knows which row poisoned the day's voucher
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			res.ItemErrors = append(res.ItemErrors, model.ItemError{
				TransactionID: verr.TransactionID, TrackingCode: verr.TrackingCode, Error: verr.Error(),
			})
		}
		logger.Audit(fmt.Sprintf("voucher build failed for %s: %v", meta.Date.Format("2006-01-02"), err))
		return res
	}

	sub, err := p.Ledger.SubmitVoucher(ctx, v)
	if err != nil {
		res.Error = err.Error()
		res.RetrySafe = rahkaran.IsRetryable(err)
		logger.Audit(fmt.Sprintf("voucher submission failed for %s: %v", meta.Date.Format("2006-01-02"), err))
		return res
	}

	if err := markSettled(ctx, p.SQLDB, ids, sub.DocID); err != nil {
		// the voucher exists remotely; these transactions will be caught by
		// the dedup key on the next run instead of being posted twice
		res.Error = err.Error()
		logger.Audit(fmt.Sprintf("voucher %d posted but settle update failed: %v", sub.DocID, err))
		return res
	}

	res.Success = true
	res.DocID = &sub.DocID
	return res
}
