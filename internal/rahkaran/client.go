// Package rahkaran submits balanced vouchers to the external Rahkaran
// ledger through its script-execution proxy. The proxy is a black box: one
// HTTP endpoint taking {query} plus a shared secret header, answering a
// structured success row or an error payload.
package rahkaran

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"RahkaranSync/internal/logger"
	"RahkaranSync/internal/model"
)

const secretHeader = "X-Rahkaran-Proxy-Secret"

// Config for the sync client, normally filled from environment variables.
type Config struct {
	ProxyURL          string
	ProxySecret       string
	Timeout           time.Duration // hard deadline per remote call
	Attempts          int           // request-level retries, network/timeout only
	Backoff           time.Duration // fixed delay between request retries
	NumberingAttempts int           // collision re-probe bound
	DailyGapOffset    int64         // seeded gap vs legacy/manual entries
}

func (c *Config) fill() {
	if c.Timeout <= 0 {
		c.Timeout = 40 * time.Second
	}
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 3 * time.Second
	}
	if c.NumberingAttempts <= 0 {
		c.NumberingAttempts = 5
	}
}

// SubmitResult is what a caller must see before marking anything settled.
type SubmitResult struct {
	DocID        int64
	GlobalNumber int64
	DailyNumber  int64
}

// Client is safe for concurrent use. Submissions sharing a
// (ledger, branch, date) key are serialized; numbering allocation is the
// only shared mutable resource in the pipeline.
type Client struct {
	cfg  Config
	http *http.Client

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewClient(cfg Config) *Client {
	cfg.fill()
	return &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		locks: make(map[string]*sync.Mutex),
	}
}

func (c *Client) groupLock(v model.Voucher) *sync.Mutex {
	key := fmt.Sprintf("%d|%d|%s", v.LedgerID, v.BranchID, v.Date.Format(dateLayout))
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	c.locks[key] = l
	return l
}

// SubmitVoucher allocates numbers and posts the voucher atomically. The
// whole remote script commits or rolls back as one; a collision on either
// number triggers a bounded re-probe loop, never a failure surfaced to the
// caller. An unbalanced voucher is refused before any network call.
func (c *Client) SubmitVoucher(ctx context.Context, v model.Voucher) (SubmitResult, error) {
	if len(v.Lines) == 0 {
		return SubmitResult{}, fmt.Errorf("voucher has no lines")
	}
	if !v.Balanced() {
		return SubmitResult{}, &model.BalanceError{Debit: v.TotalDebit(), Credit: v.TotalCredit()}
	}

	lock := c.groupLock(v)
	lock.Lock()
	defer lock.Unlock()

	var lastErr error
	for attempt := 1; attempt <= c.cfg.NumberingAttempts; attempt++ {
		maxGlobal, maxDaily, err := c.probeNumbers(ctx, v)
		if err != nil {
			return SubmitResult{}, err
		}
		globalNumber := maxGlobal + 1
		dailyNumber := maxDaily + 1
		if maxDaily == 0 {
			dailyNumber += c.cfg.DailyGapOffset
		}

		row, err := c.execute(ctx, submitScript(v, globalNumber, dailyNumber))
		if err == nil {
			res, perr := parseSubmitRow(row)
			if perr != nil {
				return SubmitResult{}, perr
			}
			logger.Audit(fmt.Sprintf("voucher posted: doc %d global %d daily %d (%d lines)",
				res.DocID, res.GlobalNumber, res.DailyNumber, len(v.Lines)))
			return res, nil
		}

		var re *RemoteError
		if errors.As(err, &re) && re.Kind == KindNumberingCollision {
			logger.Sync("numbering collision on attempt %d/%d (global %d, daily %d), re-probing",
				attempt, c.cfg.NumberingAttempts, globalNumber, dailyNumber)
			lastErr = err
			continue
		}
		return SubmitResult{}, err
	}

	return SubmitResult{}, &RemoteError{
		Kind:    KindRemoteRejected,
		Message: fmt.Sprintf("numbering attempts exhausted after %d tries: %v", c.cfg.NumberingAttempts, lastErr),
	}
}

func (c *Client) probeNumbers(ctx context.Context, v model.Voucher) (maxGlobal, maxDaily int64, err error) {
	row, err := c.execute(ctx, probeScript(v))
	if err != nil {
		return 0, 0, err
	}
	return asInt64(row["MaxGlobal"]), asInt64(row["MaxDaily"]), nil
}

// execute posts one script with request-level retry. Only network and
// timeout failures are retried; a reported business failure is terminal
// because retrying cannot fix it.
func (c *Client) execute(ctx context.Context, script string) (map[string]interface{}, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.Attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, &RemoteError{Kind: KindTimeout, Message: ctx.Err().Error()}
			case <-time.After(c.cfg.Backoff):
			}
		}
		row, err := c.executeOnce(ctx, script)
		if err == nil {
			return row, nil
		}
		var re *RemoteError
		if errors.As(err, &re) && re.Kind != KindTimeout {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) executeOnce(ctx context.Context, script string) (map[string]interface{}, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(map[string]string{"query": script})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.cfg.ProxyURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(secretHeader, c.cfg.ProxySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &RemoteError{Kind: KindTimeout, Message: err.Error()}
		}
		return nil, &RemoteError{Kind: KindTimeout, Message: "network failure: " + err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &RemoteError{Kind: KindTimeout, Message: "reading proxy response: " + err.Error()}
	}

	if resp.StatusCode >= 500 {
		return nil, &RemoteError{Kind: KindTimeout, Message: fmt.Sprintf("proxy returned %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteError{Kind: KindRemoteRejected, Message: fmt.Sprintf("proxy returned %d: %s", resp.StatusCode, string(body))}
	}

	// Error payload first: {"error": "..."}
	var errPayload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errPayload) == nil && errPayload.Error != "" {
		return nil, classifyRemoteError(errPayload.Error)
	}

	// Success: either a single row object or an array of rows.
	var rows []map[string]interface{}
	if err := json.Unmarshal(body, &rows); err != nil {
		var single map[string]interface{}
		if err := json.Unmarshal(body, &single); err != nil {
			return nil, &RemoteError{Kind: KindRemoteRejected, Message: "unparseable proxy response: " + string(body)}
		}
		rows = []map[string]interface{}{single}
	}
	if len(rows) == 0 {
		return nil, &RemoteError{Kind: KindRemoteRejected, Message: "proxy returned no rows"}
	}
	return rows[0], nil
}

func classifyRemoteError(msg string) *RemoteError {
	lower := strings.ToLower(msg)
	for _, marker := range []string{"unique", "duplicate", "ix_voucher", "primary key"} {
		if strings.Contains(lower, marker) {
			return &RemoteError{Kind: KindNumberingCollision, Message: msg}
		}
	}
	for _, marker := range []string{"timeout", "timed out", "connection"} {
		if strings.Contains(lower, marker) {
			return &RemoteError{Kind: KindTimeout, Message: msg}
		}
	}
	return &RemoteError{Kind: KindRemoteRejected, Message: msg}
}

func parseSubmitRow(row map[string]interface{}) (SubmitResult, error) {
	status, _ := row["Status"].(string)
	if status != "OK" {
		return SubmitResult{}, &RemoteError{Kind: KindRemoteRejected, Message: fmt.Sprintf("unexpected status %q", status)}
	}
	res := SubmitResult{
		DocID:        asInt64(row["RefNum"]),
		GlobalNumber: asInt64(row["VoucherNum"]),
		DailyNumber:  asInt64(row["DailyNum"]),
	}
	if res.DocID == 0 {
		return SubmitResult{}, &RemoteError{Kind: KindRemoteRejected, Message: "success row without a document id"}
	}
	return res, nil
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case int64:
		return t
	case int:
		return int64(t)
	case json.Number:
		n, _ := t.Int64()
		return n
	case string:
		var n int64
		fmt.Sscanf(t, "%d", &n)
		return n
	}
	return 0
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
