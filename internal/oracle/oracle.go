// Package oracle wraps the text-completion and embedding endpoints used as
// classification, audit, extraction and humanization oracles. Responses must
// be strict JSON matching a documented schema; anything that fails schema
// validation is treated as "no decision", never as a crash.
package oracle

import (
	"context"
	"encoding/json"
	"strings"
)

// Completer is the minimal capability the engine needs from a language
// model. Tests inject deterministic fakes.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Embedder produces an embedding vector for a short text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Candidate is one ledger account offered to the arbitration oracle. The
// oracle may only pick from this list, answer "FEE", or answer null.
type Candidate struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

// Selection is the arbitration answer: a candidate code, the literal "FEE",
// or null for unknown.
type Selection struct {
	SelectedCode *string `json:"selected_code"`
}

// Approval is the audit answer.
type Approval struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason"`
}

type nameMatch struct {
	Match bool `json:"match"`
}

type foundNumber struct {
	FoundNumber *string `json:"found_number"`
}

// Oracle layers the typed calls over a raw Completer.
type Oracle struct {
	c Completer
}

func New(c Completer) *Oracle {
	return &Oracle{c: c}
}

// decodeStrict strips markdown fences the models like to add, then requires
// the remainder to be exactly one JSON object.
func decodeStrict(raw string, v interface{}) bool {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)
	if raw == "" || raw[0] != '{' {
		return false
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v) == nil
}

// SelectAccount asks the arbitration oracle to pick exactly one candidate,
// declare the transaction a fee, or give up. A schema-violating reply is a
// non-answer (nil selection, nil error).
func (o *Oracle) SelectAccount(ctx context.Context, prompt string) (*Selection, error) {
	raw, err := o.c.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var sel Selection
	if !decodeStrict(raw, &sel) {
		return nil, nil
	}
	return &sel, nil
}

// ApproveDecision asks the audit oracle for approval.
func (o *Oracle) ApproveDecision(ctx context.Context, prompt string) (*Approval, error) {
	raw, err := o.c.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var ap Approval
	if !decodeStrict(raw, &ap) {
		return nil, nil
	}
	return &ap, nil
}

// MatchNames asks whether two party names refer to the same entity.
// Non-answers count as no match.
func (o *Oracle) MatchNames(ctx context.Context, a, b string) (bool, error) {
	raw, err := o.c.Complete(ctx, nameMatchPrompt(a, b))
	if err != nil {
		return false, err
	}
	var m nameMatch
	if !decodeStrict(raw, &m) {
		return false, nil
	}
	return m.Match, nil
}

// ExtractAccountNumber asks the oracle to find a counterparty bank account
// number inside a transfer description, explicitly ignoring the host's own
// number. Empty string means nothing usable was found.
func (o *Oracle) ExtractAccountNumber(ctx context.Context, description, hostNumber string) (string, error) {
	raw, err := o.c.Complete(ctx, extractNumberPrompt(description, hostNumber))
	if err != nil {
		return "", err
	}
	var fn foundNumber
	if !decodeStrict(raw, &fn) {
		return "", nil
	}
	if fn.FoundNumber == nil {
		return "", nil
	}
	return strings.TrimSpace(*fn.FoundNumber), nil
}

// Humanize rewrites a voucher line description. Callers fall back to a
// deterministic template on any error or empty reply.
func (o *Oracle) Humanize(ctx context.Context, party, original string) (string, error) {
	raw, err := o.c.Complete(ctx, humanizePrompt(party, original))
	if err != nil {
		return "", err
	}
	out := strings.TrimSpace(raw)
	out = strings.Trim(out, "\"`")
	if out == "" || strings.Contains(out, "\n") {
		return "", nil
	}
	return out, nil
}
