// Package audit is the senior-auditor gate between classification and
// posting. A secondary oracle reviews every tentative decision, but a small
// set of fixed rules can approve or reject without asking it, and those
// rules cannot be vetoed.
package audit

import (
	"context"
	"errors"
	"fmt"

	"RahkaranSync/internal/directory"
	"RahkaranSync/internal/logger"
	"RahkaranSync/internal/model"
	"RahkaranSync/internal/oracle"
)

// Policy makes the fail-open stance explicit: when the audit oracle is
// unreachable the batch availability wins over strict correctness, because a
// wrong posting is recoverable by manual review but a blocked nightly sync
// is not.
type Policy struct {
	FailOpen bool
}

type Auditor struct {
	orc    *oracle.Oracle
	reg    *directory.Registry
	policy Policy
}

func New(orc *oracle.Oracle, reg *directory.Registry, policy Policy) *Auditor {
	return &Auditor{orc: orc, reg: reg, policy: policy}
}

// Review approves or rejects a tentative decision. A rejected decision is
// downgraded to Unknown, never discarded. The returned decision always has
// AuditApproved set truthfully.
func (a *Auditor) Review(ctx context.Context, txn model.Transaction, dec model.ClassificationDecision) (model.ClassificationDecision, error) {
	// Fixed rules first; the oracle cannot veto these.

	// A resolved internal bank DL is always a valid bank, whatever it is named.
	if dec.Kind == model.DecisionInternal && dec.ResolvedDLCode != "" && a.isInternalBank(dec.ResolvedDLCode) {
		dec.AuditApproved = true
		dec.Reason = appendReason(dec.Reason, "auto-approved: known internal bank")
		return dec, nil
	}

	// A self-transfer that failed to resolve a bank code is always rejected.
	if dec.Kind == model.DecisionInternal && dec.ResolvedDLCode == "" {
		return a.reject(txn, dec, "self-transfer without a resolved bank code"), nil
	}

	// Fees posted under the fee account are always approved.
	if dec.IsFee && dec.ResolvedSLCode == a.reg.Accounts.FeeSL {
		dec.AuditApproved = true
		dec.Reason = appendReason(dec.Reason, "auto-approved: fee under fee account")
		return dec, nil
	}

	// Unknown already sits on the suspense account; nothing to audit.
	if dec.Kind == model.DecisionUnknown {
		dec.AuditApproved = true
		return dec, nil
	}

	if a.orc == nil {
		return a.failOpen(txn, dec, "no audit oracle configured")
	}

	ap, err := a.orc.ApproveDecision(ctx, oracle.ApprovalPrompt(a.reg.AuditRules, txn, dec))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return model.ClassificationDecision{}, fmt.Errorf("audit of %d cancelled: %w", txn.ID, err)
		}
		return a.failOpen(txn, dec, "audit oracle unreachable: "+err.Error())
	}
	if ap == nil {
		return a.failOpen(txn, dec, "audit oracle returned no decision")
	}
	if !ap.Approved {
		return a.reject(txn, dec, ap.Reason), nil
	}
	dec.AuditApproved = true
	dec.Reason = appendReason(dec.Reason, "audited: "+ap.Reason)
	return dec, nil
}

func (a *Auditor) failOpen(txn model.Transaction, dec model.ClassificationDecision, why string) (model.ClassificationDecision, error) {
	if !a.policy.FailOpen {
		return a.reject(txn, dec, why), nil
	}
	logger.Audit(fmt.Sprintf("txn %d fail-open approval: %s", txn.ID, why))
	dec.AuditApproved = true
	dec.Reason = appendReason(dec.Reason, "fail-open: "+why)
	return dec, nil
}

func (a *Auditor) reject(txn model.Transaction, dec model.ClassificationDecision, why string) model.ClassificationDecision {
	logger.Audit(fmt.Sprintf("txn %d audit rejected (%s), downgraded to unknown", txn.ID, why))
	dec.Downgrade(a.reg.SuspenseSL(txn.Direction), "audit rejected: "+why)
	dec.AuditApproved = false
	return dec
}

func (a *Auditor) isInternalBank(dlCode string) bool {
	for _, b := range a.reg.InternalBanks {
		if b.DLCode == dlCode {
			return true
		}
	}
	return false
}

func appendReason(existing, extra string) string {
	if existing == "" {
		return extra
	}
	return existing + "; " + extra
}
