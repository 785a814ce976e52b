package oracle

import (
	"fmt"
	"strings"

	"RahkaranSync/internal/model"
)

// ArbitrationPrompt presents the transaction and the surviving candidates and
// forces the oracle to pick exactly one code, declare a fee, or answer null.
// The oracle may not invent a new code.
func ArbitrationPrompt(txn model.Transaction, candidates []Candidate) string {
	var list strings.Builder
	for _, c := range candidates {
		fmt.Fprintf(&list, "- code: %s  title: %s\n", c.Code, c.Title)
	}
	if list.Len() == 0 {
		list.WriteString("(no candidates)\n")
	}
	return fmt.Sprintf(`You classify Iranian bank statement transactions for an accounting system.

Transaction:
- direction: %s
- amount (IRR): %d
- description: %s
- counterparty guess: %s

Candidate ledger accounts:
%s
Pick EXACTLY one of:
- the code of one candidate above, if the description or name clearly refers to it
- the literal string "FEE" if this is a bank fee or charge
- null if you cannot decide

Never invent a code that is not in the list.
Respond with ONLY this JSON, no prose:
{"selected_code": "<code>" }
or
{"selected_code": null}`,
		txn.Direction, txn.Amount, txn.RawDescription, txn.CounterpartyGuess, list.String())
}

// ApprovalPrompt seeds the audit oracle with the fixed house rules and the
// tentative decision.
func ApprovalPrompt(rules string, txn model.Transaction, dec model.ClassificationDecision) string {
	return fmt.Sprintf(`You are a senior auditor reviewing one classified bank transaction.

House rules (non-negotiable, they override your own judgement):
%s

Transaction:
- direction: %s
- amount (IRR): %d
- description: %s

Tentative decision:
- kind: %s
- SL code: %s
- DL code: %s
- resolved name: %s
- is fee: %t
- decided by: %s

Approve the decision if it is consistent with the house rules and the
description. Reject only when it is clearly wrong.
Respond with ONLY this JSON:
{"approved": true, "reason": "<short reason>"}
or
{"approved": false, "reason": "<short reason>"}`,
		rules, txn.Direction, txn.Amount, txn.RawDescription,
		dec.Kind, dec.ResolvedSLCode, dec.ResolvedDLCode, dec.ResolvedName, dec.IsFee, dec.Source)
}

func nameMatchPrompt(a, b string) string {
	return fmt.Sprintf(`Do these two Persian party names refer to the same person or company?
Ignore honorifics, corporate suffixes and spelling variants.

name 1: %s
name 2: %s

Respond with ONLY this JSON:
{"match": true}
or
{"match": false}`, a, b)
}

func extractNumberPrompt(description, hostNumber string) string {
	return fmt.Sprintf(`The following is a bank transfer description from an Iranian statement.
Find the bank account number of the OTHER side of the transfer.

description: %s

IMPORTANT: the number %s belongs to our own account. Never return it or any
truncated or zero-padded form of it.

Respond with ONLY this JSON:
{"found_number": "<digits>"}
or
{"found_number": null}`, description, hostNumber)
}

func humanizePrompt(party, original string) string {
	return fmt.Sprintf(`Rewrite this accounting voucher line description in clear formal Persian,
one short line, keeping the party name and the purpose:

party: %s
original: %s

Answer with the rewritten line only, no quotes, no explanation.`, party, original)
}
