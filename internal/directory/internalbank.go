package directory

import (
	"regexp"
	"strings"

	"RahkaranSync/internal/model"
	"RahkaranSync/internal/normalize"
)

// minSharedRun is the shortest digit run that counts as an account-number
// match. Anything shorter false-positives on amounts and tracking codes.
const minSharedRun = 5

// FindInternalBank matches a number fragment from a scanned statement
// against the fixed alias list of the organization's own bank accounts.
// Matching is bidirectional substring containment (statements carry
// truncated and zero-padded forms); among competing candidates the longest
// shared digit run wins, because shorter aliases are more likely to
// false-positive on unrelated numbers.
func (d *Directory) FindInternalBank(numberFragment string) *model.InternalBankAccount {
	return d.FindInternalBankExcluding(numberFragment, "")
}

// FindInternalBankExcluding is FindInternalBank minus one DL code. Used when
// resolving the other side of a self-transfer: the host's own account must
// never win.
func (d *Directory) FindInternalBankExcluding(numberFragment, excludeDL string) *model.InternalBankAccount {
	frag := strings.TrimLeft(normalize.OnlyDigits(numberFragment), "0")
	if len(frag) < minSharedRun {
		return nil
	}

	var best *model.InternalBankAccount
	bestRun := 0
	for i := range d.reg.InternalBanks {
		bank := &d.reg.InternalBanks[i]
		if excludeDL != "" && bank.DLCode == excludeDL {
			continue
		}
		for _, alias := range bank.Aliases {
			run := sharedRun(frag, strings.TrimLeft(normalize.OnlyDigits(alias), "0"))
			if run >= minSharedRun && run > bestRun {
				bestRun = run
				best = bank
			}
		}
	}
	return best
}

// sharedRun returns the length of the shared digit run when one string
// contains the other, zero otherwise. Containment either way counts, so the
// relation is commutative.
func sharedRun(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if strings.Contains(a, b) {
		return len(b)
	}
	if strings.Contains(b, a) {
		return len(a)
	}
	return 0
}

var accountNumberRe = regexp.MustCompile(`\d{5,}`)

// ScanForInternalBank walks every account-number-looking digit run in a
// description and returns the best internal-bank match, again excluding one
// DL code. This is the recovery path used after the extraction oracle gives
// up.
func (d *Directory) ScanForInternalBank(description, excludeDL string) *model.InternalBankAccount {
	var best *model.InternalBankAccount
	bestLen := 0
	for _, run := range accountNumberRe.FindAllString(normalize.Digits(description), -1) {
		if bank := d.FindInternalBankExcluding(run, excludeDL); bank != nil {
			score := len(strings.TrimLeft(run, "0"))
			if score > bestLen {
				bestLen = score
				best = bank
			}
		}
	}
	return best
}
