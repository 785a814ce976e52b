package classify

import (
	"strings"

	"RahkaranSync/internal/model"
	"RahkaranSync/internal/normalize"
)

func containsPhrase(text, phrase string) bool {
	return phrase != "" && strings.Contains(text, phrase)
}

// nonGenericTokens normalizes a name and drops stop words (honorifics,
// generic corporate words) plus bare digits.
func nonGenericTokens(name string, stopWords []string) []string {
	stop := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		stop[normalize.Text(w)] = struct{}{}
	}
	var out []string
	for _, tok := range strings.Fields(normalize.Text(name)) {
		if _, isStop := stop[tok]; isStop {
			continue
		}
		if normalize.OnlyDigits(tok) == tok {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// VerifyName decides whether an extracted candidate name and a directory
// title refer to the same party. True when the first of these holds:
// token overlap covering at least the threshold share of the candidate's
// non-generic tokens, exact normalized match, or containment with length
// above 4 characters. The threshold governs the false-positive rate and is
// fixed at 0.70 in production.
func VerifyName(candidate, title string, stopWords []string, threshold float64) bool {
	candTokens := nonGenericTokens(candidate, stopWords)
	titleTokens := nonGenericTokens(title, stopWords)

	if len(candTokens) > 0 && len(titleTokens) > 0 {
		titleSet := make(map[string]struct{}, len(titleTokens))
		for _, t := range titleTokens {
			titleSet[t] = struct{}{}
		}
		shared := 0
		for _, t := range candTokens {
			if _, ok := titleSet[t]; ok {
				shared++
			}
		}
		if float64(shared) >= threshold*float64(len(candTokens)) {
			return true
		}
	}

	normCand := strings.Join(candTokens, " ")
	normTitle := strings.Join(titleTokens, " ")
	if normCand != "" && normCand == normTitle {
		return true
	}

	shorter, longer := normCand, normTitle
	if len([]rune(shorter)) > len([]rune(longer)) {
		shorter, longer = longer, shorter
	}
	if len([]rune(shorter)) > 4 && strings.Contains(longer, shorter) {
		return true
	}
	return false
}

// ExtractCandidateName produces the counterparty name the search tiers work
// with: the upstream guess when present, otherwise the description stripped
// of transfer phrases, digits and stop words.
func ExtractCandidateName(txn model.Transaction, stopWords, transferKeywords []string) string {
	if guess := nonGenericTokens(txn.CounterpartyGuess, stopWords); len(guess) > 0 {
		return strings.Join(guess, " ")
	}

	desc := normalize.Text(txn.RawDescription)
	for _, kw := range transferKeywords {
		kw = normalize.Text(kw)
		if kw != "" {
			desc = strings.ReplaceAll(desc, kw, " ")
		}
	}
	tokens := nonGenericTokens(desc, stopWords)
	if len(tokens) == 0 {
		return ""
	}
	name := strings.Join(tokens, " ")
	if len([]rune(name)) < 3 {
		return ""
	}
	return name
}
