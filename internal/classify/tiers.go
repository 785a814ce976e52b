package classify

import (
	"context"
	"errors"

	"RahkaranSync/internal/model"
	"RahkaranSync/internal/normalize"
	"RahkaranSync/internal/oracle"
)

// Tier 1: fixed description-phrase overrides. These mappings (for example
// performance-guarantee deposit phrases) bypass everything else.
func (c *Classifier) tierOverride(_ context.Context, st *state) (*model.ClassificationDecision, error) {
	for _, o := range c.dir.Registry().Overrides {
		phrase := normalize.Text(o.Phrase)
		if phrase == "" || !containsPhrase(st.desc, phrase) {
			continue
		}
		return &model.ClassificationDecision{
			Kind:           model.DecisionParty,
			ResolvedSLCode: o.SLCode,
			ResolvedDLCode: o.DLCode,
			ResolvedName:   o.Name,
			Source:         model.SourceOverride,
			Reason:         "override phrase: " + o.Phrase,
		}, nil
	}
	return nil, nil
}

// Tier 2: strict fee keywords. A description that also carries an
// internal-transfer phrase is not a fee, whatever the fee lexicon says.
func (c *Classifier) tierFeeKeywords(_ context.Context, st *state) (*model.ClassificationDecision, error) {
	reg := c.dir.Registry()
	kw := containsAny(st.desc, reg.FeeKeywords)
	if kw == "" {
		return nil, nil
	}
	if containsAny(st.desc, reg.TransferKeywords) != "" {
		return nil, nil
	}
	return &model.ClassificationDecision{
		Kind:           model.DecisionFee,
		IsFee:          true,
		ResolvedSLCode: reg.Accounts.FeeSL,
		Source:         model.SourceFeeKeyword,
		Reason:         "fee keyword: " + kw,
	}, nil
}

// Tier 3: registered petty-cash holders. If the counterparty guess or the
// description names a cash custodian, the petty-cash SL code is forced.
func (c *Classifier) tierPettyCash(_ context.Context, st *state) (*model.ClassificationDecision, error) {
	reg := c.dir.Registry()
	for _, h := range reg.PettyCash.Holders {
		name := normalize.Text(h.Name)
		if name == "" {
			continue
		}
		if VerifyName(name, st.txn.CounterpartyGuess, reg.StopWords, c.opts.NameMatchThreshold) ||
			containsPhrase(st.desc, name) {
			return &model.ClassificationDecision{
				Kind:           model.DecisionParty,
				ResolvedSLCode: reg.PettyCash.SLCode,
				ResolvedDLCode: h.DLCode,
				ResolvedName:   h.Name,
				Source:         model.SourcePettyCash,
				Reason:         "petty-cash holder: " + h.Name,
			}, nil
		}
	}
	return nil, nil
}

// Tier 4: self/internal-transfer detection. On a transfer-trigger phrase the
// other side's account is recovered first by the extraction oracle (told to
// ignore the host's own number), then by scanning the description against
// the internal-bank registry, always excluding the host's own code.
func (c *Classifier) tierInternalTransfer(ctx context.Context, st *state) (*model.ClassificationDecision, error) {
	reg := c.dir.Registry()
	trigger := containsAny(st.desc, reg.TransferKeywords)
	if trigger == "" {
		trigger = containsAny(st.desc, reg.OrgAliases)
	}
	if trigger == "" {
		return nil, nil
	}

	var bank *model.InternalBankAccount
	if c.oracle != nil {
		num, err := c.oracle.ExtractAccountNumber(ctx, st.txn.RawDescription, reg.HostBank.AccountNumber)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			// oracle down: the registry scan below still gets its chance
		} else if num != "" {
			bank = c.dir.FindInternalBankExcluding(num, reg.HostBank.DLCode)
		}
	}
	if bank == nil {
		bank = c.dir.ScanForInternalBank(st.txn.RawDescription, reg.HostBank.DLCode)
	}
	if bank == nil {
		// transfer phrase without a recoverable counterpart account: let the
		// remaining tiers search forward
		return nil, nil
	}
	return &model.ClassificationDecision{
		Kind:           model.DecisionInternal,
		ResolvedSLCode: reg.Accounts.BankClearingSL,
		ResolvedDLCode: bank.DLCode,
		ResolvedName:   bank.Title,
		Source:         model.SourceInternalTransfer,
		Reason:         "transfer trigger: " + trigger,
	}, nil
}

// Tier 5: legacy keyword fee fallback for small amounts.
func (c *Classifier) tierLegacyFee(_ context.Context, st *state) (*model.ClassificationDecision, error) {
	reg := c.dir.Registry()
	if st.txn.Amount > c.opts.LegacyFeeMaxAmount {
		return nil, nil
	}
	kw := containsAny(st.desc, reg.LegacyFeeKeywords)
	if kw == "" {
		return nil, nil
	}
	return &model.ClassificationDecision{
		Kind:           model.DecisionFee,
		IsFee:          true,
		ResolvedSLCode: reg.Accounts.FeeSL,
		Source:         model.SourceLegacyFee,
		Reason:         "legacy fee keyword: " + kw,
	}, nil
}

// Tier 6: name-based resolution. Curated account keywords resolve first,
// then embedding similarity, then the LIKE-scored search, the latter two
// verified against the extracted name. Ambiguous survivors are left for
// arbitration.
func (c *Classifier) tierNameResolution(ctx context.Context, st *state) (*model.ClassificationDecision, error) {
	reg := c.dir.Registry()
	partySL := reg.PartySL(st.txn.Direction)

	// match keywords stored on the account rows themselves; no extracted
	// name is needed for these
	if e := c.dir.FindByExactKeyword(st.txn.RawDescription); e != nil {
		return &model.ClassificationDecision{
			Kind:           model.DecisionParty,
			ResolvedSLCode: partySL,
			ResolvedDLCode: e.Code,
			ResolvedName:   e.Title,
			Source:         model.SourceAccountKeyword,
			Reason:         "account keyword match: " + e.Title,
		}, nil
	}

	name := ExtractCandidateName(st.txn, reg.StopWords, reg.TransferKeywords)
	if name == "" {
		return nil, nil
	}

	// embedding similarity + fuzzy-name verification
	if embHits, err := c.dir.FindByEmbedding(ctx, name, c.opts.EmbeddingCandidates); err == nil {
		for _, e := range embHits {
			if VerifyName(name, e.Title, reg.StopWords, c.opts.NameMatchThreshold) {
				return &model.ClassificationDecision{
					Kind:           model.DecisionParty,
					ResolvedSLCode: partySL,
					ResolvedDLCode: e.Code,
					ResolvedName:   e.Title,
					Source:         model.SourceEmbedding,
					Reason:         "embedding match for: " + name,
				}, nil
			}
			st.candidates = appendCandidate(st.candidates, e.Code, e.Title)
		}
	} else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	// SQL LIKE-based scored search + fuzzy-name verification
	scored, err := c.dir.FindByFuzzyName(ctx, name, c.opts.FuzzyCandidates)
	if err != nil {
		return nil, err
	}
	var verified []oracle.Candidate
	for _, sa := range scored {
		if VerifyName(name, sa.Entry.Title, reg.StopWords, c.opts.NameMatchThreshold) {
			verified = append(verified, oracle.Candidate{Code: sa.Entry.Code, Title: sa.Entry.Title})
		}
		st.candidates = appendCandidate(st.candidates, sa.Entry.Code, sa.Entry.Title)
	}
	if len(verified) == 1 {
		return &model.ClassificationDecision{
			Kind:           model.DecisionParty,
			ResolvedSLCode: partySL,
			ResolvedDLCode: verified[0].Code,
			ResolvedName:   verified[0].Title,
			Source:         model.SourceNameMatch,
			Reason:         "fuzzy name match for: " + name,
		}, nil
	}

	// several verified matches: the classifier oracle confirms the best one
	if len(verified) > 1 && c.oracle != nil {
		match, err := c.oracle.MatchNames(ctx, name, verified[0].Title)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
		} else if match {
			return &model.ClassificationDecision{
				Kind:           model.DecisionParty,
				ResolvedSLCode: partySL,
				ResolvedDLCode: verified[0].Code,
				ResolvedName:   verified[0].Title,
				Source:         model.SourceNameMatch,
				Reason:         "oracle-confirmed name match for: " + name,
			}, nil
		}
	}
	return nil, nil
}

// Tier 7: AI arbitration over whatever candidates survived. The oracle picks
// one candidate code, declares a fee, or gives up; it may not invent codes.
func (c *Classifier) tierArbitration(ctx context.Context, st *state) (*model.ClassificationDecision, error) {
	if c.oracle == nil || len(st.candidates) == 0 {
		return nil, nil
	}
	sel, err := c.oracle.SelectAccount(ctx, oracle.ArbitrationPrompt(st.txn, st.candidates))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, nil // oracle down: fall through to Unknown
	}
	if sel == nil || sel.SelectedCode == nil {
		return nil, nil
	}
	reg := c.dir.Registry()
	code := *sel.SelectedCode
	if code == "FEE" {
		return &model.ClassificationDecision{
			Kind:           model.DecisionFee,
			IsFee:          true,
			ResolvedSLCode: reg.Accounts.FeeSL,
			Source:         model.SourceOracle,
			Reason:         "arbitration declared fee",
		}, nil
	}
	for _, cand := range st.candidates {
		if cand.Code == code {
			return &model.ClassificationDecision{
				Kind:           model.DecisionParty,
				ResolvedSLCode: reg.PartySL(st.txn.Direction),
				ResolvedDLCode: cand.Code,
				ResolvedName:   cand.Title,
				Source:         model.SourceOracle,
				Reason:         "arbitration selected " + cand.Code,
			}, nil
		}
	}
	// invented code: treated as no decision
	return nil, nil
}

func appendCandidate(list []oracle.Candidate, code, title string) []oracle.Candidate {
	for _, c := range list {
		if c.Code == code {
			return list
		}
	}
	return append(list, oracle.Candidate{Code: code, Title: title})
}
