package directory

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"RahkaranSync/internal/model"
	"RahkaranSync/internal/normalize"
	"RahkaranSync/internal/oracle"
)

// Directory is the read-through lookup over the chart of accounts plus the
// fixed internal-bank registry. The chart is read-mostly and cached per
// batch; Refresh reloads it.
type Directory struct {
	pool     *pgxpool.Pool
	reg      *Registry
	embedder oracle.Embedder

	mu    sync.Mutex
	cache []model.AccountEntry
}

func New(pool *pgxpool.Pool, reg *Registry, embedder oracle.Embedder) *Directory {
	return &Directory{pool: pool, reg: reg, embedder: embedder}
}

func (d *Directory) Registry() *Registry {
	return d.reg
}

// Refresh reloads the account cache. Called once per sync batch.
func (d *Directory) Refresh(ctx context.Context) error {
	rows, err := d.pool.Query(ctx, `
		SELECT code, title, kind, COALESCE(keywords, '{}'), COALESCE(embedding, '{}')
		FROM ledger_accounts
	`)
	if err != nil {
		return fmt.Errorf("failed to load ledger accounts: %w", err)
	}
	defer rows.Close()

	var entries []model.AccountEntry
	for rows.Next() {
		var e model.AccountEntry
		var kind string
		var emb []float64
		if err := rows.Scan(&e.Code, &e.Title, &kind, &e.Keywords, &emb); err != nil {
			return fmt.Errorf("failed to scan ledger account: %w", err)
		}
		e.Kind = model.AccountKind(kind)
		if len(emb) > 0 {
			e.Embedding = make([]float32, len(emb))
			for i, v := range emb {
				e.Embedding[i] = float32(v)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	d.cache = entries
	d.mu.Unlock()
	return nil
}

func (d *Directory) cached() []model.AccountEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cache
}

// FindByExactKeyword returns the first account whose match keyword occurs in
// the normalized text. Keyword matching is deterministic: accounts are
// scanned in cache order, keywords in declaration order.
func (d *Directory) FindByExactKeyword(text string) *model.AccountEntry {
	norm := normalize.Text(text)
	for _, e := range d.cached() {
		for _, kw := range e.Keywords {
			kw = normalize.Text(kw)
			if kw != "" && strings.Contains(norm, kw) {
				return &e
			}
		}
	}
	return nil
}

// ScoredAccount is a fuzzy-search hit with its match tier:
// 4 exact, 3 both tokens, 2 either token, 1 substring.
type ScoredAccount struct {
	Entry model.AccountEntry
	Score int
}

// FindByFuzzyName runs the LIKE-scored search over DL account titles:
// exact > both-tokens > either-token > substring. Without a database pool
// the search finds nothing.
func (d *Directory) FindByFuzzyName(ctx context.Context, name string, limit int) ([]ScoredAccount, error) {
	if d.pool == nil {
		return nil, nil
	}
	name = normalize.Text(name)
	if name == "" {
		return nil, nil
	}
	first, last := edgeTokens(name)

	rows, err := d.pool.Query(ctx, `
		SELECT code, title, kind, score FROM (
			SELECT code, title, kind,
				CASE
					WHEN title = $1 THEN 4
					WHEN title ILIKE '%' || $2 || '%' AND title ILIKE '%' || $3 || '%' THEN 3
					WHEN title ILIKE '%' || $2 || '%' OR title ILIKE '%' || $3 || '%' THEN 2
					WHEN title ILIKE '%' || $1 || '%' THEN 1
					ELSE 0
				END AS score
			FROM ledger_accounts
			WHERE kind = 'DL'
		) scored
		WHERE score > 0
		ORDER BY score DESC, title ASC
		LIMIT $4
	`, name, first, last, limit)
	if err != nil {
		return nil, fmt.Errorf("fuzzy name query failed: %w", err)
	}
	defer rows.Close()

	var out []ScoredAccount
	for rows.Next() {
		var sa ScoredAccount
		var kind string
		if err := rows.Scan(&sa.Entry.Code, &sa.Entry.Title, &kind, &sa.Score); err != nil {
			return nil, err
		}
		sa.Entry.Kind = model.AccountKind(kind)
		out = append(out, sa)
	}
	return out, rows.Err()
}

// FindByEmbedding embeds the name with the oracle and ranks cached accounts
// by cosine similarity. Accounts without a stored vector are skipped.
func (d *Directory) FindByEmbedding(ctx context.Context, name string, limit int) ([]model.AccountEntry, error) {
	if d.embedder == nil {
		return nil, nil
	}
	vec, err := d.embedder.Embed(ctx, normalize.Text(name))
	if err != nil {
		return nil, fmt.Errorf("embedding lookup failed: %w", err)
	}

	type hit struct {
		entry model.AccountEntry
		sim   float64
	}
	var hits []hit
	for _, e := range d.cached() {
		if len(e.Embedding) == 0 {
			continue
		}
		sim := cosine(vec, e.Embedding)
		if sim > 0 {
			hits = append(hits, hit{entry: e, sim: sim})
		}
	}
	// insertion sort by similarity descending; candidate lists are small
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].sim > hits[j-1].sim; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]model.AccountEntry, len(hits))
	for i, h := range hits {
		out[i] = h.entry
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func edgeTokens(name string) (first, last string) {
	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return name, name
	}
	return tokens[0], tokens[len(tokens)-1]
}
