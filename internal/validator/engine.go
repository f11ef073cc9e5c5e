// Package validator is the row validation engine: structural checks plus
// per-dimension rule matching against an injected catalogue, with a
// revision-aware result cache.
package validator

import (
	"strings"
	"sync"
	"time"

	"github.com/walisonlf/fiscal/internal/catalogue"
	"github.com/walisonlf/fiscal/internal/types"
)

/*
 * Validation engine.
 *
 * Validate runs, in order:
 *   1. structural checks (access key length, issue/posting chronology)
 *   2. one rule match per classification dimension
 *
 * and caches the result under the row's identity fingerprint. The cache is
 * transparent: a hit returns the same result the checks would produce. The
 * engine observes the catalogue's revision ID on every call and clears the
 * cache wholesale when it moves; tracking which rules each cached result
 * depended on would cost more than recomputing.
 *
 * Validate is safe for concurrent use as long as nothing mutates the
 * catalogue concurrently; catalogue writes must be serialized against
 * validation by the host.
 */

// Structural finding codes.
const (
	CodeAccessKeyLength = "CHAVE_NFE_LENGTH"
	CodeIssueAfterPost  = "DATA_EMISSAO_POSTERIOR"
)

// dateLayouts are tried in order when parsing row dates. Spreadsheet
// exports carry either ISO or Brazilian day-first dates.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	time.RFC3339,
}

// Engine validates rows against one catalogue instance.
type Engine struct {
	cat   *catalogue.Catalogue
	cache *resultCache

	mu       sync.Mutex
	revision types.RevisionID
}

// Option configures an Engine.
type Option func(*Engine)

// WithCacheLimit bounds the result cache to n entries, evicting least
// recently used. Zero or negative keeps the cache unbounded.
func WithCacheLimit(n int) Option {
	return func(e *Engine) {
		e.cache = newResultCache(n)
	}
}

// New returns an engine bound to the given catalogue.
func New(cat *catalogue.Catalogue, opts ...Option) *Engine {
	e := &Engine{
		cat:      cat,
		cache:    newResultCache(0),
		revision: cat.Revision(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate checks one row and returns its findings. Results for rows
// sharing the same identity fingerprint are served from cache until the
// catalogue changes.
func (e *Engine) Validate(row types.Row) types.Result {
	e.syncRevision()

	key := Fingerprint(row)
	if result, ok := e.cache.get(key); ok {
		return result
	}

	result := e.validate(row)
	e.cache.put(key, result)
	return result
}

func (e *Engine) validate(row types.Row) types.Result {
	var result types.Result

	result.Errors = append(result.Errors, structuralFindings(row)...)

	for _, dim := range types.Dimensions {
		m := MatchDimension(e.cat, row, dim)
		result.Errors = append(result.Errors, m.Errors...)
		result.Warnings = append(result.Warnings, m.Warnings...)
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// syncRevision clears the cache when the catalogue moved since the last
// observed revision.
func (e *Engine) syncRevision() {
	rev := e.cat.Revision()

	e.mu.Lock()
	defer e.mu.Unlock()
	if rev != e.revision {
		e.cache.clear()
		e.revision = rev
	}
}

// CacheLen reports how many results are currently cached.
func (e *Engine) CacheLen() int {
	return e.cache.len()
}

// Fingerprint derives a row's cache key from its identity fields. Rows
// equal on these fields validate identically, whatever else differs.
func Fingerprint(row types.Row) string {
	var b strings.Builder
	for _, field := range types.FingerprintFields {
		v, _ := row.Get(field)
		b.WriteString(field)
		b.WriteByte(':')
		b.WriteString(v)
		b.WriteByte('|')
	}
	return b.String()
}

// structuralFindings runs the built-in row shape checks. Both checks skip
// silently when their fields are absent or blank; presence requirements
// belong to the per-dimension rules.
func structuralFindings(row types.Row) []types.Finding {
	var findings []types.Finding

	if key, ok := row.Get(types.AccessKeyField); ok {
		key = strings.TrimSpace(key)
		if key != "" && len([]rune(key)) != types.AccessKeyLength {
			findings = append(findings, types.Finding{
				Field:   types.AccessKeyField,
				Code:    CodeAccessKeyLength,
				Message: "Chave de acesso NFe deve ter 44 caracteres",
			})
		}
	}

	issue, okIssue := parseDate(row, types.IssueDateField)
	posting, okPosting := parseDate(row, types.PostingDateField)
	if okIssue && okPosting && issue.After(posting) {
		findings = append(findings, types.Finding{
			Field:   types.IssueDateField,
			Code:    CodeIssueAfterPost,
			Message: "Data de emissão posterior à data de lançamento",
		})
	}

	return findings
}

func parseDate(row types.Row, field string) (time.Time, bool) {
	v, ok := row.Get(field)
	if !ok {
		return time.Time{}, false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
