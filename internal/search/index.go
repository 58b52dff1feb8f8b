// Package search provides a simple, deterministic, concurrency-safe in-memory
// search index over generated document content. It is intentionally small and
// dependency-free, but engineered with production-grade ergonomics:
//
//   - No logging in the library (callers decide how/what to log)
//   - Clear, documented types and functional options (Option pattern)
//   - Unicode-aware tokenization with optional stop-word removal
//   - Immutable, read-only index after construction (safe for concurrent use)
//   - Deterministic scoring and sorting (stable order for ties)
//   - Every snippet attributed back to the outline item it came from
//
// Scoring uses Jaccard similarity between the query token set and each
// snippet's token set: score = |Q ∩ S| / |Q ∪ S|. The item title participates
// in the snippet's token set so a query naming a section still ranks it.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Entry is one outline item's generated text, fed to the index builder.
type Entry struct {
	ItemID string
	Title  string
	Text   string
}

// Result is a ranked snippet with its similarity score and the outline item
// it belongs to.
type Result struct {
	ItemID  string
	Title   string
	Snippet string
	Score   float64
}

// Index is the minimal interface implemented by all search indices.
type Index interface {
	TopK(query string, k int) []Result
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	minSnippetRunes int
	stopwords       map[string]struct{}
	maxSnippets     int
}

func defaultConfig() config {
	return config{
		minSnippetRunes: 0,
		stopwords:       nil,
		maxSnippets:     0,
	}
}

// WithMinSnippetRunes drops paragraphs shorter than n runes. The default of 0
// keeps everything; generated slide bodies can be legitimately short.
func WithMinSnippetRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minSnippetRunes = n
		}
	}
}

func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxSnippets caps the number of snippets indexed, in entry order.
func WithMaxSnippets(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxSnippets = n
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type snippet struct {
	itemID string
	title  string
	text   string
	tokens map[string]struct{}
	tLen   int
}

type index struct {
	cfg      config
	snippets []snippet
}

// NewIndexFromEntries builds an Index from outline items and their text. Each
// entry's text is split into paragraphs on blank lines; every surviving
// paragraph becomes one rankable snippet attributed to its entry.
func NewIndexFromEntries(entries []Entry, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	snips := make([]snippet, 0, len(entries))
	count := 0
build:
	for _, e := range entries {
		titleToks := tokenize(e.Title, cfg.stopwords)
		for _, raw := range splitParas(e.Text) {
			t := strings.TrimSpace(normalizeWhitespace(raw))
			if t == "" {
				continue
			}
			if cfg.minSnippetRunes > 0 && utf8.RuneCountInString(t) < cfg.minSnippetRunes {
				continue
			}
			toks := tokenize(t, cfg.stopwords)
			for w := range titleToks {
				if toks == nil {
					toks = make(map[string]struct{}, len(titleToks))
				}
				toks[w] = struct{}{}
			}
			if len(toks) == 0 {
				continue
			}
			snips = append(snips, snippet{
				itemID: e.ItemID,
				title:  e.Title,
				text:   t,
				tokens: toks,
				tLen:   len(toks),
			})
			count++
			if cfg.maxSnippets > 0 && count >= cfg.maxSnippets {
				break build
			}
		}
	}
	return &index{cfg: cfg, snippets: snips}
}

// TopK returns up to k best-matching snippets by Jaccard similarity.
func (i *index) TopK(q string, k int) []Result {
	if len(i.snippets) == 0 {
		return nil
	}
	if strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	type scored struct {
		snip     *snippet
		score    float64
		lenRunes int
	}

	buf := make([]scored, 0, min(k*4, len(i.snippets)))
	for idx := range i.snippets {
		s := &i.snippets[idx]
		over := overlap(qTokens, s.tokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + s.tLen - over)
		if union <= 0 {
			continue
		}
		score := float64(over) / union
		if score <= 0 {
			continue
		}
		buf = append(buf, scored{
			snip:     s,
			score:    score,
			lenRunes: utf8.RuneCountInString(s.text),
		})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		if buf[a].lenRunes != buf[b].lenRunes {
			return buf[a].lenRunes < buf[b].lenRunes
		}
		return buf[a].snip.text < buf[b].snip.text
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for n := 0; n < k; n++ {
		out[n] = Result{
			ItemID:  buf[n].snip.itemID,
			Title:   buf[n].snip.title,
			Snippet: buf[n].snip.text,
			Score:   buf[n].score,
		}
	}
	return out
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	s = strings.ToLower(s)
	words := wordRE.FindAllString(s, -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := 0
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

var paraSplitRE = regexp.MustCompile(`\n\s*\n`)

func splitParas(raw string) []string {
	chunks := paraSplitRE.Split(raw, -1)
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if t := strings.TrimSpace(c); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
