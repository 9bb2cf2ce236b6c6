package router

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	fallbackScanLimit  = 1000
	snippetRadius      = 60
	placeholderProbeN  = 5
	minFallbackTermLen = 3
)

var (
	placeholderRe = regexp.MustCompile(`(?i)^Chunk\s*\d+`)
	quotedTermRe  = regexp.MustCompile(`['"\x{201C}\x{201D}](.+?)['"\x{201C}\x{201D}]`)
	wordRe        = regexp.MustCompile(`\w+`)
)

// looksLikePlaceholders reports whether the leading retrieved docs are
// placeholder rows rather than real document text. Only the first few docs
// are probed.
func looksLikePlaceholders(docs []string) bool {
	probe := docs
	if len(probe) > placeholderProbeN {
		probe = probe[:placeholderProbeN]
	}
	for _, d := range probe {
		if placeholderRe.MatchString(strings.TrimSpace(d)) {
			return true
		}
	}
	return false
}

// fallbackScan is the recall safety net behind semantic retrieval: an exact
// substring search over every stored chunk. It catches mention / yes-no
// questions that vector similarity silently misses. Returns nil when nothing
// matched or the scan failed; the caller then proceeds to the model.
func (r *Router) fallbackScan(ctx context.Context, req Request, docs []string, citations []int) *Response {
	stored, err := r.store.FullScan(ctx, r.collection, fallbackScanLimit)
	if err != nil {
		r.log.Warnw("fallback scan failed", "error", err)
		return nil
	}
	if len(stored) == 0 {
		return nil
	}

	terms := fallbackTerms(req.Question)
	r.log.Debugw("fallback terms", "terms", terms)
	if len(terms) == 0 {
		return nil
	}

	for _, rec := range stored {
		for _, term := range terms {
			snippet, ok := findSnippet(rec.Text, term)
			if !ok {
				continue
			}
			r.log.Debugw("fallback match",
				"term", term, "chunk_index", rec.Metadata.ChunkIndex, "source", rec.Metadata.Source)
			return &Response{
				Answer: fmt.Sprintf("Yes — found '%s' in the uploaded documents (chunk %d). Snippet: %s",
					term, rec.Metadata.ChunkIndex, snippet),
				Chunks:    docs,
				Citations: citations,
				Question:  req.Question,
				TenantID:  req.TenantID,
			}
		}
	}
	return nil
}

// fallbackTerms extracts candidate search terms: a quoted substring wins,
// otherwise every word longer than three characters.
func fallbackTerms(question string) []string {
	if m := quotedTermRe.FindStringSubmatch(question); m != nil {
		if term := strings.TrimSpace(m[1]); term != "" {
			return []string{term}
		}
	}
	var terms []string
	for _, w := range wordRe.FindAllString(question, -1) {
		if utf8.RuneCountInString(w) > minFallbackTermLen {
			terms = append(terms, w)
		}
	}
	return terms
}

// findSnippet does a case-insensitive substring search and cuts a window
// around the start of the match.
func findSnippet(text, term string) (string, bool) {
	lowerText := strings.ToLower(text)
	idx := strings.Index(lowerText, strings.ToLower(term))
	if idx < 0 {
		return "", false
	}

	start := utf8.RuneCountInString(lowerText[:idx])
	runes := []rune(text)
	lo := start - snippetRadius
	if lo < 0 {
		lo = 0
	}
	hi := start + snippetRadius
	if hi > len(runes) {
		hi = len(runes)
	}
	return string(runes[lo:hi]), true
}
