// Package router is the central state machine of the question-answering
// side: it classifies each question, retrieves context, and dispatches to the
// refinement, summary or grounded-QA path.
package router

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/core"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/core/cache"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/models"
)

const (
	retrieveK = 10

	summaryChunkLimit = 5
	summaryMaxChars   = 4000

	noContextSentinel = "No relevant context found in the uploaded documents."
	noSummaryAnswer   = "The answer to your question is not found in the provided document. No document text available to summarize."
)

// ErrNoPriorAnswer is returned when a refinement is requested but there is
// nothing to refine. Handlers map it to a client error.
var ErrNoPriorAnswer = errors.New(
	"refinement requested (e.g. 'in 100 words') but no previous answer supplied; resend the original answer in 'prev_answer' or ask the original question first")

// Request is one question against the store.
type Request struct {
	Question   string `json:"question"`
	TenantID   string `json:"tenant_id,omitempty"`
	PrevAnswer string `json:"prev_answer,omitempty"`
}

// Response carries the answer plus the retrieval evidence behind it.
// Citations[i] is the stored chunk index of Chunks[i].
type Response struct {
	Answer    string   `json:"answer"`
	Chunks    []string `json:"chunks,omitempty"`
	Citations []int    `json:"citations,omitempty"`
	Question  string   `json:"question"`
	TenantID  string   `json:"tenant_id,omitempty"`

	// Refinement-only fields.
	Note          string `json:"note,omitempty"`
	RewrittenFrom string `json:"rewritten_from,omitempty"`
	WordLimit     int    `json:"word_limit,omitempty"`
}

type Router struct {
	store      core.VectorStore
	embedder   core.EmbeddingProvider
	llm        core.LLMProvider
	cache      *cache.AnswerCache
	collection string
	log        *zap.SugaredLogger
}

func New(store core.VectorStore, embedder core.EmbeddingProvider, llm core.LLMProvider, answers *cache.AnswerCache, collection string, log *zap.SugaredLogger) *Router {
	return &Router{
		store:      store,
		embedder:   embedder,
		llm:        llm,
		cache:      answers,
		collection: collection,
		log:        log,
	}
}

// Ask answers one question. Classification precedence: summary keywords beat
// the refinement phrase, everything else is grounded QA.
func (r *Router) Ask(ctx context.Context, req Request) (*Response, error) {
	intent := Classify(req.Question)
	r.log.Debugw("question classified", "intent", intent.Kind.String(), "tenant", cache.Key(req.TenantID))

	switch intent.Kind {
	case IntentRefine:
		return r.refine(ctx, req, intent.WordTarget)
	case IntentSummary:
		return r.summarize(ctx, req)
	default:
		return r.grounded(ctx, req)
	}
}

func (r *Router) refine(ctx context.Context, req Request, wordTarget int) (*Response, error) {
	source := req.PrevAnswer
	if source == "" {
		if cached, ok := r.cache.Get(req.TenantID); ok {
			source = cached
		}
	}
	if source == "" {
		return nil, ErrNoPriorAnswer
	}

	// Already short enough: hand it back untouched, no model call.
	wordCount := len(strings.Fields(source))
	if wordCount <= wordTarget {
		return &Response{
			Answer:        source,
			RewrittenFrom: source,
			WordLimit:     wordTarget,
			Note:          fmt.Sprintf("Original answer already %d words; no shortening performed.", wordCount),
			Question:      req.Question,
			TenantID:      req.TenantID,
		}, nil
	}

	prompt := fmt.Sprintf(
		"Rewrite the following answer to be at most %d words. "+
			"Do not add new information; only rephrase and shorten while preserving facts.\n\n"+
			"Original answer:\n%s\n\nRewritten answer:\n",
		wordTarget, source)

	rewritten, err := r.llm.Generate(ctx, "", prompt)
	if err != nil {
		return nil, fmt.Errorf("rewrite answer: %w", err)
	}

	r.cache.Set(req.TenantID, rewritten)
	return &Response{
		Answer:        rewritten,
		RewrittenFrom: source,
		WordLimit:     wordTarget,
		Question:      req.Question,
		TenantID:      req.TenantID,
	}, nil
}

func (r *Router) summarize(ctx context.Context, req Request) (*Response, error) {
	recs, err := r.retrieve(ctx, req.Question)
	if err != nil {
		return nil, err
	}
	docs, citations := splitDocs(recs)

	selected := docs
	if len(selected) > summaryChunkLimit {
		selected = selected[:summaryChunkLimit]
	}
	if len(selected) == 0 {
		stored, scanErr := r.store.FullScan(ctx, r.collection, fallbackScanLimit)
		if scanErr != nil {
			r.log.Warnw("summary full scan failed", "error", scanErr)
		}
		for _, rec := range stored {
			selected = append(selected, rec.Text)
			if len(selected) == summaryChunkLimit {
				break
			}
		}
	}

	if len(selected) == 0 {
		return &Response{
			Answer:    noSummaryAnswer,
			Chunks:    docs,
			Citations: citations,
			Question:  req.Question,
			TenantID:  req.TenantID,
		}, nil
	}

	content := strings.Join(selected, "\n")
	if runes := []rune(content); len(runes) > summaryMaxChars {
		content = string(runes[:summaryMaxChars])
		r.log.Debugw("summary content truncated", "max_chars", summaryMaxChars)
	}

	prompt := "You are an assistant. Summarize the following document content concisely. " +
		"Use ONLY the content provided. Do not add new facts or outside knowledge.\n\n" +
		"Content:\n" + content + "\n\nSummary:\n"

	answer, err := r.llm.Generate(ctx, "", prompt)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	r.cache.Set(req.TenantID, answer)
	return &Response{
		Answer:    answer,
		Chunks:    docs,
		Citations: citations,
		Question:  req.Question,
		TenantID:  req.TenantID,
	}, nil
}

const groundedSystemPrompt = "You are an enterprise assistant. Use ONLY the following context to answer the user's question. " +
	"If the answer is not in the context, say 'The answer is not found in the provided document.' " +
	"Do NOT use any outside knowledge."

func (r *Router) grounded(ctx context.Context, req Request) (*Response, error) {
	recs, err := r.retrieve(ctx, req.Question)
	if err != nil {
		return nil, err
	}
	docs, citations := splitDocs(recs)

	qaContext := noContextSentinel
	if len(docs) > 0 {
		qaContext = strings.Join(docs, "\n")
	}

	if len(docs) == 0 || qaContext == noContextSentinel || looksLikePlaceholders(docs) {
		if resp := r.fallbackScan(ctx, req, docs, citations); resp != nil {
			return resp, nil
		}
	}

	userPrompt := "Context:\n"
	if sources := uniqueSources(recs); len(sources) > 0 {
		userPrompt += "(Sources: " + strings.Join(sources, ", ") + ")\n"
	}
	userPrompt += qaContext +
		"\n\nQuestion: " + req.Question +
		"\n\nAnswer as concisely as possible. Do not invent question numbers or sections. " +
		"If not found, reply exactly: The answer is not found in the provided document."

	answer, err := r.llm.Generate(ctx, groundedSystemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("grounded answer: %w", err)
	}

	r.cache.Set(req.TenantID, answer)
	return &Response{
		Answer:    answer,
		Chunks:    docs,
		Citations: citations,
		Question:  req.Question,
		TenantID:  req.TenantID,
	}, nil
}

// retrieve embeds the question and pulls the nearest chunks. The collection
// is created on first use so asking against a fresh database yields no
// records, not an error.
func (r *Router) retrieve(ctx context.Context, question string) ([]models.RetrievedChunk, error) {
	if err := r.store.EnsureCollection(ctx, r.collection); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	vectors, err := r.embedder.EmbedTexts(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(vectors) == 0 {
		return nil, errors.New("embedding provider returned no vectors")
	}

	recs, err := r.store.QueryByVector(ctx, r.collection, vectors[0], retrieveK)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	for i, rec := range recs {
		if i == 2 {
			break
		}
		r.log.Debugw("retrieved doc", "index", i, "preview", preview(rec.Text, 200))
	}
	r.log.Debugw("retrieval done", "docs", len(recs))

	return recs, nil
}

func splitDocs(recs []models.RetrievedChunk) ([]string, []int) {
	docs := make([]string, 0, len(recs))
	citations := make([]int, 0, len(recs))
	for _, rec := range recs {
		docs = append(docs, rec.Text)
		citations = append(citations, rec.Metadata.ChunkIndex)
	}
	return docs, citations
}

func uniqueSources(recs []models.RetrievedChunk) []string {
	seen := make(map[string]struct{}, len(recs))
	var out []string
	for _, rec := range recs {
		src := rec.Metadata.Source
		if src == "" {
			continue
		}
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		out = append(out, src)
	}
	sort.Strings(out)
	return out
}

func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
