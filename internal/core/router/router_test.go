package router

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/core/cache"
	db "github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/core/database"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/models"
)

type fakeStore struct {
	queryResult []models.RetrievedChunk
	scanResult  []models.RetrievedChunk
	queryCalls  int
	scanCalls   int

	// freshDatabase makes QueryByVector fail like a database whose
	// collection row was never created, until EnsureCollection runs.
	freshDatabase bool
	ensured       bool
}

func (s *fakeStore) EnsureCollection(ctx context.Context, name string) error {
	s.ensured = true
	return nil
}

func (s *fakeStore) AddRecords(ctx context.Context, collection string, embeddings [][]float32, metas []models.RecordMetadata) (int, error) {
	return len(embeddings), nil
}

func (s *fakeStore) QueryByVector(ctx context.Context, collection string, vector []float32, k int) ([]models.RetrievedChunk, error) {
	s.queryCalls++
	if s.freshDatabase && !s.ensured {
		return nil, &db.CollectionMissingError{Collection: collection}
	}
	return s.queryResult, nil
}

func (s *fakeStore) FullScan(ctx context.Context, collection string, limit int) ([]models.RetrievedChunk, error) {
	s.scanCalls++
	return s.scanResult, nil
}

func (s *fakeStore) DeleteBySource(ctx context.Context, collection, source string) (int, error) {
	return 0, nil
}
func (s *fakeStore) DeleteByIDs(ctx context.Context, collection string, ids []string) error {
	return nil
}
func (s *fakeStore) ResetCollection(ctx context.Context, name string) error { return nil }
func (s *fakeStore) CollectionStats(ctx context.Context, name string) (int, int, error) {
	return len(s.scanResult), 0, nil
}

type fakeEmbedder struct{ calls int }

func (e *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

type fakeLLM struct {
	answer string
	calls  int
	prompt string
	system string
}

func (l *fakeLLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	l.calls++
	l.system = systemPrompt
	l.prompt = userPrompt
	return l.answer, nil
}

func chunk(text, source string, idx int) models.RetrievedChunk {
	return models.RetrievedChunk{
		Text: text,
		Metadata: models.RecordMetadata{
			Source:     source,
			ChunkIndex: idx,
			Text:       text,
			Timestamp:  "2026-08-29T00:00:00Z",
		},
	}
}

func newTestRouter(store *fakeStore, llm *fakeLLM) (*Router, *fakeEmbedder, *cache.AnswerCache) {
	embedder := &fakeEmbedder{}
	answers := cache.NewAnswerCache()
	r := New(store, embedder, llm, answers, "documents2", zap.NewNop().Sugar())
	return r, embedder, answers
}

func TestAsk_RefineShortAnswerIsNoOp(t *testing.T) {
	llm := &fakeLLM{answer: "should not be called"}
	r, _, _ := newTestRouter(&fakeStore{}, llm)

	resp, err := r.Ask(context.Background(), Request{
		Question:   "in 50 words",
		TenantID:   "acme",
		PrevAnswer: "Short answer with five words.",
	})
	require.NoError(t, err)

	assert.Equal(t, "Short answer with five words.", resp.Answer)
	assert.Equal(t, 50, resp.WordLimit)
	assert.Contains(t, resp.Note, "already 5 words")
	assert.Zero(t, llm.calls)
}

func TestAsk_RefineWithoutPriorAnswerFails(t *testing.T) {
	r, _, _ := newTestRouter(&fakeStore{}, &fakeLLM{})

	_, err := r.Ask(context.Background(), Request{Question: "in 10 words", TenantID: "acme"})
	assert.ErrorIs(t, err, ErrNoPriorAnswer)
}

func TestAsk_RefineRewritesAndCaches(t *testing.T) {
	llm := &fakeLLM{answer: "Condensed."}
	r, _, answers := newTestRouter(&fakeStore{}, llm)

	long := strings.Repeat("word ", 40)
	resp, err := r.Ask(context.Background(), Request{
		Question:   "in 10 words",
		TenantID:   "acme",
		PrevAnswer: long,
	})
	require.NoError(t, err)

	assert.Equal(t, "Condensed.", resp.Answer)
	assert.Equal(t, 1, llm.calls)
	assert.Contains(t, llm.prompt, "at most 10 words")

	cached, ok := answers.Get("acme")
	assert.True(t, ok)
	assert.Equal(t, "Condensed.", cached)
}

func TestAsk_RefineUsesCachedAnswer(t *testing.T) {
	llm := &fakeLLM{answer: "unused"}
	r, _, answers := newTestRouter(&fakeStore{}, llm)
	answers.Set("acme", "Previously cached tiny answer.")

	resp, err := r.Ask(context.Background(), Request{Question: "in 30 words", TenantID: "acme"})
	require.NoError(t, err)

	assert.Equal(t, "Previously cached tiny answer.", resp.Answer)
	assert.Zero(t, llm.calls)
}

func TestAsk_SummaryEmptyStoreReturnsFixedMessage(t *testing.T) {
	llm := &fakeLLM{answer: "should not be called"}
	store := &fakeStore{}
	r, _, _ := newTestRouter(store, llm)

	resp, err := r.Ask(context.Background(), Request{Question: "give me a summary"})
	require.NoError(t, err)

	assert.Equal(t, noSummaryAnswer, resp.Answer)
	assert.Zero(t, llm.calls)
	assert.Equal(t, 1, store.scanCalls)
}

func TestAsk_SummarySelectsTopFiveAndTruncates(t *testing.T) {
	big := strings.Repeat("x", 1200)
	var recs []models.RetrievedChunk
	for i := 0; i < 8; i++ {
		recs = append(recs, chunk(big, "doc.pdf", i))
	}
	llm := &fakeLLM{answer: "a summary"}
	r, _, answers := newTestRouter(&fakeStore{queryResult: recs}, llm)

	resp, err := r.Ask(context.Background(), Request{Question: "summarize the document", TenantID: "acme"})
	require.NoError(t, err)

	assert.Equal(t, "a summary", resp.Answer)
	assert.Equal(t, 1, llm.calls)

	// 5 selected chunks of 1200 chars get cut at the 4000-char cap.
	start := strings.Index(llm.prompt, "Content:\n") + len("Content:\n")
	end := strings.Index(llm.prompt, "\n\nSummary:")
	require.Greater(t, end, start)
	assert.Len(t, llm.prompt[start:end], summaryMaxChars)

	cached, ok := answers.Get("acme")
	assert.True(t, ok)
	assert.Equal(t, "a summary", cached)
}

func TestAsk_SummaryFallsBackToFullScan(t *testing.T) {
	store := &fakeStore{
		scanResult: []models.RetrievedChunk{chunk("stored text", "doc.pdf", 0)},
	}
	llm := &fakeLLM{answer: "stored summary"}
	r, _, _ := newTestRouter(store, llm)

	resp, err := r.Ask(context.Background(), Request{Question: "summary please"})
	require.NoError(t, err)

	assert.Equal(t, "stored summary", resp.Answer)
	assert.Contains(t, llm.prompt, "stored text")
}

func TestAsk_GroundedAnswersFromContext(t *testing.T) {
	recs := []models.RetrievedChunk{
		chunk("The office is in Berlin.", "handbook.pdf", 4),
		chunk("Founded in 2011.", "handbook.pdf", 9),
	}
	llm := &fakeLLM{answer: "Berlin."}
	r, embedder, answers := newTestRouter(&fakeStore{queryResult: recs}, llm)

	resp, err := r.Ask(context.Background(), Request{Question: "Where is the office?", TenantID: "acme"})
	require.NoError(t, err)

	assert.Equal(t, "Berlin.", resp.Answer)
	assert.Equal(t, []string{"The office is in Berlin.", "Founded in 2011."}, resp.Chunks)
	assert.Equal(t, []int{4, 9}, resp.Citations)
	assert.Equal(t, 1, embedder.calls)
	assert.Equal(t, 1, llm.calls)
	assert.Contains(t, llm.system, "Use ONLY the following context")
	assert.Contains(t, llm.prompt, "(Sources: handbook.pdf)")
	assert.Contains(t, llm.prompt, "The office is in Berlin.")

	cached, ok := answers.Get("acme")
	assert.True(t, ok)
	assert.Equal(t, "Berlin.", cached)
}

func TestAsk_GroundedFallbackFindsExactMention(t *testing.T) {
	store := &fakeStore{
		scanResult: []models.RetrievedChunk{
			chunk("nothing relevant here", "a.pdf", 0),
			chunk("our partner acme corp signed the contract in May", "a.pdf", 7),
		},
	}
	llm := &fakeLLM{answer: "should not be called"}
	r, _, _ := newTestRouter(store, llm)

	resp, err := r.Ask(context.Background(), Request{Question: "Is there any mention of 'acme corp'?"})
	require.NoError(t, err)

	assert.Contains(t, resp.Answer, "Yes — found 'acme corp'")
	assert.Contains(t, resp.Answer, "(chunk 7)")
	assert.Contains(t, resp.Answer, "acme corp signed the contract")
	assert.Zero(t, llm.calls, "fallback answers bypass the model")
}

func TestAsk_GroundedFallbackTriggersOnPlaceholders(t *testing.T) {
	store := &fakeStore{
		queryResult: []models.RetrievedChunk{chunk("Chunk 0", "a.pdf", 0)},
		scanResult:  []models.RetrievedChunk{chunk("the tridion system is deprecated", "a.pdf", 2)},
	}
	llm := &fakeLLM{answer: "unused"}
	r, _, _ := newTestRouter(store, llm)

	resp, err := r.Ask(context.Background(), Request{Question: `any mention of "tridion"?`})
	require.NoError(t, err)

	assert.Contains(t, resp.Answer, "Yes — found 'tridion'")
	assert.Equal(t, 1, store.scanCalls)
	assert.Zero(t, llm.calls)
}

func TestAsk_GroundedEmptyStoreGoesToModelWithSentinel(t *testing.T) {
	llm := &fakeLLM{answer: "The answer is not found in the provided document."}
	store := &fakeStore{}
	r, _, _ := newTestRouter(store, llm)

	resp, err := r.Ask(context.Background(), Request{Question: "what is the refund window?"})
	require.NoError(t, err)

	assert.Equal(t, 1, store.scanCalls, "fallback scan runs once")
	assert.Equal(t, 1, llm.calls)
	assert.Contains(t, llm.prompt, noContextSentinel)
	assert.Equal(t, "The answer is not found in the provided document.", resp.Answer)
}

func TestAsk_FreshDatabaseGroundedGoesToModelWithSentinel(t *testing.T) {
	llm := &fakeLLM{answer: "The answer is not found in the provided document."}
	store := &fakeStore{freshDatabase: true}
	r, _, _ := newTestRouter(store, llm)

	resp, err := r.Ask(context.Background(), Request{Question: "what is the refund window?"})
	require.NoError(t, err, "asking before any ingest must not fail")

	assert.True(t, store.ensured, "collection is created on first use")
	assert.Equal(t, 1, llm.calls)
	assert.Contains(t, llm.prompt, noContextSentinel)
	assert.Equal(t, "The answer is not found in the provided document.", resp.Answer)
}

func TestAsk_FreshDatabaseSummaryReturnsFixedMessage(t *testing.T) {
	llm := &fakeLLM{answer: "should not be called"}
	store := &fakeStore{freshDatabase: true}
	r, _, _ := newTestRouter(store, llm)

	resp, err := r.Ask(context.Background(), Request{Question: "give me a summary"})
	require.NoError(t, err, "summary before any ingest must not fail")

	assert.True(t, store.ensured)
	assert.Equal(t, noSummaryAnswer, resp.Answer)
	assert.Zero(t, llm.calls)
}

func TestAsk_TenantCacheIsolation(t *testing.T) {
	recs := []models.RetrievedChunk{chunk("ctx", "a.pdf", 0)}
	llm := &fakeLLM{answer: "answer for acme"}
	r, _, answers := newTestRouter(&fakeStore{queryResult: recs}, llm)

	_, err := r.Ask(context.Background(), Request{Question: "who?", TenantID: "acme"})
	require.NoError(t, err)

	_, ok := answers.Get("globex")
	assert.False(t, ok)
	got, ok := answers.Get("acme")
	assert.True(t, ok)
	assert.Equal(t, "answer for acme", got)
}

func TestFindSnippet(t *testing.T) {
	text := strings.Repeat("a", 100) + "NEEDLE" + strings.Repeat("b", 100)
	snippet, ok := findSnippet(text, "needle")
	require.True(t, ok)
	assert.Contains(t, snippet, "NEEDLE")
	assert.LessOrEqual(t, len([]rune(snippet)), 2*snippetRadius)

	_, ok = findSnippet("haystack only", "needle")
	assert.False(t, ok)
}

func TestFindSnippet_MultibyteTextStaysAligned(t *testing.T) {
	// Runes whose lowercase form is shorter in bytes (İ is 2 bytes, i is 1)
	// must not skew the window position.
	text := strings.Repeat("İ", 100) + "NEEDLE" + strings.Repeat("ü", 100)
	snippet, ok := findSnippet(text, "needle")
	require.True(t, ok)
	assert.Contains(t, snippet, "NEEDLE")
	assert.Equal(t, 2*snippetRadius, len([]rune(snippet)))
}
