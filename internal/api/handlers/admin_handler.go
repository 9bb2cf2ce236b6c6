package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/core"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/models"
)

const (
	debugScanLimit     = 100
	searchScanLimit    = 1000
	searchSnippetRange = 80
)

// AdminHandler serves the debug and recovery endpoints.
type AdminHandler struct {
	store      core.VectorStore
	collection string
	log        *zap.SugaredLogger
}

func NewAdminHandler(store core.VectorStore, collection string, log *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{store: store, collection: collection, log: log}
}

// DebugVectorstore summarizes the collection contents.
func (h *AdminHandler) DebugVectorstore(w http.ResponseWriter, r *http.Request) {
	count, dim, err := h.store.CollectionStats(r.Context(), h.collection)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
		return
	}

	recs, err := h.store.FullScan(r.Context(), h.collection, debugScanLimit)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
		return
	}

	docs := make([]string, 0, len(recs))
	metas := make([]models.RecordMetadata, 0, len(recs))
	for _, rec := range recs {
		docs = append(docs, rec.Text)
		metas = append(metas, rec.Metadata)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"embedding_count": count,
		"embedding_dim":   dim,
		"documents":       docs,
		"metadatas":       metas,
	})
}

type termMatch struct {
	ChunkIndex int                   `json:"chunk_index"`
	Snippet    string                `json:"snippet"`
	Meta       models.RecordMetadata `json:"meta"`
}

// DebugSearchTerm is a deterministic, case-insensitive substring search over
// all stored chunks. Quick presence checks without going through embeddings.
func (h *AdminHandler) DebugSearchTerm(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("term")
	if term == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'term' is required")
		return
	}

	recs, err := h.store.FullScan(r.Context(), h.collection, searchScanLimit)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
		return
	}

	termLower := strings.ToLower(term)
	found := make([]termMatch, 0)
	for idx, rec := range recs {
		lower := strings.ToLower(rec.Text)
		pos := strings.Index(lower, termLower)
		if pos < 0 {
			continue
		}
		found = append(found, termMatch{
			ChunkIndex: idx,
			Snippet:    cutAround(rec.Text, lower, pos, searchSnippetRange),
			Meta:       rec.Metadata,
		})
	}

	h.log.Debugw("term search", "term", term, "matches", len(found), "docs", len(recs))
	writeJSON(w, http.StatusOK, map[string]any{
		"term":        term,
		"matches":     found,
		"match_count": len(found),
		"doc_count":   len(recs),
	})
}

// ResetVectorstore drops and recreates the collection. This is the recovery
// path for embedding dimension mismatches after a model change.
func (h *AdminHandler) ResetVectorstore(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ResetCollection(r.Context(), h.collection); err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "error", "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("'%s' collection deleted.", h.collection),
	})
}

// cutAround slices a window of radius runes around the byte position pos,
// which indexes the lowercased copy of text.
func cutAround(text, lower string, pos, radius int) string {
	start := utf8.RuneCountInString(lower[:pos])
	runes := []rune(text)
	lo := start - radius
	if lo < 0 {
		lo = 0
	}
	hi := start + radius
	if hi > len(runes) {
		hi = len(runes)
	}
	return string(runes[lo:hi])
}
