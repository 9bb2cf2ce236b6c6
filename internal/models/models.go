package models

import (
	"time"
)

// User represents an authenticated caller. TenantID is the logical isolation
// key carried into the answer cache and object storage paths.
type User struct {
	ID           string    `db:"id" json:"id"`
	TenantID     string    `db:"tenant_id" json:"tenant_id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// RecordMetadata is the per-chunk metadata persisted next to every embedding.
// Retrieval depends on all four fields being present; the shape is part of the
// storage contract.
type RecordMetadata struct {
	Source     string `json:"source"`      // filename or URL
	ChunkIndex int    `json:"chunk_index"` // 0-based position among kept chunks
	Text       string `json:"text"`        // raw chunk text duplicate
	Timestamp  string `json:"timestamp"`   // ISO8601
}

// StoredRecord is the persisted unit in a vector store collection. Records are
// created during ingestion, deleted only by explicit per-source deletion or a
// collection reset, never mutated in place.
type StoredRecord struct {
	ID        string         `json:"id"`
	Embedding []float32      `json:"embedding"`
	Metadata  RecordMetadata `json:"metadata"`
	Text      string         `json:"text"`
}

// RetrievedChunk is a (document, metadata) pair returned by similarity
// queries and full scans.
type RetrievedChunk struct {
	Text     string         `json:"text"`
	Metadata RecordMetadata `json:"metadata"`
}
