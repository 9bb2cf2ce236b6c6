package core

import (
	"context"

	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/models"
)

// VectorStore is the slice of persistence the retrieval router and the
// ingestion pipeline consume. Collections are named, isolated namespaces;
// all embeddings inside one collection share dimensionality.
type VectorStore interface {
	// EnsureCollection creates the named collection if missing. Idempotent.
	EnsureCollection(ctx context.Context, name string) error

	// AddRecords persists one record per embedding/metadata pair. The adapter
	// generates a globally-unique id per record from the source name, a random
	// suffix and the chunk position, so repeated ingests of the same filename
	// never collide. Returns the number of records written.
	AddRecords(ctx context.Context, collection string, embeddings [][]float32, metas []models.RecordMetadata) (int, error)

	// QueryByVector returns the top-k (document, metadata) pairs ordered by
	// similarity, nearest first.
	QueryByVector(ctx context.Context, collection string, vector []float32, k int) ([]models.RetrievedChunk, error)

	// FullScan returns up to limit stored pairs in insertion order. Used only
	// by fallback paths.
	FullScan(ctx context.Context, collection string, limit int) ([]models.RetrievedChunk, error)

	// DeleteBySource removes all records ingested under the given source name
	// and reports how many were deleted.
	DeleteBySource(ctx context.Context, collection, source string) (int, error)

	// DeleteByIDs removes individual records.
	DeleteByIDs(ctx context.Context, collection string, ids []string) error

	// ResetCollection drops and recreates the collection. This is the
	// administrative recovery path for embedding dimension mismatches.
	ResetCollection(ctx context.Context, name string) error

	// CollectionStats reports record count and embedding dimension
	// (0 when the collection is empty).
	CollectionStats(ctx context.Context, name string) (count int, dim int, err error)
}

// DbClient defines all persistence operations the services need. It abstracts
// Postgres/pgvector so higher layers never depend on a specific DB.
type DbClient interface {
	VectorStore

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	Close() error
}
