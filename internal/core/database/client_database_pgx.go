package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/config"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/core"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/models"
)

// uniqueViolationCode is the SQLSTATE for unique constraint violations.
const uniqueViolationCode = "23505"

type DatabaseClient struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: sqlDB, log: log}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Implementing the db interface for user

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, tenant_id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()), COALESCE($6, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		user.ID, user.TenantID, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return ErrEmailTaken
	}
	return err
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, tenant_id, email, password_hash, created_at, updated_at
		FROM users WHERE email = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, email).Scan(
		&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Implementing the vector store interface

func (c *DatabaseClient) EnsureCollection(ctx context.Context, name string) error {
	const q = `INSERT INTO collections (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`
	_, err := c.db.ExecContext(ctx, q, name)
	return err
}

// AddRecords writes one record per embedding/metadata pair in a single
// transaction. The collection dimension is locked for the duration: the first
// batch pins it, every later batch must match it exactly.
func (c *DatabaseClient) AddRecords(ctx context.Context, collection string, embeddings [][]float32, metas []models.RecordMetadata) (int, error) {
	if len(embeddings) != len(metas) {
		return 0, fmt.Errorf("embeddings/metadata length mismatch: %d vs %d", len(embeddings), len(metas))
	}
	if len(embeddings) == 0 {
		return 0, nil
	}

	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}

	var dim int
	err = tx.QueryRowContext(ctx, `SELECT dim FROM collections WHERE name = $1 FOR UPDATE`, collection).Scan(&dim)
	if err == sql.ErrNoRows {
		_ = tx.Rollback()
		return 0, &CollectionMissingError{Collection: collection}
	}
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	got := len(embeddings[0])
	if dim == 0 {
		if _, err := tx.ExecContext(ctx, `UPDATE collections SET dim = $2 WHERE name = $1`, collection, got); err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		dim = got
	}

	const q = `
		INSERT INTO records
			(id, collection_name, source, chunk_index, text, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	for i := range embeddings {
		if len(embeddings[i]) != dim {
			_ = tx.Rollback()
			return 0, &DimensionError{Collection: collection, Want: dim, Got: len(embeddings[i])}
		}
		meta := &metas[i]
		vec := pgvector.NewVector(embeddings[i])

		createdAt := time.Now().UTC()
		if ts, perr := time.Parse(time.RFC3339, meta.Timestamp); perr == nil {
			createdAt = ts
		}

		if _, err := stmt.ExecContext(ctx,
			newRecordID(meta.Source, meta.ChunkIndex), collection,
			meta.Source, meta.ChunkIndex, meta.Text, vec, createdAt,
		); err != nil {
			_ = tx.Rollback()
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(embeddings), nil
}

func (c *DatabaseClient) QueryByVector(ctx context.Context, collection string, vector []float32, k int) ([]models.RetrievedChunk, error) {
	_, dim, err := c.CollectionStats(ctx, collection)
	if err != nil {
		return nil, err
	}
	if dim == 0 {
		return nil, nil
	}
	if len(vector) != dim {
		return nil, &DimensionError{Collection: collection, Want: dim, Got: len(vector)}
	}

	const q = `
		SELECT source, chunk_index, text, created_at
		FROM records
		WHERE collection_name = $1
		ORDER BY embedding <-> $2
		LIMIT $3
	`
	vec := pgvector.NewVector(vector)
	rows, err := c.db.QueryContext(ctx, q, collection, vec, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunks(rows)
}

func (c *DatabaseClient) FullScan(ctx context.Context, collection string, limit int) ([]models.RetrievedChunk, error) {
	const q = `
		SELECT source, chunk_index, text, created_at
		FROM records
		WHERE collection_name = $1
		ORDER BY created_at ASC, chunk_index ASC, id ASC
		LIMIT $2
	`
	rows, err := c.db.QueryContext(ctx, q, collection, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunks(rows)
}

func scanChunks(rows *sql.Rows) ([]models.RetrievedChunk, error) {
	var out []models.RetrievedChunk
	for rows.Next() {
		var (
			ch        models.RetrievedChunk
			createdAt time.Time
		)
		if err := rows.Scan(&ch.Metadata.Source, &ch.Metadata.ChunkIndex, &ch.Text, &createdAt); err != nil {
			return nil, err
		}
		ch.Metadata.Text = ch.Text
		ch.Metadata.Timestamp = createdAt.UTC().Format(time.RFC3339)
		out = append(out, ch)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) DeleteBySource(ctx context.Context, collection, source string) (int, error) {
	const q = `DELETE FROM records WHERE collection_name = $1 AND source = $2`
	res, err := c.db.ExecContext(ctx, q, collection, source)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (c *DatabaseClient) DeleteByIDs(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	const q = `DELETE FROM records WHERE collection_name = $1 AND id = $2`
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, q, collection, id); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ResetCollection drops the collection row (records cascade) and recreates it
// with dim 0, so the next ingest is free to pin a new dimension.
func (c *DatabaseClient) ResetCollection(ctx context.Context, name string) error {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = $1`, name); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO collections (name) VALUES ($1)`, name); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	c.log.Infow("collection reset", "collection", name)
	return nil
}

func (c *DatabaseClient) CollectionStats(ctx context.Context, name string) (int, int, error) {
	var dim int
	err := c.db.QueryRowContext(ctx, `SELECT dim FROM collections WHERE name = $1`, name).Scan(&dim)
	if err == sql.ErrNoRows {
		return 0, 0, &CollectionMissingError{Collection: name}
	}
	if err != nil {
		return 0, 0, err
	}

	var count int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE collection_name = $1`, name).Scan(&count); err != nil {
		return 0, 0, err
	}
	return count, dim, nil
}
