package historyrepo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/meeting-summarizer/internal/domain/history"
	"github.com/yanqian/meeting-summarizer/pkg/util"
)

// Rows sharing a timestamp fall back to insertion order through seq.
const listForQuery = `
	SELECT id, user_id, transcript, prompt, summary, created_at
	FROM summaries
	WHERE user_id = $1
	ORDER BY created_at DESC, seq DESC
`

// PostgresRepository implements history.Repository using pgx.
type PostgresRepository struct {
	pool  *pgxpool.Pool
	clock util.Clock
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool, clock util.Clock) *PostgresRepository {
	return &PostgresRepository{pool: pool, clock: clock.OrDefault()}
}

// Append inserts a new row stamped with the server clock.
func (r *PostgresRepository) Append(ctx context.Context, record history.Record) (string, error) {
	id := uuid.New()
	createdAt := r.clock().UTC().Truncate(time.Microsecond)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO summaries (id, user_id, transcript, prompt, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, record.OwnerID, record.Transcript, record.Prompt, record.Summary, createdAt)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ListFor returns every record of the owner, newest first.
func (r *PostgresRepository) ListFor(ctx context.Context, ownerID string) ([]history.Record, error) {
	rows, err := r.pool.Query(ctx, listForQuery, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]history.Record, 0)
	for rows.Next() {
		record, err := scanPostgresRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// FindByID fetches one record. Ids that are not UUIDs are reported as missing.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (history.Record, bool, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return history.Record{}, false, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, transcript, prompt, summary, created_at
		FROM summaries
		WHERE id = $1
		LIMIT 1
	`, parsed)
	if err != nil {
		return history.Record{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return history.Record{}, false, rows.Err()
	}
	record, err := scanPostgresRecord(rows)
	if err != nil {
		return history.Record{}, false, err
	}
	return record, true, rows.Err()
}

// Close releases the pool.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPostgresRecord(row rowScanner) (history.Record, error) {
	var (
		record history.Record
		id     uuid.UUID
	)
	if err := row.Scan(&id, &record.OwnerID, &record.Transcript, &record.Prompt, &record.Summary, &record.CreatedAt); err != nil {
		return history.Record{}, err
	}
	record.ID = id.String()
	record.CreatedAt = record.CreatedAt.UTC()
	return record, nil
}

var _ history.Repository = (*PostgresRepository)(nil)
