package historyrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/yanqian/meeting-summarizer/internal/domain/history"
	"github.com/yanqian/meeting-summarizer/pkg/util"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS summaries (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	transcript  TEXT NOT NULL,
	prompt      TEXT NOT NULL DEFAULT '',
	summary     TEXT NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_summaries_user_created ON summaries(user_id, created_at);
`

// SQLiteRepository implements history.Repository on an embedded SQLite file.
// created_at holds unix nanoseconds.
type SQLiteRepository struct {
	db    *sql.DB
	clock util.Clock
}

// OpenSQLite opens dsn and applies the schema.
func OpenSQLite(ctx context.Context, dsn string, clock util.Clock) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &SQLiteRepository{db: db, clock: clock.OrDefault()}, nil
}

func (r *SQLiteRepository) Append(ctx context.Context, record history.Record) (string, error) {
	id := uuid.NewString()
	createdAt := r.clock().UTC().Truncate(time.Microsecond)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO summaries (id, user_id, transcript, prompt, summary, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, record.OwnerID, record.Transcript, record.Prompt, record.Summary, createdAt.UnixNano(),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *SQLiteRepository) ListFor(ctx context.Context, ownerID string) ([]history.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, transcript, prompt, summary, created_at
		 FROM summaries WHERE user_id = ?
		 ORDER BY created_at DESC, rowid DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]history.Record, 0)
	for rows.Next() {
		record, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (history.Record, bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return history.Record{}, false, nil
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, transcript, prompt, summary, created_at FROM summaries WHERE id = ?`, id)
	record, err := scanSQLiteRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return history.Record{}, false, nil
	}
	if err != nil {
		return history.Record{}, false, err
	}
	return record, true, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func scanSQLiteRecord(row rowScanner) (history.Record, error) {
	var (
		record history.Record
		nanos  int64
	)
	if err := row.Scan(&record.ID, &record.OwnerID, &record.Transcript, &record.Prompt, &record.Summary, &nanos); err != nil {
		return history.Record{}, err
	}
	record.CreatedAt = time.Unix(0, nanos).UTC()
	return record, nil
}

var _ history.Repository = (*SQLiteRepository)(nil)
