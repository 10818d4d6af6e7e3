package historyrepo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/meeting-summarizer/internal/domain/history"
	apperrors "github.com/yanqian/meeting-summarizer/pkg/errors"
	"github.com/yanqian/meeting-summarizer/pkg/util"
)

const msgDatabaseURLMissing = "DATABASE_URL is not set. Please define the DATABASE_URL environment variable"

// Options configures the lazily opened store.
type Options struct {
	URL      string
	MaxConns int32
	MinConns int32
	Clock    util.Clock
}

type backend interface {
	history.Repository
	io.Closer
}

// Handle is the single shared store connection. The backend is opened on first
// use and reused afterwards; concurrent first uses wait on the same open.
type Handle struct {
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	backend backend
}

// NewHandle returns an unopened handle. No I/O happens until the first operation.
func NewHandle(opts Options, logger *slog.Logger) *Handle {
	opts.URL = strings.TrimSpace(opts.URL)
	return &Handle{opts: opts, logger: logger.With("component", "historyrepo.handle")}
}

// Open connects the backend if needed and returns it.
func (h *Handle) Open(ctx context.Context) (history.Repository, error) {
	b, err := h.open(ctx)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (h *Handle) open(ctx context.Context) (backend, error) {
	if h.opts.URL == "" {
		return nil, apperrors.Wrap(apperrors.CodeConfig, msgDatabaseURLMissing, nil)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.backend != nil {
		return h.backend, nil
	}

	b, err := h.connect(ctx)
	if err != nil {
		h.logger.Error("history store connection failed", "error", err)
		return nil, apperrors.Wrap(apperrors.CodeStore, "Failed to connect to the history store", err)
	}
	h.backend = b
	return b, nil
}

func (h *Handle) connect(ctx context.Context) (backend, error) {
	scheme := schemeOf(h.opts.URL)
	switch scheme {
	case "postgres", "postgresql":
		if err := runPostgresMigrations(h.opts.URL); err != nil {
			return nil, err
		}
		poolConfig, err := pgxpool.ParseConfig(h.opts.URL)
		if err != nil {
			return nil, fmt.Errorf("parse database url: %w", err)
		}
		if h.opts.MaxConns > 0 {
			poolConfig.MaxConns = h.opts.MaxConns
		}
		if h.opts.MinConns > 0 {
			poolConfig.MinConns = h.opts.MinConns
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, fmt.Errorf("create postgres pool: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		h.logger.Info("history postgres store enabled")
		return NewPostgresRepository(pool, h.opts.Clock), nil
	case "sqlite", "file":
		repo, err := OpenSQLite(ctx, sqliteDSN(h.opts.URL), h.opts.Clock)
		if err != nil {
			return nil, err
		}
		h.logger.Info("history sqlite store enabled")
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported database url scheme %q", scheme)
	}
}

// Migrate opens the backend, which applies its schema.
func (h *Handle) Migrate(ctx context.Context) error {
	_, err := h.open(ctx)
	return err
}

// Close releases the backend if it was ever opened.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.backend == nil {
		return nil
	}
	err := h.backend.Close()
	h.backend = nil
	return err
}

func (h *Handle) Append(ctx context.Context, record history.Record) (string, error) {
	b, err := h.open(ctx)
	if err != nil {
		return "", err
	}
	return b.Append(ctx, record)
}

func (h *Handle) ListFor(ctx context.Context, ownerID string) ([]history.Record, error) {
	b, err := h.open(ctx)
	if err != nil {
		return nil, err
	}
	return b.ListFor(ctx, ownerID)
}

func (h *Handle) FindByID(ctx context.Context, id string) (history.Record, bool, error) {
	b, err := h.open(ctx)
	if err != nil {
		return history.Record{}, false, err
	}
	return b.FindByID(ctx, id)
}

func schemeOf(url string) string {
	idx := strings.Index(url, ":")
	if idx <= 0 {
		return ""
	}
	return strings.ToLower(url[:idx])
}

// sqliteDSN maps sqlite:<path>, sqlite://<path> and file: URLs to a modernc DSN.
func sqliteDSN(url string) string {
	if strings.HasPrefix(strings.ToLower(url), "file:") {
		return url
	}
	dsn := url[len("sqlite:"):]
	return strings.TrimPrefix(dsn, "//")
}

var _ history.Repository = (*Handle)(nil)
