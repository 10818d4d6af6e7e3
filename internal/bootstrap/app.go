package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/meeting-summarizer/internal/domain/auth"
	"github.com/yanqian/meeting-summarizer/internal/domain/mailer"
	"github.com/yanqian/meeting-summarizer/internal/domain/summarizer"
	"github.com/yanqian/meeting-summarizer/internal/infra/config"
	"github.com/yanqian/meeting-summarizer/internal/infra/historyrepo"
)

// SampleTranscript is summarized by the check-ai command.
const SampleTranscript = `Alice: Thanks for joining. The release candidate is ready for review.
Bob: QA found two blocking bugs in the export flow. I can fix both by Wednesday.
Alice: Then we ship Friday. Carol, can you update the changelog?
Carol: Yes, I'll have it done by Thursday.`

// App encapsulates the HTTP server lifecycle and the long-lived resources it owns.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	server     *http.Server
	history    *historyrepo.Handle
	sessions   auth.RevocationStore
	summarizer summarizer.Service
	mailer     mailer.Service
}

// NewApp is used by Wire to build the runnable app.
func NewApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	history *historyrepo.Handle,
	sessions auth.RevocationStore,
	summarizerSvc summarizer.Service,
	mailerSvc mailer.Service,
) *App {
	return &App{
		cfg:        cfg,
		logger:     logger.With("component", "bootstrap"),
		server:     server,
		history:    history,
		sessions:   sessions,
		summarizer: summarizerSvc,
		mailer:     mailerSvc,
	}
}

// Run starts the HTTP server and blocks until shutdown. Owned resources are
// released before it returns.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Migrate applies the history schema.
func (a *App) Migrate(ctx context.Context) error {
	if err := a.history.Migrate(ctx); err != nil {
		return err
	}
	a.logger.Info("history schema is up to date")
	return nil
}

// CheckAI summarizes SampleTranscript through provider ("" for the default).
func (a *App) CheckAI(ctx context.Context, provider string) (summarizer.Response, error) {
	return a.summarizer.Summarize(ctx, summarizer.Request{Transcript: SampleTranscript, Provider: provider})
}

// CheckEmail sends the test message through every real backend.
func (a *App) CheckEmail(ctx context.Context, to string) (mailer.TestReport, error) {
	return a.mailer.TestDelivery(ctx, to)
}

// Close releases the history store and the session store.
func (a *App) Close() error {
	var errs []error
	if a.history != nil {
		errs = append(errs, a.history.Close())
	}
	if closer, ok := a.sessions.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}
