//go:build wireinject
// +build wireinject

package main

import (
	"log/slog"

	"github.com/google/wire"

	"github.com/yanqian/meeting-summarizer/internal/bootstrap"
	"github.com/yanqian/meeting-summarizer/internal/domain/auth"
	"github.com/yanqian/meeting-summarizer/internal/domain/catalog"
	"github.com/yanqian/meeting-summarizer/internal/domain/history"
	"github.com/yanqian/meeting-summarizer/internal/domain/mailer"
	"github.com/yanqian/meeting-summarizer/internal/domain/summarizer"
	"github.com/yanqian/meeting-summarizer/internal/domain/transcript"
	"github.com/yanqian/meeting-summarizer/internal/infra/config"
	"github.com/yanqian/meeting-summarizer/internal/infra/historyrepo"
	httpiface "github.com/yanqian/meeting-summarizer/internal/interface/http"
	"github.com/yanqian/meeting-summarizer/pkg/metrics"
)

func initializeApp(cfg *config.Config, logger *slog.Logger) (*bootstrap.App, error) {
	wire.Build(
		provideSummaryConfig,
		provideProviderRegistry,
		provideTokenCounter,
		provideMailerConfig,
		provideMailDispatcher,
		provideClock,
		provideHistoryHandle,
		provideAuthConfig,
		provideRevocationStore,
		provideTranscriptConfig,
		provideTranscriptArchive,
		provideAuthHandler,
		catalog.New,
		metrics.NewCollector,
		wire.Bind(new(metrics.Recorder), new(*metrics.Collector)),
		wire.Bind(new(history.Repository), new(*historyrepo.Handle)),
		summarizer.NewService,
		mailer.NewService,
		history.NewService,
		transcript.NewService,
		auth.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
