package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/meeting-summarizer/internal/domain/auth"
	"github.com/yanqian/meeting-summarizer/internal/domain/mailer"
	"github.com/yanqian/meeting-summarizer/internal/domain/summarizer"
	"github.com/yanqian/meeting-summarizer/internal/domain/transcript"
	"github.com/yanqian/meeting-summarizer/internal/infra/config"
	"github.com/yanqian/meeting-summarizer/internal/infra/historyrepo"
	"github.com/yanqian/meeting-summarizer/internal/infra/llm/chatgpt"
	"github.com/yanqian/meeting-summarizer/internal/infra/mail/sendgrid"
	"github.com/yanqian/meeting-summarizer/internal/infra/mail/simulated"
	"github.com/yanqian/meeting-summarizer/internal/infra/mail/smtp"
	"github.com/yanqian/meeting-summarizer/internal/infra/sessionstore"
	"github.com/yanqian/meeting-summarizer/internal/infra/transcriptstore"
	httpiface "github.com/yanqian/meeting-summarizer/internal/interface/http"
	"github.com/yanqian/meeting-summarizer/pkg/metrics"
	"github.com/yanqian/meeting-summarizer/pkg/util"
)

func provideSummaryConfig(cfg *config.Config) summarizer.Config {
	return summarizer.Config{
		DefaultProvider: cfg.LLM.DefaultProvider,
		SystemPrompt:    cfg.LLM.SystemPrompt,
		DefaultPrompt:   cfg.LLM.DefaultPrompt,
	}
}

func provideProviderRegistry(cfg *config.Config) *summarizer.Registry {
	groq := chatgpt.NewClient(cfg.LLM.Groq.APIKey, cfg.LLM.Groq.BaseURL)
	openai := chatgpt.NewClient(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.BaseURL)
	return summarizer.NewRegistry(
		summarizer.NewGroqProvider(groq, cfg.LLM.Groq.DefaultModel, cfg.LLM.Temperature, cfg.LLM.MaxTokens),
		summarizer.NewOpenAIProvider(openai, cfg.LLM.OpenAI.DefaultModel, cfg.LLM.Temperature, cfg.LLM.MaxTokens),
	)
}

func provideTokenCounter(logger *slog.Logger) summarizer.TokenCounter {
	return summarizer.NewTiktokenCounter(logger)
}

func provideMailerConfig(cfg *config.Config) mailer.Config {
	return mailer.Config{
		From:            cfg.Email.From,
		DefaultProvider: cfg.Email.DefaultProvider,
	}
}

func provideMailDispatcher(cfg *config.Config, mailCfg mailer.Config, recorder metrics.Recorder, logger *slog.Logger) *mailer.Dispatcher {
	return mailer.NewDispatcher(mailCfg, recorder, logger,
		sendgrid.New(cfg.Email.SendGrid.APIKey, cfg.Email.SendGrid.BaseURL),
		smtp.New(smtp.Config{
			Host:     cfg.Email.SMTP.Host,
			Port:     cfg.Email.SMTP.Port,
			Secure:   cfg.Email.SMTP.Secure,
			User:     cfg.Email.SMTP.User,
			Password: cfg.Email.SMTP.Password,
		}),
		simulated.New(),
	)
}

func provideClock() util.Clock {
	return util.NowUTC
}

func provideHistoryHandle(cfg *config.Config, clock util.Clock, logger *slog.Logger) *historyrepo.Handle {
	return historyrepo.NewHandle(historyrepo.Options{
		URL:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
		Clock:    clock,
	}, logger)
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:     cfg.Session.Secret,
		SessionTTL: cfg.Session.TTL,
		Google: auth.GoogleConfig{
			ClientID:             cfg.Auth.Google.ClientID,
			ClientSecret:         cfg.Auth.Google.ClientSecret,
			RedirectURL:          cfg.Auth.Google.RedirectURL,
			PostLoginRedirectURL: cfg.Auth.Google.PostLoginRedirectURL,
		},
	}
}

// provideRevocationStore prefers valkey and falls back to process memory when
// no address is set or the server cannot be reached.
func provideRevocationStore(cfg *config.Config, logger *slog.Logger) auth.RevocationStore {
	addr := strings.TrimSpace(cfg.Session.StoreAddr)
	if addr == "" {
		logger.Info("session store address not set, using memory revocation store")
		return sessionstore.NewMemoryStore()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := sessionstore.Connect(ctx, addr)
	if err != nil {
		logger.Error("valkey unavailable, falling back to memory revocation store", "error", err)
		return sessionstore.NewMemoryStore()
	}
	logger.Info("session valkey store enabled", "addr", addr)
	return sessionstore.NewValkeyStore(client, "session")
}

func provideTranscriptConfig(cfg *config.Config) transcript.Config {
	return transcript.Config{MaxBytes: cfg.Upload.MaxBytes}
}

func provideTranscriptArchive(cfg *config.Config, logger *slog.Logger) transcript.Archive {
	if !cfg.Storage.Enabled() {
		logger.Info("object storage not configured, transcript archiving disabled")
		return nil
	}
	archive, err := transcriptstore.NewObjectArchive(transcriptstore.Options{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
	}, logger)
	if err != nil {
		logger.Error("invalid object storage configuration, transcript archiving disabled", "error", err)
		return nil
	}
	logger.Info("transcript archive enabled", "bucket", cfg.Storage.Bucket)
	return archive
}

func provideAuthHandler(cfg *config.Config, svc auth.Service) *httpiface.AuthHandler {
	return httpiface.NewAuthHandler(svc, cfg.Session.CookieName)
}
