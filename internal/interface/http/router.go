package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/meeting-summarizer/internal/infra/config"
	"github.com/yanqian/meeting-summarizer/pkg/metrics"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, authHandler *AuthHandler, collector *metrics.Collector, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	logger = logger.With("component", "http.router")

	var recorder metrics.Recorder = metrics.Nop{}
	if collector != nil {
		recorder = collector
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(logger, recorder),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(logger),
	)
	if collector != nil {
		router.GET("/metrics", gin.WrapH(collector.Handler()))
	}

	requireSession := sessionMiddleware(authHandler.svc, authHandler.cookieName)

	api := router.Group("/api/v1")
	api.Use(rateLimitMiddleware(cfg.HTTP.RateLimit, logger))
	{
		api.GET("/health", handler.Health)
		api.GET("/models", handler.Models)
		api.POST("/summarize", handler.Summarize)
		api.POST("/share", handler.Share)
		api.GET("/email/test", handler.TestEmail)
		api.POST("/transcripts", handler.UploadTranscript)

		summaries := api.Group("/summaries", requireSession)
		summaries.GET("", handler.ListSummaries)
		summaries.POST("", handler.SaveSummary)
		summaries.GET("/:id", handler.GetSummary)

		authGroup := api.Group("/auth")
		authGroup.GET("/google/login", authHandler.GoogleLogin)
		authGroup.GET("/google/callback", authHandler.GoogleCallback)
		authGroup.GET("/session", requireSession, authHandler.Session)
		authGroup.POST("/logout", authHandler.Logout)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
