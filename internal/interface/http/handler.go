package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/meeting-summarizer/internal/domain/auth"
	"github.com/yanqian/meeting-summarizer/internal/domain/catalog"
	"github.com/yanqian/meeting-summarizer/internal/domain/history"
	"github.com/yanqian/meeting-summarizer/internal/domain/mailer"
	"github.com/yanqian/meeting-summarizer/internal/domain/summarizer"
	"github.com/yanqian/meeting-summarizer/internal/domain/transcript"
	"github.com/yanqian/meeting-summarizer/internal/infra/config"
	apperrors "github.com/yanqian/meeting-summarizer/pkg/errors"
	"github.com/yanqian/meeting-summarizer/pkg/util"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	cfg           *config.Config
	summarizerSvc summarizer.Service
	historySvc    history.Service
	mailerSvc     mailer.Service
	transcriptSvc transcript.Service
	authSvc       auth.Service
	catalog       *catalog.Catalog
	logger        *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(
	cfg *config.Config,
	summarizerSvc summarizer.Service,
	historySvc history.Service,
	mailerSvc mailer.Service,
	transcriptSvc transcript.Service,
	authSvc auth.Service,
	models *catalog.Catalog,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		cfg:           cfg,
		summarizerSvc: summarizerSvc,
		historySvc:    historySvc,
		mailerSvc:     mailerSvc,
		transcriptSvc: transcriptSvc,
		authSvc:       authSvc,
		catalog:       models,
		logger:        logger.With("component", "http.handler"),
	}
}

// Summarize handles the summarization endpoint.
func (h *Handler) Summarize(c *gin.Context) {
	var req summarizer.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "Invalid request body", err))
		return
	}

	resp, err := h.summarizerSvc.Summarize(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Models lists the selectable models per provider.
func (h *Handler) Models(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": h.catalog.All()})
}

type healthResponse struct {
	Status     string            `json:"status"`
	EnvVarsSet map[string]bool   `json:"envVarsSet"`
	APIKeys    map[string]string `json:"apiKeys"`
}

// Health reports which integrations are configured. Secret values are masked.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, newHealthResponse(h.cfg))
}

func newHealthResponse(cfg *config.Config) healthResponse {
	set := func(v string) bool { return strings.TrimSpace(v) != "" }
	return healthResponse{
		Status: "ok",
		EnvVarsSet: map[string]bool{
			"groqApiKey":      set(cfg.LLM.Groq.APIKey),
			"openaiApiKey":    set(cfg.LLM.OpenAI.APIKey),
			"sendgridApiKey":  set(cfg.Email.SendGrid.APIKey),
			"smtpCredentials": set(cfg.Email.SMTP.User) && set(cfg.Email.SMTP.Password),
			"databaseUrl":     set(cfg.Database.URL),
			"sessionSecret":   set(cfg.Session.Secret),
			"googleClientId":  set(cfg.Auth.Google.ClientID),
		},
		APIKeys: map[string]string{
			"groq":   util.MaskSecret(cfg.LLM.Groq.APIKey),
			"openai": util.MaskSecret(cfg.LLM.OpenAI.APIKey),
		},
	}
}
