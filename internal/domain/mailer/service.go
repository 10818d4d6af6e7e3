package mailer

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"strings"

	apperrors "github.com/yanqian/meeting-summarizer/pkg/errors"
)

const (
	defaultSubject = "Meeting Summary"

	// A simulated share answers with the preview contract the web client renders.
	simulationProvider = "direct"
	simulationMessage  = "Email simulation mode activated"
)

// ShareRequest is the payload of the share endpoint.
type ShareRequest struct {
	To       []string `json:"to"`
	Subject  string   `json:"subject,omitempty"`
	Summary  string   `json:"summary"`
	HTML     string   `json:"html,omitempty"`
	Provider string   `json:"provider,omitempty"`
}

// SimulationData lets the client render a preview of a simulated send.
type SimulationData struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Summary string   `json:"summary"`
}

// ShareResponse mirrors Result and adds the simulation preview.
type ShareResponse struct {
	Success        bool            `json:"success"`
	Message        string          `json:"message"`
	Provider       string          `json:"provider,omitempty"`
	SimulationData *SimulationData `json:"simulationData,omitempty"`
}

// TestOutcome is one backend's answer to a test dispatch.
type TestOutcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TestReport is returned by the email test endpoint.
type TestReport struct {
	Transactional TestOutcome     `json:"transactional"`
	SMTP          TestOutcome     `json:"smtp"`
	ConfigPresent map[string]bool `json:"configPresent"`
}

// Service exposes the email use cases.
type Service interface {
	Share(ctx context.Context, req ShareRequest) (ShareResponse, error)
	TestDelivery(ctx context.Context, email string) (TestReport, error)
}

type service struct {
	cfg        Config
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewService is a wire provider for the email domain.
func NewService(cfg Config, dispatcher *Dispatcher, logger *slog.Logger) Service {
	if strings.TrimSpace(cfg.DefaultProvider) == "" {
		cfg.DefaultProvider = string(ChoiceTransactional)
	}
	return &service{cfg: cfg, dispatcher: dispatcher, logger: logger.With("component", "mailer.service")}
}

var summaryTemplate = template.Must(template.New("summary").Parse(`<h1>{{.Subject}}</h1>
{{range .Paragraphs}}<p>{{.}}</p>
{{end}}`))

// Share validates the request and dispatches the summary through the requested
// provider, or the configured default when none is given. Validation failures are
// returned as errors; delivery failures are reported in the response.
func (s *service) Share(ctx context.Context, req ShareRequest) (ShareResponse, error) {
	recipients := CleanRecipients(req.To)
	if reason := ValidateRecipients(recipients); reason != "" {
		return ShareResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, reason, nil)
	}
	if strings.TrimSpace(req.Summary) == "" {
		return ShareResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Summary is required", nil)
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = defaultSubject
	}
	provider := strings.TrimSpace(req.Provider)
	if provider == "" {
		provider = s.cfg.DefaultProvider
	}

	html := req.HTML
	if strings.TrimSpace(html) == "" {
		rendered, err := renderSummaryHTML(subject, req.Summary)
		if err != nil {
			return ShareResponse{}, apperrors.Wrap(apperrors.CodeInternal, "failed to render email", err)
		}
		html = rendered
	}

	result := s.dispatcher.Send(ctx, provider, Message{
		Recipients: recipients,
		Subject:    subject,
		Text:       req.Summary,
		HTML:       html,
	})
	resp := ShareResponse{Success: result.Success, Message: result.Message, Provider: result.Provider}
	if result.Success && result.Provider == string(ChoiceSimulated) {
		resp.Provider = simulationProvider
		resp.Message = simulationMessage
		resp.SimulationData = &SimulationData{To: recipients, Subject: subject, Summary: req.Summary}
	}
	return resp, nil
}

// TestDelivery sends a probe message through the transactional and SMTP backends in turn.
func (s *service) TestDelivery(ctx context.Context, email string) (TestReport, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return TestReport{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Email parameter is required", nil)
	}

	transactional := s.dispatcher.Send(ctx, string(ChoiceTransactional), Message{
		Recipients: []string{email},
		Subject:    "Test Email from AI Meeting Summarizer",
		Text:       "This is a test email to verify that your email configuration is working correctly.",
		HTML:       "<h1>Email Configuration Test</h1><p>This is a test email sent from your AI Meeting Summarizer application to verify that your email configuration is working correctly.</p><p>If you received this email, it means your SendGrid configuration is working!</p>",
	})
	smtp := s.dispatcher.Send(ctx, string(ChoiceSMTP), Message{
		Recipients: []string{email},
		Subject:    "Test Email from AI Meeting Summarizer (SMTP)",
		Text:       "This is a test email to verify that your SMTP configuration is working correctly.",
		HTML:       "<h1>Email Configuration Test (SMTP)</h1><p>This is a test email sent from your AI Meeting Summarizer application to verify that your SMTP configuration is working correctly.</p><p>If you received this email, it means your SMTP configuration is working!</p>",
	})

	return TestReport{
		Transactional: TestOutcome{Success: transactional.Success, Message: transactional.Message},
		SMTP:          TestOutcome{Success: smtp.Success, Message: smtp.Message},
		ConfigPresent: map[string]bool{
			string(ChoiceTransactional): s.dispatcher.Configured(ChoiceTransactional),
			string(ChoiceSMTP):          s.dispatcher.Configured(ChoiceSMTP),
		},
	}, nil
}

func renderSummaryHTML(subject, summary string) (string, error) {
	var paragraphs []string
	for _, line := range strings.Split(summary, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	var buf bytes.Buffer
	err := summaryTemplate.Execute(&buf, struct {
		Subject    string
		Paragraphs []string
	}{Subject: subject, Paragraphs: paragraphs})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
