package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/meeting-summarizer/internal/domain/mailer"
)

const defaultBaseURL = "https://api.sendgrid.com"

type address struct {
	Email string `json:"email"`
}

type personalization struct {
	To []address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

// Mailer delivers through the SendGrid v3 mail send API.
type Mailer struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New constructs the transactional mailer. An empty key leaves it unconfigured.
func New(apiKey, baseURL string) *Mailer {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Mailer{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (m *Mailer) Name() mailer.Choice { return mailer.ChoiceTransactional }

func (m *Mailer) Configured() bool { return strings.TrimSpace(m.apiKey) != "" }

// Send issues one request carrying every recipient in a single personalization.
func (m *Mailer) Send(ctx context.Context, msg mailer.Message) (string, error) {
	html := msg.HTML
	if strings.TrimSpace(html) == "" {
		html = msg.Text
	}
	to := make([]address, 0, len(msg.Recipients))
	for _, r := range msg.Recipients {
		to = append(to, address{Email: r})
	}
	payload, err := json.Marshal(sendRequest{
		Personalizations: []personalization{{To: to}},
		From:             address{Email: msg.From},
		Subject:          msg.Subject,
		Content: []content{
			{Type: "text/plain", Value: msg.Text},
			{Type: "text/html", Value: html},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode sendgrid request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v3/mail/send", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build sendgrid request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", &mailer.DeliveryError{Message: "SendGrid error: " + err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", &mailer.DeliveryError{
			Message: "SendGrid error: " + errorMessage(resp, body),
			Err:     fmt.Errorf("sendgrid request failed: status=%d body=%s", resp.StatusCode, string(body)),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return "Email sent successfully with SendGrid", nil
}

func errorMessage(resp *http.Response, body []byte) string {
	var envelope struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Errors) > 0 && envelope.Errors[0].Message != "" {
		return envelope.Errors[0].Message
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}
