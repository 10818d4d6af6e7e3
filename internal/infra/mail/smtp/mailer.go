package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
	"github.com/google/uuid"

	"github.com/yanqian/meeting-summarizer/internal/domain/mailer"
)

const (
	msgAuthFailed       = "Authentication failed. Please check your email/password."
	msgConnectionFailed = "Connection to mail server failed. Please check your network or server settings."
	commandTimeout      = 60 * time.Second
)

// Config holds the SMTP endpoint and credentials.
type Config struct {
	Host      string
	Port      int
	Secure    bool
	User      string
	Password  string
	// TLSConfig overrides the client TLS settings. ServerName defaults to Host.
	TLSConfig *tls.Config
}

// Mailer delivers over authenticated SMTP, opening a new connection per message.
type Mailer struct {
	cfg Config
}

// New constructs the SMTP mailer. Missing credentials leave it unconfigured.
func New(cfg Config) *Mailer {
	if strings.TrimSpace(cfg.Host) == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &Mailer{cfg: cfg}
}

func (m *Mailer) Name() mailer.Choice { return mailer.ChoiceSMTP }

func (m *Mailer) Configured() bool {
	return strings.TrimSpace(m.cfg.User) != "" && m.cfg.Password != ""
}

// Send composes a multipart/alternative message and submits it in one session.
func (m *Mailer) Send(ctx context.Context, msg mailer.Message) (string, error) {
	messageID := newMessageID(msg.From)
	body, err := compose(msg, messageID)
	if err != nil {
		return "", fmt.Errorf("compose message: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client, err := m.dial()
	if err != nil {
		return "", &mailer.DeliveryError{Message: msgConnectionFailed, Err: err}
	}
	defer client.Close()
	client.CommandTimeout = commandTimeout
	client.SubmissionTimeout = commandTimeout

	if err := client.Auth(sasl.NewPlainClient("", m.cfg.User, m.cfg.Password)); err != nil {
		return "", classify(err, true)
	}
	if err := client.SendMail(msg.From, msg.Recipients, bytes.NewReader(body)); err != nil {
		return "", classify(err, false)
	}
	_ = client.Quit()

	return "Email sent successfully via SMTP: <" + messageID + ">", nil
}

// dial connects with implicit TLS when Secure is set. Otherwise the plain
// session is upgraded through STARTTLS whenever the server advertises it.
func (m *Mailer) dial() (*gosmtp.Client, error) {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if m.cfg.Secure {
		return gosmtp.DialTLS(addr, m.tlsConfig())
	}
	client, err := gosmtp.Dial(addr)
	if err != nil {
		return nil, err
	}
	if ok, _ := client.Extension("STARTTLS"); !ok {
		return client, nil
	}
	_ = client.Quit()
	client, err = gosmtp.DialStartTLS(addr, m.tlsConfig())
	if err != nil {
		return nil, err
	}
	// The handshake runs on the first command after STARTTLS.
	if err := client.Noop(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (m *Mailer) tlsConfig() *tls.Config {
	cfg := &tls.Config{}
	if m.cfg.TLSConfig != nil {
		cfg = m.cfg.TLSConfig.Clone()
	}
	if cfg.ServerName == "" {
		cfg.ServerName = m.cfg.Host
	}
	return cfg
}

// classify maps SMTP failures to the caller facing categories.
func classify(err error, duringAuth bool) error {
	var smtpErr *gosmtp.SMTPError
	if errors.As(err, &smtpErr) {
		switch smtpErr.Code {
		case 530, 534, 535:
			return &mailer.DeliveryError{Message: msgAuthFailed, Err: err}
		}
		if duringAuth {
			return &mailer.DeliveryError{Message: msgAuthFailed, Err: err}
		}
		return &mailer.DeliveryError{Message: smtpErr.Message, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.EOF) {
		return &mailer.DeliveryError{Message: msgConnectionFailed, Err: err}
	}
	if duringAuth {
		return &mailer.DeliveryError{Message: msgAuthFailed, Err: err}
	}
	return &mailer.DeliveryError{Message: err.Error(), Err: err}
}

func compose(msg mailer.Message, messageID string) ([]byte, error) {
	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Address: msg.From}})
	// Recipients share a single To header.
	to := make([]*mail.Address, 0, len(msg.Recipients))
	for _, r := range msg.Recipients {
		to = append(to, &mail.Address{Address: r})
	}
	h.SetAddressList("To", to)
	h.SetSubject(msg.Subject)
	h.SetMessageID(messageID)

	html := msg.HTML
	if strings.TrimSpace(html) == "" {
		html = msg.Text
	}

	var buf bytes.Buffer
	w, err := mail.CreateInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if err := writePart(w, "text/plain", msg.Text); err != nil {
		return nil, err
	}
	if err := writePart(w, "text/html", html); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writePart(w *mail.InlineWriter, contentType, body string) error {
	var h mail.InlineHeader
	h.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(part, body); err != nil {
		return err
	}
	return part.Close()
}

func newMessageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = from[at+1:]
	}
	return uuid.NewString() + "@" + domain
}
