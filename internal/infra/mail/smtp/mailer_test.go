package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/meeting-summarizer/internal/domain/mailer"
)

type capturedMail struct {
	from       string
	recipients []string
	data       []byte
	overTLS    bool
}

type fakeBackend struct {
	user     string
	password string

	mu       sync.Mutex
	received []capturedMail
}

func (b *fakeBackend) NewSession(conn *gosmtp.Conn) (gosmtp.Session, error) {
	return &fakeSession{backend: b, conn: conn}, nil
}

func (b *fakeBackend) messages() []capturedMail {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]capturedMail(nil), b.received...)
}

type fakeSession struct {
	backend *fakeBackend
	conn    *gosmtp.Conn
	current capturedMail
}

func (s *fakeSession) AuthMechanisms() []string { return []string{sasl.Plain} }

func (s *fakeSession) Auth(string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(_, username, password string) error {
		if username != s.backend.user || password != s.backend.password {
			return &gosmtp.SMTPError{Code: 535, EnhancedCode: gosmtp.EnhancedCode{5, 7, 8}, Message: "Invalid credentials"}
		}
		return nil
	}), nil
}

func (s *fakeSession) Mail(from string, _ *gosmtp.MailOptions) error {
	s.current.from = from
	return nil
}

func (s *fakeSession) Rcpt(to string, _ *gosmtp.RcptOptions) error {
	s.current.recipients = append(s.current.recipients, to)
	return nil
}

func (s *fakeSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.current.data = data
	_, s.current.overTLS = s.conn.TLSConnectionState()
	s.backend.mu.Lock()
	s.backend.received = append(s.backend.received, s.current)
	s.backend.mu.Unlock()
	return nil
}

func (s *fakeSession) Reset()        { s.current = capturedMail{} }
func (s *fakeSession) Logout() error { return nil }

func startFakeServer(t *testing.T, backend *fakeBackend) (string, int) {
	t.Helper()
	return startFakeServerTLS(t, backend, nil)
}

// startFakeServerTLS advertises STARTTLS when serverTLS is non-nil.
func startFakeServerTLS(t *testing.T, backend *fakeBackend, serverTLS *tls.Config) (string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := gosmtp.NewServer(backend)
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true
	srv.TLSConfig = serverTLS
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Close() })

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func TestSendDeliversMultipartMessage(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{user: "bot@example.com", password: "app-password"}
	host, port := startFakeServer(t, backend)

	m := New(Config{Host: host, Port: port, User: "bot@example.com", Password: "app-password"})
	require.True(t, m.Configured())

	result, err := m.Send(context.Background(), mailer.Message{
		From:       "noreply@aimeetingsummarizer.com",
		Recipients: []string{"a@example.com", "b@example.com"},
		Subject:    "Meeting Summary",
		Text:       "- Ship Friday",
		HTML:       "<p>- Ship Friday</p>",
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(result, "Email sent successfully via SMTP: <"))
	require.True(t, strings.HasSuffix(result, "@aimeetingsummarizer.com>"))

	received := backend.messages()
	require.Len(t, received, 1)
	require.False(t, received[0].overTLS)
	require.Equal(t, "noreply@aimeetingsummarizer.com", received[0].from)
	require.Equal(t, []string{"a@example.com", "b@example.com"}, received[0].recipients)

	mr, err := mail.CreateReader(bytes.NewReader(received[0].data))
	require.NoError(t, err)
	to, err := mr.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 2)
	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	require.Equal(t, "Meeting Summary", subject)

	var bodies []string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(part.Body)
		require.NoError(t, err)
		bodies = append(bodies, string(body))
	}
	require.Equal(t, []string{"- Ship Friday", "<p>- Ship Friday</p>"}, bodies)
}

// testCertificates reuses the httptest certificate, which is valid for 127.0.0.1.
func testCertificates(t *testing.T) (*tls.Config, *tls.Config) {
	t.Helper()
	ts := httptest.NewTLSServer(http.NotFoundHandler())
	t.Cleanup(ts.Close)
	transport, ok := ts.Client().Transport.(*http.Transport)
	require.True(t, ok)
	server := &tls.Config{Certificates: ts.TLS.Certificates}
	client := &tls.Config{RootCAs: transport.TLSClientConfig.RootCAs}
	return server, client
}

func TestSendUpgradesWithStartTLS(t *testing.T) {
	t.Parallel()
	serverTLS, clientTLS := testCertificates(t)
	backend := &fakeBackend{user: "bot@example.com", password: "app-password"}
	host, port := startFakeServerTLS(t, backend, serverTLS)

	m := New(Config{Host: host, Port: port, User: "bot@example.com", Password: "app-password", TLSConfig: clientTLS})
	result, err := m.Send(context.Background(), mailer.Message{
		From:       "noreply@aimeetingsummarizer.com",
		Recipients: []string{"a@example.com"},
		Subject:    "Meeting Summary",
		Text:       "- Ship Friday",
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(result, "Email sent successfully via SMTP: <"))

	received := backend.messages()
	require.Len(t, received, 1)
	require.True(t, received[0].overTLS)
	require.Equal(t, []string{"a@example.com"}, received[0].recipients)
}

func TestSendStartTLSUntrustedCertificate(t *testing.T) {
	t.Parallel()
	serverTLS, _ := testCertificates(t)
	backend := &fakeBackend{user: "bot@example.com", password: "app-password"}
	host, port := startFakeServerTLS(t, backend, serverTLS)

	m := New(Config{Host: host, Port: port, User: "bot@example.com", Password: "app-password"})
	_, err := m.Send(context.Background(), mailer.Message{
		From:       "noreply@example.com",
		Recipients: []string{"a@example.com"},
		Text:       "t",
	})
	var delivery *mailer.DeliveryError
	require.True(t, errors.As(err, &delivery))
	require.Equal(t, msgConnectionFailed, delivery.Message)
	require.Empty(t, backend.messages())
}

func TestTLSConfigDefaultsServerName(t *testing.T) {
	t.Parallel()
	require.Equal(t, "smtp.example.com", New(Config{Host: "smtp.example.com"}).tlsConfig().ServerName)

	custom := &tls.Config{ServerName: "relay.internal"}
	got := New(Config{Host: "10.0.0.5", TLSConfig: custom}).tlsConfig()
	require.Equal(t, "relay.internal", got.ServerName)
	require.NotSame(t, custom, got)
}

func TestSendAuthFailure(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{user: "bot@example.com", password: "right"}
	host, port := startFakeServer(t, backend)

	m := New(Config{Host: host, Port: port, User: "bot@example.com", Password: "wrong"})
	_, err := m.Send(context.Background(), mailer.Message{
		From:       "noreply@example.com",
		Recipients: []string{"a@example.com"},
		Subject:    "s",
		Text:       "t",
	})
	var delivery *mailer.DeliveryError
	require.True(t, errors.As(err, &delivery))
	require.Equal(t, msgAuthFailed, delivery.Message)
	require.Empty(t, backend.messages())
}

func TestSendConnectionFailure(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	m := New(Config{Host: "127.0.0.1", Port: port, User: "u", Password: "p"})
	_, err = m.Send(context.Background(), mailer.Message{From: "f@example.com", Recipients: []string{"a@example.com"}})
	var delivery *mailer.DeliveryError
	require.True(t, errors.As(err, &delivery))
	require.Equal(t, msgConnectionFailed, delivery.Message)
}

func TestDefaultsAndConfigured(t *testing.T) {
	t.Parallel()
	m := New(Config{})
	require.Equal(t, "smtp.gmail.com", m.cfg.Host)
	require.Equal(t, 587, m.cfg.Port)
	require.False(t, m.cfg.Secure)
	require.False(t, m.Configured())
	require.False(t, New(Config{User: "u"}).Configured())
	require.Equal(t, mailer.ChoiceSMTP, m.Name())
}

func TestClassify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		err        error
		duringAuth bool
		want       string
	}{
		{name: "535", err: &gosmtp.SMTPError{Code: 535, Message: "bad creds"}, want: msgAuthFailed},
		{name: "auth phase", err: &gosmtp.SMTPError{Code: 454, Message: "temporary"}, duringAuth: true, want: msgAuthFailed},
		{name: "rejected recipient", err: &gosmtp.SMTPError{Code: 550, Message: "mailbox unavailable"}, want: "mailbox unavailable"},
		{name: "network", err: &net.OpError{Op: "dial", Err: errors.New("refused")}, want: msgConnectionFailed},
		{name: "other", err: errors.New("boom"), want: "boom"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var delivery *mailer.DeliveryError
			require.True(t, errors.As(classify(tt.err, tt.duringAuth), &delivery))
			require.Equal(t, tt.want, delivery.Message)
		})
	}
}
