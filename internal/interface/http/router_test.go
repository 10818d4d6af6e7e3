package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/meeting-summarizer/internal/domain/auth"
	"github.com/yanqian/meeting-summarizer/internal/domain/catalog"
	"github.com/yanqian/meeting-summarizer/internal/domain/history"
	"github.com/yanqian/meeting-summarizer/internal/domain/mailer"
	"github.com/yanqian/meeting-summarizer/internal/domain/summarizer"
	"github.com/yanqian/meeting-summarizer/internal/domain/transcript"
	"github.com/yanqian/meeting-summarizer/internal/infra/config"
	"github.com/yanqian/meeting-summarizer/internal/infra/mail/sendgrid"
	"github.com/yanqian/meeting-summarizer/internal/infra/mail/simulated"
	apperrors "github.com/yanqian/meeting-summarizer/pkg/errors"
	"github.com/yanqian/meeting-summarizer/pkg/metrics"
)

const testSecret = "router-test-secret"

func TestRouter_SummarizeSuccess(t *testing.T) {
	t.Parallel()
	svc := &stubSummarizer{
		summarizeFn: func(_ context.Context, req summarizer.Request) (summarizer.Response, error) {
			if req.Transcript != "Alice: ship Friday" || req.Provider != "openai" {
				return summarizer.Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, "unexpected request", nil)
			}
			return summarizer.Response{Summary: "- Ship Friday", Provider: "openai", Model: "gpt-4o"}, nil
		},
	}
	env := newRouterUnderTest(t, withSummarizer(svc))

	recorder := env.do(http.MethodPost, "/api/v1/summarize", `{"transcript":"Alice: ship Friday","provider":"openai"}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	var got summarizer.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, "- Ship Friday", got.Summary)
	require.Equal(t, "gpt-4o", got.Model)
}

func TestRouter_SummarizeErrors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "malformed body",
			body:       `{"transcript":123}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeInvalidInput,
			wantMsg:    "Invalid request body",
		},
		{
			name:       "empty transcript",
			body:       `{"transcript":""}`,
			err:        apperrors.Wrap(apperrors.CodeInvalidInput, "Transcript is required", nil),
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeInvalidInput,
			wantMsg:    "Transcript is required",
		},
		{
			name:       "missing key",
			body:       `{"transcript":"t"}`,
			err:        apperrors.Wrap(apperrors.CodeConfig, "GROQ API key not found. Please set the GROQ_API_KEY environment variable.", nil),
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperrors.CodeConfig,
			wantMsg:    "GROQ API key not found. Please set the GROQ_API_KEY environment variable.",
		},
		{
			name:       "uncoded error stays opaque",
			body:       `{"transcript":"t"}`,
			err:        io.ErrUnexpectedEOF,
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperrors.CodeInternal,
			wantMsg:    "something went wrong",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubSummarizer{
				summarizeFn: func(context.Context, summarizer.Request) (summarizer.Response, error) {
					return summarizer.Response{}, tc.err
				},
			}
			env := newRouterUnderTest(t, withSummarizer(svc))
			recorder := env.do(http.MethodPost, "/api/v1/summarize", tc.body)
			require.Equal(t, tc.wantStatus, recorder.Code)

			errBody := decodeErrorBody(t, recorder.Body.Bytes())
			require.Equal(t, tc.wantCode, errBody["error"]["code"])
			require.Equal(t, tc.wantMsg, errBody["error"]["message"])
		})
	}
}

func TestRouter_SummariesRequireSession(t *testing.T) {
	t.Parallel()
	env := newRouterUnderTest(t)

	for _, path := range []string{"/api/v1/summaries", "/api/v1/summaries/abc", "/api/v1/auth/session"} {
		recorder := env.do(http.MethodGet, path, "")
		require.Equal(t, http.StatusUnauthorized, recorder.Code, path)
		errBody := decodeErrorBody(t, recorder.Body.Bytes())
		require.Equal(t, "Authentication required", errBody["error"]["message"])
	}

	recorder := env.doWith(http.MethodGet, "/api/v1/summaries", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer forged")
	})
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestRouter_SummariesRoundTrip(t *testing.T) {
	t.Parallel()
	store := &stubHistory{}
	env := newRouterUnderTest(t, withHistory(store))
	token := env.sessionToken(t, "alice@example.com")
	bearer := func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }

	recorder := env.doWith(http.MethodPost, "/api/v1/summaries", `{"transcript":"t","prompt":"p","summary":"s"}`, bearer)
	require.Equal(t, http.StatusOK, recorder.Code)
	var saved map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &saved))
	require.Equal(t, "rec-1", saved["id"])
	require.Equal(t, "alice@example.com", store.owner)

	recorder = env.doWith(http.MethodGet, "/api/v1/summaries", "", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "session", Value: token})
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	var listed struct {
		Summaries []history.Record `json:"summaries"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &listed))
	require.Len(t, listed.Summaries, 1)
	require.Equal(t, "s", listed.Summaries[0].Summary)

	recorder = env.doWith(http.MethodGet, "/api/v1/summaries/rec-1", "", bearer)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = env.doWith(http.MethodGet, "/api/v1/summaries/missing", "", bearer)
	require.Equal(t, http.StatusNotFound, recorder.Code)
	require.Equal(t, "Summary not found", decodeErrorBody(t, recorder.Body.Bytes())["error"]["message"])

	recorder = env.doWith(http.MethodPost, "/api/v1/summaries", `{"transcript":"t"}`, bearer)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Equal(t, "Transcript and summary are required", decodeErrorBody(t, recorder.Body.Bytes())["error"]["message"])

	store.err = apperrors.Wrap(apperrors.CodeConfig, "DATABASE_URL is not set. Please define the DATABASE_URL environment variable", nil)
	recorder = env.doWith(http.MethodGet, "/api/v1/summaries", "", bearer)
	require.Equal(t, http.StatusInternalServerError, recorder.Code)
}

func TestRouter_Share(t *testing.T) {
	t.Parallel()
	env := newRouterUnderTest(t)

	cases := []struct {
		name       string
		body       string
		wantStatus int
		wantOK     bool
		wantMsg    string
	}{
		{
			name:       "no recipients",
			body:       `{"to":[],"summary":"s"}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "At least one recipient email is required",
		},
		{
			name:       "bad address",
			body:       `{"to":["nope"],"summary":"s"}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid email format: nope",
		},
		{
			name:       "default provider not configured",
			body:       `{"to":["a@b.co"],"summary":"s"}`,
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "No email service is configured. Please check your environment variables: SENDGRID_API_KEY or EMAIL_USER/EMAIL_PASSWORD.",
		},
		{
			name:       "unknown provider",
			body:       `{"to":["a@b.co"],"summary":"s","provider":"pigeon"}`,
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Unsupported email provider: pigeon",
		},
		{
			name:       "simulated",
			body:       `{"to":["a@b.co"],"summary":"s","provider":"direct"}`,
			wantStatus: http.StatusOK,
			wantOK:     true,
			wantMsg:    "Email simulation mode activated",
		},
	}
	for _, tc := range cases {
		recorder := env.do(http.MethodPost, "/api/v1/share", tc.body)
		require.Equal(t, tc.wantStatus, recorder.Code, tc.name)

		var resp mailer.ShareResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp), tc.name)
		require.Equal(t, tc.wantOK, resp.Success, tc.name)
		require.Equal(t, tc.wantMsg, resp.Message, tc.name)
		if tc.wantOK {
			require.Equal(t, "direct", resp.Provider)
			require.NotNil(t, resp.SimulationData)
			require.Equal(t, "Meeting Summary", resp.SimulationData.Subject)
		}
	}
}

func TestRouter_EmailTest(t *testing.T) {
	t.Parallel()
	env := newRouterUnderTest(t)

	recorder := env.do(http.MethodGet, "/api/v1/email/test", "")
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = env.do(http.MethodGet, "/api/v1/email/test?email=a@b.co", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	var report mailer.TestReport
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &report))
	require.False(t, report.Transactional.Success)
	require.False(t, report.SMTP.Success)
	require.Equal(t, map[string]bool{"transactional": false, "smtp": false}, report.ConfigPresent)
}

func TestRouter_ModelsAndHealth(t *testing.T) {
	t.Parallel()
	env := newRouterUnderTest(t)

	recorder := env.do(http.MethodGet, "/api/v1/models", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	var models struct {
		Providers map[string][]catalog.ModelDescriptor `json:"providers"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &models))
	require.Len(t, models.Providers["groq"], 7)
	require.Len(t, models.Providers["openai"], 3)
	require.Equal(t, "llama3-70b-8192", models.Providers["groq"][0].ID)

	recorder = env.do(http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	var health healthResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &health))
	require.Equal(t, "ok", health.Status)
	require.True(t, health.EnvVarsSet["groqApiKey"])
	require.False(t, health.EnvVarsSet["openaiApiKey"])
	require.True(t, health.EnvVarsSet["sessionSecret"])
	require.Equal(t, "Set (gsk_a...xyz)", health.APIKeys["groq"])
	require.Equal(t, "Not set", health.APIKeys["openai"])
	require.NotContains(t, recorder.Body.String(), "gsk_abcdefghijklmnopxyz")
}

func TestRouter_UploadTranscript(t *testing.T) {
	t.Parallel()
	env := newRouterUnderTest(t)

	recorder := env.upload(t, "standup.txt", "text/plain", []byte("Alice: hello\r\nBob: hi\r\n"))
	require.Equal(t, http.StatusOK, recorder.Code)
	var result transcript.Result
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &result))
	require.Equal(t, "Alice: hello\nBob: hi", result.Transcript)
	require.Equal(t, "standup.txt", result.Filename)
	require.Empty(t, result.ArchiveKey)

	recorder = env.upload(t, "slides.pdf", "application/pdf", []byte("%PDF-1.4"))
	require.Equal(t, http.StatusUnsupportedMediaType, recorder.Code)
	require.Equal(t, apperrors.CodeUnsupportedMedia, decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])

	recorder = env.upload(t, "big.txt", "text/plain", bytes.Repeat([]byte("a"), 1025))
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = env.do(http.MethodPost, "/api/v1/transcripts", "")
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	t.Parallel()
	env := newRouterUnderTest(t, func(o *routerOptions) {
		o.cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 2}
	})

	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/v1/health", "").Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/v1/health", "").Code)
	recorder := env.do(http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusTooManyRequests, recorder.Code)
	require.Equal(t, "rate_limit_exceeded", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
}

func TestRouter_GoogleLogin(t *testing.T) {
	t.Parallel()
	env := newRouterUnderTest(t)
	recorder := env.do(http.MethodGet, "/api/v1/auth/google/login", "")
	require.Equal(t, http.StatusInternalServerError, recorder.Code)
	require.Equal(t, apperrors.CodeAuthNotConfigured, decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])

	configured := newRouterUnderTest(t, func(o *routerOptions) {
		o.authCfg.Google = auth.GoogleConfig{ClientID: "cid", ClientSecret: "csecret", RedirectURL: "http://localhost/cb"}
	})
	recorder = configured.do(http.MethodGet, "/api/v1/auth/google/login", "")
	require.Equal(t, http.StatusFound, recorder.Code)
	location, err := url.Parse(recorder.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "accounts.google.com", location.Host)
	require.Equal(t, "S256", location.Query().Get("code_challenge_method"))

	var stateCookie *http.Cookie
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == oauthStateCookieName {
			stateCookie = cookie
		}
	}
	require.NotNil(t, stateCookie)
	require.True(t, stateCookie.HttpOnly)

	recorder = configured.doWith(http.MethodGet, "/api/v1/auth/google/callback?state=other&code=c", "", func(r *http.Request) {
		r.AddCookie(stateCookie)
	})
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Equal(t, "oauth state mismatch", decodeErrorBody(t, recorder.Body.Bytes())["error"]["message"])

	recorder = configured.do(http.MethodGet, "/api/v1/auth/google/callback?state=x&code=c", "")
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRouter_SessionAndLogout(t *testing.T) {
	t.Parallel()
	revocations := &memoryRevocations{revoked: map[string]bool{}}
	env := newRouterUnderTest(t, func(o *routerOptions) { o.revocations = revocations })
	token := env.sessionToken(t, "alice@example.com")
	withCookie := func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: token}) }

	recorder := env.doWith(http.MethodGet, "/api/v1/auth/session", "", withCookie)
	require.Equal(t, http.StatusOK, recorder.Code)
	var body struct {
		User auth.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.Equal(t, "alice@example.com", body.User.Email)

	recorder = env.doWith(http.MethodPost, "/api/v1/auth/logout", "", withCookie)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Header().Get("Set-Cookie"), "session=;")
	require.Len(t, revocations.revoked, 1)

	recorder = env.doWith(http.MethodGet, "/api/v1/auth/session", "", withCookie)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = env.do(http.MethodPost, "/api/v1/auth/logout", "")
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestRouter_MetricsAndCORS(t *testing.T) {
	t.Parallel()
	env := newRouterUnderTest(t, func(o *routerOptions) {
		o.cfg.HTTP.AllowedOrigins = []string{"https://app.example.com"}
	})

	recorder := env.doWith(http.MethodOptions, "/api/v1/summarize", "", func(r *http.Request) {
		r.Header.Set("Origin", "https://app.example.com")
	})
	require.Equal(t, http.StatusNoContent, recorder.Code)
	require.Equal(t, "https://app.example.com", recorder.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", recorder.Header().Get("Access-Control-Allow-Credentials"))

	env.do(http.MethodGet, "/api/v1/health", "")
	recorder = env.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), `summarizer_http_requests_total{status="200"}`)
}

type routerOptions struct {
	cfg         *config.Config
	authCfg     auth.Config
	summarizer  summarizer.Service
	history     history.Service
	revocations auth.RevocationStore
}

func withSummarizer(svc summarizer.Service) func(*routerOptions) {
	return func(o *routerOptions) { o.summarizer = svc }
}

func withHistory(svc history.Service) func(*routerOptions) {
	return func(o *routerOptions) { o.history = svc }
}

type routerEnv struct {
	server *http.Server
	auth   auth.Service
}

func newRouterUnderTest(t *testing.T, opts ...func(*routerOptions)) *routerEnv {
	t.Helper()
	options := routerOptions{
		cfg: &config.Config{
			HTTP: config.HTTPConfig{
				Address:      ":0",
				ReadTimeout:  time.Second,
				WriteTimeout: time.Second,
			},
			LLM:     config.LLMConfig{Groq: config.ProviderConfig{APIKey: "gsk_abcdefghijklmnopxyz"}},
			Session: config.SessionConfig{Secret: testSecret},
			Upload:  config.UploadConfig{MaxBytes: 1024},
		},
		authCfg:    auth.Config{Secret: testSecret, SessionTTL: time.Hour},
		summarizer: &stubSummarizer{},
		history:    &stubHistory{},
	}
	for _, opt := range opts {
		opt(&options)
	}

	logger := newTestLogger()
	dispatcher := mailer.NewDispatcher(mailer.Config{From: "noreply@example.com"}, nil, logger,
		sendgrid.New("", ""),
		simulated.New(),
	)
	authSvc := auth.NewService(options.authCfg, options.revocations, logger)
	handler := NewHandler(
		options.cfg,
		options.summarizer,
		options.history,
		mailer.NewService(mailer.Config{}, dispatcher, logger),
		transcript.NewService(transcript.Config{MaxBytes: options.cfg.Upload.MaxBytes}, nil, nil, logger),
		authSvc,
		catalog.New(),
		logger,
	)
	server := NewRouter(options.cfg, handler, NewAuthHandler(authSvc, "session"), metrics.NewCollector(), logger)
	return &routerEnv{server: server, auth: authSvc}
}

func (e *routerEnv) do(method, path, body string) *httptest.ResponseRecorder {
	return e.doWith(method, path, body, nil)
}

func (e *routerEnv) doWith(method, path, body string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	e.server.Handler.ServeHTTP(rec, req)
	return rec
}

func (e *routerEnv) upload(t *testing.T, filename, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcripts", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	e.server.Handler.ServeHTTP(rec, req)
	return rec
}

func (e *routerEnv) sessionToken(t *testing.T, email string) string {
	t.Helper()
	session, err := e.auth.IssueSession(context.Background(), auth.User{Subject: "sub-" + email, Email: email, Name: "Test"})
	require.NoError(t, err)
	return session.Token
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubSummarizer struct {
	summarizeFn func(ctx context.Context, req summarizer.Request) (summarizer.Response, error)
}

func (s *stubSummarizer) Summarize(ctx context.Context, req summarizer.Request) (summarizer.Response, error) {
	if s.summarizeFn != nil {
		return s.summarizeFn(ctx, req)
	}
	return summarizer.Response{}, nil
}

type stubHistory struct {
	owner   string
	records []history.Record
	err     error
}

func (s *stubHistory) Save(_ context.Context, owner string, req history.SaveRequest) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if strings.TrimSpace(req.Transcript) == "" || strings.TrimSpace(req.Summary) == "" {
		return "", apperrors.Wrap(apperrors.CodeInvalidInput, "Transcript and summary are required", nil)
	}
	s.owner = owner
	id := "rec-" + string(rune('0'+len(s.records)+1))
	s.records = append(s.records, history.Record{ID: id, OwnerID: owner, Transcript: req.Transcript, Prompt: req.Prompt, Summary: req.Summary})
	return id, nil
}

func (s *stubHistory) List(_ context.Context, owner string) ([]history.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]history.Record, 0)
	for _, r := range s.records {
		if r.OwnerID == owner {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubHistory) Get(_ context.Context, owner, id string) (history.Record, error) {
	if s.err != nil {
		return history.Record{}, s.err
	}
	for _, r := range s.records {
		if r.ID == id && r.OwnerID == owner {
			return r, nil
		}
	}
	return history.Record{}, apperrors.Wrap(apperrors.CodeNotFound, "Summary not found", nil)
}

type memoryRevocations struct {
	revoked map[string]bool
}

func (m *memoryRevocations) Revoke(_ context.Context, tokenID string, _ time.Time) error {
	m.revoked[tokenID] = true
	return nil
}

func (m *memoryRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	return m.revoked[tokenID], nil
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
