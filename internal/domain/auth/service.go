package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	apperrors "github.com/yanqian/meeting-summarizer/pkg/errors"
)

const (
	defaultSessionTTL = 30 * 24 * time.Hour

	msgAuthRequired     = "Authentication required"
	msgSecretMissing    = "SESSION_SECRET is not set. Please define the SESSION_SECRET environment variable"
	msgGoogleNotEnabled = "Google sign-in is not configured. Please set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET"
)

// Service exposes the session boundary: Google sign-in, session tokens and logout.
type Service interface {
	GoogleAuthURL(ctx context.Context, state, codeChallenge string) (string, error)
	GoogleCallback(ctx context.Context, code, codeVerifier string) (Session, error)
	IssueSession(ctx context.Context, user User) (Session, error)
	ValidateSession(ctx context.Context, token string) (Claims, error)
	Logout(ctx context.Context, claims Claims) error
	SealOAuthState(state OAuthState) (string, error)
	OpenOAuthState(sealed string) (OAuthState, error)
	SessionTTL() time.Duration
	PostLoginRedirectURL() string
}

type service struct {
	cfg         Config
	keys        keyring
	keysErr     error
	revocations RevocationStore
	verifier    idTokenVerifier
	endpoint    oauth2.Endpoint
	now         func() time.Time
	logger      *slog.Logger
}

// NewService constructs a Service instance. A nil revocation store disables logout revocation.
func NewService(cfg Config, revocations RevocationStore, logger *slog.Logger) Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if strings.TrimSpace(cfg.Google.PostLoginRedirectURL) == "" {
		cfg.Google.PostLoginRedirectURL = "/"
	}
	svc := &service{
		cfg:         cfg,
		revocations: revocations,
		verifier:    newOIDCVerifier(cfg.Google.ClientID),
		endpoint:    google.Endpoint,
		now:         time.Now,
		logger:      logger.With("component", "auth.service"),
	}
	if strings.TrimSpace(cfg.Secret) == "" {
		svc.keysErr = apperrors.Wrap(apperrors.CodeAuthNotConfigured, msgSecretMissing, nil)
	} else {
		svc.keys, svc.keysErr = deriveKeys(cfg.Secret)
	}
	return svc
}

func (s *service) SessionTTL() time.Duration {
	return s.cfg.SessionTTL
}

func (s *service) PostLoginRedirectURL() string {
	return s.cfg.Google.PostLoginRedirectURL
}

func (s *service) IssueSession(_ context.Context, user User) (Session, error) {
	if s.keysErr != nil {
		return Session{}, s.keysErr
	}
	email := strings.ToLower(strings.TrimSpace(user.Email))
	if email == "" {
		return Session{}, apperrors.Wrap(apperrors.CodeInvalidInput, "session user requires an email", nil)
	}
	user.Email = email

	now := s.now()
	expiresAt := now.Add(s.cfg.SessionTTL)
	claims := tokenClaims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.keys.signing)
	if err != nil {
		return Session{}, apperrors.Wrap(apperrors.CodeInternal, "failed to sign session", err)
	}
	return Session{Token: signed, ExpiresAt: expiresAt.UTC(), User: user}, nil
}

func (s *service) ValidateSession(ctx context.Context, token string) (Claims, error) {
	if s.keysErr != nil || strings.TrimSpace(token) == "" {
		return Claims{}, apperrors.Wrap(apperrors.CodeUnauthorized, msgAuthRequired, nil)
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return Claims{}, err
	}
	if s.revocations != nil && claims.TokenID != "" {
		revoked, err := s.revocations.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			s.logger.Error("revocation lookup failed", "error", err)
			return Claims{}, apperrors.Wrap(apperrors.CodeStore, "Failed to check session", err)
		}
		if revoked {
			return Claims{}, apperrors.Wrap(apperrors.CodeUnauthorized, msgAuthRequired, nil)
		}
	}
	return claims, nil
}

func (s *service) Logout(ctx context.Context, claims Claims) error {
	if s.revocations == nil || claims.TokenID == "" {
		return nil
	}
	if !claims.ExpiresAt.After(s.now()) {
		return nil
	}
	if err := s.revocations.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return apperrors.Wrap(apperrors.CodeStore, "Failed to revoke session", err)
	}
	s.logger.Info("session revoked", "expires_at", claims.ExpiresAt)
	return nil
}

func (s *service) SealOAuthState(state OAuthState) (string, error) {
	if s.keysErr != nil {
		return "", s.keysErr
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "failed to encode oauth state", err)
	}
	sealed, err := sealValue(s.keys.state, payload)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "failed to seal oauth state", err)
	}
	return sealed, nil
}

func (s *service) OpenOAuthState(sealed string) (OAuthState, error) {
	invalid := apperrors.Wrap(apperrors.CodeInvalidInput, "invalid oauth state", nil)
	if s.keysErr != nil || sealed == "" {
		return OAuthState{}, invalid
	}
	payload, err := openValue(s.keys.state, sealed)
	if err != nil {
		return OAuthState{}, invalid
	}
	var state OAuthState
	if err := json.Unmarshal(payload, &state); err != nil || state.State == "" || state.Verifier == "" {
		return OAuthState{}, invalid
	}
	return state, nil
}

func (s *service) parseToken(token string) (Claims, error) {
	unauthorized := func(err error) error {
		return apperrors.Wrap(apperrors.CodeUnauthorized, msgAuthRequired, err)
	}
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return s.keys.signing, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Claims{}, unauthorized(err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid || claims.Email == "" {
		return Claims{}, unauthorized(nil)
	}
	out := Claims{
		Subject:   claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return out, nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}
