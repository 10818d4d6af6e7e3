package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	apperrors "github.com/yanqian/meeting-summarizer/pkg/errors"
)

const googleIssuerURL = "https://accounts.google.com"

type googleClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

type idTokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (googleClaims, error)
}

func (s *service) GoogleAuthURL(ctx context.Context, state, codeChallenge string) (string, error) {
	cfg, err := s.googleOAuthConfig()
	if err != nil {
		return "", err
	}
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("prompt", "select_account"),
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	}
	return cfg.AuthCodeURL(state, opts...), nil
}

func (s *service) GoogleCallback(ctx context.Context, code, codeVerifier string) (Session, error) {
	cfg, err := s.googleOAuthConfig()
	if err != nil {
		return Session{}, err
	}
	if strings.TrimSpace(code) == "" || strings.TrimSpace(codeVerifier) == "" {
		return Session{}, apperrors.Wrap(apperrors.CodeInvalidInput, "missing oauth code or verifier", nil)
	}
	token, err := cfg.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	if err != nil {
		return Session{}, apperrors.Wrap(apperrors.CodeProvider, "failed to exchange oauth code", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return Session{}, apperrors.Wrap(apperrors.CodeProvider, "missing id_token in oauth response", nil)
	}
	claims, err := s.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return Session{}, apperrors.Wrap(apperrors.CodeUnauthorized, "failed to verify id token", err)
	}
	if claims.Email == "" || claims.Subject == "" {
		return Session{}, apperrors.Wrap(apperrors.CodeUnauthorized, "id token lacks subject or email", nil)
	}
	if !claims.EmailVerified {
		return Session{}, apperrors.Wrap(apperrors.CodeUnauthorized, "google account email not verified", nil)
	}

	session, err := s.IssueSession(ctx, User{Subject: claims.Subject, Email: claims.Email, Name: claims.Name})
	if err != nil {
		return Session{}, err
	}
	s.logger.Info("google sign-in completed", "subject", claims.Subject)
	return session, nil
}

func (s *service) googleOAuthConfig() (*oauth2.Config, error) {
	googleCfg := s.cfg.Google
	if strings.TrimSpace(googleCfg.ClientID) == "" || strings.TrimSpace(googleCfg.ClientSecret) == "" {
		return nil, apperrors.Wrap(apperrors.CodeAuthNotConfigured, msgGoogleNotEnabled, nil)
	}
	if s.keysErr != nil {
		return nil, s.keysErr
	}
	return &oauth2.Config{
		ClientID:     googleCfg.ClientID,
		ClientSecret: googleCfg.ClientSecret,
		RedirectURL:  googleCfg.RedirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		Endpoint:     s.endpoint,
	}, nil
}

// oidcVerifier discovers the Google issuer on first use and caches the verifier.
type oidcVerifier struct {
	clientID string

	mu       sync.Mutex
	verifier *oidc.IDTokenVerifier
}

func newOIDCVerifier(clientID string) *oidcVerifier {
	return &oidcVerifier{clientID: clientID}
}

func (v *oidcVerifier) Verify(ctx context.Context, rawToken string) (googleClaims, error) {
	verifier, err := v.load(ctx)
	if err != nil {
		return googleClaims{}, err
	}
	idToken, err := verifier.Verify(ctx, rawToken)
	if err != nil {
		return googleClaims{}, err
	}
	var claims googleClaims
	if err := idToken.Claims(&claims); err != nil {
		return googleClaims{}, err
	}
	return claims, nil
}

func (v *oidcVerifier) load(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.verifier != nil {
		return v.verifier, nil
	}
	provider, err := oidc.NewProvider(ctx, googleIssuerURL)
	if err != nil {
		return nil, err
	}
	v.verifier = provider.Verifier(&oidc.Config{ClientID: v.clientID})
	return v.verifier, nil
}

func randomString(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CodeChallengeFromVerifier computes the PKCE code challenge for a verifier.
func CodeChallengeFromVerifier(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// NewOAuthState returns a state, code verifier, and code challenge for PKCE.
func NewOAuthState() (state string, codeVerifier string, codeChallenge string, err error) {
	state, err = randomString(32)
	if err != nil {
		return "", "", "", err
	}
	codeVerifier, err = randomString(32)
	if err != nil {
		return "", "", "", err
	}
	codeChallenge = CodeChallengeFromVerifier(codeVerifier)
	return state, codeVerifier, codeChallenge, nil
}
