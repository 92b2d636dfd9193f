package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Authenticator resolves the caller id of a request. Errors must wrap
// ErrUnauthenticated.
type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

// AuthenticatorFunc adapts a function to the Authenticator interface.
type AuthenticatorFunc func(r *http.Request) (string, error)

func (f AuthenticatorFunc) Authenticate(r *http.Request) (string, error) {
	return f(r)
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing authorization header: %w", ErrUnauthenticated)
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("authorization scheme is not bearer: %w", ErrUnauthenticated)
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("empty bearer token: %w", ErrUnauthenticated)
	}

	return token, nil
}

// TokenLookup maps a static API token to the user id it acts as.
type TokenLookup interface {
	Lookup(token string) (string, error)
}

// TokenAuthenticator authenticates requests with static bearer tokens.
type TokenAuthenticator struct {
	tokens TokenLookup
}

func NewTokenAuthenticator(tokens TokenLookup) *TokenAuthenticator {
	return &TokenAuthenticator{tokens: tokens}
}

func (a *TokenAuthenticator) Authenticate(r *http.Request) (string, error) {
	token, err := bearerToken(r)
	if err != nil {
		return "", err
	}

	userID, err := a.tokens.Lookup(token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	return userID, nil
}

type JWTConfig struct {
	JWKSURL         string
	Issuer          string
	Audience        string
	RefreshInterval time.Duration
	Leeway          time.Duration
}

// JWTAuthenticator validates RS256 bearer tokens against a JWKS and uses the
// sub claim as the caller id.
type JWTAuthenticator struct {
	jwks    keyfunc.Keyfunc
	options []jwt.ParserOption
}

// NewJWTAuthenticator creates an authenticator whose keys are fetched from
// cfg.JWKSURL and refreshed in the background until ctx is done. Startup does
// not fail when the JWKS endpoint is not reachable yet.
func NewJWTAuthenticator(ctx context.Context, cfg JWTConfig) (*JWTAuthenticator, error) {
	if cfg.JWKSURL == "" {
		return nil, fmt.Errorf("new jwt authenticator: jwks url is required")
	}

	storage, err := jwkset.NewStorageFromHTTP(cfg.JWKSURL, jwkset.HTTPClientStorageOptions{
		Ctx:                       ctx,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           cfg.RefreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			slog.Error("failed to refresh jwks", "url", cfg.JWKSURL, "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("new jwt authenticator: jwks storage: %w", err)
	}

	kf, err := keyfunc.New(keyfunc.Options{Ctx: ctx, Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("new jwt authenticator: keyfunc: %w", err)
	}

	return NewJWTAuthenticatorWithKeyfunc(kf, cfg), nil
}

// NewJWTAuthenticatorWithKeyfunc creates an authenticator with a caller
// supplied key source.
func NewJWTAuthenticatorWithKeyfunc(kf keyfunc.Keyfunc, cfg JWTConfig) *JWTAuthenticator {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		options = append(options, jwt.WithAudience(cfg.Audience))
	}

	return &JWTAuthenticator{jwks: kf, options: options}
}

func (a *JWTAuthenticator) Authenticate(r *http.Request) (string, error) {
	tokenString, err := bearerToken(r)
	if err != nil {
		return "", err
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, a.jwks.KeyfuncCtx(r.Context()), a.options...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token: %w", ErrUnauthenticated)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("token has no subject: %w", ErrUnauthenticated)
	}

	return subject, nil
}
