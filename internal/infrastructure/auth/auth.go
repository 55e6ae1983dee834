package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/decdec420/jessica-your-companion/internal/config"
	"github.com/decdec420/jessica-your-companion/internal/utils/platformerrors"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingSub   = errors.New("token has no subject")
)

// Validator resolves a bearer credential to the authenticated user id.
//
// Tokens are verified against a JWKS endpoint (RS*) when AUTH_JWKS_URL is set,
// otherwise against the shared AUTH_JWT_SECRET (HS*). With auth disabled the
// subject is read without verification, which is only meant for local runs.
type Validator struct {
	cfg    *config.Config
	log    zerolog.Logger
	jwks   *keyfunc.JWKS
	secret []byte
}

// NewValidator initializes JWKS fetching when auth is enabled.
func NewValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Validator, error) {
	v := &Validator{cfg: cfg, log: log.With().Str("component", "auth").Logger()}
	if !cfg.AuthEnabled {
		return v, nil
	}

	if url := strings.TrimSpace(cfg.AuthJWKSURL); url != "" {
		options := keyfunc.Options{
			Ctx:               ctx,
			RefreshInterval:   time.Hour,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				log.Error().Err(err).Msg("jwks refresh error")
			},
		}
		jwks, err := keyfunc.Get(url, options)
		if err != nil {
			return nil, err
		}
		v.jwks = jwks
		return v, nil
	}

	v.secret = []byte(cfg.AuthJWTSecret)
	return v, nil
}

// Authenticate validates the Authorization header value and returns the token subject.
func (v *Validator) Authenticate(ctx context.Context, authorizationHeader string) (string, error) {
	tokenString := bearerToken(authorizationHeader)
	if tokenString == "" {
		return "", unauthorized(ctx, ErrMissingToken)
	}

	if !v.cfg.AuthEnabled {
		token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
		if err != nil {
			return "", unauthorized(ctx, ErrInvalidToken)
		}
		return subject(ctx, token)
	}

	token, err := jwt.Parse(tokenString, v.keyfunc, v.parserOptions()...)
	if err != nil || !token.Valid {
		v.log.Debug().Err(err).Msg("token rejected")
		return "", unauthorized(ctx, ErrInvalidToken)
	}
	return subject(ctx, token)
}

// Ready indicates if the validator is prepared.
func (v *Validator) Ready() bool {
	if v == nil || !v.cfg.AuthEnabled {
		return true
	}
	return v.jwks != nil || len(v.secret) > 0
}

func (v *Validator) keyfunc(token *jwt.Token) (any, error) {
	if v.jwks != nil {
		return v.jwks.Keyfunc(token)
	}
	return v.secret, nil
}

func (v *Validator) parserOptions() []jwt.ParserOption {
	methods := []string{"HS256", "HS384", "HS512"}
	if v.jwks != nil {
		methods = []string{"RS256", "RS384", "RS512"}
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods(methods)}
	if issuer := strings.TrimSpace(v.cfg.AuthIssuer); issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience := strings.TrimSpace(v.cfg.AuthAudience); audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return opts
}

func subject(ctx context.Context, token *jwt.Token) (string, error) {
	sub, err := token.Claims.GetSubject()
	if err != nil || strings.TrimSpace(sub) == "" {
		return "", unauthorized(ctx, ErrMissingSub)
	}
	return sub, nil
}

func unauthorized(ctx context.Context, err error) error {
	return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeUnauthorized, err.Error(), err, "")
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
