package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/config"
	"storefront/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost used for stored passwords.
const PasswordCost = 12

// UserFinder looks up users for authentication.
type UserFinder interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// Authenticator resolves the principal of an HTTP request.
type Authenticator interface {
	// Authenticate returns nil, nil when the request carries no credentials.
	Authenticate(r *http.Request) (*Principal, error)
}

type authenticator struct {
	users  UserFinder
	secret []byte
	issuer string
	logger zerolog.Logger
}

// NewAuthenticator accepts HS256 bearer tokens and HTTP Basic credentials.
func NewAuthenticator(users UserFinder, cfg config.AuthConfig, logger zerolog.Logger) Authenticator {
	return &authenticator{
		users:  users,
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.JWTIssuer,
		logger: logger.With().Str("component", "authenticator").Logger(),
	}
}

func (a *authenticator) Authenticate(r *http.Request) (*Principal, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, nil
	}

	scheme, credentials, _ := strings.Cut(header, " ")
	switch strings.ToLower(scheme) {
	case "bearer":
		return a.bearer(r.Context(), strings.TrimSpace(credentials))
	case "basic":
		username, password, ok := r.BasicAuth()
		if !ok {
			return nil, model.ErrInvalidCredentials
		}
		return a.basic(r.Context(), username, password)
	default:
		return nil, nil
	}
}

func (a *authenticator) bearer(ctx context.Context, raw string) (*Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		a.logger.Debug().Err(err).Msg("rejected bearer token")
		return nil, model.ErrInvalidCredentials
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		a.logger.Debug().Str("subject", claims.Subject).Msg("bearer token subject is not a user id")
		return nil, model.ErrInvalidCredentials
	}

	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load token user: %w", err)
	}
	if user == nil {
		return nil, model.ErrInvalidCredentials
	}
	return NewPrincipal(user), nil
}

func (a *authenticator) basic(ctx context.Context, username, password string) (*Principal, error) {
	user, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			a.logger.Warn().Err(err).Str("username", username).Msg("stored password hash is unusable")
		}
		return nil, model.ErrInvalidCredentials
	}
	return NewPrincipal(user), nil
}

// HashPassword hashes a plain-text password for storage.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}
