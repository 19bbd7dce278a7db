package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/jai-platform/jai-api/models"
	"github.com/jai-platform/jai-api/services"
)

// AccountAuthenticator checks email and password credentials
type AccountAuthenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// Revocations records access tokens revoked before their expiry
type Revocations interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Auth authenticates requests with basic credentials or a bearer access token
type Auth struct {
	Accounts    AccountAuthenticator
	Tokens      *TokenIssuer
	Revocations Revocations

	authenticator auth.Authenticator
	cache         store.Cache
}

// NewAuth sets up the go-guardian strategies. Verified bearer tokens are
// cached for the token lifetime.
func NewAuth(accounts AccountAuthenticator, tokens *TokenIssuer, revocations Revocations) *Auth {
	a := &Auth{Accounts: accounts, Tokens: tokens, Revocations: revocations}
	a.authenticator = auth.New()
	a.cache = store.NewFIFO(context.Background(), tokens.TTL())
	basicStrategy := basic.New(a.ValidateUser, a.cache)
	tokenStrategy := bearer.New(a.VerifyToken, a.cache)

	a.authenticator.EnableStrategy(basic.StrategyKey, basicStrategy)
	a.authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
	return a
}

// Middleware rejects unauthenticated requests and stores the actor in the
// request context
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if token, ok := BearerToken(r); ok && a.Revocations != nil {
			revoked, err := a.Revocations.IsRevoked(r.Context(), token)
			if err != nil {
				zap.S().Errorw("failed to check token revocation", "url", r.URL, "error", err)
			}
			if err != nil || revoked {
				unauthorized(w, r)
				return
			}
		}
		info, err := a.authenticator.Authenticate(r)
		if err != nil {
			unauthorized(w, r)
			return
		}
		actor, err := actorFromInfo(info)
		if err != nil {
			unauthorized(w, r)
			return
		}
		zap.S().Debugw("user authenticated", "userID", info.ID(), "requestId", RequestIDFrom(r.Context()))
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// ValidateUser checks basic credentials against the account store
func (a *Auth) ValidateUser(ctx context.Context, r *http.Request, email, password string) (auth.Info, error) {
	user, err := a.Accounts.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return auth.NewDefaultUser(user.Details.Email, user.ID.Hex(), []string{user.Details.UserType}, nil), nil
}

// VerifyToken checks a bearer access token the cache has not seen yet
func (a *Auth) VerifyToken(ctx context.Context, r *http.Request, token string) (auth.Info, error) {
	claims, err := a.Tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	return auth.NewDefaultUser(claims.Subject, claims.Subject, []string{claims.UserType}, nil), nil
}

// IssueToken signs an access token for user and caches it as verified
func (a *Auth) IssueToken(r *http.Request, user *models.User) (string, time.Time, error) {
	token, expiresAt, err := a.Tokens.Issue(services.Actor{ID: user.ID, UserType: user.Details.UserType})
	if err != nil {
		return "", time.Time{}, err
	}
	info := auth.NewDefaultUser(user.Details.Email, user.ID.Hex(), []string{user.Details.UserType}, nil)
	tokenStrategy := a.authenticator.Strategy(bearer.CachedStrategyKey)
	if err := auth.Append(tokenStrategy, token, info, r); err != nil {
		zap.S().Warnw("failed to cache issued token", "userID", user.ID.Hex(), "error", err)
	}
	return token, expiresAt, nil
}

// RevokeToken drops token from the cache and denylists it until it expires
func (a *Auth) RevokeToken(r *http.Request, token string) error {
	tokenStrategy := a.authenticator.Strategy(bearer.CachedStrategyKey)
	if err := auth.Revoke(tokenStrategy, token, r); err != nil {
		zap.S().Debugw("token was not cached", "error", err)
	}
	if a.Revocations == nil {
		return nil
	}
	expiresAt := time.Now().Add(a.Tokens.TTL())
	if claims, err := a.Tokens.Parse(token); err == nil && claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return a.Revocations.Revoke(r.Context(), token, expiresAt)
}

// BearerToken extracts the token from the Authorization header
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return token, token != ""
}

func actorFromInfo(info auth.Info) (services.Actor, error) {
	id, err := primitive.ObjectIDFromHex(info.ID())
	if err != nil {
		return services.Actor{}, err
	}
	groups := info.Groups()
	if len(groups) == 0 {
		return services.Actor{}, errors.New("user type missing")
	}
	return services.Actor{ID: id, UserType: groups[0]}, nil
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	zap.S().Errorw("unauthorized", "url", r.URL, "requestId", RequestIDFrom(r.Context()))
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error": "unauthorized"}`))
}
