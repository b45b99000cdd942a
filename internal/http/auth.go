package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"ems/internal/log"
)

type ctxKey string

const userKey ctxKey = "user_id"

var errUnauthenticated = errors.New("unauthenticated")

// Authenticator verifies HS256 bearer tokens. The token subject is the
// caller's user id; issuing tokens belongs to the identity service.
type Authenticator struct {
	secret []byte
	issuer string
	now    func() time.Time
	logger *log.Logger
}

func NewAuthenticator(secret, issuer string) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
		logger: log.ForComponent(log.ComponentAuth),
	}
}

// Verify parses a raw token and returns the user id in its subject.
func (a *Authenticator) Verify(raw string) (uuid.UUID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...); err != nil {
		return uuid.Nil, err
	}

	user, err := uuid.Parse(claims.Subject)
	if err != nil || user == uuid.Nil {
		return uuid.Nil, errUnauthenticated
	}
	return user, nil
}

// Sign issues a token for user valid for ttl. Used by the token command
// for local development and by tests.
func (a *Authenticator) Sign(user uuid.UUID, ttl time.Duration) (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   user.String(),
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Middleware rejects requests without a valid bearer token and stores the
// authenticated user id in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeErrorStatus(w, r, http.StatusUnauthorized, "Missing auth token")
			return
		}
		user, err := a.Verify(raw)
		if err != nil {
			a.logger.DebugContext(r.Context(), "Bearer token rejected",
				log.FieldPath, r.URL.Path,
				log.FieldError, err)
			writeErrorStatus(w, r, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// UserFromContext returns the authenticated user id.
func UserFromContext(ctx context.Context) (uuid.UUID, bool) {
	user, ok := ctx.Value(userKey).(uuid.UUID)
	return user, ok
}
