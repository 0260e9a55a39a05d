package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	lederr "github.com/xam-dev-ux/BaseReview/internal/errors"
	"github.com/xam-dev-ux/BaseReview/pkg/logger"
)

type contextKey string

const identityKey contextKey = "identity"

// Claims are the JWT claims the API accepts. Subject carries the caller
// identity used for ownership and role checks.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the authenticated caller identity, or empty.
func Identity(ctx context.Context) string {
	id, _ := ctx.Value(identityKey).(string)
	return id
}

// AuthMiddleware validates HS256 bearer tokens and injects the caller
// identity into the request context. Requests without a token pass through
// unauthenticated; handlers that mutate state reject them.
type AuthMiddleware struct {
	secret []byte
	log    *logger.Logger
}

// NewAuthMiddleware builds the JWT middleware with the shared signing secret.
func NewAuthMiddleware(secret string, log *logger.Logger) *AuthMiddleware {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return &AuthMiddleware{secret: []byte(secret), log: log}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, lederr.NotAuthorized("invalid Authorization header format"))
			return
		}

		claims, err := m.validateToken(parts[1])
		if err != nil {
			m.log.WithError(err).Warn("token validation failed")
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) validateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, lederr.NotAuthorized("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, lederr.NotAuthorized("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, lederr.NotAuthorized("invalid token claims")
	}
	return claims, nil
}

// requireIdentity rejects unauthenticated requests.
func requireIdentity(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := Identity(r.Context())
	if id == "" {
		writeError(w, lederr.NotAuthorized("authentication required"))
		return "", false
	}
	return id, true
}
