package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/thisisjab/herdcomp/executor"
)

const sessionKey contextKey = "session"

// sessionFromContext returns the session attached by sessionMiddleware.
func sessionFromContext(ctx context.Context) (executor.Session, bool) {
	s, ok := ctx.Value(sessionKey).(executor.Session)
	return s, ok
}

// sessionMiddleware attaches a session when the request carries a valid bearer
// token. Requests without one pass through so public routes keep working.
func (s *server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(tokenString) == "" {
			s.unauthorized(w, r, "Authorization header must be a bearer token.")
			return
		}

		session, err := s.parseSession(strings.TrimSpace(tokenString))
		if err != nil {
			s.logger.Debug("rejected bearer token", "request-id", requestID(r.Context()), "error", err)
			s.unauthorized(w, r, "Invalid or expired token.")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, session)))
	})
}

// requireSession rejects requests that reached the handler without a session.
func (s *server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := sessionFromContext(r.Context()); !ok {
			s.unauthorized(w, r, "Authentication required")
			return
		}
		next(w, r)
	}
}

func (s *server) parseSession(tokenString string) (executor.Session, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.cfg.Auth.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Auth.Issuer))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Auth.Secret), nil
	}, opts...)
	if err != nil {
		return executor.Session{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return executor.Session{}, fmt.Errorf("invalid token claims")
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return executor.Session{}, err
	}

	// A missing tenant is left for the executor to report.
	return executor.Session{
		UserID:   subject,
		TenantID: tenantOf(claims, s.cfg.Auth.tenantClaim()),
	}, nil
}

func tenantOf(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok && v != "" {
		return v
	}

	if md, ok := claims["user_metadata"].(map[string]any); ok {
		if v, ok := md[key].(string); ok {
			return v
		}
	}

	return ""
}
