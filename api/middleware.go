package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"

	"github.com/suisse-offerten/marketplace-api/metrics"
	"github.com/suisse-offerten/marketplace-api/utils"
)

type contextKey string

const (
	userIDKey    contextKey = "userID"
	userEmailKey contextKey = "userEmail"
)

// GetUserIDFromContext returns the account id of an authenticated request.
func GetUserIDFromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(userIDKey).(string)
	if !ok || id == "" {
		return "", errors.New("user id not found in context")
	}
	return id, nil
}

// requireAuth checks the Authorization header. Both "Bearer <token>" and a
// bare token are accepted.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			utils.RespondError(w, nil, Unauthorized, http.StatusUnauthorized, nil)
			return
		}
		token := header
		if scheme, rest, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "bearer") {
			token = strings.TrimSpace(rest)
		}

		claims, err := utils.ValidateToken(s.cfg.Auth.SecretKey, token)
		if err != nil {
			s.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected token")
			utils.RespondError(w, nil, Unauthorized, http.StatusUnauthorized, nil)
			return
		}
		id, _ := claims["id"].(string)
		email, _ := claims["email"].(string)

		ctx := context.WithValue(r.Context(), userIDKey, id)
		ctx = context.WithValue(ctx, userEmailKey, email)
		next(w, r.WithContext(ctx))
	}
}

// rateLimited throttles code-issuing endpoints per client IP.
func (s *Server) rateLimited(scope string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, retry := s.limiter.Allow(r.Context(), scope+":"+utils.ClientIP(r))
		if !ok {
			metrics.RateLimitedTotal.WithLabelValues(scope).Inc()
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
			utils.RespondError(w, nil, TooManyTries, http.StatusTooManyRequests, nil)
			return
		}
		next(w, r)
	}
}

// cors allows requests without an Origin and those from the configured
// origins. Other origins get 403.
func (s *Server) cors(next http.Handler) http.Handler {
	allowed := s.cfg.HTTP.AllowedOrigins()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}
		if !slices.Contains(allowed, origin) {
			utils.RespondError(w, nil, CorsError, http.StatusForbidden, nil)
			return
		}

		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")
		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error().
					Interface("panic", rec).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Bytes("stack", debug.Stack()).
					Msg("recovered from panic")
				utils.RespondError(w, nil, ServerError, http.StatusInternalServerError, nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
