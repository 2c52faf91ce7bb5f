package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dmitrijs2005/afterlight/internal/common"
	"github.com/dmitrijs2005/afterlight/internal/logging"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// UserID returns the authenticated user id, or "" outside the auth group.
func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// RequestLogger logs one line per request. Bodies and headers are never
// logged.
func RequestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info(r.Context(), "request completed",
					"request_id", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start).String(),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// Recovery turns a handler panic into a 500 INTERNAL_ERROR response.
func Recovery(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error(r.Context(), "panic recovered",
						"error", fmt.Sprint(rec),
						"request_id", middleware.GetReqID(r.Context()),
						"method", r.Method,
						"path", r.URL.Path,
						"stack_trace", string(debug.Stack()),
					)
					WriteError(w, r, common.ErrorInternal)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

type tokenVerifier interface {
	UserIDFromAccessToken(token string) (string, error)
}

// Authenticate requires a valid bearer access token. An expired token is
// reported as TOKEN_EXPIRED so the client knows to refresh.
func Authenticate(tv tokenVerifier, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(common.AuthorizationHeaderName)
			token, ok := strings.CutPrefix(header, common.BearerPrefix)
			if !ok || token == "" {
				WriteError(w, r, common.ErrorUnauthorized)
				return
			}

			userID, err := tv.UserIDFromAccessToken(token)
			if err != nil {
				logger.Debug(r.Context(), "token rejected", "error", err)
				WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
