package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cumbre/internal/commons"
	"cumbre/internal/storefront"
)

// TraceID propagates the caller's X-Trace-Id or assigns a new one.
func TraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(commons.TraceHeader)
		if _, err := uuid.Parse(traceID); err != nil {
			traceID = uuid.New().String()
		}
		w.Header().Set(commons.TraceHeader, traceID)
		next.ServeHTTP(w, r.WithContext(commons.WithTraceID(r.Context(), traceID)))
	})
}

func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request handled",
				zap.String("traceId", commons.TraceID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// VisitorOpener is the part of the storefront registry the session middleware needs.
type VisitorOpener interface {
	Open(ctx context.Context, sessionID string) (*storefront.Visitor, error)
}

// Visitor resolves the browser session cookie to its visitor, issuing a new
// session id when the cookie is missing or malformed.
func Visitor(registry VisitorOpener, cookieName string, secure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if c, err := r.Cookie(cookieName); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					sessionID = c.Value
				}
			}
			if sessionID == "" {
				sessionID = uuid.New().String()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    sessionID,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			v, err := registry.Open(r.Context(), sessionID)
			if err != nil {
				commons.WriteError(w, r, err, logger.With(zap.String("traceId", commons.TraceID(r.Context()))))
				return
			}

			next.ServeHTTP(w, r.WithContext(storefront.WithVisitor(r.Context(), v)))
		})
	}
}
