package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type contextKey int

const (
	ctxKeyAuthUser contextKey = iota
	ctxKeyLogger
)

// AuthUser holds the authenticated user information extracted from the API key.
type AuthUser struct {
	UserID       string
	Email        string
	KeyID        string
	Capabilities []string
}

// getUserFromContext returns the authenticated user from the request context, or nil.
func getUserFromContext(ctx context.Context) *AuthUser {
	u, _ := ctx.Value(ctxKeyAuthUser).(*AuthUser)
	return u
}

// logFor returns the context-scoped logger, falling back to the default logger.
func logFor(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKeyLogger).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// recoveryMiddleware catches panics and returns a 500 response.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logFor(r.Context()).Error("panic recovered", "panic", rec, "path", r.URL.Path)
				writeError(w, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware tags the request with an ID, reusing a well-formed
// X-Request-ID from the client, echoes it in the response and stores a
// logger carrying it as "rid" in the context.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), ctxKeyLogger, slog.Default().With("rid", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusCapture records the status code a handler wrote.
type statusCapture struct {
	http.ResponseWriter
	code int
}

func (sc *statusCapture) WriteHeader(code int) {
	sc.code = code
	sc.ResponseWriter.WriteHeader(code)
}

// accessMiddleware counts each request by status class and writes the
// access log line.
func accessMiddleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.RecordRequest()
			sc := &statusCapture{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(sc, r)

			switch {
			case sc.code >= 500:
				m.RecordError()
			case sc.code >= 400:
				m.RecordClientError()
			}
			logFor(r.Context()).Info("req",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sc.code,
				"dur", time.Since(start).String(),
			)
		})
	}
}

// bearerToken extracts the key from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", errors.New("missing authorization header")
	}
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", errors.New("invalid authorization format")
	}
	return strings.TrimSpace(token), nil
}

// authenticate resolves the request's API key. A nil user with a nil error
// means the key is unknown or expired.
func (s *Server) authenticate(r *http.Request) (*AuthUser, error) {
	token, err := bearerToken(r)
	if err != nil {
		return nil, err
	}
	ak, user, err := s.store.VerifyAPIKey(token)
	if err != nil || ak == nil {
		return nil, err
	}
	return &AuthUser{
		UserID:       user.ID,
		Email:        user.Email,
		KeyID:        ak.ID,
		Capabilities: parseCapabilities(ak.Capabilities),
	}, nil
}

// requireAuth runs handler only for requests carrying a valid API key; the
// AuthUser and a logger tagged with its uid go into the context.
func (s *Server) requireAuth(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := bearerToken(r); err != nil {
			writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
			return
		}
		u, err := s.authenticate(r)
		if err != nil {
			logFor(r.Context()).Error("verify api key", "err", err)
			writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to verify key")
			return
		}
		if u == nil {
			writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid or expired api key")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyAuthUser, u)
		ctx = context.WithValue(ctx, ctxKeyLogger, logFor(ctx).With("uid", u.UserID))
		handler(w, r.WithContext(ctx))
	}
}

// maxBytesMiddleware caps request bodies at maxBytes.
func maxBytesMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// chain applies middleware in order; the first is outermost.
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
