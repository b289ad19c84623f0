package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/josephgoksu/azubihub/internal/i18n"
	"github.com/josephgoksu/azubihub/internal/storage"
)

type ctxKey int

const (
	identityKey ctxKey = iota
	langKey
	loggerKey
)

var errUnauthorized = errors.New("unauthorized")

// accessLog logs one line per request with a request-scoped logger.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqLogger := s.logger.With("req_id", chimiddleware.GetReqID(r.Context()))
		r = r.WithContext(context.WithValue(r.Context(), loggerKey, reqLogger))

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		reqLogger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// authenticate resolves the caller's identity from an HS256 bearer token,
// or uses the configured user in local mode.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.LocalMode() {
			next.ServeHTTP(w, withIdentity(r, s.cfg.LocalUser.Normalize()))
			return
		}

		id, err := s.parseBearer(r.Header.Get("Authorization"))
		if err != nil {
			requestLogger(r).Warn("auth failed", "error", err)
			writeJSON(w, http.StatusUnauthorized, errorBody{Code: "unauthorized", Error: "invalid or missing bearer token"})
			return
		}
		next.ServeHTTP(w, withIdentity(r, id))
	})
}

func (s *Server) parseBearer(header string) (storage.Identity, error) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return storage.Identity{}, errUnauthorized
	}

	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return storage.Identity{}, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return storage.Identity{}, errUnauthorized
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return storage.Identity{}, errors.Join(errUnauthorized, err)
	}

	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	return storage.Identity{UserID: sub, Email: email, Name: name}.Normalize(), nil
}

// language picks German or English from Accept-Language.
func (s *Server) language(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := s.cfg.Lang
		if h := r.Header.Get("Accept-Language"); h != "" {
			lang = i18n.Match(h)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), langKey, lang)))
	})
}

func withIdentity(r *http.Request, id storage.Identity) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), identityKey, id))
}

func identityFrom(ctx context.Context) (storage.Identity, bool) {
	id, ok := ctx.Value(identityKey).(storage.Identity)
	return id, ok
}

func langFrom(ctx context.Context) i18n.Lang {
	if l, ok := ctx.Value(langKey).(i18n.Lang); ok {
		return l
	}
	return i18n.Default
}

func requestLogger(r *http.Request) *slog.Logger {
	if l, ok := r.Context().Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
