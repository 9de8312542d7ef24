package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/peerrent/verification/internal/domain"
	"github.com/peerrent/verification/internal/repository"
	"github.com/peerrent/verification/internal/service"
	"github.com/peerrent/verification/pkg/auth"
	"github.com/peerrent/verification/pkg/config"
	"github.com/peerrent/verification/pkg/logger"
)

type contextKey string

const claimsKey contextKey = "claims"

type Handlers struct {
	authService   service.AuthService
	verifyService service.VerificationService
	rateLimitRepo repository.RateLimitRepository
	config        *config.Config
}

func New(
	authService service.AuthService,
	verifyService service.VerificationService,
	rateLimitRepo repository.RateLimitRepository,
	config *config.Config,
) *Handlers {
	return &Handlers{
		authService:   authService,
		verifyService: verifyService,
		rateLimitRepo: rateLimitRepo,
		config:        config,
	}
}

// RequireJWT authenticates the request and stashes the claims on the
// context.
func (h *Handlers) RequireJWT() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := h.parseBearer(r)
			if claims == nil {
				writeError(w, http.StatusUnauthorized, "Missing or invalid authorization header", "UNAUTHORIZED")
				return
			}

			ctx := context.WithValue(r.Context(), logger.UserIDKey, claims.Sub)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalJWT parses credentials when present but lets anonymous requests
// through; the guard endpoint answers those with its auth-required branch.
func (h *Handlers) OptionalJWT() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims := h.parseBearer(r); claims != nil {
				ctx := context.WithValue(r.Context(), logger.UserIDKey, claims.Sub)
				ctx = context.WithValue(ctx, claimsKey, claims)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handlers) parseBearer(r *http.Request) *auth.Claims {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil
	}
	claims, err := auth.Parse(strings.TrimPrefix(authHeader, "Bearer "), h.config.Auth.JWTSecret)
	if err != nil {
		return nil
	}
	return claims
}

// RateLimit limits requests per client IP for send-style endpoints.
func (h *Handlers) RateLimit(prefix string, requests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := prefix + ":" + getClientIP(r)

			allowed, err := h.rateLimitRepo.CheckRateLimit(r.Context(), key, requests, window)
			if err != nil {
				logger.ErrorContext(r.Context(), "Rate limit check failed", "error", err)
				// Allow request on error (fail open)
			} else if !allowed {
				writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.", "RATE_LIMIT_EXCEEDED")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Helper functions

// withStep tags the request context so log lines emitted by the step's
// service calls carry the step name.
func withStep(r *http.Request, step domain.Step) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), logger.StepKey, step.String()))
}

func getClaims(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(claimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fall back to RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message, code string) {
	response := map[string]string{
		"error": message,
		"code":  code,
	}
	writeJSON(w, statusCode, response)
}

// writeServiceError maps service errors to responses. Gate violations are
// not errors to the user: they come back as 409 with the redirect target so
// the client simply moves to the right step.
func writeServiceError(w http.ResponseWriter, err error) {
	var gateErr *service.GateError
	if errors.As(err, &gateErr) {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":       "step not available",
			"code":        "STEP_ORDER",
			"gate":        gateErr.Result,
			"redirect_to": gateErr.Result.RedirectTo,
		})
		return
	}

	var cooldownErr *service.CooldownError
	if errors.As(err, &cooldownErr) {
		writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"error":         cooldownErr.Error(),
			"code":          "COOLDOWN",
			"retry_after_s": int(cooldownErr.Remaining.Seconds()),
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found", "NOT_FOUND")
	case errors.Is(err, service.ErrInvalidToken):
		writeError(w, http.StatusBadRequest, "Invalid or expired verification token", "INVALID_TOKEN")
	case errors.Is(err, service.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, "Invalid verification code", "INVALID_CODE")
	case errors.Is(err, service.ErrCodeExpired):
		writeError(w, http.StatusBadRequest, "Verification code expired, request a new one", "CODE_EXPIRED")
	case errors.Is(err, service.ErrTooManyAttempts):
		writeError(w, http.StatusTooManyRequests, "Too many failed attempts, request a new code", "TOO_MANY_ATTEMPTS")
	case errors.Is(err, service.ErrNotSkippable):
		writeError(w, http.StatusBadRequest, "This step cannot be skipped", "NOT_SKIPPABLE")
	default:
		writeError(w, http.StatusBadRequest, err.Error(), "REQUEST_FAILED")
	}
}
