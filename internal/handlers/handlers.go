package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/arealivre/areas-api/internal/domain"
	"github.com/arealivre/areas-api/internal/service"
	"github.com/arealivre/areas-api/pkg/auth"
	"github.com/arealivre/areas-api/pkg/config"
	"github.com/arealivre/areas-api/pkg/logger"
)

type contextKey string

const claimsKey contextKey = "claims"

type Handlers struct {
	areaService    service.AreaService
	bookingService service.BookingService
	authService    service.AuthService
	config         *config.Config
}

func New(
	areaService service.AreaService,
	bookingService service.BookingService,
	authService service.AuthService,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		areaService:    areaService,
		bookingService: bookingService,
		authService:    authService,
		config:         cfg,
	}
}

// Routes mounts the API under /api/v1. The limiter arguments guard the
// abuse-prone endpoints and may be nil in tests.
func (h *Handlers) Routes(r chi.Router, loginLimiter, bookingLimiter func(http.Handler) http.Handler) {
	passthrough := func(next http.Handler) http.Handler { return next }
	if loginLimiter == nil {
		loginLimiter = passthrough
	}
	if bookingLimiter == nil {
		bookingLimiter = passthrough
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public
		r.With(loginLimiter).Post("/auth/register", h.Register)
		r.With(loginLimiter).Post("/auth/login", h.Login)
		r.Get("/areas", h.ListAreas)
		r.Get("/areas/{id}", h.GetArea)
		r.Get("/areas/{id}/availability", h.CheckAvailability)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(h.RequireJWT(""))

			r.Get("/auth/me", h.Me)
			r.Get("/users", h.ListUsers)
			r.Post("/users", h.CreateUser)
			r.Put("/users/{id}", h.UpdateUser)

			r.Get("/areas/mine", h.ListMyAreas)
			r.Post("/areas", h.CreateArea)
			r.Put("/areas/{id}", h.UpdateArea)
			r.Delete("/areas/{id}", h.DeleteArea)

			r.Get("/areas/{id}/special-prices", h.ListSpecialPrices)
			r.Post("/areas/{id}/special-prices", h.AddSpecialPrice)
			r.Put("/areas/{id}/special-prices/{ruleID}", h.UpdateSpecialPrice)
			r.Delete("/areas/{id}/special-prices/{ruleID}", h.DeleteSpecialPrice)
			r.Put("/areas/{id}/faqs", h.SetFAQs)

			r.Get("/areas/{id}/bookings", h.ListAreaBookings)
			r.With(bookingLimiter).Post("/bookings", h.CreateBooking)
			r.Post("/bookings/external", h.CreateExternalBooking)
			r.Get("/bookings/mine", h.ListMyBookings)
			r.Get("/bookings/owner", h.ListOwnerBookings)
			r.Get("/bookings/{id}", h.GetBooking)
			r.Put("/bookings/{id}/status", h.UpdateBookingStatus)
			r.Post("/bookings/{id}/cancel", h.CancelBooking)
		})
	})
}

// RequireJWT validates the bearer token and, when requiredRole is
// non-empty, enforces it (admins always pass).
func (h *Handlers) RequireJWT(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "Missing or invalid authorization header")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := auth.Parse(token, h.config.Auth.JWTSecret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			if requiredRole != "" && claims.Role != requiredRole && claims.Role != domain.RoleAdmin {
				writeError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), logger.UserIDKey, claims.Sub)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func getClaims(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(claimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

func actorFrom(r *http.Request) (service.Actor, bool) {
	claims := getClaims(r)
	if claims == nil {
		return service.Actor{}, false
	}
	return service.Actor{UserID: claims.Sub, Role: claims.Role}, true
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeDomainError maps a service error onto an HTTP status. Internal
// details are logged, never surfaced.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		writeError(w, http.StatusBadRequest, err.Error())
	case domain.KindNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case domain.KindForbidden:
		writeError(w, http.StatusForbidden, err.Error())
	case domain.KindConflict:
		writeError(w, http.StatusConflict, err.Error())
	case domain.KindImmutable:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		logger.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
