package server

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dwaller/dicentis-bridge/internal/pkg/dicentis"
)

func LoggingMiddleware(next http.Handler) http.Handler {
	logger := zap.L()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.RequestURI)
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		next.ServeHTTP(w, r)
	})
}

// handleError maps engine errors onto HTTP statuses. Unknown keys are the
// caller's problem; a missing connection is the device's.
func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dicentis.ErrUnknownSeat),
		errors.Is(err, dicentis.ErrUnknownInterpreterSeat):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, dicentis.ErrInvalidRoutingState):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, dicentis.ErrNotConnected):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
