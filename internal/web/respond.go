package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/camuig/trader-console/internal/console"
	"github.com/camuig/trader-console/internal/gateway"
)

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError renders err as {"detail": ...} with a status matching its kind.
func writeError(w http.ResponseWriter, err error, fallback string) {
	writeJSON(w, statusFor(err), map[string]string{"detail": console.Message(err, fallback)})
}

func statusFor(err error) int {
	var (
		v *console.ValidationError
		t *gateway.TransportError
		a *gateway.APIError
	)
	switch {
	case errors.As(err, &v):
		return http.StatusBadRequest
	case errors.Is(err, console.ErrDeclined):
		return http.StatusPreconditionFailed
	case errors.Is(err, console.ErrBusy),
		errors.Is(err, console.ErrNotLoaded),
		errors.Is(err, console.ErrNotCancellable),
		errors.Is(err, console.ErrNoBrokerOrderID):
		return http.StatusConflict
	case errors.Is(err, gateway.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &t), errors.As(err, &a):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &console.ValidationError{Message: "Invalid request body"}
	}
	return nil
}
