package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/vinyltrader/internal/api/apierr"
	"github.com/mcoot/vinyltrader/internal/middleware"
)

// Recovery turns panics into JSON 500 responses
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, apiPanicHandler)
}

// Logging logs every API request
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger)
}

func apiPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
