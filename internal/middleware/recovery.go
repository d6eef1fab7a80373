package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"vapi-proxy/internal/models"
)

// Recoverer is the global error handler. A panic becomes a generic 500;
// the panic value and stack are only returned to the client in dev mode.
func Recoverer(logger *slog.Logger, devMode bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				stack := string(debug.Stack())
				logger.Error("unhandled panic",
					"error", fmt.Sprint(rec),
					"request_id", chimiddleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"client_id", ClientID(r),
					"stack", stack,
				)

				resp := models.ErrorResponse{
					Error:     "Internal server error",
					Code:      "INTERNAL_ERROR",
					RequestID: chimiddleware.GetReqID(r.Context()),
				}
				if devMode {
					resp.Detail = fmt.Sprint(rec)
					resp.Stack = stack
				}
				writeErrorResponse(w, http.StatusInternalServerError, resp)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
