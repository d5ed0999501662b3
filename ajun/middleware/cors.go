package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// AllowAllCORS lets any origin, method and header through with credentials.
// The origin is echoed back because browsers reject "*" on credentialed
// requests.
func AllowAllCORS() cors.Options {
	return cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool { return true },
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:       []string{"*"},
		ExposedHeaders:       []string{"Content-Length"},
		AllowCredentials:     true,
		MaxAge:               600,
		OptionsSuccessStatus: http.StatusNoContent,
	}
}

func CORS(options cors.Options) func(http.Handler) http.Handler {
	return cors.Handler(options)
}
