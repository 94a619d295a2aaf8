//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "graded/docs"
)

// MountSwagger serves the interactive API docs at /swagger/ when the binary
// is built with -tags=swagger. The doc.json is produced by `swag init`.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
}
