//go:build !swagger

package httpapi

import "github.com/go-chi/chi/v5"

// MountSwagger does nothing in default builds; the interactive docs and
// their dependencies are only linked in with -tags=swagger.
func MountSwagger(r chi.Router) {}
