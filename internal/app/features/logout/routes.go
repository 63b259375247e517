// internal/app/features/logout/routes.go
package logout

import "github.com/go-chi/chi/v5"

// Mount adds POST /logout to an /auth router.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/logout", h.ServeLogout)
}
