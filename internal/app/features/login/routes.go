// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// Mount adds the sign-in endpoints to an /auth router.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/login", h.HandleLogin)
	r.Get("/me", h.Me)
}
