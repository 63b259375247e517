// internal/app/features/announcements/routes.go
package announcements

import "github.com/go-chi/chi/v5"

// MountPublic mounts the public read route.
func (h *Handler) MountPublic(r chi.Router) {
	r.Get("/", h.ListLive)
}

// MountAdmin mounts the admin CRUD routes. The caller applies RequireAdmin.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Put("/{id}", h.Update)
	r.Post("/{id}/toggle", h.Toggle)
	r.Delete("/{id}", h.Delete)
}
