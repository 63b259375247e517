// internal/app/features/settings/routes.go
package settings

import "github.com/go-chi/chi/v5"

// MountPublic mounts GET /api/settings.
func (h *Handler) MountPublic(r chi.Router) {
	r.Get("/", h.Show)
}

// MountAdmin mounts the settings editor. All routes require admin authentication.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/", h.Show)
	r.Patch("/", h.Update)
	r.Post("/logo", h.UploadLogo)
}
