// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/consultancy/internal/app/system/auditlog"
	"github.com/dalemusser/consultancy/internal/app/system/auth"
	"github.com/dalemusser/consultancy/internal/app/system/respond"
	"go.uber.org/zap"
)

type Handler struct {
	SessionMgr *auth.SessionManager
	Audit      *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{SessionMgr: sessionMgr, Audit: audit, Log: logger}
}

// ServeLogout handles POST /auth/logout. The cookie is cleared even when
// the old one no longer decodes.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); ok {
		h.Audit.Logout(r.Context(), r)
	}
	if err := h.SessionMgr.Logout(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}
	respond.NoContent(w)
}
