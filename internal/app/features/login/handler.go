// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/consultancy/internal/app/store/audit"
	userstore "github.com/dalemusser/consultancy/internal/app/store/users"
	"github.com/dalemusser/consultancy/internal/app/system/auditlog"
	"github.com/dalemusser/consultancy/internal/app/system/auth"
	"github.com/dalemusser/consultancy/internal/app/system/ratelimit"
	"github.com/dalemusser/consultancy/internal/app/system/respond"
	"github.com/dalemusser/consultancy/internal/app/system/timeouts"
	"github.com/dalemusser/consultancy/internal/app/system/validate"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	Audit      *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		SessionMgr: sessionMgr,
		Limiter:    ratelimit.NewLoginLimiter(),
		Audit:      audit,
		Log:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin serves POST /auth/login. Unknown email and wrong password get
// the same answer; the audit log keeps the difference.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if ok, msg := h.Limiter.Check(r, req.Email); !ok {
		h.Audit.LoginFailed(ctx, r, audit.EventLoginFailedRateLimit, req.Email, "rate limited")
		respond.Error(w, http.StatusTooManyRequests, msg)
		return
	}

	u, err := h.Users.Authenticate(ctx, req.Email, req.Password)
	switch {
	case errors.Is(err, userstore.ErrBadCredentials):
		event := audit.EventLoginFailedWrongPassword
		if _, lookupErr := h.Users.GetByEmail(ctx, req.Email); lookupErr != nil {
			event = audit.EventLoginFailedUserNotFound
		}
		h.Audit.LoginFailed(ctx, r, event, req.Email, "bad credentials")
		respond.Error(w, http.StatusUnauthorized, err.Error())
		return
	case errors.Is(err, userstore.ErrDisabled):
		h.Audit.LoginFailed(ctx, r, audit.EventLoginFailedUserDisabled, req.Email, "account disabled")
		respond.Error(w, http.StatusForbidden, err.Error())
		return
	case err != nil:
		respond.Internal(w, r, h.Log, "authenticate failed", err)
		return
	}

	su := auth.SessionUser{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email, Role: u.Role}
	if err := h.SessionMgr.Login(w, r, su); err != nil {
		respond.Internal(w, r, h.Log, "login: save session", err)
		return
	}
	h.Limiter.ResetEmail(req.Email)
	h.Audit.LoginSuccess(ctx, r, u.ID, u.Email)
	h.Log.Info("admin signed in", zap.String("user_id", su.ID))
	respond.OK(w, su)
}

// Me serves GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "not signed in")
		return
	}
	respond.OK(w, u)
}
