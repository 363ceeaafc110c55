// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/ecellvishnu/espace/internal/app/system/auditlog"
	"github.com/ecellvishnu/espace/internal/app/system/auth"
	"github.com/ecellvishnu/espace/internal/app/system/authz"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
	}
}

// ServeLogout handles POST /logout. Sign-out destroys both the primary
// session and any manual admin session.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	email := authz.Email(r)

	if err := h.SessionMgr.SignOut(w, r); err != nil {
		// Cookie clearing failed; log and continue to the redirect
		// anyway. The deletion cookies that did get written still win.
		h.Log.Warn("sign-out: session save failed", zap.Error(err))
	}

	if email != "" {
		h.AuditLog.Logout(r, email)
	}

	// HTMX handling: use HX-Redirect to force a client-side navigation.
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
