// internal/app/features/admingate/handler.go
package admingate

import (
	"net/http"
	"strings"

	"github.com/ecellvishnu/espace/internal/app/system/auditlog"
	"github.com/ecellvishnu/espace/internal/app/system/auth"
	"github.com/ecellvishnu/espace/internal/app/system/authz"
	"github.com/ecellvishnu/espace/internal/app/system/elevation"
	"github.com/ecellvishnu/espace/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// Cookie-session keys for the persisted gate snapshot.
const (
	gateStateKey    = "gate_state"
	gateIdentityKey = "gate_identity"
	gateFailuresKey = "gate_failures"
	gateLockedKey   = "gate_locked_until"
)

// gateCookieSuffix names the auxiliary session the gate state lives in.
const gateCookieSuffix = "gate"

// Handler drives the two-stage manual admin access gate over HTTP. The
// state machine itself lives in the elevation package; this layer
// persists it between requests, emits the audit records, and renders
// the forms.
type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Cfg        elevation.Config
}

func NewHandler(sm *auth.SessionManager, audit *auditlog.Logger, cfg elevation.Config, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sm,
		AuditLog:   audit,
		Cfg:        cfg,
	}
}

type gateData struct {
	viewdata.BaseVM
	Stage       string // "identity" or "code"
	Identity    string
	Error       string
	LockedUntil string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin/gate                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeGate(w http.ResponseWriter, r *http.Request) {
	if !authz.IsSuperAdmin(r) {
		// The gate's existence is not advertised to anyone else.
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	g, sess := h.loadGate(r)
	if g.State() == elevation.Closed {
		g.Open()
		if err := h.saveGate(w, r, sess, g); err != nil {
			h.Log.Error("gate: persist state failed", zap.Error(err))
		}
	}

	data := gateData{
		BaseVM:   viewdata.NewBaseVM(r, "Admin access", "/"),
		Stage:    g.State().String(),
		Identity: g.Identity(),
		Error:    errorMessage(query.Get(r, "error")),
	}
	if until := g.LockedUntil(); !until.IsZero() {
		data.LockedUntil = until.Format("15:04:05")
	}

	templates.Render(w, r, "admin_gate", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/gate/identity                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleIdentity(w http.ResponseWriter, r *http.Request) {
	if !authz.IsSuperAdmin(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/admin/gate", http.StatusSeeOther)
		return
	}

	g, sess := h.loadGate(r)
	email := strings.TrimSpace(r.FormValue("email"))
	outcome := g.SubmitIdentity(email)

	if err := h.saveGate(w, r, sess, g); err != nil {
		h.Log.Error("gate: persist state failed", zap.Error(err))
	}

	switch outcome {
	case elevation.OutcomeIdentityAccepted:
		http.Redirect(w, r, "/admin/gate", http.StatusSeeOther)
	case elevation.OutcomeIdentityDenied:
		h.AuditLog.AdminIdentityDenied(r, email)
		http.Redirect(w, r, "/admin/gate?error=identity", http.StatusSeeOther)
	default:
		// Submission arrived in a state that does not take an identity.
		http.Redirect(w, r, "/admin/gate", http.StatusSeeOther)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/gate/code                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCode(w http.ResponseWriter, r *http.Request) {
	if !authz.IsSuperAdmin(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/admin/gate", http.StatusSeeOther)
		return
	}

	g, sess := h.loadGate(r)
	outcome := g.SubmitCode(r.FormValue("code"))

	switch outcome {
	case elevation.OutcomeCodeAccepted:
		identity := g.Identity()
		if err := h.SessionMgr.GrantManualAdmin(w, r, identity); err != nil {
			h.Log.Error("gate: persist manual admin failed", zap.Error(err))
			http.Redirect(w, r, "/admin/gate", http.StatusSeeOther)
			return
		}
		// Audit only after the grant is persisted: a success record
		// must never exist without a matching admin session.
		h.AuditLog.AdminAccessSuccess(r, identity)
		// The grant is persisted elsewhere; the gate itself closes and
		// forgets everything.
		if err := h.saveGate(w, r, sess, elevation.New(h.Cfg)); err != nil {
			h.Log.Error("gate: persist state failed", zap.Error(err))
		}
		http.Redirect(w, r, "/admin", http.StatusSeeOther)

	case elevation.OutcomeCodeDenied:
		h.AuditLog.AdminCodeFailure(r, g.Identity())
		if err := h.saveGate(w, r, sess, g); err != nil {
			h.Log.Error("gate: persist state failed", zap.Error(err))
		}
		http.Redirect(w, r, "/admin/gate?error=code", http.StatusSeeOther)

	case elevation.OutcomeLockedOut:
		h.Log.Warn("gate: code submission refused during lockout",
			zap.String("identity", g.Identity()),
			zap.Time("locked_until", g.LockedUntil()))
		if err := h.saveGate(w, r, sess, g); err != nil {
			h.Log.Error("gate: persist state failed", zap.Error(err))
		}
		http.Redirect(w, r, "/admin/gate?error=locked", http.StatusSeeOther)

	default:
		if err := h.saveGate(w, r, sess, g); err != nil {
			h.Log.Error("gate: persist state failed", zap.Error(err))
		}
		http.Redirect(w, r, "/admin/gate", http.StatusSeeOther)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/gate/back, POST /admin/gate/dismiss                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleBack(w http.ResponseWriter, r *http.Request) {
	if !authz.IsSuperAdmin(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	g, sess := h.loadGate(r)
	g.Back()
	if err := h.saveGate(w, r, sess, g); err != nil {
		h.Log.Error("gate: persist state failed", zap.Error(err))
	}
	http.Redirect(w, r, "/admin/gate", http.StatusSeeOther)
}

func (h *Handler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	if !authz.IsSuperAdmin(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	g, sess := h.loadGate(r)
	g.Dismiss()
	if err := h.saveGate(w, r, sess, g); err != nil {
		h.Log.Error("gate: persist state failed", zap.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// loadGate restores the gate from its cookie session. A missing or
// undecodable cookie yields a fresh closed gate.
func (h *Handler) loadGate(r *http.Request) (*elevation.Gate, *sessions.Session) {
	sess, err := h.SessionMgr.NamedSession(r, gateCookieSuffix)
	if err != nil {
		h.Log.Debug("gate: cookie decode failed; starting fresh", zap.Error(err))
	}

	snap := elevation.Snapshot{}
	if v, ok := sess.Values[gateStateKey].(int); ok {
		snap.State = v
	}
	if v, ok := sess.Values[gateIdentityKey].(string); ok {
		snap.Identity = v
	}
	if v, ok := sess.Values[gateFailuresKey].(int); ok {
		snap.Failures = v
	}
	if v, ok := sess.Values[gateLockedKey].(int64); ok {
		snap.LockedUntil = v
	}

	return elevation.Restore(h.Cfg, snap), sess
}

// saveGate writes the gate snapshot back into its cookie session.
func (h *Handler) saveGate(w http.ResponseWriter, r *http.Request, sess *sessions.Session, g *elevation.Gate) error {
	snap := g.Snapshot()
	sess.Values[gateStateKey] = snap.State
	sess.Values[gateIdentityKey] = snap.Identity
	sess.Values[gateFailuresKey] = snap.Failures
	sess.Values[gateLockedKey] = snap.LockedUntil
	return sess.Save(r, w)
}

func errorMessage(code string) string {
	switch code {
	case "identity":
		return "That address is not authorized for admin access."
	case "code":
		return "Wrong access code. Try again."
	case "locked":
		return "Too many failed attempts. Try again later."
	default:
		return ""
	}
}
