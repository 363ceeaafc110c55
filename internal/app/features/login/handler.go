// internal/app/features/login/handler.go
package login

import (
	"net/http"

	"github.com/ecellvishnu/espace/internal/app/system/authz"
	"github.com/ecellvishnu/espace/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Handler serves the login entry page. Actual sign-in happens through
// the Google OAuth round trip; this page just hosts the button and
// surfaces errors from a failed round trip.
type Handler struct {
	Log           *zap.Logger
	OrgDomain     string
	GoogleEnabled bool
}

func NewHandler(orgDomain string, googleEnabled bool, logger *zap.Logger) *Handler {
	return &Handler{
		Log:           logger,
		OrgDomain:     orgDomain,
		GoogleEnabled: googleEnabled,
	}
}

type loginPageData struct {
	viewdata.BaseVM
	Error         string
	ReturnURL     string
	OrgDomain     string
	GoogleEnabled bool
}

// errorMessage maps ?error= codes set by the OAuth flow to the text
// shown above the sign-in button.
func errorMessage(code, orgDomain string) string {
	switch code {
	case "":
		return ""
	case "domain":
		return "Only @" + orgDomain + " accounts can access e-Space. Please sign in with your institutional account."
	case "google_denied":
		return "Google sign-in was cancelled or denied."
	case "google_not_configured":
		return "Google sign-in is not configured. Please contact an administrator."
	case "invalid_state", "invalid_code":
		return "The sign-in attempt expired or was invalid. Please try again."
	case "token_exchange", "user_info":
		return "Google sign-in failed. Please try again."
	default:
		return "Sign-in failed. Please try again."
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	// Already signed in: the login page is pointless, go to the dashboard.
	if _, _, _, ok := authz.UserCtx(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	code := query.Get(r, "error")
	if code != "" {
		h.Log.Debug("login page shown with error", zap.String("code", code))
	}

	templates.Render(w, r, "login", loginPageData{
		BaseVM:        viewdata.NewBaseVM(r, "Sign in", "/"),
		Error:         errorMessage(code, h.OrgDomain),
		ReturnURL:     query.Get(r, "return"),
		OrgDomain:     h.OrgDomain,
		GoogleEnabled: h.GoogleEnabled,
	})
}
