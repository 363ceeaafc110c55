// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ecellvishnu/espace/internal/app/store/oauthstate"
	profilestore "github.com/ecellvishnu/espace/internal/app/store/profiles"
	"github.com/ecellvishnu/espace/internal/app/system/auditlog"
	"github.com/ecellvishnu/espace/internal/app/system/auth"
	"github.com/ecellvishnu/espace/internal/app/system/timeouts"
	"github.com/ecellvishnu/espace/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Handler handles Google OAuth authentication. This is the only way
// into a primary session: there is no password flow.
type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	StateStore *oauthstate.Store
	Profiles   *profilestore.Store

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://espace.vishnu.edu.in/auth/google/callback"

	// OrgDomain is passed to Google as the "hd" hint so the account
	// chooser pre-filters to institutional accounts. The hint is
	// cosmetic; the domain policy filter on the callback is the actual
	// enforcement.
	OrgDomain string
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	sessionMgr *auth.SessionManager,
	audit *auditlog.Logger,
	stateStore *oauthstate.Store,
	profiles *profilestore.Store,
	clientID, clientSecret, baseURL, orgDomain string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Log:          logger,
		SessionMgr:   sessionMgr,
		AuditLog:     audit,
		StateStore:   stateStore,
		Profiles:     profiles,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
		OrgDomain:    orgDomain,
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
| Initiates the Google OAuth flow by redirecting to Google's consent screen.   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		http.Redirect(w, r, "/login?error=google_not_configured", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	returnURL := query.Get(r, "return")

	// Store state with 10-minute expiry
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	expiresAt := time.Now().UTC().Add(10 * time.Minute)
	if err := h.StateStore.Save(ctx, state, returnURL, expiresAt); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	opts := []oauth2.AuthCodeOption{oauth2.AccessTypeOnline}
	if h.OrgDomain != "" {
		opts = append(opts, oauth2.SetAuthURLParam("hd", h.OrgDomain))
	}
	url := h.oauth2Config().AuthCodeURL(state, opts...)

	h.Log.Debug("initiating Google OAuth flow",
		zap.String("redirect_url", url),
		zap.String("return_url", returnURL))

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Handles the OAuth callback from Google, exchanges code for tokens,           |
| fetches user info, applies the domain policy, and creates the session.       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Check for errors from Google
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		errDesc := r.URL.Query().Get("error_description")
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", errDesc))
		http.Redirect(w, r, "/login?error=google_denied", http.StatusSeeOther)
		return
	}

	// Validate state parameter
	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	returnURL, valid, err := h.StateStore.Validate(ctxTimeout, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	// Exchange code for token
	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		http.Redirect(w, r, "/login?error=invalid_code", http.StatusSeeOther)
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		http.Redirect(w, r, "/login?error=token_exchange", http.StatusSeeOther)
		return
	}

	googleUser, err := fetchGoogleUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		http.Redirect(w, r, "/login?error=user_info", http.StatusSeeOther)
		return
	}

	h.Log.Debug("Google user info fetched",
		zap.String("google_id", googleUser.ID),
		zap.String("email", googleUser.Email))

	// Domain policy: the "hd" hint upstream is advisory, this is the
	// enforcement point. A rejected principal gets the terminal error
	// on the login page, never a session.
	if !h.SessionMgr.Policy().Allows(googleUser.Email) {
		h.Log.Info("sign-in rejected by domain policy",
			zap.String("email", googleUser.Email))
		h.AuditLog.LoginDeniedDomain(r, googleUser.Email)
		http.Redirect(w, r, "/login?error=domain", http.StatusSeeOther)
		return
	}

	profile, err := h.resolveProfile(ctxTimeout, googleUser)
	if err != nil {
		h.Log.Error("failed to resolve profile", zap.Error(err),
			zap.String("email", googleUser.Email))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	h.createSessionAndRedirect(w, r, googleUser, profile, returnURL)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Profile resolution                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo endpoint.
func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	return &info, nil
}

// resolveProfile finds or creates the application profile for a
// domain-approved principal.
//
// Lookup order:
//  1. principal_id (returning user)
//  2. email (admin pre-provisioned the account; link the subject now)
//  3. neither: first sign-in, auto-provision a member profile
func (h *Handler) resolveProfile(ctx context.Context, googleUser *googleUserInfo) (*models.Profile, error) {
	p, err := h.Profiles.GetByPrincipalID(ctx, googleUser.ID)
	if err == nil {
		return p, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	p, err = h.Profiles.GetByEmail(ctx, googleUser.Email)
	if err == nil {
		if linkErr := h.Profiles.LinkPrincipal(ctx, p.ID, googleUser.ID, googleUser.Name, googleUser.Picture); linkErr != nil {
			h.Log.Warn("failed to link principal to provisioned profile",
				zap.Error(linkErr),
				zap.String("profile_id", p.ID.Hex()))
		}
		return p, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	created, err := h.Profiles.Create(ctx, models.Profile{
		PrincipalID: googleUser.ID,
		FullName:    googleUser.Name,
		Email:       googleUser.Email,
		AvatarURL:   googleUser.Picture,
	})
	if err != nil {
		return nil, err
	}
	h.Log.Info("auto-provisioned profile on first sign-in",
		zap.String("profile_id", created.ID.Hex()),
		zap.String("email", created.Email))
	return &created, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session creation                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) createSessionAndRedirect(w http.ResponseWriter, r *http.Request, googleUser *googleUserInfo, profile *models.Profile, returnURL string) {
	principal := auth.Principal{
		ID:    googleUser.ID,
		Email: googleUser.Email,
		Name:  googleUser.Name,
	}
	if err := h.SessionMgr.SignIn(w, r, principal); err != nil {
		h.Log.Error("save session failed", zap.Error(err),
			zap.String("email", googleUser.Email))
		http.Redirect(w, r, "/login?error=session", http.StatusSeeOther)
		return
	}

	h.AuditLog.LoginSuccess(r, profile.ID, googleUser.Email)

	h.Log.Info("user signed in via Google OAuth",
		zap.String("profile_id", profile.ID.Hex()),
		zap.String("email", googleUser.Email))

	dest := urlutil.SafeReturn(returnURL, "", "/")
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
