// internal/app/system/auth/session.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ecellvishnu/espace/internal/app/system/domainpolicy"
	"github.com/ecellvishnu/espace/internal/app/system/timeouts"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// Primary-session cookie keys.
const (
	isAuthKey      = "is_authenticated"
	principalIDKey = "principal_id"
	principalEmail = "principal_email"
	principalName  = "principal_name"
)

// Manual-admin cookie keys.
const (
	adminAuthKey  = "admin_authenticated"
	adminEmailKey = "admin_email"
)

// ProfileFetcher loads the application profile for a provider subject.
// Implementations return nil when the profile is missing or the lookup
// fails; resolution still succeeds with a nil profile.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, principalID string) *SessionProfile
}

// SessionManager owns both session cookies (primary and manual-admin)
// and resolves the per-request authorization Context.
type SessionManager struct {
	store     *sessions.CookieStore
	name      string // primary session cookie name
	adminName string // manual-admin cookie name
	ttl       time.Duration
	policy    domainpolicy.Policy
	fetcher   ProfileFetcher
	denyPage  http.Handler
	log       *zap.Logger
}

// NewSessionManager initializes the cookie store. The session key must
// be at least 32 random characters in production; shorter keys are
// accepted with a warning so local development stays friction-free.
//
// In production (secure=true) cookies are Secure with SameSite=Lax.
func NewSessionManager(sessionKey, sessionName, domain string, ttl time.Duration, secure bool, policy domainpolicy.Policy, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if sessionName == "" {
		sessionName = "espace-session"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Duration("ttl", ttl))

	return &SessionManager{
		store:     store,
		name:      sessionName,
		adminName: sessionName + "-admin",
		ttl:       ttl,
		policy:    policy,
		log:       logger,
	}, nil
}

// SetProfileFetcher wires the per-request profile lookup. Without a
// fetcher every primary session resolves with a nil profile.
func (sm *SessionManager) SetProfileFetcher(f ProfileFetcher) { sm.fetcher = f }

// SetDomainDenyHandler overrides the terminal "access denied" page
// rendered when the domain filter rejects a principal.
func (sm *SessionManager) SetDomainDenyHandler(h http.Handler) { sm.denyPage = h }

// Policy returns the domain policy the manager enforces.
func (sm *SessionManager) Policy() domainpolicy.Policy { return sm.policy }

// SignIn establishes the primary session for the principal. It is the
// only writer of the primary cookie.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, p Principal) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[isAuthKey] = true
	sess.Values[principalIDKey] = p.ID
	sess.Values[principalEmail] = p.Email
	sess.Values[principalName] = p.Name
	return sess.Save(r, w)
}

// SignOut destroys the primary session AND the manual admin session.
// Sign-out is the one action that clears both authorization sources.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Options.MaxAge = -1
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	if err := sess.Save(r, w); err != nil {
		return err
	}
	return sm.ClearManualAdmin(w, r)
}

// GrantManualAdmin persists the manual admin session. The cookie is
// browser-session scoped (MaxAge 0): it outlives page loads but not
// the browsing session, independent of the provider token lifetime.
func (sm *SessionManager) GrantManualAdmin(w http.ResponseWriter, r *http.Request, email string) error {
	sess, _ := sm.store.Get(r, sm.adminName)
	sess.Options.MaxAge = 0
	sess.Values[adminAuthKey] = "true"
	sess.Values[adminEmailKey] = email
	return sess.Save(r, w)
}

// ClearManualAdmin destroys the manual admin session.
func (sm *SessionManager) ClearManualAdmin(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.adminName)
	sess.Options.MaxAge = -1
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	return sess.Save(r, w)
}

// NamedSession returns an auxiliary browser-session cookie scoped under
// the manager's cookie namespace. The elevation gate keeps its form
// state in one of these.
func (sm *SessionManager) NamedSession(r *http.Request, suffix string) (*sessions.Session, error) {
	sess, err := sm.store.Get(r, sm.name+"-"+suffix)
	if sess != nil {
		sess.Options.MaxAge = 0
	}
	return sess, err
}

// LoadSession resolves the authorization Context for every request and
// injects it. Resolution order: primary cookie, then profile fetch
// (best-effort, short timeout), then the manual-admin cookie. Profile
// fetch failure is logged and degrades to a nil profile; it never
// fails the resolution.
func (sm *SessionManager) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := &Context{Kind: Unauthenticated, policy: sm.policy}

		sess, err := sm.store.Get(r, sm.name)
		if err != nil {
			// A cookie that fails MAC or decoding (tampering, key
			// rotation) resolves as unauthenticated, not as an error.
			var scErr securecookie.Error
			if errors.As(err, &scErr) && scErr.IsDecode() {
				sm.log.Debug("discarding undecodable session cookie", zap.Error(err))
			}
		}
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			c.Kind = PrimarySession
			c.Principal = &Principal{
				ID:    getString(sess, principalIDKey),
				Email: getString(sess, principalEmail),
				Name:  getString(sess, principalName),
			}
			if sm.fetcher != nil && c.Principal.ID != "" {
				ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
				c.Profile = sm.fetcher.FetchProfile(ctx, c.Principal.ID)
				cancel()
				if c.Profile == nil {
					sm.log.Debug("no profile for principal; continuing unprivileged",
						zap.String("principal_id", c.Principal.ID))
				}
			}
		}

		adminSess, _ := sm.store.Get(r, sm.adminName)
		if getString(adminSess, adminAuthKey) == "true" {
			c.Manual = ManualAdmin{
				Authenticated: true,
				Email:         getString(adminSess, adminEmailKey),
			}
			if c.Kind == Unauthenticated {
				c.Kind = ManualElevation
			}
		}

		next.ServeHTTP(w, withContext(r, c))
	})
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
