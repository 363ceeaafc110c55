// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for e-Space. They are
// loaded via WAFFLE's config system with support for config files,
// ESPACE_* environment variables, and command-line flags.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "espace", Desc: "MongoDB database name"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "espace-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_ttl", Default: "12h", Desc: "Primary session lifetime (e.g., 12h, 30m)"},

	// Domain policy
	{Name: "org_domain", Default: "", Desc: "Institutional email domain accepted at sign-in (e.g., vishnu.edu.in)"},
	{Name: "super_admin_email", Default: "", Desc: "The one address allowed through the manual admin gate"},

	// Manual admin access gate
	{Name: "admin_access_code", Default: "", Desc: "Plain gate access code (dev only; prefer the hash)"},
	{Name: "admin_access_code_hash", Default: "", Desc: "bcrypt hash of the gate access code"},
	{Name: "admin_gate_max_failures", Default: 0, Desc: "Consecutive code failures before lockout (0 disables)"},
	{Name: "admin_gate_lockout", Default: "5m", Desc: "Lockout window after too many failures"},

	// Audit logging
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_queue_size", Default: 256, Desc: "Async audit write queue capacity"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	// Base URL for OAuth callbacks
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for OAuth callbacks"},

	// File storage configuration
	{Name: "storage_local_path", Default: "./uploads/workspace", Desc: "Local storage path for workspace uploads"},
	{Name: "storage_local_url", Default: "/files", Desc: "URL prefix for serving stored files"},

	// Conferencing
	{Name: "meet_base_url", Default: "https://meet.jit.si", Desc: "Base URL join links are built from"},
}

// LoadConfig loads WAFFLE core config and app-specific config. It is
// called early in startup so that both WAFFLE and the app have access
// to configuration before any backends or handlers are built.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "ESPACE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionTTL:    appValues.Duration("session_ttl", 12*time.Hour),

		OrgDomain:       appValues.String("org_domain"),
		SuperAdminEmail: appValues.String("super_admin_email"),

		AdminAccessCode:      appValues.String("admin_access_code"),
		AdminAccessCodeHash:  appValues.String("admin_access_code_hash"),
		AdminGateMaxFailures: appValues.Int("admin_gate_max_failures"),
		AdminGateLockout:     appValues.Duration("admin_gate_lockout", 5*time.Minute),

		AuditLogAuth:   appValues.String("audit_log_auth"),
		AuditLogAdmin:  appValues.String("audit_log_admin"),
		AuditQueueSize: appValues.Int("audit_queue_size"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		BaseURL: appValues.String("base_url"),

		StorageLocalPath: appValues.String("storage_local_path"),
		StorageLocalURL:  appValues.String("storage_local_url"),

		MeetBaseURL: appValues.String("meet_base_url"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation. The domain
// policy fields are hard requirements: without them the authorization
// gate cannot make a decision, and a misconfigured gate must fail
// startup rather than fail open.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.OrgDomain == "" {
		return fmt.Errorf("org_domain is required (e.g., vishnu.edu.in)")
	}
	if appCfg.SuperAdminEmail == "" {
		return fmt.Errorf("super_admin_email is required")
	}

	if appCfg.AdminAccessCode == "" && appCfg.AdminAccessCodeHash == "" {
		logger.Warn("no admin access code configured; the manual admin gate will deny every code")
	}
	if appCfg.GoogleClientID == "" || appCfg.GoogleClientSecret == "" {
		logger.Warn("Google OAuth is not configured; sign-in is unavailable")
	}

	return nil
}
