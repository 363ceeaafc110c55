// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for e-Space.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// framework-level settings (ports, TLS, logging); AppConfig is
// everything specific to this application.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI      string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase string // Database name within MongoDB

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: espace-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionTTL    time.Duration // Primary session lifetime

	// Domain policy
	OrgDomain       string // Institutional email domain (e.g., vishnu.edu.in)
	SuperAdminEmail string // The one address allowed through the manual admin gate

	// Manual admin access gate
	AdminAccessCode      string        // Plain access code (dev); the hash wins when both are set
	AdminAccessCodeHash  string        // bcrypt hash of the access code
	AdminGateMaxFailures int           // Consecutive code failures before lockout; 0 disables
	AdminGateLockout     time.Duration // Lockout window after too many failures

	// Audit logging
	AuditLogAuth   string // Auth event logging: "all", "db", "log", or "off"
	AuditLogAdmin  string // Admin event logging: same values
	AuditQueueSize int    // Async audit write queue capacity

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Base URL for OAuth callbacks (e.g., "https://espace.vishnu.edu.in")
	BaseURL string

	// File storage configuration
	StorageLocalPath string // Local storage path for workspace uploads
	StorageLocalURL  string // URL prefix for serving stored files

	// External conferencing service join links are built from this base.
	MeetBaseURL string
}
