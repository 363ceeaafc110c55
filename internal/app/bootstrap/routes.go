// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	adminfeature "github.com/ecellvishnu/espace/internal/app/features/admin"
	admingatefeature "github.com/ecellvishnu/espace/internal/app/features/admingate"
	authgooglefeature "github.com/ecellvishnu/espace/internal/app/features/authgoogle"
	chatfeature "github.com/ecellvishnu/espace/internal/app/features/chat"
	dashboardfeature "github.com/ecellvishnu/espace/internal/app/features/dashboard"
	errorsfeature "github.com/ecellvishnu/espace/internal/app/features/errors"
	healthfeature "github.com/ecellvishnu/espace/internal/app/features/health"
	loginfeature "github.com/ecellvishnu/espace/internal/app/features/login"
	logoutfeature "github.com/ecellvishnu/espace/internal/app/features/logout"
	meetfeature "github.com/ecellvishnu/espace/internal/app/features/meet"
	milestonesfeature "github.com/ecellvishnu/espace/internal/app/features/milestones"
	workspacefeature "github.com/ecellvishnu/espace/internal/app/features/workspace"
	oauthstatestore "github.com/ecellvishnu/espace/internal/app/store/oauthstate"
	profilestore "github.com/ecellvishnu/espace/internal/app/store/profiles"
	"github.com/ecellvishnu/espace/internal/app/system/auth"
	"github.com/ecellvishnu/espace/internal/app/system/domainpolicy"
	"github.com/ecellvishnu/espace/internal/app/system/elevation"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"

	// View packages register their template sets in init.
	_ "github.com/ecellvishnu/espace/internal/app/features/admin/views"
	_ "github.com/ecellvishnu/espace/internal/app/features/admingate/views"
	_ "github.com/ecellvishnu/espace/internal/app/features/chat/views"
	_ "github.com/ecellvishnu/espace/internal/app/features/dashboard/views"
	_ "github.com/ecellvishnu/espace/internal/app/features/login/views"
	_ "github.com/ecellvishnu/espace/internal/app/features/meet/views"
	_ "github.com/ecellvishnu/espace/internal/app/features/workspace/views"
)

// BuildHandler constructs the root HTTP handler for the app. WAFFLE
// calls this after configuration, DB connection, schema setup, and
// Startup have completed.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"

	policy := domainpolicy.Policy{
		OrgDomain:       appCfg.OrgDomain,
		SuperAdminEmail: appCfg.SuperAdminEmail,
	}

	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName,
		appCfg.SessionDomain, appCfg.SessionTTL, secure, policy, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fresh profile data on every request: role changes and team moves
	// take effect immediately.
	sessionMgr.SetProfileFetcher(profilestore.NewFetcher(deps.MongoDatabase))

	errorsHandler := errorsfeature.NewHandler(appCfg.OrgDomain)
	sessionMgr.SetDomainDenyHandler(http.HandlerFunc(errorsHandler.DomainDenied))

	// Initialize and boot the template engine once at startup. Dev mode
	// enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	r := chi.NewRouter()

	// Global middleware: resolve the authorization context, then CSRF
	// protection for every state-changing form post.
	r.Use(sessionMgr.LoadSession)
	r.Use(csrf.Protect([]byte(appCfg.SessionKey),
		csrf.Secure(secure),
		csrf.Path("/")))

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/healthz", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Authentication
	loginHandler := loginfeature.NewHandler(appCfg.OrgDomain,
		appCfg.GoogleClientID != "" && appCfg.GoogleClientSecret != "", logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	googleHandler := authgooglefeature.NewHandler(sessionMgr, deps.Audit,
		oauthstatestore.New(deps.MongoDatabase), profilestore.New(deps.MongoDatabase),
		appCfg.GoogleClientID, appCfg.GoogleClientSecret,
		appCfg.BaseURL, appCfg.OrgDomain, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, deps.Audit, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Error pages
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Team workspace
	dashboardHandler := dashboardfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	milestonesHandler := milestonesfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/milestones", milestonesfeature.Routes(milestonesHandler, sessionMgr))

	blobStore, err := storage.NewLocal(storage.LocalConfig{
		BasePath: appCfg.StorageLocalPath,
		BaseURL:  appCfg.StorageLocalURL,
	})
	if err != nil {
		logger.Error("blob store init failed", zap.Error(err),
			zap.String("path", appCfg.StorageLocalPath))
		return nil, err
	}

	workspaceHandler := workspacefeature.NewHandler(deps.MongoDatabase, blobStore, logger)
	r.Mount("/workspace", workspacefeature.Routes(workspaceHandler, sessionMgr))
	r.Mount(appCfg.StorageLocalURL, workspacefeature.FileRoutes(workspaceHandler, sessionMgr))

	chatHandler := chatfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/chat", chatfeature.Routes(chatHandler, sessionMgr))

	meetHandler := meetfeature.NewHandler(deps.MongoDatabase, appCfg.MeetBaseURL, logger)
	r.Mount("/meet", meetfeature.Routes(meetHandler, sessionMgr))

	// Admin surface behind the access gate
	gateHandler := admingatefeature.NewHandler(sessionMgr, deps.Audit, elevation.Config{
		SuperAdminEmail: appCfg.SuperAdminEmail,
		AccessCode:      appCfg.AdminAccessCode,
		AccessCodeHash:  appCfg.AdminAccessCodeHash,
		Policy: elevation.AttemptPolicy{
			MaxFailures: appCfg.AdminGateMaxFailures,
			Lockout:     appCfg.AdminGateLockout,
		},
	}, logger)
	r.Mount("/admin/gate", admingatefeature.Routes(gateHandler, sessionMgr))

	adminHandler := adminfeature.NewHandler(deps.MongoDatabase, deps.Audit,
		blobStore, logger)
	r.Mount("/admin", adminfeature.Routes(adminHandler, sessionMgr))

	return r, nil
}
