// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"

	profilestore "github.com/ecellvishnu/espace/internal/app/store/profiles"
	"github.com/ecellvishnu/espace/internal/app/resources"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connection
// and schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	return promoteSuperAdmin(ctx, appCfg, deps, logger)
}

// promoteSuperAdmin makes sure the configured super-admin address holds
// the admin role whenever it has a provisioned profile. The manual
// access gate works without a profile; this just keeps the regular
// admin path open for the same person.
func promoteSuperAdmin(ctx context.Context, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	profiles := profilestore.New(deps.MongoDatabase)

	p, err := profiles.GetByEmail(ctx, appCfg.SuperAdminEmail)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			logger.Info("super admin has no profile yet; skipping promotion",
				zap.String("email", appCfg.SuperAdminEmail))
			return nil
		}
		return err
	}
	if p.Role == "admin" {
		return nil
	}

	if err := profiles.UpdateRole(ctx, p.ID, "admin"); err != nil {
		return err
	}
	logger.Info("promoted super admin profile",
		zap.String("email", appCfg.SuperAdminEmail),
		zap.String("previous_role", p.Role))
	return nil
}
