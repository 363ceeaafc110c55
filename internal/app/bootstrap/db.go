// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/ecellvishnu/espace/internal/app/store/activity"
	filestore "github.com/ecellvishnu/espace/internal/app/store/files"
	messagestore "github.com/ecellvishnu/espace/internal/app/store/messages"
	milestonestore "github.com/ecellvishnu/espace/internal/app/store/milestones"
	oauthstatestore "github.com/ecellvishnu/espace/internal/app/store/oauthstate"
	profilestore "github.com/ecellvishnu/espace/internal/app/store/profiles"
	projectstore "github.com/ecellvishnu/espace/internal/app/store/projects"
	roomstore "github.com/ecellvishnu/espace/internal/app/store/rooms"
	teammemberstore "github.com/ecellvishnu/espace/internal/app/store/teammembers"
	teamstore "github.com/ecellvishnu/espace/internal/app/store/teams"
	"github.com/ecellvishnu/espace/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB establishes the MongoDB connection and builds the audit
// logger on top of it.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(appCfg.MongoURI))
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(appCfg.MongoDatabase)

	logger.Info("MongoDB connected", zap.String("database", appCfg.MongoDatabase))

	audit := auditlog.New(activity.New(db), logger, auditlog.Config{
		Auth:      appCfg.AuditLogAuth,
		Admin:     appCfg.AuditLogAdmin,
		QueueSize: appCfg.AuditQueueSize,
	})

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Audit:         audit,
	}, nil
}

// EnsureSchema creates every collection's indexes. Index creation is
// idempotent; running it on each startup keeps schema drift out.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	ensurers := []interface {
		EnsureIndexes(context.Context) error
	}{
		profilestore.New(db),
		teamstore.New(db),
		teammemberstore.New(db),
		projectstore.New(db),
		milestonestore.New(db),
		filestore.New(db),
		messagestore.New(db),
		roomstore.New(db),
		oauthstatestore.New(db),
		activity.New(db),
	}
	for _, s := range ensurers {
		if err := s.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
	}

	logger.Info("MongoDB indexes ensured")
	return nil
}
