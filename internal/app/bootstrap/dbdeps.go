// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/ecellvishnu/espace/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Audit lives here so Shutdown can drain its queue before the
	// Mongo client disconnects.
	Audit *auditlog.Logger
}
