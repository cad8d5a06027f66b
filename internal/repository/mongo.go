package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	collNotifications = "notifications"
	collTemplates     = "notification_templates"
	collPreferences   = "notification_preferences"
	collSessions      = "sessions"
	collTickets       = "tickets"
	collUsers         = "users"

	opTimeout = 5 * time.Second
)

func ConnectMongo(uri, dbName string, logger *zap.SugaredLogger) (*mongo.Database, *mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		logger.Errorw("mongo connect failed", "error", err)
		return nil, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		logger.Errorw("mongo ping failed", "error", err)
		return nil, nil, err
	}

	logger.Infow("mongo connected", "database", dbName)
	return client.Database(dbName), client, nil
}

// ProbePreferences checks whether the preferences collection exists or can
// be created. It returns nil when it cannot, and callers fall back to
// default preferences.
func ProbePreferences(ctx context.Context, db *mongo.Database, logger *zap.SugaredLogger) PreferenceStore {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	names, err := db.ListCollectionNames(ctx, bson.M{"name": collPreferences})
	if err != nil {
		logger.Warnw("preferences probe failed, using defaults", "error", err)
		return nil
	}
	if len(names) == 0 {
		if err := db.CreateCollection(ctx, collPreferences); err != nil {
			logger.Warnw("preferences collection unavailable, using defaults", "error", err)
			return nil
		}
		logger.Infow("created preferences collection")
	}
	return NewMongoPreferenceStore(db)
}

func ensureIndexes(coll *mongo.Collection, models ...mongo.IndexModel) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	_, _ = coll.Indexes().CreateMany(ctx, models)
}
