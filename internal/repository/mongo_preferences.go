package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/ticket-notification-service/internal/model"
)

type MongoPreferenceStore struct {
	col *mongo.Collection
}

func NewMongoPreferenceStore(db *mongo.Database) *MongoPreferenceStore {
	return &MongoPreferenceStore{col: db.Collection(collPreferences)}
}

func (r *MongoPreferenceStore) GetOrCreate(ctx context.Context, userID string) (*model.Preferences, error) {
	return r.Update(ctx, userID, model.PreferencesPatch{})
}

// Update applies patch in one upsert. Fields absent from the patch keep their
// stored value, or the default when the row is being created.
func (r *MongoPreferenceStore) Update(ctx context.Context, userID string, patch model.PreferencesPatch) (*model.Preferences, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC()
	set := bson.M{}
	onInsert := bson.M{"created_at": now}
	fields := []struct {
		key string
		val *bool
	}{
		{"enabled", patch.Enabled},
		{"on_ticket_created", patch.OnTicketCreated},
		{"on_ticket_assigned", patch.OnTicketAssigned},
		{"on_status_update", patch.OnStatusUpdate},
		{"on_internal_note", patch.OnInternalNote},
	}
	for _, f := range fields {
		if f.val != nil {
			set[f.key] = *f.val
		} else {
			onInsert[f.key] = true
		}
	}
	update := bson.M{"$setOnInsert": onInsert}
	if len(set) > 0 {
		set["updated_at"] = now
		update["$set"] = set
	} else {
		onInsert["updated_at"] = now
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var p model.Preferences
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}
