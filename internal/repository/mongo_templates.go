package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/ticket-notification-service/internal/model"
)

type MongoTemplateStore struct {
	col *mongo.Collection
}

func NewMongoTemplateStore(db *mongo.Database) *MongoTemplateStore {
	col := db.Collection(collTemplates)
	ensureIndexes(col, mongo.IndexModel{
		Keys:    bson.D{{Key: "type", Value: 1}, {Key: "variant", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("type_variant_uniq"),
	})
	return &MongoTemplateStore{col: col}
}

func keyFilter(k model.TemplateKey) bson.M {
	return bson.M{"type": k.Type, "variant": k.Variant}
}

func (r *MongoTemplateStore) ExistingKeys(ctx context.Context, keys []model.TemplateKey) (map[model.TemplateKey]bool, error) {
	out := make(map[model.TemplateKey]bool, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	or := make(bson.A, 0, len(keys))
	for _, k := range keys {
		or = append(or, keyFilter(k))
	}
	opts := options.Find().SetProjection(bson.M{"type": 1, "variant": 1})
	cur, err := r.col.Find(ctx, bson.M{"$or": or}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var t model.NotificationTemplate
		if err := cur.Decode(&t); err != nil {
			return nil, err
		}
		out[t.Key()] = true
	}
	return out, cur.Err()
}

func (r *MongoTemplateStore) InsertMany(ctx context.Context, tpls []*model.NotificationTemplate) error {
	if len(tpls) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	docs := make([]interface{}, 0, len(tpls))
	for _, t := range tpls {
		docs = append(docs, t)
	}
	_, err := r.col.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return err
	}
	return nil
}

func (r *MongoTemplateStore) FindEnabled(ctx context.Context, key model.TemplateKey) (*model.NotificationTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := keyFilter(key)
	filter["enabled"] = true
	var t model.NotificationTemplate
	if err := r.col.FindOne(ctx, filter).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// Upsert writes the content fields of t for its (type, variant) and returns
// the stored row.
func (r *MongoTemplateStore) Upsert(ctx context.Context, t *model.NotificationTemplate) (*model.NotificationTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"title_template": t.TitleTemplate,
			"body_template":  t.BodyTemplate,
			"enabled":        t.Enabled,
			"updated_at":     now,
		},
		"$setOnInsert": bson.M{
			"_id":        uuid.NewString(),
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var out model.NotificationTemplate
	if err := r.col.FindOneAndUpdate(ctx, keyFilter(t.Key()), update, opts).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *MongoTemplateStore) List(ctx context.Context) ([]*model.NotificationTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "type", Value: 1}, {Key: "variant", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.NotificationTemplate
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
