package repository

import (
	"context"
	"time"

	"trackmate/internal/core/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FixRepository interface {
	Create(fix *model.Fix) error
	FindByUserID(userID string, limit int) ([]*model.Fix, error)
	FindLatestByUserID(userID string) (*model.Fix, error)
	DeleteByUserID(userID string) error
}

type MongoFixRepository struct {
	collection *mongo.Collection
}

func NewMongoFixRepository(db *mongo.Database) *MongoFixRepository {
	return &MongoFixRepository{
		collection: db.Collection("fixes"),
	}
}

func (r *MongoFixRepository) Create(fix *model.Fix) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, fix)
	return err
}

func (r *MongoFixRepository) FindByUserID(userID string, limit int) ([]*model.Fix, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"timestamp": -1})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{"userid": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var fixes []*model.Fix
	if err = cursor.All(ctx, &fixes); err != nil {
		return nil, err
	}
	return fixes, nil
}

func (r *MongoFixRepository) FindLatestByUserID(userID string) (*model.Fix, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.FindOne().SetSort(bson.M{"timestamp": -1})
	var fix model.Fix
	err := r.collection.FindOne(ctx, bson.M{"userid": userID}, opts).Decode(&fix)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &fix, err
}

func (r *MongoFixRepository) DeleteByUserID(userID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.DeleteMany(ctx, bson.M{"userid": userID})
	return err
}
