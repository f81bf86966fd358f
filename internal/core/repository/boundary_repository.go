package repository

import (
	"context"
	"time"

	"trackmate/internal/core/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type BoundaryRepository interface {
	Create(boundary *model.Boundary) error
	FindByUserID(userID string) ([]*model.Boundary, error)
	Delete(id string) error
	DeleteByUserID(userID string) error
}

type MongoBoundaryRepository struct {
	collection *mongo.Collection
}

func NewMongoBoundaryRepository(db *mongo.Database) *MongoBoundaryRepository {
	return &MongoBoundaryRepository{
		collection: db.Collection("boundaries"),
	}
}

func (r *MongoBoundaryRepository) Create(boundary *model.Boundary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, boundary)
	return err
}

func (r *MongoBoundaryRepository) FindByUserID(userID string) ([]*model.Boundary, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"userid": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var boundaries []*model.Boundary
	if err = cursor.All(ctx, &boundaries); err != nil {
		return nil, err
	}
	return boundaries, nil
}

func (r *MongoBoundaryRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"id": id})
	return err
}

func (r *MongoBoundaryRepository) DeleteByUserID(userID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.DeleteMany(ctx, bson.M{"userid": userID})
	return err
}
