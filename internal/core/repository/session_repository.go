package repository

import (
	"context"
	"time"

	"trackmate/internal/core/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SessionRepository persists polling sessions as whole records. Save always
// replaces the entire document so a session's fields can never be observed
// half-updated across restarts or concurrent triggers.
type SessionRepository interface {
	Save(session *model.PollingSession) error
	Find(locatorNumber string) (*model.PollingSession, error)
	FindAwaiting() ([]*model.PollingSession, error)
}

type MongoSessionRepository struct {
	collection *mongo.Collection
}

func NewMongoSessionRepository(db *mongo.Database) *MongoSessionRepository {
	return &MongoSessionRepository{
		collection: db.Collection("polling_sessions"),
	}
}

func (r *MongoSessionRepository) Save(session *model.PollingSession) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session.UpdatedAt = time.Now().UTC()
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"locatornumber": session.LocatorNumber}, session, opts)
	return err
}

func (r *MongoSessionRepository) Find(locatorNumber string) (*model.PollingSession, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var session model.PollingSession
	err := r.collection.FindOne(ctx, bson.M{"locatornumber": locatorNumber}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &session, err
}

func (r *MongoSessionRepository) FindAwaiting() ([]*model.PollingSession, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"state": model.SessionAwaitingResponse})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.PollingSession
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}
