package repository

import (
	"context"
	"time"

	"trackmate/internal/core/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CooldownRepository interface {
	// LastSentAt returns the zero time when the category has never fired.
	LastSentAt(category model.NotificationCategory) (time.Time, error)
	MarkSent(category model.NotificationCategory, at time.Time) error
}

type MongoCooldownRepository struct {
	collection *mongo.Collection
}

func NewMongoCooldownRepository(db *mongo.Database) *MongoCooldownRepository {
	return &MongoCooldownRepository{
		collection: db.Collection("notification_cooldowns"),
	}
}

func (r *MongoCooldownRepository) LastSentAt(category model.NotificationCategory) (time.Time, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var cooldown model.NotificationCooldown
	err := r.collection.FindOne(ctx, bson.M{"category": category}).Decode(&cooldown)
	if err == mongo.ErrNoDocuments {
		return time.Time{}, nil
	}
	return cooldown.LastSentAt, err
}

func (r *MongoCooldownRepository) MarkSent(category model.NotificationCategory, at time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cooldown := model.NotificationCooldown{Category: category, LastSentAt: at}
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"category": category}, cooldown, opts)
	return err
}
