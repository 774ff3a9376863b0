// Package database mirrors post records into MongoDB.
package database

import (
	"context"
	"fmt"
	"time"

	"scripters-bot/internal/posts"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const postsCollectionName = "posts"

const writeTimeout = 5 * time.Second

// Collection is the subset of *mongo.Collection used by PostRepository.
type Collection interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// PostRepository upserts post records into a MongoDB collection, keyed by post id.
type PostRepository struct {
	collection Collection
	now        func() time.Time
}

// NewPostRepository creates a repository over the "posts" collection of db.
func NewPostRepository(db *mongo.Database) *PostRepository {
	return newPostRepository(db.Collection(postsCollectionName))
}

func newPostRepository(c Collection) *PostRepository {
	return &PostRepository{collection: c, now: time.Now}
}

// Save inserts rec or replaces the stored fields of an existing post.
// first_seen is only set on insert, so re-delivered posts keep their original timestamp.
func (r *PostRepository) Save(ctx context.Context, rec posts.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	now := r.now()
	update := bson.M{
		"$set": bson.M{
			"chat_id":         rec.ChatID,
			"date":            rec.Date,
			"caption":         rec.Caption,
			"media":           rec.Media,
			"origin_title":    rec.OriginTitle,
			"origin_username": rec.OriginUsername,
			"updated_at":      now,
		},
		"$inc": bson.M{
			"deliveries": 1,
		},
		"$setOnInsert": bson.M{
			"post_id":    rec.ID,
			"first_seen": now,
		},
	}

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"post_id": rec.ID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert post %d into collection '%s': %w", rec.ID, postsCollectionName, err)
	}
	return nil
}
