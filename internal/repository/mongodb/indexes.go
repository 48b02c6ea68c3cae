package mongodb

import (
	"context"
	"errors"
	"fmt"

	"workwave-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	accountsCollection  = "accounts"
	employeesCollection = "employees"
	employersCollection = "employers"
	jobsCollection      = "jobs"
)

// EnsureIndexes creates the unique indexes the repositories rely on for
// duplicate detection. Safe to call on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		accountsCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{
				Keys:    bson.D{{Key: "federatedIssuer", Value: 1}, {Key: "federatedId", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
		},
		employeesCollection: {
			{Keys: bson.D{{Key: "authId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		employersCollection: {
			{Keys: bson.D{{Key: "authId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		jobsCollection: {
			{Keys: bson.D{{Key: "jobKey", Value: 1}}, Options: options.Index().SetUnique(true)},
			{
				Keys:    bson.D{{Key: "employerId", Value: 1}, {Key: "title", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}

	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// translate maps driver errors onto the domain sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return domain.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return domain.ErrConflict
	}
	return err
}

func returnAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}
