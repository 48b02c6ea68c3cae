package mongodb

import (
	"context"
	"errors"
	"time"

	"workwave-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type employerRepo struct {
	coll *mongo.Collection
}

func NewEmployerRepository(db *mongo.Database) domain.EmployerRepository {
	return &employerRepo{coll: db.Collection(employersCollection)}
}

func (r *employerRepo) decode(res *mongo.SingleResult) (*domain.EmployerProfile, error) {
	var profile domain.EmployerProfile
	if err := res.Decode(&profile); err != nil {
		return nil, translate(err)
	}
	profile.EnsureCollections()
	return &profile, nil
}

func (r *employerRepo) GetByAccountID(ctx context.Context, accountID primitive.ObjectID) (*domain.EmployerProfile, error) {
	return r.decode(r.coll.FindOne(ctx, bson.M{"authId": accountID}))
}

func (r *employerRepo) Provision(ctx context.Context, accountID primitive.ObjectID) (*domain.EmployerProfile, error) {
	now := time.Now().UTC()
	update := bson.M{"$setOnInsert": bson.M{
		"jobPosted": bson.A{},
		"createdAt": now,
		"updatedAt": now,
	}}
	profile, err := r.decode(r.coll.FindOneAndUpdate(ctx, bson.M{"authId": accountID}, update, returnAfter().SetUpsert(true)))
	if errors.Is(err, domain.ErrConflict) {
		return r.GetByAccountID(ctx, accountID)
	}
	return profile, err
}

func (r *employerRepo) Upsert(ctx context.Context, accountID primitive.ObjectID, details domain.EmployerDetails) (*domain.EmployerProfile, error) {
	now := time.Now().UTC()
	set := bson.M{
		"userName":    details.UserName,
		"companyName": details.CompanyName,
		"industry":    details.Industry,
		"companySize": details.CompanySize,
		"website":     details.Website,
		"description": details.Description,
		"hrName":      details.HRName,
		"hrPhone":     details.HRPhone,
		"hrEmail":     details.HREmail,
		"updatedAt":   now,
	}
	if details.Location != nil {
		set["location"] = details.Location
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"jobPosted": bson.A{}, "createdAt": now},
	}
	return r.decode(r.coll.FindOneAndUpdate(ctx, bson.M{"authId": accountID}, update, returnAfter().SetUpsert(true)))
}

func (r *employerRepo) Patch(ctx context.Context, accountID primitive.ObjectID, patch domain.EmployerPatch) (*domain.EmployerProfile, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Location != nil {
		set["location"] = patch.Location
	}
	if patch.HR != nil {
		set["hrName"] = patch.HR.HRName
		set["hrPhone"] = patch.HR.HRPhone
		set["hrEmail"] = patch.HR.HREmail
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	return r.decode(r.coll.FindOneAndUpdate(ctx, bson.M{"authId": accountID}, bson.M{"$set": set}, returnAfter()))
}

func (r *employerRepo) Delete(ctx context.Context, accountID primitive.ObjectID) (*domain.EmployerProfile, error) {
	return r.decode(r.coll.FindOneAndDelete(ctx, bson.M{"authId": accountID}))
}

func (r *employerRepo) SetLogo(ctx context.Context, accountID primitive.ObjectID, key string) (string, error) {
	update := bson.M{"$set": bson.M{"logoKey": key, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	prev, err := r.decode(r.coll.FindOneAndUpdate(ctx, bson.M{"authId": accountID}, update, opts))
	if err != nil {
		return "", err
	}
	return prev.LogoKey, nil
}

func (r *employerRepo) AddJob(ctx context.Context, accountID, jobID primitive.ObjectID) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"authId": accountID},
		bson.M{"$addToSet": bson.M{"jobPosted": jobID}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *employerRepo) RemoveJob(ctx context.Context, accountID, jobID primitive.ObjectID) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"authId": accountID},
		bson.M{"$pull": bson.M{"jobPosted": jobID}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	return err
}
