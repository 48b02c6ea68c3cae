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

type employeeRepo struct {
	coll *mongo.Collection
}

func NewEmployeeRepository(db *mongo.Database) domain.EmployeeRepository {
	return &employeeRepo{coll: db.Collection(employeesCollection)}
}

var employeeCollections = []string{
	domain.KindEducation.Field,
	domain.KindExperience.Field,
	domain.KindSkill.Field,
	domain.KindCertification.Field,
	domain.KindLanguage.Field,
	domain.KindJobPreference.Field,
	"appliedJobs",
}

// onInsert seeds a new profile document. The field being written by the
// same update is left out, since Mongo rejects two operators on one path.
func onInsert(now time.Time, except string) bson.M {
	doc := bson.M{"createdAt": now}
	for _, field := range employeeCollections {
		if field != except {
			doc[field] = bson.A{}
		}
	}
	return doc
}

func (r *employeeRepo) decode(res *mongo.SingleResult) (*domain.EmployeeProfile, error) {
	var profile domain.EmployeeProfile
	if err := res.Decode(&profile); err != nil {
		return nil, translate(err)
	}
	profile.EnsureCollections()
	return &profile, nil
}

func (r *employeeRepo) GetByAccountID(ctx context.Context, accountID primitive.ObjectID) (*domain.EmployeeProfile, error) {
	return r.decode(r.coll.FindOne(ctx, bson.M{"authId": accountID}))
}

func (r *employeeRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.EmployeeProfile, error) {
	profiles := []domain.EmployeeProfile{}
	if len(ids) == 0 {
		return profiles, nil
	}
	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *employeeRepo) Provision(ctx context.Context, accountID primitive.ObjectID) (*domain.EmployeeProfile, error) {
	now := time.Now().UTC()
	update := bson.M{"$setOnInsert": mergeM(onInsert(now, ""), bson.M{"updatedAt": now})}
	opts := returnAfter().SetUpsert(true)

	profile, err := r.decode(r.coll.FindOneAndUpdate(ctx, bson.M{"authId": accountID}, update, opts))
	if errors.Is(err, domain.ErrConflict) {
		// Lost an insert race; the winner's document is what we want.
		return r.GetByAccountID(ctx, accountID)
	}
	return profile, err
}

func (r *employeeRepo) UpdateDetails(ctx context.Context, accountID primitive.ObjectID, details domain.EmployeeDetails) (*domain.EmployeeProfile, error) {
	now := time.Now().UTC()
	set := bson.M{
		"userName":  details.UserName,
		"phone":     details.Phone,
		"updatedAt": now,
	}
	if details.Location != nil {
		set["location"] = details.Location
	}
	update := bson.M{"$set": set, "$setOnInsert": onInsert(now, "")}
	opts := returnAfter().SetUpsert(true)
	return r.decode(r.coll.FindOneAndUpdate(ctx, bson.M{"authId": accountID}, update, opts))
}

// PushEntry appends in one conditional upsert. When the document exists but
// already holds a matching element the filter misses, the upsert collides
// with the unique authId index, and that duplicate key error is the conflict.
func (r *employeeRepo) PushEntry(ctx context.Context, accountID primitive.ObjectID, kind domain.SubResourceKind, entry interface{}, dupKey bson.M) (*domain.EmployeeProfile, error) {
	now := time.Now().UTC()
	filter := bson.M{
		"authId":   accountID,
		kind.Field: bson.M{"$not": bson.M{"$elemMatch": dupKey}},
	}
	update := bson.M{
		"$push":        bson.M{kind.Field: entry},
		"$set":         bson.M{"updatedAt": now},
		"$setOnInsert": onInsert(now, kind.Field),
	}
	opts := returnAfter().SetUpsert(true)
	return r.decode(r.coll.FindOneAndUpdate(ctx, filter, update, opts))
}

func (r *employeeRepo) ReplaceEntry(ctx context.Context, accountID primitive.ObjectID, kind domain.SubResourceKind, entryID primitive.ObjectID, entry interface{}, dupKey bson.M) (*domain.EmployeeProfile, error) {
	others := mergeM(dupKey, bson.M{"_id": bson.M{"$ne": entryID}})
	filter := bson.M{
		"authId":            accountID,
		kind.Field + "._id": entryID,
		kind.Field:          bson.M{"$not": bson.M{"$elemMatch": others}},
	}
	update := bson.M{"$set": bson.M{
		kind.Field + ".$[e]": entry,
		"updatedAt":          time.Now().UTC(),
	}}
	opts := returnAfter().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"e._id": entryID}},
	})

	profile, err := r.decode(r.coll.FindOneAndUpdate(ctx, filter, update, opts))
	if !errors.Is(err, domain.ErrNotFound) {
		return profile, err
	}
	// The filter missed: tell a missing entry apart from a duplicate.
	n, cerr := r.coll.CountDocuments(ctx, bson.M{"authId": accountID, kind.Field + "._id": entryID})
	if cerr != nil {
		return nil, cerr
	}
	if n == 0 {
		return nil, domain.ErrNotFound
	}
	return nil, domain.ErrConflict
}

func (r *employeeRepo) PullEntry(ctx context.Context, accountID primitive.ObjectID, kind domain.SubResourceKind, entryID primitive.ObjectID) (*domain.EmployeeProfile, error) {
	filter := bson.M{"authId": accountID, kind.Field + "._id": entryID}
	update := bson.M{
		"$pull": bson.M{kind.Field: bson.M{"_id": entryID}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return r.decode(r.coll.FindOneAndUpdate(ctx, filter, update, returnAfter()))
}

func (r *employeeRepo) SetResume(ctx context.Context, accountID primitive.ObjectID, resume domain.ResumeFile) (*domain.ResumeFile, error) {
	update := bson.M{"$set": bson.M{"resume": resume, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	prev, err := r.decode(r.coll.FindOneAndUpdate(ctx, bson.M{"authId": accountID}, update, opts))
	if err != nil {
		return nil, err
	}
	return prev.Resume, nil
}

func (r *employeeRepo) ClearResume(ctx context.Context, accountID primitive.ObjectID) (*domain.ResumeFile, error) {
	filter := bson.M{"authId": accountID, "resume": bson.M{"$exists": true}}
	update := bson.M{
		"$unset": bson.M{"resume": ""},
		"$set":   bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	prev, err := r.decode(r.coll.FindOneAndUpdate(ctx, filter, update, opts))
	if err != nil {
		return nil, err
	}
	if prev.Resume == nil {
		return nil, domain.ErrNotFound
	}
	return prev.Resume, nil
}

func (r *employeeRepo) AddAppliedJob(ctx context.Context, profileID, jobID primitive.ObjectID) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": profileID},
		bson.M{"$addToSet": bson.M{"appliedJobs": jobID}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *employeeRepo) RemoveAppliedJob(ctx context.Context, jobID primitive.ObjectID) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"appliedJobs": jobID},
		bson.M{"$pull": bson.M{"appliedJobs": jobID}},
	)
	return err
}

func mergeM(a, b bson.M) bson.M {
	out := make(bson.M, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
