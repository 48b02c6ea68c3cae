package mongodb

import (
	"context"
	"time"

	"workwave-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type jobRepo struct {
	coll *mongo.Collection
}

func NewJobRepository(db *mongo.Database) domain.JobRepository {
	return &jobRepo{coll: db.Collection(jobsCollection)}
}

func (r *jobRepo) decode(res *mongo.SingleResult) (*domain.Job, error) {
	var job domain.Job
	if err := res.Decode(&job); err != nil {
		return nil, translate(err)
	}
	job.EnsureCollections()
	return &job, nil
}

func (r *jobRepo) Create(ctx context.Context, job *domain.Job) error {
	if job.ID.IsZero() {
		job.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	job.EnsureCollections()

	_, err := r.coll.InsertOne(ctx, job)
	return translate(err)
}

func (r *jobRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Job, error) {
	return r.decode(r.coll.FindOne(ctx, bson.M{"_id": id}))
}

func (r *jobRepo) GetByKey(ctx context.Context, jobKey string) (*domain.Job, error) {
	return r.decode(r.coll.FindOne(ctx, bson.M{"jobKey": jobKey}))
}

func (r *jobRepo) Update(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	filter := bson.M{"_id": job.ID, "employerId": job.EmployerID}
	update := bson.M{"$set": bson.M{
		"title":       job.Title,
		"description": job.Description,
		"type":        job.Type,
		"experience":  job.Experience,
		"location":    job.Location,
		"salaryRange": job.SalaryRange,
		"skills":      job.Skills,
		"isActive":    job.IsActive,
		"updatedAt":   time.Now().UTC(),
	}}
	return r.decode(r.coll.FindOneAndUpdate(ctx, filter, update, returnAfter()))
}

func (r *jobRepo) Delete(ctx context.Context, employerID, jobID primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": jobID, "employerId": employerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *jobRepo) AddApplicant(ctx context.Context, jobID, applicantID primitive.ObjectID) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": jobID, "applicants": bson.M{"$ne": applicantID}},
		bson.M{"$push": bson.M{"applicants": applicantID}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": jobID})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}
