package mongodb

import (
	"context"
	"errors"
	"strings"
	"time"

	"workwave-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type accountRepo struct {
	coll *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) domain.AccountRepository {
	return &accountRepo{coll: db.Collection(accountsCollection)}
}

func (r *accountRepo) Create(ctx context.Context, account *domain.Account) error {
	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	account.Email = strings.ToLower(strings.TrimSpace(account.Email))
	account.CreatedAt = now
	account.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, account)
	return translate(err)
}

func (r *accountRepo) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	var account domain.Account
	if err := r.coll.FindOne(ctx, filter).Decode(&account); err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (r *accountRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *accountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *accountRepo) GetByFederatedID(ctx context.Context, issuer, federatedID string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"federatedIssuer": issuer, "federatedId": federatedID})
}

func (r *accountRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Account, error) {
	accounts := []domain.Account{}
	if len(ids) == 0 {
		return accounts, nil
	}
	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepo) LinkFederatedID(ctx context.Context, id primitive.ObjectID, issuer, federatedID string) (*domain.Account, error) {
	update := bson.M{"$set": bson.M{
		"federatedIssuer": issuer,
		"federatedId":     federatedID,
		"updatedAt":       time.Now().UTC(),
	}}
	var account domain.Account
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, returnAfter()).Decode(&account); err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (r *accountRepo) AssignRole(ctx context.Context, id primitive.ObjectID, role string) (*domain.Account, error) {
	filter := bson.M{"_id": id, "role": domain.RoleUnset}
	update := bson.M{"$set": bson.M{"role": role, "updatedAt": time.Now().UTC()}}

	var account domain.Account
	err := r.coll.FindOneAndUpdate(ctx, filter, update, returnAfter()).Decode(&account)
	if err == nil {
		return &account, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	// Either the account is gone or it already holds a role.
	return r.GetByID(ctx, id)
}
