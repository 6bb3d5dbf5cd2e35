package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/suisse-offerten/marketplace-api/models"
	"github.com/suisse-offerten/marketplace-api/store"
)

type sellerRepo struct {
	s   *Store
	col *mongo.Collection
}

func (r *sellerRepo) List(ctx context.Context, page store.Page) ([]models.Seller, error) {
	return findMany[models.Seller](ctx, r.s, r.col, bson.M{}, pageOptions(page))
}

func (r *sellerRepo) FindByID(ctx context.Context, id string) (*models.Seller, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findOne[models.Seller](ctx, r.s, r.col, bson.M{"_id": oid})
}

func (r *sellerRepo) FindByEmail(ctx context.Context, email string) (*models.Seller, error) {
	return findOne[models.Seller](ctx, r.s, r.col, bson.M{"email": email})
}

func (r *sellerRepo) FindByUsername(ctx context.Context, username string) (*models.Seller, error) {
	return findOne[models.Seller](ctx, r.s, r.col, bson.M{"username": username})
}

func (r *sellerRepo) FindMatching(ctx context.Context, cities, categories []string) ([]models.Seller, error) {
	// $in with a null operand is a server error; an empty set matches nothing anyway.
	if len(cities) == 0 || len(categories) == 0 {
		return []models.Seller{}, nil
	}
	filter := bson.M{"$and": bson.A{
		bson.M{"preference": bson.M{"$in": cities}},
		bson.M{"activities": bson.M{"$in": categories}},
	}}
	return findMany[models.Seller](ctx, r.s, r.col, filter)
}

func (r *sellerRepo) Create(ctx context.Context, s *models.Seller) error {
	now := time.Now()
	s.CreatedAt, s.UpdatedAt = now, now
	oid, err := insertOne(ctx, r.s, r.col, s)
	if err != nil {
		return err
	}
	s.ID = oid
	return nil
}

func (r *sellerRepo) Save(ctx context.Context, s *models.Seller) error {
	s.UpdatedAt = time.Now()
	return replaceByID(ctx, r.s, r.col, s.ID, s)
}

func (r *sellerRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.s, r.col, id)
}
