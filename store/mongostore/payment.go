package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/suisse-offerten/marketplace-api/models"
	"github.com/suisse-offerten/marketplace-api/store"
)

type paymentRepo struct {
	s   *Store
	col *mongo.Collection
}

func (r *paymentRepo) List(ctx context.Context) ([]models.Payment, error) {
	return findMany[models.Payment](ctx, r.s, r.col, bson.M{}, pageOptions(store.Page{}))
}

func (r *paymentRepo) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findOne[models.Payment](ctx, r.s, r.col, bson.M{"_id": oid})
}

func (r *paymentRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.s, r.col, id)
}

type transactionRepo struct {
	s   *Store
	col *mongo.Collection
}

func (r *transactionRepo) Create(ctx context.Context, t *models.Transaction) error {
	t.CreatedAt = time.Now()
	oid, err := insertOne(ctx, r.s, r.col, t)
	if err != nil {
		return err
	}
	t.ID = oid
	return nil
}

func (r *transactionRepo) List(ctx context.Context) ([]models.Transaction, error) {
	return findMany[models.Transaction](ctx, r.s, r.col, bson.M{}, pageOptions(store.Page{}))
}
