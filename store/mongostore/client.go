package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/suisse-offerten/marketplace-api/models"
	"github.com/suisse-offerten/marketplace-api/store"
)

type clientRepo struct {
	s   *Store
	col *mongo.Collection
}

func statusFilter(status string) bson.M {
	if status == "" {
		return bson.M{}
	}
	return bson.M{"status": status}
}

func (r *clientRepo) List(ctx context.Context, status string, page store.Page) ([]models.Client, error) {
	return findMany[models.Client](ctx, r.s, r.col, statusFilter(status), pageOptions(page))
}

func (r *clientRepo) Count(ctx context.Context, status string) (int64, error) {
	return count(ctx, r.s, r.col, statusFilter(status))
}

func (r *clientRepo) FindByID(ctx context.Context, id string) (*models.Client, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findOne[models.Client](ctx, r.s, r.col, bson.M{"_id": oid})
}

func (r *clientRepo) FindByEmail(ctx context.Context, email string) (*models.Client, error) {
	return findOne[models.Client](ctx, r.s, r.col, bson.M{"email": email})
}

func (r *clientRepo) FindByUsername(ctx context.Context, username string) (*models.Client, error) {
	return findOne[models.Client](ctx, r.s, r.col, bson.M{"username": username})
}

func (r *clientRepo) Create(ctx context.Context, c *models.Client) error {
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	oid, err := insertOne(ctx, r.s, r.col, c)
	if err != nil {
		return err
	}
	c.ID = oid
	return nil
}

func (r *clientRepo) Save(ctx context.Context, c *models.Client) error {
	c.UpdatedAt = time.Now()
	return replaceByID(ctx, r.s, r.col, c.ID, c)
}

func (r *clientRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.s, r.col, id)
}
