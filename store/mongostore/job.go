package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/suisse-offerten/marketplace-api/models"
	"github.com/suisse-offerten/marketplace-api/store"
)

type jobRepo struct {
	s   *Store
	col *mongo.Collection
}

func jobFilter(f store.JobFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.City != "" {
		filter["jobCity"] = f.City
	}
	if f.Category != "" {
		filter["$or"] = bson.A{
			bson.M{"jobCategories": f.Category},
			bson.M{"jobSubCategories": f.Category},
		}
	}
	return filter
}

func (r *jobRepo) List(ctx context.Context, f store.JobFilter) ([]models.Job, error) {
	return findMany[models.Job](ctx, r.s, r.col, jobFilter(f), pageOptions(f.Page))
}

func (r *jobRepo) Count(ctx context.Context, f store.JobFilter) (int64, error) {
	return count(ctx, r.s, r.col, jobFilter(f))
}

func (r *jobRepo) FindByID(ctx context.Context, id string) (*models.Job, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findOne[models.Job](ctx, r.s, r.col, bson.M{"_id": oid})
}

func (r *jobRepo) FindByEmail(ctx context.Context, email string) (*models.Job, error) {
	return findOne[models.Job](ctx, r.s, r.col, bson.M{"jobEmail": email})
}

func (r *jobRepo) Create(ctx context.Context, j *models.Job) error {
	now := time.Now()
	j.CreatedAt, j.UpdatedAt = now, now
	oid, err := insertOne(ctx, r.s, r.col, j)
	if err != nil {
		return err
	}
	j.ID = oid
	return nil
}

func (r *jobRepo) Save(ctx context.Context, j *models.Job) error {
	j.UpdatedAt = time.Now()
	return replaceByID(ctx, r.s, r.col, j.ID, j)
}

func (r *jobRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.s, r.col, id)
}
