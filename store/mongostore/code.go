package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/suisse-offerten/marketplace-api/models"
)

type codeRepo struct {
	s   *Store
	col *mongo.Collection
}

func (r *codeRepo) Create(ctx context.Context, c *models.VerificationCode) error {
	c.CreatedAt = time.Now()
	oid, err := insertOne(ctx, r.s, r.col, c)
	if err != nil {
		return err
	}
	c.ID = oid
	return nil
}

func (r *codeRepo) FindByCode(ctx context.Context, code string) (*models.VerificationCode, error) {
	return findOne[models.VerificationCode](ctx, r.s, r.col, bson.M{"code": code})
}

func (r *codeRepo) FindByEmailAndCode(ctx context.Context, email, code string) (*models.VerificationCode, error) {
	return findOne[models.VerificationCode](ctx, r.s, r.col, bson.M{"email": email, "code": code})
}

type otpRepo struct {
	s   *Store
	col *mongo.Collection
}

func (r *otpRepo) Create(ctx context.Context, o *models.OneTimePassword) error {
	o.CreatedAt = time.Now()
	oid, err := insertOne(ctx, r.s, r.col, o)
	if err != nil {
		return err
	}
	o.ID = oid
	return nil
}

func (r *otpRepo) FindByCode(ctx context.Context, code string) (*models.OneTimePassword, error) {
	return findOne[models.OneTimePassword](ctx, r.s, r.col, bson.M{"code": code})
}
