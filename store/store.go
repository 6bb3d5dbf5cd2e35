// Package store declares the repositories the marketplace flows depend on.
// Drivers (mongostore, memstore) translate their own errors into the
// sentinel errors below.
package store

import (
	"context"
	"errors"

	"github.com/suisse-offerten/marketplace-api/models"
)

var (
	// ErrNotFound replaces mongo.ErrNoDocuments and malformed ids.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique index rejects an insert.
	ErrDuplicate = errors.New("duplicate record")
)

// Page bounds a list query. A zero Limit means no limit.
type Page struct {
	Skip  int64
	Limit int64
}

type ClientRepository interface {
	List(ctx context.Context, status string, page Page) ([]models.Client, error)
	Count(ctx context.Context, status string) (int64, error)
	FindByID(ctx context.Context, id string) (*models.Client, error)
	FindByEmail(ctx context.Context, email string) (*models.Client, error)
	FindByUsername(ctx context.Context, username string) (*models.Client, error)
	Create(ctx context.Context, c *models.Client) error
	Save(ctx context.Context, c *models.Client) error
	Delete(ctx context.Context, id string) error
}

type SellerRepository interface {
	List(ctx context.Context, page Page) ([]models.Seller, error)
	FindByID(ctx context.Context, id string) (*models.Seller, error)
	FindByEmail(ctx context.Context, email string) (*models.Seller, error)
	FindByUsername(ctx context.Context, username string) (*models.Seller, error)
	// FindMatching returns sellers whose preference shares a city with cities
	// and whose activities share a category with categories.
	FindMatching(ctx context.Context, cities, categories []string) ([]models.Seller, error)
	Create(ctx context.Context, s *models.Seller) error
	Save(ctx context.Context, s *models.Seller) error
	Delete(ctx context.Context, id string) error
}

// JobFilter narrows a job listing. Empty fields do not filter.
type JobFilter struct {
	Status   string
	City     string
	Category string
	Page     Page
}

type JobRepository interface {
	List(ctx context.Context, f JobFilter) ([]models.Job, error)
	Count(ctx context.Context, f JobFilter) (int64, error)
	FindByID(ctx context.Context, id string) (*models.Job, error)
	// FindByEmail returns the first job posted under email.
	FindByEmail(ctx context.Context, email string) (*models.Job, error)
	Create(ctx context.Context, j *models.Job) error
	Save(ctx context.Context, j *models.Job) error
	Delete(ctx context.Context, id string) error
}

type CodeRepository interface {
	Create(ctx context.Context, c *models.VerificationCode) error
	FindByCode(ctx context.Context, code string) (*models.VerificationCode, error)
	FindByEmailAndCode(ctx context.Context, email, code string) (*models.VerificationCode, error)
}

type OTPRepository interface {
	Create(ctx context.Context, o *models.OneTimePassword) error
	FindByCode(ctx context.Context, code string) (*models.OneTimePassword, error)
}

type PaymentRepository interface {
	List(ctx context.Context) ([]models.Payment, error)
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	Delete(ctx context.Context, id string) error
}

type TransactionRepository interface {
	Create(ctx context.Context, t *models.Transaction) error
	List(ctx context.Context) ([]models.Transaction, error)
}

// Repositories bundles one repository per collection.
type Repositories struct {
	Clients      ClientRepository
	Sellers      SellerRepository
	Jobs         JobRepository
	Codes        CodeRepository
	OTPs         OTPRepository
	Payments     PaymentRepository
	Transactions TransactionRepository
}

// IsNotFound is shorthand for errors.Is(err, ErrNotFound).
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
