// Package mongostore implements the store repositories on MongoDB.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/suisse-offerten/marketplace-api/store"
)

const (
	ColClients      = "clients"
	ColSellers      = "sellers"
	ColJobs         = "jobs"
	ColVerifyCodes  = "verifies"
	ColOTPs         = "otps"
	ColPayments     = "payments"
	ColTransactions = "transactions"
)

// Store holds the database handle and the per-call timeout applied to every
// query.
type Store struct {
	db      *mongo.Database
	timeout time.Duration
}

func New(db *mongo.Database, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Store{db: db, timeout: timeout}
}

// Repositories exposes the store through the store interfaces.
func (s *Store) Repositories() store.Repositories {
	return store.Repositories{
		Clients:      &clientRepo{s: s, col: s.col(ColClients)},
		Sellers:      &sellerRepo{s: s, col: s.col(ColSellers)},
		Jobs:         &jobRepo{s: s, col: s.col(ColJobs)},
		Codes:        &codeRepo{s: s, col: s.col(ColVerifyCodes)},
		OTPs:         &otpRepo{s: s, col: s.col(ColOTPs)},
		Payments:     &paymentRepo{s: s, col: s.col(ColPayments)},
		Transactions: &transactionRepo{s: s, col: s.col(ColTransactions)},
	}
}

// EnsureIndexes creates the unique and lookup indexes. The flows check
// uniqueness themselves; the unique indexes are the backstop.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		ColClients: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		ColSellers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "username", Value: 1}}},
		},
		ColJobs: {
			{Keys: bson.D{{Key: "jobEmail", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		ColVerifyCodes: {
			{Keys: bson.D{{Key: "code", Value: 1}}},
			{Keys: bson.D{{Key: "email", Value: 1}, {Key: "code", Value: 1}}},
		},
		ColOTPs: {
			{Keys: bson.D{{Key: "code", Value: 1}}},
		},
		ColTransactions: {
			{Keys: bson.D{{Key: "transactionId", Value: 1}}},
		},
	}
	for name, models := range indexes {
		ictx, cancel := context.WithTimeout(ctx, s.timeout)
		_, err := s.col(name).Indexes().CreateMany(ictx, models)
		cancel()
		if err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.timeout)
}
