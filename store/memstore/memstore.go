// Package memstore is an in-memory implementation of the store repositories,
// used by tests and local runs without MongoDB.
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/suisse-offerten/marketplace-api/models"
	"github.com/suisse-offerten/marketplace-api/store"
)

// Store keeps every collection in a slice guarded by one mutex.
type Store struct {
	mu           sync.RWMutex
	clients      []models.Client
	sellers      []models.Seller
	jobs         []models.Job
	codes        []models.VerificationCode
	otps         []models.OneTimePassword
	payments     []models.Payment
	transactions []models.Transaction
}

func New() *Store {
	return &Store{}
}

func (s *Store) Repositories() store.Repositories {
	return store.Repositories{
		Clients:      clientRepo{s},
		Sellers:      sellerRepo{s},
		Jobs:         jobRepo{s},
		Codes:        codeRepo{s},
		OTPs:         otpRepo{s},
		Payments:     paymentRepo{s},
		Transactions: transactionRepo{s},
	}
}

// AddPayment seeds a payment record; payments are only written by the
// gateway webhook in production.
func (s *Store) AddPayment(p models.Payment) models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.payments = append(s.payments, p)
	return p
}

func first[T any](items []T, match func(T) bool) (*T, error) {
	for i := range items {
		if match(items[i]) {
			out := items[i]
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func filter[T any](items []T, match func(T) bool) []T {
	out := []T{}
	for _, it := range items {
		if match(it) {
			out = append(out, it)
		}
	}
	return out
}

func paginate[T any](items []T, p store.Page) []T {
	if p.Skip >= int64(len(items)) {
		return []T{}
	}
	items = items[p.Skip:]
	if p.Limit > 0 && p.Limit < int64(len(items)) {
		items = items[:p.Limit]
	}
	return items
}

func replace[T any](items []T, idOf func(T) primitive.ObjectID, v T) error {
	for i := range items {
		if idOf(items[i]) == idOf(v) {
			items[i] = v
			return nil
		}
	}
	return store.ErrNotFound
}

func remove[T any](items *[]T, idOf func(T) primitive.ObjectID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}
	for i := range *items {
		if idOf((*items)[i]) == oid {
			*items = slices.Delete(*items, i, i+1)
			return nil
		}
	}
	return store.ErrNotFound
}

// taken reports whether a record other than v already holds one of v's
// unique keys, mirroring the unique indexes of the Mongo store.
func taken[T any](items []T, idOf func(T) primitive.ObjectID, v T, clash func(a, b T) bool) bool {
	for _, it := range items {
		if idOf(it) != idOf(v) && clash(it, v) {
			return true
		}
	}
	return false
}

func byHexID[T any](idOf func(T) primitive.ObjectID, id string) func(T) bool {
	oid, err := primitive.ObjectIDFromHex(id)
	return func(v T) bool { return err == nil && idOf(v) == oid }
}

// newestFirst mirrors the createdAt descending sort of the Mongo store.
func newestFirst[T any](items []T, created func(T) time.Time) []T {
	out := slices.Clone(items)
	sort.SliceStable(out, func(i, j int) bool { return created(out[i]).After(created(out[j])) })
	return out
}

// --- clients ---

type clientRepo struct{ s *Store }

func clientID(c models.Client) primitive.ObjectID { return c.ID }

func (r clientRepo) List(_ context.Context, status string, page store.Page) ([]models.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := filter(r.s.clients, func(c models.Client) bool { return status == "" || c.Status == status })
	items = newestFirst(items, func(c models.Client) time.Time { return c.CreatedAt })
	return paginate(items, page), nil
}

func (r clientRepo) Count(_ context.Context, status string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(filter(r.s.clients, func(c models.Client) bool { return status == "" || c.Status == status }))), nil
}

func (r clientRepo) FindByID(_ context.Context, id string) (*models.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return first(r.s.clients, byHexID(clientID, id))
}

func (r clientRepo) FindByEmail(_ context.Context, email string) (*models.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return first(r.s.clients, func(c models.Client) bool { return c.Email == email })
}

func (r clientRepo) FindByUsername(_ context.Context, username string) (*models.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return first(r.s.clients, func(c models.Client) bool { return c.Username == username })
}

func (r clientRepo) Create(_ context.Context, c *models.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.clients {
		if existing.Email == c.Email || existing.Username == c.Username {
			return store.ErrDuplicate
		}
	}
	now := time.Now()
	c.ID, c.CreatedAt, c.UpdatedAt = primitive.NewObjectID(), now, now
	r.s.clients = append(r.s.clients, *c)
	return nil
}

func clientClash(a, b models.Client) bool {
	return a.Email == b.Email || a.Username == b.Username
}

func (r clientRepo) Save(_ context.Context, c *models.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if taken(r.s.clients, clientID, *c, clientClash) {
		return store.ErrDuplicate
	}
	c.UpdatedAt = time.Now()
	return replace(r.s.clients, clientID, *c)
}

func (r clientRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return remove(&r.s.clients, clientID, id)
}

// --- sellers ---

type sellerRepo struct{ s *Store }

func sellerID(s models.Seller) primitive.ObjectID { return s.ID }

func (r sellerRepo) List(_ context.Context, page store.Page) ([]models.Seller, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := newestFirst(r.s.sellers, func(s models.Seller) time.Time { return s.CreatedAt })
	return paginate(items, page), nil
}

func (r sellerRepo) FindByID(_ context.Context, id string) (*models.Seller, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return first(r.s.sellers, byHexID(sellerID, id))
}

func (r sellerRepo) FindByEmail(_ context.Context, email string) (*models.Seller, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return first(r.s.sellers, func(s models.Seller) bool { return s.Email == email })
}

func (r sellerRepo) FindByUsername(_ context.Context, username string) (*models.Seller, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return first(r.s.sellers, func(s models.Seller) bool { return s.Username == username })
}

func (r sellerRepo) FindMatching(_ context.Context, cities, categories []string) ([]models.Seller, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	job := models.Job{JobCity: cities, JobSubCategories: categories}
	return filter(r.s.sellers, func(s models.Seller) bool { return s.MatchesJob(job) }), nil
}

func (r sellerRepo) Create(_ context.Context, s *models.Seller) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.sellers {
		if existing.Email == s.Email {
			return store.ErrDuplicate
		}
	}
	now := time.Now()
	s.ID, s.CreatedAt, s.UpdatedAt = primitive.NewObjectID(), now, now
	r.s.sellers = append(r.s.sellers, *s)
	return nil
}

func (r sellerRepo) Save(_ context.Context, s *models.Seller) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if taken(r.s.sellers, sellerID, *s, func(a, b models.Seller) bool { return a.Email == b.Email }) {
		return store.ErrDuplicate
	}
	s.UpdatedAt = time.Now()
	return replace(r.s.sellers, sellerID, *s)
}

func (r sellerRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return remove(&r.s.sellers, sellerID, id)
}

// --- jobs ---

type jobRepo struct{ s *Store }

func jobID(j models.Job) primitive.ObjectID { return j.ID }

func jobMatches(f store.JobFilter) func(models.Job) bool {
	return func(j models.Job) bool {
		if f.Status != "" && j.Status != f.Status {
			return false
		}
		if f.City != "" && !slices.Contains(j.JobCity, f.City) {
			return false
		}
		if f.Category != "" && !slices.Contains(j.JobCategories, f.Category) && !slices.Contains(j.JobSubCategories, f.Category) {
			return false
		}
		return true
	}
}

func (r jobRepo) List(_ context.Context, f store.JobFilter) ([]models.Job, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := newestFirst(filter(r.s.jobs, jobMatches(f)), func(j models.Job) time.Time { return j.CreatedAt })
	return paginate(items, f.Page), nil
}

func (r jobRepo) Count(_ context.Context, f store.JobFilter) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(filter(r.s.jobs, jobMatches(f)))), nil
}

func (r jobRepo) FindByID(_ context.Context, id string) (*models.Job, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return first(r.s.jobs, byHexID(jobID, id))
}

func (r jobRepo) FindByEmail(_ context.Context, email string) (*models.Job, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return first(r.s.jobs, func(j models.Job) bool { return j.JobEmail == email })
}

func (r jobRepo) Create(_ context.Context, j *models.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	j.ID, j.CreatedAt, j.UpdatedAt = primitive.NewObjectID(), now, now
	r.s.jobs = append(r.s.jobs, *j)
	return nil
}

func (r jobRepo) Save(_ context.Context, j *models.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j.UpdatedAt = time.Now()
	return replace(r.s.jobs, jobID, *j)
}

func (r jobRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return remove(&r.s.jobs, jobID, id)
}

// --- verification codes and OTPs ---

type codeRepo struct{ s *Store }

func (r codeRepo) Create(_ context.Context, c *models.VerificationCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID, c.CreatedAt = primitive.NewObjectID(), time.Now()
	r.s.codes = append(r.s.codes, *c)
	return nil
}

func (r codeRepo) FindByCode(_ context.Context, code string) (*models.VerificationCode, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return first(r.s.codes, func(c models.VerificationCode) bool { return c.Code == code })
}

func (r codeRepo) FindByEmailAndCode(_ context.Context, email, code string) (*models.VerificationCode, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return first(r.s.codes, func(c models.VerificationCode) bool { return c.Email == email && c.Code == code })
}

type otpRepo struct{ s *Store }

func (r otpRepo) Create(_ context.Context, o *models.OneTimePassword) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o.ID, o.CreatedAt = primitive.NewObjectID(), time.Now()
	r.s.otps = append(r.s.otps, *o)
	return nil
}

func (r otpRepo) FindByCode(_ context.Context, code string) (*models.OneTimePassword, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return first(r.s.otps, func(o models.OneTimePassword) bool { return o.Code == code })
}

// --- payments and transactions ---

type paymentRepo struct{ s *Store }

func paymentID(p models.Payment) primitive.ObjectID { return p.ID }

func (r paymentRepo) List(_ context.Context) ([]models.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return newestFirst(r.s.payments, func(p models.Payment) time.Time { return p.CreatedAt }), nil
}

func (r paymentRepo) FindByID(_ context.Context, id string) (*models.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return first(r.s.payments, byHexID(paymentID, id))
}

func (r paymentRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return remove(&r.s.payments, paymentID, id)
}

type transactionRepo struct{ s *Store }

func (r transactionRepo) Create(_ context.Context, t *models.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.ID, t.CreatedAt = primitive.NewObjectID(), time.Now()
	r.s.transactions = append(r.s.transactions, *t)
	return nil
}

func (r transactionRepo) List(_ context.Context) ([]models.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return newestFirst(r.s.transactions, func(t models.Transaction) time.Time { return t.CreatedAt }), nil
}
