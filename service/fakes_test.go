package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/suisse-offerten/marketplace-api/config"
	"github.com/suisse-offerten/marketplace-api/models"
	"github.com/suisse-offerten/marketplace-api/payment"
	"github.com/suisse-offerten/marketplace-api/store"
	"github.com/suisse-offerten/marketplace-api/store/memstore"
)

// recordingNotifier keeps every mail it is asked to send.
type recordingNotifier struct {
	mu         sync.Mutex
	codes      map[string]string
	otps       map[string]string
	resetLinks map[string]string
	jobMails   []string
	// failJobAt makes the n-th (1-based) job notification fail.
	failJobAt int
	jobCalls  int
	failCodes bool
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{codes: map[string]string{}, otps: map[string]string{}, resetLinks: map[string]string{}}
}

func (n *recordingNotifier) SendVerificationCode(_ context.Context, to, _, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failCodes {
		return errors.New("smtp unavailable")
	}
	n.codes[to] = code
	return nil
}

func (n *recordingNotifier) SendPasswordOTP(_ context.Context, to, otp string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.otps[to] = otp
	return nil
}

func (n *recordingNotifier) SendResetLink(_ context.Context, to, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resetLinks[to] = link
	return nil
}

func (n *recordingNotifier) SendJobNotification(_ context.Context, to, _ string, _ models.Job) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.jobCalls++
	if n.failJobAt > 0 && n.jobCalls == n.failJobAt {
		return errors.New("smtp unavailable")
	}
	n.jobMails = append(n.jobMails, to)
	return nil
}

// countingOTPs counts persisted OTP records.
type countingOTPs struct {
	store.OTPRepository
	created int
}

func (c *countingOTPs) Create(ctx context.Context, o *models.OneTimePassword) error {
	c.created++
	return c.OTPRepository.Create(ctx, o)
}

type fakeGateway struct {
	customers map[string]*payment.Customer
	sessions  []payment.CheckoutRequest
	invoices  map[string]*payment.Invoice
	err       error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{customers: map[string]*payment.Customer{}, invoices: map[string]*payment.Invoice{}}
}

func (g *fakeGateway) FindCustomer(_ context.Context, email string) (*payment.Customer, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.customers[email], nil
}

func (g *fakeGateway) FindOrCreateCustomer(ctx context.Context, email, name string) (*payment.Customer, error) {
	c, err := g.FindCustomer(ctx, email)
	if err != nil || c != nil {
		return c, err
	}
	c = &payment.Customer{ID: "cus_" + name, Email: email, Name: name}
	g.customers[email] = c
	return c, nil
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (*payment.Session, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.sessions = append(g.sessions, req)
	return &payment.Session{ID: "cs_test", URL: "https://checkout.test/cs_test"}, nil
}

func (g *fakeGateway) ListInvoices(_ context.Context, customerID string, _ int64) ([]payment.Invoice, error) {
	var out []payment.Invoice
	for _, in := range g.invoices {
		out = append(out, *in)
	}
	return out, nil
}

func (g *fakeGateway) GetInvoice(_ context.Context, id string) (*payment.Invoice, error) {
	in, ok := g.invoices[id]
	if !ok {
		return nil, errors.New("no such invoice")
	}
	return in, nil
}

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{CorsURL: "https://site.test"},
		Auth: config.AuthConfig{SecretKey: "test-secret", BcryptCost: bcrypt.MinCost},
		Mail: config.MailConfig{ResetURL: "https://site.test/client-change-password"},
		Stripe: config.StripeConfig{
			PriceOneMonth:  "price_1m",
			CreditCurrency: "chf",
			CreditTaxCode:  "txcd_20030000",
		},
	}
}

type fixture struct {
	repos    store.Repositories
	otps     *countingOTPs
	notifier *recordingNotifier
	accounts *Accounts
	jobs     *Jobs
}

func newFixture() *fixture {
	repos := memstore.New().Repositories()
	otps := &countingOTPs{OTPRepository: repos.OTPs}
	repos.OTPs = otps
	n := newRecordingNotifier()
	return &fixture{
		repos:    repos,
		otps:     otps,
		notifier: n,
		accounts: NewAccounts(repos, n, testConfig(), zerolog.Nop()),
		jobs:     NewJobs(repos, n, zerolog.Nop()),
	}
}
