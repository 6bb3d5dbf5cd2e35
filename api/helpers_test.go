package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/suisse-offerten/marketplace-api/config"
	"github.com/suisse-offerten/marketplace-api/models"
	"github.com/suisse-offerten/marketplace-api/payment"
	"github.com/suisse-offerten/marketplace-api/ratelimit"
	"github.com/suisse-offerten/marketplace-api/service"
	"github.com/suisse-offerten/marketplace-api/store"
	"github.com/suisse-offerten/marketplace-api/store/memstore"
	"github.com/suisse-offerten/marketplace-api/uploads"
)

type fakeNotifier struct {
	mu        sync.Mutex
	codes     map[string]string
	otps      map[string]string
	links     map[string]string
	jobMails  []string
	failJobAt int
	jobCalls  int
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{codes: map[string]string{}, otps: map[string]string{}, links: map[string]string{}}
}

func (n *fakeNotifier) SendVerificationCode(_ context.Context, to, _, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes[to] = code
	return nil
}

func (n *fakeNotifier) SendPasswordOTP(_ context.Context, to, otp string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.otps[to] = otp
	return nil
}

func (n *fakeNotifier) SendResetLink(_ context.Context, to, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.links[to] = link
	return nil
}

func (n *fakeNotifier) SendJobNotification(_ context.Context, to, _ string, _ models.Job) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.jobCalls++
	if n.failJobAt > 0 && n.jobCalls == n.failJobAt {
		return errors.New("connection refused")
	}
	n.jobMails = append(n.jobMails, to)
	return nil
}

type fakeGateway struct {
	customers map[string]*payment.Customer
	invoices  map[string]*payment.Invoice
	err       error
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

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, _ payment.CheckoutRequest) (*payment.Session, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &payment.Session{ID: "cs_test", URL: "https://checkout.test/cs_test"}, nil
}

func (g *fakeGateway) ListInvoices(_ context.Context, _ string, _ int64) ([]payment.Invoice, error) {
	out := []payment.Invoice{}
	for _, in := range g.invoices {
		out = append(out, *in)
	}
	return out, nil
}

func (g *fakeGateway) GetInvoice(_ context.Context, id string) (*payment.Invoice, error) {
	in, ok := g.invoices[id]
	if !ok {
		return nil, errors.New("resource_missing")
	}
	return in, nil
}

type prefixSigner struct{}

func (prefixSigner) PresignedURL(_ context.Context, key string) (string, error) {
	return "https://signed.test/" + key, nil
}

type testEnv struct {
	server   *Server
	handler  http.Handler
	repos    store.Repositories
	mem      *memstore.Store
	notifier *fakeNotifier
	gateway  *fakeGateway
	cfg      *config.Config
	uploads  *uploads.LocalStore
}

type envOption func(*Deps)

func withLimiter(l *ratelimit.Limiter) envOption {
	return func(d *Deps) { d.Limiter = l }
}

func withSigner(s URLSigner) envOption {
	return func(d *Deps) { d.Signer = s }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	cfg := &config.Config{
		HTTP: config.HTTPConfig{CorsURL: "https://site.test", DashboardURL: "https://admin.site.test"},
		Auth: config.AuthConfig{SecretKey: "test-secret", BcryptCost: bcrypt.MinCost},
		Mail: config.MailConfig{ResetURL: "https://site.test/client-change-password"},
		Stripe: config.StripeConfig{
			PriceOneMonth:  "price_1m",
			CreditCurrency: "chf",
		},
	}
	mem := memstore.New()
	repos := mem.Repositories()
	n := newFakeNotifier()
	gw := &fakeGateway{customers: map[string]*payment.Customer{}, invoices: map[string]*payment.Invoice{}}
	local, err := uploads.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	logger := zerolog.Nop()
	deps := Deps{
		Config:   cfg,
		Logger:   logger,
		Repos:    repos,
		Accounts: service.NewAccounts(repos, n, cfg, logger),
		Jobs:     service.NewJobs(repos, n, logger),
		Payments: service.NewPayments(repos, gw, cfg, logger),
		Uploads:  local,
		Files:    local.Handler(),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	s := NewServer(deps)
	return &testEnv{
		server:   s,
		handler:  s.Handler(),
		repos:    repos,
		mem:      mem,
		notifier: n,
		gateway:  gw,
		cfg:      cfg,
		uploads:  local,
	}
}

// do sends a JSON request through the full middleware chain.
func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]any](t, rec)["message"].(string)
}

func (e *testEnv) registerClient(t *testing.T, username, email string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/client/register", map[string]any{
		"username": username, "email": email, "password": "secret",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody[struct {
		Client models.Client `json:"client"`
	}](t, rec)
	return body.Client.ID.Hex()
}

func (e *testEnv) verify(t *testing.T, email string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, http.MethodPost, "/auth/client/verify", map[string]string{"code": e.notifier.codes[email]})
}

func (e *testEnv) login(t *testing.T, input string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/client/login", map[string]string{"input": input, "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[map[string]any](t, rec)["token"].(string)
}
