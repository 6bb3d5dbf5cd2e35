// Package api exposes the marketplace over HTTP. Handlers decode and
// validate the request, call the service or store layer and map domain
// errors to status codes.
package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/suisse-offerten/marketplace-api/config"
	"github.com/suisse-offerten/marketplace-api/metrics"
	"github.com/suisse-offerten/marketplace-api/ratelimit"
	"github.com/suisse-offerten/marketplace-api/service"
	"github.com/suisse-offerten/marketplace-api/store"
	"github.com/suisse-offerten/marketplace-api/uploads"
	"github.com/suisse-offerten/marketplace-api/utils"
)

// URLSigner turns stored object keys into downloadable URLs.
type URLSigner interface {
	PresignedURL(ctx context.Context, key string) (string, error)
}

// Deps are the collaborators of the HTTP layer. Files, Signer and Limiter
// are optional.
type Deps struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Repos    store.Repositories
	Accounts *service.Accounts
	Jobs     *service.Jobs
	Payments *service.Payments
	Uploads  uploads.Store
	Files    http.Handler
	Signer   URLSigner
	Limiter  *ratelimit.Limiter
}

type Server struct {
	cfg      *config.Config
	logger   zerolog.Logger
	repos    store.Repositories
	accounts *service.Accounts
	jobs     *service.Jobs
	payments *service.Payments
	uploads  uploads.Store
	files    http.Handler
	signer   URLSigner
	limiter  *ratelimit.Limiter
	validate *validator.Validate
}

func NewServer(d Deps) *Server {
	return &Server{
		cfg:      d.Config,
		logger:   d.Logger,
		repos:    d.Repos,
		accounts: d.Accounts,
		jobs:     d.Jobs,
		payments: d.Payments,
		uploads:  d.Uploads,
		files:    d.Files,
		signer:   d.Signer,
		limiter:  d.Limiter,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Handler returns the routes wrapped in the latency, recovery and CORS
// middleware.
func (s *Server) Handler() http.Handler {
	return utils.LatencyMiddleware(s.logger)(s.recoverer(s.cors(s.Routes())))
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.requireAuth(s.HomeHandler))
	mux.Handle("GET /metrics", metrics.Handler())
	if s.files != nil {
		mux.Handle("GET /uploads/", s.files)
	}

	// clients
	mux.HandleFunc("GET /auth/client", s.ListClientsHandler)
	mux.HandleFunc("GET /auth/client/admin", s.requireAuth(s.ListClientsByAdminHandler))
	mux.HandleFunc("POST /auth/client/admin", s.requireAuth(s.CreateClientByAdminHandler))
	mux.HandleFunc("PUT /auth/client/admin/status", s.requireAuth(s.UpdateClientStatusByAdminHandler))
	mux.HandleFunc("GET /auth/client/email", s.GetClientByEmailHandler)
	mux.HandleFunc("GET /auth/client/{id}", s.GetClientHandler)
	mux.HandleFunc("POST /auth/client/register", s.rateLimited("register", s.RegisterClientHandler))
	mux.HandleFunc("POST /auth/client/verify", s.rateLimited("verify", s.VerifyCodeHandler))
	mux.HandleFunc("POST /auth/client/login", s.LoginClientHandler)
	mux.HandleFunc("POST /auth/client/otp-send", s.rateLimited("otp", s.SendOTPHandler))
	mux.HandleFunc("POST /auth/client/otp-check", s.rateLimited("verify", s.CheckOTPHandler))
	mux.HandleFunc("POST /auth/client/change-password", s.rateLimited("verify", s.ChangePasswordHandler))
	mux.HandleFunc("POST /auth/client/reset-link", s.rateLimited("reset", s.SendResetLinkHandler))
	mux.HandleFunc("PUT /auth/client/{id}", s.UpdateClientHandler)
	mux.HandleFunc("PUT /auth/client/{id}/status", s.UpdateClientStatusHandler)
	mux.HandleFunc("PUT /auth/client/{id}/password", s.requireAuth(s.ChangePasswordByClientHandler))
	mux.HandleFunc("DELETE /auth/client/{id}", s.DeleteClientHandler)

	// sellers
	mux.HandleFunc("GET /auth/seller", s.ListSellersHandler)
	mux.HandleFunc("POST /auth/seller/register", s.rateLimited("register", s.RegisterSellerHandler))
	mux.HandleFunc("POST /auth/seller/verify", s.rateLimited("verify", s.VerifyCodeHandler))
	mux.HandleFunc("POST /auth/seller/login", s.LoginSellerHandler)
	mux.HandleFunc("GET /auth/seller/{id}", s.GetSellerHandler)
	mux.HandleFunc("PUT /auth/seller/{id}", s.UpdateSellerHandler)
	mux.HandleFunc("PUT /auth/seller/{id}/status", s.UpdateSellerStatusHandler)
	mux.HandleFunc("DELETE /auth/seller/{id}", s.DeleteSellerHandler)

	// jobs
	mux.HandleFunc("GET /auth/job", s.ListJobsHandler)
	mux.HandleFunc("POST /auth/job", s.CreateJobHandler)
	mux.HandleFunc("GET /auth/job/{id}", s.GetJobHandler)
	mux.HandleFunc("PUT /auth/job/{id}", s.UpdateJobHandler)
	mux.HandleFunc("PUT /auth/job/{id}/status", s.UpdateJobStatusHandler)
	mux.HandleFunc("DELETE /auth/job/{id}", s.DeleteJobHandler)

	// payments and invoices
	mux.HandleFunc("GET /auth/payment", s.ListPaymentsHandler)
	mux.HandleFunc("GET /auth/payment/transactions", s.ListTransactionsHandler)
	mux.HandleFunc("GET /auth/payment/{id}", s.GetPaymentHandler)
	mux.HandleFunc("DELETE /auth/payment/{id}", s.DeletePaymentHandler)
	mux.HandleFunc("POST /auth/payment/membership/{id}", s.CreateMembershipPaymentHandler)
	mux.HandleFunc("POST /auth/payment/credits", s.CreateCreditsPaymentHandler)
	mux.HandleFunc("GET /auth/invoice", s.ListInvoicesHandler)
	mux.HandleFunc("GET /auth/invoice/{id}/download", s.DownloadInvoiceHandler)

	mux.HandleFunc("/", s.NotFoundHandler)
	return mux
}
