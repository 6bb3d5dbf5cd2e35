package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/suisse-offerten/marketplace-api/config"
	"github.com/suisse-offerten/marketplace-api/metrics"
	"github.com/suisse-offerten/marketplace-api/models"
	"github.com/suisse-offerten/marketplace-api/payment"
	"github.com/suisse-offerten/marketplace-api/store"
)

// FreePlan is the membership plan that needs no checkout.
const FreePlan = "free-plan"

// DefaultInvoiceLimit applies when ListInvoices gets no limit.
const DefaultInvoiceLimit = 20

type CreditsInput struct {
	ID       string  `json:"id"`
	Credits  int     `json:"credits" validate:"required,gt=0"`
	Price    float64 `json:"price" validate:"required,gt=0"`
	SellerID string  `json:"sellerId" validate:"required"`
}

// Payments opens checkout sessions for memberships and credits and records
// them as pending transactions. Settlement arrives through the gateway
// webhook, which this service does not handle.
type Payments struct {
	repos   store.Repositories
	gateway payment.Gateway
	cfg     config.StripeConfig
	siteURL string
	logger  zerolog.Logger
}

func NewPayments(repos store.Repositories, gateway payment.Gateway, cfg *config.Config, logger zerolog.Logger) *Payments {
	return &Payments{
		repos:   repos,
		gateway: gateway,
		cfg:     cfg.Stripe,
		siteURL: strings.TrimRight(cfg.HTTP.CorsURL, "/"),
		logger:  logger,
	}
}

// CreateMembershipPayment returns the page the seller should be sent to.
// The free plan is applied directly; paid plans get a subscription checkout
// and the seller's membership fields are updated before payment completes.
func (p *Payments) CreateMembershipPayment(ctx context.Context, sellerID string, plan models.MembershipPlan) (string, error) {
	successURL := p.siteURL + "/seller-dashboard/payment-success"
	cancelURL := p.siteURL + "/seller-dashboard/membership/buy"

	seller, err := p.repos.Sellers.FindByID(ctx, sellerID)
	if err != nil {
		return "", err
	}

	if plan.Plan == FreePlan {
		seller.MemberShip = &plan
		seller.Credits = plan.Credit
		seller.MemberShipStatus = models.MembershipComplete
		if err := p.repos.Sellers.Save(ctx, seller); err != nil {
			return "", fmt.Errorf("apply free plan: %w", err)
		}
		metrics.CheckoutSessionsTotal.WithLabelValues("free", "ok").Inc()
		return successURL, nil
	}

	priceID := p.cfg.PriceID(plan.Plan)
	if priceID == "" {
		return "", ErrInvalidPlan
	}

	customer, err := p.gateway.FindOrCreateCustomer(ctx, seller.Email, seller.Username)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	session, err := p.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		Mode:           payment.ModeSubscription,
		CustomerID:     customer.ID,
		PaymentMethods: []string{"card"},
		PriceID:        priceID,
		SuccessURL:     successURL,
		CancelURL:      cancelURL,
		Metadata:       map[string]string{"sellerId": sellerID, "planId": plan.ID},
	})
	metrics.CheckoutSessionsTotal.WithLabelValues(payment.ModeSubscription, metrics.Result(err)).Inc()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}

	tx := &models.Transaction{
		TransactionID: session.ID,
		SellerID:      sellerID,
		MemberShip:    toMap(plan),
		Cost:          plan.CurrentPrice,
		Status:        models.TransactionPending,
	}
	if err := p.repos.Transactions.Create(ctx, tx); err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}

	if seller.MemberShipStatus == models.MembershipActive {
		seller.ExtendCredit = plan.Credit
		seller.ExtendTime = plan.PlanTime
		seller.ExtendMembership = &plan
	} else {
		seller.MemberShipStatus = models.MembershipNotComplete
	}
	if err := p.repos.Sellers.Save(ctx, seller); err != nil {
		return "", fmt.Errorf("update seller membership: %w", err)
	}
	return session.URL, nil
}

// CreateCreditsPayment opens a one-off checkout for a credit pack and marks
// the credits as pending on the seller.
func (p *Payments) CreateCreditsPayment(ctx context.Context, in CreditsInput) (string, error) {
	seller, err := p.repos.Sellers.FindByID(ctx, in.SellerID)
	if err != nil {
		return "", err
	}

	customer, err := p.gateway.FindOrCreateCustomer(ctx, seller.Email, seller.Username)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	currency := strings.ToUpper(p.cfg.CreditCurrency)
	session, err := p.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		Mode:               payment.ModePayment,
		CustomerID:         customer.ID,
		PaymentMethods:     []string{"card", "twint"},
		SuccessURL:         p.siteURL + "/seller-dashboard/seller-credit/payment-success",
		CancelURL:          p.siteURL + "/seller-dashboard/seller-credit",
		ProductName:        fmt.Sprintf("%d Credits", in.Credits),
		ProductDescription: fmt.Sprintf("Sie kaufen %d Gutschriften für %s %s.", in.Credits, currency, formatPrice(in.Price)),
		TaxCode:            p.cfg.CreditTaxCode,
		Currency:           strings.ToLower(p.cfg.CreditCurrency),
		UnitAmount:         int64(math.Round(in.Price * 100)),
		CreateInvoice:      true,
		Metadata: map[string]string{
			"sellerId":        in.SellerID,
			"creditId":        in.ID,
			"additional_info": fmt.Sprintf("Kauf von %d Credits", in.Credits),
		},
	})
	metrics.CheckoutSessionsTotal.WithLabelValues(payment.ModePayment, metrics.Result(err)).Inc()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}

	tx := &models.Transaction{
		TransactionID: session.ID,
		SellerID:      in.SellerID,
		MemberShip:    toMap(in),
		Cost:          in.Price,
		Status:        models.TransactionPending,
	}
	if err := p.repos.Transactions.Create(ctx, tx); err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}

	seller.PendingCredits = in.Credits
	if err := p.repos.Sellers.Save(ctx, seller); err != nil {
		return "", fmt.Errorf("update pending credits: %w", err)
	}
	return session.URL, nil
}

// ListInvoices returns the invoices of the customer registered under email,
// or an empty list when the gateway knows no such customer.
func (p *Payments) ListInvoices(ctx context.Context, email string, limit int64) ([]payment.Invoice, error) {
	if limit <= 0 {
		limit = DefaultInvoiceLimit
	}
	customer, err := p.gateway.FindCustomer(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	if customer == nil {
		return []payment.Invoice{}, nil
	}
	invoices, err := p.gateway.ListInvoices(ctx, customer.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	return invoices, nil
}

// InvoicePDF returns the download URL of an invoice, or store.ErrNotFound
// when the invoice has no PDF yet.
func (p *Payments) InvoicePDF(ctx context.Context, id string) (string, error) {
	invoice, err := p.gateway.GetInvoice(ctx, id)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	if invoice.PDF == "" {
		return "", fmt.Errorf("%w: %w", store.ErrNotFound, payment.ErrNoInvoicePDF)
	}
	return invoice.PDF, nil
}

// toMap stores a request payload the way it arrived, as a JSON object.
func toMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func formatPrice(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
