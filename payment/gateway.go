// Package payment talks to the payment processor: customers, hosted
// checkout sessions and invoices.
package payment

import (
	"context"
	"errors"
)

// Checkout modes.
const (
	ModeSubscription = "subscription"
	ModePayment      = "payment"
)

var ErrNoInvoicePDF = errors.New("invoice has no pdf")

type Customer struct {
	ID    string
	Email string
	Name  string
}

// CheckoutRequest describes one hosted checkout page. Subscriptions use
// PriceID; one-off payments use the inline price fields.
type CheckoutRequest struct {
	Mode           string
	CustomerID     string
	PaymentMethods []string
	SuccessURL     string
	CancelURL      string
	Metadata       map[string]string

	PriceID string

	ProductName        string
	ProductDescription string
	TaxCode            string
	Currency           string
	UnitAmount         int64 // minor units
	CreateInvoice      bool
}

type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type Invoice struct {
	ID         string `json:"id"`
	Number     string `json:"number"`
	Status     string `json:"status"`
	Currency   string `json:"currency"`
	AmountDue  int64  `json:"amount_due"`
	AmountPaid int64  `json:"amount_paid"`
	Created    int64  `json:"created"`
	HostedURL  string `json:"hosted_invoice_url"`
	PDF        string `json:"invoice_pdf"`
}

// Gateway is the subset of the payment processor the marketplace uses.
type Gateway interface {
	// FindCustomer returns nil, nil when no customer has email.
	FindCustomer(ctx context.Context, email string) (*Customer, error)
	FindOrCreateCustomer(ctx context.Context, email, name string) (*Customer, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error)
	ListInvoices(ctx context.Context, customerID string, limit int64) ([]Invoice, error)
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
}
