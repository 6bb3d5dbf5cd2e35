package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeGateway implements Gateway on the Stripe API.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway uses the default Stripe backends. backends may be nil.
func NewStripeGateway(secretKey string, backends *stripe.Backends) *StripeGateway {
	return &StripeGateway{api: client.New(secretKey, backends)}
}

func (g *StripeGateway) FindCustomer(ctx context.Context, email string) (*Customer, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	it := g.api.Customers.List(params)
	if it.Next() {
		return toCustomer(it.Customer()), nil
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return nil, nil
}

func (g *StripeGateway) FindOrCreateCustomer(ctx context.Context, email, name string) (*Customer, error) {
	existing, err := g.FindCustomer(ctx, email)
	if err != nil || existing != nil {
		return existing, err
	}

	params := &stripe.CustomerParams{Email: stripe.String(email), Name: stripe.String(name)}
	params.Context = ctx
	c, err := g.api.Customers.New(params)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return toCustomer(c), nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:                     stripe.String(req.Mode),
		Customer:                 stripe.String(req.CustomerID),
		PaymentMethodTypes:       stripe.StringSlice(req.PaymentMethods),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		SuccessURL:               stripe.String(req.SuccessURL),
		CancelURL:                stripe.String(req.CancelURL),
		AutomaticTax:             &stripe.CheckoutSessionAutomaticTaxParams{Enabled: stripe.Bool(true)},
		CustomerUpdate:           &stripe.CheckoutSessionCustomerUpdateParams{Address: stripe.String("auto")},
	}
	params.Context = ctx

	if req.PriceID != "" {
		params.LineItems = []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(req.PriceID),
			Quantity: stripe.Int64(1),
		}}
	} else {
		params.LineItems = []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(req.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(req.ProductName),
					Description: stripe.String(req.ProductDescription),
					TaxCode:     stripe.String(req.TaxCode),
				},
				UnitAmount: stripe.Int64(req.UnitAmount),
			},
			Quantity: stripe.Int64(1),
		}}
	}
	if req.CreateInvoice {
		params.InvoiceCreation = &stripe.CheckoutSessionInvoiceCreationParams{Enabled: stripe.Bool(true)}
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &Session{ID: s.ID, URL: s.URL}, nil
}

func (g *StripeGateway) ListInvoices(ctx context.Context, customerID string, limit int64) ([]Invoice, error) {
	params := &stripe.InvoiceListParams{Customer: stripe.String(customerID)}
	params.Context = ctx
	params.Limit = stripe.Int64(limit)

	invoices := []Invoice{}
	it := g.api.Invoices.List(params)
	for int64(len(invoices)) < limit && it.Next() {
		invoices = append(invoices, toInvoice(it.Invoice()))
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

func (g *StripeGateway) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	params := &stripe.InvoiceParams{}
	params.Context = ctx
	in, err := g.api.Invoices.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	out := toInvoice(in)
	return &out, nil
}

func toCustomer(c *stripe.Customer) *Customer {
	return &Customer{ID: c.ID, Email: c.Email, Name: c.Name}
}

func toInvoice(in *stripe.Invoice) Invoice {
	return Invoice{
		ID:         in.ID,
		Number:     in.Number,
		Status:     string(in.Status),
		Currency:   string(in.Currency),
		AmountDue:  in.AmountDue,
		AmountPaid: in.AmountPaid,
		Created:    in.Created,
		HostedURL:  in.HostedInvoiceURL,
		PDF:        in.InvoicePDF,
	}
}
