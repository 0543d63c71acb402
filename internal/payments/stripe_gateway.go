package payments

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// Gateway creates payment intents with the payment provider
type Gateway interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency, bookingRef string) (intentID, clientSecret string, err error)
}

// StripeGateway implements Gateway against the Stripe API
type StripeGateway struct{}

// NewStripeGateway configures the Stripe SDK from STRIPE_API_KEY
func NewStripeGateway() *StripeGateway {
	stripe.Key = os.Getenv("STRIPE_API_KEY")
	return &StripeGateway{}
}

// CreateIntent creates a Stripe payment intent for the amount. Stripe expects
// amounts in the currency's minor unit.
func (g *StripeGateway) CreateIntent(ctx context.Context, amount decimal.Decimal, currency, bookingRef string) (string, string, error) {
	minorUnits := amount.Mul(decimal.NewFromInt(100)).IntPart()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minorUnits),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	params.AddMetadata("booking_ref", bookingRef)

	intent, err := paymentintent.New(params)
	if err != nil {
		return "", "", fmt.Errorf("failed to create payment intent: %w", err)
	}

	return intent.ID, intent.ClientSecret, nil
}

var _ Gateway = (*StripeGateway)(nil)
