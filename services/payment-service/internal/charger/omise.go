package charger

import (
	"context"
	"strings"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
)

// Omise charges through the Omise gateway using a pre-tokenized card.
// The card token comes from the client-side tokenization flow and is
// configured per deployment; this charger only decides approve/decline.
type Omise struct {
	client    *omise.Client
	cardToken string
}

func NewOmise(publicKey, secretKey, cardToken string) (*Omise, error) {
	c, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, err
	}
	c.SetDebug(false)
	return &Omise{client: c, cardToken: cardToken}, nil
}

func (o *Omise) Charge(_ context.Context, req Request) (Result, error) {
	ch := &omise.Charge{}
	err := o.client.Do(ch, &operations.CreateCharge{
		Amount:   subunits(req.Amount, req.Currency),
		Currency: req.Currency,
		Card:     o.cardToken,
		Metadata: map[string]any{"subscription_id": req.SubscriptionID},
	})
	if err != nil {
		return Result{}, err
	}

	switch string(ch.Status) {
	case "successful":
		return Result{Approved: true, TransactionID: ch.ID}, nil
	default:
		var reason string
		if ch.FailureCode != nil {
			reason = *ch.FailureCode
		}
		if ch.FailureMessage != nil {
			if reason != "" {
				reason += ": "
			}
			reason += *ch.FailureMessage
		}
		if reason == "" {
			reason = "charge not successful (status " + string(ch.Status) + ")"
		}
		return Result{Approved: false, TransactionID: ch.ID, FailureReason: reason}, nil
	}
}

// subunits converts a decimal amount into the gateway's integer unit.
// Zero-decimal currencies are carried as-is.
func subunits(amount float64, currency string) int64 {
	switch strings.ToUpper(currency) {
	case "XOF", "JPY", "KRW":
		return int64(amount)
	default:
		return int64(amount * 100)
	}
}
