package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/quizbite/quizbite/config"
	"github.com/quizbite/quizbite/internal/dto"
	"github.com/quizbite/quizbite/internal/model"
)

// donationUnitAmount is the price of sponsoring one question, in cents.
const donationUnitAmount = 5000

type PaymentService interface {
	// CreateDonation starts a checkout session for sponsoring new
	// questions and returns the redirect URL.
	CreateDonation(ctx context.Context, req dto.DonationRequest) (*dto.DonationResponse, error)
}

type paymentService struct {
	secrets   *secretsmanager.Client
	secretARN string

	// the Stripe key lives in Secrets Manager and is fetched on first
	// use, not at startup
	once   sync.Once
	stripe *client.API
	keyErr error
}

func NewPaymentService(secrets *secretsmanager.Client, cfg *config.Config) PaymentService {
	return &paymentService{secrets: secrets, secretARN: cfg.Payments.SecretARN}
}

type stripeKeys struct {
	PubKey string `json:"pub_key"`
	Secret string `json:"secret"`
}

func (s *paymentService) api(ctx context.Context) (*client.API, error) {
	s.once.Do(func() {
		out, err := s.secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId: aws.String(s.secretARN),
		})
		if err != nil {
			s.keyErr = fmt.Errorf("fetching payment keys: %w", err)
			return
		}

		var keys stripeKeys
		if err := json.Unmarshal([]byte(aws.ToString(out.SecretString)), &keys); err != nil {
			s.keyErr = fmt.Errorf("decoding payment keys: %w", err)
			return
		}
		if keys.Secret == "" {
			s.keyErr = fmt.Errorf("payment secret is empty")
			return
		}

		api := &client.API{}
		api.Init(keys.Secret, nil)
		s.stripe = api
	})
	return s.stripe, s.keyErr
}

func (s *paymentService) CreateDonation(ctx context.Context, req dto.DonationRequest) (*dto.DonationResponse, error) {
	api, err := s.api(ctx)
	if err != nil {
		return nil, err
	}

	product, err := api.Products.New(&stripe.ProductParams{
		Params: stripe.Params{Context: ctx},
		Name:   stripe.String("Question donation"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}

	price, err := api.Prices.New(&stripe.PriceParams{
		Params:     stripe.Params{Context: ctx},
		Product:    stripe.String(product.ID),
		Currency:   stripe.String(string(stripe.CurrencyUSD)),
		UnitAmount: stripe.Int64(donationUnitAmount),
	})
	if err != nil {
		return nil, fmt.Errorf("creating price: %w", err)
	}

	session, err := api.CheckoutSessions.New(&stripe.CheckoutSessionParams{
		Params:        stripe.Params{Context: ctx},
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(req.ContactEmail),
		// the marker lets the success page read the session back
		SuccessURL: stripe.String(req.SuccessURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(price.ID),
			Quantity: stripe.Int64(req.Qty),
			AdjustableQuantity: &stripe.CheckoutSessionLineItemAdjustableQuantityParams{
				Enabled: stripe.Bool(true),
				Minimum: stripe.Int64(1),
				Maximum: stripe.Int64(10),
			},
		}},
		Metadata: donationMetadata(req),
	})
	if err != nil {
		return nil, fmt.Errorf("creating checkout session: %w", err)
	}

	log.Info().Str("session", session.ID).Int64("qty", req.Qty).Msg("Donation checkout started")
	return &dto.DonationResponse{ID: session.ID, URL: session.URL}, nil
}

// donationMetadata records who sponsored the order and for which
// topics, so fulfilment can attribute the resulting questions.
func donationMetadata(req dto.DonationRequest) map[string]string {
	contributor := ""
	if req.Contributor != nil {
		contributor = req.Contributor.String()
	}
	return map[string]string{
		"contributor": contributor,
		"topics":      strings.Join(model.FilterValidTopics(req.Topics), ","),
	}
}
