package payment

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/nhupane/gopasal/pkg/config"
)

// Client implements Provider against a Khalti-style ePayment HTTP API.
// All calls go through a circuit breaker so a dead provider fails fast
// instead of tying up request handlers.
type Client struct {
	http      *resty.Client
	returnURL string
	breaker   *gobreaker.CircuitBreaker[*resty.Response]
}

func NewClient(cfg config.PaymentConfig) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", "Key "+cfg.SecretKey).
		SetHeader("Content-Type", "application/json")

	st := gobreaker.Settings{
		Name:        "payment-provider-cb",
		MaxRequests: 3,
		Timeout:     cfg.Breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > cfg.Breaker.ConsecutiveFailures ||
				(counts.TotalSuccesses+counts.TotalFailures > cfg.Breaker.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(counts.TotalSuccesses+counts.TotalFailures)*100 > float64(cfg.Breaker.ErrorRatePercent))
		},
	}

	return &Client{
		http:      httpClient,
		returnURL: cfg.ReturnURL,
		breaker:   gobreaker.NewCircuitBreaker[*resty.Response](st),
	}
}

type initiateRequest struct {
	ReturnURL         string `json:"return_url"`
	WebsiteURL        string `json:"website_url"`
	Amount            int64  `json:"amount"`
	PurchaseOrderID   string `json:"purchase_order_id"`
	PurchaseOrderName string `json:"purchase_order_name"`
}

type initiateResponse struct {
	Pidx       string `json:"pidx"`
	PaymentURL string `json:"payment_url"`
}

type lookupRequest struct {
	Pidx string `json:"pidx"`
}

type lookupResponse struct {
	Pidx        string `json:"pidx"`
	Status      string `json:"status"`
	TotalAmount int64  `json:"total_amount"`
}

// Initiate registers a pending payment with the provider.
func (c *Client) Initiate(ctx context.Context, orderID uuid.UUID, amount int64) (*InitiateResult, error) {
	var result initiateResponse
	req := initiateRequest{
		ReturnURL:         c.returnURL,
		WebsiteURL:        c.returnURL,
		Amount:            amount,
		PurchaseOrderID:   orderID.String(),
		PurchaseOrderName: fmt.Sprintf("Order #%s", orderID),
	}

	resp, err := c.breaker.Execute(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetBody(req).
			SetResult(&result).
			Post("/epayment/initiate/")
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("payment initiate returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return &InitiateResult{Ref: result.Pidx, PaymentURL: result.PaymentURL}, nil
}

// Verify looks up the state of a transaction by its reference.
func (c *Client) Verify(ctx context.Context, ref string) (*VerifyResult, error) {
	var result lookupResponse

	resp, err := c.breaker.Execute(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetBody(lookupRequest{Pidx: ref}).
			SetResult(&result).
			Post("/epayment/lookup/")
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("payment lookup returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return &VerifyResult{Ref: result.Pidx, State: result.Status, Amount: result.TotalAmount}, nil
}

var _ Provider = (*Client)(nil)
