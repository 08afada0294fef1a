package paygate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// Reconciled outcomes: the gateway already holds the state we asked for.
// Callers treat these as success, not failure.
var (
	ErrAlreadyRefunded  = errors.New("gateway: charge already refunded")
	ErrAlreadyCancelled = errors.New("gateway: subscription already cancelled")
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *log.Entry
}

// NewClient builds a gateway client. The timeout bounds every call; a
// timed-out charge or refund is reported as failure, never assumed done.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		log:     log.WithField("component", "paygate"),
	}
}

func (c *Client) CreateCheckoutSession(ctx context.Context, input CheckoutInput) (*CheckoutSession, error) {
	payload := checkoutRequest{
		Amount:            input.Amount,
		Currency:          currencyOrDefault(input.Currency),
		Mode:              "payment",
		Description:       input.Description,
		CustomerEmail:     input.CustomerEmail,
		SuccessURL:        input.SuccessURL,
		CancelURL:         input.CancelURL,
		ExternalReference: input.DealID,
	}

	var session CheckoutSession
	if err := c.post(ctx, "/v1/checkout/sessions", payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) CreateSubscriptionSession(ctx context.Context, input SubscriptionInput) (*CheckoutSession, error) {
	payload := checkoutRequest{
		Amount:            input.Amount,
		Currency:          currencyOrDefault(input.Currency),
		Mode:              "subscription",
		Interval:          intervalOrDefault(input.Interval),
		Description:       input.Description,
		CustomerEmail:     input.CustomerEmail,
		SuccessURL:        input.SuccessURL,
		CancelURL:         input.CancelURL,
		ExternalReference: input.DealID,
	}

	var session CheckoutSession
	if err := c.post(ctx, "/v1/checkout/sessions", payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) Refund(ctx context.Context, input RefundInput) (*RefundResult, error) {
	payload := refundRequest{
		Session: input.SessionID,
		Amount:  input.Amount,
		Reason:  input.Reason,
	}

	var result RefundResult
	if err := c.post(ctx, "/v1/refunds", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) error {
	url := fmt.Sprintf("%s/v1/subscriptions/%s", c.baseURL, subscriptionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.decodeError(resp)
	}
	return nil
}

func (c *Client) RetrieveSession(ctx context.Context, sessionID string) (*Session, error) {
	url := fmt.Sprintf("%s/v1/checkout/sessions/%s", c.baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.decodeError(resp)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("gateway decode: %w", err)
	}
	return &session, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("gateway marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gateway decode: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

func (c *Client) decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil {
		switch er.Error.Code {
		case "charge_already_refunded":
			return ErrAlreadyRefunded
		case "subscription_already_cancelled", "subscription_already_canceled":
			return ErrAlreadyCancelled
		}
		if er.Error.Message != "" {
			return fmt.Errorf("gateway error (status %d): %s", resp.StatusCode, er.Error.Message)
		}
	}

	c.log.WithField("status", resp.StatusCode).Warn("gateway returned unparseable error body")
	return fmt.Errorf("gateway error (status %d)", resp.StatusCode)
}

func currencyOrDefault(currency string) string {
	if currency == "" {
		return "usd"
	}
	return currency
}

func intervalOrDefault(interval string) string {
	if interval == "" {
		return "MONTHLY"
	}
	return interval
}
