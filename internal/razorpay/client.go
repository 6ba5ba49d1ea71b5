package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const (
	defaultBaseURL = "https://api.razorpay.com/v1"

	// Razorpay's sandbox rejects orders above 5000 INR. Only applied
	// when the client runs in test mode; live keys have no ceiling.
	testModeMaxPaise = 500000
)

var hundred = decimal.NewFromInt(100)

// Client talks to the Razorpay REST API. Amounts cross this boundary
// as decimal INR and leave it as integer paise.
type Client struct {
	http      *resty.Client
	keySecret string
	testMode  bool
}

func NewClient(keyID, keySecret string, testMode bool) *Client {
	hc := resty.New().
		SetBaseURL(defaultBaseURL).
		SetTimeout(10 * time.Second).
		SetBasicAuth(keyID, keySecret).
		SetHeader("Content-Type", "application/json")
	return &Client{http: hc, keySecret: keySecret, testMode: testMode}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *Client) SetBaseURL(u string) {
	c.http.SetBaseURL(u)
}

type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type Payment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Method   string `json:"method"`
	Email    string `json:"email"`
	Contact  string `json:"contact"`
}

// APIError is a non-2xx response from Razorpay.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("razorpay: %s (%s, http %d)", e.Description, e.Code, e.StatusCode)
}

type errorEnvelope struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// ToPaise converts a decimal INR amount to integer paise, rounding
// half up the way the gateway expects.
func ToPaise(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// CreateOrder reserves the amount on the gateway side and returns the
// created order. In test mode amounts above the sandbox ceiling are
// capped with a warning; live amounts are sent as-is.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string, notes map[string]string) (*Order, error) {
	paise := ToPaise(amount)
	if paise <= 0 {
		return nil, fmt.Errorf("razorpay: order amount must be positive, got %s INR", amount)
	}
	if c.testMode && paise > testModeMaxPaise {
		log.Printf("razorpay: amount %d paise exceeds the test-mode ceiling, capping at %d", paise, testModeMaxPaise)
		paise = testModeMaxPaise
	}

	body := map[string]any{
		"amount":   paise,
		"currency": "INR",
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		body["notes"] = notes
	}

	var order Order
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&order).
		SetError(&errorEnvelope{}).
		Post("/orders")
	if err != nil {
		return nil, fmt.Errorf("razorpay: create order: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &order, nil
}

// VerifySignature checks the client-supplied payment confirmation
// against the shared key secret. Constant-time comparison.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// FetchPayment looks up a captured payment. Only called after the
// signature has verified.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	var payment Payment
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&payment).
		SetError(&errorEnvelope{}).
		Get("/payments/" + url.PathEscape(paymentID))
	if err != nil {
		return nil, fmt.Errorf("razorpay: fetch payment: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &payment, nil
}

// ReceiptURL returns the dashboard page for a payment. Used as the
// invoice reference when no receipt store is configured.
func (c *Client) ReceiptURL(paymentID string) string {
	return "https://dashboard.razorpay.com/app/payments/" + paymentID
}

func apiError(resp *resty.Response) error {
	env, _ := resp.Error().(*errorEnvelope)
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	if env != nil {
		apiErr.Code = env.Error.Code
		apiErr.Description = env.Error.Description
	}
	if apiErr.Description == "" {
		apiErr.Description = resp.Status()
	}
	return apiErr
}
