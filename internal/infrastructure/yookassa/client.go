// Package yookassa wraps the YooKassa REST API: payment creation, webhook
// envelope parsing and the provider's trusted network list.
package yookassa

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const baseURL = "https://api.yookassa.ru/v3"

// Config carries the shop credentials and the fixed payment parameters.
type Config struct {
	ShopID       string
	SecretKey    string
	Amount       string
	Currency     string
	Description  string
	ReturnURL    string
	ReceiptEmail string
	ReceiptPhone string
}

// Client creates payments against YooKassa.
type Client struct {
	http *resty.Client
	cfg  Config
}

// NewClient builds a client authenticated with the shop credentials.
func NewClient(cfg Config) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(cfg.ShopID, cfg.SecretKey).
		SetHeader("Content-Type", "application/json")
	return &Client{http: httpClient, cfg: cfg}
}

type amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type receiptItem struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	Amount      amount `json:"amount"`
	VATCode     int    `json:"vat_code"`
}

type receipt struct {
	Customer struct {
		Email string `json:"email,omitempty"`
		Phone string `json:"phone,omitempty"`
	} `json:"customer"`
	Items         []receiptItem `json:"items"`
	TaxSystemCode int           `json:"tax_system_code"`
}

type confirmationRequest struct {
	Type      string `json:"type"`
	ReturnURL string `json:"return_url"`
}

type createRequest struct {
	Amount       amount              `json:"amount"`
	Capture      bool                `json:"capture"`
	Description  string              `json:"description"`
	Confirmation confirmationRequest `json:"confirmation"`
	Receipt      receipt             `json:"receipt"`
}

type createResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Confirmation struct {
		ConfirmationURL string `json:"confirmation_url"`
	} `json:"confirmation"`
	Description string `json:"description"`
}

// CreatePayment creates a one-time redirect payment and returns its id and
// confirmation URL. The Idempotence-Key header guards against duplicate
// charges if the request is retried.
func (c *Client) CreatePayment(ctx context.Context) (string, string, error) {
	req := createRequest{
		Amount:      amount{Value: c.cfg.Amount, Currency: c.cfg.Currency},
		Capture:     true,
		Description: c.cfg.Description,
		Confirmation: confirmationRequest{
			Type:      "redirect",
			ReturnURL: c.cfg.ReturnURL,
		},
		Receipt: receipt{
			Items: []receiptItem{{
				Description: c.cfg.Description,
				Quantity:    "1.00",
				Amount:      amount{Value: c.cfg.Amount, Currency: c.cfg.Currency},
				VATCode:     2,
			}},
			TaxSystemCode: 1,
		},
	}
	req.Receipt.Customer.Email = c.cfg.ReceiptEmail
	req.Receipt.Customer.Phone = c.cfg.ReceiptPhone

	var created createResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Idempotence-Key", uuid.NewString()).
		SetBody(req).
		SetResult(&created).
		Post("/payments")
	if err != nil {
		return "", "", err
	}
	if resp.IsError() {
		return "", "", fmt.Errorf("yookassa create payment: status %d: %s", resp.StatusCode(), resp.String())
	}
	return created.ID, created.Confirmation.ConfirmationURL, nil
}
