// Package paymongo implements the gateway contract against the Paymongo
// HTTP API. Amounts cross the wire in centavos.
package paymongo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/navlink/navlink/internal/payment/domain"
	"github.com/shopspring/decimal"
)

const defaultBaseURL = "https://api.paymongo.com/v1"

var centavosPerPeso = decimal.NewFromInt(100)

type Client struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func New(baseURL, secretKey string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: strings.TrimSpace(secretKey),
		client:    &http.Client{Timeout: 12 * time.Second},
	}
}

type apiEnvelope struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Type                string `json:"type"`
			Status              string `json:"status"`
			Amount              int64  `json:"amount"`
			Currency            string `json:"currency"`
			Description         string `json:"description"`
			StatementDescriptor string `json:"statement_descriptor"`
			Redirect            struct {
				CheckoutURL string `json:"checkout_url"`
			} `json:"redirect"`
		} `json:"attributes"`
	} `json:"data"`
}

type apiErrorResponse struct {
	Errors []struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

func (c *Client) CreateSource(ctx context.Context, req domain.CreateSourceRequest) (*domain.Source, error) {
	payload := map[string]any{
		"data": map[string]any{
			"attributes": map[string]any{
				"type":     req.Type,
				"amount":   toCentavos(req.Amount),
				"currency": req.Currency,
				"redirect": map[string]any{
					"success": req.SuccessURL,
					"failed":  req.FailedURL,
				},
				"description":          req.Description,
				"statement_descriptor": req.StatementDescriptor,
				"billing": map[string]any{
					"name":  req.Billing.Name,
					"phone": req.Billing.Phone,
					"email": req.Billing.Email,
					"address": map[string]any{
						"line1": req.Billing.Line1,
						"line2": req.Billing.Line2,
						"city":  req.Billing.City,
					},
				},
			},
		},
	}

	envelope, err := c.doRequest(ctx, http.MethodPost, "/sources", payload)
	if err != nil {
		return nil, err
	}
	return sourceFromEnvelope(envelope), nil
}

func (c *Client) FindSource(ctx context.Context, id string) (*domain.Source, error) {
	envelope, err := c.doRequest(ctx, http.MethodGet, "/sources/"+id, nil)
	if err != nil {
		return nil, err
	}
	if envelope.Data.ID == "" {
		return nil, domain.ErrSourceNotFound
	}
	return sourceFromEnvelope(envelope), nil
}

func (c *Client) CreatePayment(ctx context.Context, req domain.CreatePaymentRequest) (*domain.Payment, error) {
	payload := map[string]any{
		"data": map[string]any{
			"attributes": map[string]any{
				"amount":               toCentavos(req.Amount),
				"currency":             req.Currency,
				"description":          req.Description,
				"statement_descriptor": req.StatementDescriptor,
				"source": map[string]any{
					"id":   req.SourceID,
					"type": "source",
				},
			},
		},
	}

	envelope, err := c.doRequest(ctx, http.MethodPost, "/payments", payload)
	if err != nil {
		return nil, err
	}
	return &domain.Payment{
		ID:     envelope.Data.ID,
		Status: envelope.Data.Attributes.Status,
	}, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload any) (apiEnvelope, error) {
	if c.secretKey == "" {
		return apiEnvelope{}, domain.ErrInvalidConfig
	}

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return apiEnvelope{}, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &body)
	if err != nil {
		return apiEnvelope{}, err
	}
	req.Header.Set("Authorization", "Basic "+basicAuth(c.secretKey))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apiEnvelope{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return apiEnvelope{}, domain.ErrSourceNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && len(apiErr.Errors) > 0 {
			return apiEnvelope{}, fmt.Errorf("%w: %s", domain.ErrRequestFailed, strings.TrimSpace(apiErr.Errors[0].Detail))
		}
		return apiEnvelope{}, domain.ErrRequestFailed
	}

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return apiEnvelope{}, err
	}
	return envelope, nil
}

func sourceFromEnvelope(envelope apiEnvelope) *domain.Source {
	return &domain.Source{
		ID:                  envelope.Data.ID,
		Type:                envelope.Data.Attributes.Type,
		Status:              envelope.Data.Attributes.Status,
		Amount:              fromCentavos(envelope.Data.Attributes.Amount),
		Currency:            envelope.Data.Attributes.Currency,
		Description:         envelope.Data.Attributes.Description,
		StatementDescriptor: envelope.Data.Attributes.StatementDescriptor,
		CheckoutURL:         envelope.Data.Attributes.Redirect.CheckoutURL,
	}
}

func toCentavos(amount decimal.Decimal) int64 {
	return amount.Mul(centavosPerPeso).Round(0).IntPart()
}

func fromCentavos(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(centavosPerPeso)
}

func basicAuth(secretKey string) string {
	return base64.StdEncoding.EncodeToString([]byte(secretKey + ":"))
}
