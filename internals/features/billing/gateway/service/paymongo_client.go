package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

const PayMongoBaseURL = "https://api.paymongo.com/v1"

type PayMongoConfig struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// PayMongoClient talks to the PayMongo payment intent API.
type PayMongoClient struct {
	baseURL string
	auth    string
	http    *http.Client
}

func NewPayMongoClient(cfg PayMongoConfig) *PayMongoClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = PayMongoBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &PayMongoClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		auth:    "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.SecretKey+":")),
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

var _ Client = (*PayMongoClient)(nil)

func (c *PayMongoClient) Name() string { return "paymongo" }

type pmEnvelope struct {
	Data   *pmResource `json:"data"`
	Errors []pmError   `json:"errors"`
}

type pmResource struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Status      string `json:"status"`
		CheckoutURL string `json:"checkout_url"`
		NextAction  *struct {
			Type     string `json:"type"`
			Redirect struct {
				URL string `json:"url"`
			} `json:"redirect"`
		} `json:"next_action"`
	} `json:"attributes"`
}

type pmError struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

func (r *pmResource) intent(raw []byte) *Intent {
	in := &Intent{
		ID:            r.ID,
		GatewayStatus: r.Attributes.Status,
		Outcome:       MapPayMongoStatus(r.Attributes.Status),
		Raw:           raw,
	}
	if na := r.Attributes.NextAction; na != nil && na.Redirect.URL != "" {
		in.CheckoutURL = na.Redirect.URL
	} else {
		in.CheckoutURL = r.Attributes.CheckoutURL
	}
	return in
}

func (c *PayMongoClient) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	attrs := map[string]any{
		"amount":               req.AmountMinor,
		"currency":             req.Currency,
		"description":          req.Description,
		"statement_descriptor": "WATERWORKS",
		"metadata":             req.Metadata,
	}
	res, raw, err := c.do(ctx, http.MethodPost, "/payment_intents", map[string]any{"data": map[string]any{"attributes": attrs}})
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return res.intent(raw), nil
}

// AttachMethod creates a payment method of the given type and attaches it,
// which is what makes PayMongo issue the checkout redirect.
func (c *PayMongoClient) AttachMethod(ctx context.Context, intentID string, m MethodDetails) (*Intent, error) {
	billing := map[string]any{"name": m.Customer.Name, "email": m.Customer.Email}
	if m.Customer.Phone != "" {
		billing["phone"] = m.Customer.Phone
	}
	method, _, err := c.do(ctx, http.MethodPost, "/payment_methods", map[string]any{
		"data": map[string]any{"attributes": map[string]any{"type": m.Type, "billing": billing}},
	})
	if err != nil {
		return nil, fmt.Errorf("create payment method: %w", err)
	}

	res, raw, err := c.do(ctx, http.MethodPost, "/payment_intents/"+intentID+"/attach", map[string]any{
		"data": map[string]any{"attributes": map[string]any{
			"payment_method": method.ID,
			"return_url":     m.ReturnURL,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("attach payment method: %w", err)
	}
	in := res.intent(raw)
	in.MethodID = method.ID
	return in, nil
}

func (c *PayMongoClient) RetrieveIntent(ctx context.Context, intentID string) (*Intent, error) {
	res, raw, err := c.do(ctx, http.MethodGet, "/payment_intents/"+intentID, nil)
	if err != nil {
		return nil, fmt.Errorf("retrieve payment intent: %w", err)
	}
	return res.intent(raw), nil
}

func (c *PayMongoClient) do(ctx context.Context, method, path string, body any) (*pmResource, []byte, error) {
	var rd io.Reader
	if body != nil {
		b, err := sonic.Marshal(body)
		if err != nil {
			return nil, nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, nil, err
	}
	var env pmEnvelope
	if len(raw) > 0 {
		if err := sonic.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return nil, raw, fmt.Errorf("decode response: %w", err)
		}
	}
	if resp.StatusCode >= 300 {
		detail := "Unknown error"
		if len(env.Errors) > 0 && env.Errors[0].Detail != "" {
			detail = env.Errors[0].Detail
		}
		return nil, raw, fmt.Errorf("paymongo %s %s: status %d: %s", method, path, resp.StatusCode, detail)
	}
	if env.Data == nil {
		return nil, raw, fmt.Errorf("paymongo %s %s: empty data", method, path)
	}
	return env.Data, raw, nil
}
