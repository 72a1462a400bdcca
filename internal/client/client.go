// Package client talks to the invoice REST API: invoice listing and creation,
// and the send-email endpoint used for reminders.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/invoice-ai-manager/server/internal/agent/model"
	errx "github.com/invoice-ai-manager/server/internal/core/error"
	logx "github.com/invoice-ai-manager/server/pkg/logger"
)

// Config binds the API_* variables.
type Config struct {
	BaseURL string        `envconfig:"API_BASE_URL" required:"true"`
	APIKey  string        `envconfig:"API_KEY"`
	Timeout time.Duration `envconfig:"API_TIMEOUT" default:"15s"`
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New builds a client. hc may be nil.
func New(cfg Config, hc *http.Client) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api base url is empty")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    hc,
	}, nil
}

// ListInvoices fetches every invoice. No filtering happens server side.
func (c *Client) ListInvoices(ctx context.Context) ([]model.Invoice, error) {
	var out []model.Invoice
	if err := c.do(ctx, http.MethodGet, "/invoices", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Invoice{}
	}
	return out, nil
}

// ListAll implements model.InvoiceSource.
func (c *Client) ListAll(ctx context.Context) ([]model.Invoice, error) {
	return c.ListInvoices(ctx)
}

// GetInvoice fetches one invoice by id.
func (c *Client) GetInvoice(ctx context.Context, id string) (*model.Invoice, error) {
	var out model.Invoice
	if err := c.do(ctx, http.MethodGet, "/invoices/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateInvoice posts a new invoice and returns the stored record.
func (c *Client) CreateInvoice(ctx context.Context, draft model.InvoiceDraft) (*model.Invoice, error) {
	var out model.Invoice
	if err := c.do(ctx, http.MethodPost, "/invoices", draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendEmail asks the API to email one reminder. The response body is ignored.
func (c *Client) SendEmail(ctx context.Context, req model.NotificationRequest) error {
	return c.do(ctx, http.MethodPost, "/send-email", req, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, endpoint, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		logx.Error().Err(err).Str("method", method).Str("endpoint", endpoint).Msg("invoice api request failed")
		return errx.WrapTransport(err, 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		apiErr := fmt.Errorf("API Error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		logx.Warn().Int("status", resp.StatusCode).Str("method", method).Str("endpoint", endpoint).Msg("invoice api returned error")
		return errx.WrapTransport(apiErr, resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		logx.Error().Err(err).Str("endpoint", endpoint).Msg("failed to decode invoice api response")
		return errx.WrapTransport(fmt.Errorf("decode %s %s: %w", method, endpoint, err), http.StatusBadGateway)
	}
	return nil
}

// EmailSender adapts the send-email endpoint to model.NotificationSender.
type EmailSender struct {
	Client *Client
}

func (s EmailSender) Send(ctx context.Context, req model.NotificationRequest) error {
	return s.Client.SendEmail(ctx, req)
}

var (
	_ model.InvoiceSource      = (*Client)(nil)
	_ model.NotificationSender = EmailSender{}
)
