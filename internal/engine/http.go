package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config configures the HTTP engine client.
type Config struct {
	URL   string
	Token string

	// Timeout bounds one Analyze call; 0 means unbounded.
	Timeout time.Duration

	// Analysts is forwarded verbatim in each request.
	Analysts []string
}

// HTTPClient calls an analysis engine exposed as a service:
// POST {url}/analyze with {ticker, date, analysts} and a bearer token.
type HTTPClient struct {
	cfg Config
	hc  *http.Client
}

type analyzeRequest struct {
	Ticker   string   `json:"ticker"`
	Date     string   `json:"date"`
	Analysts []string `json:"analysts,omitempty"`
}

type analyzeResponse struct {
	FinalState map[string]any `json:"final_state"`
	Decision   string         `json:"decision"`
}

func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("engine url is required")
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &HTTPClient{
		cfg: cfg,
		hc:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *HTTPClient) Analyze(ctx context.Context, subject, date string) (State, string, error) {
	body, err := json.Marshal(analyzeRequest{Ticker: subject, Date: date, Analysts: c.cfg.Analysts})
	if err != nil {
		return nil, "", fmt.Errorf("encode analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("engine call for %s: %w", subject, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, "", fmt.Errorf("engine call for %s: status %d: %s", subject, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, "", fmt.Errorf("decode analyze response for %s: %w", subject, err)
	}
	return State(out.FinalState), out.Decision, nil
}
