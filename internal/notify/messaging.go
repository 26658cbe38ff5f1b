package notify

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

	"golang.org/x/time/rate"

	"tickerd/internal/runner"
	"tickerd/pkg/logx"
)

// excerptLen is the maximum decision/error excerpt length in the aggregated
// batch message before the ellipsis marker is appended.
const excerptLen = 160

// MessagingConfig configures the aggregated messaging-API channel.
// Same lazy validation discipline as EmailConfig.
type MessagingConfig struct {
	Enabled     bool
	AccessToken string
	SenderID    string
	To          []string

	// BaseURL defaults to the Graph API; override it in tests.
	BaseURL string
}

// MessagingChannel sends one aggregated text message per batch, one HTTP POST
// per recipient to {base}/{sender_id}/messages with bearer auth.
type MessagingChannel struct {
	cfg     MessagingConfig
	hc      *http.Client
	limiter *rate.Limiter
	log     logx.Logger
}

type messagePayload struct {
	MessagingProduct string      `json:"messaging_product"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             messageText `json:"text"`
}

type messageText struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

func NewMessagingChannel(cfg MessagingConfig, log logx.Logger) *MessagingChannel {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://graph.facebook.com/v20.0"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &MessagingChannel{
		cfg: cfg,
		hc:  &http.Client{Timeout: 30 * time.Second},
		// Keep sends well under typical API limits; burst covers small
		// recipient lists without pacing.
		limiter: rate.NewLimiter(rate.Limit(4), 4),
		log:     log,
	}
}

func (c *MessagingChannel) Enabled() bool { return c.cfg.Enabled }

func (c *MessagingChannel) validate() error {
	var missing []string
	if strings.TrimSpace(c.cfg.AccessToken) == "" {
		missing = append(missing, "access_token")
	}
	if strings.TrimSpace(c.cfg.SenderID) == "" {
		missing = append(missing, "sender_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("messaging configuration incomplete: missing %s", strings.Join(missing, ", "))
	}
	if len(c.cfg.To) == 0 {
		return fmt.Errorf("messaging enabled but no recipients configured")
	}
	return nil
}

// Send posts body to every configured recipient. A failed recipient is
// recorded and the remaining recipients are still attempted; the combined
// error covers all failed sends.
func (c *MessagingChannel) Send(ctx context.Context, body string) error {
	if err := c.validate(); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/messages", c.cfg.BaseURL, c.cfg.SenderID)
	var errs []error
	for _, recipient := range c.cfg.To {
		if err := c.limiter.Wait(ctx); err != nil {
			errs = append(errs, err)
			break
		}
		if err := c.sendOne(ctx, url, recipient, body); err != nil {
			c.log.Error("messaging send failed", logx.String("recipient", recipient), logx.Err(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *MessagingChannel) sendOne(ctx context.Context, url, recipient, body string) error {
	payload, err := json.Marshal(messagePayload{
		MessagingProduct: "whatsapp",
		To:               recipient,
		Type:             "text",
		Text:             messageText{PreviewURL: false, Body: body},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("send to %s: %w", recipient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("send to %s: status %d: %s", recipient, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// BuildBatchMessage renders the single aggregated plain-text body for one
// batch: a status glyph, subject, analysis date, truncated decision or error
// excerpt, and report location per subject.
func BuildBatchMessage(runTime time.Time, results []runner.RunResult) string {
	lines := []string{fmt.Sprintf("tickerd (%s)", runTime.Format("2006-01-02 15:04"))}
	for _, res := range results {
		glyph := "✅"
		if !res.Success() {
			glyph = "❌"
		}
		lines = append(lines, fmt.Sprintf("%s %s · %s", glyph, res.Subject, res.AnalysisDate))
		if res.Success() && res.Decision != "" {
			lines = append(lines, "Decision: "+excerpt(res.Decision))
		}
		if !res.Success() && res.Err != "" {
			lines = append(lines, "Error: "+excerpt(res.Err))
		}
		lines = append(lines, "Report: "+res.ReportDir)
	}
	lines = append(lines, "— tickerd")
	return strings.Join(lines, "\n")
}

// excerpt flattens newlines and truncates to excerptLen characters, appending
// an ellipsis marker when text was cut. The cut counts runes, not bytes, so
// multi-byte text is never split mid-character.
func excerpt(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= excerptLen {
		return s
	}
	return string(runes[:excerptLen]) + "..."
}
