package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	mail "github.com/wneessen/go-mail"

	"tickerd/internal/runner"
	"tickerd/pkg/logx"
)

// EmailConfig configures the transactional email channel.
// Validation happens at send time so a disabled channel never needs a
// complete credential set.
type EmailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string

	// UseSSL selects implicit TLS on connect; otherwise the connection is
	// plaintext upgraded via STARTTLS.
	UseSSL bool
}

// EmailChannel sends one HTML message per subject per batch over SMTP.
type EmailChannel struct {
	cfg EmailConfig
	log logx.Logger
}

func NewEmailChannel(cfg EmailConfig, log logx.Logger) *EmailChannel {
	return &EmailChannel{cfg: cfg, log: log}
}

func (c *EmailChannel) Enabled() bool { return c.cfg.Enabled }

// validate checks the credential set required for an actual send.
func (c *EmailChannel) validate() error {
	var missing []string
	for _, f := range []struct{ key, val string }{
		{"host", c.cfg.Host},
		{"username", c.cfg.Username},
		{"password", c.cfg.Password},
		{"from", c.cfg.From},
	} {
		if strings.TrimSpace(f.val) == "" {
			missing = append(missing, f.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("email delivery enabled but configuration missing values: %s", strings.Join(missing, ", "))
	}
	if len(c.cfg.To) == 0 {
		return fmt.Errorf("email delivery enabled but no recipients provided")
	}
	return nil
}

// Send delivers one HTML message to all configured recipients.
func (c *EmailChannel) Send(ctx context.Context, subject, htmlBody string) error {
	if err := c.validate(); err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(c.cfg.From); err != nil {
		return fmt.Errorf("invalid from address %q: %w", c.cfg.From, err)
	}
	if err := msg.To(c.cfg.To...); err != nil {
		return fmt.Errorf("invalid recipient list: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	opts := []mail.Option{
		mail.WithPort(c.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(c.cfg.Username),
		mail.WithPassword(c.cfg.Password),
	}
	if c.cfg.UseSSL {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(c.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// BuildResultEmail renders the subject line and HTML body for one run result.
func BuildResultEmail(res runner.RunResult) (subject, body string) {
	subject = fmt.Sprintf("tickerd - %s - %s", res.Subject, res.RunTimestamp.Format("2006-01-02 15:04"))

	status := "✅ Run completed"
	if !res.Success() {
		status = "❌ Run failed"
	}
	details := []string{
		fmt.Sprintf("<strong>Ticker:</strong> %s", html.EscapeString(res.Subject)),
		fmt.Sprintf("<strong>Date:</strong> %s", html.EscapeString(res.AnalysisDate)),
		fmt.Sprintf("<strong>Status:</strong> %s", status),
		fmt.Sprintf("<strong>Directory:</strong> %s", html.EscapeString(res.ReportDir)),
	}
	if res.Success() {
		decision := res.Decision
		if decision == "" {
			decision = "No decision available"
		}
		details = append(details, fmt.Sprintf("<strong>Decision:</strong> %s", html.EscapeString(decision)))
	} else {
		errText := res.Err
		if errText == "" {
			errText = "Unknown error"
		}
		details = append(details, fmt.Sprintf("<strong>Error:</strong> %s", html.EscapeString(errText)))
	}

	body = "<html><body style='font-family:Arial,sans-serif;'>" +
		"<p>" + strings.Join(details, "<br>") + "</p>" +
		"<hr>" +
		"<h2>Full report</h2>" +
		markdownToHTML(res.ReportMarkdown) +
		"<hr>" +
		"<p style='color:#888;'>— tickerd</p>" +
		"</body></html>"
	return subject, body
}

// markdownToHTML renders the minimal subset used by reports: #/##/### become
// headings, every other non-blank line becomes a paragraph. All text is
// escaped; no other markdown constructs are interpreted.
func markdownToHTML(md string) string {
	if strings.TrimSpace(md) == "" {
		return "<p><em>No report available.</em></p>"
	}

	var b strings.Builder
	for _, rawLine := range strings.Split(md, "\n") {
		line := strings.TrimRight(rawLine, " \t\r")
		switch {
		case line == "":
		case strings.HasPrefix(line, "### "):
			b.WriteString("<h3>" + html.EscapeString(line[4:]) + "</h3>")
		case strings.HasPrefix(line, "## "):
			b.WriteString("<h2>" + html.EscapeString(line[3:]) + "</h2>")
		case strings.HasPrefix(line, "# "):
			b.WriteString("<h1>" + html.EscapeString(line[2:]) + "</h1>")
		default:
			b.WriteString("<p>" + html.EscapeString(line) + "</p>")
		}
	}
	return "<div>" + b.String() + "</div>"
}
