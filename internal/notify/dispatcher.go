// Package notify formats and delivers batch notifications over two
// independently toggled channels: transactional email (one message per
// subject) and an aggregated messaging-API summary (one per batch).
//
// Delivery failures are contained: they are logged per channel/recipient and
// aggregated into a single post-batch warning, never surfaced to the
// scheduling loop.
package notify

import (
	"context"
	"strings"
	"time"

	"tickerd/internal/runner"
	"tickerd/pkg/logx"
)

// Dispatcher fans one batch's results out to both channels.
type Dispatcher struct {
	email     *EmailChannel
	messaging *MessagingChannel
	log       logx.Logger
}

func NewDispatcher(email *EmailChannel, messaging *MessagingChannel, log logx.Logger) *Dispatcher {
	return &Dispatcher{email: email, messaging: messaging, log: log}
}

// Dispatch sends all notifications for one batch. It never returns an error:
// a channel failure must not affect scheduling liveness or artifact
// persistence.
func (d *Dispatcher) Dispatch(ctx context.Context, runTime time.Time, results []runner.RunResult) {
	var failures []string

	if d.messaging != nil && d.messaging.Enabled() {
		body := BuildBatchMessage(runTime, results)
		if err := d.messaging.Send(ctx, body); err != nil {
			d.log.Error("messaging notification failed", logx.Err(err))
			failures = append(failures, "messaging: "+err.Error())
		}
	} else {
		d.log.Info("messaging channel disabled; skipping notification")
	}

	if d.email != nil && d.email.Enabled() {
		for _, res := range results {
			subject, body := BuildResultEmail(res)
			if err := d.email.Send(ctx, subject, body); err != nil {
				d.log.Error("email notification failed", logx.String("subject", res.Subject), logx.Err(err))
				failures = append(failures, "email "+res.Subject+": "+err.Error())
			}
		}
	} else {
		d.log.Info("email channel disabled; skipping notification")
	}

	if len(failures) > 0 {
		d.log.Warn("errors during notification delivery", logx.String("failures", strings.Join(failures, "; ")))
	}
}
