// Package runner executes one analysis batch: one engine call per subject,
// strictly sequential, with per-subject failure isolation.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"tickerd/internal/engine"
	"tickerd/internal/report"
	"tickerd/pkg/logx"
)

// RunResult is the immutable outcome of one subject's execution.
// Success is derived: a run succeeded iff Err is empty. BatchRunner never
// constructs a result with both Decision and Err set.
type RunResult struct {
	Subject        string
	AnalysisDate   string
	Decision       string
	RunTimestamp   time.Time
	ReportMarkdown string
	ReportDir      string
	Err            string
}

func (r RunResult) Success() bool { return r.Err == "" }

// ConsoleSummary renders the one-line-per-subject operator summary.
func (r RunResult) ConsoleSummary() string {
	status := "SUCCESS"
	if !r.Success() {
		status = "FAILED"
	}
	base := fmt.Sprintf("[%s] %s: %s", r.RunTimestamp.Format("2006-01-02 15:04:05"), r.Subject, status)
	if r.Success() {
		decision := strings.ReplaceAll(r.Decision, "\n", " ")
		return fmt.Sprintf("%s\n  Decision: %s\n  Saved at: %s", base, decision, r.ReportDir)
	}
	return fmt.Sprintf("%s\n  Error: %s\n  Saved at: %s", base, r.Err, r.ReportDir)
}

// Runner drives per-subject executions through the engine and report writer.
type Runner struct {
	eng    engine.Engine
	writer *report.Writer
	log    logx.Logger

	// out receives console summaries; defaults to stdout.
	out io.Writer
}

func New(eng engine.Engine, writer *report.Writer, log logx.Logger) *Runner {
	return &Runner{eng: eng, writer: writer, log: log, out: os.Stdout}
}

// SetOutput redirects console summaries (tests).
func (r *Runner) SetOutput(w io.Writer) { r.out = w }

// RunOne executes a single subject for the given trigger instant. Any failure
// from the engine or the report writer is recorded on the result, never
// returned: one subject's failure must not abort the batch. On failure the
// date-level directory is still created so the failure is discoverable on
// disk.
func (r *Runner) RunOne(ctx context.Context, subject string, runTime time.Time) RunResult {
	analysisDate := runTime.Format("2006-01-02")

	state, decision, err := r.eng.Analyze(ctx, subject, analysisDate)
	if err == nil {
		var dir, summary string
		dir, summary, err = r.writer.Write(subject, runTime, state, decision)
		if err == nil {
			return RunResult{
				Subject:        subject,
				AnalysisDate:   analysisDate,
				Decision:       decision,
				RunTimestamp:   runTime,
				ReportMarkdown: summary,
				ReportDir:      dir,
			}
		}
	}

	r.log.Error("subject execution failed", logx.String("subject", subject), logx.Err(err))
	failDir := r.writer.FailureDir(subject, runTime)
	if mkErr := os.MkdirAll(failDir, 0o755); mkErr != nil {
		r.log.Warn("failed creating failure dir", logx.String("dir", failDir), logx.Err(mkErr))
	}
	return RunResult{
		Subject:      subject,
		AnalysisDate: analysisDate,
		RunTimestamp: runTime,
		ReportDir:    failDir,
		Err:          err.Error(),
	}
}

// RunBatch executes all subjects strictly in configured order and emits one
// console summary per subject as it completes.
func (r *Runner) RunBatch(ctx context.Context, subjects []string, runTime time.Time) []RunResult {
	results := make([]RunResult, 0, len(subjects))
	for _, subject := range subjects {
		res := r.RunOne(ctx, subject, runTime)
		results = append(results, res)
		fmt.Fprintln(r.out, res.ConsoleSummary())
	}
	return results
}
