package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tickerd/internal/engine"
	"tickerd/internal/report"
	"tickerd/pkg/logx"
)

func testEngine(failing map[string]error) engine.Engine {
	return engine.Func(func(ctx context.Context, subject, date string) (engine.State, string, error) {
		if err := failing[subject]; err != nil {
			return nil, "", err
		}
		return engine.State{"market_report": "report for " + subject}, "HOLD " + subject, nil
	})
}

func TestRunOneSuccess(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	r := New(testEngine(nil), report.NewWriter(root), logx.Nop())
	runTime := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

	res := r.RunOne(context.Background(), "CL=F", runTime)
	if !res.Success() {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if res.AnalysisDate != "2025-03-10" {
		t.Fatalf("AnalysisDate = %q", res.AnalysisDate)
	}
	if res.Decision != "HOLD CL=F" {
		t.Fatalf("Decision = %q", res.Decision)
	}
	if res.ReportDir != filepath.Join(root, "CL=F", "2025-03-10", "09-30") {
		t.Fatalf("ReportDir = %q", res.ReportDir)
	}
	if !strings.Contains(res.ReportMarkdown, "report for CL=F") {
		t.Fatalf("ReportMarkdown = %q", res.ReportMarkdown)
	}
}

func TestRunOneFailureCreatesDateDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	r := New(testEngine(map[string]error{"CL=F": errors.New("engine down")}), report.NewWriter(root), logx.Nop())
	runTime := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

	res := r.RunOne(context.Background(), "CL=F", runTime)
	if res.Success() {
		t.Fatal("expected failure")
	}
	if res.Err != "engine down" {
		t.Fatalf("Err = %q", res.Err)
	}
	if res.Decision != "" {
		t.Fatalf("failed result must not carry a decision, got %q", res.Decision)
	}

	// Failure directory is keyed by date only, no time label.
	want := filepath.Join(root, "CL=F", "2025-03-10")
	if res.ReportDir != want {
		t.Fatalf("ReportDir = %q, want %q", res.ReportDir, want)
	}
	if fi, err := os.Stat(want); err != nil || !fi.IsDir() {
		t.Fatalf("failure dir missing: %v", err)
	}
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	r := New(testEngine(map[string]error{"EURUSD=X": errors.New("boom")}), report.NewWriter(root), logx.Nop())
	var out bytes.Buffer
	r.SetOutput(&out)

	runTime := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
	subjects := []string{"CL=F", "EURUSD=X", "GC=F"}
	results := r.RunBatch(context.Background(), subjects, runTime)

	if len(results) != len(subjects) {
		t.Fatalf("got %d results, want %d", len(results), len(subjects))
	}
	for i, s := range subjects {
		if results[i].Subject != s {
			t.Fatalf("result %d subject = %q, want %q (order must match config)", i, results[i].Subject, s)
		}
	}
	if !results[0].Success() || results[1].Success() || !results[2].Success() {
		t.Fatalf("unexpected success mix: %v %v %v", results[0].Success(), results[1].Success(), results[2].Success())
	}

	console := out.String()
	if !strings.Contains(console, "CL=F: SUCCESS") {
		t.Fatalf("console missing success line:\n%s", console)
	}
	if !strings.Contains(console, "EURUSD=X: FAILED") || !strings.Contains(console, "Error: boom") {
		t.Fatalf("console missing failure line:\n%s", console)
	}
}

func TestConsoleSummaryFlattensDecision(t *testing.T) {
	t.Parallel()
	res := RunResult{
		Subject:      "CL=F",
		RunTimestamp: time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC),
		Decision:     "line one\nline two",
		ReportDir:    "/r/CL=F/2025-03-10/09-30",
	}
	got := res.ConsoleSummary()
	if !strings.Contains(got, "Decision: line one line two") {
		t.Fatalf("newline not flattened:\n%s", got)
	}
	if !strings.HasPrefix(got, "[2025-03-10 09:30:00] CL=F: SUCCESS") {
		t.Fatalf("unexpected header:\n%s", got)
	}
}
