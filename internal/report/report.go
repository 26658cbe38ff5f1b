// Package report renders the composite markdown report from a raw engine
// state and persists the per-run report tree:
//
//	<results>/<subject>/<YYYY-MM-DD>/<HH-MM>/
//	  final_report.md
//	  final_state.json
//	  decision.txt          (only if a decision was produced)
//	  reports/              (final_report.md + one file per present section)
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tickerd/internal/engine"
)

// Section keys written as individual files under reports/, in order.
var sectionKeys = []string{
	"market_report",
	"sentiment_report",
	"news_report",
	"fundamentals_report",
	"investment_plan",
	"trader_investment_plan",
	"final_trade_decision",
}

var analystSections = []struct {
	key   string
	title string
}{
	{"market_report", "Market Analysis"},
	{"sentiment_report", "Social Sentiment"},
	{"news_report", "News Analysis"},
	{"fundamentals_report", "Fundamentals Analysis"},
}

// Build assembles the composite markdown document from the optional named
// sections of state, in fixed order. Absent sections are omitted entirely;
// present sections are joined with blank lines.
func Build(state engine.State) string {
	var sections []string

	var analystContent []string
	for _, s := range analystSections {
		if content := state.StringField(s.key); content != "" {
			analystContent = append(analystContent, fmt.Sprintf("### %s\n%s", s.title, content))
		}
	}
	if len(analystContent) > 0 {
		sections = append(sections, "## Analyst Team Reports")
		sections = append(sections, analystContent...)
	}

	if research := state.StringField("investment_plan"); research != "" {
		sections = append(sections, "## Research Team Decision", research)
	}
	if plan := state.StringField("trader_investment_plan"); plan != "" {
		sections = append(sections, "## Trading Team Plan", plan)
	}
	if judge := state.NestedField("risk_debate_state", "judge_decision"); judge != "" {
		sections = append(sections, "## Portfolio Management Decision", judge)
	}
	if final := state.StringField("final_trade_decision"); final != "" {
		sections = append(sections, "## Final Trade Decision", final)
	}

	return strings.TrimSpace(strings.Join(sections, "\n\n"))
}

// Writer persists report trees under a results root.
type Writer struct {
	ResultsDir string
}

func NewWriter(resultsDir string) *Writer {
	return &Writer{ResultsDir: resultsDir}
}

// Dir returns the run directory for (subject, runTime): results/subject/date/HH-MM.
func (w *Writer) Dir(subject string, runTime time.Time) string {
	return filepath.Join(w.ResultsDir, subject, runTime.Format("2006-01-02"), runTime.Format("15-04"))
}

// FailureDir is the directory created when a run fails before producing a
// report, so the failure stays discoverable on disk. It is keyed by date only.
func (w *Writer) FailureDir(subject string, runTime time.Time) string {
	return filepath.Join(w.ResultsDir, subject, runTime.Format("2006-01-02"))
}

// Write renders and persists all artifacts for one successful run and returns
// the run directory plus the rendered composite markdown. Directory creation
// is idempotent: re-running the same (subject, date, time) key overwrites.
func (w *Writer) Write(subject string, runTime time.Time, state engine.State, decision string) (string, string, error) {
	dir := w.Dir(subject, runTime)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create report dir: %w", err)
	}

	summary := Build(state)

	if err := os.WriteFile(filepath.Join(dir, "final_report.md"), []byte(summary), 0o644); err != nil {
		return "", "", err
	}

	reportsDir := filepath.Join(dir, "reports")
	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		return "", "", err
	}
	if err := os.WriteFile(filepath.Join(reportsDir, "final_report.md"), []byte(summary), 0o644); err != nil {
		return "", "", err
	}

	for _, key := range sectionKeys {
		content := state.StringField(key)
		if content == "" {
			continue
		}
		if err := os.WriteFile(filepath.Join(reportsDir, key+".md"), []byte(content), 0o644); err != nil {
			return "", "", err
		}
	}

	snapshot, err := json.MarshalIndent(Sanitize(state), "", "  ")
	if err != nil {
		// Sanitize guarantees JSON-marshalable output; keep the guard anyway.
		snapshot = []byte(fmt.Sprintf("%q", fmt.Sprint(state)))
	}
	if err := os.WriteFile(filepath.Join(dir, "final_state.json"), snapshot, 0o644); err != nil {
		return "", "", err
	}

	if decision != "" {
		if err := os.WriteFile(filepath.Join(dir, "decision.txt"), []byte(decision), 0o644); err != nil {
			return "", "", err
		}
	}

	return dir, summary, nil
}
