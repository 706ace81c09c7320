package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/msnewsgroup/newsaudit/internal/audit"
	"github.com/msnewsgroup/newsaudit/internal/report"
)

var (
	site        string
	sampleSize  int
	concurrency int
	timeout     time.Duration
	deadline    time.Duration
	jsonOut     string
	markdownOut string
)

func addAuditFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&site, "site", "", "site URL, e.g. https://msnewsgroup.com/")
	cmd.Flags().IntVar(&sampleSize, "sample-size", 10, "number of articles to sample")
	cmd.Flags().IntVar(&concurrency, "concurrency", 6, "parallel article fetches")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "per-request timeout")
	cmd.Flags().DurationVar(&deadline, "deadline", 5*time.Minute, "overall run budget (0 disables)")
	cmd.MarkFlagRequired("site")
}

func buildConfig() *audit.Config {
	cfg := audit.DefaultConfig(site)
	cfg.SampleSize = sampleSize
	cfg.Concurrency = concurrency
	cfg.Timeout = timeout
	cfg.OverallDeadline = deadline
	return cfg
}

// auditCmd creates the "audit" subcommand: run the checks and print a
// terminal summary, optionally saving the raw JSON.
func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run audit checks and print results",
		RunE:  runAudit,
	}
	addAuditFlags(cmd)
	cmd.Flags().StringVar(&jsonOut, "json-out", "", "optional JSON output path")
	return cmd
}

// reportCmd creates the "report" subcommand: run the checks and write
// the markdown remediation report plus the JSON payload.
func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run audit and write markdown/json report outputs",
		RunE:  runReport,
	}
	addAuditFlags(cmd)
	cmd.Flags().StringVar(&markdownOut, "markdown-out", "reports/latest.md", "path to write markdown report")
	cmd.Flags().StringVar(&jsonOut, "json-out", "reports/latest.json", "path to write JSON report payload")
	return cmd
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()

	result, err := audit.Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	findings := audit.BuildFindings(cfg, result)
	rep := report.Synthesize(result, findings, time.Now())

	fmt.Println(report.TerminalSummary(result, rep))

	if jsonOut != "" {
		if err := report.WriteJSON(jsonOut, rep); err != nil {
			return err
		}
		fmt.Printf("\nSaved audit JSON: %s\n", jsonOut)
	}
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()

	result, err := audit.Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	findings := audit.BuildFindings(cfg, result)
	rep := report.Synthesize(result, findings, time.Now())

	if err := report.WriteMarkdown(markdownOut, rep); err != nil {
		return err
	}
	if err := report.WriteJSON(jsonOut, rep); err != nil {
		return err
	}

	fmt.Println(report.TerminalSummary(result, rep))
	fmt.Printf("\nSaved markdown report: %s\n", markdownOut)
	fmt.Printf("Saved JSON summary: %s\n", jsonOut)
	return nil
}
