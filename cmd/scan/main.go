package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"compliance-autopilot/internal/catalog"
	"compliance-autopilot/internal/collect"
	"compliance-autopilot/internal/enrich"
	"compliance-autopilot/internal/gitlabapi"
	"compliance-autopilot/internal/model"
	"compliance-autopilot/internal/output"
	"compliance-autopilot/internal/pipeline"
	"compliance-autopilot/internal/risk"
)

const version = "1.2.0"

var (
	token       string
	baseURL     string
	outDir      string
	catalogPath string
	profileName string
	timeoutSec  int
	concurrency int
	minScore    int
	ciMode      bool
	csvExport   bool
	redactOut   bool
	noEnrich    bool
)

var rootCmd = &cobra.Command{
	Use:   "autopilot <project>",
	Short: "Compliance drift scanner for GitLab projects",
	Long: `Autopilot scans a GitLab project for compliance drift against SOC2,
GDPR and HIPAA controls and produces audit-ready evidence documents.
The project argument is the numeric ID or the full path (group/name).`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), args[0])
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&token, "token", "", "GitLab access token (defaults to GITLAB_TOKEN)")
	f.StringVar(&baseURL, "base-url", "", "GitLab instance URL (defaults to GITLAB_URL, then gitlab.com)")
	f.StringVar(&outDir, "out", "./out", "Output directory")
	f.StringVar(&catalogPath, "catalog", "", "Path to a control catalog YAML (empty = built-in catalog)")
	f.StringVar(&profileName, "profile", "standard", "Scoring profile: standard|strict|lenient")
	f.IntVar(&timeoutSec, "timeout", 120, "Timeout in seconds for the whole scan")
	f.IntVar(&concurrency, "concurrency", 4, "Concurrent GitLab API queries")
	f.IntVar(&minScore, "min-score", 0, "Fail (exit 2) when the score is below this value")
	f.BoolVar(&ciMode, "ci", false, "CI mode (machine-readable output)")
	f.BoolVar(&csvExport, "csv", false, "Also write CSV exports")
	f.BoolVar(&redactOut, "redact", false, "Also write redacted JSON and evidence with masked identifiers")
	f.BoolVar(&noEnrich, "no-enrich", false, "Skip narrative enrichment even when a reasoning service is configured")
}

func run(ctx context.Context, project string) error {
	cat, err := loadCatalog()
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	api, err := gitlabapi.NewClient(baseURL, token)
	if err != nil {
		return fmt.Errorf("gitlab client: %w", err)
	}
	if !api.Authenticated && !ciMode {
		fmt.Println("No token supplied: scanning public data only, credentialed checks will be skipped.")
	}

	var narrator pipeline.Narrator
	if !noEnrich {
		narrator = enrich.NewClient("", "", "")
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	runner := pipeline.NewRunner(pipeline.Options{
		Project:  project,
		Catalog:  cat,
		Source:   collect.NewCollector(api, project, concurrency),
		Narrator: narrator,
		Profile:  risk.Normalize(profileName),
		Timeout:  time.Duration(timeoutSec) * time.Second,
		Quiet:    ciMode,
		Version:  version,
	})
	report, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	write(report)
	if ciMode {
		printCISummary(report)
	}
	exitWithPolicy(report)
	return nil
}

func loadCatalog() (*catalog.Catalog, error) {
	if catalogPath != "" {
		return catalog.LoadFile(catalogPath)
	}
	return catalog.Load()
}

// write serialises all report artifacts into the output directory.
func write(report *model.ScanReport) {
	jsonPath := filepath.Join(outDir, "compliance-report.json")
	mdPath := filepath.Join(outDir, "compliance-evidence.md")

	if err := output.WriteJSON(jsonPath, report); err != nil {
		log.Fatalf("write json: %v", err)
	}
	if err := output.WriteMarkdown(mdPath, report); err != nil {
		log.Fatalf("write evidence: %v", err)
	}

	if csvExport {
		if err := output.WriteCSV(outDir, report); err != nil {
			log.Fatalf("write csv: %v", err)
		}
		if !ciMode {
			fmt.Println("CSV exports:", filepath.Join(outDir, "csv"))
		}
	}

	if redactOut {
		if err := output.WriteRedactedJSON(filepath.Join(outDir, "compliance-report-redacted.json"), report); err != nil {
			log.Fatalf("write redacted json: %v", err)
		}
		if err := output.WriteRedactedMarkdown(filepath.Join(outDir, "compliance-evidence-redacted.md"), report); err != nil {
			log.Fatalf("write redacted evidence: %v", err)
		}
		if !ciMode {
			fmt.Println("Redacted exports: compliance-report-redacted.json, compliance-evidence-redacted.md")
		}
	}

	if !ciMode {
		fmt.Println("Scan complete.")
		fmt.Printf("Score: %d/100 (Grade %s), data %s\n", report.Score, report.Grade, report.Completeness)
		fmt.Println("JSON:", jsonPath)
		fmt.Println("Evidence:", mdPath)
	}
}

type ciSummary struct {
	ScanID       string `json:"scanId"`
	TimestampUtc string `json:"timestampUtc"`
	Project      string `json:"project"`
	Score        int    `json:"score"`
	Grade        string `json:"grade"`
	Findings     int    `json:"findings"`
	Completeness string `json:"completeness"`
	Status       string `json:"status"`
	MinScore     int    `json:"minScore"`
	Profile      string `json:"profile"`
}

func printCISummary(report *model.ScanReport) {
	summary := ciSummary{
		ScanID:       report.ScanID,
		TimestampUtc: time.Now().UTC().Format(time.RFC3339),
		Project:      report.Project,
		Score:        report.Score,
		Grade:        report.Grade,
		Findings:     len(report.Findings),
		Completeness: string(report.Completeness),
		Status:       "PASSED",
		MinScore:     minScore,
		Profile:      profileName,
	}
	if report.Score < minScore {
		summary.Status = "FAILED"
	}
	raw, _ := json.Marshal(summary)
	fmt.Println(string(raw))
}

func exitWithPolicy(report *model.ScanReport) {
	if report.Score < minScore {
		if !ciMode {
			fmt.Printf("Score %d is below the required minimum %d.\n", report.Score, minScore)
		}
		os.Exit(2)
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("scan failed: %v", err)
	}
}
