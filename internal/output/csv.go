package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"compliance-autopilot/internal/model"
)

// WriteCSV writes one CSV file per report section to outDir/csv/.
// Files are UTF-8 with BOM for clean Excel opening on Windows.
func WriteCSV(outDir string, r *model.ScanReport) error {
	dir := filepath.Join(outDir, "csv")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("csv: mkdir: %w", err)
	}
	writers := []func(string, *model.ScanReport) error{
		writeFindingsCSV,
		writeScoreCSV,
		writeRemediationCSV,
		writeQueriesCSV,
	}
	for _, fn := range writers {
		if err := fn(dir, r); err != nil {
			return err
		}
	}
	return nil
}

func csvFile(dir, name string) (*os.File, *csv.Writer, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, nil, err
	}
	// UTF-8 BOM for Excel
	_, _ = f.Write([]byte{0xEF, 0xBB, 0xBF})
	return f, csv.NewWriter(f), nil
}

func writeFindingsCSV(dir string, r *model.ScanReport) error {
	f, w, err := csvFile(dir, "findings.csv")
	if err != nil {
		return err
	}
	defer f.Close()
	_ = w.Write([]string{"ID", "Severity", "Framework", "Control", "Title", "Artifact", "Description", "Remediation"})
	for _, fd := range sortedFindings(r.Findings) {
		_ = w.Write([]string{
			fd.ID, string(fd.Severity), string(fd.Framework), fd.ControlID,
			fd.Title, fd.Artifact, fd.Description, fd.Remediation,
		})
	}
	w.Flush()
	return w.Error()
}

func writeScoreCSV(dir string, r *model.ScanReport) error {
	f, w, err := csvFile(dir, "score.csv")
	if err != nil {
		return err
	}
	defer f.Close()
	_ = w.Write([]string{"Project", "Scan ID", "Score", "Grade", "Completeness", "Findings", "Enriched"})
	_ = w.Write([]string{
		r.Project, r.ScanID, strconv.Itoa(r.Score), r.Grade,
		string(r.Completeness), strconv.Itoa(len(r.Findings)), strconv.FormatBool(r.Enriched),
	})
	w.Flush()
	return w.Error()
}

func writeRemediationCSV(dir string, r *model.ScanReport) error {
	f, w, err := csvFile(dir, "remediation.csv")
	if err != nil {
		return err
	}
	defer f.Close()
	_ = w.Write([]string{"Priority", "Severity", "Control", "Action", "Artifact"})
	for _, step := range r.Remediation {
		_ = w.Write([]string{
			strconv.Itoa(step.Priority), string(step.Severity), step.ControlID, step.Action, step.Artifact,
		})
	}
	w.Flush()
	return w.Error()
}

func writeQueriesCSV(dir string, r *model.ScanReport) error {
	f, w, err := csvFile(dir, "queries.csv")
	if err != nil {
		return err
	}
	defer f.Close()
	_ = w.Write([]string{"Query", "Available", "Reason"})
	for _, q := range r.QueryStatus {
		_ = w.Write([]string{q.Query, strconv.FormatBool(q.Available), q.Reason})
	}
	w.Flush()
	return w.Error()
}
