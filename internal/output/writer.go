package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cpk-labs/sso-access-auditor/internal/models"
)

// Report file formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatBoth = "both"
)

// Writer persists audit reports to disk as JSON and/or YAML files named
// aws_sso_audit_<account>[_<timestamp>].<ext>.
type Writer struct {
	// Formats selects the files to write: "json", "yaml", or "both".
	Formats []string

	// Directory is the target directory. Defaults to ".".
	Directory string

	// IncludeTimestamp appends yyyymmdd_hhmmss to filenames so repeated
	// audits do not overwrite each other.
	IncludeTimestamp bool

	// Now is the clock used for filename timestamps. Defaults to time.Now;
	// tests pin it for stable names.
	Now func() time.Time
}

// Save writes the report in every configured format and returns the paths
// written, in format order.
func (w *Writer) Save(report *models.AuditReport, accountID string) ([]string, error) {
	dir := w.Directory
	if dir == "" {
		dir = "."
	}

	var stamp string
	if w.IncludeTimestamp {
		now := time.Now
		if w.Now != nil {
			now = w.Now
		}
		stamp = now().Format("20060102_150405")
	}

	var paths []string
	for _, format := range normalizeFormats(w.Formats) {
		path := filepath.Join(dir, reportFileName(accountID, stamp, format))

		var (
			data []byte
			err  error
		)
		switch format {
		case FormatJSON:
			data, err = json.MarshalIndent(report, "", "  ")
		case FormatYAML:
			data, err = yaml.Marshal(report)
		default:
			return nil, fmt.Errorf("unsupported output format: %q", format)
		}
		if err != nil {
			return nil, fmt.Errorf("marshal %s report: %w", format, err)
		}

		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write report file %q: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// normalizeFormats expands "both" and deduplicates while preserving order.
func normalizeFormats(formats []string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, f := range formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case FormatBoth:
			add(FormatJSON)
			add(FormatYAML)
		case FormatJSON:
			add(FormatJSON)
		case FormatYAML:
			add(FormatYAML)
		}
	}
	return out
}

// reportFileName builds aws_sso_audit_<account>[_<stamp>].<ext>.
func reportFileName(accountID, stamp, format string) string {
	parts := []string{"aws_sso_audit", accountID}
	if stamp != "" {
		parts = append(parts, stamp)
	}
	return strings.Join(parts, "_") + "." + format
}
