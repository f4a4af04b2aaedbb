package research

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/deepscout/deepscout/internal/errors"
)

// Save writes the report body and a YAML metadata sidecar into outputDir.
// The write is best-effort output for the operator, not a durable store; it
// returns the report path on success.
func Save(report *Report, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", errors.Wrapf(err, "create output directory")
	}

	stamp := time.Now().Format("20060102-150405")
	reportPath := filepath.Join(outputDir, fmt.Sprintf("report-%s.md", stamp))
	if err := os.WriteFile(reportPath, []byte(report.Text), 0644); err != nil {
		return "", errors.Wrapf(err, "write report")
	}

	meta, err := yaml.Marshal(report)
	if err != nil {
		return "", errors.Wrapf(err, "marshal metadata")
	}
	metaPath := filepath.Join(outputDir, fmt.Sprintf("report-%s.meta.yaml", stamp))
	if err := os.WriteFile(metaPath, meta, 0644); err != nil {
		return "", errors.Wrapf(err, "write metadata sidecar")
	}

	return reportPath, nil
}
