package extract

import (
	"fmt"
	"os/exec"
	"strings"
)

// extractImage runs the tesseract OCR tool on an image file. A missing tool
// is a hard failure: there is no degraded mode for image text.
func extractImage(path string) (string, error) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		return "", fmt.Errorf("OCR unavailable: tesseract not found: %w", err)
	}

	out, err := exec.Command("tesseract", path, "stdout").Output()
	if err != nil {
		return "", fmt.Errorf("tesseract %s: %w", path, err)
	}
	return strings.TrimSpace(string(out)), nil
}
