package extract

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"

	"github.com/ledongthuc/pdf"
)

// extractPDF extracts text with the PDF library, falling back to the
// pdftotext shell tool for documents the library cannot parse.
func extractPDF(content []byte, path string) (string, error) {
	text, err := extractPDFNative(content)
	if err == nil {
		return text, nil
	}

	if fallback, fbErr := extractPDFShell(content, path); fbErr == nil {
		return fallback, nil
	}
	return "", fmt.Errorf("extract PDF: %w", err)
}

func extractPDFNative(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 0; i < numPages; i++ {
		page := r.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i+1, err)
		}
		buf.WriteString(text)
		if i < numPages-1 {
			buf.WriteByte('\n')
		}
	}
	return buf.String(), nil
}

// extractPDFShell shells out to pdftotext. When the original path is not on
// disk the content is staged in a temp file.
func extractPDFShell(content []byte, path string) (string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return "", fmt.Errorf("pdftotext not available: %w", err)
	}

	src := path
	if src == "" {
		tmp, err := os.CreateTemp("", "regidx-*.pdf")
		if err != nil {
			return "", err
		}
		defer os.Remove(tmp.Name())
		if _, err := tmp.Write(content); err != nil {
			tmp.Close()
			return "", err
		}
		tmp.Close()
		src = tmp.Name()
	}

	out, err := exec.Command("pdftotext", "-layout", src, "-").Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
