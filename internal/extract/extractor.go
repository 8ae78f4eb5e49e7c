// Package extract provides text extraction from various document formats.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat wraps the extension of a file no extractor handles.
// Unknown formats fail explicitly; a silent empty-string fallback would index
// nothing while appearing to succeed.
type ErrUnsupportedFormat struct {
	Ext string
}

func (e *ErrUnsupportedFormat) Error() string {
	return "unsupported file format: " + e.Ext
}

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content.
// Plain text (.txt, .md) is returned as-is (UTF-8 validated); HTML, PDF,
// DOCX, XLSX, PPTX, JSON, and XML are converted; images go through OCR.
// Returns ErrUnsupportedFormat for anything else.
func (e *Extractor) Extract(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	// OCR needs the file on disk for the external tool.
	if isImageExt(ext) {
		return extractImage(path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, ext, path)
}

// ExtractBytes extracts text from content based on the given extension
// (without the leading dot). path is used only for shell-tool fallbacks.
func (e *Extractor) ExtractBytes(content []byte, ext, path string) (string, error) {
	switch ext {
	case "txt", "md":
		return extractPlain(content)
	case "html", "htm":
		return extractHTML(content)
	case "pdf":
		return extractPDF(content, path)
	case "docx":
		return extractDOCX(content)
	case "xlsx":
		return extractExcel(content)
	case "pptx":
		return extractPPTX(content)
	case "json":
		return extractJSON(content)
	case "xml":
		return extractXML(content)
	default:
		return "", &ErrUnsupportedFormat{Ext: ext}
	}
}

func isImageExt(ext string) bool {
	switch ext {
	case "png", "jpg", "jpeg", "gif", "tif", "tiff", "bmp", "webp":
		return true
	}
	return false
}
