package extract

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractXML walks the token stream and keeps character data, dropping tags
// and attributes.
func extractXML(content []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	dec.Strict = false

	var parts []string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse XML: %w", err)
		}
		if cd, ok := tok.(xml.CharData); ok {
			if s := strings.TrimSpace(string(cd)); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, " "), nil
}
