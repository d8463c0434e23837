package shortfilms

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
)

// RenderDescription converts a markdown description to HTML. Raw HTML in the
// source is not passed through.
func RenderDescription(description string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(description), &buf); err != nil {
		return "", fmt.Errorf("render description: %w", err)
	}
	return buf.String(), nil
}
