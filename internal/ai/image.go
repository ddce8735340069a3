// Package ai provides the classification client interface and implementations.
package ai

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// ImagePayload is the in-memory encoded copy of a screenshot, built once by
// the orchestrator for the classification call. It is never persisted.
type ImagePayload struct {
	// Base64 is the standard-encoded image bytes.
	Base64 string

	// MIMEType is the image content type sent alongside the data.
	MIMEType string
}

// EncodeImage base64-encodes raw image bytes for a multimodal call. The MIME
// type comes from the declared content type when it names an image, otherwise
// from sniffing the data prefix, defaulting to image/png.
func EncodeImage(data []byte, declaredType string) *ImagePayload {
	if len(data) == 0 {
		return nil
	}

	mimeType := strings.TrimSpace(declaredType)
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/png"
	}

	return &ImagePayload{
		Base64:   base64.StdEncoding.EncodeToString(data),
		MIMEType: mimeType,
	}
}
