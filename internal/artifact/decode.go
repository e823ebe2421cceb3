// Package artifact handles what the generation service sends back: decoding the PDF, handing
// it to a download sink through a short-lived object URL, holding the HTML preview and,
// optionally, printing that preview to PDF locally.
package artifact

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// MIMEPDF is the content type of downloaded CVs.
const MIMEPDF = "application/pdf"

// ErrMalformedBase64 is returned by DecodeBinary for input that is not standard base64.
var ErrMalformedBase64 = errors.New("malformed base64")

// DecodeBinary decodes standard, padded base64. On malformed input no bytes are returned.
func DecodeBinary(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBase64, err)
	}
	return b, nil
}
