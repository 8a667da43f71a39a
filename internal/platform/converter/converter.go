// Package converter is the boundary to the upstream HL7v2-to-FHIR
// conversion step. The gateway treats conversion as an external
// collaborator: it hands over the raw message and gets back the initial,
// imperfect bundle that the normalizer then repairs.
package converter

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/fhir"
)

// Converter produces the initial document bundle for a raw HL7v2 message.
type Converter interface {
	Convert(ctx context.Context, raw []byte) (*fhir.Bundle, error)
}

// Remote calls an external converter service over HTTP. The service is
// expected to accept the raw message as text/plain and answer with bundle
// JSON, mirroring the LinuxForHealth converter contract.
type Remote struct {
	client *resty.Client
	url    string
	log    zerolog.Logger
}

// NewRemote creates a Remote pointing at the given endpoint URL.
func NewRemote(url string, timeout time.Duration, log zerolog.Logger) *Remote {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Remote{client: client, url: url, log: log}
}

// Convert posts the raw message and decodes the returned bundle.
func (r *Remote) Convert(ctx context.Context, raw []byte) (*fhir.Bundle, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain").
		SetBody(raw).
		Post(r.url)
	if err != nil {
		return nil, fmt.Errorf("converter: request failed: %w", err)
	}
	if resp.IsError() {
		r.log.Warn().Int("status", resp.StatusCode()).Msg("upstream converter returned an error")
		return nil, fmt.Errorf("converter: upstream returned status %d", resp.StatusCode())
	}

	bundle, err := fhir.Decode(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("converter: bad upstream payload: %w", err)
	}
	return bundle, nil
}
