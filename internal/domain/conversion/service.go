// Package conversion orchestrates one conversion request: parse the raw
// HL7v2 message, obtain the initial bundle from the upstream converter, run
// the normalization pipeline, and encode the result.
package conversion

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/converter"
	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/fhir"
	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/hl7v2"
	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/normalizer"
)

// ErrEmptyMessage is returned for empty or whitespace-only input. The
// handler maps it to a 400 before any conversion work happens.
var ErrEmptyMessage = errors.New("HL7 message is empty")

// ErrConverter wraps upstream converter failures so the handler can map
// them to a 502.
var ErrConverter = errors.New("upstream conversion failed")

// Service runs the convert-and-normalize flow.
type Service struct {
	converter  converter.Converter
	normalizer *normalizer.Normalizer
	log        zerolog.Logger
}

// NewService wires the service with its collaborators.
func NewService(conv converter.Converter, norm *normalizer.Normalizer, log zerolog.Logger) *Service {
	return &Service{converter: conv, normalizer: norm, log: log}
}

// Output is the encoded normalized bundle plus any skipped-rule
// diagnostics collected during normalization.
type Output struct {
	Bundle   []byte
	Warnings []string
}

// Convert runs the full flow for one raw message.
func (s *Service) Convert(ctx context.Context, raw []byte) (*Output, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmptyMessage
	}

	msg, err := hl7v2.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	fields := hl7v2.ExtractFields(msg)

	initial, err := s.converter.Convert(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConverter, err)
	}

	result := s.normalizer.Normalize(initial, fields)
	if result.Bundle == nil {
		return nil, fmt.Errorf("%w: converter produced no bundle", ErrConverter)
	}
	for _, w := range result.Warnings {
		s.log.Debug().Str("warning", w).Msg("normalization rule skipped")
	}

	encoded, err := encodeBundle(result.Bundle)
	if err != nil {
		return nil, err
	}
	return &Output{Bundle: encoded, Warnings: result.Warnings}, nil
}

func encodeBundle(b *fhir.Bundle) ([]byte, error) {
	data, err := b.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	return data, nil
}
