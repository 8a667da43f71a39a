// Package fhir holds the FHIR R4 bundle model and helpers for working with
// resources kept as generic maps. Resources are decoded into
// map[string]interface{} rather than typed structs so that anything the
// upstream converter emitted but the normalizer never touches survives the
// round trip unchanged.
package fhir

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bundle type codes used by the gateway.
const (
	BundleTypeCollection = "collection"
	BundleTypeMessage    = "message"
)

// Bundle represents a FHIR Bundle resource.
type Bundle struct {
	ResourceType string                 `json:"resourceType"`
	ID           string                 `json:"id,omitempty"`
	Meta         map[string]interface{} `json:"meta,omitempty"`
	Type         string                 `json:"type"`
	Timestamp    *time.Time             `json:"timestamp,omitempty"`
	Entry        []Entry                `json:"entry,omitempty"`
}

// Entry pairs a fullUrl with the resource it owns.
type Entry struct {
	FullURL  string                 `json:"fullUrl,omitempty"`
	Resource map[string]interface{} `json:"resource,omitempty"`
}

// Decode parses bundle JSON.
func Decode(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("fhir: decode bundle: %w", err)
	}
	if b.ResourceType != "Bundle" {
		return nil, fmt.Errorf("fhir: expected Bundle, got %q", b.ResourceType)
	}
	return &b, nil
}

// Encode serializes the bundle to JSON.
func (b *Bundle) Encode() ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("fhir: encode bundle: %w", err)
	}
	return data, nil
}

// URN returns the canonical identity URI for a local id.
func URN(id string) string {
	return "urn:uuid:" + id
}
