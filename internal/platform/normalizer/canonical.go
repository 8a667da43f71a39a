package normalizer

import (
	"strings"

	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/fhir"
)

const doubledURN = "urn:uuid:urn:uuid:"

// canonicalizeFullURLs repairs the identity URI of every entry: a doubled
// urn:uuid: prefix collapses to one, and a path-typed URL (ResourceType/id)
// is replaced by the canonical urn form built from the resource's local id.
// Malformed URIs are corrected, never rejected.
func (s *state) canonicalizeFullURLs() {
	for i := range s.bundle.Entry {
		e := &s.bundle.Entry[i]
		if e.FullURL == "" {
			continue
		}
		url := e.FullURL
		if strings.HasPrefix(url, doubledURN) {
			url = url[len("urn:uuid:"):]
		}
		if strings.Contains(url, "/") {
			url = fhir.URN(fhir.ResourceID(e.Resource))
		}
		e.FullURL = url
	}
}

// collapseDuplicateURNs is the closing canonicalization sweep. Synthesis
// steps can reintroduce doubled prefixes, both in fullUrls and inside
// embedded references such as a Coverage payor.
func (s *state) collapseDuplicateURNs() {
	for i := range s.bundle.Entry {
		e := &s.bundle.Entry[i]
		if strings.HasPrefix(e.FullURL, doubledURN) {
			e.FullURL = strings.Replace(e.FullURL, doubledURN, "urn:uuid:", 1)
		}
		if e.Resource == nil || fhir.ResourceType(e.Resource) != kindCoverage {
			continue
		}
		for _, v := range fhir.Slice(e.Resource, "payor") {
			ref, _ := v.(map[string]interface{})
			if ref == nil {
				continue
			}
			if r := fhir.Str(ref, "reference"); strings.HasPrefix(r, doubledURN) {
				ref["reference"] = strings.Replace(r, doubledURN, "urn:uuid:", 1)
			}
		}
	}
}
