package normalizer

import (
	"strings"

	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/fhir"
)

// stripVendorExtensions removes the converter vendor's proprietary meta
// extensions from every resource in the bundle. Pure filter.
func (s *state) stripVendorExtensions() {
	for i := range s.bundle.Entry {
		res := s.bundle.Entry[i].Resource
		if res == nil {
			continue
		}
		meta := fhir.Map(res, "meta")
		exts := fhir.Slice(meta, "extension")
		if len(exts) == 0 {
			continue
		}
		kept := make([]interface{}, 0, len(exts))
		for _, v := range exts {
			ext, _ := v.(map[string]interface{})
			if ext != nil && strings.Contains(fhir.Str(ext, "url"), vendorExtensionMarker) {
				continue
			}
			kept = append(kept, v)
		}
		if len(kept) == 0 {
			delete(meta, "extension")
		} else {
			meta["extension"] = kept
		}
	}
}
