package fhir

import "time"

// Accessors. All of them tolerate missing keys and wrong types by returning
// zero values, because converter output makes no shape guarantees.

// Str returns m[key] as a string.
func Str(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

// Map returns m[key] as a map.
func Map(m map[string]interface{}, key string) map[string]interface{} {
	v, _ := m[key].(map[string]interface{})
	return v
}

// Slice returns m[key] as a slice.
func Slice(m map[string]interface{}, key string) []interface{} {
	v, _ := m[key].([]interface{})
	return v
}

// MapAt returns s[i] as a map, or nil when out of range.
func MapAt(s []interface{}, i int) map[string]interface{} {
	if i < 0 || i >= len(s) {
		return nil
	}
	v, _ := s[i].(map[string]interface{})
	return v
}

// ResourceType returns the resourceType of a resource map.
func ResourceType(res map[string]interface{}) string {
	return Str(res, "resourceType")
}

// ResourceID returns the local id of a resource map.
func ResourceID(res map[string]interface{}) string {
	return Str(res, "id")
}

// FirstCoding returns the first coding of a CodeableConcept map.
func FirstCoding(concept map[string]interface{}) map[string]interface{} {
	return MapAt(Slice(concept, "coding"), 0)
}

// Builders. New elements are plain maps with []interface{} slices so they
// are indistinguishable from decoded JSON.

// Coding builds a Coding element. Empty parts are omitted.
func Coding(system, code, display string) map[string]interface{} {
	c := map[string]interface{}{}
	if system != "" {
		c["system"] = system
	}
	if code != "" {
		c["code"] = code
	}
	if display != "" {
		c["display"] = display
	}
	return c
}

// Concept builds a CodeableConcept from codings.
func Concept(codings ...map[string]interface{}) map[string]interface{} {
	coding := make([]interface{}, 0, len(codings))
	for _, c := range codings {
		coding = append(coding, c)
	}
	return map[string]interface{}{"coding": coding}
}

// Reference builds a Reference element pointing at a URI.
func Reference(uri string) map[string]interface{} {
	return map[string]interface{}{"reference": uri}
}

// DisplayReference builds a display-only Reference element.
func DisplayReference(display string) map[string]interface{} {
	return map[string]interface{}{"display": display}
}

// Identifier builds an Identifier element.
func Identifier(system, value string) map[string]interface{} {
	return map[string]interface{}{"system": system, "value": value}
}

// AddProfile appends url to res.meta.profile unless it is already present.
func AddProfile(res map[string]interface{}, url string) {
	meta := Map(res, "meta")
	if meta == nil {
		meta = map[string]interface{}{}
		res["meta"] = meta
	}
	res["meta"] = EnsureProfile(meta, url)
}

// EnsureProfile appends url to meta.profile unless already present and
// returns the (possibly newly allocated) meta map. Adding the same profile
// twice would break the pipeline's idempotence guarantee.
func EnsureProfile(meta map[string]interface{}, url string) map[string]interface{} {
	if meta == nil {
		meta = map[string]interface{}{}
	}
	profiles := Slice(meta, "profile")
	for _, p := range profiles {
		if p == url {
			return meta
		}
	}
	meta["profile"] = append(profiles, url)
	return meta
}

// CopyValue deep-copies a decoded JSON value (maps, slices, scalars).
func CopyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return CopyMap(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = CopyValue(e)
		}
		return out
	default:
		return v
	}
}

// CopyMap deep-copies a decoded JSON object.
func CopyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = CopyValue(v)
	}
	return out
}

// Instant formats a time as a FHIR instant.
func Instant(t time.Time) string {
	return t.Format(time.RFC3339)
}

// Date formats a time as a FHIR date.
func Date(t time.Time) string {
	return t.Format("2006-01-02")
}
