package normalizer

import (
	"strings"

	"github.com/google/uuid"

	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/fhir"
)

// ensureEnvelope promotes the bundle to a message envelope: type, timestamp,
// profile, and a synthesized MessageHeader when the source message carried
// an event code. The header goes in as the first entry; its focus references
// are linked by the final pass once subject and episode exist.
func (s *state) ensureEnvelope() {
	if s.bundle.Type == fhir.BundleTypeCollection {
		s.bundle.Type = fhir.BundleTypeMessage
	}

	if s.bundle.Timestamp == nil && has(s.fields.MessageDateTime) {
		if ts, ok := parseDateTime(val(s.fields.MessageDateTime)); ok {
			s.bundle.Timestamp = &ts
		} else {
			s.warnf("bundle timestamp skipped: unparseable message datetime %q", val(s.fields.MessageDateTime))
		}
	}

	s.bundle.Meta = fhir.EnsureProfile(s.bundle.Meta, profileBundle)

	if !has(s.fields.EventCode) || s.idx.first(kindMessageHeader) != nil {
		return
	}

	code := strings.ReplaceAll(val(s.fields.EventCode), "^", "_")
	if code == "" {
		code = defaultEventCode
	}

	header := map[string]interface{}{
		"resourceType": kindMessageHeader,
		"id":           uuid.NewString(),
		"eventCoding":  fhir.Coding(systemMessageEvents, code, ""),
	}

	if has(s.fields.MessageDateTime) {
		if ts, ok := parseDateTime(val(s.fields.MessageDateTime)); ok {
			header["timestamp"] = fhir.Instant(ts)
		}
	}

	src := defaultSourceApp
	if has(s.fields.SendingApp) {
		src = val(s.fields.SendingApp)
	}
	dest := defaultDestApp
	if has(s.fields.ReceivingApp) {
		dest = val(s.fields.ReceivingApp)
	}
	header["source"] = map[string]interface{}{"endpoint": "urn:hl7v2:" + src}
	header["destination"] = []interface{}{
		map[string]interface{}{"endpoint": "urn:fhir:" + dest},
	}

	fhir.AddProfile(header, profileMessageHeader)

	s.idx.prepend(fhir.Entry{
		FullURL:  fhir.URN(fhir.ResourceID(header)),
		Resource: header,
	})
}

// linkHeaderFocus is the deferred envelope step. It runs last, after the
// subject and episode entries are final, and rewrites the header focus to
// exactly two references: episode first, subject second.
func (s *state) linkHeaderFocus() {
	header := s.idx.first(kindMessageHeader)
	if header == nil || s.subject == nil {
		return
	}
	episode := s.idx.first(kindEncounter)
	if episode == nil {
		return
	}
	header["focus"] = []interface{}{
		fhir.Reference(fhir.URN(fhir.ResourceID(episode))),
		fhir.Reference(fhir.URN(fhir.ResourceID(s.subject))),
	}
}
