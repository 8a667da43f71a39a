package converter

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/fhir"
	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/hl7v2"
)

// Systems the baseline emits. These mirror what the external converter
// produces: legacy v2 table systems and vendor CDM extensions that the
// normalizer is expected to repair or strip.
const (
	legacyAdmitSourceSystem = "urn:id:v2-0023"
	hospitalServiceSystem   = "http://terminology.hl7.org/CodeSystem/v2-0069"
	mrnSystem               = "urn:oid:1.2.840.114350.1.13.0.1.7.1.1"

	extSourceEventTimestamp = "http://ibm.com/fhir/cdm/StructureDefinition/source-event-timestamp"
	extSourceDataModel      = "http://ibm.com/fhir/cdm/StructureDefinition/source-data-model-version"
)

// Baseline is the built-in fallback converter used when no remote converter
// is configured. It produces a deliberately rough initial bundle: a
// collection with path-typed fullUrls, untranslated legacy codes, and
// vendor extensions, leaving all repair work to the normalizer.
type Baseline struct {
	log zerolog.Logger
}

// NewBaseline creates the built-in converter.
func NewBaseline(log zerolog.Logger) *Baseline {
	return &Baseline{log: log}
}

// Convert builds the initial bundle from the parsed message.
func (b *Baseline) Convert(_ context.Context, raw []byte) (*fhir.Bundle, error) {
	msg, err := hl7v2.Parse(raw)
	if err != nil {
		return nil, err
	}

	bundle := &fhir.Bundle{
		ResourceType: "Bundle",
		Type:         fhir.BundleTypeCollection,
	}

	patient := b.buildPatient(msg)
	bundle.Entry = append(bundle.Entry, fhir.Entry{
		FullURL:  "Patient/" + fhir.ResourceID(patient),
		Resource: patient,
	})

	for i := range msg.GetSegments("PV1") {
		enc := b.buildEncounter(msg, i)
		bundle.Entry = append(bundle.Entry, fhir.Entry{
			FullURL:  "Encounter/" + fhir.ResourceID(enc),
			Resource: enc,
		})
	}

	b.log.Debug().Str("control_id", msg.ControlID).Int("entries", len(bundle.Entry)).Msg("baseline conversion done")
	return bundle, nil
}

func (b *Baseline) buildPatient(msg *hl7v2.Message) map[string]interface{} {
	patient := map[string]interface{}{
		"resourceType": "Patient",
		"id":           uuid.NewString(),
		"meta": map[string]interface{}{
			"extension": []interface{}{
				map[string]interface{}{
					"url":         extSourceDataModel,
					"valueString": "hl7v2 " + msg.Version,
				},
			},
		},
	}

	pid := msg.GetSegment("PID")
	if pid == nil {
		return patient
	}

	if mrn := pid.GetComponent(3, 1); mrn != "" {
		patient["identifier"] = []interface{}{fhir.Identifier(mrnSystem, mrn)}
	}
	// Name and gender pass through raw; demographics are rewritten from the
	// extracted fields later.
	if family := pid.GetComponent(5, 1); family != "" {
		name := map[string]interface{}{"family": family}
		if given := pid.GetComponent(5, 2); given != "" {
			name["given"] = []interface{}{given}
		}
		patient["name"] = []interface{}{name}
	}
	if gender := pid.GetField(8); gender != "" {
		patient["gender"] = gender
	}

	return patient
}

func (b *Baseline) buildEncounter(msg *hl7v2.Message, index int) map[string]interface{} {
	pv1 := msg.GetSegments("PV1")[index]

	enc := map[string]interface{}{
		"resourceType": "Encounter",
		"id":           uuid.NewString(),
	}

	meta := map[string]interface{}{}
	var extensions []interface{}
	if evn := msg.GetSegment("EVN"); evn != nil {
		if ts := evn.GetField(2); ts != "" {
			if t, ok := parseCompactTimestamp(ts); ok {
				extensions = append(extensions, map[string]interface{}{
					"url":           extSourceEventTimestamp,
					"valueDateTime": fhir.Instant(t),
				})
			}
		}
	}
	if len(extensions) > 0 {
		meta["extension"] = extensions
		enc["meta"] = meta
	}

	// Class comes through as the raw PV1-2 code without a system; the
	// normalizer remaps it onto v3-ActCode.
	if class := pv1.GetField(2); class != "" {
		enc["class"] = map[string]interface{}{"code": class}
	}
	if service := pv1.GetField(10); service != "" {
		enc["serviceType"] = fhir.Concept(fhir.Coding(hospitalServiceSystem, service, ""))
	}
	if admitSource := pv1.GetField(14); admitSource != "" {
		enc["hospitalization"] = map[string]interface{}{
			"admitSource": fhir.Concept(fhir.Coding(legacyAdmitSourceSystem, admitSource, "")),
		}
	}

	return enc
}

// parseCompactTimestamp parses a 14-digit HL7 timestamp in local time.
func parseCompactTimestamp(s string) (time.Time, bool) {
	if len(s) < 14 {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("20060102150405", s[:14], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
