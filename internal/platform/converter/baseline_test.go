package converter

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/fhir"
)

const sampleADT = "MSH|^~\\&|HIS|TRINITY|FHIRSRV|TRINITY|20230101120000||ADT^A04|MSG0001|P|2.5.1\r" +
	"EVN|A04|20230101113000\r" +
	"PID|1||12345^^^MRN||DOE^JOHN^A||198001011230|M\r" +
	"PV1|1|I|WARD1^ROOM2^BED3|A|||004777^AARON^ATTEND|||SUR||||7"

func TestBaselineBuildsCollection(t *testing.T) {
	b, err := NewBaseline(zerolog.Nop()).Convert(context.Background(), []byte(sampleADT))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if b.Type != fhir.BundleTypeCollection {
		t.Errorf("bundle type = %q, want collection", b.Type)
	}
	if len(b.Entry) != 2 {
		t.Fatalf("entry count = %d, want 2 (patient + encounter)", len(b.Entry))
	}
}

func TestBaselinePathTypedFullURLs(t *testing.T) {
	b, err := NewBaseline(zerolog.Nop()).Convert(context.Background(), []byte(sampleADT))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	for _, e := range b.Entry {
		kind := fhir.Str(e.Resource, "resourceType")
		want := kind + "/" + fhir.ResourceID(e.Resource)
		if e.FullURL != want {
			t.Errorf("fullUrl = %q, want %q", e.FullURL, want)
		}
	}
}

func TestBaselinePatient(t *testing.T) {
	b, err := NewBaseline(zerolog.Nop()).Convert(context.Background(), []byte(sampleADT))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	patient := b.Entry[0].Resource
	if fhir.Str(patient, "resourceType") != "Patient" {
		t.Fatalf("first entry is %q, want Patient", fhir.Str(patient, "resourceType"))
	}

	ident := fhir.MapAt(fhir.Slice(patient, "identifier"), 0)
	if fhir.Str(ident, "system") != mrnSystem || fhir.Str(ident, "value") != "12345" {
		t.Errorf("identifier = %v", ident)
	}
	name := fhir.MapAt(fhir.Slice(patient, "name"), 0)
	if fhir.Str(name, "family") != "DOE" {
		t.Errorf("family = %q, want DOE", fhir.Str(name, "family"))
	}
	if fhir.Str(patient, "gender") != "M" {
		t.Errorf("gender = %q, want raw M", fhir.Str(patient, "gender"))
	}

	ext := fhir.MapAt(fhir.Slice(fhir.Map(patient, "meta"), "extension"), 0)
	if fhir.Str(ext, "url") != extSourceDataModel {
		t.Errorf("meta extension url = %q", fhir.Str(ext, "url"))
	}
	if got := fhir.Str(ext, "valueString"); got != "hl7v2 2.5.1" {
		t.Errorf("source data model = %q, want hl7v2 2.5.1", got)
	}
}

func TestBaselineEncounterLegacyCodes(t *testing.T) {
	b, err := NewBaseline(zerolog.Nop()).Convert(context.Background(), []byte(sampleADT))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	enc := b.Entry[1].Resource
	if fhir.Str(enc, "resourceType") != "Encounter" {
		t.Fatalf("second entry is %q, want Encounter", fhir.Str(enc, "resourceType"))
	}

	class := fhir.Map(enc, "class")
	if fhir.Str(class, "code") != "I" || fhir.Str(class, "system") != "" {
		t.Errorf("class = %v, want raw I with no system", class)
	}

	service := fhir.FirstCoding(fhir.Map(enc, "serviceType"))
	if fhir.Str(service, "system") != hospitalServiceSystem || fhir.Str(service, "code") != "SUR" {
		t.Errorf("serviceType = %v", service)
	}

	admit := fhir.FirstCoding(fhir.Map(fhir.Map(enc, "hospitalization"), "admitSource"))
	if fhir.Str(admit, "system") != legacyAdmitSourceSystem || fhir.Str(admit, "code") != "7" {
		t.Errorf("admitSource = %v", admit)
	}
}

func TestBaselineSourceEventTimestamp(t *testing.T) {
	b, err := NewBaseline(zerolog.Nop()).Convert(context.Background(), []byte(sampleADT))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	enc := b.Entry[1].Resource
	ext := fhir.MapAt(fhir.Slice(fhir.Map(enc, "meta"), "extension"), 0)
	if fhir.Str(ext, "url") != extSourceEventTimestamp {
		t.Fatalf("extension url = %q", fhir.Str(ext, "url"))
	}
	if ts := fhir.Str(ext, "valueDateTime"); !strings.HasPrefix(ts, "2023-01-01T11:30:00") {
		t.Errorf("valueDateTime = %q, want the EVN-2 instant", ts)
	}
}

func TestBaselineNoEncounterWithoutPV1(t *testing.T) {
	msg := "MSH|^~\\&|HIS|TRINITY|FHIRSRV|TRINITY|20230101120000||ADT^A04|MSG0002|P|2.5.1\r" +
		"PID|1||12345^^^MRN||DOE^JANE"
	b, err := NewBaseline(zerolog.Nop()).Convert(context.Background(), []byte(msg))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(b.Entry) != 1 {
		t.Errorf("entry count = %d, want 1", len(b.Entry))
	}
}

func TestBaselineRejectsBadInput(t *testing.T) {
	if _, err := NewBaseline(zerolog.Nop()).Convert(context.Background(), []byte("not hl7")); err == nil {
		t.Error("expected parse error")
	}
}

func TestParseCompactTimestamp(t *testing.T) {
	if _, ok := parseCompactTimestamp("20230101"); ok {
		t.Error("short timestamp should be rejected")
	}
	if _, ok := parseCompactTimestamp("2023010111300x"); ok {
		t.Error("non-numeric timestamp should be rejected")
	}
	got, ok := parseCompactTimestamp("20230101113000")
	if !ok {
		t.Fatal("valid timestamp rejected")
	}
	if got.Hour() != 11 || got.Minute() != 30 {
		t.Errorf("parsed = %v", got)
	}
}
