package normalizer

import (
	"testing"

	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/fhir"
	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/hl7v2"
)

func TestSubjectCreatedWhenMissing(t *testing.T) {
	b := collectionBundle()
	testNormalizer().Normalize(b, &hl7v2.Fields{})

	patients := findResources(b, "Patient")
	if len(patients) != 1 {
		t.Fatalf("patient count = %d, want 1", len(patients))
	}
	p := patients[0]

	name := fhir.MapAt(fhir.Slice(p, "name"), 0)
	if fhir.Str(name, "family") != "UNKNOWN" {
		t.Errorf("family = %q, want UNKNOWN", fhir.Str(name, "family"))
	}
	given := fhir.Slice(name, "given")
	if len(given) != 1 || given[0] != "UNKNOWN" {
		t.Errorf("given = %v, want [UNKNOWN]", given)
	}
	if fhir.Str(p, "gender") != "unknown" {
		t.Errorf("gender = %q, want unknown", fhir.Str(p, "gender"))
	}
}

func TestFirstPatientWins(t *testing.T) {
	b := collectionBundle(patientEntry("p1"), patientEntry("p2"), encounterEntry("e1", nil))
	testNormalizer().Normalize(b, &hl7v2.Fields{})

	enc := findResources(b, "Encounter")[0]
	if got := fhir.Str(fhir.Map(enc, "subject"), "reference"); got != "urn:uuid:p1" {
		t.Errorf("subject = %q, want urn:uuid:p1", got)
	}
}

func TestDemographicsOverwrite(t *testing.T) {
	p := map[string]interface{}{
		"resourceType": "Patient",
		"id":           "p1",
		"name": []interface{}{
			map[string]interface{}{"family": "CONVERTED"},
		},
		"telecom": []interface{}{
			map[string]interface{}{"system": "phone", "value": "raw"},
		},
		"identifier": []interface{}{
			map[string]interface{}{"system": systemMRN, "value": "12345"},
		},
	}
	b := collectionBundle(fhir.Entry{FullURL: fhir.URN("p1"), Resource: p})
	fields := &hl7v2.Fields{
		PatientName:          strp("DOE^JOHN"),
		PatientDOB:           strp("19800101"),
		PatientGender:        strp("M"),
		PatientPhone:         strp("701-555-1234"),
		PatientLanguage:      strp("ENG"),
		PatientMaritalStatus: strp("ENG"),
		PatientRace:          strp("2106-3"),
		PatientReligion:      strp("1013"),
	}
	testNormalizer().Normalize(b, fields)

	names := fhir.Slice(p, "name")
	if len(names) != 1 {
		t.Fatalf("name count = %d, want 1", len(names))
	}
	name := fhir.MapAt(names, 0)
	if fhir.Str(name, "family") != "DOE" {
		t.Errorf("family = %q, want DOE", fhir.Str(name, "family"))
	}
	if given := fhir.Slice(name, "given"); len(given) != 1 || given[0] != "JOHN" {
		t.Errorf("given = %v, want [JOHN]", given)
	}

	if fhir.Str(p, "gender") != "male" {
		t.Errorf("gender = %q, want male", fhir.Str(p, "gender"))
	}
	if fhir.Str(p, "birthDate") != "1980-01-01" {
		t.Errorf("birthDate = %q, want 1980-01-01", fhir.Str(p, "birthDate"))
	}

	telecom := fhir.Slice(p, "telecom")
	if len(telecom) != 1 {
		t.Fatalf("telecom count = %d, want 1", len(telecom))
	}
	if got := fhir.Str(fhir.MapAt(telecom, 0), "value"); got != "+17015551234" {
		t.Errorf("phone = %q, want +17015551234", got)
	}

	comm := fhir.MapAt(fhir.Slice(p, "communication"), 0)
	lang := fhir.FirstCoding(fhir.Map(comm, "language"))
	if fhir.Str(lang, "code") != "en" {
		t.Errorf("language = %q, want en", fhir.Str(lang, "code"))
	}

	marital := fhir.FirstCoding(fhir.Map(p, "maritalStatus"))
	if fhir.Str(marital, "code") != "S" {
		t.Errorf("marital code = %q, want S (ENG remapped)", fhir.Str(marital, "code"))
	}

	ident := fhir.MapAt(fhir.Slice(p, "identifier"), 0)
	assigner := fhir.Map(ident, "assigner")
	if fhir.Str(assigner, "display") != mrnAssignerDisplay {
		t.Errorf("assigner = %q, want %q", fhir.Str(assigner, "display"), mrnAssignerDisplay)
	}
}

func TestPlaceholderPhoneWhenAbsent(t *testing.T) {
	b := collectionBundle(patientEntry("p1"))
	testNormalizer().Normalize(b, &hl7v2.Fields{})

	p := findResources(b, "Patient")[0]
	if got := fhir.Str(fhir.MapAt(fhir.Slice(p, "telecom"), 0), "value"); got != placeholderPhone {
		t.Errorf("phone = %q, want placeholder %q", got, placeholderPhone)
	}
}

func TestGenderFallbacks(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"M", "male"},
		{"male", "male"},
		{"F", "female"},
		{"female", "female"},
		{"U", "unknown"},
		{"X", "unknown"},
	}
	for _, c := range cases {
		b := collectionBundle(patientEntry("p1"))
		testNormalizer().Normalize(b, &hl7v2.Fields{PatientGender: strp(c.in)})
		p := findResources(b, "Patient")[0]
		if got := fhir.Str(p, "gender"); got != c.want {
			t.Errorf("gender(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRaceExtensionPolicy(t *testing.T) {
	p := map[string]interface{}{
		"resourceType": "Patient",
		"id":           "p1",
		"extension": []interface{}{
			map[string]interface{}{"url": "http://example.org/legacy-race"},
			map[string]interface{}{"url": "http://example.org/unrelated"},
		},
	}
	b := collectionBundle(fhir.Entry{FullURL: fhir.URN("p1"), Resource: p})
	testNormalizer().Normalize(b, &hl7v2.Fields{PatientRace: strp("2106-3")})

	var sawLegacy, sawUnrelated, sawUSCore bool
	for _, v := range fhir.Slice(p, "extension") {
		switch fhir.Str(v.(map[string]interface{}), "url") {
		case "http://example.org/legacy-race":
			sawLegacy = true
		case "http://example.org/unrelated":
			sawUnrelated = true
		case extUSCoreRace:
			sawUSCore = true
		}
	}
	if sawLegacy {
		t.Error("non-standard race extension should be removed")
	}
	if !sawUnrelated {
		t.Error("unrelated extension should be kept")
	}
	if !sawUSCore {
		t.Error("US Core race extension should be added")
	}
}

func TestRaceExtensionRejectsNonNumeric(t *testing.T) {
	b := collectionBundle(patientEntry("p1"))
	testNormalizer().Normalize(b, &hl7v2.Fields{PatientRace: strp("WHITE")})

	p := findResources(b, "Patient")[0]
	for _, v := range fhir.Slice(p, "extension") {
		if fhir.Str(v.(map[string]interface{}), "url") == extUSCoreRace {
			t.Error("race extension added for non-numeric value")
		}
	}
}

func TestReligionExtensionRequiresShortNumericCode(t *testing.T) {
	for _, bad := range []string{"CATHOLIC", "12345", ""} {
		b := collectionBundle(patientEntry("p1"))
		testNormalizer().Normalize(b, &hl7v2.Fields{PatientReligion: strp(bad)})
		p := findResources(b, "Patient")[0]
		for _, v := range fhir.Slice(p, "extension") {
			if fhir.Str(v.(map[string]interface{}), "url") == extPatientReligion {
				t.Errorf("religion extension added for %q", bad)
			}
		}
	}

	b := collectionBundle(patientEntry("p1"))
	testNormalizer().Normalize(b, &hl7v2.Fields{PatientReligion: strp("1013")})
	p := findResources(b, "Patient")[0]
	found := false
	for _, v := range fhir.Slice(p, "extension") {
		if fhir.Str(v.(map[string]interface{}), "url") == extPatientReligion {
			found = true
		}
	}
	if !found {
		t.Error("religion extension missing for valid code")
	}
}

func TestNextOfKinContact(t *testing.T) {
	b := collectionBundle(patientEntry("p1"))
	fields := &hl7v2.Fields{
		NK1Name:             strp("DOE^JANE"),
		NK1RelationshipCode: strp("SPO^Spouse"),
		NK1Phone:            strp("7015555678"),
	}
	testNormalizer().Normalize(b, fields)

	p := findResources(b, "Patient")[0]
	contact := fhir.MapAt(fhir.Slice(p, "contact"), 0)
	if contact == nil {
		t.Fatal("contact missing")
	}
	if got := fhir.Str(fhir.Map(contact, "name"), "family"); got != "DOE" {
		t.Errorf("contact family = %q, want DOE", got)
	}
	rel := fhir.FirstCoding(fhir.MapAt(fhir.Slice(contact, "relationship"), 0))
	if fhir.Str(rel, "code") != "SPO" || fhir.Str(rel, "display") != "Spouse" {
		t.Errorf("relationship = %v", rel)
	}
	if got := fhir.Str(fhir.MapAt(fhir.Slice(contact, "telecom"), 0), "value"); got != "+17015555678" {
		t.Errorf("contact phone = %q, want +17015555678", got)
	}
}

func TestNextOfKinContactPlaceholderPhone(t *testing.T) {
	b := collectionBundle(patientEntry("p1"))
	testNormalizer().Normalize(b, &hl7v2.Fields{NK1Name: strp("DOE^JANE")})

	p := findResources(b, "Patient")[0]
	contact := fhir.MapAt(fhir.Slice(p, "contact"), 0)
	if got := fhir.Str(fhir.MapAt(fhir.Slice(contact, "telecom"), 0), "value"); got != placeholderContactPhone {
		t.Errorf("contact phone = %q, want %q", got, placeholderContactPhone)
	}
}
