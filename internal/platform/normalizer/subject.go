package normalizer

import (
	"strings"

	"github.com/google/uuid"

	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/fhir"
)

// resolveSubject locates the canonical Patient. The first Patient entry in
// bundle order wins; if the converter produced none, a fresh one is
// appended. Every later pass links against this resource.
func (s *state) resolveSubject() {
	if p := s.idx.first(kindPatient); p != nil {
		if fhir.ResourceID(p) == "" {
			p["id"] = uuid.NewString()
		}
		s.subject = p
		return
	}

	p := map[string]interface{}{
		"resourceType": kindPatient,
		"id":           uuid.NewString(),
	}
	s.idx.append(fhir.Entry{FullURL: fhir.URN(fhir.ResourceID(p)), Resource: p})
	s.subject = p
}

// applyDemographics rewrites the subject from the extracted message fields.
// The source message is trusted over the converter, so each rule overwrites
// the prior value instead of merging.
func (s *state) applyDemographics() {
	p := s.subject
	f := s.fields

	if has(f.PatientName) && strings.TrimSpace(val(f.PatientName)) != "" {
		p["name"] = []interface{}{humanName(val(f.PatientName))}
	}

	if has(f.PatientDOB) {
		if dob, ok := parseDate(val(f.PatientDOB)); ok {
			p["birthDate"] = fhir.Date(dob)
		} else {
			s.warnf("birth date skipped: unparseable value %q", val(f.PatientDOB))
		}
	}

	if has(f.PatientGender) {
		p["gender"] = administrativeGender(val(f.PatientGender))
	}

	phone := placeholderPhone
	if has(f.PatientPhone) {
		phone = toE164(val(f.PatientPhone))
	}
	p["telecom"] = []interface{}{homePhone(phone)}

	if has(f.PatientLanguage) && strings.TrimSpace(val(f.PatientLanguage)) != "" {
		lang := val(f.PatientLanguage)
		if len(lang) > 2 {
			lang = lang[:2]
		}
		p["communication"] = []interface{}{
			map[string]interface{}{
				"language": fhir.Concept(fhir.Coding(systemLanguage, strings.ToLower(lang), "")),
			},
		}
	}

	if has(f.PatientMaritalStatus) {
		code := val(f.PatientMaritalStatus)
		if strings.EqualFold(code, maritalStatusLegacyEngaged) {
			code = maritalStatusSingle
		}
		p["maritalStatus"] = fhir.Concept(fhir.Coding(systemMaritalStatus, code, ""))
	}

	s.applyRaceExtension()
	s.applyReligionExtension()

	if len(fhir.Slice(p, "name")) == 0 {
		p["name"] = []interface{}{
			map[string]interface{}{
				"family": unknownName,
				"given":  []interface{}{unknownName},
			},
		}
	}
	if fhir.Str(p, "gender") == "" {
		p["gender"] = "unknown"
	}

	s.addNextOfKinContact()
	s.applyIdentifierAssigner()
}

// applyRaceExtension drops any non-standard race extension and, when the
// source race value looks like an OMB category code, adds the US Core one.
func (s *state) applyRaceExtension() {
	p := s.subject
	kept := make([]interface{}, 0)
	for _, v := range fhir.Slice(p, "extension") {
		ext, _ := v.(map[string]interface{})
		if ext != nil {
			url := fhir.Str(ext, "url")
			if strings.Contains(url, "race") && !strings.Contains(url, "us-core-race") {
				continue
			}
		}
		kept = append(kept, v)
	}
	if len(kept) > 0 {
		p["extension"] = kept
	} else {
		delete(p, "extension")
	}

	if !has(s.fields.PatientRace) || !digitsAndHyphens(val(s.fields.PatientRace)) {
		return
	}
	s.addExtensionOnce(map[string]interface{}{
		"url": extUSCoreRace,
		"extension": []interface{}{
			map[string]interface{}{
				"url":         "ombCategory",
				"valueCoding": fhir.Coding(systemOMBRaceCategory, val(s.fields.PatientRace), ""),
			},
		},
	})
}

// applyReligionExtension adds the religion extension only for a plausible
// code, 1 to 4 decimal digits.
func (s *state) applyReligionExtension() {
	code := val(s.fields.PatientReligion)
	if !allDigits(code) || len(code) > 4 {
		return
	}
	s.addExtensionOnce(map[string]interface{}{
		"url": extPatientReligion,
		"valueCodeableConcept": fhir.Concept(
			fhir.Coding(systemReligion, code, ""),
		),
	})
}

// addExtensionOnce appends ext to the subject unless an extension with the
// same URL is already there. Re-running the pipeline must not stack
// duplicates.
func (s *state) addExtensionOnce(ext map[string]interface{}) {
	p := s.subject
	url := fhir.Str(ext, "url")
	for _, v := range fhir.Slice(p, "extension") {
		existing, _ := v.(map[string]interface{})
		if existing != nil && fhir.Str(existing, "url") == url {
			return
		}
	}
	p["extension"] = append(fhir.Slice(p, "extension"), ext)
}

// addNextOfKinContact adds a Patient.contact from the NK1 segment: parsed
// name, relationship coding, and a phone. A contact without any telecom
// draws a validator warning, hence the placeholder fallback.
func (s *state) addNextOfKinContact() {
	f := s.fields
	if !has(f.NK1Name) {
		return
	}

	contact := map[string]interface{}{"name": humanName(val(f.NK1Name))}

	if has(f.NK1RelationshipCode) {
		parts := strings.Split(val(f.NK1RelationshipCode), "^")
		display := ""
		if len(parts) > 1 {
			display = parts[1]
		}
		contact["relationship"] = []interface{}{
			fhir.Concept(fhir.Coding(systemContactRole, parts[0], display)),
		}
	}

	if has(f.NK1Phone) && strings.TrimSpace(val(f.NK1Phone)) != "" {
		contact["telecom"] = []interface{}{homePhone(toE164(val(f.NK1Phone)))}
	} else {
		contact["telecom"] = []interface{}{
			map[string]interface{}{"system": "phone", "value": placeholderContactPhone},
		}
	}

	p := s.subject
	p["contact"] = append(fhir.Slice(p, "contact"), contact)
}

// applyIdentifierAssigner attaches the known facility display to MRN
// identifiers that the converter left without an assigner.
func (s *state) applyIdentifierAssigner() {
	for _, v := range fhir.Slice(s.subject, "identifier") {
		ident, _ := v.(map[string]interface{})
		if ident == nil {
			continue
		}
		if fhir.Str(ident, "system") == systemMRN && fhir.Map(ident, "assigner") == nil {
			ident["assigner"] = fhir.DisplayReference(mrnAssignerDisplay)
		}
	}
}

// humanName parses an XPN-style family^given^middle value.
func humanName(raw string) map[string]interface{} {
	comps := strings.Split(raw, "^")
	hn := map[string]interface{}{}
	if comps[0] != "" {
		hn["family"] = comps[0]
	}
	given := make([]interface{}, 0, 2)
	for i := 1; i < len(comps) && i < 3; i++ {
		if comps[i] != "" {
			given = append(given, comps[i])
		}
	}
	if len(given) > 0 {
		hn["given"] = given
	}
	return hn
}

// administrativeGender maps an HL7 sex code by its first character.
func administrativeGender(code string) string {
	upper := strings.ToUpper(code)
	switch {
	case strings.HasPrefix(upper, "M"):
		return "male"
	case strings.HasPrefix(upper, "F"):
		return "female"
	default:
		return "unknown"
	}
}

func homePhone(value string) map[string]interface{} {
	return map[string]interface{}{"system": "phone", "use": "home", "value": value}
}
