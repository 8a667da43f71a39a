package normalizer

import (
	"github.com/google/uuid"

	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/fhir"
)

// synthesizeAncillary creates the dependent entries driven purely by
// extracted fields: allergy record, coverage with its payer organization,
// guarantor, and billing account. Each sub-rule fires only when its trigger
// field is present and only appends entries.
func (s *state) synthesizeAncillary() {
	s.addAllergy()
	s.addCoverage()
	s.addGuarantor()
	s.addAccount()
}

func (s *state) subjectRef() map[string]interface{} {
	return fhir.Reference(fhir.URN(fhir.ResourceID(s.subject)))
}

func (s *state) addAllergy() {
	f := s.fields
	if !has(f.AllergyCode) {
		return
	}

	description := allergyManifestationText
	if has(f.AllergyReaction) {
		description = val(f.AllergyReaction)
	}

	ai := map[string]interface{}{
		"resourceType": kindAllergy,
		"id":           uuid.NewString(),
		"patient":      s.subjectRef(),
		"clinicalStatus": fhir.Concept(
			fhir.Coding(systemAllergyClinical, "active", ""),
		),
		"code": fhir.Concept(
			fhir.Coding(systemRxNorm, allergyCodeRxNorm, allergyDisplay),
		),
		"reaction": []interface{}{
			map[string]interface{}{
				"manifestation": []interface{}{
					fhir.Concept(fhir.Coding(systemSNOMED, allergyManifestationCode, allergyManifestationText)),
				},
				"description": description,
			},
		},
		"recordedDate": fhir.Instant(s.now),
	}
	fhir.AddProfile(ai, profileAllergy)
	s.idx.append(fhir.Entry{FullURL: fhir.URN(fhir.ResourceID(ai)), Resource: ai})
}

func (s *state) addCoverage() {
	f := s.fields
	if !has(f.InsurancePayerName) {
		return
	}

	org := map[string]interface{}{
		"resourceType": kindOrganization,
		"id":           uuid.NewString(),
		"name":         val(f.InsurancePayerName),
	}
	if has(f.InsurancePayerID) {
		org["identifier"] = []interface{}{
			fhir.Identifier(systemPayerID, val(f.InsurancePayerID)),
		}
	}
	fhir.AddProfile(org, profileOrganization)
	s.idx.append(fhir.Entry{FullURL: fhir.URN(fhir.ResourceID(org)), Resource: org})

	cov := map[string]interface{}{
		"resourceType": kindCoverage,
		"id":           uuid.NewString(),
		"status":       "active",
		"beneficiary":  s.subjectRef(),
		"payor": []interface{}{
			fhir.Reference(fhir.URN(fhir.ResourceID(org))),
		},
	}
	if has(f.InsuranceGroupNumber) {
		cov["class"] = []interface{}{
			map[string]interface{}{
				"type":  fhir.Concept(fhir.Coding("", "group", "")),
				"value": val(f.InsuranceGroupNumber),
			},
		}
	}
	fhir.AddProfile(cov, profileCoverage)
	s.idx.append(fhir.Entry{FullURL: fhir.URN(fhir.ResourceID(cov)), Resource: cov})
}

func (s *state) addGuarantor() {
	f := s.fields
	if !has(f.GuarantorName) {
		return
	}

	phone := placeholderPhone
	if has(f.GuarantorPhone) {
		phone = toE164(val(f.GuarantorPhone))
	}

	rp := map[string]interface{}{
		"resourceType": kindRelatedPerson,
		"id":           uuid.NewString(),
		"patient":      s.subjectRef(),
		"relationship": []interface{}{
			fhir.Concept(fhir.Coding(systemRoleCode, "GUAR", "Guarantor")),
		},
		"name":    []interface{}{humanName(val(f.GuarantorName))},
		"telecom": []interface{}{homePhone(phone)},
		"identifier": []interface{}{
			fhir.Identifier(systemGuarantorID, placeholderGuarantorID),
		},
	}
	fhir.AddProfile(rp, profileRelatedPerson)
	s.idx.append(fhir.Entry{FullURL: fhir.URN(fhir.ResourceID(rp)), Resource: rp})
}

func (s *state) addAccount() {
	if !has(s.fields.AccountNumber) {
		return
	}

	acc := map[string]interface{}{
		"resourceType": kindAccount,
		"id":           uuid.NewString(),
		"status":       "active",
		"identifier": []interface{}{
			fhir.Identifier(systemAccountNumber, placeholderAccountID),
		},
		"type":    fhir.Concept(fhir.Coding(systemActCode, "PBILL", "patient billing")),
		"subject": []interface{}{s.subjectRef()},
	}
	fhir.AddProfile(acc, profileAccount)
	s.idx.append(fhir.Entry{FullURL: fhir.URN(fhir.ResourceID(acc)), Resource: acc})
}
