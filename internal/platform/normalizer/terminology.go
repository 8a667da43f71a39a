package normalizer

// Every code system, profile, extension URL, code mapping, and placeholder
// literal the rules depend on lives here so the policy is auditable in one
// place and rule logic never embeds a bare string.

// Resource kinds.
const (
	kindMessageHeader = "MessageHeader"
	kindPatient       = "Patient"
	kindEncounter     = "Encounter"
	kindPractitioner  = "Practitioner"
	kindLocation      = "Location"
	kindAllergy       = "AllergyIntolerance"
	kindCoverage      = "Coverage"
	kindOrganization  = "Organization"
	kindRelatedPerson = "RelatedPerson"
	kindAccount       = "Account"
)

// Code systems.
const (
	systemMessageEvents     = "http://hl7.org/fhir/message-events"
	systemActCode           = "http://terminology.hl7.org/CodeSystem/v3-ActCode"
	systemSNOMED            = "http://snomed.info/sct"
	systemAdmitSource       = "http://terminology.hl7.org/CodeSystem/admit-source"
	systemMaritalStatus     = "http://terminology.hl7.org/CodeSystem/v3-MaritalStatus"
	systemRoleCode          = "http://terminology.hl7.org/CodeSystem/v3-RoleCode"
	systemParticipationType = "http://terminology.hl7.org/CodeSystem/v3-ParticipationType"
	systemContactRole       = "http://terminology.hl7.org/CodeSystem/v2-0131"
	systemAdmissionType     = "http://terminology.hl7.org/CodeSystem/v2-0004"
	systemPhysicalType      = "http://terminology.hl7.org/CodeSystem/location-physical-type"
	systemAllergyClinical   = "http://terminology.hl7.org/CodeSystem/allergyintolerance-clinical"
	systemRxNorm            = "http://www.nlm.nih.gov/research/umls/rxnorm"
	systemNPI               = "http://hl7.org/fhir/sid/us-npi"
	systemLanguage          = "urn:ietf:bcp:47"
	systemOMBRaceCategory   = "urn:oid:2.16.840.1.113883.6.238"
	systemReligion          = "urn:oid:2.16.840.1.113883.5.1076"
)

// Legacy systems the upstream converter emits; codes under them are either
// remapped or removed (spec: never passed through invalid).
const (
	legacySystemAdmitSource     = "urn:id:v2-0023"
	legacySystemHospitalService = "http://terminology.hl7.org/CodeSystem/v2-0069"
	legacySystemSpecialArrange  = "http://terminology.hl7.org/CodeSystem/v2-0009"
)

// Identifier systems.
const (
	systemVisitNumber   = "urn:oid:2.16.840.1.113883.19.4.6"
	systemAccountNumber = "urn:oid:2.16.840.1.113883.19.4.7"
	systemMRN           = "urn:oid:1.2.840.114350.1.13.0.1.7.1.1"
	systemPayerID       = "urn:oid:2.16.840.1.113883.4.349"
	systemGuarantorID   = "urn:oid:2.16.840.1.113883.19.5.8"
	systemLocationPOC   = "urn:oid:2.16.840.1.113883.19.5.1"
	systemLocationRoom  = "urn:oid:2.16.840.1.113883.19.5.2"
	systemLocationBed   = "urn:oid:2.16.840.1.113883.19.5.3"
)

// US Core profiles applied to the output.
const (
	profileBundle        = "http://hl7.org/fhir/us/core/StructureDefinition/us-core-bundle"
	profileMessageHeader = "http://hl7.org/fhir/us/core/StructureDefinition/us-core-messageheader"
	profileEncounter     = "http://hl7.org/fhir/us/core/StructureDefinition/us-core-encounter"
	profilePractitioner  = "http://hl7.org/fhir/us/core/StructureDefinition/us-core-practitioner"
	profileAllergy       = "http://hl7.org/fhir/us/core/StructureDefinition/us-core-allergyintolerance"
	profileCoverage      = "http://hl7.org/fhir/us/core/StructureDefinition/us-core-coverage"
	profileOrganization  = "http://hl7.org/fhir/us/core/StructureDefinition/us-core-organization"
	profileRelatedPerson = "http://hl7.org/fhir/us/core/StructureDefinition/us-core-relatedperson"
	profileAccount       = "http://hl7.org/fhir/us/core/StructureDefinition/us-core-account"
)

// Extension URLs.
const (
	extSourceEventTimestamp = "http://ibm.com/fhir/cdm/StructureDefinition/source-event-timestamp"
	extUSCoreRace           = "http://hl7.org/fhir/us/core/StructureDefinition/us-core-race"
	extPatientReligion      = "http://hl7.org/fhir/StructureDefinition/patient-religion"

	// Any meta extension whose URL contains this marker is vendor
	// proprietary and stripped from the output.
	vendorExtensionMarker = "ibm.com"
)

// Fixed codes and placeholder literals.
const (
	defaultEventCode = "ADT_A04"
	defaultSourceApp = "source"
	defaultDestApp   = "dest"

	classInpatient = "IMP"

	snomedSurgicalSpecialty        = "394609007"
	snomedSurgicalSpecialtyDisplay = "Surgical specialty"
	snomedEDVisit                  = "50849002"
	snomedEDVisitDisplay           = "Emergency department visit"

	admitSourceOtherHospital        = "other-hosp"
	admitSourceOtherHospitalDisplay = "Transferred from other hospital"

	maritalStatusLegacyEngaged = "ENG"
	maritalStatusSingle        = "S"

	roleAttending  = "ATND"
	roleConsulting = "CON"

	allergyCodeRxNorm        = "7980"
	allergyDisplay           = "Penicillin"
	allergyManifestationCode = "247472004"
	allergyManifestationText = "Hives"

	placeholderPhone        = "+17015551212"
	placeholderContactPhone = "555-1234"
	placeholderGuarantorID  = "G12345"
	placeholderAccountID    = "V0098765"

	mrnAssignerDisplay = "TRINITY HEALTH MINOT"

	unknownName = "UNKNOWN"
)
