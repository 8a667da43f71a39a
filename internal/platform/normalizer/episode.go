package normalizer

import (
	"strings"

	"github.com/google/uuid"

	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/fhir"
)

// normalizeEpisodes repairs every Encounter in the bundle: subject link,
// terminology remaps, timing, identifiers, and synthesized location and
// practitioner entries.
func (s *state) normalizeEpisodes() {
	for _, enc := range s.idx.all(kindEncounter) {
		s.normalizeEncounter(enc)
	}
}

func (s *state) normalizeEncounter(enc map[string]interface{}) {
	enc["subject"] = fhir.Reference(fhir.URN(fhir.ResourceID(s.subject)))

	// The converter passes PV1-2 through raw; class "I" is not a valid
	// ActCode.
	if class := fhir.Map(enc, "class"); class != nil && fhir.Str(class, "code") == "I" {
		class["code"] = classInpatient
		class["system"] = systemActCode
	}

	if st := fhir.Str(enc, "status"); st == "" || st == "unknown" {
		enc["status"] = "in-progress"
	}

	s.remapServiceType(enc)
	s.remapAdmitSource(enc)
	s.pruneSpecialArrangement(enc)

	demoted := s.normalizePeriod(enc)

	if period := fhir.Map(enc, "period"); fhir.Map(enc, "length") != nil &&
		(period == nil || fhir.Str(period, "end") == "") {
		delete(enc, "length")
	}

	if has(s.fields.VisitNumber) && strings.TrimSpace(val(s.fields.VisitNumber)) != "" {
		ids := fhir.Slice(enc, "identifier")
		if first := fhir.MapAt(ids, 0); first != nil {
			first["system"] = systemVisitNumber
			first["value"] = val(s.fields.VisitNumber)
		} else {
			enc["identifier"] = []interface{}{
				fhir.Identifier(systemVisitNumber, val(s.fields.VisitNumber)),
			}
		}
	}

	// Admit events run in-progress, except when the interval rule above
	// demoted the status because no end could be established.
	if !demoted {
		enc["status"] = "in-progress"
	}

	delete(enc, "reasonCode")
	if strings.EqualFold(val(s.fields.AdmissionType), "A") {
		enc["reasonCode"] = []interface{}{
			fhir.Concept(fhir.Coding(systemAdmissionType, "A", "Accident")),
		}
	}

	enc["type"] = []interface{}{
		fhir.Concept(fhir.Coding(systemSNOMED, snomedEDVisit, snomedEDVisitDisplay)),
	}

	if hosp := fhir.Map(enc, "hospitalization"); hosp != nil {
		delete(hosp, "specialCourtesy")
	}

	fhir.AddProfile(enc, profileEncounter)

	s.synthesizeLocation(enc)

	s.addPractitioner(enc, val(s.fields.AttendingName), roleAttending)
	s.addPractitioner(enc, val(s.fields.ConsultingName), roleConsulting)

	if has(s.fields.AdmissionType) {
		enc["reasonCode"] = append(fhir.Slice(enc, "reasonCode"),
			fhir.Concept(fhir.Coding(systemAdmissionType, val(s.fields.AdmissionType), "")))
	}
}

// remapServiceType translates the one known hospital-service code to SNOMED
// and drops any other code under the legacy system rather than emitting an
// invalid coding.
func (s *state) remapServiceType(enc map[string]interface{}) {
	coding := fhir.FirstCoding(fhir.Map(enc, "serviceType"))
	if coding == nil || fhir.Str(coding, "system") != legacySystemHospitalService {
		return
	}
	if strings.EqualFold(fhir.Str(coding, "code"), "SUR") {
		coding["system"] = systemSNOMED
		coding["code"] = snomedSurgicalSpecialty
		coding["display"] = snomedSurgicalSpecialtyDisplay
		return
	}
	delete(enc, "serviceType")
}

// remapAdmitSource maps legacy code 7 (transfer from another facility) and
// drops every other legacy code.
func (s *state) remapAdmitSource(enc map[string]interface{}) {
	hosp := fhir.Map(enc, "hospitalization")
	admitSource := fhir.Map(hosp, "admitSource")
	coding := fhir.FirstCoding(admitSource)
	if coding == nil || fhir.Str(coding, "system") != legacySystemAdmitSource {
		return
	}
	if fhir.Str(coding, "code") == "7" {
		coding["system"] = systemAdmitSource
		coding["code"] = admitSourceOtherHospital
		coding["display"] = admitSourceOtherHospitalDisplay
		admitSource["text"] = admitSourceOtherHospitalDisplay
		return
	}
	delete(hosp, "admitSource")
}

// pruneSpecialArrangement removes concepts coded under the unsupported v2
// table and clears the field when nothing remains.
func (s *state) pruneSpecialArrangement(enc map[string]interface{}) {
	hosp := fhir.Map(enc, "hospitalization")
	arrangements := fhir.Slice(hosp, "specialArrangement")
	if len(arrangements) == 0 {
		return
	}
	kept := make([]interface{}, 0, len(arrangements))
	for _, v := range arrangements {
		concept, _ := v.(map[string]interface{})
		if coding := fhir.FirstCoding(concept); coding != nil &&
			fhir.Str(coding, "system") == legacySystemSpecialArrange {
			continue
		}
		kept = append(kept, v)
	}
	if len(kept) == 0 {
		delete(hosp, "specialArrangement")
	} else {
		hosp["specialArrangement"] = kept
	}
}

// normalizePeriod derives the encounter interval, preferring the converter's
// source-event-timestamp meta extension over the raw admit datetime. A
// half-open interval is not allowed to stand: it is dropped entirely, the
// status becomes unknown, and participant/location sub-periods are cleared
// to match. The returned bool reports that demotion.
func (s *state) normalizePeriod(enc map[string]interface{}) bool {
	if fhir.Map(enc, "period") == nil {
		if start := sourceEventTimestamp(enc); start != "" {
			enc["period"] = map[string]interface{}{"start": start}
		}
	}
	if fhir.Map(enc, "period") == nil && has(s.fields.AdmitDateTime) &&
		strings.TrimSpace(val(s.fields.AdmitDateTime)) != "" {
		if t, ok := parseDateTime(val(s.fields.AdmitDateTime)); ok {
			enc["period"] = map[string]interface{}{"start": fhir.Instant(t)}
		} else {
			s.warnf("encounter period skipped: unparseable admit datetime %q", val(s.fields.AdmitDateTime))
		}
	}

	period := fhir.Map(enc, "period")
	if period == nil {
		return false
	}

	if fhir.Str(period, "end") == "" {
		delete(enc, "period")
		enc["status"] = "unknown"
		clearPeriods(fhir.Slice(enc, "participant"))
		clearPeriods(fhir.Slice(enc, "location"))
		return true
	}

	copyPeriods(fhir.Slice(enc, "participant"), period)
	copyPeriods(fhir.Slice(enc, "location"), period)
	return false
}

// sourceEventTimestamp reads the converter's meta extension carrying the
// EVN event time, if present.
func sourceEventTimestamp(enc map[string]interface{}) string {
	for _, v := range fhir.Slice(fhir.Map(enc, "meta"), "extension") {
		ext, _ := v.(map[string]interface{})
		if ext == nil || fhir.Str(ext, "url") != extSourceEventTimestamp {
			continue
		}
		return fhir.Str(ext, "valueDateTime")
	}
	return ""
}

func clearPeriods(components []interface{}) {
	for _, v := range components {
		if c, _ := v.(map[string]interface{}); c != nil {
			delete(c, "period")
		}
	}
}

func copyPeriods(components []interface{}, period map[string]interface{}) {
	for _, v := range components {
		if c, _ := v.(map[string]interface{}); c != nil && fhir.Map(c, "period") == nil {
			c["period"] = fhir.CopyMap(period)
		}
	}
}

// synthesizeLocation creates a Location entry from PV1-3 when the encounter
// has none, composing a readable name from the point-of-care, room, and bed
// sub-fields.
func (s *state) synthesizeLocation(enc map[string]interface{}) {
	f := s.fields
	if !has(f.Location) || len(fhir.Slice(enc, "location")) != 0 {
		return
	}

	loc := map[string]interface{}{
		"resourceType": kindLocation,
		"id":           uuid.NewString(),
		"mode":         "instance",
	}

	var parts []string
	if has(f.LocationPOC) {
		parts = append(parts, "Ward "+val(f.LocationPOC))
	}
	if has(f.LocationRoom) {
		parts = append(parts, "Room "+val(f.LocationRoom))
	}
	if has(f.LocationBed) {
		parts = append(parts, "Bed "+val(f.LocationBed))
	}
	if len(parts) > 0 {
		loc["name"] = strings.Join(parts, " / ")
	} else {
		loc["name"] = val(f.Location)
	}

	identifiers := make([]interface{}, 0, 3)
	if has(f.LocationPOC) {
		identifiers = append(identifiers, fhir.Identifier(systemLocationPOC, val(f.LocationPOC)))
	}
	if has(f.LocationRoom) {
		identifiers = append(identifiers, fhir.Identifier(systemLocationRoom, val(f.LocationRoom)))
	}
	if has(f.LocationBed) {
		identifiers = append(identifiers, fhir.Identifier(systemLocationBed, val(f.LocationBed)))
		loc["physicalType"] = fhir.Concept(fhir.Coding(systemPhysicalType, "bd", "Bed"))
	}
	if len(identifiers) > 0 {
		loc["identifier"] = identifiers
	}

	s.idx.append(fhir.Entry{FullURL: fhir.URN(fhir.ResourceID(loc)), Resource: loc})

	el := map[string]interface{}{
		"location": fhir.Reference(fhir.URN(fhir.ResourceID(loc))),
	}
	if period := fhir.Map(enc, "period"); period != nil {
		el["period"] = fhir.CopyMap(period)
	}
	enc["location"] = append(fhir.Slice(enc, "location"), el)
}

// addPractitioner resolves or creates a Practitioner for an XCN-style name
// and links it to the encounter as a participant with the given role.
//
// The feed is inconsistent about component order: an all-digit first
// component means id^family^given, otherwise family^given^id^middle. A
// practitioner already in the bundle with the same identifier value is
// reused, and its name and identifier are overwritten.
func (s *state) addPractitioner(enc map[string]interface{}, name, role string) {
	if name == "" {
		return
	}

	comps := strings.Split(name, "^")
	var family, given, providerID, middle string
	if len(comps) >= 3 && allDigits(comps[0]) {
		providerID, family, given = comps[0], comps[1], comps[2]
	} else {
		family = comps[0]
		if len(comps) > 1 {
			given = comps[1]
		}
		if len(comps) > 2 {
			providerID = comps[2]
		} else {
			providerID = uuid.NewString()
		}
		if len(comps) > 3 {
			middle = comps[3]
		}
	}

	hn := map[string]interface{}{}
	if strings.TrimSpace(family) != "" {
		hn["family"] = family
	}
	givens := make([]interface{}, 0, 2)
	if strings.TrimSpace(given) != "" {
		givens = append(givens, given)
	}
	if strings.TrimSpace(middle) != "" {
		givens = append(givens, middle)
	}
	if len(givens) > 0 {
		hn["given"] = givens
	}
	if len(comps) > 6 && strings.TrimSpace(comps[6]) != "" {
		hn["prefix"] = []interface{}{comps[6]}
	}

	prac := s.idx.practitionerByIdentifier(providerID)
	fresh := prac == nil
	if fresh {
		prac = map[string]interface{}{
			"resourceType": kindPractitioner,
			"id":           uuid.NewString(),
		}
	}

	prac["name"] = []interface{}{hn}
	prac["identifier"] = []interface{}{fhir.Identifier(systemNPI, providerID)}
	fhir.AddProfile(prac, profilePractitioner)

	if fresh {
		s.idx.append(fhir.Entry{FullURL: fhir.URN(fhir.ResourceID(prac)), Resource: prac})
	}

	participant := map[string]interface{}{
		"type": []interface{}{
			fhir.Concept(fhir.Coding(systemParticipationType, role, "")),
		},
		"individual": fhir.Reference(fhir.URN(fhir.ResourceID(prac))),
	}
	if period := fhir.Map(enc, "period"); period != nil && fhir.Str(period, "start") != "" {
		participant["period"] = fhir.CopyMap(period)
	}
	enc["participant"] = append(fhir.Slice(enc, "participant"), participant)
}
