package hl7v2

import "strings"

// Fields is the flat record of optional values the normalization pipeline
// reads from the source message. Every field is a pointer: nil means the
// position was absent (or blank) in the message, and every consumer treats
// nil as "skip the rule", never as an error.
type Fields struct {
	// MSH
	MessageDateTime   *string // MSH-7, YYYYMMDDHHMMSS
	EventCode         *string // MSH-9, e.g. "ADT^A04"
	SendingApp        *string // MSH-3
	SendingFacility   *string // MSH-4
	ReceivingApp      *string // MSH-5
	ReceivingFacility *string // MSH-6

	// PID
	PatientName          *string // PID-5, first repetition
	PatientDOB           *string // PID-7, truncated to YYYYMMDD
	PatientGender        *string // PID-8
	PatientRace          *string
	PatientPhone         *string
	PatientLanguage      *string
	PatientMaritalStatus *string
	PatientReligion      *string

	// PV1
	Location       *string // raw PV1-3
	LocationPOC    *string
	LocationRoom   *string
	LocationBed    *string
	AdmissionType  *string
	AttendingName  *string
	ConsultingName *string
	AccountNumber  *string // PV1-18
	VisitNumber    *string // PV1-19
	AdmitDateTime  *string // PV1-44, YYYYMMDDHHMMSS

	// NK1
	NK1Name             *string
	NK1RelationshipCode *string
	NK1Phone            *string // first component of NK1-5

	// AL1
	AllergyCode     *string
	AllergyReaction *string

	// IN1
	InsurancePayerID     *string
	InsurancePayerName   *string
	InsuranceGroupNumber *string

	// GT1
	GuarantorName  *string
	GuarantorPhone *string
}

// ExtractFields walks the message segments in order and captures the
// positional fields above. Later segments of the same type overwrite
// earlier ones, matching the reference extractor.
func ExtractFields(m *Message) *Fields {
	f := &Fields{}
	if m == nil {
		return f
	}

	for i := range m.Segments {
		seg := &m.Segments[i]
		switch seg.Name {
		case "MSH":
			setOpt(&f.SendingApp, fieldOpt(seg, 3))
			setOpt(&f.SendingFacility, fieldOpt(seg, 4))
			setOpt(&f.ReceivingApp, fieldOpt(seg, 5))
			setOpt(&f.ReceivingFacility, fieldOpt(seg, 6))
			setOpt(&f.MessageDateTime, fieldOpt(seg, 7))
			setOpt(&f.EventCode, fieldOpt(seg, 9))
		case "PID":
			if name := fieldOpt(seg, 5); name != nil {
				// PID-5 may carry repetitions; use the first.
				first := strings.TrimSpace(strings.Split(*name, "~")[0])
				setOpt(&f.PatientName, opt(first))
			}
			if dob := fieldOpt(seg, 7); dob != nil {
				v := strings.TrimSpace(*dob)
				if len(v) >= 8 {
					v = v[:8]
				}
				setOpt(&f.PatientDOB, opt(v))
			}
			if g := fieldOpt(seg, 8); g != nil {
				setOpt(&f.PatientGender, opt(strings.TrimSpace(*g)))
			}
			setOpt(&f.PatientRace, fieldOpt(seg, 10))
			setOpt(&f.PatientPhone, fieldOpt(seg, 12))
			setOpt(&f.PatientLanguage, fieldOpt(seg, 14))
			setOpt(&f.PatientMaritalStatus, fieldOpt(seg, 15))
			setOpt(&f.PatientReligion, fieldOpt(seg, 16))
		case "PV1":
			if loc := fieldOpt(seg, 3); loc != nil {
				f.Location = loc
				comps := strings.Split(*loc, "^")
				if len(comps) > 0 {
					setOpt(&f.LocationPOC, opt(comps[0]))
				}
				if len(comps) > 1 {
					setOpt(&f.LocationRoom, opt(comps[1]))
				}
				if len(comps) > 2 {
					setOpt(&f.LocationBed, opt(comps[2]))
				}
			}
			setOpt(&f.AdmissionType, fieldOpt(seg, 4))
			setOpt(&f.AttendingName, fieldOpt(seg, 7))
			setOpt(&f.ConsultingName, fieldOpt(seg, 9))
			setOpt(&f.AccountNumber, fieldOpt(seg, 18))
			setOpt(&f.VisitNumber, fieldOpt(seg, 19))
			setOpt(&f.AdmitDateTime, fieldOpt(seg, 44))
		case "NK1":
			setOpt(&f.NK1Name, fieldOpt(seg, 2))
			setOpt(&f.NK1RelationshipCode, fieldOpt(seg, 3))
			if phone := fieldOpt(seg, 5); phone != nil {
				// XTN may carry subcomponents (extension etc.); keep the first.
				setOpt(&f.NK1Phone, opt(strings.Split(*phone, "^")[0]))
			}
		case "AL1":
			setOpt(&f.AllergyCode, fieldOpt(seg, 3))
			setOpt(&f.AllergyReaction, fieldOpt(seg, 5))
		case "IN1":
			setOpt(&f.InsurancePayerID, fieldOpt(seg, 3))
			setOpt(&f.InsurancePayerName, fieldOpt(seg, 4))
			setOpt(&f.InsuranceGroupNumber, fieldOpt(seg, 8))
		case "GT1":
			setOpt(&f.GuarantorName, fieldOpt(seg, 3))
			setOpt(&f.GuarantorPhone, fieldOpt(seg, 5))
		}
	}

	return f
}

// fieldOpt returns the field at the 1-based HL7 index, or nil when the
// position is missing or blank.
func fieldOpt(seg *Segment, index int) *string {
	idx := index - 1
	if idx < 0 || idx >= len(seg.Fields) {
		return nil
	}
	return opt(seg.Fields[idx].Value)
}

// setOpt assigns v only when present, so a repeated segment with a blank
// position never clears a value captured from an earlier instance.
func setOpt(dst **string, v *string) {
	if v != nil {
		*dst = v
	}
}

// opt converts a value to an optional: blank becomes nil.
func opt(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}
