// Package hl7v2 parses raw HL7v2 messages and extracts the flat field
// record the normalization pipeline consumes.
package hl7v2

import (
	"fmt"
	"strings"
	"time"
)

// Message represents a parsed HL7v2 message.
type Message struct {
	Type         string    // MSH-9 message type (e.g. "ADT^A04")
	ControlID    string    // MSH-10
	Version      string    // MSH-12 (e.g. "2.5.1")
	Timestamp    time.Time // MSH-7
	SendingApp   string    // MSH-3
	SendingFac   string    // MSH-4
	ReceivingApp string    // MSH-5
	ReceivingFac string    // MSH-6
	Segments     []Segment
}

// Segment represents a single HL7v2 segment.
type Segment struct {
	Name   string // e.g. "MSH", "PID", "PV1"
	Fields []Field
}

// Field represents a field which can have components and repetitions.
type Field struct {
	Value      string
	Components []string   // Component-separated (^)
	Repeats    [][]string // Repetition-separated (~), each with components
}

// Parse parses raw HL7v2 message bytes into a structured Message.
// It supports \r, \n, and \r\n line endings for segment separation.
func Parse(raw []byte) (*Message, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("hl7v2: message is empty")
	}

	text := string(raw)
	text = strings.ReplaceAll(text, "\r\n", "\r")
	text = strings.ReplaceAll(text, "\n", "\r")

	var segmentLines []string
	for _, line := range strings.Split(text, "\r") {
		line = strings.TrimSpace(line)
		if line != "" {
			segmentLines = append(segmentLines, line)
		}
	}

	if len(segmentLines) == 0 {
		return nil, fmt.Errorf("hl7v2: no segments found")
	}

	if !strings.HasPrefix(segmentLines[0], "MSH") {
		return nil, fmt.Errorf("hl7v2: first segment must be MSH, got %q", segmentLines[0][:min(3, len(segmentLines[0]))])
	}

	msg := &Message{}

	for _, line := range segmentLines {
		seg, err := parseSegment(line)
		if err != nil {
			return nil, fmt.Errorf("hl7v2: failed to parse segment: %w", err)
		}
		msg.Segments = append(msg.Segments, seg)
	}

	if err := msg.extractMSHFields(); err != nil {
		return nil, err
	}

	return msg, nil
}

// parseSegment parses a single segment line into a Segment struct.
func parseSegment(line string) (Segment, error) {
	if len(line) < 3 {
		return Segment{}, fmt.Errorf("segment too short: %q", line)
	}

	seg := Segment{}

	// MSH is special: the field separator (|) is MSH-1 itself.
	if strings.HasPrefix(line, "MSH") {
		seg.Name = "MSH"
		if len(line) < 4 {
			return seg, nil
		}

		fieldSep := string(line[3])
		rest := line[4:] // everything after "MSH|"
		parts := strings.Split(rest, fieldSep)

		// Fields[0] = MSH-1 = the separator itself, Fields[1] = MSH-2
		// (encoding characters), Fields[2] = MSH-3, and so on.
		seg.Fields = append(seg.Fields, Field{
			Value:      fieldSep,
			Components: []string{fieldSep},
		})

		for _, part := range parts {
			seg.Fields = append(seg.Fields, parseField(part))
		}
	} else {
		parts := strings.SplitN(line, "|", 2)
		seg.Name = parts[0]

		if len(parts) > 1 {
			for _, f := range strings.Split(parts[1], "|") {
				seg.Fields = append(seg.Fields, parseField(f))
			}
		}
	}

	return seg, nil
}

// parseField parses a single field, handling components (^) and repetitions (~).
func parseField(raw string) Field {
	f := Field{Value: raw}

	for _, rep := range strings.Split(raw, "~") {
		f.Repeats = append(f.Repeats, strings.Split(rep, "^"))
	}
	f.Components = f.Repeats[0]

	return f
}

// extractMSHFields extracts commonly used MSH fields into the Message struct.
func (m *Message) extractMSHFields() error {
	msh := m.GetSegment("MSH")
	if msh == nil {
		return fmt.Errorf("hl7v2: MSH segment not found")
	}

	m.SendingApp = msh.GetField(3)
	m.SendingFac = msh.GetField(4)
	m.ReceivingApp = msh.GetField(5)
	m.ReceivingFac = msh.GetField(6)

	if ts := msh.GetField(7); ts != "" {
		if t, err := parseTimestamp(ts); err == nil {
			m.Timestamp = t
		}
	}

	m.Type = msh.GetField(9)
	m.ControlID = msh.GetField(10)
	m.Version = msh.GetField(12)

	return nil
}

// parseTimestamp parses an HL7v2 timestamp string (YYYYMMDDHHmmss or YYYYMMDD).
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	switch {
	case len(s) >= 14:
		return time.Parse("20060102150405", s[:14])
	case len(s) >= 12:
		return time.Parse("200601021504", s[:12])
	case len(s) >= 8:
		return time.Parse("20060102", s[:8])
	default:
		return time.Time{}, fmt.Errorf("hl7v2: unrecognized timestamp format: %q", s)
	}
}

// GetSegment returns the first segment with the given name, or nil if not found.
func (m *Message) GetSegment(name string) *Segment {
	for i := range m.Segments {
		if m.Segments[i].Name == name {
			return &m.Segments[i]
		}
	}
	return nil
}

// GetSegments returns all segments with the given name.
func (m *Message) GetSegments(name string) []Segment {
	var result []Segment
	for _, seg := range m.Segments {
		if seg.Name == name {
			result = append(result, seg)
		}
	}
	return result
}

// GetField returns the value of a field by its 1-based HL7 index, or ""
// when the field is not present. For MSH, field 1 is the separator itself.
func (s *Segment) GetField(index int) string {
	idx := index - 1
	if idx < 0 || idx >= len(s.Fields) {
		return ""
	}
	return s.Fields[idx].Value
}

// GetComponent returns a component value by 1-based field and component indices.
func (s *Segment) GetComponent(fieldIdx, compIdx int) string {
	idx := fieldIdx - 1
	if idx < 0 || idx >= len(s.Fields) {
		return ""
	}
	ci := compIdx - 1
	comps := s.Fields[idx].Components
	if ci < 0 || ci >= len(comps) {
		return ""
	}
	return comps[ci]
}
