// Package normalizer rewrites an auto-converted FHIR bundle until it
// satisfies the US Core profile validator. The upstream converter output is
// unpredictable: identifiers can be malformed, demographics missing, codes
// untranslated. The rules here reconcile that bundle with the fields
// extracted from the original HL7v2 message, preserving referential
// integrity across the entry graph.
//
// The pipeline is an ordered list of named passes over one mutable bundle.
// The ordering is load-bearing: later passes depend on entries created by
// earlier ones, and the header-focus pass must run last, after the subject
// and episode it links have been resolved.
package normalizer

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/fhir"
	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/hl7v2"
)

// Normalizer applies the conformance rules. It holds no per-request state;
// one instance serves concurrent requests.
type Normalizer struct {
	log zerolog.Logger
	now func() time.Time
}

// New creates a Normalizer logging diagnostics to log.
func New(log zerolog.Logger) *Normalizer {
	return &Normalizer{log: log, now: time.Now}
}

// NewWithClock creates a Normalizer with a fixed clock, for tests and
// deterministic replay.
func NewWithClock(log zerolog.Logger, now func() time.Time) *Normalizer {
	return &Normalizer{log: log, now: now}
}

// Result carries the normalized bundle and any non-fatal diagnostics for
// rules that were skipped because a source value failed to parse.
type Result struct {
	Bundle   *fhir.Bundle
	Warnings []string
}

type pass struct {
	name string
	run  func(*state)
}

// state is the per-invocation working set shared by the passes.
type state struct {
	bundle *fhir.Bundle
	fields *hl7v2.Fields
	idx    *bundleIndex
	now    time.Time

	// subject is the canonical Patient resource, resolved (or created) by
	// the subject pass and consumed by everything after it.
	subject map[string]interface{}

	warnings []string
}

func (s *state) warnf(format string, args ...interface{}) {
	s.warnings = append(s.warnings, fmt.Sprintf(format, args...))
}

// has reports whether an optional field is present.
func has(p *string) bool { return p != nil }

// val returns the value of an optional field, or "".
func val(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Normalize runs every pass over the bundle in order. A nil bundle
// short-circuits to an empty result. Normalize never fails: per-field parse
// problems skip their rule and surface in Result.Warnings.
func (n *Normalizer) Normalize(bundle *fhir.Bundle, fields *hl7v2.Fields) *Result {
	if bundle == nil {
		return &Result{}
	}
	if fields == nil {
		fields = &hl7v2.Fields{}
	}

	s := &state{
		bundle: bundle,
		fields: fields,
		idx:    newBundleIndex(bundle),
		now:    n.now(),
	}

	passes := []pass{
		{"envelope", (*state).ensureEnvelope},
		{"canonicalize", (*state).canonicalizeFullURLs},
		{"subject", (*state).resolveSubject},
		{"episodes", (*state).normalizeEpisodes},
		{"demographics", (*state).applyDemographics},
		{"ancillary", (*state).synthesizeAncillary},
		{"extensions", (*state).stripVendorExtensions},
		{"canonicalize-final", (*state).collapseDuplicateURNs},
		{"header-focus", (*state).linkHeaderFocus},
	}

	for _, p := range passes {
		before := len(s.warnings)
		p.run(s)
		for _, w := range s.warnings[before:] {
			n.log.Debug().Str("pass", p.name).Msg(w)
		}
	}

	return &Result{Bundle: bundle, Warnings: s.warnings}
}
