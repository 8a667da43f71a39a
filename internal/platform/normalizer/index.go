package normalizer

import (
	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/fhir"
)

// bundleIndex keeps auxiliary lookups over the bundle entries so that the
// passes never re-scan the whole entry list. It preserves first-match-wins
// semantics: positions are recorded in entry order and lookups return the
// earliest entry.
type bundleIndex struct {
	bundle *fhir.Bundle

	// byKind maps resourceType to entry positions in bundle order.
	byKind map[string][]int

	// practitionerByIdent maps an identifier value to the position of the
	// first Practitioner entry carrying it.
	practitionerByIdent map[string]int
}

func newBundleIndex(b *fhir.Bundle) *bundleIndex {
	ix := &bundleIndex{
		bundle:              b,
		byKind:              map[string][]int{},
		practitionerByIdent: map[string]int{},
	}
	for pos := range b.Entry {
		ix.record(pos)
	}
	return ix
}

// record registers the entry at pos in the lookup maps.
func (ix *bundleIndex) record(pos int) {
	res := ix.bundle.Entry[pos].Resource
	if res == nil {
		return
	}
	kind := fhir.ResourceType(res)
	ix.byKind[kind] = append(ix.byKind[kind], pos)
	if kind == kindPractitioner {
		ix.indexPractitionerIdentifiers(pos)
	}
}

func (ix *bundleIndex) indexPractitionerIdentifiers(pos int) {
	res := ix.bundle.Entry[pos].Resource
	for _, v := range fhir.Slice(res, "identifier") {
		ident, _ := v.(map[string]interface{})
		if ident == nil {
			continue
		}
		value := fhir.Str(ident, "value")
		if value == "" {
			continue
		}
		if _, exists := ix.practitionerByIdent[value]; !exists {
			ix.practitionerByIdent[value] = pos
		}
	}
}

// first returns the resource of the earliest entry of the given kind.
func (ix *bundleIndex) first(kind string) map[string]interface{} {
	positions := ix.byKind[kind]
	if len(positions) == 0 {
		return nil
	}
	return ix.bundle.Entry[positions[0]].Resource
}

// all returns the resources of every entry of the given kind, in order.
// The slice is rebuilt per call because positions may shift on prepend.
func (ix *bundleIndex) all(kind string) []map[string]interface{} {
	positions := ix.byKind[kind]
	out := make([]map[string]interface{}, 0, len(positions))
	for _, pos := range positions {
		out = append(out, ix.bundle.Entry[pos].Resource)
	}
	return out
}

// append adds an entry at the end of the bundle and indexes it.
func (ix *bundleIndex) append(e fhir.Entry) {
	ix.bundle.Entry = append(ix.bundle.Entry, e)
	ix.record(len(ix.bundle.Entry) - 1)
}

// prepend inserts an entry as the first of the bundle, shifting every
// recorded position by one.
func (ix *bundleIndex) prepend(e fhir.Entry) {
	ix.bundle.Entry = append([]fhir.Entry{e}, ix.bundle.Entry...)
	for kind, positions := range ix.byKind {
		for i := range positions {
			positions[i]++
		}
		ix.byKind[kind] = positions
	}
	for value, pos := range ix.practitionerByIdent {
		ix.practitionerByIdent[value] = pos + 1
	}
	// The new entry is now the earliest of its kind.
	res := e.Resource
	if res == nil {
		return
	}
	kind := fhir.ResourceType(res)
	ix.byKind[kind] = append([]int{0}, ix.byKind[kind]...)
	if kind == kindPractitioner {
		ix.indexPractitionerIdentifiers(0)
	}
}

// practitionerByIdentifier returns the first Practitioner resource carrying
// the identifier value, or nil.
func (ix *bundleIndex) practitionerByIdentifier(value string) map[string]interface{} {
	pos, ok := ix.practitionerByIdent[value]
	if !ok {
		return nil
	}
	return ix.bundle.Entry[pos].Resource
}
