package dataprocessing

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"settlecli/pkg/contracts/domain"
)

// Column label fragments per role, in priority order.
var (
	IdentifierFragments = []string{"cuit", "cuil", "ident", "doc"}
	QuantityFragments   = []string{"nominal", "cantidad", "vn", "monto", "precio", "valor"}
	NameFragments       = []string{"nombre", "razon", "denominacion", "titular", "apellido"}
)

// NormalizeLabel lower-cases a column label, folds accents and drops every
// character outside [a-z0-9]. "C.U.I.T." becomes "cuit", "Razón Social"
// becomes "razonsocial".
func NormalizeLabel(label string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, label)
	if err != nil {
		folded = label
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FindKey returns the first label of record whose normalized form contains
// a fragment. Fragments are tried in order; the first one matching any
// label wins. It returns "" when nothing matches.
func FindKey(record domain.RawRecord, fragments []string) string {
	keys := record.Keys()
	normalized := make([]string, len(keys))
	for i, k := range keys {
		normalized[i] = NormalizeLabel(k)
	}
	for _, fragment := range fragments {
		for i, n := range normalized {
			if strings.Contains(n, fragment) {
				return keys[i]
			}
		}
	}
	return ""
}

// RepresentativeRecord picks the record used for column resolution: the
// first one carrying at least one label, else the first one.
func RepresentativeRecord(records []domain.RawRecord) domain.RawRecord {
	for _, r := range records {
		if r.Len() > 0 {
			return r
		}
	}
	if len(records) > 0 {
		return records[0]
	}
	return domain.NewRawRecord()
}

// ResolveFields resolves the identifier, quantity and name columns of a
// sheet once, from its representative record.
func ResolveFields(records []domain.RawRecord) domain.FieldKeys {
	sample := RepresentativeRecord(records)
	return domain.FieldKeys{
		Identifier: FindKey(sample, IdentifierFragments),
		Quantity:   FindKey(sample, QuantityFragments),
		Name:       FindKey(sample, NameFragments),
	}
}
