/*
Package roster resolves facility person keys to canonical recognition numbers.

PURPOSE:
  The authority identifies beneficiaries by recognition number (인정번호).
  Facility logs only carry a name and a birth fragment. The beneficiary master
  list is the bridge: it is folded into an Index from PersonKey to the SET of
  recognition numbers seen for that key.

AMBIGUITY:
  Two people can share a name and a YYMMDD birth fragment. That is real data,
  not a bug. Resolve reports such keys as Ambiguous with every candidate and
  never picks one.

LIFECYCLE:
  Built once per run from freshly parsed rows, immutable afterwards.

SEE ALSO:
  - sheet/header.go: Column discovery on the master sheet
  - schedule/engine.go: The only consumer
*/
package roster

import (
	"sort"

	"github.com/carecheck/attendance-engine/keys"
	"github.com/carecheck/attendance-engine/sheet"
)

// Column label names used in HeaderMatch.
const (
	ColName  = "name"
	ColBirth = "birth"
	ColID    = "id"
)

// =============================================================================
// PERSON KEY
// =============================================================================

// PersonKey is the (name, birth fragment) pair used to look up a beneficiary.
type PersonKey struct {
	Name  string // normalized name
	Birth string // YYMMDD
}

// NewPersonKey normalizes raw cells into a key.
func NewPersonKey(rawName, rawBirth string) PersonKey {
	return PersonKey{
		Name:  keys.NormalizeName(rawName),
		Birth: keys.NormalizeBirthFragment(rawBirth),
	}
}

// Valid reports whether both parts are usable for a lookup.
func (k PersonKey) Valid() bool {
	return k.Name != "" && keys.IsBirthFragment(k.Birth)
}

func (k PersonKey) String() string { return k.Name + "|" + k.Birth }

// =============================================================================
// OPTIONS
// =============================================================================

// Options control how the master sheet is read.
type Options struct {
	Scanner sheet.HeaderScanner
	Name    sheet.Label
	Birth   sheet.Label
	ID      sheet.Label
}

// DefaultOptions match the authority's beneficiary list export.
func DefaultOptions() Options {
	return Options{
		Scanner: sheet.HeaderScanner{Window: 20, Width: 15},
		Name:    sheet.Label{Name: ColName, Contains: []string{"수급자명"}, Exact: []string{"성명", "이름"}},
		Birth:   sheet.ContainsLabel(ColBirth, "생년월일"),
		ID:      sheet.ContainsLabel(ColID, "인정번호"),
	}
}

// =============================================================================
// INDEX
// =============================================================================

// Index maps person keys to recognition numbers.
type Index struct {
	ids     map[PersonKey][]string
	skipped int
}

// Build scans the master sheet for its header and folds every complete row
// into an Index. A missing header is fatal; incomplete rows are skipped.
func Build(rows []sheet.Row, opts Options) (*Index, error) {
	opts.Name.Name, opts.Birth.Name, opts.ID.Name = ColName, ColBirth, ColID

	header, err := opts.Scanner.Scan("master", rows, opts.Name, opts.Birth, opts.ID)
	if err != nil {
		return nil, err
	}

	nameCol, birthCol, idCol := header.Column(ColName), header.Column(ColBirth), header.Column(ColID)

	type entry struct {
		key PersonKey
		id  string
	}
	entries, skipped := sheet.Extract(rows, header.Row, func(_ int, r sheet.Row) (entry, bool) {
		e := entry{
			key: NewPersonKey(r.Cell(nameCol), r.Cell(birthCol)),
			id:  r.Cell(idCol),
		}
		return e, e.key.Valid() && e.id != ""
	})

	idx := &Index{ids: make(map[PersonKey][]string), skipped: skipped}
	for _, e := range entries {
		idx.add(e.key, e.id)
	}
	return idx, nil
}

// NewIndex builds an Index directly from key/id pairs. Used by tests and
// callers that already hold structured roster data.
func NewIndex(pairs map[PersonKey][]string) *Index {
	idx := &Index{ids: make(map[PersonKey][]string, len(pairs))}
	for k, ids := range pairs {
		for _, id := range ids {
			idx.add(k, id)
		}
	}
	return idx
}

func (x *Index) add(k PersonKey, id string) {
	ids := x.ids[k]
	i := sort.SearchStrings(ids, id)
	if i < len(ids) && ids[i] == id {
		return
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	x.ids[k] = ids
}

// Len returns the number of distinct person keys.
func (x *Index) Len() int { return len(x.ids) }

// Skipped returns how many master rows were incomplete.
func (x *Index) Skipped() int { return x.skipped }

// Keys returns every person key in sorted order.
func (x *Index) Keys() []PersonKey {
	out := make([]PersonKey, 0, len(x.ids))
	for k := range x.ids {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// IDs returns a copy of the recognition numbers recorded for k.
func (x *Index) IDs(k PersonKey) []string {
	return append([]string(nil), x.ids[k]...)
}
