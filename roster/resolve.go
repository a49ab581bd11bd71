package roster

// Status classifies the outcome of a lookup.
type Status int

const (
	NotFound Status = iota
	Found
	Ambiguous
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case Ambiguous:
		return "ambiguous"
	default:
		return "not_found"
	}
}

// Resolution is the result of resolving one PersonKey.
type Resolution struct {
	Status     Status
	ID         string   // set when Status == Found
	Candidates []string // set when Status == Ambiguous, sorted
}

// Resolve looks k up. Exactly one recognition number resolves; two or more
// are reported as Ambiguous; none (or an invalid key) is NotFound.
func (x *Index) Resolve(k PersonKey) Resolution {
	if !k.Valid() {
		return Resolution{Status: NotFound}
	}
	ids := x.ids[k]
	switch len(ids) {
	case 0:
		return Resolution{Status: NotFound}
	case 1:
		return Resolution{Status: Found, ID: ids[0]}
	default:
		return Resolution{Status: Ambiguous, Candidates: append([]string(nil), ids...)}
	}
}
