package systems

import (
	"github.com/cottand/qualis/config"
	"github.com/cottand/qualis/lattice"
	"github.com/cottand/qualis/qualifier"
)

func init() {
	config.RegisterPayloadOps("minlen", MinLenOps{})
}

// MinLenOps compares MinLen(n) qualifiers, where n is a lower bound on
// the length of a sequence: a larger n is a subtype of a smaller one.
type MinLenOps struct{}

var _ qualifier.PayloadOps = MinLenOps{}

// minLen is the bound of q. Qualifiers without payload have none.
func minLen(q qualifier.Qualifier) (int, bool) {
	if !q.Kind().HasPayload() || len(q.Args()) == 0 {
		return 0, false
	}
	n, ok := q.Arg(0).(int)
	return n, ok
}

func (MinLenOps) IsSubtype(sub, super qualifier.Qualifier) bool {
	n1, _ := minLen(sub)
	n2, _ := minLen(super)
	return n1 >= n2
}

func (MinLenOps) Lub(q1, q2 qualifier.Qualifier, lubKind *lattice.Kind) qualifier.Qualifier {
	n1, ok1 := minLen(q1)
	n2, ok2 := minLen(q2)
	switch {
	case !ok1:
		return qualifier.New(lubKind, n2)
	case !ok2:
		return qualifier.New(lubKind, n1)
	}
	return qualifier.New(lubKind, min(n1, n2))
}

func (MinLenOps) Glb(q1, q2 qualifier.Qualifier, glbKind *lattice.Kind) qualifier.Qualifier {
	n1, _ := minLen(q1)
	n2, _ := minLen(q2)
	return qualifier.New(glbKind, max(n1, n2))
}

func (MinLenOps) Instance(kind *lattice.Kind) qualifier.Qualifier {
	return qualifier.New(kind, 0)
}
