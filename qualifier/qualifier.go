package qualifier

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cottand/qualis/lattice"
)

// Qualifier is a qualifier instance at a type use: a kind plus, for
// kinds with payload, its arguments.
//
// The zero Qualifier is Absent, the explicit "no qualifier here" marker
// used for unannotated type variable bounds.
type Qualifier struct {
	kind *lattice.Kind
	args []any
}

// Absent marks the absence of a qualifier in a hierarchy
var Absent = Qualifier{}

// New returns a qualifier of the given kind. args must be comparable values.
func New(kind *lattice.Kind, args ...any) Qualifier {
	if len(args) == 0 {
		args = nil
	}
	return Qualifier{kind: kind, args: args}
}

func (q Qualifier) Kind() *lattice.Kind { return q.kind }
func (q Qualifier) Args() []any         { return slices.Clone(q.args) }
func (q Qualifier) IsAbsent() bool      { return q.kind == nil }

// Arg returns the i-th payload argument, or nil
func (q Qualifier) Arg(i int) any {
	if i < 0 || i >= len(q.args) {
		return nil
	}
	return q.args[i]
}

// Equal is true when both qualifiers have the same kind and arguments
func (q Qualifier) Equal(other Qualifier) bool {
	return q.kind == other.kind && slices.Equal(q.args, other.args)
}

func (q Qualifier) String() string {
	if q.IsAbsent() {
		return "<absent>"
	}
	if len(q.args) == 0 {
		return "@" + q.kind.Name()
	}
	args := make([]string, 0, len(q.args))
	for _, arg := range q.args {
		args = append(args, fmt.Sprint(arg))
	}
	return fmt.Sprintf("@%s(%s)", q.kind.Name(), strings.Join(args, ", "))
}

// Names renders quals for logging and test failures
func Names(quals []Qualifier) string {
	names := make([]string, 0, len(quals))
	for _, q := range quals {
		names = append(names, q.String())
	}
	return strings.Join(names, " ")
}
