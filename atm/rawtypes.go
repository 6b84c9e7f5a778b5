package atm

import (
	"maps"
	"slices"

	"github.com/hashicorp/go-set/v3"
)

// indexPair says the type parameter of a subtype declaration at index
// sub is passed as the type argument at index super of a supertype
type indexPair struct {
	sub, super int
}

// typeArgumentIndices follows the first inheritance path from sub to
// super and reports which type parameters of sub end up as which type
// arguments of super. Parameters only flow through arguments that are
// exactly a use of them. A raw supertype on the path passes parameters
// on by position.
func typeArgumentIndices(ctx *TypeCtx, sub, super *Decl) []indexPair {
	type step struct {
		decl *Decl
		// tracked maps indices of sub's parameters to indices of decl's
		tracked map[int]int
	}
	start := step{decl: sub, tracked: map[int]int{}}
	for i := range sub.params {
		start.tracked[i] = i
	}
	seen := set.New[*Decl](4)
	queue := []step{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.decl == super {
			pairs := make([]indexPair, 0, len(current.tracked))
			for _, subIndex := range slices.Sorted(maps.Keys(current.tracked)) {
				pairs = append(pairs, indexPair{sub: subIndex, super: current.tracked[subIndex]})
			}
			return pairs
		}
		if !seen.Insert(current.decl) {
			continue
		}
		for _, st := range ctx.declaredSupertypes(current.decl) {
			next := step{decl: st.decl, tracked: map[int]int{}}
			for subIndex, paramIndex := range current.tracked {
				if st.raw {
					if paramIndex < len(st.decl.params) {
						next.tracked[subIndex] = paramIndex
					}
					continue
				}
				param := current.decl.params[paramIndex]
				for j, arg := range st.args {
					if tv, ok := arg.(*TypeVariable); ok && tv.param == param {
						next.tracked[subIndex] = j
						break
					}
				}
			}
			queue = append(queue, next)
		}
	}
	return nil
}
