package qualifier

import (
	"github.com/cottand/qualis/qerr"
)

// FindInHierarchy returns the qualifier in quals that belongs to top's hierarchy
func FindInHierarchy(h Hierarchy, quals []Qualifier, top Qualifier) (Qualifier, bool) {
	for _, q := range quals {
		if !q.IsAbsent() && q.Kind().Top() == top.Kind() {
			return q, true
		}
	}
	return Absent, false
}

// FindInSameHierarchy returns the qualifier in quals in the same hierarchy as q
func FindInSameHierarchy(h Hierarchy, quals []Qualifier, q Qualifier) (Qualifier, bool) {
	return FindInHierarchy(h, quals, h.Top(q))
}

// IsSubtypeSets compares two fully annotated qualifier sets hierarchy by hierarchy.
// Sets of different sizes are never subtypes.
func IsSubtypeSets(h Hierarchy, subs, supers []Qualifier) bool {
	if len(subs) != len(supers) {
		return false
	}
	for _, super := range supers {
		sub, ok := FindInSameHierarchy(h, subs, super)
		if !ok || !h.IsSubtype(sub, super) {
			return false
		}
	}
	return true
}

func combineSets(h Hierarchy, op string, quals1, quals2 []Qualifier, combine func(q1, q2 Qualifier) (Qualifier, bool)) ([]Qualifier, error) {
	if len(quals1) != len(quals2) {
		return nil, qerr.NewBug(qerr.ArgumentCount, "%s of qualifier sets of different size: [%s] and [%s]", op, Names(quals1), Names(quals2))
	}
	if len(quals1) == 0 {
		return nil, qerr.NewBug(qerr.EmptyQualifiers, "%s of empty qualifier sets", op)
	}
	result := make([]Qualifier, 0, len(quals1))
	for _, top := range h.Tops() {
		q1, ok1 := FindInHierarchy(h, quals1, top)
		q2, ok2 := FindInHierarchy(h, quals2, top)
		if ok1 != ok2 {
			return nil, qerr.NewBug(qerr.EmptyQualifiers, "%s: only one of [%s] and [%s] has a qualifier in hierarchy %s", op, Names(quals1), Names(quals2), top)
		}
		if !ok1 {
			continue
		}
		combined, ok := combine(q1, q2)
		if !ok {
			return nil, qerr.NewBug(qerr.Unrelated, "%s of %s and %s is undefined", op, q1, q2)
		}
		result = append(result, combined)
	}
	return result, nil
}

// LubSets is the hierarchy-wise lub of two qualifier sets
func LubSets(h Hierarchy, quals1, quals2 []Qualifier) ([]Qualifier, error) {
	return combineSets(h, "lub", quals1, quals2, h.Lub)
}

// GlbSets is the hierarchy-wise glb of two qualifier sets
func GlbSets(h Hierarchy, quals1, quals2 []Qualifier) ([]Qualifier, error) {
	return combineSets(h, "glb", quals1, quals2, h.Glb)
}

// IsSubtypeTypeVariable compares qualifiers on type variable bounds, where
// Absent is a placeholder: Absent is below everything, and only Absent is below Absent.
func IsSubtypeTypeVariable(h Hierarchy, sub, super Qualifier) bool {
	if sub.IsAbsent() {
		return true
	}
	if super.IsAbsent() {
		return false
	}
	return h.IsSubtype(sub, super)
}

// LubTypeVariable is Absent when either side is Absent
func LubTypeVariable(h Hierarchy, q1, q2 Qualifier) (Qualifier, bool) {
	if q1.IsAbsent() || q2.IsAbsent() {
		return Absent, true
	}
	return h.Lub(q1, q2)
}

// GlbTypeVariable is the other side when one side is Absent
func GlbTypeVariable(h Hierarchy, q1, q2 Qualifier) (Qualifier, bool) {
	switch {
	case q1.IsAbsent():
		return q2, true
	case q2.IsAbsent():
		return q1, true
	}
	return h.Glb(q1, q2)
}

// IsSubtypeSetsTypeVariable is IsSubtypeSets with IsSubtypeTypeVariable per hierarchy,
// where sets may lack a qualifier for some hierarchies
func IsSubtypeSetsTypeVariable(h Hierarchy, subs, supers []Qualifier) bool {
	for _, top := range h.Tops() {
		sub, _ := FindInHierarchy(h, subs, top)
		super, _ := FindInHierarchy(h, supers, top)
		if !IsSubtypeTypeVariable(h, sub, super) {
			return false
		}
	}
	return true
}

// AddToMapping adds q to the set stored at key, unless that set already
// has a qualifier in the same hierarchy. It reports whether q was added.
func AddToMapping[K comparable](h Hierarchy, mapping map[K][]Qualifier, key K, q Qualifier) bool {
	existing := mapping[key]
	if _, ok := FindInSameHierarchy(h, existing, q); ok {
		return false
	}
	mapping[key] = append(existing, q)
	return true
}
