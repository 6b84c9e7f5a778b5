package lattice

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/qualis/internal/log"
	"github.com/cottand/qualis/qerr"
	"github.com/cottand/qualis/util"
	"github.com/hashicorp/go-set/v3"
	xset "github.com/xtgo/set"
)

// KindHierarchy is the lattice of qualifier kinds derived from a set of Defs.
// It may contain several disjoint hierarchies, each with a single top and a single bottom.
//
// KindHierarchy is immutable once built and safe to share.
type KindHierarchy struct {
	kinds     []*Kind
	byName    map[string]*Kind
	tops      []*Kind
	bottoms   []*Kind
	topToPoly map[*Kind]*Kind

	lubs *immutable.Map[kindPair, *Kind]
	glbs *immutable.Map[kindPair, *Kind]
}

type Option func(*builder)

// WithBottom makes the named qualifier the bottom of its hierarchy, and a
// subtype of every qualifier that has no subtypes. Use it when qualifiers
// may be declared outside the definition set that declares the bottom.
func WithBottom(name string) Option {
	return func(b *builder) {
		b.dynamicBottom = name
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *builder) {
		b.logger = logger
	}
}

type builder struct {
	defs          []Def
	dynamicBottom string
	logger        *slog.Logger

	kinds  []*Kind
	byName map[string]*Kind
	defOf  map[*Kind]Def
	// directSupers only has entries for kinds that declare supertypes
	directSupers map[*Kind]*set.Set[*Kind]
	tops         []*Kind
	bottoms      []*Kind
}

// NewKindHierarchy builds every Kind, validates the resulting lattice and
// precomputes the LUB and GLB of every pair of kinds sharing a top.
// It returns a qerr.TypeSystemError if defs do not describe a valid lattice.
func NewKindHierarchy(defs []Def, opts ...Option) (*KindHierarchy, error) {
	b := &builder{
		defs:   defs,
		logger: log.DefaultLogger.With("section", "lattice"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b.build()
}

func (b *builder) build() (*KindHierarchy, error) {
	steps := []func() error{
		b.createKinds,
		b.createDirectSuperMap,
		b.setDynamicBottom,
		b.findTopsAndBottoms,
		b.initialisePolymorphic,
		b.initialiseKindFields,
		b.verify,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	for _, k := range b.kinds {
		k.initialised = true
	}

	h := &KindHierarchy{
		kinds:     b.kinds,
		byName:    b.byName,
		tops:      b.tops,
		bottoms:   b.bottoms,
		topToPoly: make(map[*Kind]*Kind, len(b.tops)),
	}
	for _, top := range b.tops {
		if top.poly != nil {
			h.topToPoly[top] = top.poly
		}
	}
	var err error
	if h.lubs, err = b.createTable("lub", b.findLub); err != nil {
		return nil, err
	}
	if h.glbs, err = b.createTable("glb", b.findGlb); err != nil {
		return nil, err
	}
	b.logger.Debug("built qualifier hierarchy", "kinds", len(b.kinds), "tops", b.tops, "bottoms", b.bottoms)
	return h, nil
}

func (b *builder) createKinds() error {
	b.byName = make(map[string]*Kind, len(b.defs))
	b.defOf = make(map[*Kind]Def, len(b.defs))
	for _, def := range b.defs {
		if _, ok := b.byName[def.Name]; ok {
			return qerr.NewTypeSystem(qerr.DuplicateQualifier, "duplicate qualifier kind %s", def.Name)
		}
		kind := &Kind{
			name:       def.Name,
			hasPayload: def.HasPayload,
			isPoly:     def.Polymorphic,
		}
		b.byName[def.Name] = kind
		b.defOf[kind] = def
		b.kinds = append(b.kinds, kind)
	}
	sortedKinds(b.kinds)
	return nil
}

func (b *builder) createDirectSuperMap() error {
	b.directSupers = make(map[*Kind]*set.Set[*Kind], len(b.kinds))
	for _, kind := range b.kinds {
		def := b.defOf[kind]
		if def.Polymorphic {
			if def.declaresSupertypes() {
				return qerr.NewTypeSystem(qerr.PolymorphicWithSupertypes,
					"%s is polymorphic and declares supertypes: remove either its supertypes or its polymorphic marker", kind)
			}
			continue
		}
		if !def.declaresSupertypes() && def.Name != b.dynamicBottom {
			return qerr.NewTypeSystem(qerr.MissingSupertypes,
				"%s does not declare its supertypes: declare it a top, a subtype of another qualifier, or polymorphic", kind)
		}
		if def.Top && len(def.SubtypeOf) > 0 {
			return qerr.NewTypeSystem(qerr.TopWithSupertypes, "%s is declared top but has supertypes %v", kind, def.SubtypeOf)
		}
		if !def.declaresSupertypes() {
			// the dynamic bottom gets its supertypes in setDynamicBottom
			continue
		}
		supers := set.New[*Kind](len(def.SubtypeOf))
		for _, superName := range def.SubtypeOf {
			super, ok := b.byName[superName]
			if !ok {
				return qerr.NewTypeSystem(qerr.UnknownQualifier,
					"%s supertype %s isn't in the hierarchy; qualifiers: [%s]", kind, superName, joinKinds(b.kinds))
			}
			supers.Insert(super)
		}
		b.directSupers[kind] = supers
	}
	return nil
}

func (b *builder) setDynamicBottom() error {
	if b.dynamicBottom == "" {
		return nil
	}
	bottom, ok := b.byName[b.dynamicBottom]
	if !ok {
		return qerr.NewTypeSystem(qerr.UnknownQualifier, "bottom %s is not in the hierarchy", b.dynamicBottom)
	}
	leaves := set.New[*Kind](len(b.kinds))
	for _, kind := range b.kinds {
		if kind != bottom && !kind.isPoly {
			leaves.Insert(kind)
		}
	}
	for _, supers := range b.directSupers {
		leaves.RemoveSet(supers)
	}
	if existing, ok := b.directSupers[bottom]; ok {
		existing.InsertSet(leaves)
	} else {
		b.directSupers[bottom] = leaves
	}
	b.logger.Debug("attached leaves to dynamic bottom", "bottom", bottom, "leaves", leaves.Slice())
	return nil
}

func (b *builder) findTopsAndBottoms() error {
	isSuper := set.New[*Kind](len(b.kinds))
	for _, supers := range b.directSupers {
		isSuper.InsertSet(supers)
	}
	for _, kind := range b.kinds {
		supers, ok := b.directSupers[kind]
		if !ok {
			continue
		}
		if supers.Empty() {
			b.tops = append(b.tops, kind)
		}
		if !isSuper.Contains(kind) {
			b.bottoms = append(b.bottoms, kind)
		}
	}
	return nil
}

func (b *builder) initialisePolymorphic() error {
	for _, kind := range b.kinds {
		if !kind.isPoly {
			continue
		}
		kind.poly = kind
		topName := b.defOf[kind].PolymorphicTop
		switch {
		case topName == "" && len(b.tops) == 1:
			kind.top = b.tops[0]
		case topName == "":
			return qerr.NewTypeSystem(qerr.PolymorphicTop,
				"polymorphic qualifier %s did not specify a top; tops: [%s]", kind, joinKinds(b.tops))
		default:
			top, ok := b.byName[topName]
			if !ok {
				return qerr.NewTypeSystem(qerr.PolymorphicTop, "polymorphic qualifier %s's top, %s, is not a qualifier", kind, topName)
			}
			if !slices.Contains(b.tops, top) {
				return qerr.NewTypeSystem(qerr.PolymorphicTop,
					"polymorphic qualifier %s has invalid top %s; tops: [%s]", kind, top, joinKinds(b.tops))
			}
			kind.top = top
		}
		kind.strictSupers = set.From([]*Kind{kind.top})
		kind.top.poly = kind
	}
	return nil
}

func (b *builder) initialiseKindFields() error {
	for _, kind := range b.kinds {
		if kind.isPoly {
			continue
		}
		supers, err := b.findAllSupers(kind)
		if err != nil {
			return err
		}
		kind.strictSupers = supers
	}
	for _, kind := range b.kinds {
		if kind.isPoly {
			// top was set by initialisePolymorphic
			continue
		}
		for _, top := range b.tops {
			if !kind.isSubtypeOf(top) {
				continue
			}
			if kind.top != nil && kind.top != top {
				return qerr.NewTypeSystem(qerr.AmbiguousTop, "multiple tops found for qualifier %s: %s and %s", kind, kind.top, top)
			}
			kind.top = top
		}
		if kind.top == nil {
			return qerr.NewTypeSystem(qerr.AmbiguousTop, "qualifier %s isn't a subtype of any top; tops: [%s]", kind, joinKinds(b.tops))
		}
		kind.poly = kind.top.poly
	}
	for _, kind := range b.kinds {
		for _, bottom := range b.bottoms {
			if bottom.top != kind.top {
				continue
			}
			if kind.bottom != nil && kind.bottom != bottom {
				return qerr.NewTypeSystem(qerr.TopBottomMismatch,
					"multiple bottoms found for qualifier %s: %s and %s", kind, kind.bottom, bottom)
			}
			kind.bottom = bottom
			if kind.isPoly {
				bottom.strictSupers.Insert(kind)
			}
		}
		if kind.bottom == nil {
			return qerr.NewTypeSystem(qerr.TopBottomMismatch, "cannot find a bottom qualifier for %s; bottoms: [%s]", kind, joinKinds(b.bottoms))
		}
	}
	return nil
}

// findAllSupers walks directSupers breadth-first without expanding polymorphic kinds
func (b *builder) findAllSupers(kind *Kind) (*set.Set[*Kind], error) {
	direct := b.directSupers[kind]
	all := direct.Copy()
	toVisit := direct.Slice()
	visited := set.New[*Kind](len(b.kinds))
	for len(toVisit) > 0 {
		super := toVisit[0]
		toVisit = toVisit[1:]
		if super == kind {
			return nil, qerr.NewTypeSystem(qerr.CycleInHierarchy, "cycle in hierarchy: %s", kind)
		}
		if !visited.Insert(super) || super.isPoly {
			continue
		}
		superSupers, ok := b.directSupers[super]
		if !ok {
			return nil, qerr.NewTypeSystem(qerr.MissingSupertypes, "%s has no declared supertypes", super)
		}
		toVisit = append(toVisit, superSupers.Slice()...)
		all.InsertSet(superSupers)
	}
	return all, nil
}

func (b *builder) verify() error {
	if len(b.tops) != len(b.bottoms) {
		return qerr.NewTypeSystem(qerr.TopBottomMismatch,
			"number of tops not equal to number of bottoms: tops: [%s] bottoms: [%s]", joinKinds(b.tops), joinKinds(b.bottoms))
	}
	return nil
}

func (b *builder) findLub(k1, k2 *Kind) (*Kind, error) {
	switch {
	case k1 == k2:
		return k1, nil
	case k1.isSubtypeOf(k2):
		return k2, nil
	case k2.isSubtypeOf(k1):
		return k1, nil
	}
	supers1 := sortedKinds(k1.strictSupers.Slice())
	supers2 := sortedKinds(k2.strictSupers.Slice())
	data := append(kindsByName(supers1), supers2...)
	common := data[:xset.Inter(data, len(supers1))]

	lubs := findLowest(common)
	if len(lubs) != 1 {
		return nil, qerr.NewTypeSystem(qerr.NotALattice, "lub(%s, %s) should have size 1: [%s]", k1, k2, joinKinds(lubs))
	}
	lub := lubs[0]
	if lub.isPoly && !k1.isPoly && !k2.isPoly {
		return nil, qerr.NewTypeSystem(qerr.NotALattice, "lub(%s, %s) can't be poly: %s", k1, k2, lub)
	}
	return lub, nil
}

func (b *builder) findGlb(k1, k2 *Kind) (*Kind, error) {
	switch {
	case k1 == k2:
		return k1, nil
	case k1.isSubtypeOf(k2):
		return k1, nil
	case k2.isSubtypeOf(k1):
		return k2, nil
	}
	var common []*Kind
	for _, kind := range b.kinds {
		if kind.isSubtypeOf(k1) && kind.isSubtypeOf(k2) {
			common = append(common, kind)
		}
	}
	glbs := findHighest(common)
	if len(glbs) != 1 {
		return nil, qerr.NewTypeSystem(qerr.NotALattice, "glb(%s, %s) should have size 1: [%s]", k1, k2, joinKinds(glbs))
	}
	glb := glbs[0]
	if glb.isPoly && !k1.isPoly && !k2.isPoly {
		return nil, qerr.NewTypeSystem(qerr.NotALattice, "glb(%s, %s) can't be poly: %s", k1, k2, glb)
	}
	return glb, nil
}

// findLowest keeps the kinds that are not a strict supertype of another kind in kinds
func findLowest(kinds []*Kind) []*Kind {
	return slices.DeleteFunc(slices.Clone(kinds), func(candidate *Kind) bool {
		return slices.ContainsFunc(kinds, func(other *Kind) bool {
			return other != candidate && other.isSubtypeOf(candidate)
		})
	})
}

// findHighest keeps the kinds that are not a strict subtype of another kind in kinds
func findHighest(kinds []*Kind) []*Kind {
	return slices.DeleteFunc(slices.Clone(kinds), func(candidate *Kind) bool {
		return slices.ContainsFunc(kinds, func(other *Kind) bool {
			return other != candidate && candidate.isSubtypeOf(other)
		})
	})
}

func (b *builder) createTable(operation string, find func(k1, k2 *Kind) (*Kind, error)) (*immutable.Map[kindPair, *Kind], error) {
	table := immutable.NewMapBuilder[kindPair, *Kind](kindPairHasher{})
	add := func(key kindPair, value *Kind) error {
		if existing, ok := table.Get(key); ok && existing != value {
			return qerr.NewTypeSystem(qerr.ConflictingTable,
				"multiple %ss for qualifiers %s and %s: found %s and %s", operation, key.Fst, key.Snd, value, existing)
		}
		table.Set(key, value)
		return nil
	}
	for _, k1 := range b.kinds {
		for _, k2 := range b.kinds {
			if k1.top != k2.top {
				continue
			}
			result, err := find(k1, k2)
			if err != nil {
				return nil, err
			}
			if err := add(util.NewPair(k1, k2), result); err != nil {
				return nil, err
			}
			if err := add(util.NewPair(k2, k1), result); err != nil {
				return nil, err
			}
		}
	}
	return table.Map(), nil
}

func joinKinds(kinds []*Kind) string {
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, k.name)
	}
	return strings.Join(names, ", ")
}

// Tops returns the top of every hierarchy, sorted by name
func (h *KindHierarchy) Tops() []*Kind {
	return slices.Clone(h.tops)
}

// Bottoms returns the bottom of every hierarchy, sorted by name
func (h *KindHierarchy) Bottoms() []*Kind {
	return slices.Clone(h.bottoms)
}

// Kinds returns every kind, sorted by name
func (h *KindHierarchy) Kinds() []*Kind {
	return slices.Clone(h.kinds)
}

// KindByName returns nil if there is no such qualifier
func (h *KindHierarchy) KindByName(name string) *Kind {
	return h.byName[name]
}

// TopToPoly maps each top that has a polymorphic kind to it
func (h *KindHierarchy) TopToPoly() map[*Kind]*Kind {
	return h.topToPoly
}

// Lub returns false when k1 and k2 are in different hierarchies
func (h *KindHierarchy) Lub(k1, k2 *Kind) (*Kind, bool) {
	return h.lubs.Get(util.NewPair(k1, k2))
}

// Glb returns false when k1 and k2 are in different hierarchies
func (h *KindHierarchy) Glb(k1, k2 *Kind) (*Kind, bool) {
	return h.glbs.Get(util.NewPair(k1, k2))
}
