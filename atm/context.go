package atm

import (
	"log/slog"

	"github.com/cottand/qualis/internal/log"
	"github.com/cottand/qualis/qerr"
	"github.com/cottand/qualis/qualifier"
)

// PostAsMemberOf lets a type system adjust a member type after type
// variable substitution, for example to resolve polymorphic qualifiers
// against the receiver. It must not mutate its arguments.
type PostAsMemberOf func(member, receiver Type, elem *Element) Type

// TypeCtx carries what the type operations need: the qualifier
// hierarchy, the library declarations and the type system's hooks.
//
// A TypeCtx is immutable and safe for concurrent use. Every exported
// operation returns a fresh Type and a qerr.Bug if it reached an
// unexpected state.
type TypeCtx struct {
	h              qualifier.Hierarchy
	universe       *Universe
	postAsMemberOf PostAsMemberOf
	logger         *slog.Logger
}

type CtxOption func(*TypeCtx)

func WithPostAsMemberOf(hook PostAsMemberOf) CtxOption {
	return func(ctx *TypeCtx) {
		ctx.postAsMemberOf = hook
	}
}

func WithLogger(logger *slog.Logger) CtxOption {
	return func(ctx *TypeCtx) {
		ctx.logger = logger
	}
}

func NewTypeCtx(h qualifier.Hierarchy, universe *Universe, opts ...CtxOption) *TypeCtx {
	ctx := &TypeCtx{
		h:        h,
		universe: universe,
		logger:   log.DefaultLogger,
	}
	for _, opt := range opts {
		opt(ctx)
	}
	return ctx
}

func (ctx *TypeCtx) Hierarchy() qualifier.Hierarchy { return ctx.h }
func (ctx *TypeCtx) Universe() *Universe            { return ctx.universe }

func (ctx *TypeCtx) sectionLogger(section string) *slog.Logger {
	return ctx.logger.With("section", section)
}

func (ctx *TypeCtx) isSubtype(sub, super qualifier.Qualifier) bool {
	return ctx.h.IsSubtype(sub, super)
}

func (ctx *TypeCtx) lubQualifier(q1, q2 qualifier.Qualifier) qualifier.Qualifier {
	lub, ok := ctx.h.Lub(q1, q2)
	if !ok {
		qerr.Bugf(qerr.Unrelated, "no lub for %v and %v", q1, q2)
	}
	return lub
}

func (ctx *TypeCtx) glbQualifier(q1, q2 qualifier.Qualifier) qualifier.Qualifier {
	glb, ok := ctx.h.Glb(q1, q2)
	if !ok {
		qerr.Bugf(qerr.Unrelated, "no glb for %v and %v", q1, q2)
	}
	return glb
}

func (ctx *TypeCtx) lubQualifiers(quals1, quals2 []qualifier.Qualifier) []qualifier.Qualifier {
	lubs, err := qualifier.LubSets(ctx.h, quals1, quals2)
	if err != nil {
		panic(err)
	}
	return lubs
}

// AsSuper views t as an instance of the shape of super, carrying t's
// qualifiers over to the matching positions of the result.
func (ctx *TypeCtx) AsSuper(t, super Type) (res Type, err error) {
	defer qerr.Recover(&err)
	return ctx.asSuper(t, super), nil
}

// CastedAsSuper is AsSuper that also accepts null and enum subtypes, and
// recovers type arguments lost to raw supertypes.
func (ctx *TypeCtx) CastedAsSuper(sub, super Type) (res Type, err error) {
	defer qerr.Recover(&err)
	return ctx.castedAsSuper(sub, super), nil
}

// AsMemberOf is the type of the member elem, whose declared type is
// memberType, when accessed through a receiver of type receiver.
func (ctx *TypeCtx) AsMemberOf(receiver Type, elem *Element, memberType Type) (res Type, err error) {
	defer qerr.Recover(&err)
	return ctx.asMemberOf(receiver, elem, memberType), nil
}

// Lub is the least upper bound of t1 and t2 shaped like shape, whose own
// qualifiers are ignored.
func (ctx *TypeCtx) Lub(t1, t2, shape Type) (res Type, err error) {
	defer qerr.Recover(&err)
	return ctx.lub(t1, t2, shape), nil
}

// LeastUpperBound is Lub with the shape inferred from t1 and t2
func (ctx *TypeCtx) LeastUpperBound(t1, t2 Type) (res Type, err error) {
	defer qerr.Recover(&err)
	return ctx.lub(t1, t2, ctx.lubShape(t1, t2)), nil
}

// GreatestLowerBound is the glb of t1 and t2. When neither underlying
// type is a subtype of the other, it is their intersection.
func (ctx *TypeCtx) GreatestLowerBound(t1, t2 Type) (res Type, err error) {
	defer qerr.Recover(&err)
	return ctx.glb(t1, t2), nil
}

// DirectSupertypes are the supertypes t is declared to have, with type
// arguments substituted and t's primary qualifiers.
func (ctx *TypeCtx) DirectSupertypes(t Type) (res []Type, err error) {
	defer qerr.Recover(&err)
	return ctx.directSupertypes(t), nil
}

// AllSupertypes are the transitive supertypes of a declared type,
// starting with the direct ones, without repeating declarations
func (ctx *TypeCtx) AllSupertypes(t *DeclaredType) (res []*DeclaredType, err error) {
	defer qerr.Recover(&err)
	return ctx.allSupertypes(t), nil
}

// EffectiveQualifierInHierarchy is the qualifier that bounds t from
// above in top's hierarchy, looking through type variables and
// wildcards to their upper bounds.
func (ctx *TypeCtx) EffectiveQualifierInHierarchy(t Type, top qualifier.Qualifier) (res qualifier.Qualifier, err error) {
	defer qerr.Recover(&err)
	return ctx.effectiveQualifierInHierarchy(t, top), nil
}

// EffectiveQualifiers is EffectiveQualifierInHierarchy for every hierarchy
func (ctx *TypeCtx) EffectiveQualifiers(t Type) (res []qualifier.Qualifier, err error) {
	defer qerr.Recover(&err)
	return ctx.effectiveQualifiers(t), nil
}

// EffectiveLowerBoundQualifiers are the qualifiers that bound t from below
func (ctx *TypeCtx) EffectiveLowerBoundQualifiers(t Type) (res []qualifier.Qualifier, err error) {
	defer qerr.Recover(&err)
	return ctx.effectiveLowerBoundQualifiers(t), nil
}

// GlbOfBounds is, per hierarchy, the lowest qualifier among the
// intersection's primary qualifiers and those of its bounds
func (ctx *TypeCtx) GlbOfBounds(t *IntersectionType) (res []qualifier.Qualifier, err error) {
	defer qerr.Recover(&err)
	return ctx.glbOfBounds(t), nil
}

// Erased is the erasure of t: type arguments dropped and type variables
// replaced by the erasure of their bounds. Qualifiers are kept.
func (ctx *TypeCtx) Erased(t Type) (res Type, err error) {
	defer qerr.Recover(&err)
	return ctx.erased(t), nil
}

// IsErasedSubtype compares the erasures of sub and super
func (ctx *TypeCtx) IsErasedSubtype(sub, super Type) (res bool, err error) {
	defer qerr.Recover(&err)
	return ctx.isErasedSubtype(sub, super), nil
}
