// Package systems provides ready-made qualifier systems built from the
// hierarchy files embedded in hierarchies/.
package systems

import (
	"embed"
	"maps"
	"path/filepath"
	"slices"

	"github.com/cottand/qualis/atm"
	"github.com/cottand/qualis/config"
	"github.com/cottand/qualis/internal/log"
	"github.com/cottand/qualis/qerr"
	"github.com/cottand/qualis/qualifier"
)

//go:embed hierarchies
var hierarchies embed.FS

var builtins = map[string]string{
	"nullness":       "hierarchies/nullness.yaml",
	"initialization": "hierarchies/initialization.yaml",
	"minlen":         "hierarchies/minlen.toml",
}

var logger = log.DefaultLogger.With("section", "config.systems")

// System is a qualifier hierarchy together with the hooks a TypeCtx
// needs to operate on it
type System struct {
	Name      string
	Hierarchy qualifier.Hierarchy
	// File the system was built from
	File *config.File
}

// Names lists the built-in systems, sorted
func Names() []string {
	return slices.Sorted(maps.Keys(builtins))
}

// Builtin loads the built-in system called name
func Builtin(name string) (*System, error) {
	file, ok := builtins[name]
	if !ok {
		return nil, qerr.NewTypeSystem(qerr.UnknownSystem, "no built-in system %s; built-ins: %v", name, Names())
	}
	f, err := config.LoadFS(hierarchies, file)
	if err != nil {
		return nil, err
	}
	return FromFile(f)
}

// FromFile builds the system described by a hierarchy file
func FromFile(f *config.File) (*System, error) {
	h, err := f.Build()
	if err != nil {
		return nil, err
	}
	logger.Debug("built system", "file", f)
	return &System{Name: f.Name, Hierarchy: h, File: f}, nil
}

// Load is Builtin when nameOrPath names a built-in system, and loads the
// hierarchy file at nameOrPath otherwise
func Load(nameOrPath string) (*System, error) {
	if _, ok := builtins[nameOrPath]; ok {
		return Builtin(nameOrPath)
	}
	if filepath.Ext(nameOrPath) == "" {
		return nil, qerr.NewTypeSystem(qerr.UnknownSystem, "%s is neither a built-in system nor a hierarchy file; built-ins: %v", nameOrPath, Names())
	}
	f, err := config.Load(nameOrPath)
	if err != nil {
		return nil, err
	}
	return FromFile(f)
}

// Qualifier is the instance of the named qualifier with args as payload
func (s *System) Qualifier(name string, args ...any) (qualifier.Qualifier, bool) {
	kind := s.Hierarchy.Kinds().KindByName(config.CanonicalName(name))
	if kind == nil {
		return qualifier.Absent, false
	}
	if len(args) == 0 {
		return s.Hierarchy.ByName(kind.Name())
	}
	return qualifier.New(kind, args...), true
}

// TypeCtx returns a TypeCtx over the system's hierarchy whose member
// types have their polymorphic qualifiers resolved against the receiver
func (s *System) TypeCtx(u *atm.Universe, opts ...atm.CtxOption) *atm.TypeCtx {
	var ctx *atm.TypeCtx
	hook := func(member, receiver atm.Type, _ *atm.Element) atm.Type {
		return ResolvePolymorphic(ctx, member, receiver)
	}
	opts = append([]atm.CtxOption{atm.WithPostAsMemberOf(hook)}, opts...)
	ctx = atm.NewTypeCtx(s.Hierarchy, u, opts...)
	return ctx
}
