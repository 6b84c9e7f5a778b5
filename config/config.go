// Package config loads qualifier hierarchies from YAML or TOML files.
//
// A file lists qualifiers with their direct supertypes:
//
//	name: nullness
//	qualifiers:
//	  - name: nullable
//	  - name: non_null
//	    subtype_of: [nullable]
//	  - name: poly_null
//	    polymorphic: true
//
// A qualifier that declares no supertypes, and is neither polymorphic nor
// the file's bottom, is a top. Names are converted to CamelCase, so
// non_null and NonNull are the same qualifier.
package config

import (
	"bytes"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cottand/qualis/internal/log"
	"github.com/cottand/qualis/lattice"
	"github.com/cottand/qualis/qerr"
	"github.com/cottand/qualis/qualifier"
	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Format uint8

const (
	YAML Format = iota
	TOML
)

func (f Format) String() string {
	switch f {
	case YAML:
		return "yaml"
	case TOML:
		return "toml"
	}
	return "unknown"
}

// FormatOf picks the format from the file extension
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	}
	return 0, qerr.NewTypeSystem(qerr.InvalidFile, "%s: unsupported extension, expected .yaml, .yml or .toml", path)
}

type Qualifier struct {
	Name        string   `yaml:"name" toml:"name"`
	SubtypeOf   []string `yaml:"subtype_of" toml:"subtype_of"`
	Polymorphic bool     `yaml:"polymorphic" toml:"polymorphic"`
	// PolyTop names the top of a polymorphic qualifier's hierarchy, when the file has several
	PolyTop string `yaml:"poly_top" toml:"poly_top"`
	Payload bool   `yaml:"payload" toml:"payload"`
}

// File is a decoded hierarchy file
type File struct {
	Name string `yaml:"name" toml:"name"`
	// Bottom, if set, is attached below every qualifier without subtypes
	Bottom string `yaml:"bottom" toml:"bottom"`
	// PayloadOps names the registered qualifier.PayloadOps that compare
	// qualifiers with payload
	PayloadOps string      `yaml:"payload_ops" toml:"payload_ops"`
	Qualifiers []Qualifier `yaml:"qualifiers" toml:"qualifiers"`

	path string
}

// Path is where f was loaded from, if it was loaded from a file
func (f *File) Path() string { return f.path }

var logger = log.DefaultLogger.With("section", "config")

// Load reads and decodes the hierarchy file at path
func Load(path string) (*File, error) {
	return load(os.ReadFile, path)
}

// LoadFS is Load reading from fsys
func LoadFS(fsys fs.FS, path string) (*File, error) {
	return load(func(name string) ([]byte, error) {
		return fs.ReadFile(fsys, name)
	}, path)
}

func load(read func(string) ([]byte, error), path string) (*File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := read(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read hierarchy file %s", path)
	}
	f, err := Parse(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	f.path = path
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	logger.Debug("loaded hierarchy file", "path", path, "format", format, "qualifiers", len(f.Qualifiers))
	return f, nil
}

// Parse decodes a hierarchy file. Unknown fields are rejected.
func Parse(data []byte, format Format) (*File, error) {
	f := &File{}
	switch format {
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(f); err != nil {
			return nil, qerr.NewTypeSystem(qerr.InvalidFile, "invalid yaml: %v", err)
		}
	case TOML:
		md, err := toml.Decode(string(data), f)
		if err != nil {
			return nil, qerr.NewTypeSystem(qerr.InvalidFile, "invalid toml: %v", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, qerr.NewTypeSystem(qerr.InvalidFile, "unknown toml keys %v", undecoded)
		}
	default:
		return nil, qerr.NewTypeSystem(qerr.InvalidFile, "unknown format %v", format)
	}
	if len(f.Qualifiers) == 0 {
		return nil, qerr.NewTypeSystem(qerr.InvalidFile, "no qualifiers declared")
	}
	return f, nil
}

// CanonicalName is the name a qualifier is known by in the lattice
func CanonicalName(name string) string {
	return strcase.ToCamel(name)
}

func canonicalNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	res := make([]string, 0, len(names))
	for _, name := range names {
		res = append(res, CanonicalName(name))
	}
	return res
}

// Defs converts the qualifiers of f to lattice definitions
func (f *File) Defs() []lattice.Def {
	bottom := CanonicalName(f.Bottom)
	defs := make([]lattice.Def, 0, len(f.Qualifiers))
	for _, q := range f.Qualifiers {
		def := lattice.Def{
			Name:        CanonicalName(q.Name),
			HasPayload:  q.Payload,
			SubtypeOf:   canonicalNames(q.SubtypeOf),
			Polymorphic: q.Polymorphic,
		}
		if q.PolyTop != "" {
			def.PolymorphicTop = CanonicalName(q.PolyTop)
		}
		def.Top = len(def.SubtypeOf) == 0 && !def.Polymorphic && (bottom == "" || def.Name != bottom)
		defs = append(defs, def)
	}
	return defs
}

// Kinds builds the kind lattice of f
func (f *File) Kinds(opts ...lattice.Option) (*lattice.KindHierarchy, error) {
	if f.Bottom != "" {
		opts = append(opts, lattice.WithBottom(CanonicalName(f.Bottom)))
	}
	kinds, err := lattice.NewKindHierarchy(f.Defs(), opts...)
	if err != nil {
		return nil, f.wrap(err)
	}
	return kinds, nil
}

// Build returns the qualifier hierarchy of f: an ElementFree facade when
// no qualifier has payload, and a Mixed one using f's payload ops otherwise.
func (f *File) Build(opts ...lattice.Option) (qualifier.Hierarchy, error) {
	kinds, err := f.Kinds(opts...)
	if err != nil {
		return nil, err
	}
	if !f.hasPayload() {
		if f.PayloadOps != "" {
			logger.Warn("payload ops ignored since no qualifier has payload", "file", f.Name, "ops", f.PayloadOps)
		}
		h, err := qualifier.NewElementFree(kinds)
		if err != nil {
			return nil, f.wrap(err)
		}
		return h, nil
	}
	if f.PayloadOps == "" {
		return nil, f.wrap(qerr.NewTypeSystem(qerr.UnknownPayloadOps,
			"qualifiers with payload need payload_ops to name how they compare; registered: %v", RegisteredPayloadOps()))
	}
	ops, ok := LookupPayloadOps(f.PayloadOps)
	if !ok {
		return nil, f.wrap(qerr.NewTypeSystem(qerr.UnknownPayloadOps,
			"payload ops %s are not registered; registered: %v", f.PayloadOps, RegisteredPayloadOps()))
	}
	logger.Debug("built mixed hierarchy", "file", f.Name, "ops", f.PayloadOps)
	return qualifier.NewMixed(kinds, ops), nil
}

func (f *File) hasPayload() bool {
	for _, q := range f.Qualifiers {
		if q.Payload {
			return true
		}
	}
	return false
}

func (f *File) wrap(err error) error {
	where := f.path
	if where == "" {
		where = f.Name
	}
	return errors.Wrapf(err, "hierarchy %s", where)
}

// LogValue lists the qualifier names of f
func (f *File) LogValue() slog.Value {
	names := make([]string, 0, len(f.Qualifiers))
	for _, q := range f.Qualifiers {
		names = append(names, CanonicalName(q.Name))
	}
	return slog.GroupValue(
		slog.String("name", f.Name),
		slog.Any("qualifiers", names),
	)
}
