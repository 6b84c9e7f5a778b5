package atm

import (
	"log/slog"
	"strings"
)

type slogType struct {
	t Type
}

func (s slogType) LogValue() slog.Value {
	if s.t == nil {
		return slog.StringValue("<nil>")
	}
	return slog.GroupValue(
		slog.String("kind", s.t.Kind().String()),
		slog.String("type", s.t.String()),
	)
}

// Slog defers formatting t until a record is actually emitted
func Slog(t Type) slog.LogValuer {
	return slogType{t}
}

type slogTypes []Type

func (s slogTypes) LogValue() slog.Value {
	strs := make([]string, 0, len(s))
	for _, t := range s {
		strs = append(strs, t.String())
	}
	return slog.StringValue("[" + strings.Join(strs, ", ") + "]")
}
