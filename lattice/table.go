package lattice

import (
	"fmt"
	"hash/fnv"
	"io"
	"strings"

	"github.com/cottand/qualis/util"
)

// kindPair keys the lub and glb tables
type kindPair = util.Pair[*Kind, *Kind]

var _ interface {
	Hash(kindPair) uint32
	Equal(a, b kindPair) bool
} = kindPairHasher{}

type kindPairHasher struct{}

func (kindPairHasher) Hash(key kindPair) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key.Fst.name))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(key.Snd.name))
	return h.Sum32()
}

func (kindPairHasher) Equal(a, b kindPair) bool {
	return a == b
}

// Dump writes a human-readable description of the hierarchy: its tops,
// bottoms and polymorphic kinds, followed by the LUB and GLB tables of
// each sub-hierarchy. The output is deterministic.
func (h *KindHierarchy) Dump(w io.Writer) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "tops: [%s]\n", joinKinds(h.tops))
	fmt.Fprintf(&sb, "bottoms: [%s]\n", joinKinds(h.bottoms))
	for _, top := range h.tops {
		if poly, ok := h.topToPoly[top]; ok {
			fmt.Fprintf(&sb, "poly: %s -> %s\n", top, poly)
		}
	}
	fmt.Fprintln(&sb, "kinds:")
	for _, k := range h.kinds {
		var flags []string
		if k.IsTop() {
			flags = append(flags, "top")
		}
		if k.IsBottom() {
			flags = append(flags, "bottom")
		}
		if k.isPoly {
			flags = append(flags, "poly")
		}
		if k.hasPayload {
			flags = append(flags, "payload")
		}
		fmt.Fprintf(&sb, "  %s [%s] supers: [%s]\n", k, strings.Join(flags, ","), joinKinds(k.StrictSuperTypes()))
	}
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}
	for _, top := range h.tops {
		for _, table := range []struct {
			name   string
			lookup func(k1, k2 *Kind) (*Kind, bool)
		}{{"lub", h.Lub}, {"glb", h.Glb}} {
			if err := h.dumpTable(w, top, table.name, table.lookup); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *KindHierarchy) dumpTable(w io.Writer, top *Kind, name string, lookup func(k1, k2 *Kind) (*Kind, bool)) error {
	var members []*Kind
	for _, k := range h.kinds {
		if k.top == top {
			members = append(members, k)
		}
	}
	if _, err := fmt.Fprintf(w, "\n%s (%s)\n", name, top); err != nil {
		return err
	}
	width := 0
	for _, k := range members {
		width = max(width, len(k.name))
	}
	width += 2
	var sb strings.Builder
	writeRow := func(cells []string) {
		line := ""
		for _, cell := range cells {
			line += fmt.Sprintf("%-*s", width, cell)
		}
		sb.WriteString(strings.TrimRight(line, " "))
		sb.WriteString("\n")
	}
	header := []string{""}
	for _, k := range members {
		header = append(header, k.name)
	}
	writeRow(header)
	for _, k1 := range members {
		row := []string{k1.name}
		for _, k2 := range members {
			result, _ := lookup(k1, k2)
			row = append(row, result.name)
		}
		writeRow(row)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
