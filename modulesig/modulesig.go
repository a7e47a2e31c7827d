// Package modulesig reads the merged module-significance table and selects
// the enriched modules of a trait and network.
package modulesig

import (
	"io"

	"github.com/carbocation/fishnet/tables"
)

// Row is one tested module.
type Row struct {
	Trait         string       `csv:"trait"`
	Network       string       `csv:"network"`
	Study         string       `csv:"study"`
	ModuleIndex   int          `csv:"moduleIndex"`
	IsModuleSig   tables.Bool  `csv:"isModuleSig"`
	ModulePval    tables.Float `csv:"modulePval"`
	ModuleBonPval tables.Float `csv:"moduleBonPval"`
	Size          tables.Float `csv:"size"`
}

// Columns must all be present in a module-significance table.
var Columns = []string{"trait", "network", "study", "moduleIndex", "isModuleSig", "modulePval", "moduleBonPval", "size"}

// Filter selects rows. An empty Study matches every study. When HasCutoff is
// set only rows with moduleBonPval <= Cutoff are kept.
type Filter struct {
	Trait     string
	Network   string
	Study     string
	Cutoff    float64
	HasCutoff bool
}

// WithCutoff returns a copy of f that also requires moduleBonPval <= cutoff.
func (f Filter) WithCutoff(cutoff float64) Filter {
	f.Cutoff = cutoff
	f.HasCutoff = true
	return f
}

func (f Filter) match(r Row) bool {
	if r.Trait != f.Trait || r.Network != f.Network {
		return false
	}
	if f.Study != "" && r.Study != f.Study {
		return false
	}
	if f.HasCutoff && !(float64(r.ModuleBonPval) <= f.Cutoff) {
		return false
	}
	return true
}

type traitNetwork struct {
	trait   string
	network string
}

// Table is a module-significance table indexed by trait and network.
type Table struct {
	rows []Row
	by   map[traitNetwork][]int
}

// Read parses a module-significance table. The input may be compressed.
func Read(source string, r io.Reader) (*Table, error) {
	rows := make([]Row, 0)
	if err := tables.Read(source, r, &rows, Columns...); err != nil {
		return nil, err
	}

	return NewTable(rows), nil
}

// NewTable indexes rows.
func NewTable(rows []Row) *Table {
	t := &Table{
		rows: rows,
		by:   make(map[traitNetwork][]int),
	}
	for i, r := range rows {
		k := traitNetwork{r.Trait, r.Network}
		t.by[k] = append(t.by[k], i)
	}
	return t
}

// Len is the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Select returns the matching rows in table order.
func (t *Table) Select(f Filter) []Row {
	out := make([]Row, 0)
	for _, i := range t.by[traitNetwork{f.Trait, f.Network}] {
		if f.match(t.rows[i]) {
			out = append(out, t.rows[i])
		}
	}
	return out
}

// Modules returns the distinct module indices of the matching rows, in the
// order they first appear.
func (t *Table) Modules(f Filter) []int {
	seen := make(map[int]struct{})
	out := make([]int, 0)
	for _, r := range t.Select(f) {
		if _, dup := seen[r.ModuleIndex]; dup {
			continue
		}
		seen[r.ModuleIndex] = struct{}{}
		out = append(out, r.ModuleIndex)
	}
	return out
}
