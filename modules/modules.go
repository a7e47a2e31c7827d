// Package modules parses network module membership files.
//
// A module file has one module per line: an integer module index, one
// attribute column (a score or label, ignored here) and then the member
// genes, all separated by whitespace.
package modules

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/carbocation/fishnet"
)

// Lines in module files can hold thousands of genes.
const maxLineBytes = 64 * 1024 * 1024

// Index maps the module indices of one network to their member genes.
type Index struct {
	Network string

	modules map[int][]string
	all     map[string]struct{}
}

// Parse reads a module file for network. The input may be compressed.
func Parse(network string, r io.Reader) (*Index, error) {
	source := network + " module file"

	dr, err := fishnet.MaybeDecompress(r)
	if err != nil {
		return nil, &fishnet.MalformedInputError{Source: source, Err: err}
	}

	ix := &Index{
		Network: network,
		modules: make(map[int][]string),
		all:     make(map[string]struct{}),
	}

	scanner := bufio.NewScanner(dr)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, &fishnet.MalformedInputError{Source: source, Message: fmt.Sprintf("line %d has no attribute column", line)}
		}

		module, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, &fishnet.MalformedInputError{Source: source, Message: fmt.Sprintf("line %d", line), Err: err}
		}
		if _, dup := ix.modules[module]; dup {
			return nil, &fishnet.MalformedInputError{Source: source, Message: fmt.Sprintf("module %d is listed twice", module)}
		}

		genes := append([]string(nil), fields[2:]...)
		ix.modules[module] = genes
		for _, gene := range genes {
			ix.all[gene] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &fishnet.MalformedInputError{Source: source, Err: err}
	}

	return ix, nil
}

// Genes returns the member genes of module in file order.
func (ix *Index) Genes(module int) ([]string, error) {
	genes, exists := ix.modules[module]
	if !exists {
		return nil, &fishnet.ModuleNotFoundError{Network: ix.Network, Module: module}
	}

	return genes, nil
}

// Modules returns the module indices in ascending order.
func (ix *Index) Modules() []int {
	out := make([]int, 0, len(ix.modules))
	for module := range ix.modules {
		out = append(out, module)
	}
	sort.Ints(out)
	return out
}

// Len is the number of modules.
func (ix *Index) Len() int {
	return len(ix.modules)
}

// Contains reports whether gene belongs to any module of the network.
func (ix *Index) Contains(gene string) bool {
	_, ok := ix.all[gene]
	return ok
}

// Background returns the genes of a trait table that belong to at least one
// module of the network, sorted.
func Background(ix *Index, genes []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, gene := range genes {
		if _, dup := seen[gene]; dup {
			continue
		}
		seen[gene] = struct{}{}

		if ix.Contains(gene) {
			out = append(out, gene)
		}
	}

	sort.Strings(out)
	return out
}
