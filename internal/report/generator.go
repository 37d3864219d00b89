// Package report renders computed tax data into output workbooks. Generators
// register by name in a static table; the CLI selects one (or the country's
// defaults) and hands it every asset's ComputedData.
package report

import (
	"slices"
	"strings"

	"github.com/ledgerloom/taxfolio/internal/tax"
	"github.com/ledgerloom/taxfolio/pkg/errors"
)

// Generator renders the computed data of all assets into one output file and
// returns the written path.
type Generator interface {
	Name() string
	Generate(assetToComputedData map[string]*tax.ComputedData, outputDir, prefix string) (string, error)
}

var registry = map[string]Generator{}

func register(g Generator) {
	registry[g.Name()] = g
}

// Lookup resolves a generator by name (case-insensitive).
func Lookup(name string) (Generator, error) {
	g, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, errors.UnknownGeneratorError(name)
	}
	return g, nil
}

// Names returns the registered generator names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
