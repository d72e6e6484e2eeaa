// Package catalog holds the static equity selection table: display
// name to exchange symbol, loaded once at startup and never modified
// at runtime.
package catalog

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/greenquant-lab/greenquant/pkg/errors"
)

// Entry is one selectable equity.
type Entry struct {
	// Name is the human readable display name shown in selection lists.
	Name string `yaml:"name" validate:"required"`
	// Symbol is the exchange symbol handed to the data source.
	Symbol string `yaml:"symbol" validate:"required"`
}

type catalogFile struct {
	Tickers []Entry `yaml:"tickers" validate:"required,min=1,dive"`
}

// Catalog is an ordered display-name to symbol table. Order follows the
// source file so selection lists render deterministically.
type Catalog struct {
	entries  []Entry
	byName   map[string]string
	bySymbol map[string]string
}

// New builds a catalog from entries, preserving their order. Duplicate
// names or symbols are rejected.
func New(entries []Entry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "catalog requires at least one entry")
	}

	c := &Catalog{
		entries:  make([]Entry, 0, len(entries)),
		byName:   make(map[string]string, len(entries)),
		bySymbol: make(map[string]string, len(entries)),
	}

	for _, e := range entries {
		if _, ok := c.byName[e.Name]; ok {
			return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "duplicate catalog name %q", e.Name)
		}

		if _, ok := c.bySymbol[e.Symbol]; ok {
			return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "duplicate catalog symbol %q", e.Symbol)
		}

		c.entries = append(c.entries, e)
		c.byName[e.Name] = e.Symbol
		c.bySymbol[e.Symbol] = e.Name
	}

	return c, nil
}

// Load reads and validates a yaml catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "reading catalog file %s", path)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "parsing catalog file", err)
	}

	if err := validator.New().Struct(&file); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "validating catalog file", err)
	}

	return New(file.Tickers)
}

// Default returns the built-in selection of large-cap US and Indian
// equities used when no catalog file is configured.
func Default() *Catalog {
	c, err := New([]Entry{
		{Name: "Apple (AAPL)", Symbol: "AAPL"},
		{Name: "Microsoft (MSFT)", Symbol: "MSFT"},
		{Name: "Google (GOOGL)", Symbol: "GOOGL"},
		{Name: "Amazon (AMZN)", Symbol: "AMZN"},
		{Name: "Tesla (TSLA)", Symbol: "TSLA"},
		{Name: "NVIDIA (NVDA)", Symbol: "NVDA"},
		{Name: "Meta Platforms (META)", Symbol: "META"},
		{Name: "Reliance Industries (RELIANCE.NS)", Symbol: "RELIANCE.NS"},
		{Name: "Tata Consultancy Services (TCS.NS)", Symbol: "TCS.NS"},
		{Name: "Infosys (INFY.NS)", Symbol: "INFY.NS"},
	})
	if err != nil {
		panic(err)
	}

	return c
}

// Entries returns the catalog entries in file order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)

	return out
}

// Symbols returns the exchange symbols in file order.
func (c *Catalog) Symbols() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Symbol
	}

	return out
}

// Resolve maps a display name to its exchange symbol.
func (c *Catalog) Resolve(name string) (string, error) {
	symbol, ok := c.byName[name]
	if !ok {
		return "", errors.Newf(errors.ErrCodeCatalogNotFound, "no catalog entry named %q", name)
	}

	return symbol, nil
}

// DisplayName maps an exchange symbol back to its display name. Unknown
// symbols fall back to the symbol itself.
func (c *Catalog) DisplayName(symbol string) string {
	if name, ok := c.bySymbol[symbol]; ok {
		return name
	}

	return symbol
}

// Has reports whether the symbol is part of the catalog.
func (c *Catalog) Has(symbol string) bool {
	_, ok := c.bySymbol[symbol]

	return ok
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}
