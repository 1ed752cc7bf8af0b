// Package directory lists the browsable stock and crypto symbols with search
// and paging. The lists ship embedded as YAML.
package directory

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"finance-dashboard/internal/paging"
	"finance-dashboard/models"
)

//go:embed data/*.yaml
var files embed.FS

const (
	defaultPage  = 1
	defaultLimit = 20
)

// Directory is an ordered, de-duplicated symbol list
type Directory struct {
	entries []models.DirectoryEntry
	suffix  string
}

// Page is one page of search results
type Page struct {
	Entries []models.DirectoryEntry
	Total   int
	Page    int
	Limit   int
	HasMore bool
}

type document struct {
	Entries []models.DirectoryEntry `yaml:"entries"`
}

// Parse decodes a YAML directory. Duplicate symbols keep their first entry.
// Entries without a name are named after their symbol minus suffix.
func Parse(data []byte, suffix string) (*Directory, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse directory: %w", err)
	}

	seen := make(map[string]bool, len(doc.Entries))
	d := &Directory{suffix: suffix, entries: make([]models.DirectoryEntry, 0, len(doc.Entries))}
	for _, e := range doc.Entries {
		e.Symbol = strings.ToUpper(strings.TrimSpace(e.Symbol))
		if e.Symbol == "" || seen[e.Symbol] {
			continue
		}
		seen[e.Symbol] = true
		if e.CompanyName == "" {
			e.CompanyName = strings.TrimSuffix(e.Symbol, suffix)
		}
		d.entries = append(d.entries, e)
	}
	return d, nil
}

// Stocks loads the embedded stock directory
func Stocks() (*Directory, error) {
	return load("data/stocks.yaml", "")
}

// Cryptos loads the embedded crypto directory
func Cryptos() (*Directory, error) {
	return load("data/cryptos.yaml", "-USD")
}

func load(name, suffix string) (*Directory, error) {
	data, err := files.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return Parse(data, suffix)
}

// Len is the number of entries
func (d *Directory) Len() int {
	return len(d.entries)
}

// Lookup finds an entry by symbol, case-insensitively
func (d *Directory) Lookup(symbol string) (models.DirectoryEntry, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, e := range d.entries {
		if e.Symbol == symbol {
			return e, true
		}
	}
	return models.DirectoryEntry{}, false
}

// Search matches the query against symbol or name, case-insensitively, and
// returns one page. Page below 1 becomes 1 and limit below 1 becomes 20.
func (d *Directory) Search(query string, page, limit int) Page {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}

	matches := d.entries
	if q := strings.ToLower(strings.TrimSpace(query)); q != "" {
		matches = make([]models.DirectoryEntry, 0)
		for _, e := range d.entries {
			if strings.Contains(strings.ToLower(e.Symbol), q) || strings.Contains(strings.ToLower(e.CompanyName), q) {
				matches = append(matches, e)
			}
		}
	}

	start, end, hasMore := paging.Window(len(matches), page, limit)
	out := make([]models.DirectoryEntry, end-start)
	copy(out, matches[start:end])

	return Page{
		Entries: out,
		Total:   len(matches),
		Page:    page,
		Limit:   limit,
		HasMore: hasMore,
	}
}
