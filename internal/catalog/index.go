package catalog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ginjaninja78/sales-analytics/internal/types"
)

// Index is a read-only lookup over catalog entries by title and by ID.
type Index struct {
	byName map[string]types.CatalogEntry
	byID   map[int]types.CatalogEntry
	size   int
}

// NewIndex builds an Index. When two entries share a key the first one wins.
func NewIndex(entries []types.CatalogEntry) *Index {
	idx := &Index{
		byName: make(map[string]types.CatalogEntry, len(entries)),
		byID:   make(map[int]types.CatalogEntry, len(entries)),
		size:   len(entries),
	}
	for _, e := range entries {
		if key := nameKey(e.Title); key != "" {
			if _, dup := idx.byName[key]; !dup {
				idx.byName[key] = e
			}
		}
		if _, dup := idx.byID[e.ID]; !dup {
			idx.byID[e.ID] = e
		}
	}
	return idx
}

// ByName finds an entry whose title equals name, ignoring case and
// surrounding or repeated whitespace.
func (i *Index) ByName(name string) (types.CatalogEntry, bool) {
	if i == nil {
		return types.CatalogEntry{}, false
	}
	e, ok := i.byName[nameKey(name)]
	return e, ok
}

// ByID finds an entry by catalog ID.
func (i *Index) ByID(id int) (types.CatalogEntry, bool) {
	if i == nil {
		return types.CatalogEntry{}, false
	}
	e, ok := i.byID[id]
	return e, ok
}

// Len returns the number of entries the index was built from.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return i.size
}

func nameKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

var digitRun = regexp.MustCompile(`[0-9]+`)

// ProductNumber extracts the first run of digits in a product ID
// ("P101" -> 101, "P10x" -> 10).
func ProductNumber(productID string) (int, bool) {
	digits := digitRun.FindString(productID)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}
