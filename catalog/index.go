package catalog

import (
	"strings"
	"unicode"

	"self-checkout/models"
)

// Index holds the catalog keyed several ways for the resolver strategies.
// It is immutable once built.
type Index struct {
	products []models.Product

	byID    map[string]int
	byLabel map[string]int
	aliases map[string]string

	canonID    map[string]int
	canonLabel map[string]int
	canonAlias map[string]string
}

func NewIndex(products []models.Product, aliases map[string]string) *Index {
	idx := &Index{
		products:   append([]models.Product(nil), products...),
		byID:       make(map[string]int, len(products)),
		byLabel:    make(map[string]int, len(products)),
		aliases:    make(map[string]string, len(aliases)),
		canonID:    make(map[string]int, len(products)),
		canonLabel: make(map[string]int, len(products)),
		canonAlias: make(map[string]string, len(aliases)),
	}

	for i, p := range idx.products {
		if _, dup := idx.byID[p.ID]; !dup {
			idx.byID[p.ID] = i
		}
		if c := Canonical(p.ID); c != "" {
			if _, dup := idx.canonID[c]; !dup {
				idx.canonID[c] = i
			}
		}
		if p.DetectorLabel == "" {
			continue
		}
		if _, dup := idx.byLabel[p.DetectorLabel]; !dup {
			idx.byLabel[p.DetectorLabel] = i
		}
		if c := Canonical(p.DetectorLabel); c != "" {
			if _, dup := idx.canonLabel[c]; !dup {
				idx.canonLabel[c] = i
			}
		}
	}
	for label, id := range aliases {
		idx.aliases[label] = id
		if c := Canonical(label); c != "" {
			idx.canonAlias[c] = id
		}
	}
	return idx
}

func (idx *Index) productByID(id string) (models.Product, bool) {
	if i, ok := idx.byID[id]; ok {
		return idx.products[i], true
	}
	return models.Product{}, false
}

// Canonical lowercases s, strips apostrophes and collapses runs of
// whitespace and dashes into a single dash.
func Canonical(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.TrimSpace(strings.ToLower(s)) {
		switch {
		case r == '\'' || r == '’':
			continue
		case r == '-' || unicode.IsSpace(r):
			pendingDash = true
			continue
		}
		if pendingDash && b.Len() > 0 {
			b.WriteByte('-')
			pendingDash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// compact drops dashes and underscores after lowercasing.
func compact(s string) string {
	return strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(s))
}
