package catalog

import (
	"strings"

	"self-checkout/models"
)

// Strategy is one step of the resolution chain.
type Strategy interface {
	Name() string
	Find(idx *Index, label string) (models.Product, bool)
}

// ExactStrategy matches the raw label against aliases, detector labels and ids.
type ExactStrategy struct{}

func (ExactStrategy) Name() string { return "exact" }

func (ExactStrategy) Find(idx *Index, label string) (models.Product, bool) {
	if id, ok := idx.aliases[label]; ok {
		if p, ok := idx.productByID(id); ok {
			return p, true
		}
	}
	if i, ok := idx.byLabel[label]; ok {
		return idx.products[i], true
	}
	return idx.productByID(label)
}

// NormalizedStrategy retries the lookup with the canonical form of the label,
// its dash/underscore swapped variants and with descriptor suffixes removed.
type NormalizedStrategy struct {
	Suffixes []string
}

func (NormalizedStrategy) Name() string { return "normalized" }

func (s NormalizedStrategy) Find(idx *Index, label string) (models.Product, bool) {
	for _, key := range s.variants(label) {
		if id, ok := idx.canonAlias[key]; ok {
			if p, ok := idx.productByID(id); ok {
				return p, true
			}
		}
		if i, ok := idx.canonLabel[key]; ok {
			return idx.products[i], true
		}
		if i, ok := idx.canonID[key]; ok {
			return idx.products[i], true
		}
	}
	return models.Product{}, false
}

func (s NormalizedStrategy) variants(label string) []string {
	base := Canonical(label)
	if base == "" {
		return nil
	}

	var out []string
	seen := map[string]bool{}
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}

	forms := []string{base}
	for _, suffix := range s.Suffixes {
		if trimmed, ok := strings.CutSuffix(base, suffix); ok {
			forms = append(forms, trimmed)
		}
	}
	for _, f := range forms {
		add(f)
		add(strings.ReplaceAll(f, "_", "-"))
		add(strings.ReplaceAll(f, "-", "_"))
	}
	return out
}

// PartialStrategy accepts the first catalog id that contains the label, or
// that equals it once dashes and underscores are removed on both sides.
type PartialStrategy struct{}

func (PartialStrategy) Name() string { return "partial" }

func (PartialStrategy) Find(idx *Index, label string) (models.Product, bool) {
	query := strings.ToLower(strings.TrimSpace(label))
	if query == "" {
		return models.Product{}, false
	}
	compactQuery := compact(query)

	for _, p := range idx.products {
		id := strings.ToLower(p.ID)
		if strings.Contains(id, query) {
			return p, true
		}
		if compactQuery != "" && compact(id) == compactQuery {
			return p, true
		}
	}
	return models.Product{}, false
}

func DefaultStrategies() []Strategy {
	return []Strategy{
		ExactStrategy{},
		NormalizedStrategy{Suffixes: []string{"-flavor", "-flavour"}},
		PartialStrategy{},
	}
}
