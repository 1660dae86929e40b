package catalog

import (
	"log"
	"strings"

	"self-checkout/models"
)

const (
	DefaultUnknownPrice = 10.0
	UnknownCategory     = "unknown"
	StrategyUnknown     = "unknown"
)

// Resolution is the outcome of mapping a detector label. Known is false for
// labels no strategy could map; Product then carries a synthesized identity.
type Resolution struct {
	Label    string         `json:"label"`
	Product  models.Product `json:"product"`
	Known    bool           `json:"known"`
	Strategy string         `json:"strategy"`
}

// NeedsMapping reports that the operator should add a catalog mapping.
func (r Resolution) NeedsMapping() bool {
	return !r.Known
}

type Resolver struct {
	index        *Index
	strategies   []Strategy
	unknownPrice float64
}

type Option func(*Resolver)

func WithStrategies(strategies ...Strategy) Option {
	return func(r *Resolver) { r.strategies = strategies }
}

func WithUnknownPrice(price float64) Option {
	return func(r *Resolver) {
		if price >= 0 {
			r.unknownPrice = price
		}
	}
}

func NewResolver(products []models.Product, aliases map[string]string, opts ...Option) *Resolver {
	r := &Resolver{
		index:        NewIndex(products, aliases),
		strategies:   DefaultStrategies(),
		unknownPrice: DefaultUnknownPrice,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve never fails: the first matching strategy wins, otherwise an
// Unknown resolution is returned.
func (r *Resolver) Resolve(label string) Resolution {
	for _, s := range r.strategies {
		if p, ok := s.Find(r.index, label); ok {
			return Resolution{Label: label, Product: p, Known: true, Strategy: s.Name()}
		}
	}

	log.Printf("[catalog] label %q is not mapped to a product", label)
	return Resolution{
		Label:    label,
		Product:  r.unknownProduct(label),
		Known:    false,
		Strategy: StrategyUnknown,
	}
}

// Lookup resolves a product id as sent by the scanner, returning false when
// only an Unknown could be produced.
func (r *Resolver) Lookup(id string) (models.Product, bool) {
	res := r.Resolve(id)
	if !res.Known {
		return models.Product{}, false
	}
	return res.Product, true
}

func (r *Resolver) unknownProduct(label string) models.Product {
	return models.Product{
		ID:            UnknownID(label),
		Name:          label,
		Price:         r.unknownPrice,
		Category:      UnknownCategory,
		DetectorLabel: label,
	}
}

// UnknownID is the deterministic id given to unmapped labels.
func UnknownID(label string) string {
	id := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), " ", "-")
	if id == "" {
		return "unknown"
	}
	return id
}
