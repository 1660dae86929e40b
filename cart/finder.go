package cart

import (
	"errors"

	"self-checkout/catalog"
	"self-checkout/database"
	"self-checkout/models"
)

// ProductFinder returns the current catalog entry for a requested product
// id, including its live stock.
type ProductFinder interface {
	FindProduct(id string) (models.Product, error)
}

type ProductSource interface {
	Products() ([]models.Product, error)
}

type storeFinder struct {
	source  ProductSource
	aliases map[string]string
}

// NewStoreFinder resolves ids against a fresh snapshot of the catalog on
// every call, so stock is never stale. Ids that do not match exactly go
// through the catalog strategies (dash/underscore variants, partial match).
func NewStoreFinder(source ProductSource, aliases map[string]string) ProductFinder {
	return &storeFinder{source: source, aliases: aliases}
}

func (f *storeFinder) FindProduct(id string) (models.Product, error) {
	products, err := f.source.Products()
	if err != nil {
		return models.Product{}, err
	}
	resolver := catalog.NewResolver(products, f.aliases)
	if p, ok := resolver.Lookup(id); ok {
		return p, nil
	}
	return models.Product{}, &ProductNotFoundError{ProductID: id}
}

func asNotFound(id string, err error) error {
	if errors.Is(err, database.ErrProductNotFound) {
		return &ProductNotFoundError{ProductID: id}
	}
	return err
}
