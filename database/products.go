package database

import "self-checkout/models"

type StockOperation string

const (
	StockAdd      StockOperation = "add"
	StockSubtract StockOperation = "subtract"
)

func (s *Store) Products() ([]models.Product, error) {
	var products []models.Product
	err := s.view(func(doc *document) error {
		products = doc.Products
		return nil
	})
	return products, err
}

func (s *Store) Product(id string) (models.Product, error) {
	var product models.Product
	err := s.view(func(doc *document) error {
		i := findProduct(doc.Products, id)
		if i < 0 {
			return ErrProductNotFound
		}
		product = doc.Products[i]
		return nil
	})
	return product, err
}

func (s *Store) LowStockProducts() ([]models.Product, error) {
	var low []models.Product
	err := s.view(func(doc *document) error {
		for _, p := range doc.Products {
			if p.LowStock() {
				low = append(low, p)
			}
		}
		return nil
	})
	return low, err
}

// UpsertProducts inserts new products and replaces existing ones by id.
func (s *Store) UpsertProducts(products []models.Product) error {
	return s.update(func(doc *document) error {
		for _, p := range products {
			if p.Stock < 0 {
				return ErrInvalidQuantity
			}
			if i := findProduct(doc.Products, p.ID); i >= 0 {
				doc.Products[i] = p
			} else {
				doc.Products = append(doc.Products, p)
			}
		}
		return nil
	})
}

// UpdateStock adds to or subtracts from a product's stock. Subtracting more
// than is available fails and leaves the stock unchanged.
func (s *Store) UpdateStock(id string, quantity int, op StockOperation) (models.Product, error) {
	var updated models.Product
	if quantity <= 0 {
		return updated, ErrInvalidQuantity
	}
	err := s.update(func(doc *document) error {
		i := findProduct(doc.Products, id)
		if i < 0 {
			return ErrProductNotFound
		}
		switch op {
		case StockAdd:
			doc.Products[i].Stock += quantity
		case StockSubtract:
			if doc.Products[i].Stock < quantity {
				return ErrInsufficientStock
			}
			doc.Products[i].Stock -= quantity
		default:
			return ErrInvalidQuantity
		}
		updated = doc.Products[i]
		return nil
	})
	return updated, err
}
