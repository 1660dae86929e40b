package database

import (
	"sort"
	"time"

	"self-checkout/models"
)

func (s *Store) Settings() (Settings, error) {
	var settings Settings
	err := s.view(func(doc *document) error {
		settings = doc.Settings
		return nil
	})
	return settings, err
}

func (s *Store) Theme() (string, error) {
	settings, err := s.Settings()
	return settings.Theme, err
}

func (s *Store) SetTheme(theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return ErrInvalidTheme
	}
	return s.update(func(doc *document) error {
		doc.Settings.Theme = theme
		return nil
	})
}

// TaxRate returns the stored tax rate, or fallback when none is set.
func (s *Store) TaxRate(fallback float64) (float64, error) {
	settings, err := s.Settings()
	if err != nil {
		return fallback, err
	}
	if settings.TaxRate == nil || *settings.TaxRate < 0 {
		return fallback, nil
	}
	return *settings.TaxRate, nil
}

const topProductsLimit = 10

// Analytics aggregates the sales history. "Today" is the calendar day of now
// in now's location.
func (s *Store) Analytics(now time.Time) (models.Analytics, error) {
	var out models.Analytics
	err := s.view(func(doc *document) error {
		year, month, day := now.Date()
		type agg struct {
			quantity int
			revenue  float64
		}
		perProduct := map[string]*agg{}

		for _, sale := range doc.Sales {
			out.TotalRevenue += sale.Total
			y, m, d := sale.Timestamp.In(now.Location()).Date()
			if y == year && m == month && d == day {
				out.TodaySales++
				out.TodayRevenue += sale.Total
			}
			for _, item := range sale.Items {
				a, ok := perProduct[item.ProductID]
				if !ok {
					a = &agg{}
					perProduct[item.ProductID] = a
				}
				a.quantity += item.Quantity
				a.revenue += item.Total
			}
		}
		out.TotalSales = len(doc.Sales)

		names := make(map[string]string, len(doc.Products))
		for _, p := range doc.Products {
			names[p.ID] = p.Name
			if p.LowStock() {
				out.LowStockCount++
			}
		}

		out.TopProducts = make([]models.TopProduct, 0, len(perProduct))
		for id, a := range perProduct {
			name, ok := names[id]
			if !ok {
				name = "Unknown"
			}
			out.TopProducts = append(out.TopProducts, models.TopProduct{
				ProductID:    id,
				ProductName:  name,
				QuantitySold: a.quantity,
				Revenue:      a.revenue,
			})
		}
		sort.Slice(out.TopProducts, func(i, j int) bool {
			if out.TopProducts[i].Revenue != out.TopProducts[j].Revenue {
				return out.TopProducts[i].Revenue > out.TopProducts[j].Revenue
			}
			return out.TopProducts[i].ProductID < out.TopProducts[j].ProductID
		})
		if len(out.TopProducts) > topProductsLimit {
			out.TopProducts = out.TopProducts[:topProductsLimit]
		}
		return nil
	})
	return out, err
}
