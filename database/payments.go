package database

import (
	"log"
	"time"

	"self-checkout/models"
)

func (s *Store) AddPendingPayment(p models.PendingPayment) error {
	return s.update(func(doc *document) error {
		if _, exists := doc.PendingPayments[p.PaymentID]; exists {
			return ErrPaymentExists
		}
		doc.PendingPayments[p.PaymentID] = p
		return nil
	})
}

func (s *Store) PendingPayment(id string) (models.PendingPayment, error) {
	var payment models.PendingPayment
	err := s.view(func(doc *document) error {
		p, ok := doc.PendingPayments[id]
		if !ok {
			return ErrPaymentNotFound
		}
		payment = p
		return nil
	})
	return payment, err
}

// ProcessPendingPayment completes a pending payment exactly once: stock is
// decremented per line, a Sale is appended and the payment is marked
// completed, all in one write. A line whose stock no longer covers the sold
// quantity is skipped rather than failing the sale.
func (s *Store) ProcessPendingPayment(paymentID, saleID string, now time.Time) (models.Sale, error) {
	var sale models.Sale
	err := s.update(func(doc *document) error {
		payment, ok := doc.PendingPayments[paymentID]
		if !ok {
			return ErrPaymentNotFound
		}
		switch payment.Status {
		case models.PaymentStatusCompleted:
			return ErrPaymentAlreadyProcessed
		case models.PaymentStatusCancelled:
			return ErrPaymentCancelled
		}

		sale = models.Sale{
			ID:            saleID,
			PaymentID:     paymentID,
			Items:         payment.Items,
			Subtotal:      payment.Subtotal,
			Tax:           payment.Tax,
			Total:         payment.Total,
			Timestamp:     now,
			PaymentMethod: "qr_code",
		}

		for _, item := range payment.Items {
			i := findProduct(doc.Products, item.ProductID)
			if i < 0 || doc.Products[i].Stock < item.Quantity {
				log.Printf("Skipping stock decrement for %s in payment %s: requested %d", item.ProductID, paymentID, item.Quantity)
				sale.SkippedStock = append(sale.SkippedStock, item.ProductID)
				continue
			}
			doc.Products[i].Stock -= item.Quantity
		}

		payment.Status = models.PaymentStatusCompleted
		doc.PendingPayments[paymentID] = payment
		doc.Sales = append(doc.Sales, sale)
		return nil
	})
	return sale, err
}

// CancelPendingPayment moves a pending payment to cancelled. Stock is not
// touched and the cleared cart is not restored.
func (s *Store) CancelPendingPayment(paymentID string) (models.PendingPayment, error) {
	var payment models.PendingPayment
	err := s.update(func(doc *document) error {
		p, ok := doc.PendingPayments[paymentID]
		if !ok {
			return ErrPaymentNotFound
		}
		switch p.Status {
		case models.PaymentStatusCompleted:
			return ErrPaymentAlreadyProcessed
		case models.PaymentStatusCancelled:
			return ErrPaymentCancelled
		}
		p.Status = models.PaymentStatusCancelled
		doc.PendingPayments[paymentID] = p
		payment = p
		return nil
	})
	return payment, err
}

// Sales returns up to limit sales, newest first.
func (s *Store) Sales(limit int) ([]models.Sale, error) {
	var sales []models.Sale
	err := s.view(func(doc *document) error {
		n := len(doc.Sales)
		if limit <= 0 || limit > n {
			limit = n
		}
		sales = make([]models.Sale, 0, limit)
		for i := n - 1; i >= 0 && len(sales) < limit; i-- {
			sales = append(sales, doc.Sales[i])
		}
		return nil
	})
	return sales, err
}
