package checkout

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"self-checkout/cart"
	"self-checkout/database"
	"self-checkout/events"
	"self-checkout/models"
)

var (
	ErrCartEmpty               = errors.New("cart is empty")
	ErrPaymentNotFound         = database.ErrPaymentNotFound
	ErrPaymentAlreadyProcessed = database.ErrPaymentAlreadyProcessed
	ErrPaymentCancelled        = database.ErrPaymentCancelled
)

const DefaultTaxRate = 0.07

type PaymentStore interface {
	AddPendingPayment(p models.PendingPayment) error
	PendingPayment(id string) (models.PendingPayment, error)
	ProcessPendingPayment(paymentID, saleID string, now time.Time) (models.Sale, error)
	CancelPendingPayment(paymentID string) (models.PendingPayment, error)
	TaxRate(fallback float64) (float64, error)
}

// ExpiryScheduler arranges for a pending payment to be expired later.
type ExpiryScheduler interface {
	SchedulePaymentCheck(paymentID string, after time.Duration) error
}

// Service drives a cart through pending payment to a completed or cancelled
// sale. Stock is checked when lines are added and decremented only on
// confirmation; nothing is reserved at checkout.
type Service struct {
	store     PaymentStore
	ledger    *cart.Ledger
	publisher events.Publisher
	taxRate   float64

	expiry    time.Duration
	scheduler ExpiryScheduler

	now   func() time.Time
	newID func() string
}

type Option func(*Service)

func WithTaxRate(rate float64) Option {
	return func(s *Service) {
		if rate >= 0 {
			s.taxRate = rate
		}
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithExpiry cancels payments still pending after d. A zero d or nil
// scheduler leaves payments pending until confirmed or cancelled.
func WithExpiry(scheduler ExpiryScheduler, d time.Duration) Option {
	return func(s *Service) {
		s.scheduler = scheduler
		s.expiry = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store PaymentStore, ledger *cart.Ledger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		ledger:    ledger,
		publisher: events.Nop(),
		taxRate:   DefaultTaxRate,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checkout snapshots the session's cart into a pending payment and clears
// the cart. The snapshot and the clear happen under the ledger lock.
func (s *Service) Checkout(sessionID string) (models.PendingPayment, error) {
	rate, err := s.store.TaxRate(s.taxRate)
	if err != nil {
		return models.PendingPayment{}, err
	}

	var payment models.PendingPayment
	err = s.ledger.Drain(sessionID, func(summary models.CartSummary) error {
		if summary.TotalItems == 0 {
			return ErrCartEmpty
		}
		payment = s.newPayment(summary, rate)
		return s.store.AddPendingPayment(payment)
	})
	if err != nil {
		return models.PendingPayment{}, err
	}

	log.Printf("Payment %s created for session %s: total %s", payment.PaymentID, payment.SessionID, FormatMoney(payment.Total))
	s.publisher.Publish(models.Event{
		Type:       models.EventPaymentCreated,
		SessionID:  payment.SessionID,
		PaymentID:  payment.PaymentID,
		ItemsCount: models.IntPtr(len(payment.Items)),
	})
	s.publisher.Publish(models.Event{Type: models.EventCartCleared, SessionID: payment.SessionID})

	if s.scheduler != nil && s.expiry > 0 {
		if err := s.scheduler.SchedulePaymentCheck(payment.PaymentID, s.expiry); err != nil {
			log.Printf("Failed to schedule expiry for payment %s: %v", payment.PaymentID, err)
		}
	}
	return payment, nil
}

func (s *Service) newPayment(summary models.CartSummary, rate float64) models.PendingPayment {
	items := make([]models.PaymentItem, 0, len(summary.Items))
	for _, item := range summary.Items {
		items = append(items, models.PaymentItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Total:       item.Price * float64(item.Quantity),
		})
	}

	subtotal := summary.Subtotal()
	tax := subtotal * rate
	total := subtotal + tax
	id := s.newID()

	return models.PendingPayment{
		PaymentID: id,
		SessionID: summary.SessionID,
		Items:     items,
		Subtotal:  subtotal,
		Tax:       tax,
		Total:     total,
		Status:    models.PaymentStatusPending,
		QRPayload: QRPayload(total, id),
		CreatedAt: s.now(),
	}
}

// QRPayload is the text encoded into the payment QR code.
func QRPayload(total float64, paymentID string) string {
	return fmt.Sprintf("PAYMENT|%s|%s", FormatMoney(total), paymentID)
}

// Confirm completes a pending payment: stock is decremented and a sale is
// recorded exactly once per payment id.
func (s *Service) Confirm(paymentID string) (models.Sale, error) {
	now := s.now()
	sale, err := s.store.ProcessPendingPayment(paymentID, s.saleID(now), now)
	if err != nil {
		return models.Sale{}, err
	}

	log.Printf("Sale %s completed for payment %s: total %s", sale.ID, paymentID, FormatMoney(sale.Total))
	if len(sale.SkippedStock) > 0 {
		log.Printf("Sale %s: stock not decremented for %v", sale.ID, sale.SkippedStock)
	}
	s.publisher.Publish(models.Event{Type: models.EventSaleCompleted, PaymentID: paymentID, Sale: &sale})
	return sale, nil
}

func (s *Service) saleID(now time.Time) string {
	return fmt.Sprintf("SALE-%s-%s", now.Format("20060102150405"), s.newID()[:8])
}

// Cancel abandons a pending payment. The cart cleared at checkout is not
// restored and stock is untouched.
func (s *Service) Cancel(paymentID string) (models.PendingPayment, error) {
	payment, err := s.store.CancelPendingPayment(paymentID)
	if err != nil {
		return models.PendingPayment{}, err
	}
	log.Printf("Payment %s cancelled", paymentID)
	s.publisher.Publish(models.Event{Type: models.EventPaymentCancelled, SessionID: payment.SessionID, PaymentID: paymentID})
	return payment, nil
}

// Expire cancels the payment if it is still pending and reports whether it
// did. A payment already completed, cancelled or gone is not an error.
func (s *Service) Expire(paymentID string) (bool, error) {
	_, err := s.Cancel(paymentID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrPaymentAlreadyProcessed),
		errors.Is(err, ErrPaymentCancelled),
		errors.Is(err, ErrPaymentNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *Service) Payment(paymentID string) (models.PendingPayment, error) {
	return s.store.PendingPayment(paymentID)
}
