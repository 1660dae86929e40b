package cart

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"self-checkout/models"
)

const (
	DefaultSessionID = "default"
	DefaultSource    = "scanner"
)

// Ledger owns every cart session of the process. Lines are only appended or
// deleted, never edited; quantities are derived by counting lines.
type Ledger struct {
	mu       sync.Mutex
	sessions map[string]*models.CartSession

	finder         ProductFinder
	defaultSession string
	source         string
	now            func() time.Time
	newID          func() string
}

type Option func(*Ledger)

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithDefaultSession(id string) Option {
	return func(l *Ledger) {
		if id != "" {
			l.defaultSession = id
		}
	}
}

func WithSourceTag(tag string) Option {
	return func(l *Ledger) {
		if tag != "" {
			l.source = tag
		}
	}
}

func NewLedger(finder ProductFinder, opts ...Option) *Ledger {
	l := &Ledger{
		sessions:       make(map[string]*models.CartSession),
		finder:         finder,
		defaultSession: DefaultSessionID,
		source:         DefaultSource,
		now:            time.Now,
		newID:          func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) DefaultSession() string {
	return l.defaultSession
}

// session returns the named session, creating it on first access.
// Caller must hold l.mu.
func (l *Ledger) session(id string) *models.CartSession {
	if id == "" {
		id = l.defaultSession
	}
	s, ok := l.sessions[id]
	if !ok {
		s = &models.CartSession{SessionID: id, CreatedAt: l.now()}
		l.sessions[id] = s
	}
	return s
}

func (l *Ledger) touch(s *models.CartSession) {
	now := l.now()
	s.LastUpdated = &now
}

// Add appends quantity lines for the product, one per unit. Nothing is added
// when the product is unknown or its stock cannot cover quantity.
func (l *Ledger) Add(sessionID, productID string, quantity int) ([]models.CartLine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.add(l.session(sessionID), productID, quantity)
}

func (l *Ledger) add(s *models.CartSession, productID string, quantity int) ([]models.CartLine, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	product, err := l.finder.FindProduct(productID)
	if err != nil {
		return nil, asNotFound(productID, err)
	}
	if quantity > product.Stock {
		return nil, &InsufficientStockError{Product: product, Requested: quantity, Available: product.Stock}
	}

	added := make([]models.CartLine, 0, quantity)
	for i := 0; i < quantity; i++ {
		added = append(added, models.CartLine{
			LineID:      l.newID(),
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Category:    product.Category,
			AddedAt:     l.now(),
			Source:      l.source,
		})
	}
	s.Lines = append(s.Lines, added...)
	l.touch(s)
	return added, nil
}

type BatchResult struct {
	Added  []models.CartLine
	Errors []string
}

// Succeeded is true when at least one line was added.
func (r BatchResult) Succeeded() bool {
	return len(r.Added) > 0
}

// AddBatch adds every item independently; a failing item is reported in
// Errors and does not affect the others.
func (l *Ledger) AddBatch(sessionID string, items []models.BatchItem) BatchResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.session(sessionID)
	var result BatchResult
	for _, item := range items {
		lines, err := l.add(s, item.ProductID, item.Quantity)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Added = append(result.Added, lines...)
	}
	return result
}

// RemoveOne deletes the first line for productID.
func (l *Ledger) RemoveOne(sessionID, productID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.session(sessionID)
	for i, line := range s.Lines {
		if line.ProductID == productID {
			s.Lines = append(s.Lines[:i], s.Lines[i+1:]...)
			l.touch(s)
			return true
		}
	}
	return false
}

// Clear drops all lines and returns how many there were.
func (l *Ledger) Clear(sessionID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.session(sessionID)
	n := len(s.Lines)
	s.Lines = nil
	l.touch(s)
	return n
}

func (l *Ledger) Summary(sessionID string) models.CartSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	return summarize(l.session(sessionID))
}

// Drain hands the current summary to fn while holding the ledger lock and
// clears the session only if fn succeeds. No line can be added between the
// snapshot and the clear.
func (l *Ledger) Drain(sessionID string, fn func(models.CartSummary) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.session(sessionID)
	if err := fn(summarize(s)); err != nil {
		return err
	}
	s.Lines = nil
	l.touch(s)
	return nil
}

func (l *Ledger) SessionCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}

// summarize groups lines by product id in order of first appearance.
func summarize(s *models.CartSession) models.CartSummary {
	summary := models.CartSummary{
		SessionID: s.SessionID,
		Items:     []models.SummaryItem{},
		CreatedAt: s.CreatedAt,
	}
	if s.LastUpdated != nil {
		t := *s.LastUpdated
		summary.LastUpdated = &t
	}

	index := make(map[string]int)
	for _, line := range s.Lines {
		i, ok := index[line.ProductID]
		if !ok {
			i = len(summary.Items)
			index[line.ProductID] = i
			summary.Items = append(summary.Items, models.SummaryItem{
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Price:       line.UnitPrice,
			})
		}
		summary.Items[i].Quantity++
	}
	summary.TotalItems = len(s.Lines)
	summary.UniqueItems = len(summary.Items)
	return summary
}

// CleanupStale removes sessions that hold no lines and were created more
// than maxAge ago.
func (l *Ledger) CleanupStale(maxAge time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-maxAge)
	removed := 0
	for id, s := range l.sessions {
		if len(s.Lines) == 0 && s.CreatedAt.Before(cutoff) {
			delete(l.sessions, id)
			removed++
		}
	}
	return removed
}

// RunCleanup sweeps stale sessions every interval until ctx is done. A
// non-positive interval disables the sweep.
func (l *Ledger) RunCleanup(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 {
		log.Printf("[cart] cleanup disabled, interval %v", interval)
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.CleanupStale(maxAge); n > 0 {
				log.Printf("[cart] removed %d stale sessions, %d remaining", n, l.SessionCount())
			}
		}
	}
}
