package scanner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"self-checkout/catalog"
	"self-checkout/detection"
	"self-checkout/models"
)

// CartAPI is the subset of the cart service the scanner needs.
type CartAPI interface {
	AddItem(ctx context.Context, sessionID, productID string, quantity int) (models.AddToCartResponse, error)
	AddBatch(ctx context.Context, sessionID string, items []models.BatchItem) (models.AddBatchResponse, error)
	Products(ctx context.Context) ([]models.Product, error)
}

// Detected is one accepted scan waiting to be sent to the cart.
type Detected struct {
	Resolution catalog.Resolution
	Record     detection.Record
	At         time.Time
}

type ScanResult struct {
	Accepted   []Detected
	Suppressed int
	Dropped    int
	Failures   []detection.SourceFailure
}

// Scanner turns frames into a pending list of resolved products:
// detection sources, overlap suppression, debounce, catalog resolution.
type Scanner struct {
	sources    []detection.Source
	normalizer *detection.Normalizer
	debouncer  *detection.Debouncer
	client     CartAPI
	batch      bool
	session    string
	aliases    map[string]string
	now        func() time.Time

	mu       sync.Mutex
	resolver *catalog.Resolver
	pending  []Detected
}

type Option func(*Scanner)

func WithBatchSend(batch bool) Option {
	return func(s *Scanner) { s.batch = batch }
}

func WithSession(id string) Option {
	return func(s *Scanner) { s.session = id }
}

func WithAliases(aliases map[string]string) Option {
	return func(s *Scanner) { s.aliases = aliases }
}

func WithDebouncer(d *detection.Debouncer) Option {
	return func(s *Scanner) { s.debouncer = d }
}

func WithNormalizer(n *detection.Normalizer) Option {
	return func(s *Scanner) { s.normalizer = n }
}

func New(sources []detection.Source, client CartAPI, opts ...Option) *Scanner {
	s := &Scanner{
		sources:    sources,
		normalizer: detection.NewNormalizer(detection.DefaultMinConfidence, detection.DefaultIoUThreshold),
		debouncer:  detection.NewDebouncer(detection.DefaultDebounceWindow),
		client:     client,
		batch:      true,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resolver = catalog.NewResolver(nil, s.aliases)
	return s
}

// SetCatalog swaps the products labels are resolved against.
func (s *Scanner) SetCatalog(products []models.Product) {
	r := catalog.NewResolver(products, s.aliases)
	s.mu.Lock()
	s.resolver = r
	s.mu.Unlock()
}

// RefreshCatalog reloads the catalog from the cart service. On failure the
// previous catalog stays in use.
func (s *Scanner) RefreshCatalog(ctx context.Context) error {
	products, err := s.client.Products(ctx)
	if err != nil {
		return err
	}
	s.SetCatalog(products)
	return nil
}

// Scan runs every detection source on the frame and appends newly seen
// products to the pending list. Failing sources are reported, not fatal.
func (s *Scanner) Scan(ctx context.Context, frame detection.Frame) ScanResult {
	results := detection.RunSources(ctx, s.sources, frame)
	fr := s.normalizer.Normalize(results)

	out := ScanResult{Dropped: fr.Dropped, Failures: fr.Failures}
	for _, f := range fr.Failures {
		log.Printf("[scanner] source %s failed: %s", f.Category, f.Reason)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range fr.Records {
		if !s.debouncer.IsNew(rec.Label) {
			out.Suppressed++
			continue
		}
		res := s.resolver.Resolve(rec.Label)
		if res.NeedsMapping() {
			log.Printf("[scanner] %q needs mapping, kept for review only", rec.Label)
		}
		d := Detected{Resolution: res, Record: rec, At: s.now()}
		s.pending = append(s.pending, d)
		out.Accepted = append(out.Accepted, d)
	}
	return out
}

func (s *Scanner) Pending() []Detected {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Detected, len(s.pending))
	copy(out, s.pending)
	return out
}

// Remove drops the pending item at index i.
func (s *Scanner) Remove(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.pending) {
		return false
	}
	s.pending = append(s.pending[:i], s.pending[i+1:]...)
	return true
}

// Clear empties the pending list and forgets debounce history, starting a
// new scan batch.
func (s *Scanner) Clear() {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
	s.debouncer.Clear()
}

type Outcome int

const (
	OutcomeNothingToSend Outcome = iota
	OutcomeSuccess
	OutcomePartial
	OutcomeDataFailure
	OutcomeConnectionFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNothingToSend:
		return "nothing to send"
	case OutcomeSuccess:
		return "success"
	case OutcomePartial:
		return "partial"
	case OutcomeDataFailure:
		return "data failure"
	case OutcomeConnectionFailure:
		return "connection failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Retryable reports whether the pending list was kept for another attempt.
func (o Outcome) Retryable() bool {
	return o == OutcomeDataFailure || o == OutcomeConnectionFailure
}

type SendResult struct {
	Outcome  Outcome
	Sent     int
	Errors   []string
	Unmapped []string
}

const connectionErrorMessage = "Cannot connect to web server"

// Send delivers the pending products to the cart, as one batch call or one
// call per item. Unmapped labels are never sent. The pending list is cleared
// once anything was accepted; otherwise it is kept so the operator can retry.
func (s *Scanner) Send(ctx context.Context) SendResult {
	items := s.Pending()

	var result SendResult
	var sendable []Detected
	for _, d := range items {
		if d.Resolution.NeedsMapping() {
			result.Unmapped = append(result.Unmapped, d.Resolution.Label)
			continue
		}
		sendable = append(sendable, d)
	}
	if len(sendable) == 0 {
		result.Outcome = OutcomeNothingToSend
		return result
	}

	var connFailed bool
	if s.batch {
		connFailed = s.sendBatch(ctx, sendable, &result)
	} else {
		connFailed = s.sendIndividually(ctx, sendable, &result)
	}

	switch {
	case result.Sent > 0 && len(result.Errors) == 0:
		result.Outcome = OutcomeSuccess
	case result.Sent > 0:
		result.Outcome = OutcomePartial
	case connFailed:
		result.Outcome = OutcomeConnectionFailure
	default:
		result.Outcome = OutcomeDataFailure
	}

	if result.Sent > 0 {
		s.Clear()
	}
	log.Printf("[scanner] send finished: %s, %d sent, %d errors", result.Outcome, result.Sent, len(result.Errors))
	return result
}

// sendBatch groups pending products into one quantity-aware call.
func (s *Scanner) sendBatch(ctx context.Context, items []Detected, result *SendResult) bool {
	var batch []models.BatchItem
	index := map[string]int{}
	for _, d := range items {
		id := d.Resolution.Product.ID
		if i, ok := index[id]; ok {
			batch[i].Quantity++
			continue
		}
		index[id] = len(batch)
		batch = append(batch, models.BatchItem{ProductID: id, Quantity: 1})
	}

	resp, err := s.client.AddBatch(ctx, s.session, batch)
	if err != nil {
		if errors.Is(err, ErrConnection) {
			result.Errors = append(result.Errors, connectionErrorMessage)
			return true
		}
		result.Errors = append(result.Errors, err.Error())
		return false
	}
	result.Sent = resp.ItemsAdded
	result.Errors = append(result.Errors, resp.Errors...)
	return false
}

// sendIndividually stops at the first connection failure.
func (s *Scanner) sendIndividually(ctx context.Context, items []Detected, result *SendResult) bool {
	for _, d := range items {
		p := d.Resolution.Product
		if _, err := s.client.AddItem(ctx, s.session, p.ID, 1); err != nil {
			if errors.Is(err, ErrConnection) {
				result.Errors = append(result.Errors, connectionErrorMessage)
				return true
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", p.Name, apiErr.Message))
			} else {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", p.Name, err))
			}
			continue
		}
		result.Sent++
	}
	return false
}
