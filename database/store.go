package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"self-checkout/models"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

type Settings struct {
	Theme   string   `json:"theme"`
	TaxRate *float64 `json:"tax_rate,omitempty"`
}

type document struct {
	Products        []models.Product                 `json:"products"`
	Sales           []models.Sale                    `json:"sales"`
	PendingPayments map[string]models.PendingPayment `json:"pending_payments"`
	Settings        Settings                         `json:"settings"`
}

// Store is the single flat JSON file behind the cart service. Every
// operation reads and rewrites the whole file while holding one lock, so a
// read-modify-write can never interleave with another writer.
type Store struct {
	path string
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create store dir: %w", err)
			}
		}
		if err := s.write(newDocument()); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat store: %w", err)
	}

	// fail early on a corrupt file
	if _, err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

func newDocument() *document {
	return &document{
		Products:        []models.Product{},
		Sales:           []models.Sale{},
		PendingPayments: map[string]models.PendingPayment{},
		Settings:        Settings{Theme: ThemeLight},
	}
}

func (s *Store) read() (*document, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	doc := newDocument()
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("decode store: %w", err)
	}
	if doc.PendingPayments == nil {
		doc.PendingPayments = map[string]models.PendingPayment{}
	}
	if doc.Settings.Theme == "" {
		doc.Settings.Theme = ThemeLight
	}
	return doc, nil
}

func (s *Store) write(doc *document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}

func (s *Store) view(fn func(doc *document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	return fn(doc)
}

// update runs fn inside the critical section and persists the document only
// when fn succeeds.
func (s *Store) update(fn func(doc *document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.write(doc)
}

func findProduct(products []models.Product, id string) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}
