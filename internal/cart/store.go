package cart

import (
	"errors"
	"sync"
)

// Store keeps one live cart per terminal in memory. All access goes through
// Do, which serialises mutations per terminal so two requests for the same
// terminal can never interleave.
type Store struct {
	mu        sync.Mutex
	terminals map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	cart Cart
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{terminals: make(map[string]*entry)}
}

// Do runs fn with exclusive access to the terminal's cart. The cart is
// created on first use. Changes made by fn are kept unless it errors.
func (s *Store) Do(terminalID string, fn func(c *Cart) error) error {
	if terminalID == "" {
		return errors.New("cart: terminal id is required")
	}
	if fn == nil {
		return errors.New("cart: callback not provided")
	}
	e := s.entryFor(terminalID)
	e.mu.Lock()
	defer e.mu.Unlock()

	scratch := e.cart.clone()
	if err := fn(&scratch); err != nil {
		return err
	}
	e.cart = scratch
	return nil
}

// Snapshot returns a copy of the terminal's current cart.
func (s *Store) Snapshot(terminalID string) (Cart, error) {
	if terminalID == "" {
		return Cart{}, errors.New("cart: terminal id is required")
	}
	e := s.entryFor(terminalID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cart.clone(), nil
}

func (s *Store) entryFor(terminalID string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.terminals[terminalID]
	if !ok {
		e = &entry{cart: Cart{TerminalID: terminalID}}
		s.terminals[terminalID] = e
	}
	return e
}

func (c Cart) clone() Cart {
	out := c
	out.Lines = append([]Line(nil), c.Lines...)
	return out
}
