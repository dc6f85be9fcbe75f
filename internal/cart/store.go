package cart

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"cumbre/internal/backend"
	"cumbre/internal/domain"
	apperrors "cumbre/internal/errors"
)

type Backend interface {
	GetCart(ctx context.Context, token string) ([]domain.CartItem, error)
	AddCartItem(ctx context.Context, token string, req backend.AddCartItemRequest) error
	UpdateCartItem(ctx context.Context, token string, itemID int, quantity int) error
	RemoveCartItem(ctx context.Context, token string, itemID int) error
	ClearCart(ctx context.Context, token string) error
}

type Identity interface {
	CurrentUser() *domain.User
	Token() string
}

// Summary is a consistent snapshot of the cart and its derived totals.
type Summary struct {
	Items      []domain.CartItem
	ItemCount  int
	TotalPrice float64
}

// Store holds one visitor's cart and keeps it in line with the backend.
//
// AddItem reloads the whole cart so server-computed fields (trip data, price)
// are authoritative; UpdateQuantity only patches the local quantity after the
// backend confirms. Mutations of the same item are rejected while one is in
// flight.
type Store struct {
	api      Backend
	identity Identity
	logger   *zap.Logger

	mu         sync.RWMutex
	items      []domain.CartItem
	pending    map[int]struct{}
	loadSeq    uint64
	appliedSeq uint64
}

func NewStore(api Backend, identity Identity, logger *zap.Logger) *Store {
	return &Store{
		api:      api,
		identity: identity,
		logger:   logger,
		pending:  make(map[int]struct{}),
	}
}

// Load replaces the item list with the backend cart, or empties it when nobody
// is logged in.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	s.mu.Unlock()

	if s.identity.CurrentUser() == nil {
		s.apply(seq, nil)
		return nil
	}

	items, err := s.api.GetCart(ctx, s.identity.Token())
	if err != nil {
		return fmt.Errorf("loading cart: %w", err)
	}

	valid := make([]domain.CartItem, 0, len(items))
	for _, it := range items {
		if !it.Valid() {
			s.logger.Warn("dropping invalid cart item", zap.Int("itemId", it.ID), zap.Int("quantity", it.Quantity), zap.Float64("unitPrice", it.UnitPrice))
			continue
		}
		valid = append(valid, it)
	}

	s.apply(seq, valid)
	return nil
}

// apply installs a loaded snapshot unless a newer load already landed.
func (s *Store) apply(seq uint64, items []domain.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq < s.appliedSeq {
		s.logger.Debug("discarding stale cart snapshot", zap.Uint64("seq", seq), zap.Uint64("applied", s.appliedSeq))
		return
	}
	s.appliedSeq = seq
	s.items = items
}

func (s *Store) AddItem(ctx context.Context, tripID, departureDateID, quantity int) error {
	token, err := s.requireUser()
	if err != nil {
		return err
	}
	if quantity < 1 {
		return apperrors.NewValidationError("invalid quantity", apperrors.ValidationDetail{
			Field:   "cantidad",
			Message: "quantity must be at least 1",
		})
	}

	err = s.api.AddCartItem(ctx, token, backend.AddCartItemRequest{
		TripID:          tripID,
		DepartureDateID: departureDateID,
		Quantity:        quantity,
	})
	if err != nil {
		return fmt.Errorf("adding cart item: %w", err)
	}

	s.logger.Info("cart item added", zap.Int("tripId", tripID), zap.Int("departureDateId", departureDateID), zap.Int("quantity", quantity))
	return s.Load(ctx)
}

// UpdateQuantity sets the quantity of an item. Quantities below 1 are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, itemID, quantity int) error {
	if quantity < 1 {
		return nil
	}
	token, err := s.requireUser()
	if err != nil {
		return err
	}

	release, err := s.acquire(itemID)
	if err != nil {
		return err
	}
	defer release()

	if err := s.api.UpdateCartItem(ctx, token, itemID, quantity); err != nil {
		return fmt.Errorf("updating cart item %d: %w", itemID, err)
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items[i].Quantity = quantity
		}
	}
	s.mu.Unlock()

	s.logger.Info("cart item quantity updated", zap.Int("itemId", itemID), zap.Int("quantity", quantity))
	return nil
}

func (s *Store) RemoveItem(ctx context.Context, itemID int) error {
	token, err := s.requireUser()
	if err != nil {
		return err
	}

	release, err := s.acquire(itemID)
	if err != nil {
		return err
	}
	defer release()

	if err := s.api.RemoveCartItem(ctx, token, itemID); err != nil {
		return fmt.Errorf("removing cart item %d: %w", itemID, err)
	}

	s.mu.Lock()
	kept := s.items[:0:0]
	for _, it := range s.items {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	s.items = kept
	s.mu.Unlock()

	s.logger.Info("cart item removed", zap.Int("itemId", itemID))
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	token, err := s.requireUser()
	if err != nil {
		return err
	}

	if err := s.api.ClearCart(ctx, token); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}

	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()

	s.logger.Info("cart cleared")
	return nil
}

// Reset empties the local cart without calling the backend; used on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadSeq++
	s.appliedSeq = s.loadSeq
	s.items = nil
}

func (s *Store) requireUser() (string, error) {
	if s.identity.CurrentUser() == nil {
		return "", apperrors.NewNotAuthenticatedError("log in to manage your cart")
	}
	return s.identity.Token(), nil
}

// acquire marks an item as having a mutation in flight.
func (s *Store) acquire(itemID int) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, it := range s.items {
		if it.ID == itemID {
			found = true
			break
		}
	}
	if !found {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("cart item %d not found", itemID))
	}
	if _, busy := s.pending[itemID]; busy {
		return nil, apperrors.NewConflictError(fmt.Sprintf("cart item %d is being updated", itemID))
	}

	s.pending[itemID] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.pending, itemID)
		s.mu.Unlock()
	}, nil
}

func (s *Store) IsPending(itemID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, busy := s.pending[itemID]
	return busy
}

func (s *Store) Items() []domain.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items) == 0
}

func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return itemCount(s.items)
}

func (s *Store) TotalPrice() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return totalPrice(s.items)
}

func (s *Store) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.CartItem, len(s.items))
	copy(items, s.items)
	return Summary{
		Items:      items,
		ItemCount:  itemCount(items),
		TotalPrice: totalPrice(items),
	}
}

func itemCount(items []domain.CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func totalPrice(items []domain.CartItem) float64 {
	total := 0.0
	for _, it := range items {
		total += it.Subtotal()
	}
	return total
}
