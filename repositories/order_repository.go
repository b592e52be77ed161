// Package repositories mediates typed access to the collections kept in the
// key-value store. Every mutation reads the whole collection, changes it in
// memory and writes the whole collection back.
package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kendall-kelly/maintenance-orders-api/models"
	"github.com/kendall-kelly/maintenance-orders-api/store"
	"github.com/rs/zerolog"
)

// ErrOrderExists is returned by Insert when the order number is taken
var ErrOrderExists = errors.New("order number already exists")

// OrderRepository stores orders under store.OrdersKey, keyed by order number.
//
// The mutex serializes callers sharing this instance. Separate processes
// writing the same store are not coordinated: the last write wins.
type OrderRepository struct {
	mu     sync.Mutex
	store  store.Store
	logger zerolog.Logger
}

// NewOrderRepository creates an order repository over s
func NewOrderRepository(s store.Store, logger zerolog.Logger) *OrderRepository {
	return &OrderRepository{
		store:  s,
		logger: logger.With().Str("component", "order_repository").Logger(),
	}
}

// load reads the collection. Corrupt data is logged and treated as empty.
func (r *OrderRepository) load() ([]*models.Order, error) {
	data, ok, err := r.store.Get(store.OrdersKey)
	if err != nil {
		return nil, err
	}
	if !ok || data == "" {
		return []*models.Order{}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		r.logger.Warn().Err(err).Msg("stored orders are corrupt, using empty collection")
		return []*models.Order{}, nil
	}

	orders := make([]*models.Order, 0, len(raw))
	for i, item := range raw {
		order, err := models.OrderFromJSON(item)
		if err != nil {
			r.logger.Warn().Err(err).Int("index", i).Msg("skipping corrupt stored order")
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (r *OrderRepository) write(orders []*models.Order) error {
	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("failed to encode orders: %w", err)
	}
	if err := r.store.Set(store.OrdersKey, string(data)); err != nil {
		return fmt.Errorf("failed to write orders: %w", err)
	}
	return nil
}

// Save inserts the order or replaces the stored order with the same number
func (r *OrderRepository) Save(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load()
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range orders {
		if existing.OrderNumber == order.OrderNumber {
			orders[i] = order
			replaced = true
			break
		}
	}
	if !replaced {
		orders = append(orders, order)
	}

	if err := r.write(orders); err != nil {
		return err
	}
	r.logger.Debug().Str("order_number", order.OrderNumber).Bool("replaced", replaced).Msg("order saved")
	return nil
}

// Insert stores a new order, failing with ErrOrderExists when its number is
// already stored
func (r *OrderRepository) Insert(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load()
	if err != nil {
		return err
	}
	for _, existing := range orders {
		if existing.OrderNumber == order.OrderNumber {
			return ErrOrderExists
		}
	}

	if err := r.write(append(orders, order)); err != nil {
		return err
	}
	r.logger.Debug().Str("order_number", order.OrderNumber).Msg("order inserted")
	return nil
}

// Update loads the order with the given number, applies fn and writes the
// result, all under the repository lock. Nothing is written when fn fails.
// It returns nil when the order is absent, without calling fn.
func (r *OrderRepository) Update(orderNumber string, fn func(*models.Order) error) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load()
	if err != nil {
		return nil, err
	}

	for _, order := range orders {
		if order.OrderNumber != orderNumber {
			continue
		}
		if err := fn(order); err != nil {
			return nil, err
		}
		if order.OrderNumber != orderNumber {
			return nil, fmt.Errorf("order number %s must not change", orderNumber)
		}
		if err := r.write(orders); err != nil {
			return nil, err
		}
		r.logger.Debug().Str("order_number", orderNumber).Msg("order updated")
		return order, nil
	}
	return nil, nil
}

// Get returns the order with the given number, or nil when absent
func (r *OrderRepository) Get(orderNumber string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		if order.OrderNumber == orderNumber {
			return order, nil
		}
	}
	return nil, nil
}

// Delete removes the order with the given number; an absent number is a no-op
func (r *OrderRepository) Delete(orderNumber string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load()
	if err != nil {
		return err
	}

	kept := orders[:0]
	for _, order := range orders {
		if order.OrderNumber != orderNumber {
			kept = append(kept, order)
		}
	}
	if len(kept) == len(orders) {
		return nil
	}
	return r.write(kept)
}

// List returns the orders matching every set filter field, newest createdAt first
func (r *OrderRepository) List(filter models.OrderFilter) ([]*models.Order, error) {
	r.mu.Lock()
	orders, err := r.load()
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	matched := make([]*models.Order, 0, len(orders))
	for _, order := range orders {
		if filter.Matches(order) {
			matched = append(matched, order)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

// All returns every stored order in storage order
func (r *OrderRepository) All() ([]*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

// ReplaceAll overwrites the whole collection
func (r *OrderRepository) ReplaceAll(orders []*models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if orders == nil {
		orders = []*models.Order{}
	}
	return r.write(orders)
}

// Clear removes the collection key
func (r *OrderRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Remove(store.OrdersKey)
}
